package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/mohammed-shakir/gridform/internal/core/config"
	"github.com/mohammed-shakir/gridform/internal/core/health"
	"github.com/mohammed-shakir/gridform/internal/core/launch"
	"github.com/mohammed-shakir/gridform/internal/core/router"
	"github.com/mohammed-shakir/gridform/internal/core/server"
	"github.com/mohammed-shakir/gridform/internal/draft"
	"github.com/mohammed-shakir/gridform/internal/draft/memstore"
	"github.com/mohammed-shakir/gridform/internal/draft/redisstore"
	"github.com/mohammed-shakir/gridform/internal/logger"
	"github.com/mohammed-shakir/gridform/internal/metrics"
	"github.com/mohammed-shakir/gridform/internal/runevents"
	"github.com/mohammed-shakir/gridform/internal/submit"
)

var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	addrFlag := flag.String("addr", "", "listen address (overrides ADDR)")
	flag.Parse()

	cfg := config.FromEnv()
	if *addrFlag != "" {
		cfg.Addr = strings.TrimSpace(*addrFlag)
	}

	zl := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Console:   cfg.LogConsole,
		Component: "gridform-server",
	}, os.Stdout)
	appLog := logger.NewSlog(&zl)

	appLog.Info("starting gridform server",
		"addr", cfg.Addr,
		"version", Version,
		"work_dir", cfg.WorkDir,
		"draft_store", cfg.DraftStore,
		"launch", cfg.Launch)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p, err := metrics.Init(metrics.Config{
		Enabled: cfg.Metrics.Enabled,
		Addr:    cfg.Metrics.Addr,
		Path:    cfg.Metrics.Path,
		Build: metrics.BuildInfo{
			Version:   Version,
			Revision:  os.Getenv("BUILD_REVISION"),
			Branch:    os.Getenv("BUILD_BRANCH"),
			BuildDate: os.Getenv("BUILD_DATE"),
		},
	})
	if err != nil {
		appLog.Error("metrics setup failed", "err", err)
		return 1
	}

	opts := server.Options{Addr: cfg.Addr}
	if cfg.Metrics.Enabled {
		if cfg.Metrics.Addr != "" {
			go func() {
				if err := p.Serve(ctx, appLog); err != nil {
					appLog.Error("metrics server exited", "err", err)
				}
			}()
		} else {
			opts.Metrics = p.Handler()
			opts.MetricsPath = p.Path()
		}
	}

	var store draft.Store
	switch cfg.DraftStore {
	case "redis":
		rc, err := redisstore.New(ctx, cfg.RedisAddr, cfg.DraftTTL)
		if err != nil {
			appLog.Error("redis draft store unavailable", "addr", cfg.RedisAddr, "err", err)
			return 1
		}
		defer rc.Close()
		store = rc
	case "memory", "":
		store = memstore.New(cfg.DraftCacheSize, cfg.DraftTTL)
	default:
		appLog.Error("unknown draft store", "draft_store", cfg.DraftStore)
		return 1
	}
	opts.Ready = append(opts.Ready, health.Check{Name: "drafts", Dep: store})

	var events runevents.Sink = runevents.Discard{}
	if cfg.Events.Enabled {
		pub, err := runevents.NewPublisher(cfg.Events.BrokerList(), cfg.Events.Topic, 256, appLog)
		if err != nil {
			appLog.Error("run event publisher failed", "err", err)
			return 1
		}
		defer func() {
			if err := pub.Close(); err != nil {
				appLog.Warn("run event publisher close", "err", err)
			}
		}()
		events = pub
	}

	drafts := draft.NewService(store, appLog, draft.WithOpTimeout(cfg.StoreOpTimeout))
	runner := launch.NewRunner(launch.OSExecutor{}, appLog)
	sub := submit.New(submit.Config{
		WorkDir:  cfg.WorkDir,
		Binaries: binaries(cfg, runtime.GOOS),
		Shell:    launch.ShellFor(runtime.GOOS),
		Launch:   cfg.Launch,
	}, runner, events, appLog)

	api := router.New(drafts, sub, appLog)
	if err := server.Run(ctx, opts, appLog, api); err != nil {
		appLog.Error("server exited with error", "err", err)
		return 1
	}
	appLog.Info("server stopped")
	return 0
}

// binaries fills unset tool paths with the platform defaults.
func binaries(cfg config.Config, goos string) launch.Binaries {
	b := launch.DefaultBinaries(goos)
	if cfg.GridderBin != "" {
		b.Generator = cfg.GridderBin
	}
	if cfg.LagritBin != "" {
		b.Converter = cfg.LagritBin
	}
	if cfg.GMVBin != "" {
		b.Viewer = cfg.GMVBin
	}
	return b
}
