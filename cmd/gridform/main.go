// Command gridform checks a mesh request file, writes the generator deck and
// launch script, and optionally runs the generator, converter and viewer.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"strings"
	"syscall"

	"github.com/mohammed-shakir/gridform/internal/core/launch"
	"github.com/mohammed-shakir/gridform/internal/core/model"
	"github.com/mohammed-shakir/gridform/internal/core/preview"
	"github.com/mohammed-shakir/gridform/internal/core/requestfile"
	"github.com/mohammed-shakir/gridform/internal/core/validate"
	"github.com/mohammed-shakir/gridform/internal/logger"
	"github.com/mohammed-shakir/gridform/internal/submit"
)

const (
	exitOK    = 0
	exitFail  = 1
	exitUsage = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type options struct {
	request  string
	workDir  string
	launch   bool
	view     bool
	preview  bool
	template bool
	logLevel string
	bins     launch.Binaries
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	def := launch.DefaultBinaries(runtime.GOOS)
	var o options
	fs := flag.NewFlagSet("gridform", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.request, "request", "", "request file (YAML), - for stdin")
	fs.StringVar(&o.workDir, "workdir", ".", "directory for the deck, script and outputs")
	fs.BoolVar(&o.launch, "launch", false, "run the generator after writing the deck")
	fs.BoolVar(&o.view, "view", false, "start the viewer after a successful run")
	fs.BoolVar(&o.preview, "preview", false, "print node coordinates without writing anything")
	fs.BoolVar(&o.template, "template", false, "print a default request file and exit")
	fs.StringVar(&o.logLevel, "log-level", "warn", "log level")
	fs.StringVar(&o.bins.Generator, "gridder", envOr("GRIDDER_BIN", def.Generator), "generator binary")
	fs.StringVar(&o.bins.Converter, "lagrit", envOr("LAGRIT_BIN", def.Converter), "converter binary")
	fs.StringVar(&o.bins.Viewer, "gmv", envOr("GMV_BIN", def.Viewer), "viewer binary")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if o.request == "" && fs.NArg() == 1 {
		o.request = fs.Arg(0)
	}
	if !o.template && o.request == "" {
		fs.Usage()
		return o, fmt.Errorf("no request file given")
	}
	return o, nil
}

func envOr(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	o, err := parseFlags(args, stderr)
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(stderr, err)
		}
		return exitUsage
	}

	zl := logger.Build(logger.Config{Level: o.logLevel, Console: true, Component: "gridform"}, stderr)
	log := logger.NewSlog(&zl)

	if o.template {
		b, err := requestfile.Marshal(model.NewMeshRequest())
		if err != nil {
			fmt.Fprintln(stderr, err)
			return exitFail
		}
		_, _ = stdout.Write(b)
		return exitOK
	}

	req, err := load(o.request, stdin)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitFail
	}
	if o.view {
		req.View = true
	}

	if o.preview {
		return printPreview(req, stdout, stderr)
	}
	return doSubmit(ctx, o, req, log, stdout, stderr)
}

func load(path string, stdin io.Reader) (*model.MeshRequest, error) {
	if path == "-" {
		return requestfile.Load(stdin)
	}
	return requestfile.LoadFile(path)
}

func printPreview(req *model.MeshRequest, stdout, stderr io.Writer) int {
	m, err := validate.Request(req)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitFail
	}
	mesh, err := preview.Build(m)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitFail
	}
	fmt.Fprintln(stdout, preview.Summary(req))
	for _, a := range mesh.Axes {
		parts := make([]string, len(a.Nodes))
		for i, x := range a.Nodes {
			parts[i] = strconv.FormatFloat(x, 'g', -1, 64)
		}
		fmt.Fprintf(stdout, "%s (%d nodes): %s\n", a.Name, len(a.Nodes), strings.Join(parts, " "))
	}
	fmt.Fprintf(stdout, "nodes: %d elements: %d\n", mesh.Nodes, mesh.Elements)
	return exitOK
}

func doSubmit(ctx context.Context, o options, req *model.MeshRequest, log *slog.Logger, stdout, stderr io.Writer) int {
	sub := submit.New(submit.Config{
		WorkDir:  o.workDir,
		Binaries: o.bins,
		Shell:    launch.ShellFor(runtime.GOOS),
		Launch:   o.launch,
	}, launch.NewRunner(launch.OSExecutor{}, log), nil, log)

	res, err := sub.Submit(ctx, "", req)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitFail
	}
	fmt.Fprintln(stdout, res.Status)
	fmt.Fprintln(stdout, res.Summary)
	for _, f := range res.Files {
		fmt.Fprintln(stdout, "  "+f)
	}
	return exitOK
}
