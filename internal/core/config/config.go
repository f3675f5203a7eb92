package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type EventsCfg struct {
	Enabled bool
	Brokers string
	Topic   string
}

type MetricsCfg struct {
	Enabled bool
	Addr    string
	Path    string
}

// Config is read once at startup. Empty tool paths mean the platform
// default names.
type Config struct {
	Addr           string
	LogLevel       string
	LogConsole     bool
	WorkDir        string
	DraftStore     string
	RedisAddr      string
	DraftTTL       time.Duration
	DraftCacheSize int
	StoreOpTimeout time.Duration
	GridderBin     string
	LagritBin      string
	GMVBin         string
	Launch         bool
	Events         EventsCfg
	Metrics        MetricsCfg
}

func FromEnv() Config {
	return Config{
		Addr:           getenv("ADDR", ":8090"),
		LogLevel:       getenv("LOG_LEVEL", "info"),
		LogConsole:     getbool("LOG_CONSOLE", false),
		WorkDir:        getenv("WORK_DIR", "."),
		DraftStore:     strings.ToLower(getenv("DRAFT_STORE", "memory")),
		RedisAddr:      getenv("REDIS_ADDR", "localhost:6379"),
		DraftTTL:       getduration("DRAFT_TTL", 24*time.Hour),
		DraftCacheSize: getint("DRAFT_CACHE_SIZE", 1024),
		StoreOpTimeout: getduration("STORE_OP_TIMEOUT", 250*time.Millisecond),
		GridderBin:     getenv("GRIDDER_BIN", ""),
		LagritBin:      getenv("LAGRIT_BIN", ""),
		GMVBin:         getenv("GMV_BIN", ""),
		Launch:         getbool("LAUNCH_TOOLS", true),
		Events: EventsCfg{
			Enabled: getbool("EVENTS_ENABLED", false),
			Brokers: getenv("KAFKA_BROKERS", "localhost:9092"),
			Topic:   getenv("KAFKA_TOPIC", "gridform-runs"),
		},
		Metrics: MetricsCfg{
			Enabled: getbool("METRICS_ENABLED", true),
			Addr:    getenv("METRICS_ADDR", ""),
			Path:    getenv("METRICS_PATH", "/metrics"),
		},
	}
}

// BrokerList splits the comma separated broker setting.
func (e EventsCfg) BrokerList() []string {
	var out []string
	for b := range strings.SplitSeq(e.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "t", "true", "y", "yes":
			return true
		case "0", "f", "false", "n", "no":
			return false
		}
	}
	return def
}

func getduration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
