package config

import (
	"slices"
	"testing"
	"time"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{"ADDR", "DRAFT_STORE", "DRAFT_TTL", "EVENTS_ENABLED", "GRIDDER_BIN", "METRICS_PATH"} {
		t.Setenv(k, "")
	}
	c := FromEnv()
	if c.Addr != ":8090" || c.DraftStore != "memory" || c.DraftTTL != 24*time.Hour {
		t.Fatalf("defaults=%+v", c)
	}
	if c.Events.Enabled || c.GridderBin != "" || c.Metrics.Path != "/metrics" {
		t.Fatalf("defaults=%+v", c)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("DRAFT_STORE", "Redis")
	t.Setenv("DRAFT_TTL", "90m")
	t.Setenv("DRAFT_CACHE_SIZE", "notanint")
	t.Setenv("EVENTS_ENABLED", "yes")
	t.Setenv("KAFKA_BROKERS", " a:9092, ,b:9092 ")
	t.Setenv("LAUNCH_TOOLS", "0")

	c := FromEnv()
	if c.DraftStore != "redis" || c.DraftTTL != 90*time.Minute {
		t.Fatalf("store=%q ttl=%v", c.DraftStore, c.DraftTTL)
	}
	if c.DraftCacheSize != 1024 {
		t.Fatalf("bad int should fall back, got %d", c.DraftCacheSize)
	}
	if !c.Events.Enabled || c.Launch {
		t.Fatalf("bools: events=%v launch=%v", c.Events.Enabled, c.Launch)
	}
	if got := c.Events.BrokerList(); !slices.Equal(got, []string{"a:9092", "b:9092"}) {
		t.Fatalf("brokers=%v", got)
	}
}
