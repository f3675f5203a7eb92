package main

import (
	"testing"

	"github.com/mohammed-shakir/gridform/internal/core/config"
)

func TestBinaries_EnvOverridesDefaults(t *testing.T) {
	b := binaries(config.Config{LagritBin: "/opt/lagrit/bin/lagrit"}, "linux")
	if b.Generator != "gridder_linux" || b.Viewer != "gmv_linux" {
		t.Fatalf("defaults=%+v", b)
	}
	if b.Converter != "/opt/lagrit/bin/lagrit" {
		t.Fatalf("converter=%q", b.Converter)
	}
}
