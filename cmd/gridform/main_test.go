package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const request = `
dimensionality: 1
format: avs
base_name: bar
axes:
  X:
    end: "10"
    segments:
      - start: "0"
        divisions: "5"
`

func runCLI(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code := run(context.Background(), args, strings.NewReader(stdin), &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestRun_WritesDeck(t *testing.T) {
	dir := t.TempDir()
	code, out, errOut := runCLI(t, request, "-workdir", dir, "-request", "-")
	if code != exitOK {
		t.Fatalf("code=%d stderr=%s", code, errOut)
	}
	if !strings.HasPrefix(out, "Wrote bar.gridder_input.\n1 line segment region(s)\n") {
		t.Fatalf("stdout=%q", out)
	}
	b, err := os.ReadFile(filepath.Join(dir, "bar.gridder_input"))
	if err != nil {
		t.Fatal(err)
	}
	if want := "1 1 0\n10\n5\n1\n1\n"; string(b) != want {
		t.Fatalf("deck=%q want %q", b, want)
	}
}

func TestRun_Preview(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "req.yaml")
	if err := os.WriteFile(path, []byte(request), 0o644); err != nil {
		t.Fatal(err)
	}
	code, out, errOut := runCLI(t, "", "-preview", path)
	if code != exitOK {
		t.Fatalf("code=%d stderr=%s", code, errOut)
	}
	if !strings.Contains(out, "X (6 nodes): 0 2 4 6 8 10\n") || !strings.Contains(out, "nodes: 6 elements: 5") {
		t.Fatalf("stdout=%q", out)
	}
	if entries, _ := os.ReadDir(dir); len(entries) != 1 {
		t.Fatalf("preview wrote files: %v", entries)
	}
}

func TestRun_InvalidRequest(t *testing.T) {
	bad := strings.Replace(request, `end: "10"`, `end: "-1"`, 1)
	code, _, errOut := runCLI(t, bad, "-workdir", t.TempDir(), "-")
	if code != exitFail {
		t.Fatalf("code=%d want %d", code, exitFail)
	}
	if errOut == "" {
		t.Fatal("expected an error message")
	}
}

func TestRun_Usage(t *testing.T) {
	if code, _, _ := runCLI(t, ""); code != exitUsage {
		t.Fatalf("no request: code=%d", code)
	}
	if code, _, _ := runCLI(t, "", "-nope"); code != exitUsage {
		t.Fatalf("bad flag: code=%d", code)
	}
}

func TestRun_TemplateLoadsBack(t *testing.T) {
	code, out, _ := runCLI(t, "", "-template")
	if code != exitOK || !strings.Contains(out, "base_name:") {
		t.Fatalf("code=%d out=%q", code, out)
	}
	code, _, errOut := runCLI(t, out, "-preview", "-")
	if code != exitFail || errOut == "" {
		t.Fatalf("empty template should fail checks: code=%d", code)
	}
}
