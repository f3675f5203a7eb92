package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mohammed-shakir/gridform/internal/core/router"
	"github.com/mohammed-shakir/gridform/internal/draft"
	"github.com/mohammed-shakir/gridform/internal/draft/memstore"
	"github.com/mohammed-shakir/gridform/internal/metrics"
	"github.com/mohammed-shakir/gridform/internal/submit"
)

func TestHandler_WiresHealthMetricsAndAPI(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	p, err := metrics.Init(metrics.Config{Enabled: true})
	if err != nil {
		t.Fatal(err)
	}
	drafts := draft.NewService(memstore.New(4, time.Hour), log)
	api := router.New(drafts, submit.New(submit.Config{WorkDir: t.TempDir()}, nil, nil, log), log)
	h := Handler(Options{Metrics: p.Handler(), Ready: nil}, log, api)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/drafts", nil))
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status=%d body=%s", rr.Code, rr.Body.String())
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Fatal("missing X-Request-ID")
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("healthz status=%d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("readyz status=%d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rr.Body.String(), `route="/drafts"`) {
		t.Fatalf("request not counted by route:\n%s", rr.Body.String())
	}
}

func TestHandler_RecoversPanics(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	api := router.New(draft.NewService(panicStore{}, log), nil, log)
	h := Handler(Options{}, log, api)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/drafts/x", nil))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d want 500", rr.Code)
	}
}

type panicStore struct{}

func (panicStore) Get(context.Context, string) (draft.Draft, error) { panic("store exploded") }
func (panicStore) Put(context.Context, draft.Draft) error           { return nil }
func (panicStore) Delete(context.Context, string) error             { return nil }
func (panicStore) Ping(context.Context) error                       { return nil }
