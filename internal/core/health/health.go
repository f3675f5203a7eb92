package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// Pinger is a dependency that must answer before the service takes work.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Check struct {
	Name string
	Dep  Pinger
}

type status struct {
	Status string            `json:"status"`
	Failed map[string]string `json:"failed,omitempty"`
}

// Liveness answers as long as the process serves HTTP.
func Liveness() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeStatus(w, http.StatusOK, status{Status: "ok"})
	}
}

// Readiness pings every dependency with a short deadline and reports the
// ones that failed.
func Readiness(timeout time.Duration, checks ...Check) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		out := status{Status: "ready"}
		for _, c := range checks {
			if err := c.Dep.Ping(ctx); err != nil {
				if out.Failed == nil {
					out.Failed = map[string]string{}
				}
				out.Failed[c.Name] = err.Error()
			}
		}
		code := http.StatusOK
		if len(out.Failed) > 0 {
			out.Status = "not_ready"
			code = http.StatusServiceUnavailable
		}
		writeStatus(w, code, out)
	}
}

func writeStatus(w http.ResponseWriter, code int, s status) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(s)
}
