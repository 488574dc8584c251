package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// StreamStatus reports one chain's stream connection state, so the
// health endpoint can surface it without importing internal/stream's
// Pipeline type directly (only IsConnected is needed).
type StreamStatus interface {
	IsConnected() bool
}

// Checker aggregates the health signals /healthz reports.
type Checker struct {
	RegistryPing func(ctx context.Context) error
	Streams      map[string]StreamStatus // chain slug -> pipeline
}

// Serve starts a minimal /healthz handler, mirroring the teacher's
// health server shape with chain-stream status in place of DB/RPC
// pings.
func Serve(addr string, checker Checker) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		status := map[string]string{"status": "ok"}
		code := http.StatusOK

		if checker.RegistryPing != nil {
			if err := checker.RegistryPing(ctx); err != nil {
				status["registry"] = "fail"
				code = http.StatusServiceUnavailable
			} else {
				status["registry"] = "ok"
			}
		}

		for slug, s := range checker.Streams {
			key := fmt.Sprintf("stream.%s", slug)
			if s.IsConnected() {
				status[key] = "ok"
			} else {
				status[key] = "disconnected"
				code = http.StatusServiceUnavailable
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(status)
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 3 * time.Second,
	}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}

// Shutdown gracefully shuts down the health server.
func Shutdown(ctx context.Context, srv *http.Server) error {
	return srv.Shutdown(ctx)
}
