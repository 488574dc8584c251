package telemetry

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type fakeStream struct{ connected bool }

func (f fakeStream) IsConnected() bool { return f.connected }

func TestHealthEndpoint(t *testing.T) {
	tests := []struct {
		name     string
		checker  Checker
		wantCode int
	}{
		{
			name: "all_connected",
			checker: Checker{
				RegistryPing: func(ctx context.Context) error { return nil },
				Streams:      map[string]StreamStatus{"ethereum": fakeStream{connected: true}},
			},
			wantCode: http.StatusOK,
		},
		{
			name: "stream_disconnected",
			checker: Checker{
				RegistryPing: func(ctx context.Context) error { return nil },
				Streams:      map[string]StreamStatus{"ethereum": fakeStream{connected: false}},
			},
			wantCode: http.StatusServiceUnavailable,
		},
		{
			name: "registry_fail",
			checker: Checker{
				RegistryPing: func(ctx context.Context) error { return context.DeadlineExceeded },
			},
			wantCode: http.StatusServiceUnavailable,
		},
		{
			name:     "no_checkers",
			checker:  Checker{},
			wantCode: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := Serve(":0", tt.checker)
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				_ = Shutdown(ctx, srv)
			}()

			time.Sleep(50 * time.Millisecond)

			req := httptest.NewRequest(http.MethodGet, "http://localhost/healthz", nil)
			w := httptest.NewRecorder()
			srv.Handler.ServeHTTP(w, req)

			if w.Code != tt.wantCode {
				t.Errorf("status code = %d, want %d", w.Code, tt.wantCode)
			}

			var resp map[string]string
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if resp["status"] != "ok" {
				t.Errorf("status = %q, want ok", resp["status"])
			}
		})
	}
}
