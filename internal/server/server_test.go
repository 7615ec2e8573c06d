package server

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/randomizedcoder/trng/internal/batch"
)

func newTestServer(t *testing.T, port int) *Server {
	t.Helper()
	logger := zaptest.NewLogger(t)
	return New(port, batch.NewRunner(nil, logger), Defaults{Min: 1, Max: 100}, logger)
}

func TestServer_HealthEndpoint(t *testing.T) {
	s := newTestServer(t, 0)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	s.handleHealth(w, req)

	resp := w.Result()
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("handleHealth() status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	if w.Body.String() != "ok" {
		t.Errorf("handleHealth() body = %q, want %q", w.Body.String(), "ok")
	}
}

func TestServer_MethodNotAllowed(t *testing.T) {
	s := newTestServer(t, 0)
	h := s.Handler()

	tests := []struct {
		path    string
		methods []string
	}{
		{"/health", []string{http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch}},
		{"/ready", []string{http.MethodPost, http.MethodDelete}},
		{"/v1/integer", []string{http.MethodPost, http.MethodHead}},
		{"/v1/integers", []string{http.MethodGet, http.MethodPut}},
	}

	for _, tt := range tests {
		for _, method := range tt.methods {
			t.Run(method+" "+tt.path, func(t *testing.T) {
				req := httptest.NewRequest(method, tt.path, nil)
				w := httptest.NewRecorder()

				h.ServeHTTP(w, req)

				if w.Code != http.StatusMethodNotAllowed {
					t.Errorf("%s %s status = %d, want %d", method, tt.path, w.Code, http.StatusMethodNotAllowed)
				}
			})
		}
	}
}

func TestServer_ReadyEndpoint(t *testing.T) {
	s := newTestServer(t, 0)

	t.Run("not ready before start", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ready", nil)
		w := httptest.NewRecorder()

		s.handleReady(w, req)

		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("handleReady() status = %d, want %d", w.Code, http.StatusServiceUnavailable)
		}
	})

	t.Run("ready", func(t *testing.T) {
		s.SetReady(true)

		req := httptest.NewRequest(http.MethodGet, "/ready", nil)
		w := httptest.NewRecorder()

		s.handleReady(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("handleReady() status = %d, want %d", w.Code, http.StatusOK)
		}
		if w.Body.String() != "ready" {
			t.Errorf("handleReady() body = %q, want %q", w.Body.String(), "ready")
		}
	})

	t.Run("not ready", func(t *testing.T) {
		s.SetReady(false)

		req := httptest.NewRequest(http.MethodGet, "/ready", nil)
		w := httptest.NewRecorder()

		s.handleReady(w, req)

		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("handleReady() status = %d, want %d", w.Code, http.StatusServiceUnavailable)
		}
		if w.Body.String() != "not ready" {
			t.Errorf("handleReady() body = %q, want %q", w.Body.String(), "not ready")
		}
	})

	t.Run("HEAD has no body", func(t *testing.T) {
		s.SetReady(true)

		req := httptest.NewRequest(http.MethodHead, "/ready", nil)
		w := httptest.NewRecorder()

		s.handleReady(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("handleReady() HEAD status = %d, want %d", w.Code, http.StatusOK)
		}
		if w.Body.Len() != 0 {
			t.Errorf("handleReady() HEAD body length = %d, want 0", w.Body.Len())
		}
	})
}

func TestServer_IsReady(t *testing.T) {
	s := newTestServer(t, 0)

	if s.IsReady() {
		t.Error("IsReady() = true, want false before Start()")
	}

	s.SetReady(true)
	if !s.IsReady() {
		t.Error("IsReady() = false, want true")
	}

	s.SetReady(false)
	if s.IsReady() {
		t.Error("IsReady() = true, want false")
	}
}

func TestServer_WriteTimeout(t *testing.T) {
	logger := zaptest.NewLogger(t)
	runner := batch.NewRunner(nil, logger)

	tests := []struct {
		name string
		opts []Option
		want time.Duration
	}{
		{"default fetch timeout", nil, 15 * time.Second},
		{"long fetch timeout", []Option{WithFetchTimeout(45 * time.Second)}, 50 * time.Second},
		{"short fetch timeout", []Option{WithFetchTimeout(2 * time.Second)}, 7 * time.Second},
		{"zero falls back to default", []Option{WithFetchTimeout(0)}, 15 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(0, runner, Defaults{Min: 1, Max: 100}, logger, tt.opts...)
			if s.writeTimeout != tt.want {
				t.Errorf("writeTimeout = %v, want %v", s.writeTimeout, tt.want)
			}
		})
	}
}

func TestServer_StartAndShutdown(t *testing.T) {
	port := 18081
	s := newTestServer(t, port)
	ctx := context.Background()

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.Start(ctx)
	}()

	// Wait for server to start
	time.Sleep(100 * time.Millisecond)

	for _, path := range []string{"/health", "/ready"} {
		resp, err := http.Get(fmt.Sprintf("http://localhost:%d%s", port, path))
		if err != nil {
			t.Fatalf("Failed to connect to server: %v", err)
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s status = %d, want %d", path, resp.StatusCode, http.StatusOK)
		}
	}
	if s.server.WriteTimeout != 15*time.Second {
		t.Errorf("WriteTimeout = %v, want %v", s.server.WriteTimeout, 15*time.Second)
	}

	if err := s.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
	if s.IsReady() {
		t.Error("IsReady() = true after Shutdown()")
	}

	select {
	case err := <-errChan:
		if err != nil {
			t.Errorf("Start() returned error: %v", err)
		}
	case <-time.After(time.Second):
		t.Error("Server did not stop after shutdown")
	}
}

func TestServer_ShutdownWithoutStart(t *testing.T) {
	s := newTestServer(t, 0)

	if err := s.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() without Start() error = %v", err)
	}
}
