package system_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/igraphixwebpreview/RoadReportHub/internal/api/handlers/http/system"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestSystemHealth(t *testing.T) {
	t.Parallel()

	up := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	cases := []struct {
		name   string
		checks []system.Check
		status int
		body   string
	}{
		{"no checks", nil, http.StatusOK, "ok"},
		{"all up", []system.Check{{Name: "storage", Ping: up}, {Name: "redis", Ping: up}}, http.StatusOK, "ok"},
		{"redis down", []system.Check{{Name: "storage", Ping: up}, {Name: "redis", Ping: down}}, http.StatusServiceUnavailable, "degraded"},
	}

	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			h := system.NewHandler(newTestLogger(), c.checks...)
			rr := httptest.NewRecorder()
			h.SystemHealth(rr, httptest.NewRequest(http.MethodGet, "/api/health", nil))

			if rr.Code != c.status {
				t.Fatalf("expected %d got %d", c.status, rr.Code)
			}
			var got struct {
				Status string            `json:"status"`
				Checks map[string]string `json:"checks"`
			}
			if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got.Status != c.body {
				t.Fatalf("status=%q want %q", got.Status, c.body)
			}
			if len(got.Checks) != len(c.checks) {
				t.Fatalf("checks=%v", got.Checks)
			}
		})
	}
}
