package admin_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"

	"github.com/igraphixwebpreview/RoadReportHub/internal/api/handlers/http/admin"
	mock_admin "github.com/igraphixwebpreview/RoadReportHub/internal/api/handlers/http/admin/mocks"
	"github.com/igraphixwebpreview/RoadReportHub/internal/domain"
	"github.com/igraphixwebpreview/RoadReportHub/pkg/e"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), &slog.HandlerOptions{Level: slog.LevelError}))
}

func addChiURLParam(r *http.Request, key, val string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, val)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func decodeJSON[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid json response: %v, body=%s", err, rr.Body.String())
	}
	return out
}

func newHandler(t *testing.T) (*admin.Handler, *mock_admin.MockTimeline, *mock_admin.MockStatsGetter) {
	t.Helper()

	ctrl := gomock.NewController(t)
	timeline := mock_admin.NewMockTimeline(ctrl)
	stats := mock_admin.NewMockStatsGetter(ctrl)
	return admin.NewHandler(newTestLogger(), timeline, stats), timeline, stats
}

func TestIncidentList_Defaults_OK(t *testing.T) {
	t.Parallel()

	h, timeline, _ := newHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/incidents", nil)
	rr := httptest.NewRecorder()

	timeline.EXPECT().
		List(gomock.Any(), 1, 20).
		Return(nil, int64(0), nil).
		Times(1)

	h.IncidentList(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected %d got %d body=%s", http.StatusOK, rr.Code, rr.Body.String())
	}

	resp := decodeJSON[map[string]any](t, rr)
	if int(resp["page"].(float64)) != 1 || int(resp["limit"].(float64)) != 20 {
		t.Fatalf("unexpected pagination: %+v", resp)
	}
	if list, ok := resp["incidents"].([]any); !ok || len(list) != 0 {
		t.Fatalf("expected empty incidents array, got %#v", resp["incidents"])
	}
}

func TestIncidentList_IncludesInactive(t *testing.T) {
	t.Parallel()

	h, timeline, _ := newHandler(t)

	dismissed := &domain.Incident{ID: uuid.New(), Type: domain.IncidentAccident, Active: false, DismissedCount: 3}
	live := &domain.Incident{ID: uuid.New(), Type: domain.IncidentRoadblock, Active: true}

	timeline.EXPECT().
		List(gomock.Any(), 1, 20).
		Return([]*domain.Incident{live, dismissed}, int64(2), nil)

	rr := httptest.NewRecorder()
	h.IncidentList(rr, httptest.NewRequest(http.MethodGet, "/api/admin/incidents", nil))

	resp := decodeJSON[struct {
		Incidents []map[string]any `json:"incidents"`
		Total     int64            `json:"total"`
	}](t, rr)
	if resp.Total != 2 || len(resp.Incidents) != 2 {
		t.Fatalf("unexpected body: %+v", resp)
	}
	if resp.Incidents[1]["active"] != false || resp.Incidents[1]["dismissedCount"] != float64(3) {
		t.Fatalf("inactive incident not rendered: %+v", resp.Incidents[1])
	}
}

func TestIncidentList_PagingClamped(t *testing.T) {
	t.Parallel()

	cases := []struct {
		query       string
		page, limit int
	}{
		{"?page=2&limit=500", 2, 100},
		{"?page=0&limit=-5", 1, 20},
		{"?page=abc&limit=xyz", 1, 20},
		{"?page=3&limit=7", 3, 7},
	}

	for _, c := range cases {
		c := c
		t.Run(c.query, func(t *testing.T) {
			t.Parallel()

			h, timeline, _ := newHandler(t)
			timeline.EXPECT().
				List(gomock.Any(), c.page, c.limit).
				Return([]*domain.Incident{}, int64(0), nil).
				Times(1)

			rr := httptest.NewRecorder()
			h.IncidentList(rr, httptest.NewRequest(http.MethodGet, "/api/admin/incidents"+c.query, nil))

			if rr.Code != http.StatusOK {
				t.Fatalf("expected %d got %d body=%s", http.StatusOK, rr.Code, rr.Body.String())
			}
		})
	}
}

func TestIncidentList_StoreError_500(t *testing.T) {
	t.Parallel()

	h, timeline, _ := newHandler(t)
	timeline.EXPECT().
		List(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, int64(0), fmt.Errorf("postgres.List: %w", e.ErrInternal))

	rr := httptest.NewRecorder()
	h.IncidentList(rr, httptest.NewRequest(http.MethodGet, "/api/admin/incidents", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected %d got %d", http.StatusInternalServerError, rr.Code)
	}
	if got := decodeJSON[map[string]string](t, rr); got["error"] != "Internal server error" {
		t.Fatalf("leaked error text: %q", got["error"])
	}
}

func TestIncidentGet_InvalidID_400(t *testing.T) {
	t.Parallel()

	h, _, _ := newHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/incidents/bad", nil)
	req = addChiURLParam(req, "id", "not-a-uuid")
	rr := httptest.NewRecorder()

	h.IncidentGet(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected %d got %d body=%s", http.StatusBadRequest, rr.Code, rr.Body.String())
	}
}

func TestIncidentGet_OK(t *testing.T) {
	t.Parallel()

	h, timeline, _ := newHandler(t)

	id := uuid.New()
	want := &domain.Incident{ID: id, Latitude: 1, Longitude: 2, Type: domain.IncidentRoadblock, Active: true}

	req := httptest.NewRequest(http.MethodGet, "/api/admin/incidents/"+id.String(), nil)
	req = addChiURLParam(req, "id", id.String())
	rr := httptest.NewRecorder()

	timeline.EXPECT().
		Get(gomock.Any(), id).
		Return(want, nil).
		Times(1)

	h.IncidentGet(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected %d got %d body=%s", http.StatusOK, rr.Code, rr.Body.String())
	}

	got := decodeJSON[map[string]any](t, rr)
	if got["id"] != id.String() {
		t.Fatalf("expected id=%s got=%v", id, got["id"])
	}
}

func TestIncidentGet_NotFound_404(t *testing.T) {
	t.Parallel()

	h, timeline, _ := newHandler(t)
	id := uuid.New()
	timeline.EXPECT().Get(gomock.Any(), id).Return(nil, fmt.Errorf("memory.Get: %w", e.ErrNotFound))

	req := addChiURLParam(httptest.NewRequest(http.MethodGet, "/api/admin/incidents/"+id.String(), nil), "id", id.String())
	rr := httptest.NewRecorder()
	h.IncidentGet(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected %d got %d", http.StatusNotFound, rr.Code)
	}
}

func TestStats_OK(t *testing.T) {
	t.Parallel()

	h, _, stats := newHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/stats?minutes=15", nil)
	rr := httptest.NewRecorder()

	want := &domain.IncidentStats{UserCount: 42, TotalChecks: 108, Minutes: 15}
	stats.EXPECT().
		GetStats(gomock.Any(), domain.StatsRequest{Minutes: 15}).
		Return(want, nil).
		Times(1)

	h.Stats(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected %d got %d body=%s", http.StatusOK, rr.Code, rr.Body.String())
	}

	got := decodeJSON[domain.IncidentStats](t, rr)
	if got != *want {
		t.Fatalf("expected %+v got %+v", *want, got)
	}
}

func TestStats_DefaultMinutes_60(t *testing.T) {
	t.Parallel()

	h, _, stats := newHandler(t)

	stats.EXPECT().
		GetStats(gomock.Any(), domain.StatsRequest{Minutes: 60}).
		Return(&domain.IncidentStats{Minutes: 60}, nil).
		Times(1)

	rr := httptest.NewRecorder()
	h.Stats(rr, httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected %d got %d", http.StatusOK, rr.Code)
	}
}

func TestStats_InvalidMinutes_400(t *testing.T) {
	t.Parallel()

	for _, q := range []string{"0", "-1", "1441", "hour"} {
		q := q
		t.Run(q, func(t *testing.T) {
			t.Parallel()

			h, _, _ := newHandler(t)
			rr := httptest.NewRecorder()
			h.Stats(rr, httptest.NewRequest(http.MethodGet, "/api/admin/stats?minutes="+q, nil))

			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected %d got %d", http.StatusBadRequest, rr.Code)
			}
		})
	}
}

func TestStats_ServiceError_500(t *testing.T) {
	t.Parallel()

	h, _, stats := newHandler(t)
	stats.EXPECT().GetStats(gomock.Any(), gomock.Any()).Return(nil, errors.New("boom"))

	rr := httptest.NewRecorder()
	h.Stats(rr, httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected %d got %d", http.StatusInternalServerError, rr.Code)
	}
}
