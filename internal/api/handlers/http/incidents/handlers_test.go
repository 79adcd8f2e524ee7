package incidents_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"

	"github.com/igraphixwebpreview/RoadReportHub/internal/api/handlers/http/incidents"
	mock_incidents "github.com/igraphixwebpreview/RoadReportHub/internal/api/handlers/http/incidents/mocks"
	"github.com/igraphixwebpreview/RoadReportHub/internal/domain"
	"github.com/igraphixwebpreview/RoadReportHub/internal/middleware"
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

func asUser(r *http.Request, userID string) *http.Request {
	return r.WithContext(middleware.WithUserID(r.Context(), userID))
}

func decodeJSON[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid json response: %v, body=%s", err, rr.Body.String())
	}
	return out
}

func newHandler(t *testing.T) (*incidents.Handler, *mock_incidents.MockIncidents, *mock_incidents.MockVerifier) {
	t.Helper()

	ctrl := gomock.NewController(t)
	svc := mock_incidents.NewMockIncidents(ctrl)
	ver := mock_incidents.NewMockVerifier(ctrl)
	return incidents.NewHandler(newTestLogger(), svc, ver), svc, ver
}

func TestList_EmptyIsArray(t *testing.T) {
	t.Parallel()

	h, svc, _ := newHandler(t)
	svc.EXPECT().ListActive(gomock.Any()).Return(nil, nil)

	rr := httptest.NewRecorder()
	h.List(rr, httptest.NewRequest(http.MethodGet, "/api/incidents", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	if got := bytes.TrimSpace(rr.Body.Bytes()); string(got) != "[]" {
		t.Fatalf("expected empty array, got %s", got)
	}
}

func TestNearby(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		query  string
		expect *domain.NearbyRequest
		status int
		errMsg string
	}{
		{"default radius", "lat=13.9094&lon=-60.9789", &domain.NearbyRequest{Lat: 13.9094, Lng: -60.9789}, http.StatusOK, ""},
		{"lng alias and radius", "lat=1&lng=2&radius=750", &domain.NearbyRequest{Lat: 1, Lng: 2, RadiusM: 750}, http.StatusOK, ""},
		{"missing lon", "lat=1", nil, http.StatusBadRequest, "Latitude and longitude are required"},
		{"missing both", "", nil, http.StatusBadRequest, "Latitude and longitude are required"},
		{"not numeric", "lat=abc&lon=1", nil, http.StatusBadRequest, "Invalid coordinates"},
		{"bad radius", "lat=1&lon=1&radius=-5", nil, http.StatusBadRequest, "Radius must be a positive number of meters"},
	}

	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			h, svc, _ := newHandler(t)
			if c.expect != nil {
				svc.EXPECT().Nearby(gomock.Any(), *c.expect).Return([]*domain.Incident{{ID: uuid.New()}}, nil)
			}

			rr := httptest.NewRecorder()
			h.Nearby(rr, httptest.NewRequest(http.MethodGet, "/api/incidents/nearby?"+c.query, nil))

			if rr.Code != c.status {
				t.Fatalf("status=%d want=%d body=%s", rr.Code, c.status, rr.Body.String())
			}
			if c.errMsg != "" {
				if got := decodeJSON[map[string]string](t, rr)["error"]; got != c.errMsg {
					t.Fatalf("error=%q want=%q", got, c.errMsg)
				}
			}
		})
	}
}

func TestNearby_InvalidRangeFromService(t *testing.T) {
	t.Parallel()

	h, svc, _ := newHandler(t)
	svc.EXPECT().Nearby(gomock.Any(), gomock.Any()).Return(nil, fmt.Errorf("incidents.Nearby: %w", e.ErrInvalidCoordinates))

	rr := httptest.NewRecorder()
	h.Nearby(rr, httptest.NewRequest(http.MethodGet, "/api/incidents/nearby?lat=95&lon=0", nil))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", rr.Code)
	}
}

func TestGet(t *testing.T) {
	t.Parallel()

	h, svc, _ := newHandler(t)
	id := uuid.New()
	missing := uuid.New()

	svc.EXPECT().Get(gomock.Any(), id).Return(&domain.Incident{ID: id, Type: domain.IncidentAccident, Active: true}, nil)
	svc.EXPECT().Get(gomock.Any(), missing).Return(nil, e.ErrNotFound)

	rr := httptest.NewRecorder()
	h.Get(rr, addChiURLParam(httptest.NewRequest(http.MethodGet, "/api/incidents/"+id.String(), nil), "id", id.String()))
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	if got := decodeJSON[map[string]any](t, rr); got["id"] != id.String() || got["type"] != "accident" {
		t.Fatalf("unexpected body %v", got)
	}

	rr = httptest.NewRecorder()
	h.Get(rr, addChiURLParam(httptest.NewRequest(http.MethodGet, "/", nil), "id", missing.String()))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status=%d", rr.Code)
	}
	if got := decodeJSON[map[string]string](t, rr)["error"]; got != "Incident not found" {
		t.Fatalf("error=%q", got)
	}

	rr = httptest.NewRecorder()
	h.Get(rr, addChiURLParam(httptest.NewRequest(http.MethodGet, "/", nil), "id", "not-a-uuid"))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", rr.Code)
	}
	if got := decodeJSON[map[string]string](t, rr)["error"]; got != "Invalid incident ID" {
		t.Fatalf("error=%q", got)
	}
}

func TestMine_UsesCaller(t *testing.T) {
	t.Parallel()

	h, svc, _ := newHandler(t)
	svc.EXPECT().ListByReporter(gomock.Any(), "alice").Return([]*domain.Incident{{ID: uuid.New(), UserID: "alice"}}, nil)

	rr := httptest.NewRecorder()
	h.Mine(rr, asUser(httptest.NewRequest(http.MethodGet, "/api/user/incidents", nil), "alice"))

	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	if got := decodeJSON[[]map[string]any](t, rr); len(got) != 1 || got[0]["userId"] != "alice" {
		t.Fatalf("unexpected body %v", got)
	}
}

func TestCreate(t *testing.T) {
	t.Parallel()

	h, svc, _ := newHandler(t)
	id := uuid.New()

	svc.EXPECT().
		Create(gomock.Any(), "alice", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, req domain.CreateIncidentRequest) (*domain.Incident, error) {
			if req.Latitude.Float64() != 13.91 || req.Longitude.Float64() != -60.98 || req.ImageURL != "data:image/jpeg;base64,AAA" {
				t.Fatalf("unexpected request: %+v", req)
			}
			return &domain.Incident{ID: id, UserID: "alice", Type: req.Type, Media: domain.NewMedia(req.ImageURL), Active: true}, nil
		})

	body := `{"type":"roadblock","latitude":"13.91","longitude":"-60.98","imageUrl":"data:image/jpeg;base64,AAA","notes":"tree down"}`
	rr := httptest.NewRecorder()
	h.Create(rr, asUser(httptest.NewRequest(http.MethodPost, "/api/incidents", bytes.NewBufferString(body)), "alice"))

	if rr.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	got := decodeJSON[map[string]any](t, rr)
	if got["id"] != id.String() || got["active"] != true || got["imageUrl"] != "data:image/jpeg;base64,AAA" {
		t.Fatalf("unexpected body %v", got)
	}
}

func TestCreate_RejectsBeforeService(t *testing.T) {
	t.Parallel()

	h, _, _ := newHandler(t)

	cases := map[string]string{
		`{"type":"roadblock","imageUrl":"a.jpg"}`:                              "Latitude and longitude are required",
		`{"type":"roadblock","latitude":1,"longitude":1}`:                      "ImageURL is required",
		`{"type":"flood","latitude":1,"longitude":1,"imageUrl":"a.jpg"}`:       "Type must be 'roadblock' or 'accident'",
		`{"type":"roadblock","latitude":"x","longitude":1,"imageUrl":"a.jpg"}`: "Invalid JSON",
	}
	for body, want := range cases {
		rr := httptest.NewRecorder()
		h.Create(rr, asUser(httptest.NewRequest(http.MethodPost, "/api/incidents", bytes.NewBufferString(body)), "alice"))
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("%s: status=%d", body, rr.Code)
		}
		if got := decodeJSON[map[string]string](t, rr)["error"]; got != want {
			t.Fatalf("%s: error=%q want=%q", body, got, want)
		}
	}
}

func TestVerify(t *testing.T) {
	t.Parallel()

	id := uuid.New()

	cases := []struct {
		name   string
		body   string
		err    error
		status int
		msg    string
	}{
		{"accepted", `{"action":"dismiss"}`, nil, http.StatusOK, ""},
		{"duplicate", `{"action":"dismiss"}`, fmt.Errorf("verification.Submit: %w", e.ErrDuplicateVote), http.StatusBadRequest, "You have already verified this incident"},
		{"bad action", `{"action":"like"}`, fmt.Errorf("verification.Submit: %w", e.ErrInvalidAction), http.StatusBadRequest, "Action must be 'confirm' or 'dismiss'"},
		{"missing incident", `{"action":"confirm"}`, e.ErrNotFound, http.StatusNotFound, "Incident not found"},
		{"anonymous", `{"action":"confirm"}`, e.ErrUnauthenticated, http.StatusUnauthorized, "Authentication required"},
		{"storage", `{"action":"confirm"}`, e.ErrInternal, http.StatusInternalServerError, "Internal server error"},
	}

	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			h, _, ver := newHandler(t)

			var req domain.VerifyIncidentRequest
			_ = json.Unmarshal([]byte(c.body), &req)

			if c.err != nil {
				ver.EXPECT().Submit(gomock.Any(), "bob", id, req.Action).Return(nil, c.err)
			} else {
				ver.EXPECT().Submit(gomock.Any(), "bob", id, req.Action).Return(&domain.VerificationResult{
					Verification: &domain.Verification{IncidentID: id, UserID: "bob", Action: req.Action},
					Incident:     &domain.Incident{ID: id, Active: false, DismissedCount: 3},
				}, nil)
			}

			r := httptest.NewRequest(http.MethodPost, "/api/incidents/"+id.String()+"/verify", bytes.NewBufferString(c.body))
			rr := httptest.NewRecorder()
			h.Verify(rr, asUser(addChiURLParam(r, "id", id.String()), "bob"))

			if rr.Code != c.status {
				t.Fatalf("status=%d want=%d body=%s", rr.Code, c.status, rr.Body.String())
			}
			if c.msg != "" {
				if got := decodeJSON[map[string]string](t, rr)["error"]; got != c.msg {
					t.Fatalf("error=%q want=%q", got, c.msg)
				}
				return
			}

			got := decodeJSON[domain.VerificationResult](t, rr)
			if got.Incident == nil || got.Incident.DismissedCount != 3 || got.Verification.Action != domain.ActionDismiss {
				t.Fatalf("unexpected result %+v", got)
			}
		})
	}
}

func TestVerify_UnreadableBodyStillResolvesIncidentFirst(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		body   string
		err    error
		status int
		msg    string
	}{
		{"empty body on missing incident", ``, e.ErrNotFound, http.StatusNotFound, "Incident not found"},
		{"malformed body on missing incident", `{"action":`, e.ErrNotFound, http.StatusNotFound, "Incident not found"},
		{"empty body on repeat vote", ``, e.ErrDuplicateVote, http.StatusBadRequest, "You have already verified this incident"},
		{"empty body on fresh vote", ``, e.ErrInvalidAction, http.StatusBadRequest, "Action must be 'confirm' or 'dismiss'"},
	}

	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			h, _, ver := newHandler(t)
			id := uuid.New()

			ver.EXPECT().Submit(gomock.Any(), "bob", id, domain.VerificationAction("")).Return(nil, fmt.Errorf("verification.Submit: %w", c.err))

			r := httptest.NewRequest(http.MethodPost, "/api/incidents/"+id.String()+"/verify", bytes.NewBufferString(c.body))
			rr := httptest.NewRecorder()
			h.Verify(rr, asUser(addChiURLParam(r, "id", id.String()), "bob"))

			if rr.Code != c.status {
				t.Fatalf("status=%d want=%d body=%s", rr.Code, c.status, rr.Body.String())
			}
			if got := decodeJSON[map[string]string](t, rr)["error"]; got != c.msg {
				t.Fatalf("error=%q want=%q", got, c.msg)
			}
		})
	}
}

func TestVerify_InvalidID(t *testing.T) {
	t.Parallel()

	h, _, _ := newHandler(t)

	rr := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"action":"confirm"}`))
	h.Verify(rr, asUser(addChiURLParam(r, "id", "123"), "bob"))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", rr.Code)
	}
	if got := decodeJSON[map[string]string](t, rr)["error"]; got != "Invalid incident ID" {
		t.Fatalf("error=%q", got)
	}
}
