package workers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/igraphixwebpreview/RoadReportHub/internal/domain"
	"github.com/igraphixwebpreview/RoadReportHub/internal/geo"
)

type evaluatorFunc func(ctx context.Context, userID string, pos geo.Point) (domain.LocationCheckResponse, error)

func (f evaluatorFunc) Evaluate(ctx context.Context, userID string, pos geo.Point) (domain.LocationCheckResponse, error) {
	return f(ctx, userID, pos)
}

type countingActive struct{ calls atomic.Int32 }

func (c *countingActive) ListActive(context.Context) ([]*domain.Incident, error) {
	c.calls.Add(1)
	return nil, nil
}

func TestLocationChecker_ProcessesJobs(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	eval := evaluatorFunc(func(_ context.Context, userID string, pos geo.Point) (domain.LocationCheckResponse, error) {
		if userID == "broken" {
			return domain.LocationCheckResponse{}, errors.New("boom")
		}
		return domain.LocationCheckResponse{Alert: &domain.ProximityAlert{IncidentID: id}}, nil
	})

	w := NewLocationChecker(eval, &countingActive{}, slog.New(slog.NewTextHandler(io.Discard, nil)), 2)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()
	defer func() {
		cancel()
		<-done
	}()

	ok := make(chan domain.LocationCheckResponse, 1)
	if !w.Submit(ctx, CheckLocationJob{UserID: "u1", Pos: geo.Point{Lat: 1, Lng: 1}, ResultChan: ok}) {
		t.Fatalf("submit failed")
	}
	select {
	case resp, open := <-ok:
		if !open || resp.Alert == nil || resp.Alert.IncidentID != id {
			t.Fatalf("unexpected result %+v open=%v", resp, open)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timeout")
	}

	failed := make(chan domain.LocationCheckResponse, 1)
	w.Submit(ctx, CheckLocationJob{UserID: "broken", ResultChan: failed})
	select {
	case _, open := <-failed:
		if open {
			t.Fatalf("failed evaluation must close the channel without a result")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timeout")
	}
}

func TestLocationChecker_WarmsActiveSet(t *testing.T) {
	t.Parallel()

	active := &countingActive{}
	w := NewLocationChecker(evaluatorFunc(nil), active, slog.New(slog.NewTextHandler(io.Discard, nil)), 1)
	w.warmEvery = 5 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	w.Run(ctx)

	if active.calls.Load() == 0 {
		t.Fatalf("expected periodic ListActive calls")
	}
}

func TestLocationChecker_SubmitHonoursContext(t *testing.T) {
	t.Parallel()

	w := NewLocationChecker(evaluatorFunc(nil), &countingActive{}, slog.New(slog.NewTextHandler(io.Discard, nil)), 1)
	for i := 0; i < cap(w.jobs); i++ {
		w.jobs <- CheckLocationJob{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if w.Submit(ctx, CheckLocationJob{}) {
		t.Fatalf("submit on a full queue with a dead context must fail")
	}
}
