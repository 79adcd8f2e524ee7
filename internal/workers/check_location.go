package workers

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/igraphixwebpreview/RoadReportHub/internal/domain"
	"github.com/igraphixwebpreview/RoadReportHub/internal/geo"
)

type ProximityEvaluator interface {
	Evaluate(ctx context.Context, userID string, pos geo.Point) (domain.LocationCheckResponse, error)
}

type ActiveIncidents interface {
	ListActive(ctx context.Context) ([]*domain.Incident, error)
}

// CheckLocationJob asks for one proximity evaluation. The result is delivered
// on ResultChan, which the pool closes afterwards. ResultChan should be buffered.
type CheckLocationJob struct {
	UserID     string
	Pos        geo.Point
	ResultChan chan<- domain.LocationCheckResponse
	Timeout    time.Duration
}

// LocationChecker runs proximity re-evaluations on a fixed pool so a burst of
// incident events does not spawn one goroutine per open alert stream. It also
// keeps the active set warm in the cache.
type LocationChecker struct {
	alerts    ProximityEvaluator
	incidents ActiveIncidents
	logger    *slog.Logger
	jobs      chan CheckLocationJob
	poolSize  int
	warmEvery time.Duration
}

func NewLocationChecker(alerts ProximityEvaluator, incidents ActiveIncidents, logger *slog.Logger, poolSize int) *LocationChecker {
	if poolSize <= 0 {
		poolSize = 4
	}
	return &LocationChecker{
		alerts:    alerts,
		incidents: incidents,
		logger:    logger,
		jobs:      make(chan CheckLocationJob, 100),
		poolSize:  poolSize,
		warmEvery: 30 * time.Second,
	}
}

// Submit queues a job. It returns false when ctx ends first.
func (w *LocationChecker) Submit(ctx context.Context, job CheckLocationJob) bool {
	select {
	case w.jobs <- job:
		return true
	case <-ctx.Done():
		return false
	}
}

func (w *LocationChecker) Run(ctx context.Context) {
	var wg sync.WaitGroup

	for i := 0; i < w.poolSize; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.worker(ctx)
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		w.producer(ctx)
	}()
	wg.Wait()
}

func (w *LocationChecker) producer(ctx context.Context) {
	ticker := time.NewTicker(w.warmEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.incidents.ListActive(ctx); err != nil && ctx.Err() == nil {
				w.logger.Warn("active set warm-up failed", slog.Any("error", err))
			}
		}
	}
}

func (w *LocationChecker) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-w.jobs:
			w.processJob(ctx, job)
		}
	}
}

func (w *LocationChecker) processJob(ctx context.Context, job CheckLocationJob) {
	defer close(job.ResultChan)

	timeout := job.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	jobCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := w.alerts.Evaluate(jobCtx, job.UserID, job.Pos)
	if err != nil {
		w.logger.Warn("proximity re-evaluation failed",
			slog.String("user_id", job.UserID),
			slog.Any("error", err),
		)
		return
	}

	select {
	case job.ResultChan <- resp:
	case <-jobCtx.Done():
	}
}
