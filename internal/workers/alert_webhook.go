package workers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/igraphixwebpreview/RoadReportHub/internal/config"
	"github.com/igraphixwebpreview/RoadReportHub/internal/domain"
	"github.com/igraphixwebpreview/RoadReportHub/pkg/e"
)

type AlertSource interface {
	BRPop(ctx context.Context, timeout time.Duration) (domain.AlertPayload, error)
}

// AlertWebhookSender relays fired proximity alerts to an external webhook.
type AlertWebhookSender struct {
	logger  *slog.Logger
	cfg     config.WebhookConfig
	queue   AlertSource
	http    *http.Client
	backoff time.Duration
	poll    time.Duration
}

func NewAlertWebhookSender(logger *slog.Logger, cfg config.WebhookConfig, q AlertSource) *AlertWebhookSender {
	return &AlertWebhookSender{
		logger:  logger,
		cfg:     cfg,
		queue:   q,
		http:    &http.Client{Timeout: 5 * time.Second},
		backoff: time.Second,
		poll:    5 * time.Second,
	}
}

func (s *AlertWebhookSender) Run(ctx context.Context) {
	s.logger.Info("alert webhook sender started", slog.String("url", s.cfg.URL))

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("alert webhook sender stopped", slog.String("reason", ctx.Err().Error()))
			return
		default:
		}

		payload, err := s.queue.BRPop(ctx, s.poll)
		if err != nil {
			if errors.Is(err, e.ErrAlertQueueEmpty) {
				continue
			}
			if ctx.Err() != nil {
				continue
			}
			s.logger.Error("BRPop failed", slog.Any("error", err))
			sleep(ctx, 500*time.Millisecond)
			continue
		}

		s.logger.Debug("sending alert webhook", slog.String("user_id", payload.UserID))
		s.sendWithRetry(ctx, payload)
	}
}

func (s *AlertWebhookSender) sendWithRetry(ctx context.Context, p domain.AlertPayload) bool {
	const maxRetries = 3

	body, err := json.Marshal(p)
	if err != nil {
		s.logger.Error("marshal alert payload failed", slog.String("error", err.Error()))
		return false
	}

	for attempt := 1; attempt <= maxRetries; attempt++ {
		if ctx.Err() != nil {
			s.logger.Info("stop retries due to context cancel")
			return false
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.URL, bytes.NewReader(body))
		if err != nil {
			s.logger.Error("create webhook request failed", slog.String("error", err.Error()))
			return false
		}

		req.Header.Set("Content-Type", "application/json")

		resp, err := s.http.Do(req)
		if err == nil && resp.StatusCode >= 200 && resp.StatusCode < 300 {
			_ = resp.Body.Close()
			return true
		}
		if resp != nil {
			_ = resp.Body.Close()
		}

		reason := "unknown"
		if err != nil {
			reason = err.Error()
		} else if resp != nil {
			reason = resp.Status
		}

		s.logger.Warn("webhook failed",
			slog.Int("attempt", attempt),
			slog.String("url", s.cfg.URL),
			slog.String("reason", reason),
		)

		if attempt < maxRetries && !sleep(ctx, time.Duration(attempt)*s.backoff) {
			return false
		}
	}
	return false
}

// sleep waits for d and reports false if ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
