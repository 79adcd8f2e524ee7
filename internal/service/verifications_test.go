package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/igraphixwebpreview/RoadReportHub/internal/domain"
	"github.com/igraphixwebpreview/RoadReportHub/internal/lifecycle"
	"github.com/igraphixwebpreview/RoadReportHub/internal/service"
	mock_service "github.com/igraphixwebpreview/RoadReportHub/internal/service/mocks"
	"github.com/igraphixwebpreview/RoadReportHub/internal/storage/memory"
	"github.com/igraphixwebpreview/RoadReportHub/pkg/e"
)

type verificationDeps struct {
	repo   *mock_service.MockIncidentRepository
	ledger *mock_service.MockVerificationLedger
	cache  *mock_service.MockIncidentCache
	events *mock_service.MockEventPublisher
	svc    service.VerificationService
}

func newVerificationDeps(t *testing.T) verificationDeps {
	t.Helper()

	ctrl := gomock.NewController(t)
	d := verificationDeps{
		repo:   mock_service.NewMockIncidentRepository(ctrl),
		ledger: mock_service.NewMockVerificationLedger(ctrl),
		cache:  mock_service.NewMockIncidentCache(ctrl),
		events: mock_service.NewMockEventPublisher(ctrl),
	}
	d.svc = service.NewVerificationService(
		d.repo, d.ledger, d.cache, d.events,
		lifecycle.NewEngine(lifecycle.DefaultDismissThreshold),
		discardLogger(),
		service.VerificationOptions{Now: clock},
	)
	return d
}

func TestSubmit_RequiresVoter(t *testing.T) {
	t.Parallel()

	d := newVerificationDeps(t)

	_, err := d.svc.Submit(context.Background(), "", uuid.New(), domain.ActionConfirm)
	if !errors.Is(err, e.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestSubmit_IncidentNotFound(t *testing.T) {
	t.Parallel()

	d := newVerificationDeps(t)
	id := uuid.New()

	d.repo.EXPECT().Get(gomock.Any(), id).Return(nil, e.ErrNotFound)

	_, err := d.svc.Submit(context.Background(), "alice", id, domain.ActionConfirm)
	if !errors.Is(err, e.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSubmit_NotFoundBeatsMissingAction(t *testing.T) {
	t.Parallel()

	d := newVerificationDeps(t)
	id := uuid.New()

	d.repo.EXPECT().Get(gomock.Any(), id).Return(nil, e.ErrNotFound)

	_, err := d.svc.Submit(context.Background(), "alice", id, "")
	if !errors.Is(err, e.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// A repeated vote is rejected as a duplicate before the action is even looked at.
func TestSubmit_DuplicateBeatsInvalidAction(t *testing.T) {
	t.Parallel()

	d := newVerificationDeps(t)
	inc := activeIncident(13.91, -60.98)

	gomock.InOrder(
		d.repo.EXPECT().Get(gomock.Any(), inc.ID).Return(inc, nil),
		d.ledger.EXPECT().Exists(gomock.Any(), "alice", inc.ID).Return(true, nil),
	)

	_, err := d.svc.Submit(context.Background(), "alice", inc.ID, domain.VerificationAction("like"))
	if !errors.Is(err, e.ErrDuplicateVote) {
		t.Fatalf("expected ErrDuplicateVote, got %v", err)
	}
}

func TestSubmit_InvalidActionRecordsNothing(t *testing.T) {
	t.Parallel()

	d := newVerificationDeps(t)
	inc := activeIncident(13.91, -60.98)

	d.repo.EXPECT().Get(gomock.Any(), inc.ID).Return(inc, nil)
	d.ledger.EXPECT().Exists(gomock.Any(), "alice", inc.ID).Return(false, nil)

	_, err := d.svc.Submit(context.Background(), "alice", inc.ID, domain.VerificationAction("like"))
	if !errors.Is(err, e.ErrInvalidAction) {
		t.Fatalf("expected ErrInvalidAction, got %v", err)
	}
	if !errors.Is(err, e.ErrInvalidInput) {
		t.Fatalf("invalid action must classify as invalid input, got %v", err)
	}
}

func TestSubmit_ThirdDismissDeactivates(t *testing.T) {
	t.Parallel()

	d := newVerificationDeps(t)
	inc := activeIncident(13.91, -60.98)
	inc.DismissedCount = 2

	d.repo.EXPECT().Get(gomock.Any(), inc.ID).Return(inc, nil)
	d.ledger.EXPECT().Exists(gomock.Any(), "carol", inc.ID).Return(false, nil)
	d.ledger.EXPECT().
		Record(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, v *domain.Verification, apply lifecycle.Transition) (*domain.Incident, error) {
			if v.UserID != "carol" || v.Action != domain.ActionDismiss || v.IncidentID != inc.ID {
				t.Fatalf("unexpected verification: %+v", v)
			}
			if !v.Timestamp.Equal(fixedNow) {
				t.Fatalf("unexpected timestamp: %v", v.Timestamp)
			}
			stored := *inc
			apply(lifecycle.StateOf(&stored)).ApplyTo(&stored)
			return &stored, nil
		})

	d.cache.EXPECT().Invalidate(gomock.Any()).Return(nil)

	var kinds []domain.EventKind
	d.events.EXPECT().
		Publish(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, ev domain.IncidentEvent) error {
			kinds = append(kinds, ev.Kind)
			return nil
		}).
		Times(2)

	res, err := d.svc.Submit(context.Background(), "carol", inc.ID, domain.ActionDismiss)
	require.NoError(t, err)
	assert.False(t, res.Incident.Active)
	assert.Equal(t, 3, res.Incident.DismissedCount)
	assert.Equal(t, domain.ActionDismiss, res.Verification.Action)
	assert.Equal(t, []domain.EventKind{domain.EventIncidentVerified, domain.EventIncidentDeactivated}, kinds)
}

func TestSubmit_ConfirmOnInactiveStaysInactive(t *testing.T) {
	t.Parallel()

	d := newVerificationDeps(t)
	inc := activeIncident(13.91, -60.98)
	inc.Active = false
	inc.DismissedCount = 3

	d.repo.EXPECT().Get(gomock.Any(), inc.ID).Return(inc, nil)
	d.ledger.EXPECT().Exists(gomock.Any(), "dave", inc.ID).Return(false, nil)
	d.ledger.EXPECT().
		Record(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ *domain.Verification, apply lifecycle.Transition) (*domain.Incident, error) {
			stored := *inc
			apply(lifecycle.StateOf(&stored)).ApplyTo(&stored)
			return &stored, nil
		})
	d.cache.EXPECT().Invalidate(gomock.Any()).Return(errors.New("redis down"))
	d.events.EXPECT().
		Publish(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, ev domain.IncidentEvent) error {
			if ev.Kind != domain.EventIncidentVerified {
				t.Fatalf("unexpected event %s", ev.Kind)
			}
			return nil
		})

	res, err := d.svc.Submit(context.Background(), "dave", inc.ID, domain.ActionConfirm)
	require.NoError(t, err)
	assert.False(t, res.Incident.Active)
	assert.Equal(t, 1, res.Incident.VerifiedCount)
}

func TestSubmit_RecordErrorSkipsSideEffects(t *testing.T) {
	t.Parallel()

	d := newVerificationDeps(t)
	inc := activeIncident(13.91, -60.98)
	boom := errors.New("boom")

	d.repo.EXPECT().Get(gomock.Any(), inc.ID).Return(inc, nil)
	d.ledger.EXPECT().Exists(gomock.Any(), "alice", inc.ID).Return(false, nil)
	d.ledger.EXPECT().Record(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, boom)

	_, err := d.svc.Submit(context.Background(), "alice", inc.ID, domain.ActionConfirm)
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestSubmit_ConcurrentVotesAgainstMemoryStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.New()
	svc := service.NewVerificationService(
		store, store, nil, nil,
		lifecycle.NewEngine(lifecycle.DefaultDismissThreshold),
		discardLogger(),
		service.VerificationOptions{},
	)

	inc := activeIncident(13.91, -60.98)
	require.NoError(t, store.Create(ctx, inc))

	const confirmers, dismissers = 25, 5
	var wg sync.WaitGroup
	for i := 0; i < confirmers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Submit(ctx, fmt.Sprintf("c%d", i), inc.ID, domain.ActionConfirm)
			assert.NoError(t, err)
		}(i)
	}
	for i := 0; i < dismissers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Submit(ctx, fmt.Sprintf("d%d", i), inc.ID, domain.ActionDismiss)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	got, err := store.Get(ctx, inc.ID)
	require.NoError(t, err)
	assert.Equal(t, confirmers, got.VerifiedCount)
	assert.Equal(t, dismissers, got.DismissedCount)
	assert.False(t, got.Active)

	_, err = svc.Submit(ctx, "d0", inc.ID, domain.ActionConfirm)
	require.ErrorIs(t, err, e.ErrDuplicateVote)

	again, err := store.Get(ctx, inc.ID)
	require.NoError(t, err)
	assert.Equal(t, got, again)
}
