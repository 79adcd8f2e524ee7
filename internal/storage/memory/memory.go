// Package memory keeps every repository in process. It backs tests and
// single-node demo deployments.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/igraphixwebpreview/RoadReportHub/internal/domain"
	"github.com/igraphixwebpreview/RoadReportHub/internal/lifecycle"
	"github.com/igraphixwebpreview/RoadReportHub/pkg/e"
)

type voteKey struct {
	user     string
	incident uuid.UUID
}

type Store struct {
	mu            sync.RWMutex
	incidents     map[uuid.UUID]*domain.Incident
	order         []uuid.UUID
	verifications map[voteKey]*domain.Verification
	settings      map[string]domain.Settings
	checks        []domain.LocationCheck

	locksMu sync.Mutex
	locks   map[uuid.UUID]*sync.Mutex

	now func() time.Time
}

func New() *Store {
	return &Store{
		incidents:     make(map[uuid.UUID]*domain.Incident),
		verifications: make(map[voteKey]*domain.Verification),
		settings:      make(map[string]domain.Settings),
		locks:         make(map[uuid.UUID]*sync.Mutex),
		now:           time.Now,
	}
}

func clone(inc *domain.Incident) *domain.Incident {
	c := *inc
	return &c
}

func (s *Store) incidentLock(id uuid.UUID) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

func (s *Store) Create(ctx context.Context, inc *domain.Incident) error {
	const op = "memory.Incident.Create"

	if inc == nil {
		return fmt.Errorf("%s: %w", op, e.ErrInvalidInput)
	}
	if err := ctx.Err(); err != nil {
		return e.WrapError(ctx, op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.incidents[inc.ID]; ok {
		return fmt.Errorf("%s: %w", op, e.ErrUniqueViolation)
	}
	s.incidents[inc.ID] = clone(inc)
	s.order = append(s.order, inc.ID)
	return nil
}

func (s *Store) Get(ctx context.Context, id uuid.UUID) (*domain.Incident, error) {
	const op = "memory.Incident.Get"

	s.mu.RLock()
	defer s.mu.RUnlock()

	inc, ok := s.incidents[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, e.ErrNotFound)
	}
	return clone(inc), nil
}

func (s *Store) ListActive(ctx context.Context) ([]*domain.Incident, error) {
	return s.filter(func(inc *domain.Incident) bool { return inc.Active }), nil
}

func (s *Store) ListByReporter(ctx context.Context, userID string) ([]*domain.Incident, error) {
	return s.filter(func(inc *domain.Incident) bool { return inc.UserID == userID }), nil
}

// filter returns matches newest first.
func (s *Store) filter(keep func(*domain.Incident) bool) []*domain.Incident {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Incident, 0)
	for i := len(s.order) - 1; i >= 0; i-- {
		inc := s.incidents[s.order[i]]
		if keep(inc) {
			out = append(out, clone(inc))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ReportedAt.After(out[j].ReportedAt) })
	return out
}

func (s *Store) List(ctx context.Context, page, limit int) ([]*domain.Incident, int64, error) {
	all := s.filter(func(*domain.Incident) bool { return true })
	total := int64(len(all))

	offset := (page - 1) * limit
	if offset >= len(all) {
		return []*domain.Incident{}, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (s *Store) Exists(ctx context.Context, userID string, incidentID uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.verifications[voteKey{user: userID, incident: incidentID}]
	return ok, nil
}

// Record holds the incident's own mutex across the read-modify-write, so votes
// on one incident serialize while other incidents proceed.
func (s *Store) Record(ctx context.Context, v *domain.Verification, apply lifecycle.Transition) (*domain.Incident, error) {
	const op = "memory.Verification.Record"

	if v == nil || apply == nil {
		return nil, fmt.Errorf("%s: %w", op, e.ErrInvalidInput)
	}

	l := s.incidentLock(v.IncidentID)
	l.Lock()
	defer l.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, e.WrapError(ctx, op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	inc, ok := s.incidents[v.IncidentID]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, e.ErrNotFound)
	}
	key := voteKey{user: v.UserID, incident: v.IncidentID}
	if _, dup := s.verifications[key]; dup {
		return nil, fmt.Errorf("%s: %w", op, e.ErrDuplicateVote)
	}

	stored := *v
	s.verifications[key] = &stored

	apply(lifecycle.StateOf(inc)).ApplyTo(inc)
	return clone(inc), nil
}

func (s *Store) GetOrCreate(ctx context.Context, defaults domain.Settings) (domain.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cur, ok := s.settings[defaults.UserID]; ok {
		return cur, nil
	}
	s.settings[defaults.UserID] = defaults
	return defaults, nil
}

func (s *Store) Update(ctx context.Context, patch domain.SettingsPatch, defaults domain.Settings) (domain.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.settings[defaults.UserID]
	if !ok {
		cur = defaults
	}
	cur = cur.Merge(patch)
	s.settings[defaults.UserID] = cur
	return cur, nil
}

func (s *Store) SaveCheck(ctx context.Context, check *domain.LocationCheck) error {
	const op = "memory.LocationCheck.Save"

	if check == nil || check.UserID == "" {
		return fmt.Errorf("%s: %w", op, e.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := *check
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.CheckedAt.IsZero() {
		c.CheckedAt = s.now().UTC()
	}
	s.checks = append(s.checks, c)
	return nil
}

func (s *Store) CountUniqueUsers(ctx context.Context, minutes int) (int64, error) {
	since := s.now().Add(-time.Duration(minutes) * time.Minute)

	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make(map[string]struct{})
	for _, c := range s.checks {
		if c.CheckedAt.After(since) {
			users[c.UserID] = struct{}{}
		}
	}
	return int64(len(users)), nil
}

func (s *Store) CountTotalChecks(ctx context.Context, minutes int) (int64, error) {
	since := s.now().Add(-time.Duration(minutes) * time.Minute)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, c := range s.checks {
		if c.CheckedAt.After(since) {
			n++
		}
	}
	return n, nil
}
