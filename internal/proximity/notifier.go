// Package proximity decides which active incident, if any, a user should be
// alerted about at their current position.
package proximity

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/igraphixwebpreview/RoadReportHub/internal/domain"
	"github.com/igraphixwebpreview/RoadReportHub/internal/geo"
	"github.com/igraphixwebpreview/RoadReportHub/pkg/e"
)

const DefaultCooldown = 5 * time.Second

// Match is the nearest qualifying incident and its distance in meters.
type Match struct {
	Incident *domain.Incident
	Distance float64
}

// Nearest returns the active incident closest to pos whose distance is
// strictly below thresholdMeters. Incidents with unusable coordinates are
// skipped. On an exact tie the first one in the slice wins.
func Nearest(incidents []*domain.Incident, pos geo.Point, thresholdMeters float64) (Match, bool) {
	var (
		best  Match
		found bool
	)
	for _, inc := range incidents {
		if inc == nil || !inc.Active {
			continue
		}
		p := geo.Point{Lat: inc.Latitude, Lng: inc.Longitude}
		if !p.Valid() {
			continue
		}
		d := geo.Distance(pos, p)
		if d >= thresholdMeters {
			continue
		}
		if !found || d < best.Distance {
			best = Match{Incident: inc, Distance: d}
			found = true
		}
	}
	return best, found
}

// WithinRadius returns every active incident with valid coordinates at most
// radiusMeters away from pos, preserving input order.
func WithinRadius(incidents []*domain.Incident, pos geo.Point, radiusMeters float64) []*domain.Incident {
	out := make([]*domain.Incident, 0, len(incidents))
	for _, inc := range incidents {
		if inc == nil || !inc.Active {
			continue
		}
		p := geo.Point{Lat: inc.Latitude, Lng: inc.Longitude}
		if !p.Valid() {
			continue
		}
		if geo.Distance(pos, p) <= radiusMeters {
			out = append(out, inc)
		}
	}
	return out
}

// Label is the human readable place of an incident, falling back to its coordinates.
func Label(inc *domain.Incident) string {
	if inc.LocationName != nil {
		if name := strings.TrimSpace(*inc.LocationName); name != "" {
			return name
		}
	}
	return geo.Point{Lat: inc.Latitude, Lng: inc.Longitude}.String()
}

// Notifier tracks the alert each user currently sees and enforces the
// per-user cooldown between fired alerts. A user may hold several open
// streams; their displayed alert lives until the last one is released.
type Notifier struct {
	gate     CooldownGate
	cooldown time.Duration
	now      func() time.Time

	mu        sync.Mutex
	displayed map[string]uuid.UUID
	streams   map[string]int
}

type Option func(*Notifier)

func WithClock(now func() time.Time) Option {
	return func(n *Notifier) { n.now = now }
}

func WithCooldown(d time.Duration) Option {
	return func(n *Notifier) {
		if d > 0 {
			n.cooldown = d
		}
	}
}

func NewNotifier(gate CooldownGate, opts ...Option) *Notifier {
	n := &Notifier{
		gate:      gate,
		cooldown:  DefaultCooldown,
		now:       time.Now,
		displayed: make(map[string]uuid.UUID),
		streams:   make(map[string]int),
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.gate == nil {
		n.gate = NewMemoryGate(n.now)
	}
	return n
}

// Evaluate runs one proximity decision for userID at pos against the given
// active set, using the user's alert distance and channel preferences.
func (n *Notifier) Evaluate(ctx context.Context, userID string, pos geo.Point, incidents []*domain.Incident, settings domain.Settings) (domain.LocationCheckResponse, error) {
	if !pos.Valid() {
		return domain.LocationCheckResponse{}, fmt.Errorf("proximity.Evaluate: %w", e.ErrInvalidCoordinates)
	}

	threshold := settings.AlertDistanceMeters
	if threshold <= 0 {
		threshold = domain.DefaultAlertDistanceMeters
	}

	match, ok := Nearest(incidents, pos, float64(threshold))
	if !ok {
		return domain.LocationCheckResponse{Cleared: n.clear(userID)}, nil
	}

	allowed, err := n.gate.Acquire(ctx, userID, n.cooldown)
	if err != nil {
		return domain.LocationCheckResponse{}, fmt.Errorf("proximity.Evaluate: cooldown: %w", err)
	}
	if !allowed {
		return domain.LocationCheckResponse{Suppressed: true}, nil
	}

	alert := &domain.ProximityAlert{
		IncidentID:     match.Incident.ID,
		IncidentType:   match.Incident.Type,
		DistanceMeters: int(math.Round(match.Distance)),
		LocationLabel:  Label(match.Incident),
		Channels: domain.AlertChannels{
			Siren:     settings.SirenEnabled,
			Vibration: settings.VibrationEnabled,
			Popup:     settings.PopupAlertsEnabled,
		},
		FiredAt: n.now().UTC(),
	}

	n.mu.Lock()
	n.displayed[userID] = match.Incident.ID
	n.mu.Unlock()

	return domain.LocationCheckResponse{Alert: alert}, nil
}

// Displayed returns the incident whose alert userID currently sees.
func (n *Notifier) Displayed(userID string) (uuid.UUID, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	id, ok := n.displayed[userID]
	return id, ok
}

// Attach registers one more open stream for userID.
func (n *Notifier) Attach(userID string) {
	n.mu.Lock()
	n.streams[userID]++
	n.mu.Unlock()
}

// Forget releases one stream of userID. The displayed alert is dropped only
// when no other stream of that user is still attached.
func (n *Notifier) Forget(userID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if open := n.streams[userID]; open > 1 {
		n.streams[userID] = open - 1
		return
	}
	delete(n.streams, userID)
	delete(n.displayed, userID)
}

func (n *Notifier) clear(userID string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.displayed[userID]; !ok {
		return false
	}
	delete(n.displayed, userID)
	return true
}
