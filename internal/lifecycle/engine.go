// Package lifecycle holds the vote-driven state machine of an incident.
//
// An incident starts active with zero counts. Every accepted verification bumps
// exactly one counter by one. The incident deactivates the moment its dismiss
// count reaches the threshold and never becomes active again.
package lifecycle

import "github.com/igraphixwebpreview/RoadReportHub/internal/domain"

const DefaultDismissThreshold = 3

type State struct {
	Active    bool
	Confirms  int
	Dismisses int
}

// Initial is the state of a freshly reported incident.
func Initial() State {
	return State{Active: true}
}

type Engine struct {
	dismissThreshold int
}

func NewEngine(dismissThreshold int) Engine {
	if dismissThreshold <= 0 {
		dismissThreshold = DefaultDismissThreshold
	}
	return Engine{dismissThreshold: dismissThreshold}
}

var defaultEngine = NewEngine(DefaultDismissThreshold)

func (e Engine) Threshold() int {
	if e.dismissThreshold <= 0 {
		return DefaultDismissThreshold
	}
	return e.dismissThreshold
}

// Apply returns the state after one accepted verification. Actions other than
// confirm and dismiss leave the state untouched; admission control rejects them
// before this point.
func (e Engine) Apply(s State, action domain.VerificationAction) State {
	switch action {
	case domain.ActionConfirm:
		s.Confirms++
	case domain.ActionDismiss:
		s.Dismisses++
		s.Active = s.Active && s.Dismisses < e.Threshold()
	}
	return s
}

// Transition is applied by storage to the current state of an incident while
// the incident is locked for a verification.
type Transition func(State) State

func (e Engine) Transition(action domain.VerificationAction) Transition {
	return func(s State) State { return e.Apply(s, action) }
}

// Deactivated reports whether the transition prev -> next switched the incident off.
func Deactivated(prev, next State) bool {
	return prev.Active && !next.Active
}

func ApplyVerification(s State, action domain.VerificationAction) State {
	return defaultEngine.Apply(s, action)
}

func StateOf(inc *domain.Incident) State {
	return State{
		Active:    inc.Active,
		Confirms:  inc.VerifiedCount,
		Dismisses: inc.DismissedCount,
	}
}

func (s State) ApplyTo(inc *domain.Incident) {
	inc.Active = s.Active
	inc.VerifiedCount = s.Confirms
	inc.DismissedCount = s.Dismisses
}
