package domain

import (
	"time"

	"github.com/google/uuid"
)

type VerificationAction string

const (
	ActionConfirm VerificationAction = "confirm"
	ActionDismiss VerificationAction = "dismiss"
)

func (a VerificationAction) Valid() bool {
	return a == ActionConfirm || a == ActionDismiss
}

// Verification is one user's vote on one incident. At most one exists per
// (UserID, IncidentID).
type Verification struct {
	ID         uuid.UUID          `json:"id"`
	IncidentID uuid.UUID          `json:"incidentId"`
	UserID     string             `json:"userId"`
	Action     VerificationAction `json:"action"`
	Timestamp  time.Time          `json:"timestamp"`
}

type VerificationResult struct {
	Verification *Verification `json:"verification"`
	Incident     *Incident     `json:"incident"`
}
