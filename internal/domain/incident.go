package domain

import (
	"time"

	"github.com/google/uuid"
)

type IncidentType string

const (
	IncidentRoadblock IncidentType = "roadblock"
	IncidentAccident  IncidentType = "accident"
)

func (t IncidentType) Valid() bool {
	return t == IncidentRoadblock || t == IncidentAccident
}

// Incident is a reported road condition. ID, UserID and ReportedAt never
// change after creation; Active and the two counters change only through
// accepted verifications.
type Incident struct {
	ID             uuid.UUID    `json:"id"`
	UserID         string       `json:"userId"`
	Type           IncidentType `json:"type"`
	Latitude       float64      `json:"latitude"`
	Longitude      float64      `json:"longitude"`
	Media          Media        `json:"imageUrl"`
	Notes          *string      `json:"notes"`
	LocationName   *string      `json:"locationName"`
	ReportedAt     time.Time    `json:"reportedAt"`
	Active         bool         `json:"active"`
	VerifiedCount  int          `json:"verifiedCount"`
	DismissedCount int          `json:"dismissedCount"`
}
