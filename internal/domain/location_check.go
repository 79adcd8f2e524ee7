package domain

import (
	"time"

	"github.com/google/uuid"
)

type LocationCheckRequest struct {
	Latitude  *Coordinate `json:"latitude" validate:"required,lat"`
	Longitude *Coordinate `json:"longitude" validate:"required,lng"`
}

type LocationCheckResponse struct {
	Alert      *ProximityAlert `json:"alert"`
	Suppressed bool            `json:"suppressed"`
	Cleared    bool            `json:"cleared"`
}

type LocationCheck struct {
	ID          uuid.UUID   `json:"id"`
	UserID      string      `json:"user_id"`
	Lat         float64     `json:"lat"`
	Lng         float64     `json:"lng"`
	IncidentIDs []uuid.UUID `json:"incident_ids"`
	CheckedAt   time.Time   `json:"checked_at"`
}
