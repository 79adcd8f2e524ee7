package domain

import (
	"time"

	"github.com/google/uuid"
)

type AlertChannels struct {
	Siren     bool `json:"siren"`
	Vibration bool `json:"vibration"`
	Popup     bool `json:"popup"`
}

type ProximityAlert struct {
	IncidentID     uuid.UUID     `json:"incidentId"`
	IncidentType   IncidentType  `json:"incidentType"`
	DistanceMeters int           `json:"distanceMeters"`
	LocationLabel  string        `json:"locationLabel"`
	Channels       AlertChannels `json:"channels"`
	FiredAt        time.Time     `json:"firedAt"`
}

// AlertPayload is what gets queued for the webhook relay after an alert fires.
type AlertPayload struct {
	UserID    string         `json:"user_id"`
	Lat       float64        `json:"lat"`
	Lng       float64        `json:"lng"`
	Alert     ProximityAlert `json:"alert"`
	CheckedAt time.Time      `json:"checked_at"`
}

type StreamMessageType string

const (
	StreamConnected StreamMessageType = "connected"
	StreamAlert     StreamMessageType = "alert"
	StreamClear     StreamMessageType = "clear"
	StreamError     StreamMessageType = "error"
)

// AlertStreamMessage is one server push on the alert websocket.
type AlertStreamMessage struct {
	Type  StreamMessageType `json:"type"`
	Alert *ProximityAlert   `json:"alert,omitempty"`
	Error string            `json:"error,omitempty"`
}
