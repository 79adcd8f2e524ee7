package domain

import "time"

type EventKind string

const (
	EventIncidentCreated     EventKind = "incident.created"
	EventIncidentVerified    EventKind = "incident.verified"
	EventIncidentDeactivated EventKind = "incident.deactivated"
)

type IncidentEvent struct {
	Kind     EventKind `json:"kind"`
	Incident Incident  `json:"incident"`
	At       time.Time `json:"at"`
}
