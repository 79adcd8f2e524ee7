package domain

type CreateIncidentRequest struct {
	Type         IncidentType `json:"type" validate:"required,incident_type"`
	Latitude     *Coordinate  `json:"latitude" validate:"required,lat"`
	Longitude    *Coordinate  `json:"longitude" validate:"required,lng"`
	ImageURL     string       `json:"imageUrl" validate:"required"`
	Notes        *string      `json:"notes" validate:"omitempty,max=2000"`
	LocationName *string      `json:"locationName" validate:"omitempty,max=255"`
}

type VerifyIncidentRequest struct {
	Action VerificationAction `json:"action"`
}

type NearbyRequest struct {
	Lat     float64
	Lng     float64
	RadiusM float64
}

type ListIncidentsResponse struct {
	Incidents []*Incident `json:"incidents"`
	Page      int         `json:"page"`
	Limit     int         `json:"limit"`
	Total     int64       `json:"total"`
}
