package domain

const (
	DefaultAlertDistanceMeters = 500
	MinAlertDistanceMeters     = 100
	MaxAlertDistanceMeters     = 2000
)

type Settings struct {
	UserID              string `json:"userId"`
	SirenEnabled        bool   `json:"sirenEnabled"`
	VibrationEnabled    bool   `json:"vibrationEnabled"`
	PopupAlertsEnabled  bool   `json:"popupAlertsEnabled"`
	AlertDistanceMeters int    `json:"alertDistanceMeters"`
}

func DefaultSettings(userID string) Settings {
	return Settings{
		UserID:              userID,
		SirenEnabled:        true,
		VibrationEnabled:    true,
		PopupAlertsEnabled:  true,
		AlertDistanceMeters: DefaultAlertDistanceMeters,
	}
}

// SettingsPatch carries a partial update; nil fields keep their stored value.
type SettingsPatch struct {
	SirenEnabled        *bool `json:"sirenEnabled"`
	VibrationEnabled    *bool `json:"vibrationEnabled"`
	PopupAlertsEnabled  *bool `json:"popupAlertsEnabled"`
	AlertDistanceMeters *int  `json:"alertDistanceMeters" validate:"omitempty,gte=100,lte=2000"`
}

func (s Settings) Merge(p SettingsPatch) Settings {
	if p.SirenEnabled != nil {
		s.SirenEnabled = *p.SirenEnabled
	}
	if p.VibrationEnabled != nil {
		s.VibrationEnabled = *p.VibrationEnabled
	}
	if p.PopupAlertsEnabled != nil {
		s.PopupAlertsEnabled = *p.PopupAlertsEnabled
	}
	if p.AlertDistanceMeters != nil {
		s.AlertDistanceMeters = *p.AlertDistanceMeters
	}
	return s
}
