package domain

import (
	"encoding/json"
	"net/url"
	"path"
	"strings"
)

type MediaKind string

const (
	MediaPhoto MediaKind = "photo"
	MediaVideo MediaKind = "video"
)

var videoExtensions = map[string]struct{}{
	".mp4": {}, ".mov": {}, ".webm": {}, ".m4v": {}, ".3gp": {}, ".mkv": {}, ".avi": {},
}

// Media is the evidence attached to an incident. On the wire it stays a single
// string (a URL or a data URI); the kind is derived from that string.
type Media struct {
	Kind MediaKind
	URI  string
}

func NewMedia(ref string) Media {
	ref = strings.TrimSpace(ref)
	return Media{Kind: detectMediaKind(ref), URI: ref}
}

func (m Media) IsZero() bool { return m.URI == "" }

func (m Media) IsVideo() bool { return m.Kind == MediaVideo }

func (m Media) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.URI)
}

func (m *Media) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*m = NewMedia(s)
	return nil
}

func detectMediaKind(ref string) MediaKind {
	lower := strings.ToLower(ref)
	if strings.HasPrefix(lower, "data:") {
		if strings.HasPrefix(lower, "data:video/") {
			return MediaVideo
		}
		return MediaPhoto
	}

	p := lower
	if u, err := url.Parse(ref); err == nil && u.Path != "" {
		p = strings.ToLower(u.Path)
	}
	if _, ok := videoExtensions[path.Ext(p)]; ok {
		return MediaVideo
	}
	return MediaPhoto
}
