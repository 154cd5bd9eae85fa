package models

import (
	"encoding/json"

	"gorm.io/gorm"
)

// Playlist represents an imported music playlist used to pick quiz clips.
// Tracks are stored as the raw JSON returned by the streaming provider.
type Playlist struct {
	gorm.Model
	Name        string          `gorm:"size:255;not null"`
	Description string          `gorm:"type:text"`
	Owner       string          `gorm:"size:100;not null;index"`
	SpotifyID   string          `gorm:"size:50;unique;not null"`
	SpotifyURI  string          `gorm:"size:100;not null"`
	Tracks      json.RawMessage `gorm:"type:jsonb"`
}
