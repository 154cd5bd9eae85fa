package room

import "fmt"

// Clip moments a round can start from.
const (
	MomentOpening = "opening"
	MomentRefrain = "refrain"
	MomentEnding  = "ending"
	MomentRandom  = "random"
)

// Config is the per-room game configuration. Every field is bounded; the
// state machine rejects out-of-range updates and keeps the prior values.
type Config struct {
	Playlist          string `json:"playlist"`
	ClipDuration      int    `json:"clipDuration"`
	ClipMoment        string `json:"clipMoment"`
	BuzzerOffDuration int    `json:"buzzerOffDuration"`
	CutMusicAfterBuzz bool   `json:"cutMusicAfterBuzz"`
}

// DefaultConfig mirrors the defaults new rooms start with.
func DefaultConfig() Config {
	return Config{
		Playlist:          "Pop",
		ClipDuration:      15,
		ClipMoment:        MomentRefrain,
		BuzzerOffDuration: 3,
		CutMusicAfterBuzz: true,
	}
}

// ConfigUpdate is a partial configuration change. Nil fields are left
// untouched by the merge.
type ConfigUpdate struct {
	Playlist          *string `json:"playlist"`
	ClipDuration      *int    `json:"clipDuration"`
	ClipMoment        *string `json:"clipMoment"`
	BuzzerOffDuration *int    `json:"buzzerOffDuration"`
	CutMusicAfterBuzz *bool   `json:"cutMusicAfterBuzz"`
}

// validate checks an update against the allowed bounds without applying it.
func (u ConfigUpdate) validate() error {
	if u.ClipDuration != nil {
		d := *u.ClipDuration
		if d < 5 || d > 20 || d%5 != 0 {
			return fmt.Errorf("%w: clipDuration must be 5, 10, 15 or 20, got %d", ErrValidation, d)
		}
	}
	if u.ClipMoment != nil {
		switch *u.ClipMoment {
		case MomentOpening, MomentRefrain, MomentEnding, MomentRandom:
		default:
			return fmt.Errorf("%w: unknown clipMoment %q", ErrValidation, *u.ClipMoment)
		}
	}
	if u.BuzzerOffDuration != nil {
		d := *u.BuzzerOffDuration
		if d < 1 || d > 3 {
			return fmt.Errorf("%w: buzzerOffDuration must be between 1 and 3, got %d", ErrValidation, d)
		}
	}
	if u.Playlist != nil && *u.Playlist == "" {
		return fmt.Errorf("%w: playlist cannot be empty", ErrValidation)
	}
	return nil
}

// merge applies a validated update on top of the current config.
func (c Config) merge(u ConfigUpdate) Config {
	if u.Playlist != nil {
		c.Playlist = *u.Playlist
	}
	if u.ClipDuration != nil {
		c.ClipDuration = *u.ClipDuration
	}
	if u.ClipMoment != nil {
		c.ClipMoment = *u.ClipMoment
	}
	if u.BuzzerOffDuration != nil {
		c.BuzzerOffDuration = *u.BuzzerOffDuration
	}
	if u.CutMusicAfterBuzz != nil {
		c.CutMusicAfterBuzz = *u.CutMusicAfterBuzz
	}
	return c
}
