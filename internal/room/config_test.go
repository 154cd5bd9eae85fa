package room

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }
func strPtr(v string) *string { return &v }
func boolPtr(v bool) *bool { return &v }

func TestConfigUpdate_Validate(t *testing.T) {
	tests := []struct {
		name    string
		update  ConfigUpdate
		wantErr bool
	}{
		{name: "empty update", update: ConfigUpdate{}},
		{name: "valid full update", update: ConfigUpdate{
			Playlist:          strPtr("Rock"),
			ClipDuration:      intPtr(10),
			ClipMoment:        strPtr(MomentRandom),
			BuzzerOffDuration: intPtr(2),
			CutMusicAfterBuzz: boolPtr(false),
		}},
		{name: "clip duration too short", update: ConfigUpdate{ClipDuration: intPtr(3)}, wantErr: true},
		{name: "clip duration too long", update: ConfigUpdate{ClipDuration: intPtr(25)}, wantErr: true},
		{name: "clip duration not a step of 5", update: ConfigUpdate{ClipDuration: intPtr(12)}, wantErr: true},
		{name: "unknown clip moment", update: ConfigUpdate{ClipMoment: strPtr("bridge")}, wantErr: true},
		{name: "buzzer off too low", update: ConfigUpdate{BuzzerOffDuration: intPtr(0)}, wantErr: true},
		{name: "buzzer off too high", update: ConfigUpdate{BuzzerOffDuration: intPtr(4)}, wantErr: true},
		{name: "empty playlist", update: ConfigUpdate{Playlist: strPtr("")}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.update.validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrValidation)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRoom_UpdateConfig(t *testing.T) {
	rm := New("r1", "", "", ResetNone)
	_, _, err := rm.Join("alice", "Alice")
	require.NoError(t, err)
	_, _, err = rm.Join("bob", "Bob")
	require.NoError(t, err)

	cfg, err := rm.UpdateConfig("alice", ConfigUpdate{ClipDuration: intPtr(10), Playlist: strPtr("Rap")})
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.ClipDuration)
	assert.Equal(t, "Rap", cfg.Playlist)
	// untouched fields keep their defaults
	assert.Equal(t, MomentRefrain, cfg.ClipMoment)
	assert.True(t, cfg.CutMusicAfterBuzz)

	// rejected update leaves the stored config unchanged
	_, err = rm.UpdateConfig("alice", ConfigUpdate{ClipDuration: intPtr(7)})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, 10, rm.State().Config.ClipDuration)

	_, err = rm.UpdateConfig("bob", ConfigUpdate{ClipDuration: intPtr(5)})
	assert.ErrorIs(t, err, ErrNotHost)
	assert.Equal(t, 10, rm.State().Config.ClipDuration)
}
