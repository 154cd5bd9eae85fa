package room

import "errors"

var (
	ErrRoomNotFound      = errors.New("room not found")
	ErrRoomEnded         = errors.New("room has ended")
	ErrNotHost           = errors.New("command is host-only")
	ErrInvalidTransition = errors.New("command not allowed in current state")
	ErrValidation        = errors.New("invalid config value")
	ErrUnknownPlayer     = errors.New("player is not in the room")
)
