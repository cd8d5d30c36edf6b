package room

import "errors"

var (
	ErrRoomDisabled = errors.New("room is disabled")
	ErrRoomBusy     = errors.New("gameroom-busy")
	// ErrQueued reports that the request was accepted and will start once
	// the current session ends.
	ErrQueued = errors.New("start request queued")
)
