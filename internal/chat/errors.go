package chat

import "errors"

var (
	// ErrRoomNotFound is returned on lookups for unknown rooms or connections.
	// Callers must branch on it; there is no zero-value room fallback.
	ErrRoomNotFound = errors.New("chat: room not found")

	// ErrRoomInactive is returned when routing a message to a room whose visitor
	// already disconnected.
	ErrRoomInactive = errors.New("chat: room is no longer active")
)
