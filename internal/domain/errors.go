package domain

import (
	"errors"
	"fmt"
)

// Error classes. Every domain error wraps exactly one of these so adapters
// can map them without knowing the concrete failure.
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidState = errors.New("invalid state")
	ErrInvalidInput = errors.New("invalid input")
)

var (
	ErrRoomNotFound        = fmt.Errorf("room %w", ErrNotFound)
	ErrSessionNotFound     = fmt.Errorf("session %w", ErrNotFound)
	ErrParticipantNotFound = fmt.Errorf("participant %w", ErrNotFound)

	ErrNotRoomOwner         = fmt.Errorf("%w: only the room owner may do this", ErrForbidden)
	ErrNotHost              = fmt.Errorf("%w: only the session host may do this", ErrForbidden)
	ErrNotActiveParticipant = fmt.Errorf("%w: not an active participant", ErrForbidden)
	ErrNotParticipant       = fmt.Errorf("%w: not a participant of this session", ErrForbidden)

	ErrSessionNotLive    = fmt.Errorf("%w: session is not live", ErrInvalidState)
	ErrInvalidTransition = fmt.Errorf("%w: transition not allowed", ErrInvalidState)
	ErrNotSharing        = fmt.Errorf("%w: not currently sharing screen", ErrInvalidState)
)
