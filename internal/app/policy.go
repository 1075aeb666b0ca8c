package app

import (
	"github.com/dkeye/OneVoice/internal/core"
	"github.com/google/uuid"
)

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	KickMember
	DropFrame
)

// Policy decides what happens to a connection whose send failed.
type Policy interface {
	OnBackPressure(roomID uuid.UUID, conn core.Conn) BackpressureAction
}

// EvictPolicy closes any connection that cannot keep up.
type EvictPolicy struct{}

func (EvictPolicy) OnBackPressure(uuid.UUID, core.Conn) BackpressureAction {
	return KickMember
}
