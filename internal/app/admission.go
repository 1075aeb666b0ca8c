package app

import (
	"context"

	"github.com/dkeye/OneVoice/internal/domain"
	"github.com/dkeye/OneVoice/internal/store"
	"github.com/google/uuid"
)

// Admission decides whether an authenticated caller may open a signaling
// connection to a room. The registry itself never checks anything.
type Admission struct {
	base
}

func NewAdmission(st store.Store) *Admission {
	return &Admission{base: base{Store: st}}
}

func (a *Admission) Admit(ctx context.Context, who domain.Identity, roomID uuid.UUID) error {
	_, err := a.room(ctx, roomID)
	return err
}
