package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/dkeye/OneVoice/internal/domain"
	"github.com/dkeye/OneVoice/internal/store"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type Rooms struct {
	base
}

func NewRooms(st store.Store) *Rooms {
	return &Rooms{base: base{Store: st}}
}

type RoomJoinInfo struct {
	*domain.Room
	LiveSessionID *uuid.UUID `json:"live_session_id"`
}

func (r *Rooms) Create(ctx context.Context, who domain.Identity, name string, private bool) (*domain.Room, error) {
	room, err := domain.NewRoom(who.UserID, name, private, r.now())
	if err != nil {
		return nil, err
	}
	if err := r.Store.CreateRoom(ctx, room); err != nil {
		return nil, fmt.Errorf("create room: %w", err)
	}
	log.Info().Str("module", "app.rooms").Str("room", room.ID.String()).Str("code", room.UniqueCode).Msg("room created")
	return room, nil
}

func (r *Rooms) ListMine(ctx context.Context, who domain.Identity) ([]domain.Room, error) {
	return r.Store.ListRoomsByOwner(ctx, who.UserID)
}

func (r *Rooms) Delete(ctx context.Context, who domain.Identity, roomID uuid.UUID) error {
	if _, err := r.ownedRoom(ctx, who, roomID); err != nil {
		return err
	}
	if err := r.Store.DeleteRoom(ctx, roomID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.ErrRoomNotFound
		}
		return err
	}
	log.Info().Str("module", "app.rooms").Str("room", roomID.String()).Msg("room deleted")
	return nil
}

// JoinInfo resolves a share code and reports the live session, if any.
func (r *Rooms) JoinInfo(ctx context.Context, code string) (*RoomJoinInfo, error) {
	room, err := r.Store.GetRoomByCode(ctx, code)
	if errors.Is(err, store.ErrNotFound) {
		return nil, domain.ErrRoomNotFound
	}
	if err != nil {
		return nil, err
	}
	info := &RoomJoinInfo{Room: room}
	live, err := r.Store.FindLiveSession(ctx, room.ID)
	switch {
	case err == nil:
		info.LiveSessionID = &live.ID
	case !errors.Is(err, store.ErrNotFound):
		return nil, err
	}
	return info, nil
}
