package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	RoomCodeLen    = 8
	MaxRoomNameLen = 255
)

var ErrRoomNameEmpty = fmt.Errorf("%w: room name empty", ErrInvalidInput)

type Room struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Name       string    `json:"name" gorm:"size:255;not null"`
	UniqueCode string    `json:"unique_code" gorm:"size:16;uniqueIndex;not null"`
	OwnerID    uuid.UUID `json:"owner_id" gorm:"type:uuid;index;not null"`
	IsPrivate  bool      `json:"is_private" gorm:"not null;default:false"`
	CreatedAt  time.Time `json:"created_at"`
}

func (Room) TableName() string { return "rooms" }

func NewRoom(owner uuid.UUID, name string, private bool, now time.Time) (*Room, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrRoomNameEmpty
	}
	if utf8.RuneCountInString(name) > MaxRoomNameLen {
		name = string([]rune(name)[:MaxRoomNameLen])
	}
	return &Room{
		ID:         uuid.New(),
		Name:       name,
		UniqueCode: NewRoomCode(),
		OwnerID:    owner,
		IsPrivate:  private,
		CreatedAt:  now,
	}, nil
}

// NewInstantRoom names a private room after its owner.
func NewInstantRoom(owner Identity, now time.Time) *Room {
	r, _ := NewRoom(owner.UserID, owner.FullName+"'s Instant Meeting", true, now)
	return r
}

// NewRoomCode returns a short shareable join code.
func NewRoomCode() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(raw[:RoomCodeLen])
}

func (r *Room) OwnedBy(id uuid.UUID) bool { return r.OwnerID == id }
