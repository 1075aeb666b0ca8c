package domain

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleHost        Role = "HOST"
	RoleModerator   Role = "MODERATOR"
	RoleParticipant Role = "PARTICIPANT"
)

// Participant records a user's membership in a session. A row is active
// while LeaveTime is nil; at most one row exists per (session, user).
type Participant struct {
	SessionID       uuid.UUID  `json:"session_id" gorm:"type:uuid;primaryKey"`
	UserID          uuid.UUID  `json:"user_id" gorm:"type:uuid;primaryKey"`
	FullName        string     `json:"full_name" gorm:"size:255"`
	Role            Role       `json:"role" gorm:"type:varchar(16);not null"`
	JoinTime        time.Time  `json:"join_time"`
	LeaveTime       *time.Time `json:"leave_time"`
	IsSharingScreen bool       `json:"is_sharing_screen" gorm:"not null;default:false"`
}

func (Participant) TableName() string { return "session_participants" }

// ElectRole picks the role of a newcomer given how many are already active.
func ElectRole(active int) Role {
	if active == 0 {
		return RoleHost
	}
	return RoleParticipant
}

func NewParticipant(sessionID uuid.UUID, who Identity, role Role, now time.Time) *Participant {
	return &Participant{
		SessionID: sessionID,
		UserID:    who.UserID,
		FullName:  who.FullName,
		Role:      role,
		JoinTime:  now,
	}
}

func (p *Participant) Active() bool { return p.LeaveTime == nil }

// Leave stamps the leave time once. It reports whether anything changed.
func (p *Participant) Leave(now time.Time) bool {
	if !p.Active() {
		return false
	}
	t := now
	p.LeaveTime = &t
	p.IsSharingScreen = false
	return true
}

// Rejoin reactivates a departed row and re-runs the election: a returner
// into an empty session becomes host, a former host returning to an
// occupied session comes back as a participant. Moderators stay moderators
// while anyone else is active.
func (p *Participant) Rejoin(who Identity, active int, now time.Time) {
	p.LeaveTime = nil
	p.JoinTime = now
	p.IsSharingScreen = false
	if who.FullName != "" {
		p.FullName = who.FullName
	}
	switch {
	case active == 0:
		p.Role = RoleHost
	case p.Role == RoleHost:
		p.Role = ElectRole(active)
	}
}

// Promote raises a participant to moderator. Hosts keep their role.
func (p *Participant) Promote() {
	if p.Role == RoleHost {
		return
	}
	p.Role = RoleModerator
}
