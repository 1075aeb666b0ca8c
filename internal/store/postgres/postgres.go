// Package postgres implements store.Store on PostgreSQL through gorm.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dkeye/OneVoice/internal/domain"
	"github.com/dkeye/OneVoice/internal/store"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

type Store struct {
	sqlDB *sql.DB
	db    *gorm.DB
}

var _ store.Store = (*Store)(nil)

// Open connects with lib/pq and hands the pool to gorm.
func Open(dsn string, debug bool) (*Store, error) {
	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	level := logger.Warn
	if debug {
		level = logger.Info
	}
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("init gorm: %w", err)
	}
	return &Store{sqlDB: sqlDB, db: db}, nil
}

func (s *Store) Ping(ctx context.Context) error { return s.sqlDB.PingContext(ctx) }

func (s *Store) Close() error { return s.sqlDB.Close() }

// Migrate creates or updates the schema.
func (s *Store) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(
		&domain.Room{},
		&domain.Session{},
		&domain.Participant{},
		&domain.ChatMessage{},
	)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return store.ErrNotFound
	}
	return err
}

func (s *Store) CreateRoom(ctx context.Context, r *domain.Room) error {
	return s.db.WithContext(ctx).Create(r).Error
}

func (s *Store) GetRoom(ctx context.Context, id uuid.UUID) (*domain.Room, error) {
	room := &domain.Room{}
	if err := s.db.WithContext(ctx).First(room, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return room, nil
}

func (s *Store) GetRoomByCode(ctx context.Context, code string) (*domain.Room, error) {
	room := &domain.Room{}
	if err := s.db.WithContext(ctx).First(room, "unique_code = ?", code).Error; err != nil {
		return nil, notFound(err)
	}
	return room, nil
}

func (s *Store) ListRoomsByOwner(ctx context.Context, owner uuid.UUID) ([]domain.Room, error) {
	var rooms []domain.Room
	err := s.db.WithContext(ctx).Where("owner_id = ?", owner).Order("created_at ASC").Find(&rooms).Error
	return rooms, err
}

func (s *Store) DeleteRoom(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Delete(&domain.Room{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) CreateSession(ctx context.Context, sess *domain.Session, host *domain.Participant) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(sess).Error; err != nil {
			return err
		}
		if host != nil {
			return tx.Create(host).Error
		}
		return nil
	})
}

func (s *Store) GetSession(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	sess := &domain.Session{}
	if err := s.db.WithContext(ctx).First(sess, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return sess, nil
}

func (s *Store) FindLiveSession(ctx context.Context, roomID uuid.UUID) (*domain.Session, error) {
	sess := &domain.Session{}
	err := s.db.WithContext(ctx).
		Where("room_id = ? AND status = ?", roomID, domain.SessionLive).
		Order("created_at DESC").
		First(sess).Error
	if err != nil {
		return nil, notFound(err)
	}
	return sess, nil
}

func (s *Store) ListSessionsByRoom(ctx context.Context, roomID uuid.UUID) ([]domain.Session, error) {
	var out []domain.Session
	err := s.db.WithContext(ctx).Where("room_id = ?", roomID).Order("created_at DESC").Find(&out).Error
	return out, err
}

func (s *Store) ListScheduledHostedBy(ctx context.Context, user uuid.UUID) ([]domain.Session, error) {
	var out []domain.Session
	err := s.db.WithContext(ctx).
		Joins("JOIN rooms ON rooms.id = sessions.room_id").
		Where("rooms.owner_id = ? AND sessions.status = ?", user, domain.SessionScheduled).
		Order("sessions.scheduled_start_time ASC").
		Find(&out).Error
	return out, err
}

func (s *Store) ListActiveParticipants(ctx context.Context, sessionID uuid.UUID) ([]domain.Participant, error) {
	var out []domain.Participant
	err := s.db.WithContext(ctx).
		Where("session_id = ? AND leave_time IS NULL", sessionID).
		Order("join_time ASC").
		Find(&out).Error
	return out, err
}

func (s *Store) GetParticipant(ctx context.Context, sessionID, userID uuid.UUID) (*domain.Participant, error) {
	p := &domain.Participant{}
	err := s.db.WithContext(ctx).First(p, "session_id = ? AND user_id = ?", sessionID, userID).Error
	if err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

func (s *Store) CreateChatMessage(ctx context.Context, m *domain.ChatMessage) error {
	return s.db.WithContext(ctx).Create(m).Error
}

func (s *Store) ListChatMessages(ctx context.Context, sessionID uuid.UUID) ([]domain.ChatMessage, error) {
	var out []domain.ChatMessage
	err := s.db.WithContext(ctx).Where("session_id = ?", sessionID).Order("created_at ASC").Find(&out).Error
	return out, err
}

// WithSession holds SELECT ... FOR UPDATE on the session row for the whole
// callback, so concurrent joins and share toggles on one session serialise.
func (s *Store) WithSession(ctx context.Context, id uuid.UUID, fn func(tx store.SessionTx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sess := &domain.Session{}
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(sess, "id = ?", id).Error
		if err != nil {
			return notFound(err)
		}
		return fn(&sessionTx{db: tx, session: sess})
	})
}

type sessionTx struct {
	db      *gorm.DB
	session *domain.Session
}

func (t *sessionTx) Session() *domain.Session {
	cp := *t.session
	return &cp
}

func (t *sessionTx) SaveSession(s *domain.Session) error {
	if err := t.db.Save(s).Error; err != nil {
		return err
	}
	cp := *s
	t.session = &cp
	return nil
}

func (t *sessionTx) Participant(userID uuid.UUID) (*domain.Participant, error) {
	p := &domain.Participant{}
	err := t.db.First(p, "session_id = ? AND user_id = ?", t.session.ID, userID).Error
	if err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

func (t *sessionTx) CountActive() (int, error) {
	var n int64
	err := t.db.Model(&domain.Participant{}).
		Where("session_id = ? AND leave_time IS NULL", t.session.ID).
		Count(&n).Error
	return int(n), err
}

func (t *sessionTx) SaveParticipant(p *domain.Participant) error {
	return t.db.Save(p).Error
}

func (t *sessionTx) ClearScreenShare() error {
	return t.db.Model(&domain.Participant{}).
		Where("session_id = ? AND is_sharing_screen = ?", t.session.ID, true).
		Update("is_sharing_screen", false).Error
}
