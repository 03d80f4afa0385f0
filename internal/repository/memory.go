package repository

import (
	"context"
	"sync"
	"time"

	"fairway/internal/models"
)

type memorySessionEntry struct {
	session   *models.BookingSession
	expiresAt time.Time
}

// MemorySessionRepository keeps booking sessions in process memory. Used as
// the failover target when Redis is down and in tests.
type MemorySessionRepository struct {
	sessions sync.Map
	ttl      time.Duration
}

func NewMemorySessionRepository(ttl time.Duration) *MemorySessionRepository {
	return &MemorySessionRepository{ttl: ttl}
}

func (r *MemorySessionRepository) GetSession(ctx context.Context, sessionID string) (*models.BookingSession, error) {
	val, ok := r.sessions.Load(sessionID)
	if !ok {
		return nil, nil
	}

	entry := val.(*memorySessionEntry)
	if r.ttl > 0 && time.Now().After(entry.expiresAt) {
		r.sessions.Delete(sessionID)
		return nil, nil
	}
	return entry.session, nil
}

func (r *MemorySessionRepository) SaveSession(ctx context.Context, session *models.BookingSession) error {
	r.sessions.Store(session.SessionID, &memorySessionEntry{
		session:   session,
		expiresAt: time.Now().Add(r.ttl),
	})
	return nil
}

func (r *MemorySessionRepository) DeleteSession(ctx context.Context, sessionID string) error {
	r.sessions.Delete(sessionID)
	return nil
}
