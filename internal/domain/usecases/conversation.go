package usecases

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/0xcro3dile/staffassist/internal/domain/entities"
	"github.com/0xcro3dile/staffassist/internal/domain/ports"
)

// ConversationStore appends exchanges to per-session logs.
type ConversationStore struct {
	sessions ports.SessionStore
	logger   *zap.Logger
	now      func() time.Time
	locks    sessionLocks
}

// NewConversationStore creates a ConversationStore. A nil clock uses time.Now.
func NewConversationStore(sessions ports.SessionStore, logger *zap.Logger, now func() time.Time) *ConversationStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	return &ConversationStore{
		sessions: sessions,
		logger:   logger,
		now:      now,
		locks:    sessionLocks{m: make(map[string]*sessionLock)},
	}
}

// Append records one exchange. Failures are logged and swallowed: the
// response has already been computed by the time the log is written.
func (c *ConversationStore) Append(ctx context.Context, sessionID, askerID, message string, response entities.ResponseEnvelope) {
	unlock := c.locks.lock(sessionID)
	defer unlock()

	log, err := c.sessions.SessionLog(ctx, sessionID)
	if err != nil {
		c.logger.Error("reading session log failed", zap.String("session", sessionID), zap.Error(err))
		return
	}

	updated := make([]entities.Exchange, 0, len(log)+1)
	updated = append(updated, log...)
	updated = append(updated, entities.Exchange{
		Timestamp:         c.now().UTC(),
		UserMessage:       message,
		AssistantResponse: response,
		Type:              entities.ExchangeType,
	})

	if err := c.sessions.UpsertSessionLog(ctx, sessionID, askerID, updated); err != nil {
		c.logger.Error("storing conversation failed", zap.String("session", sessionID), zap.Error(err))
		return
	}
	c.logger.Debug("conversation stored", zap.String("session", sessionID), zap.Int("exchanges", len(updated)))
}

// History returns the exchanges recorded for a session.
func (c *ConversationStore) History(ctx context.Context, sessionID string) ([]entities.Exchange, error) {
	return c.sessions.SessionLog(ctx, sessionID)
}

// sessionLocks serializes read-modify-write cycles per session within
// this process. Entries are dropped once no caller holds them.
type sessionLocks struct {
	mu sync.Mutex
	m  map[string]*sessionLock
}

type sessionLock struct {
	sync.Mutex
	refs int
}

func (s *sessionLocks) lock(id string) func() {
	s.mu.Lock()
	l, ok := s.m[id]
	if !ok {
		l = &sessionLock{}
		s.m[id] = l
	}
	l.refs++
	s.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.m, id)
		}
		s.mu.Unlock()
	}
}
