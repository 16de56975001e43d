// Package session keeps one chat conversation per facilitator session.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"mentorbot/internal/chat"
)

var ErrNotFound = errors.New("session not found")

// Session is one facilitator conversation and the learner it is about.
type Session struct {
	ID      string
	Chat    *chat.Service
	Created time.Time

	mu        sync.Mutex
	learnerID string
}

func (s *Session) LearnerID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.learnerID
}

func (s *Session) SetLearner(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.learnerID = id
}

// ChatFactory builds the chat service of a new session.
type ChatFactory func(sessionID string) *chat.Service

// Manager holds sessions in a TTL cache. Idle sessions expire and their
// mentor state is dropped with them.
type Manager struct {
	sessions *cache.Cache
	newChat  ChatFactory
	ttl      time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

func NewManager(newChat ChatFactory, ttl, cleanupInterval time.Duration, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Manager{
		sessions: cache.New(ttl, cleanupInterval),
		newChat:  newChat,
		ttl:      ttl,
		logger:   logger,
		now:      time.Now,
	}
	m.sessions.OnEvicted(func(id string, v interface{}) {
		if s, ok := v.(*Session); ok {
			s.Chat.Clear()
		}
		m.logger.Debug("session closed", zap.String("session", id))
	})
	return m
}

// Create starts a session with a fresh id.
func (m *Manager) Create() *Session {
	return m.create(uuid.NewString())
}

func (m *Manager) create(id string) *Session {
	s := &Session{ID: id, Chat: m.newChat(id), Created: m.now()}
	m.sessions.Set(id, s, cache.DefaultExpiration)
	m.logger.Debug("session opened", zap.String("session", id))
	return s
}

// Get returns a live session and extends its deadline.
func (m *Manager) Get(id string) (*Session, error) {
	v, ok := m.sessions.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	s := v.(*Session)
	m.sessions.Set(id, s, cache.DefaultExpiration)
	return s, nil
}

// GetOrCreate returns the session with a caller-chosen id, such as a chat id
// of a messaging transport.
func (m *Manager) GetOrCreate(id string) *Session {
	if s, err := m.Get(id); err == nil {
		return s
	}
	s := &Session{ID: id, Chat: m.newChat(id), Created: m.now()}
	if err := m.sessions.Add(id, s, cache.DefaultExpiration); err != nil {
		// lost a race with another caller
		if existing, err := m.Get(id); err == nil {
			return existing
		}
		m.sessions.Set(id, s, cache.DefaultExpiration)
	}
	m.logger.Debug("session opened", zap.String("session", id))
	return s
}

// Drop ends a session now.
func (m *Manager) Drop(id string) {
	m.sessions.Delete(id)
}

func (m *Manager) Count() int {
	return m.sessions.ItemCount()
}
