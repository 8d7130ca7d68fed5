package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"framewise/app/config"

	"github.com/samber/do"
)

const sweepInterval = time.Minute

var ErrNotFound = errors.New("session not found")

// Service is the in-memory session store keyed by session ID.
type Service struct {
	cfg *config.Config

	mu       sync.RWMutex
	sessions map[string]*Session
}

func New(di *do.Injector) (*Service, error) {
	return &Service{
		cfg:      do.MustInvoke[*config.Config](di),
		sessions: make(map[string]*Session),
	}, nil
}

// GetOrCreate returns the session for id, creating it with the
// configured slot schema on first use.
func (s *Service) GetOrCreate(id string) *Session {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()

	if ok {
		return sess
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok = s.sessions[id]; ok {
		return sess
	}

	sess = newSession(id, s.cfg.Slots, time.Now())
	s.sessions[id] = sess

	slog.Info("Session created", "session_id", id)

	return sess
}

func (s *Service) Get(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}

	return sess, nil
}

// Remove resets the session's frame set and drops it from the store.
func (s *Service) Remove(id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if !ok {
		return ErrNotFound
	}

	sess.reset()

	slog.Info("Session removed", "session_id", id)

	return nil
}

func (s *Service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.sessions)
}

// RunSweeper drops sessions idle longer than the configured TTL.
func (s *Service) RunSweeper(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(time.Now())
		}
	}
}

func (s *Service) sweep(now time.Time) {
	var expired []*Session

	s.mu.Lock()
	for id, sess := range s.sessions {
		if now.Sub(sess.idleSince()) > time.Duration(s.cfg.Session.TTL) {
			delete(s.sessions, id)
			expired = append(expired, sess)
		}
	}
	s.mu.Unlock()

	for _, sess := range expired {
		sess.reset()
		slog.Info("Session expired", "session_id", sess.ID())
	}
}
