package queue

import (
	"log/slog"

	"github.com/samber/do"
)

const bufferSize = 64

var _ do.Shutdownable = (*Service)(nil)

// Service buffers inbound utterances for asynchronous processing by
// the engine. Messages are dropped with a warning when the buffer is
// full.
type Service struct {
	queue chan Utterance
}

type Utterance struct {
	SessionID string
	Text      string
}

func New(_ *do.Injector) (*Service, error) {
	return &Service{
		queue: make(chan Utterance, bufferSize),
	}, nil
}

func (s *Service) Add(sessionID, text string) {
	defer func() {
		if r := recover(); r != nil {

		}
	}()

	select {
	case s.queue <- Utterance{sessionID, text}:
	default:
		slog.Warn("utterance queue is full", "session_id", sessionID)
	}
}

func (s *Service) Channel() <-chan Utterance {
	return s.queue
}

func (s *Service) Shutdown() error {
	close(s.queue)

	return nil
}
