package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"framewise/app/config"
	"framewise/app/service/frames"
	"framewise/app/service/nlu"
	"framewise/app/service/queue"
	"framewise/app/service/session"
	"framewise/app/service/transcript"

	"github.com/samber/do"
)

// Parser produces a dialogue act and entities for raw utterance text.
type Parser interface {
	Parse(ctx context.Context, text, history string) (*nlu.Result, error)
}

// Recorder persists processed turns.
type Recorder interface {
	Append(record transcript.Record) error
}

// Service runs the per-turn dialogue loop: parse the utterance, fill
// slot values, let the frame tracker decide what happens to the frame
// set, record the turn.
type Service struct {
	cfg        *config.Config
	sessionSvc *session.Service
	parser     Parser
	queueSvc   *queue.Service
	recorder   Recorder

	tracker frames.RuleBasedFrameTracker
}

func New(di *do.Injector) (*Service, error) {
	return &Service{
		cfg:        do.MustInvoke[*config.Config](di),
		sessionSvc: do.MustInvoke[*session.Service](di),
		parser:     do.MustInvoke[*nlu.Service](di),
		queueSvc:   do.MustInvoke[*queue.Service](di),
		recorder:   do.MustInvoke[*transcript.Service](di),
	}, nil
}

// Run consumes the utterance queue until the context is cancelled or
// the queue is closed.
func (s *Service) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-s.queueSvc.Channel():
			if !ok {
				return
			}

			start := time.Now()
			if _, err := s.ProcessUtterance(ctx, msg.SessionID, msg.Text); err != nil {
				slog.Warn("ProcessUtterance error",
					"session_id", msg.SessionID,
					"error", err,
				)
				continue
			}

			slog.Info("Processed utterance",
				"session_id", msg.SessionID,
				"text", msg.Text,
				"duration", time.Since(start))
		}
	}
}

// ProcessUtterance runs one user turn against the session's dialogue
// state and returns the resulting snapshot. Turns on the same session
// are serialized by the session lock.
func (s *Service) ProcessUtterance(ctx context.Context, sessionID, text string) (session.Snapshot, error) {
	sess := s.sessionSvc.GetOrCreate(sessionID)

	parsed, err := s.parser.Parse(ctx, text, sess.HistoryText())
	if err != nil {
		return session.Snapshot{}, fmt.Errorf("parser.Parse: %w", err)
	}

	act := frames.DialogueAct(parsed.Act)
	if parsed.Confidence < s.cfg.NLU.MinConfidence {
		slog.Debug("Low parse confidence, treating as plain turn",
			"session_id", sessionID,
			"act", parsed.Act,
			"confidence", parsed.Confidence,
		)
		act = ""
	}

	utterance := frames.UserUtterance{
		Text:      text,
		Act:       act,
		Entities:  parsed.Entities,
		Timestamp: time.Now(),
	}

	err = sess.Update(func(state *frames.DialogueState) error {
		fillSlots(state.Slots, utterance.Entities)

		return s.tracker.UpdateFrames(state, utterance)
	})
	if err != nil {
		return session.Snapshot{}, fmt.Errorf("tracker.UpdateFrames: %w", err)
	}

	sess.AddTurn(session.Turn{
		Role:      "user",
		Text:      text,
		Act:       act,
		Timestamp: utterance.Timestamp,
	})

	snapshot := sess.Snapshot()

	if err = s.recorder.Append(transcript.Record{
		SessionID:   sessionID,
		Text:        text,
		Act:         string(act),
		Entities:    utterance.Entities,
		ActiveFrame: snapshot.ActiveFrame,
		FrameCount:  len(snapshot.Frames),
		Timestamp:   utterance.Timestamp,
	}); err != nil {
		slog.Warn("Failed to record turn", "session_id", sessionID, "error", err)
	}

	return snapshot, nil
}

// fillSlots writes extracted entity values into the matching schema
// slots; unknown entity names are ignored.
func fillSlots(slots map[string]frames.Slot, entities []frames.Entity) {
	for _, entity := range entities {
		slot, ok := slots[entity.Name]
		if !ok {
			continue
		}

		slot.Value = entity.Value
		slots[entity.Name] = slot
	}
}
