package agenttools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"framewise/app/service/engine"
	"framewise/app/service/session"

	"github.com/samber/do"
	"github.com/tmc/langchaingo/tools"
)

// Engine processes one utterance against a session.
type Engine interface {
	ProcessUtterance(ctx context.Context, sessionID, text string) (session.Snapshot, error)
}

// Sessions is the subset of the session store the tools need.
type Sessions interface {
	Get(id string) (*session.Session, error)
	Remove(id string) error
}

// Service exposes the dialogue tracker as a set of tools usable by
// LLM agents, both as langchaingo tools and over MCP.
type Service struct {
	engine   Engine
	sessions Sessions
}

func New(di *do.Injector) (*Service, error) {
	return &Service{
		engine:   do.MustInvoke[*engine.Service](di),
		sessions: do.MustInvoke[*session.Service](di),
	}, nil
}

type agentTool struct {
	name        string
	description string
	call        func(ctx context.Context, input string) (string, error)
}

func (m *agentTool) Name() string {
	return m.name
}

func (m *agentTool) Description() string {
	return m.description
}

func (m *agentTool) Call(ctx context.Context, input string) (string, error) {
	return m.call(ctx, input)
}

type trackRequest struct {
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
}

func (s *Service) Tools() []tools.Tool {
	return []tools.Tool{
		&agentTool{
			name:        "dialogue_track",
			description: "Track one user utterance in a dialogue session and return the updated frame state. Input must be a JSON object with session_id (string) and text (string) fields.",
			call: func(ctx context.Context, input string) (string, error) {
				var req trackRequest
				if err := json.Unmarshal([]byte(input), &req); err != nil {
					return "", fmt.Errorf("invalid request JSON: %w", err)
				}

				if req.SessionID == "" || req.Text == "" {
					return "", fmt.Errorf("session_id and text are required")
				}

				snapshot, err := s.engine.ProcessUtterance(ctx, req.SessionID, req.Text)
				if err != nil {
					return "", err
				}

				return marshalSnapshot(snapshot)
			},
		},
		&agentTool{
			name:        "dialogue_frames",
			description: "Return the frames of a dialogue session: slot values per frame, the active frame index and any cross-frame references. Input is the session id.",
			call: func(_ context.Context, input string) (string, error) {
				sess, err := s.sessions.Get(strings.TrimSpace(input))
				if err != nil {
					return "", err
				}

				return marshalSnapshot(sess.Snapshot())
			},
		},
		&agentTool{
			name:        "dialogue_reset",
			description: "End a dialogue session and discard its frames. Input is the session id.",
			call: func(_ context.Context, input string) (string, error) {
				if err := s.sessions.Remove(strings.TrimSpace(input)); err != nil {
					return "", err
				}

				return "ok", nil
			},
		},
	}
}

func marshalSnapshot(snapshot session.Snapshot) (string, error) {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return "", fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	return string(data), nil
}
