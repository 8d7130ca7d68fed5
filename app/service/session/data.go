package session

import (
	"fmt"
	"strings"
	"time"

	"framewise/app/service/frames"
)

const turnHistorySize = 20

type Turn struct {
	Role      string
	Text      string
	Act       frames.DialogueAct
	Timestamp time.Time
}

// TurnHistory keeps the most recent turns of a session for the NLU
// prompt context.
type TurnHistory struct {
	turns []Turn
}

func (h *TurnHistory) add(turn Turn) {
	if len(h.turns) >= turnHistorySize {
		h.turns = append(h.turns[1:], turn)
	} else {
		h.turns = append(h.turns, turn)
	}
}

func (h *TurnHistory) format() string {
	if len(h.turns) == 0 {
		return "No previous turns"
	}

	var builder strings.Builder

	for _, turn := range h.turns {
		builder.WriteString(fmt.Sprintf("%s - %s: %s", turn.Timestamp.Format("15:04:05"), turn.Role, turn.Text))
		if turn.Act != "" {
			builder.WriteString(fmt.Sprintf(" [%s]", turn.Act))
		}
		builder.WriteString("\n")
	}

	return builder.String()
}

// Snapshot is the read-only view of a session handed to the API and
// tool surfaces.
type Snapshot struct {
	ID          string         `json:"id"`
	Slots       map[string]any `json:"slots"`
	ActiveFrame int            `json:"active_frame"`
	Frames      []FrameView    `json:"frames"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

type FrameView struct {
	Index      int            `json:"index"`
	Slots      map[string]any `json:"slots"`
	Created    time.Time      `json:"created"`
	LastActive *time.Time     `json:"last_active,omitempty"`
	Ref        *int           `json:"ref,omitempty"`
}
