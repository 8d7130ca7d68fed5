package session

import (
	"maps"
	"sync"
	"time"

	"framewise/app/config"
	"framewise/app/service/frames"
)

// Session owns the dialogue state of one conversation: the live slot
// mapping, the frame set and the recent turn history. All access goes
// through the mutex so turns against the same session are serialized.
type Session struct {
	id string

	mu        sync.Mutex
	slots     map[string]frames.Slot
	frameSet  *frames.FrameSet
	history   TurnHistory
	updatedAt time.Time
}

func newSession(id string, defs []config.Slot, now time.Time) *Session {
	slots := make(map[string]frames.Slot, len(defs))
	for _, def := range defs {
		slots[def.Name] = frames.Slot{Name: def.Name, FrameSlot: def.FrameSlot}
	}

	return &Session{
		id:        id,
		slots:     slots,
		frameSet:  frames.NewFrameSet(slots, now),
		updatedAt: now,
	}
}

func (s *Session) ID() string {
	return s.id
}

// Update runs one turn against the session's dialogue state under the
// session lock.
func (s *Session) Update(fn func(state *frames.DialogueState) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := fn(&frames.DialogueState{Slots: s.slots, FrameSet: s.frameSet}); err != nil {
		return err
	}

	s.updatedAt = time.Now()

	return nil
}

func (s *Session) AddTurn(turn Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history.add(turn)
}

func (s *Session) HistoryText() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.history.format()
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	slots := make(map[string]any)
	for name, slot := range s.slots {
		if slot.Value != nil {
			slots[name] = slot.Value
		}
	}

	views := make([]FrameView, 0, s.frameSet.Len())
	for _, frame := range s.frameSet.Frames() {
		view := FrameView{
			Index:   frame.Index,
			Slots:   maps.Clone(frame.Slots),
			Created: frame.Created,
			Ref:     frame.Ref,
		}

		if !frame.LastActive.IsZero() {
			lastActive := frame.LastActive
			view.LastActive = &lastActive
		}

		views = append(views, view)
	}

	return Snapshot{
		ID:          s.id,
		Slots:       slots,
		ActiveFrame: s.frameSet.ActiveIndex(),
		Frames:      views,
		UpdatedAt:   s.updatedAt,
	}
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.updatedAt
}

// reset clears the frame set at the session boundary.
func (s *Session) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.frameSet.Reset()
}
