package frames

import (
	"log/slog"

	"github.com/elliotchance/pie/v2"
)

// refActs are the dialogue acts that implicitly refer back to some
// previously discussed frame. inform and switch_frame are dispatched
// before this list is consulted.
var refActs = []DialogueAct{
	ActAffirm,
	ActCanthelp,
	ActConfirm,
	ActHearmore,
	ActMoreinfo,
	ActNegate,
	ActNoResult,
	ActOffer,
	ActRequest,
	ActRequestCompare,
	ActSuggest,
}

// RuleBasedFrameTracker decides, once per user turn, whether to update
// the active frame, spawn a new one, switch to an existing one or
// record a cross-frame reference. It is stateless; all state lives in
// the DialogueState passed in.
type RuleBasedFrameTracker struct{}

// UpdateFrames applies the frame policy for one utterance by mutating
// state's frame set in place.
func (t *RuleBasedFrameTracker) UpdateFrames(state *DialogueState, utterance UserUtterance) error {
	switch {
	case utterance.Act == ActInform:
		return t.handleInform(state, utterance)
	case utterance.Act == ActSwitchFrame:
		return t.handleSwitchFrame(state, utterance)
	case pie.Contains(refActs, utterance.Act):
		return t.handleActWithRef(state, utterance)
	default:
		return t.syncCurrentFrame(state)
	}
}

// handleInform starts a fresh frame when the utterance changes any
// framed slot value; a fully consistent inform leaves the set alone so
// history stays available for later reference. An inform with zero
// framed slots is vacuously consistent.
func (t *RuleBasedFrameTracker) handleInform(state *DialogueState, utterance UserUtterance) error {
	current, err := state.FrameSet.CurrentFrame()
	if err != nil {
		return err
	}

	projection := FramedSlots(state.Slots)

	conflict := false
	for name, value := range projection {
		if current.Value(name) != value {
			conflict = true
			break
		}
	}

	if !conflict {
		return nil
	}

	frame := state.FrameSet.AddFrame(state.Slots, utterance.Timestamp, true)

	slog.Debug("Topic shift, switching to new frame", "index", frame.Index)

	return state.FrameSet.ActivateFrame(frame.Index, utterance.Timestamp)
}

type frameMatch struct {
	index int
	count int
}

// handleSwitchFrame scans the other frames for exact matches on every
// framed slot that differs from the current frame. Only a frame whose
// match count reaches the full framed projection counts as an exact
// prior context; anything less falls back to the most recently active
// frame. An empty projection can never be fully matched, so zero
// framed slots always take the recency fallback.
func (t *RuleBasedFrameTracker) handleSwitchFrame(state *DialogueState, utterance UserUtterance) error {
	current, err := state.FrameSet.CurrentFrame()
	if err != nil {
		return err
	}

	projection := FramedSlots(state.Slots)

	counts := make(map[int]int)

	for name, value := range projection {
		if current.Value(name) == value {
			continue
		}

		for _, frame := range state.FrameSet.Frames() {
			if frame.Index == current.Index {
				continue
			}
			if frame.Value(name) == value {
				counts[frame.Index]++
			}
		}
	}

	matches := rankMatches(counts)
	if len(matches) > 0 && matches[0].count == len(projection) {
		return state.FrameSet.ActivateFrame(matches[0].index, utterance.Timestamp)
	}

	recent := pie.SortStableUsing(state.FrameSet.Frames(), func(a, b *Frame) bool {
		return a.LastActive.After(b.LastActive)
	})

	return state.FrameSet.ActivateFrame(recent[0].Index, utterance.Timestamp)
}

// handleActWithRef records which frame the utterance refers to. Only a
// frame agreeing on every framed slot qualifies; ties go to the most
// recently created candidate and the current frame references itself
// when no antecedent is found (this self-reference is the documented
// "no antecedent" marker, zero framed slots included).
func (t *RuleBasedFrameTracker) handleActWithRef(state *DialogueState, utterance UserUtterance) error {
	current, err := state.FrameSet.CurrentFrame()
	if err != nil {
		return err
	}

	projection := FramedSlots(state.Slots)
	total := len(projection)

	counts := make(map[int]int)
	for name, value := range projection {
		for _, frame := range state.FrameSet.Frames() {
			if frame.Value(name) == value {
				counts[frame.Index]++
			}
		}
	}

	var full []*Frame
	if total > 0 {
		for _, frame := range state.FrameSet.Frames() {
			if counts[frame.Index] == total {
				full = append(full, frame)
			}
		}
	}

	switch {
	case len(full) == 1:
		current.Ref = refTo(full[0].Index)
	case len(full) > 1:
		newest := pie.SortStableUsing(full, func(a, b *Frame) bool {
			return a.Created.After(b.Created)
		})
		current.Ref = refTo(newest[0].Index)
	default:
		current.Ref = refTo(current.Index)
	}

	return nil
}

// syncCurrentFrame copies the framed slot values of an ordinary turn
// into the active frame in place.
func (t *RuleBasedFrameTracker) syncCurrentFrame(state *DialogueState) error {
	current, err := state.FrameSet.CurrentFrame()
	if err != nil {
		return err
	}

	for name, value := range FramedSlots(state.Slots) {
		current.Set(name, value)
	}

	return nil
}

// rankMatches orders match counters best first, lower index winning
// ties to keep ranking deterministic.
func rankMatches(counts map[int]int) []frameMatch {
	matches := make([]frameMatch, 0, len(counts))
	for index, count := range counts {
		matches = append(matches, frameMatch{index: index, count: count})
	}

	return pie.SortStableUsing(matches, func(a, b frameMatch) bool {
		if a.count != b.count {
			return a.count > b.count
		}

		return a.index < b.index
	})
}

func refTo(index int) *int {
	return &index
}
