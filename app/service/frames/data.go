package frames

import "time"

// Slot is the tracker-facing view of a single dialogue slot. Only the
// value and the frame participation flag are read here; typing and
// extraction live upstream.
type Slot struct {
	Name      string
	Value     any
	FrameSlot bool
}

type DialogueAct string

const (
	ActInform         DialogueAct = "inform"
	ActSwitchFrame    DialogueAct = "switch_frame"
	ActAffirm         DialogueAct = "affirm"
	ActCanthelp       DialogueAct = "canthelp"
	ActConfirm        DialogueAct = "confirm"
	ActHearmore       DialogueAct = "hearmore"
	ActMoreinfo       DialogueAct = "moreinfo"
	ActNegate         DialogueAct = "negate"
	ActNoResult       DialogueAct = "no_result"
	ActOffer          DialogueAct = "offer"
	ActRequest        DialogueAct = "request"
	ActRequestCompare DialogueAct = "request_compare"
	ActSuggest        DialogueAct = "suggest"
)

type Entity struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// UserUtterance is one parsed user turn.
type UserUtterance struct {
	Text      string
	Act       DialogueAct
	Entities  []Entity
	Timestamp time.Time
}

// DialogueState is the mutable per-session state handed to the tracker:
// the live slot mapping and the frame set it owns. Callers must
// serialize turns against the same state.
type DialogueState struct {
	Slots    map[string]Slot
	FrameSet *FrameSet
}

// FramedSlots projects a slot mapping down to the slots that partition
// frames: frame slots with a present value. Every frame and every match
// computation operates on this normalized view.
func FramedSlots(slots map[string]Slot) map[string]any {
	framed := make(map[string]any, len(slots))

	for name, slot := range slots {
		if slot.FrameSlot && slot.Value != nil {
			framed[name] = slot.Value
		}
	}

	return framed
}
