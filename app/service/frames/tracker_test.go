package frames

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func utteranceAt(act DialogueAct, ts time.Time) UserUtterance {
	return UserUtterance{Act: act, Timestamp: ts}
}

func TestHandleInformConsistent(t *testing.T) {
	t.Parallel()

	tracker := &RuleBasedFrameTracker{}
	slots := framedSlotMap(map[string]any{"city": "NYC"})
	state := &DialogueState{Slots: slots, FrameSet: NewFrameSet(slots, baseTime)}

	require.NoError(t, tracker.UpdateFrames(state, utteranceAt(ActInform, baseTime.Add(time.Minute))))

	assert.Equal(t, 1, state.FrameSet.Len())
	assert.Equal(t, 0, state.FrameSet.ActiveIndex())
}

func TestHandleInformTopicShift(t *testing.T) {
	t.Parallel()

	tracker := &RuleBasedFrameTracker{}
	state := &DialogueState{
		Slots:    framedSlotMap(map[string]any{"city": "NYC"}),
		FrameSet: NewFrameSet(framedSlotMap(map[string]any{"city": "NYC"}), baseTime),
	}

	state.Slots["city"] = Slot{Name: "city", Value: "LA", FrameSlot: true}

	shiftAt := baseTime.Add(time.Minute)
	require.NoError(t, tracker.UpdateFrames(state, utteranceAt(ActInform, shiftAt)))

	require.Equal(t, 2, state.FrameSet.Len())
	assert.Equal(t, 1, state.FrameSet.ActiveIndex())

	current, err := state.FrameSet.CurrentFrame()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"city": "LA"}, current.Slots)
	assert.Equal(t, shiftAt, current.Created)
	assert.Equal(t, shiftAt, current.LastActive)
}

func TestHandleInformNewSlotIsConflict(t *testing.T) {
	t.Parallel()

	tracker := &RuleBasedFrameTracker{}
	state := &DialogueState{
		Slots:    framedSlotMap(map[string]any{"city": "NYC"}),
		FrameSet: NewFrameSet(framedSlotMap(map[string]any{"city": "NYC"}), baseTime),
	}

	// a value the current frame has never seen counts as a change
	state.Slots["price"] = Slot{Name: "price", Value: "low", FrameSlot: true}

	require.NoError(t, tracker.UpdateFrames(state, utteranceAt(ActInform, baseTime.Add(time.Minute))))

	require.Equal(t, 2, state.FrameSet.Len())
	assert.Equal(t, 1, state.FrameSet.ActiveIndex())
}

func TestHandleInformZeroFramedSlots(t *testing.T) {
	t.Parallel()

	tracker := &RuleBasedFrameTracker{}
	state := &DialogueState{
		Slots:    map[string]Slot{"request": {Name: "request", Value: "book", FrameSlot: false}},
		FrameSet: NewFrameSet(map[string]Slot{}, baseTime),
	}

	require.NoError(t, tracker.UpdateFrames(state, utteranceAt(ActInform, baseTime.Add(time.Minute))))

	assert.Equal(t, 1, state.FrameSet.Len())
}

func TestHandleSwitchFrameExactMatch(t *testing.T) {
	t.Parallel()

	tracker := &RuleBasedFrameTracker{}
	state := &DialogueState{
		Slots:    framedSlotMap(map[string]any{"city": "NYC"}),
		FrameSet: NewFrameSet(framedSlotMap(map[string]any{"city": "NYC"}), baseTime),
	}
	state.FrameSet.AddFrame(framedSlotMap(map[string]any{"city": "LA"}), baseTime.Add(time.Minute), false)

	state.Slots["city"] = Slot{Name: "city", Value: "LA", FrameSlot: true}

	switchAt := baseTime.Add(2 * time.Minute)
	require.NoError(t, tracker.UpdateFrames(state, utteranceAt(ActSwitchFrame, switchAt)))

	assert.Equal(t, 1, state.FrameSet.ActiveIndex())

	activated, err := state.FrameSet.Frame(1)
	require.NoError(t, err)
	assert.Equal(t, switchAt, activated.LastActive)
}

func TestHandleSwitchFrameNoFullMatchFallsBackToRecency(t *testing.T) {
	t.Parallel()

	tracker := &RuleBasedFrameTracker{}
	state := &DialogueState{
		Slots:    framedSlotMap(map[string]any{"city": "NYC", "price": "low"}),
		FrameSet: NewFrameSet(framedSlotMap(map[string]any{"city": "NYC", "price": "low"}), baseTime),
	}
	state.FrameSet.AddFrame(framedSlotMap(map[string]any{"city": "LA", "price": "high"}), baseTime.Add(time.Minute), false)

	// matches frame 1 on city only, neither frame fully
	state.Slots["city"] = Slot{Name: "city", Value: "LA", FrameSlot: true}

	switchAt := baseTime.Add(2 * time.Minute)
	require.NoError(t, tracker.UpdateFrames(state, utteranceAt(ActSwitchFrame, switchAt)))

	// frame 0 is the only frame ever activated, so recency keeps it
	assert.Equal(t, 0, state.FrameSet.ActiveIndex())
}

func TestHandleSwitchFrameZeroFramedSlotsFallsBackToRecency(t *testing.T) {
	t.Parallel()

	tracker := &RuleBasedFrameTracker{}
	state := &DialogueState{
		Slots:    map[string]Slot{},
		FrameSet: NewFrameSet(framedSlotMap(map[string]any{"city": "NYC"}), baseTime),
	}
	// created with switchTo, so frame 1 carries the freshest LastActive
	// while frame 0 is still the active one
	state.FrameSet.AddFrame(framedSlotMap(map[string]any{"city": "LA"}), baseTime.Add(time.Minute), true)

	switchAt := baseTime.Add(3 * time.Minute)
	require.NoError(t, tracker.UpdateFrames(state, utteranceAt(ActSwitchFrame, switchAt)))

	assert.Equal(t, 1, state.FrameSet.ActiveIndex())
}

func TestHandleActWithRefSingleFullMatch(t *testing.T) {
	t.Parallel()

	tracker := &RuleBasedFrameTracker{}
	state := &DialogueState{
		Slots:    framedSlotMap(map[string]any{"city": "LA"}),
		FrameSet: NewFrameSet(framedSlotMap(map[string]any{"city": "NYC"}), baseTime),
	}
	state.FrameSet.AddFrame(framedSlotMap(map[string]any{"city": "LA"}), baseTime.Add(time.Minute), false)

	require.NoError(t, tracker.UpdateFrames(state, utteranceAt(ActConfirm, baseTime.Add(2*time.Minute))))

	current, err := state.FrameSet.CurrentFrame()
	require.NoError(t, err)
	require.NotNil(t, current.Ref)
	assert.Equal(t, 1, *current.Ref)
}

func TestHandleActWithRefTieGoesToNewestFrame(t *testing.T) {
	t.Parallel()

	tracker := &RuleBasedFrameTracker{}
	state := &DialogueState{
		Slots:    framedSlotMap(map[string]any{"city": "LA"}),
		FrameSet: NewFrameSet(framedSlotMap(map[string]any{"city": "NYC"}), baseTime),
	}
	state.FrameSet.AddFrame(framedSlotMap(map[string]any{"city": "LA"}), baseTime.Add(time.Minute), false)
	state.FrameSet.AddFrame(framedSlotMap(map[string]any{"city": "LA"}), baseTime.Add(2*time.Minute), false)

	require.NoError(t, tracker.UpdateFrames(state, utteranceAt(ActOffer, baseTime.Add(3*time.Minute))))

	current, err := state.FrameSet.CurrentFrame()
	require.NoError(t, err)
	require.NotNil(t, current.Ref)
	assert.Equal(t, 2, *current.Ref)
}

func TestHandleActWithRefNoFullMatchSelfReference(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		slots map[string]Slot
	}{
		{
			name:  "partial match only",
			slots: framedSlotMap(map[string]any{"city": "LA", "price": "low"}),
		},
		{
			name:  "zero framed slots",
			slots: map[string]Slot{},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			tracker := &RuleBasedFrameTracker{}
			state := &DialogueState{
				Slots:    tc.slots,
				FrameSet: NewFrameSet(framedSlotMap(map[string]any{"city": "NYC"}), baseTime),
			}
			state.FrameSet.AddFrame(framedSlotMap(map[string]any{"city": "LA", "price": "high"}), baseTime.Add(time.Minute), false)

			require.NoError(t, tracker.UpdateFrames(state, utteranceAt(ActRequestCompare, baseTime.Add(2*time.Minute))))

			current, err := state.FrameSet.CurrentFrame()
			require.NoError(t, err)
			require.NotNil(t, current.Ref)
			assert.Equal(t, current.Index, *current.Ref)
		})
	}
}

func TestDefaultActSyncsCurrentFrame(t *testing.T) {
	t.Parallel()

	tracker := &RuleBasedFrameTracker{}
	state := &DialogueState{
		Slots:    framedSlotMap(map[string]any{"city": "NYC"}),
		FrameSet: NewFrameSet(framedSlotMap(map[string]any{"city": "NYC"}), baseTime),
	}

	state.Slots["city"] = Slot{Name: "city", Value: "LA", FrameSlot: true}
	state.Slots["price"] = Slot{Name: "price", Value: "low", FrameSlot: true}

	require.NoError(t, tracker.UpdateFrames(state, utteranceAt("greet", baseTime.Add(time.Minute))))

	assert.Equal(t, 1, state.FrameSet.Len())

	current, err := state.FrameSet.CurrentFrame()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"city": "LA", "price": "low"}, current.Slots)
}

func TestUpdateFramesAfterReset(t *testing.T) {
	t.Parallel()

	tracker := &RuleBasedFrameTracker{}
	state := &DialogueState{
		Slots:    framedSlotMap(map[string]any{"city": "NYC"}),
		FrameSet: NewFrameSet(framedSlotMap(map[string]any{"city": "NYC"}), baseTime),
	}
	state.FrameSet.Reset()

	for _, act := range []DialogueAct{ActInform, ActSwitchFrame, ActConfirm, "greet"} {
		err := tracker.UpdateFrames(state, utteranceAt(act, baseTime.Add(time.Minute)))
		assert.ErrorIs(t, err, ErrNoActiveFrame, "act %s", act)
	}
}
