package frames

import (
	"errors"
	"fmt"
	"log/slog"
	"time"
)

var (
	ErrFrameIndexOutOfRange = errors.New("frame index out of range")
	ErrNoActiveFrame        = errors.New("no active frame")
)

// Frame is a snapshot of framed slot values for one conversational
// topic. Index is assigned at creation and never changes.
type Frame struct {
	Index      int
	Slots      map[string]any
	Created    time.Time
	LastActive time.Time // zero until the frame is (re)activated
	Ref        *int      // index of the referenced frame, if any
}

func newFrame(index int, slots map[string]any, created time.Time, switchTo bool) *Frame {
	frame := &Frame{
		Index:   index,
		Slots:   slots,
		Created: created,
	}

	if switchTo {
		frame.LastActive = created
	}

	return frame
}

// Value returns the frame's value for a slot name, nil when the frame
// holds no value for it.
func (f *Frame) Value(name string) any {
	return f.Slots[name]
}

func (f *Frame) Set(name string, value any) {
	f.Slots[name] = value
}

// FrameSet is the ordered, append-only collection of frames for one
// dialogue session plus the currently active index.
type FrameSet struct {
	frames      []*Frame
	activeIndex int
}

// NewFrameSet builds a frame set whose first frame holds the framed
// projection of the given slots and is already active.
func NewFrameSet(slots map[string]Slot, createdAt time.Time) *FrameSet {
	return &FrameSet{
		frames:      []*Frame{newFrame(0, FramedSlots(slots), createdAt, true)},
		activeIndex: 0,
	}
}

// CurrentFrame returns the active frame. It fails only after Reset,
// which indicates caller misuse rather than a runtime condition.
func (fs *FrameSet) CurrentFrame() (*Frame, error) {
	if fs.activeIndex < 0 || fs.activeIndex >= len(fs.frames) {
		return nil, ErrNoActiveFrame
	}

	return fs.frames[fs.activeIndex], nil
}

// AddFrame appends a frame built from the framed projection of slots.
// The new frame's index equals the prior frame count. switchTo only
// pre-fills LastActive; it does not move the active index.
func (fs *FrameSet) AddFrame(slots map[string]Slot, createdAt time.Time, switchTo bool) *Frame {
	frame := newFrame(len(fs.frames), FramedSlots(slots), createdAt, switchTo)
	fs.frames = append(fs.frames, frame)

	slog.Debug("Frame created", "index", frame.Index, "slots", frame.Slots)

	return frame
}

// ActivateFrame sets the active index and stamps the target frame's
// LastActive in one step.
func (fs *FrameSet) ActivateFrame(index int, timestamp time.Time) error {
	if index < 0 || index >= len(fs.frames) {
		return fmt.Errorf("activate frame %d of %d: %w", index, len(fs.frames), ErrFrameIndexOutOfRange)
	}

	fs.activeIndex = index
	fs.frames[index].LastActive = timestamp

	return nil
}

// Reset drops all frames and clears the active index. Only used at
// session boundaries.
func (fs *FrameSet) Reset() {
	fs.frames = nil
	fs.activeIndex = -1
}

func (fs *FrameSet) Frames() []*Frame {
	return fs.frames
}

func (fs *FrameSet) Frame(index int) (*Frame, error) {
	if index < 0 || index >= len(fs.frames) {
		return nil, fmt.Errorf("frame %d of %d: %w", index, len(fs.frames), ErrFrameIndexOutOfRange)
	}

	return fs.frames[index], nil
}

func (fs *FrameSet) Len() int {
	return len(fs.frames)
}

func (fs *FrameSet) ActiveIndex() int {
	return fs.activeIndex
}
