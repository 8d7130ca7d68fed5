package transcript

import (
	"path/filepath"
	"testing"
	"time"

	"framewise/app/service/frames"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendAndRecent(t *testing.T) {
	t.Parallel()

	svc := NewWithPath(filepath.Join(t.TempDir(), "transcript.jsonl"))

	ts := time.Date(2024, 5, 17, 12, 0, 0, 0, time.UTC)
	for i, text := range []string{"first", "second", "third"} {
		require.NoError(t, svc.Append(Record{
			SessionID:   "s1",
			Text:        text,
			Act:         string(frames.ActInform),
			ActiveFrame: i,
			FrameCount:  i + 1,
			Timestamp:   ts.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, svc.Append(Record{SessionID: "s2", Text: "other session", Timestamp: ts}))

	records, err := svc.Recent("s1", 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "second", records[0].Text)
	assert.Equal(t, "third", records[1].Text)
	assert.Equal(t, 2, records[1].ActiveFrame)

	all, err := svc.Recent("s1", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestRecentEmptyFile(t *testing.T) {
	t.Parallel()

	svc := NewWithPath(filepath.Join(t.TempDir(), "transcript.jsonl"))

	records, err := svc.Recent("s1", 5)
	require.NoError(t, err)
	assert.Empty(t, records)
}
