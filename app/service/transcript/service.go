package transcript

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"framewise/app/config"
	"framewise/app/service/frames"

	"github.com/samber/do"
)

// Record is one processed turn as written to the transcript file.
type Record struct {
	SessionID   string          `json:"session_id"`
	Text        string          `json:"text"`
	Act         string          `json:"act"`
	Entities    []frames.Entity `json:"entities,omitempty"`
	ActiveFrame int             `json:"active_frame"`
	FrameCount  int             `json:"frame_count"`
	Timestamp   time.Time       `json:"timestamp"`
}

// Service appends processed turns to a JSON lines file, one record per
// turn.
type Service struct {
	mu   sync.Mutex
	path string
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)

	path := cfg.Session.TranscriptPath
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create transcript dir: %w", err)
		}
	}

	return NewWithPath(path), nil
}

func NewWithPath(path string) *Service {
	return &Service{path: path}
}

func (s *Service) Append(record Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open transcript file: %w", err)
	}
	defer file.Close()

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	writer := bufio.NewWriter(file)
	if _, err = writer.WriteString(string(data) + "\n"); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}

	if err = writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush writer: %w", err)
	}

	return nil
}

// Recent returns up to limit most recent records of one session, in
// file order.
func (s *Service) Recent(sessionID string, limit int) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.path, os.O_RDONLY|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open transcript file: %w", err)
	}
	defer file.Close()

	records := make([]Record, 0)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var record Record
		if err = json.Unmarshal([]byte(line), &record); err != nil {
			return nil, fmt.Errorf("failed to parse JSON line: %w", err)
		}

		if record.SessionID == sessionID {
			records = append(records, record)
		}
	}

	if err = scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading transcript file: %w", err)
	}

	if limit > 0 && len(records) > limit {
		records = records[len(records)-limit:]
	}

	return records, nil
}
