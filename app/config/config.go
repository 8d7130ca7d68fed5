package config

import (
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  Server  `yaml:"server"`
	Log     Log     `yaml:"log"`
	NLU     NLU     `yaml:"nlu"`
	Session Session `yaml:"session"`
	MCP     MCP     `yaml:"mcp"`
	Slots   []Slot  `yaml:"slots" validate:"required,min=1,dive"`
}

type Server struct {
	// Address the HTTP API listens on
	Addr string `yaml:"addr" example:":8080"`
}

type NLU struct {
	// OpenAI-compatible base url
	BaseURL string `yaml:"base_url" example:"https://openrouter.ai/api/v1" validate:"required"`
	// API token
	Token string `yaml:"token" example:"sk-proj-abc123456789DEF789ghi012JKL345mno678PQR901stu234VWX" validate:"required"`
	// Model used to parse dialogue acts and entities
	Model string `yaml:"model" example:"deepseek/deepseek-chat-v3-0324:free" validate:"required"`
	// Parses below this confidence are treated as plain turns
	MinConfidence float32 `yaml:"min_confidence" example:"0.8"`
}

// Duration accepts "1h30m" style values in YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return oops.Errorf("failed to parse duration %q: %w", value.Value, err)
	}

	*d = Duration(parsed)

	return nil
}

type Session struct {
	// Sessions idle longer than this are dropped
	TTL Duration `yaml:"ttl" example:"1h"`
	// Per-turn transcript file (JSON lines)
	TranscriptPath string `yaml:"transcript_path" example:"data/transcript.jsonl"`
}

type MCP struct {
	// Serve the dialogue tools over MCP stdio
	Enabled bool `yaml:"enabled" example:"false"`
}

// Slot declares one slot of the dialogue schema; frame slots
// participate in frame partitioning.
type Slot struct {
	Name      string `yaml:"name" example:"city" validate:"required"`
	FrameSlot bool   `yaml:"frame_slot" example:"true"`
}

type Log struct {
	// Telegram logging config
	Telegram TelegramLog `yaml:"telegram"`
}

type TelegramLog struct {
	// Chat bot token, obtain it via BotFather
	Token string `yaml:"token" example:"1234567890:ABCdefGHIjklMNopQRstUVwxyZ-123456789"`
	// Chat ID to send messages to
	ChatID string `yaml:"chat_id" example:"1001234567890"`
}

func Load() (*Config, error) {
	return LoadFile("config.yaml")
}

func LoadFile(path string) (*Config, error) {
	var result Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, oops.Errorf("failed to read config file: %w", err)
	}

	if err = yaml.Unmarshal(data, &result); err != nil {
		return nil, oops.Errorf("failed to parse YAML config: %w", err)
	}

	if result.Server.Addr == "" {
		result.Server.Addr = ":8080"
	}
	if result.Session.TTL == 0 {
		result.Session.TTL = Duration(time.Hour)
	}
	if result.Session.TranscriptPath == "" {
		result.Session.TranscriptPath = "data/transcript.jsonl"
	}
	if result.NLU.MinConfidence == 0 {
		result.NLU.MinConfidence = 0.8
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(result); err != nil {
		return nil, oops.Errorf("failed to validate config: %w", err)
	}

	return &result, nil
}
