package nlu

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"framewise/app/config"
	"framewise/app/service/frames"

	_ "embed"

	"github.com/elliotchance/pie/v2"
	"github.com/samber/do"
	"github.com/sashabaranov/go-openai"
)

//go:embed parse_prompt_template.txt
var parsePromptTemplate string

const maxParseDuration = 30 * time.Second

// Result is the parsed view of one user utterance.
type Result struct {
	Act        string          `json:"act"`
	Entities   []frames.Entity `json:"entities"`
	Confidence float32         `json:"confidence"`
}

var knownActs = []frames.DialogueAct{
	frames.ActInform,
	frames.ActSwitchFrame,
	frames.ActAffirm,
	frames.ActCanthelp,
	frames.ActConfirm,
	frames.ActHearmore,
	frames.ActMoreinfo,
	frames.ActNegate,
	frames.ActNoResult,
	frames.ActOffer,
	frames.ActRequest,
	frames.ActRequestCompare,
	frames.ActSuggest,
}

// Service turns raw utterance text into a dialogue act and entities
// using an OpenAI-compatible model. The frame tracker itself never
// depends on it.
type Service struct {
	cfg *config.Config

	client *openai.Client
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return &Service{
		cfg:    cfg,
		client: createClient(cfg.NLU),
	}, nil
}

func (s *Service) Parse(ctx context.Context, text, history string) (*Result, error) {
	templateValues := map[string]any{
		"utterance": text,
		"history":   history,
		"acts": strings.Join(pie.Map(knownActs, func(act frames.DialogueAct) string {
			return string(act)
		}), ", "),
		"slots": strings.Join(pie.Map(s.cfg.Slots, func(slot config.Slot) string {
			return slot.Name
		}), ", "),
	}

	prompt := parsePromptTemplate
	for key, value := range templateValues {
		prompt = strings.ReplaceAll(prompt, "{"+key+"}", fmt.Sprint(value))
	}

	ctx, cancel := context.WithTimeout(ctx, maxParseDuration)
	defer cancel()

	aiResponse, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: s.cfg.NLU.Model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			MaxCompletionTokens: 1000,
			Temperature:         0,
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat completion: %w", err)
	}

	if len(aiResponse.Choices) == 0 {
		return nil, fmt.Errorf("no chat completion found")
	}

	result := aiResponse.Choices[0].Message.Content
	result = strings.Trim(result, "`")
	result = strings.TrimSpace(result)
	result = strings.TrimPrefix(result, "json")
	result = strings.TrimSpace(result)

	var response Result
	if err = json.Unmarshal([]byte(result), &response); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	response.Act = strings.TrimSpace(response.Act)

	return &response, nil
}

func createClient(cfg config.NLU) *openai.Client {
	clientConfig := openai.DefaultConfig(cfg.Token)

	clientConfig.BaseURL = cfg.BaseURL
	clientConfig.HTTPClient = &http.Client{
		Timeout: 30 * time.Second,
	}

	return openai.NewClientWithConfig(clientConfig)
}
