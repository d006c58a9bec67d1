package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"

	"github.com/zhouzirui/medicare/backend/internal/analysis/severity"
	"github.com/zhouzirui/medicare/backend/internal/config"
	"github.com/zhouzirui/medicare/backend/internal/model/chat"
	"github.com/zhouzirui/medicare/backend/internal/service/triage"
)

// Service answers triage questions with an LLM through an eino chain.
type Service struct {
	cfg     config.AIConfig
	prompts *PromptManager
	chain   compose.Runnable[map[string]any, *schema.Message]
	logger  *zap.Logger
}

// NewService creates the model from cfg and compiles the triage chain.
func NewService(ctx context.Context, cfg config.AIConfig, logger *zap.Logger) (*Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}
	return NewServiceWithModel(ctx, chatModel, cfg, logger)
}

// NewServiceWithModel compiles the triage chain around an existing model.
func NewServiceWithModel(ctx context.Context, chatModel model.BaseChatModel, cfg config.AIConfig, logger *zap.Logger) (*Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile triage chain: %w", err)
	}

	return &Service{
		cfg:     cfg,
		prompts: NewPromptManager(),
		chain:   runnable,
		logger:  logger.With(zap.String("component", "ai")),
	}, nil
}

// Assess implements triage.Responder.
func (s *Service) Assess(ctx context.Context, history []chat.HistoryEntry, message string) (triage.Assessment, error) {
	response, err := s.chain.Invoke(ctx, s.buildChainInput(history, message))
	if err != nil {
		return triage.Assessment{}, fmt.Errorf("failed to run triage chain: %w", err)
	}
	if response == nil || strings.TrimSpace(response.Content) == "" {
		return triage.Assessment{}, fmt.Errorf("%w: empty model output", chat.ErrMalformedReply)
	}

	payload, err := parseModelOutput(response.Content)
	if err != nil {
		return triage.Assessment{}, err
	}

	s.logger.Debug("model assessment",
		zap.Int("score", payload.score),
		zap.Int("length", len(payload.text)),
	)
	return triage.Assessment{
		Text:   payload.text,
		Score:  payload.score,
		Source: triage.SourceModel,
	}, nil
}

func (s *Service) buildChainInput(history []chat.HistoryEntry, message string) map[string]any {
	return map[string]any{
		"system":  s.prompts.BuildSystemPrompt(),
		"history": buildHistoryMessages(history, s.cfg.HistoryLimit),
		"query":   message,
	}
}

// buildHistoryMessages keeps the last limit turns as user/assistant pairs.
func buildHistoryMessages(entries []chat.HistoryEntry, limit int) []*schema.Message {
	if len(entries) == 0 || limit <= 0 {
		return nil
	}

	start := 0
	if len(entries) > limit {
		start = len(entries) - limit
	}

	history := make([]*schema.Message, 0, 2*(len(entries)-start))
	for _, entry := range entries[start:] {
		history = append(history,
			schema.UserMessage(entry.Message),
			schema.AssistantMessage(entry.Response, nil),
		)
	}
	return history
}

type modelPayload struct {
	Response      string   `json:"response"`
	SeverityScore *float64 `json:"severity_score"`
}

type parsedOutput struct {
	text  string
	score int
}

// parseModelOutput extracts the JSON object from the model output.
func parseModelOutput(content string) (parsedOutput, error) {
	trimmed := strings.TrimSpace(content)
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start == -1 || end == -1 || end <= start {
		return parsedOutput{}, fmt.Errorf("%w: missing json object", chat.ErrMalformedReply)
	}

	var payload modelPayload
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), &payload); err != nil {
		return parsedOutput{}, fmt.Errorf("%w: %v", chat.ErrMalformedReply, err)
	}

	text := strings.TrimSpace(payload.Response)
	if text == "" {
		return parsedOutput{}, fmt.Errorf("%w: empty response field", chat.ErrMalformedReply)
	}
	if payload.SeverityScore == nil {
		return parsedOutput{}, fmt.Errorf("%w: missing severity_score", chat.ErrMalformedReply)
	}

	// Clamp as float first; an out-of-range float to int conversion is implementation-defined.
	score := math.Max(float64(severity.MinScore), math.Min(float64(severity.MaxScore), *payload.SeverityScore))
	return parsedOutput{
		text:  text,
		score: int(math.Round(score)),
	}, nil
}
