package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/mgp/internal/common"
	"github.com/ternarybob/mgp/internal/interfaces"
)

// Service implements interfaces.LLMService over a Generator
type Service struct {
	generator Generator
	model     string
	logger    arbor.ILogger
}

var _ interfaces.LLMService = (*Service)(nil)

// NewService creates an LLM service. An empty model uses the provider default.
func NewService(generator Generator, model string, logger arbor.ILogger) *Service {
	return &Service{generator: generator, model: model, logger: logger}
}

// NewServiceFromConfig wires the provider factory for the configured default provider
func NewServiceFromConfig(cfg *common.Config, logger arbor.ILogger) (*Service, *ProviderFactory) {
	factory := NewProviderFactory(&cfg.Gemini, &cfg.Claude, &cfg.LLM, logger)
	model := factory.GetDefaultModel(ProviderType(cfg.LLM.DefaultProvider))
	return NewService(factory, model, logger), factory
}

// Chat implements interfaces.LLMService
func (s *Service) Chat(ctx context.Context, messages []interfaces.Message) (string, error) {
	resp, err := s.generator.GenerateContent(ctx, &ContentRequest{
		Messages: messages,
		Model:    s.model,
	})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// GenerateJSON implements interfaces.LLMService
func (s *Service) GenerateJSON(ctx context.Context, system, prompt string, schema map[string]interface{}, out interface{}) error {
	resp, err := s.generator.GenerateContent(ctx, &ContentRequest{
		Messages:          []interfaces.Message{{Role: "user", Content: prompt}},
		Model:             s.model,
		SystemInstruction: system,
		OutputSchema:      schema,
	})
	if err != nil {
		return err
	}

	raw, err := ExtractJSON(resp.Text)
	if err != nil {
		s.logger.Debug().Str("response", truncate(resp.Text, 200)).Msg("Structured reply had no JSON object")
		return err
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("failed to decode structured reply: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
