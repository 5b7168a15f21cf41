// Package identifier classifies a company's business model and picks the
// KPIs that matter for it.
package identifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/mgp/internal/interfaces"
	"github.com/ternarybob/mgp/internal/models"
)

// DefaultDescription is used when no company profile is available
const DefaultDescription = "Technology company"

const systemPrompt = "You are a senior equity research analyst specializing in growth stocks."

const promptTemplate = `Analyze the company %s based on this description: %s

Classify it into one of these business models:
- SaaS (Subscription, Cloud Software)
- Consumption (Usage-based, Cloud Infrastructure)
- Marketplace (Two-sided platform, Gig Economy)
- Advertising (Ad-driven, Social Media)
- Hardware (Physical devices)
- Other

Then list 3 specific idiosyncratic KPIs (Key Performance Indicators) that are critical for this specific business model.
Examples:
- SaaS: NDR (Net Dollar Retention), RPO (Remaining Performance Obligations), ARR
- Consumption: Net Revenue Retention, Usage Growth
- Marketplace: GMV, Take Rate
- Advertising: DAU/MAU, ARPPU, CPM/CPC

Also identify the "Bear Case Hook": the most likely reason this company would fail or is failing.`

// Service runs the classification stage
type Service struct {
	llm    interfaces.LLMService
	logger arbor.ILogger
}

// NewService creates an identifier service
func NewService(llm interfaces.LLMService, logger arbor.ILogger) *Service {
	return &Service{llm: llm, logger: logger}
}

// Fallback is returned whenever classification fails
func Fallback() models.IdentifierData {
	return models.IdentifierData{
		BusinessModel: models.BusinessModelOther,
		SpecificKPIs:  []string{"Revenue Growth"},
		BearCaseHook:  "Unknown",
	}
}

type identifierReply struct {
	BusinessModel string   `json:"business_model"`
	SpecificKPIs  []string `json:"specific_kpis"`
	BearCaseHook  string   `json:"bear_case_hook"`
}

// Identify classifies the company. It never fails; LLM errors yield Fallback().
func (s *Service) Identify(ctx context.Context, ticker, description string) models.IdentifierData {
	if strings.TrimSpace(description) == "" {
		description = DefaultDescription
	}

	var reply identifierReply
	prompt := fmt.Sprintf(promptTemplate, ticker, description)
	if err := s.llm.GenerateJSON(ctx, systemPrompt, prompt, Schema(), &reply); err != nil {
		s.logger.Warn().Err(err).Str("ticker", ticker).Msg("Business model classification failed, using fallback")
		return Fallback()
	}

	data := models.IdentifierData{
		BusinessModel: models.ParseBusinessModel(reply.BusinessModel),
		SpecificKPIs:  cleanKPIs(reply.SpecificKPIs),
		BearCaseHook:  strings.TrimSpace(reply.BearCaseHook),
	}
	if len(data.SpecificKPIs) == 0 {
		data.SpecificKPIs = Fallback().SpecificKPIs
	}
	if data.BearCaseHook == "" {
		data.BearCaseHook = "Unknown"
	}

	s.logger.Info().
		Str("ticker", ticker).
		Str("business_model", string(data.BusinessModel)).
		Strs("kpis", data.SpecificKPIs).
		Msg("Business model identified")
	return data
}

// Schema is the structured-output schema for the classification reply
func Schema() map[string]interface{} {
	enum := make([]string, len(models.BusinessModels))
	for i, bm := range models.BusinessModels {
		enum[i] = string(bm)
	}
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"business_model": map[string]interface{}{
				"type": "string",
				"enum": enum,
			},
			"specific_kpis": map[string]interface{}{
				"type":        "array",
				"description": "Exactly 3 KPIs critical for this business model",
				"items":       map[string]interface{}{"type": "string"},
			},
			"bear_case_hook": map[string]interface{}{
				"type":        "string",
				"description": "The most likely reason the company fails",
			},
		},
		"required": []string{"business_model", "specific_kpis", "bear_case_hook"},
	}
}

// cleanKPIs trims, drops blanks and keeps at most three
func cleanKPIs(kpis []string) []string {
	out := make([]string, 0, 3)
	seen := make(map[string]bool)
	for _, k := range kpis {
		k = strings.TrimSpace(k)
		key := strings.ToLower(k)
		if k == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, k)
		if len(out) == 3 {
			break
		}
	}
	return out
}
