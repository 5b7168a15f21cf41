// Package tribunal synthesises the gate metrics and qualitative research
// into the final investment verdict.
package tribunal

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/mgp/internal/interfaces"
	"github.com/ternarybob/mgp/internal/models"
	"github.com/ternarybob/mgp/internal/services/irongate"
)

const systemPrompt = "You are a disciplined growth investor."

// Service runs the verdict stage
type Service struct {
	llm    interfaces.LLMService
	logger arbor.ILogger
}

// NewService creates a tribunal service
func NewService(llm interfaces.LLMService, logger arbor.ILogger) *Service {
	return &Service{llm: llm, logger: logger}
}

// Fallback is the verdict recorded when the LLM cannot decide
func Fallback() models.TribunalDecision {
	return models.TribunalDecision{
		Decision:   models.DecisionWatch,
		Confidence: models.ConfidenceLow,
		Rationale:  "AI Analysis Failed",
	}
}

type verdictReply struct {
	Decision           string `json:"decision"`
	Confidence         string `json:"confidence"`
	Rationale          string `json:"rationale"`
	GrowthThesisIntact bool   `json:"growth_thesis_intact"`
	ValuationFit       bool   `json:"valuation_fit"`
	IsTrueDiscount     bool   `json:"is_true_discount"`
}

// Judge renders the verdict. It never fails; LLM errors yield Fallback().
func (s *Service) Judge(ctx context.Context, data models.CompanyData, cfg irongate.Thresholds) models.TribunalDecision {
	evidence, err := json.MarshalIndent(BuildContext(data, cfg), "", "  ")
	if err != nil {
		s.logger.Error().Err(err).Str("ticker", data.Ticker).Msg("Failed to encode tribunal context")
		return Fallback()
	}

	var reply verdictReply
	if err := s.llm.GenerateJSON(ctx, systemPrompt, Prompt(data.Ticker, string(evidence), cfg), Schema(), &reply); err != nil {
		s.logger.Warn().Err(err).Str("ticker", data.Ticker).Msg("Tribunal failed, using fallback verdict")
		return Fallback()
	}

	decision, ok := models.ParseDecision(reply.Decision)
	if !ok || decision == models.DecisionSkip {
		s.logger.Warn().Str("ticker", data.Ticker).Str("decision", reply.Decision).Msg("Unrecognised decision, recording WATCH")
		decision = models.DecisionWatch
	}

	verdict := models.TribunalDecision{
		Decision:           decision,
		Confidence:         models.ParseConfidence(reply.Confidence),
		Rationale:          strings.TrimSpace(reply.Rationale),
		GrowthThesisIntact: reply.GrowthThesisIntact,
		ValuationFit:       reply.ValuationFit,
		IsTrueDiscount:     reply.IsTrueDiscount,
	}

	s.logger.Info().
		Str("ticker", data.Ticker).
		Str("decision", string(verdict.Decision)).
		Str("confidence", string(verdict.Confidence)).
		Msg("Tribunal verdict")
	return verdict
}

// Context is the evidence bundle handed to the tribunal
type Context struct {
	Ticker           string               `json:"ticker"`
	IronGate         interface{}          `json:"iron_gate"`
	ValuationBand    irongate.Band        `json:"valuation_band"`
	HighGrowthExempt bool                 `json:"high_growth_exempt"`
	BusinessModel    string               `json:"business_model"`
	BearCaseHook     string               `json:"bear_case_hook,omitempty"`
	KPIs             map[string]string    `json:"kpis"`
	Management       string               `json:"management"`
	Moat             string               `json:"moat"`
	Insider          string               `json:"insider"`
	Dislocation      string               `json:"dislocation"`
	BlueSky          *models.BlueSkyData  `json:"blue_sky,omitempty"`
	Catalysts        *models.CatalystData `json:"catalysts,omitempty"`
}

// BuildContext assembles the evidence, substituting "Unknown" for missing stages
func BuildContext(data models.CompanyData, cfg irongate.Thresholds) Context {
	c := Context{
		Ticker:        data.Ticker,
		IronGate:      "Skipped/Failed",
		ValuationBand: irongate.BandUnknown,
		BusinessModel: "Unknown",
		KPIs:          map[string]string{},
		Management:    "Unknown",
		Moat:          "Unknown",
		Insider:       "Unknown",
		Dislocation:   "Unknown",
	}

	if data.IronGate != nil {
		c.IronGate = data.IronGate
		c.ValuationBand = irongate.ValuationBand(data.IronGate.PEGRatio, cfg)
		c.HighGrowthExempt = irongate.HighGrowthExempt(data.IronGate.RevenueGrowthCurrentQ, cfg)
	}
	if data.Identifier != nil {
		c.BusinessModel = string(data.Identifier.BusinessModel)
		c.BearCaseHook = data.Identifier.BearCaseHook
	}
	if in := data.Intelligence; in != nil {
		if in.KPIValues != nil {
			c.KPIs = in.KPIValues
		}
		c.Management = in.ManagementIntegrity
		c.Moat = in.ProductMoat
		c.Insider = in.InsiderActivity
		c.Dislocation = in.DislocationContext
		c.BlueSky = in.BlueSky
		c.Catalysts = in.Catalysts
	}
	return c
}

// Prompt embeds the decision logic with thresholds taken from cfg
func Prompt(ticker, evidence string, cfg irongate.Thresholds) string {
	growth := cfg.GrowthThresholdQuarter * 100
	return fmt.Sprintf(`You are the Chief Investment Officer executing the Mahaney Growth Protocol.

Review the following data for %[1]s and render a Final Verdict.

Data:
%[2]s

### Decision Logic

1. Growth Thesis Check:
   - Is revenue growth above %.0[3]f%% and are the specific KPIs still strong?
   - If growth is below %.0[3]f%% AND KPIs are slowing: VALUE TRAP.
   - If revenue is slowing but KPIs are strong: proceed to valuation.

2. Valuation Fit (valuation_band is precomputed from the PEG):
   - PEG below %.1[4]f with a healthy model: CONVICTION BUY.
   - PEG %.1[4]f to %.1[5]f: ACCUMULATE.
   - PEG above %.1[6]f: WATCH, unless high_growth_exempt is true (revenue growth above %.0[7]f%%).
   - Iron Gate "Skipped/Failed" or unprofitable with strong growth: SPECULATIVE BUY at most.

3. Dislocation Check:
   - Is the price drop a True Discount (macro, sentiment, sector rotation) or a Fake Discount (broken thesis)?
   - True Discount: upgrade confidence.
   - Fake Discount: downgrade to VALUE TRAP.

### Output
Respond with JSON:
- decision: one of "CONVICTION BUY", "ACCUMULATE", "SPECULATIVE BUY", "VALUE TRAP", "WATCH"
- confidence: "High", "Medium" or "Low"
- rationale: a concise 2-3 sentence explanation
- growth_thesis_intact: boolean
- valuation_fit: boolean
- is_true_discount: boolean`,
		ticker, evidence, growth,
		cfg.PEGThresholdStrongBuy, cfg.PEGThresholdBuy, cfg.PEGThresholdBubble,
		cfg.HighGrowthExemption*100)
}

// Schema constrains the verdict reply
func Schema() map[string]interface{} {
	decisions := make([]string, 0, len(models.Decisions))
	for _, d := range models.Decisions {
		if d != models.DecisionSkip {
			decisions = append(decisions, string(d))
		}
	}
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"decision":             map[string]interface{}{"type": "string", "enum": decisions},
			"confidence":           map[string]interface{}{"type": "string", "enum": []string{"High", "Medium", "Low"}},
			"rationale":            map[string]interface{}{"type": "string"},
			"growth_thesis_intact": map[string]interface{}{"type": "boolean"},
			"valuation_fit":        map[string]interface{}{"type": "boolean"},
			"is_true_discount":     map[string]interface{}{"type": "boolean"},
		},
		"required": []string{"decision", "confidence", "rationale", "growth_thesis_intact", "valuation_fit", "is_true_discount"},
	}
}
