// Package intelligence gathers web-sourced qualitative research for a ticker:
// KPI values, management track record, moat, insider activity and the reason
// behind any recent price dislocation.
package intelligence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/mgp/internal/interfaces"
	"github.com/ternarybob/mgp/internal/models"
)

const (
	// Unavailable marks a field whose research step failed
	Unavailable = "Unavailable"
	// NotFound marks a KPI the sources did not report
	NotFound = "Not Found"

	defaultMaxResults = 3
	extractSystem     = "Extract financial data precisely."
	analystSystem     = "You are a buy-side growth equity analyst. Be concise and factual."
)

// Option configures a Service
type Option func(*Service)

// WithClock overrides the clock used for search year hints
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithMaxResults sets the number of search results per query
func WithMaxResults(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxResults = n
		}
	}
}

// Service runs the intelligence stage
type Service struct {
	llm        interfaces.LLMService
	search     interfaces.SearchService
	maxResults int
	now        func() time.Time
	logger     arbor.ILogger
}

// NewService creates an intelligence service
func NewService(llm interfaces.LLMService, search interfaces.SearchService, logger arbor.ILogger, opts ...Option) *Service {
	s := &Service{
		llm:        llm,
		search:     search,
		maxResults: defaultMaxResults,
		now:        time.Now,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Gather runs every research step. Individual failures degrade the field
// they feed and never abort the stage.
func (s *Service) Gather(ctx context.Context, ticker string, identifier models.IdentifierData) models.IntelligenceData {
	g := &gathering{svc: s, ticker: ticker, seen: make(map[string]bool)}
	data := models.IntelligenceData{KPIValues: make(map[string]string, len(identifier.SpecificKPIs))}

	year := s.now().Year()
	for _, kpi := range identifier.SpecificKPIs {
		query := fmt.Sprintf("%s %s latest quarter %d %d financial results", ticker, kpi, year-1, year)
		data.KPIValues[kpi] = g.extractKPI(ctx, kpi, g.search(ctx, query))
	}

	data.ManagementIntegrity = g.summarise(ctx,
		fmt.Sprintf("%s management guidance track record beat miss history", ticker),
		fmt.Sprintf(`Analyze the management integrity of %s based on:
%%s

Do they have a history of over-promising and under-delivering? Or are they conservative ("sandbaggers")?
Summarize in 2-3 sentences.`, ticker))

	data.ProductMoat = g.summarise(ctx,
		fmt.Sprintf("%s competitive advantage moat analysis new products", ticker),
		fmt.Sprintf(`Analyze the competitive moat of %s based on:
%%s

Is their moat widening or narrowing? Any new products driving growth?
Summarize in 2-3 sentences.`, ticker))

	data.InsiderActivity = g.summarise(ctx,
		fmt.Sprintf("%s insider trading recent selling buying", ticker),
		fmt.Sprintf(`Analyze insider activity for %s based on:
%%s

Are insiders buying or selling significantly? Is it routine selling or alarming?
Summarize in 2-3 sentences.`, ticker))

	data.DislocationContext = g.summarise(ctx,
		fmt.Sprintf("%s stock price drop reason recent news", ticker),
		fmt.Sprintf(`Analyze the recent price action of %s based on:
%%s

If the stock is down, is it due to macro factors or sector rotation (True Discount) or broken fundamentals or a competitor threat (Fake Discount)?
State the verdict first, then explain in 2-3 sentences.`, ticker))

	data.BlueSky = g.blueSky(ctx, year)
	data.Catalysts = g.catalysts(ctx, year)
	data.Sources = g.sources

	s.logger.Info().
		Str("ticker", ticker).
		Int("kpis", len(data.KPIValues)).
		Int("sources", len(data.Sources)).
		Msg("Intelligence gathered")
	return data
}

// gathering holds per-call state so Service stays safe for concurrent use
type gathering struct {
	svc     *Service
	ticker  string
	seen    map[string]bool
	sources []models.SourceRef
}

// search returns the joined result content, or "" when the search fails
func (g *gathering) search(ctx context.Context, query string) string {
	results, err := g.svc.search.Search(ctx, query, g.svc.maxResults)
	if err != nil {
		g.svc.logger.Warn().Err(err).Str("ticker", g.ticker).Str("query", query).Msg("Search failed, continuing without context")
		return ""
	}

	parts := make([]string, 0, len(results))
	for _, r := range results {
		if r.URL != "" && !g.seen[r.URL] {
			g.seen[r.URL] = true
			g.sources = append(g.sources, models.SourceRef{Title: r.Title, URL: r.URL})
		}
		if c := strings.TrimSpace(r.Content); c != "" {
			parts = append(parts, c)
		}
	}
	return strings.Join(parts, "\n")
}

func (g *gathering) ask(ctx context.Context, system, prompt string) (string, error) {
	return g.svc.llm.Chat(ctx, []interfaces.Message{
		{Role: "system", Content: system},
		{Role: "user", Content: prompt},
	})
}

func (g *gathering) extractKPI(ctx context.Context, kpi, evidence string) string {
	prompt := fmt.Sprintf(`Based on the search results below, extract the latest value for the KPI: %s for %s.
If found, provide the value and a brief context (e.g., "120%% (Q3 2024)").
If not found, return "%s".

Search Results:
%s`, kpi, g.ticker, NotFound, evidence)

	val, err := g.ask(ctx, extractSystem, prompt)
	if err != nil {
		g.svc.logger.Warn().Err(err).Str("ticker", g.ticker).Str("kpi", kpi).Msg("KPI extraction failed")
		return Unavailable
	}
	val = strings.TrimSpace(val)
	if val == "" {
		return NotFound
	}
	return val
}

// summarise searches query and feeds the context into template's single %s
func (g *gathering) summarise(ctx context.Context, query, template string) string {
	evidence := g.search(ctx, query)
	text, err := g.ask(ctx, analystSystem, fmt.Sprintf(template, evidence))
	if err != nil || strings.TrimSpace(text) == "" {
		g.svc.logger.Warn().Err(err).Str("ticker", g.ticker).Str("query", query).Msg("Summary step failed")
		return Unavailable
	}
	return strings.TrimSpace(text)
}

func (g *gathering) blueSky(ctx context.Context, year int) *models.BlueSkyData {
	evidence := g.search(ctx, fmt.Sprintf("%s R&D new products TAM expansion %d", g.ticker, year))
	prompt := fmt.Sprintf(`Assess the "blue sky" option value of %s based on:
%s

rnd_effectiveness: is R&D spending turning into shipped products that grow revenue? 1-2 sentences.
tam_expansion: which new markets or products could expand the addressable market? 1-2 sentences.`, g.ticker, evidence)

	var out models.BlueSkyData
	if err := g.svc.llm.GenerateJSON(ctx, analystSystem, prompt, blueSkySchema, &out); err != nil {
		g.svc.logger.Warn().Err(err).Str("ticker", g.ticker).Msg("Blue sky assessment failed")
		return nil
	}
	return &out
}

func (g *gathering) catalysts(ctx context.Context, year int) *models.CatalystData {
	evidence := g.search(ctx, fmt.Sprintf("%s upcoming earnings product launch investor day %d", g.ticker, year))
	prompt := fmt.Sprintf(`List the near-term catalysts for %s based on:
%s

upcoming_events: dated events in the next two quarters (earnings, launches, investor days).
variant_perception: where the market consensus on %s may be wrong, in 1-2 sentences.`, g.ticker, evidence, g.ticker)

	var out models.CatalystData
	if err := g.svc.llm.GenerateJSON(ctx, analystSystem, prompt, catalystSchema, &out); err != nil {
		g.svc.logger.Warn().Err(err).Str("ticker", g.ticker).Msg("Catalyst scan failed")
		return nil
	}
	return &out
}

var blueSkySchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"rnd_effectiveness": map[string]interface{}{"type": "string"},
		"tam_expansion":     map[string]interface{}{"type": "string"},
	},
	"required": []string{"rnd_effectiveness", "tam_expansion"},
}

var catalystSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"upcoming_events": map[string]interface{}{
			"type":  "array",
			"items": map[string]interface{}{"type": "string"},
		},
		"variant_perception": map[string]interface{}{"type": "string"},
	},
	"required": []string{"upcoming_events", "variant_perception"},
}
