package report

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/mgp/internal/interfaces"
)

// DefaultLanguage is the translation target when none is configured
const DefaultLanguage = "Chinese"

const translatePrompt = `Translate the following investment analysis report into %[1]s. Requirements:
1. Preserve the Markdown structure exactly (headings, lists, tables, links, horizontal rules).
2. Translate financial terms precisely (e.g. CAGR, PEG, SBC, TAM) using the standard %[1]s terminology.
3. Keep numbers, tickers, dates, percentages and URLs unchanged.
4. Write fluently in the register of a professional equity research report.

Report:
%[2]s

Output only the translated report, with no explanation.`

// Translator translates rendered reports through the LLM
type Translator struct {
	llm    interfaces.LLMService
	logger arbor.ILogger
}

// NewTranslator creates a translator
func NewTranslator(llm interfaces.LLMService, logger arbor.ILogger) *Translator {
	return &Translator{llm: llm, logger: logger}
}

// Translate returns markdown translated into language
func (t *Translator) Translate(ctx context.Context, markdown, language string) (string, error) {
	if strings.TrimSpace(language) == "" {
		language = DefaultLanguage
	}

	out, err := t.llm.Chat(ctx, []interfaces.Message{
		{Role: "system", Content: fmt.Sprintf("You are a professional financial translator who renders English equity research into idiomatic %s.", language)},
		{Role: "user", Content: fmt.Sprintf(translatePrompt, language, markdown)},
	})
	if err != nil {
		return "", fmt.Errorf("translation to %s failed: %w", language, err)
	}

	out = strings.TrimSpace(stripFence(out))
	if out == "" {
		return "", fmt.Errorf("translation to %s returned empty text", language)
	}
	return out, nil
}

// stripFence removes a ```markdown wrapper some models add
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if i := strings.Index(s, "\n"); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSuffix(strings.TrimSpace(s), "```")
}
