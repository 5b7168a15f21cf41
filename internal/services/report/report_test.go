package report

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/xuri/excelize/v2"

	"github.com/ternarybob/mgp/internal/common"
	"github.com/ternarybob/mgp/internal/interfaces"
	"github.com/ternarybob/mgp/internal/models"
	"github.com/ternarybob/mgp/internal/services/irongate"
)

type fakeLLM struct {
	reply    string
	err      error
	messages []interfaces.Message
}

func (f *fakeLLM) Chat(ctx context.Context, messages []interfaces.Message) (string, error) {
	f.messages = messages
	return f.reply, f.err
}

func (f *fakeLLM) GenerateJSON(ctx context.Context, system, prompt string, schema map[string]interface{}, out interface{}) error {
	return errors.New("not used")
}

var reportDate = time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)

func fullData() models.CompanyData {
	return models.CompanyData{
		Ticker:       "DUOL",
		CompanyName:  models.Ptr("Duolingo, Inc."),
		CurrentPrice: models.Ptr(312.5),
		MarketCap:    models.Ptr(14_250_000_000.0),
		IronGate: &models.IronGateMetrics{
			RevenueCAGR:           models.Ptr(0.4123),
			RevenueGrowthCurrentQ: models.Ptr(0.41),
			PEGRatio:              models.Ptr(1.23),
			IsProfitable:          models.Ptr(true),
			Passed:                true,
			Hygiene: &models.HygieneMetrics{
				SBCRevenueRatio:      models.Ptr(0.12),
				DilutionShieldPassed: models.Ptr(true),
			},
		},
		Identifier: &models.IdentifierData{
			BusinessModel: models.BusinessModelConsumption,
			SpecificKPIs:  []string{"DAUs", "Paid Subscribers"},
			BearCaseHook:  "AI tutors commoditise lessons",
		},
		Intelligence: &models.IntelligenceData{
			KPIValues:           map[string]string{"DAUs": "50M | Q4", "Paid Subscribers": "10M"},
			ManagementIntegrity: "Conservative.",
			Catalysts:           &models.CatalystData{UpcomingEvents: []string{"Q1 earnings"}, VariantPerception: "Moat underrated"},
			Sources:             []models.SourceRef{{Title: "Q4 letter", URL: "https://ir.example.com/q4"}},
		},
		Tribunal: &models.TribunalDecision{
			Decision:       models.DecisionAccumulate,
			Confidence:     models.ConfidenceHigh,
			Rationale:      "Growth intact at a fair PEG.",
			ValuationFit:   true,
			IsTrueDiscount: true,
		},
	}
}

func TestRenderMarkdown(t *testing.T) {
	md := RenderMarkdown(fullData(), reportDate, irongate.DefaultThresholds())

	for _, want := range []string{
		"# MGP Analysis: DUOL (Duolingo, Inc.)",
		"**Date:** 2026-05-04",
		"**Verdict:** ACCUMULATE (High Confidence)",
		"**Price:** $312.50 | **Market Cap:** $14.25B",
		"## Executive Summary\nGrowth intact at a fair PEG.",
		"* **Status**: Passed",
		"* **Revenue CAGR**: 41.2%",
		"* **PEG Ratio**: 1.23 (Buy)",
		"* **Gross Margin Slope**: N/A",
		"* **SBC/Rev Ratio**: 12.0% (Threshold: <20%)",
		"* **Share Count Growth**: N/A",
		"* **Dilution Shield**: Passed",
		"* **Key KPIs**: DAUs, Paid Subscribers",
		"| DAUs | 50M \\| Q4 |",
		"* **R&D Effectiveness**: N/A",
		"* **Upcoming Events**: Q1 earnings",
		"* **Moat**: N/A",
		"- [Q4 letter](https://ir.example.com/q4)",
		"* **Growth Thesis Intact**: No",
		"* **True Discount**: Yes",
		"*Generated by MGP Auto-Analyst*",
	} {
		assert.Contains(t, md, want)
	}
}

func TestRenderMarkdown_AbsentSections(t *testing.T) {
	md := RenderMarkdown(models.CompanyData{Ticker: "X"}, reportDate, irongate.DefaultThresholds())

	assert.Contains(t, md, "# MGP Analysis: X\n")
	assert.Contains(t, md, "**Verdict:** N/A")
	assert.Contains(t, md, "**Price:** N/A | **Market Cap:** N/A")
	assert.Contains(t, md, "* **Status**: N/A")
	assert.Contains(t, md, "* **Business Model**: N/A")
}

func TestRenderGate_Failed(t *testing.T) {
	m := &models.IronGateMetrics{FailReason: models.Ptr("PEG 3.10 above 2.0"), PEGRatio: models.Ptr(3.1)}
	md := RenderGate("SNOW", m, irongate.DefaultThresholds())

	assert.Contains(t, md, "# Iron Gate: SNOW")
	assert.Contains(t, md, "* **Status**: Failed: PEG 3.10 above 2.0")
	assert.Contains(t, md, "(Sell)")
}

func TestRenderSummary(t *testing.T) {
	failed := models.CompanyData{Ticker: "SNOW", IronGate: &models.IronGateMetrics{FailReason: models.Ptr("Growth too slow")}}
	errored := models.CompanyData{Ticker: "BAD", Error: models.Ptr("panic in BAD: boom")}

	md := RenderSummary("run-1", reportDate, []models.CompanyData{fullData(), failed, errored})

	assert.Contains(t, md, "**Run:** run-1 | **Tickers:** 3")
	assert.Contains(t, md, "| DUOL | Passed |  | ACCUMULATE | High |")
	assert.Contains(t, md, "| SNOW | Failed | Growth too slow | SKIP |  |")
	assert.Contains(t, md, "| BAD | Error | panic in BAD: boom | SKIP |  |")
}

func TestWriteResults_NoHTMLEscaping(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "results.json")
	data := models.CompanyData{Ticker: "R&D", Error: models.Ptr("<html> 失败")}

	require.NoError(t, WriteResults(path, []models.CompanyData{data}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"ticker": "R&D"`)
	assert.Contains(t, string(raw), `"error": "<html> 失败"`)

	var decoded []models.CompanyData
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Len(t, decoded, 1)
}

func TestPDFRenderer(t *testing.T) {
	r := NewPDFRenderer(arbor.NewLogger())

	tests := []struct {
		name     string
		markdown string
	}{
		{name: "empty", markdown: ""},
		{name: "full report", markdown: RenderMarkdown(fullData(), reportDate, irongate.DefaultThresholds())},
		{name: "styling and autolink", markdown: "Normal **Bold** *Italic* see https://example.com\n\n---\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := r.Render(tt.markdown, "Test")
			require.NoError(t, err)
			assert.Equal(t, "%PDF", string(doc[:4]))
		})
	}
}

func TestTranslator(t *testing.T) {
	llm := &fakeLLM{reply: "```markdown\n# MGP 分析: DUOL\n```"}
	out, err := NewTranslator(llm, arbor.NewLogger()).Translate(context.Background(), "# MGP Analysis: DUOL", "")

	require.NoError(t, err)
	assert.Equal(t, "# MGP 分析: DUOL", out)
	require.Len(t, llm.messages, 2)
	assert.Contains(t, llm.messages[1].Content, "into Chinese")

	llm.err = errors.New("quota")
	_, err = NewTranslator(llm, arbor.NewLogger()).Translate(context.Background(), "x", "German")
	assert.Error(t, err)
}

func newTestWriter(t *testing.T, llm *fakeLLM, translate, pdf bool) (*Writer, string) {
	dir := t.TempDir()
	cfg := common.NewDefaultConfig().Output
	cfg.Dir = dir
	cfg.Translate = translate
	cfg.PDF = pdf

	w := NewWriter(cfg, irongate.DefaultThresholds(), NewTranslator(llm, arbor.NewLogger()), arbor.NewLogger())
	w.now = func() time.Time { return reportDate }
	return w, dir
}

func TestWriter_Save(t *testing.T) {
	w, dir := newTestWriter(t, &fakeLLM{reply: "# 报告"}, true, true)

	paths, err := w.Save(context.Background(), fullData())
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "REPORT_DUOL_2026-05-04.md"), paths.Markdown)
	assert.Equal(t, filepath.Join(dir, "REPORT_DUOL_2026-05-04_CN.md"), paths.Translated)
	assert.Equal(t, filepath.Join(dir, "REPORT_DUOL_2026-05-04.pdf"), paths.PDF)

	cn, err := os.ReadFile(paths.Translated)
	require.NoError(t, err)
	assert.Equal(t, "# 报告", string(cn))
	assert.FileExists(t, paths.PDF)
}

func TestWriter_SaveSkipsWithoutVerdict(t *testing.T) {
	w, dir := newTestWriter(t, &fakeLLM{}, false, false)

	data := fullData()
	data.Tribunal = nil
	paths, err := w.Save(context.Background(), data)
	require.NoError(t, err)
	assert.Equal(t, Paths{}, paths)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWriter_TranslationFailureKeepsEnglish(t *testing.T) {
	w, _ := newTestWriter(t, &fakeLLM{err: errors.New("quota")}, true, false)

	paths, err := w.Save(context.Background(), fullData())
	require.NoError(t, err)
	assert.FileExists(t, paths.Markdown)
	assert.Empty(t, paths.Translated)
}

func TestWriter_SaveSummaryAndResults(t *testing.T) {
	w, dir := newTestWriter(t, &fakeLLM{}, false, false)

	path, err := w.SaveSummary("run-9", []models.CompanyData{fullData()})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "SUMMARY_2026-05-04.md"), path)

	w.cfg.Workbook = true
	path, err = w.SaveResults([]models.CompanyData{fullData()})
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "results.xlsx"))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "[\n"))
}

func TestWriteWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.xlsx")
	failed := models.CompanyData{Ticker: "SNOW", IronGate: &models.IronGateMetrics{FailReason: models.Ptr("Growth too slow")}}

	require.NoError(t, WriteWorkbook(path, []models.CompanyData{fullData(), failed}))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(workbookSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Ticker", rows[0][0])
	assert.Equal(t, "DUOL", rows[1][0])
	assert.Equal(t, "Passed", rows[1][4])
	assert.Equal(t, "ACCUMULATE", rows[1][14])
	assert.Equal(t, "Failed", rows[2][4])
	assert.Equal(t, "Growth too slow", rows[2][5])
	peg, err := f.GetCellValue(workbookSheet, "J3")
	require.NoError(t, err)
	assert.Empty(t, peg, "absent PEG stays blank")
}
