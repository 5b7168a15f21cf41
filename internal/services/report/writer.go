package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/mgp/internal/common"
	"github.com/ternarybob/mgp/internal/models"
	"github.com/ternarybob/mgp/internal/services/irongate"
)

// Paths lists the files written for one ticker
type Paths struct {
	Markdown   string `json:"markdown,omitempty"`
	Translated string `json:"translated,omitempty"`
	PDF        string `json:"pdf,omitempty"`
}

// Writer saves rendered reports to the output directory
type Writer struct {
	cfg        common.OutputConfig
	thresholds irongate.Thresholds
	translator *Translator
	pdf        *PDFRenderer
	now        func() time.Time
	logger     arbor.ILogger
}

// NewWriter creates a report writer. translator may be nil when translation is off.
func NewWriter(cfg common.OutputConfig, thresholds irongate.Thresholds, translator *Translator, logger arbor.ILogger) *Writer {
	return &Writer{
		cfg:        cfg,
		thresholds: thresholds,
		translator: translator,
		pdf:        NewPDFRenderer(logger),
		now:        time.Now,
		logger:     logger,
	}
}

// Save writes the report for data. Tickers without a tribunal verdict get no
// report and an empty Paths. Translation and PDF failures are logged and skipped.
func (w *Writer) Save(ctx context.Context, data models.CompanyData) (Paths, error) {
	var paths Paths
	if data.Tribunal == nil {
		return paths, nil
	}

	date := w.now()
	base := filepath.Join(w.cfg.Dir, fmt.Sprintf("REPORT_%s_%s", data.Ticker, date.Format(dateLayout)))
	content := RenderMarkdown(data, date, w.thresholds)

	if err := writeFile(base+".md", []byte(content)); err != nil {
		return paths, err
	}
	paths.Markdown = base + ".md"
	w.logger.Info().Str("ticker", data.Ticker).Str("path", paths.Markdown).Msg("Report saved")

	if w.cfg.Translate && w.translator != nil {
		translated, err := w.translator.Translate(ctx, content, w.cfg.TranslateLanguage)
		if err != nil {
			w.logger.Warn().Err(err).Str("ticker", data.Ticker).Msg("Skipping translated report")
		} else if err := writeFile(base+"_CN.md", []byte(translated)); err != nil {
			w.logger.Warn().Err(err).Str("ticker", data.Ticker).Msg("Failed to write translated report")
		} else {
			paths.Translated = base + "_CN.md"
		}
	}

	if w.cfg.PDF {
		doc, err := w.pdf.Render(content, "MGP Analysis: "+data.Ticker)
		if err != nil {
			w.logger.Warn().Err(err).Str("ticker", data.Ticker).Msg("Skipping PDF report")
		} else if err := writeFile(base+".pdf", doc); err != nil {
			w.logger.Warn().Err(err).Str("ticker", data.Ticker).Msg("Failed to write PDF report")
		} else {
			paths.PDF = base + ".pdf"
		}
	}

	return paths, nil
}

// SaveSummary writes SUMMARY_<date>.md for a batch
func (w *Writer) SaveSummary(runID string, results []models.CompanyData) (string, error) {
	date := w.now()
	path := filepath.Join(w.cfg.Dir, fmt.Sprintf("SUMMARY_%s.md", date.Format(dateLayout)))
	if err := writeFile(path, []byte(RenderSummary(runID, date, results))); err != nil {
		return "", err
	}
	return path, nil
}

// SaveResults writes the configured results file and, when enabled, the
// XLSX workbook next to it
func (w *Writer) SaveResults(results []models.CompanyData) (string, error) {
	path := filepath.Join(w.cfg.Dir, w.cfg.ResultsFile)
	if err := WriteResults(path, results); err != nil {
		return "", err
	}
	if w.cfg.Workbook {
		xlsx := strings.TrimSuffix(path, filepath.Ext(path)) + ".xlsx"
		if err := WriteWorkbook(xlsx, results); err != nil {
			w.logger.Warn().Err(err).Msg("Failed to write results workbook")
		} else {
			w.logger.Info().Str("path", xlsx).Msg("Results workbook saved")
		}
	}
	return path, nil
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}
