package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ternarybob/mgp/internal/models"
	"github.com/ternarybob/mgp/internal/services/pipeline"
)

// formatRunRecord renders a stored run as a short header plus the full JSON
func formatRunRecord(record *models.RunRecord) (string, error) {
	payload, err := json.MarshalIndent(record.Data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode run: %w", err)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# Latest result: %s\n\n", record.Ticker))
	sb.WriteString(fmt.Sprintf("**Status**: %s\n", pipeline.Status(record.Data)))
	sb.WriteString(fmt.Sprintf("**Run**: %s\n", record.RunID))
	sb.WriteString(fmt.Sprintf("**Date**: %s\n", record.CreatedAt.UTC().Format("2006-01-02 15:04 MST")))
	if record.ReportPath != "" {
		sb.WriteString(fmt.Sprintf("**Report**: %s\n", record.ReportPath))
	}
	if t := record.Data.Tribunal; t != nil {
		sb.WriteString(fmt.Sprintf("**Confidence**: %s\n\n", t.Confidence))
		sb.WriteString(t.Rationale)
		sb.WriteString("\n")
	}

	sb.WriteString("\n```json\n")
	sb.Write(payload)
	sb.WriteString("\n```\n")
	return sb.String(), nil
}
