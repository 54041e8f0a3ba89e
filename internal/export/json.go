package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cloo-solutions/ideaforge/internal/pipeline"
)

// JSON renders a run report as indented JSON
func JSON(report *pipeline.Report) ([]byte, error) {
	data, err := json.MarshalIndent(NewRunRecord(report), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal run report: %w", err)
	}
	return append(data, '\n'), nil
}

// WriteJSON writes the JSON rendering of a report to dir/<run_id>.json,
// creating the directory if needed.
func WriteJSON(report *pipeline.Report, dir string) (string, error) {
	data, err := JSON(report)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	path := filepath.Join(dir, report.RunID+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write JSON export: %w", err)
	}
	return path, nil
}
