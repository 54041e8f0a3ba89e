package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cloo-solutions/ideaforge/internal/pipeline"
)

// Markdown renders a run report as a human-readable Markdown document:
// a run header, one section per composed idea, and a failure appendix
// when the run degraded.
func Markdown(report *pipeline.Report) []byte {
	var b strings.Builder

	fmt.Fprintf(&b, "# Idea Report %s\n\n", report.RunID)
	fmt.Fprintf(&b, "- State: %s\n", report.State)
	fmt.Fprintf(&b, "- Started: %s\n", report.StartedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "- Ideas: %d composed, %d discarded as duplicates\n", len(report.Ideas), len(report.Discarded))
	if report.PartialFailure {
		b.WriteString("- Partial failure: some inputs were unavailable\n")
	}
	b.WriteString("\n")

	for i, idea := range report.Ideas {
		record := NewIdeaRecord(idea)
		fmt.Fprintf(&b, "## %d. %s\n\n", i+1, record.Title)
		fmt.Fprintf(&b, "%s\n\n", record.Description)
		fmt.Fprintf(&b, "**Business value:** %s\n\n", record.BusinessValueNote)
		fmt.Fprintf(&b, "**Confidence:** %.2f\n\n", record.Confidence)
		if len(record.Tags) > 0 {
			fmt.Fprintf(&b, "**Tags:** %s\n\n", strings.Join(record.Tags, ", "))
		}
		if record.Classification == "merge_candidate" {
			fmt.Fprintf(&b, "**Merge candidate:** overlaps %s (similarity %.2f)\n\n",
				record.BestMatchID, record.SimilarityScore)
		}
		if len(record.SourceRefs) > 0 {
			fmt.Fprintf(&b, "**Sources:** %s\n\n", strings.Join(record.SourceRefs, ", "))
		}
	}

	if len(report.Failures) > 0 {
		b.WriteString("## Failures\n\n")
		for _, f := range report.Failures {
			fmt.Fprintf(&b, "- [%s] %s: %s\n", f.Stage, f.Unit, f.Message)
		}
		b.WriteString("\n")
	}

	return []byte(b.String())
}

// WriteMarkdown writes the Markdown rendering of a report to
// dir/<run_id>.md, creating the directory if needed.
func WriteMarkdown(report *pipeline.Report, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	path := filepath.Join(dir, report.RunID+".md")
	if err := os.WriteFile(path, Markdown(report), 0o644); err != nil {
		return "", fmt.Errorf("failed to write Markdown export: %w", err)
	}
	return path, nil
}
