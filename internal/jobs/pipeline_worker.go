package jobs

import (
	"context"
	"fmt"
	"log"

	"github.com/cloo-solutions/ideaforge/internal/pipeline"
)

// Runner executes one pipeline run
type Runner interface {
	Run(ctx context.Context) (*pipeline.Report, error)
}

// ReportStore persists run reports for later retrieval
type ReportStore interface {
	Save(report *pipeline.Report)
}

// ExportSink ships run artifacts after a completed run
type ExportSink interface {
	Upload(ctx context.Context, report *pipeline.Report) error
}

// PipelineWorker triggers a pipeline run on every tick. Hard run failures
// are logged and retried implicitly on the next tick; export failures do
// not fail the run, the report is already stored.
type PipelineWorker struct {
	runner Runner
	store  ReportStore
	sink   ExportSink
}

// NewPipelineWorker creates a PipelineWorker. sink may be nil when no
// export destination is configured.
func NewPipelineWorker(runner Runner, store ReportStore, sink ExportSink) *PipelineWorker {
	return &PipelineWorker{
		runner: runner,
		store:  store,
		sink:   sink,
	}
}

// ProcessJobs implements the JobProcessor interface
func (w *PipelineWorker) ProcessJobs(ctx context.Context) error {
	report, err := w.runner.Run(ctx)
	if report != nil {
		w.store.Save(report)
	}
	if err != nil {
		return fmt.Errorf("scheduled run failed: %w", err)
	}

	log.Printf("scheduled run %s completed: %d ideas, %d duplicates discarded",
		report.RunID, len(report.Ideas), len(report.Discarded))

	if w.sink != nil {
		if err := w.sink.Upload(ctx, report); err != nil {
			log.Printf("scheduled run %s: export failed: %v", report.RunID, err)
		}
	}

	return nil
}
