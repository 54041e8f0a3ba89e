package export

import (
	"context"
	"fmt"
	"log"

	"github.com/cloo-solutions/ideaforge/internal/pipeline"
)

// ObjectUploader defines the storage operations the S3 sink needs
type ObjectUploader interface {
	PutObject(ctx context.Context, key string, contentType string, body []byte) error
}

// S3Sink uploads run artifacts to object storage under a fixed prefix:
// runs/<run_id>/report.json and runs/<run_id>/report.md.
type S3Sink struct {
	uploader ObjectUploader
}

// NewS3Sink creates an S3 export sink
func NewS3Sink(uploader ObjectUploader) *S3Sink {
	return &S3Sink{uploader: uploader}
}

// Upload renders and uploads both artifacts for a run. The JSON artifact
// is uploaded first; a Markdown upload failure leaves the JSON in place.
func (s *S3Sink) Upload(ctx context.Context, report *pipeline.Report) error {
	jsonData, err := JSON(report)
	if err != nil {
		return err
	}

	jsonKey := fmt.Sprintf("runs/%s/report.json", report.RunID)
	if err := s.uploader.PutObject(ctx, jsonKey, "application/json", jsonData); err != nil {
		return fmt.Errorf("failed to upload JSON artifact: %w", err)
	}

	mdKey := fmt.Sprintf("runs/%s/report.md", report.RunID)
	if err := s.uploader.PutObject(ctx, mdKey, "text/markdown", Markdown(report)); err != nil {
		return fmt.Errorf("failed to upload Markdown artifact: %w", err)
	}

	log.Printf("run %s: exported artifacts to %s and %s", report.RunID, jsonKey, mdKey)
	return nil
}
