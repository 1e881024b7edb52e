package audit

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"leadrouter_backend/internal/adapters/storage"
	"leadrouter_backend/internal/audit/repository"
)

// Exporter writes a CSV snapshot of the audit trail to object storage and
// returns a short-lived download link.
type Exporter struct {
	repo   *repository.Repository
	store  storage.ObjectStore
	bucket string
}

func NewExporter(repo *repository.Repository, store storage.ObjectStore, bucket string) *Exporter {
	return &Exporter{repo: repo, store: store, bucket: bucket}
}

// ExportResult describes a finished export.
type ExportResult struct {
	Key         string    `json:"key"`
	Rows        int       `json:"rows"`
	DownloadURL string    `json:"downloadUrl"`
	URLExpires  time.Time `json:"urlExpires"`
}

// ExportSince exports all entries recorded at or after the given time.
func (e *Exporter) ExportSince(ctx context.Context, since time.Time) (ExportResult, error) {
	entries, err := e.repo.ListSince(ctx, since)
	if err != nil {
		return ExportResult{}, err
	}

	data, err := renderCSV(entries)
	if err != nil {
		return ExportResult{}, err
	}

	if err := e.store.EnsureBucketExists(ctx, e.bucket); err != nil {
		return ExportResult{}, err
	}

	key := fmt.Sprintf("audit-%s.csv", time.Now().UTC().Format("20060102-150405"))
	if err := e.store.PutObject(ctx, e.bucket, key, bytes.NewReader(data), int64(len(data)), "text/csv"); err != nil {
		return ExportResult{}, err
	}

	url, expires, err := e.store.PresignedDownloadURL(ctx, e.bucket, key)
	if err != nil {
		return ExportResult{}, err
	}

	return ExportResult{Key: key, Rows: len(entries), DownloadURL: url, URLExpires: expires}, nil
}

func renderCSV(entries []repository.Entry) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"occurred_at", "event_type", "lead_id", "agent_id", "assignment_id", "detail"}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}

	for _, entry := range entries {
		agentID := ""
		if entry.AgentID != nil {
			agentID = entry.AgentID.String()
		}
		assignmentID := ""
		if entry.AssignmentID != nil {
			assignmentID = entry.AssignmentID.String()
		}
		row := []string{
			entry.OccurredAt.UTC().Format(time.RFC3339),
			entry.EventType,
			entry.LeadID.String(),
			agentID,
			assignmentID,
			entry.Detail,
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}

	return buf.Bytes(), nil
}
