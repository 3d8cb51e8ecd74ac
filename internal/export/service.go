// Package export provides import/export of the prompt collection as a
// versioned JSON document.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	apperrors "github.com/kimhsiao/promptstash/internal/errors"
	"github.com/kimhsiao/promptstash/internal/logging"
	"github.com/kimhsiao/promptstash/internal/models"
	"github.com/kimhsiao/promptstash/internal/store"
	"github.com/kimhsiao/promptstash/internal/timeutil"
)

// FormatVersion is the export document format version.
const FormatVersion = "1.0"

// Service provides export/import functionality over the record store.
type Service struct {
	store *store.Store
}

// NewService creates a new Service.
func NewService(st *store.Store) *Service {
	return &Service{store: st}
}

// Document is the export/import wire shape. Only the prompts field is
// required on import.
type Document struct {
	Prompts    []models.Prompt `json:"prompts"`
	ExportDate string          `json:"exportDate"`
	Version    string          `json:"version"`
}

// ExportResult represents the result of an export operation.
type ExportResult struct {
	ItemCount int
	SizeBytes int64
}

// ImportResult represents the outcome of an import. Failures are
// captured here rather than raised: Code is empty on success and names
// the failure otherwise. The surface maps MessageKey through the i18n
// catalog to produce user-facing text.
type ImportResult struct {
	Added   int
	Skipped int
	Code    apperrors.ErrorCode
}

// OK reports whether the import succeeded.
func (r *ImportResult) OK() bool {
	return r.Code == ""
}

// MessageKey returns the i18n catalog key for this outcome.
func (r *ImportResult) MessageKey() string {
	switch r.Code {
	case "":
		return "import.success"
	case apperrors.ErrImportFormat:
		return "import.invalid_format"
	default:
		return "import.failed"
	}
}

// Export writes the full collection as a versioned document. A failed
// write surfaces as an error, the one operation in this layer that
// does.
func (s *Service) Export(ctx context.Context, w io.Writer) (*ExportResult, error) {
	records := s.store.List(ctx)

	doc := Document{
		Prompts:    records,
		ExportDate: timeutil.Format(time.Now()),
		Version:    FormatVersion,
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrExportFailed, "failed to serialize document", err)
	}

	n, err := w.Write(data)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrExportFailed, "failed to write document", err)
	}

	return &ExportResult{ItemCount: len(records), SizeBytes: int64(n)}, nil
}

// ExportToFile writes the document to path, creating parent directories.
func (s *Service) ExportToFile(ctx context.Context, path string) (*ExportResult, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrExportFailed, "failed to create export directory", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrExportFailed, "failed to create export file", err)
	}
	defer f.Close()

	result, err := s.Export(ctx, f)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// DefaultExportName returns the conventional file name for an export
// taken now.
func DefaultExportName(now time.Time) string {
	return fmt.Sprintf("promptstash_%s.json", now.Format("20060102_150405"))
}

// looseDocument reads the import payload without committing to a
// record shape, so the prompts field can be validated explicitly.
type looseDocument struct {
	Prompts json.RawMessage `json:"prompts"`
}

// looseRecord mirrors one import candidate with loose timestamp fields.
type looseRecord struct {
	ID        string      `json:"id"`
	Title     string      `json:"title"`
	Content   string      `json:"content"`
	Tags      []string    `json:"tags"`
	CreatedAt interface{} `json:"createdAt"`
	UpdatedAt interface{} `json:"updatedAt"`
}

// Import merges a document into the collection. It never raises past
// its own boundary: malformed documents and storage failures come back
// as a negative-outcome result.
//
// Candidates missing id, title, or content are dropped silently; a
// candidate whose (title, content) exactly matches an existing or
// already-accepted record is skipped as a duplicate; survivors get a
// fresh order continuing from the current maximum, timestamps
// substituted with now when invalid, and tags defaulted to empty.
func (s *Service) Import(ctx context.Context, r io.Reader) *ImportResult {
	data, err := io.ReadAll(r)
	if err != nil {
		logging.ErrorWithCode("import read failed", string(apperrors.ErrImportFailed), err, nil)
		return &ImportResult{Code: apperrors.ErrImportFailed}
	}

	var doc looseDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return &ImportResult{Code: apperrors.ErrImportFormat}
	}
	if len(doc.Prompts) == 0 || string(doc.Prompts) == "null" {
		return &ImportResult{Code: apperrors.ErrImportFormat}
	}

	var candidates []json.RawMessage
	if err := json.Unmarshal(doc.Prompts, &candidates); err != nil {
		// prompts present but not an array
		return &ImportResult{Code: apperrors.ErrImportFormat}
	}

	existing := s.store.List(ctx)
	seen := make(map[dedupeKey]bool, len(existing))
	nextOrder := 0
	for _, p := range existing {
		seen[dedupeKey{p.Title, p.Content}] = true
		if p.Order >= nextOrder {
			nextOrder = p.Order + 1
		}
	}

	result := &ImportResult{}
	merged := existing
	now := timeutil.Format(time.Now())

	for _, raw := range candidates {
		var rec looseRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			result.Skipped++
			continue
		}
		if rec.ID == "" || strings.TrimSpace(rec.Title) == "" || strings.TrimSpace(rec.Content) == "" {
			result.Skipped++
			continue
		}
		key := dedupeKey{rec.Title, rec.Content}
		if seen[key] {
			result.Skipped++
			continue
		}
		seen[key] = true

		p := models.Prompt{
			ID:        rec.ID,
			Title:     rec.Title,
			Content:   rec.Content,
			Tags:      rec.Tags,
			CreatedAt: coerceTimestamp(rec.CreatedAt, now),
			UpdatedAt: coerceTimestamp(rec.UpdatedAt, now),
			Order:     nextOrder,
		}
		if p.Tags == nil {
			p.Tags = []string{}
		}
		nextOrder++
		merged = append(merged, p)
		result.Added++
	}

	if result.Added > 0 {
		if err := s.store.Replace(ctx, merged); err != nil {
			logging.ErrorWithCode("import persist failed", string(apperrors.ErrImportFailed), err, nil)
			return &ImportResult{Skipped: result.Skipped, Code: apperrors.ErrImportFailed}
		}
	}
	return result
}

// ImportFile merges a document read from path.
func (s *Service) ImportFile(ctx context.Context, path string) *ImportResult {
	f, err := os.Open(path)
	if err != nil {
		logging.ErrorWithCode("import open failed", string(apperrors.ErrImportFailed), err,
			map[string]interface{}{"path": path})
		return &ImportResult{Code: apperrors.ErrImportFailed}
	}
	defer f.Close()
	return s.Import(ctx, f)
}

// dedupeKey is the exact (title, content) match key.
type dedupeKey struct {
	title   string
	content string
}

func coerceTimestamp(raw interface{}, fallback string) string {
	if t, ok := timeutil.Normalize(raw); ok {
		return timeutil.Format(t)
	}
	return fallback
}
