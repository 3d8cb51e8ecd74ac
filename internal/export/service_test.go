// Package export tests for the document import/export service.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	apperrors "github.com/kimhsiao/promptstash/internal/errors"
	"github.com/kimhsiao/promptstash/internal/models"
	"github.com/kimhsiao/promptstash/internal/storage"
	"github.com/kimhsiao/promptstash/internal/store"
	"github.com/kimhsiao/promptstash/internal/timeutil"
	"github.com/kimhsiao/promptstash/internal/uuid"
)

// setupService creates a Service over an in-memory store.
func setupService(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	st := store.New(storage.NewMemoryBackend(), storage.NewMemoryBackend())
	return NewService(st), st
}

// seedPrompt creates one record in the store.
func seedPrompt(t *testing.T, st *store.Store, title, content string, tags ...string) {
	t.Helper()
	if tags == nil {
		tags = []string{}
	}
	err := st.Create(context.Background(), models.Prompt{
		ID:      uuid.New(),
		Title:   title,
		Content: content,
		Tags:    tags,
	})
	if err != nil {
		t.Fatalf("Failed to seed prompt %q: %v", title, err)
	}
}

// TestExportDocumentShape verifies the exported document carries the
// prompts array, a version, and a canonical export date.
func TestExportDocumentShape(t *testing.T) {
	ctx := context.Background()
	svc, st := setupService(t)
	seedPrompt(t, st, "A", "B", "tag1")

	var buf bytes.Buffer
	result, err := svc.Export(ctx, &buf)
	if err != nil {
		t.Fatalf("Export() failed: %v", err)
	}
	if result.ItemCount != 1 {
		t.Errorf("ItemCount = %d, want 1", result.ItemCount)
	}
	if result.SizeBytes != int64(buf.Len()) {
		t.Errorf("SizeBytes = %d, want %d", result.SizeBytes, buf.Len())
	}

	var doc Document
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("Exported document is not valid JSON: %v", err)
	}
	if doc.Version != FormatVersion {
		t.Errorf("Version = %q, want %q", doc.Version, FormatVersion)
	}
	if _, ok := timeutil.Parse(doc.ExportDate); !ok {
		t.Errorf("ExportDate %q is not canonical", doc.ExportDate)
	}
	if len(doc.Prompts) != 1 || doc.Prompts[0].Title != "A" {
		t.Errorf("Prompts = %+v, want the seeded record", doc.Prompts)
	}
}

// failWriter always fails, simulating a broken download stream.
type failWriter struct{}

func (failWriter) Write(p []byte) (int, error) {
	return 0, errors.New("stream closed")
}

// TestExportSurfacesIOError verifies a failed write comes back as an
// export error.
func TestExportSurfacesIOError(t *testing.T) {
	svc, st := setupService(t)
	seedPrompt(t, st, "A", "B")

	_, err := svc.Export(context.Background(), failWriter{})
	if err == nil {
		t.Fatal("Export() to a failing writer should error")
	}
	if !apperrors.Is(err, apperrors.ErrExportFailed) {
		t.Errorf("Export() error code = %v, want EXPORT_FAILED", err)
	}
}

// TestExportToFile verifies the file export path.
func TestExportToFile(t *testing.T) {
	svc, st := setupService(t)
	seedPrompt(t, st, "A", "B")

	path := filepath.Join(t.TempDir(), "out", "prompts.json")
	result, err := svc.ExportToFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ExportToFile() failed: %v", err)
	}
	if result.ItemCount != 1 {
		t.Errorf("ItemCount = %d, want 1", result.ItemCount)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Export file missing: %v", err)
	}
	if !strings.Contains(string(data), `"version": "1.0"`) {
		t.Errorf("Export file missing version field:\n%s", data)
	}
}

// TestImportDeduplicates verifies a candidate matching an existing
// (title, content) pair is rejected while a differing one is added
// with order continuing from the current maximum.
func TestImportDeduplicates(t *testing.T) {
	ctx := context.Background()
	svc, st := setupService(t)
	seedPrompt(t, st, "A", "B")

	doc := `{"prompts":[
		{"id":"` + uuid.New() + `","title":"A","content":"B"},
		{"id":"` + uuid.New() + `","title":"A","content":"different"}
	],"exportDate":"2024-01-01T00:00:00.000Z","version":"1.0"}`

	result := svc.Import(ctx, strings.NewReader(doc))
	if !result.OK() {
		t.Fatalf("Import() failed with code %q", result.Code)
	}
	if result.Added != 1 {
		t.Errorf("Added = %d, want 1", result.Added)
	}
	if result.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", result.Skipped)
	}

	records := st.List(ctx)
	if len(records) != 2 {
		t.Fatalf("Store holds %d records, want 2", len(records))
	}
	// Existing record has order 0; the import continues from max+1.
	added := records[1]
	if added.Content != "different" {
		t.Errorf("Added record = %+v, want content 'different'", added)
	}
	if added.Order != 1 {
		t.Errorf("Added order = %d, want 1", added.Order)
	}
}

// TestImportExactDuplicateOnly verifies imported count is zero when
// every candidate duplicates the existing collection.
func TestImportExactDuplicateOnly(t *testing.T) {
	ctx := context.Background()
	svc, st := setupService(t)
	seedPrompt(t, st, "A", "B")

	doc := `{"prompts":[{"id":"` + uuid.New() + `","title":"A","content":"B"}]}`
	result := svc.Import(ctx, strings.NewReader(doc))
	if !result.OK() {
		t.Fatalf("Import() failed with code %q", result.Code)
	}
	if result.Added != 0 {
		t.Errorf("Added = %d, want 0", result.Added)
	}
	if len(st.List(ctx)) != 1 {
		t.Error("Duplicate import changed the collection")
	}
}

// TestImportMissingPromptsField verifies documents without a prompts
// array fail with a format error and import nothing.
func TestImportMissingPromptsField(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"missing field", `{"exportDate":"2024-01-01T00:00:00.000Z","version":"1.0"}`},
		{"null prompts", `{"prompts":null}`},
		{"prompts not an array", `{"prompts":{"a":1}}`},
		{"prompts is a string", `{"prompts":"nope"}`},
		{"not json", `this is not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, st := setupService(t)
			result := svc.Import(context.Background(), strings.NewReader(tt.doc))
			if result.OK() {
				t.Fatal("Import() should fail")
			}
			if result.Code != apperrors.ErrImportFormat {
				t.Errorf("Code = %q, want IMPORT_FORMAT", result.Code)
			}
			if result.Added != 0 {
				t.Errorf("Added = %d, want 0", result.Added)
			}
			if len(st.List(context.Background())) != 0 {
				t.Error("Failed import must not partially apply")
			}
		})
	}
}

// TestImportDropsInvalidCandidates verifies records missing required
// fields are dropped silently while the rest of the import proceeds.
func TestImportDropsInvalidCandidates(t *testing.T) {
	ctx := context.Background()
	svc, st := setupService(t)

	doc := `{"prompts":[
		{"title":"no id","content":"x"},
		{"id":"` + uuid.New() + `","content":"no title"},
		{"id":"` + uuid.New() + `","title":"no content"},
		{"id":"` + uuid.New() + `","title":"   ","content":"blank title"},
		{"id":"` + uuid.New() + `","title":"good","content":"kept"}
	]}`

	result := svc.Import(ctx, strings.NewReader(doc))
	if !result.OK() {
		t.Fatalf("Import() failed with code %q", result.Code)
	}
	if result.Added != 1 {
		t.Errorf("Added = %d, want 1", result.Added)
	}
	if result.Skipped != 4 {
		t.Errorf("Skipped = %d, want 4", result.Skipped)
	}

	records := st.List(ctx)
	if len(records) != 1 || records[0].Title != "good" {
		t.Errorf("Store = %+v, want only the valid candidate", records)
	}
}

// TestImportDefaultsTagsAndTimestamps verifies missing tags become
// empty and invalid timestamps are substituted with now.
func TestImportDefaultsTagsAndTimestamps(t *testing.T) {
	ctx := context.Background()
	svc, st := setupService(t)

	doc := `{"prompts":[{"id":"` + uuid.New() + `","title":"t","content":"c","createdAt":"garbage"}]}`
	result := svc.Import(ctx, strings.NewReader(doc))
	if !result.OK() || result.Added != 1 {
		t.Fatalf("Import() = %+v, want 1 added", result)
	}

	got := st.List(ctx)[0]
	if got.Tags == nil || len(got.Tags) != 0 {
		t.Errorf("Tags = %v, want empty", got.Tags)
	}
	if _, ok := timeutil.Parse(got.CreatedAt); !ok {
		t.Errorf("CreatedAt %q was not substituted", got.CreatedAt)
	}
	if _, ok := timeutil.Parse(got.UpdatedAt); !ok {
		t.Errorf("UpdatedAt %q was not substituted", got.UpdatedAt)
	}
}

// TestImportNumericTimestampsAccepted verifies epoch timestamps in
// import candidates normalize to canonical strings.
func TestImportNumericTimestampsAccepted(t *testing.T) {
	ctx := context.Background()
	svc, st := setupService(t)

	doc := `{"prompts":[{"id":"` + uuid.New() + `","title":"t","content":"c","createdAt":1700000000,"updatedAt":1700000000000}]}`
	result := svc.Import(ctx, strings.NewReader(doc))
	if !result.OK() || result.Added != 1 {
		t.Fatalf("Import() = %+v, want 1 added", result)
	}

	got := st.List(ctx)[0]
	created, _ := timeutil.Parse(got.CreatedAt)
	updated, _ := timeutil.Parse(got.UpdatedAt)
	if !created.Equal(updated) {
		t.Errorf("Epoch forms diverged: %q vs %q", got.CreatedAt, got.UpdatedAt)
	}
}

// TestImportIntraBatchDuplicate verifies two identical candidates in
// one document add only once.
func TestImportIntraBatchDuplicate(t *testing.T) {
	ctx := context.Background()
	svc, st := setupService(t)

	doc := `{"prompts":[
		{"id":"` + uuid.New() + `","title":"same","content":"body"},
		{"id":"` + uuid.New() + `","title":"same","content":"body"}
	]}`

	result := svc.Import(ctx, strings.NewReader(doc))
	if result.Added != 1 || result.Skipped != 1 {
		t.Errorf("Import() = %+v, want 1 added 1 skipped", result)
	}
	if len(st.List(ctx)) != 1 {
		t.Error("Intra-batch duplicate was stored twice")
	}
}

// TestImportRoundTrip verifies an exported document imports cleanly
// into an empty store.
func TestImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	src, srcStore := setupService(t)
	seedPrompt(t, srcStore, "one", "alpha", "x")
	seedPrompt(t, srcStore, "two", "beta")

	var buf bytes.Buffer
	if _, err := src.Export(ctx, &buf); err != nil {
		t.Fatalf("Export() failed: %v", err)
	}

	dst, dstStore := setupService(t)
	result := dst.Import(ctx, &buf)
	if !result.OK() || result.Added != 2 {
		t.Fatalf("Import() = %+v, want 2 added", result)
	}

	records := dstStore.List(ctx)
	if len(records) != 2 {
		t.Fatalf("Store holds %d records, want 2", len(records))
	}
	if records[0].Title != "one" || records[1].Title != "two" {
		t.Errorf("Order lost in round trip: %+v", records)
	}
}

// TestImportFileMissing verifies a missing file yields a failed
// outcome, not a panic or raised error.
func TestImportFileMissing(t *testing.T) {
	svc, _ := setupService(t)
	result := svc.ImportFile(context.Background(), filepath.Join(t.TempDir(), "absent.json"))
	if result.OK() {
		t.Fatal("ImportFile() on a missing file should fail")
	}
	if result.Code != apperrors.ErrImportFailed {
		t.Errorf("Code = %q, want IMPORT_FAILED", result.Code)
	}
}

// TestImportMessageKeys verifies outcome-to-catalog-key mapping.
func TestImportMessageKeys(t *testing.T) {
	tests := []struct {
		name   string
		result ImportResult
		want   string
	}{
		{"success", ImportResult{Added: 2}, "import.success"},
		{"format error", ImportResult{Code: apperrors.ErrImportFormat}, "import.invalid_format"},
		{"other failure", ImportResult{Code: apperrors.ErrImportFailed}, "import.failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.result.MessageKey(); got != tt.want {
				t.Errorf("MessageKey() = %q, want %q", got, tt.want)
			}
		})
	}
}
