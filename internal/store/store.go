// Package store persists the ordered prompt collection.
//
// The whole collection lives under a single fixed key as a JSON array
// of records; every mutating operation performs read-modify-write of
// the entire collection. That is acceptable only because the dataset is
// small and single-writer; if concurrent access is ever introduced,
// this layer needs versioned writes with conflict detection.
package store

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	apperrors "github.com/kimhsiao/promptstash/internal/errors"
	"github.com/kimhsiao/promptstash/internal/logging"
	"github.com/kimhsiao/promptstash/internal/models"
	"github.com/kimhsiao/promptstash/internal/storage"
	"github.com/kimhsiao/promptstash/internal/timeutil"
)

// CollectionKey is the fixed key the serialized collection lives under,
// in both the primary and the fallback namespace.
const CollectionKey = "prompts"

// Store provides CRUD and reorder operations over the prompt
// collection. Construct it with New; backends are injected so tests can
// substitute in-memory fakes.
type Store struct {
	primary  storage.Backend
	fallback storage.Backend
}

// New creates a Store over the given primary and fallback backends.
func New(primary, fallback storage.Backend) *Store {
	return &Store{primary: primary, fallback: fallback}
}

// rawPrompt mirrors the wire shape with loose timestamp and order
// fields, so records written by older builds (numeric epochs, missing
// fields) still decode.
type rawPrompt struct {
	ID        string      `json:"id"`
	Title     string      `json:"title"`
	Content   string      `json:"content"`
	Tags      interface{} `json:"tags"`
	CreatedAt interface{} `json:"createdAt"`
	UpdatedAt interface{} `json:"updatedAt"`
	Order     interface{} `json:"order"`
}

// List returns every stored record sorted by order ascending. It never
// fails: a primary read failure falls back to the secondary namespace,
// and a failure there degrades to an empty collection. Timestamps pass
// through the normalizer's current-time fallback, so one corrupted
// record never blocks the whole list from loading.
func (s *Store) List(ctx context.Context) []models.Prompt {
	records := s.load(ctx)
	out := make([]models.Prompt, len(records))
	for i := range records {
		out[i] = records[i].Clone()
	}
	return out
}

// Create appends one record and persists the full collection. The id
// is pre-assigned by the caller; missing timestamps are set to now and
// the record is placed at the end of the display order.
func (s *Store) Create(ctx context.Context, p models.Prompt) error {
	now := timeutil.Format(time.Now())
	if _, ok := timeutil.Parse(p.CreatedAt); !ok {
		p.CreatedAt = now
	}
	if _, ok := timeutil.Parse(p.UpdatedAt); !ok {
		p.UpdatedAt = now
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}

	records := s.load(ctx)
	p.Order = len(records)
	records = append(records, p)
	return s.save(ctx, records)
}

// Update replaces the record matching p.ID, keeping the stored id,
// creation timestamp, and display order. An unknown id is a silent
// no-op: the collection is left unchanged and no error is returned.
func (s *Store) Update(ctx context.Context, p models.Prompt) error {
	records := s.load(ctx)
	for i := range records {
		if records[i].ID != p.ID {
			continue
		}
		p.CreatedAt = records[i].CreatedAt
		p.Order = records[i].Order
		if p.Tags == nil {
			p.Tags = []string{}
		}
		p.Touch()
		records[i] = p
		return s.save(ctx, records)
	}
	return nil
}

// Delete removes the record matching id. An unknown id is a silent
// no-op.
func (s *Store) Delete(ctx context.Context, id string) error {
	records := s.load(ctx)
	for i := range records {
		if records[i].ID == id {
			records = append(records[:i], records[i+1:]...)
			return s.save(ctx, records)
		}
	}
	return nil
}

// Reorder accepts the full collection in its new display order,
// rewrites every order field to the positional index, and persists.
func (s *Store) Reorder(ctx context.Context, records []models.Prompt) error {
	out := make([]models.Prompt, len(records))
	for i := range records {
		out[i] = records[i].Clone()
		out[i].Order = i
	}
	return s.save(ctx, out)
}

// Replace persists the given records verbatim (orders untouched). Used
// by the import service after it has merged and numbered candidates.
func (s *Store) Replace(ctx context.Context, records []models.Prompt) error {
	out := make([]models.Prompt, len(records))
	for i := range records {
		out[i] = records[i].Clone()
	}
	return s.save(ctx, out)
}

// load reads and decodes the collection: primary, then fallback, then
// empty. A missing key is a fresh install, not a failure, and does not
// engage the fallback.
func (s *Store) load(ctx context.Context) []models.Prompt {
	data, err := s.primary.Get(ctx, CollectionKey)
	if err == storage.ErrKeyNotFound {
		return nil
	}
	if err != nil {
		logging.ErrorWithCode("primary backend unreadable, trying fallback",
			string(apperrors.ErrStorage), err,
			map[string]interface{}{"backend": s.primary.Name()})
		data, err = s.fallback.Get(ctx, CollectionKey)
		if err != nil {
			if err != storage.ErrKeyNotFound {
				logging.ErrorWithCode("fallback backend unreadable, degrading to empty collection",
					string(apperrors.ErrStorageFallback), err,
					map[string]interface{}{"backend": s.fallback.Name()})
			}
			return nil
		}
	}
	return s.decode(data)
}

// decode unmarshals the stored value record by record, degrading
// malformed timestamps to now and deriving order from array position
// where the stored value is unusable.
func (s *Store) decode(data []byte) []models.Prompt {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		logging.ErrorWithCode("stored collection is not an array, degrading to empty",
			string(apperrors.ErrRecordMalformed), err, nil)
		return nil
	}

	records := make([]models.Prompt, 0, len(raws))
	for i, raw := range raws {
		var r rawPrompt
		if err := json.Unmarshal(raw, &r); err != nil {
			logging.ErrorWithCode("skipping undecodable record",
				string(apperrors.ErrRecordMalformed), err,
				map[string]interface{}{"index": i})
			continue
		}
		records = append(records, s.coerce(r, i))
	}

	sort.SliceStable(records, func(a, b int) bool {
		return records[a].Order < records[b].Order
	})
	return records
}

// coerce builds a canonical record from a loosely decoded one.
func (s *Store) coerce(r rawPrompt, position int) models.Prompt {
	createdAt, createdOK := timeutil.Normalize(r.CreatedAt)
	updatedAt, updatedOK := timeutil.Normalize(r.UpdatedAt)
	if !createdOK || !updatedOK {
		logging.Warn("record timestamp degraded to now",
			map[string]interface{}{"id": r.ID})
	}
	if !createdOK {
		createdAt = time.Now()
	}
	if !updatedOK {
		updatedAt = time.Now()
	}

	order := position
	switch v := r.Order.(type) {
	case float64:
		order = int(v)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			order = int(n)
		}
	}

	tags := []string{}
	if list, ok := r.Tags.([]interface{}); ok {
		for _, item := range list {
			if tag, ok := item.(string); ok {
				tags = append(tags, tag)
			}
		}
	}

	return models.Prompt{
		ID:        r.ID,
		Title:     r.Title,
		Content:   r.Content,
		Tags:      tags,
		CreatedAt: timeutil.Format(createdAt),
		UpdatedAt: timeutil.Format(updatedAt),
		Order:     order,
	}
}

// save serializes and writes the whole collection. A primary write
// failure is mirrored to the fallback so the next read still sees the
// mutation; only a failure of both backends surfaces.
func (s *Store) save(ctx context.Context, records []models.Prompt) error {
	data, err := json.Marshal(records)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternal, "failed to serialize collection", err)
	}

	if err := s.primary.Set(ctx, CollectionKey, data); err != nil {
		logging.ErrorWithCode("primary backend write failed, writing fallback",
			string(apperrors.ErrStorage), err,
			map[string]interface{}{"backend": s.primary.Name()})
		if fbErr := s.fallback.Set(ctx, CollectionKey, data); fbErr != nil {
			return apperrors.Wrap(apperrors.ErrStorageFallback,
				"both backends rejected the write", fbErr)
		}
	}
	return nil
}
