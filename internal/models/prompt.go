// Package models provides data model definitions for PromptStash.
package models

import (
	"strings"
	"time"

	"github.com/kimhsiao/promptstash/internal/timeutil"
)

// Prompt represents one stored prompt snippet.
//
// Timestamps are carried as canonical RFC 3339 strings, not native time
// values, so records survive the JSON serialization boundary of
// whichever backend holds them.
type Prompt struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	Tags      []string `json:"tags"`
	CreatedAt string   `json:"createdAt"`
	UpdatedAt string   `json:"updatedAt"`
	Order     int      `json:"order"`
}

// CreatedAtTime returns CreatedAt as time.Time, substituting the current
// time when the stored value cannot be parsed.
func (p *Prompt) CreatedAtTime() time.Time {
	return timeutil.NormalizeOrNow(p.CreatedAt)
}

// UpdatedAtTime returns UpdatedAt as time.Time, substituting the current
// time when the stored value cannot be parsed.
func (p *Prompt) UpdatedAtTime() time.Time {
	return timeutil.NormalizeOrNow(p.UpdatedAt)
}

// Touch updates the UpdatedAt timestamp.
func (p *Prompt) Touch() {
	p.UpdatedAt = timeutil.Format(time.Now())
}

// Valid reports whether the record carries the required fields.
func (p *Prompt) Valid() bool {
	return p.ID != "" && strings.TrimSpace(p.Title) != "" && strings.TrimSpace(p.Content) != ""
}

// HasTag reports whether the record carries the tag, compared
// case-insensitively. Storage keeps duplicate tags as entered;
// matching and deduplication happen at the display layer only.
func (p *Prompt) HasTag(tag string) bool {
	for _, t := range p.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers can mutate records without
// aliasing the controller's cached collection.
func (p *Prompt) Clone() Prompt {
	out := *p
	if p.Tags != nil {
		out.Tags = append(make([]string, 0, len(p.Tags)), p.Tags...)
	}
	return out
}
