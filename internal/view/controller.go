// Package view maintains the in-memory prompt list and its filtered
// projection used by the CLI and HTTP surfaces.
package view

import (
	"context"
	"sort"
	"strings"

	"github.com/kimhsiao/promptstash/internal/models"
	"github.com/kimhsiao/promptstash/internal/store"
	"github.com/kimhsiao/promptstash/internal/uuid"
)

// Controller holds the authoritative collection copy plus the active
// search and tag filters. It is not safe for concurrent use; the HTTP
// layer serializes access.
type Controller struct {
	store *store.Store

	prompts []models.Prompt
	search  string
	tag     string
}

// NewController creates a controller and loads the current collection.
func NewController(ctx context.Context, s *store.Store) *Controller {
	c := &Controller{store: s}
	c.Refresh(ctx)
	return c
}

// Refresh reloads the collection from the store.
func (c *Controller) Refresh(ctx context.Context) {
	c.prompts = c.store.List(ctx)
}

// SetSearch updates the search filter.
func (c *Controller) SetSearch(query string) {
	c.search = query
}

// SetTag updates the selected tag filter. Empty clears it.
func (c *Controller) SetTag(tag string) {
	c.tag = tag
}

// All returns the full collection in store order.
func (c *Controller) All() []models.Prompt {
	out := make([]models.Prompt, len(c.prompts))
	for i, p := range c.prompts {
		out[i] = p.Clone()
	}
	return out
}

// Visible returns the records matching both active filters, preserving
// store order.
func (c *Controller) Visible() []models.Prompt {
	out := make([]models.Prompt, 0, len(c.prompts))
	for _, p := range c.prompts {
		if c.matches(p) {
			out = append(out, p.Clone())
		}
	}
	return out
}

// Get returns the record with the given id.
func (c *Controller) Get(id string) (models.Prompt, bool) {
	for _, p := range c.prompts {
		if p.ID == id {
			return p.Clone(), true
		}
	}
	return models.Prompt{}, false
}

// Tags returns the distinct tags across the collection, deduplicated
// case-insensitively and sorted. Storage keeps duplicates; only the
// listing collapses them.
func (c *Controller) Tags() []string {
	seen := make(map[string]string)
	for _, p := range c.prompts {
		for _, t := range p.Tags {
			key := strings.ToLower(t)
			if _, ok := seen[key]; !ok {
				seen[key] = t
			}
		}
	}
	out := make([]string, 0, len(seen))
	for _, t := range seen {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i]) < strings.ToLower(out[j])
	})
	return out
}

// Add creates a new record and refreshes the view.
func (c *Controller) Add(ctx context.Context, title, content string, tags []string) (models.Prompt, error) {
	if tags == nil {
		tags = []string{}
	}
	p := models.Prompt{
		ID:      uuid.New(),
		Title:   title,
		Content: content,
		Tags:    tags,
	}
	if err := c.store.Create(ctx, p); err != nil {
		return models.Prompt{}, err
	}
	c.Refresh(ctx)
	created, _ := c.Get(p.ID)
	return created, nil
}

// Edit updates an existing record and refreshes the view. A missing id
// is a no-op, matching the store.
func (c *Controller) Edit(ctx context.Context, p models.Prompt) error {
	if err := c.store.Update(ctx, p); err != nil {
		return err
	}
	c.Refresh(ctx)
	return nil
}

// Remove deletes a record and refreshes the view.
func (c *Controller) Remove(ctx context.Context, id string) error {
	if err := c.store.Delete(ctx, id); err != nil {
		return err
	}
	c.Refresh(ctx)
	return nil
}

// Move repositions the record with the given id to the target index in
// the full collection, then rewrites dense order values. Out-of-range
// targets clamp to the ends. Unknown ids are a no-op.
func (c *Controller) Move(ctx context.Context, id string, to int) error {
	from := -1
	for i, p := range c.prompts {
		if p.ID == id {
			from = i
			break
		}
	}
	if from == -1 {
		return nil
	}
	if to < 0 {
		to = 0
	}
	if to >= len(c.prompts) {
		to = len(c.prompts) - 1
	}
	if to == from {
		return nil
	}

	reordered := make([]models.Prompt, 0, len(c.prompts))
	reordered = append(reordered, c.prompts[:from]...)
	reordered = append(reordered, c.prompts[from+1:]...)
	reordered = append(reordered[:to], append([]models.Prompt{c.prompts[from]}, reordered[to:]...)...)

	if err := c.store.Reorder(ctx, reordered); err != nil {
		return err
	}
	c.Refresh(ctx)
	return nil
}

// matches reports whether a record passes both active filters.
func (c *Controller) matches(p models.Prompt) bool {
	if c.tag != "" && !p.HasTag(c.tag) {
		return false
	}
	if c.search == "" {
		return true
	}
	needle := strings.ToLower(c.search)
	if strings.Contains(strings.ToLower(p.Title), needle) {
		return true
	}
	if strings.Contains(strings.ToLower(p.Content), needle) {
		return true
	}
	for _, t := range p.Tags {
		if strings.Contains(strings.ToLower(t), needle) {
			return true
		}
	}
	return false
}
