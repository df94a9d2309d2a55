// Package search provides live substring search across a document's text
// blocks. The corpus is one document, so every query change recomputes the
// full result set instead of maintaining an incremental index.
package search

import (
	"strings"
	"sync"

	"ai-ereader-be/pkg/document"
)

// Hit is one matching text block tagged with its page index.
type Hit struct {
	Text string `json:"text"`
	Page int    `json:"page"`
}

// Index scans a document's text blocks for a query string.
type Index struct {
	mu      sync.RWMutex
	blocks  []document.Text
	query   string
	results []Hit
}

// NewIndex creates an index over the given block stream; only text blocks
// are searchable.
func NewIndex(blocks []document.Block) *Index {
	idx := &Index{}
	idx.SetBlocks(blocks)
	return idx
}

// SetBlocks replaces the searchable content, e.g. on document load, and
// recomputes results for the current query.
func (idx *Index) SetBlocks(blocks []document.Block) {
	var texts []document.Text
	for _, b := range blocks {
		if t, ok := b.(document.Text); ok && t.Text != "" {
			texts = append(texts, t)
		}
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.blocks = texts
	idx.recompute()
}

// SetQuery updates the live query. An empty query clears results.
func (idx *Index) SetQuery(q string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.query = q
	idx.recompute()
}

// Results returns the hits for the current query in block order.
func (idx *Index) Results() []Hit {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	out := make([]Hit, len(idx.results))
	copy(out, idx.results)
	return out
}

func (idx *Index) recompute() {
	filters := ParseQuery(idx.query)
	if filters.Query == "" {
		idx.results = nil
		return
	}

	needle := strings.ToLower(filters.Query)
	var hits []Hit
	for _, t := range idx.blocks {
		if filters.Page >= 0 && t.PageIdx != filters.Page {
			continue
		}
		if filters.HeadingsOnly && !t.IsHeading() {
			continue
		}
		if strings.Contains(strings.ToLower(t.Text), needle) {
			hits = append(hits, Hit{Text: t.Text, Page: t.PageIdx})
		}
	}
	idx.results = hits
}
