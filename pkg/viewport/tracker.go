// Package viewport resolves which logical page is "current" inside a
// variable-height virtualized scroll container. The selection algorithm is
// pure (item bounds in, index out) so it stays testable without a rendering
// environment; measurement of real element positions is the host's job.
package viewport

import (
	"strings"
	"sync"
)

// Item is one mounted page in the virtualized list. Start and End are scroll
// offsets of the rendered bounds; Text is optional and only needed by
// VisibleText.
type Item struct {
	Index int
	Start float64
	End   float64
	Text  string
}

// Resolve picks the mounted item whose midpoint is closest to the viewport
// center. It returns false when no items are mounted.
func Resolve(items []Item, scrollTop, clientHeight float64) (int, bool) {
	if len(items) == 0 {
		return 0, false
	}

	center := scrollTop + clientHeight/2

	closest := items[0]
	closestDist := abs((items[0].Start+items[0].End)/2 - center)
	for _, item := range items[1:] {
		dist := abs((item.Start+item.End)/2 - center)
		if dist < closestDist {
			closestDist = dist
			closest = item
		}
	}
	return closest.Index, true
}

// VisibleText concatenates the text of every mounted item whose bounds
// intersect the visible scroll range; partial overlap counts. Used to give
// surrounding context to voice queries, not on the scroll hot path.
func VisibleText(items []Item, scrollTop, clientHeight float64) string {
	bottom := scrollTop + clientHeight

	var parts []string
	for _, item := range items {
		if item.End > scrollTop && item.Start < bottom && item.Text != "" {
			parts = append(parts, item.Text)
		}
	}
	return strings.Join(parts, "\n\n")
}

// Tracker keeps the last resolved page index across updates. When an update
// arrives with no mounted items the previous index is retained, so the
// reported page never flickers away mid-remount.
type Tracker struct {
	mu      sync.Mutex
	current int
	valid   bool
}

// NewTracker creates a tracker with no resolved page yet.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Update resolves the current page from a fresh measurement and returns it.
func (t *Tracker) Update(items []Item, scrollTop, clientHeight float64) (int, bool) {
	idx, ok := Resolve(items, scrollTop, clientHeight)

	t.mu.Lock()
	defer t.mu.Unlock()
	if ok {
		t.current = idx
		t.valid = true
	}
	return t.current, t.valid
}

// Current returns the last resolved page index.
func (t *Tracker) Current() (int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current, t.valid
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
