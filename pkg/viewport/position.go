package viewport

import "sync"

// Restore applies a previously saved page index to the virtualization layer
// exactly once per document load. After the first application the state is
// permanently settled; the index briefly re-equaling the target during
// normal scrolling must never trigger another jump.
type Restore struct {
	mu      sync.Mutex
	target  int
	hasTgt  bool
	applied bool
}

// NewRestore creates the restore state for a document load. A nil or zero
// saved index means there is nothing to jump to, so the state starts already
// applied.
func NewRestore(saved *int) *Restore {
	r := &Restore{}
	if saved == nil || *saved <= 0 {
		r.applied = true
		return r
	}
	r.target = *saved
	r.hasTgt = true
	return r
}

// Apply invokes jump with the saved index on the first call only. jump is
// expected to instruct the virtualizer to scroll the index to the top of the
// viewport.
func (r *Restore) Apply(jump func(index int)) {
	r.mu.Lock()
	if r.applied {
		r.mu.Unlock()
		return
	}
	r.applied = true
	target := r.target
	r.mu.Unlock()

	jump(target)
}

// Target returns the saved index and whether one exists.
func (r *Restore) Target() (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.target, r.hasTgt
}

// Settled reports whether the loading gate may lift: either there was no
// target, or the tracker has resolved the target page.
func (r *Restore) Settled(current int, resolved bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.hasTgt {
		return true
	}
	return resolved && current == r.target
}
