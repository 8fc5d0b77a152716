package tabs

import (
	"errors"
	"fmt"
)

// ErrNoSuchTab is returned when a tab index falls outside the registry.
var ErrNoSuchTab = errors.New("no such tab")

// Registry keeps the ordered window handles and which one is current. The
// current handle is expected to equal the driver's active window; Coordinator
// keeps them in step.
type Registry struct {
	handles []string
	current int
}

// NewRegistry returns a registry holding handles with current as the active one.
func NewRegistry(handles []string, current string) *Registry {
	r := &Registry{}
	r.Reset(handles, current)
	return r
}

// Reset replaces the contents. An unknown current leaves no tab selected.
func (r *Registry) Reset(handles []string, current string) {
	r.handles = append([]string(nil), handles...)
	r.current = r.indexOf(current)
}

func (r *Registry) indexOf(h string) int {
	for i, have := range r.handles {
		if have == h {
			return i
		}
	}
	return -1
}

// Append adds h at the end unless it is already known, and returns its index.
func (r *Registry) Append(h string) int {
	if i := r.indexOf(h); i >= 0 {
		return i
	}
	r.handles = append(r.handles, h)
	return len(r.handles) - 1
}

// Remove drops h. Removing the current tab leaves no tab selected.
func (r *Registry) Remove(h string) {
	i := r.indexOf(h)
	if i < 0 {
		return
	}
	r.handles = append(r.handles[:i], r.handles[i+1:]...)
	switch {
	case i == r.current:
		r.current = -1
	case i < r.current:
		r.current--
	}
}

// Len reports the number of known tabs.
func (r *Registry) Len() int { return len(r.handles) }

// Index reports the current position, -1 when none is selected.
func (r *Registry) Index() int { return r.current }

// Current returns the active handle.
func (r *Registry) Current() (string, bool) {
	if r.current < 0 || r.current >= len(r.handles) {
		return "", false
	}
	return r.handles[r.current], true
}

// At returns the handle at i.
func (r *Registry) At(i int) (string, error) {
	if i < 0 || i >= len(r.handles) {
		return "", fmt.Errorf("%w: index %d of %d", ErrNoSuchTab, i, len(r.handles))
	}
	return r.handles[i], nil
}

// Select makes i current.
func (r *Registry) Select(i int) error {
	if _, err := r.At(i); err != nil {
		return err
	}
	r.current = i
	return nil
}

// Handles returns a copy of the handles in order.
func (r *Registry) Handles() []string { return append([]string(nil), r.handles...) }
