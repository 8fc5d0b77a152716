// internal/browser/errors.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoSuchElement means a lookup matched nothing. Waits treat it as "not yet".
	ErrNoSuchElement = errors.New("no such element")
	// ErrStaleElement means a node went away between lookup and use.
	ErrStaleElement = errors.New("stale element reference")
	// ErrNoSuchWindow means a handle does not name an open window.
	ErrNoSuchWindow = errors.New("no such window")
	// ErrNoSuchFrame means no iframe carries the requested name.
	ErrNoSuchFrame = errors.New("no such frame")
	// ErrSessionClosed is returned by every call made after Quit.
	ErrSessionClosed = errors.New("browser session closed")
)

func notFound(sel Selector) error {
	return fmt.Errorf("%w: %s", ErrNoSuchElement, sel)
}

// TryFind looks up sel and reports absence through found=false instead of an
// error. Any error other than a missing element is returned as-is.
func TryFind(ctx context.Context, f Finder, sel Selector) (Element, bool, error) {
	el, err := f.Find(ctx, sel)
	if err != nil {
		if errors.Is(err, ErrNoSuchElement) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return el, true, nil
}

// IsPresent reports whether sel matches at least one element.
func IsPresent(ctx context.Context, f Finder, sel Selector) (bool, error) {
	_, found, err := TryFind(ctx, f, sel)
	return found, err
}

// cdpNodeGone lists the protocol messages returned for nodes that left the DOM.
var cdpNodeGone = []string{
	"No node with given id found",
	"Could not find node with given id",
	"Cannot find context with specified id",
	"Node is detached from document",
}

// classify maps protocol failures onto the package sentinels.
func classify(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	for _, s := range cdpNodeGone {
		if strings.Contains(msg, s) {
			return fmt.Errorf("%w: %v", ErrStaleElement, err)
		}
	}
	return err
}
