// Package frames tracks which document the driver is scoped to. The harness only
// ever goes one level deep: from the top-level page into one of the extension's
// named iframes and back.
package frames

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/passbolt-e2e/internal/browser"
)

// Context is the navigator state.
type Context int

const (
	Default Context = iota
	Login
	SecretEdit
	Share
	ShareAutocomplete
	MasterPassword
	GroupEdit
	GroupEditAutocomplete
)

var frameNames = map[Context]string{
	Login:                 "passbolt-iframe-login-form",
	SecretEdit:            "passbolt-iframe-secret-edition",
	Share:                 "passbolt-iframe-password-share",
	ShareAutocomplete:     "passbolt-iframe-password-share-autocomplete",
	MasterPassword:        "passbolt-iframe-master-password",
	GroupEdit:             "passbolt-iframe-group-edit",
	GroupEditAutocomplete: "passbolt-iframe-group-edit-autocomplete",
}

// FrameName is the name (and id) of the iframe backing c, or "" for Default.
func (c Context) FrameName() string { return frameNames[c] }

func (c Context) String() string {
	switch c {
	case Default:
		return "default"
	case Login:
		return "login"
	case SecretEdit:
		return "secret-edit"
	case Share:
		return "share"
	case ShareAutocomplete:
		return "share-autocomplete"
	case MasterPassword:
		return "master-password"
	case GroupEdit:
		return "group-edit"
	case GroupEditAutocomplete:
		return "group-edit-autocomplete"
	}
	return fmt.Sprintf("context(%d)", int(c))
}

// ErrInvalidContext matches every *InvalidContextError.
var ErrInvalidContext = errors.New("invalid frame context")

// InvalidContextError reports an operation attempted from the wrong frame.
type InvalidContextError struct {
	Op     string
	Want   Context
	Got    Context
	Reason string
}

func (e *InvalidContextError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Reason)
	}
	return fmt.Sprintf("%s: want frame context %s, got %s", e.Op, e.Want, e.Got)
}

func (e *InvalidContextError) Unwrap() error { return ErrInvalidContext }

// Navigator moves the driver between the top-level document and the named
// iframes. Not safe for concurrent use.
type Navigator struct {
	driver  browser.Driver
	current Context
	logger  *zap.Logger
}

// New returns a navigator in the Default state.
func New(d browser.Driver, logger *zap.Logger) *Navigator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Navigator{driver: d, logger: logger.Named("frames")}
}

// Current reports the state.
func (n *Navigator) Current() Context { return n.current }

// Reset forgets the frame state without talking to the driver. Used when the
// window changed underneath, since a fresh window always starts at the top level.
func (n *Navigator) Reset(d browser.Driver) {
	if d != nil {
		n.driver = d
	}
	n.current = Default
}

// Enter switches from Default into the iframe for c.
func (n *Navigator) Enter(ctx context.Context, c Context) error {
	if c == Default {
		return &InvalidContextError{Op: "enter", Got: n.current, Reason: "default is not an iframe context"}
	}
	if n.current != Default {
		return &InvalidContextError{Op: "enter " + c.String(), Want: Default, Got: n.current}
	}
	if err := n.driver.SwitchToFrame(ctx, c.FrameName()); err != nil {
		return fmt.Errorf("entering %s: %w", c, err)
	}
	n.current = c
	n.logger.Debug("Entered frame.", zap.String("frame", c.FrameName()))
	return nil
}

// LeaveToDefault returns to the top-level document. It is a no-op in Default.
// The state becomes Default even if the driver call fails.
func (n *Navigator) LeaveToDefault(ctx context.Context) error {
	if n.current == Default {
		return nil
	}
	prev := n.current
	n.current = Default
	if err := n.driver.SwitchToDefault(ctx); err != nil {
		return fmt.Errorf("leaving %s: %w", prev, err)
	}
	n.logger.Debug("Left frame.", zap.String("frame", prev.FrameName()))
	return nil
}

// Within enters c, runs fn and always leaves to Default, also when fn fails or
// panics. An error from fn wins over an error from leaving.
func (n *Navigator) Within(ctx context.Context, c Context, fn func(ctx context.Context) error) (err error) {
	if err := n.Enter(ctx, c); err != nil {
		return err
	}
	defer func() {
		// leave even when ctx is already done
		leaveErr := n.LeaveToDefault(browser.Detach(ctx))
		if r := recover(); r != nil {
			if leaveErr != nil {
				n.logger.Warn("Failed to leave frame while unwinding.", zap.Error(leaveErr))
			}
			panic(r)
		}
		if err == nil {
			err = leaveErr
		}
	}()
	return fn(ctx)
}

// RequireDefault fails unless the navigator is at the top-level document.
func (n *Navigator) RequireDefault() error { return n.Require(Default) }

// Require fails unless the navigator is in c.
func (n *Navigator) Require(c Context) error {
	if n.current != c {
		return &InvalidContextError{Op: "require", Want: c, Got: n.current}
	}
	return nil
}
