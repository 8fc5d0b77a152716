package passbolt

import (
	"errors"
	"fmt"
)

// ErrAssertion is wrapped by every AssertionError.
var ErrAssertion = errors.New("assertion failed")

// AssertionError reports a DOM state that did not match what a test expected.
type AssertionError struct {
	What     string
	Expected any
	Actual   any
}

func (e *AssertionError) Error() string {
	if e.Expected == nil && e.Actual == nil {
		return fmt.Sprintf("%s: %s", ErrAssertion, e.What)
	}
	return fmt.Sprintf("%s: %s: expected %v, got %v", ErrAssertion, e.What, e.Expected, e.Actual)
}

func (e *AssertionError) Unwrap() error { return ErrAssertion }

func fail(what string, expected, actual any) error {
	return &AssertionError{What: what, Expected: expected, Actual: actual}
}
