// internal/browser/driver.go
package browser

import (
	"context"
	"fmt"
	"regexp"
	"time"
)

// By tells a driver how to interpret a Selector value.
type By int

const (
	// ByID matches the element whose id attribute equals the value.
	ByID By = iota
	// ByCSS matches with a CSS selector.
	ByCSS
	// ByIDOrCSS tries the value as an id first and falls back to CSS.
	ByIDOrCSS
)

// Selector locates elements in the current document or frame.
type Selector struct {
	By    By
	Value string
}

// ID selects by element id.
func ID(id string) Selector { return Selector{By: ByID, Value: id} }

// CSS selects with a CSS query.
func CSS(query string) Selector { return Selector{By: ByCSS, Value: query} }

var bareIdentifier = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)

// Resolve turns a loose locator into a Selector. A bare identifier such as
// "loginSubmit" or "body" is tried as an id first and then as CSS; anything else
// is plain CSS.
func Resolve(locator string) Selector {
	if bareIdentifier.MatchString(locator) {
		return Selector{By: ByIDOrCSS, Value: locator}
	}
	return CSS(locator)
}

// Candidates returns the CSS queries a driver should try, in order.
func (s Selector) Candidates() []string {
	byID := fmt.Sprintf(`[id=%q]`, s.Value)
	switch s.By {
	case ByID:
		return []string{byID}
	case ByIDOrCSS:
		return []string{byID, s.Value}
	default:
		return []string{s.Value}
	}
}

func (s Selector) String() string {
	if s.By == ByID {
		return "#" + s.Value
	}
	return s.Value
}

// Cookie is a browser cookie in driver-neutral form. A zero Expiry marks a
// session cookie.
type Cookie struct {
	Name     string    `json:"name" yaml:"name"`
	Value    string    `json:"value" yaml:"value"`
	Domain   string    `json:"domain" yaml:"domain"`
	Path     string    `json:"path" yaml:"path"`
	Secure   bool      `json:"secure" yaml:"secure"`
	HTTPOnly bool      `json:"httpOnly" yaml:"http_only"`
	Expiry   time.Time `json:"expiry" yaml:"expiry"`
}

// Finder looks up elements. Both Driver (document scope) and Element (subtree
// scope) implement it.
type Finder interface {
	// Find returns the first match or an error wrapping ErrNoSuchElement.
	Find(ctx context.Context, sel Selector) (Element, error)
	// FindAll returns every match; an empty result is not an error.
	FindAll(ctx context.Context, sel Selector) ([]Element, error)
}

// Element is a handle on one DOM node. Operations on a node that left the DOM
// fail with ErrStaleElement.
type Element interface {
	Finder

	Click(ctx context.Context) error
	RightClick(ctx context.Context) error
	SendKeys(ctx context.Context, text string) error
	Clear(ctx context.Context) error
	// SelectOption picks the option of a <select> whose visible text is label.
	SelectOption(ctx context.Context, label string) error
	// SelectedOption returns the visible text of the selected option, or "".
	SelectedOption(ctx context.Context) (string, error)

	Text(ctx context.Context) (string, error)
	Attribute(ctx context.Context, name string) (string, bool, error)
	Value(ctx context.Context) (string, error)
	CSSValue(ctx context.Context, property string) (string, error)

	IsDisplayed(ctx context.Context) (bool, error)
	IsSelected(ctx context.Context) (bool, error)
	IsEnabled(ctx context.Context) (bool, error)
	HasClass(ctx context.Context, class string) (bool, error)
}

// Driver is the automation capability the harness is built on: navigation,
// lookup, scripting, cookies, frames and windows. Window handles are opaque strings.
type Driver interface {
	Finder

	Navigate(ctx context.Context, url string) error
	CurrentURL(ctx context.Context) (string, error)
	Title(ctx context.Context) (string, error)

	// ExecuteScript runs a function body in the current frame. The body may use
	// `return` and reads its parameters from `arguments`.
	ExecuteScript(ctx context.Context, script string, args ...any) (any, error)
	// Keyboard sends keys to whatever element currently has focus.
	Keyboard(ctx context.Context, keys string) error
	// ActiveElementID returns the id attribute of the focused element, or "".
	ActiveElementID(ctx context.Context) (string, error)

	Cookies(ctx context.Context) ([]Cookie, error)
	AddCookie(ctx context.Context, c Cookie) error
	DeleteAllCookies(ctx context.Context) error

	SwitchToFrame(ctx context.Context, name string) error
	SwitchToDefault(ctx context.Context) error

	WindowHandles(ctx context.Context) ([]string, error)
	CurrentWindowHandle(ctx context.Context) (string, error)
	// NewWindow opens a blank tab and returns its handle without switching to it.
	NewWindow(ctx context.Context) (string, error)
	SwitchToWindow(ctx context.Context, handle string) error
	// CloseWindow closes the current window. Callers must switch before the next command.
	CloseWindow(ctx context.Context) error

	Screenshot(ctx context.Context) ([]byte, error)
	Maximize(ctx context.Context) error
	Quit(ctx context.Context) error
}

// Special keys understood by SendKeys and Keyboard.
const (
	KeyEnter     = "\r"
	KeyTab       = "\t"
	KeyBackspace = "\b"
	KeyEscape    = "\u001b"
	// KeyPaste is the platform paste shortcut (ctrl+v).
	KeyPaste = "\u0016"
)
