package browsertest

import (
	"context"
	"fmt"
	"strings"

	"github.com/xkilldash9x/passbolt-e2e/internal/browser"
)

// element is a handle on a Node.
type element struct {
	d *Driver
	n *Node
}

var _ browser.Element = (*element)(nil)

// NodeOf returns the node behind an element obtained from this package, or nil.
func NodeOf(el browser.Element) *Node {
	if e, ok := el.(*element); ok {
		return e.n
	}
	return nil
}

func (e *element) check() error {
	if e.d.quit {
		return browser.ErrSessionClosed
	}
	if e.n.removed {
		return fmt.Errorf("%w: %s", browser.ErrStaleElement, e.n.ID)
	}
	return nil
}

func (e *element) Find(ctx context.Context, sel browser.Selector) (browser.Element, error) {
	e.d.mu.Lock()
	defer e.d.mu.Unlock()
	if err := e.check(); err != nil {
		return nil, err
	}
	found := e.d.lookup(e.n.Children, sel)
	if len(found) == 0 {
		return nil, fmt.Errorf("%w: %s", browser.ErrNoSuchElement, sel)
	}
	return &element{d: e.d, n: found[0]}, nil
}

func (e *element) FindAll(ctx context.Context, sel browser.Selector) ([]browser.Element, error) {
	e.d.mu.Lock()
	defer e.d.mu.Unlock()
	if err := e.check(); err != nil {
		return nil, err
	}
	return e.d.wrap(e.d.lookup(e.n.Children, sel)), nil
}

func (e *element) Click(ctx context.Context) error {
	e.d.mu.Lock()
	if err := e.check(); err != nil {
		e.d.mu.Unlock()
		return err
	}
	if e.n.Hidden {
		e.d.mu.Unlock()
		return fmt.Errorf("click failed: element %s is not visible", e.n.ID)
	}
	e.d.focused = e.n.ID
	fn := e.n.OnClick
	e.d.mu.Unlock()
	if fn != nil {
		fn(e.d, e.n)
	}
	return nil
}

func (e *element) RightClick(ctx context.Context) error {
	e.d.mu.Lock()
	if err := e.check(); err != nil {
		e.d.mu.Unlock()
		return err
	}
	fn := e.n.OnRightClick
	e.d.mu.Unlock()
	if fn != nil {
		fn(e.d, e.n)
	}
	return nil
}

func (e *element) SendKeys(ctx context.Context, text string) error {
	e.d.mu.Lock()
	if err := e.check(); err != nil {
		e.d.mu.Unlock()
		return err
	}
	typeInto(e.n, text)
	e.d.focused = e.n.ID
	e.d.Keys = append(e.d.Keys, text)
	fn := e.n.OnKeys
	e.d.mu.Unlock()
	if fn != nil {
		fn(e.d, e.n, text)
	}
	return nil
}

// typeInto applies keystrokes to n's value. Control keys other than backspace
// are ignored.
func typeInto(n *Node, text string) {
	for _, r := range text {
		switch string(r) {
		case browser.KeyBackspace:
			if v := []rune(n.Value); len(v) > 0 {
				n.Value = string(v[:len(v)-1])
			}
		case browser.KeyEnter, browser.KeyTab, browser.KeyEscape, browser.KeyPaste:
		default:
			n.Value += string(r)
		}
	}
}

func (e *element) Clear(ctx context.Context) error {
	e.d.mu.Lock()
	defer e.d.mu.Unlock()
	if err := e.check(); err != nil {
		return err
	}
	e.n.Value = ""
	return nil
}

// SelectOption treats the node's children as options and marks the one whose
// text equals label.
func (e *element) SelectOption(ctx context.Context, label string) error {
	e.d.mu.Lock()
	if err := e.check(); err != nil {
		e.d.mu.Unlock()
		return err
	}
	var picked *Node
	for _, opt := range e.n.Children {
		if strings.TrimSpace(opt.Text) == label {
			picked = opt
			break
		}
	}
	if picked == nil {
		e.d.mu.Unlock()
		return fmt.Errorf("%w: option %q", browser.ErrNoSuchElement, label)
	}
	for _, opt := range e.n.Children {
		opt.Selected = opt == picked
	}
	e.n.Value = picked.Value
	if e.n.Value == "" {
		e.n.Value = label
	}
	fn := e.n.OnChange
	e.d.mu.Unlock()
	if fn != nil {
		fn(e.d, e.n)
	}
	return nil
}

func (e *element) SelectedOption(ctx context.Context) (string, error) {
	e.d.mu.Lock()
	defer e.d.mu.Unlock()
	if err := e.check(); err != nil {
		return "", err
	}
	for _, opt := range e.n.Children {
		if opt.Selected {
			return strings.TrimSpace(opt.Text), nil
		}
	}
	return "", nil
}

func (e *element) Text(ctx context.Context) (string, error) {
	e.d.mu.Lock()
	defer e.d.mu.Unlock()
	if err := e.check(); err != nil {
		return "", err
	}
	if e.n.Hidden {
		return "", nil
	}
	return strings.TrimSpace(e.n.Text), nil
}

func (e *element) Attribute(ctx context.Context, name string) (string, bool, error) {
	e.d.mu.Lock()
	defer e.d.mu.Unlock()
	if err := e.check(); err != nil {
		return "", false, err
	}
	switch name {
	case "id":
		return e.n.ID, e.n.ID != "", nil
	case "value":
		return e.n.Value, true, nil
	case "class":
		return strings.Join(e.n.Classes, " "), len(e.n.Classes) > 0, nil
	}
	v, ok := e.n.Attrs[name]
	return v, ok, nil
}

func (e *element) Value(ctx context.Context) (string, error) {
	e.d.mu.Lock()
	defer e.d.mu.Unlock()
	if err := e.check(); err != nil {
		return "", err
	}
	return e.n.Value, nil
}

func (e *element) CSSValue(ctx context.Context, property string) (string, error) {
	e.d.mu.Lock()
	defer e.d.mu.Unlock()
	if err := e.check(); err != nil {
		return "", err
	}
	return e.n.CSS[property], nil
}

func (e *element) IsDisplayed(ctx context.Context) (bool, error) {
	e.d.mu.Lock()
	defer e.d.mu.Unlock()
	if err := e.check(); err != nil {
		return false, err
	}
	return !e.n.Hidden, nil
}

func (e *element) IsSelected(ctx context.Context) (bool, error) {
	e.d.mu.Lock()
	defer e.d.mu.Unlock()
	if err := e.check(); err != nil {
		return false, err
	}
	return e.n.Selected, nil
}

func (e *element) IsEnabled(ctx context.Context) (bool, error) {
	e.d.mu.Lock()
	defer e.d.mu.Unlock()
	if err := e.check(); err != nil {
		return false, err
	}
	return !e.n.Disabled, nil
}

func (e *element) HasClass(ctx context.Context, class string) (bool, error) {
	e.d.mu.Lock()
	defer e.d.mu.Unlock()
	if err := e.check(); err != nil {
		return false, err
	}
	return e.n.HasClass(class), nil
}
