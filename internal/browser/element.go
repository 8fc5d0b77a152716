// internal/browser/element.go
package browser

import (
	"context"
	"fmt"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
	"github.com/spf13/cast"
)

// Functions evaluated with the node bound to `this`.
const (
	jsText      = `function() { var t = this.innerText !== undefined ? this.innerText : this.textContent; return (t || '').trim(); }`
	jsAttribute = `function(n) { return this.hasAttribute(n) ? this.getAttribute(n) : null; }`
	jsValue     = `function() { return this.value === undefined || this.value === null ? '' : String(this.value); }`
	jsCSS       = `function(p) { return window.getComputedStyle(this).getPropertyValue(p); }`
	jsDisplayed = `function() {
		if (!this.isConnected) { return false; }
		var s = window.getComputedStyle(this);
		if (s.display === 'none' || s.visibility === 'hidden' || s.opacity === '0') { return false; }
		return this.getClientRects().length > 0;
	}`
	jsSelected = `function() { return !!(this.checked || this.selected); }`
	jsEnabled  = `function() { return !this.disabled; }`
	jsHasClass = `function(c) { return this.classList.contains(c); }`
	jsSelectOption = `function(l) {
		for (var i = 0; i < this.options.length; i++) {
			if (this.options[i].text.trim() === l) {
				this.selectedIndex = i;
				this.dispatchEvent(new Event('change', { bubbles: true }));
				return true;
			}
		}
		return false;
	}`
	jsSelectedOption = `function() {
		var o = this.options ? this.options[this.selectedIndex] : null;
		return o ? o.text.trim() : '';
	}`
	jsClear = `function() {
		this.value = '';
		this.dispatchEvent(new Event('input', { bubbles: true }));
		this.dispatchEvent(new Event('change', { bubbles: true }));
	}`
)

// nodeElement is an Element backed by a CDP DOM node.
// on is the target owning the node's document.
type nodeElement struct {
	s    *Session
	on   context.Context
	node *cdp.Node
}

func (e *nodeElement) call(ctx context.Context, fn string, res any, args ...any) error {
	return e.s.runActions(ctx, e.on, chromedp.ActionFunc(func(c context.Context) error {
		return chromedp.CallFunctionOnNode(c, e.node, fn, res, args...)
	}))
}

func (e *nodeElement) Find(ctx context.Context, sel Selector) (Element, error) {
	opts := []chromedp.QueryOption{chromedp.ByQuery, chromedp.AtLeast(0), chromedp.FromNode(e.node)}
	nodes, err := e.s.queryNodes(ctx, e.on, sel, opts, false)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, notFound(sel)
	}
	return &nodeElement{s: e.s, on: e.on, node: nodes[0]}, nil
}

func (e *nodeElement) FindAll(ctx context.Context, sel Selector) ([]Element, error) {
	opts := []chromedp.QueryOption{chromedp.ByQuery, chromedp.AtLeast(0), chromedp.FromNode(e.node)}
	nodes, err := e.s.queryNodes(ctx, e.on, sel, opts, true)
	if err != nil {
		return nil, err
	}
	return wrapNodes(e.s, e.on, nodes), nil
}

func (e *nodeElement) Click(ctx context.Context) error {
	if err := e.s.runActions(ctx, e.on, chromedp.MouseClickNode(e.node)); err != nil {
		return fmt.Errorf("click failed: %w", err)
	}
	return nil
}

func (e *nodeElement) RightClick(ctx context.Context) error {
	if err := e.s.runActions(ctx, e.on, chromedp.MouseClickNode(e.node, chromedp.ButtonRight)); err != nil {
		return fmt.Errorf("right click failed: %w", err)
	}
	return nil
}

func (e *nodeElement) SendKeys(ctx context.Context, text string) error {
	if err := e.s.runActions(ctx, e.on, chromedp.KeyEventNode(e.node, text)); err != nil {
		return fmt.Errorf("typing failed: %w", err)
	}
	return nil
}

func (e *nodeElement) Clear(ctx context.Context) error {
	return e.call(ctx, jsClear, nil)
}

func (e *nodeElement) SelectOption(ctx context.Context, label string) error {
	ok, err := e.predicate(ctx, jsSelectOption, label)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: option %q", ErrNoSuchElement, label)
	}
	return nil
}

func (e *nodeElement) SelectedOption(ctx context.Context) (string, error) {
	var res any
	if err := e.call(ctx, jsSelectedOption, &res); err != nil {
		return "", err
	}
	return cast.ToString(res), nil
}

func (e *nodeElement) Text(ctx context.Context) (string, error) {
	var res any
	if err := e.call(ctx, jsText, &res); err != nil {
		return "", err
	}
	return cast.ToString(res), nil
}

func (e *nodeElement) Attribute(ctx context.Context, name string) (string, bool, error) {
	var res any
	if err := e.call(ctx, jsAttribute, &res, name); err != nil {
		return "", false, err
	}
	if res == nil {
		return "", false, nil
	}
	return cast.ToString(res), true, nil
}

func (e *nodeElement) Value(ctx context.Context) (string, error) {
	var res any
	if err := e.call(ctx, jsValue, &res); err != nil {
		return "", err
	}
	return cast.ToString(res), nil
}

func (e *nodeElement) CSSValue(ctx context.Context, property string) (string, error) {
	var res any
	if err := e.call(ctx, jsCSS, &res, property); err != nil {
		return "", err
	}
	return cast.ToString(res), nil
}

func (e *nodeElement) predicate(ctx context.Context, fn string, args ...any) (bool, error) {
	var res any
	if err := e.call(ctx, fn, &res, args...); err != nil {
		return false, err
	}
	return cast.ToBool(res), nil
}

func (e *nodeElement) IsDisplayed(ctx context.Context) (bool, error) { return e.predicate(ctx, jsDisplayed) }
func (e *nodeElement) IsSelected(ctx context.Context) (bool, error)  { return e.predicate(ctx, jsSelected) }
func (e *nodeElement) IsEnabled(ctx context.Context) (bool, error)   { return e.predicate(ctx, jsEnabled) }

func (e *nodeElement) HasClass(ctx context.Context, class string) (bool, error) {
	return e.predicate(ctx, jsHasClass, class)
}
