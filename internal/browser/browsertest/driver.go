// Package browsertest provides an in-memory browser.Driver for unit tests.
//
// The fake DOM is a flat forest of Nodes per frame. A node answers to its id
// (as `[id="..."]` or `#id`) and to any CSS query listed in Selectors; no real
// CSS matching is done, so tests register exactly the queries the code under
// test issues.
package browsertest

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/xkilldash9x/passbolt-e2e/internal/browser"
)

// Node is one fake DOM element.
type Node struct {
	ID        string
	Selectors []string
	Text      string
	Value     string
	Attrs     map[string]string
	Classes   []string
	CSS       map[string]string
	Hidden    bool
	Selected  bool
	Disabled  bool
	Children  []*Node

	// Handlers run without the driver lock held, so they may call Driver methods.
	OnClick      func(d *Driver, n *Node)
	OnRightClick func(d *Driver, n *Node)
	OnKeys       func(d *Driver, n *Node, text string)
	OnChange     func(d *Driver, n *Node)

	removed bool
}

// HasClass reports whether c is among the node's classes.
func (n *Node) HasClass(c string) bool {
	for _, have := range n.Classes {
		if have == c {
			return true
		}
	}
	return false
}

// AddClass adds c if missing.
func (n *Node) AddClass(c string) {
	if !n.HasClass(c) {
		n.Classes = append(n.Classes, c)
	}
}

// RemoveClass drops c.
func (n *Node) RemoveClass(c string) {
	out := n.Classes[:0]
	for _, have := range n.Classes {
		if have != c {
			out = append(out, have)
		}
	}
	n.Classes = out
}

func markRemoved(n *Node) {
	n.removed = true
	for _, c := range n.Children {
		markRemoved(c)
	}
}

var idQuery = regexp.MustCompile(`^\[id="(.*)"\]$`)

func (n *Node) matches(query string) bool {
	if m := idQuery.FindStringSubmatch(query); m != nil {
		return n.ID != "" && n.ID == m[1]
	}
	if n.ID != "" && query == "#"+n.ID {
		return true
	}
	for _, s := range n.Selectors {
		if s == query {
			return true
		}
	}
	return false
}

func collect(nodes []*Node, query string, out []*Node) []*Node {
	for _, n := range nodes {
		if n.removed {
			continue
		}
		if n.matches(query) {
			out = append(out, n)
		}
		out = collect(n.Children, query, out)
	}
	return out
}

// Driver is a scriptable in-memory browser.Driver. The zero value is not usable;
// call New.
type Driver struct {
	mu sync.Mutex

	frames  map[string][]*Node
	frame   string
	url     string
	title   string
	focused string

	handles []string
	current string
	seq     int

	cookies []browser.Cookie
	quit    bool

	// ScriptFunc answers ExecuteScript; nil returns (nil, nil).
	ScriptFunc func(script string, args []any) (any, error)
	// NavigateFunc runs after every Navigate with the new URL.
	NavigateFunc func(d *Driver, url string)
	// FrameErr, when set, is returned by SwitchToFrame.
	FrameErr error
	// Clipboard is pasted into the focused node on browser.KeyPaste.
	Clipboard string

	// Recorded calls, for assertions.
	Scripts     []string
	Navigations []string
	Keys        []string
	FrameLog    []string
}

var _ browser.Driver = (*Driver)(nil)

// New returns a driver with one open window and an empty document.
func New() *Driver {
	d := &Driver{frames: map[string][]*Node{"": nil}}
	d.current = d.nextHandle()
	d.handles = []string{d.current}
	return d
}

func (d *Driver) nextHandle() string {
	d.seq++
	return fmt.Sprintf("window-%d", d.seq)
}

// Add appends nodes to the top-level document.
func (d *Driver) Add(nodes ...*Node) {
	d.AddToFrame("", nodes...)
}

// AddToFrame appends nodes to the document of the named iframe, creating it.
func (d *Driver) AddToFrame(frame string, nodes ...*Node) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.frames[frame] = append(d.frames[frame], nodes...)
}

// AddFrame declares an empty iframe.
func (d *Driver) AddFrame(frame string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.frames[frame]; !ok {
		d.frames[frame] = nil
	}
}

// RemoveFrame deletes an iframe and marks its nodes stale.
func (d *Driver) RemoveFrame(frame string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, n := range d.frames[frame] {
		markRemoved(n)
	}
	delete(d.frames, frame)
}

// Remove detaches the top-level node with the given id from whichever document
// holds it. Handles to it and its children become stale.
func (d *Driver) Remove(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for f, nodes := range d.frames {
		kept := nodes[:0]
		for _, n := range nodes {
			if n.ID == id {
				markRemoved(n)
				continue
			}
			kept = append(kept, n)
		}
		d.frames[f] = kept
	}
}

// Update runs fn with the driver lock held, for mutating nodes from tests.
func (d *Driver) Update(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn()
}

// Frame returns the frame commands are currently scoped to, "" for the top document.
func (d *Driver) Frame() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.frame
}

// Focus sets the element reported by ActiveElementID.
func (d *Driver) Focus(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.focused = id
}

// SetURL changes the current location without recording a navigation.
func (d *Driver) SetURL(url string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.url = url
}

// SetTitle sets the document title.
func (d *Driver) SetTitle(title string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.title = title
}

// CookieJar returns a copy of the stored cookies.
func (d *Driver) CookieJar() []browser.Cookie {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]browser.Cookie(nil), d.cookies...)
}

// IsQuit reports whether Quit was called.
func (d *Driver) IsQuit() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.quit
}

func (d *Driver) alive() error {
	if d.quit {
		return browser.ErrSessionClosed
	}
	if d.current == "" {
		return fmt.Errorf("%w: no current window", browser.ErrNoSuchWindow)
	}
	return nil
}

func (d *Driver) lookup(roots []*Node, sel browser.Selector) []*Node {
	for _, q := range sel.Candidates() {
		if found := collect(roots, q, nil); len(found) > 0 {
			return found
		}
	}
	return nil
}

// Find implements browser.Finder.
func (d *Driver) Find(ctx context.Context, sel browser.Selector) (browser.Element, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.alive(); err != nil {
		return nil, err
	}
	found := d.lookup(d.frames[d.frame], sel)
	if len(found) == 0 {
		return nil, fmt.Errorf("%w: %s", browser.ErrNoSuchElement, sel)
	}
	return &element{d: d, n: found[0]}, nil
}

// FindAll implements browser.Finder.
func (d *Driver) FindAll(ctx context.Context, sel browser.Selector) ([]browser.Element, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.alive(); err != nil {
		return nil, err
	}
	return d.wrap(d.lookup(d.frames[d.frame], sel)), nil
}

func (d *Driver) wrap(nodes []*Node) []browser.Element {
	out := make([]browser.Element, len(nodes))
	for i, n := range nodes {
		out[i] = &element{d: d, n: n}
	}
	return out
}

func (d *Driver) Navigate(ctx context.Context, url string) error {
	d.mu.Lock()
	if err := d.alive(); err != nil {
		d.mu.Unlock()
		return err
	}
	d.url = url
	d.frame = ""
	d.Navigations = append(d.Navigations, url)
	hook := d.NavigateFunc
	d.mu.Unlock()
	if hook != nil {
		hook(d, url)
	}
	return nil
}

func (d *Driver) CurrentURL(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.url, d.alive()
}

func (d *Driver) Title(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.title, d.alive()
}

func (d *Driver) ExecuteScript(ctx context.Context, script string, args ...any) (any, error) {
	d.mu.Lock()
	if err := d.alive(); err != nil {
		d.mu.Unlock()
		return nil, err
	}
	d.Scripts = append(d.Scripts, script)
	fn := d.ScriptFunc
	d.mu.Unlock()
	if fn == nil {
		return nil, nil
	}
	return fn(script, args)
}

// ScriptsContaining returns the recorded scripts that include substr.
func (d *Driver) ScriptsContaining(substr string) []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []string
	for _, s := range d.Scripts {
		if strings.Contains(s, substr) {
			out = append(out, s)
		}
	}
	return out
}

// Keyboard types into the focused node of the current frame, if any.
func (d *Driver) Keyboard(ctx context.Context, keys string) error {
	d.mu.Lock()
	if err := d.alive(); err != nil {
		d.mu.Unlock()
		return err
	}
	d.Keys = append(d.Keys, keys)
	var target *Node
	if d.focused != "" {
		if found := collect(d.frames[d.frame], "#"+d.focused, nil); len(found) > 0 {
			target = found[0]
			if keys == browser.KeyPaste {
				target.Value += d.Clipboard
			} else {
				typeInto(target, keys)
			}
		}
	}
	var fn func(*Driver, *Node, string)
	if target != nil {
		fn = target.OnKeys
	}
	d.mu.Unlock()
	if fn != nil {
		fn(d, target, keys)
	}
	return nil
}

func (d *Driver) ActiveElementID(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.focused, d.alive()
}

func (d *Driver) Cookies(ctx context.Context) ([]browser.Cookie, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.alive(); err != nil {
		return nil, err
	}
	return append([]browser.Cookie(nil), d.cookies...), nil
}

func (d *Driver) AddCookie(ctx context.Context, c browser.Cookie) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.alive(); err != nil {
		return err
	}
	for i, have := range d.cookies {
		if have.Name == c.Name && have.Domain == c.Domain && have.Path == c.Path {
			d.cookies[i] = c
			return nil
		}
	}
	d.cookies = append(d.cookies, c)
	return nil
}

func (d *Driver) DeleteAllCookies(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.alive(); err != nil {
		return err
	}
	d.cookies = nil
	return nil
}

func (d *Driver) SwitchToFrame(ctx context.Context, name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.alive(); err != nil {
		return err
	}
	d.FrameLog = append(d.FrameLog, name)
	if d.FrameErr != nil {
		return d.FrameErr
	}
	if _, ok := d.frames[name]; !ok || name == "" {
		return fmt.Errorf("%w: %s", browser.ErrNoSuchFrame, name)
	}
	d.frame = name
	return nil
}

func (d *Driver) SwitchToDefault(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.alive(); err != nil {
		return err
	}
	d.FrameLog = append(d.FrameLog, "default")
	d.frame = ""
	return nil
}

func (d *Driver) WindowHandles(ctx context.Context) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.quit {
		return nil, browser.ErrSessionClosed
	}
	return append([]string(nil), d.handles...), nil
}

func (d *Driver) CurrentWindowHandle(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current, d.alive()
}

func (d *Driver) NewWindow(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.quit {
		return "", browser.ErrSessionClosed
	}
	h := d.nextHandle()
	d.handles = append(d.handles, h)
	return h, nil
}

// OpenWindowExternally simulates the application opening a window on its own.
func (d *Driver) OpenWindowExternally() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	h := d.nextHandle()
	d.handles = append(d.handles, h)
	return h
}

func (d *Driver) SwitchToWindow(ctx context.Context, handle string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.quit {
		return browser.ErrSessionClosed
	}
	for _, h := range d.handles {
		if h == handle {
			d.current = handle
			d.frame = ""
			return nil
		}
	}
	return fmt.Errorf("%w: %s", browser.ErrNoSuchWindow, handle)
}

func (d *Driver) CloseWindow(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.alive(); err != nil {
		return err
	}
	for i, h := range d.handles {
		if h == d.current {
			d.handles = append(d.handles[:i], d.handles[i+1:]...)
			break
		}
	}
	d.current = ""
	return nil
}

func (d *Driver) Screenshot(ctx context.Context) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.alive(); err != nil {
		return nil, err
	}
	// PNG signature, enough for callers that only store the bytes.
	return []byte("\x89PNG\r\n\x1a\n"), nil
}

func (d *Driver) Maximize(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.alive()
}

func (d *Driver) Quit(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.quit = true
	return nil
}
