// internal/browser/session.go
package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	cdpbrowser "github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/passbolt-e2e/internal/config"
)

// tab is one CDP page target. frame is the iframe commands are scoped to, nil at
// the top-level document.
type tab struct {
	id     string
	ctx    context.Context
	cancel context.CancelFunc
	frame  *frameScope

	// attached holds the contexts of out-of-process frames, by target id.
	attached map[target.ID]attachedFrame
}

type attachedFrame struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// frameScope is an iframe and the target owning its document. ctx is the tab's
// own context for in-process frames. Frames the browser isolates in another
// process (extension pages inside a web page) are targets of their own, and
// their documents are only reachable by attaching to them.
type frameScope struct {
	node *cdp.Node
	ctx  context.Context
	oop  bool
}

// scope returns the target a lookup runs on and the query options that confine
// it to the current frame.
func (t *tab) scope() (context.Context, []chromedp.QueryOption) {
	opts := []chromedp.QueryOption{chromedp.ByQuery, chromedp.AtLeast(0)}
	switch {
	case t.frame == nil:
		return t.ctx, opts
	case t.frame.oop:
		return t.frame.ctx, opts
	default:
		return t.ctx, append(opts, chromedp.FromNode(t.frame.node.ContentDocument))
	}
}

// detachFrames drops the out-of-process frame contexts, once their frames went
// away with a navigation or the tab itself.
func (t *tab) detachFrames() {
	for id, f := range t.attached {
		f.cancel()
		delete(t.attached, id)
	}
	t.frame = nil
}

// Session is a Driver backed by a remote browser speaking the DevTools protocol.
// Window handles are CDP target ids.
type Session struct {
	id     string
	logger *zap.Logger
	cfg    config.BrowserConfig

	allocCancel context.CancelFunc
	// browserCtx owns the connection; its own target is the first tab.
	browserCtx    context.Context
	browserCancel context.CancelFunc

	mu       sync.Mutex
	tabs     map[string]*tab
	order    []string
	current  string
	isClosed bool
}

var _ Driver = (*Session)(nil)

// Dial connects to the DevTools endpoint in cfg.RemoteURL and attaches to a fresh tab.
func Dial(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (*Session, error) {
	sessionID := uuid.New().String()
	logger = logger.Named("browser").With(zap.String("session_id", sessionID))

	// The allocator must outlive ctx, which usually only bounds the dial.
	allocCtx, allocCancel := chromedp.NewRemoteAllocator(Detach(ctx), cfg.RemoteURL)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(logger.Sugar().Debugf),
		chromedp.WithErrorf(logger.Sugar().Warnf),
	)

	dialed := make(chan error, 1)
	go func() { dialed <- chromedp.Run(browserCtx) }()
	select {
	case err := <-dialed:
		if err != nil {
			browserCancel()
			allocCancel()
			return nil, fmt.Errorf("failed to connect to browser at %s: %w", cfg.RemoteURL, err)
		}
	case <-ctx.Done():
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to connect to browser at %s: %w", cfg.RemoteURL, ctx.Err())
	}

	first := string(chromedp.FromContext(browserCtx).Target.TargetID)
	s := &Session{
		id:            sessionID,
		logger:        logger,
		cfg:           cfg,
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		tabs:          map[string]*tab{first: {id: first, ctx: browserCtx, cancel: func() {}}},
		order:         []string{first},
		current:       first,
	}
	logger.Info("Connected to remote browser.", zap.String("remote_url", cfg.RemoteURL), zap.String("tab", first))
	return s, nil
}

// ID returns the unique identifier for the session.
func (s *Session) ID() string { return s.id }

func (s *Session) currentTab() (*tab, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isClosed {
		return nil, ErrSessionClosed
	}
	t, ok := s.tabs[s.current]
	if !ok {
		return nil, fmt.Errorf("%w: no current window", ErrNoSuchWindow)
	}
	return t, nil
}

// runActions executes chromedp actions on the target of on, bounded by both the
// target lifetime and ctx.
func (s *Session) runActions(ctx, on context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := CombineContext(on, ctx)
	defer cancel()
	return classify(chromedp.Run(runCtx, actions...))
}

func (s *Session) queryNodes(ctx, on context.Context, sel Selector, opts []chromedp.QueryOption, all bool) ([]*cdp.Node, error) {
	for _, q := range sel.Candidates() {
		var nodes []*cdp.Node
		if err := s.runActions(ctx, on, chromedp.Nodes(q, &nodes, opts...)); err != nil {
			return nil, fmt.Errorf("query %q failed: %w", q, err)
		}
		if len(nodes) > 0 {
			if !all {
				nodes = nodes[:1]
			}
			return nodes, nil
		}
	}
	return nil, nil
}

// Find implements Finder.
func (s *Session) Find(ctx context.Context, sel Selector) (Element, error) {
	t, err := s.currentTab()
	if err != nil {
		return nil, err
	}
	on, opts := t.scope()
	nodes, err := s.queryNodes(ctx, on, sel, opts, false)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, notFound(sel)
	}
	return &nodeElement{s: s, on: on, node: nodes[0]}, nil
}

// FindAll implements Finder.
func (s *Session) FindAll(ctx context.Context, sel Selector) ([]Element, error) {
	t, err := s.currentTab()
	if err != nil {
		return nil, err
	}
	on, opts := t.scope()
	nodes, err := s.queryNodes(ctx, on, sel, opts, true)
	if err != nil {
		return nil, err
	}
	return wrapNodes(s, on, nodes), nil
}

// Navigate loads url in the current tab and resets frame scope to the top document.
func (s *Session) Navigate(ctx context.Context, url string) error {
	t, err := s.currentTab()
	if err != nil {
		return err
	}
	navCtx := ctx
	if s.cfg.NavigationTimeout > 0 {
		var cancel context.CancelFunc
		navCtx, cancel = context.WithTimeout(ctx, s.cfg.NavigationTimeout)
		defer cancel()
	}
	t.detachFrames()
	s.logger.Debug("Navigating.", zap.String("url", url))
	if err := s.runActions(navCtx, t.ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigation to %s failed: %w", url, err)
	}
	return nil
}

// CurrentURL returns the location of the current tab.
func (s *Session) CurrentURL(ctx context.Context) (string, error) {
	t, err := s.currentTab()
	if err != nil {
		return "", err
	}
	var loc string
	err = s.runActions(ctx, t.ctx, chromedp.Location(&loc))
	return loc, err
}

// Title returns the document title of the current tab.
func (s *Session) Title(ctx context.Context) (string, error) {
	t, err := s.currentTab()
	if err != nil {
		return "", err
	}
	var title string
	err = s.runActions(ctx, t.ctx, chromedp.Title(&title))
	return title, err
}

// ExecuteScript runs script against the document of the current frame.
func (s *Session) ExecuteScript(ctx context.Context, script string, args ...any) (any, error) {
	t, err := s.currentTab()
	if err != nil {
		return nil, err
	}
	on, opts := t.scope()
	roots, err := s.queryNodes(ctx, on, CSS("html"), opts, false)
	if err != nil {
		return nil, err
	}
	if len(roots) == 0 {
		return nil, fmt.Errorf("no document to run script in: %w", ErrNoSuchElement)
	}

	fn := fmt.Sprintf("function() { return (function() { %s }).apply(this, arguments); }", script)
	var res any
	err = s.runActions(ctx, on, chromedp.ActionFunc(func(c context.Context) error {
		return chromedp.CallFunctionOnNode(c, roots[0], fn, &res, args...)
	}))
	if err != nil {
		return nil, fmt.Errorf("script failed: %w", err)
	}
	return res, nil
}

// Keyboard dispatches keys to the focused element.
func (s *Session) Keyboard(ctx context.Context, keys string) error {
	t, err := s.currentTab()
	if err != nil {
		return err
	}
	if keys == KeyPaste {
		return s.runActions(ctx, t.ctx, chromedp.KeyEvent("v", chromedp.KeyModifiers(input.ModifierCtrl)))
	}
	return s.runActions(ctx, t.ctx, chromedp.KeyEvent(keys))
}

// ActiveElementID returns the id of the focused element in the current frame.
func (s *Session) ActiveElementID(ctx context.Context) (string, error) {
	res, err := s.ExecuteScript(ctx, "var a = document.activeElement; return a && a.id ? a.id : '';")
	if err != nil {
		return "", err
	}
	id, _ := res.(string)
	return id, nil
}

// Cookies returns the cookies visible to the current page.
func (s *Session) Cookies(ctx context.Context) ([]Cookie, error) {
	t, err := s.currentTab()
	if err != nil {
		return nil, err
	}
	var raw []*network.Cookie
	err = s.runActions(ctx, t.ctx, chromedp.ActionFunc(func(c context.Context) error {
		var err error
		raw, err = network.GetCookies().Do(c)
		return err
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to get cookies via CDP: %w", err)
	}
	out := make([]Cookie, 0, len(raw))
	for _, c := range raw {
		ck := Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HTTPOnly: c.HTTPOnly,
		}
		if !c.Session && c.Expires > 0 {
			sec := int64(c.Expires)
			ck.Expiry = time.Unix(sec, int64((c.Expires-float64(sec))*1e9))
		}
		out = append(out, ck)
	}
	return out, nil
}

// AddCookie sets one cookie in the browser.
func (s *Session) AddCookie(ctx context.Context, ck Cookie) error {
	t, err := s.currentTab()
	if err != nil {
		return err
	}
	return s.runActions(ctx, t.ctx, chromedp.ActionFunc(func(c context.Context) error {
		p := network.SetCookie(ck.Name, ck.Value).
			WithDomain(ck.Domain).
			WithPath(ck.Path).
			WithSecure(ck.Secure).
			WithHTTPOnly(ck.HTTPOnly)
		if !ck.Expiry.IsZero() {
			exp := cdp.TimeSinceEpoch(ck.Expiry)
			p = p.WithExpires(&exp)
		}
		if err := p.Do(c); err != nil {
			return fmt.Errorf("failed to set cookie %s: %w", ck.Name, err)
		}
		return nil
	}))
}

// DeleteAllCookies clears the browser cookie store.
func (s *Session) DeleteAllCookies(ctx context.Context) error {
	t, err := s.currentTab()
	if err != nil {
		return err
	}
	return s.runActions(ctx, t.ctx, network.ClearBrowserCookies())
}

// SwitchToFrame scopes subsequent commands to the iframe whose name or id is name.
func (s *Session) SwitchToFrame(ctx context.Context, name string) error {
	t, err := s.currentTab()
	if err != nil {
		return err
	}
	on, opts := t.scope()
	sel := CSS(fmt.Sprintf(`iframe[name=%q], iframe[id=%q]`, name, name))
	nodes, err := s.queryNodes(ctx, on, sel, opts, false)
	if err != nil {
		return err
	}
	if len(nodes) == 0 {
		return fmt.Errorf("%w: %s", ErrNoSuchFrame, name)
	}
	node := nodes[0]
	if node.ContentDocument != nil {
		t.frame = &frameScope{node: node, ctx: on}
		return nil
	}

	frameCtx, err := s.attachFrame(ctx, on, t, node)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrNoSuchFrame, name, err)
	}
	t.frame = &frameScope{node: node, ctx: frameCtx, oop: true}
	return nil
}

// attachFrame returns a context on the target that renders the document of the
// iframe node. Out-of-process frames are targets whose id is their frame id.
func (s *Session) attachFrame(ctx, on context.Context, t *tab, node *cdp.Node) (context.Context, error) {
	var frameID cdp.FrameID
	err := s.runActions(ctx, on, chromedp.ActionFunc(func(c context.Context) error {
		described, err := dom.DescribeNode().WithBackendNodeID(node.BackendNodeID).Do(c)
		if err != nil {
			return err
		}
		frameID = described.FrameID
		return nil
	}))
	if err != nil {
		return nil, err
	}
	if frameID == "" {
		return nil, fmt.Errorf("iframe has no document yet")
	}

	id := target.ID(frameID)
	if t.attached == nil {
		t.attached = map[target.ID]attachedFrame{}
	}
	if f, ok := t.attached[id]; ok {
		return f.ctx, nil
	}

	listCtx, cancel := CombineContext(s.browserCtx, ctx)
	defer cancel()
	infos, err := chromedp.Targets(listCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to list targets: %w", err)
	}
	found := false
	for _, info := range infos {
		if info.TargetID == id && info.Type == "iframe" {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("frame %s is neither loaded in the page nor a target", frameID)
	}

	// The first Run attaches, and the target's event loop lives as long as the
	// context handed to it.
	frameCtx, frameCancel := chromedp.NewContext(t.ctx, chromedp.WithTargetID(id))
	attached := make(chan error, 1)
	go func() { attached <- chromedp.Run(frameCtx) }()
	select {
	case err := <-attached:
		if err != nil {
			frameCancel()
			return nil, fmt.Errorf("failed to attach to frame %s: %w", frameID, err)
		}
	case <-ctx.Done():
		frameCancel()
		return nil, fmt.Errorf("failed to attach to frame %s: %w", frameID, ctx.Err())
	}
	t.attached[id] = attachedFrame{ctx: frameCtx, cancel: frameCancel}
	s.logger.Debug("Attached to out-of-process frame.", zap.String("frame_id", string(frameID)))
	return frameCtx, nil
}

// SwitchToDefault returns command scope to the top-level document.
func (s *Session) SwitchToDefault(ctx context.Context) error {
	t, err := s.currentTab()
	if err != nil {
		return err
	}
	t.frame = nil
	return nil
}

// WindowHandles lists page targets in the order they were first seen. Windows the
// application opened by itself (the toolbar popup) are adopted here.
func (s *Session) WindowHandles(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	if s.isClosed {
		s.mu.Unlock()
		return nil, ErrSessionClosed
	}
	s.mu.Unlock()

	listCtx, cancel := CombineContext(s.browserCtx, ctx)
	defer cancel()
	infos, err := chromedp.Targets(listCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to list targets: %w", err)
	}

	live := make(map[string]target.ID, len(infos))
	for _, info := range infos {
		if info.Type == "page" {
			live[string(info.TargetID)] = info.TargetID
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.order[:0]
	for _, h := range s.order {
		if _, ok := live[h]; ok {
			kept = append(kept, h)
			delete(live, h)
		} else if t, ok := s.tabs[h]; ok {
			t.detachFrames()
			t.cancel()
			delete(s.tabs, h)
		}
	}
	s.order = kept
	for h, id := range live {
		tabCtx, tabCancel := chromedp.NewContext(s.browserCtx, chromedp.WithTargetID(id))
		s.tabs[h] = &tab{id: h, ctx: tabCtx, cancel: tabCancel}
		s.order = append(s.order, h)
	}
	return append([]string(nil), s.order...), nil
}

// CurrentWindowHandle returns the handle commands are currently sent to.
func (s *Session) CurrentWindowHandle(ctx context.Context) (string, error) {
	t, err := s.currentTab()
	if err != nil {
		return "", err
	}
	return t.id, nil
}

// NewWindow opens a blank tab.
func (s *Session) NewWindow(ctx context.Context) (string, error) {
	s.mu.Lock()
	if s.isClosed {
		s.mu.Unlock()
		return "", ErrSessionClosed
	}
	s.mu.Unlock()

	tabCtx, tabCancel := chromedp.NewContext(s.browserCtx)
	if err := chromedp.Run(tabCtx); err != nil {
		tabCancel()
		return "", fmt.Errorf("failed to open a new tab: %w", err)
	}
	h := string(chromedp.FromContext(tabCtx).Target.TargetID)

	s.mu.Lock()
	s.tabs[h] = &tab{id: h, ctx: tabCtx, cancel: tabCancel}
	s.order = append(s.order, h)
	s.mu.Unlock()
	s.logger.Debug("Opened tab.", zap.String("tab", h))
	return h, nil
}

// SwitchToWindow brings handle to the front and makes it current.
func (s *Session) SwitchToWindow(ctx context.Context, handle string) error {
	s.mu.Lock()
	t, ok := s.tabs[handle]
	closed := s.isClosed
	s.mu.Unlock()
	if closed {
		return ErrSessionClosed
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoSuchWindow, handle)
	}
	if err := s.runActions(ctx, t.ctx, page.BringToFront()); err != nil {
		return fmt.Errorf("failed to activate tab %s: %w", handle, err)
	}
	s.mu.Lock()
	s.current = handle
	s.mu.Unlock()
	return nil
}

// CloseWindow closes the current tab. No window is current afterwards.
func (s *Session) CloseWindow(ctx context.Context) error {
	t, err := s.currentTab()
	if err != nil {
		return err
	}
	if err := s.runActions(ctx, t.ctx, page.Close()); err != nil {
		return fmt.Errorf("failed to close tab %s: %w", t.id, err)
	}
	t.detachFrames()
	t.cancel()

	s.mu.Lock()
	delete(s.tabs, t.id)
	for i, h := range s.order {
		if h == t.id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.current = ""
	s.mu.Unlock()
	s.logger.Debug("Closed tab.", zap.String("tab", t.id))
	return nil
}

// Screenshot captures the full page of the current tab as PNG.
func (s *Session) Screenshot(ctx context.Context) ([]byte, error) {
	t, err := s.currentTab()
	if err != nil {
		return nil, err
	}
	var buf []byte
	if err := s.runActions(ctx, t.ctx, chromedp.FullScreenshot(&buf, 90)); err != nil {
		return nil, fmt.Errorf("screenshot failed: %w", err)
	}
	return buf, nil
}

// Maximize maximizes the browser window, or applies the configured viewport when
// maximizing is disabled.
func (s *Session) Maximize(ctx context.Context) error {
	t, err := s.currentTab()
	if err != nil {
		return err
	}
	if !s.cfg.Maximize {
		return s.runActions(ctx, t.ctx, chromedp.EmulateViewport(int64(s.cfg.WindowWidth), int64(s.cfg.WindowHeight)))
	}
	return s.runActions(ctx, t.ctx, chromedp.ActionFunc(func(c context.Context) error {
		windowID, _, err := cdpbrowser.GetWindowForTarget().Do(c)
		if err != nil {
			return err
		}
		return cdpbrowser.SetWindowBounds(windowID, &cdpbrowser.Bounds{WindowState: cdpbrowser.WindowStateMaximized}).Do(c)
	}))
}

// Quit closes every tab this session opened and drops the connection.
func (s *Session) Quit(ctx context.Context) error {
	s.mu.Lock()
	if s.isClosed {
		s.mu.Unlock()
		return nil
	}
	s.isClosed = true
	tabs := s.tabs
	s.tabs = map[string]*tab{}
	s.order = nil
	s.current = ""
	s.mu.Unlock()

	s.logger.Debug("Closing browser session.")
	for _, t := range tabs {
		t.detachFrames()
		t.cancel()
	}
	s.browserCancel()
	s.allocCancel()
	return nil
}

func wrapNodes(s *Session, on context.Context, nodes []*cdp.Node) []Element {
	out := make([]Element, len(nodes))
	for i, n := range nodes {
		out[i] = &nodeElement{s: s, on: on, node: n}
	}
	return out
}
