package tabs

import (
	"context"
	"fmt"
	"sync"

	"github.com/xkilldash9x/passbolt-e2e/internal/browser"
)

// CookieJar holds the cookies captured after each successful login, keyed by
// username, so a restarted browser can resume the session.
type CookieJar struct {
	mu   sync.Mutex
	jars map[string][]browser.Cookie
}

// NewCookieJar returns an empty jar.
func NewCookieJar() *CookieJar {
	return &CookieJar{jars: make(map[string][]browser.Cookie)}
}

// Save replaces the snapshot for user.
func (j *CookieJar) Save(user string, cookies []browser.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.jars[user] = append([]browser.Cookie(nil), cookies...)
}

// Load returns the snapshot for user.
func (j *CookieJar) Load(user string) ([]browser.Cookie, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	c, ok := j.jars[user]
	if !ok {
		return nil, false
	}
	return append([]browser.Cookie(nil), c...), true
}

// Forget drops the snapshot for user.
func (j *CookieJar) Forget(user string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	delete(j.jars, user)
}

// Replay adds the snapshot for user to the driver. It reports false when there
// was nothing to replay. The driver must already be on a page of the cookies'
// domain.
func (j *CookieJar) Replay(ctx context.Context, d browser.Driver, user string) (bool, error) {
	cookies, ok := j.Load(user)
	if !ok || len(cookies) == 0 {
		return false, nil
	}
	for _, c := range cookies {
		if err := d.AddCookie(ctx, c); err != nil {
			return false, fmt.Errorf("replaying cookie %s for %s: %w", c.Name, user, err)
		}
	}
	return true, nil
}
