// File: internal/mocks/mocks.go
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/xkilldash9x/passbolt-e2e/internal/browser"
	"github.com/xkilldash9x/passbolt-e2e/internal/config"
	"github.com/xkilldash9x/passbolt-e2e/internal/server"
)

// -- Config Mock --

// MockConfig mocks the config.Interface.
type MockConfig struct {
	mock.Mock
}

var _ config.Interface = (*MockConfig)(nil)

// --- Getters ---

func (m *MockConfig) Logger() config.LoggerConfig {
	args := m.Called()
	return args.Get(0).(config.LoggerConfig)
}

func (m *MockConfig) Passbolt() config.PassboltConfig {
	args := m.Called()
	return args.Get(0).(config.PassboltConfig)
}

func (m *MockConfig) Browser() config.BrowserConfig {
	args := m.Called()
	return args.Get(0).(config.BrowserConfig)
}

func (m *MockConfig) Wait() config.WaitConfig {
	args := m.Called()
	return args.Get(0).(config.WaitConfig)
}

func (m *MockConfig) Lifecycle() config.LifecycleConfig {
	args := m.Called()
	return args.Get(0).(config.LifecycleConfig)
}

func (m *MockConfig) Server() config.ServerConfig {
	args := m.Called()
	return args.Get(0).(config.ServerConfig)
}

func (m *MockConfig) Fixtures() config.FixturesConfig {
	args := m.Called()
	return args.Get(0).(config.FixturesConfig)
}

// --- Setters ---

func (m *MockConfig) SetBrowserRemoteURL(u string)       { m.Called(u) }
func (m *MockConfig) SetPassboltURL(u string)            { m.Called(u) }
func (m *MockConfig) SetWaitTimeout(d time.Duration)     { m.Called(d) }
func (m *MockConfig) SetLifecycleScreenshotOnFail(b bool) { m.Called(b) }

// -- Driver Mock --

// MockDriver mocks browser.Driver. Tests use it where the number and order of
// driver calls matter; browsertest.Driver is the better fit for behaviour.
type MockDriver struct {
	mock.Mock
}

var _ browser.Driver = (*MockDriver)(nil)

func (m *MockDriver) Find(ctx context.Context, sel browser.Selector) (browser.Element, error) {
	args := m.Called(ctx, sel)
	el, _ := args.Get(0).(browser.Element)
	return el, args.Error(1)
}

func (m *MockDriver) FindAll(ctx context.Context, sel browser.Selector) ([]browser.Element, error) {
	args := m.Called(ctx, sel)
	els, _ := args.Get(0).([]browser.Element)
	return els, args.Error(1)
}

func (m *MockDriver) Navigate(ctx context.Context, url string) error {
	return m.Called(ctx, url).Error(0)
}

func (m *MockDriver) CurrentURL(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockDriver) Title(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockDriver) ExecuteScript(ctx context.Context, script string, scriptArgs ...any) (any, error) {
	args := m.Called(ctx, script, scriptArgs)
	return args.Get(0), args.Error(1)
}

func (m *MockDriver) Keyboard(ctx context.Context, keys string) error {
	return m.Called(ctx, keys).Error(0)
}

func (m *MockDriver) ActiveElementID(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockDriver) Cookies(ctx context.Context) ([]browser.Cookie, error) {
	args := m.Called(ctx)
	cookies, _ := args.Get(0).([]browser.Cookie)
	return cookies, args.Error(1)
}

func (m *MockDriver) AddCookie(ctx context.Context, c browser.Cookie) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockDriver) DeleteAllCookies(ctx context.Context) error { return m.Called(ctx).Error(0) }

func (m *MockDriver) SwitchToFrame(ctx context.Context, name string) error {
	return m.Called(ctx, name).Error(0)
}

func (m *MockDriver) SwitchToDefault(ctx context.Context) error { return m.Called(ctx).Error(0) }

func (m *MockDriver) WindowHandles(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	handles, _ := args.Get(0).([]string)
	return handles, args.Error(1)
}

func (m *MockDriver) CurrentWindowHandle(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockDriver) NewWindow(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockDriver) SwitchToWindow(ctx context.Context, handle string) error {
	return m.Called(ctx, handle).Error(0)
}

func (m *MockDriver) CloseWindow(ctx context.Context) error { return m.Called(ctx).Error(0) }

func (m *MockDriver) Screenshot(ctx context.Context) ([]byte, error) {
	args := m.Called(ctx)
	b, _ := args.Get(0).([]byte)
	return b, args.Error(1)
}

func (m *MockDriver) Maximize(ctx context.Context) error { return m.Called(ctx).Error(0) }
func (m *MockDriver) Quit(ctx context.Context) error     { return m.Called(ctx).Error(0) }

// -- Resetter Mock --

// MockResetter mocks server.Resetter.
type MockResetter struct {
	mock.Mock
}

var _ server.Resetter = (*MockResetter)(nil)

func (m *MockResetter) Reset(ctx context.Context, dataset string) error {
	return m.Called(ctx, dataset).Error(0)
}
