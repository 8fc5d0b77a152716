// File: internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Interface defines the contract for accessing harness configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	Passbolt() PassboltConfig
	Browser() BrowserConfig
	Wait() WaitConfig
	Lifecycle() LifecycleConfig
	Server() ServerConfig
	Fixtures() FixturesConfig

	SetBrowserRemoteURL(string)
	SetPassboltURL(string)
	SetWaitTimeout(time.Duration)
	SetLifecycleScreenshotOnFail(bool)
}

// Config holds the entire harness configuration.
type Config struct {
	LoggerCfg    LoggerConfig    `mapstructure:"logger" yaml:"logger"`
	PassboltCfg  PassboltConfig  `mapstructure:"passbolt" yaml:"passbolt"`
	BrowserCfg   BrowserConfig   `mapstructure:"browser" yaml:"browser"`
	WaitCfg      WaitConfig      `mapstructure:"wait" yaml:"wait"`
	LifecycleCfg LifecycleConfig `mapstructure:"lifecycle" yaml:"lifecycle"`
	ServerCfg    ServerConfig    `mapstructure:"server" yaml:"server"`
	FixturesCfg  FixturesConfig  `mapstructure:"fixtures" yaml:"fixtures"`
}

// --- Interface Method Implementations (Getters) ---

func (c *Config) Logger() LoggerConfig       { return c.LoggerCfg }
func (c *Config) Passbolt() PassboltConfig   { return c.PassboltCfg }
func (c *Config) Browser() BrowserConfig     { return c.BrowserCfg }
func (c *Config) Wait() WaitConfig           { return c.WaitCfg }
func (c *Config) Lifecycle() LifecycleConfig { return c.LifecycleCfg }
func (c *Config) Server() ServerConfig       { return c.ServerCfg }
func (c *Config) Fixtures() FixturesConfig   { return c.FixturesCfg }

// --- Interface Method Implementations (Setters) ---

func (c *Config) SetBrowserRemoteURL(u string)       { c.BrowserCfg.RemoteURL = u }
func (c *Config) SetPassboltURL(u string)            { c.PassboltCfg.URL = u }
func (c *Config) SetWaitTimeout(d time.Duration)     { c.WaitCfg.Timeout = d }
func (c *Config) SetLifecycleScreenshotOnFail(b bool) { c.LifecycleCfg.ScreenshotOnFail = b }

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// PassboltConfig points at the application under test.
type PassboltConfig struct {
	URL string `mapstructure:"url" yaml:"url"`
	// SecondaryURL serves the same instance from another domain, used by the
	// domain switching helpers.
	SecondaryURL string `mapstructure:"secondary_url" yaml:"secondary_url"`
	DebugPath    string `mapstructure:"debug_path" yaml:"debug_path"`
	ResetDataset string `mapstructure:"reset_dataset" yaml:"reset_dataset"`
}

// BrowserConfig describes the remote browser and its two capability flags.
type BrowserConfig struct {
	RemoteURL         string        `mapstructure:"remote_url" yaml:"remote_url"`
	Type              string        `mapstructure:"type" yaml:"type"`
	Extensions        []string      `mapstructure:"extensions" yaml:"extensions"`
	Maximize          bool          `mapstructure:"maximize" yaml:"maximize"`
	WindowWidth       int           `mapstructure:"window_width" yaml:"window_width"`
	WindowHeight      int           `mapstructure:"window_height" yaml:"window_height"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	WaitBeforeRestart time.Duration `mapstructure:"wait_before_restart" yaml:"wait_before_restart"`
}

// HasExtensions reports whether the browser runs with the passbolt extension.
func (b BrowserConfig) HasExtensions() bool { return len(b.Extensions) > 0 }

// WaitConfig tunes the polling wait engine.
type WaitConfig struct {
	Timeout              time.Duration `mapstructure:"timeout" yaml:"timeout"`
	Interval             time.Duration `mapstructure:"interval" yaml:"interval"`
	SecurityTokenTimeout time.Duration `mapstructure:"security_token_timeout" yaml:"security_token_timeout"`
	ClipboardTimeout     time.Duration `mapstructure:"clipboard_timeout" yaml:"clipboard_timeout"`
	CompletionTimeout    time.Duration `mapstructure:"completion_timeout" yaml:"completion_timeout"`
}

// LifecycleConfig controls the per-test setup and teardown hooks.
type LifecycleConfig struct {
	ScreenshotOnFail bool             `mapstructure:"screenshot_on_fail" yaml:"screenshot_on_fail"`
	ArtifactsDir     string           `mapstructure:"artifacts_dir" yaml:"artifacts_dir"`
	Video            VideoConfig      `mapstructure:"video" yaml:"video"`
	PluginLogs       PluginLogsConfig `mapstructure:"plugin_logs" yaml:"plugin_logs"`
	ServerLog        ServerLogConfig  `mapstructure:"server_log" yaml:"server_log"`
}

// VideoConfig drives the external VNC recorder.
type VideoConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	When    string `mapstructure:"when" yaml:"when"`
	Path    string `mapstructure:"path" yaml:"path"`
	Binary  string `mapstructure:"binary" yaml:"binary"`
}

// PluginLogsConfig controls extension log capture on failure.
type PluginLogsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path"`
}

// ServerLogConfig points at the application error log followed during a test.
type ServerLogConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path"`
}

// ServerConfig configures the test-server endpoints client.
type ServerConfig struct {
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
	Reset   ResetConfig   `mapstructure:"reset" yaml:"reset"`
}

// ResetConfig selects how the database gets reset between tests.
type ResetConfig struct {
	Strategy string `mapstructure:"strategy" yaml:"strategy"`
	SQLFile  string `mapstructure:"sql_file" yaml:"sql_file"`
	DSN      string `mapstructure:"dsn" yaml:"-"`
}

// FixturesConfig locates optional fixture overrides and key material.
type FixturesConfig struct {
	Path    string `mapstructure:"path" yaml:"path"`
	KeysDir string `mapstructure:"keys_dir" yaml:"keys_dir"`
	// ServerKey is the server public key, relative to KeysDir unless it is a path.
	ServerKey string `mapstructure:"server_key" yaml:"server_key"`
	// Selectors is an optional YAML file overriding DOM hooks by name.
	Selectors string `mapstructure:"selectors" yaml:"selectors"`
}

// Recognized enum values.
const (
	BrowserChrome  = "chrome"
	BrowserFirefox = "firefox"

	VideoAlways = "always"
	VideoOnFail = "onFail"

	ResetHTTP = "http"
	ResetSQL  = "sql"
)

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults, but good to be safe.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "passbolt-e2e")
	v.SetDefault("logger.log_file", "passbolt-e2e.log")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")

	// -- Passbolt --
	v.SetDefault("passbolt.url", "http://passbolt.local")
	v.SetDefault("passbolt.debug_path", "data/config-debug.html")
	v.SetDefault("passbolt.reset_dataset", "default")

	// -- Browser --
	v.SetDefault("browser.remote_url", "ws://127.0.0.1:9222")
	v.SetDefault("browser.type", BrowserChrome)
	v.SetDefault("browser.extensions", []string{"passbolt"})
	v.SetDefault("browser.maximize", true)
	v.SetDefault("browser.window_width", 1440)
	v.SetDefault("browser.window_height", 900)
	v.SetDefault("browser.navigation_timeout", "60s")
	v.SetDefault("browser.wait_before_restart", "0s")

	// -- Wait --
	v.SetDefault("wait.timeout", "10s")
	v.SetDefault("wait.interval", "100ms")
	v.SetDefault("wait.security_token_timeout", "2s")
	v.SetDefault("wait.clipboard_timeout", "5s")
	v.SetDefault("wait.completion_timeout", "10s")

	// -- Lifecycle --
	v.SetDefault("lifecycle.screenshot_on_fail", true)
	v.SetDefault("lifecycle.artifacts_dir", "artifacts")
	v.SetDefault("lifecycle.video.enabled", false)
	v.SetDefault("lifecycle.video.when", VideoOnFail)
	v.SetDefault("lifecycle.video.path", "artifacts/videos")
	v.SetDefault("lifecycle.video.binary", "flvrec.py")
	v.SetDefault("lifecycle.plugin_logs.enabled", true)
	v.SetDefault("lifecycle.plugin_logs.path", "artifacts/logs")
	v.SetDefault("lifecycle.server_log.enabled", false)

	// -- Server --
	v.SetDefault("server.timeout", "30s")
	v.SetDefault("server.reset.strategy", ResetHTTP)

	// -- Fixtures --
	v.SetDefault("fixtures.keys_dir", "data/gpg")
	v.SetDefault("fixtures.server_key", "server_public.key")
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	// Bind environment variables for sensitive data
	_ = v.BindEnv("server.reset.dsn", "PASSBOLT_E2E_RESET_DSN")

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, fmt.Errorf("error expanding paths: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func (c *Config) expandPaths() error {
	paths := []*string{
		&c.LoggerCfg.LogFile,
		&c.LifecycleCfg.ArtifactsDir,
		&c.LifecycleCfg.Video.Path,
		&c.LifecycleCfg.PluginLogs.Path,
		&c.LifecycleCfg.ServerLog.Path,
		&c.ServerCfg.Reset.SQLFile,
		&c.FixturesCfg.Path,
		&c.FixturesCfg.KeysDir,
		&c.FixturesCfg.ServerKey,
		&c.FixturesCfg.Selectors,
	}
	for _, p := range paths {
		if *p == "" {
			continue
		}
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return err
		}
		*p = expanded
	}
	return nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.PassboltCfg.URL == "" {
		return fmt.Errorf("passbolt.url is a required configuration field")
	}
	if c.BrowserCfg.RemoteURL == "" {
		return fmt.Errorf("browser.remote_url is a required configuration field")
	}
	switch strings.ToLower(c.BrowserCfg.Type) {
	case BrowserChrome, BrowserFirefox:
	default:
		return fmt.Errorf("browser.type must be one of %q or %q, got %q", BrowserChrome, BrowserFirefox, c.BrowserCfg.Type)
	}
	if err := c.WaitCfg.Validate(); err != nil {
		return fmt.Errorf("wait configuration invalid: %w", err)
	}
	if err := c.LifecycleCfg.Video.Validate(); err != nil {
		return fmt.Errorf("lifecycle.video configuration invalid: %w", err)
	}
	if err := c.ServerCfg.Reset.Validate(); err != nil {
		return fmt.Errorf("server.reset configuration invalid: %w", err)
	}
	return nil
}

// Validate checks the wait engine settings.
func (w *WaitConfig) Validate() error {
	if w.Timeout <= 0 {
		return fmt.Errorf("timeout must be a positive duration")
	}
	if w.Interval <= 0 {
		return fmt.Errorf("interval must be a positive duration")
	}
	if w.Interval > w.Timeout {
		return fmt.Errorf("interval (%s) must not exceed timeout (%s)", w.Interval, w.Timeout)
	}
	return nil
}

// Validate checks the video recorder settings.
func (v *VideoConfig) Validate() error {
	if !v.Enabled {
		return nil
	}
	if v.When != VideoAlways && v.When != VideoOnFail {
		return fmt.Errorf("when must be %q or %q", VideoAlways, VideoOnFail)
	}
	if v.Binary == "" {
		return fmt.Errorf("binary is required when video recording is enabled")
	}
	return nil
}

// Validate checks the reset strategy.
func (r *ResetConfig) Validate() error {
	switch r.Strategy {
	case ResetHTTP:
		return nil
	case ResetSQL:
		if r.DSN == "" || r.SQLFile == "" {
			return fmt.Errorf("dsn and sql_file are required for the sql strategy. Ensure PASSBOLT_E2E_RESET_DSN is set")
		}
		return nil
	default:
		return fmt.Errorf("unknown strategy %q", r.Strategy)
	}
}
