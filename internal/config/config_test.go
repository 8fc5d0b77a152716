// File: internal/config/config_test.go
package config

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -- Constructor and Defaults Tests --

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "info", cfg.Logger().Level)
	assert.Equal(t, "passbolt-e2e", cfg.Logger().ServiceName)
	assert.Equal(t, 10*time.Second, cfg.Wait().Timeout)
	assert.Equal(t, 100*time.Millisecond, cfg.Wait().Interval)
	assert.Equal(t, 2*time.Second, cfg.Wait().SecurityTokenTimeout)
	assert.Equal(t, 5*time.Second, cfg.Wait().ClipboardTimeout)
	assert.Equal(t, BrowserChrome, cfg.Browser().Type)
	assert.True(t, cfg.Browser().HasExtensions())
	assert.Equal(t, "data/config-debug.html", cfg.Passbolt().DebugPath)
	assert.Equal(t, VideoOnFail, cfg.Lifecycle().Video.When)
	assert.Equal(t, ResetHTTP, cfg.Server().Reset.Strategy)
	assert.NoError(t, cfg.Validate(), "defaults must always validate")
}

// -- Validation Logic Tests --

func TestConfigValidation(t *testing.T) {
	t.Run("Core Validation", func(t *testing.T) {
		cfg := NewDefaultConfig()

		noURL := *cfg
		noURL.PassboltCfg.URL = ""
		err := noURL.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "passbolt.url is a required configuration field")

		noRemote := *cfg
		noRemote.BrowserCfg.RemoteURL = ""
		err = noRemote.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "browser.remote_url is a required configuration field")

		badType := *cfg
		badType.BrowserCfg.Type = "netscape"
		err = badType.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "browser.type must be one of")

		upperType := *cfg
		upperType.BrowserCfg.Type = "Chrome"
		assert.NoError(t, upperType.Validate(), "browser type is matched case-insensitively")
	})

	t.Run("Wait Validation", func(t *testing.T) {
		valid := WaitConfig{Timeout: time.Second, Interval: 100 * time.Millisecond}
		assert.NoError(t, valid.Validate())

		zeroTimeout := valid
		zeroTimeout.Timeout = 0
		err := zeroTimeout.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "timeout must be a positive duration")

		zeroInterval := valid
		zeroInterval.Interval = 0
		err = zeroInterval.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "interval must be a positive duration")

		inverted := valid
		inverted.Interval = 2 * time.Second
		err = inverted.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "must not exceed timeout")
	})

	t.Run("Video Validation", func(t *testing.T) {
		disabled := VideoConfig{Enabled: false, When: "sometimes"}
		assert.NoError(t, disabled.Validate(), "disabled recorder config should always be valid")

		valid := VideoConfig{Enabled: true, When: VideoAlways, Binary: "flvrec.py"}
		assert.NoError(t, valid.Validate())

		badWhen := valid
		badWhen.When = "sometimes"
		err := badWhen.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "when must be")

		noBinary := valid
		noBinary.Binary = ""
		err = noBinary.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "binary is required")
	})

	t.Run("Reset Validation", func(t *testing.T) {
		assert.NoError(t, (&ResetConfig{Strategy: ResetHTTP}).Validate())

		sql := ResetConfig{Strategy: ResetSQL, SQLFile: "reset.sql", DSN: "postgres://localhost/passbolt"}
		assert.NoError(t, sql.Validate())

		sqlNoDSN := sql
		sqlNoDSN.DSN = ""
		err := sqlNoDSN.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "PASSBOLT_E2E_RESET_DSN")

		unknown := ResetConfig{Strategy: "ftp"}
		err = unknown.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), `unknown strategy "ftp"`)
	})
}

// -- Factory Function Tests --

func TestNewConfigFromViper(t *testing.T) {
	t.Run("Successful Load from YAML", func(t *testing.T) {
		yamlBytes := []byte(`
passbolt:
  url: "https://passbolt.test"
browser:
  remote_url: "ws://selenium:9222"
  extensions: []
wait:
  timeout: 3s
`)
		v := viper.New()
		SetDefaults(v)
		v.SetConfigType("yaml")
		require.NoError(t, v.ReadConfig(bytes.NewBuffer(yamlBytes)))

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)

		assert.Equal(t, "https://passbolt.test", cfg.Passbolt().URL)
		assert.Equal(t, "ws://selenium:9222", cfg.Browser().RemoteURL)
		assert.False(t, cfg.Browser().HasExtensions())
		assert.Equal(t, 3*time.Second, cfg.Wait().Timeout)
		// Defaults survive alongside file values.
		assert.Equal(t, 100*time.Millisecond, cfg.Wait().Interval)
	})

	t.Run("Validation Failure", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		v.Set("wait.interval", "0s")

		cfg, err := NewConfigFromViper(v)
		assert.Error(t, err)
		assert.Nil(t, cfg)
		assert.Contains(t, err.Error(), "invalid configuration")
		assert.Contains(t, err.Error(), "interval must be a positive duration")
	})

	t.Run("Environment Variable Binding", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		v.Set("server.reset.strategy", ResetSQL)
		v.Set("server.reset.sql_file", "/tmp/reset.sql")

		t.Setenv("PASSBOLT_E2E_RESET_DSN", "postgres://env/passbolt")

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)
		assert.Equal(t, "postgres://env/passbolt", cfg.Server().Reset.DSN)
	})

	t.Run("Home Directory Expansion", func(t *testing.T) {
		home, err := homedir.Dir()
		require.NoError(t, err)

		v := viper.New()
		SetDefaults(v)
		v.Set("lifecycle.artifacts_dir", "~/passbolt-artifacts")

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(home, "passbolt-artifacts"), cfg.Lifecycle().ArtifactsDir)
	})
}

func TestSetters(t *testing.T) {
	var c Interface = NewDefaultConfig()
	c.SetBrowserRemoteURL("http://other:9222")
	c.SetPassboltURL("https://other.test")
	c.SetWaitTimeout(time.Minute)
	c.SetLifecycleScreenshotOnFail(false)

	assert.Equal(t, "http://other:9222", c.Browser().RemoteURL)
	assert.Equal(t, "https://other.test", c.Passbolt().URL)
	assert.Equal(t, time.Minute, c.Wait().Timeout)
	assert.False(t, c.Lifecycle().ScreenshotOnFail)
}
