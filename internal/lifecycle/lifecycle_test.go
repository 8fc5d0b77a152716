package lifecycle

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xkilldash9x/passbolt-e2e/internal/browser"
	"github.com/xkilldash9x/passbolt-e2e/internal/browser/browsertest"
	"github.com/xkilldash9x/passbolt-e2e/internal/config"
	"github.com/xkilldash9x/passbolt-e2e/internal/mocks"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeSession struct {
	driver  *browsertest.Driver
	logs    string
	logsErr error
}

func (s *fakeSession) Driver() browser.Driver { return s.driver }

func (s *fakeSession) PluginLogs(ctx context.Context) (string, error) {
	return s.logs, s.logsErr
}

// fakeRecorder writes the output file on Start so removal can be observed.
type fakeRecorder struct {
	fs       afero.Fs
	startErr error

	mu      sync.Mutex
	started []string
	stopped int
}

func (r *fakeRecorder) Start(ctx context.Context, output string) (Recording, error) {
	if r.startErr != nil {
		return nil, r.startErr
	}
	r.mu.Lock()
	r.started = append(r.started, output)
	r.mu.Unlock()
	if err := afero.WriteFile(r.fs, output, []byte("FLV"), 0o644); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *fakeRecorder) Stop(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped++
	return nil
}

type fakeTB struct {
	name     string
	failed   bool
	cleanups []func()
	logs     []string
}

func (t *fakeTB) Name() string              { return t.name }
func (t *fakeTB) Failed() bool              { return t.failed }
func (t *fakeTB) Cleanup(f func())          { t.cleanups = append(t.cleanups, f) }
func (t *fakeTB) Logf(f string, args ...any) { t.logs = append(t.logs, f) }

func (t *fakeTB) runCleanups() {
	for i := len(t.cleanups) - 1; i >= 0; i-- {
		t.cleanups[i]()
	}
}

type fixture struct {
	cfg      *config.Config
	fs       afero.Fs
	session  *fakeSession
	recorder *fakeRecorder
	resetter *mocks.MockResetter
	logs     *observer.ObservedLogs
	c        *Controller
}

func newFixture(t *testing.T, adjust func(*config.Config)) *fixture {
	t.Helper()
	cfg := config.NewDefaultConfig()
	cfg.LifecycleCfg.ScreenshotOnFail = true
	cfg.LifecycleCfg.ArtifactsDir = "/artifacts"
	cfg.LifecycleCfg.PluginLogs = config.PluginLogsConfig{Enabled: true, Path: "/artifacts/plugin"}
	cfg.LifecycleCfg.Video = config.VideoConfig{Enabled: false, When: config.VideoOnFail, Path: "/artifacts/video", Binary: "flvrec.py"}
	cfg.LifecycleCfg.ServerLog = config.ServerLogConfig{}
	if adjust != nil {
		adjust(cfg)
	}

	fs := afero.NewMemMapFs()
	core, logs := observer.New(zap.DebugLevel)
	f := &fixture{
		cfg:      cfg,
		fs:       fs,
		session:  &fakeSession{driver: browsertest.New(), logs: `[{"level":"error","message":"boom"}]`},
		recorder: &fakeRecorder{fs: fs},
		resetter: new(mocks.MockResetter),
		logs:     logs,
	}
	c, err := New(Options{
		Config:   cfg,
		Session:  f.session,
		Resetter: f.resetter,
		Recorder: f.recorder,
		Fs:       fs,
		Logger:   zap.New(core),
	})
	require.NoError(t, err)
	f.c = c
	return f
}

func (f *fixture) exists(t *testing.T, path string) bool {
	t.Helper()
	ok, err := afero.Exists(f.fs, path)
	require.NoError(t, err)
	return ok
}

func TestNewRequiresConfigAndSession(t *testing.T) {
	_, err := New(Options{Session: &fakeSession{}})
	assert.Error(t, err)
	_, err = New(Options{Config: config.NewDefaultConfig()})
	assert.Error(t, err)
}

func TestNewBuildsExecRecorderWhenVideoEnabled(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.BrowserCfg.RemoteURL = "http://selenium.local:4444/wd/hub"
	cfg.LifecycleCfg.Video.Enabled = true
	cfg.LifecycleCfg.Video.Binary = "flvrec.py"

	c, err := New(Options{Config: cfg, Session: &fakeSession{}, Fs: afero.NewMemMapFs(), Logger: zap.NewNop()})
	require.NoError(t, err)
	rec, ok := c.recorder.(*ExecRecorder)
	require.True(t, ok)
	assert.Equal(t, "selenium.local", rec.Host)

	cfg.LifecycleCfg.Video.Binary = ""
	_, err = New(Options{Config: cfg, Session: &fakeSession{}, Logger: zap.NewNop()})
	assert.Error(t, err)
}

func TestDisabledHooksOnlyReadConfig(t *testing.T) {
	cfg := new(mocks.MockConfig)
	cfg.On("Lifecycle").Return(config.LifecycleConfig{})
	cfg.On("Passbolt").Return(config.PassboltConfig{ResetDataset: "default"})
	fs := afero.NewMemMapFs()

	c, err := New(Options{Config: cfg, Session: &fakeSession{driver: browsertest.New()}, Fs: fs, Logger: zap.NewNop()})
	require.NoError(t, err)
	run, err := c.Begin(context.Background(), "TestQuiet")
	require.NoError(t, err)
	require.NoError(t, run.End(context.Background(), true))

	entries, err := afero.ReadDir(fs, "/")
	require.NoError(t, err)
	assert.Empty(t, entries)
	cfg.AssertNotCalled(t, "Browser")
}

func TestBeginHoldsTheSession(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	run, err := f.c.Begin(ctx, "TestFirst")
	require.NoError(t, err)

	_, err = f.c.Begin(ctx, "TestSecond")
	assert.ErrorIs(t, err, ErrSessionBusy)

	require.NoError(t, run.End(ctx, false))
	require.NoError(t, run.End(ctx, false), "ending twice is a no-op")

	again, err := f.c.Begin(ctx, "TestSecond")
	require.NoError(t, err)
	require.NoError(t, again.End(ctx, false))
}

func TestEndOnFailureSavesArtifacts(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	run, err := f.c.Begin(ctx, "TestShare/last owner")
	require.NoError(t, err)
	assert.Equal(t, "testshare-last-owner", run.Name())
	require.NoError(t, run.End(ctx, true))

	png, err := afero.ReadFile(f.fs, "/artifacts/screenshots/testshare-last-owner.png")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(png), "\x89PNG"))

	logs, err := afero.ReadFile(f.fs, "/artifacts/plugin/testshare-last-owner_plugin.json")
	require.NoError(t, err)
	assert.Contains(t, string(logs), "\n  {\n")
	assert.Contains(t, string(logs), `"message": "boom"`)

	saved := f.logs.FilterMessage("Saved plugin logs.").All()
	require.Len(t, saved, 1)
	assert.EqualValues(t, 1, saved[0].ContextMap()["entries"])
}

func TestEndOnFailureKeepsRawPluginLogs(t *testing.T) {
	f := newFixture(t, nil)
	f.session.logs = "  plain text dump \n"
	ctx := context.Background()

	run, err := f.c.Begin(ctx, "TestRaw")
	require.NoError(t, err)
	require.NoError(t, run.End(ctx, true))

	data, err := afero.ReadFile(f.fs, "/artifacts/plugin/testraw_plugin.log")
	require.NoError(t, err)
	assert.Equal(t, "plain text dump", string(data))
}

func TestEndOnSuccessSkipsFailureHooks(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	run, err := f.c.Begin(ctx, "TestPass")
	require.NoError(t, err)
	require.NoError(t, run.End(ctx, false))

	assert.False(t, f.exists(t, "/artifacts/screenshots"))
	assert.False(t, f.exists(t, "/artifacts/plugin"))
}

func TestPluginLogsNeedExtensions(t *testing.T) {
	f := newFixture(t, func(cfg *config.Config) {
		cfg.BrowserCfg.Extensions = nil
	})
	f.session.logsErr = errors.New("must not be called")
	ctx := context.Background()

	run, err := f.c.Begin(ctx, "TestNoExtension")
	require.NoError(t, err)
	require.NoError(t, run.End(ctx, true))
	assert.False(t, f.exists(t, "/artifacts/plugin"))
}

func TestVideo(t *testing.T) {
	tests := []struct {
		name   string
		when   string
		failed bool
		kept   bool
	}{
		{"on fail, test passed", config.VideoOnFail, false, false},
		{"on fail, test failed", config.VideoOnFail, true, true},
		{"always, test passed", config.VideoAlways, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, func(cfg *config.Config) {
				cfg.LifecycleCfg.Video.Enabled = true
				cfg.LifecycleCfg.Video.When = tt.when
			})
			ctx := context.Background()

			run, err := f.c.Begin(ctx, "TestVideo")
			require.NoError(t, err)
			require.Equal(t, []string{"/artifacts/video/testvideo.flv"}, f.recorder.started)
			require.NoError(t, run.End(ctx, tt.failed))

			assert.Equal(t, 1, f.recorder.stopped)
			assert.Equal(t, tt.kept, f.exists(t, "/artifacts/video/testvideo.flv"))
		})
	}
}

func TestVideoStartFailureIsNotFatal(t *testing.T) {
	f := newFixture(t, func(cfg *config.Config) {
		cfg.LifecycleCfg.Video.Enabled = true
	})
	f.recorder.startErr = errors.New("no display")
	ctx := context.Background()

	run, err := f.c.Begin(ctx, "TestNoVideo")
	require.NoError(t, err)
	require.NoError(t, run.End(ctx, false))
	assert.Equal(t, 1, f.logs.FilterMessage("Video recording not started.").Len())
}

func TestResetDatabaseWhenComplete(t *testing.T) {
	t.Run("default dataset", func(t *testing.T) {
		f := newFixture(t, nil)
		f.resetter.On("Reset", mock.Anything, "default").Return(nil).Once()

		run, err := f.c.Begin(context.Background(), "TestReset")
		require.NoError(t, err)
		run.ResetDatabaseWhenComplete()
		require.NoError(t, run.End(context.Background(), false))
		f.resetter.AssertExpectations(t)
	})

	t.Run("named dataset, even after a cancelled test context", func(t *testing.T) {
		f := newFixture(t, nil)
		f.resetter.On("Reset", mock.MatchedBy(func(ctx context.Context) bool { return ctx.Err() == nil }), "seleniumtests").Return(nil).Once()

		ctx, cancel := context.WithCancel(context.Background())
		run, err := f.c.Begin(ctx, "TestReset")
		require.NoError(t, err)
		run.ResetDatabaseWhenComplete("seleniumtests")
		cancel()
		require.NoError(t, run.End(ctx, false))
		f.resetter.AssertExpectations(t)
	})

	t.Run("not scheduled", func(t *testing.T) {
		f := newFixture(t, nil)
		run, err := f.c.Begin(context.Background(), "TestNoReset")
		require.NoError(t, err)
		require.NoError(t, run.End(context.Background(), false))
		f.resetter.AssertNotCalled(t, "Reset", mock.Anything, mock.Anything)
	})

	t.Run("no resetter", func(t *testing.T) {
		cfg := config.NewDefaultConfig()
		c, err := New(Options{Config: cfg, Session: &fakeSession{driver: browsertest.New()}, Fs: afero.NewMemMapFs(), Logger: zap.NewNop()})
		require.NoError(t, err)
		run, err := c.Begin(context.Background(), "TestReset")
		require.NoError(t, err)
		run.ResetDatabaseWhenComplete()
		assert.Error(t, run.End(context.Background(), false))
	})
}

func TestEndJoinsErrorsAndReleases(t *testing.T) {
	f := newFixture(t, nil)
	f.session.logsErr = errors.New("debug page unavailable")
	resetErr := errors.New("reset refused")
	f.resetter.On("Reset", mock.Anything, "default").Return(resetErr).Once()
	ctx := context.Background()

	run, err := f.c.Begin(ctx, "TestBroken")
	require.NoError(t, err)
	run.ResetDatabaseWhenComplete()
	require.NoError(t, f.session.driver.Quit(ctx))

	err = run.End(ctx, true)
	require.Error(t, err)
	assert.ErrorIs(t, err, f.session.logsErr)
	assert.ErrorIs(t, err, resetErr)
	assert.Contains(t, err.Error(), "screenshot")
	f.resetter.AssertExpectations(t)

	next, err := f.c.Begin(ctx, "TestAfter")
	require.NoError(t, err, "a failed teardown still releases the session")
	require.NoError(t, next.End(ctx, false))
}

func TestTrack(t *testing.T) {
	f := newFixture(t, nil)
	tb := &fakeTB{name: "TestTracked", failed: true}

	_, err := f.c.Track(context.Background(), tb)
	require.NoError(t, err)
	require.Len(t, tb.cleanups, 1)

	_, err = f.c.Track(context.Background(), &fakeTB{name: "TestOther"})
	assert.ErrorIs(t, err, ErrSessionBusy)

	tb.runCleanups()
	assert.Empty(t, tb.logs)
	assert.True(t, f.exists(t, "/artifacts/screenshots/testtracked.png"))
}

func TestTrackLogsTeardownErrors(t *testing.T) {
	f := newFixture(t, nil)
	f.session.logsErr = errors.New("boom")
	tb := &fakeTB{name: "TestTracked", failed: true}

	_, err := f.c.Track(context.Background(), tb)
	require.NoError(t, err)
	tb.runCleanups()
	assert.Len(t, tb.logs, 1)
}

func TestServerLogSavedOnFailure(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "error.log")
	require.NoError(t, os.WriteFile(logPath, []byte("old entry\n"), 0o644))

	f := newFixture(t, func(cfg *config.Config) {
		cfg.LifecycleCfg.ServerLog = config.ServerLogConfig{Enabled: true, Path: logPath}
	})
	ctx := context.Background()

	run, err := f.c.Begin(ctx, "TestServerLog")
	require.NoError(t, err)
	require.NotNil(t, run.serverLog)

	// The follower starts at the end of the file; give it a moment to open it.
	time.Sleep(100 * time.Millisecond)
	fh, err := os.OpenFile(logPath, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = fh.WriteString("2026-10-17 Error: SQLSTATE[23000]\n")
	require.NoError(t, err)
	require.NoError(t, fh.Close())

	assert.Eventually(t, func() bool {
		return len(run.serverLog.Lines()) > 0
	}, 3*time.Second, 20*time.Millisecond)

	require.NoError(t, run.End(ctx, true))
	data, err := afero.ReadFile(f.fs, "/artifacts/logs/testserverlog_server.log")
	require.NoError(t, err)
	assert.Equal(t, "2026-10-17 Error: SQLSTATE[23000]\n", string(data))
}

func TestServerLogDiscardedOnSuccess(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "error.log")
	f := newFixture(t, func(cfg *config.Config) {
		cfg.LifecycleCfg.ServerLog = config.ServerLogConfig{Enabled: true, Path: logPath}
	})
	ctx := context.Background()

	run, err := f.c.Begin(ctx, "TestQuiet")
	require.NoError(t, err)
	require.NoError(t, run.End(ctx, false))
	assert.False(t, f.exists(t, "/artifacts/logs"))
}

func TestArtifactName(t *testing.T) {
	tests := map[string]string{
		"TestShare/last owner": "testshare-last-owner",
		"TestLogin":            "testlogin",
		"":                     "unnamed",
		"///":                  "unnamed",
	}
	for in, want := range tests {
		assert.Equal(t, want, ArtifactName(in), in)
	}
}

func TestStoreRemoveMissingFile(t *testing.T) {
	s := NewStore(afero.NewMemMapFs())
	assert.NoError(t, s.Remove("/nowhere/video.flv"))
}

func TestFormatPluginLogs(t *testing.T) {
	out, ok := formatPluginLogs(`{"a":[1,2]}`)
	require.True(t, ok)
	assert.Equal(t, "{\n  \"a\": [\n    1,\n    2\n  ]\n}\n", string(out))

	out, ok = formatPluginLogs("not json {")
	assert.False(t, ok)
	assert.Equal(t, "not json {", string(out))

	assert.Equal(t, 3, pluginLogEntries(`[1,2,3]`))
	assert.Equal(t, 1, pluginLogEntries(`{"a":1}`))
}

func TestNewExecRecorder(t *testing.T) {
	r, err := NewExecRecorder("flvrec.py", "http://vnc.example:4444/wd/hub", zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "vnc.example", r.Host)

	_, err = NewExecRecorder("", "http://vnc.example:4444", zap.NewNop())
	assert.Error(t, err)
	_, err = NewExecRecorder("flvrec.py", "/wd/hub", zap.NewNop())
	assert.Error(t, err)
}

func TestExecRecorderStartStop(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh is not available")
	}
	script := filepath.Join(t.TempDir(), "flvrec")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\nexec sleep 30\n"), 0o755))

	r, err := NewExecRecorder(script, "http://localhost:4444", zap.NewNop())
	require.NoError(t, err)

	ctx := context.Background()
	rec, err := r.Start(ctx, filepath.Join(t.TempDir(), "out.flv"))
	require.NoError(t, err)

	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	assert.NoError(t, rec.Stop(stopCtx))
}
