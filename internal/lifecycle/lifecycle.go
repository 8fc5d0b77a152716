// Package lifecycle wraps each end-to-end test with its setup and teardown:
// the optional screen recording, the failure screenshot, the extension logs,
// the followed server error log and the scheduled database reset.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/xkilldash9x/passbolt-e2e/internal/browser"
	"github.com/xkilldash9x/passbolt-e2e/internal/config"
	"github.com/xkilldash9x/passbolt-e2e/internal/observability"
	"github.com/xkilldash9x/passbolt-e2e/internal/server"
)

// ErrSessionBusy is returned by Begin while another test holds the session.
var ErrSessionBusy = errors.New("lifecycle: session is already running a test")

// Session is what the controller needs from the harness.
type Session interface {
	Driver() browser.Driver
	PluginLogs(ctx context.Context) (string, error)
}

// TB is the part of testing.TB that Track uses.
type TB interface {
	Name() string
	Failed() bool
	Cleanup(func())
	Logf(format string, args ...any)
}

// Options wires a Controller. Config and Session are required.
type Options struct {
	Config  config.Interface
	Session Session
	// Resetter runs the database reset scheduled with ResetDatabaseWhenComplete.
	Resetter server.Resetter
	// Recorder is used when lifecycle.video.enabled is set.
	Recorder Recorder
	// Fs receives the artifacts; defaults to the OS filesystem.
	Fs     afero.Fs
	Logger *zap.Logger
}

// Controller runs the per-test hooks of one browser session. A session runs one
// test at a time.
type Controller struct {
	cfg      config.Interface
	session  Session
	resetter server.Resetter
	recorder Recorder
	store    *Store
	logger   *zap.Logger
	sem      *semaphore.Weighted
}

// New builds a Controller.
func New(opts Options) (*Controller, error) {
	if opts.Config == nil || opts.Session == nil {
		return nil, errors.New("lifecycle controller needs a config and a session")
	}
	fs := opts.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	logger := opts.Logger
	if logger == nil {
		logger = observability.GetLogger()
	}
	logger = logger.Named("lifecycle")

	recorder := opts.Recorder
	video := opts.Config.Lifecycle().Video
	if video.Enabled && recorder == nil {
		r, err := NewExecRecorder(video.Binary, opts.Config.Browser().RemoteURL, logger)
		if err != nil {
			return nil, err
		}
		recorder = r
	}

	return &Controller{
		cfg:      opts.Config,
		session:  opts.Session,
		resetter: opts.Resetter,
		recorder: recorder,
		store:    NewStore(fs),
		logger:   logger,
		sem:      semaphore.NewWeighted(1),
	}, nil
}

// Store returns the artifact store.
func (c *Controller) Store() *Store { return c.store }

// Run is one test between Begin and End.
type Run struct {
	c       *Controller
	test    string
	name    string
	started time.Time

	recording Recording
	videoPath string
	serverLog *logFollower

	resetDB bool
	dataset string
	ended   bool
}

// Begin starts the hooks for the named test. The optional recorders are
// best effort: a recorder that fails to start is logged and skipped.
func (c *Controller) Begin(ctx context.Context, test string) (*Run, error) {
	if !c.sem.TryAcquire(1) {
		return nil, ErrSessionBusy
	}
	r := &Run{c: c, test: test, name: ArtifactName(test), started: time.Now()}
	lc := c.cfg.Lifecycle()
	logger := c.logger.With(zap.String("test", test))

	if lc.Video.Enabled && c.recorder != nil {
		if err := c.store.Fs().MkdirAll(lc.Video.Path, 0o755); err != nil {
			logger.Warn("Could not create the video directory.", zap.Error(err))
		}
		r.videoPath = filepath.Join(lc.Video.Path, r.name+".flv")
		rec, err := c.recorder.Start(ctx, r.videoPath)
		if err != nil {
			logger.Warn("Video recording not started.", zap.Error(err))
		} else {
			r.recording = rec
		}
	}

	if lc.ServerLog.Enabled && lc.ServerLog.Path != "" {
		f, err := followLog(lc.ServerLog.Path, logger)
		if err != nil {
			logger.Warn("Server log not followed.", zap.Error(err))
		} else {
			r.serverLog = f
		}
	}

	logger.Debug("Test started.")
	return r, nil
}

// Track begins a run for t and ends it from t's cleanup with t's outcome.
// Teardown errors are reported through t.Logf.
func (c *Controller) Track(ctx context.Context, t TB) (*Run, error) {
	r, err := c.Begin(ctx, t.Name())
	if err != nil {
		return nil, err
	}
	t.Cleanup(func() {
		if err := r.End(context.Background(), t.Failed()); err != nil {
			t.Logf("lifecycle teardown: %v", err)
		}
	})
	return r, nil
}

// Name is the artifact file stem of the run.
func (r *Run) Name() string { return r.name }

// ResetDatabaseWhenComplete schedules a database reset for End. The dataset
// defaults to passbolt.reset_dataset.
func (r *Run) ResetDatabaseWhenComplete(dataset ...string) {
	r.resetDB = true
	if len(dataset) > 0 {
		r.dataset = dataset[0]
	}
}

// End runs the teardown hooks and releases the session. The hooks all run,
// whatever failed before; their errors are joined. Calling End twice is a
// no-op.
func (r *Run) End(ctx context.Context, failed bool) error {
	if r.ended {
		return nil
	}
	r.ended = true
	defer r.c.sem.Release(1)

	ctx = browser.Detach(ctx)
	c := r.c
	lc := c.cfg.Lifecycle()
	logger := c.logger.With(zap.String("test", r.test), zap.Bool("failed", failed))

	var g errgroup.Group
	if r.recording != nil {
		g.Go(func() error { return r.stopVideo(ctx, failed) })
	}

	var errs []error
	if failed && lc.ScreenshotOnFail {
		errs = append(errs, r.screenshot(ctx))
	}
	if failed && lc.PluginLogs.Enabled && c.cfg.Browser().HasExtensions() {
		errs = append(errs, r.pluginLogs(ctx))
	}
	if r.serverLog != nil {
		errs = append(errs, r.saveServerLog(failed))
	}
	errs = append(errs, g.Wait())
	if r.resetDB {
		errs = append(errs, r.resetDatabase(ctx))
	}

	err := errors.Join(errs...)
	if err != nil {
		logger.Error("Teardown hooks failed.", zap.Error(err))
	} else {
		logger.Debug("Test ended.", zap.Duration("elapsed", time.Since(r.started)))
	}
	return err
}

func (r *Run) stopVideo(ctx context.Context, failed bool) error {
	if err := r.recording.Stop(ctx); err != nil {
		return err
	}
	if r.c.cfg.Lifecycle().Video.When == config.VideoOnFail && !failed {
		return r.c.store.Remove(r.videoPath)
	}
	return nil
}

func (r *Run) screenshot(ctx context.Context) error {
	png, err := r.c.session.Driver().Screenshot(ctx)
	if err != nil {
		return fmt.Errorf("screenshot: %w", err)
	}
	dir := filepath.Join(r.c.cfg.Lifecycle().ArtifactsDir, "screenshots")
	path, err := r.c.store.Write(dir, r.name+".png", png)
	if err != nil {
		return err
	}
	r.c.logger.Info("Saved failure screenshot.", zap.String("path", path))
	return nil
}

func (r *Run) pluginLogs(ctx context.Context) error {
	raw, err := r.c.session.PluginLogs(ctx)
	if err != nil {
		return fmt.Errorf("plugin logs: %w", err)
	}
	data, isJSON := formatPluginLogs(raw)
	file := r.name + "_plugin.json"
	if !isJSON {
		file = r.name + "_plugin.log"
	}
	path, err := r.c.store.Write(r.c.cfg.Lifecycle().PluginLogs.Path, file, data)
	if err != nil {
		return err
	}
	fields := []zap.Field{zap.String("path", path)}
	if isJSON {
		fields = append(fields, zap.Int("entries", pluginLogEntries(raw)))
	}
	r.c.logger.Info("Saved plugin logs.", fields...)
	return nil
}

// saveServerLog stops following the server log and keeps what it collected
// when the test failed.
func (r *Run) saveServerLog(failed bool) error {
	content, err := r.serverLog.Stop()
	if err != nil {
		r.c.logger.Warn("Server log follower stopped with an error.", zap.Error(err))
	}
	if !failed || content == "" {
		return nil
	}
	dir := filepath.Join(r.c.cfg.Lifecycle().ArtifactsDir, "logs")
	path, err := r.c.store.Write(dir, r.name+"_server.log", []byte(content))
	if err != nil {
		return err
	}
	r.c.logger.Info("Saved server log.", zap.String("path", path))
	return nil
}

func (r *Run) resetDatabase(ctx context.Context) error {
	if r.c.resetter == nil {
		return errors.New("database reset scheduled but no resetter is configured")
	}
	dataset := r.dataset
	if dataset == "" {
		dataset = r.c.cfg.Passbolt().ResetDataset
	}
	if err := r.c.resetter.Reset(ctx, dataset); err != nil {
		return fmt.Errorf("database reset: %w", err)
	}
	return nil
}
