package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/exec"

	"go.uber.org/zap"
)

// Recorder starts a screen recording of the browser host into output.
type Recorder interface {
	Start(ctx context.Context, output string) (Recording, error)
}

// Recording is a running recorder.
type Recording interface {
	Stop(ctx context.Context) error
}

// ExecRecorder runs an external VNC recorder, flvrec.py by default, as
// `binary -o output host`.
type ExecRecorder struct {
	Binary string
	Host   string
	logger *zap.Logger
}

// NewExecRecorder records the VNC console of the host behind remoteURL.
func NewExecRecorder(binary, remoteURL string, logger *zap.Logger) (*ExecRecorder, error) {
	if binary == "" {
		return nil, errors.New("video recorder binary is not configured")
	}
	u, err := url.Parse(remoteURL)
	if err != nil {
		return nil, fmt.Errorf("parsing browser remote url: %w", err)
	}
	host := u.Hostname()
	if host == "" {
		return nil, fmt.Errorf("browser remote url %q has no host", remoteURL)
	}
	return &ExecRecorder{Binary: binary, Host: host, logger: logger.Named("video")}, nil
}

// Start launches the recorder. The process outlives ctx; it runs until Stop.
func (r *ExecRecorder) Start(ctx context.Context, output string) (Recording, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cmd := exec.Command(r.Binary, "-o", output, r.Host)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting video recorder: %w", err)
	}
	r.logger.Debug("Video recording started.", zap.String("output", output), zap.Int("pid", cmd.Process.Pid))
	return &execRecording{cmd: cmd, logger: r.logger}, nil
}

type execRecording struct {
	cmd    *exec.Cmd
	logger *zap.Logger
}

// Stop kills the recorder and reaps it. The recorder has no graceful stop.
func (e *execRecording) Stop(ctx context.Context) error {
	if err := e.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("stopping video recorder: %w", err)
	}
	done := make(chan error, 1)
	go func() { done <- e.cmd.Wait() }()
	select {
	case err := <-done:
		// A killed process always exits with an error.
		e.logger.Debug("Video recording stopped.", zap.NamedError("exit", err))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
