package lifecycle

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/hpcloud/tail"
	"go.uber.org/zap"
)

// logFollower collects the lines appended to the server error log while a
// test runs.
type logFollower struct {
	t      *tail.Tail
	logger *zap.Logger

	mu    sync.Mutex
	lines []string
	done  chan struct{}
}

func followLog(path string, logger *zap.Logger) (*logFollower, error) {
	t, err := tail.TailFile(path, tail.Config{
		Follow:    true,
		ReOpen:    true,
		MustExist: false,
		Poll:      true,
		Location:  &tail.SeekInfo{Offset: 0, Whence: io.SeekEnd},
		Logger:    tail.DiscardingLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to follow server log: %w", err)
	}
	f := &logFollower{t: t, logger: logger, done: make(chan struct{})}
	go f.collect()
	return f, nil
}

func (f *logFollower) collect() {
	defer close(f.done)
	for line := range f.t.Lines {
		if line.Err != nil {
			f.logger.Warn("Error reading server log.", zap.Error(line.Err))
			continue
		}
		f.mu.Lock()
		f.lines = append(f.lines, line.Text)
		f.mu.Unlock()
	}
}

// Lines returns what was collected so far.
func (f *logFollower) Lines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.lines...)
}

// Stop ends the follower and returns everything collected.
func (f *logFollower) Stop() (string, error) {
	err := f.t.Stop()
	f.t.Cleanup()
	<-f.done
	lines := f.Lines()
	if len(lines) == 0 {
		return "", err
	}
	return strings.Join(lines, "\n") + "\n", err
}
