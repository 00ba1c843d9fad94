// Package script holds the side-effecting collaborators the session
// delegates to: script execution and file writes. Results are surfaced
// to callers but the session layer discards them.
package script

import (
	"os"
	"os/exec"

	"github.com/objbrowse/backend/internal/logging"
	"go.uber.org/zap"
)

// Runner executes scripts through a configured interpreter.
type Runner struct {
	interpreter string
	log         *logging.Logger
}

// NewRunner creates a runner. An empty interpreter defaults to /bin/sh.
func NewRunner(interpreter string, log *logging.Logger) *Runner {
	if interpreter == "" {
		interpreter = "/bin/sh"
	}
	return &Runner{interpreter: interpreter, log: log}
}

// Run executes the script at path and returns its exit code. Script
// output goes to the process stdout/stderr; the caller only observes it
// as a side effect.
func (r *Runner) Run(path string) (int64, error) {
	cmd := exec.Command(r.interpreter, path)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	err := cmd.Run()
	var code int64 = -1
	if cmd.ProcessState != nil {
		code = int64(cmd.ProcessState.ExitCode())
	}
	if err != nil {
		r.log.Warn("script failed", zap.String("path", path), zap.Error(err))
		return code, err
	}
	return code, nil
}

// Writer persists editor content to disk.
type Writer struct {
	log *logging.Logger
}

// NewWriter creates a writer.
func NewWriter(log *logging.Logger) *Writer {
	return &Writer{log: log}
}

// Write stores content at path, reporting success.
func (w *Writer) Write(path, content string) bool {
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		w.log.Warn("file write failed", zap.String("path", path), zap.Error(err))
		return false
	}
	return true
}
