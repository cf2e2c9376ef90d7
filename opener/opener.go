// Package opener hands a file to the operating system's default application.
package opener

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/UBH-Fall-2024/FileSeekr/core"
)

var (
	// ErrNotFound indicates the path no longer exists.
	ErrNotFound = fmt.Errorf("file %w", core.ErrNotFound)

	// ErrDenied indicates the file cannot be accessed.
	ErrDenied = fmt.Errorf("file access %w", core.ErrDenied)

	// ErrNoLauncher indicates the platform's open command is missing.
	ErrNoLauncher = errors.New("no launcher available")
)

// Runner executes a command and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Opener launches files with the platform handler.
type Opener struct {
	goos string
	run  Runner
}

// New returns an Opener for the running platform.
func New() *Opener {
	return &Opener{goos: runtime.GOOS, run: execRunner}
}

// NewWithRunner returns an Opener for goos that runs commands through run.
func NewWithRunner(goos string, run Runner) *Opener {
	return &Opener{goos: goos, run: run}
}

// Open launches path. Missing files fail with ErrNotFound and unreadable ones
// with ErrDenied.
func (o *Opener) Open(ctx context.Context, path string) error {
	if strings.TrimSpace(path) == "" || !filepath.IsAbs(path) {
		return fmt.Errorf("%w: %w: %q", core.ErrValidation, core.ErrInvalidPath, path)
	}
	path = filepath.Clean(path)

	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%w: %s", ErrDenied, path)
	case err != nil:
		return err
	}
	if !info.IsDir() {
		f, err := os.Open(path)
		if err != nil {
			if errors.Is(err, fs.ErrPermission) {
				return fmt.Errorf("%w: %s", ErrDenied, path)
			}
			return err
		}
		f.Close()
	}

	name, args := command(o.goos, path)
	out, err := o.run(ctx, name, args...)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrNoLauncher, name)
		}
		msg := strings.ToLower(string(out))
		if strings.Contains(msg, "permission denied") || strings.Contains(msg, "access is denied") {
			return fmt.Errorf("%w: %s", ErrDenied, path)
		}
		return fmt.Errorf("%s %s: %w: %s", name, path, err, strings.TrimSpace(string(out)))
	}
	return nil
}

func command(goos, path string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{path}
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", path}
	default:
		return "xdg-open", []string{path}
	}
}

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	var buf bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	err := cmd.Run()
	return buf.Bytes(), err
}
