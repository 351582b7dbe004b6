// Package openurl opens web links in the desktop's default browser.
package openurl

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
	"strings"
)

var (
	ErrInvalidURL          = errors.New("invalid url")
	ErrUnsupportedPlatform = errors.New("opening urls is not supported on this platform")
)

// OpenFailedError wraps a launcher that could not start or exited non-zero.
type OpenFailedError struct {
	URL string
	Err error
}

func (e *OpenFailedError) Error() string {
	return fmt.Sprintf("failed to open %s: %v", e.URL, e.Err)
}

func (e *OpenFailedError) Unwrap() error {
	return e.Err
}

// Runner executes a launcher command and waits for it to exit.
type Runner func(ctx context.Context, name string, args ...string) error

// Opener launches URLs with a platform launcher.
type Opener struct {
	goos string
	run  Runner
}

// New returns an Opener for the current platform.
func New() *Opener {
	return &Opener{goos: runtime.GOOS, run: execRunner}
}

// NewWithRunner returns an Opener that hands launcher invocations to run.
func NewWithRunner(goos string, run Runner) *Opener {
	return &Opener{goos: goos, run: run}
}

// Open validates rawURL and opens it.
func Open(ctx context.Context, rawURL string) error {
	return New().Open(ctx, rawURL)
}

// Open validates that rawURL is an absolute http(s) URL and hands it to the
// platform launcher.
func (o *Opener) Open(ctx context.Context, rawURL string) error {
	target, err := Validate(rawURL)
	if err != nil {
		return err
	}

	launcher, err := launcherFor(o.goos)
	if err != nil {
		return err
	}
	if err := o.run(ctx, launcher, target.String()); err != nil {
		return &OpenFailedError{URL: target.String(), Err: err}
	}
	return nil
}

// Validate parses rawURL and requires an http or https scheme and a host.
func Validate(rawURL string) (*url.URL, error) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" || strings.ContainsAny(trimmed, " \t\n") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: scheme must be http or https", ErrInvalidURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	return u, nil
}

func launcherFor(goos string) (string, error) {
	switch goos {
	case "darwin":
		return "open", nil
	case "linux", "freebsd", "openbsd", "netbsd":
		return "xdg-open", nil
	default:
		return "", ErrUnsupportedPlatform
	}
}

func execRunner(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}
