// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package toolchain locates and runs the external binaries (ffmpeg, ffprobe)
// the media subcommands delegate to.
package toolchain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/pdiddy/scriptkit/pkg/types"
)

const (
	BinFFmpeg  = "ffmpeg"
	BinFFprobe = "ffprobe"
)

// ErrToolMissing is returned when a required binary is not on PATH or does
// not answer a version probe.
var ErrToolMissing = errors.New("required tool missing")

// Tool provides operations on one external binary: checking availability
// and running it.
type Tool interface {
	// Name returns the tool name ("ffmpeg" or "ffprobe").
	Name() string

	// Path returns the configured binary, resolved on PATH when possible.
	Path() string

	// Available reports whether the binary exists and responds to -version.
	Available(ctx context.Context) bool

	// Run executes the binary with args. stdin may be nil. stdout receives
	// the process output; stderr is captured and folded into the error.
	Run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error
}

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	RunSilent(ctx context.Context, name string, args ...string) error
	RunPiped(ctx context.Context, name string, args []string, stdin io.Reader, stdout, stderr io.Writer) error
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osExecutor) RunSilent(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}

func (o *osExecutor) RunPiped(ctx context.Context, name string, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	return cmd.Run()
}

// binary implements Tool for a single executable. ffmpeg and ffprobe share
// the same logic; they differ only in name and configured path.
type binary struct {
	name string
	bin  string
	exec executor
}

func (b *binary) Name() string { return b.name }

func (b *binary) Path() string {
	if p, err := b.exec.LookPath(b.bin); err == nil {
		return p
	}
	return b.bin
}

func (b *binary) Available(ctx context.Context) bool {
	if _, err := b.exec.LookPath(b.bin); err != nil {
		return false
	}
	return b.exec.RunSilent(ctx, b.bin, "-version") == nil
}

func (b *binary) Run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	if stdout == nil {
		stdout = io.Discard
	}
	var stderr bytes.Buffer
	if err := b.exec.RunPiped(ctx, b.bin, args, stdin, stdout, &stderr); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("running %s: %w", b.name, ctxErr)
		}
		return fmt.Errorf("running %s: %w: %s", b.name, err, lastLine(stderr.String()))
	}
	return nil
}

// lastLine returns the final non-empty line of ffmpeg's stderr, which holds
// the actual failure reason after the banner and stream dump.
func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			return l
		}
	}
	return ""
}

var defaultExec = &osExecutor{}

// FFmpeg returns the ffmpeg tool configured in cfg.
func FFmpeg(cfg types.ToolConfig) Tool {
	return newBinary(BinFFmpeg, cfg.FFmpegPath, defaultExec)
}

// FFprobe returns the ffprobe tool configured in cfg.
func FFprobe(cfg types.ToolConfig) Tool {
	return newBinary(BinFFprobe, cfg.FFprobePath, defaultExec)
}

func newBinary(name, bin string, exec executor) *binary {
	bin = strings.TrimSpace(bin)
	if bin == "" {
		bin = name
	}
	return &binary{name: name, bin: bin, exec: exec}
}

// Require checks every tool and returns ErrToolMissing naming the first one
// that is unavailable.
func Require(ctx context.Context, tools ...Tool) error {
	for _, t := range tools {
		if !t.Available(ctx) {
			return fmt.Errorf("%w: %s (looked for %q)", ErrToolMissing, t.Name(), t.Path())
		}
	}
	return nil
}
