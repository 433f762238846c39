// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package media composes still-image videos and transcodes audio by driving
// ffmpeg. Duration probes go through ffprobe.
package media

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/scriptkit/internal/toolchain"
	"github.com/pdiddy/scriptkit/pkg/types"
)

// ErrDurationMismatch is returned by VerifyDuration when two files differ by
// more than the allowed tolerance.
var ErrDurationMismatch = errors.New("duration mismatch")

// DefaultTolerance is the duration drift accepted between an input and its
// transcode.
const DefaultTolerance = 150 * time.Millisecond

// Prober reports the playback duration of a media file.
type Prober interface {
	Duration(ctx context.Context, path string) (time.Duration, error)
}

// FFprobe is a Prober backed by the ffprobe binary. The process runs under
// the caller's context, so cancelling it stops a probe in flight.
type FFprobe struct {
	tool toolchain.Tool
}

// NewFFprobe returns a prober using the ffprobe binary configured in cfg.
func NewFFprobe(cfg types.ToolConfig) *FFprobe {
	return &FFprobe{tool: toolchain.FFprobe(cfg)}
}

type probeResult struct {
	Format *struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Duration reads the container duration of path.
func (p *FFprobe) Duration(ctx context.Context, path string) (time.Duration, error) {
	var out bytes.Buffer
	args := []string{"-v", "error", "-hide_banner", "-show_format", "-of", "json", "--", path}
	if err := p.tool.Run(ctx, args, nil, &out); err != nil {
		return 0, fmt.Errorf("probing %s: %w", path, err)
	}

	var res probeResult
	if err := json.Unmarshal(out.Bytes(), &res); err != nil {
		return 0, fmt.Errorf("probing %s: decoding ffprobe output: %w", path, err)
	}
	if res.Format == nil {
		return 0, fmt.Errorf("probing %s: no format information", path)
	}
	d, err := ParseSeconds(res.Format.Duration)
	if err != nil {
		return 0, fmt.Errorf("probing %s: %w", path, err)
	}
	return d, nil
}

// ParseSeconds converts an ffprobe seconds string ("12.345000") to a
// Duration rounded to the microsecond.
func ParseSeconds(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "N/A" {
		return 0, fmt.Errorf("duration unavailable")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing duration %q: %w", s, err)
	}
	if f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return time.Duration(math.Round(f*1e6)) * time.Microsecond, nil
}

// formatSeconds renders d in the seconds notation ffmpeg accepts for -t.
func formatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 6, 64)
}

// VerifyDuration probes both files and fails with ErrDurationMismatch when
// their durations differ by more than tolerance.
func VerifyDuration(ctx context.Context, p Prober, source, output string, tolerance time.Duration) (time.Duration, time.Duration, error) {
	want, err := p.Duration(ctx, source)
	if err != nil {
		return 0, 0, err
	}
	got, err := p.Duration(ctx, output)
	if err != nil {
		return want, 0, err
	}
	diff := got - want
	if diff < 0 {
		diff = -diff
	}
	if diff > tolerance {
		return want, got, fmt.Errorf("%w: %s is %v, %s is %v (tolerance %v)",
			ErrDurationMismatch, source, want, output, got, tolerance)
	}
	return want, got, nil
}
