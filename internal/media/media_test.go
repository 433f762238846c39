// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/floostack/transcoder/ffmpeg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/scriptkit/pkg/types"
)

// fakeProber returns canned durations keyed by path.
type fakeProber struct {
	durations map[string]time.Duration
	err       error
}

func (f *fakeProber) Duration(_ context.Context, path string) (time.Duration, error) {
	if f.err != nil {
		return 0, f.err
	}
	d, ok := f.durations[path]
	if !ok {
		return 0, errors.New("no such file: " + path)
	}
	return d, nil
}

// fakeTool records the arguments of each Run call and writes stdout.
type fakeTool struct {
	calls  [][]string
	stdout string
	err    error
}

func (f *fakeTool) Name() string                   { return "ffmpeg" }
func (f *fakeTool) Path() string                   { return "/usr/bin/ffmpeg" }
func (f *fakeTool) Available(context.Context) bool { return true }
func (f *fakeTool) Run(_ context.Context, args []string, _ io.Reader, stdout io.Writer) error {
	f.calls = append(f.calls, args)
	if stdout != nil && f.stdout != "" {
		_, _ = io.WriteString(stdout, f.stdout)
	}
	return f.err
}

// blockingTool runs until its context is cancelled.
type blockingTool struct{ fakeTool }

func (b *blockingTool) Run(ctx context.Context, _ []string, _ io.Reader, _ io.Writer) error {
	<-ctx.Done()
	return fmt.Errorf("running ffprobe: %w", ctx.Err())
}

// fakeRunner records transcoder invocations and optionally writes output.
type fakeRunner struct {
	input, output string
	opts          *ffmpeg.Options
	write         []byte
	err           error
}

func (f *fakeRunner) Run(_ context.Context, input, output string, opts *ffmpeg.Options, _ ProgressFunc) error {
	f.input, f.output, f.opts = input, output, opts
	if f.err != nil {
		return f.err
	}
	if f.write != nil {
		return os.WriteFile(output, f.write, 0o644)
	}
	return nil
}

func touch(t *testing.T, dir, name string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	return p
}

func argAfter(args []string, flag string) string {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}

func TestParseSeconds(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"12.345000", 12345 * time.Millisecond, false},
		{" 3 ", 3 * time.Second, false},
		{"0.0000015", 2 * time.Microsecond, false},
		{"N/A", 0, true},
		{"", 0, true},
		{"abc", 0, true},
		{"-1", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseSeconds(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestVerifyDuration(t *testing.T) {
	p := &fakeProber{durations: map[string]time.Duration{
		"in.mp3":   10 * time.Second,
		"near.m4a": 10*time.Second + 40*time.Millisecond,
		"far.m4a":  9 * time.Second,
	}}

	want, got, err := VerifyDuration(context.Background(), p, "in.mp3", "near.m4a", 150*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, want)
	assert.Equal(t, 10*time.Second+40*time.Millisecond, got)

	_, _, err = VerifyDuration(context.Background(), p, "in.mp3", "far.m4a", 150*time.Millisecond)
	assert.ErrorIs(t, err, ErrDurationMismatch)

	_, _, err = VerifyDuration(context.Background(), p, "in.mp3", "missing.m4a", time.Second)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrDurationMismatch)
}

func TestComposeArgs(t *testing.T) {
	dir := t.TempDir()
	audio := touch(t, dir, "audiofile.m4a")
	image := touch(t, dir, "imagefile.jpg")
	out := filepath.Join(dir, "video", "output_video.mp4")

	tool := &fakeTool{}
	prober := &fakeProber{durations: map[string]time.Duration{audio: 95500 * time.Millisecond}}
	c := NewComposer(tool, prober, types.ComposeConfig{}, nil)

	var log bytes.Buffer
	dur, err := c.Compose(context.Background(), ComposeRequest{Audio: audio, Image: image, Output: out}, &log)
	require.NoError(t, err)
	assert.Equal(t, 95500*time.Millisecond, dur)
	require.Len(t, tool.calls, 1)

	args := tool.calls[0]
	assert.Equal(t, out, args[len(args)-1])
	assert.Equal(t, "24", argAfter(args, "-framerate"))
	assert.Equal(t, "24", argAfter(args, "-r"))
	assert.Equal(t, "libx264", argAfter(args, "-c:v"))
	assert.Equal(t, "aac", argAfter(args, "-c:a"))
	assert.Equal(t, "95.500000", argAfter(args, "-t"))
	assert.Equal(t, "1", argAfter(args, "-loop"))
	assert.Equal(t, "yuv420p", argAfter(args, "-pix_fmt"))

	// image is the first input, audio the second
	joined := strings.Join(args, " ")
	assert.Less(t, strings.Index(joined, "-i "+image), strings.Index(joined, "-i "+audio))

	assert.Equal(t, "Wrote "+out+" (1m35.5s)\n", log.String())
	_, err = os.Stat(filepath.Dir(out))
	assert.NoError(t, err, "output directory should be created")
}

func TestComposeCustomFPS(t *testing.T) {
	dir := t.TempDir()
	audio := touch(t, dir, "a.m4a")
	image := touch(t, dir, "i.png")

	tool := &fakeTool{}
	c := NewComposer(tool, &fakeProber{durations: map[string]time.Duration{audio: time.Second}},
		types.ComposeConfig{FPS: 30}, nil)
	_, err := c.Compose(context.Background(), ComposeRequest{Audio: audio, Image: image, Output: filepath.Join(dir, "o.mp4")}, nil)
	require.NoError(t, err)
	assert.Equal(t, "30", argAfter(tool.calls[0], "-r"))
}

func TestComposeFailures(t *testing.T) {
	dir := t.TempDir()
	audio := touch(t, dir, "a.m4a")
	image := touch(t, dir, "i.jpg")
	out := filepath.Join(dir, "o.mp4")

	tests := []struct {
		name   string
		req    ComposeRequest
		prober *fakeProber
		tool   *fakeTool
	}{
		{
			name:   "missing image",
			req:    ComposeRequest{Audio: audio, Image: filepath.Join(dir, "nope.jpg"), Output: out},
			prober: &fakeProber{durations: map[string]time.Duration{audio: time.Second}},
			tool:   &fakeTool{},
		},
		{
			name:   "probe fails",
			req:    ComposeRequest{Audio: audio, Image: image, Output: out},
			prober: &fakeProber{err: errors.New("invalid data found")},
			tool:   &fakeTool{},
		},
		{
			name:   "zero duration",
			req:    ComposeRequest{Audio: audio, Image: image, Output: out},
			prober: &fakeProber{durations: map[string]time.Duration{audio: 0}},
			tool:   &fakeTool{},
		},
		{
			name:   "ffmpeg fails",
			req:    ComposeRequest{Audio: audio, Image: image, Output: out},
			prober: &fakeProber{durations: map[string]time.Duration{audio: time.Second}},
			tool:   &fakeTool{err: errors.New("exit status 1")},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewComposer(tt.tool, tt.prober, types.ComposeConfig{}, nil)
			_, err := c.Compose(context.Background(), tt.req, nil)
			assert.Error(t, err)
		})
	}
}

func TestTranscoderOptions(t *testing.T) {
	dir := t.TempDir()
	in := touch(t, dir, "input.mp3")
	out := filepath.Join(dir, "output.m4a")

	r := &fakeRunner{write: []byte("m4a")}
	p := &fakeProber{durations: map[string]time.Duration{in: 3 * time.Second, out: 3*time.Second + 20*time.Millisecond}}
	tr := newTranscoder(r, p, types.TranscodeConfig{}, nil)

	var log bytes.Buffer
	require.NoError(t, tr.Convert(context.Background(), in, out, &log))

	assert.Equal(t, in, r.input)
	assert.Equal(t, out, r.output)
	require.NotNil(t, r.opts)
	require.NotNil(t, r.opts.AudioCodec)
	assert.Equal(t, "aac", *r.opts.AudioCodec)
	require.NotNil(t, r.opts.OutputFormat)
	assert.Equal(t, "ipod", *r.opts.OutputFormat)
	require.NotNil(t, r.opts.SkipVideo)
	assert.True(t, *r.opts.SkipVideo)
	assert.Equal(t, "Converted "+in+" to "+out+"\n", log.String())
}

func TestTranscoderFailures(t *testing.T) {
	dir := t.TempDir()
	in := touch(t, dir, "input.mp3")
	out := filepath.Join(dir, "output.m4a")

	t.Run("missing input", func(t *testing.T) {
		tr := newTranscoder(&fakeRunner{write: []byte("m4a")}, &fakeProber{}, types.TranscodeConfig{}, nil)
		err := tr.Convert(context.Background(), filepath.Join(dir, "nope.mp3"), out, nil)
		assert.Error(t, err)
	})

	t.Run("runner error", func(t *testing.T) {
		tr := newTranscoder(&fakeRunner{err: errors.New("boom")}, &fakeProber{}, types.TranscodeConfig{}, nil)
		err := tr.Convert(context.Background(), in, out, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "boom")
	})

	t.Run("no output produced", func(t *testing.T) {
		// a stale file from an earlier run must not count as success
		require.NoError(t, os.WriteFile(out, []byte("old"), 0o644))
		tr := newTranscoder(&fakeRunner{}, &fakeProber{}, types.TranscodeConfig{}, nil)
		err := tr.Convert(context.Background(), in, out, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no output")
	})

	t.Run("truncated output", func(t *testing.T) {
		p := &fakeProber{durations: map[string]time.Duration{in: 60 * time.Second, out: 12 * time.Second}}
		tr := newTranscoder(&fakeRunner{write: []byte("partial")}, p, types.TranscodeConfig{}, nil)
		var log bytes.Buffer
		err := tr.Convert(context.Background(), in, out, &log)
		assert.ErrorIs(t, err, ErrDurationMismatch)
		assert.Empty(t, log.String(), "a truncated output is not reported as converted")
		_, statErr := os.Stat(out)
		assert.True(t, os.IsNotExist(statErr), "truncated output should be removed")
	})

	t.Run("unreadable output", func(t *testing.T) {
		p := &fakeProber{durations: map[string]time.Duration{in: 60 * time.Second}}
		tr := newTranscoder(&fakeRunner{write: []byte("garbage")}, p, types.TranscodeConfig{}, nil)
		require.Error(t, tr.Convert(context.Background(), in, out, nil))
		_, statErr := os.Stat(out)
		assert.True(t, os.IsNotExist(statErr))
	})

	t.Run("custom tolerance", func(t *testing.T) {
		p := &fakeProber{durations: map[string]time.Duration{in: 10 * time.Second, out: 10*time.Second + 400*time.Millisecond}}
		tr := newTranscoder(&fakeRunner{write: []byte("m4a")}, p, types.TranscodeConfig{Tolerance: time.Second}, nil)
		assert.NoError(t, tr.Convert(context.Background(), in, out, nil))
	})
}

func TestFFprobeDuration(t *testing.T) {
	tool := &fakeTool{stdout: `{"format": {"filename": "a.mp3", "duration": "3.004082"}}`}
	p := &FFprobe{tool: tool}

	d, err := p.Duration(context.Background(), "a.mp3")
	require.NoError(t, err)
	assert.Equal(t, 3004082*time.Microsecond, d)
	require.Len(t, tool.calls, 1)
	args := tool.calls[0]
	assert.Equal(t, "a.mp3", args[len(args)-1])
	assert.Equal(t, "json", argAfter(args, "-of"))

	for _, out := range []string{`{}`, `{"format": {"duration": "N/A"}}`, `not json`} {
		_, err := (&FFprobe{tool: &fakeTool{stdout: out}}).Duration(context.Background(), "a.mp3")
		assert.Error(t, err, out)
	}
}

func TestFFprobeDurationCancelled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		_, err := (&FFprobe{tool: &blockingTool{}}).Duration(ctx, "a.mp3")
		done <- err
	}()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	case <-time.After(5 * time.Second):
		t.Fatal("probe did not stop when its context ended")
	}
}

func TestParseFfmpegError(t *testing.T) {
	raw := errors.New(`Failed Start FFMPEG (exit status 1) with Input #0 ... message: {"error": {"code": -2, "string": "No such file or directory"}}`)
	assert.EqualError(t, parseFfmpegError(raw), "No such file or directory")

	plain := errors.New("exec: \"ffmpeg\": executable file not found in $PATH")
	assert.Equal(t, plain, parseFfmpegError(plain))
}
