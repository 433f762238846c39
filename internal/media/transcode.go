package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"

	"github.com/floostack/transcoder"
	"github.com/floostack/transcoder/ffmpeg"

	"github.com/pdiddy/scriptkit/internal/toolchain"
	"github.com/pdiddy/scriptkit/pkg/types"
)

const (
	DefaultMP3File = "input.mp3"
	DefaultM4AFile = "output.m4a"

	// m4aMuxer is ffmpeg's muxer for the .m4a flavour of MP4.
	m4aMuxer = "ipod"
)

// ProgressFunc receives ffmpeg progress updates while a transcode runs.
type ProgressFunc func(transcoder.Progress)

// runner starts one ffmpeg job and blocks until it finishes.
type runner interface {
	Run(ctx context.Context, input, output string, opts *ffmpeg.Options, progress ProgressFunc) error
}

// ffmpegRunner runs jobs through floostack/transcoder.
type ffmpegRunner struct {
	cfg types.ToolConfig
}

func (r *ffmpegRunner) Run(ctx context.Context, input, output string, opts *ffmpeg.Options, progress ProgressFunc) error {
	ffmpegCfg := &ffmpeg.Config{
		ProgressEnabled: true,
		FfmpegBinPath:   toolchain.FFmpeg(r.cfg).Path(),
		FfprobeBinPath:  toolchain.FFprobe(r.cfg).Path(),
	}

	progressCh, err := ffmpeg.
		New(ffmpegCfg).
		Input(input).
		Output(output).
		WithContext(&ctx).
		Start(opts)
	if err != nil {
		return parseFfmpegError(err)
	}

	for p := range progressCh {
		if progress != nil {
			progress(p)
		}
	}
	return ctx.Err()
}

// parseFfmpegError picks the JSON message ffmpeg embeds in the transcoder's
// error out of the surrounding build banner.
func parseFfmpegError(err error) error {
	groups := regexp.MustCompile(`(?s)message: ({.*})`).FindStringSubmatch(err.Error())
	if len(groups) < 2 {
		return err
	}
	var out struct {
		Error struct {
			String string `json:"string"`
		} `json:"error"`
	}
	if jsonErr := json.Unmarshal([]byte(groups[1]), &out); jsonErr != nil || out.Error.String == "" {
		return errors.New(groups[1])
	}
	return errors.New(out.Error.String)
}

// Transcoder re-encodes MP3 audio into an M4A container.
type Transcoder struct {
	run    runner
	prober Prober
	cfg    types.TranscodeConfig
	log    *slog.Logger
	onProg ProgressFunc
}

// NewTranscoder returns a transcoder driving the ffmpeg and ffprobe binaries
// in tools.
func NewTranscoder(tools types.ToolConfig, cfg types.TranscodeConfig, log *slog.Logger) *Transcoder {
	return newTranscoder(&ffmpegRunner{cfg: tools}, NewFFprobe(tools), cfg, log)
}

func newTranscoder(r runner, p Prober, cfg types.TranscodeConfig, log *slog.Logger) *Transcoder {
	if cfg.AudioCodec == "" {
		cfg.AudioCodec = defaultAudioCodec
	}
	if cfg.Tolerance <= 0 {
		cfg.Tolerance = DefaultTolerance
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Transcoder{run: r, prober: p, cfg: cfg, log: log}
}

// OnProgress registers fn to receive progress updates.
func (t *Transcoder) OnProgress(fn ProgressFunc) {
	t.onProg = fn
}

// options builds the ffmpeg output options: AAC audio in the M4A muxer with
// any cover-art video stream dropped.
func (t *Transcoder) options() *ffmpeg.Options {
	codec := t.cfg.AudioCodec
	format := m4aMuxer
	skipVideo := true
	overwrite := true
	return &ffmpeg.Options{
		AudioCodec:   &codec,
		OutputFormat: &format,
		SkipVideo:    &skipVideo,
		Overwrite:    &overwrite,
	}
}

// Convert transcodes the MP3 at input to M4A at output, checks the output
// duration against the input within the configured tolerance, and prints the
// confirmation line to w.
func (t *Transcoder) Convert(ctx context.Context, input, output string, w io.Writer) error {
	if w == nil {
		w = io.Discard
	}
	if _, err := os.Stat(input); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	if dir := filepath.Dir(output); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}

	if err := os.Remove(output); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing stale %s: %w", output, err)
	}

	t.log.Debug("transcoding", "input", input, "output", output, "codec", t.cfg.AudioCodec)
	if err := t.run.Run(ctx, input, output, t.options(), t.onProg); err != nil {
		return fmt.Errorf("converting %s: %w", input, err)
	}

	// The transcoder drops ffmpeg's exit status once progress reporting
	// starts, so the output is checked instead: it must exist and be as long
	// as the input. An output that fails the check is removed.
	info, err := os.Stat(output)
	if err != nil || info.Size() == 0 {
		return fmt.Errorf("converting %s: ffmpeg produced no output at %s", input, output)
	}
	want, got, err := VerifyDuration(ctx, t.prober, input, output, t.cfg.Tolerance)
	if err != nil {
		os.Remove(output)
		return fmt.Errorf("converting %s: %w", input, err)
	}
	t.log.Debug("durations match", "input", want, "output", got)

	fmt.Fprintf(w, "Converted %s to %s\n", input, output)
	return nil
}
