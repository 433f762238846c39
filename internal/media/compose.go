// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package media

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pdiddy/scriptkit/internal/toolchain"
	"github.com/pdiddy/scriptkit/pkg/types"
)

const (
	DefaultAudioFile = "audiofile.m4a"
	DefaultImageFile = "imagefile.jpg"
	DefaultVideoFile = "output_video.mp4"
	DefaultFPS       = 24

	defaultVideoCodec = "libx264"
	defaultAudioCodec = "aac"
)

// ComposeRequest names the inputs and output of one composition.
type ComposeRequest struct {
	Audio  string
	Image  string
	Output string
}

// Composer turns an audio file and a still image into a video that shows the
// image for the whole length of the audio.
type Composer struct {
	ffmpeg toolchain.Tool
	prober Prober
	cfg    types.ComposeConfig
	log    *slog.Logger
}

// NewComposer wires a composer to the ffmpeg tool and a duration prober.
func NewComposer(ffmpeg toolchain.Tool, prober Prober, cfg types.ComposeConfig, log *slog.Logger) *Composer {
	if cfg.FPS <= 0 {
		cfg.FPS = DefaultFPS
	}
	if cfg.VideoCodec == "" {
		cfg.VideoCodec = defaultVideoCodec
	}
	if cfg.AudioCodec == "" {
		cfg.AudioCodec = defaultAudioCodec
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Composer{ffmpeg: ffmpeg, prober: prober, cfg: cfg, log: log}
}

// Compose probes the audio duration, then renders the image at the
// configured frame rate for exactly that long with the audio attached.
// It returns the duration of the written video.
func (c *Composer) Compose(ctx context.Context, req ComposeRequest, w io.Writer) (time.Duration, error) {
	if w == nil {
		w = io.Discard
	}
	for _, in := range []string{req.Audio, req.Image} {
		if _, err := os.Stat(in); err != nil {
			return 0, fmt.Errorf("reading input: %w", err)
		}
	}

	dur, err := c.prober.Duration(ctx, req.Audio)
	if err != nil {
		return 0, err
	}
	if dur <= 0 {
		return 0, fmt.Errorf("audio %s has no duration", req.Audio)
	}

	if dir := filepath.Dir(req.Output); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}

	args := c.composeArgs(req, dur)
	c.log.Debug("running ffmpeg", "bin", c.ffmpeg.Path(), "args", args)
	if err := c.ffmpeg.Run(ctx, args, nil, nil); err != nil {
		return 0, fmt.Errorf("composing %s: %w", req.Output, err)
	}

	fmt.Fprintf(w, "Wrote %s (%v)\n", req.Output, dur.Round(time.Millisecond))
	return dur, nil
}

// composeArgs loops the image as a constant-rate video input, attaches the
// audio as the second input and cuts the output at the audio duration. The
// scale filter rounds odd image dimensions down since yuv420p needs even
// ones.
func (c *Composer) composeArgs(req ComposeRequest, dur time.Duration) []string {
	fps := strconv.Itoa(c.cfg.FPS)
	return []string{
		"-hide_banner", "-nostdin", "-y",
		"-loop", "1", "-framerate", fps, "-i", req.Image,
		"-i", req.Audio,
		"-map", "0:v:0", "-map", "1:a:0",
		"-vf", "scale=trunc(iw/2)*2:trunc(ih/2)*2",
		"-c:v", c.cfg.VideoCodec, "-r", fps, "-pix_fmt", "yuv420p",
		"-c:a", c.cfg.AudioCodec,
		"-t", formatSeconds(dur),
		"-movflags", "+faststart",
		req.Output,
	}
}
