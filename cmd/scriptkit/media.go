// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"

	"github.com/floostack/transcoder"
	"github.com/spf13/cobra"

	"github.com/pdiddy/scriptkit/internal/media"
	"github.com/pdiddy/scriptkit/internal/toolchain"
)

var audio2videoCmd = &cobra.Command{
	Use:   "audio2video",
	Short: "Combine an audio track and a still image into an MP4 video",
	Long: `Audio2video shows one image for the whole length of an audio track and
writes the result as H.264/AAC MP4. The video is exactly as long as the
audio.`,
	Args: cobra.NoArgs,
	RunE: runAudio2Video,
}

var convertAudioCmd = &cobra.Command{
	Use:   "convert-audio",
	Short: "Convert an MP3 file to M4A",
	Long: `Convert-audio re-encodes an MP3 file as AAC in an M4A container. Embedded
cover art is dropped. The output duration is checked against the input and
an output that differs by more than --tolerance is removed.`,
	Args: cobra.NoArgs,
	RunE: runConvertAudio,
}

func init() {
	audio2videoCmd.Flags().String("audio", media.DefaultAudioFile, "input audio file")
	audio2videoCmd.Flags().String("image", media.DefaultImageFile, "input image file")
	audio2videoCmd.Flags().StringP("output", "o", media.DefaultVideoFile, "output video file")
	audio2videoCmd.Flags().Int("fps", media.DefaultFPS, "output frame rate")
	bindFlag("media.fps", audio2videoCmd.Flags().Lookup("fps"))

	convertAudioCmd.Flags().StringP("input", "i", media.DefaultMP3File, "input MP3 file")
	convertAudioCmd.Flags().StringP("output", "o", media.DefaultM4AFile, "output M4A file")
	convertAudioCmd.Flags().Duration("tolerance", media.DefaultTolerance, "largest accepted difference between input and output duration")
	bindFlag("transcode.tolerance", convertAudioCmd.Flags().Lookup("tolerance"))

	rootCmd.AddCommand(audio2videoCmd, convertAudioCmd)
}

func runAudio2Video(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	ffmpeg := toolchain.FFmpeg(cfg.Tools)
	if err := toolchain.Require(ctx, ffmpeg, toolchain.FFprobe(cfg.Tools)); err != nil {
		return err
	}

	audio, _ := cmd.Flags().GetString("audio")
	image, _ := cmd.Flags().GetString("image")
	output, _ := cmd.Flags().GetString("output")

	c := media.NewComposer(ffmpeg, media.NewFFprobe(cfg.Tools), cfg.Compose, logger)
	_, err = c.Compose(ctx, media.ComposeRequest{Audio: audio, Image: image, Output: output}, cmd.OutOrStdout())
	return err
}

func runConvertAudio(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	if err := toolchain.Require(ctx, toolchain.FFmpeg(cfg.Tools), toolchain.FFprobe(cfg.Tools)); err != nil {
		return err
	}

	input, _ := cmd.Flags().GetString("input")
	output, _ := cmd.Flags().GetString("output")

	t := media.NewTranscoder(cfg.Tools, cfg.Transcode, logger)
	if stderr := cmd.ErrOrStderr(); isTerminal(stderr) {
		t.OnProgress(progressPrinter(stderr))
		defer fmt.Fprint(stderr, "\r\033[K")
	}
	return t.Convert(ctx, input, output, cmd.OutOrStdout())
}

// progressPrinter rewrites one status line on w with ffmpeg's progress.
func progressPrinter(w io.Writer) media.ProgressFunc {
	return func(p transcoder.Progress) {
		fmt.Fprintf(w, "\r\033[K%5.1f%%  %s  %s", p.GetProgress(), p.GetCurrentTime(), p.GetSpeed())
	}
}
