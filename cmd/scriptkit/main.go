// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the scriptkit CLI: a handful of
// standalone media, PDF, and scraping utilities behind one binary.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pdiddy/scriptkit/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// logger is built in PersistentPreRunE from log_level and --verbose.
var logger = slog.New(slog.DiscardHandler)

// rootCmd is the base command for the scriptkit CLI.
var rootCmd = &cobra.Command{
	Use:   "scriptkit",
	Short: "Small media, PDF, and scraping utilities",
	Long: `scriptkit bundles a few standalone utilities as subcommands:

  audio2video    still image + audio track to an MP4 video
  convert-audio  MP3 to M4A
  pdf-info       page sizes and orientation of PDF files
  pdf-rotate     rotate every page of PDF files by 90 degrees
  scrape         collect the links of a single web page

The media subcommands drive ffmpeg and ffprobe; run "scriptkit doctor" to
check they are installed.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = newLogger(viper.GetString("log_level"), viper.GetBool("verbose"))
		if f := viper.ConfigFileUsed(); f != "" {
			logger.Debug("using config file", "path", f)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./scriptkit.yaml or ~/.config/scriptkit/scriptkit.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().String("log-level", "warn", "log level: debug, info, warn, or error")
	rootCmd.PersistentFlags().String("ffmpeg", "ffmpeg", "ffmpeg binary")
	rootCmd.PersistentFlags().String("ffprobe", "ffprobe", "ffprobe binary")

	flags := rootCmd.PersistentFlags()
	bindFlag("verbose", flags.Lookup("verbose"))
	bindFlag("log_level", flags.Lookup("log-level"))
	bindFlag("ffmpeg_path", flags.Lookup("ffmpeg"))
	bindFlag("ffprobe_path", flags.Lookup("ffprobe"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("scriptkit")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "scriptkit"))
		}
	}

	viper.SetEnvPrefix("SCRIPTKIT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			fmt.Fprintln(os.Stderr, "Error reading config file:", err)
		}
	}
}

// bindFlag ties a config key to a flag so the flag wins when set and the
// config file or environment supply the value otherwise. The flag's default
// is the key's default.
func bindFlag(key string, f *pflag.Flag) {
	if err := viper.BindPFlag(key, f); err != nil {
		panic(fmt.Sprintf("binding %s: %v", key, err))
	}
}

// loadConfig decodes the merged viper settings into a Config.
func loadConfig() (types.Config, error) {
	var cfg types.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding config: %w", err)
	}
	return cfg, nil
}

func newLogger(level string, verbose bool) *slog.Logger {
	lvl := slog.LevelWarn
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "error":
		lvl = slog.LevelError
	}
	if verbose {
		lvl = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
