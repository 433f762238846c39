package types

import "time"

// HTTPConfig holds shared HTTP settings used by subcommands that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "scriptkit/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// MaxRetries is the number of retries after the first attempt on a
	// transient failure. 0 disables retries.
	MaxRetries int `json:"retries" yaml:"retries" mapstructure:"retries"`
}

// FeedFormat selects the serialisation of scraped records.
type FeedFormat string

const (
	FeedJSON      FeedFormat = "json"
	FeedJSONLines FeedFormat = "jsonlines"
	FeedYAML      FeedFormat = "yaml"
	FeedSQLite    FeedFormat = "sqlite"
)

// ScrapeConfig holds settings for the link scraper.
type ScrapeConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// URL is the seed page. The scraper never follows discovered links.
	URL string `json:"url" yaml:"url" mapstructure:"url"`

	// Output is the feed file written after the crawl (default "output.json").
	Output string `json:"output" yaml:"output" mapstructure:"output"`

	// Format overrides the feed format inferred from the Output extension.
	Format FeedFormat `json:"format,omitempty" yaml:"format,omitempty" mapstructure:"format"`

	// StoreEmpty writes the feed even when no records were scraped.
	StoreEmpty bool `json:"store_empty" yaml:"store_empty" mapstructure:"store_empty"`
}

// ToolConfig locates the external binaries the media subcommands drive.
type ToolConfig struct {
	// FFmpegPath is the ffmpeg binary (default "ffmpeg", resolved on PATH).
	FFmpegPath string `json:"ffmpeg_path" yaml:"ffmpeg_path" mapstructure:"ffmpeg_path"`

	// FFprobePath is the ffprobe binary (default "ffprobe", resolved on PATH).
	FFprobePath string `json:"ffprobe_path" yaml:"ffprobe_path" mapstructure:"ffprobe_path"`
}

// ComposeConfig holds settings for the audio-to-video composer.
type ComposeConfig struct {
	// FPS is the output frame rate (default 24).
	FPS int `json:"fps" yaml:"fps" mapstructure:"fps"`

	// VideoCodec is the ffmpeg video encoder (default "libx264").
	VideoCodec string `json:"video_codec" yaml:"video_codec" mapstructure:"video_codec"`

	// AudioCodec is the ffmpeg audio encoder (default "aac").
	AudioCodec string `json:"audio_codec" yaml:"audio_codec" mapstructure:"audio_codec"`
}

// TranscodeConfig holds settings for the MP3 to M4A transcoder.
type TranscodeConfig struct {
	// AudioCodec is the ffmpeg audio encoder (default "aac").
	AudioCodec string `json:"audio_codec" yaml:"audio_codec" mapstructure:"audio_codec"`

	// Tolerance is the largest accepted duration drift when verifying output.
	Tolerance time.Duration `json:"tolerance" yaml:"tolerance" mapstructure:"tolerance"`
}

// RotateConfig holds settings for the PDF page rotator.
type RotateConfig struct {
	// OutDir is the directory rotated files are written to (default ".").
	OutDir string `json:"out_dir" yaml:"out_dir" mapstructure:"out_dir"`

	// Prefix is prepended to the input basename (default "rotated_").
	Prefix string `json:"prefix" yaml:"prefix" mapstructure:"prefix"`
}

// Config groups every subcommand's settings as read from scriptkit.yaml.
type Config struct {
	LogLevel  string          `json:"log_level" yaml:"log_level" mapstructure:"log_level"`
	Tools     ToolConfig      `json:"tools" yaml:",inline" mapstructure:",squash"`
	Scrape    ScrapeConfig    `json:"scrape" yaml:"scrape" mapstructure:"scrape"`
	Compose   ComposeConfig   `json:"media" yaml:"media" mapstructure:"media"`
	Transcode TranscodeConfig `json:"transcode" yaml:"transcode" mapstructure:"transcode"`
	Rotate    RotateConfig    `json:"pdf" yaml:"pdf" mapstructure:"pdf"`
}
