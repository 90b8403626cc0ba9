package utils

import "time"

// Flags are the four toggles presented to the user; each maps to one yt-dlp flag group.
type Flags struct {
	Subtitles    bool `yaml:"subtitles"`
	Thumbnail    bool `yaml:"thumbnail"`
	Metadata     bool `yaml:"metadata"`
	SponsorBlock bool `yaml:"sponsorblock"`
}

// Options are the extended download settings that refine how Flags are passed on.
type Options struct {
	Format           string `yaml:"format"`
	AudioOnly        bool   `yaml:"audio_only"`
	SubLangs         string `yaml:"sub_langs"`
	Embed            bool   `yaml:"embed"`
	SponsorBlockMode string `yaml:"sponsorblock_mode"`
	Proxy            string `yaml:"proxy,omitempty"`
}

// DownloadRequest is built once from user input and never modified afterwards.
type DownloadRequest struct {
	URL        string  `yaml:"url"`
	OutputDir  string  `yaml:"output_dir"`
	Flags      Flags   `yaml:"flags"`
	CookieFile string  `yaml:"cookie_file,omitempty"`
	Options    Options `yaml:"options"`
}

// Config is the effective configuration for one process; it is passed explicitly
// to the resolver, the orchestrator and the tool invoker.
type Config struct {
	OutputDir      string        `yaml:"output_dir"`
	Flags          Flags         `yaml:"flags"`
	Options        Options       `yaml:"options"`
	CookieFile     string        `yaml:"cookie_file,omitempty"`
	ToolPath       string        `yaml:"tool_path,omitempty"`
	Workers        int           `yaml:"workers"`
	Retries        int           `yaml:"retries"`
	EntryTimeout   time.Duration `yaml:"entry_timeout"`
	ResolveTimeout time.Duration `yaml:"resolve_timeout"`
	Mode           string        `yaml:"mode"`
	SkipSucceeded  bool          `yaml:"skip_succeeded"`
	PlaylistSubdir bool          `yaml:"playlist_subdir"`
	History        bool          `yaml:"history"`
}
