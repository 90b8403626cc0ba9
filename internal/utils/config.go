package utils

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

func currentDir() string {
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	return dir
}

func DefaultConfig() Config {
	return Config{
		OutputDir: currentDir(),
		Flags: Flags{
			Subtitles:    true,
			Thumbnail:    true,
			Metadata:     true,
			SponsorBlock: true,
		},
		Options: Options{
			Format:           DefaultFormat,
			SubLangs:         DefaultSubLangs,
			SponsorBlockMode: SponsorBlockMark,
		},
		Workers:        DefaultWorkers,
		Retries:        DefaultRetries,
		EntryTimeout:   DefaultEntryTimeout,
		ResolveTimeout: DefaultResolveTimeout,
		Mode:           ModeEach,
		SkipSucceeded:  true,
		PlaylistSubdir: true,
		History:        true,
	}
}

// ConfigDir is where the config and history files live.
func ConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, ToolName), nil
}

func DefaultConfigPath() string {
	dir, err := ConfigDir()
	if err != nil {
		return ConfigFile
	}
	return filepath.Join(dir, ConfigFile)
}

// LoadConfig merges the YAML file at path over the defaults. A missing file is not an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		log.Debug().Str("op", "utils/config").Msgf("no config file at %s, using defaults", path)
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("error reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("error parsing config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	log.Debug().Str("op", "utils/config").Msgf("loaded config from %s", path)
	return cfg, nil
}

func SaveConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error encoding config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// FileConfig is what `config init` writes: the defaults without an output
// directory, so downloads go to the directory each run starts in.
func FileConfig() Config {
	cfg := DefaultConfig()
	cfg.OutputDir = ""
	return cfg
}

// Validate clamps numeric settings, resolves an empty output directory to the
// working directory and rejects unknown modes.
func (c *Config) Validate() error {
	if c.OutputDir == "" {
		c.OutputDir = currentDir()
	}
	if c.Workers < 1 {
		c.Workers = 1
	}
	if c.Workers > MaxWorkers {
		c.Workers = MaxWorkers
	}
	if c.Retries < 0 {
		c.Retries = 0
	}
	if c.EntryTimeout <= 0 {
		c.EntryTimeout = DefaultEntryTimeout
	}
	if c.ResolveTimeout <= 0 {
		c.ResolveTimeout = DefaultResolveTimeout
	}
	switch c.Mode {
	case "":
		c.Mode = ModeEach
	case ModeEach, ModeBulk:
	default:
		return fmt.Errorf("%w: mode must be %s or %s, got %q", ErrInvalidRequest, ModeEach, ModeBulk, c.Mode)
	}
	return nil
}

// Request builds a validated DownloadRequest for url from this configuration.
func (c Config) Request(url string) (DownloadRequest, error) {
	return NewDownloadRequest(url, c.OutputDir, c.Flags, c.CookieFile, c.Options)
}
