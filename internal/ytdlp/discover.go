package ytdlp

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/rs/zerolog/log"
)

const EnvToolPath = "TUBEGRAB_TOOL"

// FindTool locates yt-dlp: the configured path, then $TUBEGRAB_TOOL, then
// $PATH, then the directory of the running executable.
func FindTool(configured string) (string, error) {
	for _, candidate := range []string{configured, os.Getenv(EnvToolPath)} {
		if candidate == "" {
			continue
		}
		if _, err := os.Stat(candidate); err != nil {
			return "", fmt.Errorf("%w: %s: %v", ErrToolUnavailable, candidate, err)
		}
		return candidate, nil
	}
	path, err := lookupBinary("yt-dlp")
	if err != nil {
		return "", fmt.Errorf("%w: yt-dlp not found in PATH, please install it", ErrToolUnavailable)
	}
	log.Debug().Str("op", "ytdlp/discover").Msgf("using yt-dlp at %s", path)
	return path, nil
}

// FindFFmpeg returns the ffmpeg path, or "" when yt-dlp should find it on its own.
func FindFFmpeg() string {
	path, err := lookupBinary("ffmpeg")
	if err != nil {
		log.Debug().Str("op", "ytdlp/discover").Msg("ffmpeg not found, merging is left to yt-dlp defaults")
		return ""
	}
	return path
}

func lookupBinary(name string) (string, error) {
	path, err := exec.LookPath(name)
	if err == nil {
		return path, nil
	}
	execPath, err := os.Executable()
	if err == nil {
		local := filepath.Join(filepath.Dir(execPath), name)
		if runtime.GOOS == "windows" {
			local += ".exe"
		}
		if _, err := os.Stat(local); err == nil {
			return local, nil
		}
	}
	return "", fmt.Errorf("%s not found", name)
}
