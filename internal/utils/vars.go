package utils

import (
	"errors"
	"regexp"
	"time"
)

const ToolName = "tubegrab"
const StateFile = ".tubegrab-session.yaml"
const HistoryFile = "history.yaml"
const ConfigFile = "config.yaml"
const LogFile = ".tubegrab.log"

const WatchURLPrefix = "https://www.youtube.com/watch?v="
const DefaultPlaylistTitle = "Untitled Playlist"
const MaxTitleLength = 120
const MaxItemRange = 100000

const (
	DefaultWorkers        = 1
	MaxWorkers            = 8
	DefaultRetries        = 1
	DefaultEntryTimeout   = 30 * time.Minute
	DefaultResolveTimeout = 60 * time.Second
	DefaultFormat         = "decent"
	DefaultSubLangs       = "en"
)

const (
	ModeEach = "each"
	ModeBulk = "bulk"
)

const (
	SponsorBlockMark   = "mark"
	SponsorBlockRemove = "remove"
)

var (
	ErrInvalidRequest    = errors.New("invalid download request")
	ErrCookieFileMissing = errors.New("cookie file does not exist")
)

// yt-dlp format selectors keyed by the preset names accepted on the command line
var FormatPresets = map[string]string{
	"best":     "bestvideo+bestaudio/best",
	"best60":   "bestvideo[fps<=60]+bestaudio/best",
	"bestmp4":  "bestvideo[ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]",
	"decent":   "bestvideo[height<=1080]+bestaudio/best",
	"decent60": "bestvideo[height<=1080][fps<=60]+bestaudio/best",
	"cheap":    "bestvideo[height<=720]+bestaudio/best",
	"1080p":    "bestvideo[height=1080][ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]",
	"1080p60":  "bestvideo[height=1080][fps<=60][ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]",
	"720p":     "bestvideo[height=720][ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]",
	"480p":     "bestvideo[height=480][ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]",
	"audio":    "bestaudio[ext=m4a]/bestaudio",
}

var unsafeChars = regexp.MustCompile(`[\\/*?:"<>|]`)
var spaceRun = regexp.MustCompile(`\s+`)
var videoIDRegex = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)
