package utils

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// NewDownloadRequest validates user input and returns the immutable request.
func NewDownloadRequest(rawURL, outputDir string, flags Flags, cookieFile string, opts Options) (DownloadRequest, error) {
	target, err := NormalizeURL(rawURL)
	if err != nil {
		return DownloadRequest{}, err
	}
	if strings.TrimSpace(outputDir) == "" {
		return DownloadRequest{}, fmt.Errorf("%w: output directory is required", ErrInvalidRequest)
	}
	if opts.Format == "" {
		opts.Format = DefaultFormat
	}
	if _, ok := FormatPresets[opts.Format]; !ok {
		return DownloadRequest{}, fmt.Errorf("%w: unsupported format %q", ErrInvalidRequest, opts.Format)
	}
	switch opts.SponsorBlockMode {
	case "":
		opts.SponsorBlockMode = SponsorBlockMark
	case SponsorBlockMark, SponsorBlockRemove:
	default:
		return DownloadRequest{}, fmt.Errorf("%w: sponsorblock mode must be mark or remove, got %q", ErrInvalidRequest, opts.SponsorBlockMode)
	}
	if opts.SubLangs == "" {
		opts.SubLangs = DefaultSubLangs
	}
	return DownloadRequest{
		URL:        target,
		OutputDir:  filepath.Clean(outputDir),
		Flags:      flags,
		CookieFile: cookieFile,
		Options:    opts,
	}, nil
}

// NormalizeURL accepts an http(s) URL or a bare 11-character video ID.
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: URL is required", ErrInvalidRequest)
	}
	if IsVideoID(raw) {
		return WatchURL(raw), nil
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("%w: unsupported URL scheme %q", ErrInvalidRequest, parsed.Scheme)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("%w: URL has no host", ErrInvalidRequest)
	}
	return parsed.String(), nil
}

func IsVideoID(s string) bool {
	return videoIDRegex.MatchString(s)
}

// WatchURL turns a video ID into a watch URL; values that already are URLs pass through.
func WatchURL(id string) string {
	if strings.HasPrefix(id, "http://") || strings.HasPrefix(id, "https://") {
		return id
	}
	return WatchURLPrefix + id
}

// SanitizeTitle strips characters that are unsafe in file names on any platform.
func SanitizeTitle(title string) string {
	name := unsafeChars.ReplaceAllString(title, "")
	name = spaceRun.ReplaceAllString(name, " ")
	name = strings.Trim(name, " .")
	if len(name) > MaxTitleLength {
		name = strings.TrimSpace(truncateUTF8(name, MaxTitleLength))
	}
	return name
}

func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !isRuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

// EntryStem is the shared file name stem of an entry's media file and sidecars.
func EntryStem(position int, title string) string {
	name := SanitizeTitle(title)
	if name == "" {
		name = fmt.Sprintf("Video %d", position)
	}
	return fmt.Sprintf("%03d - %s", position, name)
}

// EscapeTemplate escapes a literal for use inside a yt-dlp output template.
func EscapeTemplate(s string) string {
	return strings.ReplaceAll(s, "%", "%%")
}

// SessionDir returns the directory a session writes into.
func SessionDir(outputDir, playlistTitle string, subdir bool) string {
	if !subdir {
		return outputDir
	}
	name := SanitizeTitle(playlistTitle)
	if name == "" {
		name = DefaultPlaylistTitle
	}
	return filepath.Join(outputDir, name)
}

// CheckCookieFile returns ErrCookieFileMissing when a configured cookie file is absent.
func CheckCookieFile(path string) error {
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", ErrCookieFileMissing, path)
	}
	if err != nil {
		return fmt.Errorf("error checking cookie file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrCookieFileMissing, path)
	}
	return nil
}

func RenewOutputPath(outputPath string) string {
	dir := filepath.Dir(outputPath)
	base := filepath.Base(outputPath)
	ext := filepath.Ext(base)
	name := base[:len(base)-len(ext)]
	index := 1
	for {
		outputPath = filepath.Join(dir, fmt.Sprintf("%s-(%d)%s", name, index, ext))
		if _, err := os.Stat(outputPath); os.IsNotExist(err) {
			return outputPath
		}
		index++
	}
}

// ParseItems parses a selection such as "1,3,5-7" into sorted unique positions.
func ParseItems(spec string) ([]int, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, nil
	}
	seen := make(map[int]bool)
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lo, hi, isRange := strings.Cut(part, "-")
		start, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil || start < 1 {
			return nil, fmt.Errorf("%w: bad item %q", ErrInvalidRequest, part)
		}
		end := start
		if isRange {
			end, err = strconv.Atoi(strings.TrimSpace(hi))
			if err != nil || end < start {
				return nil, fmt.Errorf("%w: bad item range %q", ErrInvalidRequest, part)
			}
			if end-start >= MaxItemRange {
				return nil, fmt.Errorf("%w: item range %q spans more than %d entries", ErrInvalidRequest, part, MaxItemRange)
			}
		}
		for i := start; i <= end; i++ {
			seen[i] = true
		}
	}
	items := make([]int, 0, len(seen))
	for i := range seen {
		items = append(items, i)
	}
	sort.Ints(items)
	return items, nil
}

// UniqueURLs trims, drops blanks and duplicates, and keeps first-seen order.
func UniqueURLs(urls []string) []string {
	seen := make(map[string]bool)
	var result []string
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		result = append(result, u)
	}
	return result
}

// IsPartialFile reports whether a file name belongs to an unfinished yt-dlp transfer.
func IsPartialFile(name string) bool {
	for _, suffix := range []string{".part", ".ytdl", ".temp"} {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return strings.Contains(name, ".part-Frag")
}

// CleanPartials removes leftover partial files in dir and returns how many were removed.
func CleanPartials(dir string) (int, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, file := range files {
		if file.IsDir() || !IsPartialFile(file.Name()) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, file.Name())); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}
