package ytdlp

import (
	"regexp"
	"strconv"
	"strings"
)

var progressRegex = regexp.MustCompile(`^\[download\]\s+(\d{1,3}(?:\.\d+)?)%`)
var extractorPrefix = regexp.MustCompile(`^\[[^\]]+\]\s+[^\s:]+:\s*`)
var idErrorRegex = regexp.MustCompile(`^ERROR:\s+\[[^\]]+\]\s+([^\s:]+):\s*(.+)$`)

const errorPrefix = "ERROR:"

// ParseProgress extracts the percentage from a "[download]  42.3% of ..." line.
func ParseProgress(line string) (float64, bool) {
	match := progressRegex.FindStringSubmatch(line)
	if match == nil {
		return 0, false
	}
	pct, err := strconv.ParseFloat(match[1], 64)
	if err != nil || pct > 100 {
		return 0, false
	}
	return pct, true
}

// LastErrorLine picks the most useful failure message from the tool's error
// stream: the last ERROR line without its prefixes, or the last non-empty line.
func LastErrorLine(stderr []byte) string {
	var lastError, lastLine string
	for _, line := range strings.Split(string(stderr), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lastLine = line
		if strings.HasPrefix(line, errorPrefix) {
			lastError = line
		}
	}
	if lastError == "" {
		return lastLine
	}
	msg := strings.TrimSpace(strings.TrimPrefix(lastError, errorPrefix))
	return extractorPrefix.ReplaceAllString(msg, "")
}

// ParseBulkLine parses one "<playlist_index>\t<filepath>" line printed after a
// file is moved into place. Index is 0 when the tool printed NA.
func ParseBulkLine(line string) (int, string, bool) {
	index, path, found := strings.Cut(line, "\t")
	path = strings.TrimSpace(path)
	if !found || path == "" {
		return 0, "", false
	}
	index = strings.TrimSpace(index)
	if index == "NA" {
		return 0, path, true
	}
	n, err := strconv.Atoi(index)
	if err != nil || n < 1 {
		return 0, "", false
	}
	return n, path, true
}

// ErrorsByID maps video IDs to the last ERROR message the tool printed for them.
func ErrorsByID(stderr []byte) map[string]string {
	errs := make(map[string]string)
	for _, line := range strings.Split(string(stderr), "\n") {
		match := idErrorRegex.FindStringSubmatch(strings.TrimSpace(line))
		if match == nil {
			continue
		}
		errs[match[1]] = strings.TrimSpace(match[2])
	}
	return errs
}
