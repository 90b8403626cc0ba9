package utils

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestSanitizeTitle(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Plain Title", "Plain Title"},
		{`What? A "quoted" <title>`, "What A quoted title"},
		{"a/b\\c|d*e:f", "abcdef"},
		{"  spaced   out  ", "spaced out"},
		{"...dots...", "dots"},
		{"", ""},
	}

	for _, test := range tests {
		result := SanitizeTitle(test.input)
		if result != test.expected {
			t.Errorf("SanitizeTitle(%q) = %q, expected %q", test.input, result, test.expected)
		}
	}
}

func TestSanitizeTitle_Truncates(t *testing.T) {
	long := strings.Repeat("é", MaxTitleLength)
	result := SanitizeTitle(long)
	if len(result) > MaxTitleLength {
		t.Errorf("expected at most %d bytes, got %d", MaxTitleLength, len(result))
	}
	if !strings.HasPrefix(long, result) {
		t.Error("truncation should keep a valid prefix")
	}
}

func TestEntryStem(t *testing.T) {
	tests := []struct {
		position int
		title    string
		expected string
	}{
		{1, "Intro", "001 - Intro"},
		{42, "Part: two", "042 - Part two"},
		{7, "???", "007 - Video 7"},
		{1200, "Long list", "1200 - Long list"},
	}

	for _, test := range tests {
		result := EntryStem(test.position, test.title)
		if result != test.expected {
			t.Errorf("EntryStem(%d, %q) = %q, expected %q", test.position, test.title, result, test.expected)
		}
	}
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		wantErr  bool
	}{
		{"https://www.youtube.com/playlist?list=PL123", "https://www.youtube.com/playlist?list=PL123", false},
		{"dQw4w9WgXcQ", WatchURLPrefix + "dQw4w9WgXcQ", false},
		{"  https://youtu.be/dQw4w9WgXcQ ", "https://youtu.be/dQw4w9WgXcQ", false},
		{"ftp://example.com/file", "", true},
		{"not a url", "", true},
		{"https://", "", true},
		{"", "", true},
	}

	for _, test := range tests {
		result, err := NormalizeURL(test.input)
		if test.wantErr {
			if !errors.Is(err, ErrInvalidRequest) {
				t.Errorf("NormalizeURL(%q) error = %v, expected ErrInvalidRequest", test.input, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("NormalizeURL(%q) unexpected error: %v", test.input, err)
			continue
		}
		if result != test.expected {
			t.Errorf("NormalizeURL(%q) = %q, expected %q", test.input, result, test.expected)
		}
	}
}

func TestWatchURL(t *testing.T) {
	if got := WatchURL("abc"); got != WatchURLPrefix+"abc" {
		t.Errorf("WatchURL(abc) = %s", got)
	}
	full := "https://example.com/video"
	if got := WatchURL(full); got != full {
		t.Errorf("WatchURL should pass URLs through, got %s", got)
	}
}

func TestNewDownloadRequest(t *testing.T) {
	req, err := NewDownloadRequest("dQw4w9WgXcQ", "/tmp/out/", Flags{Subtitles: true}, "", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.OutputDir != "/tmp/out" {
		t.Errorf("expected cleaned output dir, got %s", req.OutputDir)
	}
	if req.Options.Format != DefaultFormat {
		t.Errorf("expected default format %s, got %s", DefaultFormat, req.Options.Format)
	}
	if req.Options.SponsorBlockMode != SponsorBlockMark {
		t.Errorf("expected default sponsorblock mode, got %s", req.Options.SponsorBlockMode)
	}
	if req.Options.SubLangs != DefaultSubLangs {
		t.Errorf("expected default sub langs, got %s", req.Options.SubLangs)
	}

	invalid := []struct {
		name string
		url  string
		dir  string
		opts Options
	}{
		{"empty output", "dQw4w9WgXcQ", "", Options{}},
		{"unknown format", "dQw4w9WgXcQ", "/tmp", Options{Format: "8k"}},
		{"unknown sponsorblock mode", "dQw4w9WgXcQ", "/tmp", Options{SponsorBlockMode: "skip"}},
		{"bad url", "::", "/tmp", Options{}},
	}
	for _, test := range invalid {
		if _, err := NewDownloadRequest(test.url, test.dir, Flags{}, "", test.opts); !errors.Is(err, ErrInvalidRequest) {
			t.Errorf("%s: expected ErrInvalidRequest, got %v", test.name, err)
		}
	}
}

func TestCheckCookieFile(t *testing.T) {
	dir := t.TempDir()
	if err := CheckCookieFile(""); err != nil {
		t.Errorf("empty path should be allowed, got %v", err)
	}
	missing := filepath.Join(dir, "cookies.txt")
	if err := CheckCookieFile(missing); !errors.Is(err, ErrCookieFileMissing) {
		t.Errorf("expected ErrCookieFileMissing, got %v", err)
	}
	if err := CheckCookieFile(dir); !errors.Is(err, ErrCookieFileMissing) {
		t.Errorf("expected ErrCookieFileMissing for a directory, got %v", err)
	}
	if err := os.WriteFile(missing, []byte("# Netscape HTTP Cookie File\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := CheckCookieFile(missing); err != nil {
		t.Errorf("expected existing cookie file to pass, got %v", err)
	}
}

func TestParseItems(t *testing.T) {
	tests := []struct {
		input    string
		expected []int
		wantErr  bool
	}{
		{"", nil, false},
		{"1,3,5-7", []int{1, 3, 5, 6, 7}, false},
		{"4, 2 ,2", []int{2, 4}, false},
		{"3-1", nil, true},
		{"0", nil, true},
		{"a", nil, true},
		{"1-1000000000", nil, true},
		{"1-100001", nil, true},
	}

	for _, test := range tests {
		result, err := ParseItems(test.input)
		if test.wantErr {
			if err == nil {
				t.Errorf("ParseItems(%q) expected error", test.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseItems(%q) unexpected error: %v", test.input, err)
			continue
		}
		if !reflect.DeepEqual(result, test.expected) {
			t.Errorf("ParseItems(%q) = %v, expected %v", test.input, result, test.expected)
		}
	}
}

func TestUniqueURLs(t *testing.T) {
	result := UniqueURLs([]string{" b ", "a", "", "b", "c", "a"})
	expected := []string{"b", "a", "c"}
	if !reflect.DeepEqual(result, expected) {
		t.Errorf("UniqueURLs = %v, expected %v", result, expected)
	}
}

func TestCleanPartials(t *testing.T) {
	dir := t.TempDir()
	names := []string{"001 - a.mp4", "002 - b.mp4.part", "002 - b.f137.mp4.ytdl", "003 - c.webm.part-Frag3", "notes.txt"}
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0644); err != nil {
			t.Fatal(err)
		}
	}
	removed, err := CleanPartials(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if removed != 3 {
		t.Errorf("expected 3 removed files, got %d", removed)
	}
	for _, keep := range []string{"001 - a.mp4", "notes.txt"} {
		if _, err := os.Stat(filepath.Join(dir, keep)); err != nil {
			t.Errorf("%s should remain: %v", keep, err)
		}
	}
}

func TestRenewOutputPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bundle.zip")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatal(err)
	}
	renewed := RenewOutputPath(path)
	if renewed != filepath.Join(dir, "bundle-(1).zip") {
		t.Errorf("RenewOutputPath = %s", renewed)
	}
}
