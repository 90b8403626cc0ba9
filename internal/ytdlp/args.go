package ytdlp

import (
	"strconv"
	"strings"

	"github.com/tanq16/tubegrab/internal/utils"
)

const (
	FlatPlaylist      = "--flat-playlist"
	DumpSingleJSON    = "--dump-single-json"
	NoWarnings        = "--no-warnings"
	SkipDownload      = "--skip-download"
	NoPlaylist        = "--no-playlist"
	Cookies           = "--cookies"
	Proxy             = "--proxy"
	Output            = "-o"
	Format            = "-f"
	FFmpegLocation    = "--ffmpeg-location"
	NoCacheDir        = "--no-cache-dir"
	Newline           = "--newline"
	Progress          = "--progress"
	NoColors          = "--no-colors"
	ExtractAudio      = "-x"
	AudioFormat       = "--audio-format"
	AudioCodec        = "mp3"
	WriteSubs         = "--write-subs"
	SubLangs          = "--sub-langs"
	SubFormat         = "--sub-format"
	SubFormatBest     = "best"
	EmbedSubs         = "--embed-subs"
	WriteThumbnail    = "--write-thumbnail"
	EmbedThumbnail    = "--embed-thumbnail"
	WriteInfoJSON     = "--write-info-json"
	EmbedMetadata     = "--embed-metadata"
	SponsorBlockMark  = "--sponsorblock-mark"
	SponsorBlockDrop  = "--sponsorblock-remove"
	SponsorCategories = "all"
	PlaylistItems     = "--playlist-items"
	Print             = "--print"
	NoSimulate        = "--no-simulate"
	IgnoreErrors      = "--ignore-errors"
	AudioOnlyFormat   = "bestaudio/best"
	BulkPrintTemplate = "after_move:%(playlist_index)s\t%(filepath)s"
	BulkNameTemplate  = "%(playlist_index)03d - %(title)s.%(ext)s"
)

// ResolveArgs lists a playlist or video without downloading anything.
func ResolveArgs(url, cookieFile, proxy string) []string {
	args := []string{FlatPlaylist, DumpSingleJSON, NoWarnings, SkipDownload}
	if cookieFile != "" {
		args = append(args, Cookies, cookieFile)
	}
	if proxy != "" {
		args = append(args, Proxy, proxy)
	}
	return append(args, url)
}

// EntryArgs downloads a single video to outputTemplate.
func EntryArgs(req utils.DownloadRequest, target, outputTemplate, ffmpegPath string) []string {
	args := []string{Output, outputTemplate, NoPlaylist}
	args = append(args, downloadArgs(req, ffmpegPath)...)
	return append(args, target)
}

// BulkArgs downloads the selected positions of a playlist in one run and
// prints "<index>\t<filepath>" for every finished media file.
func BulkArgs(req utils.DownloadRequest, playlistURL, outputTemplate, ffmpegPath string, items []int) []string {
	args := []string{Output, outputTemplate, Print, BulkPrintTemplate, NoSimulate, IgnoreErrors}
	if len(items) > 0 {
		args = append(args, PlaylistItems, JoinItems(items))
	}
	args = append(args, downloadArgs(req, ffmpegPath)...)
	return append(args, playlistURL)
}

func downloadArgs(req utils.DownloadRequest, ffmpegPath string) []string {
	args := []string{Newline, Progress, NoColors, NoCacheDir}
	if ffmpegPath != "" {
		args = append(args, FFmpegLocation, ffmpegPath)
	}
	opts := req.Options
	if opts.AudioOnly {
		args = append(args, Format, AudioOnlyFormat, ExtractAudio, AudioFormat, AudioCodec)
	} else {
		format := utils.FormatPresets[opts.Format]
		if format == "" {
			format = utils.FormatPresets[utils.DefaultFormat]
		}
		args = append(args, Format, format)
	}
	if req.Flags.Subtitles {
		langs := opts.SubLangs
		if langs == "" {
			langs = utils.DefaultSubLangs
		}
		args = append(args, WriteSubs, SubLangs, langs, SubFormat, SubFormatBest)
		if opts.Embed && !opts.AudioOnly {
			args = append(args, EmbedSubs)
		}
	}
	if req.Flags.Thumbnail {
		args = append(args, WriteThumbnail)
		if opts.Embed || opts.AudioOnly {
			args = append(args, EmbedThumbnail)
		}
	}
	if req.Flags.Metadata {
		args = append(args, WriteInfoJSON)
		if opts.Embed {
			args = append(args, EmbedMetadata)
		}
	}
	if req.Flags.SponsorBlock {
		if opts.SponsorBlockMode == utils.SponsorBlockRemove {
			args = append(args, SponsorBlockDrop, SponsorCategories)
		} else {
			args = append(args, SponsorBlockMark, SponsorCategories)
		}
	}
	if req.CookieFile != "" {
		args = append(args, Cookies, req.CookieFile)
	}
	if opts.Proxy != "" {
		args = append(args, Proxy, opts.Proxy)
	}
	return args
}

// JoinItems renders positions as a --playlist-items value.
func JoinItems(items []int) string {
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = strconv.Itoa(item)
	}
	return strings.Join(parts, ",")
}
