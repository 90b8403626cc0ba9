package ytdlp

import (
	"reflect"
	"slices"
	"testing"

	"github.com/tanq16/tubegrab/internal/utils"
)

func request(flags utils.Flags, opts utils.Options, cookie string) utils.DownloadRequest {
	req, err := utils.NewDownloadRequest("dQw4w9WgXcQ", "/out", flags, cookie, opts)
	if err != nil {
		panic(err)
	}
	return req
}

// valueOf returns the argument following flag, or "" if flag is absent.
func valueOf(args []string, flag string) string {
	i := slices.Index(args, flag)
	if i < 0 || i+1 >= len(args) {
		return ""
	}
	return args[i+1]
}

func TestResolveArgs(t *testing.T) {
	args := ResolveArgs("https://www.youtube.com/playlist?list=PL1", "", "")
	expected := []string{FlatPlaylist, DumpSingleJSON, NoWarnings, SkipDownload, "https://www.youtube.com/playlist?list=PL1"}
	if !reflect.DeepEqual(args, expected) {
		t.Errorf("ResolveArgs = %v, expected %v", args, expected)
	}

	args = ResolveArgs("u", "/c.txt", "socks5://127.0.0.1:1080")
	if valueOf(args, Cookies) != "/c.txt" {
		t.Errorf("expected cookie file in %v", args)
	}
	if valueOf(args, Proxy) != "socks5://127.0.0.1:1080" {
		t.Errorf("expected proxy in %v", args)
	}
	if args[len(args)-1] != "u" {
		t.Errorf("URL must be last, got %v", args)
	}
}

func TestEntryArgs_FlagMapping(t *testing.T) {
	tests := []struct {
		name    string
		flags   utils.Flags
		present []string
		absent  []string
	}{
		{
			name:    "all flags",
			flags:   utils.Flags{Subtitles: true, Thumbnail: true, Metadata: true, SponsorBlock: true},
			present: []string{WriteSubs, SubLangs, SubFormat, WriteThumbnail, WriteInfoJSON, SponsorBlockMark},
		},
		{
			name:    "no flags",
			flags:   utils.Flags{},
			absent:  []string{WriteSubs, WriteThumbnail, WriteInfoJSON, SponsorBlockMark, SponsorBlockDrop, Cookies},
			present: []string{NoPlaylist, Newline},
		},
		{
			name:    "thumbnail only",
			flags:   utils.Flags{Thumbnail: true},
			present: []string{WriteThumbnail},
			absent:  []string{WriteSubs, WriteInfoJSON, SponsorBlockMark, EmbedThumbnail},
		},
	}

	for _, test := range tests {
		args := EntryArgs(request(test.flags, utils.Options{}, ""), "target", "/out/001 - A.%(ext)s", "")
		for _, flag := range test.present {
			if !slices.Contains(args, flag) {
				t.Errorf("%s: expected %s in %v", test.name, flag, args)
			}
		}
		for _, flag := range test.absent {
			if slices.Contains(args, flag) {
				t.Errorf("%s: did not expect %s in %v", test.name, flag, args)
			}
		}
		if args[len(args)-1] != "target" {
			t.Errorf("%s: target must be last, got %v", test.name, args)
		}
		if valueOf(args, Output) != "/out/001 - A.%(ext)s" {
			t.Errorf("%s: wrong output template in %v", test.name, args)
		}
	}
}

func TestEntryArgs_Options(t *testing.T) {
	flags := utils.Flags{Subtitles: true, Thumbnail: true, Metadata: true, SponsorBlock: true}
	opts := utils.Options{
		Format:           "720p",
		SubLangs:         "en,de",
		Embed:            true,
		SponsorBlockMode: utils.SponsorBlockRemove,
		Proxy:            "http://proxy:3128",
	}
	args := EntryArgs(request(flags, opts, "/cookies.txt"), "target", "tmpl", "/usr/bin/ffmpeg")

	if valueOf(args, Format) != utils.FormatPresets["720p"] {
		t.Errorf("format = %s", valueOf(args, Format))
	}
	if valueOf(args, SubLangs) != "en,de" {
		t.Errorf("sub langs = %s", valueOf(args, SubLangs))
	}
	if valueOf(args, SponsorBlockDrop) != SponsorCategories || slices.Contains(args, SponsorBlockMark) {
		t.Errorf("expected sponsorblock removal in %v", args)
	}
	for _, flag := range []string{EmbedSubs, EmbedThumbnail, EmbedMetadata} {
		if !slices.Contains(args, flag) {
			t.Errorf("expected %s in %v", flag, args)
		}
	}
	if valueOf(args, Cookies) != "/cookies.txt" {
		t.Errorf("cookie file = %s", valueOf(args, Cookies))
	}
	if valueOf(args, FFmpegLocation) != "/usr/bin/ffmpeg" {
		t.Errorf("ffmpeg location = %s", valueOf(args, FFmpegLocation))
	}
	if valueOf(args, Proxy) != "http://proxy:3128" {
		t.Errorf("proxy = %s", valueOf(args, Proxy))
	}
}

func TestEntryArgs_AudioOnly(t *testing.T) {
	flags := utils.Flags{Subtitles: true, Thumbnail: true}
	args := EntryArgs(request(flags, utils.Options{AudioOnly: true, Embed: true}, ""), "target", "tmpl", "")
	if valueOf(args, Format) != AudioOnlyFormat {
		t.Errorf("format = %s, expected %s", valueOf(args, Format), AudioOnlyFormat)
	}
	if valueOf(args, AudioFormat) != AudioCodec || !slices.Contains(args, ExtractAudio) {
		t.Errorf("expected mp3 extraction in %v", args)
	}
	if slices.Contains(args, EmbedSubs) {
		t.Errorf("subtitles cannot be embedded into audio, got %v", args)
	}
	if !slices.Contains(args, EmbedThumbnail) {
		t.Errorf("expected cover art embedding in %v", args)
	}
}

func TestBulkArgs(t *testing.T) {
	args := BulkArgs(request(utils.Flags{}, utils.Options{}, ""), "playlist", "/out/"+BulkNameTemplate, "", []int{1, 3, 4})
	if valueOf(args, PlaylistItems) != "1,3,4" {
		t.Errorf("playlist items = %s", valueOf(args, PlaylistItems))
	}
	if valueOf(args, Print) != BulkPrintTemplate || !slices.Contains(args, NoSimulate) {
		t.Errorf("expected print template in %v", args)
	}
	if slices.Contains(args, NoPlaylist) {
		t.Errorf("bulk mode must not pass %s", NoPlaylist)
	}
	if args[len(args)-1] != "playlist" {
		t.Errorf("playlist URL must be last, got %v", args)
	}

	args = BulkArgs(request(utils.Flags{}, utils.Options{}, ""), "playlist", "tmpl", "", nil)
	if slices.Contains(args, PlaylistItems) {
		t.Errorf("no selection should omit %s", PlaylistItems)
	}
}
