package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tanq16/tubegrab/internal/utils"
)

// sidecar extensions worth compressing; media is stored as is
var compressible = map[string]bool{
	".json": true,
	".vtt":  true,
	".srt":  true,
	".ass":  true,
	".txt":  true,
}

// ZipFiles bundles files into dest, naming members relative to baseDir. An
// existing dest is never overwritten; the path actually written is returned.
func ZipFiles(dest, baseDir string, files []string) (string, error) {
	if len(files) == 0 {
		return "", fmt.Errorf("no files to bundle")
	}
	if _, err := os.Stat(dest); err == nil {
		dest = utils.RenewOutputPath(dest)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return "", fmt.Errorf("error creating bundle directory: %v", err)
	}
	out, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("error creating bundle: %v", err)
	}
	zw := zip.NewWriter(out)
	for _, file := range files {
		if err := addFile(zw, baseDir, file); err != nil {
			zw.Close()
			out.Close()
			os.Remove(dest)
			return "", err
		}
	}
	if err := zw.Close(); err != nil {
		out.Close()
		return "", fmt.Errorf("error finishing bundle: %v", err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("error finishing bundle: %v", err)
	}
	log.Debug().Str("op", "archive/zip").Msgf("bundled %d files into %s", len(files), dest)
	return dest, nil
}

func addFile(zw *zip.Writer, baseDir, file string) error {
	f, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("error opening %s: %v", file, err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("error reading %s: %v", file, err)
	}
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = memberName(baseDir, file)
	header.Method = zip.Store
	if compressible[strings.ToLower(filepath.Ext(file))] {
		header.Method = zip.Deflate
	}
	w, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("error adding %s: %v", file, err)
	}
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("error writing %s: %v", file, err)
	}
	return nil
}

func memberName(baseDir, file string) string {
	rel, err := filepath.Rel(baseDir, file)
	if err != nil || strings.HasPrefix(rel, "..") {
		rel = filepath.Base(file)
	}
	return filepath.ToSlash(rel)
}
