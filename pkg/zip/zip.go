package zip

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
)

// Entry is one file added to an archive. Name is the slash-separated path
// inside the archive; exactly one of Source or Data is used.
type Entry struct {
	Name   string
	Source string
	Data   []byte
}

// WriteArchive streams entries into w as a zip archive. Files are read from
// disk one at a time, so artifacts are never held in memory together.
func WriteArchive(ctx context.Context, w io.Writer, entries []Entry) error {
	zw := zip.NewWriter(w)
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			_ = zw.Close()
			return err
		}
		if err := addEntry(zw, e); err != nil {
			_ = zw.Close()
			return err
		}
	}
	return zw.Close()
}

func addEntry(zw *zip.Writer, e Entry) error {
	name := path.Clean(e.Name)
	if name == "." || path.IsAbs(name) || name == ".." || strings.HasPrefix(name, "../") {
		return fmt.Errorf("zip: invalid entry name %q", e.Name)
	}
	hdr := &zip.FileHeader{Name: name, Method: zip.Deflate}
	if e.Source == "" {
		fw, err := zw.CreateHeader(hdr)
		if err != nil {
			return fmt.Errorf("zip: create %s: %w", name, err)
		}
		_, err = fw.Write(e.Data)
		return err
	}

	f, err := os.Open(e.Source)
	if err != nil {
		return fmt.Errorf("zip: open %s: %w", e.Source, err)
	}
	defer f.Close()
	if info, err := f.Stat(); err == nil {
		hdr.Modified = info.ModTime()
	}
	fw, err := zw.CreateHeader(hdr)
	if err != nil {
		return fmt.Errorf("zip: create %s: %w", name, err)
	}
	if _, err := io.Copy(fw, f); err != nil {
		return fmt.Errorf("zip: copy %s: %w", name, err)
	}
	return nil
}
