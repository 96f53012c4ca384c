package zip

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteArchive(t *testing.T) {
	dir := t.TempDir()
	model := filepath.Join(dir, "vecna.glb")
	if err := os.WriteFile(model, []byte("glTF-binary"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	var buf bytes.Buffer
	err := WriteArchive(context.Background(), &buf, []Entry{
		{Name: "enemies/vecna.glb", Source: model},
		{Name: "report.json", Data: []byte(`{"run_id":"r"}`)},
	})
	if err != nil {
		t.Fatalf("WriteArchive error: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	got := map[string]string{}
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open %s: %v", f.Name, err)
		}
		data, _ := io.ReadAll(rc)
		rc.Close()
		got[f.Name] = string(data)
	}
	if got["enemies/vecna.glb"] != "glTF-binary" {
		t.Fatalf("unexpected model entry: %q", got["enemies/vecna.glb"])
	}
	if got["report.json"] != `{"run_id":"r"}` {
		t.Fatalf("unexpected report entry: %q", got["report.json"])
	}
}

func TestWriteArchiveRejectsEscapingNames(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteArchive(context.Background(), &buf, []Entry{{Name: "../x.glb", Data: []byte("x")}}); err == nil {
		t.Fatalf("expected error for escaping name")
	}
}

func TestWriteArchiveMissingSource(t *testing.T) {
	var buf bytes.Buffer
	err := WriteArchive(context.Background(), &buf, []Entry{{Name: "a.glb", Source: filepath.Join(t.TempDir(), "missing.glb")}})
	if err == nil {
		t.Fatalf("expected error for missing source")
	}
}
