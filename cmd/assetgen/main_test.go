package main

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"assetgen/internal/catalog"
	"assetgen/internal/domain"
	"assetgen/internal/infra"
)

type fakeCredentials struct {
	token string
	err   error
}

func (f fakeCredentials) Token(ctx context.Context, provider string) (string, error) {
	return f.token, f.err
}

func TestResolveAPIKeyPrefersEnvironment(t *testing.T) {
	key, err := resolveAPIKey(context.Background(), " env-key ", fakeCredentials{token: "stored"}, zerolog.Nop())
	if err != nil {
		t.Fatalf("resolveAPIKey error: %v", err)
	}
	if key != "env-key" {
		t.Fatalf("expected env-key, got %q", key)
	}
}

func TestResolveAPIKeyFallsBackToStore(t *testing.T) {
	key, err := resolveAPIKey(context.Background(), "", fakeCredentials{token: "stored"}, zerolog.Nop())
	if err != nil {
		t.Fatalf("resolveAPIKey error: %v", err)
	}
	if key != "stored" {
		t.Fatalf("expected stored, got %q", key)
	}
}

func TestResolveAPIKeyMissing(t *testing.T) {
	cases := []domain.CredentialStore{nil, fakeCredentials{}, fakeCredentials{err: errors.New("db down")}}
	for i, store := range cases {
		if _, err := resolveAPIKey(context.Background(), "", store, zerolog.Nop()); !errors.Is(err, errNoAPIKey) {
			t.Fatalf("case %d: expected errNoAPIKey, got %v", i, err)
		}
	}
}

func TestRunFlagsOverrideOnlyWhenSet(t *testing.T) {
	cmd := newRunCmd()
	if err := cmd.Flags().Parse([]string{"--interval", "2s", "--concurrency", "3", "--report", ""}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	cfg := &infra.Config{
		PollInterval:    10 * time.Second,
		MaxPollAttempts: 120,
		PollConcurrency: 1,
		ReportPath:      "report.json",
		OutputRoot:      "./public/models",
	}
	var f runFlags
	f.interval, _ = cmd.Flags().GetDuration("interval")
	f.concurrency, _ = cmd.Flags().GetInt("concurrency")
	f.reportPath, _ = cmd.Flags().GetString("report")
	f.apply(cmd, cfg)

	if cfg.PollInterval != 2*time.Second || cfg.PollConcurrency != 3 {
		t.Fatalf("flags not applied: %+v", cfg)
	}
	if cfg.ReportPath != "" {
		t.Fatalf("expected explicit empty report path, got %q", cfg.ReportPath)
	}
	if cfg.MaxPollAttempts != 120 || cfg.OutputRoot != "./public/models" {
		t.Fatalf("unset flags must not override config: %+v", cfg)
	}
}

func TestPrintCatalog(t *testing.T) {
	var buf bytes.Buffer
	if err := printCatalog(&buf, catalog.Builtin(), "/srv/models", "text"); err != nil {
		t.Fatalf("printCatalog error: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "enemies/demogorgon") {
		t.Fatalf("missing entry in output:\n%s", out)
	}
	if !strings.Contains(out, filepath.Join("/srv/models", "weapons", "nailBat.glb")) {
		t.Fatalf("missing destination in output:\n%s", out)
	}

	buf.Reset()
	if err := printCatalog(&buf, catalog.Builtin(), "/srv/models", "yaml"); err != nil {
		t.Fatalf("printCatalog yaml error: %v", err)
	}
	if !strings.Contains(buf.String(), "target_polycount: 20000") {
		t.Fatalf("unexpected yaml output:\n%s", buf.String())
	}
}

func TestWriteArchiveIncludesSucceededModels(t *testing.T) {
	dir := t.TempDir()
	model := filepath.Join(dir, "enemies", "vecna.glb")
	if err := os.MkdirAll(filepath.Dir(model), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(model, []byte("glTF"), 0o644); err != nil {
		t.Fatalf("write model: %v", err)
	}
	report := domain.NewReport("run-1", []domain.JobOutcome{
		{AssetID: "enemies/vecna", State: domain.OutcomeSucceeded, Path: model},
		{AssetID: "weapons/nailBat", State: domain.OutcomeDownloadError, ArtifactURL: "https://cdn/bat.glb"},
	})

	dst := filepath.Join(dir, "out", "models.zip")
	if err := writeArchive(context.Background(), dst, report, []byte("{}\n")); err != nil {
		t.Fatalf("writeArchive error: %v", err)
	}

	zr, err := zip.OpenReader(dst)
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	defer zr.Close()
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	if strings.Join(names, ",") != "enemies/vecna.glb,report.json" {
		t.Fatalf("unexpected entries: %v", names)
	}
}
