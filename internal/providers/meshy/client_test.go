package meshy

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"assetgen/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := NewClient(Options{APIKey: "test-key", BaseURL: srv.URL + "/v2", HTTPClient: srv.Client()})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client, srv
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	if _, err := NewClient(Options{APIKey: "  "}); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestSubmitSendsPayloadAndCredential(t *testing.T) {
	var (
		gotAuth string
		gotPath string
		payload createTaskRequest
	)
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		_, _ = io.WriteString(w, `{"result":"task-123"}`)
	})

	jobID, err := client.Submit(context.Background(), domain.JobSpec{
		AssetID:          "enemies/vecna",
		Prompt:           "Vecna",
		Style:            domain.StyleHorror,
		TargetComplexity: 20000,
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if jobID != "task-123" {
		t.Fatalf("job id = %q", jobID)
	}
	if gotAuth != "Bearer test-key" {
		t.Fatalf("authorization = %q", gotAuth)
	}
	if gotPath != "/v2/text-to-3d" {
		t.Fatalf("path = %q", gotPath)
	}
	want := createTaskRequest{
		Mode:            "preview",
		Prompt:          "Vecna",
		ArtStyle:        "horror",
		NegativePrompt:  DefaultNegativePrompt,
		TargetPolycount: 20000,
		Topology:        "quad",
	}
	if payload != want {
		t.Fatalf("payload = %+v, want %+v", payload, want)
	}
}

func TestSubmitAcceptsLegacyIDField(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"id":"legacy-1"}`)
	})
	jobID, err := client.Submit(context.Background(), domain.JobSpec{AssetID: "a/b", Prompt: "x", Style: domain.StylePBR, TargetComplexity: 1})
	if err != nil || jobID != "legacy-1" {
		t.Fatalf("submit = %q, %v", jobID, err)
	}
}

func TestSubmitServiceErrors(t *testing.T) {
	cases := map[string]struct {
		status int
		body   string
		msg    string
	}{
		"rejected":   {status: http.StatusBadRequest, body: `{"message":"Invalid art_style"}`, msg: "Invalid art_style"},
		"missing id": {status: http.StatusOK, body: `{"message":"quota exceeded"}`, msg: "quota exceeded"},
		"empty":      {status: http.StatusAccepted, body: `{}`, msg: "response missing job identifier"},
		"malformed":  {status: http.StatusOK, body: `<html>`, msg: "malformed response"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			})
			_, err := client.Submit(context.Background(), domain.JobSpec{AssetID: "a/b", Prompt: "x", Style: domain.StylePBR, TargetComplexity: 1})
			var svcErr *ServiceError
			if !errors.As(err, &svcErr) {
				t.Fatalf("expected ServiceError, got %T %v", err, err)
			}
			if svcErr.StatusCode != tc.status || !strings.Contains(svcErr.Message, tc.msg) {
				t.Fatalf("unexpected service error: %+v", svcErr)
			}
		})
	}
}

func TestSubmitTransportError(t *testing.T) {
	client, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	srv.Close()
	_, err := client.Submit(context.Background(), domain.JobSpec{AssetID: "a/b", Prompt: "x", Style: domain.StylePBR, TargetComplexity: 1})
	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected TransportError, got %T %v", err, err)
	}
}

func TestGetStatusMapsRemoteStates(t *testing.T) {
	cases := []struct {
		body     string
		state    domain.PollState
		progress string
		artifact string
		message  string
	}{
		{body: `{"status":"PENDING","progress":0}`, state: domain.PollPending, progress: "0%"},
		{body: `{"status":"IN_PROGRESS","progress":42}`, state: domain.PollRunning, progress: "42%"},
		{body: `{"status":"SUCCEEDED","progress":100,"model_urls":{"glb":"https://assets.example.com/m.glb"}}`, state: domain.PollSucceeded, progress: "100%", artifact: "https://assets.example.com/m.glb"},
		{body: `{"status":"SUCCEEDED","model_urls":{}}`, state: domain.PollSucceeded},
		{body: `{"status":"FAILED","task_error":{"message":"nsfw"}}`, state: domain.PollFailed, message: "nsfw"},
		{body: `{"status":"EXPIRED"}`, state: domain.PollFailed},
		{body: `{"status":"WHATEVER"}`, state: domain.PollUnknown},
		{body: `{}`, state: domain.PollUnknown},
		{body: `not json`, state: domain.PollUnknown},
	}
	for _, tc := range cases {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/v2/text-to-3d/job-1" {
				t.Errorf("path = %q", r.URL.Path)
			}
			_, _ = io.WriteString(w, tc.body)
		})
		status, err := client.GetStatus(context.Background(), "job-1")
		if err != nil {
			t.Fatalf("GetStatus(%s): %v", tc.body, err)
		}
		if status.State != tc.state || status.Progress != tc.progress || status.ArtifactURL != tc.artifact || status.Message != tc.message {
			t.Fatalf("GetStatus(%s) = %+v", tc.body, status)
		}
	}
}

func TestGetStatusHTTPErrorIsServiceError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	_, err := client.GetStatus(context.Background(), "job-1")
	var svcErr *ServiceError
	if !errors.As(err, &svcErr) || svcErr.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected 502 ServiceError, got %v", err)
	}
}

func TestGetStatusOversizedBodyIsUnknown(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"status":"SUCCEEDED","model_urls":{"glb":"https://cdn/m.glb"},"pad":"`)
		_, _ = io.WriteString(w, strings.Repeat("x", maxResponseBody))
		_, _ = io.WriteString(w, `"}`)
	})
	status, err := client.GetStatus(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("GetStatus error: %v", err)
	}
	if status.State != domain.PollUnknown {
		t.Fatalf("expected unknown for truncated body, got %+v", status)
	}
}

func TestFetchArtifactWritesFile(t *testing.T) {
	client, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			t.Errorf("artifact download must not carry the api credential")
		}
		_, _ = w.Write([]byte("glTF-binary"))
	})
	dst := filepath.Join(t.TempDir(), "enemies", "vecna.glb")
	if err := client.FetchArtifact(context.Background(), srv.URL+"/files/vecna.glb", dst); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	data, err := os.ReadFile(dst)
	if err != nil || string(data) != "glTF-binary" {
		t.Fatalf("read back = %q, %v", data, err)
	}
}

func TestFetchArtifactFailureLeavesNoFile(t *testing.T) {
	client, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	dst := filepath.Join(t.TempDir(), "weapons", "nailBat.glb")
	err := client.FetchArtifact(context.Background(), srv.URL+"/missing.glb", dst)
	var dlErr *DownloadError
	if !errors.As(err, &dlErr) {
		t.Fatalf("expected DownloadError, got %v", err)
	}
	if _, statErr := os.Stat(dst); !os.IsNotExist(statErr) {
		t.Fatalf("destination should not exist: %v", statErr)
	}

	if err := client.FetchArtifact(context.Background(), "ftp://example.com/x.glb", dst); !errors.As(err, &dlErr) {
		t.Fatalf("expected DownloadError for invalid url, got %v", err)
	}
}
