package meshy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"assetgen/internal/domain"
	"assetgen/internal/infra"
	"assetgen/internal/storage"
)

const (
	DefaultBaseURL        = "https://api.meshy.ai/v2"
	DefaultMode           = "preview"
	DefaultTopology       = "quad"
	DefaultNegativePrompt = "low quality, blurry, distorted, deformed"

	maxResponseBody = 64 << 10
)

// Options configures the Meshy text-to-3D client.
type Options struct {
	APIKey          string
	BaseURL         string
	Mode            string
	Topology        string
	NegativePrompt  string
	HTTPClient      *http.Client
	Logger          *infra.Logger
	RequestTimeout  time.Duration
	DownloadTimeout time.Duration
}

// Client performs HTTP calls against the Meshy text-to-3D API. Raw response
// shapes never leave this package; callers only see domain.PollStatus.
type Client struct {
	apiKey         string
	baseURL        string
	mode           string
	topology       string
	negativePrompt string
	httpClient     *http.Client
	downloadClient *http.Client
	logger         *infra.Logger
}

type createTaskRequest struct {
	Mode            string `json:"mode"`
	Prompt          string `json:"prompt"`
	ArtStyle        string `json:"art_style"`
	NegativePrompt  string `json:"negative_prompt"`
	TargetPolycount int    `json:"target_polycount"`
	Topology        string `json:"topology"`
}

type createTaskResponse struct {
	Result  string `json:"result"`
	ID      string `json:"id"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type taskResponse struct {
	ID        string            `json:"id"`
	Status    string            `json:"status"`
	Progress  json.RawMessage   `json:"progress"`
	ModelURLs map[string]string `json:"model_urls"`
	TaskError *struct {
		Message string `json:"message"`
	} `json:"task_error"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewClient constructs a client with defaults applied.
func NewClient(opts Options) (*Client, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	httpClient := opts.HTTPClient
	downloadClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
		dlTimeout := opts.DownloadTimeout
		if dlTimeout <= 0 {
			dlTimeout = 5 * time.Minute
		}
		downloadClient = &http.Client{Timeout: dlTimeout}
	}
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &Client{
		apiKey:         apiKey,
		baseURL:        baseURL,
		mode:           orDefault(opts.Mode, DefaultMode),
		topology:       orDefault(opts.Topology, DefaultTopology),
		negativePrompt: orDefault(opts.NegativePrompt, DefaultNegativePrompt),
		httpClient:     httpClient,
		downloadClient: downloadClient,
		logger:         logger,
	}, nil
}

// Submit creates a generation task for spec and returns the remote job id.
func (c *Client) Submit(ctx context.Context, spec domain.JobSpec) (string, error) {
	negative := strings.TrimSpace(spec.NegativePrompt)
	if negative == "" {
		negative = c.negativePrompt
	}
	payload := createTaskRequest{
		Mode:            c.mode,
		Prompt:          spec.Prompt,
		ArtStyle:        string(spec.Style),
		NegativePrompt:  negative,
		TargetPolycount: spec.TargetComplexity,
		Topology:        c.topology,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("meshy: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/text-to-3d", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("meshy: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &TransportError{Op: "submit", Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return "", &TransportError{Op: "submit", Err: err}
	}
	if resp.StatusCode >= 300 {
		return "", serviceError("submit", resp.StatusCode, raw)
	}

	var decoded createTaskResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", &ServiceError{Op: "submit", StatusCode: resp.StatusCode, Message: "malformed response: " + err.Error()}
	}
	jobID := strings.TrimSpace(decoded.Result)
	if jobID == "" {
		jobID = strings.TrimSpace(decoded.ID)
	}
	if jobID == "" {
		msg := decoded.Message
		if msg == "" {
			msg = "response missing job identifier"
		}
		return "", &ServiceError{Op: "submit", StatusCode: resp.StatusCode, Code: decoded.Code, Message: msg}
	}
	c.logger.Debug().
		Str("asset_id", spec.AssetID).
		Str("job_id", jobID).
		Msg("meshy: task created")
	return jobID, nil
}

// GetStatus reads the current status of a job once. A body that cannot be
// interpreted yields a PollUnknown status instead of an error.
func (c *Client) GetStatus(ctx context.Context, jobID string) (domain.PollStatus, error) {
	endpoint := c.baseURL + "/text-to-3d/" + url.PathEscape(strings.TrimSpace(jobID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.PollStatus{}, fmt.Errorf("meshy: build request: %w", err)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.PollStatus{}, &TransportError{Op: "status", Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return domain.PollStatus{}, &TransportError{Op: "status", Err: err}
	}
	if resp.StatusCode >= 300 {
		return domain.PollStatus{}, serviceError("status", resp.StatusCode, raw)
	}

	var decoded taskResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		c.logger.Debug().Err(err).Str("job_id", jobID).Msg("meshy: unreadable status body")
		return domain.PollStatus{State: domain.PollUnknown}, nil
	}
	return decoded.toPollStatus(), nil
}

// FetchArtifact streams the artifact at artifactURL into dst. The file at dst
// only appears once the download completed.
func (c *Client) FetchArtifact(ctx context.Context, artifactURL, dst string) error {
	parsed, err := url.Parse(strings.TrimSpace(artifactURL))
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return &DownloadError{URL: artifactURL, Err: errors.New("invalid artifact url")}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return &DownloadError{URL: artifactURL, Err: err}
	}
	resp, err := c.downloadClient.Do(req)
	if err != nil {
		return &DownloadError{URL: artifactURL, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return &DownloadError{URL: artifactURL, Err: fmt.Errorf("http %d", resp.StatusCode)}
	}
	written, err := storage.WriteAtomic(ctx, dst, resp.Body)
	if err != nil {
		return &DownloadError{URL: artifactURL, Err: err}
	}
	c.logger.Debug().
		Str("path", dst).
		Int64("bytes", written).
		Msg("meshy: artifact saved")
	return nil
}

func (c *Client) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
}

func (t taskResponse) toPollStatus() domain.PollStatus {
	status := domain.PollStatus{
		RemoteStatus: t.Status,
		Progress:     progressString(t.Progress),
	}
	switch strings.ToUpper(strings.TrimSpace(t.Status)) {
	case "PENDING":
		status.State = domain.PollPending
	case "IN_PROGRESS":
		status.State = domain.PollRunning
	case "SUCCEEDED":
		status.State = domain.PollSucceeded
		status.ArtifactURL = strings.TrimSpace(t.ModelURLs["glb"])
	case "FAILED", "EXPIRED", "CANCELED":
		status.State = domain.PollFailed
		if t.TaskError != nil {
			status.Message = t.TaskError.Message
		}
	default:
		status.State = domain.PollUnknown
	}
	return status
}

func progressString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return strconv.FormatFloat(n, 'f', -1, 64) + "%"
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return ""
}

func serviceError(op string, statusCode int, raw []byte) *ServiceError {
	var detail errorResponse
	if err := json.Unmarshal(raw, &detail); err == nil && detail.Message != "" {
		return &ServiceError{Op: op, StatusCode: statusCode, Code: detail.Code, Message: detail.Message}
	}
	msg := strings.TrimSpace(string(raw))
	if msg == "" {
		msg = http.StatusText(statusCode)
	}
	return &ServiceError{Op: op, StatusCode: statusCode, Message: msg}
}

func orDefault(v, fallback string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return fallback
}
