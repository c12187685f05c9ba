package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/ignite/burnout-monitor/internal/pkg/httpretry"
	"github.com/ignite/burnout-monitor/internal/pkg/logger"
)

// maxBodyBytes bounds how much of a classifier response is read.
const maxBodyBytes = 1 << 20

var httpLog = logger.Component("classifier")

// HTTPConfig configures an HTTPClient.
type HTTPConfig struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	// BaseDelay overrides the first backoff step; zero keeps the default.
	BaseDelay time.Duration

	// OAuth2 client credentials; empty TokenURL disables authentication.
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string
}

// HTTPClient calls a model-serving HTTP API.
type HTTPClient struct {
	baseURL string
	client  httpretry.HTTPDoer
}

// NewHTTPClient builds a client that retries transient failures and, when
// configured, attaches OAuth2 bearer tokens.
func NewHTTPClient(cfg HTTPConfig) *HTTPClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	base := &http.Client{Timeout: timeout}

	var doer httpretry.HTTPDoer = base
	if cfg.TokenURL != "" {
		cc := &clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
			Scopes:       cfg.Scopes,
		}
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
		authed := cc.Client(ctx)
		authed.Timeout = timeout
		doer = authed
	}

	var opts []httpretry.Option
	if cfg.BaseDelay > 0 {
		opts = append(opts, httpretry.WithBaseDelay(cfg.BaseDelay))
	}

	return &HTTPClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  httpretry.NewRetryClient(doer, cfg.MaxRetries, opts...),
	}
}

// Classify posts the feature vector to {base}/predict.
func (c *HTTPClient) Classify(ctx context.Context, req Request) (*Classification, error) {
	payload, err := json.Marshal(newPredictRequest(req))
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", ErrUnavailable, err)
	}

	status, body, err := c.do(ctx, http.MethodPost, "/predict", payload)
	if err != nil {
		httpLog.Warn("predict call failed", "subject_id", req.SubjectID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if status < 200 || status > 299 {
		httpLog.Warn("predict call rejected", "subject_id", req.SubjectID, "status", status)
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, status)
	}
	return decodeResponse(body)
}

// ListModels returns the models the server can serve.
func (c *HTTPClient) ListModels(ctx context.Context) ([]ModelInfo, error) {
	status, body, err := c.do(ctx, http.MethodGet, "/models", nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, status)
	}
	var models []ModelInfo
	if err := json.Unmarshal(body, &models); err != nil {
		return nil, fmt.Errorf("%w: decode models: %v", ErrUnavailable, err)
	}
	return models, nil
}

// ModelInfo returns details for one version. Unknown versions yield ErrModelNotFound.
func (c *HTTPClient) ModelInfo(ctx context.Context, version string) (*ModelInfo, error) {
	status, body, err := c.do(ctx, http.MethodGet, "/models/"+url.PathEscape(version), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	switch {
	case status == http.StatusNotFound:
		return nil, ErrModelNotFound
	case status != http.StatusOK:
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, status)
	}
	var info ModelInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("%w: decode model info: %v", ErrUnavailable, err)
	}
	return &info, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, payload []byte) (int, []byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, data, nil
}
