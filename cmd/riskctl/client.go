package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ignite/burnout-monitor/internal/api"
	"github.com/ignite/burnout-monitor/internal/classifier"
	"github.com/ignite/burnout-monitor/internal/domain"
	"github.com/ignite/burnout-monitor/internal/pkg/httpretry"
	"github.com/ignite/burnout-monitor/internal/pkg/httputil"
)

// apiClient calls the prediction API. POSTs carry an idempotency key, so
// retrying them is safe.
type apiClient struct {
	baseURL string
	http    httpretry.HTTPDoer
}

func newAPIClient(baseURL string, timeout time.Duration, retries int) *apiClient {
	return &apiClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: httpretry.NewRetryClient(&http.Client{Timeout: timeout}, retries,
			httpretry.WithBaseDelay(500*time.Millisecond), httpretry.WithMaxDelay(5*time.Second)),
	}
}

// apiError is a non-2xx response.
type apiError struct {
	Status int
	Code   string
	Msg    string
}

func (e *apiError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (HTTP %d, %s)", e.Msg, e.Status, e.Code)
	}
	return fmt.Sprintf("%s (HTTP %d)", e.Msg, e.Status)
}

func (c *apiClient) predict(ctx context.Context, body api.CreatePredictionRequest, key string) (*domain.PredictionResult, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	var out domain.PredictionResult
	headers := map[string]string{api.IdempotencyHeader: key}
	if err := c.do(ctx, http.MethodPost, "/api/predictions", payload, headers, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *apiClient) history(ctx context.Context, subjectID string, limit int) (*api.HistoryResponse, error) {
	q := url.Values{"subject_id": {subjectID}}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out api.HistoryResponse
	if err := c.do(ctx, http.MethodGet, "/api/predictions?"+q.Encode(), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *apiClient) models(ctx context.Context) ([]classifier.ModelInfo, error) {
	var out struct {
		Models []classifier.ModelInfo `json:"models"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/models", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Models, nil
}

func (c *apiClient) model(ctx context.Context, version string) (*classifier.ModelInfo, error) {
	var out classifier.ModelInfo
	if err := c.do(ctx, http.MethodGet, "/api/models/"+url.PathEscape(version), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *apiClient) do(ctx context.Context, method, path string, payload []byte, headers map[string]string, dst any) error {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e httputil.ErrorResponse
		if json.Unmarshal(data, &e) != nil || e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return &apiError{Status: resp.StatusCode, Code: e.Code, Msg: e.Error}
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
