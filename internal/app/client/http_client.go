package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/exp/slog"

	"fieldinspect/internal/app/client/config"
	"fieldinspect/internal/domain/sync"
)

// StatusError is any authority answer other than accepted or rejected.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("authority returned status %d", e.Status)
	}
	return fmt.Sprintf("authority returned status %d: %s", e.Status, e.Body)
}

// httpClient is the sync.Remote backed by the authority's HTTP API.
type httpClient struct {
	client    *http.Client
	log       *slog.Logger
	baseURL   string
	token     string
	userAgent string
}

var _ sync.Remote = (*httpClient)(nil)

func NewHTTPClient(cfg *config.Config, log *slog.Logger) *httpClient {
	client := &http.Client{
		Timeout: cfg.Sync.PushTimeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			IdleConnTimeout:     90 * time.Second,
			MaxIdleConnsPerHost: cfg.Sync.Parallelism,
		},
	}

	return &httpClient{
		client:    client,
		log:       log.With("component", "http_remote"),
		baseURL:   cfg.BaseURL(),
		token:     cfg.APIToken,
		userAgent: "inspectctl/1.0",
	}
}

type pushBody struct {
	Version               int64           `json:"version"`
	ExpectedServerVersion *int64          `json:"expectedServerVersion,omitempty"`
	Payload               json.RawMessage `json:"payload"`
}

type pushAccepted struct {
	ServerID      int64 `json:"serverId"`
	ServerVersion int64 `json:"serverVersion"`
}

type pushRejected struct {
	ServerID      int64           `json:"serverId"`
	ServerVersion int64           `json:"serverVersion"`
	Payload       json.RawMessage `json:"payload"`
}

// Push sends one record version. 200 and 409 are results; everything else,
// including transport failures, is an error.
func (h *httpClient) Push(ctx context.Context, req sync.PushRequest) (sync.PushResult, error) {
	resp, err := h.doRequest(ctx, http.MethodPost, "/inspections/"+url.PathEscape(req.LocalID), pushBody{
		Version:               req.Version,
		ExpectedServerVersion: req.ExpectedServerVersion,
		Payload:               req.Payload,
	})
	if err != nil {
		return sync.PushResult{}, err
	}

	body, err := h.readBody(resp)
	if err != nil {
		return sync.PushResult{}, err
	}

	switch resp.StatusCode {
	case http.StatusOK:
		var ok pushAccepted
		if err := json.Unmarshal(body, &ok); err != nil {
			return sync.PushResult{}, fmt.Errorf("decode push response: %w", err)
		}
		return sync.PushResult{Accepted: true, ServerID: ok.ServerID, ServerVersion: ok.ServerVersion}, nil
	case http.StatusConflict:
		var rej pushRejected
		if err := json.Unmarshal(body, &rej); err != nil {
			return sync.PushResult{}, fmt.Errorf("decode conflict response: %w", err)
		}
		return sync.PushResult{ServerID: rej.ServerID, ServerVersion: rej.ServerVersion, Payload: rej.Payload}, nil
	default:
		return sync.PushResult{}, &StatusError{Status: resp.StatusCode, Body: string(body)}
	}
}

// HealthCheck reports whether the authority is reachable.
func (h *httpClient) HealthCheck(ctx context.Context) error {
	resp, err := h.doRequest(ctx, http.MethodGet, "/api/v1/health", nil)
	if err != nil {
		return err
	}
	body, err := h.readBody(resp)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return &StatusError{Status: resp.StatusCode, Body: string(body)}
	}
	return nil
}

func (h *httpClient) doRequest(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, h.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", h.userAgent)
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}

	h.log.Debug("request", "method", method, "path", path)

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}

func (h *httpClient) readBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	h.log.Debug("response", "status", resp.StatusCode, "bytes", len(body))
	return body, nil
}
