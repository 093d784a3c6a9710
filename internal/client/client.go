package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go-jobboard-backend/pkg/apperror"
	"go-jobboard-backend/pkg/logger"
)

const maxErrorBody = 64 << 10

// Client speaks the job board's JSON API. It attaches the stored access
// token to every request and never retries.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenStore
}

func New(cfg Config, tokens TokenStore) *Client {
	cfg = cfg.withDefaults()
	if tokens == nil {
		tokens = NewMemoryTokenStore()
	}
	return &Client{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		tokens: tokens,
	}
}

func (c *Client) url(path string, query url.Values) string {
	u := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// send performs the request and returns the response only for 2xx statuses.
// The caller owns the returned body.
func (c *Client) send(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.url(path, query), body)
	if err != nil {
		return nil, apperror.New(http.StatusBadRequest, "Invalid request", fmt.Errorf("%w: %w", ErrValidation, err))
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token, err := c.tokens.Get(KeyAccessToken); err != nil {
		logger.Log.Warn("token store read failed", "error", err)
	} else if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fromTransport(err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		defer resp.Body.Close()
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		appErr := fromResponse(resp.StatusCode, raw)
		logger.Log.Debug("api request failed", "method", method, "path", path, "status", resp.StatusCode, "message", appErr.Message)
		return nil, appErr
	}
	return resp, nil
}

// doJSON sends in as JSON (when non-nil) and decodes the response into out
// (when non-nil).
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, in, out interface{}) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return apperror.New(http.StatusBadRequest, "Invalid request body", fmt.Errorf("%w: %w", ErrValidation, err))
		}
		body = bytes.NewReader(raw)
		contentType = "application/json"
	}

	resp, err := c.send(ctx, method, path, query, body, contentType)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if isTimeout(err) {
			return fromTransport(err)
		}
		return apperror.New(http.StatusBadGateway, "Unexpected response from the server.", fmt.Errorf("%w: %w", ErrTransport, err))
	}
	return nil
}
