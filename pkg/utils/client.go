package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrStatus matches every StatusError.
var ErrStatus = errors.New("unexpected status")

// StatusError reports a response with status >= 400.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s failed status=%d body=%s", e.Method, e.Path, e.Code, e.Body)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrStatus
}

// JSONClient calls the backend's JSON endpoints relative to a base URL.
type JSONClient struct {
	baseURL string
	http    *http.Client
}

// NewJSONClient returns a client; timeout <= 0 means 15s.
func NewJSONClient(baseURL string, timeout time.Duration) *JSONClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &JSONClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Do sends body (when non-nil) as JSON and decodes the response into out
// (when non-nil).
func (c *JSONClient) Do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	target := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	blob, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", path, err)
	}
	if resp.StatusCode >= 400 {
		return &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: string(blob)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(blob, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
