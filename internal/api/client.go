package api

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
)

// APIError is a non-2xx response from the server. The body is kept raw
// so callers can surface it verbatim.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	msg := strings.TrimSpace(e.Body)
	if msg == "" {
		return fmt.Sprintf("server returned %d", e.StatusCode)
	}
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, msg)
}

// Client talks to a VibeTunnel server over REST.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient creates a client for the given server base URL
// (e.g. "http://localhost:4020").
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// BaseURL returns the server base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// SetToken sets the bearer token sent with every request.
func (c *Client) SetToken(token string) { c.token = token }

// Token returns the current bearer token, if any.
func (c *Client) Token() string { return c.token }

// Sessions fetches the full session list.
func (c *Client) Sessions(ctx context.Context) ([]Session, error) {
	var sessions []Session
	if err := c.getJSON(ctx, "/api/sessions", &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// KillSession terminates a running session.
func (c *Client) KillSession(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/sessions/"+url.PathEscape(id), nil, nil)
}

// CleanupSession removes an exited session's record.
func (c *Client) CleanupSession(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/sessions/"+url.PathEscape(id)+"/cleanup", nil, nil)
}

// CleanupExited removes all exited sessions in one call.
func (c *Client) CleanupExited(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/cleanup-exited", nil, nil)
}

// Browse fetches a directory listing. gitFilter is "all" or "changed";
// empty means "all".
func (c *Client) Browse(ctx context.Context, path string, showHidden bool, gitFilter string) (DirectoryListing, error) {
	if gitFilter == "" {
		gitFilter = "all"
	}
	q := url.Values{}
	q.Set("path", path)
	q.Set("showHidden", fmt.Sprintf("%t", showHidden))
	q.Set("gitFilter", gitFilter)

	var listing DirectoryListing
	if err := c.getJSON(ctx, "/api/fs/browse?"+q.Encode(), &listing); err != nil {
		return DirectoryListing{}, err
	}
	return listing, nil
}

// Preview fetches a file's preview content.
func (c *Client) Preview(ctx context.Context, path string) (FilePreview, error) {
	q := url.Values{}
	q.Set("path", path)
	var p FilePreview
	if err := c.getJSON(ctx, "/api/fs/preview?"+q.Encode(), &p); err != nil {
		return FilePreview{}, err
	}
	return p, nil
}

// Diff fetches a file's git diff.
func (c *Client) Diff(ctx context.Context, path string) (FileDiff, error) {
	q := url.Values{}
	q.Set("path", path)
	var d FileDiff
	if err := c.getJSON(ctx, "/api/fs/diff?"+q.Encode(), &d); err != nil {
		return FileDiff{}, err
	}
	return d, nil
}

// LogInfo fetches metadata about the server log.
func (c *Client) LogInfo(ctx context.Context) (LogInfo, error) {
	var info LogInfo
	if err := c.getJSON(ctx, "/api/logs/info", &info); err != nil {
		return LogInfo{}, err
	}
	return info, nil
}

// LogRaw fetches the raw log text blob.
func (c *Client) LogRaw(ctx context.Context) (string, error) {
	var buf bytes.Buffer
	if err := c.do(ctx, http.MethodGet, "/api/logs/raw", nil, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// ClearLogs truncates the server log.
func (c *Client) ClearLogs(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/api/logs/clear", nil, nil)
}

// GetJSON issues a GET and decodes the JSON response into out.
func (c *Client) GetJSON(ctx context.Context, path string, out any) error {
	return c.getJSON(ctx, path, out)
}

// PostJSON issues a POST with a JSON body, decoding the JSON response
// into out (which may be nil).
func (c *Client) PostJSON(ctx context.Context, path string, body, out any) error {
	return c.postJSON(ctx, path, body, out)
}

// --- internal ---

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	var buf bytes.Buffer
	if err := c.do(ctx, http.MethodGet, path, nil, &buf); err != nil {
		return err
	}
	if err := json.Unmarshal(buf.Bytes(), out); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// postJSON sends a JSON body and decodes a JSON response into out (which
// may be nil).
func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	var buf bytes.Buffer
	if err := c.do(ctx, http.MethodPost, path, bytes.NewReader(data), &buf); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(buf.Bytes(), out); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, out io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	if out != nil {
		if _, err := io.Copy(out, resp.Body); err != nil {
			return fmt.Errorf("read response: %w", err)
		}
	}
	return nil
}
