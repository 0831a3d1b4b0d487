package util

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	v1 "github.com/kiosk404/nubabel/internal/hivemind/handler/v1"
	"github.com/kiosk404/nubabel/internal/hivemind/service/extension/hooks"
	"github.com/kiosk404/nubabel/internal/pkg/core"
	"github.com/kiosk404/nubabel/pkg/utils/json"
)

// APIError is a failed admin API call, carrying the server's error body.
type APIError struct {
	Status int
	core.ErrResponse
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if len(e.Errors) > 0 {
		msg += ": " + strings.Join(e.Errors, "; ")
	}
	return fmt.Sprintf("server returned %d: %s", e.Status, msg)
}

// AdminClient is the HTTP client for the hivemind /v1 admin API.
type AdminClient struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

// NewAdminClient creates a new client.
func NewAdminClient(baseURL, token string, httpClient *http.Client) *AdminClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &AdminClient{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Token:      token,
		HTTPClient: httpClient,
	}
}

// extensionPath escapes id so scoped ids ("@acme/weather") stay one segment.
func extensionPath(id string, suffix ...string) string {
	p := "/v1/extensions/" + url.PathEscape(id)
	for _, s := range suffix {
		p += "/" + s
	}
	return p
}

// List returns every loaded extension.
func (c *AdminClient) List(ctx context.Context) ([]v1.ExtensionSummary, error) {
	var out struct {
		Data []v1.ExtensionSummary `json:"data"`
	}
	err := c.do(ctx, http.MethodGet, "/v1/extensions", nil, &out)
	return out.Data, err
}

// Get returns one loaded extension.
func (c *AdminClient) Get(ctx context.Context, id string) (*v1.ExtensionResponse, error) {
	var out v1.ExtensionResponse
	if err := c.do(ctx, http.MethodGet, extensionPath(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Load asks the host to load a directory or a package.
func (c *AdminClient) Load(ctx context.Context, req v1.LoadExtensionRequest) (*v1.LoadResponse, error) {
	var out v1.LoadResponse
	if err := c.do(ctx, http.MethodPost, "/v1/extensions", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Scan asks the host to load every extension under dir.
func (c *AdminClient) Scan(ctx context.Context, dir string) (*v1.ScanResponse, error) {
	var out v1.ScanResponse
	if err := c.do(ctx, http.MethodPost, "/v1/extensions/scan", v1.ScanRequest{Dir: dir}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Unload removes an extension from the host.
func (c *AdminClient) Unload(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, extensionPath(id), nil, nil)
}

// Reload re-reads an extension from its source.
func (c *AdminClient) Reload(ctx context.Context, id string) (*v1.LoadResponse, error) {
	var out v1.LoadResponse
	if err := c.do(ctx, http.MethodPost, extensionPath(id, "reload"), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Emit dispatches a lifecycle event to one extension's hooks.
func (c *AdminClient) Emit(ctx context.Context, id, event string, data map[string]interface{}) error {
	return c.do(ctx, http.MethodPost, extensionPath(id, "events"), v1.EmitRequest{Event: event, Data: data}, nil)
}

// EventCallback receives one streamed event. Returning false ends the stream.
type EventCallback func(name string, ev *hooks.Context) bool

// Events tails GET /v1/events until ctx is done, the server closes the stream
// or cb returns false. The initial "ready" event is passed with a nil ev.
func (c *AdminClient) Events(ctx context.Context, extensionID string, cb EventCallback) error {
	target := "/v1/events"
	if extensionID != "" {
		target += "?extension=" + url.QueryEscape(extensionID)
	}
	req, err := c.newRequest(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var name, data string
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event:"):
			name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data += strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		case line == "":
			if name == "" && data == "" {
				continue
			}
			var ev *hooks.Context
			if name != "ready" && data != "" {
				ev = &hooks.Context{}
				if err := json.Unmarshal([]byte(data), ev); err != nil {
					ev = nil
				}
			}
			if !cb(name, ev) {
				return nil
			}
			name, data = "", ""
		}
	}
	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("read stream: %w", err)
	}
	return nil
}

func (c *AdminClient) newRequest(ctx context.Context, method, target string, body interface{}) (*http.Request, error) {
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		r = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+target, r)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	return req, nil
}

func (c *AdminClient) do(ctx context.Context, method, target string, body, out interface{}) error {
	req, err := c.newRequest(ctx, method, target, body)
	if err != nil {
		return err
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(resp.Body)
	apiErr := &APIError{Status: resp.StatusCode}
	if err := json.Unmarshal(raw, &apiErr.ErrResponse); err != nil || apiErr.Code == 0 {
		apiErr.ErrResponse = core.ErrResponse{Message: strings.TrimSpace(string(raw))}
	}
	return apiErr
}
