package sdk

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
)

const (
	embeddingTokensHeader = "X-Embedding-Tokens"

	// maxErrorBody bounds how much of an error response gets read; the
	// API's error bodies are tiny, anything bigger is not ours.
	maxErrorBody = 64 << 10
)

// Client talks to a running relevance API instance.
type Client struct {
	baseURL string
	hc      *http.Client
	obs     *observer
}

// New creates a client for the API at baseURL (scheme + host, no
// trailing path). New never dials; the first request does.
func New(baseURL string, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      cfg.httpClient,
		obs:     obs,
	}, nil
}

// Search runs a hybrid search and returns ranked results.
func (c *Client) Search(ctx context.Context, req SearchRequest) (resp *SearchResponse, err error) {
	start := time.Now()
	defer func() { c.obs.observe("search", start, err) }()

	var out SearchResponse
	hdr, err := c.do(ctx, http.MethodPost, "/v1/search", req, &out)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	out.EmbeddingTokens = tokensFromHeader(hdr)
	return &out, nil
}

// IndexDocument ingests a CRM record. Indexing is an upsert: a
// document already in the index is replaced wholesale.
func (c *Client) IndexDocument(ctx context.Context, doc Document) (res IndexResult, err error) {
	start := time.Now()
	defer func() { c.obs.observe("index_document", start, err) }()

	wire := struct {
		ID        string `json:"id"`
		Source    string `json:"source"`
		Title     string `json:"title,omitempty"`
		Body      string `json:"body"`
		CreatedAt string `json:"created_at,omitempty"`
	}{
		ID:     doc.ID,
		Source: doc.Source,
		Title:  doc.Title,
		Body:   doc.Body,
	}
	if !doc.CreatedAt.IsZero() {
		wire.CreatedAt = doc.CreatedAt.UTC().Format(time.RFC3339)
	}

	hdr, err := c.do(ctx, http.MethodPost, "/v1/documents", wire, &res)
	if err != nil {
		return IndexResult{}, fmt.Errorf("index document: %w", err)
	}
	res.EmbeddingTokens = tokensFromHeader(hdr)
	return res, nil
}

// RemoveDocument deletes a document and all of its chunks.
func (c *Client) RemoveDocument(ctx context.Context, id string) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("remove_document", start, err) }()

	if _, err = c.do(ctx, http.MethodDelete, "/v1/documents/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("remove document: %w", err)
	}
	return nil
}

// Presets lists every built-in preset, fully resolved.
func (c *Client) Presets(ctx context.Context) (ps []PresetConfig, err error) {
	start := time.Now()
	defer func() { c.obs.observe("presets", start, err) }()

	var out struct {
		Presets []PresetConfig `json:"presets"`
	}
	if _, err = c.do(ctx, http.MethodGet, "/v1/presets", nil, &out); err != nil {
		return nil, fmt.Errorf("presets: %w", err)
	}
	return out.Presets, nil
}

// Preset returns one resolved preset by name.
func (c *Client) Preset(ctx context.Context, name string) (pc PresetConfig, err error) {
	start := time.Now()
	defer func() { c.obs.observe("preset", start, err) }()

	if _, err = c.do(ctx, http.MethodGet, "/v1/presets/"+url.PathEscape(name), nil, &pc); err != nil {
		return PresetConfig{}, fmt.Errorf("preset %q: %w", name, err)
	}
	return pc, nil
}

// Health reports the service's component health. A degraded or failing
// report is an answer, not an error: err is non-nil only when the
// service could not be reached or the body was unreadable.
func (c *Client) Health(ctx context.Context) (hs HealthStatus, err error) {
	start := time.Now()
	defer func() { c.obs.observe("health", start, err) }()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", http.NoBody)
	if err != nil {
		return HealthStatus{}, fmt.Errorf("health: %w", err)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return HealthStatus{}, fmt.Errorf("health: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	// The endpoint answers 503 with a full report when unhealthy.
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusServiceUnavailable {
		return HealthStatus{}, fmt.Errorf("health: %w", decodeAPIError(resp))
	}
	if err = json.NewDecoder(resp.Body).Decode(&hs); err != nil {
		return HealthStatus{}, fmt.Errorf("health: decode response: %w", err)
	}
	return hs, nil
}

// do runs one request/response round trip. in is JSON-encoded when
// non-nil; out is JSON-decoded from 2xx bodies when non-nil. Non-2xx
// responses return an *APIError.
func (c *Client) do(ctx context.Context, method, path string, in, out any) (http.Header, error) {
	var body io.Reader = http.NoBody
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, decodeAPIError(resp)
	}

	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp.Header, nil
}

// decodeAPIError turns an error response into an *APIError. Bodies
// that are not the API's JSON error shape (proxies, load balancers)
// degrade to the HTTP status text.
func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}

	var wire struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	dec := json.NewDecoder(io.LimitReader(resp.Body, maxErrorBody))
	if err := dec.Decode(&wire); err == nil && wire.Code != "" {
		apiErr.Code = wire.Code
		apiErr.Message = wire.Message
		return apiErr
	}

	apiErr.Code = "http_" + strconv.Itoa(resp.StatusCode)
	apiErr.Message = http.StatusText(resp.StatusCode)
	return apiErr
}

func tokensFromHeader(hdr http.Header) int {
	v := hdr.Get(embeddingTokensHeader)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}
