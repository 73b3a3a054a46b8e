// Package pubg provides a minimal client for the PUBG developer API: sample
// match lists, match resources and their telemetry files.
package pubg

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/tidwall/gjson"

	"github.com/pable/go-data-pipelines/internal/model"
)

// defaultBaseURL is the root endpoint for the PUBG API.
const defaultBaseURL = "https://api.pubg.com"

// DefaultShard is the platform-region shard sampled when none is configured.
const DefaultShard = "pc-sea"

var (
	// ErrNotFound is returned when the API answers 404 for a match or telemetry file.
	ErrNotFound = errors.New("pubg: not found")
	// ErrTelemetryUnavailable is returned when a match carries no telemetry asset.
	ErrTelemetryUnavailable = errors.New("pubg: telemetry unavailable")
	// ErrNetwork wraps transport failures and unexpected HTTP statuses.
	ErrNetwork = errors.New("pubg: network failure")
	// ErrDecode wraps malformed response bodies.
	ErrDecode = errors.New("pubg: malformed response")
)

// Client is a minimal PUBG API client bound to one shard.
type Client struct {
	apiKey  string
	shard   string
	baseURL string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another API root (used by tests).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// NewClient returns a PUBG API client authenticated with the given API key.
func NewClient(apiKey, shard string, opts ...Option) *Client {
	if shard == "" {
		shard = DefaultShard
	}
	c := &Client{
		apiKey:  apiKey,
		shard:   shard,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 60 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Shard returns the shard the client queries.
func (c *Client) Shard() string { return c.shard }

// get performs an authenticated GET and returns the (decompressed) body.
// The caller must close it.
func (c *Client) get(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/vnd.api+json")
	// Setting Accept-Encoding by hand disables the transport's transparent
	// decompression, so gzip bodies are unwrapped below.
	req.Header.Set("Accept-Encoding", "gzip")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w: %w", url, ErrNetwork, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		resp.Body.Close()
		return nil, fmt.Errorf("GET %s: %w", url, ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		resp.Body.Close()
		return nil, fmt.Errorf("GET %s: %w: HTTP %d", url, ErrNetwork, resp.StatusCode)
	}

	body := bufio.NewReader(resp.Body)
	magic, _ := body.Peek(2)
	if len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(body)
		if err != nil {
			resp.Body.Close()
			return nil, fmt.Errorf("GET %s: %w: gzip: %w", url, ErrDecode, err)
		}
		return readCloser{Reader: gz, closers: []io.Closer{gz, resp.Body}}, nil
	}
	return readCloser{Reader: body, closers: []io.Closer{resp.Body}}, nil
}

// getBytes performs get and reads the whole body.
func (c *Client) getBytes(ctx context.Context, url string) ([]byte, error) {
	body, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w: %w", url, ErrNetwork, err)
	}
	return data, nil
}

// Samples returns the match ids in the shard's current sample set.
func (c *Client) Samples(ctx context.Context) ([]string, error) {
	url := fmt.Sprintf("%s/shards/%s/samples", c.baseURL, c.shard)
	data, err := c.getBytes(ctx, url)
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("samples: %w", ErrDecode)
	}
	var ids []string
	for _, id := range gjson.GetBytes(data, "data.relationships.matches.data.#.id").Array() {
		ids = append(ids, id.String())
	}
	return ids, nil
}

// Match returns the match resource summary, including its telemetry URL.
func (c *Client) Match(ctx context.Context, matchID string) (*model.MatchInfo, error) {
	url := fmt.Sprintf("%s/shards/%s/matches/%s", c.baseURL, c.shard, matchID)
	data, err := c.getBytes(ctx, url)
	if err != nil {
		return nil, err
	}
	return parseMatch(data)
}

// parseMatch extracts a MatchInfo from a JSON:API match document.
func parseMatch(data []byte) (*model.MatchInfo, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("match: %w", ErrDecode)
	}
	doc := gjson.ParseBytes(data)
	id := doc.Get("data.id").String()
	if id == "" {
		return nil, fmt.Errorf("match: missing data.id: %w", ErrDecode)
	}
	info := &model.MatchInfo{
		ID:       id,
		Shard:    doc.Get("data.attributes.shardId").String(),
		GameMode: doc.Get("data.attributes.gameMode").String(),
	}
	if ts := doc.Get("data.attributes.createdAt").String(); ts != "" {
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			info.CreatedAt = t
		}
	}

	// The telemetry asset is referenced from data.relationships.assets and
	// described in the included array.
	assetID := doc.Get("data.relationships.assets.data.0.id").String()
	var asset gjson.Result
	if assetID != "" {
		asset = doc.Get(fmt.Sprintf(`included.#(id==%q)`, assetID))
	}
	if !asset.Exists() {
		asset = doc.Get(`included.#(type=="asset")`)
	}
	info.TelemetryURL = asset.Get("attributes.URL").String()
	return info, nil
}

// Telemetry downloads and decodes the telemetry event stream at url.
func (c *Client) Telemetry(ctx context.Context, url string) ([]model.TelemetryEvent, error) {
	if url == "" {
		return nil, ErrTelemetryUnavailable
	}
	body, err := c.get(ctx, url)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: %w", ErrTelemetryUnavailable, err)
		}
		return nil, err
	}
	defer body.Close()

	var events []model.TelemetryEvent
	if err := json.NewDecoder(body).Decode(&events); err != nil {
		return nil, fmt.Errorf("decode telemetry: %w: %w", ErrDecode, err)
	}
	return events, nil
}

// readCloser closes every wrapped layer in order.
type readCloser struct {
	io.Reader
	closers []io.Closer
}

func (r readCloser) Close() error {
	var first error
	for _, c := range r.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
