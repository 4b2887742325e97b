package baike

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/dustin/go-humanize"

	"github.com/flyhq/baike-mcp/internal/config"
	"github.com/flyhq/baike-mcp/internal/version"
)

// Client is a minimal client for the Baike discussion API.
type Client struct {
	cfg        *config.Config
	httpClient *http.Client
}

// Option configures a [Client].
type Option func(*Client)

// WithHTTPClient replaces the HTTP client built from the configured timeout.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// NewClient creates a new [Client]. cfg is read but never modified.
func NewClient(cfg *config.Config, opts ...Option) *Client {
	c := &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.HTTPTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ResolveLemmaID resolves input using the configured default lemma id.
func (c *Client) ResolveLemmaID(input string) string {
	return ResolveLemmaID(input, c.cfg.DefaultLemmaID)
}

// DiscussionsURL returns the request URL for lemmaID. The id is appended
// as-is.
func (c *Client) DiscussionsURL(lemmaID string) string {
	return c.cfg.DiscussionURL() + "?" + LemmaIDParam + "=" + lemmaID
}

// Discussions fetches the discussions of the lemma that input resolves to.
// It makes exactly one request. Errors are one of [*UpstreamRejectedError],
// [*TransportError] or [*UnknownError].
func (c *Client) Discussions(ctx context.Context, input string) (*DiscussionResponse, error) {
	lemmaID := c.ResolveLemmaID(input)
	endpoint := c.DiscussionsURL(lemmaID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &UnknownError{Cause: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Cookie", c.cfg.Cookie)
	req.Header.Set("User-Agent", "baike-mcp/"+version.Version)

	slog.Debug("Fetching baike discussions", "lemma_id", lemmaID, "url", endpoint)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		rejected := &UpstreamRejectedError{StatusCode: resp.StatusCode, Body: body}
		slog.Warn("Baike API rejected request",
			"lemma_id", lemmaID,
			"status", resp.StatusCode,
			"errmsg", rejected.Errmsg(),
		)
		return nil, rejected
	}
	if err != nil {
		return nil, &TransportError{Cause: err}
	}

	var discussions DiscussionResponse
	if err := json.Unmarshal(body, &discussions); err != nil {
		return nil, &UnknownError{Cause: fmt.Errorf("decode discussions: %w", err)}
	}

	slog.Debug("Fetched baike discussions",
		"lemma_id", lemmaID,
		"count", len(discussions.Data),
		"size", humanize.Bytes(uint64(len(body))),
	)
	return &discussions, nil
}

// CloseIdleConnections closes any pooled upstream connections.
func (c *Client) CloseIdleConnections() {
	c.httpClient.CloseIdleConnections()
}
