package config

import (
	"cmp"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultBaseURL        = "https://baike.baidu.com/api"
	DefaultDiscussionPath = "/discussion/gettashuos"
	DefaultLemmaID        = "65258669"
	DefaultHTTPTimeout    = 30 * time.Second

	DefaultServerName        = "Fly"
	DefaultServerVersion     = "1.0.0"
	DefaultServerDescription = "Baidu Baike content access and rendering service"
)

// Environment variable names.
const (
	EnvBaseURL           = "BAIKE_API_BASE_URL"
	EnvDiscussionPath    = "BAIKE_DISCUSSION_API"
	EnvDefaultLemmaID    = "DEFAULT_LEMMA_ID"
	EnvCookie            = "BAIKE_COOKIE"
	EnvHTTPTimeout       = "BAIKE_HTTP_TIMEOUT"
	EnvServerName        = "MCP_SERVER_NAME"
	EnvServerVersion     = "MCP_SERVER_VERSION"
	EnvServerDescription = "MCP_SERVER_DESCRIPTION"
)

// Config holds the upstream endpoint settings and the MCP server metadata.
// It is built once at startup and must not be modified afterwards.
type Config struct {
	// BaseURL is the Baike API root, without a trailing slash.
	BaseURL string `json:"base_url" jsonschema:"description=Baike API base URL,default=https://baike.baidu.com/api"`
	// DiscussionPath is appended to BaseURL to form the discussion endpoint.
	DiscussionPath string `json:"discussion_path" jsonschema:"description=Relative path of the discussion endpoint,default=/discussion/gettashuos"`
	// DefaultLemmaID is queried when an input cannot be resolved to a lemma id.
	DefaultLemmaID string `json:"default_lemma_id" jsonschema:"description=Lemma id used when the input cannot be resolved,default=65258669"`
	// Cookie is sent verbatim in the Cookie header of every upstream request.
	Cookie string `json:"cookie,omitempty" jsonschema:"description=Cookie header sent to the Baike API"`
	// HTTPTimeout bounds a single upstream round trip.
	HTTPTimeout time.Duration `json:"http_timeout" jsonschema:"description=Upstream request timeout in nanoseconds,default=30000000000"`

	Server ServerInfo `json:"server" jsonschema:"description=Metadata advertised to MCP clients"`
}

// ServerInfo is the metadata advertised during the MCP handshake.
type ServerInfo struct {
	Name        string `json:"name" jsonschema:"description=MCP server name,default=Fly"`
	Version     string `json:"version" jsonschema:"description=MCP server version,default=1.0.0"`
	Description string `json:"description" jsonschema:"description=MCP server description sent as instructions"`
}

// Default returns a [Config] with every value at its default.
func Default() *Config {
	return &Config{
		BaseURL:        DefaultBaseURL,
		DiscussionPath: DefaultDiscussionPath,
		DefaultLemmaID: DefaultLemmaID,
		HTTPTimeout:    DefaultHTTPTimeout,
		Server: ServerInfo{
			Name:        DefaultServerName,
			Version:     DefaultServerVersion,
			Description: DefaultServerDescription,
		},
	}
}

// Load reads envFile into the process environment, if it exists, and builds
// a [Config] from the environment. Variables already set in the environment
// take precedence over the file.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file %q: %w", envFile, err)
		}
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a [Config] using lookup to resolve environment variables.
// Empty values fall back to the defaults.
func FromEnv(lookup func(string) (string, bool)) (*Config, error) {
	get := func(key, fallback string) string {
		v, _ := lookup(key)
		return cmp.Or(v, fallback)
	}

	cfg := &Config{
		BaseURL:        get(EnvBaseURL, DefaultBaseURL),
		DiscussionPath: get(EnvDiscussionPath, DefaultDiscussionPath),
		DefaultLemmaID: get(EnvDefaultLemmaID, DefaultLemmaID),
		Cookie:         get(EnvCookie, ""),
		HTTPTimeout:    DefaultHTTPTimeout,
		Server: ServerInfo{
			Name:        get(EnvServerName, DefaultServerName),
			Version:     get(EnvServerVersion, DefaultServerVersion),
			Description: get(EnvServerDescription, DefaultServerDescription),
		},
	}

	if v := get(EnvHTTPTimeout, ""); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvHTTPTimeout, err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("invalid %s: must be positive, got %s", EnvHTTPTimeout, d)
		}
		cfg.HTTPTimeout = d
	}

	return cfg, nil
}

// DiscussionURL returns the discussion endpoint without the query string.
func (c *Config) DiscussionURL() string {
	return c.BaseURL + c.DiscussionPath
}
