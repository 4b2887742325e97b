package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/sync/errgroup"

	"github.com/flyhq/baike-mcp/internal/baike"
	"github.com/flyhq/baike-mcp/internal/config"
)

// ShutdownTimeout bounds the graceful shutdown of the HTTP transport.
const ShutdownTimeout = 5 * time.Second

// Fetcher fetches the discussions of the lemma an input resolves to.
// [*baike.Client] implements it.
type Fetcher interface {
	Discussions(ctx context.Context, input string) (*baike.DiscussionResponse, error)
}

// Server exposes Baike discussions over MCP.
type Server struct {
	mcp     *mcp.Server
	fetcher Fetcher
	logger  *slog.Logger
}

// NewServer creates a [Server] advertising cfg.Server and registers the
// request_baike tool and the render_baike_to_html prompt.
func NewServer(cfg *config.Config, fetcher Fetcher) *Server {
	s := &Server{
		fetcher: fetcher,
		logger:  slog.Default(),
	}

	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    cfg.Server.Name,
			Version: cfg.Server.Version,
		},
		&mcp.ServerOptions{
			Instructions: cfg.Server.Description,
		},
	)

	openWorld := true
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        RequestBaikeToolName,
		Description: "Fetch the discussions of a Baidu Baike entry. Accepts an entry URL or a numeric lemma id and returns the raw discussion data as JSON.",
		Annotations: &mcp.ToolAnnotations{
			ReadOnlyHint:  true,
			OpenWorldHint: &openWorld,
		},
	}, s.handleRequestBaike)

	s.mcp.AddPrompt(&mcp.Prompt{
		Name:        RenderBaikePromptName,
		Description: "Ask the model to render the discussions of a Baidu Baike entry as an HTML page.",
		Arguments: []*mcp.PromptArgument{
			{
				Name:        URLArgument,
				Description: "Baidu Baike URL or lemma id",
				Required:    true,
			},
		},
	}, s.handleRenderBaikePrompt)

	return s
}

// SetLogger sets the logger for the server.
func (s *Server) SetLogger(logger *slog.Logger) {
	s.logger = logger
}

// MCPServer returns the underlying MCP server.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// Run serves a single session over t until ctx is done or the client
// disconnects.
func (s *Server) Run(ctx context.Context, t mcp.Transport) error {
	return s.mcp.Run(ctx, t)
}

// RunStdio serves over stdin and stdout.
func (s *Server) RunStdio(ctx context.Context) error {
	s.logger.Info("Serving MCP over stdio")
	return s.Run(ctx, &mcp.StdioTransport{})
}

// Handler returns an http.Handler serving the streamable HTTP transport.
func (s *Server) Handler() http.Handler {
	h := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.mcp
	}, nil)
	return s.loggingHandler(h)
}

// ListenAndServe serves the streamable HTTP transport on addr until ctx is
// done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done, then shuts down
// gracefully, waiting at most [ShutdownTimeout] for active requests.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	h := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("Serving MCP over HTTP", "addr", ln.Addr().String())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := h.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("Shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ShutdownTimeout)
		defer cancel()
		if err := h.Shutdown(shutdownCtx); err != nil {
			_ = h.Close()
			return fmt.Errorf("failed to shutdown server: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func (s *Server) loggingHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.logger.With(
			slog.String("method", r.Method),
			slog.String("url", r.URL.String()),
			slog.String("remote_addr", r.RemoteAddr),
		).Debug("HTTP request")
		next.ServeHTTP(w, r)
	})
}
