package server

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/flyhq/baike-mcp/internal/baike"
	"github.com/flyhq/baike-mcp/internal/log"
)

func (s *Server) handleRequestBaike(ctx context.Context, _ *mcp.CallToolRequest, params RequestBaikeParams) (*mcp.CallToolResult, any, error) {
	discussions, err := s.fetch(ctx, RequestBaikeToolName, params.URL)
	if err != nil {
		return newTextErrorResult(err.Error()), nil, nil
	}

	text, err := marshalIndent(discussions)
	if err != nil {
		return newTextErrorResult(fmt.Sprintf("error encoding discussions: %s", err)), nil, nil
	}
	return newTextResult(text), nil, nil
}

// marshalIndent encodes v with two-space indentation, leaving HTML
// characters in URLs and text unescaped.
func marshalIndent(v any) (string, error) {
	var sb strings.Builder
	enc := json.NewEncoder(&sb)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(sb.String(), "\n"), nil
}

// fetch calls the fetcher, logging the outcome under a per-call request id.
// A panic in the fetcher is returned as a [*baike.UnknownError].
func (s *Server) fetch(ctx context.Context, op, input string) (resp *baike.DiscussionResponse, err error) {
	logger := s.logger.With("request_id", uuid.NewString(), "op", op)

	defer log.RecoverPanic(op, func(perr error) {
		resp, err = nil, &baike.UnknownError{Cause: perr}
	})

	logger.Info("Fetching baike discussions", "input", input)
	resp, err = s.fetcher.Discussions(ctx, input)
	if err == nil && resp == nil {
		err = &baike.UnknownError{}
	}
	if err != nil {
		logger.Error("Failed to fetch baike discussions", "error", err)
		return nil, err
	}
	logger.Info("Fetched baike discussions", "count", len(resp.Data))
	return resp, nil
}

func newTextResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func newTextErrorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}
}
