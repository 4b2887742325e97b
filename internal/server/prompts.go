package server

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/flyhq/baike-mcp/internal/baike"
)

//go:embed templates/render_html.md.tpl
var renderHTMLPromptTmpl string

var renderHTMLPrompt = template.Must(template.New("render_html").Parse(renderHTMLPromptTmpl))

// DiscussionSummary is the projection of a discussion embedded in the render
// prompt.
type DiscussionSummary struct {
	Title     string `json:"title"`
	Author    string `json:"author"`
	Date      string `json:"date"`
	Content   string `json:"content"`
	Summary   string `json:"summary"`
	ImageURLs string `json:"imageUrls"`
	Likes     int64  `json:"likes"`
}

// Summarize projects discussions for the render prompt. Creation times are
// formatted in local time.
func Summarize(discussions []baike.Discussion) []DiscussionSummary {
	summaries := make([]DiscussionSummary, 0, len(discussions))
	for _, d := range discussions {
		summaries = append(summaries, DiscussionSummary{
			Title:     d.Title,
			Author:    d.AuthorName,
			Date:      time.Unix(d.CreateTime, 0).Local().Format(time.DateTime),
			Content:   d.Content.Text,
			Summary:   d.Content.Summary,
			ImageURLs: strings.Join(d.Content.ImageURLs(), "\n"),
			Likes:     d.StarNum,
		})
	}
	return summaries
}

// BuildRenderPrompt renders the HTML rendering request for summaries.
func BuildRenderPrompt(summaries []DiscussionSummary) (string, error) {
	data, err := marshalIndent(summaries)
	if err != nil {
		return "", fmt.Errorf("error encoding summaries: %w", err)
	}

	var sb strings.Builder
	if err := renderHTMLPrompt.Execute(&sb, struct {
		Count       int
		Discussions string
	}{
		Count:       len(summaries),
		Discussions: data,
	}); err != nil {
		return "", fmt.Errorf("error executing prompt template: %w", err)
	}
	return sb.String(), nil
}

func (s *Server) handleRenderBaikePrompt(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	var input string
	if req != nil && req.Params != nil {
		input = req.Params.Arguments[URLArgument]
	}

	discussions, err := s.fetch(ctx, RenderBaikePromptName, input)
	if err != nil {
		return newUserPrompt(renderErrorText(err)), nil
	}

	text, err := BuildRenderPrompt(Summarize(discussions.Data))
	if err != nil {
		return newUserPrompt(renderErrorText(err)), nil
	}
	return newUserPrompt(text), nil
}

func renderErrorText(err error) string {
	return fmt.Sprintf("I ran into an error while analyzing the Baidu Baike discussions:\n%s", err)
}

func newUserPrompt(text string) *mcp.GetPromptResult {
	return &mcp.GetPromptResult{
		Messages: []*mcp.PromptMessage{
			{
				Role:    "user",
				Content: &mcp.TextContent{Text: text},
			},
		},
	}
}
