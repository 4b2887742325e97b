package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"github.com/flyhq/baike-mcp/internal/baike"
	"github.com/flyhq/baike-mcp/internal/config"
)

const upstreamResponse = `{
  "errno": 0,
  "errmsg": "success",
  "serviceStatus": 1,
  "data": [
    {
      "issueId": 1001,
      "title": "What is DeepSeek?",
      "content": {
        "text": "A model family.",
        "pics": [
          {"picId": 1, "imgUrl": "https://img.example/1.jpg?a=1&b=2"},
          {"picId": 2, "imgUrl": "https://img.example/2.jpg"}
        ],
        "struct": [],
        "more": 0,
        "summary": "models"
      },
      "authorName": "alice",
      "createTime": 1700000000,
      "starNum": 42,
      "extData": {"isAnonymous": 1},
      "contributeFlags": []
    }
  ]
}`

type fetcherFunc func(ctx context.Context, input string) (*baike.DiscussionResponse, error)

func (f fetcherFunc) Discussions(ctx context.Context, input string) (*baike.DiscussionResponse, error) {
	return f(ctx, input)
}

// newUpstream starts a fake Baike API and returns a client pointed at it.
func newUpstream(t *testing.T, status int, body string) (*baike.Client, <-chan string) {
	t.Helper()

	lemmaIDs := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lemmaIDs <- r.URL.Query().Get("lemmaId")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	cfg := config.Default()
	cfg.BaseURL = srv.URL
	client := baike.NewClient(cfg)
	t.Cleanup(client.CloseIdleConnections)
	return client, lemmaIDs
}

func connect(t *testing.T, fetcher Fetcher) *mcp.ClientSession {
	t.Helper()

	srv := NewServer(config.Default(), fetcher)
	srv.SetLogger(slog.New(slog.DiscardHandler))

	ct, st := mcp.NewInMemoryTransports()
	ss, err := srv.MCPServer().Connect(t.Context(), st, nil)
	require.NoError(t, err)

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	cs, err := client.Connect(t.Context(), ct, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = cs.Close()
		_ = ss.Wait()
	})
	return cs
}

func callRequestBaike(t *testing.T, cs *mcp.ClientSession, input string) (string, bool) {
	t.Helper()

	res, err := cs.CallTool(t.Context(), &mcp.CallToolParams{
		Name:      RequestBaikeToolName,
		Arguments: map[string]any{URLArgument: input},
	})
	require.NoError(t, err)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", res.Content[0])
	return text.Text, res.IsError
}

func getRenderPrompt(t *testing.T, cs *mcp.ClientSession, input string) string {
	t.Helper()

	res, err := cs.GetPrompt(t.Context(), &mcp.GetPromptParams{
		Name:      RenderBaikePromptName,
		Arguments: map[string]string{URLArgument: input},
	})
	require.NoError(t, err)
	require.Len(t, res.Messages, 1)
	require.Equal(t, mcp.Role("user"), res.Messages[0].Role)
	text, ok := res.Messages[0].Content.(*mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", res.Messages[0].Content)
	return text.Text
}

func TestServer_Metadata(t *testing.T) {
	t.Parallel()

	cs := connect(t, fetcherFunc(func(context.Context, string) (*baike.DiscussionResponse, error) {
		return &baike.DiscussionResponse{}, nil
	}))

	initRes := cs.InitializeResult()
	require.NotNil(t, initRes)
	require.Equal(t, config.DefaultServerName, initRes.ServerInfo.Name)
	require.Equal(t, config.DefaultServerVersion, initRes.ServerInfo.Version)
	require.Equal(t, config.DefaultServerDescription, initRes.Instructions)

	tools, err := cs.ListTools(t.Context(), &mcp.ListToolsParams{})
	require.NoError(t, err)
	require.Len(t, tools.Tools, 1)
	require.Equal(t, RequestBaikeToolName, tools.Tools[0].Name)

	prompts, err := cs.ListPrompts(t.Context(), &mcp.ListPromptsParams{})
	require.NoError(t, err)
	require.Len(t, prompts.Prompts, 1)
	require.Equal(t, RenderBaikePromptName, prompts.Prompts[0].Name)
	require.Len(t, prompts.Prompts[0].Arguments, 1)
	require.Equal(t, URLArgument, prompts.Prompts[0].Arguments[0].Name)
	require.True(t, prompts.Prompts[0].Arguments[0].Required)
}

func TestRequestBaike_Success(t *testing.T) {
	t.Parallel()

	client, lemmaIDs := newUpstream(t, http.StatusOK, upstreamResponse)
	cs := connect(t, client)

	text, isError := callRequestBaike(t, cs, "https://baike.baidu.com/item/DeepSeek/65258669")
	require.False(t, isError, text)
	require.Equal(t, "65258669", <-lemmaIDs)

	var got baike.DiscussionResponse
	require.NoError(t, json.Unmarshal([]byte(text), &got))
	require.Equal(t, "success", got.Errmsg)
	require.Len(t, got.Data, 1)
	require.Equal(t, "What is DeepSeek?", got.Data[0].Title)
	require.Equal(t, map[string]any{"isAnonymous": float64(1)}, got.Data[0].ExtData)

	require.Contains(t, text, "\n  \"errno\": 0,", "expected two-space indentation")
	require.Contains(t, text, "https://img.example/1.jpg?a=1&b=2", "URLs must not be HTML escaped")
}

func TestRequestBaike_UpstreamRejected(t *testing.T) {
	t.Parallel()

	client, _ := newUpstream(t, http.StatusNotFound, `{"errno":1,"errmsg":"not found"}`)
	cs := connect(t, client)

	text, isError := callRequestBaike(t, cs, "123456")
	require.True(t, isError)
	require.Contains(t, text, "404")
	require.Contains(t, text, `{"errno":1,"errmsg":"not found"}`)
}

func TestRequestBaike_TransportError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	cfg := config.Default()
	cfg.BaseURL = srv.URL
	srv.Close()

	cs := connect(t, baike.NewClient(cfg))

	text, isError := callRequestBaike(t, cs, "123456")
	require.True(t, isError)
	require.Contains(t, text, "connection refused")
	require.NotContains(t, text, "baike api error")
}

func TestRequestBaike_Panic(t *testing.T) {
	t.Parallel()

	cs := connect(t, fetcherFunc(func(context.Context, string) (*baike.DiscussionResponse, error) {
		panic("boom")
	}))

	text, isError := callRequestBaike(t, cs, "123456")
	require.True(t, isError)
	require.Contains(t, text, "unknown error")
}

func TestRequestBaike_NilResponse(t *testing.T) {
	t.Parallel()

	cs := connect(t, fetcherFunc(func(context.Context, string) (*baike.DiscussionResponse, error) {
		return nil, nil
	}))

	text, isError := callRequestBaike(t, cs, "123456")
	require.True(t, isError)
	require.Equal(t, "unknown error while fetching baike discussions", text)
}

func TestRequestBaike_PassesInputThrough(t *testing.T) {
	t.Parallel()

	inputs := make(chan string, 1)
	cs := connect(t, fetcherFunc(func(_ context.Context, input string) (*baike.DiscussionResponse, error) {
		inputs <- input
		return &baike.DiscussionResponse{Data: []baike.Discussion{}}, nil
	}))

	text, isError := callRequestBaike(t, cs, "not a url or number")
	require.False(t, isError, text)
	require.Equal(t, "not a url or number", <-inputs)
	require.JSONEq(t, `{"errno":0,"errmsg":"","serviceStatus":0,"data":[]}`, text)
}

func TestRenderPrompt_Success(t *testing.T) {
	t.Parallel()

	client, lemmaIDs := newUpstream(t, http.StatusOK, upstreamResponse)
	cs := connect(t, client)

	text := getRenderPrompt(t, cs, "https://x.com/item?lemmaId=999")
	require.Equal(t, "999", <-lemmaIDs)

	wantDate := time.Unix(1700000000, 0).Local().Format(time.DateTime)
	require.Contains(t, text, "(1 discussions)")
	require.Contains(t, text, `"title": "What is DeepSeek?"`)
	require.Contains(t, text, `"author": "alice"`)
	require.Contains(t, text, `"date": "`+wantDate+`"`)
	require.Contains(t, text, `"content": "A model family."`)
	require.Contains(t, text, `"summary": "models"`)
	require.Contains(t, text, `"imageUrls": "https://img.example/1.jpg?a=1&b=2\nhttps://img.example/2.jpg"`)
	require.Contains(t, text, `"likes": 42`)
	require.Contains(t, text, "<!DOCTYPE html>")
	require.NotContains(t, text, "isAnonymous", "pass-through fields are not part of the summary")
}

func TestRenderPrompt_Error(t *testing.T) {
	t.Parallel()

	client, _ := newUpstream(t, http.StatusNotFound, `{"errno":1,"errmsg":"not found"}`)
	cs := connect(t, client)

	text := getRenderPrompt(t, cs, "123456")
	require.Contains(t, text, "error")
	require.Contains(t, text, "404")
	require.Contains(t, text, `{"errno":1,"errmsg":"not found"}`)
}

func TestRenderPrompt_Panic(t *testing.T) {
	t.Parallel()

	cs := connect(t, fetcherFunc(func(context.Context, string) (*baike.DiscussionResponse, error) {
		panic(errors.New("kaboom"))
	}))

	text := getRenderPrompt(t, cs, "123456")
	require.Contains(t, text, "unknown error")
	require.Contains(t, text, "kaboom")
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	discussions := []baike.Discussion{
		{
			Title:      "first",
			AuthorName: "bob",
			CreateTime: 0,
			StarNum:    7,
			Content: baike.DiscussionContent{
				Text:    "body",
				Summary: "sum",
			},
		},
		{
			Title:      "second",
			CreateTime: 1700000000,
			Content: baike.DiscussionContent{
				Pics: []baike.Picture{{ImgURL: "a"}, {ImgURL: "b"}, {ImgURL: "c"}},
			},
		},
	}

	got := Summarize(discussions)
	require.Equal(t, []DiscussionSummary{
		{
			Title:   "first",
			Author:  "bob",
			Date:    time.Unix(0, 0).Local().Format(time.DateTime),
			Content: "body",
			Summary: "sum",
			Likes:   7,
		},
		{
			Title:     "second",
			Date:      time.Unix(1700000000, 0).Local().Format(time.DateTime),
			ImageURLs: "a\nb\nc",
		},
	}, got)
}

func TestBuildRenderPrompt_Empty(t *testing.T) {
	t.Parallel()

	text, err := BuildRenderPrompt(Summarize(nil))
	require.NoError(t, err)
	require.Contains(t, text, "(0 discussions):\n[]\n")
}

func TestServer_StreamableHTTP(t *testing.T) {
	t.Parallel()

	srv := NewServer(config.Default(), fetcherFunc(func(context.Context, string) (*baike.DiscussionResponse, error) {
		return &baike.DiscussionResponse{Errmsg: "over http", Data: []baike.Discussion{}}, nil
	}))
	srv.SetLogger(slog.New(slog.DiscardHandler))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ctx, ln) }()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	cs, err := client.Connect(t.Context(), &mcp.StreamableClientTransport{
		Endpoint: "http://" + ln.Addr().String(),
	}, nil)
	require.NoError(t, err)

	text, isError := callRequestBaike(t, cs, "1")
	require.False(t, isError, text)
	require.Contains(t, text, "over http")
	require.NoError(t, cs.Close())

	cancel()
	select {
	case err := <-errc:
		require.NoError(t, err)
	case <-time.After(ShutdownTimeout + time.Second):
		t.Fatal("server did not shut down")
	}
}
