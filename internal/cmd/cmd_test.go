package cmd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flyhq/baike-mcp/internal/baike"
	"github.com/flyhq/baike-mcp/internal/config"
)

func TestConfigSchema(t *testing.T) {
	t.Parallel()

	bts, err := configSchema()
	require.NoError(t, err)

	var schema struct {
		Title      string                     `json:"title"`
		Properties map[string]json.RawMessage `json:"properties"`
	}
	require.NoError(t, json.Unmarshal(bts, &schema))
	require.Equal(t, "baike-mcp configuration", schema.Title)
	for _, key := range []string{"base_url", "discussion_path", "default_lemma_id", "cookie", "http_timeout", "server"} {
		require.Contains(t, schema.Properties, key)
	}
}

func TestFetchCommand(t *testing.T) {
	lemmaIDs := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lemmaIDs <- r.URL.Query().Get("lemmaId")
		_, _ = w.Write([]byte(`{"errno":0,"errmsg":"ok","serviceStatus":1,"data":[{"title":"t","authorName":"a"}]}`))
	}))
	t.Cleanup(srv.Close)

	t.Setenv(config.EnvBaseURL, srv.URL)
	t.Setenv(config.EnvDiscussionPath, "/discussions")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"fetch", "--env-file", "", "https://x.com/item?lemmaId=999"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.ExecuteContext(t.Context()))
	require.Equal(t, "999", <-lemmaIDs)

	var got baike.DiscussionResponse
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	require.Equal(t, "ok", got.Errmsg)
	require.Len(t, got.Data, 1)
	require.Equal(t, "t", got.Data[0].Title)
}
