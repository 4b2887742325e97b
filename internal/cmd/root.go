package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/MakeNowJust/heredoc"
	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/flyhq/baike-mcp/internal/baike"
	"github.com/flyhq/baike-mcp/internal/config"
	"github.com/flyhq/baike-mcp/internal/log"
	"github.com/flyhq/baike-mcp/internal/server"
	"github.com/flyhq/baike-mcp/internal/version"
)

func init() {
	rootCmd.PersistentFlags().String("env-file", ".env", "Dotenv file to load before reading the environment")
	rootCmd.PersistentFlags().String("log-file", "", "Write JSON logs to a rotated file instead of stderr")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Debug")

	rootCmd.Flags().BoolP("help", "h", false, "Help")
	rootCmd.Flags().String("http", "", "Serve the streamable HTTP transport on this address instead of stdio")

	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(schemaCmd)
}

var rootCmd = &cobra.Command{
	Use:   "baike-mcp",
	Short: "MCP server for Baidu Baike discussions",
	Long: heredoc.Doc(`
		baike-mcp is a Model Context Protocol server that fetches the discussions
		attached to a Baidu Baike entry. It exposes the request_baike tool, which
		returns the raw discussion data, and the render_baike_to_html prompt, which
		asks the model to render those discussions as an HTML page.

		Configuration is read from the environment, after loading a dotenv file.
	`),
	Example: heredoc.Doc(`
		# Serve over stdio, for MCP clients that spawn the server
		baike-mcp

		# Serve over streamable HTTP
		baike-mcp --http 127.0.0.1:8080

		# Log debug output to a file
		baike-mcp -d --log-file /tmp/baike-mcp.log

		# Fetch the discussions of an entry once and print them
		baike-mcp fetch https://baike.baidu.com/item/DeepSeek/65258669
	`),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setup(cmd)
		if err != nil {
			return err
		}

		client := baike.NewClient(cfg)
		defer client.CloseIdleConnections()

		srv := server.NewServer(cfg, client)
		srv.SetLogger(slog.Default())

		addr, _ := cmd.Flags().GetString("http")
		if addr != "" {
			return srv.ListenAndServe(cmd.Context(), addr)
		}
		return runStdio(cmd.Context(), srv)
	},
}

func Execute() {
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(version.Version),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}

// setup handles the common setup logic for every command: logging first,
// then configuration.
func setup(cmd *cobra.Command) (*config.Config, error) {
	debug, _ := cmd.Flags().GetBool("debug")
	logFile, _ := cmd.Flags().GetString("log-file")
	envFile, _ := cmd.Flags().GetString("env-file")

	log.Setup(logFile, debug)

	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %v", err)
	}

	slog.Debug("Loaded configuration",
		"base_url", cfg.BaseURL,
		"discussion_path", cfg.DiscussionPath,
		"default_lemma_id", cfg.DefaultLemmaID,
		"cookie_set", cfg.Cookie != "",
		"http_timeout", cfg.HTTPTimeout,
	)
	return cfg, nil
}

func runStdio(ctx context.Context, srv *server.Server) error {
	if err := srv.RunStdio(ctx); err != nil && ctx.Err() == nil {
		slog.Error("MCP server error", "error", err)
		return fmt.Errorf("server error: %v", err)
	}
	return nil
}
