package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"

	"github.com/flyhq/baike-mcp/internal/baike"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <url-or-lemma-id>",
	Short: "Fetch the discussions of an entry once and print them as JSON",
	Long: heredoc.Doc(`
		Fetch performs the same request as the request_baike tool and prints the
		discussion data to stdout. Inputs that cannot be resolved to a lemma id
		fall back to DEFAULT_LEMMA_ID.
	`),
	Example: heredoc.Doc(`
		baike-mcp fetch 65258669
		baike-mcp fetch "https://baike.baidu.com/item/DeepSeek?lemmaId=65258669"
	`),
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setup(cmd)
		if err != nil {
			return err
		}

		client := baike.NewClient(cfg)
		defer client.CloseIdleConnections()

		discussions, err := client.Discussions(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(discussions); err != nil {
			return fmt.Errorf("failed to encode discussions: %v", err)
		}
		return nil
	},
}
