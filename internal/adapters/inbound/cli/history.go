package cli

import (
	"fmt"
	"path/filepath"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"github.com/vulnfix/vulnfix/internal/adapters/outbound/history"
	"github.com/vulnfix/vulnfix/internal/adapters/outbound/tui"
	"github.com/vulnfix/vulnfix/internal/domain"
)

func newHistoryCmd() *cobra.Command {
	var (
		root       string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show previous fix runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			absRoot, err := filepath.Abs(root)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			entries, err := history.New(osfs.New(absRoot)).Load()
			if err != nil {
				return fmt.Errorf("loading history: %w", err)
			}

			if jsonOutput {
				if entries == nil {
					entries = []domain.FixEntry{}
				}
				return renderJSON(cmd.OutOrStdout(), entries)
			}
			fmt.Fprint(cmd.OutOrStdout(), tui.RenderHistory(entries))
			return nil
		},
	}

	cmd.Flags().StringVar(&root, "root", ".", "Project root")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}
