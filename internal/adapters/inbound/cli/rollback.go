package cli

import (
	"fmt"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/vulnfix/vulnfix/internal/adapters/outbound/backup"
	"github.com/vulnfix/vulnfix/internal/adapters/outbound/history"
	"github.com/vulnfix/vulnfix/internal/adapters/outbound/workspace"
	"github.com/vulnfix/vulnfix/internal/application"
	"github.com/vulnfix/vulnfix/internal/logging"
)

func newRollbackCmd() *cobra.Command {
	var (
		root       string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "rollback [targetFile...]",
		Short: "Restore manifests from the backups taken by fix",
		Long:  "Restore the given manifests from .vulnfix/backup. Without arguments, restore every manifest changed by the last applied fix.",
		RunE: func(cmd *cobra.Command, args []string) error {
			absRoot, err := filepath.Abs(root)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			log, err := logging.New(verbosity)
			if err != nil {
				return err
			}

			ws := workspace.NewOS(absRoot)
			svc := application.NewRollbackService(ws, backup.New(ws.Filesystem()), history.New(ws.Filesystem()), log)
			result, err := svc.Rollback(args)
			if err != nil {
				return fmt.Errorf("rollback failed: %w", err)
			}

			if jsonOutput {
				return renderJSON(cmd.OutOrStdout(), result)
			}
			out := cmd.OutOrStdout()
			for _, f := range result.Restored {
				color.New(color.FgGreen).Fprintf(out, "✓ restored %s\n", f)
			}
			for _, f := range result.Missing {
				color.New(color.FgYellow).Fprintf(out, "– no backup for %s\n", f)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&root, "root", ".", "Project root")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}
