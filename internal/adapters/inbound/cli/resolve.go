package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vulnfix/vulnfix/internal/adapters/outbound/tui"
	"github.com/vulnfix/vulnfix/internal/adapters/outbound/workspace"
	"github.com/vulnfix/vulnfix/internal/application"
)

func newResolveCmd() *cobra.Command {
	var (
		file       string
		root       string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "resolve <groupId:artifactId>",
		Short: "Show where a dependency's version is declared",
		Long: "Locate a dependency in a pom.xml and report which declaration governs its version: " +
			"the dependency itself, its dependencyManagement entry, or a property.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			absRoot, err := filepath.Abs(root)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			svc := application.NewResolveService(workspace.NewOS(absRoot))
			res, err := svc.Resolve(file, args[0])
			if err != nil {
				return err
			}

			if jsonOutput {
				return renderJSON(cmd.OutOrStdout(), res)
			}
			fmt.Fprint(cmd.OutOrStdout(), tui.RenderResolution(file, res))
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "pom.xml", "Manifest to inspect, relative to --root")
	cmd.Flags().StringVar(&root, "root", ".", "Project root")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}
