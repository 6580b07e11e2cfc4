package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

const configFileName = ".vulnfix.yaml"

const configTemplate = `# vulnfix configuration

# Shown next to every upgrade that could not be applied.
# tip: Apply the changes manually

# Keep a copy of each manifest under .vulnfix/backup before rewriting it.
backup: true

# Refuse to touch manifests with uncommitted changes.
require_clean_git: false

# Packages (groupId:artifactId) that must never be upgraded automatically.
# exclude_packages:
#   - org.springframework:spring-core
`

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Generate a .vulnfix.yaml configuration file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) > 0 {
				path = args[0]
			}

			absPath, err := filepath.Abs(path)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			dest := filepath.Join(absPath, configFileName)

			if !force {
				if _, err := os.Stat(dest); err == nil {
					return fmt.Errorf("%s already exists (use --force to overwrite)", configFileName)
				}
			}

			if err := os.WriteFile(dest, []byte(configTemplate), 0644); err != nil {
				return fmt.Errorf("writing config: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", configFileName)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing .vulnfix.yaml")

	return cmd
}
