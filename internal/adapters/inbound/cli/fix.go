package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/vulnfix/vulnfix/internal/adapters/outbound/backup"
	"github.com/vulnfix/vulnfix/internal/adapters/outbound/config"
	"github.com/vulnfix/vulnfix/internal/adapters/outbound/gitinfo"
	"github.com/vulnfix/vulnfix/internal/adapters/outbound/history"
	"github.com/vulnfix/vulnfix/internal/adapters/outbound/input"
	"github.com/vulnfix/vulnfix/internal/adapters/outbound/tui"
	"github.com/vulnfix/vulnfix/internal/adapters/outbound/workspace"
	"github.com/vulnfix/vulnfix/internal/application"
	"github.com/vulnfix/vulnfix/internal/domain"
	"github.com/vulnfix/vulnfix/internal/logging"
)

func newFixCmd() *cobra.Command {
	var (
		inputPath  string
		root       string
		dryRun     bool
		quiet      bool
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "fix",
		Short: "Apply remediation upgrades to the scanned projects",
		Long: "Read scanned projects and their remediation advice from --input, upgrade every " +
			"dependency that can be located in its manifest, and report what changed.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			absRoot, err := filepath.Abs(root)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			ws := workspace.NewOS(absRoot)
			cfg, err := config.New(ws.Filesystem()).Load()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			entities, err := input.New().Load(inputPath, ws)
			if err != nil {
				return fmt.Errorf("loading input: %w", err)
			}

			log, err := logging.New(verbosity)
			if err != nil {
				return err
			}

			gi := gitinfo.New()
			svc := application.NewFixService(absRoot, cfg, backup.New(ws.Filesystem()), gi, log)
			opts := domain.FixOptions{DryRun: dryRun, Quiet: quiet}

			interactive := !quiet && !jsonOutput
			var s *spinner.Spinner
			if interactive {
				s = spinner.New(spinner.CharSets[11], 100*time.Millisecond, spinner.WithWriter(cmd.ErrOrStderr()))
				s.Suffix = fmt.Sprintf(" Fixing %d project(s)...", len(entities))
				s.Start()
			}
			report := svc.Fix(entities, opts)
			if s != nil {
				s.Stop()
			}

			var hash string
			if gi.IsGitRepo(absRoot) {
				hash, _ = gi.CommitHash(absRoot)
			}
			application.RecordRun(history.New(ws.Filesystem()), report, hash, log)

			switch {
			case jsonOutput:
				return renderJSON(cmd.OutOrStdout(), report)
			case quiet:
				printSummary(cmd.OutOrStdout(), report)
			default:
				fmt.Fprint(cmd.OutOrStdout(), tui.RenderFixReport(report))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "Scanned projects with remediation advice (JSON or YAML)")
	cmd.Flags().StringVar(&root, "root", ".", "Directory target files are relative to")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Compute changes without writing any file")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Print a one-line summary instead of the full report")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the report as JSON")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func printSummary(w io.Writer, report *domain.FixReport) {
	applied, failed := report.ChangeCounts()
	_, projectsFailed, skipped := report.Counts()

	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	if failed+projectsFailed == 0 {
		green.Fprintf(w, "✓ %d upgrade(s) applied, %d project(s) skipped\n", applied, skipped)
		return
	}
	red.Fprintf(w, "✗ %d upgrade(s) applied, %d failed, %d project(s) failed, %d skipped\n",
		applied, failed, projectsFailed, skipped)
}

func renderJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
