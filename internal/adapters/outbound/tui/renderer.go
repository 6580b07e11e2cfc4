package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/camelcase"

	"github.com/vulnfix/vulnfix/internal/domain"
	"github.com/vulnfix/vulnfix/internal/domain/pom"
)

// ── warm palette ──
var (
	accent    = lipgloss.Color("#D97706") // amber
	fg        = lipgloss.Color("#E8E6E3") // warm light gray
	dim       = lipgloss.Color("#6B7280") // muted gray
	faint     = lipgloss.Color("#3F3F46") // very dim
	success   = lipgloss.Color("#22C55E") // green
	danger    = lipgloss.Color("#EF4444") // red
	warning   = lipgloss.Color("#F59E0B") // amber-yellow
	skipColor = lipgloss.Color("#4B5563") // dark gray
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accent).
			Align(lipgloss.Center)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(1, 4).
			Align(lipgloss.Center).
			Width(68)

	dimStyle      = lipgloss.NewStyle().Foreground(dim)
	faintStyle    = lipgloss.NewStyle().Foreground(faint)
	passStyle     = lipgloss.NewStyle().Foreground(success)
	failStyle     = lipgloss.NewStyle().Foreground(danger)
	warnStyle     = lipgloss.NewStyle().Foreground(warning)
	skipStyle     = lipgloss.NewStyle().Foreground(skipColor)
	fileStyle     = lipgloss.NewStyle().Foreground(dim)
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(fg)
	errorTagStyle = lipgloss.NewStyle().Foreground(danger).Bold(true)
	separatorLine = faintStyle.Render(strings.Repeat("─", 64))
)

// RenderFixReport formats a fix run for terminal output.
func RenderFixReport(report *domain.FixReport) string {
	var b strings.Builder

	succeeded, failed, skipped := report.Counts()
	applied, failedChanges := report.ChangeCounts()

	title := headerStyle.Render("vulnfix")
	subtitle := dimStyle.Render("Dependency Upgrades")
	if report.DryRun {
		subtitle = warnStyle.Render("Dependency Upgrades (dry run, nothing written)")
	}
	summary := fmt.Sprintf("%s  %s",
		passStyle.Render(fmt.Sprintf("%d applied", applied)),
		failStyle.Render(fmt.Sprintf("%d failed", failedChanges)))
	b.WriteString(boxStyle.Render(title + "\n" + subtitle + "\n\n" + summary))
	b.WriteString("\n\n")

	for _, plugin := range sortedKeys(report.Results) {
		renderPlugin(&b, plugin, report.Results[plugin])
	}

	if len(report.Exceptions) > 0 {
		b.WriteString("  " + titleStyle.Render("Unsupported project types") + "\n")
		for _, typ := range sortedKeys(report.Exceptions) {
			exc := report.Exceptions[typ]
			b.WriteString(fmt.Sprintf("  %s %s %s\n",
				errorTagStyle.Render("✗"),
				titleStyle.Render(typ),
				dimStyle.Render(fmt.Sprintf("(%d) %s", len(exc.Originals), exc.UserMessage))))
		}
		b.WriteString("\n")
	}

	b.WriteString("  " + separatorLine + "\n")
	b.WriteString(fmt.Sprintf("  %s  %s  %s\n",
		passStyle.Render(fmt.Sprintf("%d succeeded", succeeded)),
		failStyle.Render(fmt.Sprintf("%d failed", failed)),
		skipStyle.Render(fmt.Sprintf("%d skipped", skipped))))

	return b.String()
}

func renderPlugin(b *strings.Builder, plugin string, res *domain.PluginResult) {
	b.WriteString("  " + titleStyle.Render(plugin) + "\n")
	b.WriteString("  " + separatorLine + "\n")

	for _, s := range res.Succeeded {
		b.WriteString("  " + fileStyle.Render(s.Original.ScanResult.Identity.TargetFile) + "\n")
		for _, c := range s.Changes {
			renderChange(b, c)
		}
	}

	for _, f := range res.Failed {
		b.WriteString(fmt.Sprintf("  %s %s\n", errorTagStyle.Render("✗"),
			fileStyle.Render(f.Original.ScanResult.Identity.TargetFile)))
		b.WriteString("      " + failStyle.Render(f.Error) + "\n")
		if f.Tip != "" {
			b.WriteString("      " + dimStyle.Render("Tip: "+f.Tip) + "\n")
		}
	}

	for _, s := range res.Skipped {
		name := s.Original.ScanResult.Identity.TargetFile
		if name == "" {
			name = s.Original.ScanResult.Identity.Type
		}
		b.WriteString(fmt.Sprintf("  %s %s  %s\n", skipStyle.Render("–"),
			fileStyle.Render(name), skipStyle.Render(s.UserMessage)))
	}
	b.WriteString("\n")
}

func renderChange(b *strings.Builder, c domain.ChangeOutcome) {
	if c.Success {
		line := "    " + passStyle.Render("✓") + " " + c.UserMessage
		if c.Provenance != "" {
			line += "  " + dimStyle.Render("via "+ProvenanceLabel(c.Provenance))
		}
		b.WriteString(line + "\n")
		renderIssues(b, c.IssueIDs)
		return
	}

	b.WriteString("    " + failStyle.Render("✗") + " " + c.UserMessage + "\n")
	if c.Reason != "" {
		b.WriteString("      " + failStyle.Render(c.Reason) + "\n")
	}
	if c.Tip != "" {
		b.WriteString("      " + dimStyle.Render("Tip: "+c.Tip) + "\n")
	}
}

func renderIssues(b *strings.Builder, ids []string) {
	if len(ids) == 0 {
		return
	}
	b.WriteString("      " + faintStyle.Render("fixes "+strings.Join(ids, ", ")) + "\n")
}

// ProvenanceLabel turns a provenance kind such as "InlineOnManagedDependency"
// into "inline on managed dependency".
func ProvenanceLabel(kind string) string {
	words := camelcase.Split(kind)
	for i, w := range words {
		words[i] = strings.ToLower(w)
	}
	return strings.Join(words, " ")
}

// RenderResolution formats a provenance lookup for terminal output.
func RenderResolution(file string, res *pom.Resolution) string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString("  " + titleStyle.Render(res.Dependency.Coordinate.String()) + "  " + fileStyle.Render(file) + "\n")
	b.WriteString("  " + faintStyle.Render(strings.Repeat("─", 50)) + "\n")
	b.WriteString(fmt.Sprintf("  %s %s\n", padRight("declared", 10), ProvenanceLabel(res.Provenance)))
	if res.Property != "" {
		b.WriteString(fmt.Sprintf("  %s %s\n", padRight("property", 10), res.Property))
	}
	b.WriteString(fmt.Sprintf("  %s %s\n", padRight("value", 10), passStyle.Render(res.Value)))
	b.WriteString(fmt.Sprintf("  %s %s\n", padRight("selector", 10), dimStyle.Render(res.Selector)))
	return b.String()
}

// RenderHistory formats fix history for terminal output.
func RenderHistory(entries []domain.FixEntry) string {
	if len(entries) == 0 {
		return "  " + dimStyle.Render("No fix history found.") + "\n"
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString("  " + titleStyle.Render("Fix History") + "\n")
	b.WriteString("  " + faintStyle.Render(strings.Repeat("─", 50)) + "\n\n")

	for _, e := range entries {
		hash := e.CommitHash
		if len(hash) > 7 {
			hash = hash[:7]
		}
		if hash == "" {
			hash = "·······"
		}
		ts := e.Timestamp
		if len(ts) > 10 {
			ts = ts[:10]
		}

		line := fmt.Sprintf("  %s  %s  %s  %s",
			dimStyle.Render(ts),
			faintStyle.Render(hash),
			passStyle.Render(fmt.Sprintf("%d applied", e.Applied)),
			failStyle.Render(fmt.Sprintf("%d failed", e.Failed)),
		)
		if e.DryRun {
			line += "  " + warnStyle.Render("dry run")
		}

		b.WriteString(line)
		b.WriteString("\n")
	}

	return b.String()
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
