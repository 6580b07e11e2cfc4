package domain

import (
	"fmt"
	"sort"
	"strings"
)

// EntityToFix is one scanned project together with its remediation advice.
// Workspace gives read/write access to the project's files and is attached
// by whoever loads the entity.
type EntityToFix struct {
	ScanResult ScanResult `json:"scanResult" yaml:"scanResult"`
	TestResult TestResult `json:"testResult" yaml:"testResult"`
	Workspace  Workspace  `json:"-"          yaml:"-"`
}

type ScanResult struct {
	Identity Identity `json:"identity" yaml:"identity"`
}

// Identity names the ecosystem and the manifest file relative to the workspace root.
type Identity struct {
	Type       string `json:"type"       yaml:"type"`
	TargetFile string `json:"targetFile" yaml:"targetFile"`
}

type TestResult struct {
	Remediation *Remediation `json:"remediation,omitempty" yaml:"remediation,omitempty"`
}

// Remediation is the advice computed upstream for one project.
// Upgrade keys and Pin keys have the form "<package>@<currentVersion>".
type Remediation struct {
	Unresolved []string                      `json:"unresolved,omitempty" yaml:"unresolved,omitempty"`
	Upgrade    map[string]UpgradeInstruction `json:"upgrade,omitempty"    yaml:"upgrade,omitempty"`
	Pin        map[string]PinInstruction     `json:"pin,omitempty"        yaml:"pin,omitempty"`
}

type UpgradeInstruction struct {
	UpgradeTo string   `json:"upgradeTo"          yaml:"upgradeTo"`
	Vulns     []string `json:"vulns"              yaml:"vulns"`
	Upgrades  []string `json:"upgrades,omitempty" yaml:"upgrades,omitempty"`
}

type PinInstruction struct {
	UpgradeTo string   `json:"upgradeTo" yaml:"upgradeTo"`
	Vulns     []string `json:"vulns"     yaml:"vulns"`
}

// PackageVersion splits "<package>@<version>" on its last '@'.
func PackageVersion(s string) (pkg, version string) {
	i := strings.LastIndex(s, "@")
	if i < 0 {
		return s, ""
	}
	return s[:i], s[i+1:]
}

// Coordinate identifies a Maven dependency within one document.
type Coordinate struct {
	GroupID    string `json:"groupId"    yaml:"groupId"`
	ArtifactID string `json:"artifactId" yaml:"artifactId"`
}

func (c Coordinate) String() string {
	return c.GroupID + ":" + c.ArtifactID
}

// ParseCoordinate parses "groupId:artifactId".
func ParseCoordinate(s string) (Coordinate, error) {
	group, artifact, ok := strings.Cut(s, ":")
	if !ok || group == "" || artifact == "" || strings.Contains(artifact, ":") {
		return Coordinate{}, fmt.Errorf("invalid coordinate %q (want groupId:artifactId)", s)
	}
	return Coordinate{GroupID: group, ArtifactID: artifact}, nil
}

// ChangeOutcome records a single upgrade attempt. Success outcomes carry
// From/To; failed ones carry Reason and Tip.
type ChangeOutcome struct {
	Success     bool     `json:"success"`
	UserMessage string   `json:"userMessage"`
	IssueIDs    []string `json:"issueIds"`
	From        string   `json:"from,omitempty"`
	To          string   `json:"to,omitempty"`
	Provenance  string   `json:"provenance,omitempty"`
	Reason      string   `json:"reason,omitempty"`
	Tip         string   `json:"tip,omitempty"`
}

type SucceededEntry struct {
	Original EntityToFix     `json:"original"`
	Changes  []ChangeOutcome `json:"changes"`
}

type FailedEntry struct {
	Original EntityToFix `json:"original"`
	Error    string      `json:"error"`
	Tip      string      `json:"tip,omitempty"`
	Err      error       `json:"-"`
}

type SkippedEntry struct {
	Original    EntityToFix `json:"original"`
	UserMessage string      `json:"userMessage"`
}

// PluginResult buckets the projects handled by one ecosystem plugin.
// A project sits in exactly one bucket.
type PluginResult struct {
	Succeeded []SucceededEntry `json:"succeeded"`
	Failed    []FailedEntry    `json:"failed"`
	Skipped   []SkippedEntry   `json:"skipped"`
}

func NewPluginResult() *PluginResult {
	return &PluginResult{
		Succeeded: []SucceededEntry{},
		Failed:    []FailedEntry{},
		Skipped:   []SkippedEntry{},
	}
}

func (r *PluginResult) Merge(other *PluginResult) {
	r.Succeeded = append(r.Succeeded, other.Succeeded...)
	r.Failed = append(r.Failed, other.Failed...)
	r.Skipped = append(r.Skipped, other.Skipped...)
}

// FixException groups entities whose ecosystem has no plugin.
type FixException struct {
	Originals   []EntityToFix `json:"originals"`
	UserMessage string        `json:"userMessage"`
}

// FixReport is the result of one fix run, keyed by plugin name.
type FixReport struct {
	Results    map[string]*PluginResult `json:"results"`
	Exceptions map[string]*FixException `json:"exceptions"`
	DryRun     bool                     `json:"dryRun"`
}

// Counts returns the number of projects in each bucket across all plugins,
// with exceptions counted as failed.
func (r *FixReport) Counts() (succeeded, failed, skipped int) {
	for _, res := range r.Results {
		succeeded += len(res.Succeeded)
		failed += len(res.Failed)
		skipped += len(res.Skipped)
	}
	for _, exc := range r.Exceptions {
		failed += len(exc.Originals)
	}
	return succeeded, failed, skipped
}

// ChangeCounts returns the number of applied and failed upgrades.
func (r *FixReport) ChangeCounts() (applied, failed int) {
	for _, res := range r.Results {
		for _, s := range res.Succeeded {
			for _, c := range s.Changes {
				if c.Success {
					applied++
				} else {
					failed++
				}
			}
		}
	}
	return applied, failed
}

type FixOptions struct {
	DryRun bool `json:"dry_run"`
	Quiet  bool `json:"quiet"`
}

// HistoryEntry summarizes the run for the fix history. Files lists the
// manifests that received at least one upgrade.
func (r *FixReport) HistoryEntry(timestamp, commitHash string) FixEntry {
	succeeded, failed, skipped := r.Counts()
	applied, _ := r.ChangeCounts()
	entry := FixEntry{
		Timestamp:  timestamp,
		CommitHash: commitHash,
		DryRun:     r.DryRun,
		Succeeded:  succeeded,
		Failed:     failed,
		Skipped:    skipped,
		Applied:    applied,
	}
	for _, res := range r.Results {
		for _, s := range res.Succeeded {
			for _, c := range s.Changes {
				if c.Success {
					entry.Files = append(entry.Files, s.Original.ScanResult.Identity.TargetFile)
					break
				}
			}
		}
	}
	sort.Strings(entry.Files)
	return entry
}
