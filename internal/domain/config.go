package domain

import "fmt"

// DefaultTip is shown next to every failed upgrade unless configured otherwise.
const DefaultTip = "Apply the changes manually"

// ProjectConfig holds project-level configuration loaded from .vulnfix.yaml.
type ProjectConfig struct {
	Tip             string   `yaml:"tip"               json:"tip,omitempty"`
	Backup          *bool    `yaml:"backup"            json:"backup,omitempty"`
	RequireCleanGit bool     `yaml:"require_clean_git" json:"require_clean_git,omitempty"`
	ExcludePackages []string `yaml:"exclude_packages"  json:"exclude_packages,omitempty"`
}

// DefaultConfig returns a zero-value config: default tip, backups on.
func DefaultConfig() ProjectConfig {
	return ProjectConfig{}
}

// EffectiveTip returns the configured tip, falling back to DefaultTip.
func (c ProjectConfig) EffectiveTip() string {
	if c.Tip != "" {
		return c.Tip
	}
	return DefaultTip
}

// BackupEnabled reports whether manifests are backed up before writing.
func (c ProjectConfig) BackupEnabled() bool {
	return c.Backup == nil || *c.Backup
}

// IsExcluded reports whether pkg ("groupId:artifactId") must not be upgraded.
func (c ProjectConfig) IsExcluded(pkg string) bool {
	for _, p := range c.ExcludePackages {
		if p == pkg {
			return true
		}
	}
	return false
}

// Validate checks the config for invalid values and returns a descriptive error.
func (c ProjectConfig) Validate() error {
	for i, p := range c.ExcludePackages {
		if _, err := ParseCoordinate(p); err != nil {
			return fmt.Errorf("exclude_packages[%d]: %w", i, err)
		}
	}
	return nil
}
