package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"gopkg.in/yaml.v3"

	"github.com/vulnfix/vulnfix/internal/domain"
)

const fileName = ".vulnfix.yaml"

// Loader reads the project configuration from .vulnfix.yaml at the root of
// a billy filesystem.
type Loader struct {
	fs billy.Filesystem
}

func New(fs billy.Filesystem) *Loader { return &Loader{fs: fs} }

// Load returns DefaultConfig when .vulnfix.yaml is missing or empty.
// Unknown keys are rejected. Excluded packages are trimmed, checked as
// groupId:artifactId and deduplicated.
func (l *Loader) Load() (domain.ProjectConfig, error) {
	data, err := util.ReadFile(l.fs, fileName)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.DefaultConfig(), nil
		}
		return domain.ProjectConfig{}, err
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var cfg domain.ProjectConfig
	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.DefaultConfig(), nil
		}
		return domain.ProjectConfig{}, fmt.Errorf("parsing %s: %w", fileName, err)
	}

	excluded, err := normalizeExcluded(cfg.ExcludePackages)
	if err != nil {
		return domain.ProjectConfig{}, fmt.Errorf("invalid %s: %w", fileName, err)
	}
	cfg.ExcludePackages = excluded
	cfg.Tip = strings.TrimSpace(cfg.Tip)

	if err := cfg.Validate(); err != nil {
		return domain.ProjectConfig{}, fmt.Errorf("invalid %s: %w", fileName, err)
	}
	return cfg, nil
}

func normalizeExcluded(pkgs []string) ([]string, error) {
	if len(pkgs) == 0 {
		return nil, nil
	}
	out := make([]string, 0, len(pkgs))
	seen := make(map[string]bool, len(pkgs))
	for i, p := range pkgs {
		c, err := domain.ParseCoordinate(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("exclude_packages[%d]: %w", i, err)
		}
		key := c.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, key)
	}
	return out, nil
}
