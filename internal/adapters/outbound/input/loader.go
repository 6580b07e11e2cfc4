package input

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vulnfix/vulnfix/internal/domain"
)

// document is the on-disk shape: either a bare list of projects or an
// object with a "projects" key.
type document struct {
	Projects []domain.EntityToFix `json:"projects" yaml:"projects"`
}

// Loader reads the projects to fix from a JSON or YAML file.
type Loader struct{}

func New() *Loader { return &Loader{} }

// Load decodes path and attaches ws to every entity. Files ending in .json
// are decoded as JSON, everything else as YAML.
func (l *Loader) Load(path string, ws domain.Workspace) ([]domain.EntityToFix, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	entities, err := decode(data, strings.EqualFold(filepath.Ext(path), ".json"))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}

	for i := range entities {
		entities[i].Workspace = ws
	}
	return entities, nil
}

func decode(data []byte, isJSON bool) ([]domain.EntityToFix, error) {
	unmarshal := yaml.Unmarshal
	if isJSON {
		unmarshal = json.Unmarshal
	}

	var list []domain.EntityToFix
	if err := unmarshal(data, &list); err == nil {
		return list, nil
	}

	var doc document
	if err := unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Projects == nil {
		return nil, fmt.Errorf("no projects found")
	}
	return doc.Projects, nil
}
