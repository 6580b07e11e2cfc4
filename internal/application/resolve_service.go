package application

import (
	"github.com/vulnfix/vulnfix/internal/domain"
	"github.com/vulnfix/vulnfix/internal/domain/pom"
)

// ResolveService answers provenance queries against a manifest.
type ResolveService struct {
	workspace domain.Workspace
}

func NewResolveService(ws domain.Workspace) *ResolveService {
	return &ResolveService{workspace: ws}
}

// Resolve reports the provenance of coordinate in targetFile.
func (s *ResolveService) Resolve(targetFile, coordinate string) (*pom.Resolution, error) {
	coord, err := domain.ParseCoordinate(coordinate)
	if err != nil {
		return nil, err
	}

	text, err := s.workspace.ReadFile(targetFile)
	if err != nil {
		return nil, &domain.ManifestIOError{Op: "read", Path: targetFile, Err: err}
	}

	doc, err := pom.Parse(text)
	if err != nil {
		return nil, err
	}

	dep, ok := doc.FindDependency(coord)
	if !ok {
		return nil, &domain.DependencyNotFoundError{Upgrade: coordinate}
	}

	res, err := pom.Explain(dep, doc)
	if err != nil {
		return nil, err
	}
	return &res, nil
}
