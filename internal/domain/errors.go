package domain

import "fmt"

// DependencyNotFoundError means the coordinate to upgrade is not declared
// in the manifest's dependencies section.
type DependencyNotFoundError struct {
	Upgrade string
}

func (e *DependencyNotFoundError) Error() string {
	return "Could not find dependency " + e.Upgrade
}

// ManifestIOError is a read or write failure at the workspace boundary.
// It aborts the remaining upgrades of the project.
type ManifestIOError struct {
	Op   string
	Path string
	Err  error
}

func (e *ManifestIOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *ManifestIOError) Unwrap() error { return e.Err }

// ExcludedPackageError means configuration forbids upgrading the package.
type ExcludedPackageError struct {
	Package string
}

func (e *ExcludedPackageError) Error() string {
	return fmt.Sprintf("%s is excluded by configuration", e.Package)
}

// DirtyManifestError means the manifest has uncommitted changes and
// require_clean_git is set.
type DirtyManifestError struct {
	Path string
}

func (e *DirtyManifestError) Error() string {
	return fmt.Sprintf("%s has uncommitted changes", e.Path)
}
