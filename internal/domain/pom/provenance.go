package pom

import (
	"regexp"
	"strings"
)

// Provenance says which declaration governs a dependency's effective version.
// Implementations are InlineOnDependency, InlineOnManagedDependency and
// PropertyReference.
type Provenance interface {
	// Target is the dependency the provenance was resolved for. Its Version
	// is the value found at the governing declaration.
	Target() Dependency
	Kind() string
	isProvenance()
}

// InlineOnDependency: the literal sits on the <dependency> itself.
type InlineOnDependency struct {
	Dependency Dependency
}

// InlineOnManagedDependency: the dependency has no version and the literal
// sits on the matching dependencyManagement entry.
type InlineOnManagedDependency struct {
	Dependency Dependency
}

// PropertyReference: the governing version is ${Name}. Managed is set when
// the placeholder was found on the dependencyManagement entry.
type PropertyReference struct {
	Dependency Dependency
	Name       string
	Managed    bool
}

func (p InlineOnDependency) Target() Dependency        { return p.Dependency }
func (p InlineOnManagedDependency) Target() Dependency { return p.Dependency }
func (p PropertyReference) Target() Dependency         { return p.Dependency }

func (InlineOnDependency) Kind() string        { return "InlineOnDependency" }
func (InlineOnManagedDependency) Kind() string { return "InlineOnManagedDependency" }
func (PropertyReference) Kind() string         { return "PropertyReference" }

func (InlineOnDependency) isProvenance()        {}
func (InlineOnManagedDependency) isProvenance() {}
func (PropertyReference) isProvenance()         {}

var (
	placeholderRe  = regexp.MustCompile(`^\$\{[^}]+\}$`)
	propertyNameRe = regexp.MustCompile(`\$\{([^}]+)\}`)
)

// IsPlaceholder reports whether version is exactly one ${name} reference.
func IsPlaceholder(version string) bool {
	return placeholderRe.MatchString(strings.TrimSpace(version))
}

// PropertyName extracts name from "${name}". Strings without a placeholder
// are returned unchanged.
func PropertyName(version string) string {
	m := propertyNameRe.FindStringSubmatch(version)
	if m == nil {
		return version
	}
	return m[1]
}

// ResolveVersion classifies where dep's version is declared in doc: on the
// dependency, else on its dependencyManagement entry, else (no version
// anywhere) on the dependency itself.
func ResolveVersion(dep Dependency, doc *Document) Provenance {
	if dep.Version != "" {
		if IsPlaceholder(dep.Version) {
			return PropertyReference{Dependency: dep, Name: PropertyName(dep.Version)}
		}
		return InlineOnDependency{Dependency: dep}
	}

	if managed, ok := doc.FindManagedDependency(dep.Coordinate); ok && managed.Version != "" {
		resolved := dep
		resolved.Version = managed.Version
		if IsPlaceholder(managed.Version) {
			return PropertyReference{Dependency: resolved, Name: PropertyName(managed.Version), Managed: true}
		}
		return InlineOnManagedDependency{Dependency: resolved}
	}

	return InlineOnDependency{Dependency: dep}
}

// Resolution explains where a dependency's version is declared.
type Resolution struct {
	Dependency Dependency `json:"dependency"`
	Provenance string     `json:"provenance"`
	Property   string     `json:"property,omitempty"`
	Selector   string     `json:"selector"`
	Value      string     `json:"value"`
}

// Explain resolves dep against doc and reports the governing declaration
// with its current value.
func Explain(dep Dependency, doc *Document) (Resolution, error) {
	p := ResolveVersion(dep, doc)
	selector, err := Selector(p)
	if err != nil {
		return Resolution{}, err
	}

	res := Resolution{
		Dependency: dep,
		Provenance: p.Kind(),
		Selector:   selector,
		Value:      p.Target().Version,
	}
	if ref, ok := p.(PropertyReference); ok {
		res.Property = ref.Name
		if ref.Name == ParentVersionProperty {
			res.Value = doc.ParentVersion()
		} else {
			res.Value = doc.Properties()[ref.Name]
		}
	}
	return res, nil
}
