package pom

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/antchfx/xmlquery"
)

// ParentVersionProperty is the reserved property name for <parent><version>.
const ParentVersionProperty = "project.parent.version"

// PatchSelectorError means a selector did not match exactly one element.
type PatchSelectorError struct {
	Selector string
	Matches  int
}

func (e *PatchSelectorError) Error() string {
	return fmt.Sprintf("selector %s matched %d elements, expected exactly one", e.Selector, e.Matches)
}

// UnsupportedProvenanceError means no rewrite exists for a provenance case.
type UnsupportedProvenanceError struct {
	Provenance Provenance
}

func (e *UnsupportedProvenanceError) Error() string {
	return fmt.Sprintf("unsupported version provenance %T", e.Provenance)
}

// ApplyVersionPatch returns text with the version literal governed by p
// replaced by newVersion. Every other byte of text is preserved.
func ApplyVersionPatch(text string, p Provenance, newVersion string) (string, error) {
	selector, err := Selector(p)
	if err != nil {
		return "", err
	}
	return SetValue(text, selector, newVersion)
}

// Selector returns the XPath of the element holding the literal for p.
// Paths are relative to a bare <project> root.
func Selector(p Provenance) (string, error) {
	switch v := p.(type) {
	case InlineOnDependency:
		return dependencySelector("/project/dependencies/dependency", v.Dependency) + "/version", nil
	case InlineOnManagedDependency:
		return dependencySelector("/project/dependencyManagement/dependencies/dependency", v.Dependency) + "/version", nil
	case PropertyReference:
		if v.Name == ParentVersionProperty {
			return "/project/parent/version", nil
		}
		return "/project/properties/*[local-name()=" + literal(v.Name) + "]", nil
	default:
		return "", &UnsupportedProvenanceError{Provenance: p}
	}
}

func dependencySelector(base string, dep Dependency) string {
	return fmt.Sprintf("%s[normalize-space(groupId)=%s and normalize-space(artifactId)=%s]",
		base, literal(dep.GroupID), literal(dep.ArtifactID))
}

// literal quotes s as an XPath string literal.
func literal(s string) string {
	switch {
	case !strings.Contains(s, "'"):
		return "'" + s + "'"
	case !strings.Contains(s, `"`):
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	for i, part := range parts {
		parts[i] = "'" + part + "'"
	}
	return "concat(" + strings.Join(parts, `, "'", `) + ")"
}

// SetValue replaces the text content of the single element matched by
// selector. Surrounding whitespace inside the element is kept.
func SetValue(text, selector, value string) (string, error) {
	doc, err := Parse(text)
	if err != nil {
		return "", err
	}

	nodes, err := xmlquery.QueryAll(doc.tree, selector)
	if err != nil {
		return "", fmt.Errorf("invalid selector %s: %w", selector, err)
	}
	if len(nodes) != 1 {
		return "", &PatchSelectorError{Selector: selector, Matches: len(nodes)}
	}

	ordinal := elementOrdinal(doc.tree, nodes[0])
	if ordinal < 0 {
		return "", fmt.Errorf("selector %s matched a non-element node", selector)
	}

	start, end, err := contentSpan(doc.view, ordinal, nodes[0].Data)
	if err != nil {
		return "", err
	}
	if start < doc.rootOffset+len(doc.placeholder) {
		return "", fmt.Errorf("selector %s matched outside the root element", selector)
	}

	view := doc.view[:start] + escaper.Replace(value) + doc.view[end:]
	return doc.restore(view), nil
}

// restore swaps the original root opening tag back in at the same offset.
func (d *Document) restore(view string) string {
	return view[:d.rootOffset] + d.rootTag + view[d.rootOffset+len(d.placeholder):]
}

var escaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// elementOrdinal returns the position of target among all element nodes of
// tree in document order, or -1.
func elementOrdinal(tree, target *xmlquery.Node) int {
	ordinal := -1
	found := false
	var walk func(n *xmlquery.Node)
	walk = func(n *xmlquery.Node) {
		for c := n.FirstChild; c != nil && !found; c = c.NextSibling {
			if c.Type != xmlquery.ElementNode {
				continue
			}
			ordinal++
			if c == target {
				found = true
				return
			}
			walk(c)
		}
	}
	walk(tree)
	if !found {
		return -1
	}
	return ordinal
}

// contentSpan finds the element with the given ordinal in text and returns
// the byte span of its trimmed text content.
func contentSpan(text string, ordinal int, name string) (int, int, error) {
	dec := newDecoder(text)
	count := -1
	start := -1
	for {
		before := int(dec.InputOffset())
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return 0, 0, fmt.Errorf("element <%s> not found in document", name)
		}
		if err != nil {
			return 0, 0, &ParseError{Err: err}
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if start >= 0 {
				return 0, 0, fmt.Errorf("element <%s> has nested elements", name)
			}
			count++
			if count != ordinal {
				continue
			}
			if t.Name.Local != name {
				return 0, 0, fmt.Errorf("element %d is <%s>, want <%s>", ordinal, t.Name.Local, name)
			}
			start = int(dec.InputOffset())
			if strings.HasSuffix(text[:start], "/>") {
				return 0, 0, fmt.Errorf("element <%s> is empty", name)
			}
		case xml.EndElement:
			if start >= 0 {
				return trimSpan(text, start, before)
			}
		case xml.CharData:
		default:
			if start >= 0 {
				return 0, 0, fmt.Errorf("element <%s> has non-text content", name)
			}
		}
	}
}

func trimSpan(text string, start, end int) (int, int, error) {
	raw := text[start:end]
	lead := len(raw) - len(strings.TrimLeft(raw, " \t\r\n"))
	trail := len(raw) - len(strings.TrimRight(raw, " \t\r\n"))
	from, to := start+lead, end-trail
	if to < from {
		to = from
	}
	return from, to, nil
}
