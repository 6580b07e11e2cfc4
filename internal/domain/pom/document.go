// Package pom locates and rewrites dependency versions in Maven POM files.
//
// A Document pairs the original text with a parsed, namespace-free view of
// it. The view is only ever queried; rewrites are applied to the original
// text so formatting, comments and namespace declarations survive untouched.
package pom

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/vulnfix/vulnfix/internal/domain"
)

const rootName = "project"

// Dependency is a <dependency> entry. An empty Version means the entry
// declares none.
type Dependency struct {
	domain.Coordinate
	Version string `json:"version,omitempty" yaml:"version,omitempty"`
}

// ParseError means the manifest is not well-formed enough to index.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing pom.xml: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Document is an indexed POM.
type Document struct {
	text        string
	rootTag     string
	rootOffset  int
	placeholder string
	view        string
	tree        *xmlquery.Node
}

// Parse indexes text. The root <project> opening tag, with whatever
// namespace and schema attributes it carries, is kept verbatim and replaced
// in the queried view by a tag that only keeps the xmlns:prefix
// declarations, so unprefixed paths match and prefixed elements still parse.
func Parse(text string) (*Document, error) {
	offset, tag, prefixes, err := locateRoot(text)
	if err != nil {
		return nil, &ParseError{Err: err}
	}

	placeholder := "<" + rootName + prefixes + ">"
	if strings.HasSuffix(tag, "/>") {
		placeholder = "<" + rootName + prefixes + "/>"
	}
	view := text[:offset] + placeholder + text[offset+len(tag):]

	tree, err := xmlquery.Parse(strings.NewReader(view))
	if err != nil {
		return nil, &ParseError{Err: err}
	}

	return &Document{
		text:        text,
		rootTag:     tag,
		rootOffset:  offset,
		placeholder: placeholder,
		view:        view,
		tree:        tree,
	}, nil
}

// Text returns the original document text.
func (d *Document) Text() string { return d.text }

// RootTag returns the exact original root opening tag.
func (d *Document) RootTag() string { return d.rootTag }

// RootOffset returns the byte offset of the root opening tag in Text.
func (d *Document) RootOffset() int { return d.rootOffset }

// Dependencies returns the entries of /project/dependencies.
func (d *Document) Dependencies() []Dependency {
	return d.dependenciesAt("/project/dependencies/dependency")
}

// ManagedDependencies returns the entries of /project/dependencyManagement/dependencies.
func (d *Document) ManagedDependencies() []Dependency {
	return d.dependenciesAt("/project/dependencyManagement/dependencies/dependency")
}

// FindDependency returns the first declared dependency matching c.
func (d *Document) FindDependency(c domain.Coordinate) (Dependency, bool) {
	return find(d.Dependencies(), c)
}

// FindManagedDependency returns the first managed dependency matching c.
func (d *Document) FindManagedDependency(c domain.Coordinate) (Dependency, bool) {
	return find(d.ManagedDependencies(), c)
}

// Properties returns the entries of /project/properties keyed by element name.
func (d *Document) Properties() map[string]string {
	props := map[string]string{}
	section := xmlquery.FindOne(d.tree, "/project/properties")
	if section == nil {
		return props
	}
	for n := section.FirstChild; n != nil; n = n.NextSibling {
		if n.Type != xmlquery.ElementNode {
			continue
		}
		props[n.Data] = strings.TrimSpace(n.InnerText())
	}
	return props
}

// ParentVersion returns /project/parent/version, or "" when absent.
func (d *Document) ParentVersion() string {
	n := xmlquery.FindOne(d.tree, "/project/parent/version")
	if n == nil {
		return ""
	}
	return strings.TrimSpace(n.InnerText())
}

func (d *Document) dependenciesAt(expr string) []Dependency {
	nodes := xmlquery.Find(d.tree, expr)
	deps := make([]Dependency, 0, len(nodes))
	for _, n := range nodes {
		if n == nil {
			continue
		}
		deps = append(deps, Dependency{
			Coordinate: domain.Coordinate{
				GroupID:    childText(n, "groupId"),
				ArtifactID: childText(n, "artifactId"),
			},
			Version: childText(n, "version"),
		})
	}
	return deps
}

func find(deps []Dependency, c domain.Coordinate) (Dependency, bool) {
	for _, dep := range deps {
		if dep.Coordinate == c {
			return dep, true
		}
	}
	return Dependency{}, false
}

func childText(n *xmlquery.Node, name string) string {
	child := n.SelectElement(name)
	if child == nil {
		return ""
	}
	return strings.TrimSpace(child.InnerText())
}

// locateRoot returns the offset and exact text of the document's first
// start tag, which must be <project>, and its xmlns:prefix declarations
// rendered as attributes.
func locateRoot(text string) (int, string, string, error) {
	dec := newDecoder(text)
	for {
		before := int(dec.InputOffset())
		tok, err := dec.RawToken()
		if errors.Is(err, io.EOF) {
			return 0, "", "", fmt.Errorf("no root element")
		}
		if err != nil {
			return 0, "", "", err
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if start.Name.Local != rootName {
			return 0, "", "", fmt.Errorf("root element is <%s>, want <%s>", start.Name.Local, rootName)
		}
		return before, text[before:dec.InputOffset()], prefixDecls(start.Attr), nil
	}
}

func prefixDecls(attrs []xml.Attr) string {
	var b strings.Builder
	for _, a := range attrs {
		if a.Name.Space != "xmlns" {
			continue
		}
		fmt.Fprintf(&b, ` xmlns:%s="%s"`, a.Name.Local, attrEscaper.Replace(a.Value))
	}
	return b.String()
}

var attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", `"`, "&quot;")

// newDecoder returns a decoder whose offsets are byte offsets into text.
// When the declaration names an encoding other than UTF-8, bytes >= 0x80
// are masked to '?' so the walk sees valid UTF-8 at identical offsets.
func newDecoder(text string) *xml.Decoder {
	if !isUTF8(declaredEncoding(text)) {
		text = maskHighBytes(text)
	}
	dec := xml.NewDecoder(strings.NewReader(text))
	dec.CharsetReader = func(_ string, input io.Reader) (io.Reader, error) {
		return input, nil
	}
	return dec
}

var encodingRe = regexp.MustCompile(`^\s*<\?xml[^>]*?\sencoding\s*=\s*["']([^"']+)["']`)

// declaredEncoding returns the encoding named by the XML declaration, or "".
func declaredEncoding(text string) string {
	m := encodingRe.FindStringSubmatch(strings.TrimPrefix(text, "\ufeff"))
	if m == nil {
		return ""
	}
	return m[1]
}

func isUTF8(encoding string) bool {
	switch strings.ToLower(encoding) {
	case "", "utf-8", "utf8":
		return true
	}
	return false
}

func maskHighBytes(text string) string {
	b := []byte(text)
	for i, c := range b {
		if c >= 0x80 {
			b[i] = '?'
		}
	}
	return string(b)
}
