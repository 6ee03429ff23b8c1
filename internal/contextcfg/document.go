// Package contextcfg loads the dashboard context configuration
// (dashboardContext.xml) from the plugin repository.
package contextcfg

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// SessionAttribute is one <sessionattributes>/<attribute> declaration
type SessionAttribute struct {
	Name *string `xml:"name,attr"`
	Text string  `xml:",chardata"`
}

// Key returns the name attribute, or the element text when it is absent
func (a SessionAttribute) Key() string {
	if a.Name != nil {
		return *a.Name
	}
	return strings.TrimSpace(a.Text)
}

// AutoIncludeDecl is one <autoincludes>/<autoinclude> declaration
type AutoIncludeDecl struct {
	CDA      string   `xml:"cda"`
	Includes []string `xml:"dashboards>include"`
	Excludes []string `xml:"dashboards>exclude"`
}

// Document is a parsed context configuration
type Document struct {
	SessionAttributes []SessionAttribute
	AutoIncludes      []AutoIncludeDecl
}

// Empty returns a document with no declarations
func Empty() *Document {
	return &Document{}
}

// Parse reads a configuration document. Declarations are collected wherever
// they appear in the tree, as long as their parent element matches.
func Parse(r io.Reader) (*Document, error) {
	doc := &Document{}
	dec := xml.NewDecoder(r)

	var stack []string
	sawRoot := false
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse context configuration: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			sawRoot = true
			parent := ""
			if len(stack) > 0 {
				parent = stack[len(stack)-1]
			}

			switch {
			case t.Name.Local == "attribute" && parent == "sessionattributes":
				var attr SessionAttribute
				if err := dec.DecodeElement(&attr, &t); err != nil {
					return nil, fmt.Errorf("failed to parse session attribute: %w", err)
				}
				doc.SessionAttributes = append(doc.SessionAttributes, attr)
			case t.Name.Local == "autoinclude" && parent == "autoincludes":
				var decl AutoIncludeDecl
				if err := dec.DecodeElement(&decl, &t); err != nil {
					return nil, fmt.Errorf("failed to parse auto-include: %w", err)
				}
				decl.CDA = strings.TrimSpace(decl.CDA)
				decl.Includes = trimAll(decl.Includes)
				decl.Excludes = trimAll(decl.Excludes)
				doc.AutoIncludes = append(doc.AutoIncludes, decl)
			default:
				stack = append(stack, t.Name.Local)
			}
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}

	if !sawRoot {
		return nil, fmt.Errorf("failed to parse context configuration: no root element")
	}
	return doc, nil
}

func trimAll(values []string) []string {
	out := values[:0]
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
