// Package legacypath splits a repository path into the deprecated
// solution/path/file triplet older dashboards expect.
package legacypath

import (
	"path"
	"strings"
)

const separator = "/"

// Parts is the legacy decomposition of a repository path
type Parts struct {
	Solution string
	Path     string
	File     string
}

// HasFile reports whether the decomposed path pointed at a file
func (p Parts) HasFile() bool {
	return p.File != ""
}

// Join rebuilds a repository path from the parts
func (p Parts) Join() string {
	var segs []string
	for _, s := range []string{p.Solution, p.Path, p.File} {
		if s != "" {
			segs = append(segs, s)
		}
	}
	return strings.Join(segs, separator)
}

// Decompose splits p. Removal of the file name and of the solution segment
// is literal: every occurrence of that text in the working path is removed,
// not only the leading or trailing one.
func Decompose(p string) Parts {
	var parts Parts

	p = strings.TrimPrefix(p, separator)

	if name := baseName(p); extension(name) != "" {
		parts.File = name
		p = strings.ReplaceAll(p, name, "")
	}

	p = normalize(p)

	segs := split(p)
	switch len(segs) {
	case 0:
	case 1:
		parts.Solution = segs[0]
	default:
		parts.Solution = segs[0]
		p = strings.ReplaceAll(p, baseName(segs[0]), "")
		parts.Path = strings.Replace(p, separator, "", 1)
	}
	return parts
}

func baseName(p string) string {
	if i := strings.LastIndex(p, separator); i >= 0 {
		return p[i+1:]
	}
	return p
}

func extension(name string) string {
	i := strings.LastIndex(name, ".")
	if i < 0 {
		return ""
	}
	return name[i+1:]
}

// normalize collapses duplicate separators, resolves dot segments and drops
// the trailing separator
func normalize(p string) string {
	if p == "" {
		return ""
	}
	clean := path.Clean(p)
	if clean == "." {
		return ""
	}
	return clean
}

// split splits on the separator and drops trailing empty pieces
func split(p string) []string {
	if p == "" {
		return []string{""}
	}
	segs := strings.Split(p, separator)
	for len(segs) > 0 && segs[len(segs)-1] == "" {
		segs = segs[:len(segs)-1]
	}
	return segs
}
