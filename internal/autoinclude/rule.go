// Package autoinclude surfaces data-access descriptors on dashboards whose
// path matches rules declared in the context configuration.
package autoinclude

import (
	"path"
	"regexp"
	"strings"

	"github.com/promptconduit/dashctx/internal/contextcfg"
	"github.com/promptconduit/dashctx/internal/repository"
)

// Rule maps dashboard path patterns to one data-access descriptor
type Rule struct {
	DescriptorPath string
	includes       []*regexp.Regexp
	excludes       []*regexp.Regexp
}

// NewRule compiles include and exclude patterns for descriptor
func NewRule(descriptor string, includes, excludes []string) Rule {
	return Rule{
		DescriptorPath: descriptor,
		includes:       compileAll(includes),
		excludes:       compileAll(excludes),
	}
}

// CanInclude reports whether the dashboard at dashboardPath gets this rule's
// descriptor. Excludes win over includes.
func (r Rule) CanInclude(dashboardPath string) bool {
	p := strings.TrimPrefix(dashboardPath, "/")

	matched := false
	for _, re := range r.includes {
		if re.MatchString(p) {
			matched = true
			break
		}
	}
	if !matched {
		return false
	}

	for _, re := range r.excludes {
		if re.MatchString(p) {
			return false
		}
	}
	return true
}

// Build derives the rule list from the configuration. A cda value holding
// glob characters is expanded against the files of the includes directory,
// one rule per match.
func Build(doc *contextcfg.Document, includes repository.Reader, includesDir string) []Rule {
	if doc == nil {
		return nil
	}

	var listing []string
	listed := false

	var rules []Rule
	for _, decl := range doc.AutoIncludes {
		if decl.CDA == "" {
			continue
		}
		cda := strings.TrimPrefix(decl.CDA, "/")

		if !hasMeta(cda) {
			rules = append(rules, NewRule(path.Join(includesDir, cda), decl.Includes, decl.Excludes))
			continue
		}

		if !listed {
			listed = true
			if files, err := includes.List(includesDir); err == nil {
				listing = files
			}
		}

		re := compile(cda)
		for _, f := range listing {
			if re.MatchString(f) {
				rules = append(rules, NewRule(path.Join(includesDir, f), decl.Includes, decl.Excludes))
			}
		}
	}
	return rules
}

func hasMeta(p string) bool {
	return strings.ContainsAny(p, "*?")
}

func compileAll(patterns []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, compile(strings.TrimPrefix(p, "/")))
	}
	return out
}

// compile turns a path glob into an anchored regexp: ** crosses separators,
// * and ? stay inside one segment
func compile(pattern string) *regexp.Regexp {
	var b strings.Builder
	b.WriteString("^")
	runes := []rune(pattern)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		switch c {
		case '*':
			if i+1 < len(runes) && runes[i+1] == '*' {
				i++
				// "**/" also matches zero directories
				if i+1 < len(runes) && runes[i+1] == '/' {
					i++
					b.WriteString("(?:.*/)?")
				} else {
					b.WriteString(".*")
				}
			} else {
				b.WriteString("[^/]*")
			}
		case '?':
			b.WriteString("[^/]")
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
		}
	}
	b.WriteString("$")
	return regexp.MustCompile(b.String())
}
