package dashctx

import (
	"strings"

	"golang.org/x/text/language"
)

// CanonicalLocale normalises a locale setting such as "en_US.UTF-8" or
// "pt-pt" into the underscore form dashboards expect ("en_US", "pt_PT").
// Values that do not parse are returned trimmed but otherwise unchanged.
func CanonicalLocale(raw string) string {
	s := strings.TrimSpace(raw)
	if i := strings.IndexAny(s, ".@"); i >= 0 {
		s = s[:i]
	}
	if s == "" {
		return ""
	}

	tag, err := language.Parse(s)
	if err != nil {
		return s
	}
	return strings.ReplaceAll(tag.String(), "-", "_")
}
