package scenario

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/gobwas/glob"
)

// compile builds the predicate for p in place. Returns an error describing
// the field path on failure (bad regex, bad glob, unknown kind).
func (p *Pattern) compile(fieldPath string) error {
	switch p.Kind {
	case PatternAny:
		p.predicate = func(string) bool { return true }
	case PatternExact:
		want := strings.TrimSuffix(p.Value, "\n")
		p.predicate = func(s string) bool {
			return strings.TrimSuffix(s, "\n") == want
		}
	case PatternContains:
		want := p.Value
		p.predicate = func(s string) bool {
			return strings.Contains(s, want)
		}
	case PatternRegex:
		re, err := regexp.Compile(p.Value)
		if err != nil {
			return &LoadError{Kind: ErrInvalidPattern, Field: fieldPath, Reason: fmt.Sprintf("invalid regex: %v", err)}
		}
		p.predicate = re.MatchString
	case PatternGlob:
		g, err := glob.Compile(p.Value)
		if err != nil {
			return &LoadError{Kind: ErrInvalidPattern, Field: fieldPath, Reason: fmt.Sprintf("invalid glob: %v", err)}
		}
		p.predicate = g.Match
	default:
		return &LoadError{Kind: ErrInvalidPattern, Field: fieldPath, Reason: fmt.Sprintf("unknown pattern kind %q", p.Kind)}
	}
	return nil
}
