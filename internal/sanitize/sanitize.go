// Package sanitize cleans the rich-text body of a list before it is stored.
package sanitize

import (
	"github.com/microcosm-cc/bluemonday"
)

// AllowedTags is the complete set of elements kept in list bodies.
var AllowedTags = []string{"b", "i", "ol", "ul", "li", "a", "br"}

// Sanitizer strips every tag outside AllowedTags and every attribute except
// href on links. Disallowed markup is removed, never escaped and kept.
type Sanitizer struct {
	policy *bluemonday.Policy
}

func New() *Sanitizer {
	p := bluemonday.NewPolicy()
	p.AllowElements(AllowedTags...)
	p.AllowAttrs("href").OnElements("a")
	p.AllowStandardURLs()
	return &Sanitizer{policy: p}
}

// HTML returns the cleaned markup. Sanitizing its own output is a no-op.
func (s *Sanitizer) HTML(raw string) string {
	return s.policy.Sanitize(raw)
}
