package domainservice

import (
	"strings"

	"github.com/WangYihang/Exposure-Crawler/pkg/domain/service"
	"golang.org/x/net/publicsuffix"
)

// Expander implements service.PatternExpander
type Expander struct{}

// NewExpander creates a new pattern expander
func NewExpander() service.PatternExpander {
	return &Expander{}
}

// GetRoot extracts the root domain (eTLD+1)
func (e *Expander) GetRoot(domain string) (string, error) {
	domain = strings.ToLower(strings.TrimSpace(domain))
	return publicsuffix.EffectiveTLDPlusOne(domain)
}

// Expand replaces {domain} and {root} in pattern. Doubled braces render a
// literal brace and unknown placeholders are kept verbatim.
func (e *Expander) Expand(pattern, domain string) string {
	if !strings.ContainsAny(pattern, "{}") {
		return pattern
	}

	values := map[string]string{"domain": domain}
	if root, err := e.GetRoot(domain); err == nil {
		values["root"] = root
	} else {
		values["root"] = domain
	}

	var buf strings.Builder
	for i := 0; i < len(pattern); i++ {
		ch := pattern[i]
		switch {
		case ch == '{' && i+1 < len(pattern) && pattern[i+1] == '{':
			buf.WriteByte('{')
			i++
		case ch == '}' && i+1 < len(pattern) && pattern[i+1] == '}':
			buf.WriteByte('}')
			i++
		case ch == '{':
			end := strings.IndexByte(pattern[i:], '}')
			if end < 0 {
				buf.WriteString(pattern[i:])
				return buf.String()
			}
			name := pattern[i+1 : i+end]
			if value, ok := values[name]; ok {
				buf.WriteString(value)
			} else {
				buf.WriteString(pattern[i : i+end+1])
			}
			i += end
		default:
			buf.WriteByte(ch)
		}
	}
	return buf.String()
}
