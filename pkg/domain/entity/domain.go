package entity

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrNoDomain is returned when a URL does not carry a recognisable domain
var ErrNoDomain = errors.New("url does not match http(s)://domain[/path]")

// domainRegex matches http(s) URLs and captures the domain part. Labels are
// Unicode letters, digits and underscores so IDN hosts are kept as written.
// A port is accepted but is not part of the domain.
var domainRegex = regexp.MustCompile(`^https?://(?P<domain>(?:[\p{L}\p{N}_][\p{L}\p{N}_-]*\.)+[\p{L}\p{N}_]+)(?::\d+)?(?:[/?#].*)?$`)

// ExtractDomain returns the domain of an http(s) URL
func ExtractDomain(url string) (string, error) {
	matches := domainRegex.FindStringSubmatch(url)
	if matches == nil {
		return "", fmt.Errorf("%w: %q", ErrNoDomain, url)
	}
	return matches[domainRegex.SubexpIndex("domain")], nil
}
