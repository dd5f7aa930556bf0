package domainservice

import (
	"fmt"
	"strings"
)

// CommonSubdomains is a predefined list of virtual host prefixes that are
// often routed to internal applications
var CommonSubdomains = []string{
	// Administration
	"admin", "administrator", "backend", "cms", "cpanel", "manage",
	"panel", "console", "dashboard", "portal",

	// Pre-production
	"dev", "develop", "test", "qa", "uat", "stage", "staging",
	"preprod", "beta", "demo", "sandbox",

	// Internal tooling
	"intranet", "internal", "corp", "git", "gitlab", "jenkins", "ci",
	"jira", "confluence", "grafana", "kibana", "prometheus",

	// Infrastructure
	"localhost", "origin", "proxy", "gateway", "vpn", "backup",
	"db", "phpmyadmin", "status", "monitor",
}

// CommonHostPatterns turns the common prefixes plus custom ones into host
// name patterns under the root domain, e.g. "admin.{root}"
func CommonHostPatterns(customPrefixes []string) []string {
	prefixes := make([]string, 0, len(CommonSubdomains)+len(customPrefixes))
	prefixes = append(prefixes, CommonSubdomains...)
	prefixes = append(prefixes, customPrefixes...)

	// Deduplicate
	seen := make(map[string]bool)
	patterns := make([]string, 0, len(prefixes))
	for _, prefix := range prefixes {
		prefix = strings.ToLower(strings.TrimSpace(prefix))
		if prefix != "" && !seen[prefix] {
			seen[prefix] = true
			patterns = append(patterns, fmt.Sprintf("%s.{root}", prefix))
		}
	}

	return patterns
}
