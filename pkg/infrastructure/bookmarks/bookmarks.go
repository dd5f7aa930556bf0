// Package bookmarks turns a Firefox bookmarks export into crawl targets.
package bookmarks

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"sort"

	"github.com/WangYihang/Exposure-Crawler/pkg/config"
	"github.com/WangYihang/Exposure-Crawler/pkg/domain/entity"
	mapset "github.com/deckarep/golang-set/v2"
	"gopkg.in/yaml.v3"
)

// node is one entry of the bookmarks tree. Folders carry children, leaves
// carry an uri.
type node struct {
	URI      string `yaml:"uri"`
	Children []node `yaml:"children"`
}

// Parse reads a bookmarks export. JSON is valid YAML, so the YAML decoder
// reads it directly.
func Parse(r io.Reader) ([]string, error) {
	var root node
	if err := yaml.NewDecoder(r).Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to parse bookmarks: %w", err)
	}

	sites := mapset.NewThreadUnsafeSet[string]()
	collect(root, sites)

	result := sites.ToSlice()
	sort.Strings(result)
	return result, nil
}

func collect(n node, sites mapset.Set[string]) {
	if n.URI != "" {
		if site, ok := SiteOf(n.URI); ok {
			sites.Add(site)
		}
		return
	}
	for _, child := range n.Children {
		collect(child, sites)
	}
}

// SiteOf reduces a bookmarked URL to its site root, scheme://host[:port]/.
// URLs without an http(s) domain are rejected.
func SiteOf(raw string) (string, bool) {
	if _, err := entity.ExtractDomain(raw); err != nil {
		return "", false
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", false
	}
	return u.Scheme + "://" + u.Host + "/", true
}

// Write dumps sites as a targets document
func Write(w io.Writer, sites []string) error {
	if _, err := io.WriteString(w, "---\n"); err != nil {
		return err
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(config.Targets{Sites: sites}); err != nil {
		return fmt.Errorf("failed to encode sites: %w", err)
	}
	return encoder.Close()
}
