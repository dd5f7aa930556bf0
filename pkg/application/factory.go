package application

import (
	"errors"
	"fmt"
	"strings"

	"github.com/WangYihang/Exposure-Crawler/pkg/domain/entity"
	"github.com/WangYihang/Exposure-Crawler/pkg/domain/repository"
	"github.com/WangYihang/Exposure-Crawler/pkg/domain/service"
	mapset "github.com/deckarep/golang-set/v2"
)

// ErrInvalidSite is returned for a site that is not an http(s) URL with a domain
var ErrInvalidSite = errors.New("invalid site")

// TaskFactory expands sites and patterns into probe tasks
type TaskFactory struct {
	expander service.PatternExpander
	store    repository.ResultStore
}

// NewTaskFactory creates a task factory seeding domains into store
func NewTaskFactory(expander service.PatternExpander, store repository.ResultStore) *TaskFactory {
	return &TaskFactory{
		expander: expander,
		store:    store,
	}
}

// site is a normalized site with its extracted domain
type site struct {
	url    string
	domain string
}

// Build returns one Get task per site and file pattern and one HostSpoof
// task per site and host pattern. Domains are seeded only once every task
// has been built, so an invalid site or pattern leaves the store untouched.
func (f *TaskFactory) Build(sites, filePatterns, hostPatterns []string) ([]*entity.Task, error) {
	uniqueSites, err := f.normalizeSites(sites)
	if err != nil {
		return nil, err
	}

	files := unique(filePatterns)
	hosts := unique(hostPatterns)

	seen := mapset.NewThreadUnsafeSet[string]()
	tasks := make([]*entity.Task, 0, len(uniqueSites)*(len(files)+len(hosts)))
	add := func(task *entity.Task) {
		if seen.Add(task.String()) {
			tasks = append(tasks, task)
		}
	}

	for _, s := range uniqueSites {
		for _, pattern := range files {
			task, err := entity.NewGetTask(s.url + f.expander.Expand(pattern, s.domain))
			if err != nil {
				return nil, fmt.Errorf("%w: %s with pattern %q: %v", ErrInvalidSite, s.url, pattern, err)
			}
			add(task)
		}

		for _, pattern := range hosts {
			task, err := entity.NewHostSpoofTask(s.url, f.expander.Expand(pattern, s.domain))
			if err != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrInvalidSite, s.url, err)
			}
			add(task)
		}
	}

	for _, s := range uniqueSites {
		f.store.Seed(s.domain)
	}

	return tasks, nil
}

// normalizeSites makes every site end with a slash, drops duplicates and
// extracts the domains
func (f *TaskFactory) normalizeSites(sites []string) ([]site, error) {
	seen := mapset.NewThreadUnsafeSet[string]()
	normalized := make([]site, 0, len(sites))

	for _, raw := range sites {
		url := strings.TrimSpace(raw)
		if !strings.HasSuffix(url, "/") {
			url += "/"
		}
		if !seen.Add(url) {
			continue
		}

		domain, err := entity.ExtractDomain(url)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidSite, raw)
		}
		normalized = append(normalized, site{url: url, domain: domain})
	}

	return normalized, nil
}

// unique drops duplicates and keeps the first occurrence order
func unique(values []string) []string {
	seen := mapset.NewThreadUnsafeSet[string]()
	result := make([]string, 0, len(values))
	for _, value := range values {
		if seen.Add(value) {
			result = append(result, value)
		}
	}
	return result
}
