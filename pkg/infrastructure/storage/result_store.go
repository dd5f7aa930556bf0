package storage

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/WangYihang/Exposure-Crawler/pkg/domain/repository"
)

// ErrUnknownDomain is returned when a finding targets a domain that was never seeded
var ErrUnknownDomain = errors.New("domain was not seeded")

// ResultStore implements repository.ResultStore
type ResultStore struct {
	findings map[string][]string
	mu       sync.RWMutex
}

// NewResultStore creates an empty result store
func NewResultStore() repository.ResultStore {
	return &ResultStore{
		findings: make(map[string][]string),
	}
}

// Seed registers a domain with an empty finding list. Seeding twice keeps
// the findings already recorded.
func (s *ResultStore) Seed(domain string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.findings[domain]; !ok {
		s.findings[domain] = []string{}
	}
}

// Add appends a finding to a seeded domain
func (s *ResultStore) Add(domain, finding string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, ok := s.findings[domain]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownDomain, domain)
	}
	s.findings[domain] = append(list, finding)
	return nil
}

// Snapshot returns a deep copy of all findings
func (s *ResultStore) Snapshot() map[string][]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := make(map[string][]string, len(s.findings))
	for domain, list := range s.findings {
		snapshot[domain] = slices.Clone(list)
	}
	return snapshot
}

// Domains returns the seeded domains in lexical order
func (s *ResultStore) Domains() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	domains := make([]string, 0, len(s.findings))
	for domain := range s.findings {
		domains = append(domains, domain)
	}
	sort.Strings(domains)
	return domains
}
