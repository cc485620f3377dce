// Package enterprise provides a read-only mock enterprise data source.
// Specialists query it for CRM, financial, workforce, and market records;
// nothing in the system ever writes to it.
package enterprise

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var defaultSeed []byte

// Record is one enterprise data row.
type Record struct {
	// ID uniquely identifies the record within its domain.
	ID string `yaml:"id" json:"id"`
	// Domain is the data domain the record belongs to (crm, finance, ...).
	Domain string `yaml:"domain" json:"domain"`
	// Fields holds the record's attributes.
	Fields map[string]any `yaml:"fields" json:"fields"`
}

// Field returns a field as a string, or "" if absent.
func (r Record) Field(name string) string {
	if v, ok := r.Fields[name]; ok {
		return fmt.Sprintf("%v", v)
	}
	return ""
}

// Number returns a numeric field, or 0 if absent or non-numeric.
func (r Record) Number(name string) float64 {
	switch v := r.Fields[name].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return 0
	}
}

type seedFile struct {
	Records []Record `yaml:"records"`
}

// Source is the read-only data source.
type Source struct {
	mu       sync.RWMutex
	byDomain map[string][]Record
}

// NewSource loads the built-in seed data.
func NewSource() (*Source, error) {
	return fromYAML(defaultSeed)
}

// NewSourceFromFile loads records from a YAML file instead of the built-in seed.
func NewSourceFromFile(path string) (*Source, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read enterprise seed: %w", err)
	}
	return fromYAML(raw)
}

func fromYAML(raw []byte) (*Source, error) {
	var seed seedFile
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return nil, fmt.Errorf("parse enterprise seed: %w", err)
	}

	s := &Source{byDomain: make(map[string][]Record)}
	for _, r := range seed.Records {
		if r.Domain == "" {
			return nil, fmt.Errorf("record %s has no domain", r.ID)
		}
		s.byDomain[r.Domain] = append(s.byDomain[r.Domain], r)
	}
	return s, nil
}

// Domains returns the known data domains, sorted.
func (s *Source) Domains() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	domains := make([]string, 0, len(s.byDomain))
	for d := range s.byDomain {
		domains = append(domains, d)
	}
	sort.Strings(domains)
	return domains
}

// Query returns the records in a domain whose fields match every filter
// entry (string-compared). A nil filter returns the whole domain.
func (s *Source) Query(domain string, filter map[string]string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records, ok := s.byDomain[domain]
	if !ok {
		return nil, fmt.Errorf("unknown enterprise domain %q", domain)
	}

	var out []Record
	for _, r := range records {
		matches := true
		for k, want := range filter {
			if r.Field(k) != want {
				matches = false
				break
			}
		}
		if matches {
			out = append(out, r)
		}
	}
	return out, nil
}
