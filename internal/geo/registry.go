package geo

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"parcel-portal/internal/models"

	"github.com/paulmach/orb"
)

// RegistryEntry is the stored boundary of one lot, optionally with
// precomputed measurements
type RegistryEntry struct {
	Coordinates  orb.Ring             `json:"coordinates"`
	Measurements *models.Measurements `json:"measurements,omitempty"`
}

// UnmarshalJSON accepts both the bare ring form ([[x,y],...]) and the
// enriched object form ({"coordinates": ..., "measurements": ...})
func (e *RegistryEntry) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var ring orb.Ring
		if err := json.Unmarshal(data, &ring); err != nil {
			return err
		}
		*e = RegistryEntry{Coordinates: ring}
		return nil
	}

	type plain RegistryEntry
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*e = RegistryEntry(p)
	return nil
}

// Registry maps normalized lot codes to their stored geometry
type Registry struct {
	entries map[string]RegistryEntry
}

// NewRegistry builds a registry, normalizing every code. When two raw codes
// normalize to the same key the lexically last one wins.
func NewRegistry(entries map[string]RegistryEntry) *Registry {
	raw := make([]string, 0, len(entries))
	for code := range entries {
		raw = append(raw, code)
	}
	sort.Strings(raw)

	r := &Registry{entries: make(map[string]RegistryEntry, len(entries))}
	for _, code := range raw {
		r.entries[models.NormalizeCode(code)] = entries[code]
	}
	return r
}

// ParseRegistry decodes a registry document
func ParseRegistry(data []byte) (*Registry, error) {
	var entries map[string]RegistryEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode geometry registry: %w", err)
	}
	return NewRegistry(entries), nil
}

// LoadRegistry reads a registry document from disk
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read geometry registry: %w", err)
	}
	return ParseRegistry(data)
}

// Lookup returns the entry stored for code
func (r *Registry) Lookup(code string) (RegistryEntry, bool) {
	if r == nil {
		return RegistryEntry{}, false
	}
	e, ok := r.entries[models.NormalizeCode(code)]
	return e, ok
}

// Codes returns every registered code in sorted order
func (r *Registry) Codes() []string {
	if r == nil {
		return nil
	}
	codes := make([]string, 0, len(r.entries))
	for code := range r.entries {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Len returns the number of registered lots
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.entries)
}

// MarshalJSON writes the registry in the enriched object form
func (r *Registry) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.entries)
}

// Save writes the registry to path as indented JSON
func (r *Registry) Save(path string) error {
	data, err := json.MarshalIndent(r.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode geometry registry: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write geometry registry: %w", err)
	}
	return nil
}

// EnrichReport summarises a batch measurement run
type EnrichReport struct {
	Processed int      `json:"processed"`
	Skipped   []string `json:"skipped"`
}

// EnrichRegistry measures every entry and returns a new registry whose
// entries carry measurements rounded to the given decimals. Entries with
// fewer than 3 points are left out and listed in the report.
func EnrichRegistry(r *Registry, places int32) (*Registry, EnrichReport) {
	out := &Registry{entries: make(map[string]RegistryEntry, r.Len())}
	report := EnrichReport{Skipped: []string{}}

	for _, code := range r.Codes() {
		entry := r.entries[code]
		if len(entry.Coordinates) < 3 {
			report.Skipped = append(report.Skipped, code)
			continue
		}
		m := Round(Measure(entry.Coordinates), places)
		out.entries[code] = RegistryEntry{Coordinates: entry.Coordinates, Measurements: &m}
		report.Processed++
	}

	return out, report
}
