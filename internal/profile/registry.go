package profile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// ErrNotFound is returned by Get for names no registered profile answers to.
var ErrNotFound = errors.New("profile not found")

const maxFileSize = 1 * 1024 * 1024 // 1MB

// Registry maps profile names and aliases to profiles. It is safe for
// concurrent use.
type Registry struct {
	mu       sync.RWMutex
	profiles map[string]*Profile // keyed by normalized name
	aliases  map[string]string   // normalized alias -> normalized name
	order    []string            // normalized names in registration order
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		profiles: make(map[string]*Profile),
		aliases:  make(map[string]string),
	}
}

// DefaultRegistry returns a registry holding the built-in profiles.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, p := range Builtins() {
		// built-ins are known to be valid
		_ = r.Register(p)
	}
	return r
}

// Register validates p and adds it. A profile whose name matches an existing
// one replaces it, aliases included.
func (r *Registry) Register(p *Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}

	key := Normalize(p.Name)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.profiles[key]; exists {
		for alias, target := range r.aliases {
			if target == key {
				delete(r.aliases, alias)
			}
		}
	} else {
		r.order = append(r.order, key)
	}

	r.profiles[key] = p
	for _, a := range p.Aliases {
		r.aliases[Normalize(a)] = key
	}
	return nil
}

// Get looks a profile up by name or alias. Matching ignores case and treats
// '-', '_' and spaces alike, so "t1-flat", "T1_FLAT" and "T1 flat" are the
// same profile.
func (r *Registry) Get(name string) (*Profile, error) {
	key := Normalize(name)

	r.mu.RLock()
	defer r.mu.RUnlock()

	if p, ok := r.profiles[key]; ok {
		return p, nil
	}
	if target, ok := r.aliases[key]; ok {
		return r.profiles[target], nil
	}
	return nil, fmt.Errorf("%w: %q (available: %v)", ErrNotFound, name, r.namesLocked())
}

// Names returns the registered profile names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.namesLocked()
}

func (r *Registry) namesLocked() []string {
	names := make([]string, 0, len(r.order))
	for _, key := range r.order {
		names = append(names, r.profiles[key].Name)
	}
	return names
}

// All returns the registered profiles in registration order.
func (r *Registry) All() []*Profile {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Profile, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.profiles[key])
	}
	return out
}

// Lookup maps every normalized name and alias to its profile's display name.
func (r *Registry) Lookup() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]string, len(r.profiles)+len(r.aliases))
	for key, p := range r.profiles {
		out[key] = p.Name
	}
	for alias, key := range r.aliases {
		out[alias] = r.profiles[key].Name
	}
	return out
}

// SortedKeys returns the keys of a Lookup map, longest first, so that callers
// scanning free text try "t1 flat" before "t1f".
func SortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}

// File is the on-disk JSON layout read by LoadFile.
type File struct {
	Profiles []*Profile `json:"profiles"`
}

// LoadFile reads profiles from a JSON file and registers them. Entries whose
// name matches an existing profile replace it.
//
// The file must have a .json extension and be at most 1MB. Every profile is
// validated before any is registered, so a bad file leaves the registry
// untouched.
func (r *Registry) LoadFile(path string) error {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return fmt.Errorf("profile file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return fmt.Errorf("failed to stat profile file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return fmt.Errorf("profile file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return fmt.Errorf("failed to read profile file: %w", err)
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("failed to parse profile JSON: %w", err)
	}
	if len(f.Profiles) == 0 {
		return fmt.Errorf("profile file %s defines no profiles", cleanPath)
	}

	for i, p := range f.Profiles {
		if p == nil {
			return fmt.Errorf("invalid profile file: entry %d is null", i)
		}
		if err := p.Validate(); err != nil {
			return fmt.Errorf("invalid profile file: %w", err)
		}
	}
	for _, p := range f.Profiles {
		if err := r.Register(p); err != nil {
			return err
		}
	}
	return nil
}
