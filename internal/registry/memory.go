// Package registry implements the in-memory, thread-safe schema store
// described in spec.md §4.2: fingerprint-indexed O(1) lookup, name+
// version lookup, chain-slug lookup, and version lineage.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/chaincodec/chaincodec/internal/chain"
	"github.com/chaincodec/chaincodec/internal/schema"
)

type nameVersion struct {
	name    string
	version uint32
}

// Memory is the reference schema registry: three maps kept in lockstep
// under a single RWMutex. Persistence is explicitly out of scope
// (spec.md §9) — a Memory registry that starts empty every process is
// correct as long as the bootstrap loads the right schema set, which
// is the caller's job (typically via internal/csdl at startup).
type Memory struct {
	mu sync.RWMutex

	byFingerprint map[chain.EventFingerprint]*schema.Schema
	byNameVersion map[nameVersion]*schema.Schema
	byName        map[string][]*schema.Schema // sorted by version, ascending
}

func New() *Memory {
	return &Memory{
		byFingerprint: make(map[chain.EventFingerprint]*schema.Schema),
		byNameVersion: make(map[nameVersion]*schema.Schema),
		byName:        make(map[string][]*schema.Schema),
	}
}

// Add inserts a new schema. It fails if either the fingerprint or the
// (name, version) key already exists — spec.md §4.2's duplicate
// policy is stricter than checking either alone.
func (m *Memory) Add(s *schema.Schema) error {
	if err := s.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byFingerprint[s.Fingerprint]; exists {
		return &chain.RegistryConflictError{Kind: chain.ConflictDuplicateFingerprint}
	}
	nv := nameVersion{s.Name, s.Version}
	if _, exists := m.byNameVersion[nv]; exists {
		return &chain.RegistryConflictError{Kind: chain.ConflictDuplicateNameVersion}
	}

	m.insertLocked(s)
	return nil
}

// Upsert replaces a schema by (name, version). It still rejects a
// write that would let a *different* schema name claim a fingerprint
// already owned by another record — spec.md §4.2's protocol-collision
// guard.
func (m *Memory) Upsert(s *schema.Schema) error {
	if err := s.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.byFingerprint[s.Fingerprint]; ok && existing.Name != s.Name {
		return &chain.RegistryConflictError{Kind: chain.ConflictDuplicateFingerprint}
	}

	nv := nameVersion{s.Name, s.Version}
	if old, ok := m.byNameVersion[nv]; ok {
		if old.Fingerprint != s.Fingerprint {
			delete(m.byFingerprint, old.Fingerprint)
		}
		m.removeFromNameIndexLocked(old)
	}
	m.insertLocked(s)
	return nil
}

func (m *Memory) insertLocked(s *schema.Schema) {
	m.byFingerprint[s.Fingerprint] = s
	m.byNameVersion[nameVersion{s.Name, s.Version}] = s

	versions := m.byName[s.Name]
	versions = append(versions, s)
	sort.Slice(versions, func(i, j int) bool { return versions[i].Version < versions[j].Version })
	m.byName[s.Name] = versions
}

func (m *Memory) removeFromNameIndexLocked(s *schema.Schema) {
	versions := m.byName[s.Name]
	for i, v := range versions {
		if v.Version == s.Version {
			m.byName[s.Name] = append(versions[:i], versions[i+1:]...)
			break
		}
	}
	delete(m.byNameVersion, nameVersion{s.Name, s.Version})
}

// ByFingerprint is the hot-path O(1) lookup driving both the batch and
// stream engines.
func (m *Memory) ByFingerprint(fp chain.EventFingerprint) (*schema.Schema, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.byFingerprint[fp]
	return s, ok
}

// ByName returns a specific version, or the highest non-deprecated
// version when version is nil.
func (m *Memory) ByName(name string, version *uint32) (*schema.Schema, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if version != nil {
		s, ok := m.byNameVersion[nameVersion{name, *version}]
		return s, ok
	}
	versions := m.byName[name]
	for i := len(versions) - 1; i >= 0; i-- {
		if !versions[i].Deprecated {
			return versions[i], true
		}
	}
	if len(versions) > 0 {
		return versions[len(versions)-1], true
	}
	return nil, false
}

// ByChain returns every schema applicable to the given chain slug.
func (m *Memory) ByChain(slug string) []*schema.Schema {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*schema.Schema
	for _, s := range m.byFingerprint {
		if s.AppliesToChain(slug) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// History returns every version of a named schema, ordered ascending.
func (m *Memory) History(name string) []*schema.Schema {
	m.mu.RLock()
	defer m.mu.RUnlock()
	versions := m.byName[name]
	out := make([]*schema.Schema, len(versions))
	copy(out, versions)
	return out
}

// All returns the latest non-deprecated schema per name, sorted by name.
func (m *Memory) All() []*schema.Schema {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.byName))
	for name := range m.byName {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]*schema.Schema, 0, len(names))
	for _, name := range names {
		versions := m.byName[name]
		chosen := versions[len(versions)-1]
		for i := len(versions) - 1; i >= 0; i-- {
			if !versions[i].Deprecated {
				chosen = versions[i]
				break
			}
		}
		out = append(out, chosen)
	}
	return out
}

// Deprecate marks a stored record deprecated and sets its
// SupersededBy link. The record is replaced in all three indexes by a
// modified copy; *Schema values handed out earlier are not changed.
func (m *Memory) Deprecate(name string, version uint32, supersededBy string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byNameVersion[nameVersion{name, version}]
	if !ok {
		return fmt.Errorf("registry: no schema %s@%d", name, version)
	}
	deprecated := *s
	deprecated.Deprecated = true
	deprecated.SupersededBy = supersededBy
	m.byFingerprint[deprecated.Fingerprint] = &deprecated
	m.byNameVersion[nameVersion{name, version}] = &deprecated
	for i, v := range m.byName[name] {
		if v.Version == version {
			m.byName[name][i] = &deprecated
			break
		}
	}
	return nil
}
