// Package schema defines the immutable, ordered description of one
// event or message type: name, version, fields, fingerprint,
// applicability, and metadata (spec.md §3).
package schema

import (
	"fmt"
	"regexp"

	"github.com/chaincodec/chaincodec/internal/chain"
	"github.com/chaincodec/chaincodec/internal/values"
)

// TrustLevel is the provenance tier a schema carries in its meta.
type TrustLevel string

const (
	Unverified          TrustLevel = "unverified"
	CommunityVerified   TrustLevel = "community_verified"
	MaintainerVerified  TrustLevel = "maintainer_verified"
	ProtocolVerified    TrustLevel = "protocol_verified"
)

// FieldDef is one field of a Schema, in declaration order.
type FieldDef struct {
	Name        string
	Type        values.CanonicalType
	Indexed     bool
	Nullable    bool
	Description string
}

// Meta carries the descriptive and provenance metadata attached to a
// schema, per spec.md §3 and §6.
type Meta struct {
	Protocol      string
	Category      string
	Verified      bool
	TrustLevel    TrustLevel
	ProvenanceSig string
	Tags          []string
	SourceURL     string
	AuditedBy     string
}

// Schema is the immutable, ordered description of one event type.
// Once constructed it is never mutated; new versions are new Schema
// values linked through Supersedes/SupersededBy, and only the
// registry is allowed to write those lineage back-links (spec.md §3).
type Schema struct {
	Name          string
	Version       uint32
	Chains        []string
	Address       []string // optional contract-address lock; nil means "any"
	Event         string
	Fingerprint   chain.EventFingerprint
	Supersedes    string
	SupersededBy  string
	Deprecated    bool
	Fields        []FieldDef
	Meta          Meta
}

var pascalCase = regexp.MustCompile(`^[A-Z][A-Za-z0-9]*$`)

// Validate enforces the structural rules from spec.md §4.1 that fail
// the whole parse rather than an individual field. Fingerprint-vs-
// signature agreement for EVM schemas is checked by the CSDL parser,
// which alone knows whether the fingerprint was user-supplied or
// computed.
func (s *Schema) Validate() error {
	if !pascalCase.MatchString(s.Name) {
		return fmt.Errorf("schema name %q is not PascalCase", s.Name)
	}
	if s.Version == 0 {
		return fmt.Errorf("schema %q: version must be positive", s.Name)
	}
	if len(s.Chains) == 0 {
		return fmt.Errorf("schema %q: chains must be non-empty", s.Name)
	}
	if len(s.Fields) == 0 {
		return fmt.Errorf("schema %q: fields must be non-empty", s.Name)
	}
	if s.Supersedes != "" && s.SupersededBy != "" && s.Supersedes == s.SupersededBy {
		return fmt.Errorf("schema %q: supersedes and superseded_by reference the same version", s.Name)
	}

	seen := make(map[string]struct{}, len(s.Fields))
	indexedCount := 0
	for _, f := range s.Fields {
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("schema %q: duplicate field name %q", s.Name, f.Name)
		}
		seen[f.Name] = struct{}{}
		if f.Indexed {
			indexedCount++
		}
	}
	if hasEVM(s.Chains) && indexedCount > 3 {
		return fmt.Errorf("schema %q: EVM allows at most 3 indexed fields, got %d", s.Name, indexedCount)
	}

	if err := validateFingerprintLength(s); err != nil {
		return err
	}
	return nil
}

func hasEVM(chains []string) bool {
	for _, c := range chains {
		fam := values.LookupChain(c).Family
		if fam == values.FamilyEVM || fam == values.FamilyCustom {
			// Custom-family slugs default to the lenient EVM-shaped
			// check since the registry doesn't know their real family.
			return true
		}
	}
	return false
}

func validateFingerprintLength(s *Schema) error {
	fp := string(s.Fingerprint)
	if len(fp) < 2 || fp[:2] != "0x" {
		return fmt.Errorf("schema %q: fingerprint must be 0x-prefixed hex", s.Name)
	}
	hexLen := len(fp) - 2
	for _, c := range s.Chains {
		switch values.LookupChain(c).Family {
		case values.FamilySolana:
			if hexLen != 16 {
				return fmt.Errorf("schema %q: solana fingerprint must be 8 bytes (16 hex chars), got %d", s.Name, hexLen)
			}
		case values.FamilyCosmos:
			if hexLen != 32 {
				return fmt.Errorf("schema %q: cosmos fingerprint must be 16 bytes (32 hex chars), got %d", s.Name, hexLen)
			}
		case values.FamilyEVM:
			if hexLen != 64 {
				return fmt.Errorf("schema %q: evm fingerprint must be 32 bytes (64 hex chars), got %d", s.Name, hexLen)
			}
		}
	}
	return nil
}

// AppliesToChain reports whether the schema is applicable to the given
// chain slug.
func (s *Schema) AppliesToChain(slug string) bool {
	for _, c := range s.Chains {
		if c == slug {
			return true
		}
	}
	return false
}

// IndexedFields returns the schema's indexed fields in declaration
// order — the order EVM topics[1..] must be matched against.
func (s *Schema) IndexedFields() []FieldDef {
	var out []FieldDef
	for _, f := range s.Fields {
		if f.Indexed {
			out = append(out, f)
		}
	}
	return out
}

// NonIndexedFields returns the schema's non-indexed fields in
// declaration order — the tuple decoded out of the data payload.
func (s *Schema) NonIndexedFields() []FieldDef {
	var out []FieldDef
	for _, f := range s.Fields {
		if !f.Indexed {
			out = append(out, f)
		}
	}
	return out
}
