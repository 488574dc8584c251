// Package csdl parses the ChainCodec Schema Definition Language: a
// YAML-based DSL for defining blockchain event schemas, one or more
// documents per file separated by "---".
//
// Field order inside each document is load-bearing (it's the
// positional key EVM ABI decoding aligns against), so this parser
// walks yaml.Node trees directly instead of decoding into a Go map —
// gopkg.in/yaml.v3, like the teacher's own config loader, is the
// corpus's YAML library, but plain map[string]any decoding loses
// order the way Rust's serde_yaml loses it without indexmap. Walking
// yaml.Node.Content pairs is this corpus's answer to that.
package csdl

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"gopkg.in/yaml.v3"

	"github.com/chaincodec/chaincodec/internal/chain"
	"github.com/chaincodec/chaincodec/internal/schema"
	"github.com/chaincodec/chaincodec/internal/values"
)

// Parse returns the first schema document in a CSDL file. For
// multi-schema files, use ParseAll.
func Parse(data []byte) (*schema.Schema, error) {
	schemas, err := ParseAll(data)
	if err != nil {
		return nil, err
	}
	if len(schemas) == 0 {
		return nil, &chain.CsdlParseError{DocumentIndex: 0, Reason: "empty CSDL file"}
	}
	return schemas[0], nil
}

// ParseAll parses every "---"-separated document in a CSDL file, in
// file order.
func ParseAll(data []byte) ([]*schema.Schema, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	var out []*schema.Schema
	idx := 0
	for {
		var doc yaml.Node
		err := dec.Decode(&doc)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &chain.CsdlParseError{DocumentIndex: idx, Reason: err.Error()}
		}
		if doc.Kind == 0 || (doc.Kind == yaml.DocumentNode && len(doc.Content) == 0) {
			idx++
			continue
		}
		s, err := parseDocument(&doc, idx)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
		idx++
	}
	return out, nil
}

func parseDocument(doc *yaml.Node, idx int) (*schema.Schema, error) {
	root := doc
	if root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			return nil, &chain.CsdlParseError{DocumentIndex: idx, Reason: "empty document"}
		}
		root = root.Content[0]
	}
	if root.Kind == yaml.ScalarNode && root.Tag == "!!null" {
		return nil, &chain.CsdlParseError{DocumentIndex: idx, Reason: "empty document"}
	}
	if root.Kind != yaml.MappingNode {
		return nil, &chain.CsdlParseError{DocumentIndex: idx, Reason: "CSDL document must be a YAML mapping"}
	}

	var schemaName string
	var body *yaml.Node
	for i := 0; i+1 < len(root.Content); i += 2 {
		key := root.Content[i]
		if strings.HasPrefix(key.Value, "schema ") {
			schemaName = strings.TrimSpace(strings.TrimPrefix(key.Value, "schema "))
			body = root.Content[i+1]
			break
		}
	}
	if body == nil {
		return nil, &chain.CsdlParseError{DocumentIndex: idx, Reason: "missing 'schema <Name>' key"}
	}

	var raw csdlBody
	if err := body.Decode(&raw); err != nil {
		return nil, &chain.CsdlParseError{DocumentIndex: idx, Reason: err.Error()}
	}

	fields, err := decodeFieldsInOrder(body)
	if err != nil {
		return nil, &chain.CsdlParseError{DocumentIndex: idx, Reason: fmt.Sprintf("schema %q: %v", schemaName, err)}
	}

	address, err := decodeAddress(body)
	if err != nil {
		return nil, &chain.CsdlParseError{DocumentIndex: idx, Reason: fmt.Sprintf("schema %q: %v", schemaName, err)}
	}

	trustLevel := schema.Unverified
	switch raw.Meta.TrustLevel {
	case "community_verified":
		trustLevel = schema.CommunityVerified
	case "maintainer_verified":
		trustLevel = schema.MaintainerVerified
	case "protocol_verified":
		trustLevel = schema.ProtocolVerified
	}

	s := &schema.Schema{
		Name:         schemaName,
		Version:      raw.Version,
		Chains:       raw.Chains,
		Address:      address,
		Event:        raw.Event,
		Fingerprint:  chain.EventFingerprint(raw.Fingerprint),
		Supersedes:   raw.Supersedes,
		SupersededBy: raw.SupersededBy,
		Deprecated:   raw.Deprecated,
		Fields:       fields,
		Meta: schema.Meta{
			Protocol:      raw.Meta.Protocol,
			Category:      raw.Meta.Category,
			Verified:      raw.Meta.Verified,
			TrustLevel:    trustLevel,
			ProvenanceSig: raw.Meta.ProvenanceSig,
			Tags:          raw.Meta.Tags,
			SourceURL:     raw.Meta.SourceURL,
			AuditedBy:     raw.Meta.AuditedBy,
		},
	}

	if err := resolveFingerprint(s); err != nil {
		return nil, &chain.CsdlParseError{DocumentIndex: idx, Reason: err.Error()}
	}
	if err := s.Validate(); err != nil {
		return nil, &chain.CsdlParseError{DocumentIndex: idx, Reason: err.Error()}
	}
	return s, nil
}

type csdlMeta struct {
	Protocol      string   `yaml:"protocol"`
	Category      string   `yaml:"category"`
	Verified      bool     `yaml:"verified"`
	TrustLevel    string   `yaml:"trust_level"`
	ProvenanceSig string   `yaml:"provenance_sig"`
	Tags          []string `yaml:"tags"`
	SourceURL     string   `yaml:"source_url"`
	AuditedBy     string   `yaml:"audited_by"`
}

type csdlBody struct {
	Version      uint32   `yaml:"version"`
	Description  string   `yaml:"description"`
	Chains       []string `yaml:"chains"`
	Event        string   `yaml:"event"`
	Fingerprint  string   `yaml:"fingerprint"`
	Supersedes   string   `yaml:"supersedes"`
	SupersededBy string   `yaml:"superseded_by"`
	Deprecated   bool     `yaml:"deprecated"`
	Meta         csdlMeta `yaml:"meta"`
}

type csdlFieldRaw struct {
	Type        string `yaml:"type"`
	Indexed     bool   `yaml:"indexed"`
	Nullable    bool   `yaml:"nullable"`
	Description string `yaml:"description"`
}

// decodeFieldsInOrder walks the "fields" mapping node's Content pairs
// directly rather than decoding into a Go map, so declaration order
// survives into schema.FieldDef order.
func decodeFieldsInOrder(body *yaml.Node) ([]schema.FieldDef, error) {
	fieldsNode := findKey(body, "fields")
	if fieldsNode == nil {
		return nil, fmt.Errorf("missing 'fields'")
	}
	if fieldsNode.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("'fields' must be a mapping")
	}
	fields := make([]schema.FieldDef, 0, len(fieldsNode.Content)/2)
	for i := 0; i+1 < len(fieldsNode.Content); i += 2 {
		name := fieldsNode.Content[i].Value
		var raw csdlFieldRaw
		if err := fieldsNode.Content[i+1].Decode(&raw); err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		ty, err := parseType(raw.Type)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		fields = append(fields, schema.FieldDef{
			Name:        name,
			Type:        ty,
			Indexed:     raw.Indexed,
			Nullable:    raw.Nullable,
			Description: raw.Description,
		})
	}
	return fields, nil
}

func decodeAddress(body *yaml.Node) ([]string, error) {
	node := findKey(body, "address")
	if node == nil || node.Tag == "!!null" {
		return nil, nil
	}
	switch node.Kind {
	case yaml.ScalarNode:
		return []string{node.Value}, nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(node.Content))
		for _, c := range node.Content {
			out = append(out, c.Value)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("'address' must be a string or list of strings")
	}
}

func findKey(mapping *yaml.Node, key string) *yaml.Node {
	if mapping.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1]
		}
	}
	return nil
}

// resolveFingerprint fills in an EVM schema's fingerprint from its
// canonical event(...) signature when the CSDL left it empty, and
// validates a provided one against the computed value — spec.md §4.1.
// Non-EVM schemas always require an explicit fingerprint since there's
// no signature to derive one from.
func resolveFingerprint(s *schema.Schema) error {
	isEVM := false
	for _, c := range s.Chains {
		if values.LookupChain(c).Family == values.FamilyEVM {
			isEVM = true
			break
		}
	}
	if !isEVM {
		if s.Fingerprint == "" {
			return fmt.Errorf("schema %q: fingerprint is required for non-EVM chains", s.Name)
		}
		return nil
	}

	computed := computeEVMFingerprint(s)
	if s.Fingerprint == "" {
		s.Fingerprint = computed
		return nil
	}
	if !s.Fingerprint.Equal(computed) {
		return fmt.Errorf("schema %q: provided fingerprint %s does not match computed %s for signature %s",
			s.Name, s.Fingerprint, computed, canonicalSignature(s))
	}
	return nil
}

func canonicalSignature(s *schema.Schema) string {
	parts := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		parts = append(parts, f.Type.EVMTypeName())
	}
	return fmt.Sprintf("%s(%s)", s.Event, strings.Join(parts, ","))
}

func computeEVMFingerprint(s *schema.Schema) chain.EventFingerprint {
	sig := canonicalSignature(s)
	sum := crypto.Keccak256([]byte(sig))
	return chain.EventFingerprint(fmt.Sprintf("0x%x", sum))
}
