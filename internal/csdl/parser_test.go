package csdl

import (
	"testing"

	"github.com/chaincodec/chaincodec/internal/schema"
)

const sampleCSDL = `
schema ERC20Transfer:
  version: 1
  chains: [ethereum, arbitrum, polygon, base]
  address: null
  event: Transfer
  fingerprint: "0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef"
  fields:
    from:   { type: address, indexed: true }
    to:     { type: address, indexed: true }
    value:  { type: uint256, indexed: false }
  meta:
    protocol: erc20
    category: token
    verified: true
    trust_level: maintainer_verified
`

const multiDocCSDL = `
schema ERC20Transfer:
  version: 1
  chains: [ethereum]
  event: Transfer
  fingerprint: "0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef"
  fields:
    from:  { type: address, indexed: true }
    to:    { type: address, indexed: true }
    value: { type: uint256, indexed: false }
  meta: {}
---
schema ERC20Approval:
  version: 1
  chains: [ethereum]
  event: Approval
  fingerprint: "0x8c5be1e5ebec7d5bd14f71427d1e84f3dd0314c0f7b2291e5b200ac8c7c3b925"
  fields:
    owner:   { type: address, indexed: true }
    spender: { type: address, indexed: true }
    value:   { type: uint256, indexed: false }
  meta: {}
`

func TestParseERC20Transfer(t *testing.T) {
	s, err := Parse([]byte(sampleCSDL))
	if err != nil {
		t.Fatal(err)
	}
	if s.Name != "ERC20Transfer" || s.Version != 1 || len(s.Fields) != 3 || s.Event != "Transfer" {
		t.Fatalf("unexpected schema: %+v", s)
	}
	if s.Meta.TrustLevel != schema.MaintainerVerified {
		t.Fatalf("expected maintainer_verified, got %s", s.Meta.TrustLevel)
	}
}

func TestFieldOrderPreserved(t *testing.T) {
	s, err := Parse([]byte(sampleCSDL))
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"from", "to", "value"}
	for i, name := range want {
		if s.Fields[i].Name != name {
			t.Fatalf("field[%d] = %q, want %q", i, s.Fields[i].Name, name)
		}
	}
}

func TestParseMultiDoc(t *testing.T) {
	schemas, err := ParseAll([]byte(multiDocCSDL))
	if err != nil {
		t.Fatal(err)
	}
	if len(schemas) != 2 {
		t.Fatalf("expected 2 schemas, got %d", len(schemas))
	}
	if schemas[0].Name != "ERC20Transfer" || schemas[1].Name != "ERC20Approval" {
		t.Fatalf("unexpected order: %s, %s", schemas[0].Name, schemas[1].Name)
	}
}

func TestParseTypeUint256(t *testing.T) {
	ty, err := parseType("uint256")
	if err != nil || ty.Bits != 256 {
		t.Fatalf("unexpected: %+v, %v", ty, err)
	}
}

func TestParseTypeFixedArray(t *testing.T) {
	ty, err := parseType("uint8[4]")
	if err != nil {
		t.Fatal(err)
	}
	if ty.Kind != "array" || ty.ArrayLen != 4 || ty.Elem.Bits != 8 {
		t.Fatalf("unexpected: %+v", ty)
	}
}

func TestParseTypeAnonymousTuple(t *testing.T) {
	ty, err := parseType("(uint64,bool,address)")
	if err != nil {
		t.Fatal(err)
	}
	if len(ty.Fields) != 3 {
		t.Fatalf("expected 3 tuple fields, got %d", len(ty.Fields))
	}
}

func TestParseTypeDecimal(t *testing.T) {
	ty, err := parseType("decimal{decimals=6}")
	if err != nil {
		t.Fatal(err)
	}
	if ty.Scale != 6 {
		t.Fatalf("expected scale 6, got %d", ty.Scale)
	}
}

func TestFingerprintComputedFromSignature(t *testing.T) {
	const csdlNoFingerprint = `
schema ERC20Transfer:
  version: 1
  chains: [ethereum]
  event: Transfer
  fields:
    from:  { type: address, indexed: true }
    to:    { type: address, indexed: true }
    value: { type: uint256, indexed: false }
  meta: {}
`
	s, err := Parse([]byte(csdlNoFingerprint))
	if err != nil {
		t.Fatal(err)
	}
	want := "0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef"
	if string(s.Fingerprint) != want {
		t.Fatalf("fingerprint = %s, want %s", s.Fingerprint, want)
	}
}

func TestFingerprintMismatchIsParseError(t *testing.T) {
	const bad = `
schema ERC20Transfer:
  version: 1
  chains: [ethereum]
  event: Transfer
  fingerprint: "0x0000000000000000000000000000000000000000000000000000000000000000"
  fields:
    from:  { type: address, indexed: true }
    to:    { type: address, indexed: true }
    value: { type: uint256, indexed: false }
  meta: {}
`
	if _, err := Parse([]byte(bad)); err == nil {
		t.Fatal("expected fingerprint mismatch to fail the parse")
	}
}

func TestTooManyIndexedFieldsFails(t *testing.T) {
	const bad = `
schema TooManyIndexed:
  version: 1
  chains: [ethereum]
  event: Foo
  fingerprint: "0x0000000000000000000000000000000000000000000000000000000000000000"
  fields:
    a: { type: address, indexed: true }
    b: { type: address, indexed: true }
    c: { type: address, indexed: true }
    d: { type: address, indexed: true }
  meta: {}
`
	if _, err := Parse([]byte(bad)); err == nil {
		t.Fatal("expected more-than-3-indexed to fail validation")
	}
}
