package registry

import (
	"testing"

	"github.com/chaincodec/chaincodec/internal/chain"
	"github.com/chaincodec/chaincodec/internal/schema"
	"github.com/chaincodec/chaincodec/internal/values"
)

func sampleSchema(name string, version uint32, fp string) *schema.Schema {
	return &schema.Schema{
		Name:        name,
		Version:     version,
		Chains:      []string{"ethereum"},
		Event:       "Transfer",
		Fingerprint: chain.EventFingerprint(fp),
		Fields: []schema.FieldDef{
			{Name: "from", Type: values.Address(values.FamilyEVM), Indexed: true},
			{Name: "to", Type: values.Address(values.FamilyEVM), Indexed: true},
			{Name: "value", Type: values.Uint(256)},
		},
	}
}

const fpA = "0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef"
const fpB = "0x8c5be1e5ebec7d5bd14f71427d1e84f3dd0314c0f7b2291e5b200ac8c7c3b925"

func TestAddAndLookupSymmetry(t *testing.T) {
	r := New()
	s := sampleSchema("ERC20Transfer", 1, fpA)
	if err := r.Add(s); err != nil {
		t.Fatal(err)
	}

	byFP, ok := r.ByFingerprint(chain.EventFingerprint(fpA))
	if !ok || byFP.Name != "ERC20Transfer" {
		t.Fatal("expected lookup by fingerprint to succeed")
	}
	byName, ok := r.ByName("ERC20Transfer", nil)
	if !ok || byName != byFP {
		t.Fatal("expected by_fingerprint and by_name to return the same record")
	}
}

func TestAddDuplicateFingerprintFails(t *testing.T) {
	r := New()
	if err := r.Add(sampleSchema("ERC20Transfer", 1, fpA)); err != nil {
		t.Fatal(err)
	}
	err := r.Add(sampleSchema("SomeOtherName", 1, fpA))
	if err == nil {
		t.Fatal("expected duplicate fingerprint to fail")
	}
}

func TestAddDuplicateNameVersionFails(t *testing.T) {
	r := New()
	if err := r.Add(sampleSchema("ERC20Transfer", 1, fpA)); err != nil {
		t.Fatal(err)
	}
	err := r.Add(sampleSchema("ERC20Transfer", 1, fpB))
	if err == nil {
		t.Fatal("expected duplicate (name, version) to fail")
	}
}

func TestByNameReturnsHighestNonDeprecated(t *testing.T) {
	r := New()
	v1 := sampleSchema("ERC20Transfer", 1, fpA)
	v2 := sampleSchema("ERC20Transfer", 2, fpB)
	if err := r.Add(v1); err != nil {
		t.Fatal(err)
	}
	if err := r.Add(v2); err != nil {
		t.Fatal(err)
	}
	if err := r.Deprecate("ERC20Transfer", 2, ""); err != nil {
		t.Fatal(err)
	}
	got, ok := r.ByName("ERC20Transfer", nil)
	if !ok || got.Version != 1 {
		t.Fatalf("expected version 1 (v2 deprecated), got %+v", got)
	}
}

func TestHistoryOrderedByVersion(t *testing.T) {
	r := New()
	_ = r.Add(sampleSchema("ERC20Transfer", 2, fpB))
	_ = r.Add(sampleSchema("ERC20Transfer", 1, fpA))
	hist := r.History("ERC20Transfer")
	if len(hist) != 2 || hist[0].Version != 1 || hist[1].Version != 2 {
		t.Fatalf("expected ascending version order, got %+v", hist)
	}
}

func TestByChainFiltersApplicability(t *testing.T) {
	r := New()
	_ = r.Add(sampleSchema("ERC20Transfer", 1, fpA))
	if len(r.ByChain("ethereum")) != 1 {
		t.Fatal("expected 1 schema for ethereum")
	}
	if len(r.ByChain("osmosis")) != 0 {
		t.Fatal("expected 0 schemas for osmosis")
	}
}
