package cosmos

import (
	"crypto/sha256"
	"fmt"
	"testing"

	"github.com/chaincodec/chaincodec/internal/chain"
	"github.com/chaincodec/chaincodec/internal/schema"
	"github.com/chaincodec/chaincodec/internal/values"
)

func swapSchema() *schema.Schema {
	sum := sha256.Sum256([]byte("event:wasm/token_swapped"))
	fp := chain.EventFingerprint(fmt.Sprintf("0x%x", sum[:16]))
	return &schema.Schema{
		Name:        "OsmosisSwap",
		Version:     1,
		Chains:      []string{"osmosis"},
		Event:       "token_swapped",
		Fingerprint: fp,
		Fields: []schema.FieldDef{
			{Name: "tokens_in", Type: values.Str()},
			{Name: "pool_id", Type: values.Uint(64)},
		},
	}
}

func TestCosmosSwapDecodeS5(t *testing.T) {
	s := swapSchema()
	data := []byte(`[{"key":"tokens_in","value":"1000000uosmo"},{"key":"pool_id","value":"1"}]`)
	raw := &chain.RawEvent{
		Chain:  values.LookupChain("osmosis"),
		Topics: [][]byte{[]byte("wasm"), []byte("token_swapped")},
		Data:   data,
	}

	d := NewDecoder()
	decoded, err := d.DecodeEvent(raw, s)
	if err != nil {
		t.Fatal(err)
	}

	tokensIn, _ := decoded.Fields.Get("tokens_in")
	str, _ := tokensIn.Str()
	if str != "1000000uosmo" {
		t.Fatalf("expected unstripped string, got %q", str)
	}

	poolID, _ := decoded.Fields.Get("pool_id")
	n, _ := poolID.BigInt()
	if n.Uint64() != 1 {
		t.Fatalf("expected pool_id=1, got %s", n.String())
	}
}

func TestCosmosStrippingWhenTypedUint(t *testing.T) {
	s := swapSchema()
	s.Fields[0].Type = values.Uint(64)
	data := []byte(`[{"key":"tokens_in","value":"1000000uosmo"},{"key":"pool_id","value":"1"}]`)
	raw := &chain.RawEvent{
		Chain:  values.LookupChain("osmosis"),
		Topics: [][]byte{[]byte("wasm"), []byte("token_swapped")},
		Data:   data,
	}

	decoded, err := NewDecoder().DecodeEvent(raw, s)
	if err != nil {
		t.Fatal(err)
	}
	tokensIn, _ := decoded.Fields.Get("tokens_in")
	n, _ := tokensIn.BigInt()
	if n.Uint64() != 1_000_000 {
		t.Fatalf("expected stripped 1000000, got %s", n.String())
	}
}

func TestCosmosEmptyNumericPrefixIsNull(t *testing.T) {
	s := swapSchema()
	s.Fields[0].Type = values.Uint(64)
	data := []byte(`[{"key":"tokens_in","value":"uosmo"},{"key":"pool_id","value":"1"}]`)
	raw := &chain.RawEvent{
		Chain:  values.LookupChain("osmosis"),
		Topics: [][]byte{[]byte("wasm"), []byte("token_swapped")},
		Data:   data,
	}

	decoded, err := NewDecoder().DecodeEvent(raw, s)
	if err != nil {
		t.Fatal(err)
	}
	tokensIn, _ := decoded.Fields.Get("tokens_in")
	if !tokensIn.IsNull() {
		t.Fatal("expected Null for empty numeric prefix")
	}
	if _, ok := decoded.DecodeErrors["tokens_in"]; !ok {
		t.Fatal("expected decode_errors entry for tokens_in")
	}
}
