package evm

import (
	"encoding/hex"
	"math/big"
	"strings"
	"testing"

	"github.com/chaincodec/chaincodec/internal/chain"
	"github.com/chaincodec/chaincodec/internal/schema"
	"github.com/chaincodec/chaincodec/internal/values"
)

func erc20TransferSchema() *schema.Schema {
	return &schema.Schema{
		Name:        "ERC20Transfer",
		Version:     1,
		Chains:      []string{"ethereum"},
		Event:       "Transfer",
		Fingerprint: "0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef",
		Fields: []schema.FieldDef{
			{Name: "from", Type: values.Address(values.FamilyEVM), Indexed: true},
			{Name: "to", Type: values.Address(values.FamilyEVM), Indexed: true},
			{Name: "value", Type: values.Uint(256)},
		},
	}
}

func addrTopic(t *testing.T, addrHex string) []byte {
	t.Helper()
	addrHex = strings.TrimPrefix(addrHex, "0x")
	b, err := hex.DecodeString(addrHex)
	if err != nil {
		t.Fatal(err)
	}
	topic := make([]byte, 32)
	copy(topic[32-len(b):], b)
	return topic
}

func mustFPBytes(t *testing.T, fp string) []byte {
	t.Helper()
	b, err := hex.DecodeString(strings.TrimPrefix(fp, "0x"))
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestS1ERC20TransferDecode(t *testing.T) {
	s := erc20TransferSchema()
	raw := &chain.RawEvent{
		Chain: values.LookupChain("ethereum"),
		Topics: [][]byte{
			mustFPBytes(t, string(s.Fingerprint)),
			addrTopic(t, "0xd8dA6BF26964aF9D7eEd9e03E53415D37aA96045"),
			addrTopic(t, "0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B"),
		},
		Data: func() []byte {
			b := make([]byte, 32)
			big.NewInt(1_000_000).FillBytes(b)
			return b
		}(),
	}

	d := NewDecoder()
	decoded, err := d.DecodeEvent(raw, s)
	if err != nil {
		t.Fatal(err)
	}

	from, _ := decoded.Fields.Get("from")
	fromStr, _ := from.Str()
	if fromStr != "0xd8dA6BF26964aF9D7eEd9e03E53415D37aA96045" {
		t.Fatalf("from = %s", fromStr)
	}

	to, _ := decoded.Fields.Get("to")
	toStr, _ := to.Str()
	if toStr != "0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B" {
		t.Fatalf("to = %s", toStr)
	}

	value, _ := decoded.Fields.Get("value")
	n, _ := value.BigInt()
	if n.Cmp(big.NewInt(1_000_000)) != 0 {
		t.Fatalf("value = %s", n.String())
	}
	if value.Kind != values.VUint {
		t.Fatalf("expected Uint kind, got %s", value.Kind)
	}
}

func TestFingerprintMismatchFailsWholeEvent(t *testing.T) {
	s := erc20TransferSchema()
	raw := &chain.RawEvent{
		Chain: values.LookupChain("ethereum"),
		Topics: [][]byte{
			mustFPBytes(t, string(chain.ZeroFingerprint)),
			addrTopic(t, "0xd8dA6BF26964aF9D7eEd9e03E53415D37aA96045"),
			addrTopic(t, "0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B"),
		},
		Data: make([]byte, 32),
	}
	if _, err := NewDecoder().DecodeEvent(raw, s); err == nil {
		t.Fatal("expected fingerprint mismatch error")
	}
}

func TestIndexedTopicCountMismatch(t *testing.T) {
	s := erc20TransferSchema()
	raw := &chain.RawEvent{
		Chain:  values.LookupChain("ethereum"),
		Topics: [][]byte{mustFPBytes(t, string(s.Fingerprint))},
		Data:   make([]byte, 32),
	}
	if _, err := NewDecoder().DecodeEvent(raw, s); err == nil {
		t.Fatal("expected indexed topic count mismatch error")
	}
}
