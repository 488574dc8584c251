package solana

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"testing"

	"github.com/btcsuite/btcutil/base58"

	"github.com/chaincodec/chaincodec/internal/chain"
	"github.com/chaincodec/chaincodec/internal/schema"
	"github.com/chaincodec/chaincodec/internal/values"
)

func anchorTransferSchema() *schema.Schema {
	sum := sha256.Sum256([]byte("event:AnchorTransfer"))
	fp := chain.EventFingerprint(fmt.Sprintf("0x%x", sum[:8]))
	return &schema.Schema{
		Name:        "AnchorTransfer",
		Version:     1,
		Chains:      []string{"solana-mainnet"},
		Event:       "AnchorTransfer",
		Fingerprint: fp,
		Fields: []schema.FieldDef{
			{Name: "from", Type: values.Pubkey()},
			{Name: "to", Type: values.Pubkey()},
			{Name: "amount", Type: values.Uint(64)},
		},
	}
}

func TestAnchorEventDecodeS4(t *testing.T) {
	s := anchorTransferSchema()
	fromPk := make([]byte, 32)
	toPk := make([]byte, 32)
	for i := range fromPk {
		fromPk[i] = byte(i + 1)
	}
	for i := range toPk {
		toPk[i] = byte(200 + i)
	}

	amountBytes := make([]byte, 8)
	binary.LittleEndian.PutUint64(amountBytes, 5_000_000)

	data := append(append(append([]byte{}, fromPk...), toPk...), amountBytes...)

	raw := &chain.RawEvent{
		Chain:  values.LookupChain("solana-mainnet"),
		Topics: [][]byte{mustHexTopic(t, string(s.Fingerprint))},
		Data:   data,
	}

	d := NewDecoder()
	decoded, err := d.DecodeEvent(raw, s)
	if err != nil {
		t.Fatal(err)
	}

	amount, _ := decoded.Fields.Get("amount")
	got, _ := amount.BigInt()
	if got.Uint64() != 5_000_000 {
		t.Fatalf("expected amount 5000000, got %s", got.String())
	}

	from, _ := decoded.Fields.Get("from")
	fromStr, _ := from.Str()
	if fromStr != base58.Encode(fromPk) {
		t.Fatalf("expected from = %s, got %s", base58.Encode(fromPk), fromStr)
	}
}

func mustHexTopic(t *testing.T, hexFP string) []byte {
	t.Helper()
	b := make([]byte, 0, 8)
	hexFP = hexFP[2:] // strip 0x
	for i := 0; i < len(hexFP); i += 2 {
		var v byte
		_, err := fmt.Sscanf(hexFP[i:i+2], "%02x", &v)
		if err != nil {
			t.Fatal(err)
		}
		b = append(b, v)
	}
	return b
}
