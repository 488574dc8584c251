// Package solana implements the Anchor/Borsh event decoder described
// in spec.md §4.7. There is no reference implementation to ground the
// algorithm on — the original Rust workspace's Solana crate is a stub
// — so the byte-cursor decode logic here follows spec.md's own
// numbered rules directly, structured the way the teacher's
// internal/source/algorand package structures a positional decoder:
// a small stateful reader plus one dispatch per declared type.
package solana

import (
	"crypto/sha256"
	"fmt"

	"github.com/chaincodec/chaincodec/internal/chain"
	"github.com/chaincodec/chaincodec/internal/schema"
)

// Decoder implements chain.EventDecoder for Anchor program events.
type Decoder struct{}

func NewDecoder() *Decoder { return &Decoder{} }

// discriminator returns the first 8 bytes of sha256("event:"+name),
// the Anchor convention for an event's wire-level identity.
func discriminator(eventName string) [8]byte {
	sum := sha256.Sum256([]byte("event:" + eventName))
	var out [8]byte
	copy(out[:], sum[:8])
	return out
}

// Fingerprint reports the schema-independent identity a raw event
// carries: spec.md §4.7 says the schema's fingerprint IS the event's
// discriminator, and the raw event's topics[0] is expected to carry
// that discriminator hex for exact-equality checking. With no schema
// in hand yet, Fingerprint reads it straight off the wire.
func (*Decoder) Fingerprint(raw *chain.RawEvent) chain.EventFingerprint {
	if len(raw.Topics) == 0 {
		return chain.ZeroFingerprint
	}
	return chain.EventFingerprint(fmt.Sprintf("0x%x", raw.Topics[0]))
}

// DecodeEvent verifies the discriminator, then decodes raw.Data
// positionally in schema field order per Borsh's encoding rules.
func (d *Decoder) DecodeEvent(raw *chain.RawEvent, s *schema.Schema) (*chain.DecodedEvent, error) {
	want := discriminator(s.Event)
	wantFP := chain.EventFingerprint(fmt.Sprintf("0x%x", want[:]))
	got := d.Fingerprint(raw)
	if !got.Equal(s.Fingerprint) {
		return nil, &chain.FingerprintMismatchError{Expected: s.Fingerprint, Got: got}
	}
	if !got.Equal(wantFP) {
		return nil, &chain.FingerprintMismatchError{Expected: wantFP, Got: got}
	}

	r := newBorshReader(raw.Data)
	decodeErrs := make(map[string]string)
	fields, err := decodeFieldsBorsh(r, s.Fields, decodeErrs)
	if err != nil {
		return nil, err
	}

	return &chain.DecodedEvent{
		SchemaName:    s.Name,
		SchemaVersion: s.Version,
		Chain:         raw.Chain,
		TxHash:        raw.TxHash,
		BlockNumber:   raw.BlockNumber,
		BlockTime:     raw.BlockTimestamp,
		LogIndex:      raw.LogIndex,
		Address:       raw.Address,
		Fields:        fields,
		Fingerprint:   s.Fingerprint,
		DecodeErrors:  decodeErrs,
	}, nil
}
