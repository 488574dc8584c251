package chain

import "github.com/chaincodec/chaincodec/internal/schema"

// EventDecoder is the interface the batch and stream engines drive.
// Each chain family (internal/evm, internal/solana, internal/cosmos)
// provides one implementation; the engines hold only this interface
// so they never import a concrete chain package.
type EventDecoder interface {
	// Fingerprint computes the routing key for a raw event, without
	// needing a resolved schema (topics[0] for EVM, a discriminator
	// check for Anchor, the (type,action) hash for Cosmos).
	Fingerprint(raw *RawEvent) EventFingerprint

	// DecodeEvent decodes raw against the given schema. schema.Fingerprint
	// is assumed already resolved via a registry lookup on Fingerprint(raw).
	DecodeEvent(raw *RawEvent, s *schema.Schema) (*DecodedEvent, error)
}
