// Package evm implements the EVM-family decoder, encoder, EIP-712
// parser, and proxy classifier: spec.md §4.3–§4.6 and §4.11.
package evm

import (
	"fmt"

	"github.com/chaincodec/chaincodec/internal/chain"
)

// Fingerprint returns topics[0] verbatim, or the well-known zero
// fingerprint (which never matches any schema) when there are no
// topics at all — spec.md §4.3.
func Fingerprint(raw *chain.RawEvent) chain.EventFingerprint {
	if len(raw.Topics) == 0 {
		return chain.ZeroFingerprint
	}
	return chain.EventFingerprint(fmt.Sprintf("0x%x", raw.Topics[0]))
}
