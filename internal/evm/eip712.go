package evm

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/chaincodec/chaincodec/internal/chain"
)

// ParsedTypedData is the parsed form of an EIP-712 signing request,
// per spec.md §4.6. It wraps go-ethereum's own apitypes.TypedData,
// which already implements the type graph, primary-type field list,
// and hashing rules exactly as EIP-712 §4 specifies them — there is
// no reason to reimplement that by hand.
type ParsedTypedData struct {
	raw apitypes.TypedData
}

// ParseTypedData parses a `{types, primaryType, domain, message}` JSON
// document.
func ParseTypedData(data []byte) (*ParsedTypedData, error) {
	var td apitypes.TypedData
	if err := json.Unmarshal(data, &td); err != nil {
		return nil, &chain.AbiDecodeFailedError{Reason: fmt.Sprintf("eip-712: %v", err)}
	}
	if err := td.Validate(); err != nil {
		return nil, &chain.AbiDecodeFailedError{Reason: fmt.Sprintf("eip-712: %v", err)}
	}
	return &ParsedTypedData{raw: td}, nil
}

// PrimaryType returns the name of the message's primary struct type.
func (p *ParsedTypedData) PrimaryType() string { return p.raw.PrimaryType }

// Fields returns the ordered field list declared for the primary type.
func (p *ParsedTypedData) Fields() []apitypes.Type {
	return p.raw.Types[p.raw.PrimaryType]
}

// Message returns the original, unmodified message value map.
func (p *ParsedTypedData) Message() apitypes.TypedDataMessage {
	return p.raw.Message
}

// DomainSeparator computes keccak256(abi_encode(EIP712Domain type
// hash, domain field hashes)) per EIP-712 §4. Signing/verification is
// explicitly out of scope (spec.md §4.6) — this is a pure hash.
func (p *ParsedTypedData) DomainSeparator() ([32]byte, error) {
	hash, err := p.raw.HashStruct("EIP712Domain", p.raw.Domain.Map())
	if err != nil {
		return [32]byte{}, &chain.AbiDecodeFailedError{Reason: fmt.Sprintf("eip-712 domain separator: %v", err)}
	}
	var out [32]byte
	copy(out[:], hash)
	return out, nil
}
