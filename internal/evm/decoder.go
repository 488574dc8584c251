package evm

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"

	"github.com/chaincodec/chaincodec/internal/chain"
	"github.com/chaincodec/chaincodec/internal/schema"
	"github.com/chaincodec/chaincodec/internal/values"
)

// Decoder implements chain.EventDecoder for EVM logs (spec.md §4.3).
// It carries no state of its own — every input it needs (raw event,
// schema) is passed per call — so a single Decoder value is safe to
// share across goroutines, which is what the batch and stream engines
// both do.
type Decoder struct{}

func NewDecoder() *Decoder { return &Decoder{} }

func (*Decoder) Fingerprint(raw *chain.RawEvent) chain.EventFingerprint {
	return Fingerprint(raw)
}

// DecodeEvent implements the four numbered rules of spec.md §4.3.
func (d *Decoder) DecodeEvent(raw *chain.RawEvent, s *schema.Schema) (*chain.DecodedEvent, error) {
	actual := Fingerprint(raw)
	if !actual.Equal(s.Fingerprint) {
		return nil, &chain.FingerprintMismatchError{Expected: s.Fingerprint, Got: actual}
	}

	indexed := s.IndexedFields()
	nonIndexed := s.NonIndexedFields()
	gotIndexed := len(raw.Topics) - 1
	if gotIndexed < 0 {
		gotIndexed = 0
	}
	if len(indexed) != gotIndexed {
		return nil, &chain.IndexedTopicCountMismatchError{Expected: len(indexed), Got: gotIndexed}
	}

	decodeErrs := make(map[string]string)
	fields := values.NewTupleMap()

	for i, f := range indexed {
		topic := raw.Topics[i+1]
		abiType, err := canonicalToABIType(f.Type)
		if err != nil {
			return nil, &chain.AbiDecodeFailedError{Reason: fmt.Sprintf("indexed field %q: %v", f.Name, err)}
		}

		if isValueType(abiType) {
			v, err := decodeIndexedValueType(abiType, topic)
			if err != nil {
				return nil, &chain.AbiDecodeFailedError{Reason: fmt.Sprintf("indexed field %q: %v", f.Name, err)}
			}
			normalized, err := abiValueToNormalized(v, f.Type)
			if err != nil {
				return nil, &chain.AbiDecodeFailedError{Reason: fmt.Sprintf("indexed field %q: %v", f.Name, err)}
			}
			fields.Set(f.Name, normalized)
			continue
		}

		// Indexed reference type: the topic slot holds keccak256(value),
		// not the value itself. spec.md §4.3 rule 3.
		fields.Set(f.Name, values.NewHash256(fmt.Sprintf("0x%x", topic)))
		decodeErrs[f.Name] = "indexed reference type; value not recoverable, hash only"
	}

	if len(nonIndexed) > 0 || len(raw.Data) > 0 {
		nonIndexedVals, err := decodeNonIndexedTuple(nonIndexed, raw.Data)
		if err != nil {
			return nil, &chain.AbiDecodeFailedError{Reason: err.Error()}
		}
		for i, f := range nonIndexed {
			normalized, err := abiValueToNormalized(nonIndexedVals[i], f.Type)
			if err != nil {
				fields.Set(f.Name, values.Null())
				decodeErrs[f.Name] = err.Error()
				continue
			}
			fields.Set(f.Name, normalized)
		}
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

// decodeIndexedValueType unwraps a single 32-byte topic slot as a
// one-argument ABI tuple, letting go-ethereum's own decoder handle
// sign extension, address low-20-byte extraction, and left-aligned
// bytesN — rather than reimplementing that bit-twiddling by hand.
func decodeIndexedValueType(t abi.Type, topic []byte) (interface{}, error) {
	args := abi.Arguments{{Type: t}}
	out, err := args.UnpackValues(topic)
	if err != nil {
		return nil, err
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("expected exactly one unpacked value, got %d", len(out))
	}
	return out[0], nil
}

// decodeNonIndexedTuple decodes the log's data payload as one
// positional tuple of the schema's non-indexed field types, using
// go-ethereum's head/tail machinery atomically: any structural
// failure here (truncation, offset overflow) fails the whole event,
// per spec.md §4.3.
func decodeNonIndexedTuple(fields []schema.FieldDef, data []byte) ([]interface{}, error) {
	args := make(abi.Arguments, len(fields))
	for i, f := range fields {
		t, err := canonicalToABIType(f.Type)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Name, err)
		}
		args[i] = abi.Argument{Name: f.Name, Type: t}
	}
	return args.UnpackValues(data)
}
