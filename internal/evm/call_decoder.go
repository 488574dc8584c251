package evm

import (
	"github.com/chaincodec/chaincodec/internal/chain"
	"github.com/chaincodec/chaincodec/internal/schema"
)

// FunctionByName looks up a parsed function entry by its declared
// name, for callers building an encode_call request.
func (s *ABISpec) FunctionByName(name string) (*FunctionEntry, bool) {
	fe, ok := s.byName[name]
	return fe, ok
}

// DecodeCall implements spec.md §4.4's decode_call: selector lookup,
// then a positional tuple decode of the tail bytes. hint disambiguates
// a selector collision by function name; real ABIs never collide, but
// the hint path exists so callers can supply one defensively.
func (s *ABISpec) DecodeCall(calldata []byte, hint string) (*chain.DecodedCall, error) {
	if len(calldata) < 4 {
		return nil, &chain.AbiDecodeFailedError{Reason: "calldata shorter than 4 bytes"}
	}
	var selector [4]byte
	copy(selector[:], calldata[:4])

	fe, ok := s.functions[selector]
	if hint != "" {
		if byHint, hok := s.byName[hint]; hok && byHint.Selector == selector {
			fe, ok = byHint, true
		}
	}
	if !ok {
		return nil, &chain.UnknownSelectorError{Selector: selector}
	}

	inputs, decodeErrs, err := decodeArgTuple(fe.Inputs, calldata[4:])
	if err != nil {
		return nil, err
	}

	sel := append([]byte(nil), selector[:]...)
	return &chain.DecodedCall{
		FunctionName: fe.Name,
		Selector:     sel,
		Inputs:       inputs,
		DecodeErrors: decodeErrs,
	}, nil
}

// DecodeConstructor implements decode_constructor: the entire byte
// string (no selector prefix) decoded as the constructor's input
// tuple.
func (s *ABISpec) DecodeConstructor(calldata []byte) (*chain.DecodedCall, error) {
	if s.constructor == nil {
		return &chain.DecodedCall{FunctionName: "constructor"}, nil
	}
	inputs, decodeErrs, err := decodeArgTuple(s.constructor.Inputs, calldata)
	if err != nil {
		return nil, err
	}
	return &chain.DecodedCall{
		FunctionName: "constructor",
		Inputs:       inputs,
		DecodeErrors: decodeErrs,
	}, nil
}

// decodeArgTuple reuses decodeNonIndexedTuple's atomic head/tail
// decode by wrapping NamedFields as schema.FieldDefs (a function's
// inputs and a schema's non-indexed fields decode identically — both
// are one positional ABI tuple).
func decodeArgTuple(fields []NamedField, data []byte) ([]chain.NamedValue, map[string]string, error) {
	defs := make([]schema.FieldDef, len(fields))
	for i, f := range fields {
		defs[i] = schema.FieldDef{Name: f.Name, Type: f.Type}
	}
	rawVals, err := decodeNonIndexedTuple(defs, data)
	if err != nil {
		return nil, nil, &chain.AbiDecodeFailedError{Reason: err.Error()}
	}

	decodeErrs := make(map[string]string)
	out := make([]chain.NamedValue, len(fields))
	for i, f := range fields {
		normalized, err := abiValueToNormalized(rawVals[i], f.Type)
		if err != nil {
			decodeErrs[f.Name] = err.Error()
			out[i] = chain.NamedValue{Name: f.Name}
			continue
		}
		out[i] = chain.NamedValue{Name: f.Name, Value: normalized}
	}
	if len(decodeErrs) == 0 {
		decodeErrs = nil
	}
	return out, decodeErrs, nil
}
