package csdl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chaincodec/chaincodec/internal/values"
)

// parseType implements the CSDL type grammar from spec.md §4.1:
//
//	uint<N> / int<N>            N a multiple of 8, 8..256 (EVM) or 8/16/32/64/128 (Solana)
//	address, pubkey, bech32address, bool, string (alias str), bytes, bytes<N>, hash256, timestamp
//	decimal{decimals=N}          N in 0..38
//	T[]                          dynamic array
//	T[N]                         fixed array
//	(T1,T2,...)                  anonymous tuple
//
// Whitespace inside brackets/parens is insignificant; the grammar is
// case-sensitive everywhere else.
func parseType(raw string) (values.CanonicalType, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return values.CanonicalType{}, fmt.Errorf("empty type")
	}

	// Array suffix binds loosest: strip it first and recurse on the
	// prefix, same as the CSDL grammar's right-to-left reading.
	if strings.HasSuffix(s, "]") {
		open := lastTopLevelIndex(s, '[')
		if open < 0 {
			return values.CanonicalType{}, fmt.Errorf("unbalanced '[' in type %q", s)
		}
		inner := s[:open]
		lenSpec := strings.TrimSpace(s[open+1 : len(s)-1])
		elemType, err := parseType(inner)
		if err != nil {
			return values.CanonicalType{}, err
		}
		if lenSpec == "" {
			return values.Array(elemType), nil
		}
		n, err := strconv.Atoi(lenSpec)
		if err != nil || n <= 0 {
			return values.CanonicalType{}, fmt.Errorf("invalid fixed array length %q in type %q", lenSpec, s)
		}
		return values.FixedArray(elemType, n), nil
	}

	// Anonymous tuple: (T1,T2,...)
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		parts, err := splitTopLevel(s[1:len(s)-1], ',')
		if err != nil {
			return values.CanonicalType{}, err
		}
		fields := make([]values.NamedType, 0, len(parts))
		for i, p := range parts {
			pt, err := parseType(p)
			if err != nil {
				return values.CanonicalType{}, fmt.Errorf("tuple element %d: %w", i, err)
			}
			fields = append(fields, values.NamedType{Name: fmt.Sprintf("_%d", i), Type: pt})
		}
		return values.Tuple(fields...), nil
	}

	// decimal{decimals=N}
	if strings.HasPrefix(s, "decimal{") && strings.HasSuffix(s, "}") {
		body := s[len("decimal{") : len(s)-1]
		kv := strings.SplitN(body, "=", 2)
		if len(kv) != 2 || strings.TrimSpace(kv[0]) != "decimals" {
			return values.CanonicalType{}, fmt.Errorf("invalid decimal type %q", s)
		}
		n, err := strconv.Atoi(strings.TrimSpace(kv[1]))
		if err != nil || n < 0 || n > 38 {
			return values.CanonicalType{}, fmt.Errorf("decimal scale out of range [0,38]: %q", s)
		}
		return values.Decimal(uint8(n)), nil
	}

	switch s {
	case "bool":
		return values.Bool(), nil
	case "address":
		return values.Address(values.FamilyEVM), nil
	case "pubkey":
		return values.Pubkey(), nil
	case "bech32address":
		return values.Bech32(), nil
	case "string", "str":
		return values.Str(), nil
	case "bytes":
		return values.Bytes(), nil
	case "hash256":
		return values.Hash256(), nil
	case "timestamp":
		return values.Timestamp(), nil
	}

	if strings.HasPrefix(s, "uint") {
		if n, ok := parseBitWidth(s[4:]); ok {
			return values.Uint(n), nil
		}
	}
	if strings.HasPrefix(s, "int") {
		if n, ok := parseBitWidth(s[3:]); ok {
			return values.Int(n), nil
		}
	}
	if strings.HasPrefix(s, "bytes") {
		if n, err := strconv.Atoi(s[5:]); err == nil && n >= 1 && n <= 32 {
			return values.BytesN(n), nil
		}
	}

	return values.CanonicalType{}, fmt.Errorf("unknown type %q", s)
}

func parseBitWidth(s string) (uint16, bool) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 || n%8 != 0 || n > 256 {
		return 0, false
	}
	return uint16(n), true
}

// lastTopLevelIndex finds the '[' matching the trailing ']', not
// nested inside another bracket pair (types don't nest brackets, but
// this keeps the parser honest about malformed input).
func lastTopLevelIndex(s string, open byte) int {
	depth := 0
	for i := len(s) - 2; i >= 0; i-- {
		switch s[i] {
		case ']':
			depth++
		case '[':
			if depth == 0 {
				return i
			}
			depth--
		}
	}
	return -1
}

// splitTopLevel splits on sep, ignoring occurrences nested inside
// parens or brackets (needed for tuple elements that are themselves
// arrays or nested tuples).
func splitTopLevel(s string, sep byte) ([]string, error) {
	var parts []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(', '[':
			depth++
		case ')', ']':
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("unbalanced brackets in %q", s)
			}
		case sep:
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, fmt.Errorf("unbalanced brackets in %q", s)
	}
	parts = append(parts, strings.TrimSpace(s[start:]))
	return parts, nil
}
