// Package cosmos implements the ABCI attribute event decoder described
// in spec.md §4.8. Like internal/solana, there is no reference
// implementation to ground this on (the original workspace's Cosmos
// crate is a stub), so the decode logic follows spec.md's numbered
// rules directly.
package cosmos

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/chaincodec/chaincodec/internal/chain"
	"github.com/chaincodec/chaincodec/internal/schema"
	"github.com/chaincodec/chaincodec/internal/values"
)

// Decoder implements chain.EventDecoder for Cosmos ABCI events.
type Decoder struct{}

func NewDecoder() *Decoder { return &Decoder{} }

// Fingerprint computes sha256("event:"+type+"/"+action) truncated to
// 16 bytes, where type and action are the raw event's Topics[0] and
// Topics[1]; an event with fewer than two topics gets ZeroFingerprint.
func (*Decoder) Fingerprint(raw *chain.RawEvent) chain.EventFingerprint {
	if len(raw.Topics) < 2 {
		return chain.ZeroFingerprint
	}
	sum := sha256.Sum256([]byte(fmt.Sprintf("event:%s/%s", raw.Topics[0], raw.Topics[1])))
	return chain.EventFingerprint(fmt.Sprintf("0x%x", sum[:16]))
}

// attribute is one {key, value} pair as ABCI events serialize them.
type attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// DecodeEvent parses raw.Data as either a JSON array of {key,value}
// attributes or a flat JSON object, then maps each schema field by
// name, applying denomination-suffix stripping for Uint/Int fields
// per spec.md §4.8.
func (d *Decoder) DecodeEvent(raw *chain.RawEvent, s *schema.Schema) (*chain.DecodedEvent, error) {
	got := d.Fingerprint(raw)
	if !got.Equal(s.Fingerprint) {
		return nil, &chain.FingerprintMismatchError{Expected: s.Fingerprint, Got: got}
	}

	attrs, err := parseAttributes(raw.Data)
	if err != nil {
		return nil, &chain.AbiDecodeFailedError{Reason: err.Error()}
	}

	decodeErrs := make(map[string]string)
	fields := values.NewTupleMap()
	for _, f := range s.Fields {
		attrVal, ok := attrs[f.Name]
		if !ok {
			fields.Set(f.Name, values.Null())
			decodeErrs[f.Name] = "missing attribute"
			continue
		}
		v, err := normalizeAttribute(attrVal, f.Type)
		if err != nil {
			fields.Set(f.Name, values.Null())
			decodeErrs[f.Name] = err.Error()
			continue
		}
		fields.Set(f.Name, v)
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

// parseAttributes accepts either `[{"key":...,"value":...}, ...]` or a
// flat `{"key": "value", ...}` object, both of which appear in the
// wild depending on the ABCI event JSON encoder version.
func parseAttributes(data []byte) (map[string]string, error) {
	out := make(map[string]string)

	var asArray []attribute
	if err := json.Unmarshal(data, &asArray); err == nil {
		for _, a := range asArray {
			out[a.Key] = a.Value
		}
		return out, nil
	}

	var asObject map[string]string
	if err := json.Unmarshal(data, &asObject); err == nil {
		for k, v := range asObject {
			out[k] = v
		}
		return out, nil
	}

	return nil, fmt.Errorf("cosmos: data is neither an attribute array nor an object")
}

// normalizeAttribute converts one raw string attribute value into a
// NormalizedValue per the field's declared canonical type.
func normalizeAttribute(raw string, ct values.CanonicalType) (values.Value, error) {
	switch ct.Kind {
	case values.KUint:
		digits, ok := stripDenomSuffix(raw)
		if !ok {
			return values.Value{}, fmt.Errorf("empty numeric prefix")
		}
		n, ok := new(big.Int).SetString(digits, 10)
		if !ok {
			return values.Value{}, fmt.Errorf("not a base-10 integer: %q", digits)
		}
		return values.NewUintFromBig(n), nil

	case values.KInt:
		digits, ok := stripDenomSuffix(raw)
		if !ok {
			return values.Value{}, fmt.Errorf("empty numeric prefix")
		}
		n, ok := new(big.Int).SetString(digits, 10)
		if !ok {
			return values.Value{}, fmt.Errorf("not a base-10 integer: %q", digits)
		}
		return values.NewIntFromBig(n), nil

	case values.KDecimal:
		digits, ok := stripDenomSuffix(raw)
		if !ok {
			return values.Value{}, fmt.Errorf("empty numeric prefix")
		}
		n, ok := new(big.Int).SetString(digits, 10)
		if !ok {
			return values.Value{}, fmt.Errorf("not a base-10 integer: %q", digits)
		}
		return values.NewDecimalScaled(n, ct.Scale)

	case values.KBool:
		return values.NewBool(raw == "true"), nil

	case values.KBech32:
		return values.NewBech32(raw), nil

	case values.KStr:
		return values.NewStr(raw), nil

	case values.KTimestamp:
		n, ok := new(big.Int).SetString(raw, 10)
		if !ok {
			return values.Value{}, fmt.Errorf("not a unix timestamp: %q", raw)
		}
		return values.NewTimestamp(n.Int64()), nil

	default:
		return values.NewStr(raw), nil
	}
}

// stripDenomSuffix removes a trailing alphanumeric denomination suffix
// from a leading run of digits, e.g. "1000000uatom" -> "1000000". An
// empty numeric prefix (e.g. "uosmo" alone) reports ok=false, which
// the caller records as a decode_errors entry rather than guessing —
// per spec.md §9's resolution of that Open Question.
func stripDenomSuffix(raw string) (string, bool) {
	i := 0
	for i < len(raw) && raw[i] >= '0' && raw[i] <= '9' {
		i++
	}
	if i == 0 {
		return "", false
	}
	return raw[:i], true
}
