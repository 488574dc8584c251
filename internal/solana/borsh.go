package solana

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/btcsuite/btcutil/base58"

	"github.com/chaincodec/chaincodec/internal/chain"
	"github.com/chaincodec/chaincodec/internal/schema"
	"github.com/chaincodec/chaincodec/internal/values"
)

// borshReader is a forward-only cursor over a Borsh-encoded byte
// stream. Every read method returns an error the moment there aren't
// enough bytes left, which decodeFieldsBorsh promotes to a whole-event
// AbiDecodeFailedError per spec.md §4.7 ("truncation... fails the
// event").
type borshReader struct {
	buf []byte
	pos int
}

func newBorshReader(data []byte) *borshReader {
	return &borshReader{buf: data}
}

func (r *borshReader) take(n int) ([]byte, error) {
	if r.pos+n > len(r.buf) {
		return nil, fmt.Errorf("borsh: need %d bytes at offset %d, have %d", n, r.pos, len(r.buf)-r.pos)
	}
	out := r.buf[r.pos : r.pos+n]
	r.pos += n
	return out, nil
}

func (r *borshReader) readUint(bits uint16) (*big.Int, error) {
	n := int(bits) / 8
	b, err := r.take(n)
	if err != nil {
		return nil, err
	}
	// Borsh integers are little-endian; reverse into big-endian for
	// big.Int.SetBytes.
	be := make([]byte, n)
	for i, c := range b {
		be[n-1-i] = c
	}
	return new(big.Int).SetBytes(be), nil
}

func (r *borshReader) readInt(bits uint16) (*big.Int, error) {
	u, err := r.readUint(bits)
	if err != nil {
		return nil, err
	}
	// Two's-complement sign extension from the declared bit width.
	half := new(big.Int).Lsh(big.NewInt(1), uint(bits-1))
	if u.Cmp(half) >= 0 {
		full := new(big.Int).Lsh(big.NewInt(1), uint(bits))
		u = new(big.Int).Sub(u, full)
	}
	return u, nil
}

func (r *borshReader) readBool() (bool, error) {
	b, err := r.take(1)
	if err != nil {
		return false, err
	}
	if b[0] > 1 {
		return false, fmt.Errorf("borsh: invalid bool byte 0x%x", b[0])
	}
	return b[0] == 1, nil
}

func (r *borshReader) readPubkey() (string, error) {
	b, err := r.take(32)
	if err != nil {
		return "", err
	}
	return base58.Encode(b), nil
}

func (r *borshReader) readU32Len() (int, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return int(binary.LittleEndian.Uint32(b)), nil
}

func (r *borshReader) readBytes() ([]byte, error) {
	n, err := r.readU32Len()
	if err != nil {
		return nil, err
	}
	return r.take(n)
}

func (r *borshReader) readString() (string, error) {
	b, err := r.readBytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *borshReader) readOptionTag() (bool, error) {
	b, err := r.take(1)
	if err != nil {
		return false, err
	}
	switch b[0] {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fmt.Errorf("borsh: invalid Option tag 0x%x", b[0])
	}
}

// decodeFieldsBorsh consumes r positionally in schema field order,
// per spec.md §4.7's type-by-type rules. Nullable fields are treated
// as Borsh Option<T> (a leading tag byte); every other type is read
// unconditionally.
func decodeFieldsBorsh(r *borshReader, fields []schema.FieldDef, decodeErrs map[string]string) (*values.TupleMap, error) {
	out := values.NewTupleMap()
	for _, f := range fields {
		if f.Nullable {
			present, err := r.readOptionTag()
			if err != nil {
				return nil, &chain.AbiDecodeFailedError{Reason: fmt.Sprintf("field %q: %v", f.Name, err)}
			}
			if !present {
				out.Set(f.Name, values.Null())
				continue
			}
		}
		v, err := decodeBorshValue(r, f.Type)
		if err != nil {
			return nil, &chain.AbiDecodeFailedError{Reason: fmt.Sprintf("field %q: %v", f.Name, err)}
		}
		out.Set(f.Name, v)
	}
	return out, nil
}

func decodeBorshValue(r *borshReader, ct values.CanonicalType) (values.Value, error) {
	switch ct.Kind {
	case values.KUint:
		n, err := r.readUint(ct.Bits)
		if err != nil {
			return values.Value{}, err
		}
		return values.NewUintFromBig(n), nil

	case values.KInt:
		n, err := r.readInt(ct.Bits)
		if err != nil {
			return values.Value{}, err
		}
		return values.NewIntFromBig(n), nil

	case values.KBool:
		b, err := r.readBool()
		if err != nil {
			return values.Value{}, err
		}
		return values.NewBool(b), nil

	case values.KPubkey:
		s, err := r.readPubkey()
		if err != nil {
			return values.Value{}, err
		}
		return values.NewPubkey(s), nil

	case values.KBytes:
		if ct.FixedLen > 0 {
			b, err := r.take(ct.FixedLen)
			if err != nil {
				return values.Value{}, err
			}
			return values.NewBytes(b), nil
		}
		b, err := r.readBytes()
		if err != nil {
			return values.Value{}, err
		}
		return values.NewBytes(b), nil

	case values.KStr:
		s, err := r.readString()
		if err != nil {
			return values.Value{}, err
		}
		return values.NewStr(s), nil

	case values.KHash256:
		b, err := r.take(32)
		if err != nil {
			return values.Value{}, err
		}
		return values.NewHash256(fmt.Sprintf("0x%x", b)), nil

	case values.KTimestamp:
		n, err := r.readInt(64)
		if err != nil {
			return values.Value{}, err
		}
		return values.NewTimestamp(n.Int64()), nil

	case values.KDecimal:
		n, err := r.readUint(128)
		if err != nil {
			return values.Value{}, err
		}
		return values.NewDecimalScaled(n, ct.Scale)

	case values.KArray:
		length := ct.ArrayLen
		if length == 0 {
			n, err := r.readU32Len()
			if err != nil {
				return values.Value{}, err
			}
			length = n
		}
		out := make([]values.Value, length)
		for i := 0; i < length; i++ {
			v, err := decodeBorshValue(r, *ct.Elem)
			if err != nil {
				return values.Value{}, fmt.Errorf("element %d: %w", i, err)
			}
			out[i] = v
		}
		return values.NewArray(out), nil

	case values.KTuple:
		m := values.NewTupleMap()
		for _, f := range ct.Fields {
			v, err := decodeBorshValue(r, f.Type)
			if err != nil {
				return values.Value{}, fmt.Errorf("field %q: %w", f.Name, err)
			}
			m.Set(f.Name, v)
		}
		return values.NewTuple(m), nil

	default:
		return values.Value{}, fmt.Errorf("solana: canonical type %q has no Borsh representation", ct.Kind)
	}
}
