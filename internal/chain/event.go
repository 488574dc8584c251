// Package chain holds the chain-agnostic record types the rest of
// ChainCodec is built around: RawEvent in, DecodedEvent/DecodedCall
// out, keyed by an EventFingerprint, plus the EventDecoder interface
// the batch and stream engines drive without knowing which concrete
// chain family they're talking to.
package chain

import (
	"strings"

	"github.com/chaincodec/chaincodec/internal/values"
)

// EventFingerprint is the opaque routing key between a raw event and
// its schema: keccak256(signature) for EVM, sha256("event:"+name)[0:8]
// for Anchor, sha256("event:"+type+"/"+action)[0:16] for Cosmos. The
// registry never interprets the bytes, only compares them.
type EventFingerprint string

// ZeroFingerprint never matches any registered schema; it's what an
// EVM RawEvent with no topics maps to.
const ZeroFingerprint EventFingerprint = "0x0000000000000000000000000000000000000000000000000000000000000000"

func (f EventFingerprint) String() string { return string(f) }

// Equal compares fingerprints case-insensitively, since hex casing is
// not semantically meaningful.
func (f EventFingerprint) Equal(other EventFingerprint) bool {
	return strings.EqualFold(string(f), string(other))
}

// RawEvent is the chain-agnostic input to every decoder: an EVM log,
// an Anchor event, or a Cosmos ABCI event, still in wire form.
type RawEvent struct {
	Chain           values.ChainId
	TxHash          string
	BlockNumber     uint64
	BlockTimestamp  int64
	LogIndex        *uint64
	Address         string
	Topics          [][]byte // empty for non-EVM chains
	Data            []byte
	Removed         bool // reorg rollback marker, set by the log source
	RawReceipt      []byte // opaque passthrough, never interpreted by the core
}

// DecodedEvent is the typed output of a successful (possibly
// partially-failed-per-field) event decode.
type DecodedEvent struct {
	SchemaName    string
	SchemaVersion uint32
	Chain         values.ChainId
	TxHash        string
	BlockNumber   uint64
	BlockTime     int64
	LogIndex      *uint64
	Address       string
	Fields        *values.TupleMap
	Fingerprint   EventFingerprint
	DecodeErrors  map[string]string
}

// DecodedCall is the typed output of decoding a transaction's calldata
// against an ABI function or constructor entry.
type DecodedCall struct {
	FunctionName string
	Selector     []byte // nil for constructors
	Inputs       []NamedValue
	DecodeErrors map[string]string
}

// NamedValue pairs a declared parameter name with its decoded value,
// preserving ABI declaration order.
type NamedValue struct {
	Name  string
	Value values.Value
}
