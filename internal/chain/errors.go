package chain

import "fmt"

// The error taxonomy below follows the teacher's sentinel-error idiom
// (internal/source/evm/types.go's ErrReorgDetected, checked with
// errors.Is) generalized to spec.md §7's kinds. Each kind is its own
// struct type carrying its context as fields, so callers that only
// care about the kind can match it with errors.As.

// SchemaNotFoundError means the registry has no schema for a
// fingerprint. The batch and stream engines treat this as "skip", not
// a failure — see internal/batch and internal/stream.
type SchemaNotFoundError struct {
	Fingerprint EventFingerprint
}

func (e *SchemaNotFoundError) Error() string {
	return fmt.Sprintf("schema not found for fingerprint %s", e.Fingerprint)
}

// FingerprintMismatchError means the raw event's topic[0]/discriminator
// does not equal the schema's fingerprint it was matched against.
type FingerprintMismatchError struct {
	Expected, Got EventFingerprint
}

func (e *FingerprintMismatchError) Error() string {
	return fmt.Sprintf("fingerprint mismatch: expected %s, got %s", e.Expected, e.Got)
}

// IndexedTopicCountMismatchError means an EVM schema's indexed-field
// count does not match len(topics)-1.
type IndexedTopicCountMismatchError struct {
	Expected, Got int
}

func (e *IndexedTopicCountMismatchError) Error() string {
	return fmt.Sprintf("indexed topic count mismatch: expected %d, got %d", e.Expected, e.Got)
}

// AbiDecodeFailedError is a structural decode failure: truncation,
// offset overflow, invalid utf-8. It fails the whole event/call,
// unlike a per-field decode_errors entry.
type AbiDecodeFailedError struct {
	Reason string
}

func (e *AbiDecodeFailedError) Error() string {
	return fmt.Sprintf("abi decode failed: %s", e.Reason)
}

// UnknownSelectorError means the call decoder has no function for a
// 4-byte selector.
type UnknownSelectorError struct {
	Selector [4]byte
}

func (e *UnknownSelectorError) Error() string {
	return fmt.Sprintf("unknown selector 0x%x", e.Selector[:])
}

// ArityMismatchError, ValueTypeMismatchError, and OutOfRangeError are
// the EVM encoder's input-validation errors.
type ArityMismatchError struct {
	Expected, Got int
}

func (e *ArityMismatchError) Error() string {
	return fmt.Sprintf("arity mismatch: expected %d args, got %d", e.Expected, e.Got)
}

type ValueTypeMismatchError struct {
	Index          int
	Expected, Got  string
}

func (e *ValueTypeMismatchError) Error() string {
	return fmt.Sprintf("value type mismatch at index %d: expected %s, got %s", e.Index, e.Expected, e.Got)
}

type OutOfRangeError struct {
	Index int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("value at index %d exceeds its declared bit width", e.Index)
}

// CsdlParseError is a schema-document parse failure.
type CsdlParseError struct {
	DocumentIndex int
	Reason        string
}

func (e *CsdlParseError) Error() string {
	return fmt.Sprintf("csdl document %d: %s", e.DocumentIndex, e.Reason)
}

// RegistryConflictKind distinguishes the two ways add() can fail.
type RegistryConflictKind string

const (
	ConflictDuplicateFingerprint  RegistryConflictKind = "duplicate_fingerprint"
	ConflictDuplicateNameVersion  RegistryConflictKind = "duplicate_name_version"
)

type RegistryConflictError struct {
	Kind RegistryConflictKind
}

func (e *RegistryConflictError) Error() string {
	return fmt.Sprintf("registry conflict: %s", e.Kind)
}

// StreamErrorKind enumerates the stream engine's terminal/notable
// conditions.
type StreamErrorKind string

const (
	StreamConnectionFailed StreamErrorKind = "connection_failed"
	StreamSubscribeTimeout StreamErrorKind = "subscribe_timeout"
	StreamClosed           StreamErrorKind = "closed"
	StreamLagged           StreamErrorKind = "lagged"
)

type StreamError struct {
	Kind    StreamErrorKind
	Lagged  int // populated when Kind == StreamLagged
	Wrapped error
}

func (e *StreamError) Error() string {
	if e.Kind == StreamLagged {
		return fmt.Sprintf("stream lagged: dropped %d messages", e.Lagged)
	}
	if e.Wrapped != nil {
		return fmt.Sprintf("stream error (%s): %v", e.Kind, e.Wrapped)
	}
	return fmt.Sprintf("stream error: %s", e.Kind)
}

func (e *StreamError) Unwrap() error { return e.Wrapped }
