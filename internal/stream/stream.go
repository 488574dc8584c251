// Package stream implements the per-chain live decode pipeline of
// spec.md §4.10: an external LogSource feeds a bounded raw queue, a
// single decode worker resolves schemas against the registry, and a
// broadcast bus fans decoded events out to any number of subscribers
// without letting a slow subscriber stall the pipeline.
package stream

import (
	"context"

	"github.com/chaincodec/chaincodec/internal/chain"
)

// LogSource is the abstract async producer the engine drives. The
// reference implementation (internal/evm.LogSource) wraps an EVM
// eth_subscribe("logs", filter) websocket, but nothing in this
// package knows that.
type LogSource interface {
	// Connect establishes the underlying transport and blocks until
	// ready or ctx is done.
	Connect(ctx context.Context) error

	// Subscribe issues the subscription request and returns a channel
	// of raw events plus an error channel that fires (or closes) when
	// the underlying transport drops the subscription.
	Subscribe(ctx context.Context) (events <-chan *chain.RawEvent, errs <-chan error, err error)

	// Close tears down the transport. Safe to call after an error.
	Close() error
}

// ConnState is a source task's position in the state machine described
// by spec.md §4.10.
type ConnState string

const (
	StateConnecting   ConnState = "connecting"
	StateSubscribed   ConnState = "subscribed"
	StateRunning      ConnState = "running"
	StateDisconnected ConnState = "disconnected"
)

// Message is what a subscriber receives: a decoded event, or (when
// Lagged > 0) a marker that the bus dropped Lagged older messages for
// this subscriber before delivering Event.
type Message struct {
	Event  *chain.DecodedEvent
	Lagged int
}

// Hooks lets a caller observe the pipeline without the core importing
// a concrete metrics package (spec.md §1 keeps observability counters
// out of the core contract; internal/telemetry supplies a real Hooks).
type Hooks interface {
	OnStateChange(chainSlug string, state ConnState)
	OnDecodeError(chainSlug string, err error)
	OnLag(chainSlug string, n int)
}

// NoopHooks discards every callback; the zero value of Config uses it.
type NoopHooks struct{}

func (NoopHooks) OnStateChange(string, ConnState) {}
func (NoopHooks) OnDecodeError(string, error)     {}
func (NoopHooks) OnLag(string, int)               {}
