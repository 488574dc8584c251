// Package batch implements the chunk-parallel decode engine of
// spec.md §4.9: partition a slice of RawEvents into chunks, decode
// each chunk's events sequentially, run chunks concurrently across
// workers, and reassemble in input order.
package batch

import (
	"context"
	"runtime"
	"strconv"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/chaincodec/chaincodec/internal/chain"
	"github.com/chaincodec/chaincodec/internal/registry"
)

// ErrorMode selects how a chunk's per-event decode failures surface.
type ErrorMode string

const (
	// Skip drops decode failures silently.
	Skip ErrorMode = "skip"
	// Collect gathers decode failures alongside the successes.
	Collect ErrorMode = "collect"
	// Throw aborts the whole batch on the first decode failure.
	Throw ErrorMode = "throw"
)

// ProgressFunc is invoked after each chunk completes, funneled through
// a single mutex so at most one call is ever in flight. It must not
// block for long, since it runs on a worker goroutine.
type ProgressFunc func(eventsDone, totalEvents int)

// Request is the input to Run: the slug of the chain the events came
// from (carried on the request; Run drives the decoder it is passed
// and does not look one up by slug), the raw events to decode, and how
// to chunk/handle errors along the way.
type Request struct {
	ChainSlug    string
	Raws         []*chain.RawEvent
	ChunkSize    int
	ErrorMode    ErrorMode
	ProgressCB   ProgressFunc
}

// ItemError pairs a decode failure with its position in the original
// input slice, per spec.md §4.9's Collect mode.
type ItemError struct {
	InputIndex int
	Err        error
}

// Result is the batch's output: total_input is always len(Request.Raws)
// regardless of skip/error counts, so callers can reconcile the three
// buckets.
type Result struct {
	Events     []*chain.DecodedEvent
	Errors     []ItemError
	Skipped    int
	TotalInput int
}

// ThrowError is returned by Run when ErrorMode is Throw and a chunk
// hits a decode failure; partial successes are discarded per spec.
type ThrowError struct {
	InputIndex int
	Cause      error
}

func (e *ThrowError) Error() string {
	return "batch aborted at input index " + strconv.Itoa(e.InputIndex) + ": " + e.Cause.Error()
}

func (e *ThrowError) Unwrap() error { return e.Cause }

// slot is a chunk's result, decoded sequentially and later stitched
// back into input order by chunk index.
type slot struct {
	events []*chain.DecodedEvent
	errs   []ItemError
	skipped int
}

// Run executes req against decoder/reg. Chunks run concurrently up to
// runtime.NumCPU() workers; within a chunk, events decode in order.
func Run(ctx context.Context, req Request, decoder chain.EventDecoder, reg *registry.Memory) (*Result, error) {
	n := len(req.Raws)
	if n == 0 {
		return &Result{TotalInput: 0}, nil
	}

	chunkSize := req.ChunkSize
	if chunkSize <= 0 {
		if c := n / runtime.NumCPU(); c > 1 {
			chunkSize = c
		} else {
			chunkSize = 1
		}
	}

	numChunks := (n + chunkSize - 1) / chunkSize
	slots := make([]slot, numChunks)

	var progressMu sync.Mutex
	done := 0
	reportProgress := func(delta int) {
		if req.ProgressCB == nil {
			return
		}
		progressMu.Lock()
		done += delta
		req.ProgressCB(done, n)
		progressMu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for c := 0; c < numChunks; c++ {
		c := c
		start := c * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}

		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			s := slot{}
			for i := start; i < end; i++ {
				raw := req.Raws[i]
				fp := decoder.Fingerprint(raw)
				sc, ok := reg.ByFingerprint(fp)
				if !ok {
					s.skipped++
					continue
				}
				ev, err := decoder.DecodeEvent(raw, sc)
				if err != nil {
					switch req.ErrorMode {
					case Skip:
						continue
					case Throw:
						return &ThrowError{InputIndex: i, Cause: err}
					default: // Collect
						s.errs = append(s.errs, ItemError{InputIndex: i, Err: err})
						continue
					}
				}
				s.events = append(s.events, ev)
			}
			slots[c] = s
			reportProgress(end - start)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &Result{TotalInput: n}
	for _, s := range slots {
		res.Events = append(res.Events, s.events...)
		res.Errors = append(res.Errors, s.errs...)
		res.Skipped += s.skipped
	}
	return res, nil
}
