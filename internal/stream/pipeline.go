package stream

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/chaincodec/chaincodec/internal/chain"
	"github.com/chaincodec/chaincodec/internal/registry"
)

const (
	defaultConnectTimeout   = 30 * time.Second
	defaultSubscribeTimeout = 30 * time.Second
	defaultIngressCapacity  = 1024
	maxBackoffInterval      = 64 * time.Second
)

// Config parameterizes one chain's Pipeline.
type Config struct {
	ChainSlug        string
	Source           LogSource
	Decoder          chain.EventDecoder
	Registry         *registry.Memory
	IngressCapacity  int
	SubscriberBuffer int
	ConnectTimeout   time.Duration
	SubscribeTimeout time.Duration
	AllowList        []string // schema names; empty/nil means accept every schema
	Hooks            Hooks
}

// Pipeline runs one chain's LogSource → decode worker → broadcast bus,
// per spec.md §4.10's diagram. Zero value is not usable; build with
// NewPipeline.
type Pipeline struct {
	cfg     Config
	allow   map[string]struct{}
	ingress chan *chain.RawEvent

	mu      sync.Mutex
	subs    map[uint64]*subscriber
	nextID  uint64
	stopped bool

	connected atomic.Bool
	state     atomic.Value // ConnState
}

// NewPipeline builds a Pipeline. Run must be called to actually start
// the source loop and decode worker.
func NewPipeline(cfg Config) *Pipeline {
	if cfg.IngressCapacity <= 0 {
		cfg.IngressCapacity = defaultIngressCapacity
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = defaultConnectTimeout
	}
	if cfg.SubscribeTimeout <= 0 {
		cfg.SubscribeTimeout = defaultSubscribeTimeout
	}
	if cfg.Hooks == nil {
		cfg.Hooks = NoopHooks{}
	}
	var allow map[string]struct{}
	if len(cfg.AllowList) > 0 {
		allow = make(map[string]struct{}, len(cfg.AllowList))
		for _, n := range cfg.AllowList {
			allow[n] = struct{}{}
		}
	}
	p := &Pipeline{
		cfg:     cfg,
		allow:   allow,
		ingress: make(chan *chain.RawEvent, cfg.IngressCapacity),
		subs:    make(map[uint64]*subscriber),
	}
	p.state.Store(StateConnecting)
	return p
}

// IsConnected reports whether the source task is currently Running.
func (p *Pipeline) IsConnected() bool { return p.connected.Load() }

// State returns the source task's current position in the state machine.
func (p *Pipeline) State() ConnState { return p.state.Load().(ConnState) }

// Subscribe registers a new fan-out target and returns a handle whose
// C() channel receives decoded events until Unsubscribe or shutdown.
func (p *Pipeline) Subscribe() *Subscription {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextID++
	id := p.nextID
	sub := newSubscriber(p.cfg.SubscriberBuffer)
	if p.stopped {
		sub.closeSub()
	} else {
		p.subs[id] = sub
	}
	return &Subscription{id: id, sub: sub, p: p}
}

func (p *Pipeline) removeSubscriber(id uint64) {
	p.mu.Lock()
	sub, ok := p.subs[id]
	if ok {
		delete(p.subs, id)
	}
	p.mu.Unlock()
	if ok {
		sub.closeSub()
	}
}

// Run drives the source-connect/subscribe/backoff state machine and
// the decode worker until ctx is cancelled, then closes every
// subscriber's channel.
func (p *Pipeline) Run(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		p.sourceLoop(ctx)
	}()
	go func() {
		defer wg.Done()
		p.decodeWorker(ctx)
	}()
	wg.Wait()
	p.shutdownSubscribers()
}

func (p *Pipeline) setState(s ConnState) {
	p.state.Store(s)
	p.connected.Store(s == StateRunning)
	p.cfg.Hooks.OnStateChange(p.cfg.ChainSlug, s)
}

// sourceLoop implements the Connecting → Subscribed → Running →
// Disconnected → (backoff) → Connecting cycle. It stops draining once
// ctx is cancelled.
func (p *Pipeline) sourceLoop(ctx context.Context) {
	bo := backoff.NewExponentialBackOff()
	bo.MaxInterval = maxBackoffInterval
	bo.MaxElapsedTime = 0 // never give up; the caller controls lifetime via ctx

	for {
		if ctx.Err() != nil {
			return
		}

		p.setState(StateConnecting)
		connectCtx, cancel := context.WithTimeout(ctx, p.cfg.ConnectTimeout)
		err := p.cfg.Source.Connect(connectCtx)
		cancel()
		if err != nil {
			p.disconnectAndWait(ctx, bo)
			continue
		}

		p.setState(StateSubscribed)
		subCtx, cancel := context.WithTimeout(ctx, p.cfg.SubscribeTimeout)
		events, errs, err := p.cfg.Source.Subscribe(subCtx)
		cancel()
		if err != nil {
			_ = p.cfg.Source.Close()
			p.disconnectAndWait(ctx, bo)
			continue
		}

		p.setState(StateRunning)
		bo.Reset()
		if p.runUntilDrop(ctx, events, errs) {
			return
		}
		_ = p.cfg.Source.Close()
		p.disconnectAndWait(ctx, bo)
	}
}

// runUntilDrop forwards events into the bounded ingress queue (which
// applies backpressure to the source, per spec.md §4.10) until the
// subscription errors, its channel closes, or ctx is cancelled.
// Returns true when the caller should stop entirely (ctx cancelled).
func (p *Pipeline) runUntilDrop(ctx context.Context, events <-chan *chain.RawEvent, errs <-chan error) bool {
	for {
		select {
		case <-ctx.Done():
			return true
		case <-errs:
			return false
		case ev, ok := <-events:
			if !ok {
				return false
			}
			select {
			case p.ingress <- ev:
			case <-ctx.Done():
				return true
			}
		}
	}
}

func (p *Pipeline) disconnectAndWait(ctx context.Context, bo *backoff.ExponentialBackOff) {
	p.setState(StateDisconnected)
	wait := bo.NextBackOff()
	if wait == backoff.Stop {
		wait = maxBackoffInterval
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// decodeWorker is the single per-chain decode worker: it resolves each
// raw event's schema via the registry, decodes it, applies the
// removed-flag and allow-list filters, and hands survivors to the
// broadcast bus.
func (p *Pipeline) decodeWorker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case raw, ok := <-p.ingress:
			if !ok {
				return
			}
			if raw.Removed {
				continue
			}
			fp := p.cfg.Decoder.Fingerprint(raw)
			sc, ok := p.cfg.Registry.ByFingerprint(fp)
			if !ok {
				continue // no schema: silently dropped, not an error (mirrors batch's skip semantics)
			}
			if p.allow != nil {
				if _, ok := p.allow[sc.Name]; !ok {
					continue
				}
			}
			decoded, err := p.cfg.Decoder.DecodeEvent(raw, sc)
			if err != nil {
				p.cfg.Hooks.OnDecodeError(p.cfg.ChainSlug, err)
				continue
			}
			p.broadcast(decoded)
		}
	}
}

func (p *Pipeline) broadcast(ev *chain.DecodedEvent) {
	p.mu.Lock()
	targets := make([]*subscriber, 0, len(p.subs))
	for _, s := range p.subs {
		targets = append(targets, s)
	}
	p.mu.Unlock()

	for _, s := range targets {
		if n := s.deliver(ev); n > 0 {
			p.cfg.Hooks.OnLag(p.cfg.ChainSlug, n)
		}
	}
}

func (p *Pipeline) shutdownSubscribers() {
	p.mu.Lock()
	p.stopped = true
	subs := p.subs
	p.subs = make(map[uint64]*subscriber)
	p.mu.Unlock()
	for _, s := range subs {
		s.closeSub()
	}
}
