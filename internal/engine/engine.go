// Package engine dispatches incoming chain events to per-kind processors
// over a bounded worker pool. There is no global ordering across
// (actor, proposal) pairs; idempotency comes from the ledger's dedup
// key, not from sequencing.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/quorumworks/govscore/internal/config"
	"github.com/quorumworks/govscore/internal/event"
	"github.com/quorumworks/govscore/internal/metrics"
	"github.com/quorumworks/govscore/internal/processor"
	"github.com/quorumworks/govscore/internal/rules"
)

// ErrQueueFull is returned by ProcessSync when the event queue is at
// capacity; callers should shed load and retry.
var ErrQueueFull = errors.New("event queue full")

// Engine routes events to processors.
type Engine struct {
	registry *Registry
	tables   *rules.Provider
	pool     *workerPool[*eventWork]
	conf     *config.EngineConf
}

type eventResult struct {
	outcome *processor.Outcome
	err     error
}

type eventWork struct {
	ev      *event.ChainEvent
	resultC chan eventResult
}

// New creates an Engine using conf and starts the worker pool.
func New(ctx context.Context, reg *Registry, tables *rules.Provider, conf config.EngineConf) *Engine {
	e := &Engine{
		registry: reg,
		tables:   tables,
		conf:     &conf,
	}
	e.pool = newWorkerPool(ctx, conf.EventWorkers, conf.QueueDepth, func(ctx context.Context, w *eventWork) {
		out, err := e.process(ctx, w.ev)
		if w.resultC != nil {
			w.resultC <- eventResult{outcome: out, err: err}
			return
		}
		// Async ingestion: nobody is waiting, so failures must not
		// vanish. Terminal errors are logged with full context;
		// retryable ones are expected to come back via the caller's
		// redelivery.
		if err != nil {
			level := slog.LevelWarn
			if processor.IsTerminal(err) {
				level = slog.LevelError
			}
			slog.Log(ctx, level, "event processing failed",
				"event_id", w.ev.ID,
				"kind", w.ev.Kind,
				"network", w.ev.Network,
				"actor", w.ev.ActorAddress,
				"proposal", w.ev.Ref().String(),
				"err", err,
			)
		}
	})
	return e
}

// SwapTable atomically replaces the rule table (used on reload). Only
// events processed after the swap see the new deltas.
func (e *Engine) SwapTable(t *rules.Table) {
	e.tables.Swap(t)
	metrics.RuleTableReloads.Inc()
}

// ProcessSync processes an event and waits for its outcome.
func (e *Engine) ProcessSync(ctx context.Context, ev *event.ChainEvent) (*processor.Outcome, error) {
	resultC := make(chan eventResult, 1)
	w := &eventWork{ev: ev, resultC: resultC}

	if !e.pool.Submit(w) {
		metrics.EventsDropped.Inc()
		return nil, fmt.Errorf("%w (capacity %d)", ErrQueueFull, e.conf.QueueDepth)
	}
	metrics.EventsEnqueued.Inc()

	timeout := time.Duration(e.conf.EventTimeoutMs) * time.Millisecond
	select {
	case res := <-resultC:
		return res.outcome, res.err
	case <-time.After(timeout):
		return nil, processor.Retryable(fmt.Errorf("event processing timeout after %v", timeout))
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// ProcessAsync enqueues an event for background processing. Returns false
// if the queue is full.
func (e *Engine) ProcessAsync(ev *event.ChainEvent) bool {
	w := &eventWork{ev: ev}
	if !e.pool.Submit(w) {
		metrics.EventsDropped.Inc()
		return false
	}
	metrics.EventsEnqueued.Inc()
	return true
}

// QueueUtilization returns queue used / capacity (0–1).
func (e *Engine) QueueUtilization() float64 {
	if e.pool.QueueCap() == 0 {
		return 0
	}
	return float64(e.pool.QueueLen()) / float64(e.pool.QueueCap())
}

func (e *Engine) process(ctx context.Context, ev *event.ChainEvent) (*processor.Outcome, error) {
	start := time.Now()

	if err := ev.Validate(); err != nil {
		metrics.EventsProcessed.WithLabelValues(string(ev.Kind), "terminal").Inc()
		return nil, processor.Terminal(err)
	}

	p, err := e.registry.Get(ev.Kind)
	if err != nil {
		metrics.EventsProcessed.WithLabelValues(string(ev.Kind), "terminal").Inc()
		return nil, processor.Terminal(err)
	}

	out, err := p.Process(ctx, ev)
	metrics.EventProcessingDuration.Observe(float64(time.Since(start).Milliseconds()))

	switch {
	case err == nil && out.Status == processor.StatusDuplicate:
		metrics.EventsProcessed.WithLabelValues(string(ev.Kind), "duplicate").Inc()
	case err == nil:
		metrics.EventsProcessed.WithLabelValues(string(ev.Kind), "applied").Inc()
		metrics.ScoreDeltaApplied.WithLabelValues(string(out.Kind), string(out.Tier)).Inc()
	case processor.IsTerminal(err):
		metrics.EventsProcessed.WithLabelValues(string(ev.Kind), "terminal").Inc()
	default:
		metrics.EventsProcessed.WithLabelValues(string(ev.Kind), "retryable").Inc()
	}
	return out, err
}

// Shutdown drains the pool gracefully.
func (e *Engine) Shutdown() {
	e.pool.Drain()
}
