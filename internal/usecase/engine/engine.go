// Package engine implements MatchingEngine: the array of shards, canonical
// symbol routing, start/shutdown lifecycle, and engine-level observability
// counters.
package engine

import (
	"sync"
	"sync/atomic"

	eventv1 "github.com/muhammadchandra19/exchange/internal/domain/event/v1"
	orderv1 "github.com/muhammadchandra19/exchange/internal/domain/order/v1"
	tradev1 "github.com/muhammadchandra19/exchange/internal/domain/trade/v1"
	"github.com/muhammadchandra19/exchange/internal/usecase/ringbuffer"
	"github.com/muhammadchandra19/exchange/internal/usecase/shard"
	pkgerrors "github.com/muhammadchandra19/exchange/pkg/errors"
	"github.com/muhammadchandra19/exchange/pkg/logger"
)

// Options configures the engine and is forwarded to every shard.
type Options struct {
	NumShards        int
	RingCapacity     int
	MaxLevels        int
	MaxQty           int64
	MaxNotionalCents int64
}

// DefaultOptions returns a four-shard engine with the shard package's
// reference caps.
func DefaultOptions() Options {
	shardOpts := shard.DefaultOptions()
	return Options{
		NumShards:        4,
		RingCapacity:     shardOpts.RingCapacity,
		MaxLevels:        shardOpts.MaxLevels,
		MaxQty:           shardOpts.MaxQty,
		MaxNotionalCents: shardOpts.MaxNotionalCents,
	}
}

// Engine owns the shard array and exposes shard-targeted enqueue and
// per-shard reader handles.
type Engine struct {
	shards []*shard.Shard
	log    *logger.Logger

	running  atomic.Bool
	enqueued atomic.Uint64
	dropped  atomic.Uint64

	wg sync.WaitGroup
}

// New constructs an Engine with opts.NumShards shards, each with a ring of
// opts.RingCapacity (which must be a positive power of two).
func New(opts Options, log *logger.Logger) (*Engine, error) {
	if opts.NumShards <= 0 {
		return nil, pkgerrors.NewErrorDetails(
			"engine requires at least one shard",
			string(pkgerrors.GeneralBadRequestError),
			"numShards",
		)
	}

	shardOpts := shard.Options{
		RingCapacity:     opts.RingCapacity,
		MaxLevels:        opts.MaxLevels,
		MaxQty:           opts.MaxQty,
		MaxNotionalCents: opts.MaxNotionalCents,
	}

	shards := make([]*shard.Shard, opts.NumShards)
	for i := range shards {
		sh, err := shard.New(i, shardOpts, log)
		if err != nil {
			return nil, err
		}
		shards[i] = sh
	}

	return &Engine{shards: shards, log: log}, nil
}

// ShardCount returns the number of shards.
func (e *Engine) ShardCount() int { return len(e.shards) }

// ShardFor computes the canonical shard of symbolID: symbolId mod shardCount.
func (e *Engine) ShardFor(symbolID uint32) int {
	return int(symbolID % uint32(len(e.shards)))
}

// Start launches every shard worker in its own goroutine. Idempotent:
// calling Start while already running is a no-op. A fresh Start after a
// prior Shutdown resets the engine-level enqueued/dropped counters as well
// as every shard's processed/trades/events counters and trade-id sequence.
func (e *Engine) Start() {
	if !e.running.CompareAndSwap(false, true) {
		return
	}

	e.enqueued.Store(0)
	e.dropped.Store(0)

	for _, sh := range e.shards {
		sh.ResetCounters()
		sh.Start()
	}
	for _, sh := range e.shards {
		e.wg.Add(1)
		go func(sh *shard.Shard) {
			defer e.wg.Done()
			sh.Run()
		}(sh)
	}

	if e.log != nil {
		e.log.Info("engine started", logger.NewField("shards", len(e.shards)))
	}
}

// Shutdown flips every shard's running flag and waits for all workers to
// drain their order rings and exit. Idempotent: repeated calls after the
// first are a no-op.
func (e *Engine) Shutdown() {
	if !e.running.CompareAndSwap(true, false) {
		return
	}

	for _, sh := range e.shards {
		sh.Stop()
	}
	e.wg.Wait()

	if e.log != nil {
		e.log.Info("engine stopped")
	}
}

// EnqueueToShard enqueues o into shard shardIdx's order ring. The caller
// must be the sole producer for that shard. Returns false (and counts a
// drop) if the engine is stopped or the ring is full.
func (e *Engine) EnqueueToShard(shardIdx int, o orderv1.Order) bool {
	if !e.running.Load() {
		e.dropped.Add(1)
		return false
	}
	if e.shards[shardIdx].OrderRing().TryEnqueue(o) {
		e.enqueued.Add(1)
		return true
	}
	e.dropped.Add(1)
	return false
}

// WriterForShard returns the raw SPSC writer handle for shardIdx's order
// ring, for the highest-throughput submission paths.
func (e *Engine) WriterForShard(shardIdx int) *ringbuffer.Buffer[orderv1.Order] {
	return e.shards[shardIdx].OrderRing()
}

// TradeReaderForShard returns the consumer handle for shardIdx's trade ring.
func (e *Engine) TradeReaderForShard(shardIdx int) *ringbuffer.Buffer[tradev1.Trade] {
	return e.shards[shardIdx].TradeRing()
}

// EventReaderForShard returns the consumer handle for shardIdx's event ring.
func (e *Engine) EventReaderForShard(shardIdx int) *ringbuffer.Buffer[eventv1.Event] {
	return e.shards[shardIdx].EventRing()
}

// Shard returns the shard at shardIdx, for admin operations such as setting
// per-symbol session status.
func (e *Engine) Shard(shardIdx int) *shard.Shard {
	return e.shards[shardIdx]
}

// EnqueuedCount returns the number of orders successfully enqueued across
// all shards since the last Start.
func (e *Engine) EnqueuedCount() uint64 { return e.enqueued.Load() }

// DroppedCount returns the number of orders dropped (stopped engine or full
// ring) since the last Start.
func (e *Engine) DroppedCount() uint64 { return e.dropped.Load() }

// ProcessedCount sums every shard's processed-order counter.
func (e *Engine) ProcessedCount() uint64 {
	var total uint64
	for _, sh := range e.shards {
		total += sh.ProcessedCount()
	}
	return total
}

// TradesCount sums every shard's emitted-trade counter.
func (e *Engine) TradesCount() uint64 {
	var total uint64
	for _, sh := range e.shards {
		total += sh.TradesEmittedCount()
	}
	return total
}
