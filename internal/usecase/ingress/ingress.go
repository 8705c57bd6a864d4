// Package ingress implements IngressCoordinator: the two-stage fan-in from
// one decoder thread through K producer threads onto the engine's shard
// rings, preserving the single-producer invariant on every shard ring.
package ingress

import (
	"runtime"
	"sync"
	"sync/atomic"

	orderv1 "github.com/muhammadchandra19/exchange/internal/domain/order/v1"
	"github.com/muhammadchandra19/exchange/internal/usecase/engine"
	"github.com/muhammadchandra19/exchange/internal/usecase/ringbuffer"
	pkgerrors "github.com/muhammadchandra19/exchange/pkg/errors"
	"github.com/muhammadchandra19/exchange/pkg/logger"
)

// Options configures the producer tier.
type Options struct {
	NumProducers    int
	MailboxCapacity int
}

// Coordinator bridges a single decoder to NumProducers producer goroutines,
// each exclusively owning the shards {j | j mod NumProducers == producerIdx}.
type Coordinator struct {
	eng          *engine.Engine
	numProducers int
	mailboxes    []*ringbuffer.Buffer[orderv1.Order]
	log          *logger.Logger

	running atomic.Bool
	wg      sync.WaitGroup
}

// New constructs a Coordinator with one mailbox per producer, each sized
// opts.MailboxCapacity (which must be a positive power of two).
func New(eng *engine.Engine, opts Options, log *logger.Logger) (*Coordinator, error) {
	if opts.NumProducers <= 0 {
		return nil, pkgerrors.NewErrorDetails(
			"ingress requires at least one producer",
			string(pkgerrors.GeneralBadRequestError),
			"numProducers",
		)
	}

	mailboxes := make([]*ringbuffer.Buffer[orderv1.Order], opts.NumProducers)
	for i := range mailboxes {
		mb, err := ringbuffer.New[orderv1.Order](opts.MailboxCapacity)
		if err != nil {
			return nil, err
		}
		mailboxes[i] = mb
	}

	return &Coordinator{
		eng:          eng,
		numProducers: opts.NumProducers,
		mailboxes:    mailboxes,
		log:          log,
	}, nil
}

func (c *Coordinator) producerOf(shardIdx int) int {
	return shardIdx % c.numProducers
}

// SubmitFromDecoder computes the destination shard and producer for o and
// busy-spins until it is enqueued into that producer's mailbox. This is the
// only function the decoder thread calls; it never touches a shard ring
// directly.
func (c *Coordinator) SubmitFromDecoder(o orderv1.Order) {
	shardIdx := c.eng.ShardFor(o.SymbolID)
	producer := c.producerOf(shardIdx)
	c.mailboxes[producer].SpinEnqueue(o)
}

// Start launches one goroutine per producer, each draining its mailbox and
// forwarding to the engine.
func (c *Coordinator) Start() {
	if !c.running.CompareAndSwap(false, true) {
		return
	}
	for i := 0; i < c.numProducers; i++ {
		c.wg.Add(1)
		go c.producerLoop(i)
	}
}

// Stop flips the running flag; each producer finishes draining its mailbox
// before exiting.
func (c *Coordinator) Stop() {
	c.running.Store(false)
}

// Wait blocks until every producer goroutine has exited.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

func (c *Coordinator) producerLoop(producerIdx int) {
	defer c.wg.Done()

	mailbox := c.mailboxes[producerIdx]
	var o orderv1.Order
	for {
		if mailbox.TryDequeue(&o) {
			shardIdx := c.eng.ShardFor(o.SymbolID)
			for !c.eng.EnqueueToShard(shardIdx, o) {
				runtime.Gosched()
			}
			continue
		}
		if !c.running.Load() {
			return
		}
		runtime.Gosched()
	}
}
