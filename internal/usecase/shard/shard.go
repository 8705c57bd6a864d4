// Package shard implements the per-shard worker: a single goroutine that
// dequeues orders from one inbound ring, dispatches them against the books
// it owns, and emits trades/events on two outbound rings. Everything a
// Shard touches is touched by exactly one goroutine.
package shard

import (
	"runtime"
	"sync/atomic"

	eventv1 "github.com/muhammadchandra19/exchange/internal/domain/event/v1"
	orderv1 "github.com/muhammadchandra19/exchange/internal/domain/order/v1"
	sessionv1 "github.com/muhammadchandra19/exchange/internal/domain/session/v1"
	tradev1 "github.com/muhammadchandra19/exchange/internal/domain/trade/v1"
	"github.com/muhammadchandra19/exchange/internal/usecase/orderbook"
	"github.com/muhammadchandra19/exchange/internal/usecase/ringbuffer"
	"github.com/muhammadchandra19/exchange/pkg/errors"
	"github.com/muhammadchandra19/exchange/pkg/logger"
)

// Options configures ring sizing and market-order sweep caps for one shard.
type Options struct {
	RingCapacity     int
	MaxLevels        int
	MaxQty           int64
	MaxNotionalCents int64
}

// DefaultOptions returns the reference caps: 128 levels, effectively
// unbounded qty/notional unless the caller tightens them.
func DefaultOptions() Options {
	return Options{
		RingCapacity:     4096,
		MaxLevels:        128,
		MaxQty:           1 << 40,
		MaxNotionalCents: 1 << 62,
	}
}

// Shard owns one inbound order ring, two outbound rings, a books map, and a
// per-symbol session-status map. A single worker goroutine runs Run.
type Shard struct {
	idx  int
	opts Options
	log  *logger.Logger

	orders *ringbuffer.Buffer[orderv1.Order]
	trades *ringbuffer.Buffer[tradev1.Trade]
	events *ringbuffer.Buffer[eventv1.Event]

	books  map[uint32]*orderbook.Book
	status map[uint32]sessionv1.Status

	running    atomic.Bool
	nextTrade  atomic.Uint64
	processed  atomic.Uint64
	tradesOK   atomic.Uint64
	tradesDrop atomic.Uint64
	eventsDrop atomic.Uint64
}

// New constructs a Shard with its own rings, sized per opts.RingCapacity.
func New(idx int, opts Options, log *logger.Logger) (*Shard, error) {
	orders, err := ringbuffer.New[orderv1.Order](opts.RingCapacity)
	if err != nil {
		return nil, err
	}
	trades, err := ringbuffer.New[tradev1.Trade](opts.RingCapacity)
	if err != nil {
		return nil, err
	}
	events, err := ringbuffer.New[eventv1.Event](opts.RingCapacity)
	if err != nil {
		return nil, err
	}
	return &Shard{
		idx:    idx,
		opts:   opts,
		log:    log,
		orders: orders,
		trades: trades,
		events: events,
		books:  make(map[uint32]*orderbook.Book),
		status: make(map[uint32]sessionv1.Status),
	}, nil
}

// Index returns this shard's position in the engine's shard array.
func (s *Shard) Index() int { return s.idx }

// OrderRing returns the inbound SPSC ring. The caller must be the sole
// producer; the engine enforces this by routing every order for a symbol
// to exactly one shard.
func (s *Shard) OrderRing() *ringbuffer.Buffer[orderv1.Order] { return s.orders }

// TradeRing returns the outbound trade ring.
func (s *Shard) TradeRing() *ringbuffer.Buffer[tradev1.Trade] { return s.trades }

// EventRing returns the outbound event ring.
func (s *Shard) EventRing() *ringbuffer.Buffer[eventv1.Event] { return s.events }

// SetStatus sets the trading-session status for a symbol. Symbols default
// to Open on first reference if never set.
func (s *Shard) SetStatus(symbolID uint32, status sessionv1.Status) {
	s.status[symbolID] = status
}

// Start marks the shard running. Call before spawning Run in a goroutine.
func (s *Shard) Start() { s.running.Store(true) }

// ResetCounters zeroes every observability counter, including the trade-id
// sequence. The caller must ensure Run is not concurrently active.
func (s *Shard) ResetCounters() {
	s.nextTrade.Store(0)
	s.processed.Store(0)
	s.tradesOK.Store(0)
	s.tradesDrop.Store(0)
	s.eventsDrop.Store(0)
}

// Stop flips the running flag; Run observes it once its order ring drains
// and returns.
func (s *Shard) Stop() { s.running.Store(false) }

// Run is the worker's tight dispatch loop. It dequeues and processes orders
// until the ring is empty and the shard has been stopped.
func (s *Shard) Run() {
	var o orderv1.Order
	for {
		if s.orders.TryDequeue(&o) {
			s.process(&o)
			continue
		}
		if !s.running.Load() {
			return
		}
		runtime.Gosched()
	}
}

// ProcessedCount returns the number of orders this shard has dispatched.
func (s *Shard) ProcessedCount() uint64 { return s.processed.Load() }

// TradesEmittedCount returns the number of trades successfully enqueued.
func (s *Shard) TradesEmittedCount() uint64 { return s.tradesOK.Load() }

// TradesDroppedCount returns the number of trades dropped because the trade
// ring was full.
func (s *Shard) TradesDroppedCount() uint64 { return s.tradesDrop.Load() }

// EventsDroppedCount returns the number of events dropped because the event
// ring was full.
func (s *Shard) EventsDroppedCount() uint64 { return s.eventsDrop.Load() }

// Book returns the book for symbolID, creating it lazily if this is the
// first reference.
func (s *Shard) Book(symbolID uint32) *orderbook.Book {
	return s.bookFor(symbolID)
}

func (s *Shard) bookFor(symbolID uint32) *orderbook.Book {
	b, ok := s.books[symbolID]
	if !ok {
		b = orderbook.New(symbolID)
		s.books[symbolID] = b
	}
	return b
}

func (s *Shard) statusFor(symbolID uint32) sessionv1.Status {
	st, ok := s.status[symbolID]
	if !ok {
		return sessionv1.Open
	}
	return st
}

func (s *Shard) process(o *orderv1.Order) {
	defer s.processed.Add(1)

	book := s.bookFor(o.SymbolID)
	status := s.statusFor(o.SymbolID)

	if status != sessionv1.Open && o.Op != orderv1.OpCancel {
		s.emitReject(o, string(errors.ErrSessionNotOpen))
		return
	}

	switch o.Op {
	case orderv1.OpCancel:
		s.dispatchCancel(book, o)
	case orderv1.OpReplace:
		s.dispatchReplace(book, o)
	case orderv1.OpNew:
		switch o.Type {
		case orderv1.TypeLimit:
			s.matchLimit(book, o)
		case orderv1.TypeMarket:
			s.matchMarket(book, o)
		}
	}
}

func (s *Shard) dispatchCancel(book *orderbook.Book, o *orderv1.Order) {
	if book.CancelByID(o.TargetID) {
		s.tryEmitEvent(eventv1.Event{
			Kind:      eventv1.KindAckCancel,
			OrderID:   o.ID,
			RelatedID: o.TargetID,
			SymbolID:  o.SymbolID,
		})
		return
	}
	s.emitReject(o, string(errors.ErrOrderNotFound))
}

func (s *Shard) dispatchReplace(book *orderbook.Book, o *orderv1.Order) {
	old, ok := book.Lookup(o.TargetID)
	if !ok {
		s.emitReject(o, string(errors.ErrOrderNotFound))
		return
	}

	newPrice := o.NewPriceCents
	if newPrice == 0 {
		newPrice = old.PriceCents
	}
	newQty := o.NewQty
	if newQty <= 0 {
		newQty = old.Qty
	}

	replacement := &orderv1.RestingOrder{
		ID:         o.TargetID,
		SymbolID:   o.SymbolID,
		Side:       old.Side,
		PriceCents: newPrice,
		Qty:        newQty,
	}

	if err := book.ReplaceByID(o.TargetID, replacement); err != nil {
		s.emitReject(o, string(errors.ErrOrderNotFound))
		return
	}

	s.tryEmitEvent(eventv1.Event{
		Kind:       eventv1.KindAckReplace,
		OrderID:    o.ID,
		RelatedID:  o.TargetID,
		SymbolID:   o.SymbolID,
		Side:       replacement.Side,
		PriceCents: replacement.PriceCents,
	})
}

// matchLimit implements 4.3.1: FOK/Post-Only pre-checks, then price-time
// priority matching against the opposite side, then resting or discarding
// the residual per TIF.
func (s *Shard) matchLimit(book *orderbook.Book, o *orderv1.Order) {
	if o.TIF == orderv1.TIFFOK {
		var avail int64
		if o.Side == orderv1.SideBuy {
			avail = book.AvailableAskUpTo(o.PriceCents)
		} else {
			avail = book.AvailableBidDownTo(o.PriceCents)
		}
		if avail < int64(o.Qty) {
			s.emitReject(o, string(errors.ErrFOKUnavailable))
			return
		}
	}

	if o.PostOnly {
		if o.Side == orderv1.SideBuy {
			if ask, ok := book.BestAsk(); ok && ask <= o.PriceCents {
				s.emitReject(o, string(errors.ErrPostOnlyCross))
				return
			}
		} else {
			if bid, ok := book.BestBid(); ok && bid >= o.PriceCents {
				s.emitReject(o, string(errors.ErrPostOnlyCross))
				return
			}
		}
	}

	remaining := o.Qty
	for remaining > 0 {
		resting, ok := peekOpposite(book, o.Side)
		if !ok {
			break
		}
		if !crosses(o.Side, o.PriceCents, resting.PriceCents) {
			break
		}

		restingID, restingPrice, fillQty, _ := fillOpposite(book, o.Side, remaining)
		remaining -= fillQty

		s.emitFill(o, restingID, restingPrice, fillQty, remaining)
	}

	if remaining > 0 && o.TIF != orderv1.TIFIOC && o.TIF != orderv1.TIFFOK {
		rest := &orderv1.RestingOrder{
			ID:         o.ID,
			SymbolID:   o.SymbolID,
			Side:       o.Side,
			PriceCents: o.PriceCents,
			Qty:        remaining,
		}
		if o.Side == orderv1.SideBuy {
			_ = book.AddBid(rest)
		} else {
			_ = book.AddAsk(rest)
		}
		s.tryEmitEvent(eventv1.Event{
			Kind:         eventv1.KindAckNew,
			OrderID:      o.ID,
			SymbolID:     o.SymbolID,
			Side:         o.Side,
			PriceCents:   o.PriceCents,
			RemainingQty: remaining,
		})
	}
}

// matchMarket implements 4.3.2: a price-blind sweep bounded by maxLevels,
// cumulative filled quantity, and cumulative notional. Market orders never
// rest; any residual is discarded.
func (s *Shard) matchMarket(book *orderbook.Book, o *orderv1.Order) {
	if o.TIF == orderv1.TIFFOK {
		var avail int64
		if o.Side == orderv1.SideBuy {
			avail = book.AvailableAskTotal()
		} else {
			avail = book.AvailableBidTotal()
		}
		if avail < int64(o.Qty) {
			s.emitReject(o, string(errors.ErrFOKUnavailable))
			return
		}
	}

	remaining := o.Qty
	levelsSwept := 0
	lastPrice := int64(0)
	haveLast := false
	var filled, notional int64

	for remaining > 0 {
		resting, ok := peekOpposite(book, o.Side)
		if !ok {
			break
		}

		if !haveLast || resting.PriceCents != lastPrice {
			if levelsSwept >= s.opts.MaxLevels {
				break
			}
			levelsSwept++
			lastPrice = resting.PriceCents
			haveLast = true
		}

		fillQty := minQty(remaining, resting.Qty)
		prospectiveFilled := filled + int64(fillQty)
		prospectiveNotional := notional + int64(fillQty)*resting.PriceCents
		if prospectiveFilled > s.opts.MaxQty || prospectiveNotional > s.opts.MaxNotionalCents {
			break
		}

		restingID, restingPrice, filledQty, _ := fillOpposite(book, o.Side, fillQty)
		remaining -= filledQty
		filled = prospectiveFilled
		notional = prospectiveNotional

		s.emitFill(o, restingID, restingPrice, filledQty, remaining)
	}
}

func (s *Shard) emitFill(aggressor *orderv1.Order, restingID uint64, restingPriceCents int64, fillQty, remaining int32) {
	tradeID := s.nextTrade.Add(1)

	var buyID, sellID uint64
	if aggressor.Side == orderv1.SideBuy {
		buyID, sellID = aggressor.ID, restingID
	} else {
		buyID, sellID = restingID, aggressor.ID
	}

	trade := tradev1.Trade{
		TradeID:     tradeID,
		SymbolID:    aggressor.SymbolID,
		PriceCents:  restingPriceCents,
		Qty:         fillQty,
		BuyOrderID:  buyID,
		SellOrderID: sellID,
	}
	if s.trades.TryEnqueue(trade) {
		s.tradesOK.Add(1)
	} else {
		s.tradesDrop.Add(1)
	}

	s.tryEmitEvent(eventv1.Event{
		Kind:         eventv1.KindExec,
		OrderID:      aggressor.ID,
		RelatedID:    restingID,
		SymbolID:     aggressor.SymbolID,
		Side:         aggressor.Side,
		PriceCents:   restingPriceCents,
		FillQty:      fillQty,
		RemainingQty: remaining,
		Liquidity:    eventv1.LiquidityTaker,
	})
}

func (s *Shard) emitReject(o *orderv1.Order, reason string) {
	s.tryEmitEvent(eventv1.Event{
		Kind:         eventv1.KindReject,
		OrderID:      o.ID,
		RelatedID:    o.TargetID,
		SymbolID:     o.SymbolID,
		Side:         o.Side,
		PriceCents:   o.PriceCents,
		RemainingQty: o.Qty,
		RejectReason: reason,
	})
}

// tryEmitEvent is non-blocking; a full event ring counts as capacity loss
// and execution continues (4.3.3).
func (s *Shard) tryEmitEvent(evt eventv1.Event) {
	if !s.events.TryEnqueue(evt) {
		s.eventsDrop.Add(1)
		if s.log != nil {
			s.log.Warn("event ring full, dropping", logger.NewField("shard", s.idx), logger.NewField("kind", evt.Kind))
		}
	}
}

func peekOpposite(book *orderbook.Book, side orderv1.Side) (*orderv1.RestingOrder, bool) {
	if side == orderv1.SideBuy {
		return book.PeekBestAsk()
	}
	return book.PeekBestBid()
}

// fillOpposite commits a fill of up to qty against the best resting order on
// the side opposite the aggressor, routing through Book's own accounting so
// qtySum stays consistent with the resting order's remaining size.
func fillOpposite(book *orderbook.Book, side orderv1.Side, qty int32) (restingID uint64, restingPriceCents int64, filled int32, ok bool) {
	if side == orderv1.SideBuy {
		return book.FillBestAsk(qty)
	}
	return book.FillBestBid(qty)
}

// crosses reports whether a resting order at restingPrice would match an
// aggressor on side at limitPrice.
func crosses(side orderv1.Side, limitPrice, restingPrice int64) bool {
	if side == orderv1.SideBuy {
		return restingPrice <= limitPrice
	}
	return restingPrice >= limitPrice
}

func minQty(a, b int32) int32 {
	if a < b {
		return a
	}
	return b
}
