// Package orderbook implements the price-time-priority limit order book:
// two price-ordered ladders with O(1) best-level access and an id-index for
// O(1) cancel/replace, per symbol per shard.
package orderbook

import (
	"container/list"
	"sort"

	orderv1 "github.com/muhammadchandra19/exchange/internal/domain/order/v1"
	pkgerrors "github.com/muhammadchandra19/exchange/pkg/errors"
)

// priceLevel is a FIFO of resting orders at one price. Arrivals append to
// the tail; matching consumes from the head. list.List gives O(1) insertion
// at either end and O(1) erase of an arbitrary element without moving or
// invalidating references to the others — exactly what the id-index needs
// to stay valid across unrelated cancels.
type priceLevel struct {
	priceCents int64
	orders     *list.List // of *orderv1.RestingOrder
	qtySum     int64
}

func newPriceLevel(priceCents int64) *priceLevel {
	return &priceLevel{priceCents: priceCents, orders: list.New()}
}

// ladder is one side of a book: a set of price levels kept in priority
// order (bids descending, asks ascending) so the best level is always
// index 0.
type ladder struct {
	side     orderv1.Side
	byPrice  map[int64]*priceLevel
	sorted   []*priceLevel
	better   func(a, b int64) bool // true if price a has priority over price b
}

func newLadder(side orderv1.Side) *ladder {
	var better func(a, b int64) bool
	if side == orderv1.SideBuy {
		better = func(a, b int64) bool { return a > b } // bids: highest first
	} else {
		better = func(a, b int64) bool { return a < b } // asks: lowest first
	}
	return &ladder{
		side:    side,
		byPrice: make(map[int64]*priceLevel),
		better:  better,
	}
}

func (l *ladder) best() *priceLevel {
	if len(l.sorted) == 0 {
		return nil
	}
	return l.sorted[0]
}

// getOrCreate returns the level at priceCents, inserting it at the correct
// sorted position if it doesn't exist yet.
func (l *ladder) getOrCreate(priceCents int64) *priceLevel {
	if lvl, ok := l.byPrice[priceCents]; ok {
		return lvl
	}
	lvl := newPriceLevel(priceCents)
	l.byPrice[priceCents] = lvl

	idx := sort.Search(len(l.sorted), func(i int) bool {
		return l.better(l.sorted[i].priceCents, priceCents) == false
	})
	l.sorted = append(l.sorted, nil)
	copy(l.sorted[idx+1:], l.sorted[idx:])
	l.sorted[idx] = lvl
	return lvl
}

// removeIfEmpty removes lvl from the ladder once it has no resting orders.
// Empty levels must not survive past the next best-level observation.
func (l *ladder) removeIfEmpty(lvl *priceLevel) {
	if lvl.orders.Len() > 0 {
		return
	}
	delete(l.byPrice, lvl.priceCents)
	idx := -1
	for i, v := range l.sorted {
		if v == lvl {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	l.sorted = append(l.sorted[:idx], l.sorted[idx+1:]...)
}

// locator is the id-index entry: where exactly a live resting order sits.
type locator struct {
	level *priceLevel
	elem  *list.Element
}

// Book is one symbol's order book within one shard.
type Book struct {
	symbolID uint32
	bids     *ladder
	asks     *ladder
	idIndex  map[uint64]locator
}

// New constructs an empty book for symbolID.
func New(symbolID uint32) *Book {
	return &Book{
		symbolID: symbolID,
		bids:     newLadder(orderv1.SideBuy),
		asks:     newLadder(orderv1.SideSell),
		idIndex:  make(map[uint64]locator),
	}
}

func (b *Book) ladderFor(side orderv1.Side) *ladder {
	if side == orderv1.SideBuy {
		return b.bids
	}
	return b.asks
}

// AddBid appends a resting buy order to its price level. Fails if the id is
// already present anywhere in the book.
func (b *Book) AddBid(order *orderv1.RestingOrder) error {
	return b.add(orderv1.SideBuy, order)
}

// AddAsk appends a resting sell order to its price level. Fails if the id is
// already present anywhere in the book.
func (b *Book) AddAsk(order *orderv1.RestingOrder) error {
	return b.add(orderv1.SideSell, order)
}

func (b *Book) add(side orderv1.Side, order *orderv1.RestingOrder) error {
	if _, exists := b.idIndex[order.ID]; exists {
		return pkgerrors.NewErrorDetails(
			"order id already resting in book",
			string(pkgerrors.ErrDuplicateOrderID),
			"id",
		)
	}
	order.Side = side
	lvl := b.ladderFor(side).getOrCreate(order.PriceCents)
	elem := lvl.orders.PushBack(order)
	lvl.qtySum += int64(order.Qty)
	b.idIndex[order.ID] = locator{level: lvl, elem: elem}
	return nil
}

// BestBid returns the highest bid price, or ok=false if the bid side is empty.
func (b *Book) BestBid() (priceCents int64, ok bool) {
	lvl := b.bids.best()
	if lvl == nil {
		return 0, false
	}
	return lvl.priceCents, true
}

// BestAsk returns the lowest ask price, or ok=false if the ask side is empty.
func (b *Book) BestAsk() (priceCents int64, ok bool) {
	lvl := b.asks.best()
	if lvl == nil {
		return 0, false
	}
	return lvl.priceCents, true
}

// Lookup returns the live resting order for id without removing it, or
// ok=false if id is not resting in this book. Used by Replace dispatch to
// read the old price/qty before building the replacement.
func (b *Book) Lookup(id uint64) (order *orderv1.RestingOrder, ok bool) {
	loc, found := b.idIndex[id]
	if !found {
		return nil, false
	}
	return loc.elem.Value.(*orderv1.RestingOrder), true
}

// PeekBestBid returns the oldest resting order at the best bid level, or
// ok=false if the bid side is empty. The returned pointer is read-only:
// callers must not mutate Qty directly, since the level's qtySum would then
// drift out of sync. Use FillBestBid to consume quantity against it.
func (b *Book) PeekBestBid() (order *orderv1.RestingOrder, ok bool) {
	return peek(b.bids)
}

// PeekBestAsk is the ask-side analogue of PeekBestBid.
func (b *Book) PeekBestAsk() (order *orderv1.RestingOrder, ok bool) {
	return peek(b.asks)
}

func peek(l *ladder) (*orderv1.RestingOrder, bool) {
	lvl := l.best()
	if lvl == nil {
		return nil, false
	}
	front := lvl.orders.Front()
	if front == nil {
		return nil, false
	}
	return front.Value.(*orderv1.RestingOrder), true
}

// PopBestBid removes the head of the best bid level, purging the id-index
// entry and eagerly removing the level if it becomes empty.
func (b *Book) PopBestBid() (order *orderv1.RestingOrder, ok bool) {
	return b.popBest(b.bids)
}

// PopBestAsk is the ask-side analogue of PopBestBid.
func (b *Book) PopBestAsk() (order *orderv1.RestingOrder, ok bool) {
	return b.popBest(b.asks)
}

func (b *Book) popBest(l *ladder) (*orderv1.RestingOrder, bool) {
	lvl := l.best()
	if lvl == nil {
		return nil, false
	}
	front := lvl.orders.Front()
	if front == nil {
		return nil, false
	}
	order := front.Value.(*orderv1.RestingOrder)
	lvl.orders.Remove(front)
	lvl.qtySum -= int64(order.Qty)
	delete(b.idIndex, order.ID)
	l.removeIfEmpty(lvl)
	return order, true
}

// FillBestBid consumes up to qty from the oldest resting buy order at the
// best bid level, keeping qtySum and the id-index consistent as it goes.
// Returns the resting order's id and price, the quantity actually filled
// (min(qty, the order's remaining Qty)), and ok=false if the bid side is
// empty. The order is popped automatically once fully consumed. This is the
// only path that may reduce a resting order's size; matching code must route
// every fill through it rather than mutating Qty on a peeked order.
func (b *Book) FillBestBid(qty int32) (restingID uint64, restingPriceCents int64, filled int32, ok bool) {
	return b.fillBest(b.bids, qty)
}

// FillBestAsk is the ask-side analogue of FillBestBid.
func (b *Book) FillBestAsk(qty int32) (restingID uint64, restingPriceCents int64, filled int32, ok bool) {
	return b.fillBest(b.asks, qty)
}

func (b *Book) fillBest(l *ladder, qty int32) (uint64, int64, int32, bool) {
	lvl := l.best()
	if lvl == nil {
		return 0, 0, 0, false
	}
	front := lvl.orders.Front()
	if front == nil {
		return 0, 0, 0, false
	}
	resting := front.Value.(*orderv1.RestingOrder)

	filled := qty
	if resting.Qty < filled {
		filled = resting.Qty
	}
	resting.Qty -= filled
	lvl.qtySum -= int64(filled)

	id, price := resting.ID, resting.PriceCents
	if resting.Qty == 0 {
		lvl.orders.Remove(front)
		delete(b.idIndex, id)
		l.removeIfEmpty(lvl)
	}
	return id, price, filled, true
}

// CancelByID excises the resting order with the given id, preserving the
// order of every other resting order at its level. Returns false if the id
// is unknown.
func (b *Book) CancelByID(id uint64) bool {
	loc, ok := b.idIndex[id]
	if !ok {
		return false
	}
	order := loc.elem.Value.(*orderv1.RestingOrder)
	loc.level.orders.Remove(loc.elem)
	loc.level.qtySum -= int64(order.Qty)
	delete(b.idIndex, id)
	b.ladderFor(order.Side).removeIfEmpty(loc.level)
	return true
}

// ReplaceByID atomically cancels oldID and adds replacement on its side.
// Fails if oldID is not found; the book is left unchanged in that case.
func (b *Book) ReplaceByID(oldID uint64, replacement *orderv1.RestingOrder) error {
	if _, ok := b.idIndex[oldID]; !ok {
		return pkgerrors.NewErrorDetails(
			"replace target not found",
			string(pkgerrors.ErrOrderNotFound),
			"targetId",
		)
	}
	b.CancelByID(oldID)
	return b.add(replacement.Side, replacement)
}

// AvailableAskUpTo sums ask-side quantity at prices no worse than priceCents
// (i.e. priceCents or lower). Used for FOK eligibility on a Buy.
func (b *Book) AvailableAskUpTo(priceCents int64) int64 {
	var sum int64
	for _, lvl := range b.asks.sorted {
		if lvl.priceCents > priceCents {
			break
		}
		sum += lvl.qtySum
	}
	return sum
}

// AvailableBidDownTo sums bid-side quantity at prices no worse than
// priceCents (i.e. priceCents or higher). Used for FOK eligibility on a Sell.
func (b *Book) AvailableBidDownTo(priceCents int64) int64 {
	var sum int64
	for _, lvl := range b.bids.sorted {
		if lvl.priceCents < priceCents {
			break
		}
		sum += lvl.qtySum
	}
	return sum
}

// AvailableAskTotal sums quantity across the entire ask side, with no price
// bound. Used for FOK eligibility on a market Buy.
func (b *Book) AvailableAskTotal() int64 {
	var sum int64
	for _, lvl := range b.asks.sorted {
		sum += lvl.qtySum
	}
	return sum
}

// AvailableBidTotal sums quantity across the entire bid side, with no price
// bound. Used for FOK eligibility on a market Sell.
func (b *Book) AvailableBidTotal() int64 {
	var sum int64
	for _, lvl := range b.bids.sorted {
		sum += lvl.qtySum
	}
	return sum
}

// Crossed reports whether the book is internally crossed (bestBid >= bestAsk
// with both sides non-empty). Used by tests; replace dispatch does not call it.
func (b *Book) Crossed() bool {
	bid, bidOk := b.BestBid()
	ask, askOk := b.BestAsk()
	return bidOk && askOk && bid >= ask
}

// SymbolID returns the symbol this book belongs to.
func (b *Book) SymbolID() uint32 {
	return b.symbolID
}
