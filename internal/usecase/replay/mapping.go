package replay

import (
	feedv1 "github.com/muhammadchandra19/exchange/internal/domain/feed/v1"
	orderv1 "github.com/muhammadchandra19/exchange/internal/domain/order/v1"
)

// ExecuteMapping selects how feed Execute rows are translated, per the
// ambiguity recorded in the design notes: the source is unclear on whether
// an Execute should be replayed as a fresh aggressor or as a direct
// decrement of the named resting order.
type ExecuteMapping int

const (
	// ExecuteAsIOCMarket replays an Execute as a synthetic IOC market order
	// on the aggressor's side, incrementing the trade count the way a live
	// aggressor would. This is the default.
	ExecuteAsIOCMarket ExecuteMapping = iota
	// ExecuteAsRestingDecrement replays an Execute as a Replace that sets
	// the named resting order's quantity directly to the feed's qty field,
	// with no synthetic trade emitted. Use this when the feed is known to
	// carry post-execution remaining size rather than a separate fill report.
	ExecuteAsRestingDecrement
)

// translate maps one feed event to the Order a shard would accept, under
// symbolID and the configured ExecuteMapping. ok is false for actions the
// driver does not forward (Unknown).
func translate(evt feedv1.Event, symbolID uint32, mapping ExecuteMapping) (orderv1.Order, bool) {
	switch evt.Action {
	case feedv1.Add:
		return orderv1.Order{
			ID:         evt.OrderID,
			SymbolID:   symbolID,
			Op:         orderv1.OpNew,
			Side:       feedSide(evt.Side),
			Type:       orderv1.TypeLimit,
			TIF:        orderv1.TIFDay,
			PriceCents: evt.PriceCents,
			Qty:        evt.Qty,
		}, true

	case feedv1.Cancel, feedv1.Delete:
		return orderv1.Order{
			ID:       evt.OrderID,
			SymbolID: symbolID,
			Op:       orderv1.OpCancel,
			TargetID: evt.OrderID,
		}, true

	case feedv1.Replace:
		newPrice := evt.NewPriceCents
		if newPrice == 0 {
			newPrice = evt.PriceCents
		}
		newQty := evt.NewQty
		if newQty == 0 {
			newQty = evt.Qty
		}
		return orderv1.Order{
			ID:            evt.OrderID,
			SymbolID:      symbolID,
			Op:            orderv1.OpReplace,
			TargetID:      evt.OrderID,
			NewPriceCents: newPrice,
			NewQty:        newQty,
		}, true

	case feedv1.Execute:
		if mapping == ExecuteAsRestingDecrement {
			return orderv1.Order{
				ID:            evt.OrderID,
				SymbolID:      symbolID,
				Op:            orderv1.OpReplace,
				TargetID:      evt.OrderID,
				NewPriceCents: evt.PriceCents,
				NewQty:        evt.Qty,
			}, true
		}
		return orderv1.Order{
			ID:       evt.OrderID,
			SymbolID: symbolID,
			Op:       orderv1.OpNew,
			Side:     executeAggressorSide(evt),
			Type:     orderv1.TypeMarket,
			TIF:      orderv1.TIFIOC,
			Qty:      evt.Qty,
		}, true

	default:
		return orderv1.Order{}, false
	}
}

func feedSide(s feedv1.Side) orderv1.Side {
	if s == feedv1.SideSell {
		return orderv1.SideSell
	}
	return orderv1.SideBuy
}

// executeAggressorSide resolves the aggressing side out of an Execute row:
// when the feed's orderId already names the aggressor, its side is the
// aggressor's side; otherwise the orderId names the resting order and the
// aggressor is on the opposite side.
func executeAggressorSide(evt feedv1.Event) orderv1.Side {
	side := feedSide(evt.Side)
	if evt.ExecutionIsAggressor {
		return side
	}
	return side.Opposite()
}
