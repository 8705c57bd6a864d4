// Package tradev1 defines the completed-match record a shard emits on its
// trade ring.
package tradev1

// Trade is a completed match between an aggressing and a resting order.
// TradeID is strictly increasing within the shard that produced it.
type Trade struct {
	TradeID    uint64
	SymbolID   uint32
	PriceCents int64
	Qty        int32
	BuyOrderID uint64
	SellOrderID uint64
}
