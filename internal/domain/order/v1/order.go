// Package orderv1 defines the submission unit accepted by a shard: an
// operation tag plus its payload, following the numeric-cents, integer-qty
// conventions of the core.
package orderv1

// Op represents the operation an Order carries.
type Op string

const (
	// OpNew submits a brand-new order.
	OpNew Op = "new"
	// OpCancel cancels a resting order by id.
	OpCancel Op = "cancel"
	// OpReplace atomically cancels and re-adds a resting order.
	OpReplace Op = "replace"
)

// Side represents which side of the book an order rests on or aggresses against.
type Side string

const (
	// SideBuy is the bid side.
	SideBuy Side = "buy"
	// SideSell is the ask side.
	SideSell Side = "sell"
)

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// Type represents whether an order carries a limit price or sweeps the book.
type Type string

const (
	// TypeLimit is a priced order.
	TypeLimit Type = "limit"
	// TypeMarket ignores price and sweeps available liquidity.
	TypeMarket Type = "market"
)

// TIF represents time-in-force.
type TIF string

const (
	// TIFDay rests any unfilled residual.
	TIFDay TIF = "day"
	// TIFIOC fills what it can immediately and discards the residual.
	TIFIOC TIF = "ioc"
	// TIFFOK requires the full quantity to fill immediately or nothing happens.
	TIFFOK TIF = "fok"
)

// Order is a submission from outside the engine: id is caller-assigned and
// must be unique across the lifetime of a run.
type Order struct {
	ID         uint64
	SymbolID   uint32
	Op         Op
	Side       Side
	Type       Type
	TIF        TIF
	PostOnly   bool
	PriceCents int64
	Qty        int32

	// TargetID identifies the resting order a Cancel or Replace acts on.
	TargetID uint64
	// NewPriceCents and NewQty carry Replace's requested new terms; zero
	// means "keep the old value" per the shard's replace dispatch.
	NewPriceCents int64
	NewQty        int32
}

// RestingOrder is the copy a book holds: an Order stripped of operation
// metadata, plus enough identity to be located and mutated in place.
type RestingOrder struct {
	ID         uint64
	SymbolID   uint32
	Side       Side
	PriceCents int64
	Qty        int32
}
