// Package eventv1 defines the order-lifecycle event record a shard emits on
// its event ring for every significant transition.
package eventv1

import orderv1 "github.com/muhammadchandra19/exchange/internal/domain/order/v1"

// Kind represents the type of lifecycle transition an Event reports.
type Kind string

const (
	// KindAckNew acknowledges a new limit order whose unfilled residual was
	// rested in the book. A new order that fills in full, or whose residual is
	// discarded (IOC, market), gets Exec events only.
	KindAckNew Kind = "ack_new"
	// KindAckCancel acknowledges a cancel succeeded.
	KindAckCancel Kind = "ack_cancel"
	// KindAckReplace acknowledges a replace succeeded.
	KindAckReplace Kind = "ack_replace"
	// KindReject reports a semantic precondition failure; the book is unchanged.
	KindReject Kind = "reject"
	// KindExec reports a fill against the order named by OrderID.
	KindExec Kind = "exec"
)

// Liquidity tags which side of a fill an Exec event describes.
type Liquidity string

const (
	// LiquidityNone applies to non-Exec events.
	LiquidityNone Liquidity = "none"
	// LiquidityMaker tags the passive, resting side of a fill.
	LiquidityMaker Liquidity = "maker"
	// LiquidityTaker tags the aggressing side of a fill.
	LiquidityTaker Liquidity = "taker"
)

// Event is published by the matching core on each significant transition.
type Event struct {
	Kind Kind

	// OrderID is the primary order the event concerns.
	OrderID uint64
	// RelatedID is the cancel/replace target, or the passive counterparty
	// for an Exec event. Zero when not applicable.
	RelatedID uint64

	SymbolID   uint32
	Side       orderv1.Side
	PriceCents int64

	// FillQty is the quantity filled by this transition (Exec only).
	FillQty int32
	// RemainingQty is the aggressor's remaining quantity after this transition.
	RemainingQty int32

	Liquidity Liquidity

	// RejectReason carries the error code for KindReject events.
	RejectReason string
}
