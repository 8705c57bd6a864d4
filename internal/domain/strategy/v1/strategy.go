// Package strategyv1 defines the callback contract a Backtester drives and
// the order-gateway surface a strategy submits through.
package strategyv1

import (
	orderv1 "github.com/muhammadchandra19/exchange/internal/domain/order/v1"
	tradev1 "github.com/muhammadchandra19/exchange/internal/domain/trade/v1"
)

// Context is handed to a Strategy on Initialize; it carries whatever
// read-only run parameters the strategy needs (symbol universe, run id).
type Context struct {
	RunID   string
	Symbols []string
}

// MarketEvent is the normalized notification a Backtester delivers for every
// paced feed row, after translation and submission.
type MarketEvent struct {
	Symbol     string
	TsEventNs  uint64
	Action     string
	OrderID    uint64
	Side       orderv1.Side
	PriceCents int64
	Qty        int32
}

// Strategy is the minimal callback contract a backtest driver invokes.
//
//go:generate mockgen -source strategy.go -destination=mock/strategy_mock.go -package=strategy_mock
type Strategy interface {
	Initialize(ctx Context)
	OnMarketEvent(evt MarketEvent)
	OnFill(trade tradev1.Trade)
	OnEnd()
}

// Gateway is the order-submission surface exposed to a Strategy; ids it
// assigns come from a range that never collides with feed-replayed ids.
type Gateway interface {
	SubmitNewLimit(symbol string, side orderv1.Side, priceCents int64, qty int32, tif orderv1.TIF) (uint64, error)
	SubmitNewMarket(symbol string, side orderv1.Side, qty int32, tif orderv1.TIF) (uint64, error)
	SubmitCancel(symbol string, targetID uint64) error
	SubmitReplace(symbol string, targetID uint64, newPriceCents int64, newQty int32) error
}
