// Package backtest implements Backtester: a user Strategy layered on top of
// the ReplayDriver, fed normalized market events and fills in lockstep with
// the paced feed.
package backtest

import (
	"runtime"

	feedv1 "github.com/muhammadchandra19/exchange/internal/domain/feed/v1"
	orderv1 "github.com/muhammadchandra19/exchange/internal/domain/order/v1"
	strategyv1 "github.com/muhammadchandra19/exchange/internal/domain/strategy/v1"
	tradev1 "github.com/muhammadchandra19/exchange/internal/domain/trade/v1"
	"github.com/muhammadchandra19/exchange/internal/usecase/engine"
	"github.com/muhammadchandra19/exchange/internal/usecase/ingress"
	"github.com/muhammadchandra19/exchange/internal/usecase/replay"
	"github.com/muhammadchandra19/exchange/pkg/logger"
)

// Backtester wires a MatchingEngine, an IngressCoordinator, a feed source,
// and a user Strategy: every paced feed row is submitted to the engine,
// normalized, and delivered to the strategy, and every trade the event
// produced is forwarded as a fill before the next row is paced.
type Backtester struct {
	eng      *engine.Engine
	driver   *replay.Driver
	gateway  *IngressOrderGateway
	strategy strategyv1.Strategy
	log      *logger.Logger
}

// New constructs a Backtester. source and coord must not be shared with any
// other concurrently-running driver.
func New(eng *engine.Engine, coord *ingress.Coordinator, source feedv1.Source, cfg replay.Config, strategy strategyv1.Strategy, log *logger.Logger) (*Backtester, error) {
	driver, err := replay.NewDriver(source, coord, cfg, log)
	if err != nil {
		return nil, err
	}
	gateway := NewIngressOrderGateway(coord, driver.Registry())

	return &Backtester{
		eng:      eng,
		driver:   driver,
		gateway:  gateway,
		strategy: strategy,
		log:      log,
	}, nil
}

// Gateway returns the order-submission surface bound to this Backtester's
// ingress and symbol registry. It is not passed to the strategy through
// Initialize; a strategy that submits orders must be given it directly.
func (b *Backtester) Gateway() *IngressOrderGateway { return b.gateway }

// Run initializes the strategy, drives the paced feed to completion,
// delivering a MarketEvent and draining trades to OnFill after every row,
// and calls OnEnd once the feed is exhausted.
func (b *Backtester) Run(runID string, symbols []string) error {
	processedBase := b.eng.ProcessedCount()
	gatewayBase := b.gateway.nextID.Load()
	var fed uint64

	b.strategy.Initialize(strategyv1.Context{RunID: runID, Symbols: symbols})

	err := b.driver.Run(func(evt feedv1.Event, symbolID uint32, order orderv1.Order, submitted bool) {
		if submitted {
			fed++
		}
		b.strategy.OnMarketEvent(strategyv1.MarketEvent{
			Symbol:     evt.Symbol,
			TsEventNs:  evt.TsEventNs,
			Action:     string(evt.Action),
			OrderID:    evt.OrderID,
			Side:       feedSideToOrderSide(evt.Side),
			PriceCents: evt.PriceCents,
			Qty:        evt.Qty,
		})
		// Wait until the engine has processed every order submitted so far,
		// feed-replayed and strategy-originated, so their trades are on the
		// trade rings before they are drained.
		want := fed + b.gateway.nextID.Load() - gatewayBase
		for b.eng.ProcessedCount()-processedBase < want {
			runtime.Gosched()
		}
		b.drainFills()
	})

	b.strategy.OnEnd()
	return err
}

// drainFills forwards every trade available on every shard's trade ring.
// Run calls it only once the engine has processed every order submitted so
// far, which keeps the strategy's fill view current with its market view.
func (b *Backtester) drainFills() {
	var tr tradev1.Trade
	for shardIdx := 0; shardIdx < b.eng.ShardCount(); shardIdx++ {
		reader := b.eng.TradeReaderForShard(shardIdx)
		for reader.TryDequeue(&tr) {
			b.strategy.OnFill(tr)
		}
	}
}

func feedSideToOrderSide(s feedv1.Side) orderv1.Side {
	if s == feedv1.SideSell {
		return orderv1.SideSell
	}
	return orderv1.SideBuy
}
