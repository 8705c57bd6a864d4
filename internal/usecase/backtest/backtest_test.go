package backtest

import (
	"testing"

	feedv1 "github.com/muhammadchandra19/exchange/internal/domain/feed/v1"
	orderv1 "github.com/muhammadchandra19/exchange/internal/domain/order/v1"
	strategyv1 "github.com/muhammadchandra19/exchange/internal/domain/strategy/v1"
	tradev1 "github.com/muhammadchandra19/exchange/internal/domain/trade/v1"
	"github.com/muhammadchandra19/exchange/internal/usecase/engine"
	"github.com/muhammadchandra19/exchange/internal/usecase/ingress"
	"github.com/muhammadchandra19/exchange/internal/usecase/replay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memorySource struct {
	events []feedv1.Event
	pos    int
}

func (m *memorySource) Open() error { m.pos = 0; return nil }
func (m *memorySource) Next(out *feedv1.Event) (bool, error) {
	if m.pos >= len(m.events) {
		return false, nil
	}
	*out = m.events[m.pos]
	m.pos++
	return true, nil
}
func (m *memorySource) Close() error { return nil }

type recordingStrategy struct {
	initialized  bool
	marketEvents []strategyv1.MarketEvent
	fills        []tradev1.Trade
	ended        bool
}

func (s *recordingStrategy) Initialize(ctx strategyv1.Context) { s.initialized = true }
func (s *recordingStrategy) OnMarketEvent(evt strategyv1.MarketEvent) {
	s.marketEvents = append(s.marketEvents, evt)
}
func (s *recordingStrategy) OnFill(trade tradev1.Trade) { s.fills = append(s.fills, trade) }
func (s *recordingStrategy) OnEnd()                     { s.ended = true }

func newTestWiring(t *testing.T) (*engine.Engine, *ingress.Coordinator) {
	t.Helper()
	e, err := engine.New(engine.Options{NumShards: 2, RingCapacity: 128, MaxLevels: 32, MaxQty: 1 << 30, MaxNotionalCents: 1 << 50}, nil)
	require.NoError(t, err)
	c, err := ingress.New(e, ingress.Options{NumProducers: 1, MailboxCapacity: 64}, nil)
	require.NoError(t, err)
	return e, c
}

func TestBacktester_DeliversMarketEventsAndFills(t *testing.T) {
	eng, coord := newTestWiring(t)
	eng.Start()
	coord.Start()
	defer func() {
		coord.Stop()
		coord.Wait()
		eng.Shutdown()
	}()

	src := &memorySource{events: []feedv1.Event{
		{Symbol: "AAPL", TsEventNs: 0, Action: feedv1.Add, OrderID: 1, Side: feedv1.SideSell, PriceCents: 10000, Qty: 50},
		{Symbol: "AAPL", TsEventNs: 1, Action: feedv1.Add, OrderID: 2, Side: feedv1.SideBuy, PriceCents: 10000, Qty: 50},
	}}

	cfg := replay.DefaultConfig()
	cfg.Speed = 1_000_000

	strat := &recordingStrategy{}
	bt, err := New(eng, coord, src, cfg, strat, nil)
	require.NoError(t, err)

	err = bt.Run("test-run", []string{"AAPL"})
	require.NoError(t, err)

	assert.True(t, strat.initialized)
	assert.True(t, strat.ended)
	require.Len(t, strat.marketEvents, 2)
	require.Len(t, strat.fills, 1)
	assert.Equal(t, int32(50), strat.fills[0].Qty)
}

func TestIngressOrderGateway_AssignsHighNonOverlappingIDs(t *testing.T) {
	eng, coord := newTestWiring(t)
	eng.Start()
	coord.Start()
	defer func() {
		coord.Stop()
		coord.Wait()
		eng.Shutdown()
	}()

	registry := replay.NewSymbolRegistry()
	registry.Resolve("AAPL")

	gw := NewIngressOrderGateway(coord, registry)

	id1, err := gw.SubmitNewLimit("AAPL", orderv1.SideBuy, 10000, 10, orderv1.TIFDay)
	require.NoError(t, err)
	id2, err := gw.SubmitNewMarket("AAPL", orderv1.SideBuy, 10, orderv1.TIFIOC)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, id1, uint64(strategyIDFloor))
	assert.Greater(t, id2, id1)
}

func TestIngressOrderGateway_UnknownSymbol_Errors(t *testing.T) {
	eng, coord := newTestWiring(t)
	eng.Start()
	coord.Start()
	defer func() {
		coord.Stop()
		coord.Wait()
		eng.Shutdown()
	}()

	gw := NewIngressOrderGateway(coord, replay.NewSymbolRegistry())
	_, err := gw.SubmitNewLimit("GHOST", orderv1.SideBuy, 10000, 10, orderv1.TIFDay)
	require.Error(t, err)
}
