package replay

import (
	"testing"

	feedv1 "github.com/muhammadchandra19/exchange/internal/domain/feed/v1"
	orderv1 "github.com/muhammadchandra19/exchange/internal/domain/order/v1"
	"github.com/muhammadchandra19/exchange/internal/usecase/engine"
	"github.com/muhammadchandra19/exchange/internal/usecase/ingress"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memorySource replays a fixed, in-memory slice of events — used instead of
// a mock so pacing/filtering tests don't need to touch the filesystem.
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

func TestSymbolRegistry_AssignsMonotonicIDs(t *testing.T) {
	r := NewSymbolRegistry()
	a := r.Resolve("AAPL")
	b := r.Resolve("MSFT")
	aAgain := r.Resolve("AAPL")

	assert.Equal(t, uint32(0), a)
	assert.Equal(t, uint32(1), b)
	assert.Equal(t, a, aAgain)
	assert.Equal(t, 2, r.Len())
}

func TestTranslate_Add(t *testing.T) {
	evt := feedv1.Event{Action: feedv1.Add, OrderID: 7, Side: feedv1.SideBuy, PriceCents: 10000, Qty: 5}
	o, ok := translate(evt, 3, ExecuteAsIOCMarket)
	require.True(t, ok)
	assert.Equal(t, orderv1.OpNew, o.Op)
	assert.Equal(t, orderv1.TypeLimit, o.Type)
	assert.Equal(t, orderv1.TIFDay, o.TIF)
	assert.Equal(t, orderv1.SideBuy, o.Side)
	assert.Equal(t, uint64(7), o.ID)
	assert.Equal(t, uint32(3), o.SymbolID)
}

func TestTranslate_CancelAndDelete(t *testing.T) {
	for _, action := range []feedv1.Action{feedv1.Cancel, feedv1.Delete} {
		o, ok := translate(feedv1.Event{Action: action, OrderID: 9}, 0, ExecuteAsIOCMarket)
		require.True(t, ok)
		assert.Equal(t, orderv1.OpCancel, o.Op)
		assert.Equal(t, uint64(9), o.TargetID)
	}
}

func TestTranslate_Replace_FallsBackToOldValuesWhenZero(t *testing.T) {
	evt := feedv1.Event{Action: feedv1.Replace, OrderID: 1, PriceCents: 10000, Qty: 20, NewPriceCents: 0, NewQty: 30}
	o, ok := translate(evt, 0, ExecuteAsIOCMarket)
	require.True(t, ok)
	assert.Equal(t, int64(10000), o.NewPriceCents)
	assert.Equal(t, int32(30), o.NewQty)
}

func TestTranslate_Execute_AsIOCMarket(t *testing.T) {
	evt := feedv1.Event{Action: feedv1.Execute, OrderID: 5, Side: feedv1.SideSell, Qty: 15, ExecutionIsAggressor: false}
	o, ok := translate(evt, 0, ExecuteAsIOCMarket)
	require.True(t, ok)
	assert.Equal(t, orderv1.TypeMarket, o.Type)
	assert.Equal(t, orderv1.TIFIOC, o.TIF)
	// Resting side is Sell, so the aggressor (not named as aggressor) is Buy.
	assert.Equal(t, orderv1.SideBuy, o.Side)
}

func TestTranslate_Execute_AsRestingDecrement(t *testing.T) {
	evt := feedv1.Event{Action: feedv1.Execute, OrderID: 5, PriceCents: 10000, Qty: 15}
	o, ok := translate(evt, 0, ExecuteAsRestingDecrement)
	require.True(t, ok)
	assert.Equal(t, orderv1.OpReplace, o.Op)
	assert.Equal(t, uint64(5), o.TargetID)
	assert.Equal(t, int32(15), o.NewQty)
}

func TestTranslate_UnknownAction_NotSubmitted(t *testing.T) {
	_, ok := translate(feedv1.Event{Action: feedv1.Unknown}, 0, ExecuteAsIOCMarket)
	assert.False(t, ok)
}

func newTestCoordinator(t *testing.T) *ingress.Coordinator {
	t.Helper()
	e, err := engine.New(engine.Options{NumShards: 2, RingCapacity: 64, MaxLevels: 16, MaxQty: 1 << 30, MaxNotionalCents: 1 << 50}, nil)
	require.NoError(t, err)
	e.Start()
	c, err := ingress.New(e, ingress.Options{NumProducers: 1, MailboxCapacity: 64}, nil)
	require.NoError(t, err)
	c.Start()
	t.Cleanup(func() {
		c.Stop()
		c.Wait()
		e.Shutdown()
	})
	return c
}

func TestNewDriver_RejectsNonPositiveSpeed(t *testing.T) {
	coord := newTestCoordinator(t)
	_, err := NewDriver(&memorySource{}, coord, Config{Speed: 0}, nil)
	require.Error(t, err)
}

func TestDriver_Run_FiltersAndTranslates(t *testing.T) {
	coord := newTestCoordinator(t)
	src := &memorySource{events: []feedv1.Event{
		{Symbol: "AAPL", TsEventNs: 100, Action: feedv1.Add, OrderID: 1, Side: feedv1.SideBuy, PriceCents: 10000, Qty: 10},
		{Symbol: "MSFT", TsEventNs: 200, Action: feedv1.Add, OrderID: 2, Side: feedv1.SideSell, PriceCents: 20000, Qty: 5},
		{Symbol: "AAPL", TsEventNs: 300, Action: feedv1.Cancel, OrderID: 1},
	}}

	cfg := DefaultConfig()
	cfg.Speed = 1_000_000 // effectively no pacing delay for the test
	cfg.SymbolFilter = "AAPL"

	d, err := NewDriver(src, coord, cfg, nil)
	require.NoError(t, err)

	var handled []feedv1.Event
	err = d.Run(func(evt feedv1.Event, symbolID uint32, order orderv1.Order, submitted bool) {
		handled = append(handled, evt)
	})
	require.NoError(t, err)

	require.Len(t, handled, 2)
	assert.Equal(t, "AAPL", handled[0].Symbol)
	assert.Equal(t, "AAPL", handled[1].Symbol)
}
