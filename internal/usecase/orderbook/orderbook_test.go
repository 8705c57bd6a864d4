package orderbook

import (
	"testing"

	orderv1 "github.com/muhammadchandra19/exchange/internal/domain/order/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resting(id uint64, priceCents int64, qty int32) *orderv1.RestingOrder {
	return &orderv1.RestingOrder{ID: id, SymbolID: 1, PriceCents: priceCents, Qty: qty}
}

func TestAddBid_DuplicateID_Rejected(t *testing.T) {
	b := New(1)
	require.NoError(t, b.AddBid(resting(1, 10000, 10)))
	err := b.AddBid(resting(1, 10000, 5))
	require.Error(t, err)
}

func TestBestBidAsk_PriorityOrdering(t *testing.T) {
	b := New(1)
	require.NoError(t, b.AddBid(resting(1, 9900, 10)))
	require.NoError(t, b.AddBid(resting(2, 10000, 10)))
	require.NoError(t, b.AddAsk(resting(3, 10200, 10)))
	require.NoError(t, b.AddAsk(resting(4, 10100, 10)))

	bid, ok := b.BestBid()
	require.True(t, ok)
	assert.Equal(t, int64(10000), bid)

	ask, ok := b.BestAsk()
	require.True(t, ok)
	assert.Equal(t, int64(10100), ask)
}

func TestFIFO_AtPriceLevel(t *testing.T) {
	b := New(1)
	require.NoError(t, b.AddAsk(resting(1, 10000, 50)))
	require.NoError(t, b.AddAsk(resting(2, 10000, 70)))

	first, ok := b.PeekBestAsk()
	require.True(t, ok)
	assert.Equal(t, uint64(1), first.ID)

	b.PopBestAsk()

	second, ok := b.PeekBestAsk()
	require.True(t, ok)
	assert.Equal(t, uint64(2), second.ID)
}

func TestCancelByID_RemovesOrderAndFreesLevel(t *testing.T) {
	b := New(1)
	require.NoError(t, b.AddBid(resting(1, 9900, 20)))

	assert.True(t, b.CancelByID(1))
	_, ok := b.BestBid()
	assert.False(t, ok)

	_, ok = b.Lookup(1)
	assert.False(t, ok)
}

func TestCancelByID_UnknownID_ReturnsFalse(t *testing.T) {
	b := New(1)
	assert.False(t, b.CancelByID(999))
}

func TestReplaceByID_ChangesPriceAndQty(t *testing.T) {
	b := New(1)
	require.NoError(t, b.AddBid(resting(1, 9900, 20)))

	err := b.ReplaceByID(1, resting(1, 9950, 30))
	require.NoError(t, err)

	order, ok := b.Lookup(1)
	require.True(t, ok)
	assert.Equal(t, int64(9950), order.PriceCents)
	assert.Equal(t, int32(30), order.Qty)
}

func TestReplaceByID_UnknownTarget_Errors(t *testing.T) {
	b := New(1)
	err := b.ReplaceByID(42, resting(42, 9900, 10))
	require.Error(t, err)
}

func TestLocatorConsistency_AfterMixedOps(t *testing.T) {
	b := New(1)
	require.NoError(t, b.AddBid(resting(1, 9900, 10)))
	require.NoError(t, b.AddBid(resting(2, 9900, 20)))
	require.NoError(t, b.AddBid(resting(3, 9800, 30)))

	assert.True(t, b.CancelByID(2))

	order, ok := b.Lookup(1)
	require.True(t, ok)
	assert.Equal(t, uint64(1), order.ID)

	order, ok = b.Lookup(3)
	require.True(t, ok)
	assert.Equal(t, uint64(3), order.ID)

	_, ok = b.Lookup(2)
	assert.False(t, ok)
}

func TestAvailableAskUpTo_SumsQualifyingLevels(t *testing.T) {
	b := New(1)
	require.NoError(t, b.AddAsk(resting(1, 10000, 10)))
	require.NoError(t, b.AddAsk(resting(2, 10100, 20)))
	require.NoError(t, b.AddAsk(resting(3, 10200, 30)))

	assert.Equal(t, int64(30), b.AvailableAskUpTo(10100))
	assert.Equal(t, int64(60), b.AvailableAskUpTo(10200))
	assert.Equal(t, int64(0), b.AvailableAskUpTo(9999))
}

func TestAvailableBidDownTo_SumsQualifyingLevels(t *testing.T) {
	b := New(1)
	require.NoError(t, b.AddBid(resting(1, 10000, 10)))
	require.NoError(t, b.AddBid(resting(2, 9900, 20)))

	assert.Equal(t, int64(10), b.AvailableBidDownTo(10000))
	assert.Equal(t, int64(30), b.AvailableBidDownTo(9900))
}

func TestAvailableTotals_IgnorePriceBound(t *testing.T) {
	b := New(1)
	require.NoError(t, b.AddAsk(resting(1, 10000, 10)))
	require.NoError(t, b.AddAsk(resting(2, 20000, 50)))
	require.NoError(t, b.AddBid(resting(3, 9900, 5)))

	assert.Equal(t, int64(60), b.AvailableAskTotal())
	assert.Equal(t, int64(5), b.AvailableBidTotal())
}

func TestAvailableAskUpTo_ReflectsPartialFillsAtALevel(t *testing.T) {
	b := New(1)
	require.NoError(t, b.AddAsk(resting(1, 10000, 100)))
	require.NoError(t, b.AddAsk(resting(2, 10000, 50)))

	assert.Equal(t, int64(150), b.AvailableAskUpTo(10000))

	// Fully consume order 1, leaving order 2 (qty 50) resting.
	id, price, filled, ok := b.FillBestAsk(100)
	require.True(t, ok)
	assert.Equal(t, uint64(1), id)
	assert.Equal(t, int64(10000), price)
	assert.Equal(t, int32(100), filled)

	// qtySum must reflect the fill, not just the pop of order 1.
	assert.Equal(t, int64(50), b.AvailableAskUpTo(10000))

	order, ok := b.Lookup(2)
	require.True(t, ok)
	assert.Equal(t, int32(50), order.Qty)

	// A FOK-sized request for more than what's truly left must now fail the
	// availability check rather than reading the stale pre-fill total.
	assert.Less(t, b.AvailableAskUpTo(10000), int64(120))
}

func TestFillBestAsk_PartialFillDoesNotPopOrder(t *testing.T) {
	b := New(1)
	require.NoError(t, b.AddAsk(resting(1, 10000, 100)))

	id, price, filled, ok := b.FillBestAsk(40)
	require.True(t, ok)
	assert.Equal(t, uint64(1), id)
	assert.Equal(t, int64(10000), price)
	assert.Equal(t, int32(40), filled)

	order, ok := b.Lookup(1)
	require.True(t, ok)
	assert.Equal(t, int32(60), order.Qty)
	assert.Equal(t, int64(60), b.AvailableAskUpTo(10000))
}

func TestCrossed_DetectsCrossedBook(t *testing.T) {
	b := New(1)
	assert.False(t, b.Crossed())

	require.NoError(t, b.AddBid(resting(1, 10000, 10)))
	require.NoError(t, b.AddAsk(resting(2, 10100, 10)))
	assert.False(t, b.Crossed())

	require.NoError(t, b.AddAsk(resting(3, 9900, 10)))
	assert.True(t, b.Crossed())
}
