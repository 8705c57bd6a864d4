package ingress

import (
	"testing"
	"time"

	orderv1 "github.com/muhammadchandra19/exchange/internal/domain/order/v1"
	"github.com/muhammadchandra19/exchange/internal/usecase/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) *engine.Engine {
	t.Helper()
	e, err := engine.New(engine.Options{NumShards: 4, RingCapacity: 256, MaxLevels: 64, MaxQty: 1 << 30, MaxNotionalCents: 1 << 50}, nil)
	require.NoError(t, err)
	return e
}

func TestNew_RejectsZeroProducers(t *testing.T) {
	e := newTestEngine(t)
	_, err := New(e, Options{NumProducers: 0, MailboxCapacity: 16}, nil)
	require.Error(t, err)
}

func TestSubmitFromDecoder_FanInOwnership(t *testing.T) {
	e := newTestEngine(t)
	c, err := New(e, Options{NumProducers: 2, MailboxCapacity: 64}, nil)
	require.NoError(t, err)

	e.Start()
	defer e.Shutdown()
	c.Start()
	defer func() {
		c.Stop()
		c.Wait()
	}()

	const n = 200
	for i := 0; i < n; i++ {
		c.SubmitFromDecoder(orderv1.Order{
			ID:         uint64(i + 1),
			SymbolID:   uint32(i % 4),
			Op:         orderv1.OpNew,
			Side:       orderv1.SideSell,
			Type:       orderv1.TypeLimit,
			TIF:        orderv1.TIFDay,
			PriceCents: 10000,
			Qty:        1,
		})
	}

	require.Eventually(t, func() bool {
		return e.ProcessedCount() == n
	}, 2*time.Second, time.Millisecond)

	assert.Equal(t, uint64(n), e.EnqueuedCount())
	assert.Equal(t, uint64(0), e.DroppedCount())
}

func TestStopAndWait_DrainsBeforeExit(t *testing.T) {
	e := newTestEngine(t)
	c, err := New(e, Options{NumProducers: 1, MailboxCapacity: 64}, nil)
	require.NoError(t, err)

	e.Start()
	defer e.Shutdown()
	c.Start()

	for i := 0; i < 10; i++ {
		c.SubmitFromDecoder(orderv1.Order{ID: uint64(i + 1), SymbolID: 0, Op: orderv1.OpNew, Side: orderv1.SideSell, Type: orderv1.TypeLimit, TIF: orderv1.TIFDay, PriceCents: 10000, Qty: 1})
	}

	c.Stop()
	c.Wait()

	require.Eventually(t, func() bool {
		return e.ProcessedCount() == 10
	}, time.Second, time.Millisecond)
}
