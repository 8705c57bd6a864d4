package ringbuffer

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RejectsNonPowerOfTwo(t *testing.T) {
	_, err := New[int](3)
	require.Error(t, err)

	_, err = New[int](0)
	require.Error(t, err)

	_, err = New[int](-4)
	require.Error(t, err)
}

func TestNew_AcceptsPowerOfTwo(t *testing.T) {
	b, err := New[int](16)
	require.NoError(t, err)
	assert.Equal(t, 16, b.Capacity())
	assert.True(t, b.Empty())
	assert.False(t, b.Full())
}

func TestTryEnqueueDequeue_FIFO(t *testing.T) {
	b, err := New[int](4)
	require.NoError(t, err)

	for i := 1; i <= 4; i++ {
		assert.True(t, b.TryEnqueue(i))
	}
	assert.True(t, b.Full())
	assert.False(t, b.TryEnqueue(5))

	for i := 1; i <= 4; i++ {
		var out int
		assert.True(t, b.TryDequeue(&out))
		assert.Equal(t, i, out)
	}
	assert.True(t, b.Empty())

	var out int
	assert.False(t, b.TryDequeue(&out))
}

func TestLen_TracksOccupancy(t *testing.T) {
	b, err := New[int](8)
	require.NoError(t, err)

	assert.Equal(t, 0, b.Len())
	b.TryEnqueue(1)
	b.TryEnqueue(2)
	assert.Equal(t, 2, b.Len())

	var out int
	b.TryDequeue(&out)
	assert.Equal(t, 1, b.Len())
}

func TestSPSC_ConcurrentProducerConsumer(t *testing.T) {
	b, err := New[int](64)
	require.NoError(t, err)

	const n = 100_000
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			b.SpinEnqueue(i)
		}
	}()

	sum := 0
	go func() {
		defer wg.Done()
		var out int
		for i := 0; i < n; i++ {
			b.SpinDequeue(&out)
			sum += out
		}
	}()

	wg.Wait()
	assert.Equal(t, n*(n-1)/2, sum)
}
