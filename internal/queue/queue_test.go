package queue

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("positive capacity", func(t *testing.T) {
		t.Parallel()
		q, err := New[int](5)
		require.NoError(t, err)
		assert.Equal(t, 5, q.Cap())
		assert.Equal(t, 0, q.Len())
	})

	t.Run("zero capacity rejected", func(t *testing.T) {
		t.Parallel()
		_, err := New[int](0)
		assert.Error(t, err)
	})

	t.Run("negative capacity rejected", func(t *testing.T) {
		t.Parallel()
		_, err := New[int](-1)
		assert.Error(t, err)
	})
}

func TestPutGetFIFO(t *testing.T) {
	t.Parallel()

	q, err := New[int](10)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		require.NoError(t, q.Put(i, 0))
	}
	for i := 0; i < 10; i++ {
		v, err := q.Get(0)
		require.NoError(t, err)
		assert.Equal(t, i, v)
	}
}

func TestPutFullTimeout(t *testing.T) {
	t.Parallel()

	q, err := New[string](1)
	require.NoError(t, err)
	require.NoError(t, q.Put("a", 0))

	start := time.Now()
	err = q.Put("b", 20*time.Millisecond)
	assert.ErrorIs(t, err, ErrFull)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)

	// The queued item is untouched by the failed put.
	v, err := q.Get(0)
	require.NoError(t, err)
	assert.Equal(t, "a", v)
}

func TestGetEmptyTimeout(t *testing.T) {
	t.Parallel()

	q, err := New[int](1)
	require.NoError(t, err)

	start := time.Now()
	_, err = q.Get(20 * time.Millisecond)
	assert.ErrorIs(t, err, ErrEmpty)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestPutUnblocksWaitingGet(t *testing.T) {
	t.Parallel()

	q, err := New[int](1)
	require.NoError(t, err)

	done := make(chan int)
	go func() {
		v, err := q.Get(time.Second)
		if err != nil {
			done <- -1
			return
		}
		done <- v
	}()

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, q.Put(42, 0))
	assert.Equal(t, 42, <-done)
}

func TestPutLatestEvictsOldest(t *testing.T) {
	t.Parallel()

	q, err := New[int](2)
	require.NoError(t, err)

	q.PutLatest(1)
	q.PutLatest(2)
	q.PutLatest(3) // evicts 1

	v, err := q.Get(0)
	require.NoError(t, err)
	assert.Equal(t, 2, v)
	v, err = q.Get(0)
	require.NoError(t, err)
	assert.Equal(t, 3, v)
}

func TestTryGet(t *testing.T) {
	t.Parallel()

	q, err := New[int](1)
	require.NoError(t, err)

	_, ok := q.TryGet()
	assert.False(t, ok)

	require.NoError(t, q.Put(7, 0))
	v, ok := q.TryGet()
	assert.True(t, ok)
	assert.Equal(t, 7, v)
}

// Concurrent producers and one consumer: nothing is lost or duplicated while
// capacity is never exceeded.
func TestConcurrentNoLoss(t *testing.T) {
	t.Parallel()

	const producers = 4
	const perProducer = 250

	q, err := New[int](16)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				for q.Put(base+i, 10*time.Millisecond) != nil {
				}
			}
		}(p * perProducer)
	}

	seen := make(map[int]bool)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for len(seen) < producers*perProducer {
			v, err := q.Get(time.Second)
			if err != nil {
				return
			}
			if seen[v] {
				t.Errorf("duplicate item %d", v)
				return
			}
			seen[v] = true
		}
	}()

	wg.Wait()
	<-done
	assert.Len(t, seen, producers*perProducer)
}
