package queue

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

const (
	testCapacity  = 64
	testBlockSize = 17
	testTotal     = 1000
)

func TestArrayQueue_FIFO(t *testing.T) {
	var q ArrayQueue[int]

	q.Write([]int{1, 2, 3}, 3)
	q.Write([]int{4, 5}, 2)
	assert.Equal(t, 5, q.Len())

	buf := make([]int, 4)
	n := q.Read(buf)
	require.Equal(t, 4, n)
	assert.Equal(t, []int{1, 2, 3, 4}, buf)
	assert.Equal(t, 1, q.Len())

	n = q.Read(buf)
	require.Equal(t, 1, n)
	assert.Equal(t, 5, buf[0])
	assert.Equal(t, 0, q.Len())
}

func TestArrayQueue_ReadSpansBuffers(t *testing.T) {
	var q ArrayQueue[float64]

	for i := range 10 {
		q.WriteOwned([]float64{float64(i)})
	}

	buf := make([]float64, 10)
	n := q.Read(buf)
	require.Equal(t, 10, n)
	for i := range 10 {
		assert.Equal(t, float64(i), buf[i])
	}
}

func TestArrayQueue_EmptyBuffersDropped(t *testing.T) {
	var q ArrayQueue[int]

	q.WriteOwned(nil)
	q.WriteOwned([]int{7})
	q.WriteOwned([]int{})

	buf := make([]int, 4)
	assert.Equal(t, 1, q.Read(buf))
	assert.Equal(t, 7, buf[0])
	assert.Equal(t, 0, q.Read(buf))
}

func TestBlockingArrayQueue_ProducerConsumer(t *testing.T) {
	defer goleak.VerifyNone(t)

	q := NewBlockingArrayQueue[int](testCapacity)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < testTotal; i += testBlockSize {
			block := make([]int, 0, testBlockSize)
			for j := i; j < min(i+testBlockSize, testTotal); j++ {
				block = append(block, j)
			}
			q.WriteOwned(block)
		}
		q.Close()
	}()

	var got []int
	buf := make([]int, testBlockSize+3)
	for {
		n := q.Read(buf)
		if n == 0 {
			break
		}
		got = append(got, buf[:n]...)
	}
	wg.Wait()

	require.Len(t, got, testTotal)
	for i, v := range got {
		assert.Equal(t, i, v)
	}
}

func TestBlockingArrayQueue_CloseWakesWriters(t *testing.T) {
	defer goleak.VerifyNone(t)

	q := NewBlockingArrayQueue[int](1)
	q.WriteOwned([]int{1})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		q.WriteOwned([]int{2}) // blocks until Close
	}()

	q.Close()
	wg.Wait()

	// Residue remains readable after Close.
	buf := make([]int, 4)
	assert.Equal(t, 1, q.Read(buf))
	assert.Equal(t, 0, q.Read(buf))
}

func TestBlockingQueue_PopBlocksUntilPush(t *testing.T) {
	defer goleak.VerifyNone(t)

	q := NewBlockingQueue[string]()

	done := make(chan string)
	go func() {
		done <- q.Pop()
	}()

	q.Push("job")
	assert.Equal(t, "job", <-done)
	assert.Equal(t, 0, q.Len())
}

func TestBlockingQueue_Clear(t *testing.T) {
	q := NewBlockingQueue[int]()
	q.Push(1)
	q.Push(2)
	q.Clear()
	assert.Equal(t, 0, q.Len())
}
