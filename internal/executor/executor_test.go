package executor

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	fanOutWidth = 16
	fanOutDepth = 3
	manyTasks   = 1000
)

func TestExecutor_RunsAllTasks(t *testing.T) {
	var e Executor
	var counter atomic.Int64

	for range manyTasks {
		e.Push(TaskFunc(func() { counter.Add(1) }))
	}
	for range manyTasks {
		e.Pop()
	}

	assert.Equal(t, int64(manyTasks), counter.Load())
}

func TestExecutor_PopReturnsPushedTask(t *testing.T) {
	var e Executor

	task := TaskFunc(func() {})
	e.Push(task)
	got := e.Pop()
	require.NotNil(t, got)
}

// TestExecutor_RecursiveFanOut is the reentrancy obligation: a task
// running on a worker pushes sub-tasks onto the same pool and waits for
// them. Pop must steal global work while waiting or the pool deadlocks
// once every worker blocks in a parent task.
func TestExecutor_RecursiveFanOut(t *testing.T) {
	var counter atomic.Int64

	var spawn func(depth int)
	spawn = func(depth int) {
		counter.Add(1)
		if depth == 0 {
			return
		}
		var inner Executor
		for range fanOutWidth {
			d := depth - 1
			inner.Push(TaskFunc(func() { spawn(d) }))
		}
		for range fanOutWidth {
			inner.Pop()
		}
	}

	var outer Executor
	outer.Push(TaskFunc(func() { spawn(fanOutDepth) }))
	outer.Pop()

	// 1 + 16 + 256 + 4096 nodes
	want := int64(1 + fanOutWidth + fanOutWidth*fanOutWidth + fanOutWidth*fanOutWidth*fanOutWidth)
	assert.Equal(t, want, counter.Load())
}

func TestExecutor_CompletionQueuesAreIndependent(t *testing.T) {
	var a, b Executor
	var ranA, ranB atomic.Bool

	a.Push(TaskFunc(func() { ranA.Store(true) }))
	b.Push(TaskFunc(func() { ranB.Store(true) }))

	a.Pop()
	assert.True(t, ranA.Load(), "a.Pop must return a's task")

	b.Pop()
	assert.True(t, ranB.Load())
}

func TestExecutor_PanicPropagatesAtPop(t *testing.T) {
	var e Executor
	e.Push(TaskFunc(func() { panic("boom") }))

	assert.Panics(t, func() { e.Pop() })
}
