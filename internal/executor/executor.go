// Package executor implements the shared background worker pool that
// parallelizes independent per-channel and per-partition work.
//
// All Executor instances feed one process-wide run queue served by a
// lazily started set of workers, so nested parallel regions never
// oversubscribe the machine. Each Executor owns a private completion
// queue; Pop returns jobs pushed through the same Executor as they
// finish.
//
// Pop opportunistically executes jobs from the global run queue while
// waiting. Without this, a task that fans out sub-tasks onto the pool
// and then waits for them would deadlock once every worker is occupied
// by such a parent.
package executor

import (
	"fmt"
	"runtime"
	"sync"
)

// Task is a unit of background work.
type Task interface {
	Run()
}

// TaskFunc adapts a plain function to the Task interface.
type TaskFunc func()

// Run calls f.
func (f TaskFunc) Run() { f() }

type job struct {
	task    Task
	owner   *Executor
	panicry any
}

// The process-wide pool state. One mutex guards the run queue and every
// completion queue so that Pop can wait for either to become non-empty.
var pool struct {
	mu      sync.Mutex
	cond    *sync.Cond
	run     []*job
	started bool
}

func ensureStarted() {
	if pool.cond == nil {
		pool.cond = sync.NewCond(&pool.mu)
	}
	if pool.started {
		return
	}
	pool.started = true
	for range runtime.NumCPU() {
		go workerLoop()
	}
}

func workerLoop() {
	pool.mu.Lock()
	for {
		for len(pool.run) == 0 {
			pool.cond.Wait()
		}
		j := takeJob()
		pool.mu.Unlock()
		runJob(j)
		pool.mu.Lock()
		finishJob(j)
	}
}

func takeJob() *job {
	j := pool.run[0]
	pool.run[0] = nil
	pool.run = pool.run[1:]
	return j
}

// runJob executes the task, capturing a panic so it can be re-raised on
// the consumer at the next Pop.
func runJob(j *job) {
	defer func() {
		j.panicry = recover()
	}()
	j.task.Run()
}

func finishJob(j *job) {
	j.owner.done = append(j.owner.done, j)
	pool.cond.Broadcast()
}

// Executor is a handle onto the shared pool with a private completion
// queue. The zero value is ready to use.
type Executor struct {
	done []*job
}

// Push enqueues task on the shared run queue, stamped with this Executor
// as its owner.
func (e *Executor) Push(task Task) {
	pool.mu.Lock()
	defer pool.mu.Unlock()
	ensureStarted()
	pool.run = append(pool.run, &job{task: task, owner: e})
	pool.cond.Signal()
}

// Pop blocks until a job pushed through this Executor completes and
// returns its task. While waiting it executes jobs from the global run
// queue, so a task running on a worker may Pop its own sub-tasks without
// deadlocking the pool. A panic captured from the job is re-raised here.
func (e *Executor) Pop() Task {
	pool.mu.Lock()
	if pool.cond == nil {
		pool.cond = sync.NewCond(&pool.mu)
	}
	for {
		if len(e.done) > 0 {
			j := e.done[0]
			e.done[0] = nil
			e.done = e.done[1:]
			pool.mu.Unlock()
			if j.panicry != nil {
				panic(fmt.Sprintf("executor: background task failed: %v", j.panicry))
			}
			return j.task
		}
		if len(pool.run) > 0 {
			j := takeJob()
			pool.mu.Unlock()
			runJob(j)
			pool.mu.Lock()
			finishJob(j)
			continue
		}
		pool.cond.Wait()
	}
}
