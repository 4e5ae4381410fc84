// Package workers provides a bounded pool of goroutines that run submitted
// tasks in FIFO order. The pool is owned by its caller: it is started by New
// and must be stopped with Stop.
package workers

import (
	"context"
	"fmt"
	"sync"

	"github.com/enriquebris/goconcurrentqueue"
	"go.vocdoni.io/dvote/log"
)

// DefaultSize is the number of workers used when New is called with a
// non-positive size.
const DefaultSize = 5

// ErrStopped is returned by Submit once the pool is stopped, and passed to the
// abort function of every task that was still pending when Stop was called.
var ErrStopped = fmt.Errorf("worker pool stopped")

// task is a unit of work. run is executed by a worker; abort is called instead
// when the task cannot run, or with the recovered value if run panics.
type task struct {
	run   func()
	abort func(error)
}

// Pool runs tasks on a fixed number of goroutines.
type Pool struct {
	size    int
	items   *goconcurrentqueue.FIFO
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.RWMutex
	stopped bool
	stop    sync.Once
}

// New starts a pool with the given number of workers.
func New(size int) *Pool {
	if size <= 0 {
		size = DefaultSize
	}
	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		size:   size,
		items:  goconcurrentqueue.NewFIFO(),
		ctx:    ctx,
		cancel: cancel,
	}
	for i := 0; i < size; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	log.Debugw("worker pool started", "size", size)
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return p.size
}

// Pending returns the number of tasks waiting for a free worker.
func (p *Pool) Pending() int {
	return p.items.GetLen()
}

// Submit enqueues run. abort, which may be nil, is called with the reason if
// run never executes or panics.
func (p *Pool) Submit(run func(), abort func(error)) error {
	if run == nil {
		return fmt.Errorf("nil task")
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return ErrStopped
	}
	if err := p.items.Enqueue(&task{run: run, abort: abort}); err != nil {
		return fmt.Errorf("could not enqueue task: %w", err)
	}
	return nil
}

// Stop stops accepting tasks, waits for the running ones to finish and aborts
// every task still in the queue with ErrStopped. It is safe to call Stop more
// than once.
func (p *Pool) Stop() {
	p.stop.Do(func() {
		p.mu.Lock()
		p.stopped = true
		p.mu.Unlock()
		p.cancel()
		p.wg.Wait()

		aborted := 0
		for p.items.GetLen() > 0 {
			item, err := p.items.Dequeue()
			if err != nil {
				break
			}
			if t, ok := item.(*task); ok && t.abort != nil {
				t.abort(ErrStopped)
			}
			aborted++
		}
		log.Debugw("worker pool stopped", "aborted", aborted)
	})
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	for p.ctx.Err() == nil {
		item, err := p.items.DequeueOrWaitForNextElementContext(p.ctx)
		if err != nil {
			if p.ctx.Err() != nil {
				return
			}
			log.Warnw("worker dequeue error", "worker", id, "error", err)
			continue
		}
		t, ok := item.(*task)
		if !ok {
			log.Warnw("invalid task type in queue", "worker", id)
			continue
		}
		if p.ctx.Err() != nil {
			// dequeued while stopping
			if t.abort != nil {
				t.abort(ErrStopped)
			}
			return
		}
		p.execute(t)
	}
}

func (*Pool) execute(t *task) {
	defer func() {
		if r := recover(); r != nil {
			log.Warnw("task panicked", "panic", r)
			if t.abort != nil {
				t.abort(fmt.Errorf("task panicked: %v", r))
			}
		}
	}()
	t.run()
}
