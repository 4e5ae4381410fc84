package workers

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
)

func TestPoolRunsTasks(t *testing.T) {
	c := qt.New(t)
	p := New(0)
	defer p.Stop()
	c.Assert(p.Size(), qt.Equals, DefaultSize)

	var done atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		err := p.Submit(func() {
			defer wg.Done()
			done.Add(1)
		}, nil)
		c.Assert(err, qt.IsNil)
	}
	wg.Wait()
	c.Assert(done.Load(), qt.Equals, int64(50))
}

func TestPoolBoundsConcurrency(t *testing.T) {
	c := qt.New(t)
	p := New(2)
	defer p.Stop()

	var running, peak atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		c.Assert(p.Submit(func() {
			defer wg.Done()
			n := running.Add(1)
			for {
				old := peak.Load()
				if n <= old || peak.CompareAndSwap(old, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			running.Add(-1)
		}, nil), qt.IsNil)
	}
	wg.Wait()
	c.Assert(peak.Load() <= 2, qt.IsTrue, qt.Commentf("peak %d", peak.Load()))
}

func TestPoolStopAbortsPending(t *testing.T) {
	c := qt.New(t)
	p := New(1)

	release := make(chan struct{})
	started := make(chan struct{})
	c.Assert(p.Submit(func() {
		close(started)
		<-release
	}, nil), qt.IsNil)
	<-started

	aborted := make(chan error, 3)
	for i := 0; i < 3; i++ {
		c.Assert(p.Submit(func() {
			aborted <- errors.New("task should not run")
		}, func(err error) {
			aborted <- err
		}), qt.IsNil)
	}

	stopped := make(chan struct{})
	go func() {
		p.Stop()
		close(stopped)
	}()
	// Stop waits for the running task
	time.Sleep(20 * time.Millisecond)
	close(release)
	<-stopped

	for i := 0; i < 3; i++ {
		c.Assert(<-aborted, qt.ErrorIs, ErrStopped)
	}
	c.Assert(p.Submit(func() {}, nil), qt.ErrorIs, ErrStopped)
	p.Stop()
}

func TestPoolRecoversPanics(t *testing.T) {
	c := qt.New(t)
	p := New(1)
	defer p.Stop()

	errc := make(chan error, 1)
	c.Assert(p.Submit(func() { panic("boom") }, func(err error) { errc <- err }), qt.IsNil)
	c.Assert(<-errc, qt.ErrorMatches, "task panicked: boom")

	// the worker survives the panic
	ran := make(chan struct{})
	c.Assert(p.Submit(func() { close(ran) }, nil), qt.IsNil)
	<-ran
}
