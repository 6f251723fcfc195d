// Package pool runs heavy cryptographic work with bounded parallelism. Map
// blocks its caller until every task is done; Submit runs tasks in the
// background until TearDown waits for them. The pool itself never touches
// protocol state.
package pool

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Pool is a bounded worker pool.
type Pool struct {
	limit int
	g     *errgroup.Group
}

// NewPool returns a pool running at most size tasks concurrently. A size of 0
// uses the number of CPUs.
func NewPool(size int) *Pool {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	g := new(errgroup.Group)
	g.SetLimit(size)
	return &Pool{limit: size, g: g}
}

// Submit schedules task on the pool, blocking while all workers are busy.
func (p *Pool) Submit(task func()) {
	p.g.Go(func() error {
		task()
		return nil
	})
}

// Map runs fn for every index in [0, n) with the pool's parallelism and
// waits for all of them. fn must confine its writes to its own index. A nil
// pool runs serially, which keeps callers free of nil checks.
func (p *Pool) Map(n int, fn func(i int)) {
	if p == nil || n <= 1 {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}
	g := new(errgroup.Group)
	g.SetLimit(p.limit)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			fn(i)
			return nil
		})
	}
	_ = g.Wait()
}

// TearDown waits for all submitted tasks to finish.
func (p *Pool) TearDown() {
	_ = p.g.Wait()
}
