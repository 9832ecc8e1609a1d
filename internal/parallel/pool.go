// Package parallel runs indexed jobs on a bounded set of goroutines.
package parallel

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
)

// Pool bounds how many jobs run at once.
//
// Workers are started per Map call and exit when it returns, so a Pool holds
// no goroutines between calls and needs no Close.
//
// Thread safety: Pool is safe for concurrent use.
type Pool struct {
	workers int
}

// NewPool creates a pool running at most workers jobs at a time.
// If workers is 0 or negative, GOMAXPROCS is used.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Pool{workers: workers}
}

// Workers returns the concurrency limit.
func (p *Pool) Workers() int {
	return p.workers
}

// Map calls fn(i) for every i in [0, n) and returns the errors by index.
//
// Jobs are claimed in index order. Once ctx is done, unclaimed jobs are not
// started and report ctx.Err(). A nil Pool runs the jobs on the caller's
// goroutine.
func (p *Pool) Map(ctx context.Context, n int, fn func(i int) error) []error {
	errs := make([]error, n)
	if n == 0 {
		return errs
	}

	workers := 1
	if p != nil {
		workers = min(p.workers, n)
	}
	if workers == 1 {
		for i := range n {
			errs[i] = run(ctx, i, fn)
		}
		return errs
	}

	var (
		next atomic.Int64
		wg   sync.WaitGroup
	)
	wg.Add(workers)
	for range workers {
		go func() {
			defer wg.Done()
			for {
				i := int(next.Add(1) - 1)
				if i >= n {
					return
				}
				errs[i] = run(ctx, i, fn)
			}
		}()
	}
	wg.Wait()
	return errs
}

func run(ctx context.Context, i int, fn func(int) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(i)
}
