// Package parallel runs row-banded pixel work across a fixed set of
// goroutines.
package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// minBandRows is the smallest band handed to a worker. Smaller images are
// processed by fewer workers.
const minBandRows = 16

// WorkerPool is a pool of goroutines for parallel rasterization.
//
// Each worker owns a queue. ForRows splits an image into horizontal bands
// and distributes them round-robin, then waits for all of them.
//
// Thread safety: WorkerPool is safe for concurrent use.
type WorkerPool struct {
	workers    int
	workQueues []chan func()
	done       chan struct{}
	wg         sync.WaitGroup
	running    atomic.Bool
}

// NewWorkerPool creates a pool with the given number of workers.
// If workers is 0 or negative, GOMAXPROCS is used.
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	p := &WorkerPool{
		workers:    workers,
		workQueues: make([]chan func(), workers),
		done:       make(chan struct{}),
	}
	for i := range workers {
		p.workQueues[i] = make(chan func(), 4)
	}
	p.running.Store(true)

	p.wg.Add(workers)
	for i := range workers {
		go p.worker(i)
	}
	return p
}

func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()
	q := p.workQueues[id]
	for {
		select {
		case <-p.done:
			for {
				select {
				case work := <-q:
					work()
				default:
					return
				}
			}
		case work := <-q:
			work()
		}
	}
}

// Bands splits height rows into at most n contiguous [y0, y1) bands of at
// least minBandRows rows each (except possibly the last).
func Bands(height, n int) [][2]int {
	if height <= 0 {
		return nil
	}
	n = max(1, min(n, (height+minBandRows-1)/minBandRows))
	size := (height + n - 1) / n
	bands := make([][2]int, 0, n)
	for y := 0; y < height; y += size {
		bands = append(bands, [2]int{y, min(y+size, height)})
	}
	return bands
}

// ForRows calls fn for every band of [0, height) and waits for all calls to
// return. Bands are disjoint, so fn may write its rows without locking.
// If the pool is closed, the bands run on the calling goroutine.
func (p *WorkerPool) ForRows(height int, fn func(y0, y1 int)) {
	bands := Bands(height, p.workers)
	if len(bands) <= 1 || !p.running.Load() {
		for _, b := range bands {
			fn(b[0], b[1])
		}
		return
	}

	var wg sync.WaitGroup
	wg.Add(len(bands))
	for i, b := range bands {
		work := func() {
			defer wg.Done()
			fn(b[0], b[1])
		}
		select {
		case p.workQueues[i%p.workers] <- work:
		case <-p.done:
			work()
		}
	}
	wg.Wait()
}

// Close stops the workers after they drain their queues.
// Close is safe to call multiple times.
func (p *WorkerPool) Close() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	close(p.done)
	p.wg.Wait()
}

// Workers returns the number of workers in the pool.
func (p *WorkerPool) Workers() int {
	return p.workers
}

// IsRunning returns true if the pool is still accepting work.
func (p *WorkerPool) IsRunning() bool {
	return p.running.Load()
}
