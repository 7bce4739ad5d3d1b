// Package dispatch implements the Run Dispatcher: the document-level
// parallelism at the enumerator boundary. The default backend is a bounded
// in-process worker pool; an optional Asynq/Redis-backed backend (asynq.go)
// is adapted directly from the teacher repo's queue.Consumer for
// distributed fan-out.
package dispatch

import (
	"context"
	"runtime"
	"sync"

	"github.com/lawdocs/pipeline/internal/enumerate"
	"github.com/lawdocs/pipeline/internal/pipeline"
)

// Dispatcher runs a handler over every enumerated document and collects one
// Outcome per document. Completion order never affects the contents of any
// single document's output — only the aggregate summary considers them all,
// order-independently.
type Dispatcher interface {
	Run(ctx context.Context, entries []enumerate.Entry, p *pipeline.Pipeline) []pipeline.Outcome
}

// LocalPool is the default dispatcher: a bounded goroutine pool, the
// in-process analog of the teacher's RedisConsumer worker goroutines but
// without a broker.
type LocalPool struct {
	Concurrency int
}

// NewLocalPool builds a LocalPool; concurrency <= 0 defaults to NumCPU.
func NewLocalPool(concurrency int) *LocalPool {
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}
	return &LocalPool{Concurrency: concurrency}
}

func (lp *LocalPool) Run(ctx context.Context, entries []enumerate.Entry, p *pipeline.Pipeline) []pipeline.Outcome {
	outcomes := make([]pipeline.Outcome, len(entries))

	jobs := make(chan int)
	var wg sync.WaitGroup

	worker := func() {
		defer wg.Done()
		for idx := range jobs {
			select {
			case <-ctx.Done():
				outcomes[idx] = pipeline.Outcome{DocID: entries[idx].DocID, Err: ctx.Err()}
				continue
			default:
			}
			// Cancellation is honored between documents only; a document
			// that has started runs to completion.
			outcomes[idx] = p.Run(context.WithoutCancel(ctx), entries[idx])
		}
	}

	n := lp.Concurrency
	if n > len(entries) {
		n = len(entries)
	}
	if n < 1 {
		n = 1
	}

	wg.Add(n)
	for i := 0; i < n; i++ {
		go worker()
	}

	for i := range entries {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	return outcomes
}
