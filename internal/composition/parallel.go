package composition

import (
	"context"
	"runtime"
	"sync"

	"gccontent/internal/fasta"
)

type slot struct {
	res Result
	ok  bool
}

// AnalyzeParallel is Analyze spread over a pool of workers. The output is
// identical to Analyze(recs). onDone, if non-nil, is called once per input
// record as it finishes and must be safe for concurrent use.
//
// Workers stop picking up records once ctx is done; the context error is
// returned together with a nil slice.
func AnalyzeParallel(ctx context.Context, recs []fasta.Record, workers int, onDone func()) ([]Result, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(recs) {
		workers = len(recs)
	}

	slots := make([]slot, len(recs))
	tasks := make(chan int)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range tasks {
				res, ok := Compute(recs[idx])
				slots[idx] = slot{res: res, ok: ok}
				if onDone != nil {
					onDone()
				}
			}
		}()
	}

	var err error
dispatch:
	for i := range recs {
		if err = ctx.Err(); err != nil {
			break
		}
		select {
		case <-ctx.Done():
			err = ctx.Err()
			break dispatch
		case tasks <- i:
		}
	}
	close(tasks)
	wg.Wait()
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(recs))
	for _, s := range slots {
		if s.ok {
			results = append(results, s.res)
		}
	}
	return results, nil
}
