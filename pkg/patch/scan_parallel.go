//go:build !mpatch_serial

package patch

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// parallelScanThreshold is the target size above which the fuzzy window scan
// is distributed across workers. Small targets stay on the calling goroutine.
const parallelScanThreshold = 200

// scanWindows scores every candidate window of len(old) lines in target and
// returns the best position. Workers each scan a contiguous index range and
// report a local best; merging in range order reproduces the sequential
// ordering exactly, so both build modes pick the same window.
func scanWindows(target, old []string, hint int) (int, float64) {
	n := len(target) - len(old) + 1
	if len(target) <= parallelScanThreshold {
		return scanRange(target, old, 0, n, hint)
	}

	workers := runtime.GOMAXPROCS(0)
	if workers > n {
		workers = n
	}
	if workers < 2 {
		return scanRange(target, old, 0, n, hint)
	}

	type localBest struct {
		idx   int
		score float64
	}
	results := make([]localBest, workers)
	chunk := (n + workers - 1) / workers

	var group errgroup.Group
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > n {
			hi = n
		}
		if lo >= hi {
			results[w] = localBest{idx: -1, score: -1.0}
			continue
		}
		group.Go(func() error {
			idx, score := scanRange(target, old, lo, hi, hint)
			results[w] = localBest{idx: idx, score: score}
			return nil
		})
	}
	// workers never return errors; Wait only synchronizes
	_ = group.Wait()

	bestIdx, bestScore := -1, -1.0
	for _, r := range results {
		if r.idx < 0 {
			continue
		}
		if betterCandidate(r.idx, r.score, bestIdx, bestScore, hint) {
			bestIdx, bestScore = r.idx, r.score
		}
	}
	return bestIdx, bestScore
}
