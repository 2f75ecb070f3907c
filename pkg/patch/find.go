package patch

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Finder locates a hunk within a target file held as lines. Implementations
// must not mutate the hunk or the target. A nil failure means the returned
// Location is valid.
type Finder interface {
	Find(hunk *Hunk, target []string, opts *Options) (Location, *HunkFailure)
}

// ContextFinder is the built-in layered search strategy: exact match, then
// whitespace-insensitive match, then a tail match restoring truncated
// trailing context, then fuzzy similarity scanning. The hunk header's old
// start line is used as a hint to break ties between candidate positions.
type ContextFinder struct{}

// Find implements Finder.
func (ContextFinder) Find(hunk *Hunk, target []string, opts *Options) (Location, *HunkFailure) {
	logger := opts.logger()
	old := hunk.OldBlock()
	hint := hunk.OldStart - 1
	if hint < 0 {
		hint = 0
	}

	// A pure-addition hunk into an existing file has nothing to search
	// for; the header hint decides the insertion point.
	if len(old) == 0 {
		start := hint
		if start > len(target) {
			start = len(target)
		}
		return Location{Start: start, Type: MatchExact, Score: 1.0}, nil
	}

	if len(old) <= len(target) {
		if loc, fail, done := resolveWindows(target, old, hint, MatchExact, equalRaw); done {
			return loc, fail
		}
		logger.Debug("exact match failed, trying whitespace-insensitive match")

		if loc, fail, done := resolveWindows(target, old, hint, MatchWhitespace, equalTrimmed); done {
			return loc, fail
		}
		logger.Debug("whitespace-insensitive match failed, trying tail match")
	}

	// The tail stage also covers targets shorter than the old block: a
	// truncated file can still anchor the hunk when only trailing context
	// is missing.
	if loc, ok := tailMatch(target, hunk, old); ok {
		logger.Debug("matched hunk prefix at end of file", zap.Int("start", loc.Start))
		return loc, nil
	}

	if len(old) > len(target) {
		// never truncate the old block for fuzzy comparison
		return Location{}, &HunkFailure{
			Kind:   FailContextNotFound,
			Detail: fmt.Sprintf("hunk old block spans %d lines but target has only %d", len(old), len(target)),
		}
	}

	if opts.FuzzFactor > 0 {
		logger.Debug("falling back to fuzzy scan",
			zap.Float64("threshold", opts.FuzzFactor), zap.Int("targetLines", len(target)))
		bestIdx, bestScore := scanWindows(target, old, hint)
		if bestScore >= opts.FuzzFactor {
			return Location{Start: bestIdx, Type: MatchFuzzy, Score: bestScore}, nil
		}
		return Location{}, &HunkFailure{
			Kind:      FailBelowThreshold,
			Detail:    fmt.Sprintf("best fuzzy score %.3f at line %d is below threshold %.3f", bestScore, bestIdx+1, opts.FuzzFactor),
			BestStart: bestIdx,
			BestScore: bestScore,
		}
	}

	return Location{}, &HunkFailure{Kind: FailContextNotFound, Detail: "hunk context not found in target"}
}

func equalRaw(a, b string) bool { return a == b }

func equalTrimmed(a, b string) bool { return strings.TrimSpace(a) == strings.TrimSpace(b) }

// resolveWindows collects every window position where old matches target
// under eq, then picks one using the header hint. done is false when there
// was no match at all and the next strategy should run.
func resolveWindows(target, old []string, hint int, mt MatchType, eq func(a, b string) bool) (Location, *HunkFailure, bool) {
	var matches []int
	for i := 0; i+len(old) <= len(target); i++ {
		if windowEqual(target, i, old, eq) {
			matches = append(matches, i)
		}
	}
	switch len(matches) {
	case 0:
		return Location{}, nil, false
	case 1:
		return Location{Start: matches[0], Type: mt, Score: 1.0}, nil, true
	}

	best, ambiguous := nearestToHint(matches, hint)
	if ambiguous {
		return Location{}, &HunkFailure{
			Kind:   FailAmbiguousMatch,
			Detail: fmt.Sprintf("hunk context found at %d equidistant locations", len(matches)),
		}, true
	}
	return Location{Start: best, Type: mt, Score: 1.0}, nil, true
}

func windowEqual(target []string, start int, old []string, eq func(a, b string) bool) bool {
	for j, line := range old {
		if !eq(target[start+j], line) {
			return false
		}
	}
	return true
}

// nearestToHint returns the match index closest to the hint. Two candidates
// at the same minimal distance are ambiguous.
func nearestToHint(matches []int, hint int) (best int, ambiguous bool) {
	minDist := -1
	for _, idx := range matches {
		dist := idx - hint
		if dist < 0 {
			dist = -dist
		}
		switch {
		case minDist < 0 || dist < minDist:
			minDist = dist
			best = idx
			ambiguous = false
		case dist == minDist:
			ambiguous = true
		}
	}
	return best, ambiguous
}

// tailMatch handles targets that were truncated: when the old block fails to
// match anywhere but a prefix of it lines up with the end of the file and the
// unmatched suffix consists solely of context lines, the hunk is anchored
// there and the applier restores the missing trailing context.
func tailMatch(target []string, hunk *Hunk, old []string) (Location, bool) {
	trailingCtx := 0
	for i := len(hunk.Lines) - 1; i >= 0; i-- {
		if hunk.Lines[i].Kind == LineAddition {
			continue
		}
		if hunk.Lines[i].Kind != LineContext {
			break
		}
		trailingCtx++
	}

	for k := 1; k <= trailingCtx && k < len(old); k++ {
		prefix := old[:len(old)-k]
		start := len(target) - len(prefix)
		if start < 0 {
			continue
		}
		if windowEqual(target, start, prefix, equalRaw) {
			return Location{Start: start, Type: MatchExact, Score: 1.0}, true
		}
		if windowEqual(target, start, prefix, equalTrimmed) {
			return Location{Start: start, Type: MatchWhitespace, Score: 1.0}, true
		}
	}
	return Location{}, false
}

// scanRange finds the best-scoring window for old within target positions
// [lo, hi). Ties are broken by proximity to hint, then by the lower index
// (implicit in the ascending scan). Returns (-1, -1) for an empty range.
func scanRange(target, old []string, lo, hi, hint int) (int, float64) {
	bestIdx, bestScore := -1, -1.0
	for i := lo; i < hi; i++ {
		score := windowScore(target, i, old)
		if betterCandidate(i, score, bestIdx, bestScore, hint) {
			bestIdx, bestScore = i, score
		}
	}
	return bestIdx, bestScore
}

// betterCandidate reports whether (idx, score) beats the current best under
// the deterministic ordering: higher score first, then closer to the hint.
// Equal candidates never displace an earlier one, so ascending scans prefer
// the lowest index.
func betterCandidate(idx int, score float64, bestIdx int, bestScore float64, hint int) bool {
	if bestIdx < 0 || score > bestScore {
		return true
	}
	if score < bestScore {
		return false
	}
	distNew, distBest := idx-hint, bestIdx-hint
	if distNew < 0 {
		distNew = -distNew
	}
	if distBest < 0 {
		distBest = -distBest
	}
	return distNew < distBest
}
