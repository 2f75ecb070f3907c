package patch

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// applyHunk splices a located hunk into target and returns the new line
// slice. The merge is granular: the target's own context lines survive, only
// the hunk's additions and deletions take effect, so stale context in the
// patch never overwrites the file's current text. replaced is the number of
// target lines the hunk consumed.
func applyHunk(target []string, loc Location, hunk *Hunk, logger *zap.Logger) (out []string, replaced int, warnings []string) {
	old := hunk.OldBlock()

	targetIndent, patchIndent := "", ""
	if loc.Type != MatchExact {
		targetIndent, patchIndent = matchedIndents(target, loc.Start, old)
	}

	out = make([]string, 0, len(target)+len(hunk.Lines))
	out = append(out, target[:loc.Start]...)
	cursor := loc.Start

	for _, line := range hunk.Lines {
		switch line.Kind {
		case LineContext:
			if cursor < len(target) {
				// keep the file's version, which may differ from the
				// patch's stale context
				out = append(out, target[cursor])
				cursor++
			} else {
				// the file ends before the hunk's trailing context;
				// restore the missing lines
				out = append(out, line.Content)
			}
		case LineDeletion:
			if cursor < len(target) {
				if target[cursor] != line.Content &&
					strings.TrimSpace(target[cursor]) != strings.TrimSpace(line.Content) {
					msg := fmt.Sprintf("deletion at line %d removes %q, patch expected %q",
						cursor+1, target[cursor], line.Content)
					warnings = append(warnings, msg)
					logger.Warn("stale deletion", zap.Int("line", cursor+1))
				}
				cursor++
			} else {
				warnings = append(warnings,
					fmt.Sprintf("deletion of %q falls beyond the end of the file", line.Content))
			}
		case LineAddition:
			out = append(out, reindent(line.Content, patchIndent, targetIndent))
		}
	}

	out = append(out, target[cursor:]...)
	return out, cursor - loc.Start, warnings
}

// matchedIndents walks the matched window pairing target lines with the
// hunk's old block and returns the first pair of differing leading
// whitespace prefixes. Equal prefixes mean no adjustment is needed.
func matchedIndents(target []string, start int, old []string) (targetIndent, patchIndent string) {
	limit := len(old)
	if start+limit > len(target) {
		limit = len(target) - start
	}
	for i := 0; i < limit; i++ {
		t, p := target[start+i], old[i]
		if strings.TrimSpace(t) == "" || strings.TrimSpace(p) == "" {
			continue
		}
		ti, pi := leadingWhitespace(t), leadingWhitespace(p)
		if ti != pi {
			return ti, pi
		}
	}
	return "", ""
}

// reindent swaps the patch's indentation prefix for the target's on an
// addition line. Lines that do not carry the patch prefix, and empty lines,
// pass through unchanged.
func reindent(content, patchIndent, targetIndent string) string {
	if content == "" || patchIndent == targetIndent {
		return content
	}
	if rest, ok := strings.CutPrefix(content, patchIndent); ok {
		return targetIndent + rest
	}
	return content
}
