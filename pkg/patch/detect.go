package patch

import "strings"

// Format classifies the shape of a raw input before parsing.
type Format string

const (
	FormatUnified  Format = "unified"
	FormatMarkdown Format = "markdown"
	FormatConflict Format = "conflict-markers"
	FormatUnknown  Format = "unknown"
)

// headerWindow bounds how far a `+++ ` header may trail its `--- ` line for
// the input to count as a bare unified diff.
const headerWindow = 4

// DetectFormat classifies input as markdown, conflict markers, a bare unified
// diff, or unknown. Every input yields exactly one classification.
func DetectFormat(input string) Format {
	lines, _ := splitLines(input)

	for _, line := range lines {
		if fenceTicks(line) >= 3 {
			return FormatMarkdown
		}
	}

	if hasConflictRun(lines) {
		return FormatConflict
	}

	for i, line := range lines {
		if !strings.HasPrefix(line, "--- ") {
			continue
		}
		for j := i + 1; j < len(lines) && j <= i+headerWindow; j++ {
			if strings.HasPrefix(lines[j], "+++ ") {
				return FormatUnified
			}
		}
	}

	return FormatUnknown
}

// hasConflictRun reports whether the lines contain an open, separator, and
// close marker in order.
func hasConflictRun(lines []string) bool {
	stage := 0
	for _, line := range lines {
		switch stage {
		case 0:
			if isConflictOpen(line) {
				stage = 1
			}
		case 1:
			if isMarkerRun(line, '=') {
				stage = 2
			}
		case 2:
			if isMarkerRun(line, '>') {
				return true
			}
		}
	}
	return false
}

// ParseAuto detects the input format and dispatches to the matching parser.
// Unknown input yields an empty patch list, never an error, so junk input
// reads as "no patches found" rather than a hard failure.
func ParseAuto(input string) ([]Patch, error) {
	switch DetectFormat(input) {
	case FormatMarkdown:
		return ExtractMarkdownPatches(input)
	case FormatConflict:
		return ParseConflictMarkers(input), nil
	case FormatUnified:
		return ParseUnified(input)
	default:
		return nil, nil
	}
}

// fenceTicks returns the length of the backtick run opening a fence line, or
// 0 when the line is not a fence. Leading whitespace is allowed.
func fenceTicks(line string) int {
	trimmed := strings.TrimLeft(line, " \t")
	n := 0
	for n < len(trimmed) && trimmed[n] == '`' {
		n++
	}
	if n < 3 {
		return 0
	}
	return n
}
