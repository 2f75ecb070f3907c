package patch

import "strings"

// ParseConflictMarkers finds runs of the form
//
//	<<<< [label]
//	old lines
//	====
//	new lines
//	>>>>
//
// with four or more of each delimiter character, and turns each run into a
// single-hunk patch: old lines as deletions, new lines as additions, no
// context. The patches carry empty paths; callers bind the target with
// Patch.BindPath. Malformed runs are silently skipped.
func ParseConflictMarkers(input string) []Patch {
	lines, _ := splitLines(input)
	var patches []Patch

	const (
		scanning = iota
		inOld
		inNew
	)
	state := scanning
	var oldLines, newLines []string

	for _, line := range lines {
		switch state {
		case scanning:
			if isConflictOpen(line) {
				state = inOld
				oldLines, newLines = nil, nil
			}
		case inOld:
			switch {
			case isMarkerRun(line, '='):
				state = inNew
			case isConflictOpen(line):
				// a second opener before the separator restarts the run
				oldLines = nil
			default:
				oldLines = append(oldLines, line)
			}
		case inNew:
			switch {
			case isMarkerRun(line, '>'):
				patches = append(patches, conflictPatch(oldLines, newLines))
				state = scanning
			case isConflictOpen(line):
				state = inOld
				oldLines, newLines = nil, nil
			default:
				newLines = append(newLines, line)
			}
		}
	}

	return patches
}

func conflictPatch(oldLines, newLines []string) Patch {
	hunk := Hunk{Lines: make([]HunkLine, 0, len(oldLines)+len(newLines))}
	for _, line := range oldLines {
		hunk.Lines = append(hunk.Lines, HunkLine{Kind: LineDeletion, Content: line})
	}
	for _, line := range newLines {
		hunk.Lines = append(hunk.Lines, HunkLine{Kind: LineAddition, Content: line})
	}
	return Patch{Hunks: []Hunk{hunk}, EndsWithNewline: true}
}

// isMarkerRun reports whether line consists solely of four or more ch
// characters, modulo trailing whitespace.
func isMarkerRun(line string, ch byte) bool {
	trimmed := strings.TrimRight(line, " \t")
	if len(trimmed) < 4 {
		return false
	}
	for i := 0; i < len(trimmed); i++ {
		if trimmed[i] != ch {
			return false
		}
	}
	return true
}

// isConflictOpen reports whether line opens a conflict run: four or more `<`
// characters, optionally followed by a label.
func isConflictOpen(line string) bool {
	n := 0
	for n < len(line) && line[n] == '<' {
		n++
	}
	if n < 4 {
		return false
	}
	rest := line[n:]
	return rest == "" || rest[0] == ' ' || rest[0] == '\t'
}
