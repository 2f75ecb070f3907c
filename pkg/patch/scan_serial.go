//go:build mpatch_serial

package patch

// scanWindows is the single-threaded fuzzy scan used when the mpatch_serial
// build tag is set, for environments without threading such as
// single-threaded WebAssembly. Results are identical to the parallel scan.
func scanWindows(target, old []string, hint int) (int, float64) {
	return scanRange(target, old, 0, len(target)-len(old)+1, hint)
}
