package patch

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConflictMarkersSingleRun(t *testing.T) {
	t.Parallel()

	patches := ParseConflictMarkers("<<<<\nold line\n====\nnew line\n>>>>\n")
	require.Len(t, patches, 1)

	p := patches[0]
	assert.Empty(t, p.OldPath)
	assert.Empty(t, p.NewPath)
	assert.Empty(t, p.Path())
	require.Len(t, p.Hunks, 1)

	lines := p.Hunks[0].Lines
	require.Len(t, lines, 2)
	assert.Equal(t, HunkLine{Kind: LineDeletion, Content: "old line"}, lines[0])
	assert.Equal(t, HunkLine{Kind: LineAddition, Content: "new line"}, lines[1])
}

func TestParseConflictMarkersWithLabel(t *testing.T) {
	t.Parallel()

	input := strings.Join([]string{
		"<<<<<<< ours",
		"old",
		"=======",
		"new",
		">>>>>>>",
	}, "\n")

	patches := ParseConflictMarkers(input)
	require.Len(t, patches, 1)
	assert.Equal(t, []string{"old"}, patches[0].Hunks[0].OldBlock())
	assert.Equal(t, []string{"new"}, patches[0].Hunks[0].NewBlock())
}

func TestParseConflictMarkersMultipleRuns(t *testing.T) {
	t.Parallel()

	input := strings.Join([]string{
		"<<<<",
		"a",
		"====",
		"A",
		">>>>",
		"prose in between",
		"<<<<",
		"b",
		"====",
		"B",
		">>>>",
	}, "\n")

	patches := ParseConflictMarkers(input)
	require.Len(t, patches, 2)
	assert.Equal(t, []string{"a"}, patches[0].Hunks[0].OldBlock())
	assert.Equal(t, []string{"B"}, patches[1].Hunks[0].NewBlock())
}

func TestParseConflictMarkersMalformedRunSkipped(t *testing.T) {
	t.Parallel()

	// no closing marker
	assert.Empty(t, ParseConflictMarkers("<<<<\nold\n====\nnew\n"))
	// separator without an opener
	assert.Empty(t, ParseConflictMarkers("====\nnew\n>>>>\n"))
	// too few marker characters
	assert.Empty(t, ParseConflictMarkers("<<<\nold\n===\nnew\n>>>\n"))
}

func TestParseConflictMarkersMultiLineSides(t *testing.T) {
	t.Parallel()

	input := strings.Join([]string{
		"<<<<",
		"one",
		"two",
		"====",
		"ONE",
		"TWO",
		"THREE",
		">>>>",
	}, "\n")

	patches := ParseConflictMarkers(input)
	require.Len(t, patches, 1)
	h := patches[0].Hunks[0]
	assert.Equal(t, []string{"one", "two"}, h.OldBlock())
	assert.Equal(t, []string{"ONE", "TWO", "THREE"}, h.NewBlock())
	assert.True(t, h.HasChanges())
}
