package patch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRelPathAccepts(t *testing.T) {
	t.Parallel()

	for _, candidate := range []string{
		"file.txt",
		"a/b/c.txt",
		"./x",
		"a/../b",
		"deep/../file.txt",
	} {
		assert.Nil(t, ValidateRelPath("/tmp/root", candidate), "candidate %q", candidate)
	}
}

func TestValidateRelPathRejects(t *testing.T) {
	t.Parallel()

	cases := []struct {
		candidate string
		code      string
	}{
		{"", CodeEmptyPath},
		{"   ", CodeEmptyPath},
		{"/etc/passwd", CodePathUnsafe},
		{"..", CodePathUnsafe},
		{"../escape.txt", CodePathUnsafe},
		{"a/../../escape.txt", CodePathUnsafe},
		{"a/b/../../../escape.txt", CodePathUnsafe},
	}
	for _, tc := range cases {
		err := ValidateRelPath("/tmp/root", tc.candidate)
		require.NotNil(t, err, "candidate %q", tc.candidate)
		assert.Equal(t, tc.code, err.Code, "candidate %q", tc.candidate)
	}
}

func TestValidateRelPathWithoutRoot(t *testing.T) {
	t.Parallel()

	assert.Nil(t, ValidateRelPath("", "a/b.txt"))
	require.NotNil(t, ValidateRelPath("", "../x"))
	require.NotNil(t, ValidateRelPath("", "/abs"))
}
