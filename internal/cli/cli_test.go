package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cliDiff = `--- a/x
+++ b/x
@@ -1,3 +1,3 @@
 fn main() {
-    println!("Old");
+    println!("New");
 }
`

func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunAppliesPatch(t *testing.T) {
	t.Parallel()

	workDir := t.TempDir()
	target := writeFixture(t, workDir, "x", "fn main() {\n    println!(\"Old\");\n}\n")
	input := writeFixture(t, t.TempDir(), "change.diff", cliDiff)

	var stdout, stderr bytes.Buffer
	code := Run(context.Background(), []string{"-input", input, "-target", workDir}, &stdout, &stderr)
	require.Equal(t, 0, code, "stderr: %s", stderr.String())

	content, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "fn main() {\n    println!(\"New\");\n}\n", string(content))
	assert.Contains(t, stdout.String(), "x")
}

func TestRunDryRunShowsProposedChanges(t *testing.T) {
	t.Parallel()

	workDir := t.TempDir()
	original := "fn main() {\n    println!(\"Old\");\n}\n"
	target := writeFixture(t, workDir, "x", original)
	input := writeFixture(t, t.TempDir(), "change.diff", cliDiff)

	var stdout, stderr bytes.Buffer
	code := Run(context.Background(), []string{"-input", input, "-target", workDir, "-dry-run"}, &stdout, &stderr)
	require.Equal(t, 0, code, "stderr: %s", stderr.String())

	content, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, original, string(content))
	assert.Contains(t, stdout.String(), "proposed changes for x")
}

func TestRunNoPatchesFound(t *testing.T) {
	t.Parallel()

	input := writeFixture(t, t.TempDir(), "notes.txt", "just some prose\n")

	var stdout, stderr bytes.Buffer
	code := Run(context.Background(), []string{"-input", input, "-target", t.TempDir()}, &stdout, &stderr)
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout.String(), "no patches found")
}

func TestRunFailedHunkExitsNonZero(t *testing.T) {
	t.Parallel()

	workDir := t.TempDir()
	writeFixture(t, workDir, "x", "completely\ndifferent\ncontent\n")
	input := writeFixture(t, t.TempDir(), "change.diff", cliDiff)

	var stdout, stderr bytes.Buffer
	code := Run(context.Background(), []string{"-input", input, "-target", workDir}, &stdout, &stderr)
	assert.Equal(t, 1, code)
}

func TestRunConfigFileSuppliesDefaults(t *testing.T) {
	t.Parallel()

	workDir := t.TempDir()
	target := writeFixture(t, workDir, "x", "fn main() {\n    println!(\"Old\");\n}\n")
	input := writeFixture(t, t.TempDir(), "change.diff", cliDiff)
	config := writeFixture(t, t.TempDir(), "mpatch.yaml", "target_dir: "+workDir+"\nfuzz_factor: 0.5\n")

	var stdout, stderr bytes.Buffer
	code := Run(context.Background(), []string{"-input", input, "-config", config}, &stdout, &stderr)
	require.Equal(t, 0, code, "stderr: %s", stderr.String())

	content, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "fn main() {\n    println!(\"New\");\n}\n", string(content))
}

func TestRunMarkdownInput(t *testing.T) {
	t.Parallel()

	workDir := t.TempDir()
	target := writeFixture(t, workDir, "x", "fn main() {\n    println!(\"Old\");\n}\n")
	input := writeFixture(t, t.TempDir(), "reply.md", "The fix:\n\n```diff\n"+cliDiff+"```\n")

	var stdout, stderr bytes.Buffer
	code := Run(context.Background(), []string{"-input", input, "-target", workDir}, &stdout, &stderr)
	require.Equal(t, 0, code, "stderr: %s", stderr.String())

	content, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "fn main() {\n    println!(\"New\");\n}\n", string(content))
}
