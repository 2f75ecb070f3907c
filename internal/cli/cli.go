package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"
	"github.com/sergi/go-diff/diffmatchpatch"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/asynkron/mpatch/pkg/patch"
)

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// fileConfig mirrors the optional YAML configuration file.
type fileConfig struct {
	TargetDir  string   `yaml:"target_dir"`
	FuzzFactor *float64 `yaml:"fuzz_factor"`
	Strict     bool     `yaml:"strict"`
}

// Run executes the mpatch CLI with the provided arguments. It returns a
// POSIX-style exit code: 0 when every hunk of every patch applied cleanly
// (or the input held no patches), 2 when the flags cannot be parsed, and 1
// otherwise.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}

	if err := godotenv.Load(); err != nil {
		// A missing .env file is fine, but other errors should be surfaced to help with debugging.
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			fmt.Fprintf(stderr, "failed to load .env: %v\n", err)
			return 1
		}
	}

	defaultTarget := os.Getenv("MPATCH_TARGET_DIR")
	if defaultTarget == "" {
		defaultTarget = "."
	}
	defaultFuzz := patch.DefaultFuzzFactor
	if raw := os.Getenv("MPATCH_FUZZ_FACTOR"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			defaultFuzz = v
		}
	}

	flagSet := flag.NewFlagSet("mpatch", flag.ContinueOnError)
	flagSet.SetOutput(stderr)
	input := flagSet.String("input", "-", "file containing the diff to apply, or - for stdin")
	target := flagSet.String("target", defaultTarget, "directory patch paths are resolved against")
	configPath := flagSet.String("config", "", "optional YAML configuration file")
	fuzz := flagSet.Float64("fuzz-factor", defaultFuzz, "similarity threshold in [0,1] for fuzzy matches; 0 disables fuzzy matching")
	dryRun := flagSet.Bool("dry-run", false, "do not write files; print the proposed changes instead")
	strict := flagSet.Bool("strict", false, "treat any hunk failure as a patch failure and leave the file untouched")
	verbose := flagSet.Bool("verbose", false, "log search and application details to stderr")

	if err := flagSet.Parse(args); err != nil {
		return 2
	}

	if *configPath != "" {
		if err := mergeConfig(flagSet, *configPath, target, fuzz, strict); err != nil {
			fmt.Fprintf(stderr, "failed to load config: %v\n", err)
			return 1
		}
	}

	logger := zap.NewNop()
	if *verbose {
		cfg := zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		if built, err := cfg.Build(); err == nil {
			logger = built
			defer func() { _ = logger.Sync() }()
		}
	}

	payload, err := readInput(*input)
	if err != nil {
		fmt.Fprintf(stderr, "failed to read input: %v\n", err)
		return 1
	}

	patches, err := parsePayload(payload, logger)
	if err != nil {
		fmt.Fprintf(stderr, "failed to parse input: %v\n", err)
		return 1
	}
	if len(patches) == 0 {
		fmt.Fprintln(stdout, "no patches found in input")
		return 0
	}

	opts := patch.FilesystemOptions{
		Options: patch.Options{
			DryRun:     *dryRun,
			FuzzFactor: *fuzz,
			Strict:     *strict,
			Logger:     logger,
		},
		TargetDir: *target,
	}
	reports, err := patch.ApplyFilesystem(ctx, patches, opts)
	if err != nil {
		fmt.Fprintf(stderr, "apply failed: %v\n", err)
		return 1
	}

	clean := true
	for i := range reports {
		report := &reports[i]
		printReport(stdout, report)
		if *dryRun && report.Status != "" {
			printProposed(stdout, report)
		}
		if !report.AllApplied() {
			clean = false
		}
	}
	if clean {
		return 0
	}
	return 1
}

// mergeConfig fills in values from the YAML config file for flags the user
// did not set explicitly.
func mergeConfig(flagSet *flag.FlagSet, path string, target *string, fuzz *float64, strict *bool) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var cfg fileConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return err
	}
	set := map[string]bool{}
	flagSet.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if cfg.TargetDir != "" && !set["target"] {
		*target = cfg.TargetDir
	}
	if cfg.FuzzFactor != nil && !set["fuzz-factor"] {
		*fuzz = *cfg.FuzzFactor
	}
	if cfg.Strict && !set["strict"] {
		*strict = true
	}
	return nil
}

func readInput(input string) (string, error) {
	if input == "-" {
		data, err := io.ReadAll(os.Stdin)
		return string(data), err
	}
	data, err := os.ReadFile(input)
	return string(data), err
}

// parsePayload mirrors patch.ParseAuto while routing parser diagnostics to
// the CLI logger.
func parsePayload(payload string, logger *zap.Logger) ([]patch.Patch, error) {
	parser := patch.Parser{Logger: logger}
	switch format := patch.DetectFormat(payload); format {
	case patch.FormatMarkdown:
		return parser.ExtractMarkdown(payload)
	case patch.FormatConflict:
		return patch.ParseConflictMarkers(payload), nil
	case patch.FormatUnified:
		return parser.Parse(payload)
	default:
		return nil, nil
	}
}

func printReport(w io.Writer, report *patch.Report) {
	switch {
	case report.Err != nil:
		fmt.Fprintln(w, failStyle.Render(fmt.Sprintf("✗ %s: %s", report.Path, report.Err.Error())))
	case report.AllApplied():
		fmt.Fprintln(w, okStyle.Render(fmt.Sprintf("✓ %s (%d hunk(s) applied)", report.Path, report.SuccessCount())))
	default:
		fmt.Fprintln(w, failStyle.Render(fmt.Sprintf("✗ %s (%d of %d hunk(s) failed)",
			report.Path, report.FailureCount(), len(report.Hunks))))
	}
	for _, hunk := range report.Hunks {
		if hunk.Failure != nil {
			fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("    hunk %d: %s: %s",
				hunk.Number, hunk.Failure.Kind, hunk.Failure.Detail)))
		}
		for _, warning := range hunk.Warnings {
			fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("    hunk %d: warning: %s", hunk.Number, warning)))
		}
	}
}

// printProposed renders the dry-run changes for one file as a line diff.
func printProposed(w io.Writer, report *patch.Report) {
	dmp := diffmatchpatch.New()
	src, dst, lineArray := dmp.DiffLinesToChars(report.Before, report.After)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(src, dst, false), lineArray)

	fmt.Fprintln(w, dimStyle.Render("----- proposed changes for "+report.Path+" -----"))
	for _, d := range diffs {
		text := strings.TrimSuffix(d.Text, "\n")
		if text == "" && d.Text != "\n" {
			continue
		}
		for _, line := range strings.Split(text, "\n") {
			switch d.Type {
			case diffmatchpatch.DiffInsert:
				fmt.Fprintln(w, okStyle.Render("+"+line))
			case diffmatchpatch.DiffDelete:
				fmt.Fprintln(w, failStyle.Render("-"+line))
			default:
				fmt.Fprintln(w, " "+line)
			}
		}
	}
	fmt.Fprintln(w, dimStyle.Render("------------------------------------"))
}
