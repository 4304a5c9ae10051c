package cmd

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/zjrosen/citehint/internal/citation"
	"github.com/zjrosen/citehint/internal/config"
	"github.com/zjrosen/citehint/internal/log"
	"github.com/zjrosen/citehint/internal/tracing"
)

const testBibliography = "References\n\nShakespeare, W. 1995. Hamlet.\nSmith, J. and Doe, K. 2001.\n1995-1996\n"

// isolate runs the test from an empty directory with an empty home so no
// real config file is picked up.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("CITEHINT_DEBUG", "")
	return dir
}

func writeDoc(t *testing.T, dir, text string) string {
	t.Helper()
	path := filepath.Join(dir, "refs.txt")
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	return path
}

// execute runs the root command with fresh global config state.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out, _, err := executeCapture(t, args...)
	return out, err
}

// executeCapture is execute that also returns what went to stderr.
func executeCapture(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	viper.Reset()
	_ = viper.BindPFlag("strategy", rootCmd.PersistentFlags().Lookup("strategy"))
	cfgFile = ""

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func TestReadConfig_DefaultsWithoutFile(t *testing.T) {
	isolate(t)

	got, err := readConfig(viper.New(), "")
	require.NoError(t, err)

	want := config.Defaults()
	require.Equal(t, want.Strategy, got.Strategy)
	require.Equal(t, want.Opacity, got.Opacity)
	require.Equal(t, want.Punctuation, got.Punctuation)
	require.Equal(t, want.Watch, got.Watch)
}

func TestReadConfig_LocalFile(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".citehint"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, localConfigPath), []byte(`
strategy: token
opacity: 0.25
watch:
  debounce: 50ms
`), 0o600))

	got, err := readConfig(viper.New(), "")
	require.NoError(t, err)
	require.Equal(t, "token", got.Strategy)
	require.Equal(t, 0.25, got.Opacity)
	require.Equal(t, 50*time.Millisecond, got.Watch.Debounce)
	require.True(t, got.Watch.Enabled, "unset keys keep their defaults")
}

func TestReadConfig_ExplicitPathAndEnv(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("opacity: 0.6\n"), 0o600))
	t.Setenv("CITEHINT_THEME_BACKGROUND", "#000000")

	got, err := readConfig(viper.New(), path)
	require.NoError(t, err)
	require.Equal(t, 0.6, got.Opacity)
	require.Equal(t, "#000000", got.Theme.Background)
}

func TestReadConfig_Invalid(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("strategy: fuzzy\n"), 0o600))

	_, err := readConfig(viper.New(), path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid configuration")
}

func TestReadConfig_MissingExplicitFile(t *testing.T) {
	isolate(t)
	_, err := readConfig(viper.New(), "/nonexistent/citehint.yaml")
	require.Error(t, err)
}

func TestDebugLog_HonorsLogLevel(t *testing.T) {
	dir := isolate(t)
	path := writeDoc(t, dir, testBibliography)
	logPath := filepath.Join(dir, "debug.log")
	t.Setenv("CITEHINT_DEBUG", "1")
	t.Setenv("CITEHINT_LOG", logPath)
	t.Cleanup(log.Reset)

	_, err := execute(t, "ranges", path)
	require.NoError(t, err)
	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	require.Contains(t, string(data), "citehint starting")

	require.NoError(t, os.Remove(logPath))
	t.Setenv("CITEHINT_LOG_LEVEL", "warn")
	_, err = execute(t, "ranges", path)
	require.NoError(t, err)
	data, err = os.ReadFile(logPath)
	require.NoError(t, err)
	require.NotContains(t, string(data), "citehint starting")
}

func TestColorProfile(t *testing.T) {
	p, force, err := colorProfile("always")
	require.NoError(t, err)
	require.True(t, force)
	require.Equal(t, termenv.TrueColor, p)

	p, force, err = colorProfile("NEVER")
	require.NoError(t, err)
	require.True(t, force)
	require.Equal(t, termenv.Ascii, p)

	_, force, err = colorProfile("auto")
	require.NoError(t, err)
	require.False(t, force)

	_, _, err = colorProfile("sometimes")
	require.Error(t, err)
}

func TestRender_NeverColorIsVerbatim(t *testing.T) {
	dir := isolate(t)
	path := writeDoc(t, dir, testBibliography)

	out, err := execute(t, "render", "--strategy", "pattern", "--color", "never", "--opacity", "0.4", path)
	require.NoError(t, err)
	require.Equal(t, testBibliography, out)
}

func TestRender_AlwaysColorDimsCitations(t *testing.T) {
	dir := isolate(t)
	path := writeDoc(t, dir, testBibliography)

	out, err := execute(t, "render", "--strategy", "pattern", "--color", "always", "--opacity", "0.4", path)
	require.NoError(t, err)
	require.NotEqual(t, testBibliography, out)
	require.Equal(t, testBibliography, ansi.Strip(out))
}

func TestRender_RejectsBadFlags(t *testing.T) {
	dir := isolate(t)
	path := writeDoc(t, dir, testBibliography)

	_, err := execute(t, "render", "--strategy", "pattern", "--color", "sometimes", "--opacity", "0.4", path)
	require.Error(t, err)

	_, err = execute(t, "render", "--strategy", "pattern", "--color", "never", "--opacity", "1.5", path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "opacity")
}

func TestRanges_JSON(t *testing.T) {
	dir := isolate(t)
	path := writeDoc(t, dir, testBibliography)

	out, err := execute(t, "ranges", "--strategy", "pattern", "--format", "json", "--focus=false", path)
	require.NoError(t, err)

	var got rangesOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Equal(t, path, got.Path)
	require.Equal(t, citation.StrategyPattern, got.Strategy)
	require.Len(t, got.Lines, 4, "blank line is not eligible")

	require.Equal(t, 2, got.Lines[1].Line)
	require.Equal(t, []citation.Span{{Start: 11, End: 16}, {Start: 20, End: 29}}, got.Lines[1].Dim)
	require.Nil(t, got.Lines[1].Focus)
	require.NotContains(t, out, `"focus"`)

	require.Equal(t, []citation.Span{{Start: 0, End: 10}}, got.Lines[0].Dim, "no focus dims the whole line")
}

func TestRanges_YAMLWithFocus(t *testing.T) {
	dir := isolate(t)
	path := writeDoc(t, dir, testBibliography)

	out, err := execute(t, "ranges", "--strategy", "pattern", "--format", "yaml", "--focus", path)
	require.NoError(t, err)

	var got rangesOutput
	require.NoError(t, yaml.Unmarshal([]byte(out), &got))
	require.Len(t, got.Lines, 4)
	require.Equal(t, []citation.Span{{Start: 0, End: 11}, {Start: 16, End: 20}}, got.Lines[1].Focus)
}

func TestRanges_Stdin(t *testing.T) {
	isolate(t)
	rootCmd.SetIn(strings.NewReader("Smith, J. 2001."))
	t.Cleanup(func() { rootCmd.SetIn(nil) })

	out, err := execute(t, "ranges", "--strategy", "pattern", "--format", "json", "--focus=false", "-")
	require.NoError(t, err)

	var got rangesOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Equal(t, "-", got.Path)
	require.Equal(t, []citation.Span{{Start: 5, End: 10}, {Start: 14, End: 15}}, got.Lines[0].Dim)
}

func TestRanges_StdoutTracingKeepsJSONClean(t *testing.T) {
	dir := isolate(t)
	path := writeDoc(t, dir, "Doe, J. 2001\n")
	t.Setenv("CITEHINT_TRACING_ENABLED", "true")
	t.Setenv("CITEHINT_TRACING_EXPORTER", "stdout")

	out, errOut, err := executeCapture(t, "ranges", "--strategy", "pattern", "--format", "json", "--focus=false", path)
	require.NoError(t, err)

	var got rangesOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got), "stdout must hold only the ranges document")
	require.Len(t, got.Lines, 1)
	require.Contains(t, errOut, tracing.SpanAnalyzeDocument, "spans are exported to stderr")
}

func TestRanges_BadFormat(t *testing.T) {
	dir := isolate(t)
	path := writeDoc(t, dir, "x")

	_, err := execute(t, "ranges", "--strategy", "pattern", "--format", "toml", "--focus=false", path)
	require.Error(t, err)
}

func TestCompare_ReportsDisagreements(t *testing.T) {
	dir := isolate(t)
	path := writeDoc(t, dir, testBibliography)

	out, err := execute(t, "compare", "--strategy", "pattern", path)
	require.NoError(t, err)
	require.Contains(t, out, "5: 1995-1996")
	require.Contains(t, out, "pattern [4,5)")
	require.Contains(t, out, "token   [0,9)")
	require.NotContains(t, out, "Shakespeare", "both strategies agree on a plain citation")
	require.Contains(t, out, "of 4 lines differ")
}

func TestRequireDocument(t *testing.T) {
	tty := func(io.Reader) bool { return true }
	pipe := func(io.Reader) bool { return false }
	stdin := strings.NewReader("")

	require.ErrorIs(t, requireDocument(stdin, nil, tty), errNoDocument)
	require.ErrorIs(t, requireDocument(stdin, []string{"-"}, tty), errNoDocument)
	require.NoError(t, requireDocument(stdin, []string{"refs.txt"}, tty))
	require.NoError(t, requireDocument(stdin, nil, pipe))
}

func TestIsTerminal_NonTerminals(t *testing.T) {
	require.False(t, isTerminal(strings.NewReader("x")))

	f, err := os.Open(writeDoc(t, t.TempDir(), "x"))
	require.NoError(t, err)
	defer f.Close()
	require.False(t, isTerminal(f))
}

func TestUnknownStrategyFlag(t *testing.T) {
	dir := isolate(t)
	path := writeDoc(t, dir, "x")

	_, err := execute(t, "ranges", "--strategy", "fuzzy", "--format", "json", "--focus=false", path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "strategy")
}
