package main

import (
	"bytes"
	"os"
	"testing"

	"github.com/bottledcode/kwirksearch/internal/config"
	flag "github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

func TestParseFlagsAppliesDefaults(t *testing.T) {
	cfg, extra, err := parseFlags(nil)
	require.NoError(t, err)
	require.Empty(t, extra)
	require.Equal(t, config.Default().Search, cfg.Search)
	require.Equal(t, config.Default().Cache, cfg.Cache)
}

func TestParseFlagsOverridesAndKeepsPositional(t *testing.T) {
	cfg, extra, err := parseFlags([]string{"--search=dfs", "--cache=splay", "--threads=4", "120"})
	require.NoError(t, err)
	require.Equal(t, []string{"120"}, extra)
	require.Equal(t, config.SearchDFS, cfg.Search)
	require.Equal(t, config.CacheSplay, cfg.Cache)
	require.Equal(t, 4, cfg.Threads)
}

func TestParseFlagsRejectsUnknownFlag(t *testing.T) {
	_, _, err := parseFlags([]string{"--not-a-flag"})
	require.Error(t, err)
}

func TestParseFlagsHelpIsErrHelp(t *testing.T) {
	_, _, err := parseFlags([]string{"--help"})
	require.ErrorIs(t, err, flag.ErrHelp)
}

func withTempOutputFiles(t *testing.T) (stdout, stderr *os.File) {
	t.Helper()
	stdout, err := os.CreateTemp(t.TempDir(), "stdout")
	require.NoError(t, err)
	stderr, err = os.CreateTemp(t.TempDir(), "stderr")
	require.NoError(t, err)
	t.Cleanup(func() {
		stdout.Close()
		stderr.Close()
	})
	return stdout, stderr
}

func TestRunSolvesBundledDemoPuzzle(t *testing.T) {
	stdout, stderr := withTempOutputFiles(t)
	code := run([]string{"--max-nodes=256", "50"}, stdout, stderr)
	require.Equal(t, exitOK, code)
}

func TestRunReportsNotFoundWhenFrameBudgetTooSmall(t *testing.T) {
	stdout, stderr := withTempOutputFiles(t)
	code := run([]string{"1"}, stdout, stderr)
	require.Equal(t, exitNotFound, code)
}

func TestRunRejectsBadPositionalArgument(t *testing.T) {
	stdout, stderr := withTempOutputFiles(t)
	code := run([]string{"not-a-number"}, stdout, stderr)
	require.Equal(t, exitBadArguments, code)
	_, err := stderr.Seek(0, 0)
	require.NoError(t, err)
	var buf bytes.Buffer
	buf.ReadFrom(stderr)
	require.Contains(t, buf.String(), "invalid maxFrames")
}

func TestRunRejectsTooManyArguments(t *testing.T) {
	stdout, stderr := withTempOutputFiles(t)
	code := run([]string{"10", "20"}, stdout, stderr)
	require.Equal(t, exitBadArguments, code)
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	stdout, stderr := withTempOutputFiles(t)
	code := run([]string{"--threads=0"}, stdout, stderr)
	require.Equal(t, exitBadArguments, code)
}
