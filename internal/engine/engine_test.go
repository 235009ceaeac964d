package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"updaterepos/internal/config"
	"updaterepos/internal/outcome"
	"updaterepos/internal/vcs"
)

// tree creates dirs (slash separated, relative to a temp root) and returns
// the root.
func tree(t *testing.T, dirs ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, d := range dirs {
		require.NoError(t, os.MkdirAll(filepath.Join(root, filepath.FromSlash(d)), 0o755))
	}
	return root
}

func testConfig(t *testing.T, roots ...string) *config.Config {
	t.Helper()
	cfg := config.New()
	cfg.Discovery.Roots = roots
	cfg.Output.ConsoleFormat = "json"
	cfg.Runtime.Concurrency = 2
	require.NoError(t, cfg.Validate())
	return cfg
}

func runEngine(t *testing.T, cfg *config.Config, exec Executor) (int, outcome.Summary, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	e := NewEngine(testRegistry(), exec)
	e.Stdout, e.Stderr = &stdout, &stderr

	code := e.Run(context.Background(), cfg)

	var sum outcome.Summary
	if cfg.Output.ConsoleFormat == "json" && !cfg.Output.NoConsole && !cfg.Update.DryRun && stdout.Len() > 0 {
		require.NoError(t, json.Unmarshal(stdout.Bytes(), &sum), stdout.String())
	}
	return code, sum, stderr.String()
}

func statuses(sum outcome.Summary) map[string]vcs.Status {
	out := make(map[string]vcs.Status)
	for _, o := range sum.Outcomes {
		out[filepath.Base(o.Repo.Path)] = o.Status
	}
	return out
}

func TestEngine_Run_UpdatesDiscoveredRepositories(t *testing.T) {
	root := tree(t, "a/.git", "current-b/.git", "c")
	cfg := testConfig(t, root)

	code, sum, _ := runEngine(t, cfg, &fakeExecutor{})

	assert.Equal(t, ExitOK, code)
	assert.Equal(t, map[string]vcs.Status{"a": vcs.StatusUpdated, "current-b": vcs.StatusAlreadyCurrent}, statuses(sum))
	assert.Equal(t, 2, sum.Total)
	assert.Equal(t, 1, sum.Counts[vcs.StatusUpdated])
	assert.Equal(t, 1, sum.Counts[vcs.StatusAlreadyCurrent])
	assert.NotEmpty(t, sum.RunID)
	assert.Equal(t, 0, sum.Outcomes[0].Index)
	assert.Equal(t, filepath.Join(root, "a"), sum.Outcomes[0].Repo.Path)
}

func TestEngine_Run_SecondRunIsAlreadyCurrent(t *testing.T) {
	root := tree(t, "current-a/.git", "current-b/.git")
	cfg := testConfig(t, root)

	for range 2 {
		code, sum, _ := runEngine(t, cfg, &fakeExecutor{})
		assert.Equal(t, ExitOK, code)
		assert.Equal(t, 2, sum.Counts[vcs.StatusAlreadyCurrent])
	}
}

func TestEngine_Run_NoRepositories(t *testing.T) {
	cfg := testConfig(t, tree(t, "x/y/z"))
	code, sum, _ := runEngine(t, cfg, &fakeExecutor{})
	assert.Equal(t, ExitOK, code)
	assert.Equal(t, 0, sum.Total)
	assert.Empty(t, sum.Outcomes)
}

func TestEngine_Run_FailureIsPartial(t *testing.T) {
	root := tree(t, "a/.git", "broken/.git", "attention/.git")
	cfg := testConfig(t, root)

	code, sum, _ := runEngine(t, cfg, &fakeExecutor{})
	assert.Equal(t, ExitPartial, code)
	assert.Equal(t, 3, sum.Total, "a failure never aborts the run")

	cfg.Update.FailOn = []string{"needs-attention"}
	require.NoError(t, cfg.Validate())
	code, _, _ = runEngine(t, cfg, &fakeExecutor{})
	assert.Equal(t, ExitNeedsAttention, code)
}

func TestEngine_Run_UnknownMarkersAreReported(t *testing.T) {
	root := tree(t, "old/CVS", "a/.git")
	code, sum, _ := runEngine(t, testConfig(t, root), &fakeExecutor{})
	assert.Equal(t, ExitOK, code)
	assert.Equal(t, vcs.StatusUnknown, statuses(sum)["old"])
}

func TestEngine_Run_DiscoveryErrorIsPartial(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("needs unreadable directories")
	}
	root := tree(t, "a/.git", "locked/inner/.git")
	locked := filepath.Join(root, "locked")
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	code, sum, _ := runEngine(t, testConfig(t, root), &fakeExecutor{})
	assert.Equal(t, ExitPartial, code)
	assert.Equal(t, vcs.StatusUpdated, statuses(sum)["a"])
	require.Len(t, sum.DiscoveryErrors, 1)
	assert.Equal(t, locked, sum.DiscoveryErrors[0].Path)
}

func TestEngine_Run_FatalErrors(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing")
	cfg := testConfig(t, missing)
	code, _, stderr := runEngine(t, cfg, &fakeExecutor{})
	assert.Equal(t, ExitFatal, code)
	assert.Contains(t, stderr, "Error:")

	cfg = testConfig(t, tree(t))
	cfg.Update.ExtraArgs = map[string][]string{"svn": {"--quiet"}}
	code, _, stderr = runEngine(t, cfg, &fakeExecutor{})
	assert.Equal(t, ExitFatal, code, "extra args for an unregistered kind")
	assert.Contains(t, stderr, "configuring adapters")
}

func TestEngine_Run_CancelledContext(t *testing.T) {
	root := tree(t, "a/.git", "b/.git")
	cfg := testConfig(t, root)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var stdout bytes.Buffer
	exec := &fakeExecutor{}
	e := NewEngine(testRegistry(), exec)
	e.Stdout, e.Stderr = &stdout, &bytes.Buffer{}

	code := e.Run(ctx, cfg)

	var sum outcome.Summary
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &sum))
	assert.Equal(t, ExitPartial, code)
	assert.True(t, sum.Cancelled)
	assert.Equal(t, 2, sum.Total, "every repository still gets an outcome")
	assert.Empty(t, exec.called())
}

func TestEngine_Run_NoConsoleIsSilent(t *testing.T) {
	cfg := testConfig(t, tree(t, "a/.git"))
	cfg.Output.NoConsole = true

	var stdout, stderr bytes.Buffer
	e := NewEngine(testRegistry(), &fakeExecutor{})
	e.Stdout, e.Stderr = &stdout, &stderr
	assert.Equal(t, ExitOK, e.Run(context.Background(), cfg))
	assert.Empty(t, stdout.String())
	assert.Empty(t, stderr.String())
}

func TestEngine_Run_WritesOutFileAndReport(t *testing.T) {
	root := tree(t, "a/.git", "broken/.git")
	outDir := t.TempDir()
	cfg := testConfig(t, root)
	cfg.Output.NoConsole = true
	cfg.Output.Out = filepath.Join(outDir, "events.ndjson")
	cfg.Output.Report = filepath.Join(outDir, "report.md")
	require.NoError(t, cfg.Validate())

	e := NewEngine(testRegistry(), &fakeExecutor{})
	e.Stdout, e.Stderr = &bytes.Buffer{}, &bytes.Buffer{}
	code := e.Run(context.Background(), cfg)
	assert.Equal(t, ExitPartial, code)

	events, err := os.ReadFile(cfg.Output.Out)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(events)), "\n")
	require.Len(t, lines, 5, "run.started, 2 x repo.finished, run.summary, run.finished")
	assert.Contains(t, lines[0], `"type":"run.started"`)
	assert.Contains(t, lines[4], `"exit_code":2`)

	report, err := os.ReadFile(cfg.Output.Report)
	require.NoError(t, err)
	assert.Contains(t, string(report), "- Exit code: 2")
	assert.Contains(t, string(report), "broken")
}

func TestEngine_List(t *testing.T) {
	root := tree(t, "b/.hg", "a/.git", "c")
	cfg := testConfig(t, root)

	var stdout bytes.Buffer
	e := NewEngine(vcs.NewRegistry(fakeAdapter{kind: vcs.KindGit}, fakeAdapter{kind: vcs.KindHg}), &fakeExecutor{})
	e.Stdout, e.Stderr = &stdout, &bytes.Buffer{}

	assert.Equal(t, ExitOK, e.List(context.Background(), cfg))
	assert.Equal(t, "git\t"+filepath.Join(root, "a")+"\nhg\t"+filepath.Join(root, "b")+"\n", stdout.String())

	stdout.Reset()
	cfg.Update.Kinds = []string{"hg"}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, ExitOK, e.List(context.Background(), cfg))
	assert.Equal(t, "hg\t"+filepath.Join(root, "b")+"\n", stdout.String())
}

func TestEngine_DryRunExecutesNothing(t *testing.T) {
	cfg := testConfig(t, tree(t, "a/.git"))
	cfg.Update.DryRun = true

	exec := &fakeExecutor{}
	var stdout bytes.Buffer
	e := NewEngine(testRegistry(), exec)
	e.Stdout, e.Stderr = &stdout, &bytes.Buffer{}
	assert.Equal(t, ExitOK, e.Run(context.Background(), cfg))
	assert.Empty(t, exec.called())
	assert.Contains(t, stdout.String(), "git\t")
}
