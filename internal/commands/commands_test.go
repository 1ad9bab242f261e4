package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitwalk/internal/report"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := run(t, args...)
	require.NoError(t, err, "gitwalk %s", strings.Join(args, " "))
	return out
}

func TestBenchMemoryBackendJSON(t *testing.T) {
	out := mustRun(t, "bench", "--backend", "memory", "--depth", "20", "--merge-every", "0",
		"--rounds", "2", "--concurrency", "3", "--period", "5ms", "--format", "json")

	var rep report.Report
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, 2, rep.Summary.Rounds)
	assert.Equal(t, 6, rep.Summary.Walkers)
	assert.Zero(t, rep.Summary.Failed)
	assert.Equal(t, map[string]int{"c0": 6}, rep.Summary.Roots)
	require.Len(t, rep.Rounds, 2)
	assert.Equal(t, 1, rep.Rounds[0].Seq)
	assert.Equal(t, 2, rep.Rounds[1].Seq)
}

func TestBenchWritesReportAndMetricsFiles(t *testing.T) {
	dir := t.TempDir()
	reportPath := filepath.Join(dir, "report.yaml")
	metricsPath := filepath.Join(dir, "metrics.prom")

	out := mustRun(t, "bench", "--backend", "memory", "--depth", "30", "--merge-every", "4",
		"--rounds", "1", "--concurrency", "2", "--period", "1ms", "--cache-size", "16",
		"--format", "yaml", "-o", reportPath, "--metrics-file", metricsPath)
	assert.Empty(t, out)

	data, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "walkers: 2")

	data, err = os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "gitwalk_walkers_total")
}

func TestBenchRejectsBadConfig(t *testing.T) {
	_, err := run(t, "bench", "--backend", "memory", "--rounds", "0")
	assert.Error(t, err)

	_, err = run(t, "bench", "--backend", "svn")
	assert.Error(t, err)
}

func TestBenchReadsConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gitwalk.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
backend: memory
rounds: 1
concurrency: 4
period: 1ms
synthetic:
  depth: 5
report:
  format: json
`), 0o644))

	out := mustRun(t, "--config", path, "bench", "--concurrency", "2")
	var rep report.Report
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, 2, rep.Summary.Walkers, "flag overrides file")
	assert.Equal(t, map[string]int{"c0": 2}, rep.Summary.Roots)
}

func TestWalkMemoryBackend(t *testing.T) {
	out := mustRun(t, "walk", "--backend", "memory", "--depth", "12", "--merge-every", "3")
	assert.Contains(t, out, "root c0\n")
	assert.Contains(t, out, "resolutions ")
}

func TestRepositoryWorkflow(t *testing.T) {
	repo := t.TempDir()

	out := mustRun(t, "init", "--repo", repo)
	assert.Contains(t, out, "Initialized empty gitwalk repository")
	_, err := run(t, "init", "--repo", repo)
	assert.Error(t, err, "second init")

	_, err = run(t, "commit", "--repo", repo)
	assert.Error(t, err, "missing message")

	out = mustRun(t, "commit", "--repo", repo, "-m", "first")
	assert.Contains(t, out, "[master ")
	mustRun(t, "commit", "--repo", repo, "-m", "second")

	out = mustRun(t, "checkout", "--repo", repo, "feature")
	assert.Equal(t, "Switched to branch feature\n", out)

	// feature starts empty, so the merge must fast-forward master's state onto it
	out = mustRun(t, "merge", "--repo", repo, "master")
	assert.Contains(t, out, "Fast-forward")

	mustRun(t, "commit", "--repo", repo, "-m", "on feature")
	mustRun(t, "checkout", "--repo", repo, "master")
	mustRun(t, "commit", "--repo", repo, "-m", "on master")

	out = mustRun(t, "merge", "--repo", repo, "feature")
	assert.Contains(t, out, "Merge branch feature into master")

	_, err = run(t, "merge", "--repo", repo, "master")
	assert.Error(t, err, "merge into itself")

	out = mustRun(t, "branch", "--repo", repo)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "* master "), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "  feature "), lines[1])

	out = mustRun(t, "show", "--repo", repo, "--backend", "gitdb")
	assert.Contains(t, out, "parent2 ")
	assert.Contains(t, out, "message Merge branch feature into master")
	assert.Contains(t, out, "branch master")

	out = mustRun(t, "log", "--repo", repo, "--backend", "gitdb")
	assert.Equal(t, 4, strings.Count(out, "commit "), out)
	assert.Contains(t, out, "message first")

	out = mustRun(t, "log", "--repo", repo, "--backend", "gitdb", "-n", "1")
	assert.Equal(t, 1, strings.Count(out, "commit "))

	out = mustRun(t, "walk", "--repo", repo, "--backend", "gitdb")
	assert.Contains(t, out, "root ")
}

func TestSeedThenBenchGitDB(t *testing.T) {
	repo := t.TempDir()
	mustRun(t, "init", "--repo", repo, "--bare")

	out := mustRun(t, "seed", "--repo", repo, "--depth", "40", "--merge-every", "5")
	assert.Contains(t, out, "seeded 49 commits on master")

	out = mustRun(t, "bench", "--repo", repo, "--backend", "gitdb",
		"--rounds", "2", "--concurrency", "4", "--period", "2ms", "--format", "json")
	var rep report.Report
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, 8, rep.Summary.Walkers)
	assert.Zero(t, rep.Summary.Failed)
	require.Len(t, rep.Summary.Roots, 1)
}

func TestOpenRepoOutsideRepository(t *testing.T) {
	_, err := run(t, "commit", "--repo", t.TempDir(), "-m", "x")
	assert.Error(t, err)
}
