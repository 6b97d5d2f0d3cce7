package project

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const legacyYAML = `
github:
  owner: WoDeep
  repo: TimeAttack
  target_branch: main_dev
automation:
  auto_assign_next: true
  auto_merge: false
  skip_final_review: true
  poll_interval: 260
  cooldown_minutes: 45
issue_queue:
  - TA-101
  - TA-102
  - TA-103
issue_numbers:
  TA-101: 11
  TA-102: 12
issue_titles:
  TA-101: "TA-101: timer overlay"
agent_instructions: |
  Follow the style guide.
`

func TestImportLegacy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(legacyYAML), 0644))

	cfg := &Config{}
	require.NoError(t, cfg.Queue.Add("TA-102", 0, ""))

	res, err := ImportLegacy(path, cfg)
	require.NoError(t, err)
	require.Equal(t, []string{"TA-101", "TA-103"}, res.Added)
	require.Equal(t, []string{"TA-102"}, res.Skipped)

	require.Equal(t, "WoDeep/TimeAttack", cfg.GitHub.RepoSlug())
	require.Equal(t, "main_dev", cfg.GitHub.GetTargetBranch())
	require.True(t, cfg.Automation.ShouldAutoAssign())
	require.False(t, cfg.Automation.ShouldAutoMerge())
	require.True(t, cfg.Automation.SkipFinalReview)
	require.Equal(t, 260*time.Second, cfg.Automation.GetPollInterval())
	require.Equal(t, 45*time.Minute, cfg.Automation.GetCooldown())
	require.Equal(t, "Follow the style guide.\n", cfg.Agent.Instructions)

	require.Equal(t, []string{"TA-102", "TA-101", "TA-103"}, cfg.Queue.Items)
	require.Equal(t, 11, cfg.Queue.IssueNumber("TA-101"))
	require.Equal(t, 0, cfg.Queue.IssueNumber("TA-103"))
	require.Equal(t, "TA-101: timer overlay", cfg.Queue.Title("TA-101"))
}

func TestImportLegacyKeepsUnsetValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("issue_queue: [A]\n"), 0644))

	cfg := &Config{GitHub: GitHubConfig{Owner: "octo", Repo: "widgets"}}
	cfg.Automation.CooldownMinutes = intPtr(5)

	_, err := ImportLegacy(path, cfg)
	require.NoError(t, err)
	require.Equal(t, "octo/widgets", cfg.GitHub.RepoSlug())
	require.Equal(t, 5*time.Minute, cfg.Automation.GetCooldown())
	require.Equal(t, []string{"A"}, cfg.Queue.Items)
}

func TestImportLegacyErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := ImportLegacy(filepath.Join(dir, "missing.yaml"), &Config{})
	require.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("issue_queue: {not: [a list"), 0644))
	_, err = ImportLegacy(bad, &Config{})
	require.Error(t, err)
}
