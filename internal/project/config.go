package project

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strings"
	"text/template"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed templates/config.tmpl
var configTemplateText string

// Config represents the project configuration stored in .orch/config.toml.
type Config struct {
	Project    ProjectConfig    `toml:"project"`
	GitHub     GitHubConfig     `toml:"github"`
	Automation AutomationConfig `toml:"automation"`
	Agent      AgentConfig      `toml:"agent"`
	Queue      QueueConfig      `toml:"queue"`
	Status     StatusConfig     `toml:"status"`
	Telemetry  TelemetryConfig  `toml:"telemetry"`
}

// ProjectConfig contains project metadata.
type ProjectConfig struct {
	Name      string    `toml:"name"`
	CreatedAt time.Time `toml:"created_at"`
}

// GitHubConfig identifies the repository the agent works in.
type GitHubConfig struct {
	Owner string `toml:"owner"`
	Repo  string `toml:"repo"`
	// TargetBranch is the branch the agent opens PRs against.
	// Defaults to "main" when not specified.
	TargetBranch string `toml:"target_branch"`
}

// RepoSlug returns "owner/repo", or "" when either part is missing.
func (g *GitHubConfig) RepoSlug() string {
	if g.Owner == "" || g.Repo == "" {
		return ""
	}
	return g.Owner + "/" + g.Repo
}

// GetTargetBranch returns the configured target branch or "main" if not set.
func (g *GitHubConfig) GetTargetBranch() string {
	if g.TargetBranch == "" {
		return "main"
	}
	return g.TargetBranch
}

// AutomationConfig contains the knobs of the delivery pipeline.
type AutomationConfig struct {
	// AutoAssignNext assigns the next queued issue once the pipeline is free.
	// Defaults to true when not specified.
	AutoAssignNext *bool `toml:"auto_assign_next"`

	// AutoMerge merges approved PRs.
	// Defaults to true when not specified.
	AutoMerge *bool `toml:"auto_merge"`

	// SkipFinalReview goes straight to approval after the agent applied
	// review changes instead of requesting one more review.
	SkipFinalReview bool `toml:"skip_final_review"`

	// PollIntervalSeconds is the pause between cycles.
	// Defaults to 60 seconds when not specified.
	PollIntervalSeconds *int `toml:"poll_interval_seconds"`

	// CooldownMinutes is the minimum time between a merge or completion and
	// the next assignment. 0 disables the cooldown.
	// Defaults to 60 minutes when not specified.
	CooldownMinutes *int `toml:"cooldown_minutes"`

	// MergeMethod is one of "squash", "merge" or "rebase".
	// Defaults to "squash" when not specified.
	MergeMethod string `toml:"merge_method"`

	// GracePeriodSeconds is how long a finished agent review without comments
	// is still treated as in progress.
	// Defaults to 120 seconds when not specified.
	GracePeriodSeconds *int `toml:"grace_period_seconds"`

	// SuggestionsOnly counts only review comments with suggested edits as
	// pending changes.
	SuggestionsOnly bool `toml:"suggestions_only"`
}

// ShouldAutoAssign returns true if queued issues are assigned automatically.
// Defaults to true when not explicitly configured.
func (a *AutomationConfig) ShouldAutoAssign() bool {
	if a.AutoAssignNext == nil {
		return true
	}
	return *a.AutoAssignNext
}

// ShouldAutoMerge returns true if approved PRs are merged automatically.
// Defaults to true when not explicitly configured.
func (a *AutomationConfig) ShouldAutoMerge() bool {
	if a.AutoMerge == nil {
		return true
	}
	return *a.AutoMerge
}

// GetPollInterval returns the pause between cycles.
// Defaults to 60 seconds when not specified.
func (a *AutomationConfig) GetPollInterval() time.Duration {
	if a.PollIntervalSeconds != nil && *a.PollIntervalSeconds > 0 {
		return time.Duration(*a.PollIntervalSeconds) * time.Second
	}
	return 60 * time.Second
}

// GetCooldown returns the cooldown period.
// Defaults to 60 minutes when not specified; an explicit 0 disables it.
func (a *AutomationConfig) GetCooldown() time.Duration {
	if a.CooldownMinutes == nil || *a.CooldownMinutes < 0 {
		return 60 * time.Minute
	}
	return time.Duration(*a.CooldownMinutes) * time.Minute
}

// GetMergeMethod returns the merge method.
// Defaults to "squash" when not specified or when an invalid method is configured.
func (a *AutomationConfig) GetMergeMethod() string {
	switch a.MergeMethod {
	case "squash", "merge", "rebase":
		return a.MergeMethod
	default:
		return "squash"
	}
}

// GetGracePeriod returns the review grace period.
// Defaults to 120 seconds when not specified.
func (a *AutomationConfig) GetGracePeriod() time.Duration {
	if a.GracePeriodSeconds != nil && *a.GracePeriodSeconds >= 0 {
		return time.Duration(*a.GracePeriodSeconds) * time.Second
	}
	return 120 * time.Second
}

// AgentConfig contains what the agent is told on assignment.
type AgentConfig struct {
	// Instructions are posted on the issue after it is assigned.
	Instructions string `toml:"instructions"`
}

// QueueConfig is the ordered work queue.
type QueueConfig struct {
	// Items lists queue item IDs in delivery order.
	Items []string `toml:"items"`
	// IssueNumbers maps item IDs to issue numbers known up front.
	IssueNumbers map[string]int `toml:"issue_numbers"`
	// IssueTitles caches issue titles by item ID.
	IssueTitles map[string]string `toml:"issue_titles"`
}

// StatusConfig configures the optional read-only HTTP status endpoint.
type StatusConfig struct {
	// Addr is the listen address, e.g. "127.0.0.1:8787". Empty disables it.
	Addr string `toml:"addr"`
}

// TelemetryConfig configures metric export.
type TelemetryConfig struct {
	Enabled bool `toml:"enabled"`
	// Stdout also prints metrics to stdout.
	Stdout bool `toml:"stdout"`
	// Endpoint is the OTLP/HTTP collector endpoint. Falls back to the
	// OTEL_EXPORTER_OTLP_* environment variables when empty.
	Endpoint string `toml:"endpoint"`
}

// LoadConfig reads and parses a config.toml file.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

// SaveConfig writes the config to the specified path.
func (c *Config) SaveConfig(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// SaveDocumentedConfig writes a fully documented config to the specified path.
// The file is written to a temp file and renamed so a watching daemon never
// reads a half-written config.
func (c *Config) SaveDocumentedConfig(path string) error {
	content := c.GenerateDocumentedConfig()
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace config: %w", err)
	}
	return nil
}

// configTemplateData holds the data used to render the config template.
type configTemplateData struct {
	ProjectName     string
	CreatedAt       string
	Owner           string
	Repo            string
	TargetBranch    string
	AutoAssignNext  bool
	AutoMerge       bool
	SkipFinalReview bool
	PollSeconds     int
	CooldownMinutes int
	MergeMethod     string
	GraceSeconds    int
	SuggestionsOnly bool
	Instructions    string
	Items           []string
	IssueNumbers    map[string]int
	IssueTitles     map[string]string
	StatusAddr      string
	Telemetry       TelemetryConfig
}

// tomlString formats a string for TOML output with proper escaping.
// It wraps the string in double quotes and escapes special characters.
func tomlString(s string) string {
	// Escape backslashes first, then quotes
	escaped := strings.ReplaceAll(s, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	escaped = strings.ReplaceAll(escaped, "\n", `\n`)
	escaped = strings.ReplaceAll(escaped, "\r", `\r`)
	escaped = strings.ReplaceAll(escaped, "\t", `\t`)
	return `"` + escaped + `"`
}

// configTemplate is the parsed template for generating documented config files.
var configTemplate = template.Must(template.New("config").Funcs(template.FuncMap{
	"tomlString": tomlString,
}).Parse(configTemplateText))

// GenerateDocumentedConfig generates a documented config.toml string with comments.
// Defaults are written out explicitly so the file shows the effective values.
func (c *Config) GenerateDocumentedConfig() string {
	data := configTemplateData{
		ProjectName:     c.Project.Name,
		CreatedAt:       c.Project.CreatedAt.Format(time.RFC3339),
		Owner:           c.GitHub.Owner,
		Repo:            c.GitHub.Repo,
		TargetBranch:    c.GitHub.GetTargetBranch(),
		AutoAssignNext:  c.Automation.ShouldAutoAssign(),
		AutoMerge:       c.Automation.ShouldAutoMerge(),
		SkipFinalReview: c.Automation.SkipFinalReview,
		PollSeconds:     int(c.Automation.GetPollInterval() / time.Second),
		CooldownMinutes: int(c.Automation.GetCooldown() / time.Minute),
		MergeMethod:     c.Automation.GetMergeMethod(),
		GraceSeconds:    int(c.Automation.GetGracePeriod() / time.Second),
		SuggestionsOnly: c.Automation.SuggestionsOnly,
		Instructions:    c.Agent.Instructions,
		Items:           c.Queue.Items,
		IssueNumbers:    c.Queue.IssueNumbers,
		IssueTitles:     c.Queue.IssueTitles,
		StatusAddr:      c.Status.Addr,
		Telemetry:       c.Telemetry,
	}

	var buf bytes.Buffer
	if err := configTemplate.Execute(&buf, data); err != nil {
		// Fall back to a minimal valid TOML if template execution fails
		return fmt.Sprintf("[project]\nname = %q\ncreated_at = %s\n[github]\nowner = %q\nrepo = %q\n",
			c.Project.Name, data.CreatedAt, c.GitHub.Owner, c.GitHub.Repo)
	}
	return buf.String()
}
