package project

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// legacyConfig is the YAML configuration used by earlier orchestrator releases.
type legacyConfig struct {
	GitHub struct {
		Owner        string `yaml:"owner"`
		Repo         string `yaml:"repo"`
		TargetBranch string `yaml:"target_branch"`
	} `yaml:"github"`
	Automation struct {
		AutoAssignNext  *bool `yaml:"auto_assign_next"`
		AutoMerge       *bool `yaml:"auto_merge"`
		SkipFinalReview *bool `yaml:"skip_final_review"`
		PollInterval    *int  `yaml:"poll_interval"`
		CooldownMinutes *int  `yaml:"cooldown_minutes"`
	} `yaml:"automation"`
	IssueQueue        []string          `yaml:"issue_queue"`
	IssueNumbers      map[string]int    `yaml:"issue_numbers"`
	IssueTitles       map[string]string `yaml:"issue_titles"`
	AgentInstructions string            `yaml:"agent_instructions"`
}

// LegacyImport summarizes what ImportLegacy changed.
type LegacyImport struct {
	Added   []string
	Skipped []string
}

// ImportLegacy merges a legacy YAML config into cfg. Repository and
// automation settings present in the file replace the current ones; queue
// items are appended in order, and items already queued are skipped.
func ImportLegacy(path string, cfg *Config) (*LegacyImport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read legacy config: %w", err)
	}
	var legacy legacyConfig
	if err := yaml.Unmarshal(data, &legacy); err != nil {
		return nil, fmt.Errorf("failed to parse legacy config: %w", err)
	}

	if legacy.GitHub.Owner != "" {
		cfg.GitHub.Owner = legacy.GitHub.Owner
	}
	if legacy.GitHub.Repo != "" {
		cfg.GitHub.Repo = legacy.GitHub.Repo
	}
	if legacy.GitHub.TargetBranch != "" {
		cfg.GitHub.TargetBranch = legacy.GitHub.TargetBranch
	}

	a := legacy.Automation
	if a.AutoAssignNext != nil {
		cfg.Automation.AutoAssignNext = a.AutoAssignNext
	}
	if a.AutoMerge != nil {
		cfg.Automation.AutoMerge = a.AutoMerge
	}
	if a.SkipFinalReview != nil {
		cfg.Automation.SkipFinalReview = *a.SkipFinalReview
	}
	if a.PollInterval != nil {
		cfg.Automation.PollIntervalSeconds = a.PollInterval
	}
	if a.CooldownMinutes != nil {
		cfg.Automation.CooldownMinutes = a.CooldownMinutes
	}
	if legacy.AgentInstructions != "" {
		cfg.Agent.Instructions = legacy.AgentInstructions
	}

	res := &LegacyImport{}
	for _, id := range legacy.IssueQueue {
		if err := cfg.Queue.Add(id, legacy.IssueNumbers[id], legacy.IssueTitles[id]); err != nil {
			res.Skipped = append(res.Skipped, id)
			continue
		}
		res.Added = append(res.Added, id)
	}
	return res, nil
}
