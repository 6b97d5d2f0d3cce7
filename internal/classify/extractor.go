package classify

import "strings"

// Extractor recognizes agent-specific text and identities. Swapping it adapts
// the classifier to a different coding agent or to changed bot phrasing.
type Extractor interface {
	// IsApplyRequest reports whether a PR comment asks the agent to apply review changes.
	IsApplyRequest(body string) bool
	// IsWorkFinished reports whether a PR comment announces the agent finished a work session.
	IsWorkFinished(body string) bool
	// IsReviewSignature reports whether a review body shows the agent completed its review.
	IsReviewSignature(body string) bool
	// IsSuggestion reports whether a review comment carries a concrete suggested edit.
	IsSuggestion(body string) bool
	// IsAgentLogin reports whether a login belongs to the agent.
	IsAgentLogin(login string) bool
}

// CopilotExtractor matches the phrasing of the GitHub Copilot coding agent
// and the Copilot pull request reviewer.
type CopilotExtractor struct{}

var _ Extractor = CopilotExtractor{}

func (CopilotExtractor) IsApplyRequest(body string) bool {
	lower := strings.ToLower(body)
	return strings.Contains(lower, "@copilot") && strings.Contains(lower, "apply")
}

func (CopilotExtractor) IsWorkFinished(body string) bool {
	return strings.Contains(strings.ToLower(body), "copilot finished work on behalf of")
}

func (CopilotExtractor) IsReviewSignature(body string) bool {
	return strings.Contains(body, "Copilot finished reviewing") || strings.Contains(body, "Copilot reviewed")
}

func (CopilotExtractor) IsSuggestion(body string) bool {
	return strings.Contains(body, "```suggestion")
}

func (CopilotExtractor) IsAgentLogin(login string) bool {
	return strings.Contains(strings.ToLower(login), "copilot")
}
