// Package llm provides LLM-backed triage suggestions for new issues, with a
// keyword heuristic fallback when no API key is configured.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/bugboard/bugboard/internal/models"
)

// Triage holds a suggested classification for an issue.
type Triage struct {
	Type     models.IssueType     `json:"type"`
	Priority models.IssuePriority `json:"priority"`
	Reason   string               `json:"reason"`
}

// Client wraps the Anthropic API for issue triage.
type Client struct {
	api   *anthropic.Client
	model anthropic.Model
}

// NewClient creates an LLM client with the given API key and model. An empty
// API key yields a nil client; callers fall back to ClassifyTriage.
func NewClient(apiKey, model string) *Client {
	if apiKey == "" {
		return nil
	}
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &Client{
		api:   &client,
		model: anthropic.Model(model),
	}
}

// buildTriagePrompt constructs the system and user prompts for triage.
func buildTriagePrompt(title, description string) (system string, user string) {
	system = `You triage issues for a bug tracker. Given an issue's title and optional description, return a JSON object with exactly three fields:

- "type": one of "QUESTION", "BUG", "DOCUMENTATION", "FEATURE"
- "priority": one of "LOW", "MEDIUM", "HIGH", "CRITICAL"
- "reason": one short sentence justifying the classification

Rules:
- Problems, crashes, and regressions are BUG
- Requests for new capabilities are FEATURE
- Requests to explain or document behavior are QUESTION or DOCUMENTATION
- Reserve CRITICAL for data loss, security, or production outages
- Default priority to MEDIUM unless context suggests otherwise
- Return valid JSON only, no markdown fencing or explanation`

	var sb strings.Builder
	sb.WriteString("Issue title: ")
	sb.WriteString(title)
	sb.WriteString("\n")
	if description != "" {
		sb.WriteString("\nDescription:\n")
		sb.WriteString(description)
		sb.WriteString("\n")
	}
	user = sb.String()
	return
}

// SuggestTriage sends the issue to the LLM and returns a suggested type and
// priority.
func (c *Client) SuggestTriage(ctx context.Context, title, description string) (*Triage, error) {
	systemPrompt, userPrompt := buildTriagePrompt(title, description)

	msg, err := c.api.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: 1024,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic API call: %w", err)
	}

	// Extract text from response
	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}
	if text == "" {
		return nil, fmt.Errorf("no text content in API response")
	}

	// Strip markdown fencing if present
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		lines := strings.SplitN(text, "\n", 2)
		if len(lines) > 1 {
			text = lines[1]
		}
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}

	var triage Triage
	if err := json.Unmarshal([]byte(text), &triage); err != nil {
		return nil, fmt.Errorf("parse LLM response as JSON: %w\nraw response: %s", err, text)
	}

	if _, err := models.ParseType(string(triage.Type)); err != nil {
		return nil, fmt.Errorf("LLM returned unknown type %q", triage.Type)
	}
	if _, err := models.ParsePriority(string(triage.Priority)); err != nil {
		return nil, fmt.Errorf("LLM returned unknown priority %q", triage.Priority)
	}
	return &triage, nil
}

// ClassifyTriage infers type and priority from the title using keyword
// heuristics. Used when no LLM is configured.
func ClassifyTriage(title string) *Triage {
	return &Triage{
		Type:     classifyType(title),
		Priority: classifyPriority(title),
		Reason:   "keyword heuristic",
	}
}

// classifyType infers the issue type from a title. Bug keywords win over
// documentation keywords (e.g., "fix the docs build" is a bug). Defaults to
// FEATURE if nothing matches.
func classifyType(title string) models.IssueType {
	lower := strings.ToLower(title)

	bugPhrases := []string{
		"issue with", "not working",
	}
	for _, kw := range bugPhrases {
		if strings.Contains(lower, kw) {
			return models.IssueTypeBug
		}
	}

	bugWords := []string{
		"fix ", "fix:", "fixed", "fixes", "fixing",
		"bug", "broken", "crash", "error",
		"regression", "fail", "fault", "defect",
	}
	for _, kw := range bugWords {
		if strings.Contains(lower, kw) {
			return models.IssueTypeBug
		}
	}
	// "fix" at end of string
	if strings.HasSuffix(lower, "fix") {
		return models.IssueTypeBug
	}

	docKeywords := []string{
		"document", "docs", "readme", "changelog", "tutorial", "guide",
	}
	for _, kw := range docKeywords {
		if strings.Contains(lower, kw) {
			return models.IssueTypeDocumentation
		}
	}

	questionKeywords := []string{
		"how to", "how do", "why does", "question", "clarify", "?",
	}
	for _, kw := range questionKeywords {
		if strings.Contains(lower, kw) {
			return models.IssueTypeQuestion
		}
	}

	return models.IssueTypeFeature
}

// classifyPriority infers the issue priority from a title. Critical keywords
// are checked before high and low ones. Defaults to MEDIUM.
func classifyPriority(title string) models.IssuePriority {
	lower := strings.ToLower(title)

	criticalKeywords := []string{
		"critical", "data loss", "security", "production down", "p0",
	}
	for _, kw := range criticalKeywords {
		if strings.Contains(lower, kw) {
			return models.IssuePriorityCritical
		}
	}

	highKeywords := []string{
		"urgent", "blocker", "crash", "p1",
	}
	for _, kw := range highKeywords {
		if strings.Contains(lower, kw) {
			return models.IssuePriorityHigh
		}
	}

	lowKeywords := []string{
		"minor", "nice to have", "cosmetic", "trivial",
		"low priority", "cleanup", "clean up",
	}
	for _, kw := range lowKeywords {
		if strings.Contains(lower, kw) {
			return models.IssuePriorityLow
		}
	}

	return models.IssuePriorityMedium
}
