// Package summary turns a computed adherence week into a short coach-voice
// message for the client.
package summary

import (
	"context"
	"fmt"
	"strings"

	"adherence-tracker/internal/compliance"
)

// TextGenerator is an interface for a client that can generate text from a prompt.
type TextGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// Generator builds weekly adherence summaries.
type Generator struct {
	textGen TextGenerator
}

// NewGenerator creates a new Generator instance.
func NewGenerator(textGen TextGenerator) *Generator {
	return &Generator{textGen: textGen}
}

// WeeklySummary produces a two-to-three sentence summary of the week.
func (g *Generator) WeeklySummary(ctx context.Context, result *compliance.Result) (string, error) {
	prompt := buildPrompt(result)

	text, err := g.textGen.GenerateContent(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to generate weekly summary: %w", err)
	}
	return strings.TrimSpace(text), nil
}

func buildPrompt(result *compliance.Result) string {
	var days strings.Builder
	for i, key := range result.DayKeys {
		fmt.Fprintf(&days, "%s: %s\n", key, describeDay(result.Days[i]))
	}

	return fmt.Sprintf(`
You are a supportive fitness and nutrition coach. Below is a client's adherence
for the last seven days. Write a short summary (2-3 sentences) for the client:
acknowledge what went well, gently note what slipped, and suggest one focus for
next week. Plain text only, no lists, no markdown.

Adherence by day:
%s`, days.String())
}

// describeDay renders a day status for the prompt. Ratios are rounded to whole
// percent here, at display time only.
func describeDay(s compliance.DayStatus) string {
	switch s.Kind {
	case compliance.KindRatio:
		return fmt.Sprintf("%.0f%% of planned items completed", s.Ratio*100)
	case compliance.KindRest:
		return "rest day"
	case compliance.KindPending:
		return "still pending"
	case compliance.KindIntroduced:
		return "plan started this day (grace day)"
	case compliance.KindNoRegimen:
		return "no plan assigned"
	case compliance.KindNotSignedUp:
		return "before signup"
	}
	return "unknown"
}
