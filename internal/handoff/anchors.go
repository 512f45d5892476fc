package handoff

import (
	"sort"
	"strconv"
	"strings"
)

// SelectAnchors chooses the turns carried verbatim into the extractor input.
//
// The required set — first turn, recent turns, error and high-signal turns —
// is always included regardless of budget pressure. Remaining turns compete
// on goal score for whatever room is left under the anchor budget.
func SelectAnchors(turns []*Turn, budgets Budgets) []Anchor {
	budgets = budgets.withDefaults()
	if len(turns) == 0 {
		return nil
	}

	required := map[int]bool{}
	required[0] = true
	for i := len(turns) - budgets.RecentTurnCount; i < len(turns); i++ {
		if i >= 0 {
			required[i] = true
		}
	}
	for _, t := range turns {
		if t.HasError || t.HighSignal {
			required[t.Index] = true
		}
	}

	var anchors []Anchor
	usedTokens := 0
	for _, t := range turns {
		if !required[t.Index] {
			continue
		}
		excerpt := buildTurnExcerpt(t, budgets.RequiredAnchorTokens)
		usedTokens += EstimateTokens(excerpt)
		anchors = append(anchors, Anchor{
			Turn:     t,
			Reason:   requiredReason(t),
			Excerpt:  excerpt,
			Required: true,
		})
	}

	var optional []*Turn
	for _, t := range turns {
		if !required[t.Index] {
			optional = append(optional, t)
		}
	}
	sort.SliceStable(optional, func(i, j int) bool {
		if optional[i].GoalScore != optional[j].GoalScore {
			return optional[i].GoalScore > optional[j].GoalScore
		}
		return optional[i].Index < optional[j].Index
	})
	for _, t := range optional {
		if usedTokens >= budgets.AnchorTokens {
			break
		}
		excerpt := buildTurnExcerpt(t, budgets.OptionalAnchorTokens)
		usedTokens += EstimateTokens(excerpt)
		anchors = append(anchors, Anchor{
			Turn:    t,
			Reason:  ReasonGoalMatch,
			Excerpt: excerpt,
		})
	}

	sort.Slice(anchors, func(i, j int) bool {
		return anchors[i].Turn.Index < anchors[j].Turn.Index
	})
	return anchors
}

func requiredReason(t *Turn) AnchorReason {
	switch {
	case t.Index == 0:
		return ReasonFirstUser
	case t.HasError:
		return ReasonError
	default:
		return ReasonKeySignal
	}
}

// buildTurnExcerpt renders a turn for the extractor, with labelled sections
// in a fixed order, truncated to the given token budget.
func buildTurnExcerpt(t *Turn, budgetTokens int) string {
	var sections []string
	if t.UserText != "" {
		sections = append(sections, "[User]: "+t.UserText)
	}
	if len(t.AssistantTexts) > 0 {
		sections = append(sections, "[Assistant]: "+strings.Join(t.AssistantTexts, "\n"))
	}
	if len(t.ToolCalls) > 0 {
		var calls []string
		for _, call := range t.ToolCalls {
			calls = append(calls, displayToolCall(call))
		}
		sections = append(sections, "[Assistant tool calls]: "+strings.Join(calls, "; "))
	}
	var errLines []string
	for _, res := range t.ToolResults {
		if res.IsError {
			errLines = append(errLines, res.ToolName+": "+res.Content)
		}
	}
	if len(errLines) > 0 {
		sections = append(sections, "[Tool errors]: "+strings.Join(errLines, "\n"))
	}
	if len(t.ExtraTexts) > 0 {
		sections = append(sections, "[Custom]: "+strings.Join(t.ExtraTexts, "\n"))
	}
	return TruncateToTokens(strings.Join(sections, "\n"), budgetTokens)
}

const maxDisplayCommandChars = 180

func displayToolCall(call ToolCallInfo) string {
	if call.Name == "bash" {
		cmd := Redact(call.Command())
		if len(cmd) > maxDisplayCommandChars {
			cmd = cmd[:maxDisplayCommandChars] + "..."
		}
		return "bash(command=" + strconv.Quote(cmd) + ")"
	}
	path := call.Path()
	if path == "" {
		return call.Name + "()"
	}
	if IsSensitivePath(path) {
		return call.Name + "(path=" + sensitivePathPlaceholder + ")"
	}
	return call.Name + "(path=" + strconv.Quote(path) + ")"
}
