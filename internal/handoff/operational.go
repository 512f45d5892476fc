package handoff

import (
	"sort"
)

const operationalTextChars = 200

// BuildOperationalItems ranks tool errors and notable bash invocations.
// Errors always sort ahead of successes; within each group, goal-relevant
// turns win.
func BuildOperationalItems(idx *BranchIndex, budgets Budgets) []OperationalItem {
	budgets = budgets.withDefaults()

	seen := map[string]bool{}
	var errItems, okItems []OperationalItem
	for _, t := range idx.Turns {
		for _, res := range t.ToolResults {
			call, hasCall := idx.ToolCallsByID[res.ToolCallID]
			isBash := (hasCall && call.Name == "bash") || res.ToolName == "bash"
			if !res.IsError && !isBash {
				continue
			}
			text := renderOperational(res, call, isBash)
			if text == "" || seen[text] {
				continue
			}
			seen[text] = true
			item := OperationalItem{
				Text:    text,
				IsError: res.IsError,
				Score:   operationalScore(t, res.IsError),
			}
			if item.IsError {
				errItems = append(errItems, item)
			} else {
				okItems = append(okItems, item)
			}
		}
	}

	byScore := func(items []OperationalItem) {
		sort.SliceStable(items, func(i, j int) bool { return items[i].Score > items[j].Score })
	}
	byScore(errItems)
	byScore(okItems)

	out := errItems
	if len(okItems) > budgets.MaxOperationalItems {
		okItems = okItems[:budgets.MaxOperationalItems]
	}
	out = append(out, okItems...)
	if len(out) > budgets.MaxOperationalItems {
		out = out[:budgets.MaxOperationalItems]
	}
	return out
}

func operationalScore(t *Turn, isError bool) int {
	score := 1
	if isError {
		score = 5
	}
	if t.GoalScore > 0 {
		score += 2
	}
	return score + t.GoalScore
}

func renderOperational(res ToolResultInfo, call ToolCallInfo, isBash bool) string {
	clip := func(s string) string {
		if len(s) > operationalTextChars {
			return s[:operationalTextChars] + "..."
		}
		return s
	}
	if isBash {
		out := res.Content
		if out == "" {
			out = "ok"
		}
		return "bash: " + clip(Redact(call.Command())) + " -> " + clip(out)
	}
	name := res.ToolName
	if name == "" {
		name = call.Name
	}
	if name == "" {
		return ""
	}
	return name + ": " + clip(res.Content)
}

// FileLists derives the sorted read-only and modified path lists. Modified
// wins over read for the same path; sensitive paths are dropped after the
// count cap so a secret file never frees a slot for another entry.
func FileLists(ops FileOperations, budgets Budgets) (readFiles, modifiedFiles []string) {
	budgets = budgets.withDefaults()

	for p := range ops.Modified {
		modifiedFiles = append(modifiedFiles, p)
	}
	for p := range ops.Read {
		if !ops.Modified[p] {
			readFiles = append(readFiles, p)
		}
	}
	sort.Strings(readFiles)
	sort.Strings(modifiedFiles)

	trim := func(paths []string) []string {
		if len(paths) > budgets.MaxFileEntries {
			paths = paths[:budgets.MaxFileEntries]
		}
		out := paths[:0]
		for _, p := range paths {
			if !IsSensitivePath(p) {
				out = append(out, p)
			}
		}
		return out
	}
	return trim(readFiles), trim(modifiedFiles)
}
