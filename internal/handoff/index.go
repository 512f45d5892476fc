package handoff

import (
	"strings"

	"carry/internal/app"
)

// highSignalMarkers promote a turn to a required anchor when any of them
// appears in its normalized text. Words users reach for when they state
// constraints, decisions, or unresolved problems.
var highSignalMarkers = []string{
	"must", "constraint", "decision", "blocked", "todo", "fix",
	"should", "require", "avoid", "risk", "bug", "prefer",
}

// BuildBranchIndex walks the branch entries in order and derives the typed
// turn-level model. Deterministic for a given input sequence.
func BuildBranchIndex(entries []app.SessionEntry, budgets Budgets) *BranchIndex {
	budgets = budgets.withDefaults()
	idx := &BranchIndex{
		FileOps:       newFileOperations(),
		ToolCallsByID: map[string]ToolCallInfo{},
	}

	var open *Turn
	finalize := func() {
		if open == nil || len(open.EntryIDs) == 0 {
			open = nil
			return
		}
		finalizeTurn(open)
		open.Index = len(idx.Turns)
		idx.Turns = append(idx.Turns, open)
		open = nil
	}
	ensureOpen := func(entryID string) *Turn {
		if open == nil {
			open = &Turn{StartEntryID: entryID, FilePaths: map[string]bool{}}
		}
		return open
	}

	for i := range entries {
		e := &entries[i]
		switch e.Type {
		case app.EntryTypeMessage:
			switch e.Role {
			case app.RoleUser:
				finalize()
				t := ensureOpen(e.ID)
				t.UserText = Normalize(e.Text)
				t.EntryIDs = append(t.EntryIDs, e.ID)

			case app.RoleAssistant:
				t := ensureOpen(e.ID)
				t.EntryIDs = append(t.EntryIDs, e.ID)
				if text := e.AssistantText(); strings.TrimSpace(text) != "" {
					t.AssistantTexts = append(t.AssistantTexts, Normalize(text))
				}
				if e.StopReason == "error" || e.ErrorMessage != "" {
					t.HasError = true
				}
				for _, call := range e.ToolCalls() {
					info := ToolCallInfo{
						ID:        call.ID,
						Name:      call.Name,
						Arguments: call.Arguments,
						EntryID:   e.ID,
					}
					t.ToolCalls = append(t.ToolCalls, info)
					idx.ToolCallsByID[call.ID] = info
					recordFileOp(idx, t, info)
				}

			case app.RoleToolResult:
				if e.ToolResult == nil {
					continue
				}
				t := ensureOpen(e.ID)
				t.EntryIDs = append(t.EntryIDs, e.ID)
				content := Normalize(TruncateLines(e.ToolResult.Content, budgets.MaxToolOutputLines))
				t.ToolResults = append(t.ToolResults, ToolResultInfo{
					ToolCallID: e.ToolResult.ToolCallID,
					ToolName:   e.ToolResult.ToolName,
					IsError:    e.ToolResult.IsError,
					Content:    content,
				})
				if e.ToolResult.IsError {
					t.HasError = true
				}
			}

		case app.EntryTypeCustomMessage:
			t := ensureOpen(e.ID)
			t.EntryIDs = append(t.EntryIDs, e.ID)
			if text := Normalize(e.Text); text != "" {
				t.ExtraTexts = append(t.ExtraTexts, text)
			}

		case app.EntryTypeCompaction, app.EntryTypeBranchSummary:
			idx.Summaries = append(idx.Summaries, SummaryEntry{
				EntryID: e.ID,
				Kind:    string(e.Type),
				Summary: e.Summary,
			})
			if e.Details != nil {
				for _, p := range e.Details.ReadFiles {
					idx.FileOps.Read[p] = true
				}
				for _, p := range e.Details.ModifiedFiles {
					idx.FileOps.Modified[p] = true
				}
			}

		default:
			// session header, custom entries, anything newer: skipped.
		}
	}
	finalize()

	return idx
}

func recordFileOp(idx *BranchIndex, t *Turn, call ToolCallInfo) {
	path := call.Path()
	if path == "" {
		return
	}
	t.FilePaths[path] = true
	switch call.Name {
	case "read":
		idx.FileOps.Read[path] = true
	case "write", "edit":
		idx.FileOps.Modified[path] = true
	}
}

// finalizeTurn builds the search haystack and the high-signal flag. The
// haystack covers the user text, assistant texts, custom messages, tool-call
// signatures, and error result contents.
func finalizeTurn(t *Turn) {
	var parts []string
	if t.UserText != "" {
		parts = append(parts, t.UserText)
	}
	parts = append(parts, t.AssistantTexts...)
	parts = append(parts, t.ExtraTexts...)
	for _, call := range t.ToolCalls {
		parts = append(parts, toolCallSignature(call))
	}
	for _, res := range t.ToolResults {
		if res.IsError && res.Content != "" {
			parts = append(parts, res.Content)
		}
	}
	t.SearchText = strings.ToLower(Normalize(strings.Join(parts, "\n")))

	for _, marker := range highSignalMarkers {
		if strings.Contains(t.SearchText, marker) {
			t.HighSignal = true
			break
		}
	}
}

func toolCallSignature(call ToolCallInfo) string {
	if call.Name == "bash" {
		return "bash " + Redact(call.Command())
	}
	return call.Name + " " + call.Path()
}
