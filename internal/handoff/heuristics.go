package handoff

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"carry/internal/app"
)

// Offline heuristics mode: replay session files through the indexing and
// selection core and dump per-turn records for inspection and tuning.

type TurnRecord struct {
	SessionFile   string   `json:"sessionFile"`
	SessionID     string   `json:"sessionId"`
	GoalSource    string   `json:"goalSource"`
	Goal          string   `json:"goal"`
	TurnIndex     int      `json:"turnIndex"`
	EntryID       string   `json:"entryId"`
	UserText      string   `json:"userText"`
	AssistantText string   `json:"assistantText"`
	ToolCalls     []string `json:"toolCalls"`
	ToolErrors    []string `json:"toolErrors"`
	FilePaths     []string `json:"filePaths"`
	HasError      bool     `json:"hasError"`
	HighSignal    bool     `json:"highSignal"`
	GoalScore     int      `json:"goalScore"`
	Selected      bool     `json:"selected"`
	Required      bool     `json:"required"`
	Reasons       []string `json:"reasons"`
}

type SessionRecord struct {
	SessionFile   string `json:"sessionFile"`
	SessionID     string `json:"sessionId"`
	GoalSource    string `json:"goalSource"`
	Goal          string `json:"goal"`
	TurnCount     int    `json:"turnCount"`
	SelectedCount int    `json:"selectedCount"`
}

type HeuristicsOptions struct {
	// Goal forces one goal for every session; otherwise each session's goal
	// comes from its last handoff record, falling back to its last user
	// message.
	Goal    string
	OutDir  string
	Budgets Budgets
}

// RunHeuristics processes the given session files (every known session when
// empty) and writes turns.jsonl and sessions.json under OutDir.
func RunHeuristics(store *app.SessionStore, files []string, opts HeuristicsOptions) error {
	if len(files) == 0 {
		var err error
		files, err = store.SessionFiles()
		if err != nil {
			return err
		}
	}
	if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
		return err
	}

	turnsPath := filepath.Join(opts.OutDir, "turns.jsonl")
	turnsFile, err := os.Create(turnsPath)
	if err != nil {
		return err
	}
	defer turnsFile.Close()
	enc := json.NewEncoder(turnsFile)

	var sessions []SessionRecord
	for _, file := range files {
		rec, turns, err := analyzeSessionFile(store, file, opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "skipping %s: %v\n", file, err)
			continue
		}
		for _, tr := range turns {
			if err := enc.Encode(tr); err != nil {
				return err
			}
		}
		sessions = append(sessions, *rec)
	}

	data, err := json.MarshalIndent(sessions, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(opts.OutDir, "sessions.json"), append(data, '\n'), 0o644)
}

func analyzeSessionFile(store *app.SessionStore, file string, opts HeuristicsOptions) (*SessionRecord, []TurnRecord, error) {
	h, err := store.OpenSessionFile(file)
	if err != nil {
		return nil, nil, err
	}

	goal, goalSource, branch := resolveGoal(h, opts.Goal)
	idx := BuildBranchIndex(branch, opts.Budgets)
	bundle := BuildBundle(goal, idx, opts.Budgets)

	reasonsByTurn := map[int][]string{}
	requiredByTurn := map[int]bool{}
	for _, a := range bundle.Anchors {
		reasonsByTurn[a.Turn.Index] = append(reasonsByTurn[a.Turn.Index], string(a.Reason))
		if a.Required {
			requiredByTurn[a.Turn.Index] = true
		}
	}

	var turns []TurnRecord
	for _, t := range idx.Turns {
		reasons := reasonsByTurn[t.Index]
		if reasons == nil {
			reasons = []string{}
		}
		turns = append(turns, TurnRecord{
			SessionFile:   file,
			SessionID:     h.ID(),
			GoalSource:    goalSource,
			Goal:          goal,
			TurnIndex:     t.Index,
			EntryID:       t.StartEntryID,
			UserText:      t.UserText,
			AssistantText: strings.Join(t.AssistantTexts, "\n"),
			ToolCalls:     displayToolCalls(t.ToolCalls),
			ToolErrors:    toolErrorLines(t.ToolResults),
			FilePaths:     sortedPaths(t.FilePaths),
			HasError:      t.HasError,
			HighSignal:    t.HighSignal,
			GoalScore:     t.GoalScore,
			Selected:      len(reasons) > 0,
			Required:      requiredByTurn[t.Index],
			Reasons:       reasons,
		})
	}

	return &SessionRecord{
		SessionFile:   file,
		SessionID:     h.ID(),
		GoalSource:    goalSource,
		Goal:          goal,
		TurnCount:     len(idx.Turns),
		SelectedCount: len(bundle.Anchors),
	}, turns, nil
}

// resolveGoal picks the goal a session would be handed off with. An explicit
// goal wins; otherwise the session's most recent handoff record supplies
// both the goal and the branch leaf it was taken from; otherwise the last
// user message stands in.
func resolveGoal(h *app.SessionHandle, explicit string) (goal, source string, branch []app.SessionEntry) {
	if strings.TrimSpace(explicit) != "" {
		return strings.TrimSpace(explicit), "flag", h.GetBranch()
	}

	entries := h.Entries()
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if e.Type != app.EntryTypeCustom || e.CustomType != CustomTypeHandoff {
			continue
		}
		var rec AuditRecord
		if err := json.Unmarshal(e.Data, &rec); err != nil || strings.TrimSpace(rec.Goal) == "" {
			continue
		}
		return rec.Goal, "handoff", h.BranchTo(e.ID)
	}

	branch = h.GetBranch()
	for i := len(branch) - 1; i >= 0; i-- {
		e := branch[i]
		if e.Type == app.EntryTypeMessage && e.Role == app.RoleUser {
			if text := Normalize(e.Text); text != "" {
				return text, "last_user", branch
			}
		}
	}
	return "", "none", branch
}

func displayToolCalls(calls []ToolCallInfo) []string {
	out := make([]string, 0, len(calls))
	for _, c := range calls {
		out = append(out, displayToolCall(c))
	}
	return out
}

func toolErrorLines(results []ToolResultInfo) []string {
	out := []string{}
	for _, r := range results {
		if r.IsError {
			out = append(out, r.ToolName+": "+r.Content)
		}
	}
	return out
}

func sortedPaths(paths map[string]bool) []string {
	out := make([]string, 0, len(paths))
	for p := range paths {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
