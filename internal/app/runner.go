package app

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Runner drives the chat loop: user message in, assistant blocks and tool
// results appended to the session until the model stops calling tools.
type Runner struct {
	Completer Completer
	Registry  ModelRegistry
	Model     string
	MaxTokens int
	MaxLoops  int
	WorkDir   string
	Logger    *Logger
}

const defaultMaxLoops = 10

// Send appends the user message, then alternates completion and tool
// execution. Returns the final assistant text.
func (r *Runner) Send(ctx context.Context, session *SessionHandle, userText string) (string, error) {
	if _, err := session.AppendEntry(SessionEntry{
		Type: EntryTypeMessage,
		Role: RoleUser,
		Text: userText,
	}); err != nil {
		return "", err
	}

	maxLoops := r.MaxLoops
	if maxLoops <= 0 {
		maxLoops = defaultMaxLoops
	}
	apiKey := r.Registry.GetAPIKey(r.Model)

	var finalText string
	for loop := 0; loop < maxLoops; loop++ {
		prompt := renderConversation(session.GetBranch())
		res, err := r.Completer.Complete(ctx, r.Model, CompletionRequest{
			SystemPrompt: chatSystemPrompt,
			UserContent:  prompt,
			APIKey:       apiKey,
			MaxTokens:    r.MaxTokens,
		})
		if err != nil {
			_, _ = session.AppendEntry(SessionEntry{
				Type:         EntryTypeMessage,
				Role:         RoleAssistant,
				StopReason:   "error",
				ErrorMessage: err.Error(),
			})
			return "", err
		}
		if res.StopReason == StopReasonAborted {
			return finalText, ctx.Err()
		}

		text, calls := parseToolCalls(res.Text())
		entry := SessionEntry{Type: EntryTypeMessage, Role: RoleAssistant}
		if text != "" {
			entry.Blocks = append(entry.Blocks, ContentBlock{Type: "text", Text: text})
		}
		for _, call := range calls {
			entry.Blocks = append(entry.Blocks, ContentBlock{Type: "tool_call", ToolCall: call})
		}
		if _, err := session.AppendEntry(entry); err != nil {
			return "", err
		}

		if len(calls) == 0 {
			finalText = text
			break
		}
		for _, call := range calls {
			output, isErr := ExecuteTool(ctx, r.WorkDir, call)
			if r.Logger != nil {
				r.Logger.Info("tool executed", map[string]interface{}{
					"tool": call.Name, "error": isErr,
				})
			}
			if _, err := session.AppendEntry(SessionEntry{
				Type: EntryTypeMessage,
				Role: RoleToolResult,
				ToolResult: &ToolResultPayload{
					ToolCallID: call.ID,
					ToolName:   call.Name,
					IsError:    isErr,
					Content:    output,
				},
			}); err != nil {
				return "", err
			}
		}
	}
	return finalText, nil
}

const chatSystemPrompt = `You are a coding agent working in the user's repository.

To use a tool, reply with a JSON object on its own line:
{"tool_calls":[{"id":"call_1","name":"bash","arguments":{"command":"..."}}]}

Available tools: bash(command), read(path), write(path, content),
edit(path, old_text, new_text), list(path).
When no tool is needed, reply with plain text.`

// parseToolCalls splits an assistant reply into leading text and tool calls.
// The model is asked for one canonical JSON shape; anything else is treated
// as plain text.
func parseToolCalls(response string) (string, []*ToolCallBlock) {
	start := strings.Index(response, `{"tool_calls"`)
	if start < 0 {
		return strings.TrimSpace(response), nil
	}
	depth := 0
	end := -1
	for i := start; i < len(response); i++ {
		switch response[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				end = i + 1
			}
		}
		if end > 0 {
			break
		}
	}
	if end < 0 {
		return strings.TrimSpace(response), nil
	}

	var payload struct {
		ToolCalls []struct {
			ID        string         `json:"id"`
			Name      string         `json:"name"`
			Arguments map[string]any `json:"arguments"`
		} `json:"tool_calls"`
	}
	if err := json.Unmarshal([]byte(response[start:end]), &payload); err != nil || len(payload.ToolCalls) == 0 {
		return strings.TrimSpace(response), nil
	}

	var calls []*ToolCallBlock
	for i, tc := range payload.ToolCalls {
		id := tc.ID
		if id == "" {
			id = fmt.Sprintf("%s_%d", tc.Name, i+1)
		}
		calls = append(calls, &ToolCallBlock{ID: id, Name: tc.Name, Arguments: tc.Arguments})
	}
	text := strings.TrimSpace(response[:start] + response[end:])
	return text, calls
}

func renderConversation(entries []SessionEntry) string {
	var sb strings.Builder
	for i := range entries {
		e := &entries[i]
		switch {
		case e.Type == EntryTypeCompaction || e.Type == EntryTypeBranchSummary:
			fmt.Fprintf(&sb, "[SUMMARY]\n%s\n\n", e.Summary)
		case e.Type != EntryTypeMessage:
			continue
		case e.Role == RoleUser:
			fmt.Fprintf(&sb, "[USER]\n%s\n\n", e.Text)
		case e.Role == RoleAssistant:
			if text := e.AssistantText(); text != "" {
				fmt.Fprintf(&sb, "[ASSISTANT]\n%s\n\n", text)
			}
			for _, call := range e.ToolCalls() {
				args, _ := json.Marshal(call.Arguments)
				fmt.Fprintf(&sb, "[ASSISTANT tool_call %s %s]\n%s\n\n", call.ID, call.Name, args)
			}
		case e.Role == RoleToolResult && e.ToolResult != nil:
			status := "ok"
			if e.ToolResult.IsError {
				status = "error"
			}
			fmt.Fprintf(&sb, "[TOOL %s %s]\n%s\n\n", e.ToolResult.ToolName, status, e.ToolResult.Content)
		}
	}
	return sb.String()
}

const compactionSystemPrompt = `Summarize this coding session transcript for a model that will continue it.
Keep decisions, constraints, current state, and unresolved problems. Be dense and factual.`

const compactionTranscriptChars = 60_000

// Compact summarizes the current branch and appends a compaction entry with
// the accumulated file lists. Earlier entries stay on the branch, and
// renderConversation still renders them alongside the summary.
func (r *Runner) Compact(ctx context.Context, session *SessionHandle) error {
	branch := session.GetBranch()
	transcript := renderConversation(branch)
	if len(transcript) > compactionTranscriptChars {
		transcript = transcript[len(transcript)-compactionTranscriptChars:]
	}
	res, err := r.Completer.Complete(ctx, r.Model, CompletionRequest{
		SystemPrompt: compactionSystemPrompt,
		UserContent:  transcript,
		APIKey:       r.Registry.GetAPIKey(r.Model),
		MaxTokens:    2048,
	})
	if err != nil {
		return err
	}

	read, modified := branchFileOps(branch)
	_, err = session.AppendEntry(SessionEntry{
		Type:    EntryTypeCompaction,
		Summary: res.Text(),
		Details: &SummaryDetails{ReadFiles: read, ModifiedFiles: modified},
	})
	return err
}

// branchFileOps collects the file paths touched by tool calls on the branch.
func branchFileOps(entries []SessionEntry) (read, modified []string) {
	readSet := map[string]bool{}
	modifiedSet := map[string]bool{}
	for i := range entries {
		e := &entries[i]
		if e.Type != EntryTypeMessage || e.Role != RoleAssistant {
			continue
		}
		for _, call := range e.ToolCalls() {
			path := call.StringArg("path")
			if path == "" {
				continue
			}
			switch call.Name {
			case "read":
				readSet[path] = true
			case "write", "edit":
				modifiedSet[path] = true
			}
		}
	}
	for p := range readSet {
		read = append(read, p)
	}
	for p := range modifiedSet {
		modified = append(modified, p)
	}
	sort.Strings(read)
	sort.Strings(modified)
	return read, modified
}
