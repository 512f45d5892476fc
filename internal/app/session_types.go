package app

import (
	"encoding/json"
	"strings"
	"time"
)

type Session struct {
	ID      string `json:"id"`
	WorkDir string `json:"work_dir"`
	Title   string `json:"title,omitempty"`

	// ParentID points to the session this one was handed off or compacted from.
	ParentID string `json:"parent_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type EntryType string

const (
	EntryTypeSession       EntryType = "session"
	EntryTypeMessage       EntryType = "message"
	EntryTypeCustomMessage EntryType = "custom_message"
	EntryTypeCompaction    EntryType = "compaction"
	EntryTypeBranchSummary EntryType = "branch_summary"
	EntryTypeCustom        EntryType = "custom"
)

type Role string

const (
	RoleUser       Role = "user"
	RoleAssistant  Role = "assistant"
	RoleToolResult Role = "toolResult"
)

// ContentBlock is one block of an assistant message: plain text, thinking,
// or a tool call. Exactly one of the payload fields is set per Type.
type ContentBlock struct {
	Type     string         `json:"type"` // text|thinking|tool_call
	Text     string         `json:"text,omitempty"`
	Thinking string         `json:"thinking,omitempty"`
	ToolCall *ToolCallBlock `json:"tool_call,omitempty"`
}

type ToolCallBlock struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// StringArg returns a string argument of the tool call, or "" when absent.
func (c *ToolCallBlock) StringArg(key string) string {
	if c == nil || c.Arguments == nil {
		return ""
	}
	if v, ok := c.Arguments[key].(string); ok {
		return v
	}
	return ""
}

type ToolResultPayload struct {
	ToolCallID string `json:"tool_call_id"`
	ToolName   string `json:"tool_name,omitempty"`
	IsError    bool   `json:"is_error,omitempty"`
	Content    string `json:"content"`
}

// SummaryDetails carries optional structured data alongside a compaction or
// branch summary, notably the file lists accumulated before the cut.
type SummaryDetails struct {
	ReadFiles     []string `json:"read_files,omitempty"`
	ModifiedFiles []string `json:"modified_files,omitempty"`
}

// SessionEntry is one line of the append-only session log. Entries form a
// tree through ParentID; the current branch is the path from the leaf to the
// root. The Type field selects which payload fields are meaningful.
type SessionEntry struct {
	Type      EntryType `json:"type"`
	ID        string    `json:"id"`
	ParentID  string    `json:"parent_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`

	// message
	Role         Role               `json:"role,omitempty"`
	Text         string             `json:"text,omitempty"` // user / custom_message content
	Blocks       []ContentBlock     `json:"blocks,omitempty"`
	StopReason   string             `json:"stop_reason,omitempty"`
	ErrorMessage string             `json:"error_message,omitempty"`
	ToolResult   *ToolResultPayload `json:"tool_result,omitempty"`

	// compaction / branch_summary
	Summary string          `json:"summary,omitempty"`
	Details *SummaryDetails `json:"details,omitempty"`

	// custom
	CustomType string          `json:"custom_type,omitempty"`
	Data       json.RawMessage `json:"data,omitempty"`

	// session header
	Meta *Session `json:"meta,omitempty"`
}

// AssistantText joins the text blocks of an assistant message.
func (e *SessionEntry) AssistantText() string {
	var parts []string
	for _, b := range e.Blocks {
		if b.Type == "text" && strings.TrimSpace(b.Text) != "" {
			parts = append(parts, b.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// ToolCalls returns the tool-call blocks of an assistant message in order.
func (e *SessionEntry) ToolCalls() []*ToolCallBlock {
	var calls []*ToolCallBlock
	for _, b := range e.Blocks {
		if b.Type == "tool_call" && b.ToolCall != nil {
			calls = append(calls, b.ToolCall)
		}
	}
	return calls
}

type SessionSummary struct {
	Session      Session   `json:"session"`
	EntryCount   int       `json:"entry_count"`
	LastActivity time.Time `json:"last_activity"`
}
