package handoff

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carry/internal/app"
)

type entryBuilder struct {
	entries []app.SessionEntry
	n       int
}

func (b *entryBuilder) id() string {
	b.n++
	return fmt.Sprintf("e%d", b.n)
}

func (b *entryBuilder) user(text string) *entryBuilder {
	b.entries = append(b.entries, app.SessionEntry{
		Type: app.EntryTypeMessage, ID: b.id(), Role: app.RoleUser, Text: text,
	})
	return b
}

func (b *entryBuilder) assistant(text string, calls ...*app.ToolCallBlock) *entryBuilder {
	var blocks []app.ContentBlock
	if text != "" {
		blocks = append(blocks, app.ContentBlock{Type: "text", Text: text})
	}
	for _, c := range calls {
		blocks = append(blocks, app.ContentBlock{Type: "tool_call", ToolCall: c})
	}
	b.entries = append(b.entries, app.SessionEntry{
		Type: app.EntryTypeMessage, ID: b.id(), Role: app.RoleAssistant, Blocks: blocks,
	})
	return b
}

func (b *entryBuilder) toolResult(callID, name, content string, isError bool) *entryBuilder {
	b.entries = append(b.entries, app.SessionEntry{
		Type: app.EntryTypeMessage, ID: b.id(), Role: app.RoleToolResult,
		ToolResult: &app.ToolResultPayload{ToolCallID: callID, ToolName: name, Content: content, IsError: isError},
	})
	return b
}

func bashCall(id, command string) *app.ToolCallBlock {
	return &app.ToolCallBlock{ID: id, Name: "bash", Arguments: map[string]any{"command": command}}
}

func pathCall(id, name, path string) *app.ToolCallBlock {
	return &app.ToolCallBlock{ID: id, Name: name, Arguments: map[string]any{"path": path}}
}

func TestBuildBranchIndexGroupsTurnsByUserMessage(t *testing.T) {
	b := &entryBuilder{}
	b.user("first question").
		assistant("first answer").
		user("second question").
		assistant("", pathCall("c1", "read", "main.go")).
		toolResult("c1", "read", "package main", false).
		user("third question")

	idx := BuildBranchIndex(b.entries, Budgets{})
	require.Len(t, idx.Turns, 3)

	assert.Equal(t, "first question", idx.Turns[0].UserText)
	assert.Equal(t, []string{"first answer"}, idx.Turns[0].AssistantTexts)
	assert.Equal(t, "second question", idx.Turns[1].UserText)
	assert.Len(t, idx.Turns[1].ToolCalls, 1)
	assert.Len(t, idx.Turns[1].ToolResults, 1)
	assert.Equal(t, "third question", idx.Turns[2].UserText)

	for i, turn := range idx.Turns {
		assert.Equal(t, i, turn.Index)
		assert.NotEmpty(t, turn.EntryIDs)
	}
}

func TestBuildBranchIndexLeadingAssistantFormsInitialTurn(t *testing.T) {
	b := &entryBuilder{}
	b.assistant("resuming from summary").user("go on").assistant("ok")

	idx := BuildBranchIndex(b.entries, Budgets{})
	require.Len(t, idx.Turns, 2)
	assert.Empty(t, idx.Turns[0].UserText)
	assert.Equal(t, []string{"resuming from summary"}, idx.Turns[0].AssistantTexts)
	assert.Equal(t, "go on", idx.Turns[1].UserText)
}

func TestBuildBranchIndexErrorFlags(t *testing.T) {
	b := &entryBuilder{}
	b.user("run tests").
		assistant("", bashCall("c1", "npm test")).
		toolResult("c1", "bash", "1 failing", true).
		user("try again")
	b.entries = append(b.entries, app.SessionEntry{
		Type: app.EntryTypeMessage, ID: b.id(), Role: app.RoleAssistant,
		StopReason: "error", ErrorMessage: "stream closed",
	})

	idx := BuildBranchIndex(b.entries, Budgets{})
	require.Len(t, idx.Turns, 2)
	assert.True(t, idx.Turns[0].HasError)
	assert.True(t, idx.Turns[1].HasError)
}

func TestBuildBranchIndexHighSignal(t *testing.T) {
	b := &entryBuilder{}
	b.user("we must keep the old API shape").
		assistant("understood").
		user("what time is it")

	idx := BuildBranchIndex(b.entries, Budgets{})
	require.Len(t, idx.Turns, 2)
	assert.True(t, idx.Turns[0].HighSignal)
	assert.False(t, idx.Turns[1].HighSignal)
}

func TestBuildBranchIndexFileOps(t *testing.T) {
	b := &entryBuilder{}
	b.user("update the fetcher").
		assistant("",
			pathCall("c1", "read", "fetch/fetcher.go"),
			pathCall("c2", "edit", "fetch/fetcher.go"),
			pathCall("c3", "write", "fetch/retry.go"),
		)
	b.entries = append(b.entries, app.SessionEntry{
		Type: app.EntryTypeCompaction, ID: b.id(), Summary: "earlier work",
		Details: &app.SummaryDetails{ReadFiles: []string{"go.mod"}, ModifiedFiles: []string{"main.go"}},
	})

	idx := BuildBranchIndex(b.entries, Budgets{})
	assert.True(t, idx.FileOps.Read["fetch/fetcher.go"])
	assert.True(t, idx.FileOps.Modified["fetch/fetcher.go"])
	assert.True(t, idx.FileOps.Modified["fetch/retry.go"])
	assert.True(t, idx.FileOps.Read["go.mod"])
	assert.True(t, idx.FileOps.Modified["main.go"])

	require.Len(t, idx.Summaries, 1)
	assert.Equal(t, "compaction", idx.Summaries[0].Kind)
	assert.Equal(t, "earlier work", idx.Summaries[0].Summary)
	// Summary entries belong to no turn.
	require.Len(t, idx.Turns, 1)
}

func TestBuildBranchIndexToolOutputTruncation(t *testing.T) {
	long := ""
	for i := 0; i < 20; i++ {
		long += fmt.Sprintf("line %d\n", i)
	}
	b := &entryBuilder{}
	b.user("list").
		assistant("", bashCall("c1", "ls")).
		toolResult("c1", "bash", long, false)

	idx := BuildBranchIndex(b.entries, Budgets{MaxToolOutputLines: 3})
	require.Len(t, idx.Turns[0].ToolResults, 1)
	assert.Contains(t, idx.Turns[0].ToolResults[0].Content, "more lines truncated")
}

func TestBuildBranchIndexOrphanToolResultRetained(t *testing.T) {
	b := &entryBuilder{}
	b.user("hello").toolResult("missing-call", "bash", "output", false)

	idx := BuildBranchIndex(b.entries, Budgets{})
	require.Len(t, idx.Turns, 1)
	assert.Len(t, idx.Turns[0].ToolResults, 1)
}

func TestBuildBranchIndexSearchTextRedacted(t *testing.T) {
	b := &entryBuilder{}
	b.user("set API_KEY=abc123def456 in the env").
		assistant("", bashCall("c1", "export TOKEN=tok-42 && make"))

	idx := BuildBranchIndex(b.entries, Budgets{})
	search := idx.Turns[0].SearchText
	assert.NotContains(t, search, "abc123def456")
	assert.NotContains(t, search, "tok-42")
	assert.Contains(t, search, "api_key=[redacted]")
}

func TestBuildBranchIndexDeterministic(t *testing.T) {
	b := &entryBuilder{}
	b.user("fix the bug in parser").
		assistant("looking", pathCall("c1", "read", "parser.go")).
		toolResult("c1", "read", "func Parse()", false).
		user("now add tests")

	first := BuildBranchIndex(b.entries, Budgets{})
	second := BuildBranchIndex(b.entries, Budgets{})
	require.True(t, reflect.DeepEqual(first.Turns, second.Turns))
	require.True(t, reflect.DeepEqual(first.Summaries, second.Summaries))
}
