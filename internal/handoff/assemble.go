package handoff

import (
	"fmt"
	"strings"
)

// Bundle is everything derived from the branch that feeds the two LLM passes.
type Bundle struct {
	Goal          string
	Index         *BranchIndex
	Anchors       []Anchor
	Operational   []OperationalItem
	ReadFiles     []string
	ModifiedFiles []string
	Budgets       Budgets
}

// BuildBundle runs the selection core over an indexed branch.
func BuildBundle(goal string, idx *BranchIndex, budgets Budgets) *Bundle {
	budgets = budgets.withDefaults()
	ScoreTurns(idx.Turns, goal)
	readFiles, modifiedFiles := FileLists(idx.FileOps, budgets)
	return &Bundle{
		Goal:          goal,
		Index:         idx,
		Anchors:       SelectAnchors(idx.Turns, budgets),
		Operational:   BuildOperationalItems(idx, budgets),
		ReadFiles:     readFiles,
		ModifiedFiles: modifiedFiles,
		Budgets:       budgets,
	}
}

const emptySection = "(none)"

// ExtractorInput renders the pass-1 prompt body: goal, prior summaries,
// anchors, operational highlights, and file lists, each under its own
// budget, the whole thing under MaxExtractTokens.
func (b *Bundle) ExtractorInput() string {
	var sections []string
	sections = append(sections, "Goal: "+Normalize(b.Goal))
	sections = append(sections, "Summaries:\n"+b.renderSummaries())
	sections = append(sections, "Anchors:\n"+b.renderAnchors())
	sections = append(sections, "Operational context:\n"+b.renderOperational())
	sections = append(sections, "Files:\n"+b.renderFiles())
	return TruncateToTokens(strings.Join(sections, "\n\n"), b.Budgets.MaxExtractTokens)
}

// ComposerInput renders the pass-2 prompt body around the extracted facts.
func (b *Bundle) ComposerInput(factsBundle string) string {
	var sections []string
	sections = append(sections, "Goal: "+Normalize(b.Goal))
	facts := strings.TrimSpace(factsBundle)
	if facts == "" {
		facts = emptySection
	}
	sections = append(sections, "Extracted facts bundle:\n"+facts)
	sections = append(sections, "Operational context:\n"+b.renderOperational())
	sections = append(sections, "Files:\n"+b.renderFiles())
	return TruncateToTokens(strings.Join(sections, "\n\n"), b.Budgets.ComposeInputTokens)
}

func (b *Bundle) renderSummaries() string {
	summaries := b.Index.Summaries
	if len(summaries) == 0 {
		return emptySection
	}
	perEntry := b.Budgets.SummaryTokens / len(summaries)
	if perEntry > b.Budgets.SummaryEntryTokens {
		perEntry = b.Budgets.SummaryEntryTokens
	}
	var parts []string
	for _, s := range summaries {
		text := TruncateToTokens(Redact(s.Summary), perEntry)
		parts = append(parts, fmt.Sprintf("[%s %s]\n%s", s.Kind, s.EntryID, text))
	}
	return strings.Join(parts, "\n\n")
}

func (b *Bundle) renderAnchors() string {
	if len(b.Anchors) == 0 {
		return emptySection
	}
	var parts []string
	for _, a := range b.Anchors {
		parts = append(parts, fmt.Sprintf("### Turn %d (%s)\n%s", a.Turn.Index+1, a.Reason, a.Excerpt))
	}
	return strings.Join(parts, "\n\n")
}

func (b *Bundle) renderOperational() string {
	if len(b.Operational) == 0 {
		return emptySection
	}
	var lines []string
	for _, item := range b.Operational {
		lines = append(lines, "- "+item.Text)
	}
	return TruncateToTokens(strings.Join(lines, "\n"), b.Budgets.OperationalTokens)
}

func (b *Bundle) renderFiles() string {
	if len(b.ReadFiles) == 0 && len(b.ModifiedFiles) == 0 {
		return emptySection
	}
	var parts []string
	if len(b.ReadFiles) > 0 {
		parts = append(parts, "Read-only:\n"+strings.Join(b.ReadFiles, "\n"))
	}
	if len(b.ModifiedFiles) > 0 {
		parts = append(parts, "Modified:\n"+strings.Join(b.ModifiedFiles, "\n"))
	}
	return TruncateToTokens(strings.Join(parts, "\n\n"), b.Budgets.FileTokens)
}

// EnsureFileBlocks appends whichever machine-parseable file block the
// composed prompt lacks; a block already present is not appended again.
// Idempotent on a prompt that already carries both.
func EnsureFileBlocks(prompt string, readFiles, modifiedFiles []string) string {
	hasRead := strings.Contains(prompt, "<read-files>")
	hasModified := strings.Contains(prompt, "<modified-files>")
	if hasRead && hasModified {
		return prompt
	}
	var blocks []string
	if !hasRead {
		blocks = append(blocks, "<read-files>\n"+strings.Join(readFiles, "\n")+"\n</read-files>")
	}
	if !hasModified {
		blocks = append(blocks, "<modified-files>\n"+strings.Join(modifiedFiles, "\n")+"\n</modified-files>")
	}
	return strings.TrimRight(prompt, "\n") + "\n\n" + strings.Join(blocks, "\n\n") + "\n"
}
