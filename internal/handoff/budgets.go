package handoff

// Budgets bounds every section of the assembled inputs, in estimated tokens.
// Overrides are per-invocation; zero values fall back to the defaults.
type Budgets struct {
	MaxExtractTokens     int
	SummaryTokens        int
	SummaryEntryTokens   int
	AnchorTokens         int
	RequiredAnchorTokens int
	OptionalAnchorTokens int
	OperationalTokens    int
	FileTokens           int
	ComposeInputTokens   int

	MaxToolOutputLines  int
	MaxOperationalItems int
	RecentTurnCount     int
	MaxFileEntries      int
}

func DefaultBudgets() Budgets {
	return Budgets{
		MaxExtractTokens:     7000,
		SummaryTokens:        1800,
		SummaryEntryTokens:   600,
		AnchorTokens:         2600,
		RequiredAnchorTokens: 220,
		OptionalAnchorTokens: 260,
		OperationalTokens:    800,
		FileTokens:           400,
		ComposeInputTokens:   2200,
		MaxToolOutputLines:   8,
		MaxOperationalItems:  10,
		RecentTurnCount:      2,
		MaxFileEntries:       60,
	}
}

// withDefaults fills zero fields so partially overridden budgets stay sane.
func (b Budgets) withDefaults() Budgets {
	d := DefaultBudgets()
	if b.MaxExtractTokens <= 0 {
		b.MaxExtractTokens = d.MaxExtractTokens
	}
	if b.SummaryTokens <= 0 {
		b.SummaryTokens = d.SummaryTokens
	}
	if b.SummaryEntryTokens <= 0 {
		b.SummaryEntryTokens = d.SummaryEntryTokens
	}
	if b.AnchorTokens <= 0 {
		b.AnchorTokens = d.AnchorTokens
	}
	if b.RequiredAnchorTokens <= 0 {
		b.RequiredAnchorTokens = d.RequiredAnchorTokens
	}
	if b.OptionalAnchorTokens <= 0 {
		b.OptionalAnchorTokens = d.OptionalAnchorTokens
	}
	if b.OperationalTokens <= 0 {
		b.OperationalTokens = d.OperationalTokens
	}
	if b.FileTokens <= 0 {
		b.FileTokens = d.FileTokens
	}
	if b.ComposeInputTokens <= 0 {
		b.ComposeInputTokens = d.ComposeInputTokens
	}
	if b.MaxToolOutputLines <= 0 {
		b.MaxToolOutputLines = d.MaxToolOutputLines
	}
	if b.MaxOperationalItems <= 0 {
		b.MaxOperationalItems = d.MaxOperationalItems
	}
	if b.RecentTurnCount <= 0 {
		b.RecentTurnCount = d.RecentTurnCount
	}
	if b.MaxFileEntries <= 0 {
		b.MaxFileEntries = d.MaxFileEntries
	}
	return b
}
