package handoff

import (
	"errors"
	"strings"
	"time"

	"carry/internal/app"
)

type NotifyLevel string

const (
	NotifyInfo  NotifyLevel = "info"
	NotifyError NotifyLevel = "error"
)

// SessionManager is the slice of the session store the handoff needs: the
// current branch, an append hook for the audit record, and the handle used
// for parent-session linkage.
type SessionManager interface {
	GetBranch() []app.SessionEntry
	AppendCustomEntry(customType string, data any) error
	SessionID() string
}

// UI is the slice of the user interface the handoff needs. Editor returns
// ok=false when the user cancelled the review.
type UI interface {
	Notify(message string, level NotifyLevel)
	Editor(title, initial string) (edited string, ok bool)
}

// AuditRecord is persisted on the originating session when a handoff
// completes.
type AuditRecord struct {
	Goal      string `json:"goal"`
	Timestamp int64  `json:"timestamp"`
}

// CustomTypeHandoff tags the audit entry in the session log.
const CustomTypeHandoff = "handoff"

// Controller orchestrates indexing, selection, the two LLM passes, user
// review, and child-session creation.
type Controller struct {
	Session SessionManager
	UI      UI
	Driver  *Driver
	Budgets Budgets
	Logger  *app.Logger

	// CreateChildSession creates the new session linked to parentSessionID
	// and seeds its editor with the prompt without submitting. It reports
	// cancelled=true when the user backed out.
	CreateChildSession func(parentSessionID, prompt string) (cancelled bool, err error)
}

// Run executes one handoff. Cancellation at any suspension point is not an
// error: it notifies and returns nil. Cancelling up to and including the
// editor review leaves the session unchanged; a cancel reported by
// CreateChildSession comes after the audit entry has been appended.
func (c *Controller) Run(goal string, sig *Signal) error {
	if sig == nil {
		sig = NewSignal()
	}
	goal = strings.TrimSpace(goal)
	if goal == "" {
		c.UI.Notify("Handoff needs a goal, e.g. /handoff finish the retry logic", NotifyError)
		return nil
	}

	entries := c.Session.GetBranch()
	if len(entries) == 0 {
		c.UI.Notify("No session entries to hand off", NotifyError)
		return nil
	}

	idx := BuildBranchIndex(entries, c.Budgets)
	if len(idx.Turns) == 0 {
		c.UI.Notify("No conversation turns to hand off", NotifyError)
		return nil
	}

	bundle := BuildBundle(goal, idx, c.Budgets)

	facts, err := c.Driver.Extract(sig, bundle.ExtractorInput())
	if err != nil {
		return c.finishErr(err)
	}

	composed, err := c.Driver.Compose(sig, bundle.ComposerInput(facts))
	if err != nil {
		return c.finishErr(err)
	}
	prompt := EnsureFileBlocks(composed, bundle.ReadFiles, bundle.ModifiedFiles)

	edited, ok := c.UI.Editor("Handoff prompt", prompt)
	if !ok || sig.Aborted() {
		return c.finishErr(ErrCancelled)
	}

	record := AuditRecord{Goal: goal, Timestamp: time.Now().UnixMilli()}
	if err := c.Session.AppendCustomEntry(CustomTypeHandoff, record); err != nil {
		c.UI.Notify("Failed to record handoff: "+err.Error(), NotifyError)
		return err
	}

	cancelled, err := c.CreateChildSession(c.Session.SessionID(), edited)
	if err != nil {
		c.UI.Notify("Failed to create new session: "+err.Error(), NotifyError)
		return err
	}
	if cancelled {
		c.UI.Notify("Cancelled", NotifyInfo)
		return nil
	}

	if c.Logger != nil {
		c.Logger.Info("handoff complete", map[string]interface{}{
			"session": c.Session.SessionID(),
			"turns":   len(idx.Turns),
			"anchors": len(bundle.Anchors),
		})
	}
	return nil
}

func (c *Controller) finishErr(err error) error {
	if errors.Is(err, ErrCancelled) {
		c.UI.Notify("Cancelled", NotifyInfo)
		return nil
	}
	c.UI.Notify(friendlyError(err), NotifyError)
	return err
}

// friendlyError rewords upstream failures for the notification line.
func friendlyError(err error) string {
	var ue *app.UsageLimitError
	if errors.As(err, &ue) {
		return ue.Friendly()
	}
	var te *app.TransportError
	if errors.As(err, &te) {
		switch te.StatusCode {
		case 429:
			return "The model is rate-limiting requests. Try again shortly."
		case 500, 502, 503, 504:
			return "The model provider is having trouble. Try again shortly."
		}
	}
	return "Handoff failed: " + err.Error()
}
