package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
)

// editorModel is the fullscreen review overlay for the composed handoff
// prompt. ctrl+s accepts, esc cancels; the waiting goroutine gets the answer
// over the reply channel.
type editorModel struct {
	title string
	area  textarea.Model
	reply chan editorReply
}

func newEditorModel(title, initial string, reply chan editorReply) *editorModel {
	ta := textarea.New()
	ta.CharLimit = 0
	ta.SetValue(initial)
	ta.Focus()
	return &editorModel{title: title, area: ta, reply: reply}
}

func (e *editorModel) resize(width, height int) {
	w := width - 6
	h := height - 6
	if w < 20 {
		w = 20
	}
	if h < 5 {
		h = 5
	}
	e.area.SetWidth(w)
	e.area.SetHeight(h)
}

// handleKey returns true when the overlay is finished.
func (e *editorModel) handleKey(msg tea.KeyMsg) bool {
	switch msg.String() {
	case "esc":
		e.reply <- editorReply{ok: false}
		return true
	case "ctrl+s":
		e.reply <- editorReply{text: e.area.Value(), ok: true}
		return true
	}
	e.area, _ = e.area.Update(msg)
	return false
}

func (e *editorModel) view(theme Theme) string {
	var sb strings.Builder
	sb.WriteString(theme.TopBar.Render(e.title) + "  ")
	sb.WriteString(theme.Notify.Render("ctrl+s to accept · esc to cancel") + "\n")
	sb.WriteString(theme.Overlay.Render(e.area.View()))
	return sb.String()
}
