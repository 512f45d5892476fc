package tui

import "strings"

type slashPopupItem struct {
	Label       string
	Description string
	InsertText  string
}

var slashCommands = []slashPopupItem{
	{Label: "/handoff", Description: "hand this session off to a new one with a goal", InsertText: "/handoff"},
	{Label: "/new", Description: "start a new session", InsertText: "/new"},
	{Label: "/resume", Description: "resume a previous session", InsertText: "/resume"},
	{Label: "/compact", Description: "summarize the session to shrink context", InsertText: "/compact"},
	{Label: "/model", Description: "show or set the model", InsertText: "/model"},
	{Label: "/quit", Description: "exit", InsertText: "/quit"},
}

// slashItems returns the commands matching the current input prefix, or nil
// when the popup should be hidden.
func (m *MainModel) slashItems() []slashPopupItem {
	raw := strings.TrimLeft(m.input.Value(), " \t")
	if raw == "" || !strings.HasPrefix(raw, "/") {
		return nil
	}
	if strings.ContainsAny(raw, "\n\r") || strings.ContainsAny(raw, " \t") {
		return nil
	}
	prefix := strings.ToLower(strings.TrimSpace(raw))
	var items []slashPopupItem
	for _, cmd := range slashCommands {
		if strings.HasPrefix(cmd.Label, prefix) {
			items = append(items, cmd)
		}
	}
	return items
}

func (m *MainModel) renderSlashPopup() string {
	items := m.slashItems()
	if len(items) == 0 {
		return ""
	}
	var lines []string
	for i, item := range items {
		line := item.Label + "  " + item.Description
		if i == m.slashIndex {
			line = m.theme.PopupSel.Render("› " + line)
		} else {
			line = "  " + line
		}
		lines = append(lines, line)
	}
	return m.theme.Popup.Render(strings.Join(lines, "\n"))
}
