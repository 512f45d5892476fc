package tui

import "github.com/charmbracelet/lipgloss"

type Theme struct {
	TextPrimary lipgloss.AdaptiveColor
	TextMuted   lipgloss.AdaptiveColor
	Accent      lipgloss.AdaptiveColor
	Success     lipgloss.AdaptiveColor
	Error       lipgloss.AdaptiveColor
	Border      lipgloss.AdaptiveColor

	TopBar   lipgloss.Style
	RoleYou  lipgloss.Style
	RoleAI   lipgloss.Style
	RoleSys  lipgloss.Style
	Notify   lipgloss.Style
	NotifyErr lipgloss.Style
	InputBox lipgloss.Style
	Popup    lipgloss.Style
	PopupSel lipgloss.Style
	Spinner  lipgloss.Style
	Overlay  lipgloss.Style
}

func DefaultTheme() Theme {
	t := Theme{
		TextPrimary: lipgloss.AdaptiveColor{Light: "#1F2328", Dark: "#E6E6E6"},
		TextMuted:   lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#8B949E"},
		Accent:      lipgloss.AdaptiveColor{Light: "#6D28D9", Dark: "#A78BFA"},
		Success:     lipgloss.AdaptiveColor{Light: "#047857", Dark: "#34D399"},
		Error:       lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#F87171"},
		Border:      lipgloss.AdaptiveColor{Light: "#D1D5DB", Dark: "#30363D"},
	}
	t.TopBar = lipgloss.NewStyle().Bold(true).Foreground(t.Accent)
	t.RoleYou = lipgloss.NewStyle().Bold(true).Foreground(t.Accent)
	t.RoleAI = lipgloss.NewStyle().Bold(true).Foreground(t.Success)
	t.RoleSys = lipgloss.NewStyle().Foreground(t.TextMuted)
	t.Notify = lipgloss.NewStyle().Foreground(t.TextMuted)
	t.NotifyErr = lipgloss.NewStyle().Foreground(t.Error)
	t.InputBox = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(t.Border).Padding(0, 1)
	t.Popup = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(t.Border).Padding(0, 1)
	t.PopupSel = lipgloss.NewStyle().Bold(true).Foreground(t.Accent)
	t.Spinner = lipgloss.NewStyle().Foreground(t.Accent)
	t.Overlay = lipgloss.NewStyle().Border(lipgloss.DoubleBorder()).BorderForeground(t.Accent).Padding(0, 1)
	return t
}
