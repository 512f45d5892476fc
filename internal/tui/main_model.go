package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"carry/internal/app"
	"carry/internal/handoff"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type Message struct {
	Role    string
	Content string
	Time    time.Time
}

type (
	chatDoneMsg struct {
		text string
		err  error
	}
	compactDoneMsg struct{ err error }
	notifyMsg      struct {
		text  string
		level handoff.NotifyLevel
	}
	editorRequestMsg struct {
		title   string
		initial string
		reply   chan editorReply
	}
	handoffDoneMsg    struct{ err error }
	sessionSwitchMsg  struct {
		handle *app.SessionHandle
		seed   string
	}
)

type editorReply struct {
	text string
	ok   bool
}

// MainModel is the top-level bubbletea model: chat viewport, input textarea,
// slash popup, notification line, and the handoff loader/editor overlays.
type MainModel struct {
	app     *App
	theme   Theme
	session *app.SessionHandle

	width  int
	height int
	ready  bool

	messages []Message
	input    textarea.Model
	chatVP   viewport.Model
	spin     spinner.Model

	busy      bool
	busyLabel string

	notifyText  string
	notifyLevel handoff.NotifyLevel

	slashIndex int

	editor       *editorModel
	handoffSig   *handoff.Signal
	resumeList   []app.SessionSummary
}

func NewMainModel(a *App, session *app.SessionHandle) *MainModel {
	ta := textarea.New()
	ta.Placeholder = "Message, or / for commands"
	ta.Focus()
	ta.CharLimit = 16000
	ta.SetHeight(3)
	ta.Prompt = "▍ "
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.BlurredStyle.CursorLine = lipgloss.NewStyle()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return &MainModel{
		app:     a,
		session: session,
		theme:   DefaultTheme(),
		input:   ta,
		spin:    sp,
	}
}

func (m *MainModel) Init() tea.Cmd {
	return textarea.Blink
}

func (m *MainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		vpHeight := m.height - 8
		if vpHeight < 3 {
			vpHeight = 3
		}
		if !m.ready {
			m.chatVP = viewport.New(m.width, vpHeight)
			m.ready = true
		} else {
			m.chatVP.Width = m.width
			m.chatVP.Height = vpHeight
		}
		m.input.SetWidth(m.width - 4)
		if m.editor != nil {
			m.editor.resize(m.width, m.height)
		}
		m.refreshChat()
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case notifyMsg:
		m.notifyText, m.notifyLevel = msg.text, msg.level
		return m, nil

	case editorRequestMsg:
		m.editor = newEditorModel(msg.title, msg.initial, msg.reply)
		m.editor.resize(m.width, m.height)
		return m, nil

	case chatDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.notifyText, m.notifyLevel = msg.err.Error(), handoff.NotifyError
		} else if msg.text != "" {
			m.messages = append(m.messages, Message{Role: "assistant", Content: msg.text, Time: time.Now()})
		}
		m.refreshChat()
		return m, nil

	case compactDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.notifyText, m.notifyLevel = "Compaction failed: "+msg.err.Error(), handoff.NotifyError
		} else {
			m.notifyText, m.notifyLevel = "Session compacted", handoff.NotifyInfo
		}
		return m, nil

	case handoffDoneMsg:
		m.busy = false
		m.handoffSig = nil
		return m, nil

	case sessionSwitchMsg:
		m.session = msg.handle
		m.messages = nil
		m.input.SetValue(msg.seed)
		m.notifyText, m.notifyLevel = "New session started from handoff", handoff.NotifyInfo
		m.refreshChat()
		return m, nil

	case tea.KeyMsg:
		if m.editor != nil {
			done := m.editor.handleKey(msg)
			if done {
				m.editor = nil
			}
			return m, nil
		}
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *MainModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	items := m.slashItems()
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		if m.busy && m.handoffSig != nil {
			m.handoffSig.Abort()
			return m, nil
		}
		m.notifyText = ""
		return m, nil
	case "up", "down":
		if len(items) > 0 {
			if msg.String() == "up" {
				m.slashIndex--
			} else {
				m.slashIndex++
			}
			if m.slashIndex < 0 {
				m.slashIndex = 0
			}
			if m.slashIndex >= len(items) {
				m.slashIndex = len(items) - 1
			}
			return m, nil
		}
	case "tab":
		if len(items) > 0 {
			m.input.SetValue(items[m.slashIndex].InsertText + " ")
			m.input.CursorEnd()
			return m, nil
		}
	case "enter":
		if m.busy {
			return m, nil
		}
		value := strings.TrimSpace(m.input.Value())
		if value == "" {
			return m, nil
		}
		m.input.Reset()
		m.slashIndex = 0
		if strings.HasPrefix(value, "/") {
			return m.runCommand(value)
		}
		return m.sendChat(value)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.slashIndex = 0
	return m, cmd
}

func (m *MainModel) sendChat(text string) (tea.Model, tea.Cmd) {
	m.messages = append(m.messages, Message{Role: "user", Content: text, Time: time.Now()})
	m.refreshChat()
	m.busy = true
	m.busyLabel = "thinking"
	session := m.session
	runner := m.app.Runner()
	return m, tea.Batch(m.spin.Tick, func() tea.Msg {
		reply, err := runner.Send(context.Background(), session, text)
		return chatDoneMsg{text: reply, err: err}
	})
}

func (m *MainModel) runCommand(value string) (tea.Model, tea.Cmd) {
	parts := strings.SplitN(value, " ", 2)
	cmd, args := parts[0], ""
	if len(parts) == 2 {
		args = strings.TrimSpace(parts[1])
	}

	switch strings.ToLower(cmd) {
	case "/quit":
		return m, tea.Quit

	case "/new":
		handle, err := m.app.NewSession("")
		if err != nil {
			m.notifyText, m.notifyLevel = err.Error(), handoff.NotifyError
			return m, nil
		}
		m.session = handle
		m.messages = nil
		m.notifyText, m.notifyLevel = "New session", handoff.NotifyInfo
		m.refreshChat()
		return m, nil

	case "/model":
		if args == "" {
			m.notifyText, m.notifyLevel = "Model: "+m.app.Model(), handoff.NotifyInfo
		} else {
			m.app.SetModel(args)
			m.notifyText, m.notifyLevel = "Model set to "+args, handoff.NotifyInfo
		}
		return m, nil

	case "/resume":
		return m.runResume(args)

	case "/compact":
		m.busy = true
		m.busyLabel = "compacting"
		session := m.session
		runner := m.app.Runner()
		return m, tea.Batch(m.spin.Tick, func() tea.Msg {
			return compactDoneMsg{err: runner.Compact(context.Background(), session)}
		})

	case "/handoff":
		return m.runHandoff(args)

	default:
		m.notifyText, m.notifyLevel = "Unknown command: "+cmd, handoff.NotifyError
		return m, nil
	}
}

func (m *MainModel) runResume(args string) (tea.Model, tea.Cmd) {
	if args == "" {
		list, err := m.app.ListSessions(20)
		if err != nil {
			m.notifyText, m.notifyLevel = err.Error(), handoff.NotifyError
			return m, nil
		}
		m.resumeList = list
		var lines []string
		for i, s := range list {
			title := s.Session.Title
			if title == "" {
				title = s.Session.ID[:8]
			}
			lines = append(lines, fmt.Sprintf("%2d. %s (%d entries, %s)", i+1, title, s.EntryCount, s.LastActivity.Format("Jan 2 15:04")))
		}
		if len(lines) == 0 {
			lines = []string{"no sessions"}
		}
		m.messages = append(m.messages, Message{Role: "system", Content: "Sessions:\n" + strings.Join(lines, "\n") + "\nUse /resume <n>", Time: time.Now()})
		m.refreshChat()
		return m, nil
	}

	n, err := strconv.Atoi(args)
	if err != nil || n < 1 || n > len(m.resumeList) {
		m.notifyText, m.notifyLevel = "Usage: /resume <n> after /resume", handoff.NotifyError
		return m, nil
	}
	handle, err := m.app.OpenSession(m.resumeList[n-1].Session.ID)
	if err != nil {
		m.notifyText, m.notifyLevel = err.Error(), handoff.NotifyError
		return m, nil
	}
	m.session = handle
	m.messages = nil
	m.notifyText, m.notifyLevel = "Resumed "+handle.ID()[:8], handoff.NotifyInfo
	m.refreshChat()
	return m, nil
}

func (m *MainModel) runHandoff(goal string) (tea.Model, tea.Cmd) {
	if strings.TrimSpace(goal) == "" {
		m.notifyText, m.notifyLevel = "Usage: /handoff <goal for the next session>", handoff.NotifyError
		return m, nil
	}
	sig := handoff.NewSignal()
	m.handoffSig = sig
	m.busy = true
	m.busyLabel = "building handoff (esc to cancel)"
	ctl := m.app.HandoffController(m.session)
	return m, tea.Batch(m.spin.Tick, func() tea.Msg {
		return handoffDoneMsg{err: ctl.Run(goal, sig)}
	})
}

func (m *MainModel) refreshChat() {
	if !m.ready {
		return
	}
	var sb strings.Builder
	for _, msg := range m.messages {
		var role lipgloss.Style
		var label string
		switch msg.Role {
		case "user":
			role, label = m.theme.RoleYou, "you"
		case "assistant":
			role, label = m.theme.RoleAI, "carry"
		default:
			role, label = m.theme.RoleSys, "system"
		}
		sb.WriteString(role.Render(label) + "\n" + msg.Content + "\n\n")
	}
	m.chatVP.SetContent(sb.String())
	m.chatVP.GotoBottom()
}

func (m *MainModel) View() string {
	if !m.ready {
		return "loading..."
	}
	if m.editor != nil {
		return m.editor.view(m.theme)
	}

	var sb strings.Builder
	title := "carry"
	if m.session != nil {
		title += " · " + m.session.ID()[:8]
	}
	sb.WriteString(m.theme.TopBar.Render(title) + "\n")
	sb.WriteString(m.chatVP.View() + "\n")

	if m.busy {
		sb.WriteString(m.theme.Spinner.Render(m.spin.View()+" "+m.busyLabel) + "\n")
	} else if m.notifyText != "" {
		style := m.theme.Notify
		if m.notifyLevel == handoff.NotifyError {
			style = m.theme.NotifyErr
		}
		sb.WriteString(style.Render(m.notifyText) + "\n")
	} else {
		sb.WriteString("\n")
	}

	sb.WriteString(m.theme.InputBox.Render(m.input.View()))
	if popup := m.renderSlashPopup(); popup != "" {
		sb.WriteString("\n" + popup)
	}
	return sb.String()
}
