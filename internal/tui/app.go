package tui

import (
	"carry/internal/app"
	"carry/internal/handoff"

	tea "github.com/charmbracelet/bubbletea"
)

// App owns the application services behind the TUI: config, store, provider,
// and the glue that lets the handoff controller drive UI interactions from
// its own goroutine.
type App struct {
	Config    app.Config
	Store     *app.SessionStore
	Logger    *app.Logger
	Registry  app.ModelRegistry
	Completer app.Completer

	model   string
	program *tea.Program
}

func NewApp(cfg app.Config, store *app.SessionStore, logger *app.Logger) *App {
	return &App{
		Config:    cfg,
		Store:     store,
		Logger:    logger,
		Completer: app.AnthropicCompleter{},
		model:     cfg.Model,
	}
}

// SetProgram hands the running bubbletea program to the app so background
// goroutines can post messages into the update loop.
func (a *App) SetProgram(p *tea.Program) { a.program = p }

func (a *App) Model() string        { return a.model }
func (a *App) SetModel(model string) { a.model = model }

func (a *App) Runner() *app.Runner {
	return &app.Runner{
		Completer: a.Completer,
		Registry:  a.Registry,
		Model:     a.model,
		MaxTokens: a.Config.MaxTokens,
		WorkDir:   a.Config.WorkDir,
		Logger:    a.Logger,
	}
}

func (a *App) NewSession(parentID string) (*app.SessionHandle, error) {
	return a.Store.CreateSession(a.Config.WorkDir, parentID)
}

func (a *App) OpenSession(id string) (*app.SessionHandle, error) {
	return a.Store.OpenSession(id)
}

func (a *App) ListSessions(limit int) ([]app.SessionSummary, error) {
	return a.Store.ListSessions(a.Config.WorkDir, limit)
}

// HandoffController builds a controller bound to the given session and this
// app's UI bridge.
func (a *App) HandoffController(session *app.SessionHandle) *handoff.Controller {
	model := a.Config.HandoffModel
	if model == "" {
		model = a.model
	}
	return &handoff.Controller{
		Session: sessionManager{session},
		UI:      uiBridge{a},
		Driver: &handoff.Driver{
			Completer: a.Completer,
			Model:     model,
			APIKey:    a.Registry.GetAPIKey(model),
		},
		Budgets: handoff.DefaultBudgets(),
		Logger:  a.Logger,
		CreateChildSession: func(parentSessionID, prompt string) (bool, error) {
			child, err := a.Store.CreateSession(a.Config.WorkDir, parentSessionID)
			if err != nil {
				return false, err
			}
			a.program.Send(sessionSwitchMsg{handle: child, seed: prompt})
			return false, nil
		},
	}
}

// sessionManager adapts a session handle to the handoff package's interface.
type sessionManager struct {
	h *app.SessionHandle
}

func (s sessionManager) GetBranch() []app.SessionEntry { return s.h.GetBranch() }
func (s sessionManager) AppendCustomEntry(customType string, data any) error {
	return s.h.AppendCustomEntry(customType, data)
}
func (s sessionManager) SessionID() string { return s.h.ID() }

// uiBridge implements handoff.UI from the controller goroutine by posting
// into the bubbletea loop. Editor blocks until the overlay resolves.
type uiBridge struct {
	a *App
}

func (u uiBridge) Notify(message string, level handoff.NotifyLevel) {
	u.a.program.Send(notifyMsg{text: message, level: level})
}

func (u uiBridge) Editor(title, initial string) (string, bool) {
	reply := make(chan editorReply, 1)
	u.a.program.Send(editorRequestMsg{title: title, initial: initial, reply: reply})
	r := <-reply
	return r.text, r.ok
}
