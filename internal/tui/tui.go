// Package tui provides the terminal chat surface for the blueprint conversation.
//
// It follows The Elm Architecture via bubbletea: the App model holds all state,
// Update routes messages, View renders. Model calls run as async commands so
// the terminal stays responsive while a turn is in flight.
package tui

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/forgeline/blueprint/internal/flow"
	"github.com/forgeline/blueprint/internal/models"
)

// Orchestrator is the conversation engine the TUI drives.
type Orchestrator interface {
	SubmitTurn(ctx context.Context, userText string) (*models.StructuredReply, error)
	ExportBlueprint() (string, error)
	Snapshot() flow.Snapshot
}

var (
	phaseStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	userStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	assistantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle      = lipgloss.NewStyle().Faint(true)
)

// turnResultMsg carries the outcome of an async SubmitTurn call.
type turnResultMsg struct {
	reply *models.StructuredReply
	snap  flow.Snapshot
	err   error
}

// exportResultMsg carries the outcome of an async export.
type exportResultMsg struct {
	path string
	err  error
}

// line is one rendered transcript entry.
type line struct {
	speaker string
	style   lipgloss.Style
	text    string
}

// App is the chat TUI model.
type App struct {
	orchestrator Orchestrator
	outputPath   string

	viewport viewport.Model
	input    textarea.Model
	spin     spinner.Model

	lines   []line
	phase   models.Phase
	ready   bool // blueprint exportable
	waiting bool
	status  string

	width  int
	height int
}

// Option customizes App construction.
type Option func(*App)

// WithOutputPath sets the file the export keybinding writes to.
func WithOutputPath(path string) Option {
	return func(a *App) {
		if path != "" {
			a.outputPath = path
		}
	}
}

// NewApp builds the chat TUI around an orchestrator.
func NewApp(orchestrator Orchestrator, opts ...Option) *App {
	input := textarea.New()
	input.Placeholder = flow.FirstUserPrompt
	input.SetHeight(2)
	input.ShowLineNumbers = false
	input.Focus()

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	a := &App{
		orchestrator: orchestrator,
		outputPath:   "blueprint.md",
		viewport:     viewport.New(80, 20),
		input:        input,
		spin:         spin,
		phase:        models.PhaseRecognition,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run starts the TUI and blocks until the user quits.
func (a *App) Run() error {
	_, err := tea.NewProgram(a, tea.WithAltScreen()).Run()
	return err
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return textarea.Blink
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.viewport.Width = msg.Width
		a.viewport.Height = msg.Height - a.input.Height() - 4
		a.input.SetWidth(msg.Width - 2)
		a.refreshViewport()
		return a, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return a, tea.Quit
		case "enter":
			if a.waiting {
				return a, nil
			}
			text := strings.TrimSpace(a.input.Value())
			if text == "" {
				return a, nil
			}
			a.input.Reset()
			return a, a.submitTurn(text)
		case "ctrl+e":
			if a.waiting {
				return a, nil
			}
			return a, a.exportBlueprint()
		}

	case turnResultMsg:
		a.waiting = false
		if msg.err != nil {
			a.appendLine(line{speaker: "error", style: errorStyle, text: turnErrorText(msg.err)})
			return a, nil
		}
		a.phase = msg.snap.Phase
		a.ready = msg.snap.BlueprintReady
		a.appendLine(line{speaker: "assistant", style: assistantStyle, text: msg.reply.Message})
		return a, nil

	case exportResultMsg:
		if msg.err != nil {
			a.status = errorStyle.Render(msg.err.Error())
		} else {
			a.status = fmt.Sprintf("Blueprint written to %s", msg.path)
		}
		return a, nil

	case spinner.TickMsg:
		if !a.waiting {
			return a, nil
		}
		var cmd tea.Cmd
		a.spin, cmd = a.spin.Update(msg)
		return a, cmd
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	cmds = append(cmds, cmd)
	a.viewport, cmd = a.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return a, tea.Batch(cmds...)
}

// submitTurn records the user line immediately and exchanges the turn with the
// model in the background.
func (a *App) submitTurn(text string) tea.Cmd {
	a.appendLine(line{speaker: "you", style: userStyle, text: text})
	a.waiting = true
	a.status = ""
	orch := a.orchestrator
	return tea.Batch(a.spin.Tick, func() tea.Msg {
		reply, err := orch.SubmitTurn(context.Background(), text)
		if err != nil {
			return turnResultMsg{err: err}
		}
		return turnResultMsg{reply: reply, snap: orch.Snapshot()}
	})
}

func (a *App) exportBlueprint() tea.Cmd {
	orch := a.orchestrator
	path := a.outputPath
	return func() tea.Msg {
		md, err := orch.ExportBlueprint()
		if err != nil {
			return exportResultMsg{err: err}
		}
		if err := os.WriteFile(path, []byte(md), 0o644); err != nil {
			return exportResultMsg{err: fmt.Errorf("failed to write %s: %w", path, err)}
		}
		return exportResultMsg{path: path}
	}
}

// turnErrorText maps turn failures to the retry guidance shown inline.
func turnErrorText(err error) string {
	return fmt.Sprintf("%v (your turn was not recorded; send it again)", err)
}

func (a *App) appendLine(l line) {
	a.lines = append(a.lines, l)
	a.refreshViewport()
}

func (a *App) refreshViewport() {
	var sb strings.Builder
	for _, l := range a.lines {
		sb.WriteString(l.style.Render(fmt.Sprintf("%s: %s", l.speaker, l.text)))
		sb.WriteString("\n\n")
	}
	a.viewport.SetContent(sb.String())
	a.viewport.GotoBottom()
}

// View implements tea.Model.
func (a *App) View() string {
	header := phaseStyle.Render("Phase: " + string(a.phase))
	if a.ready {
		header += helpStyle.Render("  blueprint ready")
	}
	if a.waiting {
		header += "  " + a.spin.View() + helpStyle.Render("thinking")
	}

	help := helpStyle.Render("enter: send • ctrl+e: export blueprint • ctrl+c: quit")
	if a.status != "" {
		help = a.status + "\n" + help
	}

	return fmt.Sprintf("%s\n%s\n%s\n%s", header, a.viewport.View(), a.input.View(), help)
}
