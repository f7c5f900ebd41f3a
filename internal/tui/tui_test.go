package tui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/forgeline/blueprint/internal/flow"
	"github.com/forgeline/blueprint/internal/models"
)

type stubOrchestrator struct {
	reply     *models.StructuredReply
	turnErr   error
	exportMD  string
	exportErr error
	snap      flow.Snapshot
}

func (s *stubOrchestrator) SubmitTurn(ctx context.Context, userText string) (*models.StructuredReply, error) {
	if s.turnErr != nil {
		return nil, s.turnErr
	}
	return s.reply, nil
}

func (s *stubOrchestrator) ExportBlueprint() (string, error) {
	if s.exportErr != nil {
		return "", s.exportErr
	}
	return s.exportMD, nil
}

func (s *stubOrchestrator) Snapshot() flow.Snapshot { return s.snap }

func TestTurnResultAdvancesPhaseAndTranscript(t *testing.T) {
	app := NewApp(&stubOrchestrator{})
	app.appendLine(line{speaker: "you", style: userStyle, text: "my idea"})

	model, _ := app.Update(turnResultMsg{
		reply: &models.StructuredReply{Phase: models.PhaseConvergence, Message: "Narrowing."},
		snap:  flow.Snapshot{Phase: models.PhaseConvergence},
	})
	app = model.(*App)

	if app.phase != models.PhaseConvergence {
		t.Errorf("expected phase CONVERGENCE, got %s", app.phase)
	}
	if len(app.lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(app.lines))
	}
	if app.lines[1].text != "Narrowing." {
		t.Errorf("unexpected assistant line: %q", app.lines[1].text)
	}
	if !strings.Contains(app.View(), "CONVERGENCE") {
		t.Error("view should show the current phase")
	}
}

func TestTurnResultErrorKeepsSessionUsable(t *testing.T) {
	app := NewApp(&stubOrchestrator{})
	app.waiting = true

	model, _ := app.Update(turnResultMsg{err: errors.New("model call failed")})
	app = model.(*App)

	if app.waiting {
		t.Error("waiting flag should clear on error")
	}
	if app.phase != models.PhaseRecognition {
		t.Errorf("phase should not change on error, got %s", app.phase)
	}
	last := app.lines[len(app.lines)-1]
	if last.speaker != "error" || !strings.Contains(last.text, "send it again") {
		t.Errorf("expected inline retry guidance, got %+v", last)
	}
}

func TestExportWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blueprint.md")
	orch := &stubOrchestrator{exportMD: "# Business Blueprint\n"}
	app := NewApp(orch, WithOutputPath(path))

	msg := app.exportBlueprint()()
	result, ok := msg.(exportResultMsg)
	if !ok {
		t.Fatalf("expected exportResultMsg, got %T", msg)
	}
	if result.err != nil {
		t.Fatalf("unexpected export error: %v", result.err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("exported file missing: %v", err)
	}
	if string(data) != "# Business Blueprint\n" {
		t.Errorf("unexpected file content: %q", data)
	}

	model, _ := app.Update(result)
	app = model.(*App)
	if !strings.Contains(app.View(), path) {
		t.Error("view should confirm the export path")
	}
}

func TestExportNotReadyShowsGuidance(t *testing.T) {
	app := NewApp(&stubOrchestrator{exportErr: flow.ErrNotReady})

	msg := app.exportBlueprint()()
	result := msg.(exportResultMsg)
	if result.err == nil {
		t.Fatal("expected export error")
	}

	model, _ := app.Update(result)
	app = model.(*App)
	if !strings.Contains(app.View(), "continue the conversation") {
		t.Error("view should carry the not-ready guidance")
	}
}

func TestQuitKeys(t *testing.T) {
	app := NewApp(&stubOrchestrator{})
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("ctrl+c should produce a command")
	}
	if msg := cmd(); msg == nil {
		t.Error("expected quit message")
	}
}
