package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/danbi-ai/danbi/internal/orchestrator"
)

func event(typ orchestrator.EventType, stage, message string) EventMsg {
	return EventMsg(orchestrator.Event{
		Type:      typ,
		SessionID: "sess-1",
		Stage:     stage,
		Message:   message,
		Timestamp: time.Now(),
	})
}

func TestApp_StageLifecycle(t *testing.T) {
	app := New(nil)

	app.Update(event(orchestrator.EventStageStarted, "analyze_intent", ""))
	app.Update(event(orchestrator.EventStageCompleted, "analyze_intent", ""))
	app.Update(event(orchestrator.EventStageStarted, "data_collection", ""))

	if len(app.stages) != 2 {
		t.Fatalf("stages = %d, want 2", len(app.stages))
	}
	if app.stages[0].status != stageDone {
		t.Errorf("analyze_intent status = %v, want done", app.stages[0].status)
	}
	if app.stages[1].status != stageRunning {
		t.Errorf("data_collection status = %v, want running", app.stages[1].status)
	}
	if app.sessionID != "sess-1" {
		t.Errorf("session id = %q", app.sessionID)
	}
}

func TestApp_FailureAndRetryAreLogged(t *testing.T) {
	app := New(nil)

	app.Update(event(orchestrator.EventStageStarted, "data_collection", ""))
	app.Update(event(orchestrator.EventStageFailed, "data_collection", "backend unavailable"))
	app.Update(event(orchestrator.EventRetry, "data_collection", "retry 1/2"))

	if app.stages[0].status != stageRetrying {
		t.Errorf("status = %v, want retrying", app.stages[0].status)
	}
	if len(app.logs) != 2 {
		t.Fatalf("logs = %d, want 2", len(app.logs))
	}
	if app.logs[0].Level != "ERROR" || !strings.Contains(app.logs[0].Message, "backend unavailable") {
		t.Errorf("log = %+v", app.logs[0])
	}
	if app.logs[1].Level != "WARN" {
		t.Errorf("retry log level = %q", app.logs[1].Level)
	}
}

func TestApp_SessionDoneQuits(t *testing.T) {
	app := New(nil)

	_, cmd := app.Update(event(orchestrator.EventSessionDone, "done", ""))
	if !app.Done() {
		t.Error("app not done after session_done")
	}
	if cmd == nil {
		t.Error("no quit command issued")
	}
}

func TestApp_QuitKey(t *testing.T) {
	app := New(nil)

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("no command for quit key")
	}
	if !app.quitting {
		t.Error("quitting not set")
	}
}

func TestApp_ViewShowsStages(t *testing.T) {
	app := New(nil)

	app.Update(event(orchestrator.EventStageStarted, "analyze_intent", ""))
	app.Update(event(orchestrator.EventStageCompleted, "analyze_intent", ""))
	app.Update(event(orchestrator.EventStageStarted, "synthesize", ""))

	view := app.View()
	if !strings.Contains(view, "의도 분석") {
		t.Errorf("view missing completed stage label:\n%s", view)
	}
	if !strings.Contains(view, "결과 종합") {
		t.Errorf("view missing running stage label:\n%s", view)
	}
}

func TestStageLabel_UnknownPassesThrough(t *testing.T) {
	if got := stageLabel("custom_stage"); got != "custom_stage" {
		t.Errorf("label = %q", got)
	}
}

func TestApp_ClosedChannel(t *testing.T) {
	app := New(nil)

	_, cmd := app.Update(EventsClosedMsg{})
	if !app.Done() {
		t.Error("app not done after channel close")
	}
	if cmd == nil {
		t.Error("no quit command issued")
	}
}
