// Package tui provides the terminal progress view for danbi analysis
// sessions. It renders the workflow stages as a checklist that advances as
// the orchestrator emits events.
package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/danbi-ai/danbi/internal/orchestrator"
)

// stageStatus tracks one workflow stage's lifecycle in the view.
type stageStatus int

const (
	stagePending stageStatus = iota
	stageRunning
	stageDone
	stageFailed
	stageRetrying
)

// stageRow is one line of the stage checklist. Stages appear in the order
// the session first reaches them.
type stageRow struct {
	name   string
	status stageStatus
}

// LogEntry is one line of the session event log.
type LogEntry struct {
	Timestamp time.Time
	Level     string
	Message   string
}

// EventMsg wraps an orchestrator event for the bubbletea update loop.
type EventMsg orchestrator.Event

// EventsClosedMsg signals that the orchestrator closed its event channel.
type EventsClosedMsg struct{}

// App is the bubbletea model for the session progress view.
type App struct {
	sessionID string
	events    <-chan orchestrator.Event
	spinner   spinner.Model
	stages    []stageRow
	logs      []LogEntry
	width     int
	done      bool
	quitting  bool
}

// New creates an App consuming events from the given channel.
func New(events <-chan orchestrator.Event) *App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle
	return &App{
		events:  events,
		spinner: sp,
	}
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.spinner.Tick, waitForEvent(a.events))
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			a.quitting = true
			return a, tea.Quit
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case EventMsg:
		a.applyEvent(orchestrator.Event(msg))
		if a.done {
			return a, tea.Quit
		}
		return a, waitForEvent(a.events)

	case EventsClosedMsg:
		a.done = true
		return a, tea.Quit
	}

	return a, nil
}

// View implements tea.Model.
func (a *App) View() string {
	if a.quitting {
		return ""
	}

	view := titleStyle.Render("danbi") + " " + sessionStyle.Render(a.sessionID) + "\n\n"

	for _, row := range a.stages {
		view += "  " + a.renderStage(row) + "\n"
	}
	if len(a.stages) == 0 {
		view += "  " + a.spinner.View() + " " + pendingStyle.Render("세션 준비 중...") + "\n"
	}

	if tail := a.recentLogs(5); len(tail) > 0 {
		view += "\n"
		for _, entry := range tail {
			view += "  " + renderLog(entry) + "\n"
		}
	}

	view += "\n" + hintStyle.Render("q 종료")
	return view
}

// Done reports whether the session reached a terminal event.
func (a *App) Done() bool {
	return a.done
}

// applyEvent folds one orchestrator event into the view state.
func (a *App) applyEvent(ev orchestrator.Event) {
	if a.sessionID == "" {
		a.sessionID = ev.SessionID
	}

	switch ev.Type {
	case orchestrator.EventStageStarted:
		a.setStage(ev.Stage, stageRunning)
	case orchestrator.EventStageCompleted:
		a.setStage(ev.Stage, stageDone)
	case orchestrator.EventStageFailed:
		a.setStage(ev.Stage, stageFailed)
		a.log("ERROR", fmt.Sprintf("%s: %s", ev.Stage, ev.Message))
	case orchestrator.EventRetry:
		a.setStage(ev.Stage, stageRetrying)
		a.log("WARN", fmt.Sprintf("%s 재시도 (%s)", ev.Stage, ev.Message))
	case orchestrator.EventSessionDone:
		a.done = true
	}
}

// setStage updates a stage row, appending it on first sight.
func (a *App) setStage(name string, status stageStatus) {
	for i := range a.stages {
		if a.stages[i].name == name {
			a.stages[i].status = status
			return
		}
	}
	a.stages = append(a.stages, stageRow{name: name, status: status})
}

func (a *App) log(level, message string) {
	a.logs = append(a.logs, LogEntry{
		Timestamp: time.Now(),
		Level:     level,
		Message:   message,
	})
}

func (a *App) recentLogs(n int) []LogEntry {
	if len(a.logs) <= n {
		return a.logs
	}
	return a.logs[len(a.logs)-n:]
}

func (a *App) renderStage(row stageRow) string {
	label := stageLabel(row.name)
	switch row.status {
	case stageRunning:
		return a.spinner.View() + " " + runningStyle.Render(label)
	case stageDone:
		return doneStyle.Render("✓ " + label)
	case stageFailed:
		return failedStyle.Render("✗ " + label)
	case stageRetrying:
		return retryStyle.Render("↻ " + label)
	default:
		return pendingStyle.Render("· " + label)
	}
}

func renderLog(entry LogEntry) string {
	ts := entry.Timestamp.Format("15:04:05")
	line := fmt.Sprintf("%s [%s] %s", ts, entry.Level, entry.Message)
	if entry.Level == "ERROR" {
		return failedStyle.Render(line)
	}
	return hintStyle.Render(line)
}

// stageLabel maps stage names to their Korean display labels.
func stageLabel(stage string) string {
	switch stage {
	case "analyze_intent":
		return "의도 분석"
	case "decompose_tasks":
		return "작업 분해"
	case "data_collection":
		return "데이터 수집"
	case "insight_generation":
		return "인사이트 생성"
	case "recommendation_generation":
		return "추천 생성"
	case "anomaly_detection":
		return "이상 탐지"
	case "trend_analysis":
		return "트렌드 분석"
	case "synthesize":
		return "결과 종합"
	case "error_handle":
		return "오류 처리"
	default:
		return stage
	}
}

// waitForEvent blocks on the event channel and converts the next event into
// a bubbletea message.
func waitForEvent(ch <-chan orchestrator.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return EventsClosedMsg{}
		}
		return EventMsg(ev)
	}
}

// Run displays the progress view until the session finishes or the user
// quits.
func Run(events <-chan orchestrator.Event) error {
	app := New(events)
	p := tea.NewProgram(app)
	_, err := p.Run()
	return err
}
