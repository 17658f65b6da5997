package state

import (
	"testing"

	"github.com/danbi-ai/danbi/pkg/models"
)

func TestCompleteStage_OnlyGrows(t *testing.T) {
	s := NewSession("s1", "q")

	s.CompleteStage("data_collection")
	s.CompleteStage("insight_generation")
	s.CompleteStage("data_collection") // duplicate is a no-op

	if len(s.CompletedStages) != 2 {
		t.Fatalf("completed stages = %v, want 2 entries", s.CompletedStages)
	}
	if !s.StageCompleted("data_collection") || !s.StageCompleted("insight_generation") {
		t.Error("StageCompleted lost a recorded stage")
	}
	if s.StageCompleted("synthesize") {
		t.Error("StageCompleted reports an unrecorded stage")
	}
}

func TestLastErrors(t *testing.T) {
	s := NewSession("s1", "q")
	if got := s.LastErrors(2); got != nil {
		t.Errorf("LastErrors on empty log = %v, want nil", got)
	}

	s.RecordError("first")
	s.RecordError("second")
	s.RecordError("third")

	got := s.LastErrors(2)
	if len(got) != 2 || got[0] != "second" || got[1] != "third" {
		t.Errorf("LastErrors(2) = %v, want [second third]", got)
	}
	if got := s.LastErrors(10); len(got) != 3 {
		t.Errorf("LastErrors(10) = %v, want all 3", got)
	}
}

func TestPendingTasks_FiltersTerminalAndKind(t *testing.T) {
	s := NewSession("s1", "q")
	s.AppendTasks([]*models.Task{
		{ID: "t1", Kind: "data_collection", Status: models.TaskStatusPending},
		{ID: "t2", Kind: "insight_generation", Status: models.TaskStatusPending},
		{ID: "t3", Kind: "data_collection", Status: models.TaskStatusSucceeded},
	})

	all := s.PendingTasks()
	if len(all) != 2 {
		t.Fatalf("PendingTasks() = %d tasks, want 2", len(all))
	}

	dc := s.PendingTasks("data_collection")
	if len(dc) != 1 || dc[0].ID != "t1" {
		t.Errorf("PendingTasks(data_collection) = %+v, want [t1]", dc)
	}
}

func TestResultLookups(t *testing.T) {
	s := NewSession("s1", "q")
	s.AppendTasks([]*models.Task{
		{ID: "t1", Kind: "data_collection", Status: models.TaskStatusSucceeded},
		{ID: "t2", Kind: "insight_generation", Status: models.TaskStatusFailed},
	})
	s.MergeResults(map[string]*models.AgentResult{
		"t1": {TaskID: "t1", Status: models.ResultSuccess, Confidence: 0.8},
		"t2": {TaskID: "t2", Status: models.ResultError, Error: "boom"},
	})

	if got := s.SuccessfulResults(); len(got) != 1 || got[0].TaskID != "t1" {
		t.Errorf("SuccessfulResults = %+v, want [t1]", got)
	}
	if r := s.ResultByKind("data_collection"); r == nil || r.TaskID != "t1" {
		t.Errorf("ResultByKind(data_collection) = %+v, want t1", r)
	}
	if r := s.ResultByKind("insight_generation"); r != nil {
		t.Errorf("ResultByKind for failed task = %+v, want nil", r)
	}
}
