package progress

import "testing"

func TestNewDocumentDefaults(t *testing.T) {
	d := New("Widget")
	if d.SchemaVersion != "1" {
		t.Errorf("SchemaVersion = %q, want 1", d.SchemaVersion)
	}
	if d.IsDone() {
		t.Error("freshly created document should not be done")
	}
	if d.TotalTasks() != 0 || d.CompletedTasks() != 0 {
		t.Error("freshly created document should have no tasks")
	}
}

func TestNextTaskOrder(t *testing.T) {
	d := New("Widget")
	d.Tasks = []TaskPhase{
		{Title: "Phase A", Tasks: []Task{{Description: "a1", Done: true}, {Description: "a2"}}},
		{Title: "Phase B", Tasks: []Task{{Description: "b1"}}},
	}

	task, phase := d.NextTask()
	if task == nil || phase == nil {
		t.Fatal("expected a next task")
	}
	if task.Description != "a2" || phase.Title != "Phase A" {
		t.Errorf("got task %+v in phase %q, want a2 in Phase A", task, phase.Title)
	}

	if got, want := d.CompletedTasks(), 1; got != want {
		t.Errorf("CompletedTasks = %d, want %d", got, want)
	}
	if got, want := d.TotalTasks(), 3; got != want {
		t.Errorf("TotalTasks = %d, want %d", got, want)
	}
}

func TestNextTaskAllDone(t *testing.T) {
	d := New("Widget")
	d.Tasks = []TaskPhase{
		{Title: "Phase A", Tasks: []Task{{Description: "a1", Done: true}}},
	}
	task, phase := d.NextTask()
	if task != nil || phase != nil {
		t.Errorf("expected no next task, got %+v / %+v", task, phase)
	}
}

func TestTrimAttemptsIdempotent(t *testing.T) {
	d := New("Widget")
	for i := uint32(1); i <= 5; i++ {
		d.AddAttempt(i, "tried x", "failed", nil)
	}
	d.TrimAttempts(3)
	if len(d.RecentAttempts) != 3 {
		t.Fatalf("expected 3 attempts after trim, got %d", len(d.RecentAttempts))
	}
	if d.RecentAttempts[0].Iteration != 3 {
		t.Errorf("expected oldest two dropped, first remaining iteration = %d", d.RecentAttempts[0].Iteration)
	}

	d.TrimAttempts(3)
	if len(d.RecentAttempts) != 3 {
		t.Fatalf("second trim with same max should be a no-op, got %d attempts", len(d.RecentAttempts))
	}

	d.TrimAttempts(10)
	if len(d.RecentAttempts) != 3 {
		t.Fatalf("trimming to a larger max should not grow attempts, got %d", len(d.RecentAttempts))
	}
}

func TestClearCompletedThisIteration(t *testing.T) {
	d := New("Widget")
	d.CompletedThisIteration = []string{"did a", "did b"}
	d.ClearCompletedThisIteration()
	if len(d.CompletedThisIteration) != 0 {
		t.Errorf("expected empty slice, got %+v", d.CompletedThisIteration)
	}
}

func TestIsDoneSentinel(t *testing.T) {
	d := New("Widget")
	if d.IsDone() {
		t.Fatal("expected not done")
	}
	d.Status = "RALPH_DONE"
	if !d.IsDone() {
		t.Fatal("expected done after setting sentinel status")
	}
}
