package progress

import (
	"os"
	"path/filepath"
	"testing"
)

func next(s string) *string { return &s }

func TestRoundTripMarkdown(t *testing.T) {
	d := New("Widget")
	d.Status = "In Progress"
	d.Analysis = "Needs more tests."
	d.Tasks = []TaskPhase{
		{Title: "Setup", Tasks: []Task{{Description: "init repo", Done: true}, {Description: "add CI"}}},
	}
	d.TestingStrategy = "Unit tests per package."
	d.CompletedThisIteration = []string{"init repo"}
	d.AddAttempt(1, "ran go vet", "found nothing", next("proceed to CI"))
	d.LogIteration(1, "2026-01-01T00:00:00Z", "1m30s", 1, "bootstrap")

	md := d.ToMarkdown()
	parsed, err := Parse(md, "")
	if err != nil {
		t.Fatalf("round-trip parse failed: %v", err)
	}

	if parsed.Name != d.Name || parsed.Status != d.Status || parsed.Analysis != d.Analysis {
		t.Errorf("core fields mismatch: %+v", parsed)
	}
	if parsed.TestingStrategy != d.TestingStrategy {
		t.Errorf("TestingStrategy mismatch: %q != %q", parsed.TestingStrategy, d.TestingStrategy)
	}
	if len(parsed.Tasks) != 1 || len(parsed.Tasks[0].Tasks) != 2 {
		t.Fatalf("Tasks mismatch: %+v", parsed.Tasks)
	}
	if len(parsed.RecentAttempts) != 1 || parsed.RecentAttempts[0].Next == nil || *parsed.RecentAttempts[0].Next != "proceed to CI" {
		t.Fatalf("RecentAttempts mismatch: %+v", parsed.RecentAttempts)
	}
	if len(parsed.IterationLog) != 1 || parsed.IterationLog[0].Notes != "bootstrap" {
		t.Fatalf("IterationLog mismatch: %+v", parsed.IterationLog)
	}
}

func TestWriteAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "PROGRESS.md")

	d := New("Widget")
	d.Status = "In Progress"
	if err := d.Write(path); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("file not created: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("written file is empty")
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Name != "Widget" || loaded.Status != "In Progress" {
		t.Errorf("loaded document mismatch: %+v", loaded)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected no leftover temp files, found %d entries: %+v", len(entries), entries)
	}
}

func TestWriteOverwritesExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "PROGRESS.md")

	first := New("Widget")
	first.Status = "In Progress"
	if err := first.Write(path); err != nil {
		t.Fatalf("first write failed: %v", err)
	}

	second := New("Widget")
	second.Status = "RALPH_DONE"
	if err := second.Write(path); err != nil {
		t.Fatalf("second write failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !loaded.IsDone() {
		t.Fatal("expected overwritten document to report done")
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.md"))
	if err == nil {
		t.Fatal("expected error loading missing file")
	}
}
