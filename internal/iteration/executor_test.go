package iteration

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/vmakaev/rslph/internal/cancel"
	"github.com/vmakaev/rslph/internal/config"
	"github.com/vmakaev/rslph/internal/progress"
)

// writeFakeAgent writes an executable shell script that ignores its
// arguments and emits the given stream-json lines verbatim, one per printf.
func writeFakeAgent(t *testing.T, dir string, lines []string) string {
	t.Helper()
	path := filepath.Join(dir, "fake-agent.sh")

	script := "#!/bin/sh\n"
	for _, l := range lines {
		script += fmt.Sprintf("printf '%%s\\n' '%s'\n", l)
	}
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("failed to write fake agent: %v", err)
	}
	return path
}

func assistantTextLine(t *testing.T, text string) string {
	t.Helper()
	payload := map[string]any{
		"type": "assistant",
		"message": map[string]any{
			"content": []map[string]any{
				{"type": "text", "text": text},
			},
		},
	}
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	return string(data)
}

func minimalConfig(binary string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Agent = config.AgentConfig{Binary: binary}
	return cfg
}

func TestExecuteSingleSuccessfulIteration(t *testing.T) {
	dir := t.TempDir()
	docPath := filepath.Join(dir, "PROGRESS.md")

	doc := progress.New("Widget")
	doc.Status = "In Progress"
	doc.Tasks = []progress.TaskPhase{
		{Title: "Phase", Tasks: []progress.Task{{Description: "T1"}}},
	}
	if err := doc.Write(docPath); err != nil {
		t.Fatalf("setup write failed: %v", err)
	}

	updated := progress.New("Widget")
	updated.Status = "In Progress"
	updated.Tasks = []progress.TaskPhase{
		{Title: "Phase", Tasks: []progress.Task{{Description: "T1", Done: true}}},
	}

	lines := []string{
		`{"type":"system","subtype":"init","session_id":"s1"}`,
		assistantTextLine(t, updated.ToMarkdown()),
		`{"type":"result","stop_reason":"end_turn"}`,
	}
	agent := writeFakeAgent(t, dir, lines)

	outcome, err := Execute(1, Context{
		DocumentPath: docPath,
		WorkspaceDir: dir,
		Config:       minimalConfig(agent),
		CancelToken:  cancel.New(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !outcome.Continuing || outcome.TasksCompleted != 1 {
		t.Fatalf("outcome = %+v, want Continuing with 1 task completed", outcome)
	}

	onDisk, err := progress.Load(docPath)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if !onDisk.Tasks[0].Tasks[0].Done {
		t.Error("expected T1 to be checked on disk")
	}
}

func TestExecuteShortCircuitsWhenAlreadyDone(t *testing.T) {
	dir := t.TempDir()
	docPath := filepath.Join(dir, "PROGRESS.md")

	doc := progress.New("Widget")
	doc.Status = "RALPH_DONE"
	if err := doc.Write(docPath); err != nil {
		t.Fatalf("setup write failed: %v", err)
	}

	outcome, err := Execute(1, Context{
		DocumentPath: docPath,
		WorkspaceDir: dir,
		Config:       minimalConfig("this-should-never-be-spawned"),
		CancelToken:  cancel.New(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Continuing || outcome.Done != RalphDone {
		t.Fatalf("outcome = %+v, want Done(RalphDone)", outcome)
	}
}

func TestExecuteShortCircuitsWhenAllTasksComplete(t *testing.T) {
	dir := t.TempDir()
	docPath := filepath.Join(dir, "PROGRESS.md")

	doc := progress.New("Widget")
	doc.Tasks = []progress.TaskPhase{
		{Title: "Phase", Tasks: []progress.Task{{Description: "T1", Done: true}}},
	}
	if err := doc.Write(docPath); err != nil {
		t.Fatalf("setup write failed: %v", err)
	}

	outcome, err := Execute(1, Context{
		DocumentPath: docPath,
		WorkspaceDir: dir,
		Config:       minimalConfig("this-should-never-be-spawned"),
		CancelToken:  cancel.New(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Continuing || outcome.Done != AllTasksComplete {
		t.Fatalf("outcome = %+v, want Done(AllTasksComplete)", outcome)
	}
}

func TestExecuteRecordsAttemptOnParseFailure(t *testing.T) {
	dir := t.TempDir()
	docPath := filepath.Join(dir, "PROGRESS.md")

	doc := progress.New("Widget")
	doc.Status = "In Progress"
	doc.Tasks = []progress.TaskPhase{
		{Title: "Phase", Tasks: []progress.Task{{Description: "T1"}}},
	}
	if err := doc.Write(docPath); err != nil {
		t.Fatalf("setup write failed: %v", err)
	}

	lines := []string{
		`{"type":"system","subtype":"init","session_id":"s1"}`,
		assistantTextLine(t, "not a progress document at all"),
		`{"type":"result","stop_reason":"end_turn"}`,
	}
	agent := writeFakeAgent(t, dir, lines)

	outcome, err := Execute(3, Context{
		DocumentPath: docPath,
		WorkspaceDir: dir,
		Config:       minimalConfig(agent),
		CancelToken:  cancel.New(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !outcome.Continuing || outcome.TasksCompleted != 0 {
		t.Fatalf("outcome = %+v, want Continuing with 0 tasks completed", outcome)
	}

	onDisk, err := progress.Load(docPath)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if len(onDisk.RecentAttempts) != 1 || onDisk.RecentAttempts[0].Iteration != 3 {
		t.Fatalf("expected one recorded attempt for iteration 3, got %+v", onDisk.RecentAttempts)
	}
	if onDisk.Tasks[0].Tasks[0].Done {
		t.Error("original document should be preserved unchanged on parse failure")
	}
}

func TestExecuteSpawnFailureIsFatal(t *testing.T) {
	dir := t.TempDir()
	docPath := filepath.Join(dir, "PROGRESS.md")

	doc := progress.New("Widget")
	doc.Tasks = []progress.TaskPhase{
		{Title: "Phase", Tasks: []progress.Task{{Description: "T1"}}},
	}
	if err := doc.Write(docPath); err != nil {
		t.Fatalf("setup write failed: %v", err)
	}

	_, err := Execute(1, Context{
		DocumentPath: docPath,
		WorkspaceDir: dir,
		Config:       minimalConfig("definitely-not-a-real-binary-xyz123"),
		CancelToken:  cancel.New(),
	})
	if err == nil {
		t.Fatal("expected a fatal error for spawn failure")
	}

	onDisk, err2 := progress.Load(docPath)
	if err2 != nil {
		t.Fatalf("reload failed: %v", err2)
	}
	if len(onDisk.RecentAttempts) != 1 {
		t.Fatalf("expected spawn failure to be recorded as an attempt, got %+v", onDisk.RecentAttempts)
	}
}
