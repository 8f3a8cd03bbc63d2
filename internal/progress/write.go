package progress

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ToMarkdown serializes the document in canonical section order. This is
// the single code path used both for the on-disk form and for the text
// embedded in prompts sent to the agent CLI (spec §4.D step 4), so the two
// never drift.
func (d *Document) ToMarkdown() string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Progress: %s\n\n", d.Name)
	if d.SchemaVersion != "" {
		fmt.Fprintf(&b, "<!-- schema_version: %s -->\n", d.SchemaVersion)
	}
	if d.NextPersona != "" {
		fmt.Fprintf(&b, "<!-- next_persona: %s -->\n", d.NextPersona)
	}
	b.WriteString("\n")

	b.WriteString("## Status\n\n")
	fmt.Fprintf(&b, "%s\n\n", strings.TrimSpace(d.Status))

	b.WriteString("## Analysis\n\n")
	fmt.Fprintf(&b, "%s\n\n", strings.TrimSpace(d.Analysis))

	b.WriteString("## Tasks\n\n")
	for _, phase := range d.Tasks {
		if phase.Title != "" {
			fmt.Fprintf(&b, "### %s\n\n", phase.Title)
		}
		for _, task := range phase.Tasks {
			mark := " "
			if task.Done {
				mark = "x"
			}
			fmt.Fprintf(&b, "- [%s] %s\n", mark, task.Description)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Testing Strategy\n\n")
	fmt.Fprintf(&b, "%s\n\n", strings.TrimSpace(d.TestingStrategy))

	b.WriteString("## Completed This Iteration\n\n")
	for _, item := range d.CompletedThisIteration {
		fmt.Fprintf(&b, "- %s\n", item)
	}
	b.WriteString("\n")

	b.WriteString("## Recent Attempts\n\n")
	for _, a := range d.RecentAttempts {
		fmt.Fprintf(&b, "### Iteration %d\n\n", a.Iteration)
		fmt.Fprintf(&b, "- Tried: %s\n", a.Tried)
		fmt.Fprintf(&b, "- Result: %s\n", a.Result)
		if a.Next != nil {
			fmt.Fprintf(&b, "- Next: %s\n", *a.Next)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Iteration Log\n\n")
	b.WriteString("| Iteration | Started | Duration | Tasks Completed | Notes |\n")
	b.WriteString("|---|---|---|---|---|\n")
	for _, e := range d.IterationLog {
		fmt.Fprintf(&b, "| %d | %s | %s | %d | %s |\n", e.Iteration, e.Started, e.Duration, e.TasksCompleted, e.Notes)
	}

	return b.String()
}

// Write atomically persists the document to path: it serializes to a
// sibling temporary file in the same directory, flushes and fsyncs it, then
// renames it over the target. On any error the target is left unchanged.
func (d *Document) Write(path string) error {
	return writeAtomic(path, []byte(d.ToMarkdown()))
}

// writeAtomic implements the temp-file-plus-rename contract shared by every
// progress-document write (the executor's update and the iteration-log append).
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("cannot create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("cannot write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("cannot fsync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("cannot close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("cannot rename temp file into place: %w", err)
	}

	return nil
}

// Load reads and parses the document at path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	return Parse(string(data), path)
}
