// Package progress implements the Progress Document: the structured
// markdown file that is the engine's only durable state between
// iterations (spec §3, §4.A).
package progress

import "strings"

// DoneSentinel is the literal substring that marks a document's Status
// section as finished. Completion detection is always a substring match on
// Status, never on body text (spec §3 invariant).
const DoneSentinel = "RALPH_DONE"

// Document is the in-memory form of a progress file.
type Document struct {
	SchemaVersion           string
	Name                    string
	Status                  string
	Analysis                string
	Tasks                   []TaskPhase
	TestingStrategy         string
	CompletedThisIteration  []string
	RecentAttempts          []Attempt
	IterationLog            []IterationEntry
	NextPersona             string
}

// TaskPhase groups an ordered sequence of tasks under a heading.
type TaskPhase struct {
	Title string
	Tasks []Task
}

// Task is a single checkbox item.
type Task struct {
	Description string
	Done        bool
}

// Attempt records something tried in a prior iteration, bounded failure
// memory used to give the next iteration context on what didn't work.
type Attempt struct {
	Iteration uint32
	Tried     string
	Result    string
	Next      *string
}

// IterationEntry is one append-only row of the Iteration Log table.
type IterationEntry struct {
	Iteration      uint32
	Started        string // ISO-8601
	Duration       string // human-readable, e.g. "2m14s"
	TasksCompleted uint32
	Notes          string
}

// New returns an empty, valid Document with the given name and an initial
// in-progress status.
func New(name string) *Document {
	return &Document{
		SchemaVersion: "1",
		Name:          name,
		Status:        "In Progress",
	}
}

// IsDone reports whether Status contains the completion sentinel. This and
// the task-count comparison in CompletedTasks/TotalTasks are the only legal
// termination checks (spec §3).
func (d *Document) IsDone() bool {
	return strings.Contains(d.Status, DoneSentinel)
}

// CompletedTasks returns the count of tasks with Done=true across all
// phases, in phase order.
func (d *Document) CompletedTasks() int {
	n := 0
	for _, phase := range d.Tasks {
		for _, task := range phase.Tasks {
			if task.Done {
				n++
			}
		}
	}
	return n
}

// TotalTasks returns the count of all tasks across all phases.
func (d *Document) TotalTasks() int {
	n := 0
	for _, phase := range d.Tasks {
		n += len(phase.Tasks)
	}
	return n
}

// NextTask returns a pointer to the first incomplete task, in phase order
// then task order, and the phase it belongs to. Returns (nil, nil) if every
// task is done or there are no tasks.
func (d *Document) NextTask() (*Task, *TaskPhase) {
	for i := range d.Tasks {
		phase := &d.Tasks[i]
		for j := range phase.Tasks {
			if !phase.Tasks[j].Done {
				return &phase.Tasks[j], phase
			}
		}
	}
	return nil, nil
}

// AddAttempt appends a new Attempt for the given iteration. Callers should
// follow with TrimAttempts to enforce the configured retention depth.
func (d *Document) AddAttempt(iteration uint32, tried, result string, next *string) {
	d.RecentAttempts = append(d.RecentAttempts, Attempt{
		Iteration: iteration,
		Tried:     tried,
		Result:    result,
		Next:      next,
	})
}

// TrimAttempts removes the oldest attempts until at most max remain.
// Idempotent: calling it again with the same or larger max is a no-op.
func (d *Document) TrimAttempts(max int) {
	if max < 0 {
		return
	}
	if len(d.RecentAttempts) <= max {
		return
	}
	d.RecentAttempts = d.RecentAttempts[len(d.RecentAttempts)-max:]
}

// LogIteration appends a row to the append-only Iteration Log.
func (d *Document) LogIteration(iteration uint32, started, duration string, tasksCompleted uint32, notes string) {
	d.IterationLog = append(d.IterationLog, IterationEntry{
		Iteration:      iteration,
		Started:        started,
		Duration:       duration,
		TasksCompleted: tasksCompleted,
		Notes:          notes,
	})
}

// ClearCompletedThisIteration empties the per-iteration completion list, as
// required at the start of every iteration (spec §3).
func (d *Document) ClearCompletedThisIteration() {
	d.CompletedThisIteration = nil
}
