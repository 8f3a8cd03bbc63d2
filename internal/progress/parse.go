package progress

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ParseErrorKind discriminates the hard parse-failure modes. Everything
// else (an empty or malformed individual section) is a soft failure: the
// field defaults to empty and parsing still succeeds.
type ParseErrorKind int

const (
	// ErrNoHeading means the document has no top-level "# Progress: <name>"
	// heading.
	ErrNoHeading ParseErrorKind = iota
	// ErrNoSections means the document has a heading but none of the
	// recognized "## " section headings.
	ErrNoSections
)

func (k ParseErrorKind) String() string {
	switch k {
	case ErrNoHeading:
		return "no top heading"
	case ErrNoSections:
		return "no recognizable sections"
	default:
		return "unknown parse error"
	}
}

// ParseError is returned when a document cannot be parsed at all.
type ParseError struct {
	Kind ParseErrorKind
	Path string
}

func (e *ParseError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Kind)
	}
	return e.Kind.String()
}

var (
	headingRe       = regexp.MustCompile(`^#\s+Progress:\s*(.+?)\s*$`)
	schemaVersionRe = regexp.MustCompile(`<!--\s*schema_version:\s*(\S+)\s*-->`)
	nextPersonaRe   = regexp.MustCompile(`<!--\s*next_persona:\s*(\S+)\s*-->`)
	phaseHeadingRe  = regexp.MustCompile(`^###\s+(.+?)\s*$`)
	checkboxRe      = regexp.MustCompile(`^-\s*\[([ xX])\]\s*(.*)$`)
	iterHeadingRe   = regexp.MustCompile(`^###\s+Iteration\s+(\d+)\s*$`)
	attemptLineRe   = regexp.MustCompile(`^-\s*(Tried|Result|Next):\s*(.*)$`)
	tableRowRe      = regexp.MustCompile(`^\|(.+)\|\s*$`)
	tableSepRe      = regexp.MustCompile(`^\|[\s:|-]+\|\s*$`)
)

type section int

const (
	secNone section = iota
	secStatus
	secAnalysis
	secTasks
	secTestingStrategy
	secCompletedThisIteration
	secRecentAttempts
	secIterationLog
	secUnknown
)

// sectionHeadings maps the literal "## " heading text to its section kind.
var sectionHeadings = map[string]section{
	"Status":                     secStatus,
	"Analysis":                   secAnalysis,
	"Tasks":                      secTasks,
	"Testing Strategy":           secTestingStrategy,
	"Completed This Iteration":   secCompletedThisIteration,
	"Recent Attempts":            secRecentAttempts,
	"Iteration Log":              secIterationLog,
}

// Parse parses markdown text into a Document. It accepts the required
// section headings in any order, but Write always produces the canonical
// order, so round-tripping is stable. path is used only to decorate error
// messages; pass "" if there is none.
func Parse(text string, path string) (*Document, error) {
	lines := strings.Split(text, "\n")

	doc := &Document{}

	var headingFound bool
	var anySectionFound bool

	cur := secNone
	var curPhase *TaskPhase
	var curAttempt *Attempt
	var analysisBuf, statusBuf, testingBuf []string
	var tableRows [][]string
	var sawTableHeader bool

	flushAttempt := func() {
		if curAttempt != nil {
			doc.RecentAttempts = append(doc.RecentAttempts, *curAttempt)
			curAttempt = nil
		}
	}
	flushPhase := func() {
		if curPhase != nil {
			doc.Tasks = append(doc.Tasks, *curPhase)
			curPhase = nil
		}
	}

	for _, raw := range lines {
		line := strings.TrimRight(raw, "\r")

		if m := schemaVersionRe.FindStringSubmatch(line); m != nil {
			doc.SchemaVersion = m[1]
			continue
		}
		if m := nextPersonaRe.FindStringSubmatch(line); m != nil {
			doc.NextPersona = m[1]
			continue
		}

		if !headingFound {
			if m := headingRe.FindStringSubmatch(line); m != nil {
				doc.Name = m[1]
				headingFound = true
				continue
			}
			// Anything before the heading is ignored (blank lines, stray
			// text); keep scanning for it.
			continue
		}

		if strings.HasPrefix(line, "## ") {
			flushPhase()
			flushAttempt()
			title := strings.TrimSpace(strings.TrimPrefix(line, "## "))
			sec, ok := sectionHeadings[title]
			if !ok {
				sec = secUnknown
			} else {
				anySectionFound = true
			}
			cur = sec
			sawTableHeader = false
			tableRows = nil
			continue
		}

		switch cur {
		case secStatus:
			if strings.TrimSpace(line) != "" {
				statusBuf = append(statusBuf, line)
			}
		case secAnalysis:
			analysisBuf = append(analysisBuf, line)
		case secTasks:
			if m := phaseHeadingRe.FindStringSubmatch(line); m != nil {
				flushPhase()
				curPhase = &TaskPhase{Title: m[1]}
				continue
			}
			if m := checkboxRe.FindStringSubmatch(line); m != nil {
				if curPhase == nil {
					curPhase = &TaskPhase{Title: ""}
				}
				done := m[1] == "x" || m[1] == "X"
				curPhase.Tasks = append(curPhase.Tasks, Task{
					Description: strings.TrimSpace(m[2]),
					Done:        done,
				})
			}
		case secTestingStrategy:
			testingBuf = append(testingBuf, line)
		case secCompletedThisIteration:
			if m := checkboxLikeBullet(line); m != "" {
				doc.CompletedThisIteration = append(doc.CompletedThisIteration, m)
			}
		case secRecentAttempts:
			if m := iterHeadingRe.FindStringSubmatch(line); m != nil {
				flushAttempt()
				n, _ := strconv.Atoi(m[1])
				curAttempt = &Attempt{Iteration: uint32(n)}
				continue
			}
			if m := attemptLineRe.FindStringSubmatch(line); m != nil && curAttempt != nil {
				val := strings.TrimSpace(m[2])
				switch m[1] {
				case "Tried":
					curAttempt.Tried = val
				case "Result":
					curAttempt.Result = val
				case "Next":
					v := val
					curAttempt.Next = &v
				}
			}
		case secIterationLog:
			if tableSepRe.MatchString(line) {
				sawTableHeader = true
				continue
			}
			if m := tableRowRe.FindStringSubmatch(line); m != nil {
				cells := splitTableCells(m[1])
				if !sawTableHeader {
					// This is the header row itself; skip its contents.
					continue
				}
				tableRows = append(tableRows, cells)
			}
		}
	}
	flushPhase()
	flushAttempt()

	if !headingFound {
		return nil, &ParseError{Kind: ErrNoHeading, Path: path}
	}

	doc.Status = strings.TrimSpace(strings.Join(statusBuf, "\n"))
	doc.Analysis = strings.TrimSpace(strings.Join(analysisBuf, "\n"))
	doc.TestingStrategy = strings.TrimSpace(strings.Join(testingBuf, "\n"))

	for _, row := range tableRows {
		entry := parseIterationLogRow(row)
		doc.IterationLog = append(doc.IterationLog, entry)
	}

	if doc.SchemaVersion == "" {
		doc.SchemaVersion = "1"
	}

	if !anySectionFound {
		return nil, &ParseError{Kind: ErrNoSections, Path: path}
	}

	return doc, nil
}

func checkboxLikeBullet(line string) string {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "-") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(trimmed, "-"))
}

func splitTableCells(row string) []string {
	parts := strings.Split(row, "|")
	cells := make([]string, 0, len(parts))
	for _, p := range parts {
		cells = append(cells, strings.TrimSpace(p))
	}
	return cells
}

func parseIterationLogRow(cells []string) IterationEntry {
	get := func(i int) string {
		if i < len(cells) {
			return cells[i]
		}
		return ""
	}
	iter, _ := strconv.Atoi(get(0))
	tasksCompleted, _ := strconv.Atoi(get(3))
	return IterationEntry{
		Iteration:      uint32(iter),
		Started:        get(1),
		Duration:       get(2),
		TasksCompleted: uint32(tasksCompleted),
		Notes:          get(4),
	}
}
