package planning

import (
	"bufio"
	"io"
	"strings"
)

// ReadAnswerFromStdin reads a free-form multi-line answer terminated by two
// consecutive blank lines, allowing single blank lines as paragraph breaks
// within the answer itself (spec §4.F step 5b).
func ReadAnswerFromStdin(r io.Reader) (string, error) {
	scanner := bufio.NewScanner(r)
	var lines []string
	blankStreak := 0

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			blankStreak++
			if blankStreak >= 2 {
				break
			}
			lines = append(lines, line)
			continue
		}
		blankStreak = 0
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}

	return strings.TrimRight(strings.Join(lines, "\n"), "\n"), nil
}
