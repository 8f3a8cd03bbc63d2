// Package pathresolve turns a configured, possibly bare command name into an
// absolute executable path once at startup, so the Subprocess Runner never
// has to search PATH itself.
package pathresolve

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Error reports that a configured command name could not be found. It
// carries the attempted name and the PATH searched so the caller can print
// a diagnosable message, per the engine's agent-CLI wire contract.
type Error struct {
	Name string
	Path string
}

func (e *Error) Error() string {
	return fmt.Sprintf("command %q not found in PATH\n\nPATH=%s", e.Name, e.Path)
}

// Resolve turns name into an absolute path. Absolute paths and paths
// beginning with "~" are returned as-is (tilde-expanded); otherwise name is
// looked up on PATH. Returns an *Error wrapping the attempted name and
// current PATH when resolution fails.
func Resolve(name string) (string, error) {
	if name == "" {
		return "", &Error{Name: name, Path: os.Getenv("PATH")}
	}

	if strings.HasPrefix(name, "~") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, strings.TrimPrefix(name, "~")), nil
		}
	}

	if filepath.IsAbs(name) {
		return name, nil
	}

	resolved, err := exec.LookPath(name)
	if err != nil {
		return "", &Error{Name: name, Path: os.Getenv("PATH")}
	}
	return resolved, nil
}
