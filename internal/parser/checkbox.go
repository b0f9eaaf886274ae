package parser

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// checkboxLinePattern matches a markdown checkbox line, splitting it into
// prefix, state char, and the remainder. Everything outside the state char
// is preserved byte-for-byte on update.
var checkboxLinePattern = regexp.MustCompile(`^(\s*-\s+\[)([ xX])(\].*)$`)

// SyncResult reports what MarkComplete did to the source document.
type SyncResult int

const (
	// SyncUpdated means the checkbox was flipped and the file rewritten.
	SyncUpdated SyncResult = iota
	// SyncAlreadyChecked means the line was already checked; the file was
	// left untouched (idempotent).
	SyncAlreadyChecked
	// SyncSkipped means the recorded locator no longer points at a
	// checkbox line, typically because the document was edited while a run
	// was in flight. This is a warning, never a failure.
	SyncSkipped
)

// MarkComplete flips the checkbox at the recorded source locator to checked,
// preserving all surrounding text. It fails soft: a stale locator yields
// SyncSkipped rather than an error.
func MarkComplete(file string, line int) (SyncResult, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		if os.IsNotExist(err) {
			return SyncSkipped, nil
		}
		return SyncSkipped, fmt.Errorf("reading source document: %w", err)
	}

	content := string(data)
	lines := strings.Split(content, "\n")
	if line < 1 || line > len(lines) {
		return SyncSkipped, nil
	}

	m := checkboxLinePattern.FindStringSubmatch(lines[line-1])
	if m == nil {
		return SyncSkipped, nil
	}
	if strings.EqualFold(m[2], "x") {
		return SyncAlreadyChecked, nil
	}

	lines[line-1] = m[1] + "x" + m[3]
	if err := os.WriteFile(file, []byte(strings.Join(lines, "\n")), 0o644); err != nil {
		return SyncSkipped, fmt.Errorf("writing source document: %w", err)
	}
	return SyncUpdated, nil
}

// CountCheckboxes returns the completed and total checkbox counts in a
// document, for progress reporting against the raw source.
func CountCheckboxes(content string) (completed, total int) {
	for _, line := range strings.Split(content, "\n") {
		m := checkboxLinePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		total++
		if strings.EqualFold(m[2], "x") {
			completed++
		}
	}
	return completed, total
}
