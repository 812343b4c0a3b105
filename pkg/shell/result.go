// SPDX-License-Identifier: MPL-2.0

package shell

import (
	"fmt"
	"strings"
)

// Error record categories.
const (
	// CategoryStderr is a line the script wrote to stderr.
	CategoryStderr Category = "stderr"
	// CategoryExitStatus is a non-zero exit status at the end of the script.
	CategoryExitStatus Category = "exit-status"
	// CategoryParse is a syntax error; nothing was executed.
	CategoryParse Category = "parse"
	// CategoryRuntime is an interpreter failure other than an exit status.
	CategoryRuntime Category = "runtime"
)

type (
	// Category classifies an ErrorRecord.
	Category string

	// ErrorRecord is one error produced by a single invocation.
	ErrorRecord struct {
		Category Category
		Message  string
		// ExitStatus is set for CategoryExitStatus records.
		ExitStatus uint8
	}

	// Result is the outcome of one script invocation.
	// Values and Errors are never nil.
	Result struct {
		// Script is the exact text that was run.
		Script string
		// Values holds stdout split into lines, in order.
		Values []string
		// Errors holds the error records in the order they were produced.
		Errors []ErrorRecord
		// ExitStatus is the final exit status of the script.
		ExitStatus uint8
	}
)

// String returns "<category>: <message>".
func (r ErrorRecord) String() string {
	return fmt.Sprintf("%s: %s", r.Category, r.Message)
}

// HasErrors reports whether the invocation produced any error record.
func (r *Result) HasErrors() bool {
	return len(r.Errors) > 0
}

// Err returns an *ExecutionError carrying the records, or nil if there are none.
func (r *Result) Err() error {
	if !r.HasErrors() {
		return nil
	}
	return &ExecutionError{Script: r.Script, Records: r.Errors}
}

// splitLines splits captured output into values. The newline ending the last
// line does not produce an extra value, so "\n" is one empty value. CRLF
// endings are trimmed.
func splitLines(out string) []string {
	if out == "" {
		return []string{}
	}
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

// stderrRecords turns captured stderr into records, skipping blank lines.
func stderrRecords(out string) []ErrorRecord {
	records := []ErrorRecord{}
	for _, line := range splitLines(out) {
		if strings.TrimSpace(line) == "" {
			continue
		}
		records = append(records, ErrorRecord{Category: CategoryStderr, Message: line})
	}
	return records
}

// joinCommands joins command groups in order with a single newline.
// Empty groups contribute nothing.
func joinCommands(groups ...[]string) string {
	var all []string
	for _, g := range groups {
		all = append(all, g...)
	}
	return strings.Join(all, "\n")
}
