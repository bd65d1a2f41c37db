// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

// ExitError signals a non-zero exit code without printing an extra
// error message. The command is expected to have written its own
// output already, as "courier ping" does when replies go missing.
type ExitError struct {
	Code int
}

// Error is empty so process.Fatal prints nothing.
func (e *ExitError) Error() string { return "" }

// ExitCode returns the exit code.
func (e *ExitError) ExitCode() int { return e.Code }
