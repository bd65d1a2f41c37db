// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// ExitCoder is implemented by errors that carry a process exit code.
type ExitCoder interface {
	ExitCode() int
}

// Fatal reports err and exits. An error implementing ExitCoder exits
// with its code; one that also prints nothing (an empty message) exits
// silently. Anything else prints "error: err" to stderr and exits 1.
// Use it in main() for errors from run() where the structured logger
// may not be initialized.
func Fatal(err error) {
	os.Exit(report(os.Stderr, err))
}

func report(w io.Writer, err error) int {
	code := 1
	var coder ExitCoder
	if errors.As(err, &coder) {
		code = coder.ExitCode()
	}
	if message := err.Error(); message != "" {
		fmt.Fprintf(w, "error: %s\n", message)
	}
	return code
}
