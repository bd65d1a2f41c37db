// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
)

type codedError struct {
	code    int
	message string
}

func (e *codedError) Error() string { return e.message }
func (e *codedError) ExitCode() int { return e.code }

func TestReport(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantOut  string
	}{
		{"plain error", errors.New("socket closed"), 1, "error: socket closed\n"},
		{"coded silent", &codedError{code: 3}, 3, ""},
		{"coded wrapped", fmt.Errorf("ping: %w", &codedError{code: 2, message: "no reply"}), 2, "error: ping: no reply\n"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var out bytes.Buffer
			if code := report(&out, test.err); code != test.wantCode {
				t.Errorf("code = %d, want %d", code, test.wantCode)
			}
			if out.String() != test.wantOut {
				t.Errorf("output = %q, want %q", out.String(), test.wantOut)
			}
		})
	}
}
