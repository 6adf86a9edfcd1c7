// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// ExitError signals a non-zero exit code without printing an extra
// error message. mould-call returns one when a request failed: the
// failure has already been written to stderr.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// ExitCode returns the exit code.
func (e *ExitError) ExitCode() int {
	return e.Code
}

// ExitCode maps a run error to a process exit code, printing the error
// to stderr unless it carries its own exit code.
func ExitCode(err error, stderr io.Writer, binary string) int {
	if err == nil {
		return 0
	}
	var coded interface{ ExitCode() int }
	if errors.As(err, &coded) {
		return coded.ExitCode()
	}
	fmt.Fprintf(stderr, "%s: %v\n", binary, err)
	return 1
}

// Exit terminates the process with the exit code for err.
func Exit(err error, binary string) {
	os.Exit(ExitCode(err, os.Stderr, binary))
}
