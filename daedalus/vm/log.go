// Copyright 2024 The zengin Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vm

import (
	"io"
	"os"
)

// errWriter receives a failing Call's error message and stack trace
// dump. Callers may redirect it with
// SetOutput.
var errWriter io.Writer = os.Stderr

// SetOutput redirects the VM's diagnostic output. Passing nil restores
// the default of os.Stderr.
func SetOutput(w io.Writer) {
	if w == nil {
		errWriter = os.Stderr
		return
	}
	errWriter = w
}
