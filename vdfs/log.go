// Copyright 2024 The zengin Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vdfs

import (
	"log"
	"os"
)

// logger receives warnings about tolerated structural anomalies (a
// truncated or out-of-bounds catalog entry). Callers may replace it with
// SetLogger to route diagnostics elsewhere.
var logger = log.New(os.Stderr, "", log.LstdFlags)

// SetLogger redirects vdfs diagnostic output. Passing nil restores the
// default stderr logger.
func SetLogger(l *log.Logger) {
	if l == nil {
		logger = log.New(os.Stderr, "", log.LstdFlags)
		return
	}
	logger = l
}
