// Copyright 2021 The ajax Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package transient classifies request errors as transient or
// non-transient. This is handy for collaborators that regenerate failed
// requests, and for other purposes such as bucketing error metrics.
//
// Package transient depends only on the standard library packages
// "context", "errors" and "syscall", so it doesn't bring any significant
// dependencies when imported as a standalone package.
package transient
