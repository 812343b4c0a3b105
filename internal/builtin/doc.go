// SPDX-License-Identifier: MPL-2.0

// Package builtin provides in-process core utilities for shtest runspaces.
//
// The utilities come from u-root's pkg/core (github.com/u-root/u-root) and are
// exposed to the embedded interpreter through an interp exec handler. When a
// runspace enables them, scripts can call cat, cp, mkdir, mv, rm and touch
// without those binaries being installed on the host. Commands that are not
// registered fall through to the next handler, which runs host binaries.
package builtin
