// SPDX-License-Identifier: MPL-2.0

// Package shell runs command sequences against an embedded shell interpreter
// (mvdan.cc/sh/v3) for use in tests.
//
// A Session owns at most one Runspace at a time. Every Execute call closes the
// previous runspace, opens a fresh one, optionally sources a module into it and
// runs the session's pre-execution commands, the caller's commands and the
// post-execution commands as a single script:
//
//	s := shell.NewSession(shell.WithModule("./build/lib.sh"))
//	s.SetPreExecutionCommands("connect")
//	s.SetPostExecutionCommands("disconnect")
//	res, err := s.Execute(ctx, "greet world")
//
// Each line the script writes to stdout is one result value. Each line written
// to stderr, a non-zero final exit status, a parse failure or an interpreter
// failure is an ErrorRecord. When any record is produced the call returns an
// *ExecutionError; the Result, LastResults and LastErrors are still populated.
package shell
