// SPDX-License-Identifier: MPL-2.0

// Command shtest runs shell snippets the way shell-driven tests do.
package main

import cmd "github.com/invowk/shtest/cmd/shtest"

func main() {
	cmd.Execute()
}
