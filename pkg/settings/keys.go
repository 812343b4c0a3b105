// SPDX-License-Identifier: MPL-2.0

package settings

// Well-known keys.
const (
	// KeyShellModule is the path of a script sourced into every runspace.
	KeyShellModule = "shell.module"
	// KeyShellDir is the initial working directory of runspaces.
	KeyShellDir = "shell.dir"
	// KeyShellBuiltins enables the portable core utilities inside runspaces.
	KeyShellBuiltins = "shell.builtins"
	// KeyLogLevel is the log level of the session logger.
	KeyLogLevel = "log.level"
	// KeyHarnessInsecureSkipVerify disables TLS certificate validation process-wide.
	KeyHarnessInsecureSkipVerify = "harness.insecure_skip_verify"
)

// DefaultEnvPrefix is the environment variable prefix for overrides.
const DefaultEnvPrefix = "SHTEST"

// extensions lists the file extensions tried, in order, when resolving a bare name.
var extensions = []string{".cue", ".yaml", ".yml", ".json", ".toml"}
