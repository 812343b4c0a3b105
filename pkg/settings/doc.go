// SPDX-License-Identifier: MPL-2.0

// Package settings is a read-only key/value accessor for test configuration.
//
// Settings are read from a single file identified by name. CUE files are validated
// against an embedded schema and merged into Viper; YAML, JSON and TOML files are
// read by Viper directly. Every key can be overridden from the environment with the
// SHTEST_ prefix, where dots in the key become underscores (shell.module is
// SHTEST_SHELL_MODULE).
package settings
