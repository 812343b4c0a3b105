// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/invowk/shtest/internal/testutil"
)

// execute runs the command tree in-process without fang.
func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	testutil.ClearEnvPrefix(t, "SHTEST_")
	testutil.MustChdir(t, t.TempDir())

	root := newRootCommand()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(""))
	root.SetArgs(args)

	err = root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

//nolint:paralleltest // commands share flag globals and change directory
func TestRun_PrePostOrdering(t *testing.T) {
	out, _, err := execute(t, "run", "--pre", "echo 1", "--pre", "echo 2", "--post", "echo 4", "echo 3")
	if err != nil {
		t.Fatalf("run error = %v", err)
	}
	if out != "1\n2\n3\n4\n" {
		t.Errorf("stdout = %q, want 1..4", out)
	}
}

//nolint:paralleltest // commands share flag globals and change directory
func TestRun_ErrorsExitOne(t *testing.T) {
	out, errOut, err := execute(t, "run", "echo partial", "echo oops >&2")

	var exitErr *ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != 1 {
		t.Fatalf("run error = %v, want exit code 1", err)
	}
	if out != "partial\n" {
		t.Errorf("stdout = %q, want the partial result", out)
	}
	if !strings.Contains(errOut, "oops") {
		t.Errorf("stderr = %q, want the error record", errOut)
	}
}

//nolint:paralleltest // commands share flag globals and change directory
func TestRun_Variables(t *testing.T) {
	out, _, err := execute(t, "run", "--pre", "x=1", "--var", "x", "--var", "missing", "x=$((x+1))")
	if err != nil {
		t.Fatalf("run error = %v", err)
	}
	if out != "x=2\nmissing=\n" {
		t.Errorf("stdout = %q", out)
	}
}

//nolint:paralleltest // commands share flag globals and change directory
func TestRun_ModuleNotBuilt(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.sh")
	_, errOut, err := execute(t, "run", "--module", missing, "true")

	var exitErr *ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != 1 {
		t.Fatalf("run error = %v, want exit code 1", err)
	}
	if !strings.Contains(errOut, "module could not be loaded") {
		t.Errorf("stderr = %q, want the module issue", errOut)
	}
}

//nolint:paralleltest // commands share flag globals and change directory
func TestConfigShow(t *testing.T) {
	path := testutil.MustWriteFile(t, filepath.Join(t.TempDir(), "s.yaml"), "shell:\n  builtins: true\n")

	out, _, err := execute(t, "config", "show", "--settings", path)
	if err != nil {
		t.Fatalf("config show error = %v", err)
	}
	for _, want := range []string{"Current Settings", path, "shell.builtins: true", "shell.module"} {
		if !strings.Contains(out, want) {
			t.Errorf("stdout = %q, missing %q", out, want)
		}
	}

	out, _, err = execute(t, "config", "show", "--settings", path, "--toml")
	if err != nil {
		t.Fatalf("config show --toml error = %v", err)
	}
	if !strings.Contains(out, "[shell]") || !strings.Contains(out, "builtins = true") {
		t.Errorf("toml output = %q", out)
	}
}

//nolint:paralleltest // commands share flag globals and change directory
func TestConfigShow_MissingFile(t *testing.T) {
	_, errOut, err := execute(t, "config", "show", "--settings", filepath.Join(t.TempDir(), "nope.cue"))

	var exitErr *ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != 2 {
		t.Fatalf("config show error = %v, want exit code 2", err)
	}
	if !strings.Contains(exitErr.Error(), "Verify the file path is correct") {
		t.Errorf("error = %q, want suggestions", exitErr.Error())
	}
	if !strings.Contains(errOut, "Failed to load settings") {
		t.Errorf("stderr = %q, want the settings issue", errOut)
	}
}
