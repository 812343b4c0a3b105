// SPDX-License-Identifier: MPL-2.0

package fixture

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/invowk/shtest/internal/testutil"
	"github.com/invowk/shtest/pkg/shell"
	"github.com/invowk/shtest/pkg/tempfile"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type (
	// recordingT captures failures instead of failing the real test.
	recordingT struct {
		testing.TB
		failures []string
	}

	// suite overrides the hooks and chains to the embedded fixture.
	suite struct {
		*Fixture
		calls []string
	}

	// stuckFS refuses to remove anything.
	stuckFS struct {
		billy.Filesystem
	}
)

func (r *recordingT) Errorf(format string, args ...any) {
	r.failures = append(r.failures, fmt.Sprintf(format, args...))
}

func (s *suite) SetUp() {
	s.calls = append(s.calls, "setup")
	s.Fixture.SetUp()
}

func (s *suite) TearDown() {
	s.calls = append(s.calls, "teardown")
	s.Fixture.TearDown()
}

func (stuckFS) Remove(string) error {
	return errors.New("device busy")
}

// isolated builds a fixture that ignores any settings file or SHTEST_
// variables around the test.
func isolated(t testing.TB, opts ...Option) *Fixture {
	dir := t.TempDir()
	base := []Option{WithSettings("none"), WithSettingsDirs(dir)}
	return New(t, append(base, opts...)...)
}

func TestFixture_IsLazy(t *testing.T) {
	t.Parallel()

	f := isolated(t)
	f.SetUp()
	f.TearDown()

	if f.shell != nil || f.temp != nil || f.settings != nil {
		t.Error("SetUp/TearDown must not create the shell, temp files or settings")
	}

	if f.TempFiles() != f.TempFiles() {
		t.Error("TempFiles() should return the same manager every time")
	}
	if f.Shell() != f.Shell() {
		t.Error("Shell() should return the same session every time")
	}
	if f.T() != t {
		t.Error("T() should return the bound test")
	}
}

func TestSetup_RunsHooksAroundTest(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "scratch.txt")
	var s *suite

	t.Run("inner", func(t *testing.T) {
		s = &suite{Fixture: isolated(t)}
		Setup(t, s)

		require.NoError(t, s.TempFiles().CreateTempFile(path, "scratch"))
		assert.Equal(t, []string{"setup"}, s.calls)
	})

	assert.Equal(t, []string{"setup", "teardown"}, s.calls)
	_, err := os.Stat(path)
	assert.ErrorIs(t, err, os.ErrNotExist, "temp file should be removed by TearDown")
}

func TestFixture_TearDownReportsCleanupFailures(t *testing.T) {
	t.Parallel()

	rt := &recordingT{TB: t}
	f := isolated(rt, WithTempFileOptions(tempfile.WithFilesystem(stuckFS{memfs.New()})))
	f.TempFiles().RegisterTempFile("/stuck")

	f.TearDown()

	require.Len(t, rt.failures, 1)
	assert.Contains(t, rt.failures[0], "device busy")
}

func TestFixture_AssertExecutionEquals(t *testing.T) {
	t.Parallel()

	f := isolated(t)
	f.Shell().SetPreExecutionCommands("echo 1", "echo 2")
	f.Shell().SetPostExecutionCommands("echo 4", "echo 5")

	assert.True(t, f.AssertExecutionEquals([]string{"1", "2", "3", "4", "5"}, "echo 3"))

	rt := &recordingT{TB: t}
	g := isolated(rt)
	assert.False(t, g.AssertExecutionEquals([]string{"a"}, "echo b"))
	assert.False(t, g.AssertExecutionEquals(nil, "echo oops >&2"))
	assert.True(t, g.AssertExecutionEquals(nil, "true"))
	assert.True(t, g.AssertExecutionEquals([]string{""}, `echo ""`))
	assert.Len(t, rt.failures, 2)
}

func TestFixture_AssertVariableEquals(t *testing.T) {
	t.Parallel()

	f := isolated(t)
	f.Execute("greeting=hello", "declare -a list=(x y)")

	assert.True(t, f.AssertVariableEquals("greeting", "hello"))
	assert.True(t, f.AssertVariableEquals("list", []string{"x", "y"}))

	rt := &recordingT{TB: t}
	g := isolated(rt)
	assert.False(t, g.AssertVariableEquals("greeting", "hello"), "no runspace yet")
	g.Execute("greeting=hi")
	assert.False(t, g.AssertVariableEquals("greeting", "hello"))
	assert.Len(t, rt.failures, 2)
}

func TestFixture_SessionFromSettings(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	lib := "greet() { echo \"hello $1\"; }\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lib.sh"), []byte(lib), 0o644))
	cfg := "shell:\n  module: lib.sh\n  dir: .\n  builtins: true\nlog:\n  level: error\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "suite.yaml"), []byte(cfg), 0o644))

	f := New(t, WithSettings("suite"), WithSettingsDirs(dir))
	assert.Equal(t, filepath.Join(dir, "lib.sh"), f.Shell().ModulePath())

	res := f.Execute("greet world", "touch made-by-builtin", "pwd")
	assert.Equal(t, []string{"hello world", dir}, res.Values)
	_, err := os.Stat(filepath.Join(dir, "made-by-builtin"))
	assert.NoError(t, err)
}

func TestFixture_SessionOptionsOverrideSettings(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	other := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "suite.toml"), []byte("[shell]\ndir = \"/\"\n"), 0o644))

	f := New(t,
		WithSettings(filepath.Join(dir, "suite.toml")),
		WithSessionOptions(shell.WithDir(other)),
	)
	assert.Equal(t, []string{other}, f.Execute("pwd").Values)
}

func TestSetup_TearDownAfterChdir(t *testing.T) { //nolint:paralleltest // changes the working directory
	dir := t.TempDir()
	file := filepath.Join(dir, "report.txt")

	t.Run("test", func(t *testing.T) {
		f := isolated(t)
		Setup(t, f)
		testutil.MustChdir(t, dir)

		require.NoError(t, f.TempFiles().CreateTempFile("report.txt", "ok"))
		require.FileExists(t, file)
	})

	assert.NoFileExists(t, file)
}
