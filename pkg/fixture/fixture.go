// SPDX-License-Identifier: MPL-2.0

package fixture

import (
	"testing"

	"github.com/invowk/shtest/pkg/settings"
	"github.com/invowk/shtest/pkg/shell"
	"github.com/invowk/shtest/pkg/tempfile"

	"github.com/stretchr/testify/assert"
)

// DefaultSettingsName is the settings file looked up when none is configured.
const DefaultSettingsName = "shtest"

type (
	// Hooks are the per-test lifecycle methods run by Setup.
	Hooks interface {
		SetUp()
		TearDown()
	}

	// Fixture is bound to a single test and is not safe for concurrent use.
	Fixture struct {
		t testing.TB

		settingsName string
		settingsOpts []settings.Option
		sessionOpts  []shell.Option
		tempOpts     []tempfile.Option

		settings *settings.Settings
		shell    *shell.Session
		temp     *tempfile.Manager
	}

	// Option configures a Fixture.
	Option func(*Fixture)
)

// WithSettings sets the settings name or path. See settings.Open.
func WithSettings(name string) Option {
	return func(f *Fixture) {
		f.settingsName = name
	}
}

// WithSettingsDirs sets where a bare settings name is searched.
func WithSettingsDirs(dirs ...string) Option {
	return func(f *Fixture) {
		f.settingsOpts = append(f.settingsOpts, settings.WithSearchDirs(dirs...))
	}
}

// WithSessionOptions are applied after the options derived from settings.
func WithSessionOptions(opts ...shell.Option) Option {
	return func(f *Fixture) {
		f.sessionOpts = append(f.sessionOpts, opts...)
	}
}

// WithTempFileOptions configures the temp-file manager.
func WithTempFileOptions(opts ...tempfile.Option) Option {
	return func(f *Fixture) {
		f.tempOpts = append(f.tempOpts, opts...)
	}
}

// New creates a fixture for t. Nothing is created until first use.
func New(t testing.TB, opts ...Option) *Fixture {
	f := &Fixture{t: t, settingsName: DefaultSettingsName}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Setup runs h.SetUp and schedules h.TearDown for the end of the test.
func Setup(t testing.TB, h Hooks) {
	t.Helper()
	h.SetUp()
	t.Cleanup(h.TearDown)
}

// T returns the test the fixture is bound to.
func (f *Fixture) T() testing.TB {
	return f.t
}

// SetUp prepares the temp-file manager if one has been created.
func (f *Fixture) SetUp() {
	if f.temp != nil {
		f.temp.SetUp()
	}
}

// TearDown removes registered temp files and closes the shell session, if
// they were ever created. Removal failures fail the test.
func (f *Fixture) TearDown() {
	f.t.Helper()

	if f.temp != nil {
		if err := f.temp.TearDown(); err != nil {
			f.t.Errorf("temp file cleanup: %v", err)
		}
	}
	if f.shell != nil {
		if err := f.shell.Close(); err != nil {
			f.t.Errorf("closing shell session: %v", err)
		}
	}
}

// Settings returns the settings accessor, opening it on first use.
func (f *Fixture) Settings() *settings.Settings {
	if f.settings == nil {
		f.settings = settings.Open(f.settingsName, f.settingsOpts...)
	}
	return f.settings
}

// TempFiles returns the temp-file manager, creating it on first use.
func (f *Fixture) TempFiles() *tempfile.Manager {
	if f.temp == nil {
		f.temp = tempfile.NewManager(f.tempOpts...)
	}
	return f.temp
}

// Shell returns the shell session, creating it on first use. A settings
// file that fails to load fails the test.
func (f *Fixture) Shell() *shell.Session {
	if f.shell != nil {
		return f.shell
	}
	f.t.Helper()

	s := f.Settings()
	if err := s.Load(f.t.Context()); err != nil {
		f.t.Fatalf("loading settings: %v", err)
	}

	opts, err := shell.OptionsFromSettings(s)
	if err != nil {
		f.t.Fatalf("reading shell settings: %v", err)
	}
	opts = append(opts, f.sessionOpts...)
	f.shell = shell.NewSession(opts...)
	return f.shell
}

// Execute runs cmds in a fresh runspace and fails the test on any error.
func (f *Fixture) Execute(cmds ...string) *shell.Result {
	f.t.Helper()

	res, err := f.Shell().Execute(f.t.Context(), cmds...)
	if err != nil {
		f.t.Fatalf("Execute(%q) error = %v", cmds, err)
	}
	return res
}

// AssertVariableEquals asserts that variable name in the current runspace
// holds want.
func (f *Fixture) AssertVariableEquals(name string, want any) bool {
	f.t.Helper()

	got, err := f.Shell().GetVariableValue(name)
	if !assert.NoError(f.t, err, "reading variable %s", name) {
		return false
	}
	return assert.Equal(f.t, want, got, "variable %s", name)
}

// AssertExecutionEquals executes cmds and asserts the produced values equal
// want. An execution error is reported as an assertion failure.
func (f *Fixture) AssertExecutionEquals(want []string, cmds ...string) bool {
	f.t.Helper()

	res, err := f.Shell().Execute(f.t.Context(), cmds...)
	if !assert.NoError(f.t, err, "executing %q", cmds) {
		return false
	}
	if want == nil {
		want = []string{}
	}
	return assert.Equal(f.t, want, res.Values, "values of %q", cmds)
}
