// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

// Issue identifiers, starting at 1 so the zero value never names an issue.
const (
	ModuleNotBuiltId Id = iota + 1
	ScriptErrorsId
	NoRunspaceId
	SettingsLoadFailedId
)

type (
	// Id identifies an issue in the catalog.
	Id int

	// MarkdownMsg is the Markdown body rendered for an issue.
	MarkdownMsg string

	// HttpLink is a reference shown under "See also".
	HttpLink string

	// Issue is a catalog entry with a Markdown explanation.
	Issue struct {
		id       Id
		mdMsg    MarkdownMsg
		docLinks []HttpLink
	}
)

var (
	render = glamour.Render

	moduleNotBuiltIssue = &Issue{
		id: ModuleNotBuiltId,
		mdMsg: `
# The module could not be loaded!

The session was configured with a module, but sourcing it into the new
runspace failed.

## Things you can try:
- Make sure the module has been built and exists at the configured path
- Check the ` + "`shell.module`" + ` key in your settings file
- Source the module by hand to see the full error:
~~~
$ shtest run --module ./path/to/module.sh true
~~~`,
		docLinks: []HttpLink{"https://pkg.go.dev/mvdan.cc/sh/v3/interp"},
	}

	scriptErrorsIssue = &Issue{
		id: ScriptErrorsId,
		mdMsg: `
# The script reported errors!

Every line written to stderr and any non-zero final exit status is an
error record. Results produced before the failure are still printed.

## Things you can try:
- Run with verbose mode to see the full script:
~~~
$ shtest --verbose run 'your command'
~~~
- Redirect expected diagnostics away from stderr (` + "`2>/dev/null`" + `)`,
	}

	noRunspaceIssue = &Issue{
		id: NoRunspaceId,
		mdMsg: `
# No runspace is open!

Variables can only be read, and commands run in place, after a call to
Execute has opened a runspace.`,
	}

	settingsLoadFailedIssue = &Issue{
		id: SettingsLoadFailedId,
		mdMsg: `
# Failed to load settings!

## Things you can try:
- Check that the file exists and contains valid CUE, YAML, JSON or TOML
- Show what was loaded:
~~~
$ shtest config show --settings ./shtest.cue
~~~`,
	}

	catalog = []*Issue{
		moduleNotBuiltIssue,
		scriptErrorsIssue,
		noRunspaceIssue,
		settingsLoadFailedIssue,
	}
)

// Id returns the issue identifier.
func (i *Issue) Id() Id {
	return i.id
}

// MarkdownMsg returns the raw Markdown body.
func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

// DocLinks returns a copy of the documentation links.
func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

// Render renders the issue with glamour using the given style ("dark", "light", "notty", ...).
func (i *Issue) Render(stylePath string) (string, error) {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 {
		md.WriteString("\n\n## See also:\n")
		for _, link := range i.docLinks {
			md.WriteString("- [" + string(link) + "](" + string(link) + ")\n")
		}
	}
	return render(md.String(), stylePath)
}

// Values returns all catalog entries ordered by Id.
func Values() []*Issue {
	return slices.Clone(catalog)
}

// Get returns the issue with the given Id, or nil.
func Get(id Id) *Issue {
	for _, i := range catalog {
		if i.id == id {
			return i
		}
	}
	return nil
}
