// SPDX-License-Identifier: MPL-2.0

package builtin

import (
	"context"

	"github.com/u-root/u-root/pkg/core"
	"github.com/u-root/u-root/pkg/core/cat"
	"github.com/u-root/u-root/pkg/core/cp"
	"github.com/u-root/u-root/pkg/core/mkdir"
	"github.com/u-root/u-root/pkg/core/mv"
	"github.com/u-root/u-root/pkg/core/rm"
	"github.com/u-root/u-root/pkg/core/touch"
)

// coreCommand adapts a u-root pkg/core constructor to Command.
// A fresh core.Command is built per invocation since they carry I/O state.
type coreCommand struct {
	name   string
	create func() core.Command
}

func init() {
	for _, c := range []*coreCommand{
		{name: "cat", create: func() core.Command { return cat.New() }},
		{name: "cp", create: func() core.Command { return cp.New() }},
		{name: "mkdir", create: func() core.Command { return mkdir.New() }},
		{name: "mv", create: func() core.Command { return mv.New() }},
		{name: "rm", create: func() core.Command { return rm.New() }},
		{name: "touch", create: func() core.Command { return touch.New() }},
	} {
		Default.Register(c)
	}
}

// Name returns the command name.
func (c *coreCommand) Name() string {
	return c.name
}

// Run wires the handler context into the u-root command and runs it.
func (c *coreCommand) Run(ctx context.Context, args []string) error {
	hc := GetHandlerContext(ctx)

	cmd := c.create()
	cmd.SetIO(hc.Stdin, hc.Stdout, hc.Stderr)
	cmd.SetWorkingDir(hc.Dir)
	cmd.SetLookupEnv(hc.LookupEnv)

	var cmdArgs []string
	if len(args) > 1 {
		cmdArgs = args[1:]
	}
	return cmd.RunContext(ctx, cmdArgs...)
}
