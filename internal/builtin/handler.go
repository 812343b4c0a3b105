// SPDX-License-Identifier: MPL-2.0

package builtin

import (
	"context"
	"fmt"
	"io"

	"mvdan.cc/sh/v3/interp"
)

type (
	// HandlerContext is the part of interp.HandlerContext a Command needs.
	HandlerContext struct {
		Stdin     io.Reader
		Stdout    io.Writer
		Stderr    io.Writer
		Dir       string
		LookupEnv func(string) (string, bool)
	}

	handlerContextKey struct{}
)

// WithHandlerContext stores hc in ctx. Used to run commands outside an interpreter.
func WithHandlerContext(ctx context.Context, hc *HandlerContext) context.Context {
	return context.WithValue(ctx, handlerContextKey{}, hc)
}

// GetHandlerContext returns the HandlerContext stored by WithHandlerContext,
// or the one derived from the interpreter's handler context.
func GetHandlerContext(ctx context.Context) *HandlerContext {
	if hc, ok := ctx.Value(handlerContextKey{}).(*HandlerContext); ok {
		return hc
	}
	hc := interp.HandlerCtx(ctx)
	return &HandlerContext{
		Stdin:  hc.Stdin,
		Stdout: hc.Stdout,
		Stderr: hc.Stderr,
		Dir:    hc.Dir,
		LookupEnv: func(name string) (string, bool) {
			v := hc.Env.Get(name)
			return v.Str, v.Set
		},
	}
}

// ExecHandler returns interp middleware that runs commands registered in reg
// and passes everything else to next.
//
// A failing command prints "<name>: <error>" to stderr and exits with status 1,
// the same way a host utility would, so the failure does not abort the script.
func ExecHandler(reg *Registry) func(next interp.ExecHandlerFunc) interp.ExecHandlerFunc {
	return func(next interp.ExecHandlerFunc) interp.ExecHandlerFunc {
		return func(ctx context.Context, args []string) error {
			if len(args) == 0 {
				return next(ctx, args)
			}
			cmd, ok := reg.Lookup(args[0])
			if !ok {
				return next(ctx, args)
			}
			if err := cmd.Run(ctx, args); err != nil {
				fmt.Fprintf(GetHandlerContext(ctx).Stderr, "%s: %v\n", args[0], err)
				return interp.ExitStatus(1)
			}
			return nil
		}
	}
}
