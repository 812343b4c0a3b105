// SPDX-License-Identifier: MPL-2.0

package shell

import (
	"context"
	"errors"
	"slices"
	"testing"
)

func TestRunspace_InvokeKeepsState(t *testing.T) {
	t.Parallel()

	rs, err := OpenRunspace(RunspaceOptions{Env: []string{"START=1"}})
	if err != nil {
		t.Fatalf("OpenRunspace() error = %v", err)
	}
	ctx := context.Background()

	if _, err := rs.Invoke(ctx, "NEXT=$((START+1))"); err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	res, err := rs.Invoke(ctx, "echo $NEXT")
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if !slices.Equal(res.Values, []string{"2"}) {
		t.Errorf("Values = %v, want [2]", res.Values)
	}

	v, ok, err := rs.Variable("NEXT")
	if err != nil || !ok || v.Str != "2" {
		t.Errorf("Variable(NEXT) = %+v, %v, %v", v, ok, err)
	}
	if _, ok, _ := rs.Variable("NOPE"); ok {
		t.Error("Variable(NOPE) should not be set")
	}
}

func TestRunspace_UniqueIDs(t *testing.T) {
	t.Parallel()

	a, err := OpenRunspace(RunspaceOptions{})
	if err != nil {
		t.Fatal(err)
	}
	b, err := OpenRunspace(RunspaceOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if a.ID() == b.ID() {
		t.Errorf("IDs should differ, both %d", a.ID())
	}
}

func TestRunspace_Closed(t *testing.T) {
	t.Parallel()

	rs, err := OpenRunspace(RunspaceOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if err := rs.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := rs.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
	if !rs.Closed() {
		t.Error("Closed() = false after Close")
	}
	if _, err := rs.Invoke(context.Background(), "true"); !errors.Is(err, ErrRunspaceClosed) {
		t.Errorf("Invoke() error = %v, want ErrRunspaceClosed", err)
	}
	if _, err := rs.Value("X"); !errors.Is(err, ErrRunspaceClosed) {
		t.Errorf("Value() error = %v, want ErrRunspaceClosed", err)
	}
	if rs.Dir() != "" {
		t.Errorf("Dir() = %q after Close, want empty", rs.Dir())
	}
}

func TestRunspace_InvocationsAreIndependent(t *testing.T) {
	t.Parallel()

	rs, err := OpenRunspace(RunspaceOptions{})
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	first, err := rs.Invoke(ctx, "echo a; echo bad >&2")
	if err != nil {
		t.Fatal(err)
	}
	second, err := rs.Invoke(ctx, "echo b")
	if err != nil {
		t.Fatal(err)
	}

	if len(first.Errors) != 1 || len(second.Errors) != 0 {
		t.Errorf("errors leaked between invocations: %v / %v", first.Errors, second.Errors)
	}
	if !slices.Equal(second.Values, []string{"b"}) {
		t.Errorf("second Values = %v, want [b]", second.Values)
	}
}
