package relq_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/zoobzio/relq"
)

// mapCatalog is a fixed in-memory catalog.
type mapCatalog map[string][]relq.Column

func (c mapCatalog) Columns(table string) ([]relq.Column, bool) {
	for name, cols := range c {
		if strings.EqualFold(name, table) {
			return cols, true
		}
	}
	return nil, false
}

func testCatalog() mapCatalog {
	return mapCatalog{
		"Customer": {
			{Name: "Id", MaxLength: 50, Unique: true},
			{Name: "JSON"},
			{Name: "Name", MaxLength: 200},
			{Name: "Region", MaxLength: 10},
		},
		"Order": {
			{Name: "Id", MaxLength: 50, Unique: true},
			{Name: "CustomerId", MaxLength: 50},
			{Name: "Total"},
			{Name: "JSON"},
		},
	}
}

func newSession(opts ...relq.Option) *relq.Session {
	return relq.NewSession(nil, opts...)
}

func render(t *testing.T, b *relq.Builder) *relq.Command {
	t.Helper()
	cmd, err := b.Render()
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	return cmd
}

func assertSQL(t *testing.T, cmd *relq.Command, expected string) {
	t.Helper()
	if cmd.SQL != expected {
		t.Errorf("SQL mismatch\n got: %s\nwant: %s", cmd.SQL, expected)
	}
}

func assertParam(t *testing.T, cmd *relq.Command, name string, expected any) {
	t.Helper()
	for _, p := range cmd.Parameters {
		if strings.EqualFold(p.Name, name) {
			if p.Value != expected {
				t.Errorf("parameter %s = %v, want %v", name, p.Value, expected)
			}
			return
		}
	}
	t.Errorf("parameter %s not found in %v", name, cmd.Parameters)
}

func paramNames(cmd *relq.Command) []string {
	names := make([]string, len(cmd.Parameters))
	for i, p := range cmd.Parameters {
		names[i] = p.Name
	}
	return names
}

func assertErrorAs[T error](t *testing.T, err error) T {
	t.Helper()
	var target T
	if err == nil {
		t.Fatalf("expected %T, got nil", target)
	}
	if !errors.As(err, &target) {
		t.Fatalf("expected %T, got %T: %v", target, err, err)
	}
	return target
}

// fakeExecutor records commands and replays canned results.
type fakeExecutor struct {
	mu       sync.Mutex
	commands []relq.Command
	rows     []relq.Record
	scalar   any
	affected int64
	err      error
}

func (f *fakeExecutor) record(cmd relq.Command) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, cmd)
}

func (f *fakeExecutor) Query(_ context.Context, cmd relq.Command) ([]relq.Record, error) {
	f.record(cmd)
	return f.rows, f.err
}

func (f *fakeExecutor) Scalar(_ context.Context, cmd relq.Command) (any, error) {
	f.record(cmd)
	return f.scalar, f.err
}

func (f *fakeExecutor) NonQuery(_ context.Context, cmd relq.Command) (int64, error) {
	f.record(cmd)
	return f.affected, f.err
}

func (f *fakeExecutor) last(t *testing.T) relq.Command {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.commands) == 0 {
		t.Fatal("no command was executed")
	}
	return f.commands[len(f.commands)-1]
}
