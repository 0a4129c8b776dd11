// Package testing provides test utilities for relq.
package testing

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/zoobzio/dbml"

	"github.com/zoobzio/relq"
	"github.com/zoobzio/relq/catalog"
)

// KeyLength is the declared length of every Id column in TestCatalog.
const KeyLength = 50

// TestProject describes the tables behind TestCatalog.
func TestProject() *dbml.Project {
	project := dbml.NewProject("test")

	customers := dbml.NewTable("Customer")
	customers.AddColumn(dbml.NewColumn("Id", "nvarchar"))
	customers.AddColumn(dbml.NewColumn("Name", "nvarchar"))
	customers.AddColumn(dbml.NewColumn("Region", "varchar"))
	customers.AddColumn(dbml.NewColumn("Age", "int"))
	customers.AddColumn(dbml.NewColumn("JSON", "nvarchar"))
	project.AddTable(customers)

	orders := dbml.NewTable("Order")
	orders.AddColumn(dbml.NewColumn("Id", "nvarchar"))
	orders.AddColumn(dbml.NewColumn("CustomerId", "nvarchar"))
	orders.AddColumn(dbml.NewColumn("Total", "decimal"))
	orders.AddColumn(dbml.NewColumn("State", "nvarchar"))
	orders.AddColumn(dbml.NewColumn("Created", "datetimeoffset"))
	orders.AddColumn(dbml.NewColumn("JSON", "nvarchar"))
	project.AddTable(orders)

	machines := dbml.NewTable("Machine")
	machines.AddColumn(dbml.NewColumn("Id", "nvarchar"))
	machines.AddColumn(dbml.NewColumn("Name", "nvarchar"))
	machines.AddColumn(dbml.NewColumn("Kind", "nvarchar"))
	machines.AddColumn(dbml.NewColumn("EnvironmentIds", "nvarchar"))
	machines.AddColumn(dbml.NewColumn("JSON", "nvarchar"))
	project.AddTable(machines)

	return project
}

// TestCatalog builds a catalog of Customer, Order and Machine with a unique
// Id key of KeyLength.
func TestCatalog(t *testing.T) *catalog.Static {
	t.Helper()
	cat, err := catalog.FromDBML(TestProject(),
		catalog.WithKey("Id", KeyLength),
		catalog.WithLength("Customer", "Name", 200),
		catalog.WithLength("Customer", "Region", 10),
	)
	if err != nil {
		t.Fatalf("Failed to create test catalog: %v", err)
	}
	return cat
}

// TestSession creates a session over TestCatalog executing through exec,
// which may be nil for render-only tests.
func TestSession(t *testing.T, exec relq.Executor, opts ...relq.Option) *relq.Session {
	t.Helper()
	base := []relq.Option{relq.WithCatalog(TestCatalog(t))}
	return relq.NewSession(exec, append(base, opts...)...)
}

// Recorder is an Executor that records commands and replays canned results.
type Recorder struct {
	mu       sync.Mutex
	commands []relq.Command

	Rows     []relq.Record
	Value    any
	Affected int64
	Err      error
}

var _ relq.Executor = (*Recorder)(nil)

func (r *Recorder) record(cmd relq.Command) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = append(r.commands, cmd)
}

// Query implements relq.Executor.
func (r *Recorder) Query(_ context.Context, cmd relq.Command) ([]relq.Record, error) {
	r.record(cmd)
	return r.Rows, r.Err
}

// Scalar implements relq.Executor.
func (r *Recorder) Scalar(_ context.Context, cmd relq.Command) (any, error) {
	r.record(cmd)
	return r.Value, r.Err
}

// NonQuery implements relq.Executor.
func (r *Recorder) NonQuery(_ context.Context, cmd relq.Command) (int64, error) {
	r.record(cmd)
	return r.Affected, r.Err
}

// Commands returns every command executed so far.
func (r *Recorder) Commands() []relq.Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]relq.Command, len(r.commands))
	copy(out, r.commands)
	return out
}

// Last returns the most recent command, failing the test if there is none.
func (r *Recorder) Last(t *testing.T) relq.Command {
	t.Helper()
	cmds := r.Commands()
	if len(cmds) == 0 {
		t.Fatal("no command was executed")
	}
	return cmds[len(cmds)-1]
}

// AssertSQL compares expected and actual SQL, reporting detailed differences.
func AssertSQL(t *testing.T, expected, actual string) {
	t.Helper()
	if expected != actual {
		t.Errorf("SQL mismatch:\nExpected: %s\nActual:   %s", expected, actual)
	}
}

// ParamNames lists the parameter names of cmd in binding order.
func ParamNames(cmd *relq.Command) []string {
	names := make([]string, len(cmd.Parameters))
	for i, p := range cmd.Parameters {
		names[i] = p.Name
	}
	return names
}

// AssertParams checks that the parameter names match expected, in any order.
func AssertParams(t *testing.T, expected, actual []string) {
	t.Helper()
	if len(expected) != len(actual) {
		t.Errorf("Param count mismatch: expected %d, got %d\nExpected: %v\nActual: %v",
			len(expected), len(actual), expected, actual)
		return
	}

	expectedMap := make(map[string]bool)
	for _, p := range expected {
		expectedMap[p] = true
	}

	for _, p := range actual {
		if !expectedMap[p] {
			t.Errorf("Unexpected param: %s\nExpected: %v\nActual: %v", p, expected, actual)
		}
	}
}

// AssertParam checks that cmd binds name to value.
func AssertParam(t *testing.T, cmd *relq.Command, name string, value any) {
	t.Helper()
	for _, p := range cmd.Parameters {
		if strings.EqualFold(p.Name, name) {
			if p.Value != value {
				t.Errorf("Param %s = %v, expected %v", name, p.Value, value)
			}
			return
		}
	}
	t.Errorf("Expected param %q not found in %v", name, ParamNames(cmd))
}

// AssertContainsParam checks that a specific param is in the list.
func AssertContainsParam(t *testing.T, params []string, param string) {
	t.Helper()
	for _, p := range params {
		if p == param {
			return
		}
	}
	t.Errorf("Expected param %q not found in %v", param, params)
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("Expected error but got nil")
	}
}

// AssertErrorContains checks that error message contains substr.
func AssertErrorContains(t *testing.T, err error, substr string) {
	t.Helper()
	if err == nil {
		t.Fatalf("Expected error containing %q but got nil", substr)
	}
	if !strings.Contains(err.Error(), substr) {
		t.Errorf("Expected error containing %q, got: %v", substr, err)
	}
}

// AssertPanics verifies that a function panics.
func AssertPanics(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic but function completed normally")
		}
	}()
	fn()
}
