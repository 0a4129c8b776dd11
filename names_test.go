package relq_test

import (
	"reflect"
	"sync"
	"testing"

	"github.com/zoobzio/relq"
)

func TestAliasGenerator(t *testing.T) {
	g := relq.NewAliasGenerator("")
	if got := []string{g.Next(), g.Next(), g.Next()}; !reflect.DeepEqual(got, []string{"t1", "t2", "t3"}) {
		t.Errorf("Next() = %v", got)
	}

	q := relq.NewAliasGenerator("q")
	if got := q.Next(); got != "q1" {
		t.Errorf("Next() = %s", got)
	}
}

func TestAliasGenerator_Concurrent(t *testing.T) {
	g := relq.NewAliasGenerator("t")
	var mu sync.Mutex
	seen := make(map[string]bool)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			alias := g.Next()
			mu.Lock()
			defer mu.Unlock()
			if seen[alias] {
				t.Errorf("duplicate alias %s", alias)
			}
			seen[alias] = true
		}()
	}
	wg.Wait()
	if len(seen) != 50 {
		t.Errorf("expected 50 aliases, got %d", len(seen))
	}
}

func TestWithAliasGenerator_Shared(t *testing.T) {
	g := relq.NewAliasGenerator("t")
	a := relq.NewSession(nil, relq.WithAliasGenerator(g))
	b := relq.NewSession(nil, relq.WithAliasGenerator(g))

	if a.NextAlias() != "t1" || b.NextAlias() != "t2" {
		t.Error("sessions should share the generator")
	}
}

func TestColumnNames(t *testing.T) {
	cols := []relq.Column{{Name: "Id"}, {Name: "json"}, {Name: "Name"}}
	if got := relq.ColumnNames(cols, "JSON"); !reflect.DeepEqual(got, []string{"Id", "Name", "json"}) {
		t.Errorf("ColumnNames() = %v", got)
	}
	if got := relq.ColumnNames(cols, ""); !reflect.DeepEqual(got, []string{"Id", "json", "Name"}) {
		t.Errorf("ColumnNames() = %v", got)
	}
}

func TestFindColumn(t *testing.T) {
	cols := testCatalog()["Customer"]
	c, ok := relq.FindColumn(cols, "name")
	if !ok || c.MaxLength != 200 {
		t.Errorf("FindColumn() = %+v, %v", c, ok)
	}
	if _, ok := relq.FindColumn(cols, "missing"); ok {
		t.Error("found missing column")
	}
}
