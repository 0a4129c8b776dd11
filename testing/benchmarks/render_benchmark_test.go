// Package benchmarks provides performance benchmarks for relq.
package benchmarks

import (
	"testing"

	"github.com/zoobzio/dbml"

	"github.com/zoobzio/relq"
	"github.com/zoobzio/relq/catalog"
	"github.com/zoobzio/relq/expr"
	"github.com/zoobzio/relq/queryable"
)

type Customer struct {
	Id        string
	FirstName string
	LastName  string
	Balance   int
}

func createBenchmarkSession(b *testing.B) *relq.Session {
	b.Helper()

	project := dbml.NewProject("bench")

	customers := dbml.NewTable("Customer")
	customers.AddColumn(dbml.NewColumn("Id", "nvarchar"))
	customers.AddColumn(dbml.NewColumn("FirstName", "nvarchar"))
	customers.AddColumn(dbml.NewColumn("LastName", "nvarchar"))
	customers.AddColumn(dbml.NewColumn("Balance", "int"))
	customers.AddColumn(dbml.NewColumn("JSON", "nvarchar"))
	project.AddTable(customers)

	orders := dbml.NewTable("Order")
	orders.AddColumn(dbml.NewColumn("Id", "nvarchar"))
	orders.AddColumn(dbml.NewColumn("CustomerId", "nvarchar"))
	orders.AddColumn(dbml.NewColumn("Total", "decimal"))
	orders.AddColumn(dbml.NewColumn("JSON", "nvarchar"))
	project.AddTable(orders)

	cat, err := catalog.FromDBML(project, catalog.WithKey("Id", 50))
	if err != nil {
		b.Fatalf("Failed to create catalog: %v", err)
	}
	return relq.NewSession(nil, relq.WithCatalog(cat))
}

func run(b *testing.B, render func() (*relq.Command, error)) {
	b.Helper()
	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if _, err := render(); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkSimpleSelect measures a bare table select.
func BenchmarkSimpleSelect(b *testing.B) {
	s := createBenchmarkSession(b)
	run(b, s.Query("Customer").Render)
}

// BenchmarkSelectWithWhere measures a keyed lookup.
func BenchmarkSelectWithWhere(b *testing.B) {
	s := createBenchmarkSession(b)
	run(b, s.Query("Customer").WhereOp("Id", relq.Equal, "customers-1").Render)
}

// BenchmarkSelectWithIn measures an IN list of 100 values.
func BenchmarkSelectWithIn(b *testing.B) {
	s := createBenchmarkSession(b)
	ids := make([]any, 100)
	for i := range ids {
		ids[i] = i
	}
	run(b, s.Query("Customer").WhereOp("Balance", relq.In, ids...).Render)
}

// BenchmarkSelectWithJoin measures a two-way aliased join.
func BenchmarkSelectWithJoin(b *testing.B) {
	s := createBenchmarkSession(b)
	q := s.Query("Customer").Alias("c").
		Join(s.Query("Order").Alias("o"), relq.InnerJoin).
		On("Id", relq.Equal, "CustomerId")
	run(b, q.Render)
}

// BenchmarkUnion measures a two-member union.
func BenchmarkUnion(b *testing.B) {
	s := createBenchmarkSession(b)
	q := s.Query("Customer").WhereOp("Balance", relq.GreaterThan, 100).
		Union(s.Query("Customer").WhereOp("LastName", relq.StartsWith, "A"))
	run(b, q.Render)
}

// BenchmarkSkipTake measures OFFSET ... FETCH paging.
func BenchmarkSkipTake(b *testing.B) {
	s := createBenchmarkSession(b)
	run(b, s.Query("Customer").OrderBy("LastName").Skip(20).Take(10).Render)
}

// BenchmarkCount measures count rendering.
func BenchmarkCount(b *testing.B) {
	s := createBenchmarkSession(b)
	run(b, s.Query("Customer").WhereOp("Balance", relq.GreaterThan, 0).RenderCount)
}

// BenchmarkPage measures ROW_NUMBER paging.
func BenchmarkPage(b *testing.B) {
	s := createBenchmarkSession(b)
	q := s.Query("Customer").OrderBy("LastName")
	run(b, func() (*relq.Command, error) { return q.RenderPage(100, 25) })
}

// BenchmarkDelete measures delete rendering.
func BenchmarkDelete(b *testing.B) {
	s := createBenchmarkSession(b)
	run(b, s.Query("Customer").WhereOp("Id", relq.Equal, "customers-1").RenderDelete)
}

// BenchmarkQueryableTranslate measures expression translation and rendering.
func BenchmarkQueryableTranslate(b *testing.B) {
	s := createBenchmarkSession(b)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_, err := queryable.New[Customer](s).
			Where(expr.AndAll(
				expr.Equal(expr.M("LastName"), "Smith"),
				expr.Greater(expr.M("Balance"), 10),
			)).
			OrderBy(expr.M("FirstName")).
			Take(10).
			Render()
		if err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkBuilderCreation measures builder construction alone.
func BenchmarkBuilderCreation(b *testing.B) {
	s := createBenchmarkSession(b)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_ = s.Query("Customer").WhereOp("Id", relq.Equal, "customers-1").OrderBy("LastName")
	}
}
