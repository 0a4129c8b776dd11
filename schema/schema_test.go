package schema_test

import (
	"encoding/json"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/zoobzio/relq"
	"github.com/zoobzio/relq/schema"
)

func render(t *testing.T, doc string, params map[string]any) *relq.Command {
	t.Helper()
	q, err := schema.Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	cmd, err := schema.Render(relq.NewSession(nil), q, params)
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

func TestBuildFromSchema(t *testing.T) {
	t.Run("Select from YAML", func(t *testing.T) {
		cmd := render(t, `
operation: select
table: Customer
alias: c
fields: [Id, Name]
where:
  - field: Region
    operator: "="
    param: region
order_by:
  - field: Name
take: 10
`, map[string]any{"region": "EU"})

		assertSQL(t, cmd, "SELECT TOP 10 c.[Id], c.[Name] FROM dbo.[Customer] c WHERE (c.[Region] = @region) ORDER BY c.[Name]")
		if len(cmd.Parameters) != 1 || cmd.Parameters[0].Value != "EU" {
			t.Errorf("unexpected parameters %v", cmd.Parameters)
		}
	})

	t.Run("Count from JSON", func(t *testing.T) {
		cmd := render(t, `{"operation": "count", "table": "Customer", "where": [{"field": "Age", "operator": ">", "value": 18}]}`, nil)
		assertSQL(t, cmd, "SELECT COUNT(*) FROM dbo.[Customer] WHERE ([Age] > @age)")
	})

	t.Run("Exists", func(t *testing.T) {
		cmd := render(t, `
operation: exists
table: Customer
where:
  - field: Name
    operator: starts with
    value: Al
`, nil)
		assertSQL(t, cmd, "SELECT CASE WHEN EXISTS (SELECT * FROM dbo.[Customer] WHERE ([Name] LIKE @name)) THEN 1 ELSE 0 END")
		if cmd.Parameters[0].Value != "Al%" {
			t.Errorf("expected Al%%, got %v", cmd.Parameters[0].Value)
		}
	})

	t.Run("Join", func(t *testing.T) {
		cmd := render(t, `
table: Customer
alias: c
joins:
  - type: inner
    table: Order
    alias: o
    on:
      - left: Id
        right: CustomerId
order_by:
  - field: o.Total
    direction: DESC
`, nil)
		assertSQL(t, cmd, "SELECT c.* FROM dbo.[Customer] c INNER JOIN dbo.[Order] o ON c.[Id] = o.[CustomerId] ORDER BY o.[Total] DESC")
	})

	t.Run("In from parameter", func(t *testing.T) {
		cmd := render(t, `
table: Book
where:
  - field: Id
    operator: in
    param: ids
`, map[string]any{"ids": []string{"b-1", "b-2"}})
		assertSQL(t, cmd, "SELECT * FROM dbo.[Book] WHERE ([Id] IN (@id0, @id1)) ORDER BY [Id]")
	})

	t.Run("Between literal values", func(t *testing.T) {
		cmd := render(t, `
table: Customer
where:
  - field: Age
    operator: between
    values: [18, 65]
`, nil)
		assertSQL(t, cmd, "SELECT * FROM dbo.[Customer] WHERE ([Age] BETWEEN @startvalue AND @endvalue) ORDER BY [Id]")
	})

	t.Run("Raw SQL and hints", func(t *testing.T) {
		cmd := render(t, `
schema: sales
table: Invoice
hints: [NOLOCK]
where:
  - sql: "[Total] > [Paid]"
`, nil)
		assertSQL(t, cmd, "SELECT * FROM sales.[Invoice] WITH (NOLOCK) WHERE ([Total] > [Paid]) ORDER BY [Id]")
	})

	t.Run("Raw SQL binds its placeholders", func(t *testing.T) {
		cmd := render(t, `
table: Invoice
where:
  - sql: "[Total] > @minTotal AND [DueDate] < @due"
  - field: Region
    operator: "="
    param: region
`, map[string]any{"MinTotal": 100, "due": "2026-01-01", "region": "EU"})

		assertSQL(t, cmd, "SELECT * FROM dbo.[Invoice] WHERE ([Total] > @minTotal AND [DueDate] < @due) AND ([Region] = @region) ORDER BY [Id]")
		if len(cmd.Parameters) != 3 || cmd.Parameters[0].Value != 100 || cmd.Parameters[1].Value != "2026-01-01" {
			t.Errorf("unexpected parameters %v", cmd.Parameters)
		}
	})

	t.Run("Page", func(t *testing.T) {
		cmd := render(t, `
operation: page
table: Customer
order_by:
  - field: Name
skip: 20
take: 10
`, nil)
		assertSQL(t, cmd, "SELECT * FROM (SELECT *, ROW_NUMBER() OVER (ORDER BY [Name]) AS [RowNum] FROM dbo.[Customer]) paged_rows "+
			"WHERE (paged_rows.[RowNum] >= @_minrow) AND (paged_rows.[RowNum] <= @_maxrow) ORDER BY paged_rows.[RowNum]")
	})

	t.Run("Delete", func(t *testing.T) {
		cmd := render(t, `
operation: DELETE
table: Log
where:
  - field: Level
    operator: "="
    value: debug
take: 100
`, nil)
		assertSQL(t, cmd, "DELETE TOP (100) FROM dbo.[Log] WHERE ([Level] = @level)")
	})
}

func TestBuildFromSchema_Struct(t *testing.T) {
	take, skip := 2, 2
	q := &schema.QuerySchema{Table: "Customer", Take: &take, Skip: &skip}

	b, err := schema.BuildFromSchema(relq.NewSession(nil), q, nil)
	if err != nil {
		t.Fatalf("BuildFromSchema() error = %v", err)
	}
	cmd, err := b.Render()
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	assertSQL(t, cmd, "SELECT * FROM dbo.[Customer] ORDER BY [Id] OFFSET 2 ROWS FETCH NEXT 2 ROWS ONLY")
}

func TestBuildFromSchema_Errors(t *testing.T) {
	tests := map[string]string{
		"missing table":        `operation: select`,
		"unknown operation":    "operation: merge\ntable: Customer",
		"unknown operator":     "table: Customer\nwhere:\n  - field: Age\n    operator: '~'\n    value: 1",
		"missing parameter":    "table: Customer\nwhere:\n  - field: Age\n    operator: '>'\n    param: age",
		"missing field":        "table: Customer\nwhere:\n  - operator: '>'\n    value: 1",
		"qualified where":      "table: Customer\nalias: c\nwhere:\n  - field: c.Age\n    operator: '>'\n    value: 1",
		"sql and field":        "table: Customer\nwhere:\n  - field: Age\n    sql: '1 = 1'",
		"unbound sql param":    "table: Customer\nwhere:\n  - sql: '[Age] > @age'",
		"bad direction":        "table: Customer\norder_by:\n  - field: Name\n    direction: sideways",
		"bad join type":        "table: Customer\njoins:\n  - type: cross\n    table: Order\n    on:\n      - left: Id\n        right: CustomerId",
		"join without on":      "table: Customer\njoins:\n  - type: inner\n    table: Order",
		"page without take":    "operation: page\ntable: Customer\nskip: 1",
		"negative take":        "table: Customer\ntake: -1",
		"delete with join":     "operation: delete\ntable: Customer\njoins:\n  - type: inner\n    table: Order\n    on:\n      - left: Id\n        right: CustomerId",
		"between single value": "table: Customer\nwhere:\n  - field: Age\n    operator: between\n    value: 1",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			q, err := schema.Parse([]byte(doc))
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if _, err := schema.Render(relq.NewSession(nil), q, nil); err == nil {
				t.Error("expected error")
			}
		})
	}

	if _, err := schema.BuildFromSchema(relq.NewSession(nil), nil, nil); err == nil {
		t.Error("expected error for nil schema")
	}
	if _, err := schema.Parse([]byte("table: [")); err == nil {
		t.Error("expected parse error")
	}
}

func TestParseOperator(t *testing.T) {
	tests := map[string]relq.Operand{
		"=":                  relq.Equal,
		"<>":                 relq.NotEqual,
		"NOT  IN":            relq.NotIn,
		"Starts With":        relq.StartsWith,
		"GreaterThanOrEqual": relq.GreaterThanOrEqual,
		"pipecontains":       relq.PipeContains,
		"between or equal":   relq.BetweenOrEqual,
	}
	for input, want := range tests {
		got, err := schema.ParseOperator(input)
		if err != nil {
			t.Errorf("ParseOperator(%q) error = %v", input, err)
			continue
		}
		if got != want {
			t.Errorf("ParseOperator(%q) = %s, want %s", input, got, want)
		}
	}
	if _, err := schema.ParseOperator("LIKE"); err == nil {
		t.Error("expected error for raw LIKE")
	}
}

func TestQuerySchema_RoundTrip(t *testing.T) {
	take := 5
	q := schema.QuerySchema{
		Operation: schema.OpSelect,
		Table:     "Customer",
		Where:     []schema.ConditionSchema{{Field: "Name", Operator: "=", Param: "name"}},
		OrderBy:   []schema.OrderSchema{{Field: "Name", Direction: "desc"}},
		Take:      &take,
	}

	asYAML, err := yaml.Marshal(q)
	if err != nil {
		t.Fatalf("yaml.Marshal() error = %v", err)
	}
	asJSON, err := json.Marshal(q)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}

	for name, data := range map[string][]byte{"yaml": asYAML, "json": asJSON} {
		parsed, err := schema.Parse(data)
		if err != nil {
			t.Fatalf("%s: Parse() error = %v", name, err)
		}
		cmd, err := schema.Render(relq.NewSession(nil), parsed, map[string]any{"name": "Alice"})
		if err != nil {
			t.Fatalf("%s: Render() error = %v", name, err)
		}
		assertSQL(t, cmd, "SELECT TOP 5 * FROM dbo.[Customer] WHERE ([Name] = @name) ORDER BY [Name] DESC")
	}
}
