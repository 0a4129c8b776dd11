package types

import (
	"errors"
	"strings"
	"testing"
)

func intPtr(n int) *int { return &n }

func customers() Table { return Table{Schema: "dbo", Name: "Customer"} }

// =============================================================================
// Param Tests
// =============================================================================

func TestParamKey(t *testing.T) {
	tests := map[string]string{
		"name":     "name",
		"@Name":    "name",
		"ID_1":     "id_1",
		"@_minRow": "_minrow",
	}
	for in, want := range tests {
		if got := ParamKey(in); got != want {
			t.Errorf("ParamKey(%q) = %q, want %q", in, got, want)
		}
	}
	if got := (Param{Name: "@Region"}).Key(); got != "region" {
		t.Errorf("Key() = %q, want %q", got, "region")
	}
}

func TestIsIdentifier(t *testing.T) {
	valid := []string{"c", "_x", "paged_rows", "t1", "CustomerId"}
	for _, s := range valid {
		if !IsIdentifier(s) {
			t.Errorf("IsIdentifier(%q) = false, want true", s)
		}
	}
	invalid := []string{"", "1c", "c d", "c;", "[c]", "c-d", "é"}
	for _, s := range invalid {
		if IsIdentifier(s) {
			t.Errorf("IsIdentifier(%q) = true, want false", s)
		}
	}
}

func TestIsValidParamName(t *testing.T) {
	if !IsValidParamName("@name") || !IsValidParamName("name_1") {
		t.Error("expected valid parameter names")
	}
	if IsValidParamName("@") || IsValidParamName("a b") {
		t.Error("expected invalid parameter names")
	}
}

// =============================================================================
// Operator Tests
// =============================================================================

func TestOperator_Arity(t *testing.T) {
	tests := map[Operator]int{
		EQ:        1,
		LIKE:      1,
		Between:   2,
		IN:        -1,
		NotIn:     -1,
		IsNull:    0,
		IsNotNull: 0,
	}
	for op, want := range tests {
		if got := op.Arity(); got != want {
			t.Errorf("%s.Arity() = %d, want %d", op, got, want)
		}
	}
}

func TestOperator_IsComparison(t *testing.T) {
	for _, op := range []Operator{EQ, NE, GT, GE, LT, LE} {
		if !op.IsComparison() {
			t.Errorf("%s should be a comparison", op)
		}
	}
	for _, op := range []Operator{IN, LIKE, Between, IsNull} {
		if op.IsComparison() {
			t.Errorf("%s should not be a comparison", op)
		}
	}
}

// =============================================================================
// Source Tests
// =============================================================================

func TestSourceAlias(t *testing.T) {
	aliased := AliasedTable{Table: customers(), Alias: "c"}
	tests := []struct {
		name string
		src  Source
		want string
	}{
		{"table", customers(), ""},
		{"aliased", aliased, "c"},
		{"hinted", HintedTable{Source: aliased, Hints: []string{"NOLOCK"}}, "c"},
		{"subquery", Subquery{Query: &Select{From: customers()}, Alias: "s"}, "s"},
		{"join", Join{Left: aliased}, "c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SourceAlias(tt.src); got != tt.want {
				t.Errorf("SourceAlias() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSourceTable(t *testing.T) {
	hinted := HintedTable{Source: AliasedTable{Table: customers(), Alias: "c"}, Hints: []string{"NOLOCK"}}
	if got, ok := SourceTable(hinted); !ok || got != customers() {
		t.Errorf("SourceTable() = %v, %v", got, ok)
	}
	if _, ok := SourceTable(Subquery{Query: &Select{From: customers()}, Alias: "s"}); ok {
		t.Error("a subquery has no underlying table")
	}
}

func TestScopeAliases(t *testing.T) {
	inner := &Select{From: AliasedTable{Table: customers(), Alias: "x"}}
	join := Join{
		Left: AliasedTable{Table: customers(), Alias: "c"},
		Clauses: []JoinClause{
			{Source: AliasedTable{Table: Table{Name: "Order"}, Alias: "o"}},
			{Source: Subquery{Query: inner, Alias: "s"}},
		},
	}
	got := ScopeAliases(join)
	want := []string{"c", "o", "s"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("ScopeAliases() = %v, want %v", got, want)
	}
}

// =============================================================================
// Select Tests
// =============================================================================

func TestSelect_Ordering(t *testing.T) {
	def := []OrderClause{{Column: ColumnRef{Name: "Id"}}}
	s := &Select{From: customers(), DefaultOrder: def}
	if got := s.Ordering(); len(got) != 1 || got[0].Column.Name != "Id" {
		t.Errorf("Ordering() = %v, want default order", got)
	}
	s.OrderBy = []OrderClause{{Column: ColumnRef{Name: "Name"}, Descending: true}}
	if got := s.Ordering(); got[0].Column.Name != "Name" || !got[0].Descending {
		t.Errorf("Ordering() = %v, want explicit order", got)
	}
}

func TestSelect_PagesAndRowNumber(t *testing.T) {
	s := &Select{From: customers()}
	if s.Pages() || s.HasRowNumber() {
		t.Error("bare select neither pages nor numbers rows")
	}
	s.Skip = intPtr(0)
	if !s.Pages() {
		t.Error("Skip(0) still pages")
	}
	s.Projections = []Projection{AllColumns{}, RowNumberColumn{Alias: "RowNum"}}
	if !s.HasRowNumber() {
		t.Error("expected row number column")
	}
}

// =============================================================================
// Validate Tests
// =============================================================================

func TestAST_Validate(t *testing.T) {
	valid := &AST{Operation: OpSelect, Query: &Select{
		From: AliasedTable{Table: customers(), Alias: "c"},
		Where: []Predicate{
			Condition{Column: ColumnRef{Name: "Age", TableAlias: "c"}, Operator: Between, Params: []Param{{Name: "startvalue"}, {Name: "endvalue"}}},
			RawPredicate{SQL: "1 = 1"},
			False,
		},
		OrderBy: []OrderClause{{Column: ColumnRef{Name: "Id", TableAlias: "c"}}},
	}}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestAST_Validate_Errors(t *testing.T) {
	aliased := func(alias string) Source { return AliasedTable{Table: customers(), Alias: alias} }
	single := &Select{From: customers()}

	tests := []struct {
		name string
		ast  *AST
		want string
	}{
		{"unknown operation", &AST{Operation: "MERGE", Query: single}, "unknown operation"},
		{"no query", &AST{Operation: OpCount}, "requires a query"},
		{"no source", &AST{Operation: OpSelect, Query: &Select{}}, "requires a source"},
		{"empty table", &AST{Operation: OpSelect, Query: &Select{From: Table{}}}, "table name cannot be empty"},
		{"negative take", &AST{Operation: OpSelect, Query: &Select{From: customers(), Top: intPtr(-1)}}, "take must not be negative"},
		{"bad alias", &AST{Operation: OpSelect, Query: &Select{From: aliased("c d")}}, "invalid alias"},
		{"unaliased subquery", &AST{Operation: OpSelect, Query: &Select{From: Subquery{Query: single}}}, "must be aliased"},
		{"hinted subquery", &AST{Operation: OpSelect, Query: &Select{From: HintedTable{Source: Subquery{Query: single, Alias: "s"}}}}, "hints apply to tables only"},
		{"short union", &AST{Operation: OpSelect, Query: &Union{Members: []UnionMember{{Select: single}}}}, "at least two members"},
		{"arity", &AST{Operation: OpSelect, Query: &Select{From: customers(), Where: []Predicate{
			Condition{Column: ColumnRef{Name: "Age"}, Operator: Between, Params: []Param{{Name: "a"}}},
		}}}, "requires 2 parameters"},
		{"empty in", &AST{Operation: OpSelect, Query: &Select{From: customers(), Where: []Predicate{
			Condition{Column: ColumnRef{Name: "Id"}, Operator: IN},
		}}}, "at least one parameter"},
		{"bad param", &AST{Operation: OpSelect, Query: &Select{From: customers(), Where: []Predicate{
			Condition{Column: ColumnRef{Name: "Id"}, Operator: EQ, Params: []Param{{Name: "id;--"}}},
		}}}, "invalid parameter name"},
		{"empty column", &AST{Operation: OpSelect, Query: &Select{From: customers(), OrderBy: []OrderClause{{}}}}, "column name cannot be empty"},
		{"join without on", &AST{Operation: OpSelect, Query: &Select{From: Join{
			Left:    aliased("c"),
			Clauses: []JoinClause{{Source: AliasedTable{Table: Table{Name: "Order"}, Alias: "o"}, Type: InnerJoin}},
		}}}, "at least one On condition"},
		{"join unaliased", &AST{Operation: OpSelect, Query: &Select{From: Join{
			Left: aliased("c"),
			Clauses: []JoinClause{{Source: Table{Name: "Order"}, Type: InnerJoin, On: []JoinCondition{
				{Left: ColumnRef{Name: "Id"}, Operator: EQ, Right: ColumnRef{Name: "CustomerId"}},
			}}},
		}}}, "must be aliased"},
		{"join like", &AST{Operation: OpSelect, Query: &Select{From: Join{
			Left: aliased("c"),
			Clauses: []JoinClause{{Source: AliasedTable{Table: Table{Name: "Order"}, Alias: "o"}, Type: InnerJoin, On: []JoinCondition{
				{Left: ColumnRef{Name: "Id"}, Operator: LIKE, Right: ColumnRef{Name: "CustomerId"}},
			}}},
		}}}, "cannot join columns"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ast.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() error = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestAST_Validate_AliasCollision(t *testing.T) {
	ast := &AST{Operation: OpSelect, Query: &Select{From: Join{
		Left: AliasedTable{Table: customers(), Alias: "c"},
		Clauses: []JoinClause{{Source: AliasedTable{Table: Table{Name: "Order"}, Alias: "C"}, Type: InnerJoin, On: []JoinCondition{
			{Left: ColumnRef{Name: "Id"}, Operator: EQ, Right: ColumnRef{Name: "CustomerId"}},
		}}},
	}}}
	var collision AliasCollisionError
	if err := ast.Validate(); !errors.As(err, &collision) {
		t.Fatalf("expected AliasCollisionError, got %v", err)
	}
	if collision.Alias != "C" {
		t.Errorf("Alias = %q, want %q", collision.Alias, "C")
	}
}

func TestAST_Validate_Depth(t *testing.T) {
	q := Query(&Select{From: customers()})
	for i := 0; i <= MaxSubqueryDepth+1; i++ {
		q = &Select{From: Subquery{Query: q, Alias: "s"}}
	}
	err := (&AST{Operation: OpSelect, Query: q}).Validate()
	if err == nil || !strings.Contains(err.Error(), "maximum subquery depth") {
		t.Errorf("Validate() error = %v, want depth error", err)
	}
}

// =============================================================================
// Error Tests
// =============================================================================

func TestErrors(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{UnsupportedExpressionError{Expression: "x.A || x.B", Reason: "or is not supported"}, "unsupported expression x.A || x.B: or is not supported"},
		{UnsupportedExpressionError{Expression: "x.A"}, "unsupported expression x.A"},
		{AliasCollisionError{Alias: "c"}, `alias "c" is already in use`},
		{ParameterCollisionError{Name: "id", Existing: 1, Incoming: 2}, "the parameter id already exists with value 1 (incoming 2)"},
		{UnboundParameterError{Name: "region"}, "parameter @region is referenced but never bound"},
		{InvalidCompositionError{Operation: "Where", Reason: "after Take"}, "Where: after Take"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}
