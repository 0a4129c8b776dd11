package types

import "fmt"

// MaxSubqueryDepth limits nesting of derived tables and unions.
const MaxSubqueryDepth = 8

// Operation represents the form a query is rendered in.
type Operation string

const (
	OpSelect Operation = "SELECT"
	OpCount  Operation = "COUNT"
	OpExists Operation = "EXISTS"
	OpDelete Operation = "DELETE"
)

// Query is implemented by *Select and *Union.
type Query interface {
	IsQuery() bool
}

// Select is a single SELECT statement.
type Select struct {
	From         Source
	Projections  []Projection
	Where        []Predicate
	OrderBy      []OrderClause
	DefaultOrder []OrderClause
	Top          *int
	Skip         *int
}

// IsQuery implements Query.
func (*Select) IsQuery() bool { return true }

// Ordering returns the explicit order, falling back to the default order.
func (s *Select) Ordering() []OrderClause {
	if len(s.OrderBy) > 0 {
		return s.OrderBy
	}
	return s.DefaultOrder
}

// HasRowNumber reports whether the select projects a row-number column.
func (s *Select) HasRowNumber() bool {
	for _, p := range s.Projections {
		if _, ok := p.(RowNumberColumn); ok {
			return true
		}
	}
	return false
}

// Pages reports whether the select limits or offsets its rows.
func (s *Select) Pages() bool {
	return s.Top != nil || s.Skip != nil
}

// UnionMember is one select of a union. Alias is set when the member has to
// be wrapped in a derived table to keep its own ordering or paging.
type UnionMember struct {
	Select *Select
	Alias  string
}

// Union combines two or more selects.
type Union struct {
	Members []UnionMember
	All     bool
}

// IsQuery implements Query.
func (*Union) IsQuery() bool { return true }

// AST is the root of a renderable statement.
type AST struct {
	Operation Operation
	Query     Query
}

// Validate checks the structural invariants of the AST.
func (a *AST) Validate() error {
	switch a.Operation {
	case OpSelect, OpCount, OpExists, OpDelete:
	default:
		return fmt.Errorf("unknown operation %q", a.Operation)
	}
	if a.Query == nil {
		return fmt.Errorf("%s requires a query", a.Operation)
	}
	return validateQuery(a.Query, 0)
}

func validateQuery(q Query, depth int) error {
	if depth > MaxSubqueryDepth {
		return fmt.Errorf("maximum subquery depth (%d) exceeded", MaxSubqueryDepth)
	}
	switch query := q.(type) {
	case *Select:
		return validateSelect(query, depth)
	case *Union:
		if len(query.Members) < 2 {
			return InvalidCompositionError{Operation: "Union", Reason: "a union needs at least two members"}
		}
		for _, m := range query.Members {
			if m.Select == nil {
				return InvalidCompositionError{Operation: "Union", Reason: "union member is empty"}
			}
			if err := validateSelect(m.Select, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("unknown query type %T", q)
}

func validateSelect(s *Select, depth int) error {
	if s.From == nil {
		return fmt.Errorf("select requires a source")
	}
	if s.Top != nil && *s.Top < 0 {
		return fmt.Errorf("take must not be negative: %d", *s.Top)
	}
	if s.Skip != nil && *s.Skip < 0 {
		return fmt.Errorf("skip must not be negative: %d", *s.Skip)
	}
	if err := validateSource(s.From, depth); err != nil {
		return err
	}
	seen := make(map[string]bool)
	for _, alias := range ScopeAliases(s.From) {
		key := ParamKey(alias)
		if seen[key] {
			return AliasCollisionError{Alias: alias}
		}
		seen[key] = true
	}
	for _, p := range s.Where {
		if c, ok := p.(Condition); ok {
			if err := validateCondition(c); err != nil {
				return err
			}
		}
	}
	for _, proj := range s.Projections {
		if err := validateProjection(proj); err != nil {
			return err
		}
	}
	for _, o := range s.OrderBy {
		if err := validateRef(o.Column); err != nil {
			return err
		}
	}
	for _, o := range s.DefaultOrder {
		if err := validateRef(o.Column); err != nil {
			return err
		}
	}
	return nil
}

func validateProjection(p Projection) error {
	switch proj := p.(type) {
	case Column:
		return validateRef(proj.Ref())
	case CalculatedColumn:
		if proj.Expression == "" {
			return fmt.Errorf("calculated column %q has no expression", proj.Alias)
		}
	case RowNumberColumn:
		if proj.Alias == "" {
			return fmt.Errorf("row number column requires an alias")
		}
		for _, ref := range proj.PartitionBy {
			if err := validateRef(ref); err != nil {
				return err
			}
		}
	case AllColumns:
		if proj.TableAlias != "" && !IsIdentifier(proj.TableAlias) {
			return fmt.Errorf("invalid table alias %q", proj.TableAlias)
		}
	}
	return nil
}

func validateRef(ref ColumnRef) error {
	if ref.Name == "" {
		return fmt.Errorf("column name cannot be empty")
	}
	if ref.TableAlias != "" && !IsIdentifier(ref.TableAlias) {
		return fmt.Errorf("invalid table alias %q for column [%s]", ref.TableAlias, ref.Name)
	}
	return nil
}

func validateSource(src Source, depth int) error {
	switch s := src.(type) {
	case Table:
		if s.Name == "" {
			return fmt.Errorf("table name cannot be empty")
		}
		if s.Schema != "" && !IsIdentifier(s.Schema) {
			return fmt.Errorf("invalid schema %q", s.Schema)
		}
	case AliasedTable:
		if !IsIdentifier(s.Alias) {
			return InvalidCompositionError{Operation: "Alias", Reason: fmt.Sprintf("invalid alias %q", s.Alias)}
		}
		return validateSource(s.Table, depth)
	case HintedTable:
		switch s.Source.(type) {
		case Table, AliasedTable:
		default:
			return InvalidCompositionError{Operation: "Hint", Reason: "hints apply to tables only"}
		}
		return validateSource(s.Source, depth)
	case Subquery:
		if s.Alias == "" {
			return InvalidCompositionError{Operation: "Subquery", Reason: "a subquery must be aliased before it is used as a source"}
		}
		if !IsIdentifier(s.Alias) {
			return InvalidCompositionError{Operation: "Alias", Reason: fmt.Sprintf("invalid alias %q", s.Alias)}
		}
		return validateQuery(s.Query, depth+1)
	case Join:
		if err := validateSource(s.Left, depth); err != nil {
			return err
		}
		if len(s.Clauses) == 0 {
			return InvalidCompositionError{Operation: "Join", Reason: "join has no clauses"}
		}
		for _, c := range s.Clauses {
			if len(c.On) == 0 {
				return InvalidCompositionError{Operation: "Join", Reason: "join clause requires at least one On condition"}
			}
			if SourceAlias(c.Source) == "" {
				return InvalidCompositionError{Operation: "Join", Reason: "joined sources must be aliased"}
			}
			if _, nested := c.Source.(Join); nested {
				return InvalidCompositionError{Operation: "Join", Reason: "a join cannot be joined directly; wrap it in an aliased subquery"}
			}
			if err := validateSource(c.Source, depth); err != nil {
				return err
			}
			for _, on := range c.On {
				if !on.Operator.IsComparison() {
					return InvalidCompositionError{Operation: "On", Reason: fmt.Sprintf("operator %s cannot join columns", on.Operator)}
				}
				if err := validateRef(on.Left); err != nil {
					return err
				}
				if err := validateRef(on.Right); err != nil {
					return err
				}
			}
		}
	default:
		return fmt.Errorf("unknown source type %T", src)
	}
	return nil
}

func validateCondition(c Condition) error {
	arity := c.Operator.Arity()
	switch {
	case arity < 0 && len(c.Params) == 0:
		return fmt.Errorf("%s on [%s] requires at least one parameter", c.Operator, c.Column.Name)
	case arity >= 0 && len(c.Params) != arity:
		return fmt.Errorf("%s on [%s] requires %d parameters, got %d", c.Operator, c.Column.Name, arity, len(c.Params))
	}
	if err := validateRef(c.Column); err != nil {
		return err
	}
	for _, p := range c.Params {
		if !IsValidParamName(p.Name) {
			return fmt.Errorf("invalid parameter name %q", p.Name)
		}
	}
	return nil
}
