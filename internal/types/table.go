package types

// Source is implemented by every node that can appear in a FROM clause.
type Source interface {
	IsSource() bool
}

// Table represents a schema-qualified table or view.
type Table struct {
	Schema string
	Name   string
}

// IsSource implements Source.
func (Table) IsSource() bool { return true }

// AliasedTable is a table referenced through an alias.
type AliasedTable struct {
	Table Table
	Alias string
}

// IsSource implements Source.
func (AliasedTable) IsSource() bool { return true }

// HintedTable attaches raw table hints to a Table or AliasedTable.
type HintedTable struct {
	Source Source
	Hints  []string
}

// IsSource implements Source.
func (HintedTable) IsSource() bool { return true }

// Subquery is a derived table wrapping a complete query.
type Subquery struct {
	Query Query
	Alias string
}

// IsSource implements Source.
func (Subquery) IsSource() bool { return true }

// JoinType represents the kind of SQL join.
type JoinType string

const (
	InnerJoin     JoinType = "INNER JOIN"
	LeftJoin      JoinType = "LEFT JOIN"
	LeftHashJoin  JoinType = "LEFT HASH JOIN"
	RightJoin     JoinType = "RIGHT JOIN"
	FullOuterJoin JoinType = "FULL OUTER JOIN"
)

// JoinCondition compares a column of the joined sources with a column of the
// source being joined.
type JoinCondition struct {
	Left     ColumnRef
	Operator Operator
	Right    ColumnRef
}

// JoinClause is one JOIN with its ANDed ON conditions.
type JoinClause struct {
	Source Source
	Type   JoinType
	On     []JoinCondition
}

// Join is a left source followed by one or more join clauses.
type Join struct {
	Left    Source
	Clauses []JoinClause
}

// IsSource implements Source.
func (Join) IsSource() bool { return true }

// SourceAlias returns the alias a source exposes, if any.
func SourceAlias(s Source) string {
	switch src := s.(type) {
	case AliasedTable:
		return src.Alias
	case HintedTable:
		return SourceAlias(src.Source)
	case Subquery:
		return src.Alias
	case Join:
		return SourceAlias(src.Left)
	}
	return ""
}

// SourceTable returns the underlying table of a table-shaped source.
func SourceTable(s Source) (Table, bool) {
	switch src := s.(type) {
	case Table:
		return src, true
	case AliasedTable:
		return src.Table, true
	case HintedTable:
		return SourceTable(src.Source)
	case Join:
		return SourceTable(src.Left)
	}
	return Table{}, false
}

// ScopeAliases lists every alias introduced in a FROM scope, in order.
// Aliases inside nested subqueries belong to their own scope.
func ScopeAliases(s Source) []string {
	switch src := s.(type) {
	case Join:
		aliases := ScopeAliases(src.Left)
		for _, c := range src.Clauses {
			aliases = append(aliases, ScopeAliases(c.Source)...)
		}
		return aliases
	default:
		if a := SourceAlias(s); a != "" {
			return []string{a}
		}
	}
	return nil
}
