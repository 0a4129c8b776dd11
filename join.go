package relq

import (
	"fmt"
	"slices"
	"strings"

	"github.com/zoobzio/relq/internal/types"
	"github.com/zoobzio/relq/mssql"
)

// Join appends one join clause joining right to the builder's sources.
// Follow it with one or more On calls; chained On conditions are ANDed into
// that single clause.
//
// The left side is aliased automatically when it is a bare table. right must
// be a table builder without filters, ordering, columns or paging, or an
// aliased subquery; anything else fails with InvalidCompositionError.
func (b *Builder) Join(right *Builder, kind JoinType) *Builder {
	if b.err != nil {
		return b
	}
	if right == nil {
		return b.fail(InvalidCompositionError{Operation: "Join", Reason: "cannot join a nil builder"})
	}
	if right.err != nil {
		return b.fail(right.err)
	}
	if b.union != nil {
		return b.fail(InvalidCompositionError{Operation: "Join", Reason: "a union must be aliased before it is used as a join source"})
	}
	if b.autoAlias {
		return b.fail(InvalidCompositionError{Operation: "Join", Reason: "a subquery must be aliased before it is used as a join source"})
	}
	if b.hasState() {
		return b.fail(InvalidCompositionError{Operation: "Join", Reason: "join sources before adding predicates, ordering, columns or paging"})
	}

	var join types.Join
	if existing, ok := b.from.(types.Join); ok {
		join = types.Join{Left: existing.Left, Clauses: slices.Clip(existing.Clauses)}
	} else {
		join = types.Join{Left: b.aliased(b.from, types.SourceAlias(right.from))}
	}

	source, err := right.joinSource(types.ScopeAliases(join))
	if err != nil {
		return b.fail(err)
	}

	alias := types.SourceAlias(source)
	for _, a := range types.ScopeAliases(join) {
		if strings.EqualFold(a, alias) {
			return b.fail(AliasCollisionError{Alias: alias})
		}
	}

	params, err := b.params.Merge(right.params)
	if err != nil {
		return b.fail(err)
	}

	join.Clauses = append(join.Clauses, types.JoinClause{Type: kind, Source: source})
	nb := b.clone()
	nb.from = join
	nb.params = params
	return nb
}

// On adds a condition to the most recent join clause. left is a column of
// the left-most source and right a column of the source just joined.
func (b *Builder) On(left string, op Operand, right string) *Builder {
	return b.OnColumns(types.ColumnRef{Name: left}, op, types.ColumnRef{Name: right})
}

// OnColumns adds a condition to the most recent join clause with explicitly
// qualified columns.
func (b *Builder) OnColumns(left ColumnRef, op Operand, right ColumnRef) *Builder {
	if b.err != nil {
		return b
	}
	join, ok := b.from.(types.Join)
	if !ok || len(join.Clauses) == 0 {
		return b.fail(InvalidCompositionError{Operation: "On", Reason: "On must follow Join"})
	}
	sqlOp, ok := op.comparison()
	if !ok {
		return b.fail(InvalidCompositionError{Operation: "On", Reason: fmt.Sprintf("%s cannot join two columns", op)})
	}
	if left.Name == "" || right.Name == "" {
		return b.fail(InvalidCompositionError{Operation: "On", Reason: "column names cannot be empty"})
	}

	clauses := slices.Clone(join.Clauses)
	last := &clauses[len(clauses)-1]
	last.On = append(slices.Clip(last.On), types.JoinCondition{Left: left, Operator: sqlOp, Right: right})

	nb := b.clone()
	nb.from = types.Join{Left: join.Left, Clauses: clauses}
	return nb
}

// joinSource returns the source right contributes to a join. A generated
// alias avoids every alias in taken.
func (b *Builder) joinSource(taken []string) (types.Source, error) {
	if b.union != nil {
		return nil, InvalidCompositionError{Operation: "Join", Reason: "a union must be aliased before it is used as a join source"}
	}
	if b.autoAlias {
		return nil, InvalidCompositionError{Operation: "Join", Reason: "a subquery must be aliased before it is used as a join source"}
	}
	if b.hasState() {
		return nil, InvalidCompositionError{Operation: "Join", Reason: "a filtered builder must be wrapped with Subquery().Alias() before it is joined"}
	}
	switch src := b.from.(type) {
	case types.Join:
		return nil, InvalidCompositionError{Operation: "Join", Reason: "a join must be wrapped with Subquery().Alias() before it is joined"}
	case types.Subquery:
		return src, nil
	default:
		return b.aliased(src, taken...), nil
	}
}

// aliased gives a bare table source a generated alias that is not one of
// taken.
func (b *Builder) aliased(src types.Source, taken ...string) types.Source {
	switch s := src.(type) {
	case types.Table:
		return types.AliasedTable{Table: s, Alias: b.freshAlias(taken)}
	case types.HintedTable:
		if table, ok := s.Source.(types.Table); ok {
			return types.HintedTable{Source: types.AliasedTable{Table: table, Alias: b.freshAlias(taken)}, Hints: s.Hints}
		}
	}
	return src
}

// freshAlias draws generated aliases until one is free of taken.
func (b *Builder) freshAlias(taken []string) string {
	for {
		alias := b.session.NextAlias()
		if !slices.ContainsFunc(taken, func(a string) bool { return strings.EqualFold(a, alias) }) {
			return alias
		}
	}
}

// Union combines the builder's select with other's as SELECT ... UNION
// SELECT .... Each side keeps its own predicates and ordering. The result
// must be aliased before it is filtered, joined or paged.
func (b *Builder) Union(other *Builder) *Builder {
	return b.combine(other, false)
}

// UnionAll is Union without duplicate elimination.
func (b *Builder) UnionAll(other *Builder) *Builder {
	return b.combine(other, true)
}

func (b *Builder) combine(other *Builder, all bool) *Builder {
	if b.err != nil {
		return b
	}
	if other == nil {
		return b.fail(InvalidCompositionError{Operation: "Union", Reason: "cannot union a nil builder"})
	}
	if other.err != nil {
		return b.fail(other.err)
	}

	left, err := b.unionMembers(all)
	if err != nil {
		return b.fail(err)
	}
	right, err := other.unionMembers(all)
	if err != nil {
		return b.fail(err)
	}

	if lw, ok := b.width(); ok {
		if rw, ok := other.width(); ok && lw != rw {
			return b.fail(InvalidCompositionError{
				Operation: "Union",
				Reason:    fmt.Sprintf("sources project %d and %d columns", lw, rw),
			})
		}
	}

	params, err := b.params.Merge(other.params)
	if err != nil {
		return b.fail(err)
	}

	return &Builder{
		session: b.session,
		table:   b.table,
		union:   &types.Union{Members: append(slices.Clip(left), right...), All: all},
		params:  params,
	}
}

// unionMembers returns the selects the builder contributes to a union.
func (b *Builder) unionMembers(all bool) ([]types.UnionMember, error) {
	if b.autoAlias {
		return nil, InvalidCompositionError{Operation: "Union", Reason: "a subquery must be aliased before it is used as a union source"}
	}
	if b.union != nil {
		if b.union.All != all {
			return nil, InvalidCompositionError{Operation: "Union", Reason: "alias a union before combining it with a different union kind"}
		}
		return b.union.Members, nil
	}
	s := b.selectQuery()
	member := types.UnionMember{Select: s}
	if mssql.NeedsDerivedTable(s) {
		member.Alias = b.session.NextAlias()
	}
	return []types.UnionMember{member}, nil
}
