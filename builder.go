package relq

import (
	"fmt"
	"slices"
	"strings"

	"github.com/zoobzio/relq/internal/types"
)

// Builder accumulates one query. Builders are immutable: every method returns
// a new Builder and leaves the receiver untouched, so a builder can be reused
// as the base of several queries and rendered any number of times.
//
// Errors are sticky. After a failing call every method returns the failed
// builder unchanged and rendering or executing it reports the first error.
type Builder struct {
	session     *Session
	table       string
	from        types.Source
	union       *types.Union
	autoAlias   bool
	where       []types.Predicate
	order       []types.OrderClause
	projections []types.Projection
	top         *int
	skip        *int
	params      *Parameters
	err         error
}

// Err returns the first error recorded by the builder.
func (b *Builder) Err() error {
	return b.err
}

// Parameters returns the parameters bound so far.
func (b *Builder) Parameters() *Parameters {
	return b.params
}

// Session returns the session that created the builder.
func (b *Builder) Session() *Session {
	return b.session
}

func (b *Builder) clone() *Builder {
	nb := *b
	return &nb
}

func (b *Builder) fail(err error) *Builder {
	nb := b.clone()
	nb.err = err
	return nb
}

// hasState reports whether the builder carries anything beyond its source.
func (b *Builder) hasState() bool {
	return len(b.where) > 0 || len(b.order) > 0 || len(b.projections) > 0 || b.top != nil || b.skip != nil
}

// acceptsSelectState rejects select-level operations on an unaliased union.
func (b *Builder) acceptsSelectState(op string) error {
	if b.union != nil {
		return InvalidCompositionError{Operation: op, Reason: "a union must be aliased before it can be filtered, ordered, projected or paged"}
	}
	return nil
}

// Where appends a raw SQL predicate. The text is trusted and rendered
// verbatim inside parentheses; bind any values it references with Parameter.
func (b *Builder) Where(sql string) *Builder {
	if b.err != nil {
		return b
	}
	if err := b.acceptsSelectState("Where"); err != nil {
		return b.fail(err)
	}
	sql = strings.TrimSpace(sql)
	if sql == "" {
		return b
	}
	nb := b.clone()
	nb.where = append(slices.Clip(b.where), types.RawPredicate{SQL: sql})
	return nb
}

// WhereOp appends a structured predicate on column. Parameters are named
// after the lower-cased column (title, title_1 on reuse); In and NotIn append
// a zero-based index (title0, title1); Between and BetweenOrEqual bind
// startvalue and endvalue.
func (b *Builder) WhereOp(column string, op Operand, values ...any) *Builder {
	if b.err != nil {
		return b
	}
	if err := b.acceptsSelectState("Where"); err != nil {
		return b.fail(err)
	}
	preds, params, err := buildCondition(b.params, column, op, values)
	if err != nil {
		return b.fail(err)
	}
	nb := b.clone()
	nb.params = params
	nb.where = append(slices.Clip(b.where), preds...)
	return nb
}

// Parameter binds a value for a placeholder used in raw SQL. Binding a name
// that already holds a different value fails with ParameterCollisionError.
func (b *Builder) Parameter(name string, value any) *Builder {
	if b.err != nil {
		return b
	}
	params, err := b.params.With(name, value)
	if err != nil {
		return b.fail(err)
	}
	nb := b.clone()
	nb.params = params
	return nb
}

// OrderBy adds an ascending sort key. The first call sets the primary sort,
// later calls add secondary keys.
func (b *Builder) OrderBy(column string) *Builder {
	return b.OrderByColumn(types.ColumnRef{Name: column}, false)
}

// OrderByDescending adds a descending sort key.
func (b *Builder) OrderByDescending(column string) *Builder {
	return b.OrderByColumn(types.ColumnRef{Name: column}, true)
}

// OrderByColumn adds a sort key on a column of a specific source.
func (b *Builder) OrderByColumn(col ColumnRef, descending bool) *Builder {
	if b.err != nil {
		return b
	}
	if err := b.acceptsSelectState("OrderBy"); err != nil {
		return b.fail(err)
	}
	if col.Name == "" {
		return b.fail(fmt.Errorf("order by: column name cannot be empty"))
	}
	nb := b.clone()
	nb.order = append(slices.Clip(b.order), types.OrderClause{Column: col, Descending: descending})
	return nb
}

// Take limits the number of rows. Without Skip it renders as TOP n.
func (b *Builder) Take(n int) *Builder {
	if b.err != nil {
		return b
	}
	if err := b.acceptsSelectState("Take"); err != nil {
		return b.fail(err)
	}
	if n < 0 {
		return b.fail(fmt.Errorf("take must not be negative: %d", n))
	}
	nb := b.clone()
	nb.top = &n
	return nb
}

// Skip offsets the rows, switching paging to OFFSET ... FETCH NEXT.
func (b *Builder) Skip(n int) *Builder {
	if b.err != nil {
		return b
	}
	if err := b.acceptsSelectState("Skip"); err != nil {
		return b.fail(err)
	}
	if n < 0 {
		return b.fail(fmt.Errorf("skip must not be negative: %d", n))
	}
	nb := b.clone()
	nb.skip = &n
	return nb
}

// Column projects a column of the source, optionally renamed. In a join,
// unqualified columns come from the left-most source.
func (b *Builder) Column(name string, alias ...string) *Builder {
	return b.ColumnFrom("", name, alias...)
}

// ColumnFrom projects a column of the source aliased tableAlias.
func (b *Builder) ColumnFrom(tableAlias, name string, alias ...string) *Builder {
	col := types.Column{Name: name, TableAlias: tableAlias}
	if len(alias) > 0 {
		col.Alias = alias[0]
	}
	return b.project(col)
}

// CalculatedColumn projects a trusted raw SQL expression as alias.
func (b *Builder) CalculatedColumn(expression, alias string) *Builder {
	return b.project(types.CalculatedColumn{Expression: expression, Alias: alias})
}

// AllColumns projects * or tableAlias.*.
func (b *Builder) AllColumns(tableAlias ...string) *Builder {
	col := types.AllColumns{}
	if len(tableAlias) > 0 {
		col.TableAlias = tableAlias[0]
	}
	return b.project(col)
}

// AddRowNumberColumn projects ROW_NUMBER() as alias, partitioned by the
// given columns and ordered by the builder's ordering. The ordering moves
// into the OVER clause.
func (b *Builder) AddRowNumberColumn(alias string, partitionBy ...ColumnRef) *Builder {
	return b.project(types.RowNumberColumn{Alias: alias, PartitionBy: slices.Clone(partitionBy)})
}

func (b *Builder) project(p types.Projection) *Builder {
	if b.err != nil {
		return b
	}
	if err := b.acceptsSelectState("Column"); err != nil {
		return b.fail(err)
	}
	nb := b.clone()
	nb.projections = append(slices.Clip(b.projections), p)
	return nb
}

// Alias names the current source. A union or subquery must be aliased
// before it can be joined or filtered.
func (b *Builder) Alias(alias string) *Builder {
	if b.err != nil {
		return b
	}
	if err := validateAlias(alias); err != nil {
		return b.fail(err)
	}

	nb := b.clone()
	if b.union != nil {
		nb.from = types.Subquery{Query: b.union, Alias: alias}
		nb.union = nil
		nb.autoAlias = false
		return nb
	}

	switch src := b.from.(type) {
	case types.Table:
		nb.from = types.AliasedTable{Table: src, Alias: alias}
	case types.AliasedTable:
		nb.from = types.AliasedTable{Table: src.Table, Alias: alias}
	case types.HintedTable:
		table, _ := types.SourceTable(src)
		nb.from = types.HintedTable{Source: types.AliasedTable{Table: table, Alias: alias}, Hints: src.Hints}
	case types.Subquery:
		nb.from = types.Subquery{Query: src.Query, Alias: alias}
		nb.autoAlias = false
	default:
		return b.fail(InvalidCompositionError{Operation: "Alias", Reason: "alias the joined sources individually"})
	}
	return nb
}

// Hint attaches a raw table hint, rendered as WITH (hint). Repeated calls
// accumulate hints.
func (b *Builder) Hint(hint string) *Builder {
	if b.err != nil {
		return b
	}
	hint = strings.TrimSpace(hint)
	if hint == "" {
		return b
	}
	nb := b.clone()
	switch src := b.from.(type) {
	case types.Table, types.AliasedTable:
		nb.from = types.HintedTable{Source: src, Hints: []string{hint}}
	case types.HintedTable:
		nb.from = types.HintedTable{Source: src.Source, Hints: append(slices.Clip(src.Hints), hint)}
	default:
		return b.fail(InvalidCompositionError{Operation: "Hint", Reason: "hints apply to table sources only"})
	}
	return nb
}

// NoLock adds the NOLOCK table hint.
func (b *Builder) NoLock() *Builder {
	return b.Hint("NOLOCK")
}

// Subquery wraps everything accumulated so far as a derived table. The
// result must be given an Alias before it is joined or unioned.
func (b *Builder) Subquery() *Builder {
	if b.err != nil {
		return b
	}
	if b.autoAlias && !b.hasState() {
		return b
	}
	return &Builder{
		session:   b.session,
		table:     b.table,
		from:      types.Subquery{Query: b.query(), Alias: b.session.NextAlias()},
		autoAlias: true,
		params:    b.params,
	}
}

// query returns the union or select the builder represents.
func (b *Builder) query() types.Query {
	if b.union != nil {
		return b.union
	}
	return b.selectQuery()
}

// selectQuery assembles the select for the builder's current state.
func (b *Builder) selectQuery() *types.Select {
	s := &types.Select{
		From:        b.from,
		Projections: b.projections,
		Where:       b.where,
		OrderBy:     b.order,
		Top:         b.top,
		Skip:        b.skip,
	}
	if b.session.keyColumn != "" {
		s.DefaultOrder = []types.OrderClause{{Column: types.ColumnRef{Name: b.session.keyColumn}}}
	}
	if len(s.Projections) == 0 {
		s.Projections = b.defaultJoinProjection()
	}
	return s
}

// defaultJoinProjection lists the left table's catalog columns for a join
// without explicit columns, JSON column last.
func (b *Builder) defaultJoinProjection() []types.Projection {
	join, ok := b.from.(types.Join)
	if !ok {
		return nil
	}
	table, ok := types.SourceTable(join.Left)
	if !ok {
		return nil
	}
	cols, ok := b.session.columns(table.Name)
	if !ok || len(cols) == 0 {
		return nil
	}
	alias := types.SourceAlias(join.Left)
	names := ColumnNames(cols, b.session.jsonColumn)
	projections := make([]types.Projection, len(names))
	for i, name := range names {
		projections[i] = types.Column{Name: name, TableAlias: alias}
	}
	return projections
}

// width returns the number of columns the builder projects, if known.
func (b *Builder) width() (int, bool) {
	if b.union != nil {
		return 0, false
	}
	if len(b.projections) == 0 {
		if _, isJoin := b.from.(types.Join); isJoin {
			return 0, false
		}
		table, ok := types.SourceTable(b.from)
		if !ok {
			return 0, false
		}
		cols, ok := b.session.columns(table.Name)
		return len(cols), ok
	}
	n := 0
	star := true
	for _, p := range b.projections {
		switch p.(type) {
		case types.AllColumns:
			return 0, false
		case types.RowNumberColumn:
		default:
			star = false
		}
		n++
	}
	if star {
		return 0, false
	}
	return n, true
}
