// Package mssql provides the SQL Server renderer for relq.
package mssql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/zoobzio/relq/internal/render"
	"github.com/zoobzio/relq/internal/types"
)

// countStarSQL is the SQL for COUNT(*) aggregate.
const countStarSQL = "COUNT(*)"

// renderContext tracks nesting while rendering.
type renderContext struct {
	depth  int
	nested bool
}

// withSubquery creates a child context for rendering a derived table.
func (ctx renderContext) withSubquery() (renderContext, error) {
	if ctx.depth >= types.MaxSubqueryDepth {
		return ctx, fmt.Errorf("maximum subquery depth (%d) exceeded", types.MaxSubqueryDepth)
	}
	return renderContext{depth: ctx.depth + 1, nested: true}, nil
}

// Renderer implements the SQL Server renderer.
type Renderer struct {
	caps render.Capabilities
}

// New creates a new SQL Server renderer.
func New() *Renderer {
	return &Renderer{caps: render.SQLServer}
}

// NewWithCapabilities creates a renderer for a server with narrower
// capabilities, such as a pre-2012 instance without OFFSET ... FETCH.
func NewWithCapabilities(caps render.Capabilities) *Renderer {
	return &Renderer{caps: caps}
}

// Capabilities returns the dialect limits the renderer enforces.
func (r *Renderer) Capabilities() render.Capabilities {
	return r.caps
}

// Render converts an AST to a QueryResult with SQL Server SQL.
func (r *Renderer) Render(ast *types.AST) (*types.QueryResult, error) {
	if ast == nil {
		return nil, fmt.Errorf("invalid AST: nil")
	}
	if err := ast.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AST: %w", err)
	}

	var sql strings.Builder
	ctx := renderContext{}

	var err error
	switch ast.Operation {
	case types.OpSelect:
		err = r.renderQuery(ast.Query, &sql, ctx)
	case types.OpCount:
		err = r.renderCount(ast.Query, &sql, ctx)
	case types.OpExists:
		err = r.renderExists(ast.Query, &sql, ctx)
	case types.OpDelete:
		err = r.renderDelete(ast.Query, &sql, ctx)
	default:
		err = fmt.Errorf("unsupported operation: %s", ast.Operation)
	}
	if err != nil {
		return nil, err
	}

	text := sql.String()
	params := Placeholders(text)
	if len(params) > r.caps.MaxParameters {
		return nil, render.NewUnsupportedFeatureError(
			fmt.Sprintf("a command with %d parameters", len(params)),
			fmt.Sprintf("at most %d are allowed; split the values into chunks", r.caps.MaxParameters),
		)
	}

	return &types.QueryResult{
		SQL:            text,
		RequiredParams: params,
	}, nil
}

func (r *Renderer) renderQuery(q types.Query, sql *strings.Builder, ctx renderContext) error {
	switch query := q.(type) {
	case *types.Select:
		return r.renderSelect(query, sql, ctx)
	case *types.Union:
		return r.renderUnion(query, sql, ctx)
	}
	return fmt.Errorf("unknown query type %T", q)
}

func (r *Renderer) renderSelect(s *types.Select, sql *strings.Builder, ctx renderContext) error {
	qualifier := types.SourceAlias(s.From)
	offset := s.Skip != nil && (s.Top == nil || *s.Top > 0)
	if offset && !r.caps.OffsetFetch {
		return render.NewUnsupportedFeatureError("OFFSET ... FETCH NEXT", "page with ToListPage")
	}

	sql.WriteString("SELECT ")
	if s.Top != nil && !offset {
		sql.WriteString("TOP ")
		sql.WriteString(strconv.Itoa(*s.Top))
		sql.WriteString(" ")
	}
	r.renderProjections(s, qualifier, sql)

	sql.WriteString(" FROM ")
	if err := r.renderSource(s.From, sql, ctx); err != nil {
		return err
	}
	r.renderWhere(s.Where, qualifier, sql)

	explicit := s.OrderBy
	switch {
	case offset:
		sql.WriteString(" ORDER BY ")
		r.renderOrdering(s.Ordering(), qualifier, sql)
		sql.WriteString(" OFFSET ")
		sql.WriteString(strconv.Itoa(*s.Skip))
		sql.WriteString(" ROWS")
		if s.Top != nil {
			sql.WriteString(" FETCH NEXT ")
			sql.WriteString(strconv.Itoa(*s.Top))
			sql.WriteString(" ROWS ONLY")
		}
	case s.HasRowNumber():
		// ordering is consumed by ROW_NUMBER() OVER (...)
	case !ctx.nested:
		if order := s.Ordering(); len(order) > 0 {
			sql.WriteString(" ORDER BY ")
			r.renderOrdering(order, qualifier, sql)
		}
	case s.Top != nil:
		if len(explicit) > 0 {
			sql.WriteString(" ORDER BY ")
			r.renderOrdering(explicit, qualifier, sql)
		}
	case len(explicit) > 0:
		// SQL Server only allows ORDER BY in a derived table alongside OFFSET.
		if !r.caps.OffsetFetch {
			return render.NewUnsupportedFeatureError("ORDER BY in a derived table", "order the outer query instead")
		}
		sql.WriteString(" ORDER BY ")
		r.renderOrdering(explicit, qualifier, sql)
		sql.WriteString(" OFFSET 0 ROWS")
	}
	return nil
}

func (r *Renderer) renderUnion(u *types.Union, sql *strings.Builder, ctx renderContext) error {
	child, err := ctx.withSubquery()
	if err != nil {
		return err
	}
	keyword := " UNION "
	if u.All {
		keyword = " UNION ALL "
	}
	for i, m := range u.Members {
		if i > 0 {
			sql.WriteString(keyword)
		}
		if m.Alias == "" {
			if NeedsDerivedTable(m.Select) {
				return types.InvalidCompositionError{
					Operation: "Union",
					Reason:    "a union member with its own ordering or paging must be aliased",
				}
			}
			if err := r.renderSelect(m.Select, sql, child); err != nil {
				return err
			}
			continue
		}
		sql.WriteString("SELECT * FROM (")
		if err := r.renderSelect(m.Select, sql, child); err != nil {
			return err
		}
		sql.WriteString(") ")
		sql.WriteString(m.Alias)
	}
	return nil
}

// NeedsDerivedTable reports whether a union member keeps an ORDER BY of its
// own, which SQL Server only accepts inside a derived table.
func NeedsDerivedTable(s *types.Select) bool {
	if s.Pages() {
		return true
	}
	return len(s.OrderBy) > 0 && !s.HasRowNumber()
}

func (r *Renderer) renderCount(q types.Query, sql *strings.Builder, ctx renderContext) error {
	s, ok := q.(*types.Select)
	if !ok {
		return types.InvalidCompositionError{Operation: "Count", Reason: "a union must be wrapped in an aliased subquery before counting"}
	}
	if s.Pages() {
		return types.InvalidCompositionError{Operation: "Count", Reason: "a paged select must be wrapped in an aliased subquery before counting"}
	}
	qualifier := types.SourceAlias(s.From)
	sql.WriteString("SELECT ")
	sql.WriteString(countStarSQL)
	sql.WriteString(" FROM ")
	if err := r.renderSource(s.From, sql, ctx); err != nil {
		return err
	}
	r.renderWhere(s.Where, qualifier, sql)
	return nil
}

func (r *Renderer) renderExists(q types.Query, sql *strings.Builder, ctx renderContext) error {
	child, err := ctx.withSubquery()
	if err != nil {
		return err
	}
	sql.WriteString("SELECT CASE WHEN EXISTS (")
	if err := r.renderQuery(q, sql, child); err != nil {
		return err
	}
	sql.WriteString(") THEN 1 ELSE 0 END")
	return nil
}

func (r *Renderer) renderDelete(q types.Query, sql *strings.Builder, ctx renderContext) error {
	s, ok := q.(*types.Select)
	if !ok {
		return render.NewUnsupportedFeatureError("DELETE from a union")
	}
	if _, ok := types.SourceTable(s.From); !ok {
		return render.NewUnsupportedFeatureError("DELETE from a subquery", "delete from the table and filter with a raw predicate")
	}
	if _, ok := s.From.(types.Join); ok {
		return render.NewUnsupportedFeatureError("DELETE from a join", "delete from the table and filter with a raw predicate")
	}
	if s.Skip != nil {
		return render.NewUnsupportedFeatureError("DELETE with OFFSET")
	}

	qualifier := types.SourceAlias(s.From)
	if s.Top != nil && !r.caps.DeleteTop {
		return render.NewUnsupportedFeatureError("DELETE TOP")
	}
	if qualifier != "" && !r.caps.DeleteAliased {
		return render.NewUnsupportedFeatureError("DELETE through a table alias", "delete from the unaliased table")
	}
	sql.WriteString("DELETE ")
	if s.Top != nil {
		sql.WriteString("TOP (")
		sql.WriteString(strconv.Itoa(*s.Top))
		sql.WriteString(") ")
	}
	if qualifier != "" {
		sql.WriteString(qualifier)
		sql.WriteString(" ")
	}
	sql.WriteString("FROM ")
	if err := r.renderSource(s.From, sql, ctx); err != nil {
		return err
	}
	r.renderWhere(s.Where, qualifier, sql)
	return nil
}

func (r *Renderer) renderProjections(s *types.Select, qualifier string, sql *strings.Builder) {
	star := "*"
	if qualifier != "" {
		star = qualifier + ".*"
	}
	if len(s.Projections) == 0 {
		sql.WriteString(star)
		return
	}

	parts := make([]string, 0, len(s.Projections)+1)
	onlyRowNumbers := true
	for _, p := range s.Projections {
		if _, ok := p.(types.RowNumberColumn); !ok {
			onlyRowNumbers = false
		}
	}
	if onlyRowNumbers {
		parts = append(parts, star)
	}

	for _, p := range s.Projections {
		switch proj := p.(type) {
		case types.Column:
			col := r.renderColumn(proj.Ref(), qualifier)
			if proj.Alias != "" {
				col += " AS " + r.quoteIdentifier(proj.Alias)
			}
			parts = append(parts, col)
		case types.CalculatedColumn:
			col := proj.Expression
			if proj.Alias != "" {
				col += " AS " + r.quoteIdentifier(proj.Alias)
			}
			parts = append(parts, col)
		case types.RowNumberColumn:
			parts = append(parts, r.renderRowNumber(proj, s, qualifier))
		case types.AllColumns:
			if proj.TableAlias != "" {
				parts = append(parts, proj.TableAlias+".*")
			} else {
				parts = append(parts, "*")
			}
		}
	}
	sql.WriteString(strings.Join(parts, ", "))
}

func (r *Renderer) renderRowNumber(col types.RowNumberColumn, s *types.Select, qualifier string) string {
	var sb strings.Builder
	sb.WriteString("ROW_NUMBER() OVER (")
	if len(col.PartitionBy) > 0 {
		sb.WriteString("PARTITION BY ")
		for i, ref := range col.PartitionBy {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(r.renderColumn(ref, qualifier))
		}
		sb.WriteString(" ")
	}
	sb.WriteString("ORDER BY ")
	r.renderOrdering(s.Ordering(), qualifier, &sb)
	sb.WriteString(") AS ")
	sb.WriteString(r.quoteIdentifier(col.Alias))
	return sb.String()
}

func (r *Renderer) renderOrdering(order []types.OrderClause, qualifier string, sql *strings.Builder) {
	if len(order) == 0 {
		sql.WriteString("(SELECT NULL)")
		return
	}
	for i, o := range order {
		if i > 0 {
			sql.WriteString(", ")
		}
		sql.WriteString(r.renderColumn(o.Column, qualifier))
		if o.Descending {
			sql.WriteString(" DESC")
		}
	}
}

func (r *Renderer) renderSource(src types.Source, sql *strings.Builder, ctx renderContext) error {
	switch s := src.(type) {
	case types.Table:
		sql.WriteString(r.renderTable(s))
	case types.AliasedTable:
		sql.WriteString(r.renderTable(s.Table))
		sql.WriteString(" ")
		sql.WriteString(s.Alias)
	case types.HintedTable:
		if err := r.renderSource(s.Source, sql, ctx); err != nil {
			return err
		}
		if len(s.Hints) > 0 {
			if !r.caps.TableHints {
				return render.NewUnsupportedFeatureError("table hints")
			}
			sql.WriteString(" WITH (")
			sql.WriteString(strings.Join(s.Hints, ", "))
			sql.WriteString(")")
		}
	case types.Subquery:
		child, err := ctx.withSubquery()
		if err != nil {
			return err
		}
		sql.WriteString("(")
		if err := r.renderQuery(s.Query, sql, child); err != nil {
			return err
		}
		sql.WriteString(") ")
		sql.WriteString(s.Alias)
	case types.Join:
		if err := r.renderSource(s.Left, sql, ctx); err != nil {
			return err
		}
		leftAlias := types.SourceAlias(s.Left)
		for _, clause := range s.Clauses {
			sql.WriteString(" ")
			sql.WriteString(string(clause.Type))
			sql.WriteString(" ")
			if err := r.renderSource(clause.Source, sql, ctx); err != nil {
				return err
			}
			rightAlias := types.SourceAlias(clause.Source)
			sql.WriteString(" ON ")
			for i, on := range clause.On {
				if i > 0 {
					sql.WriteString(" AND ")
				}
				sql.WriteString(r.renderColumn(on.Left, leftAlias))
				sql.WriteString(" ")
				sql.WriteString(string(on.Operator))
				sql.WriteString(" ")
				sql.WriteString(r.renderColumn(on.Right, rightAlias))
			}
		}
	default:
		return fmt.Errorf("unknown source type %T", src)
	}
	return nil
}

func (r *Renderer) renderWhere(predicates []types.Predicate, qualifier string, sql *strings.Builder) {
	if len(predicates) == 0 {
		return
	}
	sql.WriteString(" WHERE ")
	for i, p := range predicates {
		if i > 0 {
			sql.WriteString(" AND ")
		}
		sql.WriteString("(")
		sql.WriteString(r.renderPredicate(p, qualifier))
		sql.WriteString(")")
	}
}

func (r *Renderer) renderPredicate(p types.Predicate, qualifier string) string {
	switch pred := p.(type) {
	case types.RawPredicate:
		return pred.SQL
	case types.ConstantPredicate:
		if pred.Value {
			return "1 = 1"
		}
		return "0 = 1"
	case types.Condition:
		return r.renderCondition(pred, qualifier)
	}
	return ""
}

func (r *Renderer) renderCondition(c types.Condition, qualifier string) string {
	col := r.renderColumn(c.Column, qualifier)
	switch c.Operator {
	case types.IsNull, types.IsNotNull:
		return fmt.Sprintf("%s %s", col, c.Operator)
	case types.IN, types.NotIn:
		names := make([]string, len(c.Params))
		for i, p := range c.Params {
			names[i] = placeholder(p)
		}
		return fmt.Sprintf("%s %s (%s)", col, c.Operator, strings.Join(names, ", "))
	case types.Between:
		return fmt.Sprintf("%s BETWEEN %s AND %s", col, placeholder(c.Params[0]), placeholder(c.Params[1]))
	default:
		return fmt.Sprintf("%s %s %s", col, c.Operator, placeholder(c.Params[0]))
	}
}

func placeholder(p types.Param) string {
	return "@" + strings.TrimPrefix(p.Name, "@")
}

func (r *Renderer) quoteIdentifier(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

func (r *Renderer) renderTable(table types.Table) string {
	quotedName := r.quoteIdentifier(table.Name)
	if table.Schema != "" {
		return table.Schema + "." + quotedName
	}
	return quotedName
}

func (r *Renderer) renderColumn(ref types.ColumnRef, qualifier string) string {
	quotedName := r.quoteIdentifier(ref.Name)
	alias := ref.TableAlias
	if alias == "" {
		alias = qualifier
	}
	if alias != "" {
		return alias + "." + quotedName
	}
	return quotedName
}
