package relq

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/zoobzio/relq/internal/types"
)

// Build returns the AST of the select the builder represents.
func (b *Builder) Build() (*types.AST, error) {
	if b.err != nil {
		return nil, b.err
	}
	return &types.AST{Operation: types.OpSelect, Query: b.query()}, nil
}

// MustBuild returns the AST or panics.
func (b *Builder) MustBuild() *types.AST {
	ast, err := b.Build()
	if err != nil {
		panic(err)
	}
	return ast
}

// Render renders the select with the parameters it references.
func (b *Builder) Render() (*Command, error) {
	ast, err := b.Build()
	if err != nil {
		return nil, err
	}
	return b.command(ast, b.params)
}

// MustRender renders the select or panics.
func (b *Builder) MustRender() *Command {
	cmd, err := b.Render()
	if err != nil {
		panic(err)
	}
	return cmd
}

// RenderCount renders SELECT COUNT(*) over the builder's rows. Paged
// selects and unions are counted through a derived table.
func (b *Builder) RenderCount() (*Command, error) {
	if b.err != nil {
		return nil, b.err
	}
	var query types.Query
	if b.union != nil {
		query = &types.Select{From: types.Subquery{Query: b.union, Alias: CountedAlias}}
	} else {
		s := b.selectQuery()
		if s.Pages() {
			query = &types.Select{From: types.Subquery{Query: s, Alias: CountedAlias}}
		} else {
			query = s
		}
	}
	return b.command(&types.AST{Operation: types.OpCount, Query: query}, b.params)
}

// RenderAny renders an EXISTS probe returning 1 when the builder has rows.
func (b *Builder) RenderAny() (*Command, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.command(&types.AST{Operation: types.OpExists, Query: b.query()}, b.params)
}

// RenderPage renders rows skip+1 through skip+take, numbered with
// ROW_NUMBER() over the builder's ordering.
func (b *Builder) RenderPage(skip, take int) (*Command, error) {
	if b.err != nil {
		return nil, b.err
	}
	if err := b.acceptsSelectState("ToListPage"); err != nil {
		return nil, err
	}
	if skip < 0 || take < 0 {
		return nil, fmt.Errorf("page bounds must not be negative: skip=%d take=%d", skip, take)
	}

	inner := b.selectQuery()
	inner.Projections = append(slices.Clip(inner.Projections), types.RowNumberColumn{Alias: RowNumberAlias})

	rowNum := types.ColumnRef{Name: RowNumberAlias}
	outer := &types.Select{
		From: types.Subquery{Query: inner, Alias: PagedAlias},
		Where: []types.Predicate{
			types.Condition{Column: rowNum, Operator: types.GE, Params: []types.Param{{Name: "_minrow"}}},
			types.Condition{Column: rowNum, Operator: types.LE, Params: []types.Param{{Name: "_maxrow"}}},
		},
		OrderBy: []types.OrderClause{{Column: rowNum}},
	}

	params, err := b.params.With("_minrow", skip+1)
	if err != nil {
		return nil, err
	}
	params, err = params.With("_maxrow", skip+take)
	if err != nil {
		return nil, err
	}
	return b.command(&types.AST{Operation: types.OpSelect, Query: outer}, params)
}

// RenderDelete renders DELETE over the builder's table and predicates.
func (b *Builder) RenderDelete() (*Command, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.command(&types.AST{Operation: types.OpDelete, Query: b.query()}, b.params)
}

// command renders ast and attaches the typed values of every parameter the
// SQL references, in order of first use.
func (b *Builder) command(ast *types.AST, params *Parameters) (*Command, error) {
	result, err := b.session.renderer.Render(ast)
	if err != nil {
		return nil, err
	}
	cmd := &Command{SQL: result.SQL, Parameters: make([]Parameter, 0, len(result.RequiredParams))}
	for _, name := range result.RequiredParams {
		value, ok := params.Get(name)
		if !ok {
			return nil, UnboundParameterError{Name: name}
		}
		p := b.session.resolver.Resolve(b.table, name, value)
		p.Name = name
		cmd.Parameters = append(cmd.Parameters, p)
	}
	return cmd, nil
}

func (b *Builder) executor() (Executor, error) {
	if b.session.executor == nil {
		return nil, ErrNoExecutor
	}
	return b.session.executor, nil
}

func (b *Builder) log(ctx context.Context, op string, cmd *Command) {
	b.session.logger.DebugContext(ctx, "executing command",
		slog.String("operation", op),
		slog.String("sql", cmd.SQL),
		slog.Int("params", len(cmd.Parameters)),
	)
}

// Count returns the number of rows the builder selects.
func (b *Builder) Count(ctx context.Context) (int, error) {
	cmd, err := b.RenderCount()
	if err != nil {
		return 0, err
	}
	exec, err := b.executor()
	if err != nil {
		return 0, err
	}
	b.log(ctx, "count", cmd)
	v, err := exec.Scalar(ctx, *cmd)
	if err != nil {
		return 0, err
	}
	return toInt(v)
}

// Any reports whether the builder selects at least one row.
func (b *Builder) Any(ctx context.Context) (bool, error) {
	cmd, err := b.RenderAny()
	if err != nil {
		return false, err
	}
	exec, err := b.executor()
	if err != nil {
		return false, err
	}
	b.log(ctx, "any", cmd)
	v, err := exec.Scalar(ctx, *cmd)
	if err != nil {
		return false, err
	}
	n, err := toInt(v)
	return n != 0, err
}

// First returns the first row, or ErrNoRows when there is none.
func (b *Builder) First(ctx context.Context) (Record, error) {
	rec, ok, err := b.FirstOrDefault(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoRows
	}
	return rec, nil
}

// FirstOrDefault returns the first row, with ok false when there is none.
func (b *Builder) FirstOrDefault(ctx context.Context) (rec Record, ok bool, err error) {
	rows, err := b.first().ToList(ctx)
	if err != nil || len(rows) == 0 {
		return nil, false, err
	}
	return rows[0], true, nil
}

// first narrows the builder to at most one row without widening a smaller
// Take. A union is read through a derived table so the limit applies to the
// combined rows.
func (b *Builder) first() *Builder {
	if b.err != nil {
		return b
	}
	if b.union != nil {
		nb := b.clone()
		nb.from = types.Subquery{Query: b.union, Alias: PagedAlias}
		nb.union = nil
		nb.autoAlias = false
		return nb.Take(1)
	}
	n := 1
	if b.top != nil {
		n = min(*b.top, 1)
	}
	return b.Take(n)
}

// ToList returns every row the builder selects.
func (b *Builder) ToList(ctx context.Context) ([]Record, error) {
	cmd, err := b.Render()
	if err != nil {
		return nil, err
	}
	return b.query0(ctx, "list", cmd)
}

// ToListPage returns take rows after skipping skip rows, numbering rows with
// ROW_NUMBER() so the page is stable under the builder's ordering.
func (b *Builder) ToListPage(ctx context.Context, skip, take int) ([]Record, error) {
	cmd, err := b.RenderPage(skip, take)
	if err != nil {
		return nil, err
	}
	return b.query0(ctx, "page", cmd)
}

// ToListWithCount returns one page of rows and the total row count.
func (b *Builder) ToListWithCount(ctx context.Context, skip, take int) ([]Record, int, error) {
	total, err := b.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	rows, err := b.ToListPage(ctx, skip, take)
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// Delete deletes the rows matching the builder's predicates and returns the
// number of rows affected.
func (b *Builder) Delete(ctx context.Context) (int64, error) {
	cmd, err := b.RenderDelete()
	if err != nil {
		return 0, err
	}
	exec, err := b.executor()
	if err != nil {
		return 0, err
	}
	b.log(ctx, "delete", cmd)
	return exec.NonQuery(ctx, *cmd)
}

func (b *Builder) query0(ctx context.Context, op string, cmd *Command) ([]Record, error) {
	exec, err := b.executor()
	if err != nil {
		return nil, err
	}
	b.log(ctx, op, cmd)
	return exec.Query(ctx, *cmd)
}
