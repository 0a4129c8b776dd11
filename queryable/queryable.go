// Package queryable translates typed expression trees into relq builders, so
// callers filter, order and page documents of type T without writing SQL.
//
//	customers := queryable.New[Customer](session).
//		Where(expr.Equal(expr.M("FirstName"), "Alice")).
//		OrderBy(expr.M("LastName"))
//	list, err := customers.ToList(ctx)
//
// Expressions that cannot be expressed in SQL fail with
// relq.UnsupportedExpressionError. Nothing is ever evaluated in memory.
package queryable

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/zoobzio/relq"
	"github.com/zoobzio/relq/expr"
)

// Option configures a Queryable.
type Option func(*config)

type config struct {
	table         string
	schema        string
	piped         map[string]bool
	mapper        any
	discriminator string
}

// WithTable sets the table rows are read from. The default is the name of T.
func WithTable(name string) Option {
	return func(c *config) {
		c.table = name
	}
}

// WithSchema reads from schema instead of the session schema.
func WithSchema(schema string) Option {
	return func(c *config) {
		c.schema = schema
	}
}

// WithPipedColumns declares columns storing collections as |a|b|c|, so
// Contains on them becomes a piped LIKE.
func WithPipedColumns(columns ...string) Option {
	return func(c *config) {
		for _, col := range columns {
			c.piped[strings.ToLower(col)] = true
		}
	}
}

// WithDiscriminator names the column OfType filters on.
func WithDiscriminator(column string) Option {
	return func(c *config) {
		c.discriminator = column
	}
}

// WithMapper replaces the JSONMapper. m must be a Mapper of the queryable's
// element type.
func WithMapper[T any](m Mapper[T]) Option {
	return func(c *config) {
		c.mapper = m
	}
}

type ordering struct {
	column     string
	descending bool
}

// Queryable is an immutable query over documents of type T.
type Queryable[T any] struct {
	session *relq.Session
	cfg     *config
	mapper  Mapper[T]
	base    *relq.Builder
	columns []string
	order   []ordering
	skip    *int
	take    *int
	err     error
}

// New creates a queryable over the table holding T.
func New[T any](s *relq.Session, opts ...Option) *Queryable[T] {
	cfg := &config{piped: make(map[string]bool)}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.table == "" {
		cfg.table = reflect.TypeFor[T]().Name()
	}

	q := &Queryable[T]{session: s, cfg: cfg, mapper: JSONMapper[T]{Column: s.JSONColumn()}}
	if cfg.mapper != nil {
		m, ok := cfg.mapper.(Mapper[T])
		if !ok {
			q.err = fmt.Errorf("mapper %T does not produce %s", cfg.mapper, reflect.TypeFor[T]())
		}
		q.mapper = m
	}

	if cfg.schema != "" {
		q.base = s.QueryIn(cfg.schema, cfg.table)
	} else {
		q.base = s.Query(cfg.table)
	}
	if q.err == nil {
		q.err = q.base.Err()
	}
	return q
}

// Err returns the first error recorded by the queryable.
func (q *Queryable[T]) Err() error {
	return q.err
}

func (q *Queryable[T]) clone() *Queryable[T] {
	nq := *q
	return &nq
}

func (q *Queryable[T]) fail(err error) *Queryable[T] {
	nq := q.clone()
	nq.err = err
	return nq
}

func (q *Queryable[T]) paged() bool {
	return q.skip != nil || q.take != nil
}

func (q *Queryable[T]) beforePaging(op string) error {
	if q.paged() {
		return relq.InvalidCompositionError{Operation: op, Reason: "cannot follow Skip or Take"}
	}
	return nil
}

// Where filters rows by a predicate expression.
func (q *Queryable[T]) Where(e expr.Expr) *Queryable[T] {
	if q.err != nil {
		return q
	}
	if err := q.beforePaging("Where"); err != nil {
		return q.fail(err)
	}
	b, err := q.translate(q.base, e, false)
	if err != nil {
		return q.fail(err)
	}
	nq := q.clone()
	nq.base = b
	return nq
}

// WhereSQL filters rows with a trusted raw SQL predicate. Bind its
// parameters with Parameter.
func (q *Queryable[T]) WhereSQL(sql string) *Queryable[T] {
	return q.withBuilder("Where", func(b *relq.Builder) *relq.Builder { return b.Where(sql) })
}

// Parameter binds a value referenced by WhereSQL.
func (q *Queryable[T]) Parameter(name string, value any) *Queryable[T] {
	return q.withBuilder("Parameter", func(b *relq.Builder) *relq.Builder { return b.Parameter(name, value) })
}

// OfType keeps rows whose discriminator column equals value.
func (q *Queryable[T]) OfType(value string) *Queryable[T] {
	if q.err == nil && q.cfg.discriminator == "" {
		return q.fail(relq.InvalidCompositionError{Operation: "OfType", Reason: "no discriminator column configured"})
	}
	return q.withBuilder("OfType", func(b *relq.Builder) *relq.Builder {
		return b.WhereOp(q.cfg.discriminator, relq.Equal, value)
	})
}

func (q *Queryable[T]) withBuilder(op string, apply func(*relq.Builder) *relq.Builder) *Queryable[T] {
	if q.err != nil {
		return q
	}
	if err := q.beforePaging(op); err != nil {
		return q.fail(err)
	}
	b := apply(q.base)
	if b.Err() != nil {
		return q.fail(b.Err())
	}
	nq := q.clone()
	nq.base = b
	return nq
}

// OrderBy sorts by member, replacing any earlier ordering.
func (q *Queryable[T]) OrderBy(member expr.Member) *Queryable[T] {
	return q.orderBy("OrderBy", member, false, true)
}

// OrderByDescending sorts descending by member, replacing any earlier
// ordering.
func (q *Queryable[T]) OrderByDescending(member expr.Member) *Queryable[T] {
	return q.orderBy("OrderByDescending", member, true, true)
}

// ThenBy adds an ascending secondary sort key.
func (q *Queryable[T]) ThenBy(member expr.Member) *Queryable[T] {
	return q.orderBy("ThenBy", member, false, false)
}

// ThenByDescending adds a descending secondary sort key.
func (q *Queryable[T]) ThenByDescending(member expr.Member) *Queryable[T] {
	return q.orderBy("ThenByDescending", member, true, false)
}

func (q *Queryable[T]) orderBy(op string, member expr.Member, descending, reset bool) *Queryable[T] {
	if q.err != nil {
		return q
	}
	if err := q.beforePaging(op); err != nil {
		return q.fail(err)
	}
	if !q.isColumn(member) {
		return q.fail(unsupported(member, "ordering requires a column"))
	}
	nq := q.clone()
	o := ordering{column: member.Leaf(), descending: descending}
	if reset {
		nq.order = []ordering{o}
	} else {
		nq.order = append(slices.Clip(q.order), o)
	}
	return nq
}

// Select restricts the columns read to members.
func (q *Queryable[T]) Select(members ...expr.Member) *Queryable[T] {
	if q.err != nil {
		return q
	}
	cols := make([]string, 0, len(members))
	for _, m := range members {
		if !q.isColumn(m) {
			return q.fail(unsupported(m, "only columns can be selected"))
		}
		cols = append(cols, m.Leaf())
	}
	nq := q.clone()
	nq.columns = cols
	return nq
}

// Skip bypasses n rows. Skip after Take skips within the taken rows.
func (q *Queryable[T]) Skip(n int) *Queryable[T] {
	if q.err != nil {
		return q
	}
	if n < 0 {
		return q.fail(fmt.Errorf("skip must not be negative: %d", n))
	}
	nq := q.clone()
	skip := n
	if q.skip != nil {
		skip += *q.skip
	}
	nq.skip = &skip
	if q.take != nil {
		take := max(*q.take-n, 0)
		nq.take = &take
	}
	return nq
}

// Take keeps at most n rows.
func (q *Queryable[T]) Take(n int) *Queryable[T] {
	if q.err != nil {
		return q
	}
	if n < 0 {
		return q.fail(fmt.Errorf("take must not be negative: %d", n))
	}
	nq := q.clone()
	if q.take != nil {
		n = min(n, *q.take)
	}
	nq.take = &n
	return nq
}

// Builder returns the relq builder the queryable renders through.
func (q *Queryable[T]) Builder() (*relq.Builder, error) {
	if q.err != nil {
		return nil, q.err
	}
	b := q.base
	for _, col := range q.columns {
		b = b.Column(col)
	}
	for _, o := range q.order {
		if o.descending {
			b = b.OrderByDescending(o.column)
		} else {
			b = b.OrderBy(o.column)
		}
	}
	if q.skip != nil {
		b = b.Skip(*q.skip)
	}
	if q.take != nil {
		b = b.Take(*q.take)
	}
	return b, b.Err()
}

// Render renders the select the queryable executes.
func (q *Queryable[T]) Render() (*relq.Command, error) {
	b, err := q.Builder()
	if err != nil {
		return nil, err
	}
	return b.Render()
}

// Count returns the number of matching rows.
func (q *Queryable[T]) Count(ctx context.Context) (int, error) {
	b, err := q.Builder()
	if err != nil {
		return 0, err
	}
	return b.Count(ctx)
}

// Any reports whether any row matches.
func (q *Queryable[T]) Any(ctx context.Context) (bool, error) {
	b, err := q.Builder()
	if err != nil {
		return false, err
	}
	return b.Any(ctx)
}

// First returns the first row, or relq.ErrNoRows when there is none.
func (q *Queryable[T]) First(ctx context.Context) (T, error) {
	v, ok, err := q.FirstOrDefault(ctx)
	if err == nil && !ok {
		err = relq.ErrNoRows
	}
	return v, err
}

// FirstOrDefault returns the first row, with ok false when there is none.
func (q *Queryable[T]) FirstOrDefault(ctx context.Context) (v T, ok bool, err error) {
	list, err := q.Take(1).ToList(ctx)
	if err != nil || len(list) == 0 {
		return v, false, err
	}
	return list[0], true, nil
}

// ToList returns every matching row.
func (q *Queryable[T]) ToList(ctx context.Context) ([]T, error) {
	b, err := q.Builder()
	if err != nil {
		return nil, err
	}
	rows, err := b.ToList(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(rows))
	for i, rec := range rows {
		v, err := q.mapper.Map(rec)
		if err != nil {
			return nil, fmt.Errorf("map row %d: %w", i, err)
		}
		out = append(out, v)
	}
	return out, nil
}
