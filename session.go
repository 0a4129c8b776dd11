package relq

import (
	"log/slog"

	"github.com/zoobzio/relq/internal/types"
	"github.com/zoobzio/relq/mssql"
)

// Session creates builders that share a renderer, catalog, alias generator
// and Executor. It is safe for concurrent use.
type Session struct {
	executor   Executor
	renderer   Renderer
	catalog    Catalog
	resolver   TypeResolver
	logger     *slog.Logger
	aliases    *AliasGenerator
	schema     string
	keyColumn  string
	jsonColumn string
}

// Option configures a Session.
type Option func(*Session)

// WithRenderer replaces the SQL Server renderer.
func WithRenderer(r Renderer) Option {
	return func(s *Session) {
		s.renderer = r
	}
}

// WithCatalog sets the column catalog used for default projections,
// union compatibility and key parameter sizing.
func WithCatalog(c Catalog) Option {
	return func(s *Session) {
		s.catalog = c
	}
}

// WithTypeResolver replaces the DefaultTypeResolver.
func WithTypeResolver(r TypeResolver) Option {
	return func(s *Session) {
		s.resolver = r
	}
}

// WithLogger sets the logger commands are logged to. Default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		s.logger = l
	}
}

// WithSchema sets the schema unqualified tables live in. Default is dbo.
func WithSchema(schema string) Option {
	return func(s *Session) {
		s.schema = schema
	}
}

// WithKeyColumn sets the primary key column used for the default order.
// Default is Id.
func WithKeyColumn(column string) Option {
	return func(s *Session) {
		s.keyColumn = column
	}
}

// WithJSONColumn sets the column holding serialized documents. It is
// listed last in generated column lists. Default is JSON.
func WithJSONColumn(column string) Option {
	return func(s *Session) {
		s.jsonColumn = column
	}
}

// WithAliasGenerator shares an alias generator between sessions.
func WithAliasGenerator(g *AliasGenerator) Option {
	return func(s *Session) {
		s.aliases = g
	}
}

// NewSession creates a session. executor may be nil when the session is only
// used to render SQL.
func NewSession(executor Executor, opts ...Option) *Session {
	s := &Session{
		executor:   executor,
		schema:     "dbo",
		keyColumn:  "Id",
		jsonColumn: "JSON",
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.renderer == nil {
		s.renderer = mssql.New()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.aliases == nil {
		s.aliases = NewAliasGenerator("t")
	}
	if s.resolver == nil {
		s.resolver = DefaultTypeResolver{Catalog: s.catalog, KeyColumn: s.keyColumn}
	}
	return s
}

// Catalog returns the session catalog, which may be nil.
func (s *Session) Catalog() Catalog { return s.catalog }

// Executor returns the session executor, which may be nil.
func (s *Session) Executor() Executor { return s.executor }

// Logger returns the session logger.
func (s *Session) Logger() *slog.Logger { return s.logger }

// KeyColumn returns the primary key column name.
func (s *Session) KeyColumn() string { return s.keyColumn }

// JSONColumn returns the serialized document column name.
func (s *Session) JSONColumn() string { return s.jsonColumn }

// NextAlias returns a fresh table alias.
func (s *Session) NextAlias() string { return s.aliases.Next() }

// Query starts a builder over a table in the session schema.
func (s *Session) Query(table string) *Builder {
	return s.QueryIn(s.schema, table)
}

// QueryIn starts a builder over a table in the given schema.
func (s *Session) QueryIn(schema, table string) *Builder {
	b := &Builder{
		session: s,
		table:   table,
		from:    types.Table{Schema: schema, Name: table},
	}
	if table == "" {
		b.err = InvalidCompositionError{Operation: "Query", Reason: "table name cannot be empty"}
	}
	return b
}

// columns looks a table up in the catalog.
func (s *Session) columns(table string) ([]Column, bool) {
	if s.catalog == nil || table == "" {
		return nil, false
	}
	return s.catalog.Columns(table)
}
