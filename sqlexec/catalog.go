package sqlexec

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/zoobzio/relq"
	"github.com/zoobzio/relq/catalog"
)

// Catalog reads column metadata from INFORMATION_SCHEMA. It answers lookups
// from the last successful Load; concurrent loads share one round trip.
type Catalog struct {
	db     *DB
	schema string
	group  singleflight.Group
	loaded atomic.Pointer[catalog.Static]
}

var _ relq.Catalog = (*Catalog)(nil)

// NewCatalog creates a catalog of the tables in schema.
func NewCatalog(db *DB, schema string) *Catalog {
	if schema == "" {
		schema = DefaultSchema
	}
	return &Catalog{db: db, schema: schema}
}

// Columns implements relq.Catalog. It reports false until Load succeeds.
func (c *Catalog) Columns(table string) ([]relq.Column, bool) {
	s := c.loaded.Load()
	if s == nil {
		return nil, false
	}
	return s.Columns(table)
}

// Static returns the last loaded snapshot, or nil.
func (c *Catalog) Static() *catalog.Static {
	return c.loaded.Load()
}

// Load reads columns, lengths and unique constraints for the schema,
// replacing the previous snapshot.
func (c *Catalog) Load(ctx context.Context) (*catalog.Static, error) {
	v, err, _ := c.group.Do(c.schema, func() (any, error) {
		s, err := c.fetch(ctx)
		if err != nil {
			return nil, err
		}
		c.loaded.Store(s)
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*catalog.Static), nil
}

func (c *Catalog) session() *relq.Session {
	return relq.NewSession(c.db, relq.WithKeyColumn(""), relq.WithLogger(c.db.logger))
}

// ColumnsQuery lists the columns of schema in declared order.
func (c *Catalog) ColumnsQuery() *relq.Builder {
	return c.session().QueryIn("INFORMATION_SCHEMA", "COLUMNS").
		Column("TABLE_NAME").
		Column("COLUMN_NAME").
		Column("CHARACTER_MAXIMUM_LENGTH").
		WhereOp("TABLE_SCHEMA", relq.Equal, c.schema).
		OrderBy("TABLE_NAME").
		OrderBy("ORDINAL_POSITION")
}

// UniqueQuery lists the columns of primary key and unique constraints.
func (c *Catalog) UniqueQuery() *relq.Builder {
	s := c.session()
	return s.QueryIn("INFORMATION_SCHEMA", "KEY_COLUMN_USAGE").Alias("k").
		Join(s.QueryIn("INFORMATION_SCHEMA", "TABLE_CONSTRAINTS").Alias("tc"), relq.InnerJoin).
		On("CONSTRAINT_SCHEMA", relq.Equal, "CONSTRAINT_SCHEMA").
		On("CONSTRAINT_NAME", relq.Equal, "CONSTRAINT_NAME").
		Column("TABLE_NAME").
		Column("COLUMN_NAME").
		WhereOp("TABLE_SCHEMA", relq.Equal, c.schema).
		Where("tc.[CONSTRAINT_TYPE] IN ('PRIMARY KEY', 'UNIQUE')")
}

func (c *Catalog) fetch(ctx context.Context) (*catalog.Static, error) {
	var columns, unique []relq.Record
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		columns, err = c.ColumnsQuery().ToList(gctx)
		if err != nil {
			return fmt.Errorf("load columns: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		unique, err = c.UniqueQuery().ToList(gctx)
		if err != nil {
			return fmt.Errorf("load unique constraints: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	keys := make(map[string]bool, len(unique))
	for _, rec := range unique {
		keys[strings.ToLower(str(rec["TABLE_NAME"])+"."+str(rec["COLUMN_NAME"]))] = true
	}

	var order []string
	tables := make(map[string][]relq.Column)
	for _, rec := range columns {
		table, name := str(rec["TABLE_NAME"]), str(rec["COLUMN_NAME"])
		if table == "" || name == "" {
			continue
		}
		if _, ok := tables[table]; !ok {
			order = append(order, table)
		}
		tables[table] = append(tables[table], relq.Column{
			Name:      name,
			MaxLength: max(number(rec["CHARACTER_MAXIMUM_LENGTH"]), 0),
			Unique:    keys[strings.ToLower(table+"."+name)],
		})
	}

	s := catalog.New()
	for _, table := range order {
		s.Set(table, tables[table]...)
	}
	c.db.logger.DebugContext(ctx, "catalog loaded", slog.String("schema", c.schema), slog.Int("tables", len(order)))
	return s, nil
}

func str(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	case nil:
		return ""
	}
	return fmt.Sprint(v)
}

// number reads an integer column; NULL and unparsable values are zero. A
// length of -1 marks MAX columns.
func number(v any) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int32:
		return int(n)
	case int:
		return n
	case float64:
		return int(n)
	case []byte:
		i, _ := strconv.Atoi(string(n))
		return i
	case string:
		i, _ := strconv.Atoi(n)
		return i
	}
	return 0
}
