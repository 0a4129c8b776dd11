package catalog

import (
	"fmt"
	"strings"

	"github.com/zoobzio/dbml"

	"github.com/zoobzio/relq"
)

// DBMLOption configures FromDBML.
type DBMLOption func(*dbmlConfig)

type dbmlConfig struct {
	keyColumn string
	keyLength int
	lengths   map[string]int
}

// WithKey marks name as the unique key column of every table and sizes it.
func WithKey(name string, maxLength int) DBMLOption {
	return func(c *dbmlConfig) {
		c.keyColumn = name
		c.keyLength = maxLength
	}
}

// WithLength sets the MaxLength of table.column. DBML types carry no
// length the catalog can rely on.
func WithLength(table, column string, maxLength int) DBMLOption {
	return func(c *dbmlConfig) {
		c.lengths[strings.ToLower(table+"."+column)] = maxLength
	}
}

// FromDBML builds a catalog from the tables of a DBML project.
func FromDBML(project *dbml.Project, opts ...DBMLOption) (*Static, error) {
	if project == nil {
		return nil, fmt.Errorf("project cannot be nil")
	}
	cfg := &dbmlConfig{lengths: make(map[string]int)}
	for _, opt := range opts {
		opt(cfg)
	}

	cat := New()
	for _, t := range project.Tables {
		if t == nil || t.Name == "" {
			continue
		}
		cols := make([]relq.Column, 0, len(t.Columns))
		for _, col := range t.Columns {
			if col == nil {
				continue
			}
			c := relq.Column{Name: col.Name}
			if cfg.keyColumn != "" && strings.EqualFold(col.Name, cfg.keyColumn) {
				c.Unique = true
				c.MaxLength = cfg.keyLength
			}
			if n, ok := cfg.lengths[strings.ToLower(t.Name+"."+col.Name)]; ok {
				c.MaxLength = n
			}
			cols = append(cols, c)
		}
		cat.Set(t.Name, cols...)
	}
	return cat, nil
}
