// Package catalog provides relq.Catalog implementations backed by memory,
// DBML projects and YAML documents.
package catalog

import (
	"sort"
	"strings"
	"sync"

	"github.com/zoobzio/relq"
)

// Static is an in-memory catalog. Table names compare case-insensitively.
// It is safe for concurrent use.
type Static struct {
	mu     sync.RWMutex
	tables map[string]table
}

type table struct {
	name    string
	columns []relq.Column
}

// New creates an empty catalog.
func New() *Static {
	return &Static{tables: make(map[string]table)}
}

// Set registers or replaces the columns of a table, in declared order.
func (s *Static) Set(name string, columns ...relq.Column) *Static {
	cols := make([]relq.Column, len(columns))
	copy(cols, columns)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[strings.ToLower(name)] = table{name: name, columns: cols}
	return s
}

// Columns implements relq.Catalog.
func (s *Static) Columns(name string) ([]relq.Column, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tables[strings.ToLower(name)]
	if !ok {
		return nil, false
	}
	cols := make([]relq.Column, len(t.columns))
	copy(cols, t.columns)
	return cols, true
}

// Tables returns the registered table names, sorted.
func (s *Static) Tables() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.tables))
	for _, t := range s.tables {
		names = append(names, t.name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered tables.
func (s *Static) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tables)
}

// Chain consults each catalog in turn and returns the first hit.
type Chain []relq.Catalog

// Columns implements relq.Catalog.
func (c Chain) Columns(name string) ([]relq.Column, bool) {
	for _, cat := range c {
		if cat == nil {
			continue
		}
		if cols, ok := cat.Columns(name); ok {
			return cols, true
		}
	}
	return nil, false
}
