package relq

import "strings"

// Column describes a catalog column. MaxLength is zero when unknown or
// unbounded; Unique is set for primary key and unique constraint columns.
type Column struct {
	Name      string
	MaxLength int
	Unique    bool
}

// Catalog answers which columns a table or view has, in declared order.
// Lookups are synchronous; implementations backed by a database load ahead
// of time.
type Catalog interface {
	Columns(table string) ([]Column, bool)
}

// ColumnNames returns the names of cols with the JSON column moved last.
func ColumnNames(cols []Column, jsonColumn string) []string {
	names := make([]string, 0, len(cols))
	var json string
	for _, c := range cols {
		if jsonColumn != "" && strings.EqualFold(c.Name, jsonColumn) {
			json = c.Name
			continue
		}
		names = append(names, c.Name)
	}
	if json != "" {
		names = append(names, json)
	}
	return names
}

// FindColumn looks a column up by name, ignoring case.
func FindColumn(cols []Column, name string) (Column, bool) {
	for _, c := range cols {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return Column{}, false
}
