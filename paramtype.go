package relq

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// DBType is the database type a parameter is sent as.
type DBType int

const (
	DBTypeUnknown DBType = iota
	DBTypeString
	DBTypeAnsiString
	DBTypeBoolean
	DBTypeInt32
	DBTypeInt64
	DBTypeDouble
	DBTypeDateTime
	DBTypeGuid
	DBTypeBinary
)

var dbTypeNames = [...]string{
	DBTypeUnknown:    "Unknown",
	DBTypeString:     "String",
	DBTypeAnsiString: "AnsiString",
	DBTypeBoolean:    "Boolean",
	DBTypeInt32:      "Int32",
	DBTypeInt64:      "Int64",
	DBTypeDouble:     "Double",
	DBTypeDateTime:   "DateTime",
	DBTypeGuid:       "Guid",
	DBTypeBinary:     "Binary",
}

func (t DBType) String() string {
	if int(t) < len(dbTypeNames) {
		return dbTypeNames[t]
	}
	return "Unknown"
}

// Parameter is a bound value ready for an Executor.
type Parameter struct {
	Name  string
	Value any
	Type  DBType
	Size  int
}

// TypeResolver maps a bound value to the database type it is sent as.
// table is the builder's primary table, empty for derived sources.
type TypeResolver interface {
	Resolve(table, name string, value any) Parameter
}

// TypeOf maps a Go value onto a database type.
func TypeOf(value any) DBType {
	switch value.(type) {
	case string, *string:
		return DBTypeString
	case bool, *bool:
		return DBTypeBoolean
	case int8, int16, int32, uint8, uint16:
		return DBTypeInt32
	case int, int64, uint, uint32, uint64, *int, *int64:
		return DBTypeInt64
	case float32, float64, *float64:
		return DBTypeDouble
	case time.Time, *time.Time:
		return DBTypeDateTime
	case uuid.UUID, *uuid.UUID:
		return DBTypeGuid
	case []byte:
		return DBTypeBinary
	}
	return DBTypeUnknown
}

// DefaultTypeResolver types parameters with TypeOf and sizes string key
// parameters (id, id0, id_1, ...) from the catalog's key column so SQL Server
// can reuse one plan for every key lookup.
type DefaultTypeResolver struct {
	Catalog   Catalog
	KeyColumn string
}

// Resolve implements TypeResolver.
func (r DefaultTypeResolver) Resolve(table, name string, value any) Parameter {
	p := Parameter{Name: name, Value: value, Type: TypeOf(value)}
	if p.Type != DBTypeString || r.Catalog == nil || table == "" || !r.isKeyParameter(name) {
		return p
	}
	cols, ok := r.Catalog.Columns(table)
	if !ok {
		return p
	}
	if key, ok := FindColumn(cols, r.KeyColumn); ok && key.MaxLength > 0 {
		p.Size = key.MaxLength
	}
	return p
}

func (r DefaultTypeResolver) isKeyParameter(name string) bool {
	key := ParameterName(r.KeyColumn)
	n := strings.ToLower(strings.TrimPrefix(name, "@"))
	if !strings.HasPrefix(n, key) {
		return false
	}
	rest := strings.TrimPrefix(strings.TrimPrefix(n, key), "_")
	for _, c := range rest {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
