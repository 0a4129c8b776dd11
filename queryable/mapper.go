package queryable

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/zoobzio/relq"
)

// Mapper turns a result row into a T.
type Mapper[T any] interface {
	Map(rec relq.Record) (T, error)
}

// MapperFunc adapts a function to Mapper.
type MapperFunc[T any] func(rec relq.Record) (T, error)

// Map implements Mapper.
func (f MapperFunc[T]) Map(rec relq.Record) (T, error) {
	return f(rec)
}

// JSONMapper decodes the serialized document column into T. Rows without
// the column are decoded from their remaining columns, matched to fields by
// name.
type JSONMapper[T any] struct {
	Column string
}

// Map implements Mapper.
func (m JSONMapper[T]) Map(rec relq.Record) (T, error) {
	var out T
	if err := decode(rec, m.Column, &out); err != nil {
		return out, err
	}
	return out, nil
}

// Discriminated decodes each row into the shape registered for the value of
// its discriminator column. Each factory returns a pointer to a fresh value
// of one concrete type implementing T.
func Discriminated[T any](column, jsonColumn string, shapes map[string]func() T) Mapper[T] {
	return MapperFunc[T](func(rec relq.Record) (T, error) {
		var zero T
		raw, ok := lookup(rec, column)
		if !ok || raw == nil {
			return zero, fmt.Errorf("row has no %s discriminator", column)
		}
		kind := text(raw)
		factory, ok := shapes[kind]
		if !ok {
			return zero, fmt.Errorf("no shape registered for %s %q", column, kind)
		}
		target := factory()
		if err := decode(rec, jsonColumn, target); err != nil {
			return zero, fmt.Errorf("decode %s %q: %w", column, kind, err)
		}
		return target, nil
	})
}

func decode(rec relq.Record, jsonColumn string, dst any) error {
	if jsonColumn != "" {
		if raw, ok := lookup(rec, jsonColumn); ok && raw != nil {
			return json.Unmarshal([]byte(text(raw)), dst)
		}
	}
	data, err := json.Marshal(map[string]any(rec))
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}

func lookup(rec relq.Record, column string) (any, bool) {
	if v, ok := rec[column]; ok {
		return v, true
	}
	for k, v := range rec {
		if strings.EqualFold(k, column) {
			return v, true
		}
	}
	return nil, false
}

func text(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	}
	return fmt.Sprint(v)
}
