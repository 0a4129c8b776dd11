package relq

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/zoobzio/relq/internal/types"
)

// Parameters is an immutable, ordered set of named values.
// Names compare case-insensitively. A nil *Parameters is an empty set.
type Parameters struct {
	keys   []string
	names  map[string]string
	values map[string]any
}

// Len returns the number of bound parameters.
func (p *Parameters) Len() int {
	if p == nil {
		return 0
	}
	return len(p.keys)
}

// Get returns the value bound to name.
func (p *Parameters) Get(name string) (any, bool) {
	if p == nil {
		return nil, false
	}
	v, ok := p.values[types.ParamKey(name)]
	return v, ok
}

// Has reports whether name is bound.
func (p *Parameters) Has(name string) bool {
	_, ok := p.Get(name)
	return ok
}

// Names returns the bound names in binding order, spelled as first bound.
func (p *Parameters) Names() []string {
	if p == nil {
		return nil
	}
	names := make([]string, len(p.keys))
	for i, k := range p.keys {
		names[i] = p.names[k]
	}
	return names
}

// With returns a copy of the set with name bound to value. Binding a name
// that already holds a different value fails with ParameterCollisionError.
func (p *Parameters) With(name string, value any) (*Parameters, error) {
	name = strings.TrimPrefix(name, "@")
	if !types.IsValidParamName(name) {
		return nil, fmt.Errorf("invalid parameter name %q", name)
	}
	if existing, ok := p.Get(name); ok {
		if !sameValue(existing, value) {
			return nil, ParameterCollisionError{Name: name, Existing: existing, Incoming: value}
		}
		return p, nil
	}

	next := p.copy()
	next.add(name, value)
	return next, nil
}

// withAll binds several values on one copy, naming each with UniqueName so
// the names never collide.
func (p *Parameters) withAll(names []string, values []any) (*Parameters, []string) {
	next := p.copy()
	bound := make([]string, len(names))
	for i, name := range names {
		bound[i] = next.UniqueName(name)
		next.add(bound[i], values[i])
	}
	return next, bound
}

// add binds name in place. Only called on a fresh copy.
func (p *Parameters) add(name string, value any) {
	key := types.ParamKey(name)
	p.keys = append(p.keys, key)
	p.names[key] = name
	p.values[key] = value
}

// Merge returns the union of both sets, rejecting names bound to different
// values on each side.
func (p *Parameters) Merge(other *Parameters) (*Parameters, error) {
	if other.Len() == 0 {
		return p, nil
	}
	if p.Len() == 0 {
		return other, nil
	}
	merged := p
	for _, key := range other.keys {
		var err error
		merged, err = merged.With(other.names[key], other.values[key])
		if err != nil {
			return nil, err
		}
	}
	return merged, nil
}

// UniqueName returns base if it is unbound, otherwise the first free
// base_1, base_2, ...
func (p *Parameters) UniqueName(base string) string {
	if !p.Has(base) {
		return base
	}
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s_%d", base, n)
		if !p.Has(candidate) {
			return candidate
		}
	}
}

func (p *Parameters) copy() *Parameters {
	next := &Parameters{
		names:  make(map[string]string, p.Len()+1),
		values: make(map[string]any, p.Len()+1),
	}
	if p == nil {
		return next
	}
	next.keys = append(make([]string, 0, len(p.keys)+1), p.keys...)
	for k, v := range p.names {
		next.names[k] = v
	}
	for k, v := range p.values {
		next.values[k] = v
	}
	return next
}

func sameValue(a, b any) bool {
	return reflect.DeepEqual(a, b)
}

// ParameterName derives a parameter name from a column name: lower-cased,
// keeping only letters, digits and underscores.
func ParameterName(column string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(column) {
		if r == '_' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
		}
	}
	name := sb.String()
	if name == "" || (name[0] >= '0' && name[0] <= '9') {
		name = "p" + name
	}
	return name
}
