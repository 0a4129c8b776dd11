package relq

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/zoobzio/relq/internal/types"
)

// Operand selects how WhereOp compares a column with its values.
type Operand int

const (
	Equal Operand = iota
	NotEqual
	LessThan
	LessThanOrEqual
	GreaterThan
	GreaterThanOrEqual
	Contains
	NotContains
	StartsWith
	NotStartsWith
	EndsWith
	NotEndsWith
	PipeContains
	In
	NotIn
	Between
	BetweenOrEqual
)

var operandNames = map[Operand]string{
	Equal:              "Equal",
	NotEqual:           "NotEqual",
	LessThan:           "LessThan",
	LessThanOrEqual:    "LessThanOrEqual",
	GreaterThan:        "GreaterThan",
	GreaterThanOrEqual: "GreaterThanOrEqual",
	Contains:           "Contains",
	NotContains:        "NotContains",
	StartsWith:         "StartsWith",
	NotStartsWith:      "NotStartsWith",
	EndsWith:           "EndsWith",
	NotEndsWith:        "NotEndsWith",
	PipeContains:       "PipeContains",
	In:                 "In",
	NotIn:              "NotIn",
	Between:            "Between",
	BetweenOrEqual:     "BetweenOrEqual",
}

func (o Operand) String() string {
	if name, ok := operandNames[o]; ok {
		return name
	}
	return "Operand(" + strconv.Itoa(int(o)) + ")"
}

// Negate returns the operand matching the complement of o, if one exists.
func (o Operand) Negate() (Operand, bool) {
	switch o {
	case Equal:
		return NotEqual, true
	case NotEqual:
		return Equal, true
	case LessThan:
		return GreaterThanOrEqual, true
	case LessThanOrEqual:
		return GreaterThan, true
	case GreaterThan:
		return LessThanOrEqual, true
	case GreaterThanOrEqual:
		return LessThan, true
	case Contains:
		return NotContains, true
	case NotContains:
		return Contains, true
	case StartsWith:
		return NotStartsWith, true
	case NotStartsWith:
		return StartsWith, true
	case EndsWith:
		return NotEndsWith, true
	case NotEndsWith:
		return EndsWith, true
	case In:
		return NotIn, true
	case NotIn:
		return In, true
	}
	return o, false
}

// comparison maps the scalar comparison operands onto SQL operators.
func (o Operand) comparison() (types.Operator, bool) {
	switch o {
	case Equal:
		return types.EQ, true
	case NotEqual:
		return types.NE, true
	case LessThan:
		return types.LT, true
	case LessThanOrEqual:
		return types.LE, true
	case GreaterThan:
		return types.GT, true
	case GreaterThanOrEqual:
		return types.GE, true
	}
	return "", false
}

// likePattern maps the LIKE operands onto their operator and pattern builder.
func (o Operand) likePattern() (types.Operator, func(string) string, bool) {
	switch o {
	case Contains:
		return types.LIKE, LikeContains, true
	case NotContains:
		return types.NotLike, LikeContains, true
	case StartsWith:
		return types.LIKE, LikeStartsWith, true
	case NotStartsWith:
		return types.NotLike, LikeStartsWith, true
	case EndsWith:
		return types.LIKE, LikeEndsWith, true
	case NotEndsWith:
		return types.NotLike, LikeEndsWith, true
	case PipeContains:
		return types.LIKE, LikePiped, true
	}
	return "", nil, false
}

// buildCondition turns a structured where into predicates, binding the
// parameters it needs into params.
func buildCondition(params *Parameters, column string, op Operand, values []any) ([]types.Predicate, *Parameters, error) {
	if column == "" {
		return nil, nil, fmt.Errorf("where: column name cannot be empty")
	}
	ref := types.ColumnRef{Name: column}
	base := ParameterName(column)

	bind := func(name string, value any) (types.Param, error) {
		name = params.UniqueName(name)
		var err error
		params, err = params.With(name, value)
		return types.Param{Name: name}, err
	}

	if sqlOp, ok := op.comparison(); ok {
		if len(values) != 1 {
			return nil, nil, arityError(op, 1, len(values))
		}
		if values[0] == nil {
			switch op {
			case Equal:
				return []types.Predicate{types.Condition{Column: ref, Operator: types.IsNull}}, params, nil
			case NotEqual:
				return []types.Predicate{types.Condition{Column: ref, Operator: types.IsNotNull}}, params, nil
			}
			return nil, nil, fmt.Errorf("where: %s cannot compare [%s] with NULL", op, column)
		}
		p, err := bind(base, values[0])
		if err != nil {
			return nil, nil, err
		}
		return []types.Predicate{types.Condition{Column: ref, Operator: sqlOp, Params: []types.Param{p}}}, params, nil
	}

	if sqlOp, pattern, ok := op.likePattern(); ok {
		if len(values) != 1 {
			return nil, nil, arityError(op, 1, len(values))
		}
		s, ok := values[0].(string)
		if !ok {
			return nil, nil, fmt.Errorf("where: %s on [%s] requires a string, got %T", op, column, values[0])
		}
		p, err := bind(base, pattern(s))
		if err != nil {
			return nil, nil, err
		}
		return []types.Predicate{types.Condition{Column: ref, Operator: sqlOp, Params: []types.Param{p}}}, params, nil
	}

	switch op {
	case In, NotIn:
		list := expandValues(values)
		if len(list) == 0 {
			if op == In {
				return []types.Predicate{types.False}, params, nil
			}
			return []types.Predicate{types.True}, params, nil
		}
		names := make([]string, len(list))
		for i := range list {
			names[i] = base + strconv.Itoa(i)
		}
		var bound []string
		params, bound = params.withAll(names, list)
		refs := make([]types.Param, len(bound))
		for i, name := range bound {
			refs[i] = types.Param{Name: name}
		}
		sqlOp := types.IN
		if op == NotIn {
			sqlOp = types.NotIn
		}
		return []types.Predicate{types.Condition{Column: ref, Operator: sqlOp, Params: refs}}, params, nil

	case Between, BetweenOrEqual:
		if len(values) != 2 {
			return nil, nil, arityError(op, 2, len(values))
		}
		start, err := bind("startvalue", values[0])
		if err != nil {
			return nil, nil, err
		}
		end, err := bind("endvalue", values[1])
		if err != nil {
			return nil, nil, err
		}
		if op == Between {
			return []types.Predicate{types.Condition{Column: ref, Operator: types.Between, Params: []types.Param{start, end}}}, params, nil
		}
		return []types.Predicate{
			types.Condition{Column: ref, Operator: types.GE, Params: []types.Param{start}},
			types.Condition{Column: ref, Operator: types.LE, Params: []types.Param{end}},
		}, params, nil
	}

	return nil, nil, fmt.Errorf("where: unknown operand %s", op)
}

// expandValues flattens a single slice argument into its elements, so both
// WhereOp(c, In, a, b) and WhereOp(c, In, []T{a, b}) work.
func expandValues(values []any) []any {
	if len(values) != 1 || values[0] == nil {
		return values
	}
	rv := reflect.ValueOf(values[0])
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return values
	}
	if rv.Type().Elem().Kind() == reflect.Uint8 {
		return values
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

func arityError(op Operand, want, got int) error {
	return fmt.Errorf("where: %s requires %d value(s), got %d", op, want, got)
}
