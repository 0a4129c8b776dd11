// Package schema builds relq queries from declarative documents, so query
// shapes can live in YAML or JSON next to the code that runs them.
//
//	operation: select
//	table: Customer
//	alias: c
//	fields: [Id, Name]
//	where:
//	  - field: Region
//	    operator: "="
//	    param: region
//	order_by:
//	  - field: Name
//	take: 10
//
// Values are never embedded in the document. Conditions name a parameter
// whose value the caller supplies at build time, or carry a literal value.
package schema

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zoobzio/relq"
	"github.com/zoobzio/relq/mssql"
)

// Operation constants.
const (
	OpSelect = "select"
	OpCount  = "count"
	OpExists = "exists"
	OpDelete = "delete"
	OpPage   = "page"
)

// QuerySchema is a query in declarative form.
//
//nolint:govet // fieldalignment: Logical grouping is preferred for readability
type QuerySchema struct {
	Operation string            `json:"operation,omitempty" yaml:"operation,omitempty"`
	Schema    string            `json:"schema,omitempty" yaml:"schema,omitempty"`
	Table     string            `json:"table" yaml:"table"`
	Alias     string            `json:"alias,omitempty" yaml:"alias,omitempty"`
	Hints     []string          `json:"hints,omitempty" yaml:"hints,omitempty"`
	Joins     []JoinSchema      `json:"joins,omitempty" yaml:"joins,omitempty"`
	Fields    []string          `json:"fields,omitempty" yaml:"fields,omitempty"`
	Where     []ConditionSchema `json:"where,omitempty" yaml:"where,omitempty"`
	OrderBy   []OrderSchema     `json:"order_by,omitempty" yaml:"order_by,omitempty"`
	Take      *int              `json:"take,omitempty" yaml:"take,omitempty"`
	Skip      *int              `json:"skip,omitempty" yaml:"skip,omitempty"`
}

// ConditionSchema is one WHERE predicate. SQL is a trusted raw predicate;
// otherwise Field is compared with Operator against the parameter named by
// Param, the literal Value, or the literal Values.
type ConditionSchema struct {
	SQL      string `json:"sql,omitempty" yaml:"sql,omitempty"`
	Field    string `json:"field,omitempty" yaml:"field,omitempty"`
	Operator string `json:"operator,omitempty" yaml:"operator,omitempty"`
	Param    string `json:"param,omitempty" yaml:"param,omitempty"`
	Value    any    `json:"value,omitempty" yaml:"value,omitempty"`
	Values   []any  `json:"values,omitempty" yaml:"values,omitempty"`
}

// OrderSchema is a sort key. Field may be qualified as alias.column.
type OrderSchema struct {
	Field     string `json:"field" yaml:"field"`
	Direction string `json:"direction,omitempty" yaml:"direction,omitempty"` // defaults to ASC
}

// JoinSchema is a JOIN clause.
type JoinSchema struct {
	Type  string     `json:"type" yaml:"type"` // "inner", "left", "left hash", "right", "full"
	Table string     `json:"table" yaml:"table"`
	Alias string     `json:"alias,omitempty" yaml:"alias,omitempty"`
	On    []OnSchema `json:"on" yaml:"on"`
}

// OnSchema compares a column of the left-most source with a column of the
// joined source. Either side may be qualified as alias.column.
type OnSchema struct {
	Left     string `json:"left" yaml:"left"`
	Operator string `json:"operator,omitempty" yaml:"operator,omitempty"` // defaults to =
	Right    string `json:"right" yaml:"right"`
}

var operators = map[string]relq.Operand{
	"=":                relq.Equal,
	"==":               relq.Equal,
	"!=":               relq.NotEqual,
	"<>":               relq.NotEqual,
	"<":                relq.LessThan,
	"<=":               relq.LessThanOrEqual,
	">":                relq.GreaterThan,
	">=":               relq.GreaterThanOrEqual,
	"contains":         relq.Contains,
	"not contains":     relq.NotContains,
	"starts with":      relq.StartsWith,
	"not starts with":  relq.NotStartsWith,
	"ends with":        relq.EndsWith,
	"not ends with":    relq.NotEndsWith,
	"pipe contains":    relq.PipeContains,
	"in":               relq.In,
	"not in":           relq.NotIn,
	"between":          relq.Between,
	"between or equal": relq.BetweenOrEqual,
}

var joinTypes = map[string]relq.JoinType{
	"inner":     relq.InnerJoin,
	"left":      relq.LeftJoin,
	"left hash": relq.LeftHashJoin,
	"right":     relq.RightJoin,
	"full":      relq.FullOuterJoin,
}

// ParseOperator resolves an operator symbol ("=", "<>"), phrase
// ("starts with", "not in") or operand name ("GreaterThanOrEqual").
func ParseOperator(s string) (relq.Operand, error) {
	key := strings.ToLower(strings.Join(strings.Fields(s), " "))
	if op, ok := operators[key]; ok {
		return op, nil
	}
	for op := relq.Equal; op <= relq.BetweenOrEqual; op++ {
		if strings.EqualFold(op.String(), strings.ReplaceAll(s, " ", "")) {
			return op, nil
		}
	}
	return 0, fmt.Errorf("unsupported operator: %s", s)
}

// Parse decodes a YAML or JSON document.
func Parse(data []byte) (*QuerySchema, error) {
	var q QuerySchema
	if err := yaml.Unmarshal(data, &q); err != nil {
		return nil, fmt.Errorf("parse query schema: %w", err)
	}
	return &q, nil
}

// BuildFromSchema converts a QuerySchema to a builder on s. params supplies
// the values of conditions that reference a parameter.
func BuildFromSchema(s *relq.Session, q *QuerySchema, params map[string]any) (*relq.Builder, error) {
	if q == nil {
		return nil, fmt.Errorf("schema is required")
	}
	if q.Table == "" {
		return nil, fmt.Errorf("table is required")
	}
	if _, err := operation(q); err != nil {
		return nil, err
	}

	b := source(s, q.Schema, q.Table, q.Alias)
	for _, hint := range q.Hints {
		b = b.Hint(hint)
	}

	for i := range q.Joins {
		join := &q.Joins[i]
		kind, ok := joinTypes[strings.ToLower(strings.Join(strings.Fields(join.Type), " "))]
		if !ok {
			return nil, fmt.Errorf("unsupported join type: %s", join.Type)
		}
		if join.Table == "" {
			return nil, fmt.Errorf("join %d: table is required", i)
		}
		if len(join.On) == 0 {
			return nil, fmt.Errorf("join %s: at least one on condition is required", join.Table)
		}
		b = b.Join(source(s, q.Schema, join.Table, join.Alias), kind)
		for _, on := range join.On {
			op := relq.Equal
			if on.Operator != "" {
				var err error
				if op, err = ParseOperator(on.Operator); err != nil {
					return nil, fmt.Errorf("join %s: %w", join.Table, err)
				}
			}
			b = b.OnColumns(column(on.Left), op, column(on.Right))
		}
	}

	for _, f := range q.Fields {
		ref := column(f)
		b = b.ColumnFrom(ref.TableAlias, ref.Name)
	}

	for i := range q.Where {
		var err error
		if b, err = where(b, &q.Where[i], params); err != nil {
			return nil, fmt.Errorf("where %d: %w", i, err)
		}
	}

	for _, order := range q.OrderBy {
		if order.Field == "" {
			return nil, fmt.Errorf("order by field is required")
		}
		desc := false
		switch strings.ToLower(order.Direction) {
		case "", "asc":
		case "desc":
			desc = true
		default:
			return nil, fmt.Errorf("invalid order direction: %s", order.Direction)
		}
		b = b.OrderByColumn(column(order.Field), desc)
	}

	if q.Skip != nil && operationOf(q) != OpPage {
		b = b.Skip(*q.Skip)
	}
	if q.Take != nil && operationOf(q) != OpPage {
		b = b.Take(*q.Take)
	}

	return b, b.Err()
}

// Render builds q and renders the statement its operation names.
func Render(s *relq.Session, q *QuerySchema, params map[string]any) (*relq.Command, error) {
	b, err := BuildFromSchema(s, q, params)
	if err != nil {
		return nil, err
	}
	switch operationOf(q) {
	case OpCount:
		return b.RenderCount()
	case OpExists:
		return b.RenderAny()
	case OpDelete:
		return b.RenderDelete()
	case OpPage:
		if q.Skip == nil || q.Take == nil {
			return nil, fmt.Errorf("page requires skip and take")
		}
		return b.RenderPage(*q.Skip, *q.Take)
	}
	return b.Render()
}

func operationOf(q *QuerySchema) string {
	op, _ := operation(q)
	return op
}

func operation(q *QuerySchema) (string, error) {
	op := strings.ToLower(q.Operation)
	switch op {
	case "":
		return OpSelect, nil
	case OpSelect, OpCount, OpExists, OpDelete, OpPage:
		return op, nil
	}
	return "", fmt.Errorf("unsupported operation: %s", q.Operation)
}

func source(s *relq.Session, schemaName, table, alias string) *relq.Builder {
	var b *relq.Builder
	if schemaName != "" {
		b = s.QueryIn(schemaName, table)
	} else {
		b = s.Query(table)
	}
	if alias != "" {
		b = b.Alias(alias)
	}
	return b
}

// column splits alias.column.
func column(field string) relq.ColumnRef {
	if alias, name, ok := strings.Cut(field, "."); ok {
		return relq.Col(alias, name)
	}
	return relq.ColumnRef{Name: field}
}

func where(b *relq.Builder, c *ConditionSchema, params map[string]any) (*relq.Builder, error) {
	if c.SQL != "" {
		if c.Field != "" {
			return nil, fmt.Errorf("sql and field are exclusive")
		}
		b = b.Where(c.SQL)
		for _, name := range mssql.Placeholders(c.SQL) {
			v, ok := lookup(params, name)
			if !ok {
				return nil, fmt.Errorf("missing value for parameter %s", name)
			}
			b = b.Parameter(name, v)
		}
		return b, nil
	}
	if c.Field == "" {
		return nil, fmt.Errorf("field is required")
	}
	if strings.Contains(c.Field, ".") {
		return nil, fmt.Errorf("where field %q cannot be qualified; alias the source instead", c.Field)
	}
	op, err := ParseOperator(c.Operator)
	if err != nil {
		return nil, err
	}

	var values []any
	switch {
	case c.Param != "":
		v, ok := params[c.Param]
		if !ok {
			return nil, fmt.Errorf("missing value for parameter %s", c.Param)
		}
		values = []any{v}
		if op == relq.Between || op == relq.BetweenOrEqual {
			if pair, ok := v.([]any); ok {
				values = pair
			}
		}
	case c.Values != nil:
		values = c.Values
	default:
		values = []any{c.Value}
	}
	return b.WhereOp(c.Field, op, values...), nil
}

// lookup finds the value for a placeholder, ignoring case as parameter names
// do.
func lookup(params map[string]any, name string) (any, bool) {
	if v, ok := params[name]; ok {
		return v, true
	}
	for k, v := range params {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return nil, false
}
