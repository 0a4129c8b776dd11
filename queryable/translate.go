package queryable

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/zoobzio/relq"
	"github.com/zoobzio/relq/expr"
)

var comparisons = map[expr.BinaryOp]relq.Operand{
	expr.Eq: relq.Equal,
	expr.Ne: relq.NotEqual,
	expr.Lt: relq.LessThan,
	expr.Le: relq.LessThanOrEqual,
	expr.Gt: relq.GreaterThan,
	expr.Ge: relq.GreaterThanOrEqual,
}

func unsupported(e expr.Expr, reason string) error {
	return relq.UnsupportedExpressionError{Expression: e.String(), Reason: reason}
}

// translate appends the predicate e, or its negation, to b.
func (q *Queryable[T]) translate(b *relq.Builder, e expr.Expr, negate bool) (*relq.Builder, error) {
	switch n := e.(type) {
	case expr.Not:
		return q.translate(b, n.Operand, !negate)

	case expr.Binary:
		switch {
		case n.Op == expr.And && !negate:
			b, err := q.translate(b, n.Left, false)
			if err != nil {
				return nil, err
			}
			return q.translate(b, n.Right, false)
		case n.Op == expr.And:
			return nil, unsupported(expr.Negate(n), "negated conjunctions need OR")
		case n.Op == expr.Or:
			return nil, unsupported(n, "OR is not supported, use a raw WhereSQL predicate")
		}
		return q.comparison(b, n, negate)

	case expr.Member:
		return q.compare(b, n, relq.Equal, !negate, n)

	case expr.Constant:
		v, ok := n.Value.(bool)
		if !ok {
			return nil, unsupported(n, "constant predicates must be booleans")
		}
		if v != negate {
			return b, nil
		}
		return q.where(b, "0 = 1")

	case expr.Call:
		return q.call(b, n, negate)

	case nil:
		return nil, relq.UnsupportedExpressionError{Expression: "<nil>", Reason: "missing predicate"}
	}
	return nil, unsupported(e, fmt.Sprintf("unknown expression %T", e))
}

func (q *Queryable[T]) comparison(b *relq.Builder, n expr.Binary, negate bool) (*relq.Builder, error) {
	op := n.Op
	member, ok := n.Left.(expr.Member)
	value, vok := n.Right.(expr.Constant)
	if !ok || !vok {
		member, ok = n.Right.(expr.Member)
		value, vok = n.Left.(expr.Constant)
		op = op.Flip()
	}
	if !ok || !vok {
		return nil, unsupported(n, "comparisons need one member and one constant")
	}

	operand, ok := comparisons[op]
	if !ok {
		return nil, unsupported(n, "unknown comparison "+op.String())
	}
	if negate {
		operand, _ = operand.Negate()
	}
	return q.compare(b, member, operand, value.Value, n)
}

// compare filters a column directly, falling back to a LIKE over the JSON
// document for members stored only inside it.
func (q *Queryable[T]) compare(b *relq.Builder, m expr.Member, operand relq.Operand, value any, src expr.Expr) (*relq.Builder, error) {
	if q.isColumn(m) {
		nb := b.WhereOp(m.Leaf(), operand, value)
		return nb, nb.Err()
	}
	if operand != relq.Equal && operand != relq.NotEqual {
		return nil, unsupported(src, "ordering comparisons need a column")
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, unsupported(src, err.Error())
	}
	pattern := "%" + relq.LikeEscape(`"`+m.Leaf()+`":`+string(data)) + "%"
	return q.jsonLike(b, pattern, operand == relq.NotEqual, src)
}

func (q *Queryable[T]) call(b *relq.Builder, c expr.Call, negate bool) (*relq.Builder, error) {
	if len(c.Args) != 1 {
		return nil, unsupported(c, "expected exactly one argument")
	}

	if list, ok := c.Target.(expr.List); ok {
		member, ok := c.Args[0].(expr.Member)
		if !ok || c.Method != expr.Contains {
			return nil, unsupported(c, "list tests need a member argument")
		}
		if !q.isColumn(member) {
			return nil, unsupported(c, "IN needs a column")
		}
		op := relq.In
		if negate {
			op = relq.NotIn
		}
		nb := b.WhereOp(member.Leaf(), op, list.Values...)
		return nb, nb.Err()
	}

	member, ok := c.Target.(expr.Member)
	if !ok {
		return nil, unsupported(c, "method target must be a member")
	}
	arg, ok := c.Args[0].(expr.Constant)
	if !ok {
		return nil, unsupported(c, "method argument must be a constant")
	}

	if c.Method == expr.Contains && q.isPiped(member) {
		if negate {
			return nil, unsupported(expr.Negate(c), "negated piped membership")
		}
		nb := b.WhereOp(member.Leaf(), relq.PipeContains, text(arg.Value))
		return nb, nb.Err()
	}

	if q.isColumn(member) {
		s, ok := arg.Value.(string)
		if !ok {
			return nil, unsupported(c, "string methods need a string argument")
		}
		op := map[expr.Method]relq.Operand{
			expr.Contains:   relq.Contains,
			expr.StartsWith: relq.StartsWith,
			expr.EndsWith:   relq.EndsWith,
		}[c.Method]
		if negate {
			op, _ = op.Negate()
		}
		nb := b.WhereOp(member.Leaf(), op, s)
		return nb, nb.Err()
	}

	pattern, err := jsonMethodPattern(c.Method, member.Leaf(), arg.Value)
	if err != nil {
		return nil, unsupported(c, err.Error())
	}
	return q.jsonLike(b, pattern, negate, c)
}

// jsonMethodPattern matches a property inside the serialized document:
// collection membership as "Leaf":[...v...], prefixes and suffixes inside
// the quoted string value.
func jsonMethodPattern(method expr.Method, leaf string, value any) (string, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	key := relq.LikeEscape(`"` + leaf + `":`)
	switch method {
	case expr.Contains:
		return "%" + key + relq.LikeEscape("[") + "%" + relq.LikeEscape(string(data)) + "%" + relq.LikeEscape("]") + "%", nil
	case expr.StartsWith, expr.EndsWith:
		s, ok := value.(string)
		if !ok {
			return "", fmt.Errorf("%s needs a string argument", method)
		}
		quoted, _ := json.Marshal(s)
		inner := relq.LikeEscape(string(quoted[1 : len(quoted)-1]))
		if method == expr.StartsWith {
			return "%" + key + `"` + inner + "%", nil
		}
		return "%" + key + `"%` + inner + `"%`, nil
	}
	return "", fmt.Errorf("unknown method %s", method)
}

func (q *Queryable[T]) jsonLike(b *relq.Builder, pattern string, not bool, src expr.Expr) (*relq.Builder, error) {
	column := q.session.JSONColumn()
	if column == "" {
		return nil, unsupported(src, "member is not a column and no JSON column is configured")
	}
	name := b.Parameters().UniqueName(relq.ParameterName(column))
	op := "LIKE"
	if not {
		op = "NOT LIKE"
	}
	quoted := "[" + strings.ReplaceAll(column, "]", "]]") + "]"
	nb := b.Where(quoted + " " + op + " @" + name).Parameter(name, pattern)
	return nb, nb.Err()
}

func (q *Queryable[T]) where(b *relq.Builder, sql string) (*relq.Builder, error) {
	nb := b.Where(sql)
	return nb, nb.Err()
}

// isColumn reports whether m names a column of the table. Without catalog
// metadata every top-level member is assumed to be one.
func (q *Queryable[T]) isColumn(m expr.Member) bool {
	if m.Nested() || m.Leaf() == "" {
		return false
	}
	if jc := q.session.JSONColumn(); jc != "" && strings.EqualFold(m.Leaf(), jc) {
		return true
	}
	cat := q.session.Catalog()
	if cat == nil {
		return true
	}
	cols, ok := cat.Columns(q.cfg.table)
	if !ok {
		return true
	}
	_, ok = relq.FindColumn(cols, m.Leaf())
	return ok
}

func (q *Queryable[T]) isPiped(m expr.Member) bool {
	return !m.Nested() && q.cfg.piped[strings.ToLower(m.Leaf())]
}
