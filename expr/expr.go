// Package expr defines the predicate expression trees queryable translates
// into SQL. Trees are plain values built with the constructors in this
// package.
package expr

import (
	"fmt"
	"strings"
)

// Expr is a node of a predicate expression tree.
type Expr interface {
	String() string
	isExpr()
}

// Member reads a property of the row, possibly nested: Member{Path:
// []string{"Endpoint", "Name"}} is row.Endpoint.Name.
type Member struct {
	Path []string
}

// M returns a member expression for path.
func M(path ...string) Member {
	return Member{Path: path}
}

// Name returns the dotted path.
func (m Member) Name() string {
	return strings.Join(m.Path, ".")
}

// Leaf returns the last element of the path.
func (m Member) Leaf() string {
	if len(m.Path) == 0 {
		return ""
	}
	return m.Path[len(m.Path)-1]
}

// Nested reports whether the member reads through another member.
func (m Member) Nested() bool {
	return len(m.Path) > 1
}

func (m Member) String() string { return "x." + m.Name() }
func (Member) isExpr() {}

// Constant is a literal value.
type Constant struct {
	Value any
}

// C returns a constant expression.
func C(v any) Constant {
	return Constant{Value: v}
}

func (c Constant) String() string {
	if s, ok := c.Value.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	return fmt.Sprintf("%v", c.Value)
}
func (Constant) isExpr() {}

// List is a literal collection, the target of an In test.
type List struct {
	Values []any
}

// ListOf returns a list expression holding values.
func ListOf[T any](values ...T) List {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return List{Values: out}
}

func (l List) String() string {
	parts := make([]string, len(l.Values))
	for i, v := range l.Values {
		parts[i] = C(v).String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
func (List) isExpr() {}

// BinaryOp is the operator of a Binary expression.
type BinaryOp int

const (
	Eq BinaryOp = iota
	Ne
	Lt
	Le
	Gt
	Ge
	And
	Or
)

var binarySymbols = map[BinaryOp]string{
	Eq:  "==",
	Ne:  "!=",
	Lt:  "<",
	Le:  "<=",
	Gt:  ">",
	Ge:  ">=",
	And: "&&",
	Or:  "||",
}

func (op BinaryOp) String() string {
	if s, ok := binarySymbols[op]; ok {
		return s
	}
	return fmt.Sprintf("BinaryOp(%d)", int(op))
}

// IsComparison reports whether op compares two values.
func (op BinaryOp) IsComparison() bool {
	return op >= Eq && op <= Ge
}

// Flip returns the operator with its operands swapped: a < b is b > a.
func (op BinaryOp) Flip() BinaryOp {
	switch op {
	case Lt:
		return Gt
	case Le:
		return Ge
	case Gt:
		return Lt
	case Ge:
		return Le
	}
	return op
}

// Binary applies Op to Left and Right.
type Binary struct {
	Op    BinaryOp
	Left  Expr
	Right Expr
}

func (b Binary) String() string {
	return "(" + str(b.Left) + " " + b.Op.String() + " " + str(b.Right) + ")"
}
func (Binary) isExpr() {}

// Not negates Operand.
type Not struct {
	Operand Expr
}

func (n Not) String() string { return "!" + str(n.Operand) }
func (Not) isExpr() {}

// Method is the method a Call invokes.
type Method int

const (
	Contains Method = iota
	StartsWith
	EndsWith
)

var methodNames = map[Method]string{
	Contains:   "Contains",
	StartsWith: "StartsWith",
	EndsWith:   "EndsWith",
}

func (m Method) String() string {
	if s, ok := methodNames[m]; ok {
		return s
	}
	return fmt.Sprintf("Method(%d)", int(m))
}

// Call invokes Method on Target with Args.
type Call struct {
	Method Method
	Target Expr
	Args   []Expr
}

func (c Call) String() string {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = str(a)
	}
	return str(c.Target) + "." + c.Method.String() + "(" + strings.Join(args, ", ") + ")"
}
func (Call) isExpr() {}

func str(e Expr) string {
	if e == nil {
		return "<nil>"
	}
	return e.String()
}

func binary(op BinaryOp, left, right any) Binary {
	return Binary{Op: op, Left: lift(left), Right: lift(right)}
}

// lift wraps non-expression operands in a Constant.
func lift(v any) Expr {
	if e, ok := v.(Expr); ok {
		return e
	}
	return C(v)
}

// Equal returns left == right. Operands that are not expressions become
// constants.
func Equal(left, right any) Binary { return binary(Eq, left, right) }

// NotEqual returns left != right.
func NotEqual(left, right any) Binary { return binary(Ne, left, right) }

// Less returns left < right.
func Less(left, right any) Binary { return binary(Lt, left, right) }

// LessOrEqual returns left <= right.
func LessOrEqual(left, right any) Binary { return binary(Le, left, right) }

// Greater returns left > right.
func Greater(left, right any) Binary { return binary(Gt, left, right) }

// GreaterOrEqual returns left >= right.
func GreaterOrEqual(left, right any) Binary { return binary(Ge, left, right) }

// AndAll joins exprs with &&.
func AndAll(exprs ...Expr) Expr {
	return fold(And, exprs)
}

// OrAny joins exprs with ||.
func OrAny(exprs ...Expr) Expr {
	return fold(Or, exprs)
}

func fold(op BinaryOp, exprs []Expr) Expr {
	if len(exprs) == 0 {
		return C(op == And)
	}
	out := exprs[0]
	for _, e := range exprs[1:] {
		out = Binary{Op: op, Left: out, Right: e}
	}
	return out
}

// Negate returns !e.
func Negate(e Expr) Not {
	return Not{Operand: e}
}

// In returns list.Contains(member).
func In(member Member, list List) Call {
	return Call{Method: Contains, Target: list, Args: []Expr{member}}
}

// Has returns target.Contains(v), a substring test on string members and a
// membership test on collection members.
func Has(target Member, v any) Call {
	return Call{Method: Contains, Target: target, Args: []Expr{lift(v)}}
}

// HasPrefix returns target.StartsWith(prefix).
func HasPrefix(target Member, prefix string) Call {
	return Call{Method: StartsWith, Target: target, Args: []Expr{C(prefix)}}
}

// HasSuffix returns target.EndsWith(suffix).
func HasSuffix(target Member, suffix string) Call {
	return Call{Method: EndsWith, Target: target, Args: []Expr{C(suffix)}}
}
