package types

// Predicate is implemented by every node that can appear in a WHERE clause.
// Predicates on one select are always combined with AND.
type Predicate interface {
	IsPredicate() bool
}

// RawPredicate is trusted SQL text supplied by the caller.
type RawPredicate struct {
	SQL string
}

// IsPredicate implements Predicate.
func (RawPredicate) IsPredicate() bool { return true }

// Condition compares a column with bound parameters.
type Condition struct {
	Column   ColumnRef
	Operator Operator
	Params   []Param
}

// IsPredicate implements Predicate.
func (Condition) IsPredicate() bool { return true }

// ConstantPredicate is a fixed always-true or always-false condition.
type ConstantPredicate struct {
	Value bool
}

// IsPredicate implements Predicate.
func (ConstantPredicate) IsPredicate() bool { return true }

// False is the predicate an empty IN list renders as.
var False = ConstantPredicate{Value: false}

// True is the predicate an empty NOT IN list renders as.
var True = ConstantPredicate{Value: true}
