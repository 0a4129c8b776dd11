package types

// Operator represents a comparison operator in a condition or join.
type Operator string

const (
	// Basic comparison operators.
	EQ Operator = "="
	NE Operator = "<>"
	GT Operator = ">"
	GE Operator = ">="
	LT Operator = "<"
	LE Operator = "<="

	// Extended operators.
	IN        Operator = "IN"
	NotIn     Operator = "NOT IN"
	LIKE      Operator = "LIKE"
	NotLike   Operator = "NOT LIKE"
	Between   Operator = "BETWEEN"
	IsNull    Operator = "IS NULL"
	IsNotNull Operator = "IS NOT NULL"
)

// Arity returns the number of parameters the operator binds.
// A negative value means one or more.
func (o Operator) Arity() int {
	switch o {
	case IsNull, IsNotNull:
		return 0
	case Between:
		return 2
	case IN, NotIn:
		return -1
	default:
		return 1
	}
}

// IsComparison reports whether the operator may join two columns.
func (o Operator) IsComparison() bool {
	switch o {
	case EQ, NE, GT, GE, LT, LE:
		return true
	}
	return false
}
