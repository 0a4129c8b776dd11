package types

import "fmt"

// UnsupportedExpressionError reports an expression shape that cannot be
// translated into SQL.
type UnsupportedExpressionError struct {
	Expression string
	Reason     string
}

func (e UnsupportedExpressionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("unsupported expression %s: %s", e.Expression, e.Reason)
	}
	return fmt.Sprintf("unsupported expression %s", e.Expression)
}

// AliasCollisionError reports an alias used twice in one FROM scope.
type AliasCollisionError struct {
	Alias string
}

func (e AliasCollisionError) Error() string {
	return fmt.Sprintf("alias %q is already in use", e.Alias)
}

// ParameterCollisionError reports two parameter sets binding one name to
// different values.
type ParameterCollisionError struct {
	Name     string
	Existing any
	Incoming any
}

func (e ParameterCollisionError) Error() string {
	return fmt.Sprintf("the parameter %s already exists with value %v (incoming %v)", e.Name, e.Existing, e.Incoming)
}

// UnboundParameterError reports a placeholder with no bound value.
type UnboundParameterError struct {
	Name string
}

func (e UnboundParameterError) Error() string {
	return fmt.Sprintf("parameter @%s is referenced but never bound", e.Name)
}

// InvalidCompositionError reports a builder operation applied to a shape
// that cannot accept it.
type InvalidCompositionError struct {
	Operation string
	Reason    string
}

func (e InvalidCompositionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Operation, e.Reason)
}
