package render

import "fmt"

// UnsupportedFeatureError indicates a query shape the dialect cannot express.
type UnsupportedFeatureError struct {
	Feature string
	Dialect string
	Hint    string
}

func (e UnsupportedFeatureError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("%s: %s is not supported: %s", e.Dialect, e.Feature, e.Hint)
	}
	return fmt.Sprintf("%s: %s is not supported", e.Dialect, e.Feature)
}

// NewUnsupportedFeatureError creates an unsupported feature error for the
// SQL Server dialect.
func NewUnsupportedFeatureError(feature string, hint ...string) error {
	err := UnsupportedFeatureError{Feature: feature, Dialect: Dialect}
	if len(hint) > 0 {
		err.Hint = hint[0]
	}
	return err
}
