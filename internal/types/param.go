package types

import "strings"

// Param represents a named parameter reference in a query.
// Names are compared case-insensitively, matching SQL Server.
type Param struct {
	Name string
}

// Key returns the normalized lookup key for the parameter name.
func (p Param) Key() string {
	return ParamKey(p.Name)
}

// ParamKey normalizes a parameter name for lookup.
func ParamKey(name string) string {
	return strings.ToLower(strings.TrimPrefix(name, "@"))
}

// IsValidParamName reports whether name can be rendered as a placeholder.
func IsValidParamName(name string) bool {
	return IsIdentifier(strings.TrimPrefix(name, "@"))
}

// IsIdentifier reports whether s is a plain SQL identifier: a letter or
// underscore followed by letters, digits or underscores.
func IsIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
