package relq

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/zoobzio/relq/internal/types"
)

// Aliases reserved for wrappers generated by terminal operations.
const (
	PagedAlias     = "paged_rows"
	CountedAlias   = "counted_rows"
	RowNumberAlias = "RowNum"
)

// AliasGenerator hands out table aliases t1, t2, ... unique for its lifetime.
// It is safe for concurrent use.
type AliasGenerator struct {
	prefix string
	next   atomic.Int64
}

// NewAliasGenerator creates a generator producing prefix1, prefix2, ...
func NewAliasGenerator(prefix string) *AliasGenerator {
	if prefix == "" {
		prefix = "t"
	}
	return &AliasGenerator{prefix: prefix}
}

// Next returns a fresh alias.
func (g *AliasGenerator) Next() string {
	return fmt.Sprintf("%s%d", g.prefix, g.next.Add(1))
}

func isReservedAlias(alias string) bool {
	return strings.EqualFold(alias, PagedAlias) || strings.EqualFold(alias, CountedAlias)
}

func validateAlias(alias string) error {
	if !types.IsIdentifier(alias) {
		return InvalidCompositionError{Operation: "Alias", Reason: fmt.Sprintf("invalid alias %q", alias)}
	}
	if isReservedAlias(alias) {
		return AliasCollisionError{Alias: alias}
	}
	return nil
}
