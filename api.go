// Package relq provides a fluent, immutable SQL Server query builder.
//
// A Session creates builders over tables. Builder calls accumulate an
// Abstract Syntax Tree (AST) which the mssql renderer turns into T-SQL with
// named @parameters. Terminal operations hand the rendered Command to an
// Executor.
//
// # Basic Usage
//
//	session := relq.NewSession(executor)
//
//	cmd, err := session.Query("Customer").
//		WhereOp("Name", relq.StartsWith, "Al").
//		OrderBy("Name").
//		Take(10).
//		Render()
//	// cmd.SQL: SELECT TOP 10 * FROM dbo.[Customer] WHERE ([Name] LIKE @name) ORDER BY [Name]
//	// cmd.Parameters: [{name Al% String 0}]
//
// # Immutability
//
// Every builder method returns a new Builder. A builder can be the shared
// base of several queries and rendered any number of times with identical
// output.
//
//	active := session.Query("Customer").WhereOp("Active", relq.Equal, true)
//	first := active.OrderBy("Name").Take(1)
//	count, err := active.RenderCount()
//
// # Composition
//
// Builders compose into joins, unions and derived tables:
//
//	orders := session.Query("Order").Alias("o")
//	customers := session.Query("Customer").Alias("c").
//		Join(orders, relq.InnerJoin).
//		On("Id", relq.Equal, "CustomerId")
//
//	recent := session.Query("Order").OrderByDescending("Created").Take(5).
//		Subquery().Alias("recent")
//
// A union or subquery must be aliased before it is joined, filtered or
// paged.
//
// # Paging
//
// Take alone renders TOP n. Skip switches to OFFSET ... FETCH NEXT, ordered
// by the explicit ordering or the key column. ToListPage numbers rows with
// ROW_NUMBER() instead.
//
// # Errors
//
// Errors are sticky: a failing call records its error on the returned
// builder and every later call, render or terminal reports it.
package relq

import (
	"github.com/zoobzio/relq/internal/render"
	"github.com/zoobzio/relq/internal/types"
)

// AST represents the abstract syntax tree for a statement.
// This is re-exported from internal/types for use by consumers.
type AST = types.AST

// QueryResult contains the rendered SQL and required parameters.
type QueryResult = types.QueryResult

// ColumnRef names a column, optionally qualified by a source alias.
type ColumnRef = types.ColumnRef

// JoinType represents the kind of SQL join.
type JoinType = types.JoinType

// Re-export join constants for public API.
const (
	InnerJoin     = types.InnerJoin
	LeftJoin      = types.LeftJoin
	LeftHashJoin  = types.LeftHashJoin
	RightJoin     = types.RightJoin
	FullOuterJoin = types.FullOuterJoin
)

// Errors reported by builders and renderers.
type (
	// UnsupportedExpressionError reports an expression shape that cannot be
	// translated into SQL.
	UnsupportedExpressionError = types.UnsupportedExpressionError

	// AliasCollisionError reports an alias used twice in one FROM scope.
	AliasCollisionError = types.AliasCollisionError

	// ParameterCollisionError reports one parameter name bound to two
	// different values.
	ParameterCollisionError = types.ParameterCollisionError

	// UnboundParameterError reports a placeholder with no bound value.
	UnboundParameterError = types.UnboundParameterError

	// InvalidCompositionError reports a builder operation applied to a shape
	// that cannot accept it.
	InvalidCompositionError = types.InvalidCompositionError

	// UnsupportedFeatureError reports a statement shape SQL Server cannot
	// express, such as DELETE over a join.
	UnsupportedFeatureError = render.UnsupportedFeatureError
)

// Col returns a column reference qualified by tableAlias.
func Col(tableAlias, name string) ColumnRef {
	return ColumnRef{Name: name, TableAlias: tableAlias}
}
