package relq

import "github.com/zoobzio/relq/internal/types"

// Renderer defines the interface for turning an AST into SQL.
// The default is the SQL Server renderer from the mssql package.
type Renderer interface {
	// Render converts an AST to a QueryResult with named @parameters.
	Render(ast *types.AST) (*types.QueryResult, error)
}
