package render

// Capabilities describes the limits of the SQL Server dialect the renderer
// targets.
type Capabilities struct {
	MaxParameters int  // parameters allowed in one command
	OffsetFetch   bool // OFFSET ... FETCH NEXT paging
	TableHints    bool // WITH (NOLOCK, ...) after a table source
	DeleteTop     bool // DELETE TOP (n)
	DeleteAliased bool // DELETE alias FROM table alias
}

// SQLServer describes SQL Server 2012 and later.
var SQLServer = Capabilities{
	MaxParameters: 2100,
	OffsetFetch:   true,
	TableHints:    true,
	DeleteTop:     true,
	DeleteAliased: true,
}

// Dialect is the name reported in unsupported feature errors.
const Dialect = "SQL Server"
