package types

// ColumnRef references a column, optionally qualified by a table alias.
// An empty TableAlias is qualified by the renderer with the select's
// default alias, if it has one.
type ColumnRef struct {
	Name       string
	TableAlias string
}

// Projection is implemented by every node that can appear in a select list.
type Projection interface {
	IsProjection() bool
}

// Column projects a table column, optionally renamed.
type Column struct {
	Name       string
	Alias      string
	TableAlias string
}

// IsProjection implements Projection.
func (Column) IsProjection() bool { return true }

// Ref returns the column reference for the projection.
func (c Column) Ref() ColumnRef {
	return ColumnRef{Name: c.Name, TableAlias: c.TableAlias}
}

// CalculatedColumn projects a trusted raw SQL expression.
type CalculatedColumn struct {
	Expression string
	Alias      string
}

// IsProjection implements Projection.
func (CalculatedColumn) IsProjection() bool { return true }

// RowNumberColumn projects ROW_NUMBER() over the select's ordering.
type RowNumberColumn struct {
	Alias       string
	PartitionBy []ColumnRef
}

// IsProjection implements Projection.
func (RowNumberColumn) IsProjection() bool { return true }

// AllColumns projects * or alias.*.
type AllColumns struct {
	TableAlias string
}

// IsProjection implements Projection.
func (AllColumns) IsProjection() bool { return true }

// OrderClause orders by one column.
type OrderClause struct {
	Column     ColumnRef
	Descending bool
}
