package types

// QueryResult contains the rendered SQL and the placeholders it references,
// in order of first appearance.
type QueryResult struct {
	SQL            string
	RequiredParams []string
}
