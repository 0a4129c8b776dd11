package relq

import "github.com/zoobzio/relq/internal/render"

// MaxParameters is the most parameters SQL Server accepts in one command.
var MaxParameters = render.SQLServer.MaxParameters

// MaxInValues leaves headroom under MaxParameters for the other parameters
// of a command built around a large IN list.
const MaxInValues = 2000

// Chunk splits values into consecutive slices of at most size elements, so a
// long key list can be loaded with several IN queries. A size below one uses
// MaxInValues.
func Chunk[T any](values []T, size int) [][]T {
	if size < 1 {
		size = MaxInValues
	}
	var chunks [][]T
	for len(values) > size {
		chunks = append(chunks, values[:size:size])
		values = values[size:]
	}
	if len(values) > 0 {
		chunks = append(chunks, values)
	}
	return chunks
}
