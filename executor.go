package relq

import (
	"context"
	"errors"
	"fmt"
	"strconv"
)

// ErrNoRows is returned by First when the query yields no rows.
var ErrNoRows = errors.New("relq: sequence contains no elements")

// ErrNoExecutor is returned by terminal operations on a session created
// without an Executor.
var ErrNoExecutor = errors.New("relq: session has no executor")

// Record is one result row keyed by column name.
type Record map[string]any

// Command is a rendered statement with the parameters it references.
type Command struct {
	SQL        string
	Parameters []Parameter
}

// Executor runs rendered commands. It owns connections, transactions,
// cancellation and timeouts; relq calls it only from terminal operations.
type Executor interface {
	Query(ctx context.Context, cmd Command) ([]Record, error)
	Scalar(ctx context.Context, cmd Command) (any, error)
	NonQuery(ctx context.Context, cmd Command) (int64, error)
}

// toInt converts a scalar returned by an Executor into an int.
func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	case bool:
		if n {
			return 1, nil
		}
		return 0, nil
	case []byte:
		return strconv.Atoi(string(n))
	case string:
		return strconv.Atoi(n)
	case nil:
		return 0, nil
	}
	return 0, fmt.Errorf("unexpected scalar type %T", v)
}
