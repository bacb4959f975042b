package service

import (
	"context"
	"errors"
	"fmt"
)

// ErrStorage indicates the table could not be written to durable storage.
var ErrStorage = errors.New("failed to persist table")

// PersistPolicy decides what happens to an in-memory append whose write failed.
type PersistPolicy int

const (
	// FailClosed rolls the append back so memory always matches storage.
	FailClosed PersistPolicy = iota
	// FailOpen keeps the append in memory and reports the write failure as a warning.
	FailOpen
)

// AppendAndPersist appends records to table and writes the whole result through save.
// On success the grown table is returned. On a failed write the returned table is the
// original one under FailClosed and the grown one under FailOpen; in both cases the
// error wraps ErrStorage. table itself is never modified.
func AppendAndPersist[T any, Table ~[]T](ctx context.Context, save func(context.Context, Table) error, table Table, policy PersistPolicy, records ...T) (Table, error) {
	grown := make(Table, len(table), len(table)+len(records))
	copy(grown, table)
	grown = append(grown, records...)

	if err := save(ctx, grown); err != nil {
		wrapped := fmt.Errorf("%w: %w", ErrStorage, err)
		if policy == FailOpen {
			return grown, wrapped
		}
		return table, wrapped
	}
	return grown, nil
}
