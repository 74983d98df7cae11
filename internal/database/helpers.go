package database

import (
	"database/sql"
	"errors"
)

// ErrSourceNotFound is returned when a source id does not exist.
var ErrSourceNotFound = errors.New("source not found")

// execRequireRows validates that an ExecContext result affected at least one row.
// Returns err if non-nil, or notFoundErr if rowsAffected is 0.
func execRequireRows(result sql.Result, err, notFoundErr error) error {
	if err != nil {
		return err
	}
	n, affectedErr := result.RowsAffected()
	if affectedErr != nil {
		return affectedErr
	}
	if n == 0 {
		return notFoundErr
	}
	return nil
}

// clampLimit keeps list limits within [1, maxLimit], defaulting when unset.
func clampLimit(limit, defaultLimit, maxLimit int) int {
	switch {
	case limit <= 0:
		return defaultLimit
	case limit > maxLimit:
		return maxLimit
	default:
		return limit
	}
}
