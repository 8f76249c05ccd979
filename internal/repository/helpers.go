package repository

import (
	"database/sql"
	"fmt"
)

// requireAffected turns an update that matched nothing into sql.ErrNoRows.
func requireAffected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
