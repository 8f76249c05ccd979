package service

import (
	"errors"

	"github.com/lib/pq"
)

// isUniqueViolation reports whether err came from a violated unique constraint.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
