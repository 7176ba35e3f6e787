package repository

import (
	"errors"

	"github.com/lib/pq"
)

const (
	uniqueViolation = "23505"
	checkViolation  = "23514"
)

func hasCode(err error, code pq.ErrorCode) bool {
	pgErr := &pq.Error{}
	if errors.As(err, &pgErr) {
		return pgErr.Code == code
	}

	return false
}
