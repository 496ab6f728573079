package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL SQLSTATE codes the order flow reacts to.
const (
	sqlstateSerializationFailure = "40001"
	sqlstateUniqueViolation      = "23505"
	sqlstateLockNotAvailable     = "55P03"
	sqlstateQueryCanceled        = "57014"
)

// Constraint names from the schema that carry business meaning.
const (
	ConstraintOrderIdempotencyKey = "orders_idempotency_key_key"
	ConstraintOrderNumber         = "orders_order_number_key"
)

// IsSerializationFailure reports whether err is a serializable-isolation
// abort or a lock/statement timeout, all of which are transient and safe to
// retry from the top of the unit of work.
func IsSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case sqlstateSerializationFailure, sqlstateLockNotAvailable, sqlstateQueryCanceled:
		return true
	}
	return false
}

// IsUniqueViolation reports whether err is a unique violation on the named
// constraint.
func IsUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == sqlstateUniqueViolation && pgErr.ConstraintName == constraint
}
