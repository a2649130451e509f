package repository

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"github.com/go-sql-driver/mysql"
	"net"
	"storefront-service/internal/apperror"
	"strings"
)

var (
	// ErrDuplicateOrderNumber marks a unique-index hit on orders.order_number; callers may
	// regenerate the number and try again.
	ErrDuplicateOrderNumber = errors.New("duplicate order number")
	// ErrDuplicateIdempotencyKey marks a second insert under an Idempotency-Key that
	// already produced an order.
	ErrDuplicateIdempotencyKey = errors.New("duplicate idempotency key")
	// ErrContention marks deadlocks and lock wait timeouts.
	ErrContention = errors.New("store contention")
)

const (
	mysqlDuplicateEntry   = 1062
	mysqlLockWaitTimeout  = 1205
	mysqlDeadlock         = 1213
	mysqlConnectionErr    = 2002
	mysqlConnHostErr      = 2003
	mysqlServerGone       = 2006
	mysqlServerLostDuring = 2013
)

// translate maps driver failures onto apperror kinds.
func translate(op string, err error) error {
	if err == nil {
		return nil
	}

	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return err
	}

	if errors.Is(err, sql.ErrNoRows) {
		return apperror.Wrap(apperror.KindNotFound, op, err, "resource not found")
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case mysqlDuplicateEntry:
			return duplicateEntry(op, myErr)
		case mysqlLockWaitTimeout, mysqlDeadlock:
			return apperror.Wrap(apperror.KindConnection, op, fmt.Errorf("%w: %w", ErrContention, err), "database is busy, please retry")
		case mysqlConnectionErr, mysqlConnHostErr, mysqlServerGone, mysqlServerLostDuring:
			return apperror.Wrap(apperror.KindConnection, op, err, "database connection failed")
		}
	}

	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysql.ErrInvalidConn) {
		return apperror.Wrap(apperror.KindConnection, op, err, "database connection failed")
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return apperror.Wrap(apperror.KindConnection, op, err, "database connection failed")
	}

	return apperror.Wrap(apperror.KindInternal, op, err, "database error")
}

func duplicateEntry(op string, err *mysql.MySQLError) error {
	switch {
	case strings.Contains(err.Message, "order_number"):
		return apperror.Wrap(apperror.KindConflict, op, fmt.Errorf("%w: %w", ErrDuplicateOrderNumber, err), "duplicate order number")
	case strings.Contains(err.Message, "idempotency_key"):
		return apperror.Wrap(apperror.KindConflict, op, fmt.Errorf("%w: %w", ErrDuplicateIdempotencyKey, err), "duplicate request")
	case strings.Contains(err.Message, "email"):
		return apperror.Wrap(apperror.KindConflict, op, err, "email already exists")
	default:
		return apperror.Wrap(apperror.KindConflict, op, err, "duplicate entry")
	}
}

// IsContention reports whether err is a deadlock or lock wait timeout worth retrying.
func IsContention(err error) bool {
	return errors.Is(err, ErrContention)
}

// IsDuplicateOrderNumber reports whether err came from an order number collision.
func IsDuplicateOrderNumber(err error) bool {
	return errors.Is(err, ErrDuplicateOrderNumber)
}

// IsDuplicateIdempotencyKey reports whether err came from a replayed Idempotency-Key.
func IsDuplicateIdempotencyKey(err error) bool {
	return errors.Is(err, ErrDuplicateIdempotencyKey)
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

type scanner interface {
	Scan(dest ...any) error
}
