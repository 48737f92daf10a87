package db

import (
	"errors"
	"fmt"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

// Kind classifies store failures that have a user-facing explanation.
type Kind int

const (
	KindForeignKey Kind = iota + 1 // missing or still-referenced row
	KindTruncation                 // value does not fit the column type
	KindDuplicate                  // unique constraint
)

func (k Kind) String() string {
	switch k {
	case KindForeignKey:
		return "foreign_key"
	case KindTruncation:
		return "truncation"
	case KindDuplicate:
		return "duplicate"
	}
	return "unknown"
}

// PersistenceError wraps a driver error with its Kind.
type PersistenceError struct {
	Kind Kind
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("db: %s: %v", e.Kind, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// MySQL server error numbers.
const (
	mysqlDupEntry          = 1062
	mysqlRowIsReferenced   = 1451
	mysqlNoReferencedRow   = 1452
	mysqlTruncatedWrong    = 1292
	mysqlDataTruncated     = 1265
	mysqlIncorrectValue    = 1366
	mysqlDataTooLong       = 1406
	mysqlCheckConstraint   = 3819
	mysqlNoReferencedRowV1 = 1216
)

func mysqlKind(n uint16) Kind {
	switch n {
	case mysqlNoReferencedRow, mysqlNoReferencedRowV1, mysqlRowIsReferenced:
		return KindForeignKey
	case mysqlTruncatedWrong, mysqlDataTruncated, mysqlIncorrectValue, mysqlDataTooLong, mysqlCheckConstraint:
		return KindTruncation
	case mysqlDupEntry:
		return KindDuplicate
	}
	return 0
}

func pgKind(code string) Kind {
	switch code {
	case "23503":
		return KindForeignKey
	case "22001", "22003", "22007", "22008", "22P02", "23514":
		return KindTruncation
	case "23505":
		return KindDuplicate
	}
	return 0
}

func sqliteKind(e sqlite3.Error) Kind {
	switch e.ExtendedCode {
	case sqlite3.ErrConstraintForeignKey:
		return KindForeignKey
	case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
		return KindDuplicate
	case sqlite3.ErrConstraintCheck, sqlite3.ErrConstraintNotNull:
		return KindTruncation
	}
	return 0
}

// TranslateError classifies err as a *PersistenceError when the driver
// reports a foreign key, truncation or duplicate failure. Other errors are
// returned unchanged.
func TranslateError(err error) error {
	if err == nil {
		return nil
	}
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return err
	}

	var kind Kind
	var myErr *mysqldriver.MySQLError
	var pgErr *pgconn.PgError
	var liteErr sqlite3.Error
	switch {
	case errors.As(err, &myErr):
		kind = mysqlKind(myErr.Number)
	case errors.As(err, &pgErr):
		kind = pgKind(pgErr.Code)
	case errors.As(err, &liteErr):
		kind = sqliteKind(liteErr)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		kind = KindDuplicate
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		kind = KindForeignKey
	}
	if kind == 0 {
		return err
	}
	return &PersistenceError{Kind: kind, Err: err}
}

// KindOf returns the Kind of a translated error, or 0.
func KindOf(err error) Kind {
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return 0
}
