package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

const pgUniqueViolation = "23505"

// UniqueViolation describes a unique-constraint failure reported by the driver.
type UniqueViolation struct {
	Constraint string
	Detail     string
}

// AsUniqueViolation extracts unique-constraint diagnostics from err. Postgres
// drivers expose the constraint name; SQLite only reports the indexed columns
// inside the message, which is returned as Detail.
func AsUniqueViolation(err error) (UniqueViolation, bool) {
	if err == nil {
		return UniqueViolation{}, false
	}

	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		if pgxErr.Code != pgUniqueViolation {
			return UniqueViolation{}, false
		}
		return UniqueViolation{Constraint: pgxErr.ConstraintName, Detail: pgxErr.Detail}, true
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if string(pqErr.Code) != pgUniqueViolation {
			return UniqueViolation{}, false
		}
		return UniqueViolation{Constraint: pqErr.Constraint, Detail: pqErr.Detail}, true
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		if liteErr.ExtendedCode != sqlite3.ErrConstraintUnique && liteErr.ExtendedCode != sqlite3.ErrConstraintPrimaryKey {
			return UniqueViolation{}, false
		}
		return UniqueViolation{Detail: liteErr.Error()}, true
	}

	// Errors that crossed a process boundary or were re-wrapped as text.
	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key value") {
		return UniqueViolation{Detail: msg}, true
	}
	return UniqueViolation{}, false
}

// IsUniqueViolation reports whether err is a unique violation. When
// constraintName is provided, the helper also requires the violation to name it.
func IsUniqueViolation(err error, constraintName string) bool {
	v, ok := AsUniqueViolation(err)
	if !ok {
		return false
	}
	if constraintName == "" {
		return true
	}
	return v.Mentions(constraintName)
}

// Mentions reports whether the violation references token, case-insensitively.
// The constraint name wins when the driver reports one, since the detail text
// also echoes the conflicting value.
func (v UniqueViolation) Mentions(token string) bool {
	token = strings.ToLower(token)
	if v.Constraint != "" {
		return strings.Contains(strings.ToLower(v.Constraint), token)
	}
	return strings.Contains(strings.ToLower(v.Detail), token)
}
