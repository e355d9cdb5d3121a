package db

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	mysqlDuplicateEntry   = 1062
	mysqlNoReferencedRow  = 1452
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// IsUniqueViolation reports a unique/primary key conflict on either driver.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == mysqlDuplicateEntry {
		return true
	}
	var pe *pgconn.PgError
	if errors.As(err, &pe) && pe.Code == pgUniqueViolation {
		return true
	}
	return false
}

// UniqueConstraint returns the violated constraint/key name when the driver
// exposes one.
func UniqueConstraint(err error) string {
	var pe *pgconn.PgError
	if errors.As(err, &pe) && pe.Code == pgUniqueViolation {
		return pe.ConstraintName
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == mysqlDuplicateEntry {
		return me.Message
	}
	return ""
}

// IsForeignKeyViolation reports a row pointing at a parent that does not
// exist.
func IsForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == mysqlNoReferencedRow {
		return true
	}
	var pe *pgconn.PgError
	if errors.As(err, &pe) && pe.Code == pgForeignKeyViolation {
		return true
	}
	return false
}

// ForeignKeyColumn returns the first of columns that the foreign key error
// names, or "" when none matches.
func ForeignKeyColumn(err error, columns ...string) string {
	var text string
	var pe *pgconn.PgError
	var me *mysql.MySQLError
	switch {
	case errors.As(err, &pe) && pe.Code == pgForeignKeyViolation:
		text = pe.ConstraintName + " " + pe.Detail
	case errors.As(err, &me) && me.Number == mysqlNoReferencedRow:
		text = me.Message
	default:
		return ""
	}
	for _, c := range columns {
		if strings.Contains(text, c) {
			return c
		}
	}
	return ""
}

func IsNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
