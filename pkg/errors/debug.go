package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// ErrorDump is the log-only view of an error chain. It never reaches clients.
type ErrorDump struct {
	TopMessage string   `json:"top_message"`
	Code       Code     `json:"code,omitempty"`
	Chain      []string `json:"chain,omitempty"`

	// Condition is the SQLSTATE name (unique_violation, ...) or the gorm
	// sentinel found in the chain.
	Condition string `json:"condition,omitempty"`

	PGCode       string `json:"pg_code,omitempty"`
	PGConstraint string `json:"pg_constraint,omitempty"`
	PGTable      string `json:"pg_table,omitempty"`
	PGColumn     string `json:"pg_column,omitempty"`
	PGDetail     string `json:"pg_detail,omitempty"`
	PGMessage    string `json:"pg_message,omitempty"`
}

var gormSentinels = map[error]string{
	gorm.ErrRecordNotFound:          "record_not_found",
	gorm.ErrDuplicatedKey:           "duplicated_key",
	gorm.ErrForeignKeyViolated:      "foreign_key_violation",
	gorm.ErrCheckConstraintViolated: "check_violation",
}

// Dump flattens err for a log line. Postgres diagnostics are read from either
// driver the repo links: pgx through gorm, lib/pq through goose.
func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}
	d := ErrorDump{TopMessage: err.Error()}
	if typed := As(err); typed != nil {
		d.Code = typed.Code()
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	if d.fillPostgres(err) {
		d.Condition = pq.ErrorCode(d.PGCode).Name()
		return d
	}
	for sentinel, name := range gormSentinels {
		if errors.Is(err, sentinel) {
			d.Condition = name
			break
		}
	}
	return d
}

func (d *ErrorDump) fillPostgres(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		d.PGCode, d.PGMessage, d.PGDetail = pgErr.Code, pgErr.Message, pgErr.Detail
		d.PGTable, d.PGColumn, d.PGConstraint = pgErr.TableName, pgErr.ColumnName, pgErr.ConstraintName
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		d.PGCode, d.PGMessage, d.PGDetail = string(pqErr.Code), pqErr.Message, pqErr.Detail
		d.PGTable, d.PGColumn, d.PGConstraint = pqErr.Table, pqErr.Column, pqErr.Constraint
		return true
	}
	return false
}
