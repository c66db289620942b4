package observability

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

var pgErrClasses = map[string]string{
	pgerrcode.UniqueViolation:      "unique_violation",
	pgerrcode.ForeignKeyViolation:  "foreign_key_violation",
	pgerrcode.CheckViolation:       "check_violation",
	pgerrcode.NotNullViolation:     "not_null_violation",
	pgerrcode.SerializationFailure: "serialization_failure",
	pgerrcode.DeadlockDetected:     "deadlock",
	pgerrcode.QueryCanceled:        "query_canceled",
}

// ObserveDB times fn as one logical storage op (e.g. "todos.list_by_owner").
// fn must translate pgx.ErrNoRows itself: absent rows are an answer, not a failure.
func (p *Prom) ObserveDB(op string, fn func() error) error {
	if p == nil {
		return fn()
	}

	start := time.Now()
	err := fn()
	elapsed := time.Since(start).Seconds()

	if err == nil {
		p.DbQueryDuration.WithLabelValues(op, "ok").Observe(elapsed)
		return nil
	}

	p.DbQueryDuration.WithLabelValues(op, "error").Observe(elapsed)
	p.DbErrorsTotal.WithLabelValues(op, classifyDBErr(err)).Inc()
	return err
}

func classifyDBErr(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if class, ok := pgErrClasses[pgErr.Code]; ok {
			return class
		}
		return "pg_" + pgErr.Code
	}

	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) {
		return "timeout"
	}
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline"):
		return "timeout"
	case strings.Contains(msg, "connection"), strings.Contains(msg, "dial"):
		return "connection"
	}
	return "unknown"
}
