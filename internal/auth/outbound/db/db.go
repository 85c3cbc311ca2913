package db

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/adminauth/internal/auth/entity"
	"github.com/shandysiswandi/adminauth/internal/pkg/goerror"
	"github.com/shandysiswandi/adminauth/internal/pkg/instrument"
	"github.com/shandysiswandi/adminauth/internal/pkg/tzresolver"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type DB struct {
	conn *pgxpool.Pool
	ins  instrument.Instrumentation
}

func NewDB(conn *pgxpool.Pool, ins instrument.Instrumentation) *DB {
	return &DB{conn: conn, ins: ins}
}

// - 23505 unique violation → goerror.ErrConflict
// - 23503 foreign_key_violation → goerror.ErrNotFound (otp owner was removed)
func (s *DB) mapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return goerror.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return goerror.ErrConflict
		case "23503":
			return goerror.ErrNotFound
		}
	}

	return err
}

func (s *DB) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("auth.outbound.db").Start(ctx, name)
}

func (s *DB) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) && !errors.Is(err, goerror.ErrConflict) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// ownerFilter appends the owner's arguments and returns the matching predicate.
// Unregistered owners match on admin_id IS NULL, never on a NULL comparison.
// Stored emails are lower-case, so the argument is lowered to match.
func ownerFilter(owner entity.Owner, args []any) (string, []any) {
	email := strings.ToLower(owner.Email)
	if !owner.Registered() {
		args = append(args, email)
		return "admin_id IS NULL AND email = $" + strconv.Itoa(len(args)), args
	}

	args = append(args, *owner.AdminID, email)
	return "admin_id = $" + strconv.Itoa(len(args)-1) + " AND email = $" + strconv.Itoa(len(args)), args
}

// wallClock converts a storage string to the value bound to a TIMESTAMP
// column. pgx drops the location for TIMESTAMP, so only the wall clock is kept.
func wallClock(s string) (time.Time, error) {
	return tzresolver.Parse(s, time.UTC)
}
