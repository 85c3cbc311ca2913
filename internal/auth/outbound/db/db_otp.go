package db

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shandysiswandi/adminauth/internal/auth/entity"
	"github.com/shandysiswandi/adminauth/internal/pkg/goerror"
	"github.com/shandysiswandi/adminauth/internal/pkg/tzresolver"
)

const otpColumns = `id, process_id, admin_id, email, device_id, device_name, ip_address, code_hash,
       created_at, expires_at, is_valid, is_verified, failed_attempts, verified_at`

func scanOTP(row pgx.Row) (*entity.OTPRecord, error) {
	var (
		rec        entity.OTPRecord
		adminID    pgtype.Int8
		createdAt  time.Time
		expiresAt  time.Time
		verifiedAt pgtype.Timestamp
	)

	err := row.Scan(
		&rec.ID, &rec.ProcessID, &adminID, &rec.Owner.Email, &rec.DeviceID, &rec.DeviceName,
		&rec.IPAddress, &rec.CodeHash, &createdAt, &expiresAt, &rec.IsValid, &rec.IsVerified,
		&rec.FailedAttempts, &verifiedAt,
	)
	if err != nil {
		return nil, err
	}

	if adminID.Valid {
		id := adminID.Int64
		rec.Owner.AdminID = &id
	}
	rec.CreatedAt = tzresolver.Format(createdAt)
	rec.ExpiresAt = tzresolver.Format(expiresAt)
	if verifiedAt.Valid {
		rec.VerifiedAt = tzresolver.Format(verifiedAt.Time)
	}

	return &rec, nil
}

func (s *DB) getLatestOTP(ctx context.Context, query string, args []any) (*entity.OTPRecord, error) {
	rec, err := scanOTP(s.conn.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, s.mapError(err)
	}
	return rec, nil
}

func (s *DB) GetLatestActiveOTP(ctx context.Context, owner entity.Owner, deviceID string) (_ *entity.OTPRecord, err error) {
	ctx, span := s.startSpan(ctx, "GetLatestActiveOTP")
	defer func() { s.endSpan(span, err) }()

	where, args := ownerFilter(owner, []any{deviceID})
	query := `SELECT ` + otpColumns + ` FROM otp_records
	 WHERE device_id = $1 AND ` + where + ` AND is_valid AND NOT is_verified
	 ORDER BY created_at DESC, id DESC LIMIT 1`

	return s.getLatestOTP(ctx, query, args)
}

func (s *DB) GetLatestValidOTP(ctx context.Context, owner entity.Owner, processID string) (_ *entity.OTPRecord, err error) {
	ctx, span := s.startSpan(ctx, "GetLatestValidOTP")
	defer func() { s.endSpan(span, err) }()

	where, args := ownerFilter(owner, []any{processID})
	query := `SELECT ` + otpColumns + ` FROM otp_records
	 WHERE process_id = $1 AND ` + where + ` AND is_valid
	 ORDER BY created_at DESC, id DESC LIMIT 1`

	return s.getLatestOTP(ctx, query, args)
}

func (s *DB) CountDeviceOTPSince(ctx context.Context, owner entity.Owner, deviceID, since string) (_ int, err error) {
	ctx, span := s.startSpan(ctx, "CountDeviceOTPSince")
	defer func() { s.endSpan(span, err) }()

	from, err := wallClock(since)
	if err != nil {
		return 0, err
	}

	where, args := ownerFilter(owner, []any{deviceID, from})
	var n int
	err = s.conn.QueryRow(ctx,
		`SELECT COUNT(*) FROM otp_records WHERE device_id = $1 AND created_at >= $2 AND `+where+` AND is_valid`,
		args...,
	).Scan(&n)
	if err != nil {
		return 0, s.mapError(err)
	}

	return n, nil
}

func (s *DB) CountOTPSince(ctx context.Context, owner entity.Owner, since string) (_ int, err error) {
	ctx, span := s.startSpan(ctx, "CountOTPSince")
	defer func() { s.endSpan(span, err) }()

	from, err := wallClock(since)
	if err != nil {
		return 0, err
	}

	where, args := ownerFilter(owner, []any{from})
	var n int
	err = s.conn.QueryRow(ctx,
		`SELECT COUNT(*) FROM otp_records WHERE created_at >= $1 AND `+where+` AND is_valid`,
		args...,
	).Scan(&n)
	if err != nil {
		return 0, s.mapError(err)
	}

	return n, nil
}

func (s *DB) ListActiveOTP(ctx context.Context) (_ []entity.OTPRecord, err error) {
	ctx, span := s.startSpan(ctx, "ListActiveOTP")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx,
		`SELECT `+otpColumns+` FROM otp_records WHERE is_valid AND NOT is_verified ORDER BY created_at, id`,
	)
	if err != nil {
		return nil, s.mapError(err)
	}
	defer rows.Close()

	var out []entity.OTPRecord
	for rows.Next() {
		rec, err := scanOTP(rows)
		if err != nil {
			return nil, s.mapError(err)
		}
		out = append(out, *rec)
	}

	return out, s.mapError(rows.Err())
}

func (s *DB) GetOTPStats(ctx context.Context) (_ *entity.Stats, err error) {
	ctx, span := s.startSpan(ctx, "GetOTPStats")
	defer func() { s.endSpan(span, err) }()

	var st entity.Stats
	err = s.conn.QueryRow(ctx, `
	SELECT COUNT(*),
	       COUNT(*) FILTER (WHERE is_verified),
	       COUNT(*) FILTER (WHERE is_valid AND NOT is_verified),
	       COUNT(*) FILTER (WHERE NOT is_valid),
	       COUNT(*) FILTER (WHERE admin_id IS NULL),
	       COUNT(*) FILTER (WHERE admin_id IS NOT NULL)
	  FROM otp_records`,
	).Scan(&st.Total, &st.Verified, &st.Active, &st.Invalid, &st.Unregistered, &st.Registered)
	if err != nil {
		return nil, s.mapError(err)
	}

	return &st, nil
}

func (s *DB) CreateOTP(ctx context.Context, rec entity.OTPRecord) (err error) {
	ctx, span := s.startSpan(ctx, "CreateOTP")
	defer func() { s.endSpan(span, err) }()

	createdAt, err := wallClock(rec.CreatedAt)
	if err != nil {
		return err
	}
	expiresAt, err := wallClock(rec.ExpiresAt)
	if err != nil {
		return err
	}

	_, err = s.conn.Exec(ctx, `
	INSERT INTO otp_records
	       (id, process_id, admin_id, email, device_id, device_name, ip_address, code_hash,
	        created_at, expires_at, is_valid, is_verified, failed_attempts)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, TRUE, FALSE, 0)`,
		rec.ID, rec.ProcessID, rec.Owner.AdminID, strings.ToLower(rec.Owner.Email), rec.DeviceID, rec.DeviceName,
		rec.IPAddress, rec.CodeHash, createdAt, expiresAt,
	)

	return s.mapError(err)
}

func (s *DB) exec(ctx context.Context, query string, args ...any) error {
	tag, err := s.conn.Exec(ctx, query, args...)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}
	return nil
}

func (s *DB) InvalidateOTP(ctx context.Context, id int64) (err error) {
	ctx, span := s.startSpan(ctx, "InvalidateOTP")
	defer func() { s.endSpan(span, err) }()

	return s.exec(ctx, `UPDATE otp_records SET is_valid = FALSE WHERE id = $1`, id)
}

func (s *DB) UpdateOTPFailedAttempts(ctx context.Context, id int64, failed int, invalidate bool) (err error) {
	ctx, span := s.startSpan(ctx, "UpdateOTPFailedAttempts")
	defer func() { s.endSpan(span, err) }()

	return s.exec(ctx,
		`UPDATE otp_records SET failed_attempts = $2, is_valid = is_valid AND NOT $3 WHERE id = $1`,
		id, failed, invalidate,
	)
}

func (s *DB) MarkOTPVerified(ctx context.Context, id int64, verifiedAt string) (err error) {
	ctx, span := s.startSpan(ctx, "MarkOTPVerified")
	defer func() { s.endSpan(span, err) }()

	at, err := wallClock(verifiedAt)
	if err != nil {
		return err
	}

	return s.exec(ctx,
		`UPDATE otp_records SET is_verified = TRUE, verified_at = $2, failed_attempts = 0 WHERE id = $1`,
		id, at,
	)
}

func (s *DB) DeleteResolvedOTPBefore(ctx context.Context, cutoff string) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "DeleteResolvedOTPBefore")
	defer func() { s.endSpan(span, err) }()

	before, err := wallClock(cutoff)
	if err != nil {
		return 0, err
	}

	tag, err := s.conn.Exec(ctx,
		`DELETE FROM otp_records WHERE (is_verified OR NOT is_valid) AND created_at < $1`, before,
	)
	if err != nil {
		return 0, s.mapError(err)
	}

	return tag.RowsAffected(), nil
}
