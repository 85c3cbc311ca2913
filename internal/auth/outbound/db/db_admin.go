package db

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/adminauth/internal/auth/entity"
	"github.com/shandysiswandi/adminauth/internal/pkg/goerror"
)

const selectAdmin = `
SELECT a.id, a.admin_name, a.first_name, a.middle_name, a.last_name, a.email, a.phone,
       a.role_code, COALESCE(r.name, ''), a.status_code, COALESCE(st.name, ''),
       a.password_hash, a.is_deleted, a.is_deactivated
  FROM admins a
  LEFT JOIN admin_roles r ON r.code = a.role_code
  LEFT JOIN admin_statuses st ON st.code = a.status_code
 WHERE (lower(a.email) = lower($1) OR lower(a.admin_name) = lower($1) OR a.phone = $1)
   AND NOT a.is_deleted
 ORDER BY a.id
 LIMIT 1`

func (s *DB) FindAdminByIdentifier(ctx context.Context, identifier string) (_ *entity.Admin, err error) {
	ctx, span := s.startSpan(ctx, "FindAdminByIdentifier")
	defer func() { s.endSpan(span, err) }()

	var a entity.Admin
	err = s.conn.QueryRow(ctx, selectAdmin, identifier).Scan(
		&a.ID, &a.Name, &a.FirstName, &a.MiddleName, &a.LastName, &a.Email, &a.Phone,
		&a.RoleCode, &a.RoleName, &a.StatusCode, &a.StatusName,
		&a.PasswordHash, &a.IsDeleted, &a.IsDeactivated,
	)
	if err != nil {
		return nil, s.mapError(err)
	}

	return &a, nil
}

func (s *DB) EmailRegistered(ctx context.Context, email string) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "EmailRegistered")
	defer func() { s.endSpan(span, err) }()

	var exists bool
	err = s.conn.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM admins WHERE lower(email) = lower($1) AND NOT is_deleted)`, email,
	).Scan(&exists)
	if err != nil {
		return false, s.mapError(err)
	}

	return exists, nil
}

func (s *DB) AdminNameTaken(ctx context.Context, name string) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "AdminNameTaken")
	defer func() { s.endSpan(span, err) }()

	var exists bool
	err = s.conn.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM admins WHERE lower(admin_name) = lower($1) AND NOT is_deleted)`, name,
	).Scan(&exists)
	if err != nil {
		return false, s.mapError(err)
	}

	return exists, nil
}

// consumeVerifiedOTP invalidates a verified record inside tx so it cannot
// authorize a second account change. A record that is unverified, already
// consumed or swept yields goerror.ErrNotFound.
func (s *DB) consumeVerifiedOTP(ctx context.Context, tx pgx.Tx, otpID int64) error {
	tag, err := tx.Exec(ctx,
		`UPDATE otp_records SET is_valid = FALSE WHERE id = $1 AND is_valid AND is_verified`, otpID,
	)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}
	return nil
}

func (s *DB) rollback(ctx context.Context, tx pgx.Tx) {
	if rErr := tx.Rollback(ctx); rErr != nil && !errors.Is(rErr, pgx.ErrTxClosed) {
		slog.ErrorContext(ctx, "failed to rollback", "error", rErr)
	}
}

// CreateAdmin consumes the verified OTP and inserts the admin and its
// optional address in one transaction.
func (s *DB) CreateAdmin(ctx context.Context, admin entity.Admin, addr entity.AdminAddress, otpID int64) (err error) {
	ctx, span := s.startSpan(ctx, "CreateAdmin")
	defer func() { s.endSpan(span, err) }()

	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer s.rollback(ctx, tx)

	if err := s.consumeVerifiedOTP(ctx, tx, otpID); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
	INSERT INTO admins
	       (id, admin_name, first_name, middle_name, last_name, email, phone, password_hash, role_code, status_code)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		admin.ID, admin.Name, admin.FirstName, admin.MiddleName, admin.LastName, strings.ToLower(admin.Email),
		admin.Phone, admin.PasswordHash, admin.RoleCode, admin.StatusCode,
	); err != nil {
		return s.mapError(err)
	}

	if !addr.IsZero() {
		if _, err := tx.Exec(ctx,
			`INSERT INTO admin_addresses (admin_id, area, city, state, pincode) VALUES ($1, $2, $3, $4, $5)`,
			admin.ID, addr.Area, addr.City, addr.State, addr.Pincode,
		); err != nil {
			return s.mapError(err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return s.mapError(err)
	}

	return nil
}

// ResetAdminPassword consumes the verified OTP and replaces the password hash
// in one transaction.
func (s *DB) ResetAdminPassword(ctx context.Context, adminID, otpID int64, passwordHash string) (err error) {
	ctx, span := s.startSpan(ctx, "ResetAdminPassword")
	defer func() { s.endSpan(span, err) }()

	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer s.rollback(ctx, tx)

	if err := s.consumeVerifiedOTP(ctx, tx, otpID); err != nil {
		return err
	}

	tag, err := tx.Exec(ctx,
		`UPDATE admins SET password_hash = $2, updated_at = NOW() WHERE id = $1 AND NOT is_deleted`,
		adminID, passwordHash,
	)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	if err = tx.Commit(ctx); err != nil {
		return s.mapError(err)
	}

	return nil
}

func (s *DB) UpdateAdminLastLogin(ctx context.Context, adminID int64, at time.Time) (err error) {
	ctx, span := s.startSpan(ctx, "UpdateAdminLastLogin")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx,
		`UPDATE admins SET last_login_at = $2, updated_at = NOW() WHERE id = $1`, adminID, at,
	)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	return nil
}
