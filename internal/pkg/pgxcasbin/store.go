package pgxcasbin

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/lo"
)

const (
	defaultTableName = "admin_policies"
	fieldCount       = 6

	insertRow     = "INSERT INTO %[1]s (ptype, %[2]s) VALUES ($1, %[3]s) ON CONFLICT DO NOTHING"
	deleteAll     = "DELETE FROM %[1]s"
	deleteRow     = "DELETE FROM %[1]s WHERE ptype = $1 AND %[2]s"
	deleteByPType = "DELETE FROM %[1]s WHERE ptype = $1"
	selectAll     = "SELECT ptype, %[2]s FROM %[1]s ORDER BY id"
)

// Commander defines the pgx operations required by the adapter store.
type Commander interface {
	Begin(context.Context) (pgx.Tx, error)
	SendBatch(context.Context, *pgx.Batch) pgx.BatchResults
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type store struct {
	db        Commander
	tableName string
}

func newStore(db Commander) *store {
	return &store{db: db, tableName: defaultTableName}
}

func (s *store) columns() string {
	return strings.Join(lo.Times(fieldCount, func(i int) string { return "v" + strconv.Itoa(i) }), ", ")
}

func (s *store) insertSQL() string {
	return fmt.Sprintf(insertRow, s.tableName, s.columns(), strings.Join(lo.Times(fieldCount, func(i int) string {
		return "$" + strconv.Itoa(i+2)
	}), ", "))
}

func (s *store) deleteSQL() string {
	return fmt.Sprintf(deleteRow, s.tableName, strings.Join(lo.Times(fieldCount, func(i int) string {
		return "v" + strconv.Itoa(i) + " = $" + strconv.Itoa(i+2)
	}), " AND "))
}

func (s *store) selectAll(ctx context.Context) ([][]string, error) {
	rows, err := s.db.Query(ctx, fmt.Sprintf(selectAll, s.tableName, s.columns()))
	if err != nil {
		return nil, errors.Join(ErrSelectRows, err)
	}
	defer rows.Close()

	var result [][]string
	for rows.Next() {
		row := make([]string, fieldCount+1)
		if err := rows.Scan(lo.ToAnySlice(lo.Map(row, func(_ string, i int) *string { return &row[i] }))...); err != nil {
			return nil, errors.Join(ErrScanRow, err)
		}
		result = append(result, trimTrailingEmpty(row))
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Join(ErrSelectRows, err)
	}

	return result, nil
}

func (s *store) insertRow(ctx context.Context, ptype string, rule []string) error {
	normalized, err := normalizeRule(rule)
	if err != nil {
		return err
	}

	if _, err := s.db.Exec(ctx, s.insertSQL(), lo.ToAnySlice(genRule(ptype, normalized))...); err != nil {
		return errors.Join(ErrInsertRow, err)
	}
	return nil
}

func (s *store) deleteRow(ctx context.Context, ptype string, rule []string) error {
	normalized, err := normalizeRule(rule)
	if err != nil {
		return err
	}

	if _, err := s.db.Exec(ctx, s.deleteSQL(), lo.ToAnySlice(genRule(ptype, normalized))...); err != nil {
		return errors.Join(ErrDeleteRow, err)
	}
	return nil
}

func (s *store) deleteWhere(ctx context.Context, ptype string, startIdx int, args ...string) error {
	if ptype == "" {
		return ErrEmptyPtype
	}
	if len(args) > fieldCount-startIdx {
		return fmt.Errorf("%w: %d > %d", ErrArgsTooLong, len(args), fieldCount-startIdx)
	}

	query := fmt.Sprintf(deleteByPType, s.tableName)
	argsList := []any{ptype}
	for i, arg := range args {
		if arg == "" {
			continue
		}
		argsList = append(argsList, arg)
		query += " AND v" + strconv.Itoa(i+startIdx) + " = $" + strconv.Itoa(len(argsList))
	}

	if _, err := s.db.Exec(ctx, query, argsList...); err != nil {
		return errors.Join(ErrDeleteRow, err)
	}
	return nil
}

// batch queues one statement per rule. Rules already carry their ptype.
func (s *store) batch(ctx context.Context, db Commander, query string, rules [][]string) error {
	if len(rules) == 0 {
		return nil
	}

	b := &pgx.Batch{}
	for _, rule := range rules {
		row, err := normalizeRuleRow(rule)
		if err != nil {
			return err
		}
		b.Queue(query, lo.ToAnySlice(row)...)
	}

	br := db.SendBatch(ctx, b)
	for range b.Len() {
		if _, err := br.Exec(); err != nil {
			return errors.Join(ErrBatchExec, err, closeBatchResults(br))
		}
	}
	return closeBatchResults(br)
}

func (s *store) insertAll(ctx context.Context, rules [][]string) error {
	return s.batch(ctx, s.db, s.insertSQL(), rules)
}

func (s *store) deleteAllRows(ctx context.Context, rules [][]string) error {
	return s.batch(ctx, s.db, s.deleteSQL(), rules)
}

func (s *store) replaceAll(ctx context.Context, rules [][]string) (err error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return errors.Join(ErrBeginTx, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if _, err = tx.Exec(ctx, fmt.Sprintf(deleteAll, s.tableName)); err != nil {
		return errors.Join(ErrDeleteAll, err)
	}
	if err = s.batch(ctx, tx, s.insertSQL(), rules); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return errors.Join(ErrCommitTx, err)
	}
	return nil
}

func closeBatchResults(br pgx.BatchResults) error {
	if err := br.Close(); err != nil {
		return errors.Join(ErrBatchClose, err)
	}
	return nil
}

func genRule(ptype string, rule []string) []string {
	return append([]string{ptype}, rule...)
}

func normalizeRule(rule []string) ([]string, error) {
	if len(rule) > fieldCount {
		return nil, fmt.Errorf("%w: %d > %d", ErrRuleTooLong, len(rule), fieldCount)
	}
	normalized := make([]string, fieldCount)
	copy(normalized, rule)
	return normalized, nil
}

func normalizeRuleRow(rule []string) ([]string, error) {
	if len(rule) == 0 {
		return nil, ErrRuleEmpty
	}
	normalized, err := normalizeRule(rule[1:])
	if err != nil {
		return nil, err
	}
	return genRule(rule[0], normalized), nil
}

func trimTrailingEmpty(rule []string) []string {
	last := len(rule) - 1
	for last >= 0 && rule[last] == "" {
		last--
	}
	return rule[:last+1]
}
