// Package pgxcasbin persists casbin policies in a postgres table through pgx.
// Rows are (ptype, v0..v5); unused fields are stored as empty strings so the
// table's unique constraint covers whole rules.
package pgxcasbin

import (
	"context"
	"database/sql/driver"

	"github.com/casbin/casbin/v3/model"
	"github.com/casbin/casbin/v3/persist"
	"github.com/samber/lo"
)

// Adapter stores and retrieves casbin policies using pgx.
type Adapter struct {
	store *store
}

var (
	_ persist.Adapter             = (*Adapter)(nil)
	_ persist.ContextAdapter      = (*Adapter)(nil)
	_ persist.BatchAdapter        = (*Adapter)(nil)
	_ persist.ContextBatchAdapter = (*Adapter)(nil)
)

// Option configures an Adapter.
type Option func(*Adapter)

// WithTableName overrides the default policy table name.
func WithTableName(tableName string) Option {
	return func(a *Adapter) {
		a.store.tableName = lo.SnakeCase(tableName)
	}
}

// NewAdapter creates a pgx-backed adapter after checking the connection.
func NewAdapter(ctx context.Context, db interface {
	driver.Pinger
	Commander
}, opts ...Option) (*Adapter, error) {
	if err := db.Ping(ctx); err != nil {
		return nil, err
	}

	adapter := &Adapter{store: newStore(db)}
	for _, opt := range opts {
		opt(adapter)
	}

	return adapter, nil
}

// Seed inserts rules that are not stored yet. Each rule starts with its
// ptype, e.g. {"p", "super_admin", "otp_stats", "read"}.
func (a *Adapter) Seed(ctx context.Context, rules [][]string) error {
	return a.store.insertAll(ctx, rules)
}

func (a *Adapter) LoadPolicyCtx(ctx context.Context, m model.Model) error {
	lines, err := a.store.selectAll(ctx)
	if err != nil {
		return err
	}

	for _, line := range lines {
		if err := persist.LoadPolicyArray(line, m); err != nil {
			return err
		}
	}
	return nil
}

func (a *Adapter) SavePolicyCtx(ctx context.Context, m model.Model) error {
	return a.store.replaceAll(ctx, collectRules(m))
}

func (a *Adapter) AddPolicyCtx(ctx context.Context, _ string, ptype string, rule []string) error {
	return a.store.insertRow(ctx, ptype, rule)
}

func (a *Adapter) RemovePolicyCtx(ctx context.Context, _ string, ptype string, rule []string) error {
	return a.store.deleteRow(ctx, ptype, rule)
}

func (a *Adapter) RemoveFilteredPolicyCtx(ctx context.Context, _ string, ptype string, fieldIndex int, fieldValues ...string) error {
	return a.store.deleteWhere(ctx, ptype, fieldIndex, fieldValues...)
}

func (a *Adapter) AddPoliciesCtx(ctx context.Context, _ string, ptype string, rules [][]string) error {
	return a.store.insertAll(ctx, withPType(ptype, rules))
}

func (a *Adapter) RemovePoliciesCtx(ctx context.Context, _ string, ptype string, rules [][]string) error {
	return a.store.deleteAllRows(ctx, withPType(ptype, rules))
}

func (a *Adapter) LoadPolicy(m model.Model) error {
	return a.LoadPolicyCtx(context.Background(), m)
}

func (a *Adapter) SavePolicy(m model.Model) error {
	return a.SavePolicyCtx(context.Background(), m)
}

func (a *Adapter) AddPolicy(sec string, ptype string, rule []string) error {
	return a.AddPolicyCtx(context.Background(), sec, ptype, rule)
}

func (a *Adapter) RemovePolicy(sec string, ptype string, rule []string) error {
	return a.RemovePolicyCtx(context.Background(), sec, ptype, rule)
}

func (a *Adapter) RemoveFilteredPolicy(sec string, ptype string, fieldIndex int, fieldValues ...string) error {
	return a.RemoveFilteredPolicyCtx(context.Background(), sec, ptype, fieldIndex, fieldValues...)
}

func (a *Adapter) AddPolicies(sec string, ptype string, rules [][]string) error {
	return a.AddPoliciesCtx(context.Background(), sec, ptype, rules)
}

func (a *Adapter) RemovePolicies(sec string, ptype string, rules [][]string) error {
	return a.RemovePoliciesCtx(context.Background(), sec, ptype, rules)
}

func withPType(ptype string, rules [][]string) [][]string {
	return lo.Map(rules, func(rule []string, _ int) []string { return genRule(ptype, rule) })
}

func collectRules(m model.Model) [][]string {
	var rules [][]string
	for _, sec := range []string{"p", "g"} {
		for ptype, ast := range m[sec] {
			for _, rule := range ast.Policy {
				rules = append(rules, genRule(ptype, rule))
			}
		}
	}
	return rules
}
