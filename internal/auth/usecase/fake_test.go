package usecase

import (
	"context"
	"errors"
	"net"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/model"
	"github.com/shandysiswandi/adminauth/internal/auth/entity"
	"github.com/shandysiswandi/adminauth/internal/pkg/clock"
	"github.com/shandysiswandi/adminauth/internal/pkg/config"
	"github.com/shandysiswandi/adminauth/internal/pkg/goerror"
	"github.com/shandysiswandi/adminauth/internal/pkg/hash"
	"github.com/shandysiswandi/adminauth/internal/pkg/instrument"
	"github.com/shandysiswandi/adminauth/internal/pkg/jwt"
	"github.com/shandysiswandi/adminauth/internal/pkg/tzresolver"
	"github.com/shandysiswandi/adminauth/internal/pkg/uid"
	"github.com/shandysiswandi/adminauth/internal/pkg/validator"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory repoDB with the same predicates as the SQL store.
type memStore struct {
	mu        sync.Mutex
	admins    []entity.Admin
	records   []entity.OTPRecord
	addresses map[int64]entity.AdminAddress
	lastLogin map[int64]time.Time
	failOTP   error

	// afterValidLookup runs once GetLatestValidOTP has returned a record,
	// standing in for a concurrent sweep between read and write.
	afterValidLookup func(m *memStore, rec entity.OTPRecord)
}

func newMemStore(admins ...entity.Admin) *memStore {
	return &memStore{admins: admins, addresses: map[int64]entity.AdminAddress{}, lastLogin: map[int64]time.Time{}}
}

// ownerMatches compares emails exactly, as otp_records.email = $n does;
// lower-casing is the caller's job. Admin lookups fold case like lower().
func ownerMatches(o entity.Owner, r entity.OTPRecord) bool {
	if r.Owner.Email != o.Email {
		return false
	}
	if !o.Registered() {
		return !r.Owner.Registered()
	}
	return r.Owner.Registered() && *r.Owner.AdminID == *o.AdminID
}

// remove deletes the record with id. Callers hold m.mu.
func (m *memStore) remove(id int64) {
	kept := m.records[:0]
	for _, r := range m.records {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	m.records = kept
}

func (m *memStore) latest(match func(entity.OTPRecord) bool) (*entity.OTPRecord, error) {
	var found []entity.OTPRecord
	for _, r := range m.records {
		if match(r) {
			found = append(found, r)
		}
	}
	if len(found) == 0 {
		return nil, goerror.ErrNotFound
	}
	sort.Slice(found, func(i, j int) bool {
		if found[i].CreatedAt != found[j].CreatedAt {
			return found[i].CreatedAt > found[j].CreatedAt
		}
		return found[i].ID > found[j].ID
	})
	rec := found[0]
	return &rec, nil
}

func (m *memStore) update(id int64, fn func(*entity.OTPRecord)) error {
	if m.failOTP != nil {
		return m.failOTP
	}
	for i := range m.records {
		if m.records[i].ID == id {
			fn(&m.records[i])
			return nil
		}
	}
	return goerror.ErrNotFound
}

func (m *memStore) record(processID string) entity.OTPRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, _ := m.latest(func(r entity.OTPRecord) bool { return r.ProcessID == processID })
	if rec == nil {
		return entity.OTPRecord{}
	}
	return *rec
}

func (m *memStore) FindAdminByIdentifier(_ context.Context, identifier string) (*entity.Admin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.admins {
		if strings.EqualFold(a.Email, identifier) || strings.EqualFold(a.Name, identifier) || a.Phone == identifier {
			return &a, nil
		}
	}
	return nil, goerror.ErrNotFound
}

func (m *memStore) EmailRegistered(_ context.Context, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.admins {
		if strings.EqualFold(a.Email, email) && !a.IsDeleted {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) AdminNameTaken(_ context.Context, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.admins {
		if strings.EqualFold(a.Name, name) && !a.IsDeleted {
			return true, nil
		}
	}
	return false, nil
}

// consume flips a verified record to invalid. Callers hold m.mu.
func (m *memStore) consume(otpID int64) error {
	for i := range m.records {
		r := &m.records[i]
		if r.ID == otpID && r.IsValid && r.IsVerified {
			r.IsValid = false
			return nil
		}
	}
	return goerror.ErrNotFound
}

func (m *memStore) CreateAdmin(_ context.Context, admin entity.Admin, addr entity.AdminAddress, otpID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.admins {
		if !a.IsDeleted && (strings.EqualFold(a.Email, admin.Email) || strings.EqualFold(a.Name, admin.Name)) {
			return goerror.ErrConflict
		}
	}
	if err := m.consume(otpID); err != nil {
		return err
	}
	m.admins = append(m.admins, admin)
	if !addr.IsZero() {
		m.addresses[admin.ID] = addr
	}
	return nil
}

func (m *memStore) ResetAdminPassword(_ context.Context, adminID, otpID int64, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := -1
	for i := range m.admins {
		if m.admins[i].ID == adminID && !m.admins[i].IsDeleted {
			idx = i
		}
	}
	if idx < 0 {
		return goerror.ErrNotFound
	}
	if err := m.consume(otpID); err != nil {
		return err
	}
	m.admins[idx].PasswordHash = passwordHash
	return nil
}

func (m *memStore) admin(id int64) entity.Admin {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.admins {
		if a.ID == id {
			return a
		}
	}
	return entity.Admin{}
}

func (m *memStore) UpdateAdminLastLogin(_ context.Context, adminID int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastLogin[adminID] = at
	return nil
}

func (m *memStore) GetLatestActiveOTP(_ context.Context, owner entity.Owner, deviceID string) (*entity.OTPRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOTP != nil {
		return nil, m.failOTP
	}
	return m.latest(func(r entity.OTPRecord) bool {
		return ownerMatches(owner, r) && r.DeviceID == deviceID && r.IsValid && !r.IsVerified
	})
}

func (m *memStore) GetLatestValidOTP(_ context.Context, owner entity.Owner, processID string) (*entity.OTPRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOTP != nil {
		return nil, m.failOTP
	}
	rec, err := m.latest(func(r entity.OTPRecord) bool {
		return ownerMatches(owner, r) && r.ProcessID == processID && r.IsValid
	})
	if err == nil && m.afterValidLookup != nil {
		m.afterValidLookup(m, *rec)
	}
	return rec, err
}

func (m *memStore) CountDeviceOTPSince(_ context.Context, owner entity.Owner, deviceID, since string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range m.records {
		if ownerMatches(owner, r) && r.DeviceID == deviceID && r.CreatedAt >= since && r.IsValid {
			n++
		}
	}
	return n, nil
}

func (m *memStore) CountOTPSince(_ context.Context, owner entity.Owner, since string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range m.records {
		if ownerMatches(owner, r) && r.CreatedAt >= since && r.IsValid {
			n++
		}
	}
	return n, nil
}

func (m *memStore) ListActiveOTP(context.Context) ([]entity.OTPRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOTP != nil {
		return nil, m.failOTP
	}
	var out []entity.OTPRecord
	for _, r := range m.records {
		if r.IsValid && !r.IsVerified {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) GetOTPStats(context.Context) (*entity.Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := &entity.Stats{}
	for _, r := range m.records {
		st.Total++
		if r.IsVerified {
			st.Verified++
		}
		if r.IsValid && !r.IsVerified {
			st.Active++
		}
		if !r.IsValid {
			st.Invalid++
		}
		if r.Owner.AdminID == nil {
			st.Unregistered++
		} else {
			st.Registered++
		}
	}
	return st, nil
}

func (m *memStore) CreateOTP(_ context.Context, rec entity.OTPRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOTP != nil {
		return m.failOTP
	}
	m.records = append(m.records, rec)
	return nil
}

func (m *memStore) InvalidateOTP(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.update(id, func(r *entity.OTPRecord) { r.IsValid = false })
}

func (m *memStore) UpdateOTPFailedAttempts(_ context.Context, id int64, failed int, invalidate bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.update(id, func(r *entity.OTPRecord) {
		r.FailedAttempts = failed
		if invalidate {
			r.IsValid = false
		}
	})
}

func (m *memStore) MarkOTPVerified(_ context.Context, id int64, verifiedAt string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.update(id, func(r *entity.OTPRecord) {
		r.IsVerified = true
		r.VerifiedAt = verifiedAt
		r.FailedAttempts = 0
	})
}

func (m *memStore) DeleteResolvedOTPBefore(_ context.Context, cutoff string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOTP != nil {
		return 0, m.failOTP
	}
	kept := m.records[:0]
	var n int64
	for _, r := range m.records {
		if (r.IsVerified || !r.IsValid) && r.CreatedAt < cutoff {
			n++
			continue
		}
		kept = append(kept, r)
	}
	m.records = kept
	return n, nil
}

type fakeMail struct {
	mu   sync.Mutex
	sent []OTPMail
	err  error
}

func (f *fakeMail) SendOTP(_ context.Context, msg OTPMail) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeMail) last() OTPMail {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return OTPMail{}
	}
	return f.sent[len(f.sent)-1]
}

type fakeEvents struct {
	mu          sync.Mutex
	issued      []OTPIssuedEvent
	verified    []OTPVerifiedEvent
	invalidated []OTPInvalidatedEvent
	err         error
}

func (f *fakeEvents) PublishOTPIssued(_ context.Context, msg OTPIssuedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.issued = append(f.issued, msg)
	return f.err
}

func (f *fakeEvents) PublishOTPVerified(_ context.Context, msg OTPVerifiedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.verified = append(f.verified, msg)
	return f.err
}

func (f *fakeEvents) PublishOTPInvalidated(_ context.Context, msg OTPInvalidatedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated = append(f.invalidated, msg)
	return f.err
}

// zoneLocator maps fixed test IPs to zones.
type zoneLocator map[string]string

func (z zoneLocator) TimeZone(ip net.IP) (string, error) {
	if name, ok := z[ip.String()]; ok {
		return name, nil
	}
	return "", errors.New("address not in database")
}

type seqID struct {
	mu sync.Mutex
	n  int64
}

func (s *seqID) Generate() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return s.n
}

const (
	ipKolkata = "203.0.113.10"
	ipNewYork = "198.51.100.20"
)

const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && (p.obj == "*" || r.obj == p.obj) && (p.act == "*" || r.act == p.act)
`

type harness struct {
	uc     *Usecase
	store  *memStore
	mail   *fakeMail
	events *fakeEvents
	clock  *clock.Fixed
	jwt    jwt.JWT
}

// base is 10:00:00 in Asia/Kolkata.
var base = time.Date(2026, 3, 10, 4, 30, 0, 0, time.UTC)

func newHarness(t *testing.T, yaml string, admins ...entity.Admin) *harness {
	t.Helper()

	clk := clock.NewFixed(base)

	tz, err := tzresolver.New(tzresolver.Config{
		Locator: zoneLocator{ipKolkata: "Asia/Kolkata", ipNewYork: "America/New_York"},
		Clock:   clk,
	})
	require.NoError(t, err)

	v, err := validator.NewV10Validator()
	require.NoError(t, err)

	cfg, err := config.NewViperFromBytes("yaml", []byte(yaml))
	require.NoError(t, err)

	signer, err := jwt.NewHS512(jwt.Config{
		Secret:    []byte("0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"),
		Issuer:    "adminauth-test",
		Audiences: []string{"adminauth"},
		TTL:       time.Hour,
		Clock:     clk,
		UUID:      uid.NewUUID(),
	})
	require.NoError(t, err)

	m, err := model.NewModelFromString(rbacModel)
	require.NoError(t, err)
	enf, err := casbin.NewEnforcer(m)
	require.NoError(t, err)
	_, err = enf.AddPolicy("super_admin", permObjOTPStats, permActRead)
	require.NoError(t, err)
	_, err = enf.AddGroupingPolicy("auditor", "super_admin")
	require.NoError(t, err)

	h := &harness{
		store:  newMemStore(admins...),
		mail:   &fakeMail{},
		events: &fakeEvents{},
		clock:  clk,
		jwt:    signer,
	}

	h.uc = New(Dependency{
		RepoDB:        h.store,
		RepoMail:      h.mail,
		RepoMessaging: h.events,
		Timezone:      tz,
		Validator:     v,
		Config:        cfg,
		HMAC:          hash.NewHMACSHA256("otp-secret"),
		Bcrypt:        hash.NewBcrypt(4, ""),
		UID:           &seqID{},
		Clock:         clk,
		JWT:           signer,
		Instrument:    instrument.NewNoop(),
		Enforcer:      enf,
	})

	return h
}

func device(id, ip string) entity.DeviceInfo {
	return entity.DeviceInfo{DeviceID: id, DeviceName: "Mac", UserAgent: "Mozilla/5.0 (Macintosh)", IPAddress: ip}
}
