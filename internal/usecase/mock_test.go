//go:build !integration

package usecase_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"testing/fstest"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"gymdesk/internal/domain"
	"gymdesk/internal/domain/model"
	"gymdesk/internal/domain/ports/adapter"
	"gymdesk/internal/domain/ports/repository"
	"gymdesk/internal/infra/i18n"
	"gymdesk/internal/usecase"
)

// -----------------------------
// Utilities
// -----------------------------

func date(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func intPtr(v int) *int              { return &v }
func int64Ptr(v int64) *int64        { return &v }
func strPtr(v string) *string        { return &v }
func timePtr(t time.Time) *time.Time { return &t }

func fixedClock(today time.Time) usecase.Clock {
	return usecase.Clock{Now: func() time.Time { return today.Add(10 * time.Hour) }, Loc: time.UTC}
}

func cloneMember(m *model.Member) *model.Member {
	c := *m
	c.ApplyEntitlement(m.Entitlement())
	if m.BirthDate != nil {
		b := *m.BirthDate
		c.BirthDate = &b
	}
	if m.PaymentDueDay != nil {
		d := *m.PaymentDueDay
		c.PaymentDueDay = &d
	}
	return &c
}

func clonePayment(p *model.Payment) *model.Payment {
	c := *p
	c.Snapshot.OptionIDs = append([]string(nil), p.Snapshot.OptionIDs...)
	c.Snapshot.Options = append([]model.OptionSnapshot(nil), p.Snapshot.Options...)
	return &c
}

// snapshotter is implemented by in-memory repos that can roll their state
// back when a mocked transaction fails.
type snapshotter interface {
	snapshot() (restore func())
}

// =============================
// Transaction manager
// =============================

type MockTxManager struct {
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error

	// stores are restored to their pre-transaction state when fn fails.
	stores []snapshotter
	Calls  int
}

func NewMockTxManager(stores ...snapshotter) *MockTxManager {
	return &MockTxManager{stores: stores}
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

// WithTx runs fn with NoTX unless WithTxFunc is set. Registered stores are
// rolled back on error, like a real transaction.
func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	m.Calls++
	restores := make([]func(), 0, len(m.stores))
	for _, s := range m.stores {
		restores = append(restores, s.snapshot())
	}
	if err := fn(ctx, repository.NoTX); err != nil {
		for _, r := range restores {
			r()
		}
		return err
	}
	return nil
}

// =============================
// Repositories
// =============================

// ---- Gyms ----

type MockGymRepo struct {
	mu   sync.Mutex
	data map[string]*model.Gym

	SaveFunc        func(ctx context.Context, tx repository.Tx, g *model.Gym) error
	FindByOwnerFunc func(ctx context.Context, tx repository.Tx, ownerID string) (*model.Gym, error)
}

func NewMockGymRepo() *MockGymRepo {
	return &MockGymRepo{data: map[string]*model.Gym{}}
}

var _ repository.GymRepository = (*MockGymRepo)(nil)

func (m *MockGymRepo) Save(ctx context.Context, tx repository.Tx, g *model.Gym) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, g)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *g
	m.data[g.ID] = &c
	return nil
}

func (m *MockGymRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Gym, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.data[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := *g
	return &c, nil
}

func (m *MockGymRepo) FindByOwner(ctx context.Context, tx repository.Tx, ownerID string) (*model.Gym, error) {
	if m.FindByOwnerFunc != nil {
		return m.FindByOwnerFunc(ctx, tx, ownerID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, g := range m.data {
		if g.OwnerID == ownerID {
			c := *g
			return &c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockGymRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Gym, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.Gym, 0, len(m.data))
	for _, g := range m.data {
		c := *g
		out = append(out, &c)
	}
	return out, nil
}

// ---- Members ----

type MockMemberRepo struct {
	mu   sync.Mutex
	data map[string]*model.Member

	SaveFunc              func(ctx context.Context, tx repository.Tx, m *model.Member) error
	SaveBatchFunc         func(ctx context.Context, tx repository.Tx, ms []*model.Member) error
	FindByIDFunc          func(ctx context.Context, tx repository.Tx, gymID, id string) (*model.Member, error)
	UpdateEntitlementFunc func(ctx context.Context, tx repository.Tx, gymID, id string, prev, next model.Entitlement) error
}

func NewMockMemberRepo() *MockMemberRepo {
	return &MockMemberRepo{data: map[string]*model.Member{}}
}

var _ repository.MemberRepository = (*MockMemberRepo)(nil)

func (m *MockMemberRepo) snapshot() func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	saved := make(map[string]*model.Member, len(m.data))
	for k, v := range m.data {
		saved[k] = cloneMember(v)
	}
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.data = saved
	}
}

// Put stores mem as is, entitlement included.
func (m *MockMemberRepo) Put(mem *model.Member) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[mem.ID] = cloneMember(mem)
}

// Stored returns the persisted copy of a member, or nil.
func (m *MockMemberRepo) Stored(id string) *model.Member {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.data[id]; ok {
		return cloneMember(v)
	}
	return nil
}

func (m *MockMemberRepo) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}

func (m *MockMemberRepo) Save(ctx context.Context, tx repository.Tx, mem *model.Member) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, mem)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c := cloneMember(mem)
	if old, ok := m.data[mem.ID]; ok {
		// profile writes never touch the entitlement
		c.ApplyEntitlement(old.Entitlement())
	}
	m.data[mem.ID] = c
	return nil
}

func (m *MockMemberRepo) SaveBatch(ctx context.Context, tx repository.Tx, ms []*model.Member) error {
	if m.SaveBatchFunc != nil {
		return m.SaveBatchFunc(ctx, tx, ms)
	}
	for _, mem := range ms {
		if err := m.Save(ctx, tx, mem); err != nil {
			return err
		}
	}
	return nil
}

func (m *MockMemberRepo) FindByID(ctx context.Context, tx repository.Tx, gymID, id string) (*model.Member, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, tx, gymID, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[id]
	if !ok || v.GymID != gymID {
		return nil, domain.ErrNotFound
	}
	return cloneMember(v), nil
}

func (m *MockMemberRepo) List(ctx context.Context, tx repository.Tx, gymID string, f model.MemberFilter) ([]*model.Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Member
	for _, v := range m.data {
		if v.GymID != gymID {
			continue
		}
		if f.Status != "" && v.Status != f.Status {
			continue
		}
		if f.Query != "" && !strings.Contains(v.Name, f.Query) && !strings.Contains(v.Phone, f.Query) {
			continue
		}
		out = append(out, cloneMember(v))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *MockMemberRepo) UpdateEntitlement(ctx context.Context, tx repository.Tx, gymID, id string, prev, next model.Entitlement) error {
	if m.UpdateEntitlementFunc != nil {
		return m.UpdateEntitlementFunc(ctx, tx, gymID, id, prev, next)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[id]
	if !ok || v.GymID != gymID {
		return domain.ErrNotFound
	}
	if !sameTime(v.PaymentEndDate, prev.PaymentEndDate) || !sameInt(v.RemainingSessions, prev.RemainingSessions) {
		return domain.Conflict("member", id)
	}
	v.ApplyEntitlement(next)
	v.UpdatedAt = time.Now()
	return nil
}

func (m *MockMemberRepo) Delete(ctx context.Context, tx repository.Tx, gymID string, ids []string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, id := range ids {
		if v, ok := m.data[id]; ok && v.GymID == gymID {
			delete(m.data, id)
			n++
		}
	}
	return n, nil
}

func (m *MockMemberRepo) ListAll(ctx context.Context, tx repository.Tx, gymID string) ([]*model.Member, error) {
	return m.List(ctx, tx, gymID, model.MemberFilter{})
}

func (m *MockMemberRepo) CountByState(ctx context.Context, tx repository.Tx, gymID string, today time.Time, expiringWithin int) (map[model.EntitlementState]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[model.EntitlementState]int{}
	for _, v := range m.data {
		if v.GymID == gymID && v.Status == model.MemberActive {
			out[v.State(today, expiringWithin)]++
		}
	}
	return out, nil
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func sameInt(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// ---- Plans ----

type MockPlanRepo struct {
	mu   sync.Mutex
	data map[string]*model.Plan

	FindByIDFunc func(ctx context.Context, tx repository.Tx, gymID, id string) (*model.Plan, error)
}

func NewMockPlanRepo() *MockPlanRepo {
	return &MockPlanRepo{data: map[string]*model.Plan{}}
}

var _ repository.PlanRepository = (*MockPlanRepo)(nil)

func (m *MockPlanRepo) Save(ctx context.Context, tx repository.Tx, p *model.Plan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *p
	m.data[p.ID] = &c
	return nil
}

func (m *MockPlanRepo) FindByID(ctx context.Context, tx repository.Tx, gymID, id string) (*model.Plan, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, tx, gymID, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.data[id]
	if !ok || p.GymID != gymID {
		return nil, domain.ErrNotFound
	}
	c := *p
	return &c, nil
}

func (m *MockPlanRepo) ListActive(ctx context.Context, tx repository.Tx, gymID string) ([]*model.Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Plan
	for _, p := range m.data {
		if p.GymID == gymID && p.IsActive {
			c := *p
			out = append(out, &c)
		}
	}
	return out, nil
}

func (m *MockPlanRepo) Deactivate(ctx context.Context, tx repository.Tx, gymID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.data[id]
	if !ok || p.GymID != gymID {
		return domain.ErrNotFound
	}
	p.IsActive = false
	return nil
}

// ---- Options ----

type MockOptionRepo struct {
	mu   sync.Mutex
	data map[string]*model.Option
}

func NewMockOptionRepo() *MockOptionRepo {
	return &MockOptionRepo{data: map[string]*model.Option{}}
}

var _ repository.OptionRepository = (*MockOptionRepo)(nil)

func (m *MockOptionRepo) Save(ctx context.Context, tx repository.Tx, o *model.Option) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *o
	m.data[o.ID] = &c
	return nil
}

func (m *MockOptionRepo) FindByIDs(ctx context.Context, tx repository.Tx, gymID string, ids []string) ([]*model.Option, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Option
	for _, id := range ids {
		if o, ok := m.data[id]; ok && o.GymID == gymID {
			c := *o
			out = append(out, &c)
		}
	}
	return out, nil
}

func (m *MockOptionRepo) ListActive(ctx context.Context, tx repository.Tx, gymID string) ([]*model.Option, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Option
	for _, o := range m.data {
		if o.GymID == gymID && o.IsActive {
			c := *o
			out = append(out, &c)
		}
	}
	return out, nil
}

func (m *MockOptionRepo) Deactivate(ctx context.Context, tx repository.Tx, gymID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.data[id]
	if !ok || o.GymID != gymID {
		return domain.ErrNotFound
	}
	o.IsActive = false
	return nil
}

// ---- Payments ----

type MockPaymentRepo struct {
	mu   sync.Mutex
	data map[string]*model.Payment

	SaveFunc   func(ctx context.Context, tx repository.Tx, p *model.Payment) error
	UpdateFunc func(ctx context.Context, tx repository.Tx, p *model.Payment) error
}

func NewMockPaymentRepo() *MockPaymentRepo {
	return &MockPaymentRepo{data: map[string]*model.Payment{}}
}

var _ repository.PaymentRepository = (*MockPaymentRepo)(nil)

func (m *MockPaymentRepo) snapshot() func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	saved := make(map[string]*model.Payment, len(m.data))
	for k, v := range m.data {
		saved[k] = clonePayment(v)
	}
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.data = saved
	}
}

func (m *MockPaymentRepo) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}

func (m *MockPaymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[p.ID]; ok {
		return domain.ErrAlreadyExists
	}
	m.data[p.ID] = clonePayment(p)
	return nil
}

func (m *MockPaymentRepo) Update(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, tx, p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.data[p.ID]
	if !ok || old.GymID != p.GymID {
		return domain.ErrNotFound
	}
	old.Amount = p.Amount
	old.AmountOverridden = p.AmountOverridden
	old.PaymentDate = p.PaymentDate
	old.Note = p.Note
	old.UpdatedAt = p.UpdatedAt
	return nil
}

func (m *MockPaymentRepo) FindByID(ctx context.Context, tx repository.Tx, gymID, id string) (*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.data[id]
	if !ok || p.GymID != gymID {
		return nil, domain.ErrNotFound
	}
	return clonePayment(p), nil
}

// ListByMember returns payments in map order; callers must not rely on
// the store for ordering.
func (m *MockPaymentRepo) ListByMember(ctx context.Context, tx repository.Tx, gymID, memberID string) ([]*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Payment
	for _, p := range m.data {
		if p.GymID == gymID && p.MemberID == memberID {
			out = append(out, clonePayment(p))
		}
	}
	return out, nil
}

func (m *MockPaymentRepo) CountByMember(ctx context.Context, tx repository.Tx, gymID string, memberIDs []string) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	want := map[string]bool{}
	for _, id := range memberIDs {
		want[id] = true
	}
	out := map[string]int{}
	for _, p := range m.data {
		if p.GymID == gymID && want[p.MemberID] {
			out[p.MemberID]++
		}
	}
	return out, nil
}

func (m *MockPaymentRepo) Revenue(ctx context.Context, tx repository.Tx, gymID, period string, from, to time.Time) ([]model.RevenueBucket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	layout := "2006-01"
	if period == "year" {
		layout = "2006"
	}
	byKey := map[string]*model.RevenueBucket{}
	for _, p := range m.data {
		if p.GymID != gymID || p.PaymentDate.Before(from) || !p.PaymentDate.Before(to) {
			continue
		}
		k := p.PaymentDate.Format(layout)
		b, ok := byKey[k]
		if !ok {
			b = &model.RevenueBucket{Period: k}
			byKey[k] = b
		}
		b.Total += p.Amount
		b.Count++
	}
	out := make([]model.RevenueBucket, 0, len(byKey))
	for _, b := range byKey {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period < out[j].Period })
	return out, nil
}

// =============================
// Adapters
// =============================

// MockIdentity returns a fixed principal. A zero ID means signed out.
type MockIdentity struct {
	ID string
}

func (m MockIdentity) CurrentPrincipal(ctx context.Context) (*adapter.Principal, error) {
	if m.ID == "" {
		return nil, domain.ErrUnauthenticated
	}
	return &adapter.Principal{ID: m.ID, Email: m.ID + "@example.com"}, nil
}

// MockSealer prefixes instead of encrypting so tests can read the stored
// value.
type MockSealer struct {
	Err error
}

func (s MockSealer) Encrypt(plaintext string) (string, error) {
	if s.Err != nil {
		return "", s.Err
	}
	return "sealed:" + plaintext, nil
}

func (s MockSealer) Decrypt(ciphertext string) (string, error) {
	if !strings.HasPrefix(ciphertext, "sealed:") {
		return "", errors.New("not sealed")
	}
	return strings.TrimPrefix(ciphertext, "sealed:"), nil
}

type MockLocker struct {
	mu    sync.Mutex
	held  map[string]string
	ErrOn map[string]error
}

func NewMockLocker() *MockLocker {
	return &MockLocker{held: map[string]string{}, ErrOn: map[string]error{}}
}

func (l *MockLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err, bad := l.ErrOn[key]; bad {
		return "", err
	}
	if tok, ok := l.held[key]; ok && tok != "" {
		return "", domain.ErrLocked
	}
	tok := uuid.NewString()
	l.held[key] = tok
	return tok, nil
}

func (l *MockLocker) Unlock(ctx context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] == token {
		delete(l.held, key)
		return nil
	}
	return errors.New("unlock token mismatch")
}

func (l *MockLocker) Held(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.held[key]
	return ok
}

type MockRateLimiter struct {
	AllowFunc func(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
	Keys      []string
}

func (r *MockRateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	r.Keys = append(r.Keys, key)
	if r.AllowFunc != nil {
		return r.AllowFunc(ctx, key, limit, window)
	}
	return true, nil
}

type MockSheetParser struct {
	Drafts  []model.MemberDraft
	Dropped int
	Err     error
}

func (p *MockSheetParser) Parse(ctx context.Context, r io.Reader, filename string) ([]model.MemberDraft, int, error) {
	if p.Err != nil {
		return nil, 0, p.Err
	}
	return p.Drafts, p.Dropped, nil
}

func emptyUpload() io.Reader { return bytes.NewReader(nil) }

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

func newTestTranslator() *i18n.Translator {
	testFS := fstest.MapFS{
		"locales/en.yaml": {
			Data: []byte("repeat.plan_missing: 'plan gone'\n" +
				"repeat.snapshot_missing: 'no snapshot'\n" +
				"repeat.options_dropped: '%d options dropped'\n"),
		},
	}
	tr, err := i18n.NewTranslator(testFS, "en")
	if err != nil {
		panic(err)
	}
	return tr
}

// =============================
// Fixture
// =============================

const (
	ownerID = "owner-1"
	gymID   = "gym-1"
)

// fixture wires every in-memory store behind a gym owned by ownerID.
type fixture struct {
	gyms     *MockGymRepo
	members  *MockMemberRepo
	plans    *MockPlanRepo
	options  *MockOptionRepo
	payments *MockPaymentRepo
	tm       *MockTxManager
	identity MockIdentity
}

func newFixture() *fixture {
	f := &fixture{
		gyms:     NewMockGymRepo(),
		members:  NewMockMemberRepo(),
		plans:    NewMockPlanRepo(),
		options:  NewMockOptionRepo(),
		payments: NewMockPaymentRepo(),
		identity: MockIdentity{ID: ownerID},
	}
	f.tm = NewMockTxManager(f.members, f.payments)
	_ = f.gyms.Save(context.Background(), nil, &model.Gym{ID: gymID, OwnerID: ownerID, Name: "Test Gym"})
	return f
}

func (f *fixture) addMember(id string, e model.Entitlement) *model.Member {
	m, err := model.NewMember(id, gymID, "member "+id)
	if err != nil {
		panic(err)
	}
	m.ApplyEntitlement(e)
	f.members.Put(m)
	return m
}

func (f *fixture) addPlan(p *model.Plan) *model.Plan {
	if p.GymID == "" {
		p.GymID = gymID
	}
	_ = f.plans.Save(context.Background(), nil, p)
	return p
}

func (f *fixture) addOption(o *model.Option) *model.Option {
	if o.GymID == "" {
		o.GymID = gymID
	}
	_ = f.options.Save(context.Background(), nil, o)
	return o
}
