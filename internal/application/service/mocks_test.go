package service

import (
	"context"
	"time"

	"github.com/tripdesk/tripdesk/internal/domain/entity"
)

// nopLogger satisfies Logger for tests.
type nopLogger struct{}

func (nopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Error(msg string, keysAndValues ...interface{}) {}

// memStore is a shared in-memory fixture backing the mock repositories.
type memStore struct {
	users      map[int64]*entity.User
	policies   []*entity.Policy
	trips      map[int64]*entity.Trip
	items      map[int64][]*entity.TripItem
	violations map[int64][]*entity.Violation
	approvals  map[int64][]*entity.Approval
	nextID     int64
}

func newMemStore() *memStore {
	return &memStore{
		users:      make(map[int64]*entity.User),
		trips:      make(map[int64]*entity.Trip),
		items:      make(map[int64][]*entity.TripItem),
		violations: make(map[int64][]*entity.Violation),
		approvals:  make(map[int64][]*entity.Approval),
	}
}

func (s *memStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *memStore) addUser(u *entity.User) *entity.User {
	if u.ID == 0 {
		u.ID = s.id()
	}
	s.users[u.ID] = u
	return u
}

func (s *memStore) addPolicy(p *entity.Policy) *entity.Policy {
	if p.ID == 0 {
		p.ID = s.id()
	}
	s.policies = append(s.policies, p)
	return p
}

func (s *memStore) addTrip(t *entity.Trip) *entity.Trip {
	if t.ID == 0 {
		t.ID = s.id()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	s.trips[t.ID] = t
	return t
}

type mockUserRepo struct {
	store *memStore
}

func (m *mockUserRepo) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	return m.store.users[id], nil
}

type mockPolicyRepo struct {
	store *memStore
}

func (m *mockPolicyRepo) GetActive(ctx context.Context) (*entity.Policy, error) {
	if len(m.store.policies) == 0 {
		return nil, nil
	}
	return m.store.policies[len(m.store.policies)-1], nil
}

type mockTripRepo struct {
	store       *memStore
	getByIDFunc func(ctx context.Context, id int64) (*entity.Trip, error)
}

func (m *mockTripRepo) Create(ctx context.Context, trip *entity.Trip) error {
	trip.CreatedAt = time.Now()
	m.store.addTrip(trip)
	return nil
}

func (m *mockTripRepo) GetByID(ctx context.Context, id int64) (*entity.Trip, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return m.store.trips[id], nil
}

func (m *mockTripRepo) GetByIDs(ctx context.Context, ids []int64) (map[int64]*entity.Trip, error) {
	result := make(map[int64]*entity.Trip)
	for _, id := range ids {
		if trip, ok := m.store.trips[id]; ok {
			result[id] = trip
		}
	}
	return result, nil
}

func (m *mockTripRepo) UpdateStatus(ctx context.Context, id int64, status string) error {
	if trip, ok := m.store.trips[id]; ok {
		trip.Status = status
	}
	return nil
}

func (m *mockTripRepo) ListByOwner(ctx context.Context, ownerID int64, status string) ([]*entity.Trip, error) {
	var trips []*entity.Trip
	for _, trip := range m.store.trips {
		if trip.OwnerID == ownerID && (status == "" || trip.Status == status) {
			trips = append(trips, trip)
		}
	}
	return trips, nil
}

func (m *mockTripRepo) ListByStatus(ctx context.Context, status, department string) ([]*entity.Trip, error) {
	var trips []*entity.Trip
	for _, trip := range m.store.trips {
		if trip.Status == status && (department == "" || trip.Department == department) {
			trips = append(trips, trip)
		}
	}
	return trips, nil
}

func (m *mockTripRepo) ListByStartDateRange(ctx context.Context, from, to string) ([]*entity.Trip, error) {
	var trips []*entity.Trip
	for _, trip := range m.store.trips {
		if trip.StartDate >= from && trip.StartDate <= to {
			trips = append(trips, trip)
		}
	}
	return trips, nil
}

type mockItemRepo struct {
	store *memStore
}

func (m *mockItemRepo) Create(ctx context.Context, item *entity.TripItem) error {
	item.ID = m.store.id()
	item.CreatedAt = time.Now()
	m.store.items[item.TripID] = append(m.store.items[item.TripID], item)
	return nil
}

func (m *mockItemRepo) GetByTripID(ctx context.Context, tripID int64) ([]*entity.TripItem, error) {
	return m.store.items[tripID], nil
}

type mockViolationRepo struct {
	store *memStore
}

func (m *mockViolationRepo) InsertAll(ctx context.Context, violations []entity.Violation) error {
	for i := range violations {
		v := violations[i]
		v.ID = m.store.id()
		if v.CreatedAt.IsZero() {
			v.CreatedAt = time.Now()
		}
		m.store.violations[v.TripID] = append(m.store.violations[v.TripID], &v)
	}
	return nil
}

func (m *mockViolationRepo) GetByTripID(ctx context.Context, tripID int64) ([]*entity.Violation, error) {
	return m.store.violations[tripID], nil
}

func (m *mockViolationRepo) DeleteByTripID(ctx context.Context, tripID int64) error {
	delete(m.store.violations, tripID)
	return nil
}

func (m *mockViolationRepo) ListCreatedBetween(ctx context.Context, from, to string) ([]*entity.Violation, error) {
	var result []*entity.Violation
	for _, list := range m.store.violations {
		for _, v := range list {
			date := v.CreatedAt.Format(entity.DateLayout)
			if date >= from && date <= to {
				result = append(result, v)
			}
		}
	}
	return result, nil
}

type mockApprovalRepo struct {
	store *memStore
}

func (m *mockApprovalRepo) Create(ctx context.Context, approval *entity.Approval) error {
	approval.ID = m.store.id()
	approval.CreatedAt = time.Now()
	m.store.approvals[approval.TripID] = append(m.store.approvals[approval.TripID], approval)
	return nil
}

func (m *mockApprovalRepo) GetByTripID(ctx context.Context, tripID int64) ([]*entity.Approval, error) {
	return m.store.approvals[tripID], nil
}

// mockTxManager runs the function directly; the mock repositories share
// state regardless of transaction scope.
type mockTxManager struct{}

func (mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// fixture wires every service against one shared store.
type fixture struct {
	store     *memStore
	tripRepo  *mockTripRepo
	trips     TripService
	decisions DecisionService
	analytics AnalyticsService
}

func newFixture() *fixture {
	store := newMemStore()
	tripRepo := &mockTripRepo{store: store}
	itemRepo := &mockItemRepo{store: store}
	violationRepo := &mockViolationRepo{store: store}
	approvalRepo := &mockApprovalRepo{store: store}
	policyRepo := &mockPolicyRepo{store: store}
	userRepo := &mockUserRepo{store: store}
	tx := mockTxManager{}
	logger := nopLogger{}

	return &fixture{
		store:     store,
		tripRepo:  tripRepo,
		trips:     NewTripService(tripRepo, itemRepo, violationRepo, approvalRepo, policyRepo, userRepo, tx, logger),
		decisions: NewDecisionService(tripRepo, approvalRepo, tx, logger),
		analytics: NewAnalyticsService(tripRepo, itemRepo, violationRepo, userRepo, logger),
	}
}
