package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/hostel-service/internal/domain"
)

// MemoryStore keeps users, requests and history in process memory. It backs
// the memory store driver and tests. Missing rows surface as pgx.ErrNoRows so
// callers handle both drivers the same way.
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[string]*memoryRow[domain.User]
	requests map[string]*memoryRow[domain.ServiceRequest]
	history  []domain.RequestHistory
	seq      int64

	// Now stamps created and updated times. Defaults to time.Now.
	Now func() time.Time
}

type memoryRow[T any] struct {
	seq   int64
	value T
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[string]*memoryRow[domain.User]),
		requests: make(map[string]*memoryRow[domain.ServiceRequest]),
		Now:      time.Now,
	}
}

// Users exposes the store as a UserRepository.
func (s *MemoryStore) Users() UserRepository { return memoryUsers{s} }

// Requests exposes the store as a ServiceRequestRepository.
func (s *MemoryStore) Requests() ServiceRequestRepository { return memoryRequests{s} }

// History exposes the store as a RequestHistoryRepository.
func (s *MemoryStore) History() RequestHistoryRepository { return memoryHistory{s} }

func (s *MemoryStore) now() time.Time { return s.Now().UTC() }

func (s *MemoryStore) nextSeq() int64 {
	s.seq++
	return s.seq
}

type memoryUsers struct{ s *MemoryStore }

func (m memoryUsers) Create(_ context.Context, user *domain.User) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	user.Email = strings.ToLower(user.Email)
	if m.emailTaken(user.Email, "") {
		return ErrDuplicateEmail
	}
	user.ID = uuid.NewString()
	now := m.s.now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	m.s.users[user.ID] = &memoryRow[domain.User]{seq: m.s.nextSeq(), value: *user}
	return nil
}

func (m memoryUsers) Update(_ context.Context, user *domain.User) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	row, ok := m.s.users[user.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	user.Email = strings.ToLower(user.Email)
	if m.emailTaken(user.Email, user.ID) {
		return ErrDuplicateEmail
	}
	user.Active = row.value.Active
	user.CreatedAt = row.value.CreatedAt
	user.UpdatedAt = m.s.now()
	row.value = *user
	return nil
}

func (m memoryUsers) emailTaken(email, exceptID string) bool {
	for id, row := range m.s.users {
		if id != exceptID && row.value.Email == email {
			return true
		}
	}
	return false
}

func (m memoryUsers) SetActive(_ context.Context, id string, active bool) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	row, ok := m.s.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	if !active {
		for _, req := range m.s.requests {
			if req.value.OwnerID == id && !req.value.Status.Terminal() {
				return ErrHasActiveRequests
			}
		}
	}
	row.value.Active = active
	row.value.UpdatedAt = m.s.now()
	return nil
}

func (m memoryUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	row, ok := m.s.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	user := row.value
	return &user, nil
}

func (m memoryUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	email = strings.ToLower(email)
	for _, row := range m.s.users {
		if row.value.Email == email {
			user := row.value
			return &user, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m memoryUsers) List(_ context.Context, filter UserFilter) ([]domain.User, int64, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	var term string
	if filter.Search != nil {
		term = strings.ToLower(strings.TrimSpace(*filter.Search))
	}
	var rows []*memoryRow[domain.User]
	for _, row := range m.s.users {
		u := row.value
		switch {
		case filter.Role != nil && u.Role != *filter.Role:
			continue
		case filter.Block != nil && (u.Block == nil || *u.Block != *filter.Block):
			continue
		case filter.Active != nil && u.Active != *filter.Active:
			continue
		case filter.ExcludeID != nil && u.ID == *filter.ExcludeID:
			continue
		}
		if term != "" && !userMatches(u, term) {
			continue
		}
		rows = append(rows, row)
	}
	sortNewestFirst(rows, func(u domain.User) time.Time { return u.CreatedAt })
	return page(rows, filter.Limit, filter.Offset), int64(len(rows)), nil
}

func userMatches(u domain.User, term string) bool {
	if strings.Contains(strings.ToLower(u.Name), term) || strings.Contains(u.Email, term) {
		return true
	}
	return u.RoomNumber != nil && strings.Contains(strings.ToLower(*u.RoomNumber), term)
}

func (m memoryUsers) Count(_ context.Context) (int64, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	return int64(len(m.s.users)), nil
}

func (m memoryUsers) CountActiveByBlock(_ context.Context) ([]BlockCount, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	counts := map[domain.Block]int64{}
	for _, row := range m.s.users {
		if row.value.Active && row.value.Block != nil {
			counts[*row.value.Block]++
		}
	}
	result := make([]BlockCount, 0, len(counts))
	for block, n := range counts {
		result = append(result, BlockCount{Block: block, Count: n})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Block < result[j].Block })
	return result, nil
}

type memoryRequests struct{ s *MemoryStore }

func (m memoryRequests) Create(_ context.Context, req *domain.ServiceRequest) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.users[req.OwnerID]; !ok {
		return pgx.ErrNoRows
	}
	req.ID = uuid.NewString()
	now := m.s.now()
	if req.CreatedAt.IsZero() {
		req.CreatedAt = now
	}
	req.UpdatedAt = now
	m.s.requests[req.ID] = &memoryRow[domain.ServiceRequest]{seq: m.s.nextSeq(), value: *req}
	return nil
}

func (m memoryRequests) GetByID(_ context.Context, id string) (*domain.ServiceRequest, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	row, ok := m.s.requests[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	req := row.value
	return &req, nil
}

func (m memoryRequests) Update(_ context.Context, id string, mutate func(*domain.ServiceRequest) error) (*domain.ServiceRequest, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	row, ok := m.s.requests[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	working := row.value
	if err := mutate(&working); err != nil {
		return nil, err
	}
	working.ID = row.value.ID
	working.UpdatedAt = m.s.now()
	row.value = working
	out := working
	return &out, nil
}

func (m memoryRequests) List(_ context.Context, filter RequestFilter) ([]domain.ServiceRequest, int64, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	var rows []*memoryRow[domain.ServiceRequest]
	for _, row := range m.s.requests {
		if requestMatches(row.value, filter) {
			rows = append(rows, row)
		}
	}
	sortNewestFirst(rows, func(r domain.ServiceRequest) time.Time { return r.CreatedAt })
	return page(rows, filter.Limit, filter.Offset), int64(len(rows)), nil
}

func requestMatches(r domain.ServiceRequest, f RequestFilter) bool {
	if f.OwnerID != nil && r.OwnerID != *f.OwnerID {
		return false
	}
	if f.AssigneeID != nil && (r.AssigneeID == nil || *r.AssigneeID != *f.AssigneeID) {
		return false
	}
	if f.Block != nil && r.Location.Block != *f.Block {
		return false
	}
	return contains(f.Statuses, r.Status) &&
		contains(f.ServiceTypes, r.ServiceType) &&
		contains(f.Priorities, r.Priority)
}

// contains treats an empty set as matching everything.
func contains[T comparable](set []T, v T) bool {
	if len(set) == 0 {
		return true
	}
	for _, candidate := range set {
		if candidate == v {
			return true
		}
	}
	return false
}

func (m memoryRequests) CountByStatus(_ context.Context, ownerID *string) (map[domain.RequestStatus]int64, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	counts := make(map[domain.RequestStatus]int64, len(domain.Statuses))
	for _, row := range m.s.requests {
		if ownerID == nil || row.value.OwnerID == *ownerID {
			counts[row.value.Status]++
		}
	}
	return counts, nil
}

func (m memoryRequests) CountByServiceType(_ context.Context, ownerID *string) (map[domain.ServiceType]int64, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	counts := make(map[domain.ServiceType]int64, len(domain.ServiceTypes))
	for _, row := range m.s.requests {
		if ownerID == nil || row.value.OwnerID == *ownerID {
			counts[row.value.ServiceType]++
		}
	}
	return counts, nil
}

func (m memoryRequests) MonthlyCounts(_ context.Context, ownerID *string, since time.Time) ([]MonthlyCount, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	type key struct{ year, month int }
	counts := map[key]int64{}
	for _, row := range m.s.requests {
		r := row.value
		if ownerID != nil && r.OwnerID != *ownerID {
			continue
		}
		if r.CreatedAt.Before(since) {
			continue
		}
		created := r.CreatedAt.UTC()
		counts[key{created.Year(), int(created.Month())}]++
	}
	result := make([]MonthlyCount, 0, len(counts))
	for k, n := range counts {
		result = append(result, MonthlyCount{Year: k.year, Month: k.month, Count: n})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Year != result[j].Year {
			return result[i].Year < result[j].Year
		}
		return result[i].Month < result[j].Month
	})
	return result, nil
}

type memoryHistory struct{ s *MemoryStore }

func (m memoryHistory) Create(_ context.Context, history *domain.RequestHistory) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.requests[history.RequestID]; !ok {
		return pgx.ErrNoRows
	}
	history.ID = uuid.NewString()
	history.CreatedAt = m.s.now()
	m.s.history = append(m.s.history, *history)
	return nil
}

func (m memoryHistory) ListByRequest(_ context.Context, requestID string, limit, offset int) ([]domain.RequestHistory, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	var entries []domain.RequestHistory
	for _, entry := range m.s.history {
		if entry.RequestID == requestID {
			entries = append(entries, entry)
		}
	}
	limit, offset = normalizePage(limit, offset)
	if offset >= len(entries) {
		return nil, nil
	}
	end := offset + limit
	if end > len(entries) {
		end = len(entries)
	}
	return entries[offset:end], nil
}

func sortNewestFirst[T any](rows []*memoryRow[T], createdAt func(T) time.Time) {
	sort.Slice(rows, func(i, j int) bool {
		ci, cj := createdAt(rows[i].value), createdAt(rows[j].value)
		if !ci.Equal(cj) {
			return ci.After(cj)
		}
		return rows[i].seq > rows[j].seq
	})
}

func page[T any](rows []*memoryRow[T], limit, offset int) []T {
	limit, offset = normalizePage(limit, offset)
	if offset >= len(rows) {
		return nil
	}
	end := offset + limit
	if end > len(rows) {
		end = len(rows)
	}
	out := make([]T, 0, end-offset)
	for _, row := range rows[offset:end] {
		out = append(out, row.value)
	}
	return out
}
