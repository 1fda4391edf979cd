package repository

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/hostel-service/internal/domain"
)

func seedOwner(t *testing.T, store *MemoryStore, email string, block domain.Block) *domain.User {
	t.Helper()
	room := "1"
	user := &domain.User{Name: email, Email: email, Role: domain.RoleStudent, Active: true, Block: &block, RoomNumber: &room}
	if err := store.Users().Create(context.Background(), user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func seedRequest(t *testing.T, store *MemoryStore, owner *domain.User, serviceType domain.ServiceType, status domain.RequestStatus) *domain.ServiceRequest {
	t.Helper()
	req := &domain.ServiceRequest{
		OwnerID:     owner.ID,
		ServiceType: serviceType,
		Status:      status,
		Priority:    domain.PriorityMedium,
		Title:       "t",
		Description: "d",
		Location:    domain.Location{Block: *owner.Block, RoomNumber: *owner.RoomNumber},
	}
	if err := store.Requests().Create(context.Background(), req); err != nil {
		t.Fatalf("create request: %v", err)
	}
	return req
}

func TestMemoryUpdateIsSerialized(t *testing.T) {
	store := NewMemoryStore()
	owner := seedOwner(t, store, "a@hostel.test", "A")
	req := seedRequest(t, store, owner, domain.ServiceWifi, domain.StatusPending)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Requests().Update(context.Background(), req.ID, func(r *domain.ServiceRequest) error {
				r.Description += "x"
				return nil
			})
			if err != nil {
				t.Errorf("update: %v", err)
			}
		}()
	}
	wg.Wait()

	got, err := store.Requests().GetByID(context.Background(), req.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Description != "d"+strings.Repeat("x", 50) {
		t.Fatalf("lost updates: %q", got.Description)
	}
}

func TestMemoryUpdateRollsBackOnError(t *testing.T) {
	store := NewMemoryStore()
	stamp := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.Now = func() time.Time { return stamp }
	owner := seedOwner(t, store, "a@hostel.test", "A")
	req := seedRequest(t, store, owner, domain.ServiceWifi, domain.StatusPending)

	boom := errors.New("boom")
	stamp = stamp.Add(time.Hour)
	_, err := store.Requests().Update(context.Background(), req.ID, func(r *domain.ServiceRequest) error {
		r.Title = "changed"
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected mutate error, got %v", err)
	}
	got, _ := store.Requests().GetByID(context.Background(), req.ID)
	if got.Title != "t" || !got.UpdatedAt.Equal(req.UpdatedAt) {
		t.Fatalf("failed mutation must not be stored: %+v", got)
	}

	updated, err := store.Requests().Update(context.Background(), req.ID, func(r *domain.ServiceRequest) error {
		r.Title = "changed"
		return nil
	})
	if err != nil || !updated.UpdatedAt.Equal(stamp) || !updated.CreatedAt.Equal(req.CreatedAt) {
		t.Fatalf("unexpected update %+v (%v)", updated, err)
	}

	if _, err := store.Requests().Update(context.Background(), "missing", func(*domain.ServiceRequest) error { return nil }); !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("expected ErrNoRows, got %v", err)
	}
}

func TestMemoryListFiltersAndPages(t *testing.T) {
	store := NewMemoryStore()
	a := seedOwner(t, store, "a@hostel.test", "A")
	b := seedOwner(t, store, "b@hostel.test", "B")
	for i := 0; i < 4; i++ {
		seedRequest(t, store, a, domain.ServiceMess, domain.StatusPending)
	}
	seedRequest(t, store, a, domain.ServiceWifi, domain.StatusCompleted)
	seedRequest(t, store, b, domain.ServiceMess, domain.StatusPending)

	block := domain.Block("A")
	items, total, err := store.Requests().List(context.Background(), RequestFilter{
		Block:        &block,
		ServiceTypes: []domain.ServiceType{domain.ServiceMess},
		Limit:        3,
		Offset:       3,
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 4 || len(items) != 1 {
		t.Fatalf("expected total 4 and one item on the second page, got %d/%d", total, len(items))
	}

	counts, err := store.Requests().CountByStatus(context.Background(), &a.ID)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if counts[domain.StatusPending] != 4 || counts[domain.StatusCompleted] != 1 {
		t.Fatalf("unexpected counts %+v", counts)
	}
}

func TestMemoryUsers(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	a := seedOwner(t, store, "A@Hostel.test", "A")
	if a.Email != "a@hostel.test" {
		t.Fatalf("email should be stored lowercase, got %q", a.Email)
	}
	dup := &domain.User{Name: "dup", Email: "a@HOSTEL.test", Role: domain.RoleStudent}
	if err := store.Users().Create(ctx, dup); !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("expected duplicate email, got %v", err)
	}

	req := seedRequest(t, store, a, domain.ServiceWifi, domain.StatusInProgress)
	if err := store.Users().SetActive(ctx, a.ID, false); !errors.Is(err, ErrHasActiveRequests) {
		t.Fatalf("expected refusal while requests are open, got %v", err)
	}
	if _, err := store.Requests().Update(ctx, req.ID, func(r *domain.ServiceRequest) error {
		r.Status = domain.StatusCancelled
		return nil
	}); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if err := store.Users().SetActive(ctx, a.ID, false); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	a.Name = "renamed"
	a.Active = true
	if err := store.Users().Update(ctx, a); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ := store.Users().GetByEmail(ctx, "A@hostel.TEST")
	if got.Name != "renamed" || got.Active {
		t.Fatalf("profile update must not reactivate: %+v", got)
	}
}
