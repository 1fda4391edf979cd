package service

import (
	"context"
	"testing"
	"time"

	"github.com/spec-kit/hostel-service/internal/auth"
	"github.com/spec-kit/hostel-service/internal/config"
	"github.com/spec-kit/hostel-service/internal/domain"
	"github.com/spec-kit/hostel-service/internal/events"
	"github.com/spec-kit/hostel-service/internal/observability"
	"github.com/spec-kit/hostel-service/internal/repository"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func (c *fakeClock) Set(t time.Time) { c.t = t }

type fixture struct {
	ctx       context.Context
	clock     *fakeClock
	store     *repository.MemoryStore
	requests  *RequestService
	otp       *OTPService
	dashboard *DashboardService
	users     *UserService
	limiter   auth.AttemptLimiter
	codes     []string
	published []events.Event
}

func newFixture(t *testing.T, policy config.RequestsConfig) *fixture {
	t.Helper()
	if policy.DefaultPageSize == 0 {
		policy.DefaultPageSize = 10
	}
	if policy.MaxPageSize == 0 {
		policy.MaxPageSize = 100
	}
	f := &fixture{
		ctx:   context.Background(),
		clock: &fakeClock{t: time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC)},
		store: repository.NewMemoryStore(),
	}
	f.store.Now = f.clock.Now

	dispatcher := events.NewInMemoryDispatcher(nil)
	for _, eventType := range events.AllEventTypes {
		dispatcher.Subscribe(eventType, func(_ context.Context, e events.Event) error {
			f.published = append(f.published, e)
			return nil
		})
	}

	metrics := observability.NewMetrics()
	f.requests = NewRequestService(RequestDependencies{
		RequestRepo: f.store.Requests(),
		UserRepo:    f.store.Users(),
		HistoryRepo: f.store.History(),
		Dispatcher:  dispatcher,
		Metrics:     metrics,
		Policy:      policy,
		Clock:       f.clock.Now,
	})
	f.limiter = auth.NewMemoryAttemptLimiter(3, domain.OTPValidity)
	f.otp = NewOTPService(OTPDependencies{
		Requests: f.requests,
		Limiter:  f.limiter,
		Metrics:  metrics,
		Generator: func() (string, error) {
			code, err := auth.GenerateOTP()
			f.codes = append(f.codes, code)
			return code, err
		},
	})
	f.dashboard = NewDashboardService(f.store.Requests(), f.store.Users(), f.clock.Now)
	f.users = NewUserService(f.store.Users(), policy)
	return f
}

func (f *fixture) user(t *testing.T, email string, role domain.Role, block string) *domain.User {
	t.Helper()
	user := &domain.User{Name: email, Email: email, PasswordHash: "x", Role: role, Active: true}
	if block != "" {
		b := domain.Block(block)
		room := "101"
		user.Block = &b
		user.RoomNumber = &room
	}
	if err := f.store.Users().Create(f.ctx, user); err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return user
}

func (f *fixture) request(t *testing.T, owner *domain.User, serviceType domain.ServiceType) *domain.ServiceRequest {
	t.Helper()
	params := domain.NewRequestParams{
		ServiceType: serviceType,
		Title:       "Fix it",
		Description: "Please help",
	}
	switch serviceType {
	case domain.ServiceCleaning:
		ct := string(domain.CleaningRoom)
		params.Details.CleaningType = &ct
	case domain.ServiceLaundry:
		n := 10
		pickup := f.clock.Now().Add(time.Hour)
		params.Details.NumberOfClothes = &n
		params.Details.PickupTime = &pickup
	}
	req, err := f.requests.Create(f.ctx, owner, params)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	return req
}

func (f *fixture) complete(t *testing.T, staff *domain.User, id string) *domain.ServiceRequest {
	t.Helper()
	status := domain.StatusCompleted
	req, err := f.requests.Update(f.ctx, staff, id, RequestUpdate{Status: &status})
	if err != nil {
		t.Fatalf("complete request: %v", err)
	}
	return req
}

func (f *fixture) history(t *testing.T, id string) []domain.RequestHistory {
	t.Helper()
	entries, err := f.store.History().ListByRequest(f.ctx, id, 100, 0)
	if err != nil {
		t.Fatalf("list history: %v", err)
	}
	return entries
}

func countEvents(published []events.Event, eventType events.EventType) int {
	n := 0
	for _, e := range published {
		if e.Type == eventType {
			n++
		}
	}
	return n
}
