package service

import (
	"context"
	"time"

	"github.com/spec-kit/hostel-service/internal/auth"
	"github.com/spec-kit/hostel-service/internal/domain"
	"github.com/spec-kit/hostel-service/internal/repository"
)

const (
	recentRequestsPreview = 5
	trendMonths           = 6
)

// DashboardService computes read-only aggregates fresh on every call.
type DashboardService struct {
	requests repository.ServiceRequestRepository
	users    repository.UserRepository
	now      func() time.Time
}

// NewDashboardService constructs the service.
func NewDashboardService(requests repository.ServiceRequestRepository, users repository.UserRepository, clock func() time.Time) *DashboardService {
	if clock == nil {
		clock = time.Now
	}
	return &DashboardService{requests: requests, users: users, now: clock}
}

// Overview holds the headline request counts.
type Overview struct {
	TotalRequests      int64 `json:"total_requests"`
	PendingRequests    int64 `json:"pending_requests"`
	InProgressRequests int64 `json:"in_progress_requests"`
	CompletedRequests  int64 `json:"completed_requests"`
	CancelledRequests  int64 `json:"cancelled_requests"`
}

// BlockUsers is the number of active residents of a block.
type BlockUsers struct {
	Block domain.Block `json:"block"`
	Count int64        `json:"count"`
}

// MonthCount is the number of requests created in one calendar month.
type MonthCount struct {
	Year  int   `json:"year"`
	Month int   `json:"month"`
	Count int64 `json:"count"`
}

// AdminDashboard is the global view.
type AdminDashboard struct {
	Overview       Overview                       `json:"overview"`
	TotalUsers     int64                          `json:"total_users"`
	ByServiceType  map[domain.ServiceType]int64   `json:"by_service_type"`
	ByStatus       map[domain.RequestStatus]int64 `json:"by_status"`
	UsersByBlock   []BlockUsers                   `json:"users_by_block"`
	RecentRequests []domain.ServiceRequest        `json:"-"`
}

// UserStats is the per-user view.
type UserStats struct {
	Overview      Overview                       `json:"overview"`
	ByServiceType map[domain.ServiceType]int64   `json:"by_service_type"`
	ByStatus      map[domain.RequestStatus]int64 `json:"by_status"`
	MonthlyTrend  []MonthCount                   `json:"monthly_trend"`
}

// AdminDashboard aggregates every request and active users per block.
func (s *DashboardService) AdminDashboard(ctx context.Context, actor *domain.User) (*AdminDashboard, error) {
	if err := auth.AuthorizeRole(actor, domain.RoleAdmin); err != nil {
		return nil, err
	}
	byStatus, byType, err := s.groupings(ctx, nil)
	if err != nil {
		return nil, err
	}
	totalUsers, err := s.users.Count(ctx)
	if err != nil {
		return nil, storeError(err, "user", "")
	}
	blocks, err := s.users.CountActiveByBlock(ctx)
	if err != nil {
		return nil, storeError(err, "user", "")
	}
	recent, _, err := s.requests.List(ctx, repository.RequestFilter{Limit: recentRequestsPreview})
	if err != nil {
		return nil, storeError(err, "service request", "")
	}

	usersByBlock := make([]BlockUsers, 0, len(blocks))
	for _, b := range blocks {
		usersByBlock = append(usersByBlock, BlockUsers{Block: b.Block, Count: b.Count})
	}
	if recent == nil {
		recent = []domain.ServiceRequest{}
	}
	return &AdminDashboard{
		Overview:       overviewOf(byStatus),
		TotalUsers:     totalUsers,
		ByServiceType:  byType,
		ByStatus:       byStatus,
		UsersByBlock:   usersByBlock,
		RecentRequests: recent,
	}, nil
}

// UserStats aggregates the requests owned by actor, including a trailing
// six month trend bucketed by UTC calendar month.
func (s *DashboardService) UserStats(ctx context.Context, actor *domain.User) (*UserStats, error) {
	ownerID := actor.ID
	byStatus, byType, err := s.groupings(ctx, &ownerID)
	if err != nil {
		return nil, err
	}
	since := s.now().UTC().AddDate(0, -trendMonths, 0)
	monthly, err := s.requests.MonthlyCounts(ctx, &ownerID, since)
	if err != nil {
		return nil, storeError(err, "service request", "")
	}
	trend := make([]MonthCount, 0, len(monthly))
	for _, m := range monthly {
		trend = append(trend, MonthCount{Year: m.Year, Month: m.Month, Count: m.Count})
	}
	return &UserStats{
		Overview:      overviewOf(byStatus),
		ByServiceType: byType,
		ByStatus:      byStatus,
		MonthlyTrend:  trend,
	}, nil
}

func (s *DashboardService) groupings(ctx context.Context, ownerID *string) (map[domain.RequestStatus]int64, map[domain.ServiceType]int64, error) {
	counted, err := s.requests.CountByStatus(ctx, ownerID)
	if err != nil {
		return nil, nil, storeError(err, "service request", "")
	}
	typed, err := s.requests.CountByServiceType(ctx, ownerID)
	if err != nil {
		return nil, nil, storeError(err, "service request", "")
	}

	byStatus := make(map[domain.RequestStatus]int64, len(domain.Statuses))
	for _, status := range domain.Statuses {
		byStatus[status] = counted[status]
	}
	byType := make(map[domain.ServiceType]int64, len(domain.ServiceTypes))
	for _, t := range domain.ServiceTypes {
		byType[t] = typed[t]
	}
	return byStatus, byType, nil
}

func overviewOf(byStatus map[domain.RequestStatus]int64) Overview {
	o := Overview{
		PendingRequests:    byStatus[domain.StatusPending],
		InProgressRequests: byStatus[domain.StatusInProgress],
		CompletedRequests:  byStatus[domain.StatusCompleted],
		CancelledRequests:  byStatus[domain.StatusCancelled],
	}
	o.TotalRequests = o.PendingRequests + o.InProgressRequests + o.CompletedRequests + o.CancelledRequests
	return o
}
