package dto

import "github.com/spec-kit/hostel-service/internal/service"

// AdminDashboardResponse is the admin overview with a short recent list.
type AdminDashboardResponse struct {
	*service.AdminDashboard
	RecentRequests []RequestResponse `json:"recent_requests"`
}

// NewAdminDashboardResponse maps the admin dashboard.
func NewAdminDashboardResponse(dash *service.AdminDashboard) AdminDashboardResponse {
	return AdminDashboardResponse{AdminDashboard: dash, RecentRequests: NewRequestList(dash.RecentRequests)}
}
