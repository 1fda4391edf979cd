package dto

import (
	"time"

	"github.com/spec-kit/hostel-service/internal/domain"
)

// ProfileRequest carries editable profile fields. Omitted fields are kept.
type ProfileRequest struct {
	Name        *string `json:"name"`
	Phone       *string `json:"phone"`
	HostelBlock *string `json:"hostel_block"`
	RoomNumber  *string `json:"room_number"`
	RoomType    *string `json:"room_type"`
	ACType      *string `json:"ac_type"`
	HostelType  *string `json:"hostel_type"`
}

// UserRegisterRequest payload for new students.
type UserRegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	ProfileRequest
}

// UserLoginRequest payload for login.
type UserLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ChangePasswordRequest payload.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// AdminUserUpdateRequest payload for PATCH /admin/users/:id.
type AdminUserUpdateRequest struct {
	Role     *domain.Role `json:"role"`
	IsActive *bool        `json:"is_active"`
	ProfileRequest
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Email       string             `json:"email"`
	Phone       string             `json:"phone,omitempty"`
	Role        domain.Role        `json:"role"`
	IsActive    bool               `json:"is_active"`
	HostelBlock *domain.Block      `json:"hostel_block"`
	RoomNumber  *string            `json:"room_number"`
	RoomType    *domain.RoomType   `json:"room_type"`
	ACType      *domain.ACType     `json:"ac_type"`
	HostelType  *domain.HostelType `json:"hostel_type"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// ResidentResponse is the reduced view returned for block mates.
type ResidentResponse struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	RoomNumber *string `json:"room_number"`
}

// NewUserResponse maps a user. The password hash never leaves the service.
func NewUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:          user.ID,
		Name:        user.Name,
		Email:       user.Email,
		Phone:       user.Phone,
		Role:        user.Role,
		IsActive:    user.Active,
		HostelBlock: user.Block,
		RoomNumber:  user.RoomNumber,
		RoomType:    user.RoomType,
		ACType:      user.ACType,
		HostelType:  user.HostelType,
		CreatedAt:   user.CreatedAt,
		UpdatedAt:   user.UpdatedAt,
	}
}

// NewResidentResponse maps a block resident.
func NewResidentResponse(user *domain.User) ResidentResponse {
	return ResidentResponse{ID: user.ID, Name: user.Name, Email: user.Email, RoomNumber: user.RoomNumber}
}
