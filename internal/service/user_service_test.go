package service

import (
	"testing"

	"github.com/spec-kit/hostel-service/internal/config"
	"github.com/spec-kit/hostel-service/internal/domain"
	apperrors "github.com/spec-kit/hostel-service/pkg/util/errorutil"
)

func TestUpdateProfile(t *testing.T) {
	f := newFixture(t, config.RequestsConfig{})
	student := f.user(t, "a@hostel.test", domain.RoleStudent, "A")

	updated, err := f.users.UpdateProfile(f.ctx, student, ProfileInput{Block: strPtr("c"), RoomType: strPtr("2-bedded"), Phone: strPtr(" 555 ")})
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if *updated.Block != "C" || *updated.RoomType != domain.RoomType2Bed || updated.Phone != "555" || updated.Role != domain.RoleStudent {
		t.Fatalf("unexpected profile %+v", updated)
	}

	cleared, err := f.users.UpdateProfile(f.ctx, student, ProfileInput{RoomNumber: strPtr("")})
	if err != nil {
		t.Fatalf("clear room: %v", err)
	}
	if cleared.RoomNumber != nil {
		t.Fatalf("empty value should clear the room number")
	}

	_, err = f.users.UpdateProfile(f.ctx, student, ProfileInput{Name: strPtr(" "), ACType: strPtr("cold"), HostelType: strPtr("mixed")})
	if !apperrors.IsKind(err, apperrors.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if fields := apperrors.ToDomainError(err).Details["fields"].([]apperrors.FieldError); len(fields) != 3 {
		t.Fatalf("expected three failing fields, got %+v", fields)
	}
}

func TestBlockResidents(t *testing.T) {
	f := newFixture(t, config.RequestsConfig{})
	admin := f.user(t, "admin@hostel.test", domain.RoleAdmin, "")
	me := f.user(t, "me@hostel.test", domain.RoleStudent, "E")
	f.user(t, "mate@hostel.test", domain.RoleStudent, "E")
	gone := f.user(t, "gone@hostel.test", domain.RoleStudent, "E")
	f.user(t, "other@hostel.test", domain.RoleStudent, "F")
	if err := f.users.Deactivate(f.ctx, admin, gone.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	residents, page, err := f.users.BlockResidents(f.ctx, me, "e", 1, 0)
	if err != nil {
		t.Fatalf("block residents: %v", err)
	}
	if len(residents) != 1 || residents[0].Email != "mate@hostel.test" || page.Total != 1 || page.Limit != 10 {
		t.Fatalf("unexpected residents %+v page %+v", residents, page)
	}
	if _, _, err := f.users.BlockResidents(f.ctx, me, "O", 1, 0); !apperrors.IsKind(err, apperrors.KindValidation) {
		t.Fatalf("unknown block must be rejected, got %v", err)
	}
}

func TestAdminUserManagement(t *testing.T) {
	f := newFixture(t, config.RequestsConfig{})
	admin := f.user(t, "admin@hostel.test", domain.RoleAdmin, "")
	staff := f.user(t, "staff@hostel.test", domain.RoleStaff, "")
	student := f.user(t, "kim@hostel.test", domain.RoleStudent, "G")

	if _, _, err := f.users.ListUsers(f.ctx, staff, UserQuery{}); !apperrors.HasCode(err, apperrors.CodeRoleNotPermitted) {
		t.Fatalf("staff cannot list users, got %v", err)
	}
	search := "KIM"
	users, page, err := f.users.ListUsers(f.ctx, admin, UserQuery{Search: &search})
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(users) != 1 || users[0].ID != student.ID || page.Limit != 20 {
		t.Fatalf("unexpected search result %+v page %+v", users, page)
	}

	role := domain.RoleStudent
	if _, err := f.users.UpdateUser(f.ctx, admin, admin.ID, AdminUserUpdate{Role: &role}); !apperrors.HasCode(err, apperrors.CodeRoleNotPermitted) {
		t.Fatalf("admins cannot demote themselves, got %v", err)
	}
	inactive := false
	if _, err := f.users.UpdateUser(f.ctx, admin, admin.ID, AdminUserUpdate{Active: &inactive, Profile: ProfileInput{Name: strPtr("Renamed")}}); !apperrors.HasCode(err, apperrors.CodeRoleNotPermitted) {
		t.Fatalf("admins cannot deactivate themselves, got %v", err)
	}
	if self, err := f.users.GetUser(f.ctx, admin, admin.ID); err != nil || self.Name == "Renamed" {
		t.Fatalf("rejected update must not be persisted: %+v (%v)", self, err)
	}

	promote := domain.RoleStaff
	promoted, err := f.users.UpdateUser(f.ctx, admin, student.ID, AdminUserUpdate{Role: &promote})
	if err != nil || promoted.Role != domain.RoleStaff {
		t.Fatalf("promote: %+v (%v)", promoted, err)
	}

	req := f.request(t, student, domain.ServiceWifi)
	if err := f.users.Deactivate(f.ctx, admin, student.ID); !apperrors.IsKind(err, apperrors.KindConflict) {
		t.Fatalf("owner of open requests cannot be deactivated, got %v", err)
	}
	f.complete(t, staff, req.ID)
	if err := f.users.Deactivate(f.ctx, admin, student.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	got, err := f.users.GetUser(f.ctx, admin, student.ID)
	if err != nil || got.Active {
		t.Fatalf("expected inactive user, got %+v (%v)", got, err)
	}
	if _, err := f.users.GetUser(f.ctx, admin, "nope"); !apperrors.IsKind(err, apperrors.KindNotFound) {
		t.Fatalf("malformed id should read as missing, got %v", err)
	}
}

func TestAdminUpdateRefusedDeactivationKeepsProfile(t *testing.T) {
	f := newFixture(t, config.RequestsConfig{})
	admin := f.user(t, "admin@hostel.test", domain.RoleAdmin, "")
	student := f.user(t, "lee@hostel.test", domain.RoleStudent, "B")
	f.request(t, student, domain.ServiceWifi)

	inactive := false
	promote := domain.RoleStaff
	_, err := f.users.UpdateUser(f.ctx, admin, student.ID, AdminUserUpdate{
		Role:    &promote,
		Active:  &inactive,
		Profile: ProfileInput{Name: strPtr("Renamed")},
	})
	if !apperrors.IsKind(err, apperrors.KindConflict) {
		t.Fatalf("owner of open requests cannot be deactivated, got %v", err)
	}

	got, err := f.users.GetUser(f.ctx, admin, student.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if got.Name == "Renamed" || got.Role != domain.RoleStudent || !got.Active {
		t.Fatalf("refused update leaked changes: %+v", got)
	}
}
