package service

import (
	"strings"

	"github.com/spec-kit/hostel-service/internal/domain"
	apperrors "github.com/spec-kit/hostel-service/pkg/util/errorutil"
)

// ProfileInput carries editable profile fields. Nil fields are left alone;
// an empty string clears an optional field.
type ProfileInput struct {
	Name       *string
	Phone      *string
	Block      *string
	RoomNumber *string
	RoomType   *string
	ACType     *string
	HostelType *string
}

// applyProfile validates input and copies it onto user, collecting every
// failing field.
func applyProfile(user *domain.User, input ProfileInput) []apperrors.FieldError {
	var fields []apperrors.FieldError
	invalid := func(field, msg string) {
		fields = append(fields, apperrors.FieldError{Field: field, Message: msg})
	}

	if input.Name != nil {
		if name := strings.TrimSpace(*input.Name); name == "" {
			invalid("name", "must not be empty")
		} else {
			user.Name = name
		}
	}
	if input.Phone != nil {
		user.Phone = strings.TrimSpace(*input.Phone)
	}
	if input.Block != nil {
		value := strings.ToUpper(strings.TrimSpace(*input.Block))
		if value == "" {
			user.Block = nil
		} else if block := domain.Block(value); !block.Valid() {
			invalid("hostel_block", "is not a known block")
		} else {
			user.Block = &block
		}
	}
	if input.RoomNumber != nil {
		if room := strings.TrimSpace(*input.RoomNumber); room == "" {
			user.RoomNumber = nil
		} else {
			user.RoomNumber = &room
		}
	}
	if input.RoomType != nil {
		if value := strings.TrimSpace(*input.RoomType); value == "" {
			user.RoomType = nil
		} else if rt := domain.RoomType(value); !rt.Valid() {
			invalid("room_type", "is not a known room type")
		} else {
			user.RoomType = &rt
		}
	}
	if input.ACType != nil {
		if value := strings.TrimSpace(*input.ACType); value == "" {
			user.ACType = nil
		} else if ac := domain.ACType(value); !ac.Valid() {
			invalid("ac_type", "must be AC or Non-AC")
		} else {
			user.ACType = &ac
		}
	}
	if input.HostelType != nil {
		if value := strings.TrimSpace(*input.HostelType); value == "" {
			user.HostelType = nil
		} else if ht := domain.HostelType(value); !ht.Valid() {
			invalid("hostel_type", "must be Men's or Women's")
		} else {
			user.HostelType = &ht
		}
	}
	return fields
}
