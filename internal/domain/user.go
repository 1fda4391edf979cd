package domain

import "time"

// Role enumerates the access level of an account.
type Role string

const (
	RoleStudent Role = "student"
	RoleStaff   Role = "staff"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleStaff, RoleAdmin:
		return true
	}
	return false
}

// Elevated reports whether r is staff or admin.
func (r Role) Elevated() bool {
	return r == RoleStaff || r == RoleAdmin
}

// Block identifies one of the hostel buildings.
type Block string

// Blocks lists every hostel block in ascending order. I and O are not used.
var Blocks = []Block{
	"A", "B", "C", "D", "E", "F", "G", "H", "J",
	"K", "L", "M", "N", "P", "Q", "R", "S", "T",
}

// Valid reports whether b is a known block.
func (b Block) Valid() bool {
	for _, candidate := range Blocks {
		if candidate == b {
			return true
		}
	}
	return false
}

// RoomType is the bed count class of a room.
type RoomType string

const (
	RoomType1Bed RoomType = "1-bedded"
	RoomType2Bed RoomType = "2-bedded"
	RoomType3Bed RoomType = "3-bedded"
	RoomType4Bed RoomType = "4-bedded"
	RoomType6Bed RoomType = "6-bedded"
	RoomType8Bed RoomType = "8-bedded"
)

func (t RoomType) Valid() bool {
	switch t {
	case RoomType1Bed, RoomType2Bed, RoomType3Bed, RoomType4Bed, RoomType6Bed, RoomType8Bed:
		return true
	}
	return false
}

// ACType tells whether a room is air conditioned.
type ACType string

const (
	ACTypeAC    ACType = "AC"
	ACTypeNonAC ACType = "Non-AC"
)

func (t ACType) Valid() bool {
	return t == ACTypeAC || t == ACTypeNonAC
}

// HostelType is the gender segregation of a hostel.
type HostelType string

const (
	HostelTypeMen   HostelType = "Men's"
	HostelTypeWomen HostelType = "Women's"
)

func (t HostelType) Valid() bool {
	return t == HostelTypeMen || t == HostelTypeWomen
}

// User is an account of the hostel services desk.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Phone        string
	Role         Role
	Active       bool
	Block        *Block
	RoomNumber   *string
	RoomType     *RoomType
	ACType       *ACType
	HostelType   *HostelType
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Location returns the home location of the user, if both parts are known.
func (u *User) Location() (Location, bool) {
	if u == nil || u.Block == nil || u.RoomNumber == nil || *u.RoomNumber == "" {
		return Location{}, false
	}
	return Location{Block: *u.Block, RoomNumber: *u.RoomNumber}, true
}
