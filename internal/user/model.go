package user

import (
	"time"

	"religious_services_backend/internal/common"

	"github.com/google/uuid"
)

// User represents the user model in the database.
type User struct {
	common.BaseModel
	Email          string  `gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash   string  `gorm:"type:varchar(255);not null"`
	FirstName      string  `gorm:"type:varchar(100)"`
	LastName       string  `gorm:"type:varchar(100)"`
	PersonalNumber *string `gorm:"type:varchar(20);uniqueIndex"`
	Unit           string  `gorm:"type:varchar(100)"`
	Phone          string  `gorm:"type:varchar(30)"`
	Role           string  `gorm:"type:varchar(20);not null;default:'user'"`
	DeviceToken    *string `gorm:"type:text"`
	LastLoginAt    *time.Time
}

// TableName specifies the table name for the User model.
func (User) TableName() string {
	return "users"
}

func (u *User) GetID() uuid.UUID { return u.ID }
func (u *User) GetEmail() string { return u.Email }
func (u *User) GetRole() string  { return u.Role }

// ListQuery filters the admin user list.
type ListQuery struct {
	common.PaginationQuery
	Search string `form:"search"`
	Role   string `form:"role" binding:"omitempty,oneof=user admin"`
}

// UpdateRoleRequest changes a user's role.
type UpdateRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=user admin"`
}

// DeviceTokenRequest registers (or clears, when empty) the push token of the caller.
type DeviceTokenRequest struct {
	DeviceToken string `json:"device_token" binding:"max=4096"`
}
