package user

import (
	"strings"

	"religious_services_backend/internal/common"
	"religious_services_backend/internal/shared"
)

// DBToShared converts a GORM user.User model to a shared.User.
func DBToShared(dbUser *User) *shared.User {
	if dbUser == nil {
		return nil
	}
	return &shared.User{
		ID:             dbUser.ID,
		Email:          dbUser.Email,
		FirstName:      dbUser.FirstName,
		LastName:       dbUser.LastName,
		PersonalNumber: dbUser.PersonalNumber,
		Unit:           dbUser.Unit,
		Phone:          dbUser.Phone,
		Role:           dbUser.Role,
		HasDeviceToken: dbUser.DeviceToken != nil && *dbUser.DeviceToken != "",
		CreatedAt:      dbUser.CreatedAt,
		UpdatedAt:      dbUser.UpdatedAt,
		LastLoginAt:    dbUser.LastLoginAt,
	}
}

// CreateRequestToDB builds a new user row from a registration request.
func CreateRequestToDB(req *shared.CreateUserRequest, passwordHash string) *User {
	u := &User{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: passwordHash,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Unit:         strings.TrimSpace(req.Unit),
		Phone:        strings.TrimSpace(req.Phone),
		Role:         common.RoleUser,
	}
	if pn := strings.TrimSpace(req.PersonalNumber); pn != "" {
		u.PersonalNumber = &pn
	}
	return u
}
