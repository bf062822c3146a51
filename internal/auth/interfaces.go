package auth

import (
	"context"

	"religious_services_backend/internal/shared"

	"github.com/google/uuid"
)

// AccountService is the user functionality the auth handlers need.
// user.ServiceImplementation satisfies it.
type AccountService interface {
	Register(ctx context.Context, req shared.CreateUserRequest) (*shared.User, *shared.TokenResponse, error)
	Login(ctx context.Context, email, password string) (*shared.User, *shared.TokenResponse, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*shared.User, error)
}
