package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"religious_services_backend/internal/common"
	"religious_services_backend/internal/shared"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service defines the user operations exposed to handlers and other packages.
type Service interface {
	Register(ctx context.Context, req shared.CreateUserRequest) (*shared.User, *shared.TokenResponse, error)
	Login(ctx context.Context, email, password string) (*shared.User, *shared.TokenResponse, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*shared.User, error)
	ListUsers(ctx context.Context, query ListQuery) ([]shared.User, *common.Pagination, error)
	SetRole(ctx context.Context, id uuid.UUID, role string) (*shared.User, error)
	SetDeviceToken(ctx context.Context, id uuid.UUID, token string) error
	GetDeviceToken(ctx context.Context, id uuid.UUID) (string, error)
	DisplayNames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error)
	EnsureAdmin(ctx context.Context, req shared.CreateUserRequest) (*shared.User, bool, error)
}

// ServiceImplementation implements Service.
type ServiceImplementation struct {
	repo         Repository
	tokenService shared.TokenService
	logger       *zap.Logger
}

var _ Service = (*ServiceImplementation)(nil)
var _ shared.UserLookup = (*ServiceImplementation)(nil)

// NewService creates a new user service.
func NewService(repo Repository, tokenService shared.TokenService, logger *zap.Logger) *ServiceImplementation {
	return &ServiceImplementation{
		repo:         repo,
		tokenService: tokenService,
		logger:       logger.Named("UserService"),
	}
}

var errInvalidCredentials = common.ErrUnauthorized.WithDetails("Invalid email or password.")

// emailTaken reports whether an account already uses email.
func (s *ServiceImplementation) emailTaken(ctx context.Context, email string) (*User, error) {
	existing, err := s.repo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return existing, nil
	case errors.Is(err, common.ErrNotFound):
		return nil, nil
	default:
		return nil, fmt.Errorf("look up %q: %w", email, err)
	}
}

// createAccount hashes the password and stores a new user with role.
func (s *ServiceImplementation) createAccount(ctx context.Context, req *shared.CreateUserRequest, role string) (*User, error) {
	hash, err := common.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	account := CreateRequestToDB(req, hash)
	account.Role = role
	if err := s.repo.Create(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// Register creates a regular account and signs it in.
func (s *ServiceImplementation) Register(ctx context.Context, req shared.CreateUserRequest) (*shared.User, *shared.TokenResponse, error) {
	existing, err := s.emailTaken(ctx, req.Email)
	if err != nil {
		return nil, nil, err
	}
	if existing != nil {
		return nil, nil, common.ErrConflict.WithDetails("User with this email already exists.")
	}

	account, err := s.createAccount(ctx, &req, common.RoleUser)
	if err != nil {
		s.logger.Error("Registration failed", zap.Error(err), zap.String("email", req.Email))
		return nil, nil, err
	}
	tokens, err := s.issueTokens(account)
	if err != nil {
		return nil, nil, err
	}
	s.logger.Info("User registered", zap.Stringer("userID", account.ID))
	return DBToShared(account), tokens, nil
}

// Login verifies the password and issues a token pair. Unknown email and
// wrong password produce the same error.
func (s *ServiceImplementation) Login(ctx context.Context, email, password string) (*shared.User, *shared.TokenResponse, error) {
	account, err := s.repo.FindByEmail(ctx, email)
	if errors.Is(err, common.ErrNotFound) {
		return nil, nil, errInvalidCredentials
	}
	if err != nil {
		s.logger.Error("Login lookup failed", zap.Error(err))
		return nil, nil, common.ErrInternalServer.WithDetails("Login failed due to an internal error.")
	}
	if !common.CheckPasswordHash(password, account.PasswordHash) {
		s.logger.Warn("Rejected login", zap.Stringer("userID", account.ID))
		return nil, nil, errInvalidCredentials
	}

	loggedInAt := time.Now()
	account.LastLoginAt = &loggedInAt
	if err := s.repo.Update(ctx, account); err != nil {
		s.logger.Warn("Could not record last login", zap.Error(err), zap.Stringer("userID", account.ID))
	}

	tokens, err := s.issueTokens(account)
	if err != nil {
		return nil, nil, err
	}
	return DBToShared(account), tokens, nil
}

// issueTokens signs an access and a refresh token. A missing refresh token
// is logged but does not fail the sign-in.
func (s *ServiceImplementation) issueTokens(account *User) (*shared.TokenResponse, error) {
	access, expiresAt, err := s.tokenService.GenerateAccessToken(account)
	if err != nil {
		s.logger.Error("Signing access token failed", zap.Error(err), zap.Stringer("userID", account.ID))
		return nil, common.ErrInternalServer.WithDetails("Could not generate access token.")
	}
	refresh, _, err := s.tokenService.GenerateRefreshToken(account)
	if err != nil {
		s.logger.Error("Signing refresh token failed", zap.Error(err), zap.Stringer("userID", account.ID))
	}
	return &shared.TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    expiresAt,
		TokenType:    common.AuthorizationTypeBearer,
	}, nil
}

func (s *ServiceImplementation) GetUserByID(ctx context.Context, id uuid.UUID) (*shared.User, error) {
	dbUser, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			s.logger.Error("Error finding user by ID", zap.Error(err), zap.String("userID", id.String()))
		}
		return nil, err
	}
	return DBToShared(dbUser), nil
}

func (s *ServiceImplementation) ListUsers(ctx context.Context, query ListQuery) ([]shared.User, *common.Pagination, error) {
	dbUsers, pagination, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, nil, err
	}
	users := make([]shared.User, 0, len(dbUsers))
	for i := range dbUsers {
		users = append(users, *DBToShared(&dbUsers[i]))
	}
	return users, pagination, nil
}

// SetRole changes the role of a user. Admins re-read roles on every request,
// so the change takes effect immediately.
func (s *ServiceImplementation) SetRole(ctx context.Context, id uuid.UUID, role string) (*shared.User, error) {
	if role != common.RoleUser && role != common.RoleAdmin {
		return nil, common.ErrBadRequest.WithDetails("Role must be 'user' or 'admin'.")
	}
	if err := s.repo.UpdateRole(ctx, id, role); err != nil {
		return nil, err
	}
	s.logger.Info("User role changed", zap.String("userID", id.String()), zap.String("role", role))
	return s.GetUserByID(ctx, id)
}

// SetDeviceToken stores the push token for a user; an empty token clears it.
func (s *ServiceImplementation) SetDeviceToken(ctx context.Context, id uuid.UUID, token string) error {
	var value *string
	if t := strings.TrimSpace(token); t != "" {
		value = &t
	}
	return s.repo.UpdateDeviceToken(ctx, id, value)
}

// GetDeviceToken returns the registered push token, or "" when none is set.
func (s *ServiceImplementation) GetDeviceToken(ctx context.Context, id uuid.UUID) (string, error) {
	dbUser, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	if dbUser.DeviceToken == nil {
		return "", nil
	}
	return *dbUser.DeviceToken, nil
}

// DisplayNames resolves user IDs to display names.
func (s *ServiceImplementation) DisplayNames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	dbUsers, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	names := make(map[uuid.UUID]string, len(dbUsers))
	for _, u := range dbUsers {
		names[u.ID] = shared.DisplayName(u.FirstName, u.LastName, u.Email)
	}
	return names, nil
}

// EnsureAdmin creates an admin account, or promotes the account that already
// uses the email. The boolean reports whether an account was created.
func (s *ServiceImplementation) EnsureAdmin(ctx context.Context, req shared.CreateUserRequest) (*shared.User, bool, error) {
	existing, err := s.emailTaken(ctx, req.Email)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		if existing.Role != common.RoleAdmin {
			if err := s.repo.UpdateRole(ctx, existing.ID, common.RoleAdmin); err != nil {
				return nil, false, err
			}
			existing.Role = common.RoleAdmin
			s.logger.Info("Existing user promoted to admin", zap.Stringer("userID", existing.ID))
		}
		return DBToShared(existing), false, nil
	}

	account, err := s.createAccount(ctx, &req, common.RoleAdmin)
	if err != nil {
		return nil, false, err
	}
	s.logger.Info("Admin user created", zap.Stringer("userID", account.ID))
	return DBToShared(account), true, nil
}
