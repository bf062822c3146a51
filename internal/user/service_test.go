package user

import (
	"context"
	"testing"
	"time"

	"religious_services_backend/internal/common"
	"religious_services_backend/internal/shared"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *User) error {
	args := m.Called(ctx, user)
	if args.Error(0) == nil && user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockUserRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]User, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]User), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, user *User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) UpdateRole(ctx context.Context, id uuid.UUID, role string) error {
	return m.Called(ctx, id, role).Error(0)
}

func (m *MockUserRepository) UpdateDeviceToken(ctx context.Context, id uuid.UUID, token *string) error {
	return m.Called(ctx, id, token).Error(0)
}

func (m *MockUserRepository) List(ctx context.Context, query ListQuery) ([]User, *common.Pagination, error) {
	args := m.Called(ctx, query)
	var users []User
	if args.Get(0) != nil {
		users = args.Get(0).([]User)
	}
	var pagination *common.Pagination
	if args.Get(1) != nil {
		pagination = args.Get(1).(*common.Pagination)
	}
	return users, pagination, args.Error(2)
}

type MockTokenService struct {
	mock.Mock
}

func (m *MockTokenService) GenerateAccessToken(userData shared.UserDataForToken) (string, time.Time, error) {
	args := m.Called(userData)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *MockTokenService) GenerateRefreshToken(userData shared.UserDataForToken) (string, time.Time, error) {
	args := m.Called(userData)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *MockTokenService) ValidateToken(tokenString string) (*shared.Claims, error) {
	args := m.Called(tokenString)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Claims), args.Error(1)
}

func (m *MockTokenService) ParseRefreshToken(refreshTokenString string) (*shared.Claims, error) {
	args := m.Called(refreshTokenString)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Claims), args.Error(1)
}

type userServiceFixture struct {
	service *ServiceImplementation
	repo    *MockUserRepository
	tokens  *MockTokenService
}

func newUserServiceFixture() *userServiceFixture {
	repo := new(MockUserRepository)
	tokens := new(MockTokenService)
	return &userServiceFixture{
		service: NewService(repo, tokens, zap.NewNop()),
		repo:    repo,
		tokens:  tokens,
	}
}

func TestUserService_Register_Success(t *testing.T) {
	f := newUserServiceFixture()
	ctx := context.Background()
	expiry := time.Now().Add(time.Hour)

	req := shared.CreateUserRequest{
		Email:          "Cohen@Police.gov.il",
		Password:       "s3cretpass",
		FirstName:      "Avi",
		LastName:       "Cohen",
		PersonalNumber: "1234567",
	}

	f.repo.On("FindByEmail", ctx, req.Email).Return(nil, common.ErrNotFound)
	f.repo.On("Create", ctx, mock.AnythingOfType("*user.User")).Run(func(args mock.Arguments) {
		u := args.Get(1).(*User)
		assert.Equal(t, "cohen@police.gov.il", u.Email)
		assert.Equal(t, common.RoleUser, u.Role)
		assert.NotEqual(t, req.Password, u.PasswordHash)
		assert.True(t, common.CheckPasswordHash(req.Password, u.PasswordHash))
		require.NotNil(t, u.PersonalNumber)
		assert.Equal(t, "1234567", *u.PersonalNumber)
	}).Return(nil)
	f.tokens.On("GenerateAccessToken", mock.Anything).Return("access", expiry, nil)
	f.tokens.On("GenerateRefreshToken", mock.Anything).Return("refresh", expiry, nil)

	usr, tokens, err := f.service.Register(ctx, req)

	require.NoError(t, err)
	assert.Equal(t, "Avi Cohen", usr.DisplayName())
	assert.Equal(t, "access", tokens.AccessToken)
	assert.Equal(t, "refresh", tokens.RefreshToken)
	assert.Equal(t, "Bearer", tokens.TokenType)
	f.repo.AssertExpectations(t)
	f.tokens.AssertExpectations(t)
}

func TestUserService_Register_DuplicateEmail(t *testing.T) {
	f := newUserServiceFixture()
	ctx := context.Background()

	f.repo.On("FindByEmail", ctx, "dup@example.com").Return(&User{Email: "dup@example.com"}, nil)

	_, _, err := f.service.Register(ctx, shared.CreateUserRequest{Email: "dup@example.com", Password: "password1"})

	assert.ErrorIs(t, err, common.ErrConflict)
	f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestUserService_Login(t *testing.T) {
	hash, err := common.HashPassword("correct-horse")
	require.NoError(t, err)
	expiry := time.Now().Add(time.Hour)

	t.Run("valid credentials", func(t *testing.T) {
		f := newUserServiceFixture()
		ctx := context.Background()
		dbUser := &User{BaseModel: common.BaseModel{ID: uuid.New()}, Email: "a@b.c", PasswordHash: hash, Role: common.RoleUser}

		f.repo.On("FindByEmail", ctx, "a@b.c").Return(dbUser, nil)
		f.repo.On("Update", ctx, dbUser).Return(nil)
		f.tokens.On("GenerateAccessToken", dbUser).Return("access", expiry, nil)
		f.tokens.On("GenerateRefreshToken", dbUser).Return("refresh", expiry, nil)

		usr, tokens, err := f.service.Login(ctx, "a@b.c", "correct-horse")

		require.NoError(t, err)
		assert.Equal(t, dbUser.ID, usr.ID)
		assert.NotNil(t, usr.LastLoginAt)
		assert.Equal(t, "access", tokens.AccessToken)
	})

	t.Run("wrong password", func(t *testing.T) {
		f := newUserServiceFixture()
		ctx := context.Background()
		dbUser := &User{BaseModel: common.BaseModel{ID: uuid.New()}, Email: "a@b.c", PasswordHash: hash}
		f.repo.On("FindByEmail", ctx, "a@b.c").Return(dbUser, nil)

		_, _, err := f.service.Login(ctx, "a@b.c", "wrong")

		assert.ErrorIs(t, err, common.ErrUnauthorized)
		f.tokens.AssertNotCalled(t, "GenerateAccessToken", mock.Anything)
	})

	t.Run("unknown email", func(t *testing.T) {
		f := newUserServiceFixture()
		ctx := context.Background()
		f.repo.On("FindByEmail", ctx, "nobody@b.c").Return(nil, common.ErrNotFound)

		_, _, err := f.service.Login(ctx, "nobody@b.c", "whatever")

		assert.ErrorIs(t, err, common.ErrUnauthorized)
	})
}

func TestUserService_SetRole_RejectsUnknownRole(t *testing.T) {
	f := newUserServiceFixture()

	_, err := f.service.SetRole(context.Background(), uuid.New(), "superuser")

	assert.ErrorIs(t, err, common.ErrBadRequest)
	f.repo.AssertNotCalled(t, "UpdateRole", mock.Anything, mock.Anything, mock.Anything)
}

func TestUserService_SetDeviceToken_EmptyClears(t *testing.T) {
	f := newUserServiceFixture()
	ctx := context.Background()
	id := uuid.New()

	f.repo.On("UpdateDeviceToken", ctx, id, (*string)(nil)).Return(nil)

	require.NoError(t, f.service.SetDeviceToken(ctx, id, "   "))
	f.repo.AssertExpectations(t)
}

func TestUserService_EnsureAdmin_PromotesExisting(t *testing.T) {
	f := newUserServiceFixture()
	ctx := context.Background()
	existing := &User{BaseModel: common.BaseModel{ID: uuid.New()}, Email: "rabbi@unit.il", Role: common.RoleUser}

	f.repo.On("FindByEmail", ctx, "rabbi@unit.il").Return(existing, nil)
	f.repo.On("UpdateRole", ctx, existing.ID, common.RoleAdmin).Return(nil)

	usr, created, err := f.service.EnsureAdmin(ctx, shared.CreateUserRequest{Email: "rabbi@unit.il", Password: "irrelevant"})

	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, common.RoleAdmin, usr.Role)
	f.repo.AssertExpectations(t)
}
