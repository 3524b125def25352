package application_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/inkstone-app/inkstone/internal/application"
	"github.com/inkstone-app/inkstone/internal/domain/entity"
	"github.com/inkstone-app/inkstone/internal/domain/repository"
	"github.com/inkstone-app/inkstone/internal/infrastructure/oauth"
	"github.com/inkstone-app/inkstone/pkg/helpers"
)

// MockUserRepository is a mock implementation of repository.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(u *entity.User) error {
	args := m.Called(u)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(id string) (*entity.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(email string) (*entity.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepository) GetByGoogleID(googleID string) (*entity.User, error) {
	args := m.Called(googleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepository) Update(u *entity.User) error {
	args := m.Called(u)
	return args.Error(0)
}

type MockOAuthProvider struct {
	mock.Mock
}

func (m *MockOAuthProvider) LoginURL(state string) string {
	args := m.Called(state)
	return args.String(0)
}

func (m *MockOAuthProvider) ExchangeCode(ctx context.Context, code string) (*oauth.UserInfo, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*oauth.UserInfo), args.Error(1)
}

type MockEmailPublisher struct {
	mock.Mock
}

func (m *MockEmailPublisher) PublishJSON(ctx context.Context, body any) error {
	args := m.Called(ctx, body)
	return args.Error(0)
}

func newTestJWT() *helpers.JWTManager {
	return helpers.NewJWTManager("test-access", "test-refresh", time.Hour, 24*time.Hour)
}

func newAuthService(repo *MockUserRepository) *application.AuthService {
	return application.NewAuthService(repo, newTestJWT(), nil, nil, nil, nil, false)
}

func hashOf(t *testing.T, plain string) string {
	t.Helper()
	h, err := helpers.HashPassword(plain)
	require.NoError(t, err)
	return h
}

func TestAuthenticateSuccess(t *testing.T) {
	repo := new(MockUserRepository)
	svc := newAuthService(repo)

	stored := &entity.User{ID: "u1", Email: "writer@example.com", Name: "Writer", Password: hashOf(t, "password123")}
	repo.On("GetByEmail", "writer@example.com").Return(stored, nil).Once()

	u, err := svc.Authenticate(context.Background(), "writer@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	assert.Equal(t, "Writer", u.Name)
	repo.AssertExpectations(t)
}

func TestAuthenticateNormalizesEmail(t *testing.T) {
	repo := new(MockUserRepository)
	svc := newAuthService(repo)

	stored := &entity.User{ID: "u1", Email: "writer@example.com", Password: hashOf(t, "password123")}
	repo.On("GetByEmail", "writer@example.com").Return(stored, nil).Once()

	_, err := svc.Authenticate(context.Background(), "  Writer@Example.COM ", "password123")
	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestAuthenticateUniformRejection(t *testing.T) {
	tests := []struct {
		name  string
		setup func(repo *MockUserRepository)
		email string
		pass  string
	}{
		{
			name:  "empty email",
			setup: func(repo *MockUserRepository) {},
			email: "",
			pass:  "password123",
		},
		{
			name:  "empty password",
			setup: func(repo *MockUserRepository) {},
			email: "writer@example.com",
			pass:  "",
		},
		{
			name: "unknown email",
			setup: func(repo *MockUserRepository) {
				repo.On("GetByEmail", "ghost@example.com").Return(nil, repository.ErrNotFound).Once()
			},
			email: "ghost@example.com",
			pass:  "password123",
		},
		{
			name: "google-only account has no password",
			setup: func(repo *MockUserRepository) {
				repo.On("GetByEmail", "oauth@example.com").Return(&entity.User{ID: "u2", Email: "oauth@example.com", GoogleID: "g-1"}, nil).Once()
			},
			email: "oauth@example.com",
			pass:  "password123",
		},
		{
			name: "wrong password",
			setup: func(repo *MockUserRepository) {
				repo.On("GetByEmail", "writer@example.com").Return(&entity.User{ID: "u1", Password: "$2a$10$invalidhashinvalidhashinvalidhashinvalidhashinvalid"}, nil).Once()
			},
			email: "writer@example.com",
			pass:  "not-the-password",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockUserRepository)
			tt.setup(repo)
			svc := newAuthService(repo)

			u, err := svc.Authenticate(context.Background(), tt.email, tt.pass)
			assert.Nil(t, u)
			assert.ErrorIs(t, err, application.ErrInvalidCredentials)
			repo.AssertExpectations(t)
		})
	}
}

func TestRegisterHashesPasswordAndStoresLowercaseEmail(t *testing.T) {
	repo := new(MockUserRepository)
	svc := newAuthService(repo)

	repo.On("GetByEmail", "new@example.com").Return(nil, repository.ErrNotFound).Once()
	repo.On("Create", mock.AnythingOfType("*entity.User")).Run(func(args mock.Arguments) {
		u := args.Get(0).(*entity.User)
		u.ID = "u-new"
	}).Return(nil).Once()

	u, err := svc.Register(context.Background(), "New Writer", "New@Example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, "u-new", u.ID)
	assert.Equal(t, "new@example.com", u.Email)
	assert.NotEqual(t, "password123", u.Password)
	assert.True(t, helpers.CompareHashAndPassword(u.Password, "password123"))
	repo.AssertExpectations(t)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := new(MockUserRepository)
	svc := newAuthService(repo)

	repo.On("GetByEmail", "taken@example.com").Return(&entity.User{ID: "u1"}, nil).Once()

	_, err := svc.Register(context.Background(), "X", "taken@example.com", "password123")
	assert.ErrorIs(t, err, application.ErrEmailTaken)
	repo.AssertExpectations(t)
}

func TestRegisterEnqueuesWelcomeEmail(t *testing.T) {
	repo := new(MockUserRepository)
	pub := new(MockEmailPublisher)
	svc := application.NewAuthService(repo, newTestJWT(), nil, nil, nil, pub, true)

	repo.On("GetByEmail", "new@example.com").Return(nil, repository.ErrNotFound).Once()
	repo.On("Create", mock.AnythingOfType("*entity.User")).Return(nil).Once()
	pub.On("PublishJSON", mock.Anything, mock.Anything).Return(nil).Once()

	_, err := svc.Register(context.Background(), "New", "new@example.com", "password123")
	require.NoError(t, err)
	pub.AssertExpectations(t)
}

func TestLoginIssuesParsableTokens(t *testing.T) {
	repo := new(MockUserRepository)
	jwt := newTestJWT()
	svc := application.NewAuthService(repo, jwt, nil, nil, nil, nil, false)

	stored := &entity.User{ID: "u1", Email: "writer@example.com", Password: hashOf(t, "password123")}
	repo.On("GetByEmail", "writer@example.com").Return(stored, nil).Once()

	res, pair, err := svc.Login(context.Background(), "writer@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, "u1", res.UserID)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	claims, err := jwt.ParseAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.NotEmpty(t, claims.SessionID)
}

func TestGoogleCallbackExistingLinkedAccount(t *testing.T) {
	repo := new(MockUserRepository)
	provider := new(MockOAuthProvider)
	svc := application.NewAuthService(repo, newTestJWT(), nil, nil, provider, nil, false)

	provider.On("ExchangeCode", mock.Anything, "code-1").Return(&oauth.UserInfo{ProviderUserID: "g-42", Email: "writer@example.com", Name: "Writer"}, nil).Once()
	repo.On("GetByGoogleID", "g-42").Return(&entity.User{ID: "u1", GoogleID: "g-42"}, nil).Once()

	u, err := svc.HandleGoogleCallback(context.Background(), "code-1")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	repo.AssertExpectations(t)
}

func TestGoogleCallbackConflictsWithPasswordAccount(t *testing.T) {
	repo := new(MockUserRepository)
	provider := new(MockOAuthProvider)
	svc := application.NewAuthService(repo, newTestJWT(), nil, nil, provider, nil, false)

	provider.On("ExchangeCode", mock.Anything, "code-1").Return(&oauth.UserInfo{ProviderUserID: "g-42", Email: "Writer@Example.com"}, nil).Once()
	repo.On("GetByGoogleID", "g-42").Return(nil, repository.ErrNotFound).Once()
	repo.On("GetByEmail", "writer@example.com").Return(&entity.User{ID: "u1", Password: "$2a$10$hash"}, nil).Once()

	_, err := svc.HandleGoogleCallback(context.Background(), "code-1")
	assert.ErrorIs(t, err, application.ErrAccountConflict)
	repo.AssertExpectations(t)
}

func TestGoogleCallbackCreatesNewAccount(t *testing.T) {
	repo := new(MockUserRepository)
	provider := new(MockOAuthProvider)
	svc := application.NewAuthService(repo, newTestJWT(), nil, nil, provider, nil, false)

	provider.On("ExchangeCode", mock.Anything, "code-1").Return(&oauth.UserInfo{ProviderUserID: "g-42", Email: "fresh@example.com", Name: "Fresh", Picture: "https://img.example/f.png"}, nil).Once()
	repo.On("GetByGoogleID", "g-42").Return(nil, repository.ErrNotFound).Once()
	repo.On("GetByEmail", "fresh@example.com").Return(nil, repository.ErrNotFound).Once()
	repo.On("Create", mock.AnythingOfType("*entity.User")).Run(func(args mock.Arguments) {
		u := args.Get(0).(*entity.User)
		assert.Equal(t, "g-42", u.GoogleID)
		assert.Empty(t, u.Password)
		u.ID = "u-new"
	}).Return(nil).Once()

	u, err := svc.HandleGoogleCallback(context.Background(), "code-1")
	require.NoError(t, err)
	assert.Equal(t, "u-new", u.ID)
	repo.AssertExpectations(t)
}

func TestGoogleCallbackLinksPasswordlessAccount(t *testing.T) {
	repo := new(MockUserRepository)
	provider := new(MockOAuthProvider)
	svc := application.NewAuthService(repo, newTestJWT(), nil, nil, provider, nil, false)

	provider.On("ExchangeCode", mock.Anything, "code-1").Return(&oauth.UserInfo{ProviderUserID: "g-42", Email: "orphan@example.com"}, nil).Once()
	repo.On("GetByGoogleID", "g-42").Return(nil, repository.ErrNotFound).Once()
	repo.On("GetByEmail", "orphan@example.com").Return(&entity.User{ID: "u3", Email: "orphan@example.com"}, nil).Once()
	repo.On("Update", mock.MatchedBy(func(u *entity.User) bool {
		return u.ID == "u3" && u.GoogleID == "g-42"
	})).Return(nil).Once()

	u, err := svc.HandleGoogleCallback(context.Background(), "code-1")
	require.NoError(t, err)
	assert.Equal(t, "u3", u.ID)
	repo.AssertExpectations(t)
}
