package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/course-compass-api/internal/models"
	appErrors "github.com/noah-isme/course-compass-api/pkg/errors"
)

type mockAuthRepo struct {
	users            map[string]*models.User
	refreshTokens    map[string]*models.RefreshToken
	createErr        error
	createRefreshErr error
	revokeErr        error
	revokedUsers     []string
	auditLogs        []*models.AuditLog
	lastLoginUpdated bool
}

func newMockAuthRepo(users ...*models.User) *mockAuthRepo {
	repo := &mockAuthRepo{users: map[string]*models.User{}, refreshTokens: map[string]*models.RefreshToken{}}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
}

func (m *mockAuthRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) Create(ctx context.Context, user *models.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.users[user.ID] = user
	return nil
}

func (m *mockAuthRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	m.lastLoginUpdated = true
	return nil
}

func (m *mockAuthRepo) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	if u, ok := m.users[id]; ok {
		u.PasswordHash = passwordHash
	}
	return nil
}

func (m *mockAuthRepo) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	m.revokedUsers = append(m.revokedUsers, userID)
	for _, token := range m.refreshTokens {
		if token.UserID == userID {
			token.Revoked = true
		}
	}
	return nil
}

func (m *mockAuthRepo) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	if m.createRefreshErr != nil {
		return m.createRefreshErr
	}
	m.refreshTokens[token.Token] = token
	return nil
}

func (m *mockAuthRepo) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	rt, ok := m.refreshTokens[token]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return rt, nil
}

func (m *mockAuthRepo) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	if m.revokeErr != nil {
		return m.revokeErr
	}
	for _, token := range m.refreshTokens {
		if token.ID == id && !token.Revoked {
			token.Revoked = true
			token.RevokedAt = &revokedAt
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *mockAuthRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.auditLogs = append(m.auditLogs, log)
	return nil
}

func newTestAuthService(repo *mockAuthRepo) *AuthService {
	return NewAuthService(repo, validator.New(), zap.NewNop(), AuthConfig{
		AccessTokenSecret:  "secret",
		AccessTokenExpiry:  time.Hour,
		RefreshTokenExpiry: 24 * time.Hour,
	})
}

func hashed(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestAuthServiceLoginSuccess(t *testing.T) {
	repo := newMockAuthRepo(&models.User{ID: "123", Email: "user@example.com", PasswordHash: hashed(t, "password"), Active: true, Role: models.RoleFaculty})
	svc := newTestAuthService(repo)

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "user@example.com", Password: "password"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)
	assert.Equal(t, models.RoleFaculty, res.User.Role)
	assert.True(t, repo.lastLoginUpdated)
	assert.Len(t, repo.refreshTokens, 1)
	require.Len(t, repo.auditLogs, 1)
	assert.Equal(t, models.AuditActionLogin, repo.auditLogs[0].Action)
}

func TestAuthServiceLoginFailures(t *testing.T) {
	repo := newMockAuthRepo(
		&models.User{ID: "a", Email: "inactive@example.com", PasswordHash: hashed(t, "password"), Active: false},
		&models.User{ID: "b", Email: "active@example.com", PasswordHash: hashed(t, "password"), Active: true},
	)
	svc := newTestAuthService(repo)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "inactive@example.com", Password: "password"})
	assert.ErrorIs(t, err, appErrors.ErrInactiveAccount)

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "active@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "missing@example.com", Password: "password"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "not-an-email", Password: "password"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestAuthServiceSignUpDefaultsToStudent(t *testing.T) {
	repo := newMockAuthRepo()
	svc := newTestAuthService(repo)

	res, err := svc.SignUp(context.Background(), models.Session{}, models.SignUpRequest{
		Email: "New.Student@Example.com", Password: "secret1", FirstName: "Ada", LastName: "Lovelace King",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, res.User.Role)
	assert.Equal(t, "Ada Lovelace King", res.User.FullName)
	assert.Equal(t, "new.student@example.com", res.User.Email)
	assert.NotEmpty(t, res.AccessToken)

	created := repo.users[res.User.ID]
	require.NotNil(t, created)
	assert.True(t, created.Active)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte("secret1")))
}

func TestAuthServiceSignUpRules(t *testing.T) {
	repo := newMockAuthRepo(&models.User{ID: "u1", Email: "taken@example.com", Active: true})
	svc := newTestAuthService(repo)
	ctx := context.Background()

	_, err := svc.SignUp(ctx, models.Session{}, models.SignUpRequest{Email: "x@example.com", Password: "123", FirstName: "X"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.SignUp(ctx, models.Session{}, models.SignUpRequest{Email: "taken@example.com", Password: "secret1", FirstName: "X"})
	assert.ErrorIs(t, err, appErrors.ErrEmailTaken)

	_, err = svc.SignUp(ctx, models.Session{UserID: "f1", Role: models.RoleFaculty}, models.SignUpRequest{Email: "boss@example.com", Password: "secret1", FirstName: "B", Role: models.RoleAdmin})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	res, err := svc.SignUp(ctx, models.Session{UserID: "a1", Role: models.RoleAdmin}, models.SignUpRequest{Email: "boss@example.com", Password: "secret1", FirstName: "B", Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, res.User.Role)
}

func TestAuthServiceRefreshToken(t *testing.T) {
	user := &models.User{ID: "u1", Email: "user@example.com", PasswordHash: "hash", Active: true, Role: models.RoleStudent}
	repo := newMockAuthRepo(user)
	repo.refreshTokens["token"] = &models.RefreshToken{ID: "rt1", UserID: user.ID, Token: "token", ExpiresAt: time.Now().Add(time.Hour)}
	repo.refreshTokens["old"] = &models.RefreshToken{ID: "rt0", UserID: user.ID, Token: "old", ExpiresAt: time.Now().Add(-time.Minute)}
	svc := newTestAuthService(repo)

	res, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: "token"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEqual(t, "token", res.RefreshToken)
	assert.True(t, repo.refreshTokens["token"].Revoked)

	_, err = svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: "token"})
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)

	_, err = svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: "old"})
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestAuthServiceRefreshTokenRequiresConsumingRevoke(t *testing.T) {
	user := &models.User{ID: "u1", Email: "user@example.com", PasswordHash: "hash", Active: true, Role: models.RoleStudent}
	repo := newMockAuthRepo(user)
	repo.refreshTokens["tok"] = &models.RefreshToken{ID: "rt1", UserID: user.ID, Token: "tok", ExpiresAt: time.Now().Add(time.Hour)}
	svc := newTestAuthService(repo)
	ctx := context.Background()

	// Another request consumed the token between lookup and revoke.
	repo.revokeErr = sql.ErrNoRows
	_, err := svc.RefreshToken(ctx, models.RefreshTokenRequest{RefreshToken: "tok"})
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)

	repo.revokeErr = errors.New("connection reset")
	_, err = svc.RefreshToken(ctx, models.RefreshTokenRequest{RefreshToken: "tok"})
	assert.ErrorIs(t, err, appErrors.ErrInternal)

	assert.Len(t, repo.refreshTokens, 1)
	assert.False(t, repo.refreshTokens["tok"].Revoked)
}

func TestAuthServiceSignUpMapsEmailRace(t *testing.T) {
	repo := newMockAuthRepo()
	repo.createErr = &pq.Error{Code: "23505", Constraint: "users_email_key"}
	svc := newTestAuthService(repo)

	_, err := svc.SignUp(context.Background(), models.Session{}, models.SignUpRequest{Email: "dup@example.com", Password: "secret1", FirstName: "D"})
	assert.ErrorIs(t, err, appErrors.ErrEmailTaken)
}

func TestAuthServiceLogoutRevokesAllTokens(t *testing.T) {
	user := &models.User{ID: "u1", Email: "user@example.com", PasswordHash: hashed(t, "password"), Active: true}
	repo := newMockAuthRepo(user)
	svc := newTestAuthService(repo)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: user.Email, Password: "password"})
	require.NoError(t, err)
	_, err = svc.Login(context.Background(), models.LoginRequest{Email: user.Email, Password: "password"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), models.Session{UserID: "u1"}, "127.0.0.1", "test"))
	for _, token := range repo.refreshTokens {
		assert.True(t, token.Revoked)
	}
	assert.Equal(t, []string{"u1"}, repo.revokedUsers)

	assert.ErrorIs(t, svc.Logout(context.Background(), models.Session{}, "", ""), appErrors.ErrUnauthorized)
}

func TestAuthServiceChangePassword(t *testing.T) {
	oldHash := hashed(t, "old")
	repo := newMockAuthRepo(&models.User{ID: "u1", PasswordHash: oldHash, Active: true})
	svc := newTestAuthService(repo)
	session := models.Session{UserID: "u1"}

	err := svc.ChangePassword(context.Background(), session, models.ChangePasswordRequest{OldPassword: "wrong", NewPassword: "newpassword"})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	err = svc.ChangePassword(context.Background(), session, models.ChangePasswordRequest{OldPassword: "old", NewPassword: "newpassword"})
	require.NoError(t, err)
	assert.NotEqual(t, oldHash, repo.users["u1"].PasswordHash)
	assert.Contains(t, repo.revokedUsers, "u1")
}

func TestAuthServiceMe(t *testing.T) {
	repo := newMockAuthRepo(&models.User{ID: "u1", Email: "a@example.com", FullName: "A B", Role: ""})
	svc := newTestAuthService(repo)

	info, err := svc.Me(context.Background(), models.Session{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, info.Role)

	_, err = svc.Me(context.Background(), models.Session{UserID: "ghost"})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestValidateToken(t *testing.T) {
	svc := newTestAuthService(newMockAuthRepo())
	user := &models.User{ID: "u1", Email: "user@example.com", Role: models.RoleAdmin, FullName: "Root"}
	token, _, err := svc.generateAccessToken(user)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, models.RoleAdmin, claims.Role)

	other := NewAuthService(newMockAuthRepo(), nil, nil, AuthConfig{AccessTokenSecret: "other", AccessTokenExpiry: time.Hour})
	_, err = other.ValidateToken(token)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}
