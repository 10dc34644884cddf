package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/JsterDevers/Presentryx/internal/models"
	appErrors "github.com/JsterDevers/Presentryx/pkg/errors"
)

type mockAuthRepo struct {
	userByEmail      *models.User
	userByID         *models.User
	emailExists      bool
	studentIDExists  bool
	created          *models.User
	refreshTokens    map[string]*models.RefreshToken
	lastLoginUpdated bool
	activityOpened   bool
	activityClosed   bool
	revokedAll       bool
}

func (m *mockAuthRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.userByEmail == nil {
		return nil, sql.ErrNoRows
	}
	return m.userByEmail, nil
}

func (m *mockAuthRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if m.userByID != nil {
		return m.userByID, nil
	}
	if m.userByEmail != nil {
		return m.userByEmail, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return m.emailExists, nil
}

func (m *mockAuthRepo) ExistsByStudentID(ctx context.Context, studentID string) (bool, error) {
	return m.studentIDExists, nil
}

func (m *mockAuthRepo) Create(ctx context.Context, user *models.User) error {
	user.ID = "generated"
	m.created = user
	return nil
}

func (m *mockAuthRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	m.lastLoginUpdated = true
	return nil
}

func (m *mockAuthRepo) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	m.revokedAll = true
	return nil
}

func (m *mockAuthRepo) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	if m.refreshTokens == nil {
		m.refreshTokens = make(map[string]*models.RefreshToken)
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
	for _, token := range m.refreshTokens {
		if token.ID == id {
			token.Revoked = true
			token.RevokedAt = &revokedAt
		}
	}
	return nil
}

func (m *mockAuthRepo) CreateActivityLog(ctx context.Context, userID string, loginTime time.Time) error {
	m.activityOpened = true
	return nil
}

func (m *mockAuthRepo) CloseActivityLog(ctx context.Context, userID string, logoutTime time.Time) error {
	m.activityClosed = true
	return nil
}

func newAuthService(repo *mockAuthRepo, singleSession bool) *AuthService {
	return NewAuthService(repo, validator.New(), zap.NewNop(), AuthConfig{
		AccessTokenSecret:  "secret",
		AccessTokenExpiry:  time.Hour,
		RefreshTokenExpiry: time.Hour * 24,
		Issuer:             "presentryx",
		SingleSession:      singleSession,
	})
}

func TestAuthServiceSignupStudentRequiresStudentID(t *testing.T) {
	svc := newAuthService(&mockAuthRepo{}, false)

	_, err := svc.Signup(context.Background(), models.SignupRequest{
		FirstName: "Ana", LastName: "Reyes", Email: "ana@example.com",
		Password: "password1", Role: "student",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceSignupStudent(t *testing.T) {
	repo := &mockAuthRepo{}
	svc := newAuthService(repo, false)

	sid := "2023-00123"
	photo := "base64data"
	info, err := svc.Signup(context.Background(), models.SignupRequest{
		FirstName: "Ana", LastName: "Reyes", Email: "ana@example.com",
		Password: "password1", Role: "student", StudentID: &sid, Photo: &photo,
		AgreedToTerms: true,
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, info.Role)
	require.NotNil(t, repo.created)
	assert.Equal(t, &sid, repo.created.StudentID)
	assert.NotEqual(t, "password1", repo.created.PasswordHash)
}

func TestAuthServiceSignupDuplicateEmail(t *testing.T) {
	svc := newAuthService(&mockAuthRepo{emailExists: true}, false)

	_, err := svc.Signup(context.Background(), models.SignupRequest{
		FirstName: "Ana", LastName: "Reyes", Email: "ana@example.com",
		Password: "password1", Role: "faculty",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginSuccess(t *testing.T) {
	password, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	repo := &mockAuthRepo{userByEmail: &models.User{ID: "u1", Email: "user@example.com", PasswordHash: string(password), Active: true, Role: models.RoleAdmin}}
	svc := newAuthService(repo, false)

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "user@example.com", Password: "password", Role: "admin"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)
	assert.True(t, repo.lastLoginUpdated)
	assert.True(t, repo.activityOpened)
}

func TestAuthServiceLoginRoleMismatch(t *testing.T) {
	password, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	repo := &mockAuthRepo{userByEmail: &models.User{ID: "u1", Email: "user@example.com", PasswordHash: string(password), Active: true, Role: models.RoleFaculty}}
	svc := newAuthService(repo, false)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "user@example.com", Password: "password", Role: "admin"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrRoleMismatch.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginStudentIDMismatch(t *testing.T) {
	password, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	sid := "2023-00123"
	repo := &mockAuthRepo{userByEmail: &models.User{ID: "u1", Email: "s@example.com", PasswordHash: string(password), Active: true, Role: models.RoleStudent, StudentID: &sid}}
	svc := newAuthService(repo, false)

	wrong := "2023-99999"
	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "s@example.com", Password: "password", Role: "student", StudentID: &wrong})
	require.Error(t, err)
}

func TestAuthServiceLoginSingleSessionRevokesPrevious(t *testing.T) {
	password, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	repo := &mockAuthRepo{userByEmail: &models.User{ID: "u1", Email: "user@example.com", PasswordHash: string(password), Active: true, Role: models.RoleAdmin}}
	svc := newAuthService(repo, true)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "user@example.com", Password: "password", Role: "admin"})
	require.NoError(t, err)
	assert.True(t, repo.revokedAll)
}

func TestAuthServiceRefreshTokenRotates(t *testing.T) {
	repo := &mockAuthRepo{refreshTokens: make(map[string]*models.RefreshToken)}
	user := &models.User{ID: "u1", Email: "user@example.com", PasswordHash: "hash", Active: true, Role: models.RoleAdmin}
	repo.userByID = user
	token := &models.RefreshToken{ID: "rt1", UserID: user.ID, Token: "token", ExpiresAt: time.Now().Add(time.Hour)}
	repo.refreshTokens[token.Token] = token

	svc := newAuthService(repo, false)

	res, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: "token"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEqual(t, "token", res.RefreshToken)
	assert.True(t, repo.refreshTokens["token"].Revoked)
}

func TestAuthServiceLogoutClosesActivityLog(t *testing.T) {
	repo := &mockAuthRepo{refreshTokens: map[string]*models.RefreshToken{
		"token": {ID: "rt1", UserID: "u1", Token: "token", ExpiresAt: time.Now().Add(time.Hour)},
	}}
	svc := newAuthService(repo, false)

	err := svc.Logout(context.Background(), "token", "u1")
	require.NoError(t, err)
	assert.True(t, repo.refreshTokens["token"].Revoked)
	assert.True(t, repo.activityClosed)
}

func TestValidateToken(t *testing.T) {
	svc := newAuthService(&mockAuthRepo{}, false)
	user := &models.User{ID: "u1", Email: "user@example.com", Role: models.RoleAdmin}
	token, err := svc.generateAccessToken(user)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, models.RoleAdmin, claims.Role)
}
