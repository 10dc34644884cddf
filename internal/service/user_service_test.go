package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/JsterDevers/Presentryx/internal/models"
	appErrors "github.com/JsterDevers/Presentryx/pkg/errors"
)

type mockUserRepo struct {
	users           map[string]*models.User
	emailExists     bool
	studentIDExists bool
	created         *models.User
	faculty         []models.FacultyOption
	activity        []models.ActivityLog
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (m *mockUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return m.emailExists, nil
}

func (m *mockUserRepo) ExistsByStudentID(ctx context.Context, studentID string) (bool, error) {
	return m.studentIDExists, nil
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	user.ID = "u-new"
	m.created = user
	return nil
}

func (m *mockUserRepo) Update(ctx context.Context, user *models.User) error {
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	out := make([]models.User, 0, len(m.users))
	for _, user := range m.users {
		out = append(out, *user)
	}
	return out, len(out), nil
}

func (m *mockUserRepo) FacultyList(ctx context.Context) ([]models.FacultyOption, error) {
	return m.faculty, nil
}

func (m *mockUserRepo) ActivityLogs(ctx context.Context, userID string, limit int) ([]models.ActivityLog, error) {
	return m.activity, nil
}

func newUserService(repo *mockUserRepo) *UserService {
	return NewUserService(repo, validator.New(), zap.NewNop())
}

func TestUserServiceCreateDefaultsPassword(t *testing.T) {
	repo := &mockUserRepo{}
	svc := newUserService(repo)

	user, err := svc.Create(context.Background(), CreateUserRequest{
		FirstName: "Maria", LastName: "Santos", Email: "maria@example.com", Role: "faculty",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleFaculty, user.Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(defaultPassword)))
}

func TestUserServiceCreateStudentRequiresStudentID(t *testing.T) {
	svc := newUserService(&mockUserRepo{})

	_, err := svc.Create(context.Background(), CreateUserRequest{
		FirstName: "Ana", LastName: "Reyes", Email: "ana@example.com", Role: "student",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUserServiceCreateDuplicateStudentID(t *testing.T) {
	svc := newUserService(&mockUserRepo{studentIDExists: true})

	sid := "2023-00123"
	_, err := svc.Create(context.Background(), CreateUserRequest{
		FirstName: "Ana", LastName: "Reyes", Email: "ana@example.com", Role: "student", StudentID: &sid,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestUserServiceUpdateRejectsPhotoForFaculty(t *testing.T) {
	repo := &mockUserRepo{users: map[string]*models.User{
		"u1": {ID: "u1", Role: models.RoleFaculty, FirstName: "Maria"},
	}}
	svc := newUserService(repo)

	photo := "base64data"
	_, err := svc.Update(context.Background(), "u1", UpdateUserRequest{Photo: &photo})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUserServiceUpdateDeactivates(t *testing.T) {
	repo := &mockUserRepo{users: map[string]*models.User{
		"u1": {ID: "u1", Role: models.RoleFaculty, Active: true},
	}}
	svc := newUserService(repo)

	inactive := false
	user, err := svc.Update(context.Background(), "u1", UpdateUserRequest{Active: &inactive})
	require.NoError(t, err)
	assert.False(t, user.Active)
}

func TestUserServiceListClampsPageSize(t *testing.T) {
	repo := &mockUserRepo{users: map[string]*models.User{"u1": {ID: "u1"}}}
	svc := newUserService(repo)

	_, page, err := svc.List(context.Background(), models.UserFilter{Page: 0, PageSize: 5000})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 20, page.PageSize)
}

func TestUserServiceActivityRequiresExistingUser(t *testing.T) {
	svc := newUserService(&mockUserRepo{})

	_, err := svc.Activity(context.Background(), "missing", 20)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestUserServiceFacultyOptions(t *testing.T) {
	repo := &mockUserRepo{faculty: []models.FacultyOption{{ID: "f1", Name: "Maria Santos"}}}
	svc := newUserService(repo)

	options, err := svc.FacultyOptions(context.Background())
	require.NoError(t, err)
	require.Len(t, options, 1)
	assert.Equal(t, "Maria Santos", options[0].Name)
}
