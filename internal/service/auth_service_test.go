package service_test

import (
	"context"
	"testing"

	"cardapio/internal/config"
	"cardapio/internal/dto"
	"cardapio/internal/model"
	"cardapio/internal/repository"
	"cardapio/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ── In-memory UserRepository ─────────────────────────────────────────────────

type fakeUserRepo struct {
	users map[uuid.UUID]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*model.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, u *model.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	r.users[u.ID] = u
	return nil
}

func (r *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) FindByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) List(_ context.Context, includeInactive bool) ([]model.User, error) {
	var out []model.User
	for _, u := range r.users {
		if !includeInactive && !u.Active {
			continue
		}
		out = append(out, *u)
	}
	return out, nil
}

func (r *fakeUserRepo) Update(_ context.Context, u *model.User) error {
	r.users[u.ID] = u
	return nil
}

func (r *fakeUserRepo) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	u, ok := r.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.Active = active
	return nil
}

var _ repository.UserRepository = (*fakeUserRepo)(nil)

func testAuthConfig() *config.Config {
	return &config.Config{
		JWTSecret:          "test-secret",
		JWTExpirationHours: 1,
		JWTRefreshHours:    24,
	}
}

func seedUser(repo *fakeUserRepo, username, password, role string, active bool) *model.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	u := &model.User{
		ID:           uuid.New(),
		Username:     username,
		Name:         username,
		PasswordHash: string(hash),
		Role:         role,
		Active:       active,
	}
	repo.users[u.ID] = u
	return u
}

// ── Tests ─────────────────────────────────────────────────────────────────────

func TestLoginSuccess(t *testing.T) {
	repo := newFakeUserRepo()
	seedUser(repo, "maria", "segredo123", "cashier", true)
	svc := service.NewAuthService(repo, testAuthConfig())

	resp, err := svc.Login(context.Background(), dto.LoginRequest{Username: "maria", Password: "segredo123"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "bearer", resp.TokenType)
	assert.Equal(t, 3600, resp.ExpiresIn)
	assert.Equal(t, "cashier", resp.User.Role)
}

func TestLoginWrongPassword(t *testing.T) {
	repo := newFakeUserRepo()
	seedUser(repo, "maria", "segredo123", "cashier", true)
	svc := service.NewAuthService(repo, testAuthConfig())

	_, err := svc.Login(context.Background(), dto.LoginRequest{Username: "maria", Password: "errada"})
	assert.ErrorContains(t, err, "credenciais inválidas")
}

func TestLoginUnknownUser(t *testing.T) {
	svc := service.NewAuthService(newFakeUserRepo(), testAuthConfig())

	_, err := svc.Login(context.Background(), dto.LoginRequest{Username: "fantasma", Password: "x"})
	assert.ErrorContains(t, err, "credenciais inválidas")
}

func TestLoginInactiveUser(t *testing.T) {
	repo := newFakeUserRepo()
	seedUser(repo, "maria", "segredo123", "cashier", false)
	svc := service.NewAuthService(repo, testAuthConfig())

	_, err := svc.Login(context.Background(), dto.LoginRequest{Username: "maria", Password: "segredo123"})
	assert.ErrorContains(t, err, "credenciais inválidas")
}

func TestRefreshIssuesNewTokens(t *testing.T) {
	repo := newFakeUserRepo()
	seedUser(repo, "maria", "segredo123", "cashier", true)
	svc := service.NewAuthService(repo, testAuthConfig())

	login, err := svc.Login(context.Background(), dto.LoginRequest{Username: "maria", Password: "segredo123"})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(context.Background(), login.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.Equal(t, "maria", refreshed.User.Username)
}

func TestRefreshRejectsGarbageToken(t *testing.T) {
	svc := service.NewAuthService(newFakeUserRepo(), testAuthConfig())

	_, err := svc.Refresh(context.Background(), "nem.um.jwt")
	assert.ErrorContains(t, err, "refresh token inválido")
}

func TestRefreshRejectsDeactivatedUser(t *testing.T) {
	repo := newFakeUserRepo()
	u := seedUser(repo, "maria", "segredo123", "cashier", true)
	svc := service.NewAuthService(repo, testAuthConfig())

	login, err := svc.Login(context.Background(), dto.LoginRequest{Username: "maria", Password: "segredo123"})
	require.NoError(t, err)

	require.NoError(t, repo.SetActive(context.Background(), u.ID, false))

	_, err = svc.Refresh(context.Background(), login.RefreshToken)
	assert.ErrorContains(t, err, "usuário não encontrado ou inativo")
}

func TestCreateUserHashesPassword(t *testing.T) {
	repo := newFakeUserRepo()
	svc := service.NewAuthService(repo, testAuthConfig())

	resp, err := svc.CreateUser(context.Background(), dto.CreateUserRequest{
		Username: "joao",
		Name:     "João",
		Password: "senha12345",
		Role:     "waiter",
	})
	require.NoError(t, err)
	assert.True(t, resp.Active)

	stored, err := repo.FindByUsername(context.Background(), "joao")
	require.NoError(t, err)
	assert.NotEqual(t, "senha12345", stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("senha12345")))
}

func TestCreateUserDuplicateUsername(t *testing.T) {
	repo := newFakeUserRepo()
	seedUser(repo, "joao", "senha12345", "waiter", true)
	svc := service.NewAuthService(repo, testAuthConfig())

	_, err := svc.CreateUser(context.Background(), dto.CreateUserRequest{
		Username: "joao",
		Name:     "Outro João",
		Password: "senha12345",
		Role:     "waiter",
	})
	assert.ErrorContains(t, err, "já existe um usuário")
}

func TestListUsersFiltersInactive(t *testing.T) {
	repo := newFakeUserRepo()
	seedUser(repo, "ativa", "senha12345", "admin", true)
	seedUser(repo, "inativa", "senha12345", "cashier", false)
	svc := service.NewAuthService(repo, testAuthConfig())

	active, err := svc.ListUsers(context.Background(), false)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	all, err := svc.ListUsers(context.Background(), true)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
