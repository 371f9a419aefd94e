package repositories

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/ceidigital/cei_console_go/internal/core"
	appErrors "github.com/ceidigital/cei_console_go/internal/core/errors"
	"github.com/ceidigital/cei_console_go/internal/core/types"
	"github.com/ceidigital/cei_console_go/internal/data"
	"github.com/ceidigital/cei_console_go/internal/data/api"
	"github.com/ceidigital/cei_console_go/internal/data/models"
	"github.com/ceidigital/cei_console_go/internal/testutil"
)

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := data.InitializeDB(&core.Config{DBEngine: "sqlite", DBName: filepath.Join(t.TempDir(), "repo.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = data.CloseDB(db) })
	return db
}

func TestStateRepository(t *testing.T) {
	repo := NewGormStateRepository(openDB(t))

	_, err := repo.Get(models.StateKeyAuthEmail)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	require.NoError(t, repo.Set(models.StateKeyAuthEmail, "ana@cei.com.br"))
	require.NoError(t, repo.Set(models.StateKeyAuthEmail, "bia@cei.com.br"))
	v, err := repo.Get(models.StateKeyAuthEmail)
	require.NoError(t, err)
	assert.Equal(t, "bia@cei.com.br", v)

	require.NoError(t, repo.SetMany(map[string]string{
		models.StateKeyAuthToken: "cifrado",
		models.StateKeyAuthRoles: `["USER"]`,
	}))
	require.NoError(t, repo.Delete(models.StateKeyAuthToken, models.StateKeyAuthRoles, models.StateKeyAuthEmail))
	for _, key := range []string{models.StateKeyAuthToken, models.StateKeyAuthRoles, models.StateKeyAuthEmail} {
		_, err := repo.Get(key)
		assert.ErrorIs(t, err, appErrors.ErrNotFound, key)
	}
}

func TestAuditLogRepositoryListsNewestFirst(t *testing.T) {
	repo := NewGormAuditLogRepository(openDB(t))
	base := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)

	for i, action := range []string{"LOGIN", "EMPRESA_CREATE", "LOGOUT"} {
		_, err := repo.Create(models.AuditLogEntry{
			Timestamp:   base.Add(time.Duration(i) * time.Minute),
			Action:      action,
			Description: "teste",
			Severity:    "info",
			Username:    "ana@cei.com.br",
			Metadata:    models.JSONMetadata{"i": i},
		})
		require.NoError(t, err)
	}

	entries, total, err := repo.List(AuditLogFilter{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, entries, 2)
	assert.Equal(t, "LOGOUT", entries[0].Action)
	assert.Equal(t, "INFO", entries[0].Severity)
	assert.EqualValues(t, 2, entries[0].Metadata["i"])

	entries, total, err = repo.List(AuditLogFilter{Action: "empresa_create"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "EMPRESA_CREATE", entries[0].Action)

	since := base.Add(90 * time.Second)
	_, total, err = repo.List(AuditLogFilter{Since: &since})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

type EmpresaRepositorySuite struct {
	suite.Suite
	fake *testutil.FakeAPI
	repo EmpresaRepository
	ctx  context.Context
}

func (s *EmpresaRepositorySuite) SetupTest() {
	s.fake = testutil.NewFakeAPI()
	token := s.fake.AddUser(testutil.FakeUser{Email: "ana@cei.com.br", Senha: "segredo1", Roles: []string{models.RoleMaster}})
	client := api.NewClient(s.fake.URL(), time.Second, api.TokenFunc(func() string { return token }))
	s.repo = NewAPIEmpresaRepository(client)
	s.ctx = context.Background()
}

func (s *EmpresaRepositorySuite) TearDownTest() {
	s.fake.Close()
}

func (s *EmpresaRepositorySuite) TestCRUD() {
	created, err := s.repo.Create(s.ctx, models.EmpresaPayload{
		TipoPessoa: "CNPJ", NumeroDocumento: "12345678000195", NomeRazaoSocial: "Acme Ltda",
	})
	s.Require().NoError(err)
	s.NotZero(created.ID)
	s.NotNil(created.CriadoEm)

	got, err := s.repo.GetByID(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal("Acme Ltda", got.NomeRazaoSocial)

	payload := models.PayloadFromEmpresa(*got)
	payload.NomeFantasia = "Acme"
	updated, err := s.repo.Update(s.ctx, created.ID, payload)
	s.Require().NoError(err)
	s.Equal("Acme", updated.NomeFantasia)

	list, err := s.repo.List(s.ctx)
	s.Require().NoError(err)
	s.Len(list, 1)

	s.Require().NoError(s.repo.Delete(s.ctx, created.ID))
	s.ErrorIs(s.repo.Delete(s.ctx, created.ID), appErrors.ErrNotFound)

	_, err = s.repo.GetByID(s.ctx, created.ID)
	s.ErrorIs(err, appErrors.ErrNotFound)
}

func (s *EmpresaRepositorySuite) TestDuplicateIsConflictWithFieldError() {
	s.fake.AddEmpresa(models.Empresa{TipoPessoa: "CNPJ", NumeroDocumento: "12345678000195", NomeRazaoSocial: "Acme"})

	_, err := s.repo.Create(s.ctx, models.EmpresaPayload{
		TipoPessoa: "CNPJ", NumeroDocumento: "12345678000195", NomeRazaoSocial: "Outra",
	})
	s.Require().ErrorIs(err, appErrors.ErrConflict)
	apiErr, ok := appErrors.AsAPIError(err)
	s.Require().True(ok)
	s.True(apiErr.HasFieldError("numeroDocumento"))
}

func (s *EmpresaRepositorySuite) TestExistsAndSearch() {
	s.fake.AddEmpresa(models.Empresa{TipoPessoa: "CNPJ", NumeroDocumento: "11222333000181", NomeRazaoSocial: "Beta"})

	s.Run("exists aceita máscara", func() {
		ok, err := s.repo.Exists(s.ctx, types.TipoCNPJ, "11.222.333/0001-81")
		s.Require().NoError(err)
		s.True(ok)
	})
	s.Run("tipo diferente não existe", func() {
		ok, err := s.repo.Exists(s.ctx, types.TipoCPF, "11222333000181")
		s.Require().NoError(err)
		s.False(ok)
	})
	s.Run("documento vazio não chama a API", func() {
		before := len(s.fake.Requests())
		ok, err := s.repo.Exists(s.ctx, types.TipoCPF, "..-")
		s.Require().NoError(err)
		s.False(ok)
		s.Len(s.fake.Requests(), before)
	})
	s.Run("search", func() {
		e, err := s.repo.SearchByCNPJ(s.ctx, "11.222.333/0001-81")
		s.Require().NoError(err)
		s.Equal("Beta", e.NomeRazaoSocial)

		_, err = s.repo.SearchByCNPJ(s.ctx, "04252011000110")
		s.ErrorIs(err, appErrors.ErrNotFound)
	})
}

func TestEmpresaRepositorySuite(t *testing.T) {
	suite.Run(t, new(EmpresaRepositorySuite))
}

func TestAuthRepository(t *testing.T) {
	fake := testutil.NewFakeAPI()
	defer fake.Close()
	fake.AddUser(testutil.FakeUser{Email: "ana@cei.com.br", Senha: "segredo1", Roles: []string{models.RoleAdmin}})
	repo := NewAPIAuthRepository(api.NewClient(fake.URL(), time.Second, nil))
	ctx := context.Background()

	resp, err := repo.Login(ctx, models.LoginRequest{Email: "ana@cei.com.br", Senha: "segredo1"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, []string{models.RoleAdmin}, resp.Roles)

	_, err = repo.Login(ctx, models.LoginRequest{Email: "ninguem@cei.com.br", Senha: "x"})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	err = repo.RequestRegistrationToken(ctx, models.RegisterTokenRequest{Email: "ana@cei.com.br", Telefone: "51987654321"})
	require.ErrorIs(t, err, appErrors.ErrConflict)
	apiErr, _ := appErrors.AsAPIError(err)
	assert.Equal(t, models.DetailUsuarioJaExiste, apiErr.Detail)

	require.NoError(t, repo.RequestRegistrationToken(ctx, models.RegisterTokenRequest{
		Email: "bia@cei.com.br", Telefone: "51987654321", TipoPessoa: "CPF", NumeroDocumento: "52998224725",
	}))
	err = repo.ConfirmRegistration(ctx, models.RegisterConfirmRequest{Email: "bia@cei.com.br", Nome: "Bia", Senha: "segredo1", Token: "000000"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	require.NoError(t, repo.ConfirmRegistration(ctx, models.RegisterConfirmRequest{
		Email: "bia@cei.com.br", Nome: "Bia", Senha: "segredo1", Token: testutil.DefaultRegistrationCode,
	}))
	_, ok := fake.User("bia@cei.com.br")
	assert.True(t, ok)
	require.Len(t, fake.Empresas(), 1)
	assert.True(t, fake.Empresas()[0].Bloqueada)
}
