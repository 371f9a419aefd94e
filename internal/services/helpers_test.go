package services

import (
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ceidigital/cei_console_go/internal/auth"
	"github.com/ceidigital/cei_console_go/internal/core"
	"github.com/ceidigital/cei_console_go/internal/data"
	"github.com/ceidigital/cei_console_go/internal/data/api"
	"github.com/ceidigital/cei_console_go/internal/repositories"
	"github.com/ceidigital/cei_console_go/internal/testutil"
)

// env reúne as dependências reais dos serviços apontando para um FakeAPI
// e um SQLite temporário.
type env struct {
	cfg      *core.Config
	fake     *testutil.FakeAPI
	sessions *auth.SessionManager
	client   *api.Client
	auditRep repositories.AuditLogRepository
	audit    AuditLogService
	perms    *auth.PermissionManager
}

func newEnv(t *testing.T) *env {
	t.Helper()
	fake := testutil.NewFakeAPI()
	t.Cleanup(fake.Close)

	dir := t.TempDir()
	cfg := &core.Config{
		DBEngine:              "sqlite",
		DBName:                filepath.Join(dir, "console.db"),
		ExportDir:             filepath.Join(dir, "exports"),
		APIBaseURL:            fake.URL(),
		APITimeout:            time.Second,
		ResendCooldownSeconds: 60,
		TokenExpirySeconds:    600,
	}
	db, err := data.InitializeDB(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = data.CloseDB(db) })

	enc, err := auth.NewEncryptor("segredo-de-teste")
	require.NoError(t, err)
	sm := auth.NewSessionManager(repositories.NewGormStateRepository(db), enc)
	perms := auth.NewPermissionManager()
	auditRepo := repositories.NewGormAuditLogRepository(db)

	return &env{
		cfg:      cfg,
		fake:     fake,
		sessions: sm,
		client:   api.NewClient(fake.URL(), time.Second, sm),
		auditRep: auditRepo,
		audit:    NewAuditLogService(auditRepo, sm, perms),
		perms:    perms,
	}
}

// login cadastra o usuário no FakeAPI e grava a sessão localmente.
func (e *env) login(t *testing.T, email string, roles ...string) *auth.SessionData {
	t.Helper()
	token := e.fake.AddUser(testutil.FakeUser{Email: email, Senha: "segredo1", Roles: roles})
	session, err := e.sessions.Save(token, email, roles)
	require.NoError(t, err)
	return session
}

func (e *env) auditActions(t *testing.T) []string {
	t.Helper()
	entries, _, err := e.auditRep.List(repositories.AuditLogFilter{})
	require.NoError(t, err)
	out := make([]string, len(entries))
	for i, entry := range entries {
		out[len(entries)-1-i] = entry.Action
	}
	return out
}

func sortedKeys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
