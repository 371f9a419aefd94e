package pages

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ceidigital/cei_console_go/internal/auth"
	"github.com/ceidigital/cei_console_go/internal/core"
	"github.com/ceidigital/cei_console_go/internal/data"
	"github.com/ceidigital/cei_console_go/internal/data/api"
	"github.com/ceidigital/cei_console_go/internal/navigation"
	"github.com/ceidigital/cei_console_go/internal/repositories"
	"github.com/ceidigital/cei_console_go/internal/services"
	"github.com/ceidigital/cei_console_go/internal/testutil"
	"github.com/ceidigital/cei_console_go/internal/ui/scheduler"
	"github.com/ceidigital/cei_console_go/internal/ui/snackbar"
)

const (
	cnpjValido  = "12345678000195"
	cnpjValido2 = "11222333000181"
	cpfValido   = "52998224725"
)

type job struct {
	work func() error
	done func(error)
}

// fakeApp roda tudo na goroutine do teste: o tempo anda com clock.Advance e
// os trabalhos em segundo plano só executam em drain.
type fakeApp struct {
	cfg         *core.Config
	clock       *scheduler.Manual
	snacks      *snackbar.Queue
	jobs        []job
	invalidated int
}

func newFakeApp(cfg *core.Config) *fakeApp {
	clock := scheduler.NewManual(time.Unix(0, 0))
	return &fakeApp{cfg: cfg, clock: clock, snacks: snackbar.NewQueue(clock, snackbar.DefaultTTLs)}
}

func (a *fakeApp) Execute(f func())               { f() }
func (a *fakeApp) Invalidate()                    { a.invalidated++ }
func (a *fakeApp) Snackbar() *snackbar.Queue      { return a.snacks }
func (a *fakeApp) Scheduler() scheduler.Scheduler { return a.clock }
func (a *fakeApp) Config() *core.Config           { return a.cfg }
func (a *fakeApp) Background(work func() error, done func(error)) {
	a.jobs = append(a.jobs, job{work: work, done: done})
}

// drain executa os trabalhos pendentes, inclusive os agendados pelos callbacks.
func (a *fakeApp) drain() {
	for len(a.jobs) > 0 {
		j := a.jobs[0]
		a.jobs = a.jobs[1:]
		j.done(j.work())
	}
}

func (a *fakeApp) messages() []string {
	var out []string
	for _, s := range a.snacks.Snapshot() {
		out = append(out, s.Message)
	}
	return out
}

func (a *fakeApp) lastSnack() snackbar.Snack {
	snap := a.snacks.Snapshot()
	if len(snap) == 0 {
		return snackbar.Snack{}
	}
	return snap[len(snap)-1]
}

type navigationCall struct {
	ID     navigation.PageID
	Params interface{}
}

// fakeRouter só registra as navegações.
type fakeRouter struct {
	calls []navigationCall
}

func (r *fakeRouter) NavigateTo(id navigation.PageID, params interface{}) {
	r.calls = append(r.calls, navigationCall{ID: id, Params: params})
}

func (r *fakeRouter) NavigateBack(params interface{}) bool { return false }

func (r *fakeRouter) CurrentPageID() navigation.PageID {
	if len(r.calls) == 0 {
		return navigation.PageNone
	}
	return r.calls[len(r.calls)-1].ID
}

func (r *fakeRouter) CurrentParams() interface{} {
	if len(r.calls) == 0 {
		return nil
	}
	return r.calls[len(r.calls)-1].Params
}

// env liga páginas a serviços reais contra o FakeAPI.
type env struct {
	cfg      *core.Config
	fake     *testutil.FakeAPI
	app      *fakeApp
	router   *fakeRouter
	sessions *auth.SessionManager
	perms    *auth.PermissionManager
	authn    auth.AuthenticatorInterface
	empresas services.EmpresaService
	register services.RegistrationService
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
		DocumentCheckDebounce: 300 * time.Millisecond,
	}
	db, err := data.InitializeDB(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = data.CloseDB(db) })

	enc, err := auth.NewEncryptor("segredo-de-teste")
	require.NoError(t, err)
	sm := auth.NewSessionManager(repositories.NewGormStateRepository(db), enc)
	perms := auth.NewPermissionManager()
	audit := services.NewAuditLogService(repositories.NewGormAuditLogRepository(db), sm, perms)
	client := api.NewClient(fake.URL(), time.Second, sm)
	authRepo := repositories.NewAPIAuthRepository(client)
	empresaRepo := repositories.NewAPIEmpresaRepository(client)

	return &env{
		cfg:      cfg,
		fake:     fake,
		app:      newFakeApp(cfg),
		router:   &fakeRouter{},
		sessions: sm,
		perms:    perms,
		authn:    auth.NewAuthenticator(authRepo, sm, audit),
		empresas: services.NewEmpresaService(cfg, empresaRepo, audit, perms),
		register: services.NewRegistrationService(authRepo, empresaRepo, audit),
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
