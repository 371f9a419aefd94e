// Package ui monta a aplicação sem interface gráfica: o Loop que faz o papel
// de thread da interface, o Router e as páginas.
package ui

import (
	"context"
	"sync"

	"github.com/ceidigital/cei_console_go/internal/auth"
	"github.com/ceidigital/cei_console_go/internal/core"
	appLogger "github.com/ceidigital/cei_console_go/internal/core/logger"
	"github.com/ceidigital/cei_console_go/internal/navigation"
	"github.com/ceidigital/cei_console_go/internal/services"
	"github.com/ceidigital/cei_console_go/internal/ui/pages"
	"github.com/ceidigital/cei_console_go/internal/ui/scheduler"
	"github.com/ceidigital/cei_console_go/internal/ui/snackbar"
)

// Dependencies são os serviços de que as páginas precisam.
type Dependencies struct {
	Authenticator auth.AuthenticatorInterface
	Sessions      *auth.SessionManager
	Permissions   *auth.PermissionManager
	Empresas      services.EmpresaService
	Registration  services.RegistrationService
}

// Option ajusta a App na criação.
type Option func(*App)

// WithScheduler troca o relógio real (útil em testes com scheduler.Manual).
func WithScheduler(s scheduler.Scheduler) Option {
	return func(a *App) { a.sched = s }
}

// App é a aplicação: dona do Loop, do Scheduler, do Snackbar e do Router.
type App struct {
	cfg    *core.Config
	loop   *scheduler.Loop
	sched  scheduler.Scheduler
	snacks *snackbar.Queue
	router *Router
	deps   Dependencies

	wg          sync.WaitGroup
	invalidated chan struct{}

	Login        *pages.LoginPage
	Registration *pages.RegistrationPage
	Main         *pages.MainAppLayout
	Empresas     *pages.EmpresasListPage
	EmpresaNova  *pages.EmpresaFormPage
	EmpresaView  *pages.EmpresaFormPage
	EmpresaEdit  *pages.EmpresaFormPage
}

// NewApp cria a App e registra todas as páginas. Nada roda até Run.
func NewApp(cfg *core.Config, deps Dependencies, opts ...Option) *App {
	if cfg == nil || deps.Authenticator == nil || deps.Sessions == nil || deps.Permissions == nil ||
		deps.Empresas == nil || deps.Registration == nil {
		appLogger.Fatalf("Dependências nulas fornecidas para NewApp")
	}
	a := &App{
		cfg:         cfg,
		loop:        scheduler.NewLoop(),
		deps:        deps,
		invalidated: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.sched == nil {
		a.sched = scheduler.NewLoopScheduler(a.loop.Post)
	}
	a.snacks = snackbar.NewQueue(a.sched, snackbar.TTLs{
		Success: cfg.SnackSuccessTTL,
		Error:   cfg.SnackErrorTTL,
		Info:    cfg.SnackInfoTTL,
	})
	a.router = NewRouter(deps.Sessions, a.Invalidate)

	a.Login = pages.NewLoginPage(a.router, a, deps.Authenticator)
	a.Registration = pages.NewRegistrationPage(a.router, a, deps.Registration)
	a.Main = pages.NewMainAppLayout(a.router, a, deps.Authenticator, deps.Sessions, deps.Permissions)
	a.Empresas = pages.NewEmpresasListPage(a.router, a, deps.Empresas, deps.Sessions)
	a.EmpresaNova = pages.NewEmpresaFormPage(a.router, a, deps.Empresas, deps.Sessions, pages.ModeCreate)
	a.EmpresaView = pages.NewEmpresaFormPage(a.router, a, deps.Empresas, deps.Sessions, pages.ModeView)
	a.EmpresaEdit = pages.NewEmpresaFormPage(a.router, a, deps.Empresas, deps.Sessions, pages.ModeEdit)

	a.router.Register(navigation.PageLogin, a.Login)
	a.router.Register(navigation.PageRegistration, a.Registration)
	a.router.Register(navigation.PageMain, a.Main)
	a.router.Register(navigation.PageEmpresas, a.Empresas)
	a.router.Register(navigation.PageEmpresaNova, a.EmpresaNova)
	a.router.Register(navigation.PageEmpresaView, a.EmpresaView)
	a.router.Register(navigation.PageEmpresaEdit, a.EmpresaEdit)
	return a
}

// Start abre a página inicial: home com sessão, login sem.
func (a *App) Start() {
	a.Execute(func() {
		if a.deps.Sessions.IsAuthenticated() {
			a.router.NavigateTo(navigation.PageMain, nil)
			return
		}
		a.router.NavigateTo(navigation.PageLogin, navigation.LoginParams{Email: a.deps.Sessions.LastEmail()})
	})
}

// Run processa a thread da interface até ctx ser cancelado ou Close.
func (a *App) Run(ctx context.Context) error {
	appLogger.Infof("%s v%s: loop da interface iniciado", a.cfg.AppName, a.cfg.AppVersion)
	return a.loop.Run(ctx)
}

// Close encerra o Loop. Resultados em segundo plano que chegarem depois são descartados.
func (a *App) Close() {
	a.loop.Close()
}

// Wait espera os trabalhos em segundo plano em andamento.
func (a *App) Wait() {
	a.wg.Wait()
}

func (a *App) Execute(f func()) {
	if !a.loop.Execute(f) {
		appLogger.Debug("Loop encerrado; tarefa descartada")
	}
}

// Call executa f na thread da interface e espera. Não chame de dentro do Loop.
func (a *App) Call(f func()) bool {
	return a.loop.Call(f)
}

// Background roda work em uma goroutine e entrega o erro a done na thread da interface.
func (a *App) Background(work func() error, done func(err error)) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		err := work()
		a.Execute(func() { done(err) })
	}()
}

// Invalidate sinaliza que o estado visível mudou. Sinais repetidos se acumulam em um.
func (a *App) Invalidate() {
	select {
	case a.invalidated <- struct{}{}:
	default:
	}
}

// Invalidated recebe um valor sempre que houve Invalidate desde a última leitura.
func (a *App) Invalidated() <-chan struct{} { return a.invalidated }

func (a *App) Snackbar() *snackbar.Queue      { return a.snacks }
func (a *App) Scheduler() scheduler.Scheduler { return a.sched }
func (a *App) Config() *core.Config           { return a.cfg }
func (a *App) Router() *Router                { return a.router }
