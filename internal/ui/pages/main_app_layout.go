package pages

import (
	"github.com/ceidigital/cei_console_go/internal/auth"
	appLogger "github.com/ceidigital/cei_console_go/internal/core/logger"
	"github.com/ceidigital/cei_console_go/internal/navigation"
)

// MenuItem é uma entrada do menu principal.
type MenuItem struct {
	ID                 navigation.PageID
	Title              string
	RequiredPermission auth.Permission // Permissão para ver/acessar o item
}

// allMenuItems lista o menu completo, na ordem de exibição.
var allMenuItems = []MenuItem{
	{ID: navigation.PageEmpresas, Title: "Empresas", RequiredPermission: auth.PermEmpresaView},
	{ID: navigation.PageEmpresaNova, Title: "Nova empresa", RequiredPermission: auth.PermEmpresaCreate},
}

// MainAppLayout é a casca da aplicação após o login: menu e saída.
type MainAppLayout struct {
	router      navigation.RouterInterface
	app         navigation.AppInterface
	authn       auth.AuthenticatorInterface
	sessions    *auth.SessionManager
	permManager *auth.PermissionManager

	menu     []MenuItem
	menuOpen bool
}

func NewMainAppLayout(
	router navigation.RouterInterface,
	app navigation.AppInterface,
	authn auth.AuthenticatorInterface,
	sessions *auth.SessionManager,
	permManager *auth.PermissionManager,
) *MainAppLayout {
	if router == nil || app == nil || authn == nil || sessions == nil || permManager == nil {
		appLogger.Fatalf("Dependências nulas fornecidas para NewMainAppLayout")
	}
	return &MainAppLayout{
		router:      router,
		app:         app,
		authn:       authn,
		sessions:    sessions,
		permManager: permManager,
	}
}

func (ml *MainAppLayout) OnNavigatedTo(params interface{}) {
	appLogger.Info("Navegou para MainAppLayout")
	ml.menuOpen = false
	ml.loadMenu()
}

func (ml *MainAppLayout) OnNavigatedFrom() {
	ml.menuOpen = false
}

// loadMenu filtra o menu pelas permissões da sessão atual.
func (ml *MainAppLayout) loadMenu() {
	session := ml.sessions.Current()
	ml.menu = ml.menu[:0]
	if session == nil {
		return
	}
	for _, item := range allMenuItems {
		if ok, _ := ml.permManager.HasPermission(session, item.RequiredPermission); ok {
			ml.menu = append(ml.menu, item)
		}
	}
	if len(ml.menu) == 0 {
		appLogger.Warnf("Nenhum item de menu acessível para %s", session.Email)
	}
}

// Menu devolve os itens visíveis para a sessão atual.
func (ml *MainAppLayout) Menu() []MenuItem { return ml.menu }

// UserEmail é o e-mail exibido no cabeçalho.
func (ml *MainAppLayout) UserEmail() string {
	if s := ml.sessions.Current(); s != nil {
		return s.Email
	}
	return ""
}

func (ml *MainAppLayout) MenuOpen() bool { return ml.menuOpen }

func (ml *MainAppLayout) ToggleMenu() {
	ml.menuOpen = !ml.menuOpen
	ml.app.Invalidate()
}

func (ml *MainAppLayout) CloseMenu() {
	ml.menuOpen = false
	ml.app.Invalidate()
}

// Open navega para um item do menu. Itens fora do menu filtrado são ignorados.
func (ml *MainAppLayout) Open(id navigation.PageID) bool {
	for _, item := range ml.menu {
		if item.ID == id {
			ml.menuOpen = false
			ml.router.NavigateTo(id, nil)
			return true
		}
	}
	appLogger.Warnf("Item de menu inacessível: %s", id)
	return false
}

// Logout encerra a sessão e volta ao login com o último e-mail usado.
func (ml *MainAppLayout) Logout() {
	email := ml.sessions.LastEmail()
	if err := ml.authn.Logout(); err != nil {
		appLogger.Errorf("Falha no logout: %v", err)
		ml.app.Snackbar().Error(MsgLogoutFailed)
	}
	ml.menuOpen = false
	ml.router.NavigateTo(navigation.PageLogin, navigation.LoginParams{Email: email})
}
