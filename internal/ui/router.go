package ui

import (
	"github.com/ceidigital/cei_console_go/internal/auth"
	appLogger "github.com/ceidigital/cei_console_go/internal/core/logger"
	"github.com/ceidigital/cei_console_go/internal/navigation"
)

// Router gerencia a navegação entre as páginas da aplicação. Todos os métodos
// devem rodar na thread da interface.
type Router struct {
	sessions   *auth.SessionManager
	invalidate func()

	pages             map[navigation.PageID]navigation.Page
	currentPageID     navigation.PageID
	previousPageID    navigation.PageID // Para funcionalidade de "voltar" simples
	currentPageParams interface{}

	listeners []func(navigation.PageID)
}

// NewRouter cria o Router. invalidate é chamado após cada navegação.
func NewRouter(sessions *auth.SessionManager, invalidate func()) *Router {
	if sessions == nil {
		appLogger.Fatalf("Dependências nulas fornecidas para NewRouter")
	}
	if invalidate == nil {
		invalidate = func() {}
	}
	return &Router{
		sessions:      sessions,
		invalidate:    invalidate,
		pages:         make(map[navigation.PageID]navigation.Page),
		currentPageID: navigation.PageNone,
	}
}

// Register associa um PageID a uma instância de Page.
func (r *Router) Register(id navigation.PageID, page navigation.Page) {
	if page == nil {
		appLogger.Warnf("Tentativa de registrar uma página nula para ID: %v", id)
		return
	}
	if _, exists := r.pages[id]; exists {
		appLogger.Warnf("Substituindo página já registrada para ID: %v", id)
	}
	r.pages[id] = page
	appLogger.Debugf("Página registrada: ID=%v, Tipo=%T", id, page)
}

// Page devolve a página registrada para id, ou nil.
func (r *Router) Page(id navigation.PageID) navigation.Page {
	return r.pages[id]
}

// OnChange registra fn para ser chamado com a nova página após cada navegação.
func (r *Router) OnChange(fn func(navigation.PageID)) {
	r.listeners = append(r.listeners, fn)
}

// NavigateTo muda a página ativa. Páginas protegidas sem sessão levam ao
// login com o último e-mail usado.
func (r *Router) NavigateTo(id navigation.PageID, params interface{}) {
	if !id.Public() && !r.sessions.IsAuthenticated() {
		appLogger.Infof("Página %v exige sessão; redirecionando para o login", id)
		id = navigation.PageLogin
		params = navigation.LoginParams{Email: r.sessions.LastEmail()}
	}

	newPage, exists := r.pages[id]
	if !exists {
		appLogger.Errorf("Tentativa de navegar para página não registrada: ID=%v", id)
		return
	}

	appLogger.Infof("Navegando de %v para %v", r.currentPageID, id)

	if oldPage, ok := r.pages[r.currentPageID]; ok {
		oldPage.OnNavigatedFrom()
	}

	r.previousPageID = r.currentPageID
	r.currentPageID = id
	r.currentPageParams = params

	newPage.OnNavigatedTo(params)

	// A página pode ter navegado de novo dentro de OnNavigatedTo.
	current := r.currentPageID
	for _, fn := range r.listeners {
		fn(current)
	}
	r.invalidate()
}

// NavigateBack navega para a página anterior no histórico simples.
// Retorna false quando não há página anterior.
func (r *Router) NavigateBack(params interface{}) bool {
	if r.previousPageID == navigation.PageNone {
		appLogger.Warn("Nenhuma página anterior para navegar de volta.")
		return false
	}
	appLogger.Infof("Navegando de volta para página anterior: %v", r.previousPageID)
	target := r.previousPageID
	r.NavigateTo(target, params)
	r.previousPageID = navigation.PageNone
	return true
}

// CurrentPageID retorna o ID da página ativa.
func (r *Router) CurrentPageID() navigation.PageID { return r.currentPageID }

// PreviousPageID retorna o ID da página anterior (se houver).
func (r *Router) PreviousPageID() navigation.PageID { return r.previousPageID }

// CurrentParams retorna os parâmetros da última navegação.
func (r *Router) CurrentParams() interface{} { return r.currentPageParams }
