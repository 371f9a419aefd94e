// Package navigation define os contratos entre o roteador, a aplicação e as páginas.
package navigation

import (
	"github.com/ceidigital/cei_console_go/internal/core"
	"github.com/ceidigital/cei_console_go/internal/ui/scheduler"
	"github.com/ceidigital/cei_console_go/internal/ui/snackbar"
)

// PageID define um identificador único para cada página da aplicação.
type PageID int

const (
	PageNone PageID = iota
	PageLogin
	PageRegistration
	PageMain
	PageEmpresas
	PageEmpresaNova
	PageEmpresaView
	PageEmpresaEdit
)

var pageNames = map[PageID]string{
	PageNone:         "nenhuma",
	PageLogin:        "login",
	PageRegistration: "cadastro",
	PageMain:         "home",
	PageEmpresas:     "empresas",
	PageEmpresaNova:  "empresas/novo",
	PageEmpresaView:  "empresas/:id",
	PageEmpresaEdit:  "empresas/:id/editar",
}

func (id PageID) String() string {
	if name, ok := pageNames[id]; ok {
		return name
	}
	return "desconhecida"
}

// Public informa se a página pode ser aberta sem sessão.
func (id PageID) Public() bool {
	return id == PageLogin || id == PageRegistration
}

// Page é o controlador de uma página. Todos os métodos rodam na thread da interface.
type Page interface {
	// OnNavigatedTo é chamado quando a página se torna a ativa.
	OnNavigatedTo(params interface{})
	// OnNavigatedFrom é chamado antes de o router sair da página.
	OnNavigatedFrom()
}

// LoginParams preenche o e-mail da tela de login (e do cadastro).
type LoginParams struct {
	Email string
}

// EmpresaParams identifica a empresa das páginas de visualização e edição.
type EmpresaParams struct {
	ID int64
}

// AppInterface é o que as páginas precisam da aplicação.
type AppInterface interface {
	// Execute posta f na thread da interface.
	Execute(f func())
	// Background roda work fora da thread da interface e entrega o resultado
	// a done, uma única vez, de volta nela.
	Background(work func() error, done func(err error))
	// Invalidate pede um redesenho.
	Invalidate()
	Snackbar() *snackbar.Queue
	Scheduler() scheduler.Scheduler
	Config() *core.Config
}

// RouterInterface é o que as páginas usam para navegar.
type RouterInterface interface {
	NavigateTo(id PageID, params interface{})
	NavigateBack(params interface{}) bool
	CurrentPageID() PageID
	CurrentParams() interface{}
}
