package pages

import (
	"context"
	"errors"
	"fmt"

	"github.com/ceidigital/cei_console_go/internal/auth"
	appErrors "github.com/ceidigital/cei_console_go/internal/core/errors"
	appLogger "github.com/ceidigital/cei_console_go/internal/core/logger"
	"github.com/ceidigital/cei_console_go/internal/data/models"
	"github.com/ceidigital/cei_console_go/internal/navigation"
	"github.com/ceidigital/cei_console_go/internal/services"
)

// EmpresasListPage controla a listagem de empresas.
type EmpresasListPage struct {
	router   navigation.RouterInterface
	app      navigation.AppInterface
	svc      services.EmpresaService
	sessions *auth.SessionManager

	empresas   []models.Empresa
	isLoading  bool
	isBusy     bool
	loadErr    string
	lastExport string
}

func NewEmpresasListPage(router navigation.RouterInterface, app navigation.AppInterface, svc services.EmpresaService, sessions *auth.SessionManager) *EmpresasListPage {
	if router == nil || app == nil || svc == nil || sessions == nil {
		appLogger.Fatalf("Dependências nulas fornecidas para NewEmpresasListPage")
	}
	return &EmpresasListPage{router: router, app: app, svc: svc, sessions: sessions}
}

func (lp *EmpresasListPage) OnNavigatedTo(params interface{}) {
	appLogger.Debug("Navegou para EmpresasListPage")
	lp.Load()
}

func (lp *EmpresasListPage) OnNavigatedFrom() {}

func (lp *EmpresasListPage) Empresas() []models.Empresa { return lp.empresas }
func (lp *EmpresasListPage) Loading() bool              { return lp.isLoading }
func (lp *EmpresasListPage) Busy() bool                 { return lp.isBusy }
func (lp *EmpresasListPage) LoadError() string          { return lp.loadErr }

// LastExport é o caminho do último arquivo exportado nesta sessão da página.
func (lp *EmpresasListPage) LastExport() string { return lp.lastExport }

// IsAdmin libera as ações restritas (excluir).
func (lp *EmpresasListPage) IsAdmin() bool {
	s := lp.sessions.Current()
	return s != nil && s.IsMaster()
}

// FormatDocumento devolve o documento mascarado conforme o tipo, ou "-".
func (lp *EmpresasListPage) FormatDocumento(e models.Empresa) string {
	return e.DocumentoFormatado()
}

// Load recarrega a lista. Uma carga em andamento não é duplicada.
func (lp *EmpresasListPage) Load() {
	if lp.isLoading {
		return
	}
	lp.isLoading = true
	lp.loadErr = ""
	lp.app.Invalidate()
	session := lp.sessions.Current()
	var empresas []models.Empresa
	lp.app.Background(func() error {
		var err error
		empresas, err = lp.svc.List(context.Background(), session)
		return err
	}, func(err error) {
		lp.isLoading = false
		if err != nil {
			appLogger.Warnf("Falha ao carregar empresas: %v", err)
			lp.loadErr = genericMessage(err, MsgLoadFailed)
			lp.app.Snackbar().Error(lp.loadErr)
			lp.app.Invalidate()
			return
		}
		lp.empresas = empresas
		lp.app.Invalidate()
	})
}

func (lp *EmpresasListPage) Insert() {
	lp.router.NavigateTo(navigation.PageEmpresaNova, nil)
}

func (lp *EmpresasListPage) View(id int64) {
	lp.router.NavigateTo(navigation.PageEmpresaView, navigation.EmpresaParams{ID: id})
}

func (lp *EmpresasListPage) Edit(id int64) {
	lp.router.NavigateTo(navigation.PageEmpresaEdit, navigation.EmpresaParams{ID: id})
}

// Delete exclui a empresa e recarrega a lista, com sucesso ou não.
func (lp *EmpresasListPage) Delete(id int64) {
	if lp.isBusy {
		return
	}
	lp.isBusy = true
	lp.app.Invalidate()
	session := lp.sessions.Current()
	lp.app.Background(func() error {
		return lp.svc.Delete(context.Background(), id, session)
	}, func(err error) {
		lp.isBusy = false
		switch {
		case err == nil:
			lp.app.Snackbar().Success(MsgEmpresaDeleted)
		case errors.Is(err, appErrors.ErrPermissionDenied):
			lp.app.Snackbar().Error(MsgPermissionDenied)
		default:
			appLogger.Warnf("Falha ao excluir empresa %d: %v", id, err)
			lp.app.Snackbar().Error(genericMessage(err, MsgDeleteFailed))
		}
		lp.Load()
	})
}

// Export gera o arquivo no diretório de exportação configurado.
func (lp *EmpresasListPage) Export(format services.ExportFormat) {
	if lp.isBusy {
		return
	}
	lp.isBusy = true
	lp.app.Invalidate()
	session := lp.sessions.Current()
	var path string
	lp.app.Background(func() error {
		var err error
		path, err = lp.svc.Export(context.Background(), format, "", session)
		return err
	}, func(err error) {
		lp.isBusy = false
		switch {
		case err == nil:
			lp.lastExport = path
			lp.app.Snackbar().Success(fmt.Sprintf(MsgExportDone, path))
		case errors.Is(err, appErrors.ErrPermissionDenied):
			lp.app.Snackbar().Error(MsgPermissionDenied)
		default:
			appLogger.Errorf("Falha ao exportar empresas (%s): %v", format, err)
			lp.app.Snackbar().Error(genericMessage(err, MsgExportFailed))
		}
		lp.app.Invalidate()
	})
}
