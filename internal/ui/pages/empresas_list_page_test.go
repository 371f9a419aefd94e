package pages

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ceidigital/cei_console_go/internal/data/models"
	"github.com/ceidigital/cei_console_go/internal/navigation"
	"github.com/ceidigital/cei_console_go/internal/services"
)

func newListPage(t *testing.T, roles ...string) (*EmpresasListPage, *env) {
	t.Helper()
	e := newEnv(t)
	e.login(t, "ana@cei.com.br", roles...)
	e.fake.AddEmpresa(models.Empresa{TipoPessoa: "CNPJ", NumeroDocumento: cnpjValido, NomeRazaoSocial: "Acme"})
	e.fake.AddEmpresa(models.Empresa{TipoPessoa: "CPF", NumeroDocumento: cpfValido, NomeRazaoSocial: "Maria"})
	e.fake.AddEmpresa(models.Empresa{TipoPessoa: "CPF", NumeroDocumento: "123", NomeRazaoSocial: "Incompleto"})
	lp := NewEmpresasListPage(e.router, e.app, e.empresas, e.sessions)
	lp.OnNavigatedTo(nil)
	e.app.drain()
	return lp, e
}

func TestListLoadsAndFormatsDocumentos(t *testing.T) {
	lp, _ := newListPage(t, models.RoleUser)
	require.Len(t, lp.Empresas(), 3)
	assert.False(t, lp.Loading())
	assert.Empty(t, lp.LoadError())

	var docs []string
	for _, emp := range lp.Empresas() {
		docs = append(docs, lp.FormatDocumento(emp))
	}
	assert.Equal(t, []string{"12.345.678/0001-95", "529.982.247-25", "123"}, docs)
	assert.Equal(t, "-", lp.FormatDocumento(models.Empresa{TipoPessoa: "CNPJ"}))
	assert.False(t, lp.IsAdmin())
}

func TestListLoadFailure(t *testing.T) {
	e := newEnv(t)
	e.login(t, "ana@cei.com.br", models.RoleUser)
	e.fake.Fail(http.MethodGet, "/api/empresas", http.StatusInternalServerError, map[string]string{"title": "Erro"})
	lp := NewEmpresasListPage(e.router, e.app, e.empresas, e.sessions)

	lp.OnNavigatedTo(nil)
	e.app.drain()
	assert.Equal(t, MsgLoadFailed, lp.LoadError())
	assert.Equal(t, MsgLoadFailed, e.app.lastSnack().Message)
}

func TestListNavigation(t *testing.T) {
	lp, e := newListPage(t, models.RoleUser)

	lp.Insert()
	assert.Equal(t, navigationCall{ID: navigation.PageEmpresaNova}, e.router.calls[0])
	lp.View(2)
	assert.Equal(t, navigationCall{ID: navigation.PageEmpresaView, Params: navigation.EmpresaParams{ID: 2}}, e.router.calls[1])
	lp.Edit(3)
	assert.Equal(t, navigationCall{ID: navigation.PageEmpresaEdit, Params: navigation.EmpresaParams{ID: 3}}, e.router.calls[2])
}

func TestDeleteAsMasterReloads(t *testing.T) {
	lp, e := newListPage(t, models.RoleMaster)
	require.True(t, lp.IsAdmin())

	lp.Delete(1)
	assert.True(t, lp.Busy())
	e.app.drain()

	assert.False(t, lp.Busy())
	assert.Len(t, lp.Empresas(), 2)
	assert.Contains(t, e.app.messages(), MsgEmpresaDeleted)
}

func TestDeleteWithoutPermission(t *testing.T) {
	lp, e := newListPage(t, models.RoleAdmin)
	assert.False(t, lp.IsAdmin())

	lp.Delete(1)
	e.app.drain()

	assert.Equal(t, MsgPermissionDenied, e.app.lastSnack().Message)
	assert.Len(t, lp.Empresas(), 3)
	assert.Equal(t, 0, e.fake.CountRequests(http.MethodDelete, "/api/empresas/1"))
}

func TestExportWritesFile(t *testing.T) {
	lp, e := newListPage(t, models.RoleUser)

	lp.Export(services.ExportCSV)
	e.app.drain()

	path := lp.LastExport()
	require.NotEmpty(t, path)
	assert.Equal(t, ".csv", filepath.Ext(path))
	_, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf(MsgExportDone, path), e.app.lastSnack().Message)
}
