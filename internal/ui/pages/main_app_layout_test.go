package pages

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ceidigital/cei_console_go/internal/data/models"
	"github.com/ceidigital/cei_console_go/internal/navigation"
)

func newLayout(e *env) *MainAppLayout {
	return NewMainAppLayout(e.router, e.app, e.authn, e.sessions, e.perms)
}

func TestMenuFollowsSession(t *testing.T) {
	e := newEnv(t)
	ml := newLayout(e)
	ml.OnNavigatedTo(nil)
	assert.Empty(t, ml.Menu(), "sem sessão, sem menu")

	e.login(t, "ana@cei.com.br", models.RoleUser)
	ml.OnNavigatedTo(nil)
	require.Len(t, ml.Menu(), 2)
	assert.Equal(t, navigation.PageEmpresas, ml.Menu()[0].ID)
	assert.Equal(t, "ana@cei.com.br", ml.UserEmail())
}

func TestMenuToggleAndOpen(t *testing.T) {
	e := newEnv(t)
	e.login(t, "ana@cei.com.br", models.RoleUser)
	ml := newLayout(e)
	ml.OnNavigatedTo(nil)

	ml.ToggleMenu()
	assert.True(t, ml.MenuOpen())
	ml.CloseMenu()
	assert.False(t, ml.MenuOpen())

	ml.ToggleMenu()
	assert.True(t, ml.Open(navigation.PageEmpresaNova))
	assert.False(t, ml.MenuOpen())
	assert.Equal(t, navigation.PageEmpresaNova, e.router.CurrentPageID())

	assert.False(t, ml.Open(navigation.PageRegistration))
	assert.Len(t, e.router.calls, 1)
}

func TestLogoutReturnsToLoginWithEmail(t *testing.T) {
	e := newEnv(t)
	e.login(t, "ana@cei.com.br", models.RoleAdmin)
	ml := newLayout(e)
	ml.OnNavigatedTo(nil)

	ml.Logout()

	assert.False(t, e.sessions.IsAuthenticated())
	assert.Equal(t, navigation.PageLogin, e.router.CurrentPageID())
	assert.Equal(t, navigation.LoginParams{Email: "ana@cei.com.br"}, e.router.CurrentParams())
}
