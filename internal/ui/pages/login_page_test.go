package pages

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ceidigital/cei_console_go/internal/navigation"
	"github.com/ceidigital/cei_console_go/internal/testutil"
)

func newLoginPage(t *testing.T) (*LoginPage, *env) {
	t.Helper()
	e := newEnv(t)
	e.fake.AddUser(testutil.FakeUser{Email: "ana@cei.com.br", Senha: "segredo1"})
	return NewLoginPage(e.router, e.app, e.authn), e
}

func TestLoginPrefillsEmailAndNavigatesHome(t *testing.T) {
	lp, e := newLoginPage(t)
	lp.OnNavigatedTo(navigation.LoginParams{Email: "ana@cei.com.br"})
	assert.Equal(t, "ana@cei.com.br", lp.Email().Value())
	assert.False(t, lp.CanSubmit(), "senha vazia")

	lp.SetSenha("segredo1")
	lp.Submit()
	assert.True(t, lp.Loading())
	lp.Submit()
	require.Len(t, e.app.jobs, 1, "submissão dupla ignorada")

	e.app.drain()
	assert.False(t, lp.Loading())
	assert.Empty(t, lp.ErrorText())
	assert.Equal(t, navigation.PageMain, e.router.CurrentPageID())
	assert.True(t, e.sessions.IsAuthenticated())
	assert.Equal(t, "", lp.Senha().Value())
}

func TestLoginErrorMessagesByStatus(t *testing.T) {
	cases := []struct {
		name  string
		email string
		senha string
		want  string
	}{
		{"senha errada", "ana@cei.com.br", "errada", MsgLoginInvalid},
		{"usuario inexistente", "ninguem@cei.com.br", "segredo1", MsgLoginNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			lp, e := newLoginPage(t)
			lp.OnNavigatedTo(nil)
			lp.SetEmail(tc.email)
			lp.SetSenha(tc.senha)
			lp.Submit()
			e.app.drain()

			assert.Equal(t, tc.want, lp.ErrorText())
			assert.Empty(t, e.router.calls)
			assert.True(t, lp.CanSubmit(), "formulário continua editável")
		})
	}
}

func TestLoginWithoutServerShowsConnectivityMessage(t *testing.T) {
	lp, e := newLoginPage(t)
	e.fake.Close()

	lp.SetEmail("ana@cei.com.br")
	lp.SetSenha("segredo1")
	lp.Submit()
	e.app.drain()
	assert.Equal(t, MsgConnectivity, lp.ErrorText())
}

func TestLoginRequiresFieldsBeforeCallingAPI(t *testing.T) {
	lp, e := newLoginPage(t)
	lp.SetEmail("ana@cei.com.br")
	lp.Submit()

	assert.Equal(t, MsgLoginRequired, lp.ErrorText())
	assert.Empty(t, e.app.jobs)
	assert.Equal(t, 0, e.fake.CountRequests("POST", "/auth/login"))
}

func TestGoToRegistrationCarriesEmail(t *testing.T) {
	lp, e := newLoginPage(t)
	lp.SetEmail(" nova@cei.com.br ")
	lp.GoToRegistration()

	assert.Equal(t, navigation.PageRegistration, e.router.CurrentPageID())
	assert.Equal(t, navigation.LoginParams{Email: "nova@cei.com.br"}, e.router.CurrentParams())
}
