package pages

import (
	"context"
	"strings"

	"github.com/ceidigital/cei_console_go/internal/auth"
	appLogger "github.com/ceidigital/cei_console_go/internal/core/logger"
	"github.com/ceidigital/cei_console_go/internal/navigation"
	"github.com/ceidigital/cei_console_go/internal/ui/forms"
)

// LoginPage controla a tela de login.
type LoginPage struct {
	router navigation.RouterInterface
	app    navigation.AppInterface
	authn  auth.AuthenticatorInterface

	form  *forms.Form
	email *forms.Field
	senha *forms.Field

	isLoading bool
	errorText string
}

// NewLoginPage cria uma nova instância da LoginPage.
func NewLoginPage(router navigation.RouterInterface, app navigation.AppInterface, authn auth.AuthenticatorInterface) *LoginPage {
	if router == nil || app == nil || authn == nil {
		appLogger.Fatalf("Dependências nulas fornecidas para NewLoginPage")
	}
	lp := &LoginPage{
		router: router,
		app:    app,
		authn:  authn,
		email:  forms.NewField("email", "", forms.Required(), forms.Email()),
		senha:  forms.NewField("senha", "", forms.Required()),
	}
	lp.form = forms.NewForm(lp.email, lp.senha)
	return lp
}

func (lp *LoginPage) OnNavigatedTo(params interface{}) {
	appLogger.Debug("Navegou para LoginPage")
	lp.isLoading = false
	lp.errorText = ""
	lp.senha.Reset("")
	if p, ok := params.(navigation.LoginParams); ok && p.Email != "" {
		lp.email.Reset(p.Email)
	}
}

func (lp *LoginPage) OnNavigatedFrom() {
	lp.senha.Reset("")
}

func (lp *LoginPage) SetEmail(v string) { lp.email.SetValue(v) }
func (lp *LoginPage) SetSenha(v string) { lp.senha.SetValue(v) }

func (lp *LoginPage) Email() *forms.Field { return lp.email }
func (lp *LoginPage) Senha() *forms.Field { return lp.senha }
func (lp *LoginPage) Loading() bool       { return lp.isLoading }

// ErrorText é a mensagem exibida abaixo do formulário; vazia quando não há erro.
func (lp *LoginPage) ErrorText() string { return lp.errorText }

// CanSubmit habilita o botão "Entrar".
func (lp *LoginPage) CanSubmit() bool { return !lp.isLoading && lp.form.Valid() }

// Submit autentica em segundo plano. Em sucesso vai para a home; em erro o
// formulário continua editável com a mensagem correspondente ao status.
func (lp *LoginPage) Submit() {
	if lp.isLoading {
		return
	}
	if !lp.form.Validate() {
		lp.errorText = MsgLoginRequired
		lp.app.Invalidate()
		return
	}
	lp.isLoading = true
	lp.errorText = ""
	lp.app.Invalidate()

	email := strings.TrimSpace(lp.email.Value())
	senha := lp.senha.Value()
	lp.app.Background(func() error {
		_, err := lp.authn.Login(context.Background(), email, senha)
		return err
	}, func(err error) {
		lp.isLoading = false
		if err == nil {
			lp.senha.Reset("")
			lp.router.NavigateTo(navigation.PageMain, nil)
			return
		}
		lp.errorText = LoginErrorMessage(err)
		lp.app.Invalidate()
	})
}

// GoToRegistration abre o cadastro levando o e-mail digitado.
func (lp *LoginPage) GoToRegistration() {
	lp.router.NavigateTo(navigation.PageRegistration, navigation.LoginParams{Email: strings.TrimSpace(lp.email.Value())})
}
