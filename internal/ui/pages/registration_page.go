package pages

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	appErrors "github.com/ceidigital/cei_console_go/internal/core/errors"
	appLogger "github.com/ceidigital/cei_console_go/internal/core/logger"
	"github.com/ceidigital/cei_console_go/internal/core/types"
	"github.com/ceidigital/cei_console_go/internal/data/models"
	"github.com/ceidigital/cei_console_go/internal/navigation"
	"github.com/ceidigital/cei_console_go/internal/services"
	"github.com/ceidigital/cei_console_go/internal/ui/countdown"
	"github.com/ceidigital/cei_console_go/internal/ui/forms"
	"github.com/ceidigital/cei_console_go/internal/ui/scheduler"
	"github.com/ceidigital/cei_console_go/internal/utils"
)

// RegistrationStep é a etapa atual do cadastro.
type RegistrationStep int

const (
	StepRequest RegistrationStep = 1 // dados de contato e documento
	StepConfirm RegistrationStep = 2 // nome, senha e código recebido
)

// RegistrationPage controla o cadastro em duas etapas.
type RegistrationPage struct {
	router navigation.RouterInterface
	app    navigation.AppInterface
	svc    services.RegistrationService

	step      RegistrationStep
	isLoading bool

	requestForm *forms.Form
	email       *forms.Field
	telefone    *forms.Field
	documento   *forms.DocumentoField

	confirmForm *forms.Form
	nome        *forms.Field
	senha       *forms.Field
	token       *forms.Field

	timers *countdown.RegistrationTimers

	// Checagem de existência do documento.
	docExists   bool
	debounce    scheduler.Handle
	lastChecked string
	checkSeq    int
}

// NewRegistrationPage cria a página; as durações vêm da configuração da aplicação.
func NewRegistrationPage(router navigation.RouterInterface, app navigation.AppInterface, svc services.RegistrationService) *RegistrationPage {
	if router == nil || app == nil || svc == nil {
		appLogger.Fatalf("Dependências nulas fornecidas para NewRegistrationPage")
	}
	cfg := app.Config()
	rp := &RegistrationPage{
		router:    router,
		app:       app,
		svc:       svc,
		step:      StepRequest,
		email:     forms.NewField("email", "", forms.Required(), forms.Email()),
		telefone:  forms.NewField("telefone", "", forms.Required(), forms.Telefone()).WithMask(utils.MaskTelefone),
		documento: forms.NewDocumentoField("numeroDocumento", types.TipoCNPJ, ""),
		nome:      forms.NewField("nome", "", forms.Required(), forms.MinLength(3)),
		senha:     forms.NewField("senha", "", forms.Required(), forms.MinLength(6)),
		token:     forms.NewField("token", "", forms.Required()),
	}
	rp.requestForm = forms.NewForm(rp.email, rp.telefone, rp.documento.Field)
	rp.confirmForm = forms.NewForm(rp.nome, rp.senha, rp.token)
	rp.timers = countdown.NewRegistrationTimers(app.Scheduler(), cfg.ResendCooldownSeconds, cfg.TokenExpirySeconds, app.Invalidate)
	return rp
}

func (rp *RegistrationPage) OnNavigatedTo(params interface{}) {
	appLogger.Debug("Navegou para RegistrationPage")
	rp.reset()
	if p, ok := params.(navigation.LoginParams); ok && p.Email != "" {
		rp.email.Reset(p.Email)
	}
}

func (rp *RegistrationPage) OnNavigatedFrom() {
	rp.timers.StopAll()
	rp.cancelDebounce()
}

func (rp *RegistrationPage) reset() {
	rp.timers.StopAll()
	rp.cancelDebounce()
	rp.step = StepRequest
	rp.isLoading = false
	rp.docExists = false
	rp.lastChecked = ""
	rp.checkSeq++
	rp.email.Reset("")
	rp.telefone.Reset("")
	rp.documento.SetTipo(types.TipoCNPJ)
	rp.documento.Reset("")
	rp.nome.Reset("")
	rp.senha.Reset("")
	rp.token.Reset("")
	rp.requestForm.MarkPristine()
}

// --- Estado exposto à view ---

func (rp *RegistrationPage) Step() RegistrationStep           { return rp.step }
func (rp *RegistrationPage) Loading() bool                    { return rp.isLoading }
func (rp *RegistrationPage) DocExists() bool                  { return rp.docExists }
func (rp *RegistrationPage) RequestForm() *forms.Form         { return rp.requestForm }
func (rp *RegistrationPage) ConfirmForm() *forms.Form         { return rp.confirmForm }
func (rp *RegistrationPage) Documento() *forms.DocumentoField { return rp.documento }
func (rp *RegistrationPage) Timers() *countdown.RegistrationTimers {
	return rp.timers
}

// ResendCooldown são os segundos restantes até liberar "Reenviar".
func (rp *RegistrationPage) ResendCooldown() int { return rp.timers.Cooldown.Remaining() }

// TokenExpiresIn é a validade restante do código, em MM:SS.
func (rp *RegistrationPage) TokenExpiresIn() string { return rp.timers.ExpiryDisplay() }

// CanResend habilita "Reenviar código".
func (rp *RegistrationPage) CanResend() bool { return rp.timers.CanResend() && !rp.isLoading }

// --- Edição ---

func (rp *RegistrationPage) SetEmail(v string)    { rp.email.SetValue(v) }
func (rp *RegistrationPage) SetTelefone(v string) { rp.telefone.SetValue(v) }
func (rp *RegistrationPage) SetNome(v string)     { rp.nome.SetValue(v) }
func (rp *RegistrationPage) SetSenha(v string)    { rp.senha.SetValue(v) }
func (rp *RegistrationPage) SetToken(v string)    { rp.token.SetValue(v) }

// SetTipoPessoa troca o tipo e limpa o documento.
func (rp *RegistrationPage) SetTipoPessoa(tipo types.TipoPessoa) {
	if rp.documento.SetTipo(tipo) {
		rp.cancelDebounce()
	}
}

// SetDocumento aplica a máscara e agenda a checagem de existência.
func (rp *RegistrationPage) SetDocumento(v string) {
	rp.documento.SetValue(v)
	rp.cancelDebounce()
	rp.debounce = rp.app.Scheduler().AfterFunc(rp.app.Config().DocumentCheckDebounce, rp.checkDocument)
}

func (rp *RegistrationPage) cancelDebounce() {
	if rp.debounce != nil {
		rp.debounce.Stop()
		rp.debounce = nil
	}
}

// checkDocument consulta a API só para documentos válidos e diferentes do
// último consultado. Só a resposta da consulta mais recente é aplicada, e
// qualquer erro conta como "não existe".
func (rp *RegistrationPage) checkDocument() {
	rp.debounce = nil
	if !rp.documento.Valid() {
		return
	}
	tipo := rp.documento.Tipo()
	digits := rp.documento.Digits()
	key := tipo.String() + ":" + digits
	if key == rp.lastChecked {
		return
	}
	rp.lastChecked = key
	rp.checkSeq++
	seq := rp.checkSeq

	var exists bool
	rp.app.Background(func() error {
		var err error
		exists, err = rp.svc.DocumentExists(context.Background(), tipo, digits)
		return err
	}, func(err error) {
		if seq != rp.checkSeq {
			return
		}
		if err != nil {
			appLogger.Debugf("Checagem de documento falhou (tratada como inexistente): %v", err)
			exists = false
		}
		rp.docExists = exists
		rp.app.Invalidate()
	})
}

// --- Ações ---

func (rp *RegistrationPage) tokenRequest() models.RegisterTokenRequest {
	return models.RegisterTokenRequest{
		Email:           strings.TrimSpace(rp.email.Value()),
		Telefone:        rp.telefone.Value(),
		TipoPessoa:      rp.documento.Tipo().String(),
		NumeroDocumento: rp.documento.Digits(),
	}
}

// RequestToken envia o código e passa para a etapa de confirmação.
func (rp *RegistrationPage) RequestToken() {
	if rp.isLoading || !rp.requestForm.Validate() {
		return
	}
	if rp.docExists {
		rp.app.Snackbar().Info(MsgDocumentExists)
		return
	}
	req := rp.tokenRequest()
	rp.isLoading = true
	rp.app.Invalidate()
	rp.app.Background(func() error {
		return rp.svc.RequestToken(context.Background(), req)
	}, func(err error) {
		rp.isLoading = false
		if err != nil {
			rp.handleRequestError(err, MsgTokenSendFailed)
			return
		}
		rp.app.Snackbar().Success(MsgTokenSent)
		rp.step = StepConfirm
		rp.timers.Restart()
		rp.app.Invalidate()
	})
}

// ResendCode reenvia o código; só age com a espera zerada e sem operação em curso.
func (rp *RegistrationPage) ResendCode() {
	if !rp.CanResend() || !rp.requestForm.Valid() {
		return
	}
	req := rp.tokenRequest()
	rp.isLoading = true
	rp.app.Invalidate()
	rp.app.Background(func() error {
		return rp.svc.RequestToken(context.Background(), req)
	}, func(err error) {
		rp.isLoading = false
		if err != nil {
			rp.handleRequestError(err, MsgTokenResendFailed)
			return
		}
		rp.app.Snackbar().Success(MsgTokenResent)
		rp.timers.Restart()
		rp.app.Invalidate()
	})
}

// Confirm conclui o cadastro e volta ao login com o e-mail preenchido.
func (rp *RegistrationPage) Confirm() {
	if rp.isLoading {
		return
	}
	if !rp.confirmForm.Validate() || !rp.requestForm.Valid() {
		return
	}
	email := strings.TrimSpace(rp.email.Value())
	req := models.RegisterConfirmRequest{
		Email:           email,
		Nome:            strings.TrimSpace(rp.nome.Value()),
		Senha:           rp.senha.Value(),
		Token:           strings.TrimSpace(rp.token.Value()),
		TipoPessoa:      rp.documento.Tipo().String(),
		NumeroDocumento: rp.documento.Digits(),
	}
	rp.isLoading = true
	rp.app.Invalidate()
	rp.app.Background(func() error {
		return rp.svc.Confirm(context.Background(), req)
	}, func(err error) {
		rp.isLoading = false
		if err == nil {
			rp.timers.StopAll()
			rp.app.Snackbar().Success(MsgConfirmed)
			rp.router.NavigateTo(navigation.PageLogin, navigation.LoginParams{Email: email})
			return
		}
		if isUsuarioJaExiste(err) {
			rp.app.Snackbar().Info(MsgEmailExists)
			rp.router.NavigateTo(navigation.PageLogin, navigation.LoginParams{Email: email})
			return
		}
		if fe := fieldErrors(err); fe != nil {
			rp.confirmForm.ApplyServerErrors(fe)
		}
		rp.app.Snackbar().Error(genericMessage(err, MsgConfirmFailed))
		rp.app.Invalidate()
	})
}

func (rp *RegistrationPage) handleRequestError(err error, fallback string) {
	logCtx := appLogger.WithFields(logrus.Fields{"email": rp.email.Value(), "etapa": rp.step})
	if isUsuarioJaExiste(err) {
		logCtx.Info("E-mail já cadastrado; redirecionando para o login")
		rp.app.Snackbar().Info(MsgEmailExists)
		rp.BackToLogin()
		return
	}

	fe := fieldErrors(err)
	if errors.Is(err, appErrors.ErrConflict) {
		if msgs, ok := fe["numeroDocumento"]; ok {
			rp.documento.SetServerErrors(msgs, forms.TagDuplicado)
			rp.step = StepRequest
			rp.timers.StopAll()
			rp.app.Snackbar().Error(detailOr(err, MsgDocumentDuplicate))
			rp.app.Invalidate()
			return
		}
	}
	if fe != nil {
		rp.requestForm.ApplyServerErrors(fe)
	}
	logCtx.WithError(err).Warn("Falha no pedido do código de cadastro")
	rp.app.Snackbar().Error(genericMessage(err, fallback))
	rp.app.Invalidate()
}

// BackToLogin volta ao login levando o e-mail digitado, se houver.
func (rp *RegistrationPage) BackToLogin() {
	rp.router.NavigateTo(navigation.PageLogin, navigation.LoginParams{Email: strings.TrimSpace(rp.email.Value())})
}
