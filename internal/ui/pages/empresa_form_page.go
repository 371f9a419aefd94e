package pages

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ceidigital/cei_console_go/internal/auth"
	appErrors "github.com/ceidigital/cei_console_go/internal/core/errors"
	appLogger "github.com/ceidigital/cei_console_go/internal/core/logger"
	"github.com/ceidigital/cei_console_go/internal/core/types"
	"github.com/ceidigital/cei_console_go/internal/data/models"
	"github.com/ceidigital/cei_console_go/internal/navigation"
	"github.com/ceidigital/cei_console_go/internal/services"
	"github.com/ceidigital/cei_console_go/internal/ui/forms"
	"github.com/ceidigital/cei_console_go/internal/utils"
)

// FormMode é o modo de abertura do formulário de empresa.
type FormMode int

const (
	ModeCreate FormMode = iota
	ModeEdit
	ModeView
)

func (m FormMode) String() string {
	switch m {
	case ModeEdit:
		return "edicao"
	case ModeView:
		return "visualizacao"
	}
	return "criacao"
}

// Nomes dos campos, iguais às chaves de erro da API.
const (
	FieldNumeroDocumento = "numeroDocumento"
	FieldNomeRazaoSocial = "nomeRazaoSocial"
	FieldNomeFantasia    = "nomeFantasia"
	FieldTipoAtividade   = "tipoAtividade"
	FieldCNAE            = "cnae"
	FieldDataAbertura    = "dataAbertura"
	FieldSituacao        = "situacao"
	FieldEndereco        = "endereco"
	FieldCidade          = "cidade"
	FieldEstado          = "estado"
	FieldTelefone        = "telefone"
	FieldEmail           = "email"
)

// EmpresaFormPage controla a criação, edição e visualização de uma empresa.
type EmpresaFormPage struct {
	router   navigation.RouterInterface
	app      navigation.AppInterface
	svc      services.EmpresaService
	sessions *auth.SessionManager
	mode     FormMode

	form      *forms.Form
	documento *forms.DocumentoField
	fields    map[string]*forms.Field

	empresa      *models.Empresa
	empresaID    int64
	isLoading    bool
	loadErr      string
	docLocked    bool
	fantasiaAuto bool
}

// NewEmpresaFormPage cria o formulário no modo indicado. Cada modo é registrado
// no router como uma página própria.
func NewEmpresaFormPage(router navigation.RouterInterface, app navigation.AppInterface, svc services.EmpresaService, sessions *auth.SessionManager, mode FormMode) *EmpresaFormPage {
	if router == nil || app == nil || svc == nil || sessions == nil {
		appLogger.Fatalf("Dependências nulas fornecidas para NewEmpresaFormPage")
	}
	fp := &EmpresaFormPage{
		router:    router,
		app:       app,
		svc:       svc,
		sessions:  sessions,
		mode:      mode,
		documento: forms.NewDocumentoField(FieldNumeroDocumento, types.TipoCNPJ, ""),
		fields:    make(map[string]*forms.Field),
	}
	fp.form = forms.NewForm(fp.documento.Field)
	fp.add(forms.NewField(FieldNomeRazaoSocial, "", forms.Required()))
	fp.add(forms.NewField(FieldNomeFantasia, ""))
	fp.add(forms.NewField(FieldTipoAtividade, ""))
	fp.add(forms.NewField(FieldCNAE, ""))
	fp.add(forms.NewField(FieldDataAbertura, ""))
	fp.add(forms.NewField(FieldSituacao, ""))
	fp.add(forms.NewField(FieldEndereco, ""))
	fp.add(forms.NewField(FieldCidade, ""))
	fp.add(forms.NewField(FieldEstado, ""))
	fp.add(forms.NewField(FieldTelefone, "", forms.Telefone()).WithMask(utils.MaskTelefone))
	fp.add(forms.NewField(FieldEmail, "", forms.Email()))
	return fp
}

func (fp *EmpresaFormPage) add(f *forms.Field) {
	fp.fields[f.Name()] = f
	fp.form.Add(f)
}

func (fp *EmpresaFormPage) OnNavigatedTo(params interface{}) {
	appLogger.Debugf("Navegou para EmpresaFormPage (%s)", fp.mode)
	fp.clear()
	if fp.mode == ModeCreate {
		fp.fantasiaAuto = true
		fp.form.MarkPristine()
		return
	}
	p, ok := params.(navigation.EmpresaParams)
	if !ok || p.ID <= 0 {
		appLogger.Warnf("EmpresaFormPage (%s) aberta sem ID de empresa", fp.mode)
		fp.app.Snackbar().Error(MsgEmpresaNotFound)
		fp.router.NavigateTo(navigation.PageEmpresas, nil)
		return
	}
	fp.empresaID = p.ID
	fp.load(p.ID)
}

func (fp *EmpresaFormPage) OnNavigatedFrom() {
	fp.isLoading = false
}

func (fp *EmpresaFormPage) clear() {
	fp.empresa = nil
	fp.empresaID = 0
	fp.isLoading = false
	fp.loadErr = ""
	fp.docLocked = false
	fp.fantasiaAuto = false
	fp.documento.SetDisabled(false)
	fp.documento.SetTipo(types.TipoCNPJ)
	fp.documento.Reset("")
	for _, f := range fp.fields {
		f.SetDisabled(false)
		f.Reset("")
	}
}

func (fp *EmpresaFormPage) load(id int64) {
	fp.isLoading = true
	fp.app.Invalidate()
	session := fp.sessions.Current()
	var empresa *models.Empresa
	fp.app.Background(func() error {
		var err error
		empresa, err = fp.svc.Get(context.Background(), id, session)
		return err
	}, func(err error) {
		fp.isLoading = false
		if err != nil {
			appLogger.WithFields(logrus.Fields{"empresa_id": id, "modo": fp.mode.String()}).WithError(err).Warn("Falha ao carregar empresa")
			if errors.Is(err, appErrors.ErrNotFound) {
				fp.loadErr = MsgEmpresaNotFound
			} else {
				fp.loadErr = genericMessage(err, MsgLoadFailed)
			}
			fp.app.Snackbar().Error(fp.loadErr)
			fp.app.Invalidate()
			return
		}
		fp.fill(empresa, session)
		fp.app.Invalidate()
	})
}

// fill copia o registro para os campos e aplica os bloqueios do modo.
func (fp *EmpresaFormPage) fill(e *models.Empresa, session *auth.SessionData) {
	fp.empresa = e
	fp.documento.SetTipo(e.Tipo())
	fp.documento.Reset(e.NumeroDocumento)
	p := models.PayloadFromEmpresa(*e)
	fp.fields[FieldNomeRazaoSocial].Reset(p.NomeRazaoSocial)
	fp.fields[FieldNomeFantasia].Reset(p.NomeFantasia)
	fp.fields[FieldTipoAtividade].Reset(p.TipoAtividade)
	fp.fields[FieldCNAE].Reset(p.CNAE)
	fp.fields[FieldDataAbertura].Reset(p.DataAbertura)
	fp.fields[FieldSituacao].Reset(p.Situacao)
	fp.fields[FieldEndereco].Reset(p.Endereco)
	fp.fields[FieldCidade].Reset(p.Cidade)
	fp.fields[FieldEstado].Reset(p.Estado)
	fp.fields[FieldTelefone].Reset(p.Telefone)
	fp.fields[FieldEmail].Reset(p.Email)
	fp.fantasiaAuto = p.NomeFantasia == ""

	switch fp.mode {
	case ModeView:
		fp.docLocked = true
		fp.documento.SetDisabled(true)
		for _, f := range fp.fields {
			f.SetDisabled(true)
		}
	case ModeEdit:
		fp.docLocked = !fp.svc.CanEditDocumento(e, session)
		fp.documento.SetDisabled(fp.docLocked)
	}
	fp.form.MarkPristine()
}

// --- Estado exposto à view ---

func (fp *EmpresaFormPage) Mode() FormMode                  { return fp.mode }
func (fp *EmpresaFormPage) Loading() bool                   { return fp.isLoading }
func (fp *EmpresaFormPage) Empresa() *models.Empresa        { return fp.empresa }
func (fp *EmpresaFormPage) Form() *forms.Form               { return fp.form }
func (fp *EmpresaFormPage) Documento() *forms.DocumentoField { return fp.documento }

// LoadError é a mensagem da última falha de carga, vazia quando carregou.
func (fp *EmpresaFormPage) LoadError() string { return fp.loadErr }

// Field devolve o campo pelo nome (inclusive numeroDocumento), ou nil.
func (fp *EmpresaFormPage) Field(name string) *forms.Field { return fp.form.Field(name) }

// DocumentoLocked informa se tipo e documento estão bloqueados para edição.
func (fp *EmpresaFormPage) DocumentoLocked() bool { return fp.docLocked }

// ReadOnly é verdadeiro no modo visualização.
func (fp *EmpresaFormPage) ReadOnly() bool { return fp.mode == ModeView }

// CanSave habilita "Salvar".
func (fp *EmpresaFormPage) CanSave() bool {
	if fp.mode == ModeView || fp.isLoading || fp.loadErr != "" {
		return false
	}
	return fp.form.Valid()
}

// ServerError devolve as mensagens do servidor para o campo, separadas por "; ".
func (fp *EmpresaFormPage) ServerError(field string) string {
	f := fp.form.Field(field)
	if f == nil {
		return ""
	}
	return strings.Join(f.ServerMessages(), "; ")
}

// --- Edição ---

// SetTipoPessoa troca o tipo e limpa o documento. Ignorado quando bloqueado.
func (fp *EmpresaFormPage) SetTipoPessoa(tipo types.TipoPessoa) {
	if fp.docLocked || fp.mode == ModeView {
		return
	}
	fp.documento.SetTipo(tipo)
}

func (fp *EmpresaFormPage) SetDocumento(v string) {
	if fp.docLocked || fp.mode == ModeView {
		return
	}
	fp.documento.SetValue(v)
}

// SetValue edita um campo comum. A razão social é copiada para o nome
// fantasia enquanto este estiver vazio ou ainda não tiver sido editado.
func (fp *EmpresaFormPage) SetValue(name, v string) {
	if fp.mode == ModeView {
		return
	}
	if name == FieldNumeroDocumento {
		fp.SetDocumento(v)
		return
	}
	f, ok := fp.fields[name]
	if !ok || f.Disabled() {
		return
	}
	f.SetValue(v)
	switch name {
	case FieldNomeRazaoSocial:
		fantasia := fp.fields[FieldNomeFantasia]
		if fp.fantasiaAuto || fantasia.Value() == "" {
			fantasia.SetValue(v)
			fp.fantasiaAuto = true
		}
	case FieldNomeFantasia:
		fp.fantasiaAuto = v == ""
	}
}

func (fp *EmpresaFormPage) payload() models.EmpresaPayload {
	v := fp.form.Values()
	p := models.EmpresaPayload{
		TipoPessoa:      fp.documento.Tipo().String(),
		NumeroDocumento: fp.documento.Digits(),
		NomeRazaoSocial: v[FieldNomeRazaoSocial],
		NomeFantasia:    v[FieldNomeFantasia],
		TipoAtividade:   v[FieldTipoAtividade],
		CNAE:            v[FieldCNAE],
		DataAbertura:    v[FieldDataAbertura],
		Situacao:        v[FieldSituacao],
		Endereco:        v[FieldEndereco],
		Cidade:          v[FieldCidade],
		Estado:          v[FieldEstado],
		Telefone:        v[FieldTelefone],
		Email:           v[FieldEmail],
	}
	p.Normalize()
	return p
}

// --- Ações ---

// Submit cria ou atualiza a empresa. Na edição sem alterações só avisa.
func (fp *EmpresaFormPage) Submit() {
	if fp.mode == ModeView || fp.isLoading {
		return
	}
	if fp.mode == ModeEdit && fp.form.Pristine() {
		fp.app.Snackbar().Info(MsgNothingToSave)
		return
	}
	if !fp.form.Validate() {
		fp.app.Invalidate()
		return
	}

	payload := fp.payload()
	session := fp.sessions.Current()
	mode := fp.mode
	id := fp.empresaID
	fp.isLoading = true
	fp.app.Invalidate()
	fp.app.Background(func() error {
		var err error
		if mode == ModeCreate {
			_, err = fp.svc.Create(context.Background(), payload, session)
		} else {
			_, err = fp.svc.Update(context.Background(), id, payload, session)
		}
		return err
	}, func(err error) {
		fp.isLoading = false
		if err != nil {
			fp.handleSaveError(err)
			return
		}
		if mode == ModeCreate {
			fp.app.Snackbar().Success(MsgEmpresaCreated)
		} else {
			fp.app.Snackbar().Success(MsgEmpresaUpdated)
		}
		fp.form.MarkPristine()
		fp.router.NavigateTo(navigation.PageEmpresas, nil)
	})
}

func (fp *EmpresaFormPage) handleSaveError(err error) {
	appLogger.WithFields(logrus.Fields{"empresa_id": fp.empresaID, "modo": fp.mode.String()}).WithError(err).Warn("Falha ao salvar empresa")
	fe := fieldErrors(err)
	switch {
	case errors.Is(err, appErrors.ErrPermissionDenied):
		fp.app.Snackbar().Error(MsgPermissionDenied)
	case errors.Is(err, appErrors.ErrConflict):
		if msgs, ok := fe[FieldNumeroDocumento]; ok {
			fp.documento.SetServerErrors(msgs, forms.TagDuplicado)
			fp.app.Snackbar().Error(MsgDocumentDuplicate)
			break
		}
		fp.app.Snackbar().Error(detailOr(err, MsgRecordExists))
	case errors.Is(err, appErrors.ErrValidation) && fe != nil:
		if unknown := fp.form.ApplyServerErrors(fe); len(unknown) > 0 {
			appLogger.Debugf("Erros de campos fora do formulário: %v", unknown)
		}
		fp.app.Snackbar().Error(detailOr(err, MsgCheckFields))
	default:
		fp.app.Snackbar().Error(genericMessage(err, MsgSaveFailed))
	}
	fp.app.Invalidate()
}

// Edit abre a edição do registro que está sendo visualizado.
func (fp *EmpresaFormPage) Edit() {
	if fp.mode != ModeView || fp.empresaID == 0 {
		return
	}
	fp.router.NavigateTo(navigation.PageEmpresaEdit, navigation.EmpresaParams{ID: fp.empresaID})
}

// Cancel volta para a listagem sem salvar.
func (fp *EmpresaFormPage) Cancel() {
	fp.router.NavigateTo(navigation.PageEmpresas, nil)
}
