package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ceidigital/cei_console_go/internal/auth"
	"github.com/ceidigital/cei_console_go/internal/core"
	appErrors "github.com/ceidigital/cei_console_go/internal/core/errors"
	appLogger "github.com/ceidigital/cei_console_go/internal/core/logger"
	"github.com/ceidigital/cei_console_go/internal/core/types"
	"github.com/ceidigital/cei_console_go/internal/data/models"
	"github.com/ceidigital/cei_console_go/internal/repositories"
	"github.com/ceidigital/cei_console_go/internal/utils"
)

// ExportFormat é o formato de saída de Export.
type ExportFormat string

const (
	ExportCSV  ExportFormat = "csv"
	ExportXLSX ExportFormat = "xlsx"
)

// ParseExportFormat aceita "csv" ou "xlsx" (sem diferenciar maiúsculas).
func ParseExportFormat(s string) (ExportFormat, error) {
	switch ExportFormat(strings.ToLower(strings.TrimSpace(s))) {
	case ExportCSV:
		return ExportCSV, nil
	case ExportXLSX, "":
		return ExportXLSX, nil
	}
	return "", fmt.Errorf("%w: formato de exportação desconhecido '%s'", appErrors.ErrInvalidInput, s)
}

// EmpresaService aplica permissões, validação local e auditoria sobre o repositório remoto.
type EmpresaService interface {
	List(ctx context.Context, session *auth.SessionData) ([]models.Empresa, error)
	Get(ctx context.Context, id int64, session *auth.SessionData) (*models.Empresa, error)
	SearchByCNPJ(ctx context.Context, cnpj string, session *auth.SessionData) (*models.Empresa, error)
	// Exists não exige sessão: o cadastro consulta antes do login.
	Exists(ctx context.Context, tipo types.TipoPessoa, numeroDocumento string) (bool, error)
	Create(ctx context.Context, payload models.EmpresaPayload, session *auth.SessionData) (*models.Empresa, error)
	Update(ctx context.Context, id int64, payload models.EmpresaPayload, session *auth.SessionData) (*models.Empresa, error)
	Delete(ctx context.Context, id int64, session *auth.SessionData) error
	// Export grava todas as empresas em outputPath (relativo a APP_EXPORT_DIR) e devolve o caminho final.
	Export(ctx context.Context, format ExportFormat, outputPath string, session *auth.SessionData) (string, error)
	// CanEditDocumento informa se tipo e documento podem ser alterados pela sessão.
	CanEditDocumento(e *models.Empresa, session *auth.SessionData) bool
}

type empresaServiceImpl struct {
	cfg             *core.Config
	repo            repositories.EmpresaRepository
	auditLogService AuditLogService
	permManager     *auth.PermissionManager
}

func NewEmpresaService(
	cfg *core.Config,
	repo repositories.EmpresaRepository,
	auditLogService AuditLogService,
	permManager *auth.PermissionManager,
) EmpresaService {
	if cfg == nil || repo == nil || auditLogService == nil || permManager == nil {
		appLogger.Fatalf("Dependências nulas fornecidas para NewEmpresaService")
	}
	return &empresaServiceImpl{cfg: cfg, repo: repo, auditLogService: auditLogService, permManager: permManager}
}

// ValidateEmpresaPayload normaliza o payload e confere os campos antes de
// qualquer chamada de rede. Devolve *appErrors.ValidationError.
func ValidateEmpresaPayload(p *models.EmpresaPayload) error {
	p.Normalize()
	fields := map[string]string{}

	tipo := types.ParseTipoPessoa(p.TipoPessoa)
	switch {
	case p.NumeroDocumento == "":
		fields["numeroDocumento"] = "Documento é obrigatório."
	case !utils.IsValidDocumento(tipo, p.NumeroDocumento):
		fields["numeroDocumento"] = fmt.Sprintf("%s inválido.", tipo)
	}
	if p.NomeRazaoSocial == "" {
		fields["nomeRazaoSocial"] = "Razão social é obrigatória."
	}
	if p.Email != "" {
		if err := utils.ValidateEmail(p.Email); err != nil {
			fields["email"] = "E-mail inválido."
		}
	}
	if p.Telefone != "" {
		digits := strings.TrimPrefix(p.Telefone, "55")
		if len(digits) < 10 || len(digits) > 11 {
			fields["telefone"] = "Telefone deve ter DDD e 8 ou 9 dígitos."
		}
	}
	if p.DataAbertura != "" {
		if _, err := time.Parse("2006-01-02", p.DataAbertura); err != nil {
			fields["dataAbertura"] = "Data de abertura deve estar no formato AAAA-MM-DD."
		}
	}
	if p.Estado != "" && len(p.Estado) != 2 {
		fields["estado"] = "UF deve ter 2 letras."
	}

	if len(fields) > 0 {
		return appErrors.NewValidationError("Dados da empresa inválidos.", fields)
	}
	return nil
}

func (s *empresaServiceImpl) List(ctx context.Context, session *auth.SessionData) ([]models.Empresa, error) {
	if err := s.permManager.CheckPermission(session, auth.PermEmpresaView); err != nil {
		return nil, err
	}
	return s.repo.List(ctx)
}

func (s *empresaServiceImpl) Get(ctx context.Context, id int64, session *auth.SessionData) (*models.Empresa, error) {
	if err := s.permManager.CheckPermission(session, auth.PermEmpresaView); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *empresaServiceImpl) SearchByCNPJ(ctx context.Context, cnpj string, session *auth.SessionData) (*models.Empresa, error) {
	if err := s.permManager.CheckPermission(session, auth.PermEmpresaView); err != nil {
		return nil, err
	}
	if !utils.IsValidCNPJ(cnpj) {
		return nil, appErrors.NewValidationError("CNPJ inválido.", map[string]string{"cnpj": "CNPJ inválido."})
	}
	return s.repo.SearchByCNPJ(ctx, cnpj)
}

func (s *empresaServiceImpl) Exists(ctx context.Context, tipo types.TipoPessoa, numeroDocumento string) (bool, error) {
	return s.repo.Exists(ctx, tipo, numeroDocumento)
}

func (s *empresaServiceImpl) Create(ctx context.Context, payload models.EmpresaPayload, session *auth.SessionData) (*models.Empresa, error) {
	if err := s.permManager.CheckPermission(session, auth.PermEmpresaCreate); err != nil {
		return nil, err
	}
	if err := ValidateEmpresaPayload(&payload); err != nil {
		appLogger.Warnf("Dados de criação de empresa inválidos: %v", err)
		return nil, err
	}

	created, err := s.repo.Create(ctx, payload)
	if err != nil {
		return nil, err
	}

	s.audit(models.AuditLogEntry{
		Action:      "EMPRESA_CREATE",
		Description: fmt.Sprintf("Empresa '%s' (%s) cadastrada.", created.NomeRazaoSocial, created.DocumentoFormatado()),
		Severity:    "INFO",
		Metadata:    models.JSONMetadata{"empresa_id": created.ID, "tipo_pessoa": created.TipoPessoa},
	}, session)
	return created, nil
}

func (s *empresaServiceImpl) Update(ctx context.Context, id int64, payload models.EmpresaPayload, session *auth.SessionData) (*models.Empresa, error) {
	if err := s.permManager.CheckPermission(session, auth.PermEmpresaUpdate); err != nil {
		return nil, err
	}
	if err := ValidateEmpresaPayload(&payload); err != nil {
		appLogger.Warnf("Dados de atualização da empresa %d inválidos: %v", id, err)
		return nil, err
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	changesDocumento := !strings.EqualFold(current.TipoPessoa, payload.TipoPessoa) ||
		current.NumeroDocumento != payload.NumeroDocumento
	if changesDocumento && !s.CanEditDocumento(current, session) {
		return nil, fmt.Errorf("%w: tipo de pessoa e documento da empresa %d não podem ser alterados", appErrors.ErrPermissionDenied, id)
	}

	updated, err := s.repo.Update(ctx, id, payload)
	if err != nil {
		return nil, err
	}

	meta := models.JSONMetadata{"empresa_id": id}
	if changesDocumento {
		meta["documento_anterior"] = current.NumeroDocumento
	}
	s.audit(models.AuditLogEntry{
		Action:      "EMPRESA_UPDATE",
		Description: fmt.Sprintf("Empresa '%s' (%s) atualizada.", updated.NomeRazaoSocial, updated.DocumentoFormatado()),
		Severity:    "INFO",
		Metadata:    meta,
	}, session)
	return updated, nil
}

func (s *empresaServiceImpl) Delete(ctx context.Context, id int64, session *auth.SessionData) error {
	if err := s.permManager.CheckPermission(session, auth.PermEmpresaDelete); err != nil {
		return err
	}

	label := fmt.Sprintf("ID %d", id)
	if existing, err := s.repo.GetByID(ctx, id); err == nil {
		label = fmt.Sprintf("'%s' (%s)", existing.NomeRazaoSocial, existing.DocumentoFormatado())
	} else if !errors.Is(err, appErrors.ErrNotFound) {
		appLogger.Warnf("Erro ao buscar empresa %d para log antes da exclusão (prosseguindo): %v", id, err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.audit(models.AuditLogEntry{
		Action:      "EMPRESA_DELETE",
		Description: fmt.Sprintf("Empresa %s excluída.", label),
		Severity:    "WARNING",
		Metadata:    models.JSONMetadata{"empresa_id": id},
	}, session)
	return nil
}

func (s *empresaServiceImpl) CanEditDocumento(e *models.Empresa, session *auth.SessionData) bool {
	if e != nil && e.Bloqueada {
		return false
	}
	ok, err := s.permManager.HasPermission(session, auth.PermEmpresaEditDocumento)
	return err == nil && ok
}

// exportHeaders são as colunas exportadas, na ordem.
var exportHeaders = []string{
	"ID", "TIPO", "DOCUMENTO", "RAZAO_SOCIAL", "NOME_FANTASIA", "SITUACAO",
	"CIDADE", "UF", "TELEFONE", "EMAIL", "BLOQUEADA",
}

func empresaRow(e models.Empresa) []string {
	bloqueada := "NÃO"
	if e.Bloqueada {
		bloqueada = "SIM"
	}
	return []string{
		fmt.Sprintf("%d", e.ID), e.Tipo().String(), e.DocumentoFormatado(), e.NomeRazaoSocial, e.NomeFantasia,
		e.Situacao, e.Cidade, e.Estado, utils.MaskTelefone(e.Telefone), e.Email, bloqueada,
	}
}

func (s *empresaServiceImpl) Export(ctx context.Context, format ExportFormat, outputPath string, session *auth.SessionData) (string, error) {
	if err := s.permManager.CheckPermission(session, auth.PermExportData); err != nil {
		return "", err
	}
	empresas, err := s.repo.List(ctx)
	if err != nil {
		return "", err
	}

	data := make([][]string, 0, len(empresas)+1)
	data = append(data, exportHeaders)
	for _, e := range empresas {
		data = append(data, empresaRow(e))
	}
	input, err := utils.NewSliceDataInput(data, "Empresas")
	if err != nil {
		return "", err
	}

	if outputPath == "" {
		outputPath = "empresas_" + time.Now().Format("20060102_150405")
	}
	opts := &utils.ExportOptions{CreateBackup: true}

	var path string
	switch format {
	case ExportCSV:
		path, err = utils.ExportToCSV(input, outputPath, s.cfg.ExportDir, opts)
	case ExportXLSX:
		path, err = utils.ExportToXLSX([]utils.DataInput{input}, outputPath, s.cfg.ExportDir, opts)
	default:
		return "", fmt.Errorf("%w: formato de exportação desconhecido '%s'", appErrors.ErrInvalidInput, format)
	}
	if err != nil {
		return "", err
	}

	s.audit(models.AuditLogEntry{
		Action:      "EMPRESA_EXPORT",
		Description: fmt.Sprintf("%d empresas exportadas para %s.", len(empresas), path),
		Severity:    "INFO",
		Metadata:    models.JSONMetadata{"formato": string(format), "linhas": len(empresas)},
	}, session)
	return path, nil
}

func (s *empresaServiceImpl) audit(entry models.AuditLogEntry, session *auth.SessionData) {
	if err := s.auditLogService.LogAction(entry, session); err != nil {
		appLogger.Warnf("Falha ao registrar log de auditoria (%s): %v", entry.Action, err)
	}
}
