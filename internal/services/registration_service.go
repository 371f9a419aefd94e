package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	appErrors "github.com/ceidigital/cei_console_go/internal/core/errors"
	appLogger "github.com/ceidigital/cei_console_go/internal/core/logger"
	"github.com/ceidigital/cei_console_go/internal/core/types"
	"github.com/ceidigital/cei_console_go/internal/data/models"
	"github.com/ceidigital/cei_console_go/internal/repositories"
	"github.com/ceidigital/cei_console_go/internal/utils"
)

const (
	minNomeLength  = 3
	minSenhaLength = 6
)

// RegistrationService conduz o cadastro em duas etapas: pedido do código
// (enviado por e-mail e SMS) e confirmação com nome, senha e código.
// Nenhuma operação exige sessão.
type RegistrationService interface {
	// DocumentExists consulta se o documento já pertence a uma empresa.
	// Documentos incompletos ou inválidos devolvem false sem chamar a API.
	DocumentExists(ctx context.Context, tipo types.TipoPessoa, numeroDocumento string) (bool, error)
	RequestToken(ctx context.Context, req models.RegisterTokenRequest) error
	Confirm(ctx context.Context, req models.RegisterConfirmRequest) error
}

type registrationServiceImpl struct {
	authRepo        repositories.AuthRepository
	empresaRepo     repositories.EmpresaRepository
	auditLogService AuditLogService
}

func NewRegistrationService(
	authRepo repositories.AuthRepository,
	empresaRepo repositories.EmpresaRepository,
	auditLogService AuditLogService,
) RegistrationService {
	if authRepo == nil || empresaRepo == nil || auditLogService == nil {
		appLogger.Fatalf("Dependências nulas fornecidas para NewRegistrationService")
	}
	return &registrationServiceImpl{authRepo: authRepo, empresaRepo: empresaRepo, auditLogService: auditLogService}
}

func (s *registrationServiceImpl) DocumentExists(ctx context.Context, tipo types.TipoPessoa, numeroDocumento string) (bool, error) {
	if !utils.IsValidDocumento(tipo, numeroDocumento) {
		return false, nil
	}
	return s.empresaRepo.Exists(ctx, tipo, numeroDocumento)
}

// NormalizeTokenRequest deixa o e-mail em minúsculas e telefone e documento só com dígitos.
func NormalizeTokenRequest(req *models.RegisterTokenRequest) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Telefone = utils.OnlyDigits(req.Telefone)
	req.NumeroDocumento = utils.OnlyDigits(req.NumeroDocumento)
	if req.NumeroDocumento != "" || req.TipoPessoa != "" {
		req.TipoPessoa = types.ParseTipoPessoa(req.TipoPessoa).String()
	}
}

func (s *registrationServiceImpl) RequestToken(ctx context.Context, req models.RegisterTokenRequest) error {
	NormalizeTokenRequest(&req)

	fields := map[string]string{}
	if req.Email == "" {
		fields["email"] = "E-mail é obrigatório."
	} else if err := utils.ValidateEmail(req.Email); err != nil {
		fields["email"] = "E-mail inválido."
	}
	if phone := strings.TrimPrefix(req.Telefone, "55"); phone == "" {
		fields["telefone"] = "Telefone é obrigatório."
	} else if len(phone) < 10 || len(phone) > 11 {
		fields["telefone"] = "Telefone deve ter DDD e 8 ou 9 dígitos."
	}
	if req.NumeroDocumento != "" && !utils.IsValidDocumento(types.ParseTipoPessoa(req.TipoPessoa), req.NumeroDocumento) {
		fields["numeroDocumento"] = fmt.Sprintf("%s inválido.", req.TipoPessoa)
	}
	if len(fields) > 0 {
		return appErrors.NewValidationError("Dados de cadastro inválidos.", fields)
	}

	logCtx := appLogger.WithFields(logrus.Fields{"email": req.Email, "tipo_pessoa": req.TipoPessoa})
	if err := s.authRepo.RequestRegistrationToken(ctx, req); err != nil {
		logCtx.WithError(err).Warn("Pedido de código de cadastro recusado")
		return err
	}
	logCtx.Info("Código de cadastro enviado")
	s.audit(models.AuditLogEntry{
		Action:      "REGISTER_TOKEN_REQUESTED",
		Description: fmt.Sprintf("Código de cadastro enviado para '%s'.", req.Email),
		Severity:    "INFO",
		Username:    req.Email,
	})
	return nil
}

func (s *registrationServiceImpl) Confirm(ctx context.Context, req models.RegisterConfirmRequest) error {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Nome = strings.TrimSpace(req.Nome)
	req.Token = strings.TrimSpace(req.Token)
	req.NumeroDocumento = utils.OnlyDigits(req.NumeroDocumento)
	if req.NumeroDocumento != "" || req.TipoPessoa != "" {
		req.TipoPessoa = types.ParseTipoPessoa(req.TipoPessoa).String()
	}

	fields := map[string]string{}
	if req.Email == "" {
		fields["email"] = "E-mail é obrigatório."
	}
	switch {
	case req.Nome == "":
		fields["nome"] = "Nome é obrigatório."
	case utf8.RuneCountInString(req.Nome) < minNomeLength:
		fields["nome"] = fmt.Sprintf("Nome deve ter ao menos %d caracteres.", minNomeLength)
	}
	switch {
	case req.Senha == "":
		fields["senha"] = "Senha é obrigatória."
	case utf8.RuneCountInString(req.Senha) < minSenhaLength:
		fields["senha"] = fmt.Sprintf("Senha deve ter ao menos %d caracteres.", minSenhaLength)
	}
	if req.Token == "" {
		fields["token"] = "Código é obrigatório."
	}
	if len(fields) > 0 {
		return appErrors.NewValidationError("Dados de confirmação inválidos.", fields)
	}

	logCtx := appLogger.WithFields(logrus.Fields{"email": req.Email})
	if err := s.authRepo.ConfirmRegistration(ctx, req); err != nil {
		logCtx.WithError(err).Warn("Confirmação de cadastro recusada")
		return err
	}
	logCtx.Info("Cadastro confirmado")
	s.audit(models.AuditLogEntry{
		Action:      "REGISTER_CONFIRMED",
		Description: fmt.Sprintf("Cadastro de '%s' confirmado.", req.Email),
		Severity:    "INFO",
		Username:    req.Email,
	})
	return nil
}

func (s *registrationServiceImpl) audit(entry models.AuditLogEntry) {
	if err := s.auditLogService.LogAction(entry, nil); err != nil {
		appLogger.Warnf("Falha ao registrar log de auditoria (%s): %v", entry.Action, err)
	}
}
