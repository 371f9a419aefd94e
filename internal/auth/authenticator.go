package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	appErrors "github.com/ceidigital/cei_console_go/internal/core/errors"
	appLogger "github.com/ceidigital/cei_console_go/internal/core/logger"
	"github.com/ceidigital/cei_console_go/internal/core/types"
	"github.com/ceidigital/cei_console_go/internal/data/models"
	"github.com/ceidigital/cei_console_go/internal/repositories"
)

// AuditLogger é o que o pacote auth precisa do serviço de auditoria.
type AuditLogger interface {
	LogAction(entry models.AuditLogEntry, session types.LoggableSession) error
}

// AuthenticatorInterface cobre login e logout no console.
type AuthenticatorInterface interface {
	Login(ctx context.Context, email, senha string) (*SessionData, error)
	Logout() error
}

type authenticatorImpl struct {
	authRepo       repositories.AuthRepository
	sessionManager *SessionManager
	audit          AuditLogger
}

// NewAuthenticator cria o autenticador. audit pode ser nil.
func NewAuthenticator(authRepo repositories.AuthRepository, sm *SessionManager, audit AuditLogger) AuthenticatorInterface {
	if authRepo == nil || sm == nil {
		appLogger.Fatalf("AuthRepository e SessionManager são obrigatórios para NewAuthenticator")
	}
	return &authenticatorImpl{authRepo: authRepo, sessionManager: sm, audit: audit}
}

// Login valida os campos, chama a API e persiste a sessão. Os erros da API
// chegam intactos (*appErrors.APIError) para a página escolher a mensagem.
func (a *authenticatorImpl) Login(ctx context.Context, email, senha string) (*SessionData, error) {
	email = strings.TrimSpace(email)
	logCtx := appLogger.WithFields(logrus.Fields{"email": email})

	fields := map[string]string{}
	if email == "" {
		fields["email"] = "obrigatório"
	}
	if senha == "" {
		fields["senha"] = "obrigatório"
	}
	if len(fields) > 0 {
		return nil, appErrors.NewValidationError("E-mail e senha são obrigatórios.", fields)
	}

	logCtx.Info("Iniciando autenticação")
	resp, err := a.authRepo.Login(ctx, models.LoginRequest{Email: email, Senha: senha})
	if err != nil {
		severity := "WARNING"
		if errors.Is(err, appErrors.ErrNetwork) {
			severity = "ERROR"
		}
		logCtx.WithError(err).Warn("Falha na autenticação")
		a.log(models.AuditLogEntry{
			Action:      "LOGIN_FAILED",
			Description: fmt.Sprintf("Falha de login para '%s': %v", email, err),
			Severity:    severity,
			Username:    email,
		}, nil)
		return nil, err
	}

	session, err := a.sessionManager.Save(resp.AccessToken, email, resp.Roles)
	if err != nil {
		logCtx.WithError(err).Error("Login aceito pela API, mas a sessão não pôde ser gravada")
		return nil, err
	}
	logCtx.WithField("roles", resp.Roles).Info("Login bem-sucedido")
	a.log(models.AuditLogEntry{
		Action:      "LOGIN_SUCCESS",
		Description: fmt.Sprintf("Usuário '%s' entrou no console.", email),
		Severity:    "INFO",
	}, session)
	return session, nil
}

// Logout encerra a sessão local. Sem sessão, não faz nada.
func (a *authenticatorImpl) Logout() error {
	session := a.sessionManager.Current()
	if session == nil {
		return nil
	}
	if err := a.sessionManager.Clear(); err != nil {
		return err
	}
	a.log(models.AuditLogEntry{
		Action:      "LOGOUT",
		Description: fmt.Sprintf("Usuário '%s' saiu do console.", session.Email),
		Severity:    "INFO",
	}, session)
	return nil
}

func (a *authenticatorImpl) log(entry models.AuditLogEntry, session *SessionData) {
	if a.audit == nil {
		return
	}
	var s types.LoggableSession
	if session != nil {
		s = session
	}
	if err := a.audit.LogAction(entry, s); err != nil {
		appLogger.Warnf("Falha ao registrar auditoria (%s): %v", entry.Action, err)
	}
}
