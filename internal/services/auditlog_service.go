package services

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ceidigital/cei_console_go/internal/auth"
	appErrors "github.com/ceidigital/cei_console_go/internal/core/errors"
	appLogger "github.com/ceidigital/cei_console_go/internal/core/logger"
	"github.com/ceidigital/cei_console_go/internal/core/types"
	"github.com/ceidigital/cei_console_go/internal/data/models"
	"github.com/ceidigital/cei_console_go/internal/repositories"
)

const maxAuditDescription = 4000

// SessionProvider expõe a sessão atual; *auth.SessionManager o implementa.
type SessionProvider interface {
	Session() types.LoggableSession
}

// AuditLogService registra e consulta ações do console.
type AuditLogService interface {
	// LogAction registra uma ação. Sem session, usa a sessão atual do
	// SessionProvider; sem nenhuma, o usuário fica "system".
	LogAction(entry models.AuditLogEntry, session types.LoggableSession) error
	// GetAuditLogs exige a permissão log:view.
	GetAuditLogs(filter repositories.AuditLogFilter) ([]models.AuditLogEntry, int64, error)
	// Recent devolve as últimas limit entradas, mais novas primeiro.
	Recent(limit int) ([]models.AuditLogEntry, error)
}

type auditLogServiceImpl struct {
	repo        repositories.AuditLogRepository
	sessions    SessionProvider
	permManager *auth.PermissionManager
}

// NewAuditLogService cria o serviço. sessions pode ser nil.
func NewAuditLogService(repo repositories.AuditLogRepository, sessions SessionProvider, pm *auth.PermissionManager) AuditLogService {
	if repo == nil || pm == nil {
		appLogger.Fatalf("AuditLogRepository e PermissionManager são obrigatórios para NewAuditLogService")
	}
	if sessions == nil {
		appLogger.Warn("SessionProvider é nil para NewAuditLogService; entradas sem sessão explícita serão de 'system'.")
	}
	return &auditLogServiceImpl{repo: repo, sessions: sessions, permManager: pm}
}

func (s *auditLogServiceImpl) LogAction(entry models.AuditLogEntry, session types.LoggableSession) error {
	if strings.TrimSpace(entry.Action) == "" {
		return appErrors.WrapErrorf(appErrors.ErrInvalidInput, "ação do log de auditoria não pode ser vazia")
	}
	if strings.TrimSpace(entry.Description) == "" {
		return appErrors.WrapErrorf(appErrors.ErrInvalidInput, "descrição do log de auditoria não pode ser vazia")
	}

	severity := strings.ToUpper(strings.TrimSpace(entry.Severity))
	if !models.ValidSeverities[severity] {
		appLogger.Warnf("Nível de severidade inválido '%s' fornecido para log. Usando 'INFO'. Ação: %s", entry.Severity, entry.Action)
		severity = "INFO"
	}
	entry.Severity = severity

	if auth.NoSession(session) && s.sessions != nil {
		session = s.sessions.Session()
	}
	if !auth.NoSession(session) {
		if entry.Username == "" {
			entry.Username = session.GetEmail()
		}
		if entry.SessionID == nil && session.GetID() != "" {
			id := session.GetID()
			entry.SessionID = &id
		}
		if entry.Roles == nil && len(session.GetRoles()) > 0 {
			roles := strings.Join(session.GetRoles(), ",")
			entry.Roles = &roles
		}
	}
	if entry.Username == "" {
		entry.Username = "system"
	}

	if utf8.RuneCountInString(entry.Description) > maxAuditDescription {
		runes := []rune(entry.Description)
		entry.Description = string(runes[:maxAuditDescription-3]) + "..."
		appLogger.Warnf("Descrição do log de auditoria truncada para %d caracteres. Ação: %s", maxAuditDescription, entry.Action)
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	if _, err := s.repo.Create(entry); err != nil {
		return appErrors.WrapErrorf(err, "falha ao persistir log de auditoria (Ação: %s)", entry.Action)
	}
	return nil
}

func (s *auditLogServiceImpl) GetAuditLogs(filter repositories.AuditLogFilter) ([]models.AuditLogEntry, int64, error) {
	var session types.LoggableSession
	if s.sessions != nil {
		session = s.sessions.Session()
	}
	if err := s.permManager.CheckPermission(session, auth.PermLogView); err != nil {
		return nil, 0, err
	}
	logs, total, err := s.repo.List(filter)
	if err != nil {
		return nil, 0, appErrors.WrapErrorf(err, "falha ao buscar logs de auditoria do repositório")
	}
	return logs, total, nil
}

func (s *auditLogServiceImpl) Recent(limit int) ([]models.AuditLogEntry, error) {
	logs, _, err := s.GetAuditLogs(repositories.AuditLogFilter{Limit: limit})
	return logs, err
}
