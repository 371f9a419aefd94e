package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	appErrors "github.com/ceidigital/cei_console_go/internal/core/errors"
	appLogger "github.com/ceidigital/cei_console_go/internal/core/logger"
	"github.com/ceidigital/cei_console_go/internal/core/types"
	"github.com/ceidigital/cei_console_go/internal/data/models"
	"github.com/ceidigital/cei_console_go/internal/repositories"
)

// SessionData é a sessão do usuário logado no console.
type SessionData struct {
	ID        string    `json:"id"` // gerado localmente a cada login/restauração
	Email     string    `json:"email"`
	Roles     []string  `json:"roles"`
	Token     string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *SessionData) GetID() string      { return s.ID }
func (s *SessionData) GetEmail() string   { return s.Email }
func (s *SessionData) GetRoles() []string { return s.Roles }

// IsMaster informa se a sessão tem acesso total.
func (s *SessionData) IsMaster() bool { return IsMaster(s.Roles) }

var _ types.LoggableSession = (*SessionData)(nil)

// NoSession trata nil e *SessionData nulo como ausência de sessão.
func NoSession(s types.LoggableSession) bool {
	if s == nil {
		return true
	}
	sd, ok := s.(*SessionData)
	return ok && sd == nil
}

// SessionManager mantém a sessão atual e a persiste no estado local:
// auth_token (cifrado), auth_roles (lista JSON) e auth_email.
type SessionManager struct {
	repo repositories.StateRepository
	enc  *Encryptor

	lock    sync.RWMutex
	current *SessionData
}

// NewSessionManager cria o gerenciador e restaura a sessão persistida, se houver.
func NewSessionManager(repo repositories.StateRepository, enc *Encryptor) *SessionManager {
	if repo == nil || enc == nil {
		appLogger.Fatalf("StateRepository e Encryptor são obrigatórios para NewSessionManager")
	}
	sm := &SessionManager{repo: repo, enc: enc}
	sm.restore()
	return sm
}

// restore lê o estado local. Token ilegível (outra SECRET_KEY ou dado
// adulterado) descarta todo o estado de autenticação.
func (sm *SessionManager) restore() {
	encrypted, err := sm.repo.Get(models.StateKeyAuthToken)
	if err != nil {
		if !errors.Is(err, appErrors.ErrNotFound) {
			appLogger.Warnf("Não foi possível ler a sessão persistida: %v", err)
		}
		return
	}
	token, err := sm.enc.Decrypt(encrypted)
	if err != nil || token == "" {
		appLogger.Warnf("Token persistido ilegível, descartando sessão local: %v", err)
		if clearErr := sm.repo.Delete(models.StateKeyAuthToken, models.StateKeyAuthRoles, models.StateKeyAuthEmail); clearErr != nil {
			appLogger.Errorf("Falha ao limpar sessão local: %v", clearErr)
		}
		return
	}

	email, _ := sm.repo.Get(models.StateKeyAuthEmail)
	var roles []string
	if rawRoles, err := sm.repo.Get(models.StateKeyAuthRoles); err == nil && rawRoles != "" {
		if err := json.Unmarshal([]byte(rawRoles), &roles); err != nil {
			appLogger.Warnf("Roles persistidas inválidas (%v); sessão restaurada sem roles.", err)
			roles = nil
		}
	}

	sm.lock.Lock()
	sm.current = &SessionData{
		ID:        uuid.NewString(),
		Email:     email,
		Roles:     roles,
		Token:     token,
		CreatedAt: time.Now().UTC(),
	}
	sm.lock.Unlock()
	appLogger.Infof("Sessão restaurada para '%s' (roles %v).", email, roles)
}

// Save grava uma nova sessão após login bem-sucedido.
func (sm *SessionManager) Save(token, email string, roles []string) (*SessionData, error) {
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("%w: token vazio", appErrors.ErrInvalidInput)
	}
	encrypted, err := sm.enc.Encrypt(token)
	if err != nil {
		return nil, appErrors.WrapErrorf(appErrors.ErrInternal, "falha ao cifrar token: %v", err)
	}
	if roles == nil {
		roles = []string{}
	}
	rolesJSON, err := json.Marshal(roles)
	if err != nil {
		return nil, appErrors.WrapErrorf(appErrors.ErrInternal, "falha ao serializar roles: %v", err)
	}
	if err := sm.repo.SetMany(map[string]string{
		models.StateKeyAuthToken: encrypted,
		models.StateKeyAuthRoles: string(rolesJSON),
		models.StateKeyAuthEmail: email,
	}); err != nil {
		return nil, appErrors.WrapErrorf(err, "falha ao persistir sessão")
	}

	session := &SessionData{
		ID:        uuid.NewString(),
		Email:     email,
		Roles:     append([]string(nil), roles...),
		Token:     token,
		CreatedAt: time.Now().UTC(),
	}
	sm.lock.Lock()
	sm.current = session
	sm.lock.Unlock()
	appLogger.Infof("Sessão criada: ID=%s..., Email=%s, Roles=%v", session.ID[:8], email, roles)
	return session, nil
}

// Current devolve uma cópia da sessão atual, ou nil.
func (sm *SessionManager) Current() *SessionData {
	sm.lock.RLock()
	defer sm.lock.RUnlock()
	if sm.current == nil {
		return nil
	}
	cp := *sm.current
	cp.Roles = append([]string(nil), sm.current.Roles...)
	return &cp
}

// Session devolve a sessão atual como LoggableSession; nil (interface) sem sessão.
func (sm *SessionManager) Session() types.LoggableSession {
	if s := sm.Current(); s != nil {
		return s
	}
	return nil
}

// Token implementa api.TokenSource.
func (sm *SessionManager) Token() string {
	sm.lock.RLock()
	defer sm.lock.RUnlock()
	if sm.current == nil {
		return ""
	}
	return sm.current.Token
}

func (sm *SessionManager) IsAuthenticated() bool {
	return sm.Token() != ""
}

// LastEmail devolve o e-mail da última sessão, mesmo após logout, para pré-preencher o login.
func (sm *SessionManager) LastEmail() string {
	if s := sm.Current(); s != nil {
		return s.Email
	}
	email, err := sm.repo.Get(models.StateKeyAuthEmail)
	if err != nil {
		return ""
	}
	return email
}

// Clear encerra a sessão: remove token e roles, mantendo o e-mail.
func (sm *SessionManager) Clear() error {
	sm.lock.Lock()
	sm.current = nil
	sm.lock.Unlock()
	if err := sm.repo.Delete(models.StateKeyAuthToken, models.StateKeyAuthRoles); err != nil {
		return appErrors.WrapErrorf(err, "falha ao remover sessão persistida")
	}
	appLogger.Info("Sessão local encerrada.")
	return nil
}
