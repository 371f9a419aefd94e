package auth

import (
	"fmt"
	"sort"
	"strings"

	appErrors "github.com/ceidigital/cei_console_go/internal/core/errors"
	appLogger "github.com/ceidigital/cei_console_go/internal/core/logger"
	"github.com/ceidigital/cei_console_go/internal/core/types"
	"github.com/ceidigital/cei_console_go/internal/data/models"
)

// Permission é uma ação do console sujeita a controle por role.
type Permission string

const (
	PermEmpresaView          Permission = "empresa:view"
	PermEmpresaCreate        Permission = "empresa:create"
	PermEmpresaUpdate        Permission = "empresa:update"
	PermEmpresaDelete        Permission = "empresa:delete"
	PermEmpresaEditDocumento Permission = "empresa:edit_documento"

	PermExportData    Permission = "export:data"
	PermImportExecute Permission = "import:execute"
	PermLogView       Permission = "log:view"
)

var allDefinedPermissions = map[Permission]string{
	PermEmpresaView:          "Visualizar empresas cadastradas",
	PermEmpresaCreate:        "Cadastrar novas empresas",
	PermEmpresaUpdate:        "Atualizar dados de empresas",
	PermEmpresaDelete:        "Excluir empresas",
	PermEmpresaEditDocumento: "Alterar tipo de pessoa e documento de empresas",
	PermExportData:           "Exportar dados da aplicação",
	PermImportExecute:        "Importar empresas de arquivos CSV",
	PermLogView:              "Visualizar logs de auditoria do console",
}

// rolePermissions associa as roles devolvidas pela API às permissões locais.
// MASTER e ADMIN_MAIN recebem todas.
var rolePermissions = map[string][]Permission{
	models.RoleAdmin: {
		PermEmpresaView, PermEmpresaCreate, PermEmpresaUpdate,
		PermExportData, PermImportExecute, PermLogView,
	},
	models.RoleUser: {
		PermEmpresaView, PermEmpresaCreate, PermEmpresaUpdate, PermExportData,
	},
}

// IsMasterRole informa se a role dá acesso total (MASTER ou ADMIN_MAIN).
func IsMasterRole(role string) bool {
	r := strings.ToUpper(strings.TrimSpace(role))
	return r == models.RoleMaster || r == models.RoleAdminMain
}

// IsMaster informa se alguma das roles é de acesso total.
func IsMaster(roles []string) bool {
	for _, r := range roles {
		if IsMasterRole(r) {
			return true
		}
	}
	return false
}

// PermissionManager decide o que a sessão atual pode fazer.
type PermissionManager struct{}

func NewPermissionManager() *PermissionManager {
	return &PermissionManager{}
}

func (pm *PermissionManager) GetAllDefinedPermissions() map[Permission]string {
	out := make(map[Permission]string, len(allDefinedPermissions))
	for k, v := range allDefinedPermissions {
		out[k] = v
	}
	return out
}

func (pm *PermissionManager) IsPermissionDefined(perm Permission) bool {
	_, ok := allDefinedPermissions[perm]
	return ok
}

// PermissionsFor devolve, ordenadas, as permissões concedidas às roles.
func (pm *PermissionManager) PermissionsFor(roles []string) []Permission {
	set := make(map[Permission]bool)
	if IsMaster(roles) {
		for p := range allDefinedPermissions {
			set[p] = true
		}
	} else {
		for _, r := range roles {
			for _, p := range rolePermissions[strings.ToUpper(strings.TrimSpace(r))] {
				set[p] = true
			}
		}
	}
	out := make([]Permission, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// HasPermission devolve ErrUnauthorized sem sessão e ErrPermissionConfig para
// permissões desconhecidas.
func (pm *PermissionManager) HasPermission(session types.LoggableSession, perm Permission) (bool, error) {
	if NoSession(session) {
		appLogger.Warn("Verificação de permissão falhou: sessão de usuário ausente.")
		return false, fmt.Errorf("%w: usuário não autenticado", appErrors.ErrUnauthorized)
	}
	if !pm.IsPermissionDefined(perm) {
		appLogger.Errorf("Permissão desconhecida '%s' solicitada por '%s'.", perm, session.GetEmail())
		return false, fmt.Errorf("%w: permissão '%s' não definida", appErrors.ErrPermissionConfig, perm)
	}
	for _, p := range pm.PermissionsFor(session.GetRoles()) {
		if p == perm {
			return true, nil
		}
	}
	appLogger.Debugf("Permissão '%s' NEGADA para '%s' (roles %v).", perm, session.GetEmail(), session.GetRoles())
	return false, nil
}

// CheckPermission converte a negativa em ErrPermissionDenied.
func (pm *PermissionManager) CheckPermission(session types.LoggableSession, perm Permission) error {
	ok, err := pm.HasPermission(session, perm)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: permissão '%s' necessária", appErrors.ErrPermissionDenied, perm)
	}
	return nil
}
