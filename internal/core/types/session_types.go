package types

// LoggableSession representa o que o AuditLogService precisa de uma sessão.
type LoggableSession interface {
	GetID() string
	GetEmail() string
	GetRoles() []string
}
