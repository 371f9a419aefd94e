package models

import "time"

// Chaves fixas do estado local do cliente.
const (
	StateKeyAuthToken = "auth_token"
	StateKeyAuthRoles = "auth_roles"
	StateKeyAuthEmail = "auth_email"
)

// DBStateEntry guarda um par chave/valor do estado local (sessão persistida).
type DBStateEntry struct {
	Key       string    `gorm:"primaryKey;column:state_key;type:varchar(64)"`
	Value     string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (DBStateEntry) TableName() string {
	return "client_state"
}
