package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// JSONMetadata guarda dados extras de uma entrada de auditoria como JSON.
// Implementa sql.Scanner e driver.Valuer.
type JSONMetadata map[string]interface{}

// Value converte para a string JSON gravada no banco.
func (jm JSONMetadata) Value() (driver.Value, error) {
	if jm == nil {
		return nil, nil
	}
	b, err := json.Marshal(jm)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan lê o JSON vindo do banco. Os drivers devolvem []byte ou string.
func (jm *JSONMetadata) Scan(value interface{}) error {
	if value == nil {
		*jm = nil
		return nil
	}
	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return errors.New("tipo de valor inválido para JSONMetadata scan, esperado []byte ou string")
	}
	if len(b) == 0 {
		*jm = make(JSONMetadata)
		return nil
	}
	return json.Unmarshal(b, jm)
}

// AuditLogEntry é uma ação registrada localmente pelo console.
type AuditLogEntry struct {
	ID          uint64       `gorm:"primaryKey;autoIncrement"`
	Timestamp   time.Time    `gorm:"not null;index"`
	Action      string       `gorm:"type:varchar(100);not null;index"`
	Description string       `gorm:"type:text;not null"`
	Severity    string       `gorm:"type:varchar(10);not null;index"`  // DEBUG, INFO, WARNING, ERROR, CRITICAL
	Username    string       `gorm:"type:varchar(254);not null;index"` // e-mail da sessão, ou "system"
	SessionID   *string      `gorm:"type:varchar(64)"`
	Roles       *string      `gorm:"type:varchar(255)"` // CSV
	Metadata    JSONMetadata `gorm:"type:text"`
}

func (AuditLogEntry) TableName() string {
	return "audit_logs"
}

// ValidSeverities define os níveis de severidade aceitos.
var ValidSeverities = map[string]bool{
	"DEBUG":    true,
	"INFO":     true,
	"WARNING":  true,
	"ERROR":    true,
	"CRITICAL": true,
}
