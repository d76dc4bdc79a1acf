package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// JSONMetadata é um tipo customizado para lidar com o campo metadata que é um JSON no banco.
// Ele implementa as interfaces sql.Scanner e driver.Valuer.
type JSONMetadata map[string]interface{}

// Value implementa a interface driver.Valuer.
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

// Scan implementa a interface sql.Scanner.
func (jm *JSONMetadata) Scan(value interface{}) error {
	if value == nil {
		*jm = nil
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		s, okStr := value.(string)
		if !okStr {
			return errors.New("tipo de valor inválido para JSONMetadata scan, esperado []byte ou string")
		}
		b = []byte(s)
	}
	if len(b) == 0 {
		*jm = make(JSONMetadata)
		return nil
	}
	return json.Unmarshal(b, jm)
}

// Ações registradas no log de auditoria.
const (
	ActionDriverCreate = "DRIVER_CREATE"
	ActionDriverUpdate = "DRIVER_UPDATE"
	ActionDriverExport = "DRIVER_EXPORT"
)

// AuditLogEntry representa uma tentativa de cadastro, edição ou exportação de motoristas.
// Não há usuários autenticados: a origem é identificada pela sessão do visitante.
type AuditLogEntry struct {
	ID          uint64       `gorm:"primaryKey;autoIncrement" json:"id"`
	Timestamp   time.Time    `gorm:"not null;index" json:"timestamp"`
	Action      string       `gorm:"type:varchar(100);not null;index" json:"action"`
	Description string       `gorm:"type:text;not null" json:"description"`
	Severity    string       `gorm:"type:varchar(10);not null;index" json:"severity"`
	// DriverCPF é gravado mascarado (***.***.***-01).
	DriverCPF   *string      `gorm:"type:varchar(14);index" json:"driver_cpf,omitempty"`
	SessionID   *string      `gorm:"type:varchar(36);index" json:"session_id,omitempty"`
	IPAddress   *string      `gorm:"type:varchar(45)" json:"ip_address,omitempty"`
	UserAgent   *string      `gorm:"type:varchar(255)" json:"user_agent,omitempty"`
	Success     bool         `gorm:"not null;default:false" json:"success"`
	Metadata    JSONMetadata `gorm:"type:text" json:"metadata,omitempty"`
}

// TableName especifica o nome da tabela para GORM.
func (AuditLogEntry) TableName() string {
	return "audit_logs"
}

// ValidSeverities define os níveis de severidade válidos.
var ValidSeverities = map[string]bool{
	"DEBUG":    true,
	"INFO":     true,
	"WARNING":  true,
	"ERROR":    true,
	"CRITICAL": true,
}
