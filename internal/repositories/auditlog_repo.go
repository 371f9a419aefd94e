package repositories

import (
	"strings"
	"time"

	"gorm.io/gorm"

	appErrors "github.com/ceidigital/cei_console_go/internal/core/errors"
	appLogger "github.com/ceidigital/cei_console_go/internal/core/logger"
	"github.com/ceidigital/cei_console_go/internal/data/models"
)

const (
	defaultAuditLimit = 100
	maxAuditLimit     = 1000
)

// AuditLogFilter restringe a consulta de auditoria. Campos vazios não filtram.
type AuditLogFilter struct {
	Since    *time.Time
	Until    *time.Time
	Severity string
	Username string
	Action   string
	Limit    int
	Offset   int
}

// AuditLogRepository grava e consulta o log de auditoria local.
type AuditLogRepository interface {
	Create(entry models.AuditLogEntry) (*models.AuditLogEntry, error)
	// List devolve as entradas mais recentes primeiro e o total sem paginação.
	List(filter AuditLogFilter) ([]models.AuditLogEntry, int64, error)
}

type gormAuditLogRepository struct {
	db *gorm.DB
}

func NewGormAuditLogRepository(db *gorm.DB) AuditLogRepository {
	if db == nil {
		appLogger.Fatalf("gorm.DB não pode ser nil para NewGormAuditLogRepository")
	}
	return &gormAuditLogRepository{db: db}
}

func (r *gormAuditLogRepository) Create(entry models.AuditLogEntry) (*models.AuditLogEntry, error) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	entry.Severity = strings.ToUpper(entry.Severity)

	if err := r.db.Create(&entry).Error; err != nil {
		// Metadata pode conter dados sensíveis; não vai para o log.
		appLogger.Errorf("Erro ao criar entrada de log de auditoria (Ação: %s, Usuário: %s, Severidade: %s): %v",
			entry.Action, entry.Username, entry.Severity, err)
		return nil, appErrors.NewDatabaseErrorDetail("criando entrada de auditoria", err)
	}
	return &entry, nil
}

func (r *gormAuditLogRepository) List(filter AuditLogFilter) ([]models.AuditLogEntry, int64, error) {
	query := r.db.Model(&models.AuditLogEntry{})

	if filter.Since != nil {
		query = query.Where("timestamp >= ?", filter.Since.UTC())
	}
	if filter.Until != nil {
		query = query.Where("timestamp <= ?", filter.Until.UTC())
	}
	if filter.Severity != "" {
		query = query.Where("severity = ?", strings.ToUpper(filter.Severity))
	}
	if filter.Username != "" {
		query = query.Where("LOWER(username) = ?", strings.ToLower(filter.Username))
	}
	if filter.Action != "" {
		query = query.Where("LOWER(action) = ?", strings.ToLower(filter.Action))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		appLogger.Errorf("Erro ao contar logs de auditoria filtrados: %v", err)
		return nil, 0, appErrors.NewDatabaseErrorDetail("contando auditoria", err)
	}
	if total == 0 {
		return []models.AuditLogEntry{}, 0, nil
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultAuditLimit
	} else if limit > maxAuditLimit {
		limit = maxAuditLimit
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	var entries []models.AuditLogEntry
	if err := query.Order("timestamp DESC").Order("id DESC").Limit(limit).Offset(offset).Find(&entries).Error; err != nil {
		appLogger.Errorf("Erro ao buscar logs de auditoria filtrados: %v", err)
		return nil, 0, appErrors.NewDatabaseErrorDetail("buscando auditoria", err)
	}
	return entries, total, nil
}
