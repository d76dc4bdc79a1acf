package repositories

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	appErrors "github.com/Dukorsa/APP_MOTORISTAS_GO/internal/core/errors"
	appLogger "github.com/Dukorsa/APP_MOTORISTAS_GO/internal/core/logger"
	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/data/models"
)

// AuditLogFilter restringe a busca de logs de auditoria. Campos vazios não filtram.
type AuditLogFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	Action    string
	Severity  string
	SessionID string
	Limit     int
	Offset    int
}

// AuditLogRepository define a interface para operações no repositório de logs de auditoria.
type AuditLogRepository interface {
	// Create insere uma nova entrada de log de auditoria.
	Create(ctx context.Context, entry models.AuditLogEntry) (*models.AuditLogEntry, error)

	// GetFiltered busca logs de auditoria com paginação.
	// Retorna as entradas e a contagem total de registros que correspondem ao filtro.
	GetFiltered(ctx context.Context, filter AuditLogFilter) (logs []models.AuditLogEntry, totalCount int64, err error)
}

// gormAuditLogRepository é a implementação GORM de AuditLogRepository.
type gormAuditLogRepository struct {
	db *gorm.DB
}

// NewGormAuditLogRepository cria uma nova instância de gormAuditLogRepository.
func NewGormAuditLogRepository(db *gorm.DB) AuditLogRepository {
	if db == nil {
		appLogger.Fatalf("gorm.DB não pode ser nil para NewGormAuditLogRepository")
	}
	return &gormAuditLogRepository{db: db}
}

// Create insere uma nova entrada de log de auditoria no banco de dados.
func (r *gormAuditLogRepository) Create(ctx context.Context, entry models.AuditLogEntry) (*models.AuditLogEntry, error) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	entry.Severity = strings.ToUpper(entry.Severity)

	if err := r.db.WithContext(ctx).Create(&entry).Error; err != nil {
		appLogger.Errorf("Erro ao criar entrada de log de auditoria (Ação: %s, Severidade: %s): %v",
			entry.Action, entry.Severity, err)
		return nil, appErrors.NewDatabaseErrorDetail("gravando log de auditoria", err)
	}
	return &entry, nil
}

// GetFiltered busca logs de auditoria com base no filtro, do mais recente para o mais antigo.
func (r *gormAuditLogRepository) GetFiltered(ctx context.Context, filter AuditLogFilter) ([]models.AuditLogEntry, int64, error) {
	var entries []models.AuditLogEntry
	var totalCount int64

	query := r.db.WithContext(ctx).Model(&models.AuditLogEntry{})

	if filter.StartDate != nil {
		s := filter.StartDate
		startOfDay := time.Date(s.Year(), s.Month(), s.Day(), 0, 0, 0, 0, s.Location())
		query = query.Where("timestamp >= ?", startOfDay)
	}
	if filter.EndDate != nil {
		e := filter.EndDate
		endOfDay := time.Date(e.Year(), e.Month(), e.Day(), 23, 59, 59, 999999999, e.Location())
		query = query.Where("timestamp <= ?", endOfDay)
	}
	if filter.Severity != "" {
		query = query.Where("UPPER(severity) = UPPER(?)", filter.Severity)
	}
	if filter.Action != "" {
		query = query.Where("UPPER(action) = UPPER(?)", filter.Action)
	}
	if filter.SessionID != "" {
		query = query.Where("session_id = ?", filter.SessionID)
	}

	// A contagem vem antes de Limit/Offset para refletir o total filtrado.
	if err := query.Count(&totalCount).Error; err != nil {
		appLogger.Errorf("Erro ao contar logs de auditoria filtrados: %v", err)
		return nil, 0, appErrors.NewDatabaseErrorDetail("contando logs de auditoria", err)
	}
	if totalCount == 0 {
		return []models.AuditLogEntry{}, 0, nil
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	} else if limit > 1000 {
		limit = 1000
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	if err := query.Order("timestamp DESC").Order("id DESC").Limit(limit).Offset(offset).Find(&entries).Error; err != nil {
		appLogger.Errorf("Erro ao buscar logs de auditoria filtrados: %v", err)
		return nil, 0, appErrors.NewDatabaseErrorDetail("buscando logs de auditoria", err)
	}
	return entries, totalCount, nil
}
