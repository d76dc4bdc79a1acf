package services

import (
	"context"
	"strings"
	"time"

	appErrors "github.com/Dukorsa/APP_MOTORISTAS_GO/internal/core/errors"
	appLogger "github.com/Dukorsa/APP_MOTORISTAS_GO/internal/core/logger"
	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/core/types"
	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/data/models"
	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/repositories"
)

const maxAuditDescriptionLen = 4000

// AuditLogService define a interface para o serviço de log de auditoria.
type AuditLogService interface {
	// LogAction registra uma ação de auditoria.
	// `actor` (opcional) é a sessão do visitante que originou a ação; nil indica ação do sistema.
	LogAction(ctx context.Context, entry models.AuditLogEntry, actor types.AuditActor) error

	// GetAuditLogs busca logs de auditoria com base nos filtros fornecidos e com paginação.
	GetAuditLogs(ctx context.Context, filter repositories.AuditLogFilter) (logs []models.AuditLogEntry, totalCount int64, err error)
}

// auditLogServiceImpl é a implementação de AuditLogService.
type auditLogServiceImpl struct {
	repo repositories.AuditLogRepository
}

// NewAuditLogService cria uma nova instância de AuditLogService.
func NewAuditLogService(repo repositories.AuditLogRepository) AuditLogService {
	if repo == nil {
		appLogger.Fatalf("AuditLogRepository não pode ser nil para NewAuditLogService")
	}
	return &auditLogServiceImpl{repo: repo}
}

// LogAction registra uma ação de auditoria no banco de dados.
func (s *auditLogServiceImpl) LogAction(ctx context.Context, entry models.AuditLogEntry, actor types.AuditActor) error {
	// 1. Validar e normalizar entrada básica
	if strings.TrimSpace(entry.Action) == "" {
		return appErrors.WrapErrorf(appErrors.ErrInvalidInput, "ação do log de auditoria não pode ser vazia")
	}
	if strings.TrimSpace(entry.Description) == "" {
		return appErrors.WrapErrorf(appErrors.ErrInvalidInput, "descrição do log de auditoria não pode ser vazia")
	}

	normalizedSeverity := strings.ToUpper(strings.TrimSpace(entry.Severity))
	if !models.ValidSeverities[normalizedSeverity] {
		appLogger.Warnf("Nível de severidade inválido '%s' fornecido para log. Usando 'INFO'. Ação: %s", entry.Severity, entry.Action)
		normalizedSeverity = "INFO"
	}
	entry.Severity = normalizedSeverity

	// 2. Preencher a origem da ação
	if actor != nil {
		if entry.SessionID == nil && actor.GetID() != "" {
			id := actor.GetID()
			entry.SessionID = &id
		}
		if entry.IPAddress == nil && actor.GetIPAddress() != "" {
			ip := actor.GetIPAddress()
			entry.IPAddress = &ip
		}
		if entry.UserAgent == nil && actor.GetUserAgent() != "" {
			ua := truncate(actor.GetUserAgent(), 255)
			entry.UserAgent = &ua
		}
	}

	// 3. Limites de tamanho
	if len(entry.Description) > maxAuditDescriptionLen {
		entry.Description = entry.Description[:maxAuditDescriptionLen-3] + "..."
		appLogger.Warnf("Descrição do log de auditoria truncada para %d caracteres. Ação: %s", maxAuditDescriptionLen, entry.Action)
	}

	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	// 4. Persistir
	if _, err := s.repo.Create(ctx, entry); err != nil {
		return appErrors.WrapErrorf(err, "falha ao persistir log de auditoria (Ação: %s)", entry.Action)
	}
	return nil
}

// GetAuditLogs busca logs de auditoria com base nos filtros fornecidos.
func (s *auditLogServiceImpl) GetAuditLogs(ctx context.Context, filter repositories.AuditLogFilter) ([]models.AuditLogEntry, int64, error) {
	if filter.Limit <= 0 {
		filter.Limit = 100
	}
	if filter.Limit > 1000 {
		filter.Limit = 1000
		appLogger.Warnf("Solicitação de GetAuditLogs com limite > 1000. Reduzido para 1000.")
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	if filter.StartDate != nil {
		v := filter.StartDate.In(time.UTC)
		filter.StartDate = &v
	}
	if filter.EndDate != nil {
		v := filter.EndDate.In(time.UTC)
		filter.EndDate = &v
	}

	logs, total, err := s.repo.GetFiltered(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.WrapErrorf(err, "falha ao buscar logs de auditoria do repositório")
	}
	return logs, total, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
