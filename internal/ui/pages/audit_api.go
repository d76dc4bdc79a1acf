package pages

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	appLogger "github.com/Dukorsa/APP_MOTORISTAS_GO/internal/core/logger"
	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/data/models"
	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/repositories"
	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/services"
	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/ui"
)

// AuditAPI expõe o log de auditoria em JSON (GET /audit).
type AuditAPI struct {
	audit services.AuditLogService
}

// NewAuditAPI cria o endpoint do log de auditoria.
func NewAuditAPI(audit services.AuditLogService) *AuditAPI {
	if audit == nil {
		appLogger.Fatalf("AuditLogService não pode ser nil para NewAuditAPI")
	}
	return &AuditAPI{audit: audit}
}

func (a *AuditAPI) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/audit", a.list).Methods(http.MethodGet)
}

type auditPage struct {
	Items  any   `json:"items"`
	Total  int64 `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

// list aceita ?action=&severity=&session_id=&start=AAAA-MM-DD&end=AAAA-MM-DD&limit=&offset=.
func (a *AuditAPI) list(w http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()
	filter := repositories.AuditLogFilter{
		Action:    q.Get("action"),
		Severity:  q.Get("severity"),
		SessionID: q.Get("session_id"),
	}
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))
	filter.Offset, _ = strconv.Atoi(q.Get("offset"))

	var err error
	if filter.StartDate, err = parseDay(q.Get("start")); err != nil {
		ui.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "Data inválida em 'start', use AAAA-MM-DD"})
		return
	}
	if filter.EndDate, err = parseDay(q.Get("end")); err != nil {
		ui.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "Data inválida em 'end', use AAAA-MM-DD"})
		return
	}

	logs, total, err := a.audit.GetAuditLogs(req.Context(), filter)
	if err != nil {
		appLogger.Errorf("Erro ao consultar log de auditoria: %v", err)
		ui.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": "Erro ao consultar o log de auditoria"})
		return
	}
	ui.WriteJSON(w, http.StatusOK, auditPage{Items: logs, Total: total, Limit: filter.Limit, Offset: filter.Offset})
}

func parseDay(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(models.DateLayout, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
