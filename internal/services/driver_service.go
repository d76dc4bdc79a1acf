package services

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	appErrors "github.com/Dukorsa/APP_MOTORISTAS_GO/internal/core/errors"
	appLogger "github.com/Dukorsa/APP_MOTORISTAS_GO/internal/core/logger"
	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/core/types"
	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/data/models"
	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/utils"
)

const driversCacheKey = "drivers"

// DriverAPI é o subconjunto da API REST usado pelo serviço (implementado por apiclient.Client).
type DriverAPI interface {
	GetDrivers(ctx context.Context) ([]models.Driver, error)
	StoreDriver(ctx context.Context, data models.DriverFormData) (int, error)
	UpdateDriverData(ctx context.Context, cpf string, upd models.DriverUpdate) (int, error)
}

// DriverService define a interface para o serviço de motoristas.
type DriverService interface {
	// ListDrivers devolve todos os motoristas, usando o cache local quando válido.
	ListDrivers(ctx context.Context) ([]models.Driver, error)

	// GetDriver busca um motorista pelo CPF (com ou sem máscara) na listagem.
	GetDriver(ctx context.Context, cpf string) (*models.Driver, error)

	// StoreDriver envia o cadastro completo. Em caso de sucesso a listagem em cache é invalidada.
	StoreDriver(ctx context.Context, data models.DriverFormData, actor types.AuditActor) error

	// UpdateDriver envia a edição do motorista `cpf`. Em caso de sucesso a listagem em cache é invalidada.
	UpdateDriver(ctx context.Context, cpf string, upd models.DriverUpdate, actor types.AuditActor) error

	// InvalidateDrivers descarta a listagem em cache; a próxima leitura busca na API.
	InvalidateDrivers()
}

type driverServiceImpl struct {
	api   DriverAPI
	audit AuditLogService

	cache      *cache.Cache
	group      singleflight.Group
	generation atomic.Uint64
}

// NewDriverService cria o serviço de motoristas. `audit` pode ser nil (sem log de auditoria).
func NewDriverService(api DriverAPI, audit AuditLogService, cacheTTL time.Duration) DriverService {
	if api == nil {
		appLogger.Fatalf("DriverAPI não pode ser nil para NewDriverService")
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &driverServiceImpl{
		api:   api,
		audit: audit,
		cache: cache.New(cacheTTL, 2*cacheTTL),
	}
}

func (s *driverServiceImpl) ListDrivers(ctx context.Context) ([]models.Driver, error) {
	if cached, found := s.cache.Get(driversCacheKey); found {
		return cloneDrivers(cached.([]models.Driver)), nil
	}

	// Requisições simultâneas compartilham uma única busca na API; o cancelamento de
	// quem iniciou a busca não derruba as demais (o http.Client tem timeout próprio).
	gen := s.generation.Load()
	fetchCtx := context.WithoutCancel(ctx)
	result, err, shared := s.group.Do(driversCacheKey, func() (interface{}, error) {
		drivers, err := s.api.GetDrivers(fetchCtx)
		if err != nil {
			return nil, err
		}
		// Uma invalidação durante a busca torna o resultado obsoleto para o cache.
		if s.generation.Load() == gen {
			s.cache.Set(driversCacheKey, drivers, cache.DefaultExpiration)
		}
		return drivers, nil
	})
	if err != nil {
		appLogger.Errorf("Erro ao buscar motoristas na API: %v", err)
		return nil, err
	}
	if shared {
		appLogger.Debug("Listagem de motoristas compartilhada entre requisições simultâneas")
	}
	return cloneDrivers(result.([]models.Driver)), nil
}

func (s *driverServiceImpl) GetDriver(ctx context.Context, cpf string) (*models.Driver, error) {
	want := utils.OnlyDigits(cpf)
	if want == "" {
		return nil, appErrors.WrapErrorf(appErrors.ErrInvalidInput, "CPF não informado")
	}
	drivers, err := s.ListDrivers(ctx)
	if err != nil {
		return nil, err
	}
	for i := range drivers {
		if utils.OnlyDigits(drivers[i].CPF) == want {
			d := drivers[i]
			return &d, nil
		}
	}
	return nil, appErrors.WrapErrorf(appErrors.ErrNotFound, "motorista %s não encontrado", utils.RedactCPF(want))
}

func (s *driverServiceImpl) StoreDriver(ctx context.Context, data models.DriverFormData, actor types.AuditActor) error {
	cpf := ""
	if data.PersonalInfo != nil {
		cpf = data.PersonalInfo.CPF
	}

	status, err := s.api.StoreDriver(ctx, data)
	s.logAudit(ctx, models.ActionDriverCreate, cpf, status, err, actor, nil)
	if err != nil {
		return err
	}

	s.InvalidateDrivers()
	appLogger.Infof("Motorista %s cadastrado (status %d)", utils.RedactCPF(cpf), status)
	return nil
}

func (s *driverServiceImpl) UpdateDriver(ctx context.Context, cpf string, upd models.DriverUpdate, actor types.AuditActor) error {
	status, err := s.api.UpdateDriverData(ctx, cpf, upd)
	s.logAudit(ctx, models.ActionDriverUpdate, cpf, status, err, actor, models.JSONMetadata{
		"fields": updatedFields(upd),
	})
	if err != nil {
		return err
	}

	s.InvalidateDrivers()
	appLogger.Infof("Motorista %s atualizado (status %d)", utils.RedactCPF(cpf), status)
	return nil
}

func (s *driverServiceImpl) InvalidateDrivers() {
	s.generation.Add(1)
	s.cache.Delete(driversCacheKey)
	s.group.Forget(driversCacheKey)
}

// logAudit registra a tentativa no log de auditoria. Falhas de auditoria não interrompem a operação.
func (s *driverServiceImpl) logAudit(ctx context.Context, action, cpf string, status int, opErr error, actor types.AuditActor, meta models.JSONMetadata) {
	if s.audit == nil {
		return
	}
	if meta == nil {
		meta = models.JSONMetadata{}
	}
	meta["api_status"] = status

	redacted := utils.RedactCPF(cpf)
	entry := models.AuditLogEntry{
		Action:    action,
		DriverCPF: &redacted,
		Success:   opErr == nil,
		Severity:  "INFO",
		Metadata:  meta,
	}
	verb := map[string]string{
		models.ActionDriverCreate: "Cadastro",
		models.ActionDriverUpdate: "Atualização",
	}[action]
	if opErr == nil {
		entry.Description = fmt.Sprintf("%s do motorista %s concluído.", verb, redacted)
	} else {
		entry.Severity = "WARNING"
		entry.Description = fmt.Sprintf("%s do motorista %s falhou: %v", verb, redacted, opErr)
		var apiErr *appErrors.APIError
		if errors.As(opErr, &apiErr) && apiErr.Code != "" {
			meta["api_code"] = apiErr.Code
		}
	}

	if err := s.audit.LogAction(ctx, entry, actor); err != nil {
		appLogger.Warnf("Falha ao registrar auditoria (%s): %v", action, err)
	}
}

func updatedFields(upd models.DriverUpdate) []string {
	var fields []string
	add := func(name string, present bool) {
		if present {
			fields = append(fields, name)
		}
	}
	add("name", upd.Name != "")
	add("email", upd.Email != "")
	add("cpf", upd.CPF != "")
	add("telephone", upd.Telephone != "")
	add("date_birth", upd.DateBirth != "")
	add("status", upd.Status != "")
	add("address", upd.Address != nil)
	add("src_cnh", upd.CNH != nil)
	add("src_crlv", upd.CRLV != nil)
	return fields
}

func cloneDrivers(in []models.Driver) []models.Driver {
	out := make([]models.Driver, len(in))
	copy(out, in)
	return out
}
