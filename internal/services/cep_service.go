package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	appErrors "github.com/Dukorsa/APP_MOTORISTAS_GO/internal/core/errors"
	appLogger "github.com/Dukorsa/APP_MOTORISTAS_GO/internal/core/logger"
	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/utils"
)

// CEPAddress é o endereço devolvido pela consulta de CEP, já no vocabulário do formulário.
type CEPAddress struct {
	Street string `json:"street"`
	City   string `json:"city"`
	State  string `json:"state"`
}

// CEPService consulta endereços por CEP.
type CEPService interface {
	// Lookup busca o endereço do CEP (com ou sem máscara).
	// Retorna ErrNotFound quando o serviço responde que o CEP não existe.
	Lookup(ctx context.Context, cep string) (*CEPAddress, error)
}

type viaCEPService struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewViaCEPService cria o cliente do ViaCEP com limite de `ratePerSec` consultas por segundo.
func NewViaCEPService(baseURL string, timeout time.Duration, ratePerSec int) CEPService {
	if ratePerSec <= 0 {
		ratePerSec = 5
	}
	return &viaCEPService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(ratePerSec), ratePerSec),
	}
}

// viaCEPResponse é o formato do ViaCEP. "erro" chega como booleano ou como a string "true".
type viaCEPResponse struct {
	Logradouro string   `json:"logradouro"`
	Localidade string   `json:"localidade"`
	UF         string   `json:"uf"`
	Erro       flexBool `json:"erro"`
}

type flexBool bool

func (b *flexBool) UnmarshalJSON(raw []byte) error {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	*b = flexBool(strings.EqualFold(s, "true"))
	return nil
}

func (s *viaCEPService) Lookup(ctx context.Context, cep string) (*CEPAddress, error) {
	digits := utils.OnlyDigits(cep)
	if len(digits) != 8 {
		return nil, appErrors.WrapErrorf(appErrors.ErrInvalidInput, "CEP incompleto: %q", cep)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, appErrors.WrapErrorf(appErrors.ErrExternalService, "consulta de CEP cancelada: %v", err)
	}

	endpoint := fmt.Sprintf("%s/ws/%s/json/", s.baseURL, digits)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, appErrors.WrapErrorf(appErrors.ErrInternal, "falha ao montar consulta de CEP: %v", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		appLogger.Warnf("Falha ao consultar CEP %s: %v", digits, err)
		return nil, appErrors.WrapErrorf(appErrors.ErrExternalService, "falha ao consultar CEP: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		appLogger.Warnf("ViaCEP respondeu %d para o CEP %s", resp.StatusCode, digits)
		return nil, appErrors.WrapErrorf(appErrors.ErrExternalService, "ViaCEP respondeu status %d", resp.StatusCode)
	}

	var body viaCEPResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, appErrors.WrapErrorf(appErrors.ErrExternalService, "resposta inválida do ViaCEP: %v", err)
	}
	if body.Erro {
		appLogger.Debugf("CEP %s não encontrado no ViaCEP", digits)
		return nil, appErrors.WrapErrorf(appErrors.ErrNotFound, "CEP %s não encontrado", digits)
	}

	return &CEPAddress{
		Street: body.Logradouro,
		City:   body.Localidade,
		State:  utils.NormalizeUF(body.UF),
	}, nil
}
