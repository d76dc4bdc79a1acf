// Package apiclient conversa com a API REST de motoristas.
package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	appErrors "github.com/Dukorsa/APP_MOTORISTAS_GO/internal/core/errors"
	appLogger "github.com/Dukorsa/APP_MOTORISTAS_GO/internal/core/logger"
	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/data/models"
)

// Mensagens exibidas ao usuário quando a API falha.
const (
	MsgFetchDrivers = "Erro ao buscar motoristas"
	MsgCreateDriver = "Erro ao cadastrar motorista"
	MsgDuplicateCPF = "Motorista já cadastrado no sistema"
	MsgUpdateDriver = "Erro ao atualizar motorista"
)

// duplicateCodeP2002 é o código de violação de unicidade devolvido pela API.
const duplicateCodeP2002 = "P2002"

const maxErrorBody = 1 << 20

// Client é o cliente HTTP da API de motoristas. É seguro para uso concorrente.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New cria um Client para `baseURL` (ex: http://localhost:8080).
func New(baseURL string, timeout time.Duration) *Client {
	return NewWithHTTPClient(baseURL, &http.Client{Timeout: timeout})
}

// NewWithHTTPClient cria um Client usando um http.Client já configurado.
func NewWithHTTPClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

// BaseURL devolve a URL base configurada.
func (c *Client) BaseURL() string { return c.baseURL }

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// GetDrivers busca todos os motoristas (GET /driver).
func (c *Client) GetDrivers(ctx context.Context) ([]models.Driver, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/driver", nil)
	if err != nil {
		return nil, appErrors.WrapErrorf(appErrors.ErrInternal, "falha ao montar requisição de listagem: %v", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return nil, appErrors.NewAPIError(0, "", MsgFetchDrivers, nil)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		drain(resp.Body)
		return nil, appErrors.NewAPIError(resp.StatusCode, "", MsgFetchDrivers, nil)
	}

	var drivers []models.Driver
	if err := json.NewDecoder(resp.Body).Decode(&drivers); err != nil {
		appLogger.Errorf("Resposta inválida da API ao listar motoristas: %v", err)
		return nil, appErrors.NewAPIError(resp.StatusCode, "", MsgFetchDrivers, nil)
	}
	if drivers == nil {
		drivers = []models.Driver{}
	}
	return drivers, nil
}

// StoreDriver cria o motorista (POST /driver) com o cadastro completo.
// O código "P2002" (violação de unicidade) vira ErrConflict com a mensagem de CPF duplicado.
func (c *Client) StoreDriver(ctx context.Context, data models.DriverFormData) (int, error) {
	body, contentType, err := BuildCreatePayload(data)
	if err != nil {
		return 0, appErrors.WrapErrorf(appErrors.ErrInvalidInput, "%v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/driver", body)
	if err != nil {
		return 0, appErrors.WrapErrorf(appErrors.ErrInternal, "falha ao montar requisição de cadastro: %v", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.do(req)
	if err != nil {
		return 0, appErrors.NewAPIError(0, "", MsgCreateDriver, nil)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		drain(resp.Body)
		return resp.StatusCode, nil
	}

	eb := decodeErrorBody(resp.Body)
	if eb.Code == duplicateCodeP2002 {
		return resp.StatusCode, appErrors.NewAPIError(resp.StatusCode, eb.Code, MsgDuplicateCPF, appErrors.ErrConflict)
	}
	msg := eb.Message
	if msg == "" {
		msg = MsgCreateDriver
	}
	return resp.StatusCode, appErrors.NewAPIError(resp.StatusCode, eb.Code, msg, nil)
}

// UpdateDriverData atualiza o motorista `cpf` (PATCH /driver/{cpf}) apenas com os campos presentes.
func (c *Client) UpdateDriverData(ctx context.Context, cpf string, upd models.DriverUpdate) (int, error) {
	if cpf == "" {
		return 0, appErrors.WrapErrorf(appErrors.ErrInvalidInput, "CPF do motorista é obrigatório para atualização")
	}
	body, contentType, err := BuildUpdatePayload(upd)
	if err != nil {
		return 0, appErrors.WrapErrorf(appErrors.ErrInvalidInput, "%v", err)
	}

	endpoint := fmt.Sprintf("%s/driver/%s", c.baseURL, url.PathEscape(cpf))
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, endpoint, body)
	if err != nil {
		return 0, appErrors.WrapErrorf(appErrors.ErrInternal, "falha ao montar requisição de atualização: %v", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.do(req)
	if err != nil {
		return 0, appErrors.NewAPIError(0, "", MsgUpdateDriver, nil)
	}
	defer resp.Body.Close()
	drain(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		sentinel := appErrors.ErrExternalService
		if resp.StatusCode == http.StatusNotFound {
			sentinel = appErrors.ErrNotFound
		}
		return resp.StatusCode, appErrors.NewAPIError(resp.StatusCode, "", MsgUpdateDriver, sentinel)
	}
	return resp.StatusCode, nil
}

// do executa a requisição registrando método, caminho, status e duração.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	fields := logrus.Fields{
		"component":   "apiclient",
		"method":      req.Method,
		"path":        req.URL.Path,
		"duration_ms": time.Since(start).Milliseconds(),
	}
	if err != nil {
		appLogger.WithFields(fields).Errorf("Falha de comunicação com a API de motoristas: %v", err)
		return nil, err
	}
	fields["status"] = resp.StatusCode
	appLogger.WithFields(fields).Debug("Resposta da API de motoristas")
	return resp, nil
}

func decodeErrorBody(r io.Reader) errorBody {
	var eb errorBody
	raw, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return eb
	}
	if err := json.Unmarshal(raw, &eb); err != nil {
		appLogger.Debugf("Corpo de erro da API não é JSON: %q", truncateForLog(raw))
	}
	return eb
}

func drain(r io.Reader) {
	_, _ = io.Copy(io.Discard, io.LimitReader(r, maxErrorBody))
}

func truncateForLog(raw []byte) string {
	const max = 200
	if len(raw) > max {
		return string(raw[:max]) + "..."
	}
	return string(raw)
}
