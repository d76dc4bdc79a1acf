package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Erros sentinela pré-definidos para tipos comuns de falha na aplicação.
// Estes podem ser verificados usando errors.Is(err, ErrNotFound).
var (
	// --- Erros Gerais ---
	ErrInternal      = errors.New("erro interno da aplicação")
	ErrConfiguration = errors.New("erro de configuração da aplicação")

	// --- Erros de Sessão ---
	ErrSessionExpired = errors.New("sessão expirada")
	ErrInvalidSession = errors.New("sessão inválida ou não encontrada")

	// --- Erros de Banco de Dados / Repositório ---
	ErrDatabase = errors.New("erro na operação com o banco de dados")
	ErrNotFound = errors.New("registro não encontrado")
	ErrConflict = errors.New("conflito de dados (ex: registro duplicado, violação de unicidade)")

	// --- Erros de Validação e Entrada ---
	ErrValidation   = errors.New("erro de validação nos dados fornecidos")
	ErrInvalidInput = errors.New("entrada de dados inválida ou mal formatada")

	// --- Erros de Integração ---
	ErrExternalService = errors.New("falha na comunicação com serviço externo")
	ErrSuperseded      = errors.New("requisição substituída por uma mais recente")

	// --- Erros Específicos da Aplicação ---
	ErrExport = errors.New("falha ao exportar dados")
)

// ValidationError é um tipo de erro que contém detalhes sobre os campos que falharam na validação.
type ValidationError struct {
	// Message é uma mensagem geral sobre a falha de validação.
	Message string
	// Fields mapeia nomes de campos (como enviados no formulário) para a mensagem exibida ao usuário.
	Fields map[string]string
	// Underlying é o erro original que pode ter causado a falha de validação (opcional).
	Underlying error
}

// NewValidationError cria uma nova instância de ValidationError.
func NewValidationError(message string, fields map[string]string) *ValidationError {
	if fields == nil {
		fields = make(map[string]string)
	}
	return &ValidationError{
		Message: message,
		Fields:  fields,
	}
}

// Error implementa a interface error.
func (ve *ValidationError) Error() string {
	var sb strings.Builder
	if ve.Message != "" {
		sb.WriteString(ve.Message)
	} else {
		sb.WriteString("Erro de validação")
	}

	if len(ve.Fields) > 0 {
		// Ordena os campos para que a mensagem seja estável (logs e testes).
		names := make([]string, 0, len(ve.Fields))
		for field := range ve.Fields {
			names = append(names, field)
		}
		sort.Strings(names)

		fieldErrors := make([]string, 0, len(names))
		for _, field := range names {
			fieldErrors = append(fieldErrors, fmt.Sprintf("%s: %s", field, ve.Fields[field]))
		}
		sb.WriteString(" (Detalhes: ")
		sb.WriteString(strings.Join(fieldErrors, ", "))
		sb.WriteString(")")
	}
	if ve.Underlying != nil {
		sb.WriteString(fmt.Sprintf(" | Erro original: %v", ve.Underlying))
	}
	return sb.String()
}

// Unwrap retorna o erro encapsulado, permitindo o uso de errors.Is e errors.As com o erro original.
func (ve *ValidationError) Unwrap() error {
	return ve.Underlying
}

// Is permite que `errors.Is(err, ErrValidation)` funcione mesmo sem ErrValidation em `Underlying`.
func (ve *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Field retorna a mensagem do campo, ou "" se o campo passou na validação.
func (ve *ValidationError) Field(name string) string {
	if ve == nil {
		return ""
	}
	return ve.Fields[name]
}

// Merge copia as mensagens de outro ValidationError, sem sobrescrever as já existentes.
func (ve *ValidationError) Merge(other *ValidationError) {
	if other == nil {
		return
	}
	for k, v := range other.Fields {
		if _, exists := ve.Fields[k]; !exists {
			ve.Fields[k] = v
		}
	}
}

// APIError representa uma resposta não-2xx da API de motoristas.
// Message é o texto exibido ao usuário; Code é o código estruturado devolvido pelo servidor (ex: "P2002").
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Err        error
}

// NewAPIError cria um APIError. Se `sentinel` for nil, ErrExternalService é usado.
func NewAPIError(statusCode int, code, message string, sentinel error) *APIError {
	if sentinel == nil {
		sentinel = ErrExternalService
	}
	return &APIError{StatusCode: statusCode, Code: code, Message: message, Err: sentinel}
}

// Error implementa a interface error. Retorna apenas a mensagem amigável.
func (ae *APIError) Error() string {
	return ae.Message
}

// Unwrap permite `errors.Is(err, ErrConflict)` e `errors.Is(err, ErrExternalService)`.
func (ae *APIError) Unwrap() error {
	return ae.Err
}

// DatabaseErrorDetail é um tipo de erro para carregar mais informações sobre um erro de banco de dados.
type DatabaseErrorDetail struct {
	// Operation descreve a operação que estava sendo realizada (ex: "gravando log de auditoria").
	Operation string
	// Err é o erro original retornado pelo driver do banco de dados ou ORM.
	Err error
}

// NewDatabaseErrorDetail cria um novo DatabaseErrorDetail.
func NewDatabaseErrorDetail(operation string, originalErr error) *DatabaseErrorDetail {
	if originalErr == nil {
		originalErr = ErrDatabase
	}
	return &DatabaseErrorDetail{
		Operation: operation,
		Err:       originalErr,
	}
}

// Error implementa a interface error.
func (de *DatabaseErrorDetail) Error() string {
	return fmt.Sprintf("erro de banco de dados durante %s: %v", de.Operation, de.Err)
}

// Unwrap retorna o erro original do banco de dados.
func (de *DatabaseErrorDetail) Unwrap() error {
	return de.Err
}

// Is faz com que um DatabaseErrorDetail seja sempre considerado um ErrDatabase.
func (de *DatabaseErrorDetail) Is(target error) bool {
	if target == ErrDatabase {
		return true
	}
	return errors.Is(de.Err, target)
}

// --- Funções Helper ---

// WrapErrorf cria um novo erro que envolve um erro existente com uma mensagem formatada,
// preservando o erro original para verificação com `errors.Is` e `errors.As`.
func WrapErrorf(originalErr error, format string, args ...interface{}) error {
	if originalErr == nil {
		return fmt.Errorf(format, args...)
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), originalErr)
}

// AsValidation extrai um *ValidationError da cadeia de erros, se existir.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// UserMessage devolve o texto que pode ser exibido ao usuário final.
// Erros da API já carregam mensagens amigáveis; demais erros caem no `fallback`.
func UserMessage(err error, fallback string) string {
	var ae *APIError
	if errors.As(err, &ae) && ae.Message != "" {
		return ae.Message
	}
	return fallback
}
