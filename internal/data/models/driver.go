package models

import (
	"time"
)

// DriverStatus é a situação cadastral do motorista na API.
type DriverStatus string

const (
	StatusAtivo   DriverStatus = "Ativo"
	StatusInativo DriverStatus = "Inativo"
)

// ValidStatuses define as situações aceitas pela API.
var ValidStatuses = map[DriverStatus]bool{
	StatusAtivo:   true,
	StatusInativo: true,
}

// DateLayout é o formato de data trafegado nos formulários e na API (AAAA-MM-DD).
const DateLayout = "2006-01-02"

// Address é o endereço do motorista. É enviado à API como uma única parte JSON.
type Address struct {
	Street  string `json:"street"`
	Number  string `json:"number"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zip_code"`
}

// Driver é o registro de motorista devolvido pela API (somente leitura no front-end).
type Driver struct {
	CPF       string       `json:"cpf"`
	Name      string       `json:"name"`
	Email     string       `json:"email"`
	Telephone string       `json:"telephone,omitempty"`
	DateBirth string       `json:"date_birth"`
	Status    DriverStatus `json:"status"`
	Address   Address      `json:"address"`
	SrcCNH    string       `json:"src_cnh"`
	SrcCRLV   string       `json:"src_crlv"`
}

// BirthDate interpreta DateBirth, que a API devolve como ISO 8601 (com ou sem horário).
func (d Driver) BirthDate() (time.Time, bool) {
	return ParseAPIDate(d.DateBirth)
}

// FormattedBirthDate devolve a data de nascimento como DD/MM/AAAA, ou o valor cru se não for uma data.
func (d Driver) FormattedBirthDate() string {
	if t, ok := d.BirthDate(); ok {
		return t.Format("02/01/2006")
	}
	return d.DateBirth
}

// ParseAPIDate aceita "2006-01-02" e RFC 3339 (ex: "1990-01-01T00:00:00.000Z").
func ParseAPIDate(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(DateLayout, value); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
	}
	return time.Time{}, false
}

// PersonalInfo é a primeira etapa do cadastro, já validada.
type PersonalInfo struct {
	Name      string
	Email     string
	CPF       string
	Phone     string
	DateBirth time.Time
}

// DocumentFile é um anexo binário (CNH ou CRLV) recebido do navegador.
type DocumentFile struct {
	FileName    string
	ContentType string
	Data        []byte
}

// Size devolve o tamanho do arquivo em bytes.
func (f *DocumentFile) Size() int64 {
	if f == nil {
		return 0
	}
	return int64(len(f.Data))
}

// Documents é a terceira etapa do cadastro.
type Documents struct {
	CNH  *DocumentFile
	CRLV *DocumentFile
}

// DriverFormData acumula as etapas do cadastro. Um ponteiro nil significa etapa ainda não preenchida.
type DriverFormData struct {
	PersonalInfo *PersonalInfo
	Address      *Address
	Documents    *Documents
}

// IsComplete indica se as três etapas foram preenchidas.
func (d DriverFormData) IsComplete() bool {
	return d.PersonalInfo != nil && d.Address != nil && d.Documents != nil &&
		d.Documents.CNH != nil && d.Documents.CRLV != nil
}

// DriverUpdate é o conteúdo do PATCH de edição.
// Campos texto vazios e ponteiros nil não são enviados (mantêm o valor atual na API).
type DriverUpdate struct {
	Name      string
	Email     string
	CPF       string
	Telephone string
	DateBirth string
	Status    DriverStatus
	Address   *Address
	CNH       *DocumentFile
	CRLV      *DocumentFile
}
