// Package validation implementa as regras dos formulários de motorista
// (dados pessoais, endereço, documentos e edição) com go-playground/validator.
package validation

import (
	"errors"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	appErrors "github.com/Dukorsa/APP_MOTORISTAS_GO/internal/core/errors"
	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/data/models"
	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/utils"
)

// MaxDocumentSize é o tamanho máximo aceito para CNH e CRLV (10MB).
const MaxDocumentSize = 10 << 20

// AcceptedDocumentTypes são os MIME types aceitos para CNH e CRLV.
var AcceptedDocumentTypes = []string{"image/jpeg", "image/png", "image/jpg"}

const summaryMessage = "Verifique os campos destacados."

var minBirthDate = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)

// Mensagens por campo. A chave "*" vale para qualquer regra do campo.
var fieldMessages = map[string]map[string]string{
	"name":      {"*": "Nome deve ter no mínimo 3 caracteres"},
	"email":     {"*": "Email inválido"},
	"cpf":       {"*": "CPF inválido"},
	"phone":     {"*": "Telefone inválido"},
	"telephone": {"*": "Telefone inválido"},
	"date_birth": {
		"required":  "Data de nascimento é obrigatória",
		"isodate":   "Data de nascimento inválida",
		"notfuture": "Data deve ser no máximo a data de hoje",
		"since1900": "Data deve estar entre 01/01/1900 e hoje",
		"adult":     "Motorista deve ter pelo menos 18 anos",
	},
	"street":   {"*": "Rua é obrigatória"},
	"number":   {"*": "Número é obrigatório"},
	"city":     {"*": "Cidade é obrigatória"},
	"state":    {"*": "Estado deve ter 2 caracteres"},
	"zip_code": {"*": "CEP inválido"},
	"status":   {"*": "Status inválido"},
}

// Mensagens dos documentos.
const (
	msgCNHRequired     = "CNH é obrigatória"
	msgCRLVRequired    = "CRLV é obrigatório"
	msgFileType        = "Arquivo deve ser JPG, PNG ou JPEG"
	msgFileSize        = "O arquivo deve ter no máximo 10MB"
	msgEditFileType    = "Formato de arquivo inválido. Por favor, selecione uma imagem nos formatos PNG, JPEG, JPG."
	msgEditFileSize    = "Arquivo deve ter no máximo 10MB!"
	documentTypesOneOf = "oneof=image/jpeg image/png image/jpg"
)

// PersonalInfoInput são os campos crus da etapa de dados pessoais.
type PersonalInfoInput struct {
	Name      string `json:"name" validate:"min=3"`
	Email     string `json:"email" validate:"required,email"`
	CPF       string `json:"cpf" validate:"len=11,digits"`
	Phone     string `json:"phone" validate:"len=11,digits"`
	DateBirth string `json:"date_birth" validate:"required,isodate,notfuture,since1900,adult"`
}

// AddressInput são os campos crus da etapa de endereço.
type AddressInput struct {
	Street  string `json:"street" validate:"min=3"`
	Number  string `json:"number" validate:"min=1"`
	City    string `json:"city" validate:"min=2"`
	State   string `json:"state" validate:"len=2"`
	ZipCode string `json:"zip_code" validate:"len=8,digits"`
}

// DocumentsInput são os arquivos da etapa de documentos.
type DocumentsInput struct {
	CNH  *models.DocumentFile
	CRLV *models.DocumentFile
}

// DriverEditInput são os campos do diálogo de edição.
// Arquivos nil significam "manter o documento atual".
type DriverEditInput struct {
	Name      string               `json:"name" validate:"min=3"`
	Email     string               `json:"email" validate:"required,email"`
	CPF       string               `json:"cpf" validate:"len=11,digits"`
	Telephone string               `json:"telephone" validate:"len=11,digits"`
	DateBirth string               `json:"date_birth" validate:"required,isodate,notfuture,since1900,adult"`
	Status    string               `json:"status" validate:"oneof=Ativo Inativo"`
	Address   AddressInput         `json:"address"`
	CNH       *models.DocumentFile `json:"-" validate:"-"`
	CRLV      *models.DocumentFile `json:"-" validate:"-"`
}

// Validator aplica as regras dos formulários. É seguro para uso concorrente.
type Validator struct {
	validate *validator.Validate
	now      func() time.Time
}

// New cria um Validator. `now` permite fixar "hoje" (nil usa time.Now).
func New(now func() time.Time) *Validator {
	if now == nil {
		now = time.Now
	}
	v := &Validator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
		now:      now,
	}

	v.validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Os erros de registro só ocorrem com tags vazias; as tags abaixo são constantes.
	_ = v.validate.RegisterValidation("digits", func(fl validator.FieldLevel) bool {
		return utils.IsDigits(fl.Field().String())
	})
	_ = v.validate.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		_, ok := models.ParseAPIDate(fl.Field().String())
		return ok
	})
	_ = v.validate.RegisterValidation("notfuture", v.dateRule(func(birth, today time.Time) bool {
		return !birth.After(today)
	}))
	_ = v.validate.RegisterValidation("since1900", v.dateRule(func(birth, _ time.Time) bool {
		return !birth.Before(minBirthDate)
	}))
	_ = v.validate.RegisterValidation("adult", v.dateRule(utils.IsAdult))
	return v
}

// dateRule adapta uma regra de data. Datas ilegíveis passam aqui e são barradas por "isodate".
func (v *Validator) dateRule(rule func(birth, today time.Time) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		birth, ok := models.ParseAPIDate(fl.Field().String())
		if !ok {
			return true
		}
		return rule(birth, v.today())
	}
}

func (v *Validator) today() time.Time {
	n := v.now()
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, time.UTC)
}

// ValidatePersonalInfo normaliza e valida a etapa de dados pessoais.
// CPF e telefone podem chegar mascarados; apenas os dígitos são considerados.
func (v *Validator) ValidatePersonalInfo(in PersonalInfoInput) (*models.PersonalInfo, error) {
	in.Name = utils.SanitizeInput(in.Name)
	in.Email = utils.NormalizeEmail(in.Email)
	in.CPF = utils.OnlyDigits(in.CPF)
	in.Phone = utils.OnlyDigits(in.Phone)
	in.DateBirth = strings.TrimSpace(in.DateBirth)

	if err := v.validate.Struct(in); err != nil {
		return nil, translate(err)
	}
	birth, _ := models.ParseAPIDate(in.DateBirth)
	return &models.PersonalInfo{
		Name:      in.Name,
		Email:     in.Email,
		CPF:       in.CPF,
		Phone:     in.Phone,
		DateBirth: birth,
	}, nil
}

// ValidateAddress normaliza e valida a etapa de endereço.
func (v *Validator) ValidateAddress(in AddressInput) (*models.Address, error) {
	in = normalizeAddress(in)
	if err := v.validate.Struct(in); err != nil {
		return nil, translate(err)
	}
	return &models.Address{
		Street:  in.Street,
		Number:  in.Number,
		City:    in.City,
		State:   in.State,
		ZipCode: in.ZipCode,
	}, nil
}

// ValidateDocuments valida os anexos obrigatórios da etapa de documentos.
func (v *Validator) ValidateDocuments(in DocumentsInput) (*models.Documents, error) {
	ve := appErrors.NewValidationError(summaryMessage, nil)
	if msg := v.checkFile(in.CNH, msgCNHRequired, msgFileType, msgFileSize); msg != "" {
		ve.Fields["src_cnh"] = msg
	}
	if msg := v.checkFile(in.CRLV, msgCRLVRequired, msgFileType, msgFileSize); msg != "" {
		ve.Fields["src_crlv"] = msg
	}
	if len(ve.Fields) > 0 {
		return nil, ve
	}
	return &models.Documents{CNH: in.CNH, CRLV: in.CRLV}, nil
}

// ValidateDocument valida um único arquivo de substituição (pré-visualização no diálogo de edição).
func (v *Validator) ValidateDocument(field string, file *models.DocumentFile) error {
	if msg := v.checkFile(file, "Arquivo é obrigatório", msgEditFileType, msgEditFileSize); msg != "" {
		return appErrors.NewValidationError(summaryMessage, map[string]string{field: msg})
	}
	return nil
}

// ValidateDriverEdit valida o diálogo de edição e monta o conteúdo do PATCH.
func (v *Validator) ValidateDriverEdit(in DriverEditInput) (*models.DriverUpdate, error) {
	in.Name = utils.SanitizeInput(in.Name)
	in.Email = utils.NormalizeEmail(in.Email)
	in.CPF = utils.OnlyDigits(in.CPF)
	in.Telephone = utils.OnlyDigits(in.Telephone)
	in.DateBirth = strings.TrimSpace(in.DateBirth)
	in.Status = strings.TrimSpace(in.Status)
	in.Address = normalizeAddress(in.Address)

	ve := appErrors.NewValidationError(summaryMessage, nil)
	if err := v.validate.Struct(in); err != nil {
		ve.Merge(translate(err))
	}
	if in.CNH != nil {
		if msg := v.checkFile(in.CNH, msgEditFileType, msgEditFileType, msgEditFileSize); msg != "" {
			ve.Fields["src_cnh"] = msg
		}
	}
	if in.CRLV != nil {
		if msg := v.checkFile(in.CRLV, msgEditFileType, msgEditFileType, msgEditFileSize); msg != "" {
			ve.Fields["src_crlv"] = msg
		}
	}
	if len(ve.Fields) > 0 {
		return nil, ve
	}

	birth, _ := models.ParseAPIDate(in.DateBirth)
	address := models.Address{
		Street:  in.Address.Street,
		Number:  in.Address.Number,
		City:    in.Address.City,
		State:   in.Address.State,
		ZipCode: in.Address.ZipCode,
	}
	return &models.DriverUpdate{
		Name:      in.Name,
		Email:     in.Email,
		CPF:       in.CPF,
		Telephone: in.Telephone,
		DateBirth: birth.Format(models.DateLayout),
		Status:    models.DriverStatus(in.Status),
		Address:   &address,
		CNH:       in.CNH,
		CRLV:      in.CRLV,
	}, nil
}

// checkFile devolve a primeira mensagem de erro do arquivo, ou "" se ele é aceito.
func (v *Validator) checkFile(file *models.DocumentFile, requiredMsg, typeMsg, sizeMsg string) string {
	if file == nil || file.Size() == 0 {
		return requiredMsg
	}
	if err := v.validate.Var(strings.ToLower(file.ContentType), documentTypesOneOf); err != nil {
		return typeMsg
	}
	if err := v.validate.Var(file.Size(), "lte="+maxDocumentSizeParam); err != nil {
		return sizeMsg
	}
	return ""
}

var maxDocumentSizeParam = strconv.Itoa(MaxDocumentSize)

func normalizeAddress(in AddressInput) AddressInput {
	in.Street = utils.SanitizeInput(in.Street)
	in.Number = utils.SanitizeInput(in.Number)
	in.City = utils.SanitizeInput(in.City)
	in.State = utils.NormalizeUF(in.State)
	in.ZipCode = utils.OnlyDigits(in.ZipCode)
	return in
}

// translate converte os erros do validator nas mensagens exibidas ao lado de cada campo.
func translate(err error) *appErrors.ValidationError {
	ve := appErrors.NewValidationError(summaryMessage, nil)
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		ve.Underlying = err
		return ve
	}
	for _, fe := range fieldErrs {
		field := fe.Field()
		if _, exists := ve.Fields[field]; exists {
			continue
		}
		ve.Fields[field] = messageFor(field, fe.Tag())
	}
	return ve
}

func messageFor(field, tag string) string {
	if byTag, ok := fieldMessages[field]; ok {
		if msg, ok := byTag[tag]; ok {
			return msg
		}
		if msg, ok := byTag["*"]; ok {
			return msg
		}
	}
	return "Valor inválido"
}
