package validation

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/Dukorsa/APP_MOTORISTAS_GO/internal/core/errors"
	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/data/models"
)

var fixedNow = time.Date(2024, time.June, 15, 10, 30, 0, 0, time.UTC)

func newTestValidator() *Validator {
	return New(func() time.Time { return fixedNow })
}

func validPersonal() PersonalInfoInput {
	return PersonalInfoInput{
		Name:      "Maria Souza",
		Email:     "Maria@Example.com",
		CPF:       "123.456.789-01",
		Phone:     "(11) 99999-8888",
		DateBirth: "1990-05-20",
	}
}

func image(contentType string, size int) *models.DocumentFile {
	return &models.DocumentFile{FileName: "doc", ContentType: contentType, Data: bytes.Repeat([]byte{1}, size)}
}

func TestValidatePersonalInfoStripsMasks(t *testing.T) {
	info, err := newTestValidator().ValidatePersonalInfo(validPersonal())
	require.NoError(t, err)
	assert.Equal(t, "12345678901", info.CPF)
	assert.Equal(t, "11999998888", info.Phone)
	assert.Equal(t, "maria@example.com", info.Email)
	assert.Equal(t, time.Date(1990, time.May, 20, 0, 0, 0, 0, time.UTC), info.DateBirth)
}

func TestValidatePersonalInfoMessages(t *testing.T) {
	in := PersonalInfoInput{Name: "Jo", Email: "nao-e-email", CPF: "123", Phone: "1199", DateBirth: ""}
	_, err := newTestValidator().ValidatePersonalInfo(in)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	ve, ok := appErrors.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "Nome deve ter no mínimo 3 caracteres", ve.Field("name"))
	assert.Equal(t, "Email inválido", ve.Field("email"))
	assert.Equal(t, "CPF inválido", ve.Field("cpf"))
	assert.Equal(t, "Telefone inválido", ve.Field("phone"))
	assert.Equal(t, "Data de nascimento é obrigatória", ve.Field("date_birth"))
}

func TestValidatePersonalInfoBirthDateRules(t *testing.T) {
	cases := []struct {
		date string
		want string
	}{
		{"20/05/1990", "Data de nascimento inválida"},
		{"2024-06-16", "Data deve ser no máximo a data de hoje"},
		{"1899-12-31", "Data deve estar entre 01/01/1900 e hoje"},
		{"2006-06-16", "Motorista deve ter pelo menos 18 anos"},
		{"2006-06-15", ""},
		{"1900-01-01", ""},
	}
	v := newTestValidator()
	for _, c := range cases {
		in := validPersonal()
		in.DateBirth = c.date
		_, err := v.ValidatePersonalInfo(in)
		if c.want == "" {
			assert.NoError(t, err, "data %s", c.date)
			continue
		}
		ve, ok := appErrors.AsValidation(err)
		require.True(t, ok, "data %s", c.date)
		assert.Equal(t, c.want, ve.Field("date_birth"), "data %s", c.date)
	}
}

func TestValidateAddress(t *testing.T) {
	v := newTestValidator()

	addr, err := v.ValidateAddress(AddressInput{Street: "Rua A", Number: "10", City: "Porto Alegre", State: "rs", ZipCode: "90000-000"})
	require.NoError(t, err)
	assert.Equal(t, "RS", addr.State)
	assert.Equal(t, "90000000", addr.ZipCode)

	_, err = v.ValidateAddress(AddressInput{Street: "Ru", Number: "", City: "P", State: "RGS", ZipCode: "9000"})
	ve, ok := appErrors.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "Rua é obrigatória", ve.Field("street"))
	assert.Equal(t, "Número é obrigatório", ve.Field("number"))
	assert.Equal(t, "Cidade é obrigatória", ve.Field("city"))
	assert.Equal(t, "Estado deve ter 2 caracteres", ve.Field("state"))
	assert.Equal(t, "CEP inválido", ve.Field("zip_code"))
}

func TestValidateDocuments(t *testing.T) {
	v := newTestValidator()

	docs, err := v.ValidateDocuments(DocumentsInput{CNH: image("image/png", 10), CRLV: image("image/jpeg", 10)})
	require.NoError(t, err)
	assert.NotNil(t, docs.CNH)

	_, err = v.ValidateDocuments(DocumentsInput{})
	ve, ok := appErrors.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "CNH é obrigatória", ve.Field("src_cnh"))
	assert.Equal(t, "CRLV é obrigatório", ve.Field("src_crlv"))

	_, err = v.ValidateDocuments(DocumentsInput{CNH: image("application/pdf", 10), CRLV: image("image/png", MaxDocumentSize+1)})
	ve, ok = appErrors.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "Arquivo deve ser JPG, PNG ou JPEG", ve.Field("src_cnh"))
	assert.Equal(t, "O arquivo deve ter no máximo 10MB", ve.Field("src_crlv"))
}

func TestValidateDocumentsAcceptsExactLimit(t *testing.T) {
	_, err := newTestValidator().ValidateDocuments(DocumentsInput{CNH: image("image/jpg", MaxDocumentSize), CRLV: image("IMAGE/PNG", 1)})
	assert.NoError(t, err)
}

func TestValidateDriverEdit(t *testing.T) {
	v := newTestValidator()
	in := DriverEditInput{
		Name:      "João Silva",
		Email:     "joao@example.com",
		CPF:       "123.456.789-01",
		Telephone: "(51) 98888-7777",
		DateBirth: "1985-03-10T00:00:00.000Z",
		Status:    "Inativo",
		Address:   AddressInput{Street: "Av. Brasil", Number: "100", City: "Canoas", State: "RS", ZipCode: "92000-000"},
	}

	upd, err := v.ValidateDriverEdit(in)
	require.NoError(t, err)
	assert.Equal(t, "1985-03-10", upd.DateBirth)
	assert.Equal(t, models.StatusInativo, upd.Status)
	assert.Equal(t, "51988887777", upd.Telephone)
	require.NotNil(t, upd.Address)
	assert.Equal(t, "92000000", upd.Address.ZipCode)
	assert.Nil(t, upd.CNH)

	in.Status = "Suspenso"
	in.CNH = image("application/pdf", 5)
	in.Address.State = "R"
	_, err = v.ValidateDriverEdit(in)
	ve, ok := appErrors.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "Status inválido", ve.Field("status"))
	assert.Equal(t, "Estado deve ter 2 caracteres", ve.Field("state"))
	assert.Equal(t, msgEditFileType, ve.Field("src_cnh"))
}

func TestValidateDocument(t *testing.T) {
	v := newTestValidator()
	assert.NoError(t, v.ValidateDocument("src_cnh", image("image/png", 3)))

	err := v.ValidateDocument("src_crlv", image("text/plain", 3))
	ve, ok := appErrors.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, msgEditFileType, ve.Field("src_crlv"))
}

func TestEditDocumentSizeMessage(t *testing.T) {
	v := newTestValidator()

	err := v.ValidateDocument("src_cnh", image("image/png", MaxDocumentSize+1))
	ve, ok := appErrors.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "Arquivo deve ter no máximo 10MB!", ve.Field("src_cnh"))

	in := DriverEditInput{
		Name:      "João Silva",
		Email:     "joao@example.com",
		CPF:       "12345678901",
		Telephone: "51988887777",
		DateBirth: "1985-03-10",
		Status:    "Ativo",
		Address:   AddressInput{Street: "Av. Brasil", Number: "100", City: "Canoas", State: "RS", ZipCode: "92000000"},
		CRLV:      image("image/jpeg", MaxDocumentSize+1),
	}
	_, err = v.ValidateDriverEdit(in)
	ve, ok = appErrors.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "Arquivo deve ter no máximo 10MB!", ve.Field("src_crlv"))

	// O cadastro mantém a mensagem própria.
	_, err = v.ValidateDocuments(DocumentsInput{CNH: image("image/png", 1), CRLV: image("image/png", MaxDocumentSize+1)})
	ve, ok = appErrors.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "O arquivo deve ter no máximo 10MB", ve.Field("src_crlv"))
}
