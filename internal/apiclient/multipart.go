package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strings"

	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/data/models"
)

// Nomes das partes do multipart aceitos pela API.
const (
	FieldName      = "name"
	FieldEmail     = "email"
	FieldCPF       = "cpf"
	FieldPhone     = "phone"
	FieldTelephone = "telephone"
	FieldDateBirth = "date_birth"
	FieldStatus    = "status"
	FieldAddress   = "address"
	FieldCNH       = "src_cnh"
	FieldCRLV      = "src_crlv"
)

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// BuildCreatePayload monta o corpo do POST /driver: oito partes texto
// (campos pessoais, status e endereço em JSON) seguidas dos dois documentos.
func BuildCreatePayload(data models.DriverFormData) (*bytes.Buffer, string, error) {
	if !data.IsComplete() {
		return nil, "", fmt.Errorf("cadastro incompleto: todas as etapas devem estar preenchidas")
	}
	info := data.PersonalInfo

	address, err := json.Marshal(data.Address)
	if err != nil {
		return nil, "", fmt.Errorf("falha ao serializar endereço: %w", err)
	}

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	fields := [][2]string{
		{FieldName, info.Name},
		{FieldEmail, info.Email},
		{FieldCPF, info.CPF},
		{FieldPhone, info.Phone},
		{FieldTelephone, info.Phone},
		{FieldDateBirth, info.DateBirth.Format(models.DateLayout)},
		{FieldStatus, string(models.StatusAtivo)},
		{FieldAddress, string(address)},
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", fmt.Errorf("falha ao escrever campo %s: %w", f[0], err)
		}
	}
	if err := writeFilePart(w, FieldCNH, data.Documents.CNH); err != nil {
		return nil, "", err
	}
	if err := writeFilePart(w, FieldCRLV, data.Documents.CRLV); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("falha ao finalizar multipart: %w", err)
	}
	return body, w.FormDataContentType(), nil
}

// BuildUpdatePayload monta o corpo do PATCH /driver/{cpf} apenas com os campos presentes.
func BuildUpdatePayload(upd models.DriverUpdate) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	fields := [][2]string{
		{FieldName, upd.Name},
		{FieldEmail, upd.Email},
		{FieldCPF, upd.CPF},
		{FieldTelephone, upd.Telephone},
		{FieldDateBirth, upd.DateBirth},
		{FieldStatus, string(upd.Status)},
	}
	for _, f := range fields {
		if f[1] == "" {
			continue
		}
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", fmt.Errorf("falha ao escrever campo %s: %w", f[0], err)
		}
	}
	if upd.Address != nil {
		address, err := json.Marshal(upd.Address)
		if err != nil {
			return nil, "", fmt.Errorf("falha ao serializar endereço: %w", err)
		}
		if err := w.WriteField(FieldAddress, string(address)); err != nil {
			return nil, "", fmt.Errorf("falha ao escrever campo %s: %w", FieldAddress, err)
		}
	}
	if upd.CNH != nil {
		if err := writeFilePart(w, FieldCNH, upd.CNH); err != nil {
			return nil, "", err
		}
	}
	if upd.CRLV != nil {
		if err := writeFilePart(w, FieldCRLV, upd.CRLV); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("falha ao finalizar multipart: %w", err)
	}
	return body, w.FormDataContentType(), nil
}

// writeFilePart grava o arquivo com o Content-Type recebido do navegador
// (multipart.Writer.CreateFormFile sempre usaria application/octet-stream).
func writeFilePart(w *multipart.Writer, field string, file *models.DocumentFile) error {
	if file == nil {
		return fmt.Errorf("arquivo %s ausente", field)
	}
	filename := file.FileName
	if filename == "" {
		filename = field
	}
	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(field), quoteEscaper.Replace(filename)))
	h.Set("Content-Type", contentType)

	part, err := w.CreatePart(h)
	if err != nil {
		return fmt.Errorf("falha ao criar parte %s: %w", field, err)
	}
	if _, err := part.Write(file.Data); err != nil {
		return fmt.Errorf("falha ao escrever arquivo %s: %w", field, err)
	}
	return nil
}
