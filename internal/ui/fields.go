package ui

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/utils"
)

// FieldKind é o tipo de um campo de formulário.
type FieldKind int

const (
	KindText FieldKind = iota
	KindMaskedText
	KindDate
	KindFile
	KindEnumToggle
)

func (k FieldKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindMaskedText:
		return "masked-text"
	case KindDate:
		return "date"
	case KindFile:
		return "file"
	case KindEnumToggle:
		return "enum-toggle"
	default:
		return fmt.Sprintf("FieldKind(%d)", int(k))
	}
}

// MaskKind identifica a máscara aplicada a um campo KindMaskedText.
type MaskKind string

const (
	MaskCPF   MaskKind = "cpf"
	MaskPhone MaskKind = "phone"
	MaskZip   MaskKind = "zip"
)

// Apply aplica a máscara ao valor (o mesmo formato que o navegador aplica ao digitar).
func (m MaskKind) Apply(value string) string {
	switch m {
	case MaskCPF:
		return utils.MaskCPF(value)
	case MaskPhone:
		return utils.MaskPhone(value)
	case MaskZip:
		return utils.ApplyZipMask(value)
	default:
		return value
	}
}

// MaxLength devolve o tamanho máximo do valor mascarado.
func (m MaskKind) MaxLength() int {
	switch m {
	case MaskCPF:
		return 14
	case MaskPhone:
		return 15
	case MaskZip:
		return 9
	default:
		return 0
	}
}

// Option é uma opção de um campo KindEnumToggle.
type Option struct {
	Value string
	Label string
}

// FieldDescriptor descreve um campo de formulário. Os atributos usados dependem de Kind:
// Mask só em KindMaskedText, Accept só em KindFile, Options só em KindEnumToggle.
type FieldDescriptor struct {
	Name        string
	Label       string
	Kind        FieldKind
	Placeholder string
	InputType   string // KindText: "text" (padrão) ou "email"
	Mask        MaskKind
	Accept      string
	Options     []Option
}

// Validate confere se o descritor é coerente com seu Kind.
func (f FieldDescriptor) Validate() error {
	if f.Name == "" || f.Label == "" {
		return fmt.Errorf("campo sem nome ou rótulo: %+v", f)
	}
	if f.Kind != KindMaskedText && f.Mask != "" {
		return fmt.Errorf("campo %s: máscara só é permitida em %s", f.Name, KindMaskedText)
	}
	if f.Kind != KindFile && f.Accept != "" {
		return fmt.Errorf("campo %s: accept só é permitido em %s", f.Name, KindFile)
	}
	if f.Kind != KindEnumToggle && len(f.Options) > 0 {
		return fmt.Errorf("campo %s: opções só são permitidas em %s", f.Name, KindEnumToggle)
	}

	switch f.Kind {
	case KindText, KindDate:
	case KindMaskedText:
		if f.Mask.MaxLength() == 0 {
			return fmt.Errorf("campo %s: máscara desconhecida %q", f.Name, f.Mask)
		}
	case KindFile:
		if f.Accept == "" {
			return fmt.Errorf("campo %s: tipos aceitos não informados", f.Name)
		}
	case KindEnumToggle:
		if len(f.Options) < 2 {
			return fmt.Errorf("campo %s: são necessárias ao menos duas opções", f.Name)
		}
	default:
		return fmt.Errorf("campo %s: tipo desconhecido %s", f.Name, f.Kind)
	}
	return nil
}

// fieldView é o que os templates de campo recebem.
type fieldView struct {
	FieldDescriptor
	ID        string
	Value     string
	Error     string
	MaxLength int
}

const fieldTemplates = `
{{define "label"}}<label for="{{.ID}}">{{.Label}}</label>{{end}}
{{define "error"}}{{if .Error}}<p class="field-error" id="{{.ID}}-error">{{.Error}}</p>{{end}}{{end}}

{{define "text"}}<div class="field{{if .Error}} has-error{{end}}">{{template "label" .}}
<input id="{{.ID}}" name="{{.Name}}" type="{{if .InputType}}{{.InputType}}{{else}}text{{end}}" value="{{.Value}}"{{if .Placeholder}} placeholder="{{.Placeholder}}"{{end}}>
{{template "error" .}}</div>{{end}}

{{define "masked-text"}}<div class="field{{if .Error}} has-error{{end}}">{{template "label" .}}
<input id="{{.ID}}" name="{{.Name}}" type="text" inputmode="numeric" data-mask="{{.Mask}}" maxlength="{{.MaxLength}}" value="{{.Value}}"{{if .Placeholder}} placeholder="{{.Placeholder}}"{{end}}>
{{template "error" .}}</div>{{end}}

{{define "date"}}<div class="field{{if .Error}} has-error{{end}}">{{template "label" .}}
<input id="{{.ID}}" name="{{.Name}}" type="date" min="1900-01-01" value="{{.Value}}">
{{template "error" .}}</div>{{end}}

{{define "file"}}<div class="field{{if .Error}} has-error{{end}}">{{template "label" .}}
<input id="{{.ID}}" name="{{.Name}}" type="file" accept="{{.Accept}}">
{{if .Value}}<p class="field-hint">Arquivo atual: {{.Value}}</p>{{end}}
{{template "error" .}}</div>{{end}}

{{define "enum-toggle"}}<fieldset class="field toggle{{if .Error}} has-error{{end}}"><legend>{{.Label}}</legend>
{{$v := .Value}}{{$id := .ID}}{{range .Options}}<label><input type="radio" name="{{$.Name}}" id="{{$id}}-{{.Value}}" value="{{.Value}}"{{if eq .Value $v}} checked{{end}}> {{.Label}}</label>
{{end}}{{template "error" .}}</fieldset>{{end}}
`

// FieldRenderer renderiza qualquer FieldDescriptor conforme seu Kind.
type FieldRenderer struct {
	tmpl *template.Template
}

// NewFieldRenderer cria o renderizador de campos.
func NewFieldRenderer() *FieldRenderer {
	return &FieldRenderer{tmpl: template.Must(template.New("fields").Parse(fieldTemplates))}
}

// Render devolve o HTML do campo com o valor atual e a mensagem de erro (se houver).
func (r *FieldRenderer) Render(f FieldDescriptor, value, errMsg string) (template.HTML, error) {
	if err := f.Validate(); err != nil {
		return "", err
	}
	view := fieldView{
		FieldDescriptor: f,
		ID:              "field-" + f.Name,
		Value:           value,
		Error:           errMsg,
	}
	if f.Kind == KindMaskedText {
		view.Value = f.Mask.Apply(value)
		view.MaxLength = f.Mask.MaxLength()
	}

	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, f.Kind.String(), view); err != nil {
		return "", fmt.Errorf("falha ao renderizar campo %s: %w", f.Name, err)
	}
	return template.HTML(buf.String()), nil
}

// FormField junta o descritor ao valor e ao erro de uma renderização.
type FormField struct {
	Descriptor FieldDescriptor
	Value      string
	Error      string
}

// Fields monta os FormField de um conjunto de descritores a partir de valores e erros por nome.
func Fields(set []FieldDescriptor, values map[string]string, errs map[string]string) []FormField {
	out := make([]FormField, len(set))
	for i, d := range set {
		out[i] = FormField{Descriptor: d, Value: values[d.Name], Error: errs[d.Name]}
	}
	return out
}

const acceptedImages = "image/png,image/jpeg,image/jpg"

// PersonalInfoFields são os campos da etapa de dados pessoais.
var PersonalInfoFields = []FieldDescriptor{
	{Name: "name", Label: "Nome Completo", Kind: KindText, Placeholder: "Digite seu nome completo"},
	{Name: "date_birth", Label: "Data de Nascimento", Kind: KindDate},
	{Name: "email", Label: "Email", Kind: KindText, InputType: "email", Placeholder: "seu@email.com"},
	{Name: "cpf", Label: "CPF", Kind: KindMaskedText, Mask: MaskCPF, Placeholder: "000.000.000-00"},
	{Name: "phone", Label: "Telefone", Kind: KindMaskedText, Mask: MaskPhone, Placeholder: "(00) 00000-0000"},
}

// AddressFields são os campos da etapa de endereço.
var AddressFields = []FieldDescriptor{
	{Name: "zip_code", Label: "CEP", Kind: KindMaskedText, Mask: MaskZip, Placeholder: "12345-678"},
	{Name: "street", Label: "Rua", Kind: KindText},
	{Name: "number", Label: "Número", Kind: KindText},
	{Name: "city", Label: "Cidade", Kind: KindText},
	{Name: "state", Label: "Estado", Kind: KindText, Placeholder: "UF"},
}

// DocumentFields são os campos da etapa de documentos.
var DocumentFields = []FieldDescriptor{
	{Name: "src_cnh", Label: "CNH", Kind: KindFile, Accept: acceptedImages},
	{Name: "src_crlv", Label: "CRLV", Kind: KindFile, Accept: acceptedImages},
}

// EditDriverFields são os campos do diálogo de edição.
var EditDriverFields = []FieldDescriptor{
	{Name: "name", Label: "Nome", Kind: KindText},
	{Name: "cpf", Label: "CPF", Kind: KindMaskedText, Mask: MaskCPF, Placeholder: "000.000.000-00"},
	{Name: "email", Label: "E-mail", Kind: KindText, InputType: "email"},
	{Name: "telephone", Label: "Telefone", Kind: KindMaskedText, Mask: MaskPhone, Placeholder: "(00) 00000-0000"},
	{Name: "date_birth", Label: "Data de Nascimento", Kind: KindDate},
	{Name: "status", Label: "Status", Kind: KindEnumToggle, Options: []Option{
		{Value: "Ativo", Label: "Ativo"},
		{Value: "Inativo", Label: "Inativo"},
	}},
	{Name: "street", Label: "Rua", Kind: KindText},
	{Name: "number", Label: "Número", Kind: KindText},
	{Name: "city", Label: "Cidade", Kind: KindText},
	{Name: "state", Label: "Estado", Kind: KindText},
	{Name: "zip_code", Label: "CEP", Kind: KindMaskedText, Mask: MaskZip, Placeholder: "12345-678"},
	{Name: "src_cnh", Label: "CNH", Kind: KindFile, Accept: acceptedImages},
	{Name: "src_crlv", Label: "CRLV", Kind: KindFile, Accept: acceptedImages},
}
