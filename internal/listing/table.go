// Package listing implementa filtro, ordenação e paginação da tabela de motoristas
// sobre a coleção já carregada da API.
package listing

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/data/models"
	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/utils"
)

// Field é uma coluna filtrável/ordenável da tabela.
type Field string

const (
	FieldEmail  Field = "email"
	FieldCPF    Field = "cpf"
	FieldName   Field = "name"
	FieldStatus Field = "status"
)

// FilterFields são as opções do seletor de campo, na ordem de exibição.
var FilterFields = []Field{FieldEmail, FieldCPF, FieldName, FieldStatus}

// Label devolve o rótulo do campo no seletor.
func (f Field) Label() string {
	switch f {
	case FieldCPF:
		return "CPF"
	case FieldName:
		return "nome"
	default:
		return string(f)
	}
}

// ParseField interpreta o campo de filtro; valores desconhecidos caem em email.
func ParseField(value string) Field {
	switch f := Field(strings.ToLower(strings.TrimSpace(value))); f {
	case FieldEmail, FieldCPF, FieldName, FieldStatus:
		return f
	default:
		return FieldEmail
	}
}

func parseSortColumn(value string) Field {
	switch f := Field(strings.ToLower(strings.TrimSpace(value))); f {
	case FieldEmail, FieldCPF, FieldName, FieldStatus:
		return f
	default:
		return ""
	}
}

// Direction é o sentido da ordenação.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// DefaultPageSize é o tamanho de página da tabela.
const DefaultPageSize = 10

// Query é o estado da tabela carregado da URL (?field=&q=&sort=&dir=&page=).
type Query struct {
	Field    Field
	Filter   string
	SortBy   Field
	Dir      Direction
	Page     int
	PageSize int
}

// ParseQuery lê o estado da tabela dos parâmetros da URL.
func ParseQuery(values url.Values, pageSize int) Query {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	q := Query{
		Field:    ParseField(values.Get("field")),
		Filter:   strings.TrimSpace(values.Get("q")),
		SortBy:   parseSortColumn(values.Get("sort")),
		Dir:      Asc,
		Page:     1,
		PageSize: pageSize,
	}
	if q.SortBy != "" && values.Get("dir") == string(Desc) {
		q.Dir = Desc
	}
	if p, err := strconv.Atoi(values.Get("page")); err == nil && p > 0 {
		q.Page = p
	}
	return q
}

// Values serializa a query para montar links.
func (q Query) Values() url.Values {
	v := url.Values{}
	if q.Field != "" && q.Field != FieldEmail {
		v.Set("field", string(q.Field))
	}
	if q.Filter != "" {
		v.Set("q", q.Filter)
	}
	if q.SortBy != "" {
		v.Set("sort", string(q.SortBy))
		v.Set("dir", string(q.Dir))
	}
	if q.Page > 1 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	return v
}

// URL monta o link para `path` com esta query.
func (q Query) URL(path string) string {
	if enc := q.Values().Encode(); enc != "" {
		return path + "?" + enc
	}
	return path
}

// ToggleSort alterna a ordenação da coluna: crescente na primeira vez, decrescente se já estava crescente.
func (q Query) ToggleSort(column Field) Query {
	if q.SortBy == column && q.Dir == Asc {
		q.Dir = Desc
	} else {
		q.SortBy = column
		q.Dir = Asc
	}
	q.Page = 1
	return q
}

// WithPage devolve a query apontando para a página `page`.
func (q Query) WithPage(page int) Query {
	q.Page = page
	return q
}

// Result é a página calculada da tabela.
type Result struct {
	Rows      []models.Driver
	Matched   []models.Driver
	Page      int
	PageCount int
	Total     int
}

// HasPrev indica se há página anterior.
func (r Result) HasPrev() bool { return r.Page > 1 }

// HasNext indica se há próxima página.
func (r Result) HasNext() bool { return r.Page < r.PageCount }

// Apply filtra, ordena e pagina `drivers` sem alterar o slice recebido.
// Matched contém todas as linhas filtradas e ordenadas (usado na exportação).
func Apply(drivers []models.Driver, q Query) Result {
	if q.PageSize <= 0 {
		q.PageSize = DefaultPageSize
	}

	matched := make([]models.Driver, 0, len(drivers))
	for _, d := range drivers {
		if matches(d, q.Field, q.Filter) {
			matched = append(matched, d)
		}
	}

	if q.SortBy != "" {
		sortDrivers(matched, q.SortBy, q.Dir)
	}

	total := len(matched)
	pageCount := (total + q.PageSize - 1) / q.PageSize
	if pageCount < 1 {
		pageCount = 1
	}
	page := q.Page
	if page < 1 {
		page = 1
	}
	if page > pageCount {
		page = pageCount
	}

	start := (page - 1) * q.PageSize
	end := start + q.PageSize
	if end > total {
		end = total
	}

	return Result{
		Rows:      matched[start:end],
		Matched:   matched,
		Page:      page,
		PageCount: pageCount,
		Total:     total,
	}
}

// matches compara sem diferenciar maiúsculas nem acentos; no CPF só os dígitos contam.
func matches(d models.Driver, field Field, filter string) bool {
	if filter == "" {
		return true
	}
	value := fieldValue(d, field)
	if field == FieldCPF {
		if needle := utils.OnlyDigits(filter); needle != "" {
			return strings.Contains(utils.OnlyDigits(value), needle)
		}
	}
	return strings.Contains(fold(value), fold(filter))
}

func fieldValue(d models.Driver, field Field) string {
	switch field {
	case FieldCPF:
		return d.CPF
	case FieldName:
		return d.Name
	case FieldStatus:
		return string(d.Status)
	default:
		return d.Email
	}
}

// fold remove acentos e converte para minúsculas ("João" -> "joao").
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// sortDrivers ordena pela coluna usando a ordem alfabética do português.
func sortDrivers(rows []models.Driver, column Field, dir Direction) {
	// collate.Collator não é seguro para uso concorrente: um por chamada.
	col := collate.New(language.BrazilianPortuguese, collate.IgnoreCase)
	less := func(i, j int) bool {
		a, b := fieldValue(rows[i], column), fieldValue(rows[j], column)
		var c int
		if column == FieldCPF {
			c = strings.Compare(utils.OnlyDigits(a), utils.OnlyDigits(b))
		} else {
			c = col.CompareString(a, b)
		}
		if dir == Desc {
			return c > 0
		}
		return c < 0
	}
	sort.SliceStable(rows, less)
}
