package listing

import (
	"fmt"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/data/models"
)

func drivers() []models.Driver {
	return []models.Driver{
		{CPF: "12345678901", Name: "Álvaro Lima", Email: "alvaro@x.com", Status: models.StatusAtivo},
		{CPF: "98765432100", Name: "beatriz Souza", Email: "bia@y.com", Status: models.StatusInativo},
		{CPF: "55544433322", Name: "João Pereira", Email: "joao@x.com", Status: models.StatusAtivo},
		{CPF: "11122233344", Name: "Zélia Costa", Email: "zelia@z.com", Status: models.StatusAtivo},
	}
}

func names(rows []models.Driver) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Name
	}
	return out
}

func TestFilterIsCaseAndAccentInsensitive(t *testing.T) {
	res := Apply(drivers(), Query{Field: FieldName, Filter: "JOAO"})
	assert.Equal(t, []string{"João Pereira"}, names(res.Rows))

	res = Apply(drivers(), Query{Field: FieldName, Filter: "alvaro"})
	assert.Equal(t, []string{"Álvaro Lima"}, names(res.Rows))
}

func TestFilterByCPFComparesDigits(t *testing.T) {
	res := Apply(drivers(), Query{Field: FieldCPF, Filter: "987.654"})
	assert.Equal(t, []string{"beatriz Souza"}, names(res.Rows))
}

func TestFilterByStatusAndDefaultEmail(t *testing.T) {
	res := Apply(drivers(), Query{Field: FieldStatus, Filter: "inativo"})
	assert.Equal(t, 1, res.Total)

	q := ParseQuery(url.Values{"q": {"@x.com"}}, 10)
	assert.Equal(t, FieldEmail, q.Field)
	res = Apply(drivers(), q)
	assert.Equal(t, 2, res.Total)
}

func TestSortUsesPortugueseCollation(t *testing.T) {
	res := Apply(drivers(), Query{SortBy: FieldName, Dir: Asc})
	assert.Equal(t, []string{"Álvaro Lima", "beatriz Souza", "João Pereira", "Zélia Costa"}, names(res.Rows))

	res = Apply(drivers(), Query{SortBy: FieldName, Dir: Desc})
	assert.Equal(t, []string{"Zélia Costa", "João Pereira", "beatriz Souza", "Álvaro Lima"}, names(res.Rows))
}

func TestToggleSort(t *testing.T) {
	q := Query{Page: 3}
	q = q.ToggleSort(FieldName)
	assert.Equal(t, FieldName, q.SortBy)
	assert.Equal(t, Asc, q.Dir)
	assert.Equal(t, 1, q.Page)

	q = q.ToggleSort(FieldName)
	assert.Equal(t, Desc, q.Dir)

	q = q.ToggleSort(FieldName)
	assert.Equal(t, Asc, q.Dir)

	q = q.ToggleSort(FieldEmail)
	assert.Equal(t, FieldEmail, q.SortBy)
	assert.Equal(t, Asc, q.Dir)
}

func TestPagination(t *testing.T) {
	var many []models.Driver
	for i := 0; i < 23; i++ {
		many = append(many, models.Driver{CPF: fmt.Sprintf("%011d", i), Name: fmt.Sprintf("Motorista %02d", i)})
	}

	res := Apply(many, Query{Page: 1, PageSize: 10})
	assert.Len(t, res.Rows, 10)
	assert.Equal(t, 3, res.PageCount)
	assert.False(t, res.HasPrev())
	assert.True(t, res.HasNext())

	res = Apply(many, Query{Page: 3, PageSize: 10})
	assert.Len(t, res.Rows, 3)
	assert.False(t, res.HasNext())

	res = Apply(many, Query{Page: 99, PageSize: 10})
	assert.Equal(t, 3, res.Page)
	assert.Len(t, res.Matched, 23)

	empty := Apply(nil, Query{Page: 2})
	assert.Equal(t, 1, empty.PageCount)
	assert.Empty(t, empty.Rows)
}

func TestParseQueryRoundTrip(t *testing.T) {
	values := url.Values{"field": {"cpf"}, "q": {"123"}, "sort": {"name"}, "dir": {"desc"}, "page": {"2"}}
	q := ParseQuery(values, 10)
	assert.Equal(t, FieldCPF, q.Field)
	assert.Equal(t, Desc, q.Dir)
	assert.Equal(t, 2, q.Page)

	again := ParseQuery(q.Values(), 10)
	require.Equal(t, q, again)
	assert.Equal(t, "/driver", Query{Field: FieldEmail, Page: 1}.URL("/driver"))
}

func TestParseQueryIgnoresUnknownValues(t *testing.T) {
	q := ParseQuery(url.Values{"field": {"senha"}, "sort": {"senha"}, "dir": {"desc"}, "page": {"-1"}}, 0)
	assert.Equal(t, FieldEmail, q.Field)
	assert.Equal(t, Field(""), q.SortBy)
	assert.Equal(t, Asc, q.Dir)
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, DefaultPageSize, q.PageSize)
}
