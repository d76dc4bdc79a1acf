package pages

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/apiclient"
	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/core"
	appErrors "github.com/Dukorsa/APP_MOTORISTAS_GO/internal/core/errors"
	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/data/models"
	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/preview"
	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/services"
	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/session"
	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/ui"
	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/utils"
	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/validation"
	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/wizard"
)

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 32)...)

// fakeBackend simula a API REST de motoristas.
type fakeBackend struct {
	mu          sync.Mutex
	drivers     []models.Driver
	gets        int
	posts       int
	patches     int
	postStatus  int
	postBody    string
	patchStatus int
	getStatus   int
	lastPath    string
	lastValues  map[string][]string
	lastFiles   []string
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/driver":
		b.gets++
		if b.getStatus != 0 {
			w.WriteHeader(b.getStatus)
			_, _ = io.WriteString(w, `{"message":"API fora do ar"}`)
			return
		}
		_ = json.NewEncoder(w).Encode(b.drivers)
	case r.Method == http.MethodPost && r.URL.Path == "/driver":
		b.posts++
		b.record(r)
		if b.postStatus != 0 {
			w.WriteHeader(b.postStatus)
			_, _ = io.WriteString(w, b.postBody)
			return
		}
		w.WriteHeader(http.StatusCreated)
	case r.Method == http.MethodPatch && strings.HasPrefix(r.URL.Path, "/driver/"):
		b.patches++
		b.record(r)
		if b.patchStatus != 0 {
			w.WriteHeader(b.patchStatus)
			return
		}
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (b *fakeBackend) record(r *http.Request) {
	b.lastPath = r.URL.Path
	b.lastValues, b.lastFiles = nil, nil
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		return
	}
	b.lastValues = r.MultipartForm.Value
	for name := range r.MultipartForm.File {
		b.lastFiles = append(b.lastFiles, name)
	}
}

func (b *fakeBackend) counts() (gets, posts, patches int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.gets, b.posts, b.patches
}

type fakeCEP struct {
	addr *services.CEPAddress
	err  error
}

func (f fakeCEP) Lookup(context.Context, string) (*services.CEPAddress, error) {
	return f.addr, f.err
}

type testApp struct {
	server   *httptest.Server
	backend  *fakeBackend
	previews *preview.Registry
	client   *http.Client
}

func newTestApp(t *testing.T, backend *fakeBackend, cep services.CEPService) *testApp {
	t.Helper()
	api := httptest.NewServer(backend)
	t.Cleanup(api.Close)

	cfg := &core.Config{
		AppName:            "Motoristas",
		SecretKey:          "segredo-de-teste",
		SessionTimeout:     time.Hour,
		MaxUploadBytes:     25 << 20,
		ListPageSize:       10,
		CORSAllowedOrigins: []string{"http://localhost:3000"},
	}
	if cep == nil {
		cep = fakeCEP{err: appErrors.ErrNotFound}
	}

	debouncer := utils.NewDebouncer(time.Millisecond)
	previews := preview.NewRegistry(time.Minute)
	sessions := session.NewManager(cfg, previews, debouncer)
	driverService := services.NewDriverService(apiclient.New(api.URL, 5*time.Second), nil, time.Minute)
	validator := validation.New(nil)
	flow := wizard.NewFlow(validator, RegistrationSubmitter(driverService))

	renderer, err := ui.NewRenderer(cfg.AppName)
	require.NoError(t, err)
	router := ui.NewRouter(cfg, sessions, renderer)
	router.Register(NewHomePage(router))
	router.Register(NewDriversPage(router, driverService, nil, validator))
	router.Register(NewRegisterPage(router, flow, cep, debouncer))

	srv := httptest.NewServer(router.Handler())
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return &testApp{server: srv, backend: backend, previews: previews, client: client}
}

func (a *testApp) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()
	resp, err := a.client.Get(a.server.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func (a *testApp) postForm(t *testing.T, path string, values url.Values) (*http.Response, string) {
	t.Helper()
	resp, err := a.client.PostForm(a.server.URL+path, values)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func (a *testApp) postMultipart(t *testing.T, path string, values map[string]string, files map[string][]byte) (*http.Response, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range values {
		require.NoError(t, mw.WriteField(k, v))
	}
	for field, data := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+field+`.png"`)
		h.Set("Content-Type", "image/png")
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	resp, err := a.client.Post(a.server.URL+path, mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func personalForm() url.Values {
	return url.Values{
		"name":       {"Jane Doe"},
		"email":      {"jane@x.com"},
		"cpf":        {"123.456.789-01"},
		"phone":      {"(11) 99999-8888"},
		"date_birth": {"1990-01-01"},
	}
}

func addressForm() url.Values {
	return url.Values{
		"street":   {"Rua A"},
		"number":   {"10"},
		"city":     {"Porto Alegre"},
		"state":    {"rs"},
		"zip_code": {"90000-000"},
	}
}

func documents() map[string][]byte {
	return map[string][]byte{"src_cnh": pngBytes, "src_crlv": pngBytes}
}

func (a *testApp) completeFirstSteps(t *testing.T) {
	t.Helper()
	resp, body := a.get(t, "/driver/register")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, "Etapa 1 de 3")

	resp, _ = a.postForm(t, "/driver/register/personal", personalForm())
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	_, body = a.get(t, "/driver/register")
	require.Contains(t, body, "Etapa 2 de 3")

	resp, _ = a.postForm(t, "/driver/register/address", addressForm())
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	_, body = a.get(t, "/driver/register")
	require.Contains(t, body, "Etapa 3 de 3")
}

func TestRegisterFlowSubmitsOnceAndRedirectsHome(t *testing.T) {
	app := newTestApp(t, &fakeBackend{}, nil)

	// Aquece o cache da listagem para conferir a invalidação depois do cadastro.
	app.get(t, "/driver")
	app.get(t, "/driver")
	gets, _, _ := app.backend.counts()
	require.Equal(t, 1, gets)

	app.completeFirstSteps(t)

	resp, _ := app.postMultipart(t, "/driver/register/documents", nil, documents())
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	_, posts, _ := app.backend.counts()
	assert.Equal(t, 1, posts)
	assert.Len(t, app.backend.lastValues, 8)
	assert.ElementsMatch(t, []string{"src_cnh", "src_crlv"}, app.backend.lastFiles)
	assert.Equal(t, []string{"12345678901"}, app.backend.lastValues["cpf"])
	assert.Equal(t, []string{"11999998888"}, app.backend.lastValues["telephone"])

	_, body := app.get(t, "/")
	assert.Contains(t, body, "Sucesso!")
	assert.Contains(t, body, "Cadastro realizado com sucesso.")

	app.get(t, "/driver")
	gets, _, _ = app.backend.counts()
	assert.Equal(t, 2, gets, "a listagem é buscada de novo após o cadastro")

	_, body = app.get(t, "/driver/register")
	assert.Contains(t, body, "Etapa 1 de 3", "um novo cadastro começa do zero")
	assert.NotContains(t, body, "Jane Doe")
}

func TestRegisterDuplicateCPFKeepsDocumentsStep(t *testing.T) {
	backend := &fakeBackend{
		postStatus: http.StatusConflict,
		postBody:   `{"code":"P2002","message":"Unique constraint failed"}`,
	}
	app := newTestApp(t, backend, nil)
	app.completeFirstSteps(t)

	resp, body := app.postMultipart(t, "/driver/register/documents", nil, documents())
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, body, "Erro no cadastro")
	assert.Contains(t, body, "Motorista já cadastrado no sistema")
	assert.Contains(t, body, "Etapa 3 de 3")

	// Reenvio sem anexar de novo reaproveita os documentos já aceitos.
	backend.mu.Lock()
	backend.postStatus = 0
	backend.mu.Unlock()
	resp, _ = app.postMultipart(t, "/driver/register/documents", nil, nil)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	_, posts, _ := app.backend.counts()
	assert.Equal(t, 2, posts)
}

func TestRegisterServerErrorShowsMessage(t *testing.T) {
	backend := &fakeBackend{postStatus: http.StatusInternalServerError, postBody: `{"message":"Falha ao salvar"}`}
	app := newTestApp(t, backend, nil)
	app.completeFirstSteps(t)

	resp, body := app.postMultipart(t, "/driver/register/documents", nil, documents())
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Contains(t, body, "Falha ao salvar")
	assert.Contains(t, body, "Etapa 3 de 3")
}

func TestRegisterValidationErrorsAreInline(t *testing.T) {
	app := newTestApp(t, &fakeBackend{}, nil)
	app.get(t, "/driver/register")

	form := personalForm()
	form.Set("cpf", "123")
	form.Set("name", "Jo")
	resp, body := app.postForm(t, "/driver/register/personal", form)

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body, "CPF inválido")
	assert.Contains(t, body, "Nome deve ter no mínimo 3 caracteres")
	assert.Contains(t, body, "Etapa 1 de 3")
	assert.Contains(t, body, `value="jane@x.com"`, "valores digitados são mantidos")
}

func TestRegisterDocumentsRejectsPDF(t *testing.T) {
	app := newTestApp(t, &fakeBackend{}, nil)
	app.completeFirstSteps(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("src_cnh", "cnh.pdf")
	require.NoError(t, err)
	_, _ = part.Write([]byte("%PDF-1.4 teste"))
	require.NoError(t, mw.Close())
	resp, err := app.client.Post(app.server.URL+"/driver/register/documents", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, string(body), "Arquivo deve ser JPG, PNG ou JPEG")
	assert.Contains(t, string(body), "CRLV é obrigatório")
	_, posts, _ := app.backend.counts()
	assert.Zero(t, posts)
}

func TestBackKeepsData(t *testing.T) {
	app := newTestApp(t, &fakeBackend{}, nil)
	app.get(t, "/driver/register")
	app.postForm(t, "/driver/register/personal", personalForm())

	resp, _ := app.postForm(t, "/driver/register/back", nil)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	_, body := app.get(t, "/driver/register")
	assert.Contains(t, body, "Etapa 1 de 3")
	assert.Contains(t, body, `value="Jane Doe"`)
	assert.Contains(t, body, `value="123.456.789-01"`)
}

func TestLeavingRegisterPageDiscardsProgress(t *testing.T) {
	app := newTestApp(t, &fakeBackend{}, nil)
	app.get(t, "/driver/register")
	app.postForm(t, "/driver/register/personal", personalForm())

	app.get(t, "/")
	_, body := app.get(t, "/driver/register")
	assert.Contains(t, body, "Etapa 1 de 3")
	assert.NotContains(t, body, "Jane Doe")

	// Envio de etapa sem cadastro ativo volta ao início.
	app.get(t, "/")
	resp, _ := app.postForm(t, "/driver/register/address", addressForm())
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/driver/register", resp.Header.Get("Location"))
}

func TestCEPLookup(t *testing.T) {
	cep := fakeCEP{addr: &services.CEPAddress{Street: "Praça da Sé", City: "São Paulo", State: "SP"}}
	app := newTestApp(t, &fakeBackend{}, cep)
	app.get(t, "/driver/register")

	post := func(zip string) *http.Response {
		resp, err := app.client.Post(app.server.URL+"/driver/register/cep", "application/json",
			strings.NewReader(`{"zip_code":"`+zip+`"}`))
		require.NoError(t, err)
		return resp
	}

	resp := post("01001-000")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got services.CEPAddress
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "Praça da Sé", got.Street)
	assert.Equal(t, "SP", got.State)

	incomplete := post("0100")
	incomplete.Body.Close()
	assert.Equal(t, http.StatusNoContent, incomplete.StatusCode)
}

func TestCEPLookupFailuresAreSilent(t *testing.T) {
	app := newTestApp(t, &fakeBackend{}, fakeCEP{err: appErrors.ErrExternalService})
	app.get(t, "/driver/register")

	resp, err := app.client.Post(app.server.URL+"/driver/register/cep", "application/json", strings.NewReader(`{"zip_code":"01001000"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func sampleDrivers() []models.Driver {
	return []models.Driver{
		{CPF: "12345678901", Name: "José Silva", Email: "jose@x.com", Telephone: "11999998888", DateBirth: "1985-05-10T00:00:00.000Z",
			Status: models.StatusAtivo, Address: models.Address{Street: "Rua A", Number: "1", City: "Porto Alegre", State: "RS", ZipCode: "90000000"}},
		{CPF: "98765432100", Name: "Ana Souza", Email: "ana@x.com", Telephone: "51988887777", DateBirth: "1992-02-20",
			Status: models.StatusInativo, Address: models.Address{Street: "Rua B", Number: "2", City: "Canoas", State: "RS", ZipCode: "92000000"}},
	}
}

func TestDriversListingFiltersAndSorts(t *testing.T) {
	app := newTestApp(t, &fakeBackend{drivers: sampleDrivers()}, nil)

	resp, body := app.get(t, "/driver?field=name&q=jose")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "José Silva")
	assert.NotContains(t, body, "Ana Souza")

	_, body = app.get(t, "/driver?sort=name&dir=asc")
	assert.Less(t, strings.Index(body, "Ana Souza"), strings.Index(body, "José Silva"))

	_, body = app.get(t, "/driver?field=email&q=ninguem")
	assert.Contains(t, body, "No results.")
}

func TestDriversListingErrorBanner(t *testing.T) {
	app := newTestApp(t, &fakeBackend{getStatus: http.StatusInternalServerError}, nil)
	resp, body := app.get(t, "/driver")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Erro ao carregar motoristas: Erro ao buscar motoristas")
	assert.Contains(t, body, "No results.")
}

func TestEditDriverWithPreviewedDocument(t *testing.T) {
	app := newTestApp(t, &fakeBackend{drivers: sampleDrivers()}, nil)

	resp, body := app.get(t, "/driver/12345678901?edit=1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Editar Motorista")
	assert.Contains(t, body, `value="1985-05-10"`)

	resp, body = app.postMultipart(t, "/driver/12345678901/preview", nil, map[string][]byte{"src_cnh": pngBytes})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var staged struct {
		URL string `json:"url"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &staged))
	require.True(t, strings.HasPrefix(staged.URL, "/preview/"))

	resp, body = app.get(t, staged.URL)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.Equal(t, string(pngBytes), body)

	form := map[string]string{
		"name": "José da Silva", "cpf": "123.456.789-01", "email": "jose@x.com", "telephone": "(11) 99999-8888",
		"date_birth": "1985-05-10", "status": "Inativo",
		"street": "Rua A", "number": "1", "city": "Porto Alegre", "state": "RS", "zip_code": "90000-000",
	}
	resp, _ = app.postMultipart(t, "/driver/12345678901", form, nil)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/driver", resp.Header.Get("Location"))

	_, _, patches := app.backend.counts()
	assert.Equal(t, 1, patches)
	assert.Equal(t, "/driver/12345678901", app.backend.lastPath)
	assert.Equal(t, []string{"src_cnh"}, app.backend.lastFiles, "o documento pré-visualizado é enviado")
	assert.Equal(t, []string{"Inativo"}, app.backend.lastValues["status"])

	resp, _ = app.get(t, staged.URL)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, "pré-visualização liberada ao fechar o diálogo")
	assert.Zero(t, app.previews.Len())

	_, body = app.get(t, "/driver")
	assert.Contains(t, body, "Motorista atualizado")
}

func TestEditDriverValidationKeepsDialogOpen(t *testing.T) {
	app := newTestApp(t, &fakeBackend{drivers: sampleDrivers()}, nil)
	app.get(t, "/driver/12345678901?edit=1")

	form := map[string]string{
		"name": "José", "cpf": "123.456.789-01", "email": "invalido", "telephone": "(11) 99999-8888",
		"date_birth": "1985-05-10", "status": "Ativo",
		"street": "Rua A", "number": "1", "city": "Porto Alegre", "state": "RS", "zip_code": "90000-000",
	}
	resp, body := app.postMultipart(t, "/driver/12345678901", form, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body, "Email inválido")
	assert.Contains(t, body, "Editar Motorista")
	_, _, patches := app.backend.counts()
	assert.Zero(t, patches)
}

func TestPreviewRejectsInvalidFormat(t *testing.T) {
	app := newTestApp(t, &fakeBackend{drivers: sampleDrivers()}, nil)
	app.get(t, "/driver/12345678901?edit=1")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("src_crlv", "crlv.pdf")
	require.NoError(t, err)
	_, _ = part.Write([]byte("%PDF-1.4 teste"))
	require.NoError(t, mw.Close())

	resp, err := app.client.Post(app.server.URL+"/driver/12345678901/preview", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	var got map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "Formato de arquivo inválido. Por favor, selecione uma imagem nos formatos PNG, JPEG, JPG.", got["error"])
}

func TestLeavingDriversPageClosesDialog(t *testing.T) {
	app := newTestApp(t, &fakeBackend{drivers: sampleDrivers()}, nil)
	app.get(t, "/driver/12345678901?edit=1")
	resp, _ := app.postMultipart(t, "/driver/12345678901/preview", nil, map[string][]byte{"src_cnh": pngBytes})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 1, app.previews.Len())

	app.get(t, "/")
	assert.Zero(t, app.previews.Len())
}

func TestExportCSV(t *testing.T) {
	app := newTestApp(t, &fakeBackend{drivers: sampleDrivers()}, nil)

	resp, body := app.get(t, "/driver/export.csv?field=status&q=inativo")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "motoristas_")
	assert.Contains(t, body, "Nome;Email;CPF")
	assert.Contains(t, body, "Ana Souza")
	assert.NotContains(t, body, "José Silva")
}

// stagePreview abre o diálogo de edição e guarda uma CNH de substituição, devolvendo a URL da pré-visualização.
func (a *testApp) stagePreview(t *testing.T, cpf string) string {
	t.Helper()
	resp, _ := a.get(t, "/driver/"+cpf+"?edit=1")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := a.postMultipart(t, "/driver/"+cpf+"/preview", nil, map[string][]byte{"src_cnh": pngBytes})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var staged struct {
		URL string `json:"url"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &staged))
	require.Equal(t, 1, a.previews.Len())
	return staged.URL
}

func editForm() map[string]string {
	return map[string]string{
		"name": "José da Silva", "cpf": "123.456.789-01", "email": "jose@x.com", "telephone": "(11) 99999-8888",
		"date_birth": "1985-05-10", "status": "Ativo",
		"street": "Rua A", "number": "1", "city": "Porto Alegre", "state": "RS", "zip_code": "90000-000",
	}
}

func TestListingWithoutDialogReleasesPreviews(t *testing.T) {
	for _, path := range []string{"/driver", "/driver?sort=name&dir=desc", "/driver?refresh=1"} {
		t.Run(path, func(t *testing.T) {
			app := newTestApp(t, &fakeBackend{drivers: sampleDrivers()}, nil)
			previewURL := app.stagePreview(t, "12345678901")

			resp, body := app.get(t, path)
			require.Equal(t, http.StatusOK, resp.StatusCode)
			assert.NotContains(t, body, "Editar Motorista")
			assert.Zero(t, app.previews.Len())

			resp, _ = app.get(t, previewURL)
			assert.Equal(t, http.StatusNotFound, resp.StatusCode)

			resp, _ = app.postMultipart(t, "/driver/12345678901/preview", nil, map[string][]byte{"src_cnh": pngBytes})
			assert.Equal(t, http.StatusNotFound, resp.StatusCode, "o diálogo fechado não aceita novos arquivos")
		})
	}
}

func TestCancelEditReleasesPreviews(t *testing.T) {
	app := newTestApp(t, &fakeBackend{drivers: sampleDrivers()}, nil)
	previewURL := app.stagePreview(t, "12345678901")

	resp, _ := app.postForm(t, "/driver/12345678901/close", nil)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/driver", resp.Header.Get("Location"))

	assert.Zero(t, app.previews.Len())
	resp, _ = app.get(t, previewURL)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	_, _, patches := app.backend.counts()
	assert.Zero(t, patches)
	_, body := app.get(t, "/driver")
	assert.NotContains(t, body, "Motorista atualizado")
	assert.NotContains(t, body, "Ocorreu um erro ao atualizar o motorista.")
}

func TestFailedUpdateReleasesPreviewsAndShowsError(t *testing.T) {
	app := newTestApp(t, &fakeBackend{drivers: sampleDrivers(), patchStatus: http.StatusInternalServerError}, nil)
	previewURL := app.stagePreview(t, "12345678901")

	resp, _ := app.postMultipart(t, "/driver/12345678901", editForm(), nil)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/driver", resp.Header.Get("Location"))

	_, _, patches := app.backend.counts()
	assert.Equal(t, 1, patches)
	assert.Equal(t, []string{"src_cnh"}, app.backend.lastFiles)

	assert.Zero(t, app.previews.Len())
	resp, _ = app.get(t, previewURL)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	_, body := app.get(t, "/driver")
	assert.Contains(t, body, "Erro")
	assert.Contains(t, body, "Ocorreu um erro ao atualizar o motorista.")
	assert.NotContains(t, body, "Motorista atualizado")
}

func TestPreviewIsServedOnlyToOwningSession(t *testing.T) {
	app := newTestApp(t, &fakeBackend{drivers: sampleDrivers()}, nil)
	previewURL := app.stagePreview(t, "12345678901")

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	stranger := &http.Client{Jar: jar}
	resp, err := stranger.Get(app.server.URL + previewURL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body := app.get(t, previewURL)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, string(pngBytes), body)
}
