package pages

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/apiclient"
	appErrors "github.com/Dukorsa/APP_MOTORISTAS_GO/internal/core/errors"
	appLogger "github.com/Dukorsa/APP_MOTORISTAS_GO/internal/core/logger"
	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/data/models"
	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/listing"
	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/navigation"
	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/preview"
	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/services"
	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/session"
	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/ui"
	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/utils"
	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/validation"
)

const (
	driversPath = "/driver"

	toastUpdateSuccessTitle = "Motorista atualizado"
	toastUpdateSuccessDesc  = "Os dados do motorista foram atualizados com sucesso."
	toastUpdateErrorTitle   = "Erro"
	toastUpdateErrorDesc    = "Ocorreu um erro ao atualizar o motorista."
)

// documentFields são os campos de arquivo aceitos na pré-visualização.
var documentFields = []string{"src_cnh", "src_crlv"}

// DriversPage é a listagem de motoristas com o diálogo de detalhes/edição.
type DriversPage struct {
	router     *ui.Router
	drivers    services.DriverService
	audit      services.AuditLogService
	validator  *validation.Validator
	previews   *preview.Registry
	pageSize   int
	maxUpload  int64
	maskExport bool
}

// NewDriversPage cria a página de motoristas. `audit` pode ser nil.
func NewDriversPage(router *ui.Router, drivers services.DriverService, audit services.AuditLogService, v *validation.Validator) *DriversPage {
	if router == nil || drivers == nil || v == nil {
		appLogger.Fatalf("Dependências nulas fornecidas para NewDriversPage")
	}
	cfg := router.GetConfig()
	return &DriversPage{
		router:     router,
		drivers:    drivers,
		audit:      audit,
		validator:  v,
		previews:   router.SessionManager().Previews(),
		pageSize:   cfg.ListPageSize,
		maxUpload:  cfg.MaxUploadBytes,
		maskExport: cfg.ExportMaskSensitive,
	}
}

func (p *DriversPage) ID() navigation.PageID { return navigation.PageDrivers }

func (p *DriversPage) RegisterRoutes(r *mux.Router) {
	r.HandleFunc(driversPath, p.list).Methods(http.MethodGet)
	r.HandleFunc(driversPath+"/export.xlsx", p.exportXLSX).Methods(http.MethodGet)
	r.HandleFunc(driversPath+"/export.csv", p.exportCSV).Methods(http.MethodGet)
	r.HandleFunc(driversPath+"/{cpf:[0-9.-]+}", p.openDialog).Methods(http.MethodGet)
	r.HandleFunc(driversPath+"/{cpf:[0-9.-]+}", p.update).Methods(http.MethodPost)
	r.HandleFunc(driversPath+"/{cpf:[0-9.-]+}/preview", p.uploadPreview).Methods(http.MethodPost)
	r.HandleFunc(driversPath+"/{cpf:[0-9.-]+}/close", p.closeDialog).Methods(http.MethodPost)
	r.HandleFunc("/preview/{token}", p.servePreview).Methods(http.MethodGet)
}

func (p *DriversPage) OnNavigatedTo(*session.FlowSession) {}

// OnNavigatedFrom fecha o diálogo aberto e libera suas pré-visualizações.
func (p *DriversPage) OnNavigatedFrom(s *session.FlowSession) {
	s.CloseDialog()
}

// --- Visão ---

type fieldOption struct {
	Value    string
	Label    string
	Selected bool
}

type columnView struct {
	Label   string
	SortURL string
	Arrow   string
}

type rowView struct {
	Name      string
	Email     string
	CPF       string
	Status    models.DriverStatus
	DetailURL string
}

type dialogView struct {
	Driver     models.Driver
	Editing    bool
	EditURL    string
	Action     string
	CloseURL   string
	PreviewURL string
	CNHURL     string
	CRLVURL    string
	Summary    string
	Fields     []ui.FormField
}

type driversView struct {
	Error         string
	Filter        string
	FieldOptions  []fieldOption
	Columns       []columnView
	Rows          []rowView
	Page          int
	PageCount     int
	Total         int
	PrevURL       string
	NextURL       string
	RefreshURL    string
	ExportXLSXURL string
	ExportCSVURL  string
	Dialog        *dialogView
}

var columns = []struct {
	label string
	field listing.Field
}{
	{"Nome", listing.FieldName},
	{"Email", listing.FieldEmail},
	{"CPF", listing.FieldCPF},
	{"Status", listing.FieldStatus},
}

func (p *DriversPage) buildView(ctx context.Context, q listing.Query) driversView {
	view := driversView{Filter: q.Filter}
	for _, f := range listing.FilterFields {
		view.FieldOptions = append(view.FieldOptions, fieldOption{Value: string(f), Label: f.Label(), Selected: f == q.Field})
	}
	for _, c := range columns {
		col := columnView{Label: c.label, SortURL: q.ToggleSort(c.field).URL(driversPath)}
		if q.SortBy == c.field {
			col.Arrow = "↑"
			if q.Dir == listing.Desc {
				col.Arrow = "↓"
			}
		}
		view.Columns = append(view.Columns, col)
	}

	refresh := q.Values()
	refresh.Set("refresh", "1")
	view.RefreshURL = driversPath + "?" + refresh.Encode()
	view.ExportXLSXURL = q.WithPage(1).URL(driversPath + "/export.xlsx")
	view.ExportCSVURL = q.WithPage(1).URL(driversPath + "/export.csv")

	drivers, err := p.drivers.ListDrivers(ctx)
	if err != nil {
		view.Error = "Erro ao carregar motoristas: " + appErrors.UserMessage(err, apiclient.MsgFetchDrivers)
	}

	result := listing.Apply(drivers, q)
	view.Page, view.PageCount, view.Total = result.Page, result.PageCount, result.Total
	if result.HasPrev() {
		view.PrevURL = q.WithPage(result.Page - 1).URL(driversPath)
	}
	if result.HasNext() {
		view.NextURL = q.WithPage(result.Page + 1).URL(driversPath)
	}
	for _, d := range result.Rows {
		view.Rows = append(view.Rows, rowView{
			Name:      d.Name,
			Email:     d.Email,
			CPF:       d.CPF,
			Status:    d.Status,
			DetailURL: driversPath + "/" + utils.OnlyDigits(d.CPF),
		})
	}
	return view
}

func (p *DriversPage) newDialog(driver models.Driver, scope *preview.Scope, editing bool) *dialogView {
	base := driversPath + "/" + utils.OnlyDigits(driver.CPF)
	d := &dialogView{
		Driver:     driver,
		Editing:    editing,
		EditURL:    base + "?edit=1",
		Action:     base,
		CloseURL:   base + "/close",
		PreviewURL: base + "/preview",
		CNHURL:     driver.SrcCNH,
		CRLVURL:    driver.SrcCRLV,
	}
	if token := scope.Token("src_cnh"); token != "" {
		d.CNHURL = "/preview/" + token
	}
	if token := scope.Token("src_crlv"); token != "" {
		d.CRLVURL = "/preview/" + token
	}
	return d
}

func driverValues(d models.Driver) map[string]string {
	values := addressValues(d.Address)
	values["name"] = d.Name
	values["cpf"] = d.CPF
	values["email"] = d.Email
	values["telephone"] = d.Telephone
	values["status"] = string(d.Status)
	if birth, ok := d.BirthDate(); ok {
		values["date_birth"] = birth.Format(models.DateLayout)
	}
	return values
}

// --- Handlers ---

func (p *DriversPage) list(w http.ResponseWriter, req *http.Request) {
	s, err := p.router.Visit(req, navigation.PageDrivers)
	if err != nil {
		p.internalError(w, req, err)
		return
	}
	// A listagem sem diálogo encerra o diálogo que estivesse aberto.
	s.CloseDialog()
	if req.URL.Query().Get("refresh") == "1" {
		p.drivers.InvalidateDrivers()
	}
	view := p.buildView(req.Context(), listing.ParseQuery(req.URL.Query(), p.pageSize))
	p.router.RenderPage(w, req, http.StatusOK, navigation.PageDrivers, ui.TemplateDrivers, view)
}

func (p *DriversPage) openDialog(w http.ResponseWriter, req *http.Request) {
	s, err := p.router.Visit(req, navigation.PageDrivers)
	if err != nil {
		p.internalError(w, req, err)
		return
	}
	cpf := utils.OnlyDigits(mux.Vars(req)["cpf"])
	driver, err := p.drivers.GetDriver(req.Context(), cpf)
	if err != nil {
		if !errors.Is(err, appErrors.ErrNotFound) {
			appLogger.Warnf("Falha ao abrir detalhes do motorista: %v", err)
		}
		s.PushToast(session.Toast{Title: toastUpdateErrorTitle, Description: "Motorista não encontrado.", Variant: session.ToastDestructive})
		http.Redirect(w, req, driversPath, http.StatusSeeOther)
		return
	}

	scope := s.OpenDialog(cpf, p.previews)
	editing := req.URL.Query().Get("edit") == "1"
	dialog := p.newDialog(*driver, scope, editing)
	if editing {
		dialog.Fields = ui.Fields(ui.EditDriverFields, driverValues(*driver), nil)
	}

	view := p.buildView(req.Context(), listing.ParseQuery(req.URL.Query(), p.pageSize))
	view.Dialog = dialog
	p.router.RenderPage(w, req, http.StatusOK, navigation.PageDrivers, ui.TemplateDrivers, view)
}

func (p *DriversPage) update(w http.ResponseWriter, req *http.Request) {
	s, err := session.FromContext(req.Context())
	if err != nil {
		p.internalError(w, req, err)
		return
	}
	cpf := utils.OnlyDigits(mux.Vars(req)["cpf"])
	driver, err := p.drivers.GetDriver(req.Context(), cpf)
	if err != nil {
		p.finishEdit(w, req, s, err)
		return
	}
	scope := s.OpenDialog(cpf, p.previews)

	if _, err := parseMultipart(w, req, p.maxUpload); err != nil {
		appLogger.Warnf("Falha ao ler formulário de edição: %v", err)
		p.renderDialogError(w, req, *driver, scope, nil, appErrors.NewValidationError("Não foi possível ler os arquivos enviados.", nil), http.StatusBadRequest)
		return
	}

	in := validation.DriverEditInput{
		Name:      req.PostFormValue("name"),
		Email:     req.PostFormValue("email"),
		CPF:       req.PostFormValue("cpf"),
		Telephone: req.PostFormValue("telephone"),
		DateBirth: req.PostFormValue("date_birth"),
		Status:    req.PostFormValue("status"),
		Address: validation.AddressInput{
			Street:  req.PostFormValue("street"),
			Number:  req.PostFormValue("number"),
			City:    req.PostFormValue("city"),
			State:   req.PostFormValue("state"),
			ZipCode: req.PostFormValue("zip_code"),
		},
	}
	// Arquivo não reenviado: usa o que foi escolhido na pré-visualização, se houver.
	if in.CNH, err = p.documentFor(req, scope, "src_cnh"); err == nil {
		in.CRLV, err = p.documentFor(req, scope, "src_crlv")
	}
	if err != nil {
		appLogger.Warnf("Falha ao ler documento da edição: %v", err)
		p.renderDialogError(w, req, *driver, scope, nil, appErrors.NewValidationError("Não foi possível ler os arquivos enviados.", nil), http.StatusBadRequest)
		return
	}

	upd, err := p.validator.ValidateDriverEdit(in)
	if err != nil {
		verr, _ := appErrors.AsValidation(err)
		values := map[string]string{}
		for k := range req.PostForm {
			values[k] = req.PostFormValue(k)
		}
		p.renderDialogError(w, req, *driver, scope, values, verr, http.StatusUnprocessableEntity)
		return
	}

	p.finishEdit(w, req, s, p.drivers.UpdateDriver(req.Context(), cpf, *upd, s))
}

// finishEdit fecha o diálogo (liberando as pré-visualizações) e volta para a listagem com o aviso do resultado.
func (p *DriversPage) finishEdit(w http.ResponseWriter, req *http.Request, s *session.FlowSession, err error) {
	s.CloseDialog()
	if err != nil {
		appLogger.Warnf("Falha ao atualizar motorista: %v", err)
		s.PushToast(session.Toast{Title: toastUpdateErrorTitle, Description: toastUpdateErrorDesc, Variant: session.ToastDestructive})
	} else {
		s.PushToast(session.Toast{Title: toastUpdateSuccessTitle, Description: toastUpdateSuccessDesc})
	}
	http.Redirect(w, req, driversPath, http.StatusSeeOther)
}

func (p *DriversPage) documentFor(req *http.Request, scope *preview.Scope, field string) (*models.DocumentFile, error) {
	file, err := readUpload(req, field)
	if err != nil || file != nil {
		return file, err
	}
	if staged, ok := scope.File(field); ok {
		return staged, nil
	}
	return nil, nil
}

func (p *DriversPage) renderDialogError(w http.ResponseWriter, req *http.Request, driver models.Driver, scope *preview.Scope, values map[string]string, verr *appErrors.ValidationError, status int) {
	if values == nil {
		values = driverValues(driver)
	}
	dialog := p.newDialog(driver, scope, true)
	var errs map[string]string
	if verr != nil {
		dialog.Summary = verr.Message
		errs = verr.Fields
	}
	dialog.Fields = ui.Fields(ui.EditDriverFields, values, errs)

	view := p.buildView(req.Context(), listing.ParseQuery(req.URL.Query(), p.pageSize))
	view.Dialog = dialog
	p.router.RenderPage(w, req, status, navigation.PageDrivers, ui.TemplateDrivers, view)
}

// uploadPreview valida um documento de substituição e o guarda para pré-visualização.
func (p *DriversPage) uploadPreview(w http.ResponseWriter, req *http.Request) {
	s, err := session.FromContext(req.Context())
	if err != nil {
		p.internalError(w, req, err)
		return
	}
	scope, ok := s.Dialog(utils.OnlyDigits(mux.Vars(req)["cpf"]))
	if !ok {
		ui.WriteJSON(w, http.StatusNotFound, map[string]string{"error": "Nenhum diálogo de edição aberto para este motorista."})
		return
	}

	if tooLarge, err := parseMultipart(w, req, p.maxUpload); err != nil {
		status := http.StatusBadRequest
		if tooLarge {
			status = http.StatusRequestEntityTooLarge
		}
		ui.WriteJSON(w, status, map[string]string{"error": "Não foi possível ler o arquivo enviado."})
		return
	}

	for _, field := range documentFields {
		file, err := readUpload(req, field)
		if err != nil {
			ui.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "Não foi possível ler o arquivo enviado."})
			return
		}
		if file == nil {
			continue
		}
		if err := p.validator.ValidateDocument(field, file); err != nil {
			verr, _ := appErrors.AsValidation(err)
			ui.WriteJSON(w, http.StatusUnprocessableEntity, map[string]string{"field": field, "error": verr.Field(field)})
			return
		}
		token, err := scope.Acquire(field, file)
		if err != nil {
			ui.WriteJSON(w, http.StatusConflict, map[string]string{"error": "O diálogo de edição foi fechado."})
			return
		}
		ui.WriteJSON(w, http.StatusOK, map[string]string{"field": field, "url": "/preview/" + token})
		return
	}
	ui.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "Arquivo é obrigatório"})
}

func (p *DriversPage) closeDialog(w http.ResponseWriter, req *http.Request) {
	s, err := session.FromContext(req.Context())
	if err != nil {
		p.internalError(w, req, err)
		return
	}
	s.CloseDialog()
	http.Redirect(w, req, driversPath, http.StatusSeeOther)
}

// servePreview entrega o documento apenas à sessão dona do diálogo que o guardou.
func (p *DriversPage) servePreview(w http.ResponseWriter, req *http.Request) {
	token := mux.Vars(req)["token"]
	s, err := session.FromContext(req.Context())
	if err != nil || !s.OwnsPreview(token) {
		http.NotFound(w, req)
		return
	}
	file, ok := p.previews.Get(token)
	if !ok {
		http.NotFound(w, req)
		return
	}
	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	if _, err := w.Write(file.Data); err != nil {
		appLogger.Debugf("Falha ao enviar pré-visualização: %v", err)
	}
}

// --- Exportação ---

func (p *DriversPage) exportXLSX(w http.ResponseWriter, req *http.Request) {
	p.export(w, req, "xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		func(w io.Writer, input utils.DataInput, opts *utils.ExportOptions) error {
			return utils.ExportToXLSX(w, []utils.DataInput{input}, opts)
		})
}

func (p *DriversPage) exportCSV(w http.ResponseWriter, req *http.Request) {
	p.export(w, req, "csv", "text/csv; charset=utf-8", utils.ExportToCSV)
}

// export gera o arquivo com todas as linhas filtradas e ordenadas (sem paginação).
func (p *DriversPage) export(w http.ResponseWriter, req *http.Request, ext, contentType string,
	write func(io.Writer, utils.DataInput, *utils.ExportOptions) error) {
	drivers, err := p.drivers.ListDrivers(req.Context())
	if err != nil {
		p.router.RenderError(w, req, http.StatusBadGateway, "Erro na exportação",
			"Erro ao carregar motoristas: "+appErrors.UserMessage(err, apiclient.MsgFetchDrivers))
		return
	}
	q := listing.ParseQuery(req.URL.Query(), p.pageSize)
	rows := listing.Apply(drivers, q).Matched

	opts := &utils.ExportOptions{ColumnWidth: 22}
	if p.maskExport {
		opts.Sanitize = true
		opts.SanitizeColumns = []string{"CPF", "Email"}
	}

	var buf bytes.Buffer
	if err := write(&buf, utils.NewDriversDataInput(rows, "Motoristas"), opts); err != nil {
		appLogger.Errorf("Falha ao exportar motoristas (%s): %v", ext, err)
		p.router.RenderError(w, req, http.StatusInternalServerError, "Erro na exportação", "Não foi possível gerar o arquivo.")
		return
	}
	p.logExport(req.Context(), ext, len(rows))

	filename := fmt.Sprintf("motoristas_%s.%s", time.Now().Format("20060102_150405"), ext)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if _, err := buf.WriteTo(w); err != nil {
		appLogger.Debugf("Falha ao enviar exportação: %v", err)
	}
}

func (p *DriversPage) logExport(ctx context.Context, ext string, count int) {
	if p.audit == nil {
		return
	}
	entry := models.AuditLogEntry{
		Action:      models.ActionDriverExport,
		Description: fmt.Sprintf("Exportação de %d motoristas em %s", count, ext),
		Severity:    "INFO",
		Success:     true,
		Metadata: models.JSONMetadata{
			"format": ext,
			"rows":   count,
			"masked": p.maskExport,
		},
	}
	if err := p.audit.LogAction(ctx, entry, actorFrom(ctx)); err != nil {
		appLogger.Warnf("Falha ao registrar exportação no log de auditoria: %v", err)
	}
}

func (p *DriversPage) internalError(w http.ResponseWriter, req *http.Request, err error) {
	appLogger.Errorf("Erro interno na página de motoristas: %v", err)
	p.router.RenderError(w, req, http.StatusInternalServerError, "Erro interno", "Não foi possível carregar a página. Tente novamente.")
}
