package pages

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	appErrors "github.com/Dukorsa/APP_MOTORISTAS_GO/internal/core/errors"
	appLogger "github.com/Dukorsa/APP_MOTORISTAS_GO/internal/core/logger"
	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/data/models"
	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/navigation"
	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/services"
	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/session"
	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/ui"
	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/utils"
	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/validation"
	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/wizard"
)

const (
	registerPath = "/driver/register"

	toastCreateSuccessTitle = "Sucesso!"
	toastCreateSuccessDesc  = "Cadastro realizado com sucesso."
	toastCreateErrorTitle   = "Erro no cadastro"
)

// RegistrationSubmitter liga o fluxo de cadastro ao serviço de motoristas,
// usando a sessão do visitante como origem no log de auditoria.
func RegistrationSubmitter(svc services.DriverService) wizard.Submitter {
	return wizard.SubmitterFunc(func(ctx context.Context, data models.DriverFormData) error {
		return svc.StoreDriver(ctx, data, actorFrom(ctx))
	})
}

// RegisterPage é o cadastro de motorista em três etapas.
type RegisterPage struct {
	router    *ui.Router
	flow      *wizard.Flow
	cep       services.CEPService
	debouncer *utils.Debouncer
	maxUpload int64
}

// NewRegisterPage cria a página de cadastro.
func NewRegisterPage(router *ui.Router, flow *wizard.Flow, cep services.CEPService, debouncer *utils.Debouncer) *RegisterPage {
	if router == nil || flow == nil || cep == nil || debouncer == nil {
		appLogger.Fatalf("Dependências nulas fornecidas para NewRegisterPage")
	}
	return &RegisterPage{
		router:    router,
		flow:      flow,
		cep:       cep,
		debouncer: debouncer,
		maxUpload: router.GetConfig().MaxUploadBytes,
	}
}

func (p *RegisterPage) ID() navigation.PageID { return navigation.PageRegister }

func (p *RegisterPage) RegisterRoutes(r *mux.Router) {
	r.HandleFunc(registerPath, p.show).Methods(http.MethodGet)
	r.HandleFunc(registerPath+"/personal", p.submitPersonal).Methods(http.MethodPost)
	r.HandleFunc(registerPath+"/address", p.submitAddress).Methods(http.MethodPost)
	r.HandleFunc(registerPath+"/documents", p.submitDocuments).Methods(http.MethodPost)
	r.HandleFunc(registerPath+"/back", p.back).Methods(http.MethodPost)
	r.HandleFunc(registerPath+"/cep", p.lookupCEP).Methods(http.MethodPost)
}

func (p *RegisterPage) OnNavigatedTo(s *session.FlowSession) {
	s.BeginRegistration()
}

// OnNavigatedFrom descarta o cadastro em andamento ao sair da página.
func (p *RegisterPage) OnNavigatedFrom(s *session.FlowSession) {
	if _, ok := s.Registration(); ok {
		appLogger.Debugf("Cadastro em andamento descartado ao sair da página")
	}
	s.EndRegistration()
}

// --- Visão ---

type stepItem struct {
	Number int
	Label  string
	Active bool
	Done   bool
}

type registerView struct {
	Steps       []stepItem
	StepNumber  int
	TotalSteps  int
	StepLabel   string
	Progress    int
	Action      string
	BackAction  string
	CanGoBack   bool
	Multipart   bool
	CEPLookup   string
	SubmitLabel string
	Summary     string
	Fields      []ui.FormField
}

func (p *RegisterPage) render(w http.ResponseWriter, req *http.Request, status int, store *wizard.FormStore, values map[string]string, verr *appErrors.ValidationError) {
	step := store.Step()
	if values == nil {
		values = storedValues(step, store.Data())
	}
	var errs map[string]string
	view := registerView{
		StepNumber:  step.Number(),
		TotalSteps:  wizard.TotalSteps,
		StepLabel:   step.String(),
		Progress:    step.Number() * 100 / wizard.TotalSteps,
		BackAction:  registerPath + "/back",
		CanGoBack:   step > wizard.StepPersonalInfo,
		SubmitLabel: "Próximo",
	}
	if verr != nil {
		errs = verr.Fields
		view.Summary = verr.Message
	}
	for i := 0; i < wizard.TotalSteps; i++ {
		id := wizard.StepID(i)
		view.Steps = append(view.Steps, stepItem{
			Number: id.Number(),
			Label:  id.String(),
			Active: id == step,
			Done:   id < step,
		})
	}

	switch step {
	case wizard.StepPersonalInfo:
		view.Action = registerPath + "/personal"
		view.Fields = ui.Fields(ui.PersonalInfoFields, values, errs)
	case wizard.StepAddress:
		view.Action = registerPath + "/address"
		view.CEPLookup = registerPath + "/cep"
		view.Fields = ui.Fields(ui.AddressFields, values, errs)
	default:
		view.Action = registerPath + "/documents"
		view.Multipart = true
		view.SubmitLabel = "Finalizar Cadastro"
		view.Fields = ui.Fields(ui.DocumentFields, values, errs)
	}

	p.router.RenderPage(w, req, status, navigation.PageRegister, ui.TemplateRegister, view)
}

// storedValues preenche o formulário da etapa com o que já foi aceito (ex: ao voltar uma etapa).
func storedValues(step wizard.StepID, data models.DriverFormData) map[string]string {
	values := make(map[string]string)
	switch step {
	case wizard.StepPersonalInfo:
		if info := data.PersonalInfo; info != nil {
			values["name"] = info.Name
			values["email"] = info.Email
			values["cpf"] = info.CPF
			values["phone"] = info.Phone
			values["date_birth"] = info.DateBirth.Format(models.DateLayout)
		}
	case wizard.StepAddress:
		if addr := data.Address; addr != nil {
			values = addressValues(*addr)
		}
	case wizard.StepDocuments:
		if docs := data.Documents; docs != nil {
			if docs.CNH != nil {
				values["src_cnh"] = docs.CNH.FileName
			}
			if docs.CRLV != nil {
				values["src_crlv"] = docs.CRLV.FileName
			}
		}
	}
	return values
}

func addressValues(addr models.Address) map[string]string {
	return map[string]string{
		"street":   addr.Street,
		"number":   addr.Number,
		"city":     addr.City,
		"state":    addr.State,
		"zip_code": addr.ZipCode,
	}
}

// --- Handlers ---

func (p *RegisterPage) show(w http.ResponseWriter, req *http.Request) {
	s, err := p.router.Visit(req, navigation.PageRegister)
	if err != nil {
		p.configError(w, req, err)
		return
	}
	p.render(w, req, http.StatusOK, s.BeginRegistration(), nil, nil)
}

// begin recupera o cadastro da sessão. Sem cadastro ativo (descartado ou expirado)
// o visitante é mandado de volta ao início do fluxo.
func (p *RegisterPage) begin(w http.ResponseWriter, req *http.Request) (*session.FlowSession, *wizard.FormStore, context.Context, bool) {
	s, err := session.FromContext(req.Context())
	if err != nil {
		p.configError(w, req, err)
		return nil, nil, nil, false
	}
	store, ok := s.Registration()
	if !ok {
		http.Redirect(w, req, registerPath, http.StatusSeeOther)
		return nil, nil, nil, false
	}
	return s, store, wizard.WithStore(req.Context(), store), true
}

func (p *RegisterPage) submitPersonal(w http.ResponseWriter, req *http.Request) {
	_, store, ctx, ok := p.begin(w, req)
	if !ok {
		return
	}
	in := validation.PersonalInfoInput{
		Name:      req.PostFormValue("name"),
		Email:     req.PostFormValue("email"),
		CPF:       req.PostFormValue("cpf"),
		Phone:     req.PostFormValue("phone"),
		DateBirth: req.PostFormValue("date_birth"),
	}
	err := p.flow.SubmitPersonalInfo(ctx, in)
	p.afterStep(w, req, store, err, map[string]string{
		"name":       in.Name,
		"email":      in.Email,
		"cpf":        in.CPF,
		"phone":      in.Phone,
		"date_birth": in.DateBirth,
	})
}

func (p *RegisterPage) submitAddress(w http.ResponseWriter, req *http.Request) {
	_, store, ctx, ok := p.begin(w, req)
	if !ok {
		return
	}
	in := validation.AddressInput{
		Street:  req.PostFormValue("street"),
		Number:  req.PostFormValue("number"),
		City:    req.PostFormValue("city"),
		State:   req.PostFormValue("state"),
		ZipCode: req.PostFormValue("zip_code"),
	}
	err := p.flow.SubmitAddress(ctx, in)
	p.afterStep(w, req, store, err, addressValues(models.Address{
		Street: in.Street, Number: in.Number, City: in.City, State: in.State, ZipCode: in.ZipCode,
	}))
}

// afterStep trata o resultado das etapas 0 e 1.
func (p *RegisterPage) afterStep(w http.ResponseWriter, req *http.Request, store *wizard.FormStore, err error, values map[string]string) {
	if err == nil {
		http.Redirect(w, req, registerPath, http.StatusSeeOther)
		return
	}
	if verr, ok := appErrors.AsValidation(err); ok {
		p.render(w, req, http.StatusUnprocessableEntity, store, values, verr)
		return
	}
	if errors.Is(err, appErrors.ErrInvalidInput) {
		// Formulário de uma etapa que não é a atual (ex: aba antiga); mostra a etapa correta.
		appLogger.Debugf("Envio fora de etapa: %v", err)
		http.Redirect(w, req, registerPath, http.StatusSeeOther)
		return
	}
	p.configError(w, req, err)
}

func (p *RegisterPage) submitDocuments(w http.ResponseWriter, req *http.Request) {
	s, store, ctx, ok := p.begin(w, req)
	if !ok {
		return
	}

	tooLarge, err := parseMultipart(w, req, p.maxUpload)
	if err != nil {
		status, msg := http.StatusBadRequest, "Não foi possível ler os arquivos enviados."
		if tooLarge {
			status, msg = http.StatusRequestEntityTooLarge, "Os arquivos enviados excedem o tamanho máximo permitido."
		}
		appLogger.Warnf("Falha ao ler formulário de documentos: %v", err)
		p.render(w, req, status, store, nil, appErrors.NewValidationError(msg, nil))
		return
	}

	var in validation.DocumentsInput
	if in.CNH, err = readUpload(req, "src_cnh"); err == nil {
		in.CRLV, err = readUpload(req, "src_crlv")
	}
	if err != nil {
		appLogger.Warnf("Falha ao ler documento enviado: %v", err)
		p.render(w, req, http.StatusBadRequest, store, nil, appErrors.NewValidationError("Não foi possível ler os arquivos enviados.", nil))
		return
	}

	err = p.flow.SubmitDocuments(ctx, in)
	switch {
	case err == nil:
		s.PushToast(session.Toast{Title: toastCreateSuccessTitle, Description: toastCreateSuccessDesc})
		s.EndRegistration()
		http.Redirect(w, req, navigation.PageHome.Path(), http.StatusSeeOther)
	case errors.Is(err, appErrors.ErrValidation):
		verr, _ := appErrors.AsValidation(err)
		p.render(w, req, http.StatusUnprocessableEntity, store, nil, verr)
	case errors.Is(err, appErrors.ErrConflict):
		s.PushToast(session.Toast{Title: toastCreateErrorTitle, Description: appErrors.UserMessage(err, ""), Variant: session.ToastDestructive})
		p.render(w, req, http.StatusConflict, store, nil, nil)
	case errors.Is(err, appErrors.ErrExternalService):
		s.PushToast(session.Toast{Title: toastCreateErrorTitle, Description: appErrors.UserMessage(err, "Erro ao cadastrar motorista"), Variant: session.ToastDestructive})
		p.render(w, req, http.StatusBadGateway, store, nil, nil)
	case errors.Is(err, appErrors.ErrInvalidInput):
		http.Redirect(w, req, registerPath, http.StatusSeeOther)
	default:
		p.configError(w, req, err)
	}
}

func (p *RegisterPage) back(w http.ResponseWriter, req *http.Request) {
	_, _, ctx, ok := p.begin(w, req)
	if !ok {
		return
	}
	if err := p.flow.Back(ctx); err != nil {
		p.configError(w, req, err)
		return
	}
	http.Redirect(w, req, registerPath, http.StatusSeeOther)
}

// lookupCEP preenche rua, cidade e estado a partir do CEP. Qualquer falha responde 204 sem corpo.
func (p *RegisterPage) lookupCEP(w http.ResponseWriter, req *http.Request) {
	s, err := session.FromContext(req.Context())
	if err != nil {
		p.configError(w, req, err)
		return
	}

	var body struct {
		ZipCode string `json:"zip_code"`
	}
	if err := json.NewDecoder(io.LimitReader(req.Body, 1<<10)).Decode(&body); err != nil {
		http.Error(w, "JSON mal formado", http.StatusBadRequest)
		return
	}

	masked := utils.ApplyZipMask(body.ZipCode)
	if !utils.IsCompleteZip(masked) {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	addr, err := utils.Debounce(req.Context(), p.debouncer, s.ID, func(ctx context.Context) (*services.CEPAddress, error) {
		return p.cep.Lookup(ctx, masked)
	})
	if err != nil {
		if !errors.Is(err, appErrors.ErrSuperseded) {
			appLogger.Debugf("Consulta de CEP %s sem resultado: %v", masked, err)
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}
	ui.WriteJSON(w, http.StatusOK, addr)
}

func (p *RegisterPage) configError(w http.ResponseWriter, req *http.Request, err error) {
	appLogger.Errorf("Erro interno no cadastro: %v", err)
	p.router.RenderError(w, req, http.StatusInternalServerError, "Erro interno", "Não foi possível continuar o cadastro. Tente novamente.")
}
