package pages

import (
	"net/http"

	"github.com/gorilla/mux"

	appLogger "github.com/Dukorsa/APP_MOTORISTAS_GO/internal/core/logger"
	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/navigation"
	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/session"
	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/ui"
)

// HomePage é a página inicial (Dashboard).
type HomePage struct {
	router *ui.Router
}

// NewHomePage cria a página inicial.
func NewHomePage(router *ui.Router) *HomePage {
	return &HomePage{router: router}
}

type homeView struct {
	CTAPath string
}

func (p *HomePage) ID() navigation.PageID { return navigation.PageHome }

func (p *HomePage) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/", p.show).Methods(http.MethodGet)
}

func (p *HomePage) OnNavigatedTo(*session.FlowSession)   {}
func (p *HomePage) OnNavigatedFrom(*session.FlowSession) {}

func (p *HomePage) show(w http.ResponseWriter, req *http.Request) {
	if _, err := p.router.Visit(req, navigation.PageHome); err != nil {
		appLogger.Errorf("Erro interno na página inicial: %v", err)
		p.router.RenderError(w, req, http.StatusInternalServerError, "Erro interno", "Não foi possível carregar a página.")
		return
	}
	p.router.RenderPage(w, req, http.StatusOK, navigation.PageHome, ui.TemplateHome, homeView{
		CTAPath: navigation.PageRegister.Path(),
	})
}
