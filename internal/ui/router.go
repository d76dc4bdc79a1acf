package ui

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/core"
	appLogger "github.com/Dukorsa/APP_MOTORISTAS_GO/internal/core/logger"
	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/navigation"
	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/session"
)

// Routes é qualquer componente que registra rotas HTTP (páginas e endpoints JSON).
type Routes interface {
	RegisterRoutes(r *mux.Router)
}

// Page define a interface que cada página da aplicação deve implementar.
type Page interface {
	Routes
	// ID retorna o PageID único desta página.
	ID() navigation.PageID
	// OnNavigatedTo é chamado quando a página se torna a página ativa do visitante.
	OnNavigatedTo(s *session.FlowSession)
	// OnNavigatedFrom é chamado quando o visitante navega para outra página.
	OnNavigatedFrom(s *session.FlowSession)
}

// Router gerencia as páginas e a navegação de cada visitante entre elas.
type Router struct {
	cfg      *core.Config
	sessions *session.Manager
	renderer *Renderer

	root  *mux.Router
	app   *mux.Router
	pages map[navigation.PageID]Page
}

// NewRouter cria uma nova instância do Router.
func NewRouter(cfg *core.Config, sessions *session.Manager, renderer *Renderer) *Router {
	if cfg == nil || sessions == nil || renderer == nil {
		appLogger.Fatalf("Dependências nulas fornecidas para NewRouter")
	}
	r := &Router{
		cfg:      cfg,
		sessions: sessions,
		renderer: renderer,
		root:     mux.NewRouter(),
		pages:    make(map[navigation.PageID]Page),
	}

	r.root.PathPrefix("/static/").Handler(StaticHandler()).Methods(http.MethodGet)
	r.root.HandleFunc("/health", r.health).Methods(http.MethodGet)

	// Tudo o que não é estático passa pela sessão do visitante.
	r.app = r.root.NewRoute().Subrouter()
	r.app.Use(sessions.Middleware)

	r.root.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		r.RenderError(w, req, http.StatusNotFound, "Página não encontrada", "O endereço acessado não existe.")
	})
	return r
}

// Register associa a página ao seu PageID e registra suas rotas.
func (r *Router) Register(page Page) {
	if page == nil {
		appLogger.Warn("Tentativa de registrar uma página nula")
		return
	}
	id := page.ID()
	if _, exists := r.pages[id]; exists {
		appLogger.Warnf("Substituindo página já registrada para ID: %v", id)
	}
	r.pages[id] = page
	page.RegisterRoutes(r.app)
	appLogger.Debugf("Página registrada: ID=%v, Tipo=%T", id, page)
}

// Mount registra rotas que não são páginas (ex: endpoints JSON).
func (r *Router) Mount(routes Routes) {
	routes.RegisterRoutes(r.app)
}

// NavigateTo muda a página ativa do visitante, notificando a página antiga e a nova.
// Permanecer na mesma página (recarregar, paginar a tabela) não dispara os callbacks.
func (r *Router) NavigateTo(s *session.FlowSession, id navigation.PageID) {
	prev := s.SwitchPage(id)
	if prev == id {
		return
	}
	appLogger.Debugf("Sessão %s: navegando de %v para %v", shortSessionID(s.ID), prev, id)

	if oldPage, exists := r.pages[prev]; exists {
		oldPage.OnNavigatedFrom(s)
	}
	if newPage, exists := r.pages[id]; exists {
		newPage.OnNavigatedTo(s)
	} else {
		appLogger.Errorf("Navegação para página não registrada: ID=%v", id)
	}
}

// Visit recupera a sessão da requisição e marca `id` como a página ativa.
func (r *Router) Visit(req *http.Request, id navigation.PageID) (*session.FlowSession, error) {
	s, err := session.FromContext(req.Context())
	if err != nil {
		return nil, err
	}
	r.NavigateTo(s, id)
	return s, nil
}

// RenderPage renderiza a página com o layout, consumindo os avisos pendentes da sessão.
func (r *Router) RenderPage(w http.ResponseWriter, req *http.Request, status int, id navigation.PageID, tmpl string, content any) {
	data := PageData{
		Title:   id.Title(),
		Current: id,
		Content: content,
	}
	if s, err := session.FromContext(req.Context()); err == nil {
		data.Toasts = s.PopToasts()
	}
	r.renderer.Render(w, status, tmpl, data)
}

// ErrorContent é o conteúdo do template de erro.
type ErrorContent struct {
	Heading string
	Message string
}

// RenderError renderiza a página de erro genérica.
func (r *Router) RenderError(w http.ResponseWriter, req *http.Request, status int, heading, message string) {
	r.RenderPage(w, req, status, navigation.PageNone, TemplateError, ErrorContent{Heading: heading, Message: message})
}

// Handler monta a cadeia de middlewares: CORS, log de acesso, recuperação de panics e o roteador.
func (r *Router) Handler() http.Handler {
	co := cors.New(cors.Options{
		AllowedOrigins:   r.cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
	})
	return co.Handler(accessLog(r.recoverer(r.root)))
}

func (r *Router) health(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"app":      r.cfg.AppName,
		"version":  r.cfg.AppVersion,
		"sessions": r.sessions.Count(),
	})
}

func (r *Router) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				appLogger.Errorf("Panic ao atender %s %s: %v", req.Method, req.URL.Path, rec)
				r.RenderError(w, req, http.StatusInternalServerError, "Erro interno", "Ocorreu um erro inesperado. Tente novamente.")
			}
		}()
		next.ServeHTTP(w, req)
	})
}

// statusRecorder guarda o status escrito pelo handler para o log de acesso.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, req)

		entry := appLogger.WithFields(logrus.Fields{
			"method":      req.Method,
			"path":        req.URL.Path,
			"status":      rec.status,
			"duration_ms": time.Since(start).Milliseconds(),
		})
		if rec.status >= http.StatusInternalServerError {
			entry.Warn("requisição HTTP com erro")
		} else {
			entry.Debug("requisição HTTP")
		}
	})
}

// GetConfig retorna as configurações da aplicação.
func (r *Router) GetConfig() *core.Config { return r.cfg }

// SessionManager retorna o gerenciador de sessões.
func (r *Router) SessionManager() *session.Manager { return r.sessions }

func shortSessionID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
