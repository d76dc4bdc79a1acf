package ui

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	appLogger "github.com/Dukorsa/APP_MOTORISTAS_GO/internal/core/logger"
	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/navigation"
	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/session"
	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/utils"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed static/*
var staticFS embed.FS

const layoutTemplate = "templates/layout.html"

// Templates de página; cada um define o bloco "content" usado pelo layout.
const (
	TemplateHome     = "home.html"
	TemplateDrivers  = "drivers.html"
	TemplateRegister = "register.html"
	TemplateError    = "error.html"
)

var pageTemplates = []string{TemplateHome, TemplateDrivers, TemplateRegister, TemplateError}

// PageData é o que o layout recebe em toda página.
type PageData struct {
	AppName string
	Title   string
	Nav     []navigation.NavItem
	Current navigation.PageID
	Toasts  []session.Toast
	Content any
}

// Renderer mantém os templates parseados na inicialização.
type Renderer struct {
	appName string
	fields  *FieldRenderer
	pages   map[string]*template.Template
}

// NewRenderer parseia o layout com cada template de página.
func NewRenderer(appName string) (*Renderer, error) {
	r := &Renderer{
		appName: appName,
		fields:  NewFieldRenderer(),
		pages:   make(map[string]*template.Template, len(pageTemplates)),
	}
	funcs := template.FuncMap{
		"field":     r.field,
		"maskCPF":   utils.MaskCPF,
		"maskPhone": utils.MaskPhone,
		"maskZip":   utils.ApplyZipMask,
	}
	for _, name := range pageTemplates {
		tmpl, err := template.New("layout.html").Funcs(funcs).ParseFS(templatesFS, layoutTemplate, "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("falha ao parsear template %s: %w", name, err)
		}
		r.pages[name] = tmpl
	}
	appLogger.Debugf("%d templates de página carregados", len(r.pages))
	return r, nil
}

func (r *Renderer) field(f FormField) (template.HTML, error) {
	return r.fields.Render(f.Descriptor, f.Value, f.Error)
}

// Render executa o template em memória e só então escreve a resposta,
// para que uma falha de template vire um 500 limpo.
func (r *Renderer) Render(w http.ResponseWriter, status int, name string, data PageData) {
	tmpl, ok := r.pages[name]
	if !ok {
		appLogger.Errorf("Template de página desconhecido: %s", name)
		http.Error(w, "Erro interno", http.StatusInternalServerError)
		return
	}
	if data.AppName == "" {
		data.AppName = r.appName
	}
	if data.Nav == nil {
		data.Nav = navigation.Sidebar()
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout.html", data); err != nil {
		appLogger.Errorf("Erro ao renderizar template %s: %v", name, err)
		http.Error(w, "Erro interno", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		appLogger.Debugf("Falha ao escrever resposta de %s: %v", name, err)
	}
}

// StaticHandler serve os arquivos embutidos em /static/.
func StaticHandler() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		appLogger.Fatalf("Arquivos estáticos ausentes do binário: %v", err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}

// WriteJSON escreve `v` como JSON com o status informado.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLogger.Debugf("Falha ao escrever JSON: %v", err)
	}
}
