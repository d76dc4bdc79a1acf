// Package session mantém o estado por visitante: o cadastro em andamento, o diálogo de edição
// aberto e os avisos (toasts) a exibir na próxima página.
package session

import (
	"sync"
	"time"

	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/navigation"
	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/preview"
	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/wizard"
)

// Variantes de Toast.
const (
	ToastDefault     = "default"
	ToastDestructive = "destructive"
)

// Toast é um aviso exibido uma única vez ao visitante.
type Toast struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Variant     string `json:"variant"`
}

// FlowSession armazena informações sobre a sessão de um visitante.
type FlowSession struct {
	ID           string
	IPAddress    string
	UserAgent    string
	CreatedAt    time.Time
	LastActivity time.Time

	mu           sync.Mutex
	currentPage  navigation.PageID
	registration *wizard.FormStore
	dialogCPF    string
	dialog       *preview.Scope
	toasts       []Toast
}

// GetID implementa types.AuditActor.
func (s *FlowSession) GetID() string { return s.ID }

// GetIPAddress implementa types.AuditActor.
func (s *FlowSession) GetIPAddress() string { return s.IPAddress }

// GetUserAgent implementa types.AuditActor.
func (s *FlowSession) GetUserAgent() string { return s.UserAgent }

// IsExpired verifica se a sessão expirou com base no tempo de inatividade.
func (s *FlowSession) IsExpired(now time.Time, timeout time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.After(s.LastActivity.Add(timeout))
}

func (s *FlowSession) touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LastActivity = now
}

// SwitchPage registra a página atual do visitante e devolve a anterior.
func (s *FlowSession) SwitchPage(id navigation.PageID) navigation.PageID {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.currentPage
	s.currentPage = id
	return prev
}

// BeginRegistration devolve o cadastro em andamento, criando um novo se não houver.
func (s *FlowSession) BeginRegistration() *wizard.FormStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.registration == nil || s.registration.Closed() {
		s.registration = wizard.NewFormStore()
	}
	return s.registration
}

// Registration devolve o cadastro em andamento, se existir.
func (s *FlowSession) Registration() (*wizard.FormStore, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.registration == nil || s.registration.Closed() {
		return nil, false
	}
	return s.registration, true
}

// EndRegistration descarta o cadastro em andamento.
func (s *FlowSession) EndRegistration() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.registration != nil {
		s.registration.Close()
		s.registration = nil
	}
}

// OpenDialog abre (ou reaproveita) o diálogo de edição do motorista `cpf`.
// Um diálogo de outro motorista que ainda estivesse aberto é fechado antes.
func (s *FlowSession) OpenDialog(cpf string, registry *preview.Registry) *preview.Scope {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dialog != nil && !s.dialog.Released() && s.dialogCPF == cpf {
		return s.dialog
	}
	if s.dialog != nil {
		s.dialog.Release()
	}
	s.dialogCPF = cpf
	s.dialog = registry.NewScope()
	return s.dialog
}

// Dialog devolve o escopo do diálogo aberto para `cpf`.
func (s *FlowSession) Dialog(cpf string) (*preview.Scope, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dialog == nil || s.dialog.Released() || s.dialogCPF != cpf {
		return nil, false
	}
	return s.dialog, true
}

// OwnsPreview indica se `token` pertence ao diálogo aberto nesta sessão.
func (s *FlowSession) OwnsPreview(token string) bool {
	s.mu.Lock()
	scope := s.dialog
	s.mu.Unlock()
	return scope != nil && scope.Owns(token)
}

// CloseDialog fecha o diálogo aberto e libera suas pré-visualizações.
func (s *FlowSession) CloseDialog() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dialog != nil {
		s.dialog.Release()
		s.dialog = nil
		s.dialogCPF = ""
	}
}

// PushToast agenda um aviso para a próxima página renderizada.
func (s *FlowSession) PushToast(t Toast) {
	if t.Variant == "" {
		t.Variant = ToastDefault
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.toasts = append(s.toasts, t)
}

// PopToasts devolve e remove os avisos pendentes.
func (s *FlowSession) PopToasts() []Toast {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.toasts
	s.toasts = nil
	return out
}

// release libera tudo o que a sessão segura (usado na expiração).
func (s *FlowSession) release() {
	s.EndRegistration()
	s.CloseDialog()
}
