// Package wizard mantém o estado do cadastro em etapas de um visitante
// e as transições entre as etapas (dados pessoais → endereço → documentos).
package wizard

import (
	"context"
	"sync"

	appErrors "github.com/Dukorsa/APP_MOTORISTAS_GO/internal/core/errors"
	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/data/models"
)

// StepID identifica a etapa atual do cadastro (base 0).
type StepID int

const (
	StepPersonalInfo StepID = iota
	StepAddress
	StepDocuments
)

// TotalSteps é a quantidade de etapas do cadastro.
const TotalSteps = 3

// Number devolve a etapa em base 1, para exibição ("Etapa 2 de 3").
func (s StepID) Number() int { return int(s) + 1 }

func (s StepID) String() string {
	switch s {
	case StepPersonalInfo:
		return "Dados Pessoais"
	case StepAddress:
		return "Endereço"
	case StepDocuments:
		return "Documentos"
	default:
		return "Etapa desconhecida"
	}
}

// FormStore guarda a etapa atual e os dados parciais do cadastro.
// Não valida nada: quem grava aqui já validou a etapa.
type FormStore struct {
	mu     sync.RWMutex
	step   StepID
	data   models.DriverFormData
	closed bool
}

// NewFormStore cria um store vazio na etapa 0.
func NewFormStore() *FormStore {
	return &FormStore{step: StepPersonalInfo}
}

// Step devolve a etapa atual.
func (s *FormStore) Step() StepID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.step
}

// SetStep substitui a etapa atual.
func (s *FormStore) SetStep(step StepID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.step = step
}

// Data devolve uma cópia dos dados acumulados.
func (s *FormStore) Data() models.DriverFormData {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out models.DriverFormData
	if s.data.PersonalInfo != nil {
		p := *s.data.PersonalInfo
		out.PersonalInfo = &p
	}
	if s.data.Address != nil {
		a := *s.data.Address
		out.Address = &a
	}
	if s.data.Documents != nil {
		d := *s.data.Documents
		out.Documents = &d
	}
	return out
}

// Merge aplica as partes não-nil de `part` sobre o estado atual; partes nil são preservadas.
func (s *FormStore) Merge(part models.DriverFormData) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if part.PersonalInfo != nil {
		p := *part.PersonalInfo
		s.data.PersonalInfo = &p
	}
	if part.Address != nil {
		a := *part.Address
		s.data.Address = &a
	}
	if part.Documents != nil {
		d := *part.Documents
		s.data.Documents = &d
	}
}

// Close encerra a vida útil do store. Após Close, FromContext passa a falhar.
func (s *FormStore) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.data = models.DriverFormData{}
}

// Closed indica se o store já foi encerrado.
func (s *FormStore) Closed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

type storeKey struct{}

// WithStore anexa o store ao contexto da requisição.
func WithStore(ctx context.Context, store *FormStore) context.Context {
	return context.WithValue(ctx, storeKey{}, store)
}

// FromContext recupera o store do contexto.
// Sem store anexado (ou com o store encerrado) o erro é de configuração: o chamador está fora do fluxo de cadastro.
func FromContext(ctx context.Context) (*FormStore, error) {
	store, _ := ctx.Value(storeKey{}).(*FormStore)
	if store == nil {
		return nil, appErrors.WrapErrorf(appErrors.ErrConfiguration, "FormStore acessado fora do fluxo de cadastro")
	}
	if store.Closed() {
		return nil, appErrors.WrapErrorf(appErrors.ErrConfiguration, "FormStore acessado após o fim do fluxo de cadastro")
	}
	return store, nil
}
