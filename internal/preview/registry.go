// Package preview guarda temporariamente os documentos de substituição escolhidos no diálogo
// de edição, servidos em /preview/{token} enquanto o diálogo estiver aberto.
package preview

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	appErrors "github.com/Dukorsa/APP_MOTORISTAS_GO/internal/core/errors"
	appLogger "github.com/Dukorsa/APP_MOTORISTAS_GO/internal/core/logger"
	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/data/models"
)

// Registry mapeia tokens de pré-visualização para arquivos em memória.
// Cada handle é liberado pelo Scope dono; o TTL só cobre diálogos abandonados.
type Registry struct {
	items *cache.Cache
}

// NewRegistry cria um Registry cujos handles expiram após `ttl` sem liberação.
func NewRegistry(ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	items := cache.New(ttl, ttl/2)
	items.OnEvicted(func(token string, _ interface{}) {
		appLogger.Debugf("Pré-visualização %s liberada", token)
	})
	return &Registry{items: items}
}

// Get devolve o arquivo associado ao token.
func (r *Registry) Get(token string) (*models.DocumentFile, bool) {
	v, found := r.items.Get(token)
	if !found {
		return nil, false
	}
	file := v.(models.DocumentFile)
	return &file, true
}

// Len devolve a quantidade de handles vivos.
func (r *Registry) Len() int {
	return r.items.ItemCount()
}

// NewScope abre um escopo de pré-visualização (um por diálogo aberto).
func (r *Registry) NewScope() *Scope {
	return &Scope{registry: r, byField: make(map[string]string)}
}

// Scope agrupa os handles de um diálogo. Release libera todos de uma vez.
type Scope struct {
	registry *Registry

	mu       sync.Mutex
	byField  map[string]string
	released bool
}

// Acquire registra o arquivo de `field` e devolve o token da pré-visualização.
// Um novo arquivo para o mesmo campo libera o handle anterior.
func (s *Scope) Acquire(field string, file *models.DocumentFile) (string, error) {
	if file == nil {
		return "", appErrors.WrapErrorf(appErrors.ErrInvalidInput, "arquivo de pré-visualização ausente")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return "", appErrors.WrapErrorf(appErrors.ErrInvalidSession, "diálogo de edição já foi fechado")
	}

	if old, ok := s.byField[field]; ok {
		s.registry.items.Delete(old)
	}
	token := uuid.NewString()
	s.registry.items.SetDefault(token, *file)
	s.byField[field] = token
	return token, nil
}

// Token devolve o token atual de `field`, ou "" se não houver pré-visualização.
func (s *Scope) Token(field string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byField[field]
}

// Owns indica se `token` é uma pré-visualização viva deste escopo.
func (s *Scope) Owns(token string) bool {
	if token == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.byField {
		if t == token {
			return true
		}
	}
	return false
}

// File devolve o arquivo de substituição escolhido para `field`, se ainda estiver vivo.
func (s *Scope) File(field string) (*models.DocumentFile, bool) {
	token := s.Token(field)
	if token == "" {
		return nil, false
	}
	return s.registry.Get(token)
}

// Release libera todos os handles do escopo. Pode ser chamado mais de uma vez.
func (s *Scope) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return
	}
	for _, token := range s.byField {
		s.registry.items.Delete(token)
	}
	s.byField = map[string]string{}
	s.released = true
}

// Released indica se o escopo já foi liberado.
func (s *Scope) Released() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.released
}
