package session

import (
	"context"
	"crypto/sha256"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"

	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/core"
	appErrors "github.com/Dukorsa/APP_MOTORISTAS_GO/internal/core/errors"
	appLogger "github.com/Dukorsa/APP_MOTORISTAS_GO/internal/core/logger"
	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/preview"
	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/utils"
)

// CookieName é o nome do cookie assinado que carrega o ID da sessão.
const CookieName = "motoristas_sid"

// Manager gerencia as sessões dos visitantes. As sessões vivem apenas em memória.
type Manager struct {
	cfg       *core.Config
	codec     *securecookie.SecureCookie
	previews  *preview.Registry
	debouncer *utils.Debouncer
	now       func() time.Time

	sessions     map[string]*FlowSession
	lock         sync.RWMutex
	shutdownChan chan struct{}
	shutdownOnce sync.Once
	wg           sync.WaitGroup
}

// NewManager cria o gerenciador de sessões.
// `debouncer` (opcional) tem as chaves da sessão descartadas quando ela expira.
func NewManager(cfg *core.Config, previews *preview.Registry, debouncer *utils.Debouncer) *Manager {
	hashKey := sha256.Sum256([]byte(cfg.SecretKey))
	codec := securecookie.New(hashKey[:], nil)
	codec.MaxAge(int(cfg.SessionTimeout.Seconds()))

	return &Manager{
		cfg:          cfg,
		codec:        codec,
		previews:     previews,
		debouncer:    debouncer,
		now:          func() time.Time { return time.Now().UTC() },
		sessions:     make(map[string]*FlowSession),
		shutdownChan: make(chan struct{}),
	}
}

// Previews devolve o registro de pré-visualizações usado pelos diálogos.
func (m *Manager) Previews() *preview.Registry { return m.previews }

// StartCleanupGoroutine inicia uma goroutine para limpar sessões expiradas periodicamente.
func (m *Manager) StartCleanupGoroutine() {
	if !m.cfg.SessionCleanupEnabled {
		appLogger.Info("Limpeza de sessão em background desabilitada.")
		return
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(m.cfg.SessionCleanupInterval)
		defer ticker.Stop()

		appLogger.Infof("Goroutine de limpeza de sessões iniciada (intervalo: %v).", m.cfg.SessionCleanupInterval)
		for {
			select {
			case <-ticker.C:
				m.cleanupExpiredSessions()
			case <-m.shutdownChan:
				appLogger.Info("Goroutine de limpeza de sessões recebendo sinal de shutdown.")
				return
			}
		}
	}()
}

// Shutdown para a goroutine de limpeza e libera os recursos de todas as sessões.
func (m *Manager) Shutdown() {
	appLogger.Info("Iniciando shutdown do gerenciador de sessões...")
	m.shutdownOnce.Do(func() { close(m.shutdownChan) })
	m.wg.Wait()

	m.lock.Lock()
	for id, s := range m.sessions {
		m.dispose(id, s)
	}
	m.lock.Unlock()
	appLogger.Info("Gerenciador de sessões finalizado.")
}

// Start devolve a sessão do visitante, criando uma nova (e o cookie) se não houver sessão válida.
func (m *Manager) Start(w http.ResponseWriter, r *http.Request) *FlowSession {
	if s, err := m.Load(r); err == nil {
		return s
	}

	now := m.now()
	s := &FlowSession{
		ID:           uuid.NewString(),
		IPAddress:    clientIP(r),
		UserAgent:    r.UserAgent(),
		CreatedAt:    now,
		LastActivity: now,
	}

	encoded, err := m.codec.Encode(CookieName, s.ID)
	if err != nil {
		// Sem cookie a sessão vale só para esta requisição.
		appLogger.Errorf("Falha ao assinar cookie de sessão: %v", err)
		return s
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    encoded,
		Path:     "/",
		MaxAge:   int(m.cfg.SessionTimeout.Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})

	m.lock.Lock()
	m.sessions[s.ID] = s
	m.lock.Unlock()
	appLogger.Debugf("Sessão criada: ID=%s..., IP=%s", s.ID[:8], s.IPAddress)
	return s
}

// Load recupera a sessão indicada pelo cookie da requisição.
// Retorna ErrInvalidSession sem cookie válido e ErrSessionExpired se a sessão expirou.
func (m *Manager) Load(r *http.Request) (*FlowSession, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return nil, appErrors.WrapErrorf(appErrors.ErrInvalidSession, "cookie de sessão ausente")
	}
	var id string
	if err := m.codec.Decode(CookieName, cookie.Value, &id); err != nil {
		appLogger.Debugf("Cookie de sessão inválido: %v", err)
		return nil, appErrors.WrapErrorf(appErrors.ErrInvalidSession, "cookie de sessão inválido")
	}
	return m.Get(id)
}

// Get recupera uma sessão pelo ID e renova sua atividade.
func (m *Manager) Get(id string) (*FlowSession, error) {
	m.lock.RLock()
	s, exists := m.sessions[id]
	m.lock.RUnlock()
	if !exists {
		return nil, appErrors.WrapErrorf(appErrors.ErrInvalidSession, "sessão não encontrada")
	}

	now := m.now()
	if s.IsExpired(now, m.cfg.SessionTimeout) {
		m.lock.Lock()
		m.dispose(id, s)
		m.lock.Unlock()
		appLogger.Infof("Sessão %s... expirada. Removendo.", shortID(id))
		return nil, appErrors.ErrSessionExpired
	}
	s.touch(now)
	return s, nil
}

// Delete remove a sessão e libera seus recursos.
func (m *Manager) Delete(id string) {
	m.lock.Lock()
	defer m.lock.Unlock()
	if s, ok := m.sessions[id]; ok {
		m.dispose(id, s)
	}
}

// Count devolve a quantidade de sessões ativas.
func (m *Manager) Count() int {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return len(m.sessions)
}

// cleanupExpiredSessions é chamado pela goroutine de limpeza.
func (m *Manager) cleanupExpiredSessions() {
	m.lock.Lock()
	defer m.lock.Unlock()

	now := m.now()
	cleaned := 0
	for id, s := range m.sessions {
		if s.IsExpired(now, m.cfg.SessionTimeout) {
			m.dispose(id, s)
			cleaned++
		}
	}
	if cleaned > 0 {
		appLogger.Infof("Limpeza de sessões removeu %d sessões expiradas.", cleaned)
	} else {
		appLogger.Debug("Limpeza de sessões: Nenhuma sessão expirada encontrada.")
	}
}

// dispose remove a sessão do mapa. Deve ser chamado com m.lock travado.
func (m *Manager) dispose(id string, s *FlowSession) {
	delete(m.sessions, id)
	s.release()
	if m.debouncer != nil {
		m.debouncer.Forget(id)
	}
}

type sessionKey struct{}

// Middleware garante uma sessão para cada requisição e a anexa ao contexto.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := m.Start(w, r)
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
	})
}

// WithSession anexa a sessão ao contexto.
func WithSession(ctx context.Context, s *FlowSession) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// FromContext recupera a sessão anexada pelo Middleware.
func FromContext(ctx context.Context) (*FlowSession, error) {
	s, _ := ctx.Value(sessionKey{}).(*FlowSession)
	if s == nil {
		return nil, appErrors.WrapErrorf(appErrors.ErrConfiguration, "requisição sem sessão (Middleware ausente)")
	}
	return s, nil
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
