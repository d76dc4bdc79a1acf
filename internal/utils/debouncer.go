package utils

import (
	"context"
	"sync"
	"time"

	appErrors "github.com/Dukorsa/APP_MOTORISTAS_GO/internal/core/errors"
)

// Debouncer agrupa chamadas rápidas por chave: só a última chamada dentro da janela executa,
// e o resultado de uma execução é descartado se outra chamada chegou enquanto ela rodava.
// Cada chamada recebe um token monotônico; apenas o token mais recente é considerado válido.
type Debouncer struct {
	delay time.Duration

	mu     sync.Mutex
	seq    uint64
	latest map[string]uint64
}

// NewDebouncer cria um Debouncer com a janela informada.
func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{
		delay:  delay,
		latest: make(map[string]uint64),
	}
}

// next emite um novo token para a chave. Tokens nunca se repetem, mesmo após Forget.
func (d *Debouncer) next(key string) uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seq++
	d.latest[key] = d.seq
	return d.seq
}

// isLatest indica se `token` ainda é o mais recente emitido para a chave.
func (d *Debouncer) isLatest(key string, token uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.latest[key] == token
}

// Forget descarta o estado da chave (ex: quando a sessão do visitante termina).
// Chamadas em andamento para a chave passam a ser tratadas como substituídas.
func (d *Debouncer) Forget(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.latest, key)
}

// Debounce executa `fn` para `key` respeitando a janela do Debouncer.
// Retorna appErrors.ErrSuperseded quando uma chamada mais nova para a mesma chave invalidou esta,
// antes ou depois da execução de `fn`.
func Debounce[T any](ctx context.Context, d *Debouncer, key string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	token := d.next(key)

	timer := time.NewTimer(d.delay)
	select {
	case <-ctx.Done():
		timer.Stop()
		return zero, ctx.Err()
	case <-timer.C:
	}

	if !d.isLatest(key, token) {
		return zero, appErrors.ErrSuperseded
	}

	result, err := fn(ctx)

	// Resposta atrasada de um token antigo não pode sobrescrever a de um token mais novo.
	if !d.isLatest(key, token) {
		return zero, appErrors.ErrSuperseded
	}
	if err != nil {
		return zero, err
	}
	return result, nil
}
