package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/Dukorsa/APP_MOTORISTAS_GO/internal/core/errors"
)

func TestViaCEPLookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ws/01001000/json/":
			_, _ = w.Write([]byte(`{"cep":"01001-000","logradouro":"Praça da Sé","localidade":"São Paulo","uf":"SP"}`))
		case "/ws/99999999/json/":
			_, _ = w.Write([]byte(`{"erro": true}`))
		case "/ws/88888888/json/":
			_, _ = w.Write([]byte(`{"erro": "true"}`))
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
	defer srv.Close()

	svc := NewViaCEPService(srv.URL, time.Second, 100)

	addr, err := svc.Lookup(context.Background(), "01001-000")
	require.NoError(t, err)
	assert.Equal(t, "Praça da Sé", addr.Street)
	assert.Equal(t, "São Paulo", addr.City)
	assert.Equal(t, "SP", addr.State)

	_, err = svc.Lookup(context.Background(), "99999-999")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	_, err = svc.Lookup(context.Background(), "88888888")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	_, err = svc.Lookup(context.Background(), "12345678")
	assert.True(t, errors.Is(err, appErrors.ErrExternalService))
}

func TestViaCEPLookupRejectsIncompleteCEP(t *testing.T) {
	svc := NewViaCEPService("http://127.0.0.1:1", time.Second, 1)
	_, err := svc.Lookup(context.Background(), "0100")
	assert.True(t, errors.Is(err, appErrors.ErrInvalidInput))
}

func TestViaCEPLookupHonorsCanceledContext(t *testing.T) {
	svc := NewViaCEPService("http://127.0.0.1:1", time.Second, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.Lookup(ctx, "01001000")
	assert.True(t, errors.Is(err, appErrors.ErrExternalService))
}
