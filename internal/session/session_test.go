package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/data/models"
	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/navigation"
	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/preview"
)

func TestRegistrationLifecycle(t *testing.T) {
	s := &FlowSession{ID: "s1"}

	_, ok := s.Registration()
	assert.False(t, ok)

	store := s.BeginRegistration()
	assert.Same(t, store, s.BeginRegistration())

	s.EndRegistration()
	assert.True(t, store.Closed())
	_, ok = s.Registration()
	assert.False(t, ok)

	assert.NotSame(t, store, s.BeginRegistration())
}

func TestDialogSwitchReleasesPreviousScope(t *testing.T) {
	reg := preview.NewRegistry(time.Minute)
	s := &FlowSession{ID: "s1"}

	first := s.OpenDialog("111", reg)
	assert.Same(t, first, s.OpenDialog("111", reg))

	second := s.OpenDialog("222", reg)
	assert.True(t, first.Released())
	assert.False(t, second.Released())

	_, ok := s.Dialog("111")
	assert.False(t, ok)
	got, ok := s.Dialog("222")
	require.True(t, ok)
	assert.Same(t, second, got)

	s.CloseDialog()
	assert.True(t, second.Released())
	_, ok = s.Dialog("222")
	assert.False(t, ok)
}

func TestToastsArePoppedOnce(t *testing.T) {
	s := &FlowSession{}
	s.PushToast(Toast{Title: "Sucesso!", Description: "Cadastro realizado com sucesso."})
	s.PushToast(Toast{Title: "Erro", Description: "x", Variant: ToastDestructive})

	toasts := s.PopToasts()
	require.Len(t, toasts, 2)
	assert.Equal(t, ToastDefault, toasts[0].Variant)
	assert.Equal(t, ToastDestructive, toasts[1].Variant)
	assert.Empty(t, s.PopToasts())
}

func TestSwitchPageReturnsPrevious(t *testing.T) {
	s := &FlowSession{}
	assert.Equal(t, navigation.PageNone, s.SwitchPage(navigation.PageRegister))
	assert.Equal(t, navigation.PageRegister, s.SwitchPage(navigation.PageHome))
}

func TestOwnsPreviewFollowsOpenDialog(t *testing.T) {
	reg := preview.NewRegistry(time.Minute)
	s := &FlowSession{ID: "s1"}
	assert.False(t, s.OwnsPreview("qualquer"))

	token, err := s.OpenDialog("111", reg).Acquire("src_crlv", &models.DocumentFile{ContentType: "image/png", Data: []byte("x")})
	require.NoError(t, err)
	assert.True(t, s.OwnsPreview(token))
	assert.False(t, (&FlowSession{ID: "s2"}).OwnsPreview(token))

	s.CloseDialog()
	assert.False(t, s.OwnsPreview(token))
}
