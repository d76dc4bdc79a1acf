package wizard

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/data/models"
)

func TestMergePreservesUntouchedSlices(t *testing.T) {
	s := NewFormStore()
	s.Merge(models.DriverFormData{PersonalInfo: &models.PersonalInfo{Name: "Ana"}})
	s.Merge(models.DriverFormData{Address: &models.Address{City: "Pelotas"}})

	data := s.Data()
	require.NotNil(t, data.PersonalInfo)
	require.NotNil(t, data.Address)
	assert.Equal(t, "Ana", data.PersonalInfo.Name)
	assert.Equal(t, "Pelotas", data.Address.City)
	assert.Nil(t, data.Documents)
}

func TestDataReturnsCopy(t *testing.T) {
	s := NewFormStore()
	s.Merge(models.DriverFormData{Address: &models.Address{City: "Pelotas"}})

	data := s.Data()
	data.Address.City = "Outra"
	assert.Equal(t, "Pelotas", s.Data().Address.City)
}

func TestStepSetterAndNumber(t *testing.T) {
	s := NewFormStore()
	assert.Equal(t, StepPersonalInfo, s.Step())
	s.SetStep(StepDocuments)
	assert.Equal(t, StepDocuments, s.Step())
	assert.Equal(t, 3, s.Step().Number())
	assert.Equal(t, "Documentos", s.Step().String())
}

func TestFromContext(t *testing.T) {
	_, err := FromContext(context.Background())
	assert.Error(t, err)

	s := NewFormStore()
	got, err := FromContext(WithStore(context.Background(), s))
	require.NoError(t, err)
	assert.Same(t, s, got)

	s.Close()
	_, err = FromContext(WithStore(context.Background(), s))
	assert.Error(t, err)
}
