package wizard

import (
	"context"

	appErrors "github.com/Dukorsa/APP_MOTORISTAS_GO/internal/core/errors"
	appLogger "github.com/Dukorsa/APP_MOTORISTAS_GO/internal/core/logger"
	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/data/models"
	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/validation"
)

// Submitter envia o cadastro completo (pipeline de submissão).
type Submitter interface {
	Submit(ctx context.Context, data models.DriverFormData) error
}

// SubmitterFunc adapta uma função a Submitter.
type SubmitterFunc func(ctx context.Context, data models.DriverFormData) error

// Submit chama f(ctx, data).
func (f SubmitterFunc) Submit(ctx context.Context, data models.DriverFormData) error {
	return f(ctx, data)
}

// Flow implementa as transições do cadastro sobre o FormStore presente no contexto.
type Flow struct {
	validator *validation.Validator
	submitter Submitter
}

// NewFlow cria o fluxo de cadastro.
func NewFlow(v *validation.Validator, submitter Submitter) *Flow {
	if v == nil || submitter == nil {
		appLogger.Fatalf("Validator e Submitter são obrigatórios para NewFlow")
	}
	return &Flow{validator: v, submitter: submitter}
}

// SubmitPersonalInfo valida a etapa 0 e avança para o endereço.
// Em caso de erro o store não é alterado.
func (f *Flow) SubmitPersonalInfo(ctx context.Context, in validation.PersonalInfoInput) error {
	store, err := f.storeAt(ctx, StepPersonalInfo)
	if err != nil {
		return err
	}
	info, err := f.validator.ValidatePersonalInfo(in)
	if err != nil {
		return err
	}
	store.Merge(models.DriverFormData{PersonalInfo: info})
	store.SetStep(StepAddress)
	return nil
}

// SubmitAddress valida a etapa 1 e avança para os documentos.
func (f *Flow) SubmitAddress(ctx context.Context, in validation.AddressInput) error {
	store, err := f.storeAt(ctx, StepAddress)
	if err != nil {
		return err
	}
	addr, err := f.validator.ValidateAddress(in)
	if err != nil {
		return err
	}
	store.Merge(models.DriverFormData{Address: addr})
	store.SetStep(StepDocuments)
	return nil
}

// SubmitDocuments valida a etapa 2 e dispara a submissão com os dados acumulados.
// Arquivos ausentes em `in` reaproveitam os já aceitos nesta sessão (ex: após voltar e corrigir o CPF).
// Se a submissão falhar, a etapa continua em 2 e os dados ficam preservados para nova tentativa.
// Em caso de sucesso o store é encerrado.
func (f *Flow) SubmitDocuments(ctx context.Context, in validation.DocumentsInput) error {
	store, err := f.storeAt(ctx, StepDocuments)
	if err != nil {
		return err
	}
	if prev := store.Data().Documents; prev != nil {
		if in.CNH == nil {
			in.CNH = prev.CNH
		}
		if in.CRLV == nil {
			in.CRLV = prev.CRLV
		}
	}
	docs, err := f.validator.ValidateDocuments(in)
	if err != nil {
		return err
	}
	store.Merge(models.DriverFormData{Documents: docs})

	data := store.Data()
	if !data.IsComplete() {
		return appErrors.WrapErrorf(appErrors.ErrInvalidInput, "cadastro incompleto")
	}
	if err := f.submitter.Submit(ctx, data); err != nil {
		return err
	}
	store.Close()
	return nil
}

// Back volta uma etapa sem validar; os dados já informados são mantidos.
func (f *Flow) Back(ctx context.Context) error {
	store, err := FromContext(ctx)
	if err != nil {
		return err
	}
	if step := store.Step(); step > StepPersonalInfo {
		store.SetStep(step - 1)
	}
	return nil
}

func (f *Flow) storeAt(ctx context.Context, want StepID) (*FormStore, error) {
	store, err := FromContext(ctx)
	if err != nil {
		return nil, err
	}
	if current := store.Step(); current != want {
		return nil, appErrors.WrapErrorf(appErrors.ErrInvalidInput,
			"etapa %q enviada, mas o cadastro está em %q", want, current)
	}
	return store, nil
}
