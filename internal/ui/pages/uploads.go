package pages

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/core/types"
	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/data/models"
	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/session"
	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/utils"
	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/validation"
)

// multipartMemory é quanto do formulário fica em memória antes de ir para arquivos temporários.
const multipartMemory = 32 << 20

// parseMultipart limita o corpo a `limit` bytes e interpreta o formulário multipart.
// tooLarge indica que o limite foi excedido.
func parseMultipart(w http.ResponseWriter, req *http.Request, limit int64) (tooLarge bool, err error) {
	req.Body = http.MaxBytesReader(w, req.Body, limit)
	if err := req.ParseMultipartForm(multipartMemory); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return true, err
		}
		return false, err
	}
	return false, nil
}

// readUpload lê o arquivo do campo `field`. Campo ausente ou vazio devolve nil sem erro.
// Lê um byte além do limite para que a validação de tamanho consiga recusar o arquivo.
func readUpload(req *http.Request, field string) (*models.DocumentFile, error) {
	file, header, err := req.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("falha ao ler o arquivo %s: %w", field, err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, validation.MaxDocumentSize+1))
	if err != nil {
		return nil, fmt.Errorf("falha ao ler o arquivo %s: %w", field, err)
	}
	if len(data) == 0 && header.Filename == "" {
		return nil, nil
	}
	return &models.DocumentFile{
		FileName:    header.Filename,
		ContentType: utils.ResolveContentType(header.Header.Get("Content-Type"), data),
		Data:        data,
	}, nil
}

// actorFrom devolve a sessão do visitante como origem das ações auditadas.
func actorFrom(ctx context.Context) types.AuditActor {
	if s, err := session.FromContext(ctx); err == nil {
		return s
	}
	return nil
}
