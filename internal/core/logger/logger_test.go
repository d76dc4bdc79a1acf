package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/core"
)

func TestWithFieldsWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, logrus.DebugLevel)

	WithFields(logrus.Fields{"component": "teste", "cpf": "***"}).Info("mensagem")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "mensagem", entry["msg"])
	assert.Equal(t, "teste", entry["component"])
	assert.Equal(t, "info", entry["level"])
}

func TestSetupLoggerCreatesLogFile(t *testing.T) {
	dir := t.TempDir()
	cfg := &core.Config{
		AppName:        "Cadastro Teste",
		LogDir:         dir,
		LogLevel:       "DEBUG",
		LogMaxBytes:    1024 * 1024,
		LogBackupCount: 1,
	}
	require.NoError(t, SetupLogger(cfg))
	Infof("linha %d", 1)

	_, err := os.Stat(filepath.Join(dir, "cadastro_teste.log"))
	assert.NoError(t, err)
}
