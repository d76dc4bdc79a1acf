package core

import (
	"errors"
	"fmt"
	"log" // Usado para logs iniciais antes que o logger da aplicação esteja configurado
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultSecretKey = "default_secret_key_please_change_this_in_production_12345"

// Config struct para armazenar todas as configurações da aplicação
type Config struct {
	AppName    string
	AppVersion string
	AppDebug   bool
	SecretKey  string

	// HTTP
	HTTPAddr           string
	CORSAllowedOrigins []string
	MaxUploadBytes     int64

	// API de motoristas e serviços externos
	APIBaseURL      string
	APITimeout      time.Duration
	ViaCEPURL       string
	CEPDebounce     time.Duration
	CEPRatePerSec   int
	DriversCacheTTL time.Duration
	ListPageSize    int

	// Database (log de auditoria)
	DBEngine   string
	DBName     string
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string

	// Logging
	LogDir         string
	LogLevel       string
	LogMaxBytes    int
	LogBackupCount int
	LogToConsole   bool

	// Sessão do visitante e pré-visualizações
	SessionTimeout         time.Duration
	SessionCleanupInterval time.Duration
	SessionCleanupEnabled  bool
	PreviewTTL             time.Duration

	// Export
	ExportMaskSensitive bool
}

// LoadConfig carrega as configurações do arquivo .env especificado ou encontrado na árvore de diretórios.
func LoadConfig(envPath string) (*Config, error) {
	foundEnvPath, err := findEnvFile(envPath)
	if err != nil {
		log.Printf("Aviso: Arquivo .env em '%s' não encontrado ou inacessível: %v. Usando variáveis de ambiente existentes.", envPath, err)
	} else {
		log.Printf("Carregando configurações de: %s", foundEnvPath)
		if err := godotenv.Load(foundEnvPath); err != nil {
			log.Printf("Aviso: Erro ao carregar arquivo .env de '%s': %v. Usando valores padrão ou variáveis de ambiente existentes.", foundEnvPath, err)
		}
	}

	cfg := &Config{}

	cfg.AppName = getEnv("APP_NAME", "Cadastro de Motoristas")
	cfg.AppVersion = getEnv("APP_VERSION", "1.0.0-go")
	cfg.AppDebug = getEnvAsBool("APP_DEBUG", false)
	cfg.SecretKey = getEnv("SECRET_KEY", defaultSecretKey)

	cfg.HTTPAddr = getEnv("APP_HTTP_ADDR", ":3000")
	cfg.CORSAllowedOrigins = getEnvAsList("APP_CORS_ORIGINS", []string{"http://localhost:3000"})
	cfg.MaxUploadBytes = int64(getEnvAsInt("APP_MAX_UPLOAD_MB", 25)) << 20

	// A variável do front-end antigo continua aceita como fallback.
	cfg.APIBaseURL = strings.TrimRight(getEnv("APP_API_URL", getEnv("NEXT_PUBLIC_URL_API", "http://localhost:8080")), "/")
	cfg.APITimeout = getEnvAsDuration("APP_API_TIMEOUT", 30)
	cfg.ViaCEPURL = strings.TrimRight(getEnv("APP_VIACEP_URL", "https://viacep.com.br"), "/")
	cfg.CEPDebounce = getEnvAsMillis("APP_CEP_DEBOUNCE_MS", 500)
	cfg.CEPRatePerSec = getEnvAsInt("APP_CEP_RATE_PER_SEC", 5)
	cfg.DriversCacheTTL = getEnvAsDuration("APP_DRIVERS_CACHE_TTL", 300) // 5 minutos
	cfg.ListPageSize = getEnvAsInt("APP_LIST_PAGE_SIZE", 10)

	cfg.DBEngine = getEnv("APP_DB_ENGINE", "sqlite")
	cfg.DBName = getEnv("APP_DB_NAME", "motoristas_go.db")
	cfg.DBHost = getEnv("APP_DB_HOST", "localhost")
	cfg.DBPort = getEnvAsInt("APP_DB_PORT", 5432)
	cfg.DBUser = getEnv("APP_DB_USER", "user")
	cfg.DBPassword = getEnv("APP_DB_PASSWORD", "password")

	cfg.LogDir = getEnv("APP_LOG_DIR", "./app_logs")
	cfg.LogLevel = strings.ToUpper(getEnv("APP_LOG_LEVEL", "INFO"))
	cfg.LogMaxBytes = getEnvAsInt("APP_LOG_MAX_BYTES", 5*1024*1024) // 5MB
	cfg.LogBackupCount = getEnvAsInt("APP_LOG_BACKUP_COUNT", 7)
	cfg.LogToConsole = getEnvAsBool("APP_LOG_TO_CONSOLE", true)

	cfg.SessionTimeout = getEnvAsDuration("APP_SESSION_TIMEOUT", 3600)                 // 1 hora
	cfg.SessionCleanupInterval = getEnvAsDuration("APP_SESSION_CLEANUP_INTERVAL", 600) // 10 minutos
	cfg.SessionCleanupEnabled = getEnvAsBool("APP_SESSION_CLEANUP_ENABLED", true)
	cfg.PreviewTTL = getEnvAsDuration("APP_PREVIEW_TTL", 1800) // 30 minutos

	cfg.ExportMaskSensitive = getEnvAsBool("APP_EXPORT_MASK_SENSITIVE", false)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := ensureDir(cfg.LogDir, true); err != nil {
		return nil, fmt.Errorf("falha ao criar diretório de log essencial '%s': %w", cfg.LogDir, err)
	}
	if cfg.DBEngine == "sqlite" {
		sqliteDir := filepath.Dir(cfg.DBName)
		if sqliteDir != "." && sqliteDir != string(filepath.Separator) {
			if err := ensureDir(sqliteDir, true); err != nil {
				return nil, fmt.Errorf("falha ao criar diretório para banco de dados SQLite '%s': %w", sqliteDir, err)
			}
		}
	}

	log.Println("Configurações carregadas e validadas.")
	return cfg, nil
}

// Validate verifica as configurações críticas.
func (cfg *Config) Validate() error {
	if !cfg.AppDebug && cfg.SecretKey == defaultSecretKey {
		return errors.New("FATAL: SECRET_KEY não pode ser o valor padrão em ambiente de não depuração (AppDebug=false)")
	}
	if len(cfg.SecretKey) < 32 && !cfg.AppDebug {
		log.Printf("AVISO: SECRET_KEY tem menos de 32 caracteres (%d). Recomenda-se uma chave mais longa para produção.", len(cfg.SecretKey))
	}
	if cfg.APIBaseURL == "" {
		return errors.New("FATAL: APP_API_URL não pode ser vazio")
	}
	if cfg.ListPageSize <= 0 {
		cfg.ListPageSize = 10
	}
	if cfg.CEPRatePerSec <= 0 {
		cfg.CEPRatePerSec = 1
	}
	return nil
}

// findEnvFile tenta localizar o arquivo .env.
// Primeiro no path fornecido, depois subindo na árvore de diretórios a partir do CWD.
func findEnvFile(envPath string) (string, error) {
	if _, err := os.Stat(envPath); err == nil {
		absPath, _ := filepath.Abs(envPath)
		return absPath, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("não foi possível obter o diretório de trabalho atual: %w", err)
	}

	for i := 0; i < 5; i++ {
		tryPath := filepath.Join(cwd, ".env")
		if _, err := os.Stat(tryPath); err == nil {
			return tryPath, nil
		}
		parent := filepath.Dir(cwd)
		if parent == cwd { // Chegou à raiz
			break
		}
		cwd = parent
	}
	return "", fmt.Errorf("arquivo .env não encontrado no caminho '%s' ou nos diretórios pais", envPath)
}

// ensureDir garante que um diretório exista, criando-o se necessário.
// Se 'critical' for true, retorna erro em caso de falha. Caso contrário, apenas loga um aviso.
func ensureDir(dirPath string, critical bool) error {
	absPath, err := filepath.Abs(dirPath)
	if err != nil {
		msg := fmt.Sprintf("Não foi possível resolver o caminho absoluto para '%s': %v", dirPath, err)
		if critical {
			return errors.New(msg)
		}
		log.Println("AVISO:", msg)
		return nil
	}

	if err := os.MkdirAll(absPath, os.ModePerm); err != nil {
		msg := fmt.Sprintf("Não foi possível criar o diretório '%s': %v", absPath, err)
		if critical {
			return errors.New(msg)
		}
		log.Println("AVISO:", msg)
	}
	return nil
}

// getEnv recupera o valor de uma variável de ambiente ou retorna um fallback.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvAsInt recupera uma variável de ambiente como int ou retorna um fallback.
func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

// getEnvAsBool recupera uma variável de ambiente como bool ou retorna um fallback.
func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration recupera uma variável de ambiente como time.Duration em segundos, ou retorna um fallback.
func getEnvAsDuration(key string, fallbackSeconds int) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(value) * time.Second
	}
	return time.Duration(fallbackSeconds) * time.Second
}

// getEnvAsMillis é como getEnvAsDuration, mas em milissegundos.
func getEnvAsMillis(key string, fallbackMillis int) time.Duration {
	return time.Duration(getEnvAsInt(key, fallbackMillis)) * time.Millisecond
}

// getEnvAsList lê uma lista separada por vírgulas.
func getEnvAsList(key string, fallback []string) []string {
	valueStr := strings.TrimSpace(getEnv(key, ""))
	if valueStr == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
