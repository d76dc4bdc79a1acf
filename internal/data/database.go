package data

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/core"
	appLogger "github.com/Dukorsa/APP_MOTORISTAS_GO/internal/core/logger"
	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/data/models"
	"github.com/sirupsen/logrus"
)

// InitializeDB configura a conexão com o banco do log de auditoria e executa as migrações.
// Os dados de motoristas não ficam aqui: pertencem à API remota.
func InitializeDB(cfg *core.Config) (*gorm.DB, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	appLogger.Infof("Inicializando conexão com banco de dados: %s", cfg.DBEngine)

	gormLogLevel := gormlogger.Silent
	if cfg.AppDebug {
		gormLogLevel = gormlogger.Info // Loga todas as queries SQL em modo debug
	}
	newGormLogger := gormlogger.New(
		appLogger.WithFields(logrus.Fields{"component": "gorm"}),
		gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormLogLevel,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:  newGormLogger,
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		appLogger.Errorf("Falha ao conectar ao banco de dados %s: %v", cfg.DBEngine, err)
		return nil, fmt.Errorf("falha ao abrir conexão com %s: %w", cfg.DBEngine, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("falha ao configurar pool de conexões: %w", err)
	}
	if cfg.DBEngine == "sqlite" {
		// SQLite serializa escritas; uma conexão evita "database is locked".
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetMaxOpenConns(20)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := Migrate(db); err != nil {
		return nil, err
	}
	appLogger.Info("Conexão com banco de dados estabelecida e migrações concluídas.")
	return db, nil
}

// dialectorFor escolhe o driver GORM conforme APP_DB_ENGINE.
func dialectorFor(cfg *core.Config) (gorm.Dialector, error) {
	switch cfg.DBEngine {
	case "postgresql":
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable TimeZone=UTC",
			cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort)
		appLogger.Infof("Conectando ao PostgreSQL: host=%s dbname=%s user=%s port=%d", cfg.DBHost, cfg.DBName, cfg.DBUser, cfg.DBPort)
		return postgres.Open(dsn), nil
	case "sqlite":
		appLogger.Infof("Usando banco de dados SQLite: %s", cfg.DBName)
		return sqlite.Open(cfg.DBName + "?_foreign_keys=on"), nil
	default:
		return nil, fmt.Errorf("motor de banco de dados não suportado: %s", cfg.DBEngine)
	}
}

// Migrate cria/atualiza as tabelas da aplicação.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.AuditLogEntry{}); err != nil {
		appLogger.Errorf("Falha durante AutoMigrate: %v", err)
		return fmt.Errorf("falha na migração do esquema do banco de dados: %w", err)
	}
	return nil
}

// CloseDB fecha a conexão com o banco de dados.
func CloseDB(db *gorm.DB) error {
	if db == nil {
		appLogger.Warn("Tentativa de fechar conexão DB nula.")
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		appLogger.Errorf("Erro ao obter *sql.DB para fechar: %v", err)
		return err
	}
	appLogger.Info("Fechando conexão com o banco de dados...")
	return sqlDB.Close()
}
