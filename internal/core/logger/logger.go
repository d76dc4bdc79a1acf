package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/core"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	log *logrus.Logger // Logger global da aplicação
)

// SetupLogger inicializa o logger global da aplicação.
// Deve ser chamado uma vez no início, logo após LoadConfig.
func SetupLogger(cfg *core.Config) error {
	l := logrus.New()

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
		fmt.Fprintf(os.Stderr, "Nível de log inválido '%s', usando INFO: %v\n", cfg.LogLevel, err)
	}
	l.SetLevel(level)

	l.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00", // ISO8601 com milissegundos
	})

	logFilePath := filepath.Join(cfg.LogDir, strings.ToLower(strings.ReplaceAll(cfg.AppName, " ", "_"))+".log")

	logDirAbs, _ := filepath.Abs(cfg.LogDir)
	if err := os.MkdirAll(logDirAbs, os.ModePerm); err != nil {
		return fmt.Errorf("falha ao criar diretório de log '%s': %w", logDirAbs, err)
	}

	maxSizeMB := cfg.LogMaxBytes / (1024 * 1024)
	if maxSizeMB < 1 {
		maxSizeMB = 1
	}
	fileLogger := &lumberjack.Logger{
		Filename:   logFilePath,
		MaxSize:    maxSizeMB,
		MaxBackups: cfg.LogBackupCount,
		MaxAge:     28, // dias
		Compress:   true,
	}

	writers := []io.Writer{fileLogger}
	if cfg.LogToConsole {
		writers = append(writers, os.Stderr)
	}
	l.SetOutput(io.MultiWriter(writers...))

	log = l
	log.Infof("Logger configurado. Nível: %s. Arquivo: %s", level.String(), logFilePath)
	return nil
}

// SetOutput redireciona o logger global (usado em testes e ferramentas).
func SetOutput(w io.Writer, level logrus.Level) {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(level)
	l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.000Z07:00"})
	log = l
}

// Funções de logging exportadas (Debug, Info, Warn, Error, Fatal)
func Debug(args ...interface{}) {
	if log == nil {
		fmt.Println("Logger não inicializado:", args)
		return
	}
	log.Debug(args...)
}
func Debugf(format string, args ...interface{}) {
	if log == nil {
		fmt.Printf("Logger não inicializado: "+format+"\n", args...)
		return
	}
	log.Debugf(format, args...)
}
func Info(args ...interface{}) {
	if log == nil {
		fmt.Println("Logger não inicializado:", args)
		return
	}
	log.Info(args...)
}
func Infof(format string, args ...interface{}) {
	if log == nil {
		fmt.Printf("Logger não inicializado: "+format+"\n", args...)
		return
	}
	log.Infof(format, args...)
}
func Warn(args ...interface{}) {
	if log == nil {
		fmt.Println("Logger não inicializado:", args)
		return
	}
	log.Warn(args...)
}
func Warnf(format string, args ...interface{}) {
	if log == nil {
		fmt.Printf("Logger não inicializado: "+format+"\n", args...)
		return
	}
	log.Warnf(format, args...)
}
func Error(args ...interface{}) {
	if log == nil {
		fmt.Println("Logger não inicializado:", args)
		return
	}
	log.Error(args...)
}
func Errorf(format string, args ...interface{}) {
	if log == nil {
		fmt.Printf("Logger não inicializado: "+format+"\n", args...)
		return
	}
	log.Errorf(format, args...)
}
func Fatalf(format string, args ...interface{}) {
	if log == nil {
		fmt.Printf("Logger não inicializado: "+format+"\n", args...)
		os.Exit(1)
	}
	log.Fatalf(format, args...)
}

// WithFields devolve uma entry para log estruturado com contexto.
func WithFields(fields logrus.Fields) *logrus.Entry {
	if log == nil {
		dummyLogger := logrus.New()
		dummyLogger.SetOutput(io.Discard)
		return dummyLogger.WithFields(fields)
	}
	return log.WithFields(fields)
}
