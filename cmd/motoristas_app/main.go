package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/apiclient"
	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/core"
	appLogger "github.com/Dukorsa/APP_MOTORISTAS_GO/internal/core/logger"
	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/data"
	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/preview"
	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/repositories"
	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/services"
	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/session"
	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/ui"
	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/ui/pages"
	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/utils"
	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/validation"
	"github.com/Dukorsa/APP_MOTORISTAS_GO/internal/wizard"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		appLogger.Errorf("Aplicação encerrada com erro: %v", err)
		os.Exit(1)
	}
	appLogger.Info("Aplicação encerrada normalmente.")
}

func run() error {
	// --- 1. Carregar Configurações ---
	cfg, err := core.LoadConfig(".env")
	if err != nil {
		log.Fatalf("Erro CRÍTICO ao carregar configuração: %v", err)
	}

	// --- 2. Configurar Logger ---
	if err := appLogger.SetupLogger(cfg); err != nil {
		log.Fatalf("Erro CRÍTICO ao configurar logger: %v", err)
	}
	appLogger.Info("=====================================================")
	appLogger.Infof("Iniciando %s v%s...", cfg.AppName, cfg.AppVersion)
	appLogger.Debugf("Modo Debug: %t", cfg.AppDebug)
	appLogger.Info("=====================================================")

	// --- 3. Inicializar Banco de Dados (log de auditoria) ---
	db, err := data.InitializeDB(cfg)
	if err != nil {
		appLogger.Fatalf("Erro CRÍTICO ao inicializar banco de dados: %v", err)
	}
	defer func() {
		if err := data.CloseDB(db); err != nil {
			appLogger.Errorf("Erro ao fechar conexão com banco de dados: %v", err)
		} else {
			appLogger.Info("Conexão com banco de dados fechada.")
		}
	}()

	// --- 4. Repositórios e Serviços ---
	auditLogService := services.NewAuditLogService(repositories.NewGormAuditLogRepository(db))

	api := apiclient.New(cfg.APIBaseURL, cfg.APITimeout)
	appLogger.Infof("API de motoristas: %s", api.BaseURL())
	driverService := services.NewDriverService(api, auditLogService, cfg.DriversCacheTTL)
	cepService := services.NewViaCEPService(cfg.ViaCEPURL, cfg.APITimeout, cfg.CEPRatePerSec)

	// --- 5. Sessões dos visitantes ---
	debouncer := utils.NewDebouncer(cfg.CEPDebounce)
	previews := preview.NewRegistry(cfg.PreviewTTL)
	sessionManager := session.NewManager(cfg, previews, debouncer)
	sessionManager.StartCleanupGoroutine()
	defer sessionManager.Shutdown()

	// --- 6. Fluxo de cadastro ---
	validator := validation.New(nil)
	flow := wizard.NewFlow(validator, pages.RegistrationSubmitter(driverService))

	// --- 7. Páginas e Rotas ---
	renderer, err := ui.NewRenderer(cfg.AppName)
	if err != nil {
		appLogger.Fatalf("Erro CRÍTICO ao carregar templates: %v", err)
	}
	router := ui.NewRouter(cfg, sessionManager, renderer)
	router.Register(pages.NewHomePage(router))
	router.Register(pages.NewDriversPage(router, driverService, auditLogService, validator))
	router.Register(pages.NewRegisterPage(router, flow, cepService, debouncer))
	router.Mount(pages.NewAuditAPI(auditLogService))

	// --- 8. Servidor HTTP com shutdown gracioso ---
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		appLogger.Infof("Servidor HTTP escutando em %s", cfg.HTTPAddr)
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
		appLogger.Info("Sinal de encerramento recebido. Finalizando servidor HTTP...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Errorf("Erro no shutdown do servidor HTTP: %v", err)
		return err
	}
	return nil
}
