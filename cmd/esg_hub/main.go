package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"esg_platform/esg_hub/auth"
	"esg_platform/esg_hub/metrics"
	"esg_platform/esg_hub/schema"
	"esg_platform/esg_hub/services"
	"esg_platform/esg_hub/storage"
	"esg_platform/esg_hub/templates"
	"esg_platform/utils/logging"

	"github.com/caarlos0/env/v10"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type platformEnv struct {
	DatabaseUri string `env:"DATABASE_URI,required"`
	JwtSecret   string `env:"JWT_SECRET,required"`
	ShareDir    string `env:"SHARE_DIR,required"`

	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	LogFormat      string   `env:"LOG_FORMAT" envDefault:"text"`

	TokenExpiration time.Duration `env:"TOKEN_EXPIRATION" envDefault:"12h"`
	LoginRateLimit  int           `env:"LOGIN_RATE_LIMIT" envDefault:"20"`

	// Optional yaml catalog replacing the built in report templates.
	ReportTemplates string `env:"REPORT_TEMPLATES"`
}

func loadEnvFile(envFile string) error {
	slog.Info(fmt.Sprintf("loading env from file %v", envFile))
	if err := godotenv.Load(envFile); err != nil {
		return fmt.Errorf("error loading .env file '%v': %w", envFile, err)
	}
	return nil
}

/**
 * ==========================================================================
 * ==== All variables used by the platform must be loaded here. This is  ====
 * ==== to make the data flow clear so that a user can see what          ====
 * ==== variables are exposed, and how the values are propagated through ====
 * ==== the system.                                                      ====
 * ==========================================================================
 */
func loadEnv() (*platformEnv, error) {
	cfg := &platformEnv{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if cfg.LogFormat != logging.TextFormat && cfg.LogFormat != logging.JsonFormat {
		return nil, fmt.Errorf("invalid LOG_FORMAT '%v', must be '%v' or '%v'", cfg.LogFormat, logging.TextFormat, logging.JsonFormat)
	}
	return cfg, nil
}

func (e *platformEnv) postgresDsn() (string, error) {
	parts, err := url.Parse(e.DatabaseUri)
	if err != nil {
		return "", fmt.Errorf("error parsing db uri: %w", err)
	}
	pwd, _ := parts.User.Password()
	dbname := strings.TrimPrefix(parts.Path, "/")
	return fmt.Sprintf("host=%v user=%v password=%v dbname=%v port=%v", parts.Hostname(), parts.User.Username(), pwd, dbname, parts.Port()), nil
}

func initDb(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("error opening database connection: %w", err)
	}

	if err := db.AutoMigrate(schema.AllModels()...); err != nil {
		return nil, fmt.Errorf("error migrating db schema: %w", err)
	}

	return db, nil
}

func openLog(shareDir, name string) (*os.File, error) {
	return os.OpenFile(filepath.Join(shareDir, "logs", name), os.O_CREATE|os.O_APPEND|os.O_RDWR, 0666)
}

// The defer calls don't run if we exit with log.Fatalf, so errors are returned
// here and the process fails in main.
func runApp() error {
	envFile := flag.String("env", "", "File to load env variables from. If not specified will just load them from the environment variables already defined.")
	port := flag.Int("port", 8000, "Port to run server on")

	flag.Parse()

	if *envFile != "" {
		if err := loadEnvFile(*envFile); err != nil {
			return err
		}
	}

	cfg, err := loadEnv()
	if err != nil {
		return fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := os.MkdirAll(filepath.Join(cfg.ShareDir, "logs"), 0777); err != nil {
		return fmt.Errorf("error creating log dir: %w", err)
	}

	logFile, err := openLog(cfg.ShareDir, "esg_platform.log")
	if err != nil {
		return fmt.Errorf("error opening log file: %w", err)
	}
	defer logFile.Close()

	auditLog, err := openLog(cfg.ShareDir, "audit.log")
	if err != nil {
		return fmt.Errorf("error opening audit log file: %w", err)
	}
	defer auditLog.Close()

	logging.Init(logFile, cfg.LogFormat, slog.String("service", "esg_hub"))
	slog.Info("logging initialized", "log_file", logFile.Name(), "code", logging.SYSTEM)

	dsn, err := cfg.postgresDsn()
	if err != nil {
		return err
	}
	db, err := initDb(dsn)
	if err != nil {
		return err
	}

	catalog, err := templates.Load(cfg.ReportTemplates)
	if err != nil {
		return err
	}

	sharedStorage := storage.NewSharedDisk(filepath.Join(cfg.ShareDir, "archive"))

	identityProvider := auth.NewBasicIdentityProvider(
		db,
		auth.NewAuditLogger(auditLog),
		auth.BasicProviderArgs{
			Secret:          []byte(cfg.JwtSecret),
			TokenExpiration: cfg.TokenExpiration,
		},
	)

	m := metrics.New()

	platform := services.NewEsgPlatform(
		db,
		sharedStorage,
		identityProvider,
		catalog,
		m,
		services.Variables{LoginRateLimit: cfg.LoginRateLimit},
	)

	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Mount("/api", platform.Routes())
	r.Handle("/metrics", m.Handler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", *port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	idleConnsClosed := make(chan struct{})
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutdown signal received", "code", logging.SYSTEM)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			slog.Error("HTTP server Shutdown", "err", err)
		}
		close(idleConnsClosed)
	}()

	slog.Info("starting server", "port", *port, "code", logging.SYSTEM)
	err = srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("listen and serve returned error: %w", err)
	}

	<-idleConnsClosed
	slog.Info("server stopped", "code", logging.SYSTEM)
	return nil
}

func main() {
	if err := runApp(); err != nil {
		log.Fatalf("fatal error: %v", err)
	}
}
