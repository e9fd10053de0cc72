package main

import (
	"database/sql"
	"log"
	"net/http"
	"os"
	"time"

	"revstrux/internal/analysis/application"
	analysishttp "revstrux/internal/analysis/interfaces/http"
	"revstrux/internal/auth"
	"revstrux/internal/observability/metrics"
	session "revstrux/internal/session/domain"
	sessionmemory "revstrux/internal/session/infrastructure/memory"
	sessionpostgres "revstrux/internal/session/infrastructure/postgres"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	_ = godotenv.Load()
	cfg := loadConfig()
	logger := log.New(os.Stdout, "", log.LstdFlags)

	appCfg, err := application.LoadConfig()
	if err != nil {
		logger.Fatalf("config error: %v", err)
	}

	var (
		sessions session.Repository
		data     session.DataRepository
		db       *sql.DB
	)
	if cfg.DatabaseURL != "" {
		db, err = sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			logger.Fatalf("db open error: %v", err)
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			logger.Fatalf("db ping error: %v", err)
		}
		if _, err := db.Exec(sessionpostgres.Schema()); err != nil {
			logger.Fatalf("db migrate error: %v", err)
		}
		sessions = sessionpostgres.NewSessionRepository(db)
		data = sessionpostgres.NewDataRepository(db)
	} else {
		logger.Printf("DATABASE_URL not set, sessions are kept in memory")
		sessions = sessionmemory.NewSessionRepository()
		data = sessionmemory.NewDataRepository()
	}

	metrics.Init(db, logger)

	service, err := application.NewService(sessions, data, logger,
		application.WithDefaultSettings(appCfg.Defaults.Settings()))
	if err != nil {
		logger.Fatalf("analysis service error: %v", err)
	}
	handler, err := analysishttp.NewHandler(service, logger,
		analysishttp.WithMaxUploadBytes(int64(appCfg.MaxUploadMB)<<20),
		analysishttp.WithSyntheticSeed(appCfg.SyntheticSeed))
	if err != nil {
		logger.Fatalf("analysis handler error: %v", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/api", handler)
	mux.Handle("/api/", handler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	var root http.Handler = mux
	if cfg.JWTSecret != "" {
		policy := auth.NewDefaultPolicy([]string{"/healthz", "/api", "/api/"}, []string{"/metrics"})
		root = auth.NewMiddleware([]byte(cfg.JWTSecret), policy).Wrap(mux)
	} else {
		logger.Printf("AUTH_JWT_SECRET not set, API is unauthenticated")
	}

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           loggingMiddleware(root, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.Printf("http listening on %s", cfg.HTTPAddr)
	logger.Fatal(server.ListenAndServe())
}

type config struct {
	DatabaseURL string
	HTTPAddr    string
	JWTSecret   string
}

func loadConfig() config {
	return config{
		DatabaseURL: getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		HTTPAddr:    getenvDefault("HTTP_ADDR", ":8080"),
		JWTSecret:   getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
	}
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
