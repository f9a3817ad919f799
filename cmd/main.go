package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/kcattaeva-hash/Oplata/internal/clients"
	"github.com/kcattaeva-hash/Oplata/internal/config"
	"github.com/kcattaeva-hash/Oplata/internal/repository"
	"github.com/kcattaeva-hash/Oplata/internal/service"
	"github.com/kcattaeva-hash/Oplata/internal/store"
	"github.com/kcattaeva-hash/Oplata/internal/transport/rest"
	"github.com/kcattaeva-hash/Oplata/internal/transport/websocket"
	"github.com/kcattaeva-hash/Oplata/pkg/database/postgres"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using system env or defaults")
	}

	// top-level context which we can cancel on shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cfg := config.Load()

	redisClient := mustInitRedis(cfg.Redis)
	defer redisClient.Close()

	persister, cleanup := mustInitPersister(ctx, cfg, redisClient)
	defer cleanup()

	st := store.New()
	students, payments, logs, err := persister.LoadAll(ctx)
	if err != nil {
		log.Printf("[PERSIST] load state: %v, starting empty", err)
	}
	st.Load(students, payments, logs)
	log.Printf("[PERSIST] loaded %d students, %d payments, %d log entries", len(students), len(payments), len(logs))

	// Init local export storage
	storageClient, err := clients.NewLocalStorage(cfg.ExportDir, cfg.FilesPublicPrefix, cfg.ExternalURL)
	if err != nil {
		log.Fatalf("storage init error: %v", err)
	}

	var s3Client *clients.S3Client
	if cfg.S3.Enabled {
		s3Client, err = clients.NewS3Client(ctx, clients.S3Config{
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			Bucket:          cfg.S3.Bucket,
			UseSSL:          cfg.S3.UseSSL,
			Region:          cfg.S3.Region,
			Prefix:          cfg.S3.Prefix,
		})
		if err != nil {
			log.Fatalf("s3 init error: %v", err)
		}
	}

	wsHub := websocket.NewHub()
	go wsHub.Run(ctx)
	wsClient := clients.NewWebSocketClient(wsHub)

	studentSvc := service.NewStudentService(st, persister, wsClient)
	installmentSvc := service.NewInstallmentService(st, persister, wsClient)
	paymentSvc := service.NewPaymentService(st, persister, wsClient)
	importSvc := service.NewImportService(st, persister, wsClient)
	exportSvc := service.NewExportService(st, persister, redisClient, storageClient, s3Client, wsClient)
	logSvc := service.NewLogService(st)

	handler := rest.NewHandler(studentSvc, installmentSvc, paymentSvc, importSvc, exportSvc, logSvc)
	router := handler.InitRouter()

	root := chi.NewRouter()

	// public: serve generated export files
	root.Get("/files/{file}", func(w http.ResponseWriter, r *http.Request) {
		file := chi.URLParam(r, "file")
		path := filepath.Join(storageClient.BaseDir, filepath.Base(file))
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				http.NotFound(w, r)
				return
			}
			http.Error(w, "failed to access file", http.StatusInternalServerError)
			return
		}

		// prefer original filename in Content-Disposition (strip random prefix)
		orig := file
		if idx := strings.IndexByte(file, '_'); idx >= 0 {
			orig = file[idx+1:]
		}
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", orig))

		http.ServeFile(w, r, path)
	})

	root.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		wsHub.HandleWebSocket(w, r)
	})

	root.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	root.Mount("/", router)

	corsHandler := withCORS(root)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      corsHandler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Run HTTP server in goroutine so we can listen for shutdown signals
	srvErr := make(chan error, 1)
	go func() {
		log.Printf("HTTP server listening on :%s\n", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			srvErr <- err
			return
		}
		srvErr <- nil
	}()

	// background cleaner for stale export files
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := storageClient.CleanupOlderThan(30 * time.Minute); err != nil {
					log.Printf("storage cleanup error: %v", err)
				}
			}
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-srvErr:
		if err != nil {
			log.Fatalf("HTTP server error: %v", err)
		}
	case sig := <-stop:
		log.Printf("Shutdown signal received: %v", sig)

		// Give server up to 10 seconds to finish ongoing requests
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server Shutdown error: %v", err)
		}

		// final state mirror before the process exits
		snapStudents, snapPayments, snapLogs := st.Snapshot()
		persistCtx, persistCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer persistCancel()
		if err := persister.SaveStudents(persistCtx, snapStudents); err != nil {
			log.Printf("[PERSIST] final save students: %v", err)
		}
		if err := persister.SavePayments(persistCtx, snapPayments); err != nil {
			log.Printf("[PERSIST] final save payments: %v", err)
		}
		if err := persister.SaveLogs(persistCtx, snapLogs); err != nil {
			log.Printf("[PERSIST] final save logs: %v", err)
		}

		cancel()

		log.Println("Shutdown complete")
	}
}

func mustInitRedis(cfg config.RedisConfig) *clients.RedisClient {
	client, err := clients.NewRedisClient(clients.RedisConfig{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		MaxRetries:  cfg.MaxRetries,
		DialTimeout: time.Duration(cfg.DialTimeout) * time.Second,
		Timeout:     time.Duration(cfg.Timeout) * time.Second,
		Prefix:      cfg.Prefix,
	})
	if err != nil {
		log.Fatalf("redis init error: %v", err)
	}
	return client
}

// mustInitPersister wires the snapshot mirror. Redis is the default; the
// postgres backend keeps snapshots in a JSONB table instead.
func mustInitPersister(ctx context.Context, cfg config.AppConfig, redisClient *clients.RedisClient) (service.Persister, func()) {
	switch cfg.PersistBackend {
	case "postgres":
		db, err := postgres.NewPostgresConnection(postgres.ConnectionInfo{
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Username: cfg.Postgres.User,
			DBName:   cfg.Postgres.DBName,
			SSLMode:  cfg.Postgres.SSLMode,
			Password: cfg.Postgres.Password,
		})
		if err != nil {
			log.Fatalf("postgres init error: %v", err)
		}
		repo := repository.NewPostgresStateRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			log.Fatalf("postgres schema error: %v", err)
		}
		return repo, func() { postgres.Close(db) }
	case "redis":
		return repository.NewRedisStateRepository(redisClient), func() {}
	default:
		log.Fatalf("unknown persist backend %q", cfg.PersistBackend)
		return nil, nil
	}
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")

			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,PATCH,DELETE,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
