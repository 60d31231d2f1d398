package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"chat-backend/internal/cache"
	"chat-backend/internal/community"
	"chat-backend/internal/config"
	"chat-backend/internal/db"
	"chat-backend/internal/handlers"
	"chat-backend/internal/metrics"
	"chat-backend/internal/storage"
	"chat-backend/internal/user"
)

func main() {
	configPath := "config.yaml"
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		configPath = p
	}
	_, statErr := os.Stat(configPath)
	if err := config.LoadConfig(configPath); err != nil {
		log.Fatal("Config load failed: ", err)
	}
	if os.IsNotExist(statErr) {
		if err := config.SaveConfig(configPath); err != nil {
			log.Printf("Could not write default config: %v", err)
		} else {
			log.Printf("Wrote default config to %s", configPath)
		}
	}

	if err := db.Init(); err != nil {
		log.Fatal("DB init failed: ", err)
	}
	models := append([]interface{}{&user.Account{}, &metrics.MetricsSnapshot{}}, community.Models()...)
	if err := db.Migrate(db.DB, models...); err != nil {
		log.Fatal("DB migration failed: ", err)
	}

	files, err := storage.NewFileSystem(config.Conf.MediaRoot)
	if err != nil {
		log.Fatal("Media storage init failed: ", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	locks, closeLocks := newLocker(ctx)
	defer closeLocks()

	metricsService := metrics.NewMetricsService(db.DB, time.Minute)
	go metricsService.Run(ctx)

	svc := community.NewService(db.DB, files, locks)
	h := handlers.New(db.DB, svc, metricsService, config.Conf)

	srv := &http.Server{
		Addr:              config.Conf.Port,
		Handler:           h.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logServerConnectionInfo()
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server failed: ", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
}

// newLocker uses Redis when configured so that several instances share
// record locks, and an in-process lock otherwise.
func newLocker(ctx context.Context) (cache.Locker, func()) {
	if config.Conf.RedisURL == "" {
		log.Println("Using in-process record locks")
		return cache.NewLocalLocker(), func() {}
	}

	r, err := cache.New(config.Conf.RedisURL)
	if err != nil {
		log.Fatal("Redis config invalid: ", err)
	}
	if err := r.Ping(ctx); err != nil {
		log.Fatal("Redis unreachable: ", err)
	}
	log.Println("Using Redis record locks")
	return cache.NewRedisLocker(r, config.Conf.LockTTL), func() {
		if err := r.Close(); err != nil {
			log.Printf("Error closing Redis: %v", err)
		}
	}
}

func logServerConnectionInfo() {
	port := strings.TrimPrefix(config.Conf.Port, ":")
	if port == "" {
		port = "8080" // default fallback
	}

	log.Printf("═══════════════════════════════════════════════════════════════")
	log.Printf("  %s CONNECTION INFORMATION", strings.ToUpper(serverName()))
	log.Printf("───────────────────────────────────────────────────────────────")

	// Local connections
	log.Printf("Local connections:")
	log.Printf("   • http://localhost:%s", port)
	log.Printf("   • http://127.0.0.1:%s", port)

	// Network interfaces
	log.Printf("Network connections:")
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		log.Printf("   ⚠️  Could not determine network addresses: %v", err)
	} else {
		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
				if ipnet.IP.To4() != nil { // IPv4
					log.Printf("   • http://%s:%s", ipnet.IP.String(), port)
				}
			}
		}
	}

	log.Printf("Database: %s, media: %s (served at %s)", config.Conf.Database.Driver, config.Conf.MediaRoot, config.Conf.MediaURL)
	log.Printf("═══════════════════════════════════════════════════════════════")
}

func serverName() string {
	if config.Conf.Name != "" {
		return config.Conf.Name
	}
	return "server"
}
