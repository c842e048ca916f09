package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lumenpms/channelsync/internal/config"
	"github.com/lumenpms/channelsync/internal/database"
	"github.com/lumenpms/channelsync/internal/engine"
	"github.com/lumenpms/channelsync/internal/gateway"
	"github.com/lumenpms/channelsync/internal/handlers"
	"github.com/lumenpms/channelsync/internal/models"
	"github.com/lumenpms/channelsync/internal/pms"
	"github.com/lumenpms/channelsync/internal/repositories"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Storage backends are optional: without them the engine runs in-memory
	// for the session.
	deps := engine.Dependencies{}

	var statusRepo repositories.StatusRepository
	if cfg.DatabaseURL != "" {
		pool, err := database.NewPostgresPool(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Printf("Postgres unavailable, running in-memory: %v", err)
		} else {
			defer pool.Close()
			deps.Storage = repositories.NewPostgresSnapshotRepository(pool, cfg.PropertyID)
			deps.Archive = repositories.NewPostgresSyncLogRepository(pool, cfg.PropertyID)
		}
	}
	if cfg.RedisURL != "" {
		redisClient, err := database.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Printf("Redis unavailable, connectivity status will not be published: %v", err)
		} else {
			defer redisClient.Close()
			statusRepo = repositories.NewRedisStatusRepository(redisClient, cfg.PropertyID)
		}
	}

	// Agency gateway adapters
	agencies, err := loadAgencies(os.Getenv("AGENCIES_FILE"))
	if err != nil {
		log.Fatalf("Failed to load agency credentials: %v", err)
	}
	registry := gateway.NewRegistry()
	for _, creds := range agencies {
		adapter, err := gateway.NewHTTPAdapter(creds, nil)
		if err != nil {
			log.Fatalf("Failed to configure agency %s: %v", creds.AgencyID, err)
		}
		registry.Register(creds.AgencyID, adapter)
	}
	deps.Gateway = registry

	if pmsURL := os.Getenv("PMS_URL"); pmsURL != "" {
		client := pms.NewClient(pmsURL, os.Getenv("PMS_API_KEY"), nil)
		deps.PMS = client
		deps.Rooms = client
	}

	// Engine and connectivity monitor. The monitor's debounced trigger fires
	// one sync pass per regained-connectivity edge.
	var eng *engine.Engine
	monitor := engine.NewMonitor(cfg.SyncDebounce, func() {
		if _, err := eng.TriggerSync(context.Background()); err != nil {
			log.Printf("Connectivity-triggered sync failed: %v", err)
		}
	})
	deps.Connectivity = monitor

	eng = engine.NewEngine(deps, engine.Config{
		PushTimeout:     cfg.PushTimeout,
		MaxSyncAttempts: cfg.MaxSyncAttempts,
	})
	if err := eng.Load(ctx); err != nil {
		log.Fatalf("Failed to restore engine state: %v", err)
	}

	go monitor.Run(ctx, cfg.ProbeInterval, connectivityProbe(cfg.ConnectivityURL, statusRepo))

	handler := handlers.NewHandler(eng, monitor, registry, agencies, statusRepo, cfg.AdminAPIKeyHash)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: handler.Routes(),
	}

	// graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down server...")
		cancel()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		server.Shutdown(shutdownCtx)
	}()

	log.Printf("Starting server on port %s (property %s)", cfg.ServerPort, cfg.PropertyID)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server stopped gracefully")
}

// loadAgencies reads and validates per-agency credentials. Validation happens
// here, at configuration time, never during a sync pass.
func loadAgencies(path string) (map[string]*gateway.AgencyCredentials, error) {
	agencies := make(map[string]*gateway.AgencyCredentials)
	if path == "" {
		log.Println("AGENCIES_FILE not set, no channel gateways configured")
		return agencies, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var list []*gateway.AgencyCredentials
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	for _, creds := range list {
		if err := creds.Validate(); err != nil {
			return nil, err
		}
		agencies[creds.AgencyID] = creds
	}
	return agencies, nil
}

// connectivityProbe checks a well-known endpoint and heartbeats the result to
// the status store so the dashboard can read liveness.
func connectivityProbe(url string, statusRepo repositories.StatusRepository) engine.Probe {
	client := &http.Client{Timeout: 5 * time.Second}
	return func(ctx context.Context) bool {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return false
		}
		resp, err := client.Do(req)
		online := err == nil
		if resp != nil {
			resp.Body.Close()
		}

		if statusRepo != nil {
			status := &models.ConnectivityStatus{Online: online}
			if err := statusRepo.SetConnectivity(ctx, status); err != nil {
				log.Printf("Failed to publish connectivity status: %v", err)
			}
		}
		return online
	}
}
