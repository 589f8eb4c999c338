package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/sync/errgroup"

	"cinecompose-server/modules/archive"
	"cinecompose-server/modules/cinema"
	"cinecompose-server/modules/common/config"
	"cinecompose-server/modules/common/database"
	"cinecompose-server/modules/common/gemini"
	redisClient "cinecompose-server/modules/common/redis"
	"cinecompose-server/modules/common/storage"
	"cinecompose-server/modules/events"
	"cinecompose-server/modules/preview"
	"cinecompose-server/modules/studio"
	"cinecompose-server/modules/worker"
)

var startTime = time.Now()

// CORS 헤더 추가
func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// 헬스 체크 엔드포인트
func healthCheck(hub *events.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"status":    "healthy",
			"service":   "cinecompose-server",
			"uptime":    time.Since(startTime).String(),
			"wsClients": hub.ClientCount(),
		})
	}
}

// newArchiver - ARCHIVE_ENABLED 일 때만 Supabase 아카이브 구성
func newArchiver(cfg *config.Config) studio.Archiver {
	if !cfg.ArchiveEnabled {
		return nil
	}
	dbClient, err := database.NewClient(cfg)
	if err != nil {
		log.Printf("⚠️  [Archive] Disabled: %v", err)
		return nil
	}
	log.Printf("✅ [Archive] Enabled (bucket: %s)", cfg.SupabaseStorageBucket)
	return archive.NewArchiver(storage.NewClient(cfg), dbClient)
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	genaiClient, err := gemini.NewClient(ctx, cfg)
	if err != nil {
		log.Fatalf("❌ Failed to create Gemini client: %v", err)
	}

	hub := events.NewHub()
	studioService := studio.NewService(studio.Options{
		Gateway:         cinema.NewService(genaiClient, cfg.GeminiModel),
		Publisher:       hub,
		Archiver:        newArchiver(cfg),
		AutomationDelay: cfg.AutomationDelay,
		RequestTimeout:  cfg.RequestTimeout,
	})

	// 라우터 설정
	r := mux.NewRouter()
	r.Use(enableCORS)

	r.HandleFunc("/", healthCheck(hub)).Methods("GET")
	r.HandleFunc("/health", healthCheck(hub)).Methods("GET")
	r.HandleFunc("/ws", hub.HandleWebSocket)

	preview.NewPreviewHandler(studioService.Previews()).RegisterRoutes(r)
	studio.NewStudioHandler(studioService).RegisterRoutes(r)

	g, gctx := errgroup.WithContext(ctx)

	// Redis 트리거 큐 (선택)
	if cfg.TriggerQueueEnabled {
		rdb, err := redisClient.Connect(ctx, cfg)
		if err != nil {
			log.Fatalf("❌ Failed to connect to Redis: %v", err)
		}
		defer rdb.Close()

		worker.NewEnqueueHandler(rdb).RegisterRoutes(r)
		w := worker.NewWorker(rdb, studioService, cfg.TriggerMinInterval)
		g.Go(func() error {
			return w.Run(gctx)
		})
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		log.Printf("🚀 CineCompose Server starting on port %s", cfg.Port)
		log.Printf("📡 WebSocket endpoint: ws://localhost:%s/ws", cfg.Port)
		log.Printf("❤️  Health check: http://localhost:%s/health", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Println("🛑 Shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)

		studioService.Close()
		hub.Close()
		return err
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("❌ Server error: %v", err)
	}
	log.Println("👋 Server stopped")
}
