package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/jphacks/tk-b-2510/internal/config"
	"github.com/jphacks/tk-b-2510/internal/handlers"
	"github.com/jphacks/tk-b-2510/internal/middleware"
	"github.com/jphacks/tk-b-2510/internal/observability"
	"github.com/jphacks/tk-b-2510/internal/repository"
	"github.com/jphacks/tk-b-2510/internal/services"
)

const serviceVersion = "1.0.0"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize telemetry
	telemetryCfg := observability.NewConfig("emolog-server", serviceVersion)
	telemetry, err := observability.Initialize(context.Background(), telemetryCfg)
	if err != nil {
		log.Fatalf("Failed to initialize telemetry: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := telemetry.Shutdown(ctx); err != nil {
			log.Printf("Telemetry shutdown error: %v", err)
		}
	}()

	// Users and sessions always live in SQLite. Photos can be moved to
	// PostgreSQL independently via DATABASE_URL.
	sqliteDB, err := repository.NewSQLiteDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize SQLite database: %v", err)
	}
	defer sqliteDB.Close()

	userRepo := repository.NewUserRepository(sqliteDB)
	sessionRepo := repository.NewSessionRepository(sqliteDB)

	var photoRepo repository.PhotoRepo
	if cfg.UsePostgres() {
		log.Println("Using PostgreSQL for the photo store")
		pgDB, err := repository.NewPostgresDB(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to initialize PostgreSQL database: %v", err)
		}
		defer pgDB.Close()
		photoRepo = repository.NewPhotoRepositoryPostgres(pgDB)
	} else {
		log.Println("Using SQLite for the photo store")
		photoRepo = repository.NewPhotoRepository(sqliteDB)
	}

	location := cfg.Location()

	// Initialize services
	hashService := services.NewHashService()
	exifService := services.NewEXIFService()

	storageService, err := services.NewStorageService(
		cfg.PhotoStorage.BasePath,
		cfg.PhotoStorage.AllowedExtensions,
		cfg.PhotoStorage.MaxFileSizeMB,
	)
	if err != nil {
		log.Fatalf("Failed to initialize storage service: %v", err)
	}

	thumbnailService := services.NewThumbnailService(storageService.BasePath())
	analysisService := services.NewAnalysisService(cfg.Analyzer)
	authService := services.NewAuthService(userRepo, sessionRepo, cfg.SessionHours)
	calendarService := services.NewCalendarService(photoRepo, storageService, location)
	streakService := services.NewStreakService(photoRepo, location)

	frameLoader := services.NewStorageFrameLoader(storageService.BasePath(), exifService)
	timelapseService := services.NewTimelapseService(
		photoRepo,
		frameLoader,
		location,
		cfg.Timelapse.FrameRate,
		cfg.Timelapse.OutputDir,
		cfg.Timelapse.FFmpegPath,
	)

	// WebSocket hub for progress and post notifications
	hub := services.NewWebSocketHub()
	go hub.Run()
	timelapseService.SetWebSocketHub(hub)

	// Business metrics
	businessMetrics, err := observability.NewBusinessMetrics()
	if err != nil {
		log.Printf("Business metrics unavailable: %v", err)
	} else {
		authService.SetMetrics(businessMetrics)
		analysisService.SetMetrics(businessMetrics)
		timelapseService.SetMetrics(businessMetrics)
	}

	httpMetrics, err := observability.NewHTTPMetrics()
	if err != nil {
		log.Printf("HTTP metrics unavailable: %v", err)
	}

	// Initialize handlers
	photoHandler := handlers.NewPhotoHandler(
		photoRepo,
		storageService,
		hashService,
		exifService,
		thumbnailService,
		analysisService,
		location,
	)
	photoHandler.SetWebSocketHub(hub)
	if businessMetrics != nil {
		photoHandler.SetMetrics(businessMetrics)
	}

	authHandler := handlers.NewAuthHandler(authService, false)
	calendarHandler := handlers.NewCalendarHandler(calendarService)
	streakHandler := handlers.NewStreakHandler(streakService)
	timelapseHandler := handlers.NewTimelapseHandler(timelapseService)
	summaryHandler := handlers.NewSummaryHandler(analysisService)
	wsHandler := handlers.NewWebSocketHandler(hub)
	healthHandler := handlers.NewHealthHandler()

	// Setup router
	r := chi.NewRouter()

	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(observability.TracingMiddleware("emolog-server"))
	if httpMetrics != nil {
		r.Use(observability.MetricsMiddleware(httpMetrics))
	}

	// Public routes
	r.Get("/health", healthHandler.HealthCheck)
	r.Get("/api/health", healthHandler.HealthCheck)
	r.Post("/api/signup", authHandler.Signup)
	r.Post("/api/login", authHandler.Login)

	// WebSocket accepts anonymous connections but binds a user when a
	// session token is presented
	r.Group(func(r chi.Router) {
		r.Use(middleware.OptionalSessionAuth(authService))
		r.Get("/ws", wsHandler.HandleConnection)
	})

	// Authenticated routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.SessionAuth(authService))

		r.Post("/api/logout", authHandler.Logout)
		r.Get("/api/session", authHandler.Session)

		r.Route("/api/photos", func(r chi.Router) {
			r.Get("/", photoHandler.List)
			r.Post("/", photoHandler.Post)
			r.Get("/{id}", photoHandler.Get)
			r.Delete("/{id}", photoHandler.Delete)
		})

		r.Get("/api/calendar/{year}/{month}", calendarHandler.Month)
		r.Get("/api/streak", streakHandler.Current)
		r.Post("/api/ai-summary", summaryHandler.Summarize)

		r.Route("/api/timelapse", func(r chi.Router) {
			r.Post("/", timelapseHandler.Start)
			r.Get("/status", timelapseHandler.Status)
			r.Get("/{year}/{month}/download", timelapseHandler.Download)
		})

		r.Get("/media/*", photoHandler.ServeMedia)
	})

	// Create server
	srv := &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second, // Longer for photo posts and downloads
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Emolog server starting on %s", cfg.ServerAddress)
		log.Printf("Photo storage path: %s", cfg.PhotoStorage.BasePath)
		log.Printf("Timelapse output path: %s", cfg.Timelapse.OutputDir)
		log.Printf("Timezone: %s", location.String())

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
