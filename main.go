package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"github.com/camden-git/photovaultbackend/blobstore"
	"github.com/camden-git/photovaultbackend/config"
	"github.com/camden-git/photovaultbackend/database"
	"github.com/camden-git/photovaultbackend/handlers"
	"github.com/camden-git/photovaultbackend/media"
	"github.com/camden-git/photovaultbackend/repository"
	"github.com/camden-git/photovaultbackend/tasks"
	"github.com/camden-git/photovaultbackend/workers"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Printf("Info: No .env file found or error loading: %v", err)
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	log.Printf("Ensuring temp upload directory exists: %s", cfg.TempUploadPath)
	if err := os.MkdirAll(cfg.TempUploadPath, 0755); err != nil {
		log.Fatalf("FATAL: Failed to create temp upload directory %s: %v", cfg.TempUploadPath, err)
	}

	db, err := database.InitGormDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize database: %v", err)
	}
	if err := database.AutoMigrateModels(db); err != nil {
		log.Fatalf("FATAL: Failed to migrate database: %v", err)
	}

	albumRepo := repository.NewAlbumRepository(db)
	photoRepo := repository.NewPhotoRepository(db)

	if _, err := albumRepo.EnsureDefaultAlbum(); err != nil {
		log.Fatalf("FATAL: Failed to ensure default album: %v", err)
	}

	blobs, err := blobstore.NewS3Store(context.Background(), cfg)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize blob store: %v", err)
	}
	keyGen := blobstore.KeyGenerator{Prefix: cfg.S3KeyPrefix}

	transformer := &media.Transformer{
		FFmpegPath:     cfg.FFmpegPath,
		TempDir:        cfg.TempUploadPath,
		ImageMaxSize:   cfg.ImageMaxSize,
		TranscodeVideo: cfg.TranscodeVideo,
	}

	registry := tasks.NewRegistry(time.Duration(cfg.TaskRetentionMinutes) * time.Minute)

	log.Printf("Initializing upload ingestion worker pool (Workers: %d, Queue Size: %d)...", cfg.NumUploadWorkers, cfg.UploadQueueSize)
	ingestor := workers.NewIngestor(registry, transformer, blobs, keyGen, albumRepo, photoRepo, cfg.UploadQueueSize, cfg.NumUploadWorkers)
	defer ingestor.Stop()

	log.Printf("Using database: %s", cfg.DatabasePath)
	log.Printf("Storing blobs in bucket %s under prefix %s", cfg.S3Bucket, cfg.S3KeyPrefix)
	log.Printf("Serving blob URLs from: %s", cfg.S3PublicBaseURL)

	r := chi.NewRouter()

	corsOptions := cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173"}, //TODO: configurable
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}

	corsHandler := cors.New(corsOptions)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(corsHandler.Handler)

	albumHandler := &handlers.AlbumHandler{Albums: albumRepo, Photos: photoRepo}
	photoHandler := &handlers.PhotoHandler{Photos: photoRepo, Albums: albumRepo, Blobs: blobs}
	uploadHandler := &handlers.UploadHandler{
		Registry:       registry,
		Ingestor:       ingestor,
		Albums:         albumRepo,
		TempUploadPath: cfg.TempUploadPath,
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/albums", func(r chi.Router) {
			r.Post("/", albumHandler.CreateAlbum)
			r.Get("/", albumHandler.ListAlbums)
			r.Route("/{album_id}", func(r chi.Router) {
				r.Get("/", albumHandler.GetAlbum)
				r.Put("/", albumHandler.UpdateAlbum)
				r.Delete("/", albumHandler.DeleteAlbum)
				r.Get("/photos", albumHandler.GetAlbumPhotos)
			})
		})

		r.Route("/photos", func(r chi.Router) {
			r.Post("/bulkDelete", photoHandler.BulkDeletePhotos)
			r.Post("/bulkMove", photoHandler.BulkMovePhotos)
			r.Route("/{photo_id}", func(r chi.Router) {
				r.Put("/", photoHandler.UpdatePhoto)
				r.Patch("/move", photoHandler.MovePhoto)
				r.Delete("/", photoHandler.DeletePhoto)
			})
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Post("/submit-upload", uploadHandler.SubmitUpload)
			r.Get("/status/{task_id}", uploadHandler.GetTaskStatus)
		})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	serverAddr := ":" + port
	log.Printf("Server listening on %s", serverAddr)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	log.Fatal(server.ListenAndServe())
}
