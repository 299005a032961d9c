// cmd/api/main.go
// Main entry point for the application
// This file bootstraps all components and starts the server

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	// Internal packages
	"github.com/techswap/techswap-backend/internal/activity"
	"github.com/techswap/techswap-backend/internal/auth"
	"github.com/techswap/techswap-backend/internal/common/database"
	"github.com/techswap/techswap-backend/internal/config"
	"github.com/techswap/techswap-backend/internal/listings"
	"github.com/techswap/techswap-backend/internal/messaging"
	"github.com/techswap/techswap-backend/internal/notify"
	"github.com/techswap/techswap-backend/internal/profile"
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	log.Println("========================================")
	log.Println("🚀 Starting TechSwap Marketplace API")
	log.Println("========================================")

	// 1. Load environment variables
	log.Println("📁 Step 1: Loading .env file...")
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️  Warning: No .env file found (%v), using environment variables", err)
	} else {
		log.Println("✅ .env file loaded successfully")
	}

	// 2. Load configuration
	log.Println("\n📋 Step 2: Loading configuration...")
	cfg := config.Load()
	log.Printf("✅ Configuration loaded")

	// 3. Validate configuration
	log.Println("\n✔️  Step 3: Validating configuration...")
	if err := cfg.Validate(); err != nil {
		log.Fatal("❌ Configuration validation failed:", err)
	}
	log.Println("✅ Configuration is valid")

	// 4. Connect to PostgreSQL
	log.Println("\n🗄️  Step 4: Connecting to PostgreSQL...")
	db, err := database.NewPostgresDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("❌ Failed to connect to PostgreSQL:", err)
	}
	defer db.Close()
	log.Println("✅ Connected to PostgreSQL successfully")

	// 5. Run database migrations
	log.Println("\n🔨 Step 5: Running database migrations...")
	if err := runMigrations(db); err != nil {
		log.Printf("❌ Migration error: %v", err)
		log.Fatal("Failed to run migrations")
	}
	log.Println("✅ Database migrations completed")

	// 6. Connect to Redis and pick the message feed
	log.Println("\n📮 Step 6: Connecting to Redis...")
	var feed messaging.Feed
	if cfg.RedisURL != "" {
		redisClient, err := database.NewRedisClient(cfg.RedisURL)
		if err != nil {
			log.Printf("⚠️  Redis unavailable (%v), using in-process message feed", err)
			feed = messaging.NewMemoryFeed()
		} else {
			defer redisClient.Close()
			feed = messaging.NewRedisFeed(redisClient)
			log.Println("✅ Connected to Redis, using pub/sub message feed")
		}
	} else {
		feed = messaging.NewMemoryFeed()
		log.Println("⚠️  Redis URL not configured, using in-process message feed")
	}

	// 7. Initialize auth middleware
	log.Println("\n🔐 Step 7: Initializing authentication...")
	authMiddleware := auth.NewMiddleware(cfg.JWTSecret)
	log.Println("✅ Authentication initialized")

	// 8. Initialize Profile module
	log.Println("\n👤 Step 8: Initializing Profile module...")
	profileRepo := profile.NewPostgresRepository(db)
	nameResolver := profile.NewResolver(profileRepo)
	profileService := profile.NewService(profileRepo, nameResolver)
	profileHandler := profile.NewHandler(profileService)
	log.Println("✅ Profile module initialized")

	// 9. Initialize Activity module
	log.Println("\n📊 Step 9: Initializing Activity module...")
	activityRepo := activity.NewPostgresRepository(db)
	activityService := activity.NewService(activityRepo, nameResolver)
	activityHandler := activity.NewHandler(activityService)
	log.Println("✅ Activity module initialized")

	// 10. Initialize Listings module
	log.Println("\n📦 Step 10: Initializing Listings module...")
	listingsRepo := listings.NewPostgresRepository(db)

	var uploader listings.Uploader
	if cfg.UseS3 {
		awsSession, err := session.NewSession(&aws.Config{
			Region:      aws.String(cfg.AWSRegion),
			Credentials: credentials.NewStaticCredentials(cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey, ""),
		})
		if err != nil {
			log.Printf("⚠️  Failed to init S3, using local storage: %v", err)
			uploader = listings.NewLocalUploader(cfg.LocalUploadDir, cfg.BaseURL+"/uploads", cfg.MaxUploadSize)
		} else {
			uploader = listings.NewS3Uploader(awsSession, cfg.S3BucketName, cfg.S3PublicURL, cfg.MaxUploadSize)
			log.Println("   ✅ Using S3 for listing images")
		}
	} else {
		uploader = listings.NewLocalUploader(cfg.LocalUploadDir, cfg.BaseURL+"/uploads", cfg.MaxUploadSize)
		log.Println("   ✅ Using local storage for listing images")
	}

	listingsService := listings.NewService(listingsRepo, uploader, activityService, nameResolver, cfg.MaxListingImages)
	listingsHandler := listings.NewHandler(listingsService, cfg.MaxUploadSize)
	log.Println("✅ Listings module initialized")

	// 11. Initialize Notify module
	log.Println("\n🔔 Step 11: Initializing Notify module...")
	emailService, err := notify.NewEmailService(cfg)
	if err != nil {
		log.Printf("⚠️  Email provider unavailable (%v), using mock", err)
		emailService = notify.NewMockEmailService()
	}
	notifyService := notify.NewService(emailService, profileService, cfg.EnableEmailNotifications)
	log.Println("✅ Notify module initialized")

	// 12. Initialize Messaging module
	log.Println("\n💬 Step 12: Initializing Messaging module...")
	messagingRepo := messaging.NewPostgresRepository(db)
	messagingService := messaging.NewService(messagingRepo, feed, nameResolver, notifyService)

	messagingHub := messaging.NewHub(feed)
	messagingService.SetHub(messagingHub)
	go messagingHub.Run()
	log.Println("   ✅ WebSocket hub started")

	messagingHandler := messaging.NewHandler(messagingService, messagingHub)
	log.Println("✅ Messaging module initialized")

	// 13. Setup routes
	log.Println("\n🛣️  Step 13: Setting up routes...")
	router := mux.NewRouter()

	// Static files for uploads
	if !cfg.UseS3 {
		router.PathPrefix("/uploads/").Handler(
			http.StripPrefix("/uploads/",
				http.FileServer(http.Dir(cfg.LocalUploadDir))))
		log.Println("   ✅ Static file server configured")
	}

	router.HandleFunc("/health", healthCheck).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	profile.RegisterRoutes(router, profileHandler, authMiddleware.Authenticate)
	log.Println("   ✅ Profile routes registered")

	listings.RegisterRoutes(router, listingsHandler, authMiddleware.Authenticate, authMiddleware.OptionalAuthenticate)
	log.Println("   ✅ Listings routes registered")

	activity.RegisterRoutes(router, activityHandler)
	log.Println("   ✅ Activity routes registered")

	messaging.RegisterRoutes(router, messagingHandler, authMiddleware.Authenticate)
	messaging.RegisterHealthCheck(router, messagingHandler)
	log.Println("   ✅ Messaging routes registered")

	router.Use(loggingMiddleware)
	router.Use(corsMiddleware)

	// 14. Create and start HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Println("\n========================================")
		log.Printf("🚀 Server starting on http://localhost%s", srv.Addr)
		log.Printf("🌍 Environment: %s", cfg.Environment)
		log.Println("========================================")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("❌ Failed to start server:", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("\n⚠️  Shutdown signal received...")

	log.Println("   - Shutting down messaging hub...")
	messagingHub.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("❌ Server forced to shutdown:", err)
	}

	log.Println("✅ Server exited gracefully")
}

var startTime = time.Now()

// healthCheck returns server health status
func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"healthy","timestamp":%q,"uptime":%q}`,
		time.Now().Format(time.RFC3339), time.Since(startTime).String())
}

// loggingMiddleware logs all requests
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		log.Printf("→ %s %s from %s", r.Method, r.RequestURI, r.RemoteAddr)

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		duration := time.Since(start)
		log.Printf("← %s %s [%d] %v", r.Method, r.RequestURI, wrapped.statusCode, duration)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// corsMiddleware handles CORS
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// runMigrations creates tables and indexes if they do not exist
func runMigrations(db *sqlx.DB) error {
	migrations := []string{
		`CREATE EXTENSION IF NOT EXISTS "pgcrypto"`,

		`CREATE TABLE IF NOT EXISTS profiles (
			user_id UUID PRIMARY KEY,
			full_name TEXT,
			email TEXT,
			location TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ
		)`,

		`CREATE TABLE IF NOT EXISTS listings (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id UUID NOT NULL,
			title TEXT NOT NULL,
			description TEXT NOT NULL,
			category TEXT NOT NULL,
			condition TEXT NOT NULL,
			location TEXT NOT NULL,
			issues TEXT,
			status TEXT NOT NULL DEFAULT 'available',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE INDEX IF NOT EXISTS idx_listings_status ON listings(status)`,
		`CREATE INDEX IF NOT EXISTS idx_listings_user ON listings(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_listings_created ON listings(created_at DESC)`,

		`CREATE TABLE IF NOT EXISTS listing_images (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			listing_id UUID NOT NULL REFERENCES listings(id) ON DELETE CASCADE,
			storage_path TEXT NOT NULL,
			order_index INT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE INDEX IF NOT EXISTS idx_listing_images_listing ON listing_images(listing_id)`,

		`CREATE TABLE IF NOT EXISTS messages (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			content TEXT NOT NULL,
			sender_id UUID NOT NULL,
			recipient_id UUID NOT NULL,
			listing_id UUID NOT NULL REFERENCES listings(id) ON DELETE CASCADE,
			read BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE INDEX IF NOT EXISTS idx_messages_sender ON messages(sender_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_recipient ON messages(recipient_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_listing ON messages(listing_id)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_unread ON messages(recipient_id) WHERE read = FALSE`,

		`CREATE TABLE IF NOT EXISTS activities (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			action_type TEXT NOT NULL,
			item_id UUID NOT NULL,
			user_id UUID NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE INDEX IF NOT EXISTS idx_activities_created ON activities(created_at DESC)`,
	}

	for _, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}
