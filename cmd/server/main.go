package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chatline/backend/internal/account"
	"chatline/backend/internal/auth"
	"chatline/backend/internal/blob"
	"chatline/backend/internal/config"
	"chatline/backend/internal/database"
	"chatline/backend/internal/friends"
	"chatline/backend/internal/handler"
	"chatline/backend/internal/hub"
	"chatline/backend/internal/logger"
	"chatline/backend/internal/messaging"
	"chatline/backend/internal/realtime"
	"chatline/backend/internal/store"
	"chatline/backend/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	// Swagger imports
	_ "chatline/backend/docs" // This is important for swag to find the generated docs

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

const shutdownTimeout = 10 * time.Second

// @title           Chatline API
// @version         1.0
// @description     HTTP surface of the Chatline realtime messaging service.
// @host            localhost:8080
// @BasePath        /api/v1
// @securityDefinitions.apiKey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	zl, err := logger.New(logger.Config{
		Environment: cfg.Environment,
		LogLevel:    cfg.LogLevel,
		ServiceName: "chatline",
	})
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, zl); err != nil {
		zl.Fatal("server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, zl *zap.Logger) error {
	// Connect to the database
	db, err := database.Connect(cfg.DatabaseDriver, cfg.DatabaseURL, zl)
	if err != nil {
		return err
	}
	st := store.New(db)

	var revocations auth.Revocations = auth.NewStoreRevocations(st)
	if cfg.RedisURL != "" {
		client, err := auth.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer client.Close()
		revocations = auth.NewRedisRevocations(client, revocations, cfg.TokenTTL, zl)
	}

	tokens := jwt.NewService(cfg.JWTSecret, cfg.TokenTTL)
	gate := auth.NewGate(tokens, st, revocations, zl)

	registry := hub.NewMemoryRegistry()
	router := hub.NewRouter(registry, zl)

	blobs, local, err := newBlobStore(cfg)
	if err != nil {
		return err
	}

	accounts := account.NewService(st, tokens, zl)
	friendsSvc := friends.NewService(st, router, zl)
	messages := messaging.NewService(st, blobs, router, zl)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(logger.GinMiddleware(zl), gin.Recovery())

	// Swagger route
	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	engine.GET("/ws", realtime.NewSocket(gate, messages, registry, cfg.AllowedOrigins(), zl).Handle())
	if local != nil {
		engine.GET(local.Prefix()+"/*filepath", gin.WrapH(local.Handler()))
	}

	// API v1 routes
	handler.New(accounts, friendsSvc, messages, gate).RegisterRoutes(engine.Group("/api/v1"))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		zl.Info("server is running", zap.String("addr", srv.Addr),
			zap.String("swagger", fmt.Sprintf("http://localhost:%s/swagger/index.html", cfg.Port)))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		zl.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// newBlobStore picks the media backend. The local store is also returned
// so its files can be served.
func newBlobStore(cfg *config.Config) (blob.Store, *blob.Local, error) {
	if cfg.UploadBackend == "s3" {
		s3, err := blob.NewS3(blob.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			URLTTL:          cfg.S3URLTTL,
		})
		return s3, nil, err
	}
	local, err := blob.NewLocal(afero.NewOsFs(), cfg.UploadDir, cfg.UploadURLPrefix)
	return local, local, err
}
