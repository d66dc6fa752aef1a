package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"carjoy/internal/auth"
	"carjoy/internal/bus"
	"carjoy/internal/cars"
	"carjoy/internal/config"
	"carjoy/internal/db"
	"carjoy/internal/handlers"
	"carjoy/internal/httpx"
	"carjoy/internal/otel"
	"carjoy/internal/storage"
	"carjoy/internal/users"
	"carjoy/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	httpx.Dev = cfg.DevMode

	cleanup, err := otel.Init(ctx, version.Name, version.Version, cfg.OTLPEndpoint)
	if err != nil {
		log.Fatal().Err(err).Msg("init otel")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := cleanup(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown otel")
		}
	}()

	var (
		userRepo users.Repository
		carRepo  cars.Repository
	)
	if cfg.DBDSN != "" {
		database, err := db.Connect(ctx, cfg.DBDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("connect database")
		}
		defer func() {
			if err := db.Close(database); err != nil {
				log.Error().Err(err).Msg("close database")
			}
		}()
		if err := db.Migrate(ctx, database); err != nil {
			log.Fatal().Err(err).Msg("migrate database")
		}
		userRepo = users.NewGormRepository(database)
		carRepo = cars.NewGormRepository(database)
	} else {
		log.Warn().Msg("DB_DSN not set; using in-memory stores, data will not survive restarts")
		userRepo = users.NewMemoryRepository()
		carRepo = cars.NewMemoryRepository()
	}

	var store storage.Store
	uploadsDir := ""
	switch cfg.StorageBackend {
	case "s3":
		store, err = storage.NewS3Store(ctx, cfg.S3Bucket, cfg.S3PublicBaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("init s3 storage")
		}
	default:
		local, err := storage.NewLocalStore(cfg.UploadDir, "/uploads")
		if err != nil {
			log.Fatal().Err(err).Msg("init local storage")
		}
		store = local
		uploadsDir = local.Dir()
	}

	var events *bus.Bus
	if cfg.NATSURL != "" {
		events, err = bus.New(cfg.NATSURL)
		if err != nil {
			log.Fatal().Err(err).Msg("connect nats")
		}
		defer events.Close()
	}

	issuer := auth.NewTokenIssuer([]byte(cfg.JWTSigningKey), cfg.TokenTTL)
	authService := auth.NewService(userRepo, issuer)
	authHandlers := auth.NewHandlers(authService, cfg.CookieDomain, cfg.CookieSecure, cfg.TokenTTL)
	carService := cars.NewService(carRepo, store, events)
	carHandlers := cars.NewHandlers(carService, store)

	r := handlers.Router(handlers.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		Guard:          auth.Middleware(issuer, userRepo),
		Auth:           authHandlers,
		Cars:           carHandlers,
		UploadsDir:     uploadsDir,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           otelhttp.NewHandler(r, version.Name),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("starting " + version.Name)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown server")
	}
}
