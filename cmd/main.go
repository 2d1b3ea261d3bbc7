package main

import (
	"database/sql"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/go-sql-driver/mysql"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/AlexZx-05/Multiple-step-form/internal/api"
	"github.com/AlexZx-05/Multiple-step-form/internal/cache"
	"github.com/AlexZx-05/Multiple-step-form/internal/config"
	"github.com/AlexZx-05/Multiple-step-form/internal/metrics"
	"github.com/AlexZx-05/Multiple-step-form/internal/reference"
	"github.com/AlexZx-05/Multiple-step-form/internal/repository"
	"github.com/AlexZx-05/Multiple-step-form/internal/service"
	"github.com/AlexZx-05/Multiple-step-form/internal/storage"
	"github.com/AlexZx-05/Multiple-step-form/migrations"
)

func connectDBEnv(cfg config.AppConfig) (*sql.DB, error) {
	var db *sql.DB
	var err error
	for i := 0; i < 10; i++ {
		db, err = sql.Open("mysql", cfg.DSN())
		if err == nil {
			err = db.Ping()
			if err == nil {
				log.Info().Msgf("✅ Connected to DB %s", cfg.DBName)
				return db, nil
			}
			db.Close()
		}
		log.Warn().Err(err).Msgf("⏳ Waiting for DB %s... (%d/10)", cfg.DBName, i+1)
		time.Sleep(2 * time.Second)
	}
	return nil, err
}

func main() {
	cfg := config.Load()

	db, err := connectDBEnv(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to DB")
	}
	defer db.Close()

	if err := migrations.AutoMigrateUsers(3, db); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate users table")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
	})

	refs, err := reference.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load reference data")
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	var events service.EventWriter
	if kafkaWriter := config.NewKafkaWriter(cfg.KafkaBrokers, cfg.ProfileTopic); kafkaWriter != nil {
		defer kafkaWriter.Close()
		events = kafkaWriter
	} else {
		log.Warn().Msg("KAFKA_BROKERS not set, profile events are disabled")
	}

	// Initialize UserService
	userRepo := repository.NewUserRepository(db)
	userService := service.NewUserService(
		userRepo,
		cache.NewUsernameCache(rdb),
		cache.NewSessionStore(rdb, cfg.JWTTTL),
		events,
		m,
		service.TokenConfig{Secret: []byte(cfg.JWTSecret), TTL: cfg.JWTTTL},
	)
	photos := storage.NewPhotoStore(cfg.UploadDir, cfg.MaxPhotoBytes, cfg.MaxPhotoDimension)
	userHandler := api.NewUserHandler(userService, refs, photos, m)

	e := api.NewRouter(userHandler, api.RouterConfig{
		JWTSecret:   []byte(cfg.JWTSecret),
		RateLimit:   cfg.RateLimit,
		RateBurst:   cfg.RateBurst,
		CORSOrigins: cfg.CORSOrigins,
		UploadDir:   cfg.UploadDir,
		BodyLimit:   "2M",
	})

	// Start server
	e.Logger.Fatal(e.Start(cfg.HTTPAddr))
}
