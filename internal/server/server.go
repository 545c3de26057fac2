package server

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prtkgoswami/gears-connect/internal/auth"
	"github.com/prtkgoswami/gears-connect/internal/cache"
	"github.com/prtkgoswami/gears-connect/internal/config"
	"github.com/prtkgoswami/gears-connect/internal/garage"
	"github.com/prtkgoswami/gears-connect/internal/meetup"
	"github.com/prtkgoswami/gears-connect/internal/profile"
	"github.com/prtkgoswami/gears-connect/internal/storage"
	"github.com/prtkgoswami/gears-connect/internal/stream"
	"github.com/redis/go-redis/v9"
)

const cacheTTL = 5 * time.Minute

type Server struct {
	App    *fiber.App
	Cfg    config.Config
	DB     *pgxpool.Pool
	Redis  *redis.Client
	Cache  *cache.Cache
	Stream *stream.Hub
}

func NewServer(cfg config.Config, db *pgxpool.Pool, redisClient *redis.Client, store storage.ObjectStore) *Server {
	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	s := &Server{
		App:    app,
		Cfg:    cfg,
		DB:     db,
		Redis:  redisClient,
		Cache:  cache.New(redisClient, cacheTTL),
		Stream: stream.NewHub(redisClient),
	}

	registerRoutes(s, store)
	return s
}

func registerRoutes(s *Server, store storage.ObjectStore) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)
	storageSvc := storage.NewService(s.DB, store, s.Cfg.S3PublicURL)

	auth.RegisterRoutes(s.App.Group("/auth"), auth.NewService(s.Cfg.JWTSecret, s.DB))
	profile.RegisterRoutes(s.App.Group("/profiles"), profile.NewService(s.DB, s.Cache), jwtMiddleware)
	garage.RegisterRoutes(s.App.Group("/vehicles"), garage.NewService(s.DB, s.Cache, storageSvc), jwtMiddleware)
	meetup.RegisterRoutes(s.App.Group("/meetups"), meetup.NewService(s.DB, s.Cache, s.Stream), jwtMiddleware)
	storage.RegisterRoutes(s.App.Group("/storage"), storageSvc, jwtMiddleware)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream)
}
