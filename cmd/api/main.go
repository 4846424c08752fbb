package main

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"usersapi/docs"
	"usersapi/internal/config"
	"usersapi/internal/database"
	"usersapi/internal/database/migration"
	handlers "usersapi/internal/http/handler"
	"usersapi/internal/http/middleware"
	"usersapi/internal/model"
	otelsetup "usersapi/internal/otel"
	"usersapi/internal/repository/postgres"
	"usersapi/internal/roster"
	"usersapi/internal/service"
	"usersapi/internal/storage"
)

// @title Users API
// @version 1.0
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	ctx := context.Background()
	loc := time.UTC

	// Tracing first so the DB driver and HTTP middleware pick up the provider
	shutdownTracing, err := otelsetup.Init(ctx, loc)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(shutdownCtx)
	}()

	// Initialize PostgreSQL connection (with pooling via database/sql)
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, loc, cfg.Database.Host); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// Initialize reusable S3-compatible object storage client for avatars
	objStore, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		log.Fatalf("failed to initialize object storage: %v", err)
	}

	// Wire repository, in-memory roster, and service
	userRepo := postgres.NewUserPostgres(db)
	userRoster := roster.New()
	userSvc := service.NewUserService(userRepo, userRoster, objStore)

	// Metrics: request counter middleware plus a gauge fed by roster change
	// notifications, so the local copy's size is visible without an endpoint.
	reg := prometheus.NewRegistry()
	promMw, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		log.Fatalf("failed to register metrics: %v", err)
	}
	rosterGauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "roster_users",
		Help: "Number of users currently held in the in-memory roster.",
	})
	reg.MustRegister(rosterGauge)
	userRoster.Subscribe(func(users []model.User) {
		rosterGauge.Set(float64(len(users)))
	})

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
	})

	// Register global middleware
	app.Use(middleware.RequestID())
	app.Use(otelfiber.Middleware())
	app.Use(middleware.Logger())
	app.Use(promMw.Handler())

	// Register HTTP routes with injected service
	handlers.RegisterRoutes(app, db, userSvc)

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	addr := ":" + cfg.Port

	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
