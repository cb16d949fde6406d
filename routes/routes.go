package routes

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"

	"github.com/meinhoongagan/home-services/controllers"
	"github.com/meinhoongagan/home-services/logger"
	"github.com/meinhoongagan/home-services/mailer"
	"github.com/meinhoongagan/home-services/middleware"
	"github.com/meinhoongagan/home-services/redis"
	"github.com/meinhoongagan/home-services/store"
	"github.com/meinhoongagan/home-services/utils"
)

// Deps is everything the HTTP layer needs.
type Deps struct {
	Store       store.Store
	Revoker     redis.TokenRevoker
	Limiter     controllers.LoginLimiter
	Notifier    *mailer.Notifier
	JWTSecret   string
	JWTTTL      time.Duration
	CORSOrigins string
}

// NewApp builds the fiber app with middleware and every route registered.
func NewApp(deps Deps) *fiber.App {
	if deps.Revoker == nil {
		deps.Revoker = redis.NewMemoryRevoker()
	}
	if deps.CORSOrigins == "" {
		deps.CORSOrigins = "*"
	}

	app := fiber.New(fiber.Config{
		AppName:      "home-services",
		ErrorHandler: errorHandler,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: deps.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))
	app.Use(middleware.RequestLogger())
	app.Use(middleware.Metrics())

	public := &controllers.PublicController{Store: deps.Store}
	app.Get("/healthz", public.Health)
	app.Get("/metrics", middleware.MetricsHandler())

	api := app.Group("/api")
	protected := middleware.Protected(deps.JWTSecret, deps.Revoker)

	SetupAuthRoutes(api, protected, deps)
	SetupPublicRoutes(api, public)
	SetupServiceRoutes(api, protected, deps)
	SetupConsumerRoutes(api, protected, deps)

	app.Use(func(c *fiber.Ctx) error {
		return utils.Fail(c, fiber.StatusNotFound, "Route not found")
	})
	return app
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	}
	if code >= fiber.StatusInternalServerError {
		logger.Log.Error("unhandled error",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
	}
	return utils.Fail(c, code, message)
}
