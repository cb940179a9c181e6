// Package main provides the flow admin API server.
package main

import (
	"log/slog"
	"strconv"

	"github.com/dukex/flowadmin/pkg/flowstore"
	"github.com/dukex/flowadmin/pkg/registry"
	"github.com/dukex/flowadmin/pkg/services"
	"github.com/dukex/flowadmin/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
)

type API struct {
	logger   *slog.Logger
	store    *flowstore.Store
	flows    *services.Flows
	registry *registry.Registry
	validate *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	store *flowstore.Store,
	flows *services.Flows,
	registry *registry.Registry,
) *API {
	return &API{
		logger:   logger,
		store:    store,
		flows:    flows,
		registry: registry,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	handlers := web.NewAPIHandlers(a.flows, a.validate, a.registry, a.store)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Flow Admin API")
	})

	handlers.Register(app)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	err := app.Listen(":" + strconv.Itoa(port))

	return err
}
