package app

import (
	"time"

	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/Ramsey-B/fern/config"
	"github.com/Ramsey-B/fern/pkg/alias"
	"github.com/Ramsey-B/fern/pkg/middleware"
	"github.com/Ramsey-B/fern/pkg/resolver"
	"github.com/Ramsey-B/fern/pkg/routes/aliases"
	"github.com/Ramsey-B/fern/pkg/routes/health"
	"github.com/Ramsey-B/fern/pkg/routes/metrics"
	"github.com/Ramsey-B/fern/pkg/routes/resolve"
)

// RegisterDependencies publishes the handlers' dependencies in the default container.
// The default container can only be created once per process.
func RegisterDependencies(svc *resolver.Service, idx *alias.Index) error {
	container, err := ectoinject.NewDIDefaultContainer()
	if err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*resolver.Service](container, svc); err != nil {
		return err
	}
	return ectoinject.RegisterInstance[*alias.Index](container, idx)
}

// NewServer builds the echo instance with middleware and every route group
func NewServer(cfg *config.Config, logger ectologger.Logger, checker *health.Checker) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.Error(logger)

	e.Use(echomw.Recover())
	e.Use(otelecho.Middleware(cfg.AppName))
	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: cfg.AllowMethods,
	}))

	e.Server.ReadTimeout = seconds(cfg.HttpServerReadTimeoutSeconds)
	e.Server.WriteTimeout = seconds(cfg.HttpServerWriteTimeoutSeconds)
	e.Server.IdleTimeout = seconds(cfg.HttpServerIdleTimeoutSeconds)
	e.Server.ReadHeaderTimeout = seconds(cfg.ReadHeaderTimeoutSeconds)
	e.Server.MaxHeaderBytes = cfg.MaxHeaderBytes

	checker.RegisterRoutes(e)
	metrics.RegisterRoutes(e)

	v1 := e.Group("/api/v1")
	resolve.Register(v1.Group("/resolve"))
	aliases.Register(v1.Group("/aliases"))

	return e
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
