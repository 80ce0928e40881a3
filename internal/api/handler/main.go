package handler

import (
	"net/http"

	"github.com/labstack/echo-contrib/pprof"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/samber/do"
)

type Config struct {
	Container *do.Injector
	Mode      string
}

// New builds the read-only HTTP surface: a keep-alive root, a health
// probe and the public ranking/class listings.
func New(cfg *Config) (http.Handler, error) {
	r := echo.New()
	r.Pre(middleware.RemoveTrailingSlash())
	if cfg.Mode == "debug" {
		r.Debug = true
		pprof.Register(r)
	}

	r.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339}\t${method}\t${uri}\t${status}\t${latency_human}\n",
	}))
	r.Use(middleware.Recover())

	r.GET("", func(c echo.Context) error {
		return c.String(http.StatusOK, "🤖")
	})
	r.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	routesAPIv1 := r.Group("/api/v1")
	{
		a := groupAcademy{cfg.Container}
		routesAPIv1.GET("/ranking", a.WeeklyRanking)
		routesAPIv1.GET("/classes", a.UpcomingClasses)
		routesAPIv1.GET("/progress/:user", a.Progress)
	}

	return r, nil
}
