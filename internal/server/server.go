package server

import (
	"time"

	"shoppingmall/internal/config"
	appmw "shoppingmall/internal/middleware"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
)

func Start(addr string, cfg config.Config, log zerolog.Logger, handlers Handlers) error {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.Recover())
	e.Use(requestLogger(log))
	// セッションがあれば載せる。無くてもゲストとして通す
	e.Use(appmw.SessionJWT(cfg))

	RegisterRoutes(e, handlers)

	log.Info().Str("addr", addr).Msg("server start")
	return e.Start(addr)
}

// アクセスログ
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			log.Info().
				Str("method", c.Request().Method).
				Str("path", c.Request().URL.Path).
				Int("status", c.Response().Status).
				Dur("latency", time.Since(start)).
				Msg("request")

			return err
		}
	}
}
