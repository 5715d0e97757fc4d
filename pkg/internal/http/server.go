package http

import (
	"strings"

	"git.solsynth.dev/hypernet/msgdict/pkg/internal/http/api"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type App struct {
	app *fiber.App
}

func NewServer() *App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage:    true,
		EnableIPValidation:       true,
		ServerHeader:             "HyperNet.MessageDict",
		AppName:                  "HyperNet.MessageDict",
		ProxyHeader:              fiber.HeaderXForwardedFor,
		JSONEncoder:              jsoniter.ConfigCompatibleWithStandardLibrary.Marshal,
		JSONDecoder:              jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal,
		EnableSplittingOnParsers: true,
		EnablePrintRoutes:        viper.GetBool("debug.print_routes"),
	})

	app.Use(cors.New(cors.Config{
		AllowMethods: strings.Join([]string{
			fiber.MethodGet,
			fiber.MethodHead,
			fiber.MethodOptions,
			fiber.MethodDelete,
		}, ","),
		AllowOriginsFunc: func(origin string) bool {
			return true
		},
	}))

	app.Use(logger.New(logger.Config{
		Format: "${status} | ${latency} | ${method} ${path}\n",
		Output: log.Logger,
	}))

	api.MapAPIs(app, "/api")

	return &App{app}
}

func (v *App) Listen() {
	if err := v.app.Listen(viper.GetString("bind")); err != nil {
		log.Fatal().Err(err).Msg("An error occurred when starting http server...")
	}
}

func (v *App) Shutdown() error {
	return v.app.Shutdown()
}
