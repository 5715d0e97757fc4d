package main

import (
	"os"
	"os/signal"
	"syscall"

	pkg "git.solsynth.dev/hypernet/msgdict/pkg/internal"
	"git.solsynth.dev/hypernet/msgdict/pkg/internal/cache"
	"git.solsynth.dev/hypernet/msgdict/pkg/internal/database"
	"git.solsynth.dev/hypernet/msgdict/pkg/internal/grpc"
	"git.solsynth.dev/hypernet/msgdict/pkg/internal/http"
	"git.solsynth.dev/hypernet/msgdict/pkg/internal/services"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

func init() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})
}

func main() {
	// Configure settings
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.SetConfigName("settings")
	viper.SetConfigType("toml")
	viper.SetDefault("rerender.schedule", "@every 60m")

	// Load settings
	if err := viper.ReadInConfig(); err != nil {
		log.Panic().Err(err).Msg("An error occurred when loading settings.")
	}

	// Connect to database
	if err := database.NewSource(); err != nil {
		log.Fatal().Err(err).Msg("An error occurred when connect to database.")
	} else if err := database.RunMigration(database.C); err != nil {
		log.Fatal().Err(err).Msg("An error occurred when running database auto migration.")
	}

	// Initialize cache
	if err := cache.NewCache(); err != nil {
		log.Fatal().Err(err).Msg("An error occurred when initializing cache.")
	}

	services.SetupMessageDict()

	// Server
	server := http.NewServer()
	go server.Listen()

	grpcServer := grpc.NewGrpc(database.C)
	go func() {
		if err := grpcServer.Listen(); err != nil {
			log.Fatal().Err(err).Msg("An error occurred when starting grpc server...")
		}
	}()

	// Configure timed tasks
	quartz := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(&log.Logger)))
	if _, err := quartz.AddFunc(viper.GetString("rerender.schedule"), services.DoRerenderStaleMessages); err != nil {
		log.Fatal().Err(err).Msg("An error occurred when scheduling stale message re-render.")
	}
	quartz.Start()

	// Messages
	log.Info().Msgf("MessageDict v%s is started...", pkg.AppVersion)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msgf("MessageDict v%s is quitting...", pkg.AppVersion)

	quartz.Stop()
	grpcServer.Stop()
	_ = server.Shutdown()
}
