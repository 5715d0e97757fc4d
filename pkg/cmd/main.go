package main

import (
	"context"
	"flag"
	"os"
	"time"

	pkg "git.solsynth.dev/hypernet/msgdict/pkg/internal"
	"git.solsynth.dev/hypernet/msgdict/pkg/internal/cache"
	"git.solsynth.dev/hypernet/msgdict/pkg/internal/database"
	"git.solsynth.dev/hypernet/msgdict/pkg/internal/services"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

func init() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})
}

// Renders every stale message again, batch after batch, then exits.
func main() {
	batch := flag.Int("batch", 500, "messages rendered per batch")
	timeout := flag.Duration("timeout", 2*time.Hour, "give up after this long")
	flag.Parse()

	// Configure settings
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.SetConfigName("settings")
	viper.SetConfigType("toml")

	// Load settings
	if err := viper.ReadInConfig(); err != nil {
		log.Panic().Err(err).Msg("An error occurred when loading settings.")
	}

	// Connect to database
	if err := database.NewSource(); err != nil {
		log.Fatal().Err(err).Msg("An error occurred when connect to database.")
	}

	// Initialize cache
	if err := cache.NewCache(); err != nil {
		log.Fatal().Err(err).Msg("An error occurred when initializing cache.")
	}

	services.SetupMessageDict()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	log.Info().Msgf("MessageDict v%s is re-rendering stale messages...", pkg.AppVersion)

	total := 0
	for {
		count, err := services.RerenderStaleMessages(ctx, services.Gate, services.Dicts, *batch)
		total += count
		if err != nil {
			log.Fatal().Err(err).Int("affected", total).Msg("An error occurred when re-rendering stale messages.")
		}
		if count < *batch {
			break
		}
		log.Info().Int("affected", total).Msg("Batch re-rendered, continuing...")
	}

	log.Info().Int("affected", total).Msg("Re-render stale messages accomplished.")
}
