package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const defaultRerenderBatchSize = 500

// RerenderStaleMessages renders one batch of stale messages again and evicts their cached dicts.
func RerenderStaleMessages(ctx context.Context, gate *RenderGate, dicts *MessageDictService, batch int) (int, error) {
	ids, err := gate.RerenderStaleMessages(ctx, batch)
	for _, id := range ids {
		if err := dicts.InvalidateMessageDict(ctx, id); err != nil {
			log.Warn().Err(err).Uint("message", id).Msg("An error occurred when evicting re-rendered message.")
		}
	}
	return len(ids), err
}

func DoRerenderStaleMessages() {
	run := uuid.NewString()
	batch := viper.GetInt("rerender.batch_size")
	if batch <= 0 {
		batch = defaultRerenderBatchSize
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	log.Debug().Str("run", run).Int("batch", batch).Msg("Now re-rendering stale messages...")

	count, err := RerenderStaleMessages(ctx, Gate, Dicts, batch)
	if err != nil {
		log.Error().Err(err).Str("run", run).Msg("An error occurred when re-rendering stale messages...")
	}

	log.Debug().Str("run", run).Int("affected", count).Msg("Re-render stale messages accomplished.")
}
