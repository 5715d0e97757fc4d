package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"git.solsynth.dev/hypernet/msgdict/pkg/internal/cache"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

const MessageDictTTL = 24 * time.Hour

type PayloadCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

func GetMessageDictCacheKey(id uint, applyMarkdown bool) string {
	return fmt.Sprintf("message-dict#%d@%d", id, lo.Ternary(applyMarkdown, 1, 0))
}

// MessageDictService serves encoded message dicts through the payload cache.
// Cached entries are returned as is until they expire, a newer renderer does not evict them.
type MessageDictService struct {
	Store   MessageStore
	Cache   PayloadCache
	Builder *MessageDictBuilder
}

// GetOrBuild returns the encoded dict of a message, building and caching it on a miss.
func (v *MessageDictService) GetOrBuild(ctx context.Context, id uint, applyMarkdown bool) ([]byte, error) {
	key := GetMessageDictCacheKey(id, applyMarkdown)

	payload, err := v.Cache.Get(ctx, key)
	if err == nil {
		return payload, nil
	} else if !errors.Is(err, cache.ErrMiss) {
		log.Warn().Err(err).Str("key", key).Msg("An error occurred when reading message dict cache, building it instead.")
	}

	return v.build(ctx, id, applyMarkdown)
}

// MessageToDict is GetOrBuild followed by decoding.
// An undecodable cache entry is rebuilt and replaced.
func (v *MessageDictService) MessageToDict(ctx context.Context, id uint, applyMarkdown bool) (MessageDict, error) {
	payload, err := v.GetOrBuild(ctx, id, applyMarkdown)
	if err != nil {
		return MessageDict{}, err
	}

	dict, err := DecodeMessageDict(payload)
	if errors.Is(err, ErrDecode) {
		log.Warn().Err(err).Uint("message", id).Msg("Cached message dict is corrupted, building it again.")
		if payload, err = v.build(ctx, id, applyMarkdown); err != nil {
			return MessageDict{}, err
		}
		dict, err = DecodeMessageDict(payload)
	}

	return dict, err
}

// BuildMessageDicts builds the dicts of many messages from one joined query, ordered by id.
// Ids without a message are skipped. Every dict built is written to the cache.
func (v *MessageDictService) BuildMessageDicts(ctx context.Context, ids []uint, applyMarkdown bool) ([]MessageDict, error) {
	rows, err := v.Store.ListMessageRows(ctx, lo.Uniq(ids))
	if err != nil {
		return nil, err
	}

	dicts := make([]MessageDict, 0, len(rows))
	for _, row := range rows {
		dict, err := v.Builder.Build(ctx, applyMarkdown, FieldsFromRow(row))
		if err != nil {
			return nil, err
		}
		dicts = append(dicts, dict)

		payload, err := EncodeMessageDict(dict)
		if err != nil {
			return nil, err
		}
		v.store(ctx, GetMessageDictCacheKey(dict.ID, applyMarkdown), payload)
	}

	return dicts, nil
}

// InvalidateMessageDict removes both cached variants of a message.
func (v *MessageDictService) InvalidateMessageDict(ctx context.Context, id uint) error {
	for _, applyMarkdown := range []bool{true, false} {
		if err := v.Cache.Delete(ctx, GetMessageDictCacheKey(id, applyMarkdown)); err != nil {
			return fmt.Errorf("unable to invalidate message dict of %d: %w", id, err)
		}
	}
	return nil
}

func (v *MessageDictService) build(ctx context.Context, id uint, applyMarkdown bool) ([]byte, error) {
	message, err := v.Store.FetchMessage(ctx, id)
	if err != nil {
		return nil, err
	}

	dict, err := v.Builder.Build(ctx, applyMarkdown, FieldsFromMessage(message))
	if err != nil {
		return nil, err
	}

	payload, err := EncodeMessageDict(dict)
	if err != nil {
		return nil, err
	}

	v.store(ctx, GetMessageDictCacheKey(id, applyMarkdown), payload)
	return payload, nil
}

func (v *MessageDictService) store(ctx context.Context, key string, payload []byte) {
	if err := v.Cache.Set(ctx, key, payload, MessageDictTTL); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("An error occurred when caching message dict.")
	}
}
