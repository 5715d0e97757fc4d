package services

import (
	"context"
	"fmt"
	"time"

	"git.solsynth.dev/hypernet/msgdict/pkg/internal/markdown"
	"git.solsynth.dev/hypernet/msgdict/pkg/internal/models"
	"github.com/eko/gocache/lib/v4/marshaler"
	"github.com/eko/gocache/lib/v4/store"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"gorm.io/gorm"
)

const realmFiltersTTL = time.Hour

func GetRealmFiltersCacheKey(domain string) string {
	return fmt.Sprintf("realm-filters#%s", domain)
}

type RealmFilterService struct {
	DB    *gorm.DB
	Cache *marshaler.Marshaler
}

// RealmFilters lists the filters of the realm owning domain, oldest first.
// An unknown domain has no filters.
func (v *RealmFilterService) RealmFilters(ctx context.Context, domain string) ([]markdown.Filter, error) {
	key := GetRealmFiltersCacheKey(domain)
	if v.Cache != nil {
		if val, err := v.Cache.Get(ctx, key, new([]markdown.Filter)); err == nil {
			if entry, ok := val.(*[]markdown.Filter); ok {
				return *entry, nil
			}
		}
	}

	var realm models.Realm
	tx := v.DB.WithContext(ctx).
		Where("LOWER(domain) = LOWER(?)", domain).
		Preload("Filters", func(db *gorm.DB) *gorm.DB {
			return db.Order("id")
		}).
		Limit(1).
		Find(&realm)
	if tx.Error != nil {
		return nil, tx.Error
	}

	filters := lo.Map(realm.Filters, func(item models.RealmFilter, index int) markdown.Filter {
		return markdown.Filter{Pattern: item.Pattern, URLFormat: item.URLFormat}
	})

	if v.Cache != nil {
		if err := v.Cache.Set(
			ctx,
			key,
			filters,
			store.WithExpiration(realmFiltersTTL),
			store.WithTags([]string{"realm-filters"}),
		); err != nil {
			log.Warn().Err(err).Str("domain", domain).Msg("An error occurred when caching realm filters.")
		}
	}

	return filters, nil
}

// InvalidateRealmFilters drops the cached filters of every realm.
// Whatever writes realm filters must call it, otherwise the old filters are
// used for an hour. It is also exposed as DELETE /api/realm-filters/cache.
func (v *RealmFilterService) InvalidateRealmFilters(ctx context.Context) error {
	if v.Cache == nil {
		return nil
	}
	return v.Cache.Invalidate(ctx, store.WithInvalidateTags([]string{"realm-filters"}))
}
