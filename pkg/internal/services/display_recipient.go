package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"git.solsynth.dev/hypernet/msgdict/pkg/internal/models"
	"github.com/eko/gocache/lib/v4/marshaler"
	"github.com/eko/gocache/lib/v4/store"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"gorm.io/gorm"
)

const displayRecipientTTL = 7 * 24 * time.Hour

func GetDisplayRecipientCacheKey(recipientID uint) string {
	return fmt.Sprintf("display-recipient#%d", recipientID)
}

// DisplayRecipientService resolves recipients from the database.
// Results are kept in Cache when it is set.
type DisplayRecipientService struct {
	DB    *gorm.DB
	Cache *marshaler.Marshaler
}

func (v *DisplayRecipientService) DisplayRecipient(ctx context.Context, recipientID uint, recipientType models.RecipientType, typeID uint) (DisplayRecipient, error) {
	key := GetDisplayRecipientCacheKey(recipientID)
	if v.Cache != nil {
		if val, err := v.Cache.Get(ctx, key, new(DisplayRecipient)); err == nil {
			if entry, ok := val.(*DisplayRecipient); ok {
				return *entry, nil
			}
		}
	}

	recipient, err := v.load(ctx, recipientID, recipientType, typeID)
	if err != nil {
		return recipient, err
	}

	if v.Cache != nil {
		if err := v.Cache.Set(
			ctx,
			key,
			recipient,
			store.WithExpiration(displayRecipientTTL),
			store.WithTags([]string{"display-recipient", fmt.Sprintf("recipient#%d", recipientID)}),
		); err != nil {
			log.Warn().Err(err).Uint("recipient", recipientID).Msg("An error occurred when caching display recipient.")
		}
	}

	return recipient, nil
}

func (v *DisplayRecipientService) load(ctx context.Context, recipientID uint, recipientType models.RecipientType, typeID uint) (DisplayRecipient, error) {
	if recipientType == models.RecipientTypeStream {
		var stream models.Stream
		if err := v.DB.WithContext(ctx).Where("id = ?", typeID).First(&stream).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return DisplayRecipient{}, fmt.Errorf("stream %d of recipient %d not found", typeID, recipientID)
			}
			return DisplayRecipient{}, err
		}
		return DisplayRecipient{StreamName: stream.Name}, nil
	}

	var subscriptions []models.Subscription
	if err := v.DB.WithContext(ctx).
		Where("recipient_id = ? AND active = ?", recipientID, true).
		Preload("Account").
		Preload("Account.Realm").
		Find(&subscriptions).Error; err != nil {
		return DisplayRecipient{}, err
	}

	participants := lo.Map(subscriptions, func(item models.Subscription, index int) DisplayParticipant {
		return DisplayParticipant{
			Email:         item.Account.Email,
			Domain:        item.Account.Realm.Domain,
			FullName:      item.Account.FullName,
			ShortName:     item.Account.ShortName,
			ID:            item.Account.ID,
			IsMirrorDummy: item.Account.IsMirrorDummy,
		}
	})
	sortParticipants(participants)

	return DisplayRecipient{Participants: participants}, nil
}

// sortParticipants orders participants by email so a recipient always resolves the same way.
func sortParticipants(participants []DisplayParticipant) {
	sort.SliceStable(participants, func(i, j int) bool {
		return participants[i].Email < participants[j].Email
	})
}

// InvalidateDisplayRecipient drops the cached participants of a recipient.
// Whatever writes subscriptions or stream names must call it, otherwise the
// old participants are served until the entry expires after seven days.
// It is also exposed as DELETE /api/recipients/:recipientId/cache.
func (v *DisplayRecipientService) InvalidateDisplayRecipient(ctx context.Context, recipientID uint) error {
	if v.Cache == nil {
		return nil
	}
	return v.Cache.Invalidate(ctx, store.WithInvalidateTags([]string{fmt.Sprintf("recipient#%d", recipientID)}))
}
