package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"git.solsynth.dev/hypernet/msgdict/pkg/internal/models"
	"gorm.io/gorm"
)

// ErrMessageNotFound is returned when a requested message does not exist.
var ErrMessageNotFound = errors.New("message not found")

type MessageStore interface {
	FetchMessage(ctx context.Context, id uint) (*models.Message, error)
	FetchMessageForRender(ctx context.Context, id uint) (*models.Message, error)
	SaveRenderedContent(ctx context.Context, id uint, rendered *string, version int) error
	ListMessageRows(ctx context.Context, ids []uint) ([]models.MessageRow, error)
	ListStaleMessages(ctx context.Context, version int, limit int) ([]models.Message, error)
}

type GormMessageStore struct {
	DB *gorm.DB
}

func NewMessageStore(db *gorm.DB) *GormMessageStore {
	return &GormMessageStore{DB: db}
}

func (v *GormMessageStore) FetchMessage(ctx context.Context, id uint) (*models.Message, error) {
	var message models.Message
	if err := v.DB.WithContext(ctx).
		Where("id = ?", id).
		Preload("Sender").
		Preload("Sender.Realm").
		Preload("Recipient").
		Preload("SendingClient").
		First(&message).Error; err != nil {
		return nil, wrapNotFound(err, id)
	}
	return &message, nil
}

// FetchMessageForRender loads only what rendering reads and writes.
func (v *GormMessageStore) FetchMessageForRender(ctx context.Context, id uint) (*models.Message, error) {
	var message models.Message
	if err := v.DB.WithContext(ctx).
		Select("id", "content", "rendered_content", "rendered_content_version", "sender_id").
		Where("id = ?", id).
		Preload("Sender.Realm").
		First(&message).Error; err != nil {
		return nil, wrapNotFound(err, id)
	}
	return &message, nil
}

// SaveRenderedContent is a single row update, so concurrent renders of the same
// message end with one of them stored. A render never replaces one from a newer renderer.
func (v *GormMessageStore) SaveRenderedContent(ctx context.Context, id uint, rendered *string, version int) error {
	tx := v.DB.WithContext(ctx).
		Model(&models.Message{}).
		Where("id = ? AND (rendered_content_version IS NULL OR rendered_content_version <= ?)", id, version).
		Updates(map[string]any{
			"rendered_content":         rendered,
			"rendered_content_version": version,
		})
	if tx.Error != nil {
		return fmt.Errorf("failed to save rendered content of message %d: %w", id, tx.Error)
	}
	return nil
}

func (v *GormMessageStore) ListMessageRows(ctx context.Context, ids []uint) ([]models.MessageRow, error) {
	rows := make([]models.MessageRow, 0, len(ids))
	if len(ids) == 0 {
		return rows, nil
	}

	messages, err := v.table(&models.Message{})
	if err != nil {
		return nil, err
	}
	accounts, err := v.table(&models.Account{})
	if err != nil {
		return nil, err
	}
	realms, err := v.table(&models.Realm{})
	if err != nil {
		return nil, err
	}
	recipients, err := v.table(&models.Recipient{})
	if err != nil {
		return nil, err
	}
	clients, err := v.table(&models.Client{})
	if err != nil {
		return nil, err
	}

	if err := v.DB.WithContext(ctx).
		Table(messages+" AS m").
		Select(strings.Join([]string{
			"m.id",
			"m.subject",
			"m.content",
			"m.rendered_content",
			"m.rendered_content_version",
			"m.pub_date",
			"m.last_edit_time",
			"m.edit_history",
			"m.sender_id",
			"s.email AS sender_email",
			"s.full_name AS sender_full_name",
			"s.short_name AS sender_short_name",
			"s.avatar_source AS sender_avatar_source",
			"s.is_mirror_dummy AS sender_is_mirror_dummy",
			"r.domain AS sender_realm_domain",
			"c.name AS sending_client_name",
			"m.recipient_id",
			"rc.type AS recipient_type",
			"rc.type_id AS recipient_type_id",
		}, ", ")).
		Joins(fmt.Sprintf("JOIN %s AS s ON s.id = m.sender_id", accounts)).
		Joins(fmt.Sprintf("JOIN %s AS r ON r.id = s.realm_id", realms)).
		Joins(fmt.Sprintf("JOIN %s AS rc ON rc.id = m.recipient_id", recipients)).
		Joins(fmt.Sprintf("JOIN %s AS c ON c.id = m.sending_client_id", clients)).
		Where("m.id IN ? AND m.deleted_at IS NULL", ids).
		Order("m.id").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list message rows: %w", err)
	}

	return rows, nil
}

func (v *GormMessageStore) ListStaleMessages(ctx context.Context, version int, limit int) ([]models.Message, error) {
	var messages []models.Message
	if err := v.DB.WithContext(ctx).
		Where("(rendered_content_version IS NULL OR rendered_content_version < ?)", version).
		Preload("Sender.Realm").
		Order("id").
		Limit(limit).
		Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("failed to list stale messages: %w", err)
	}
	return messages, nil
}

// table resolves the table name of model, including the configured prefix.
func (v *GormMessageStore) table(model any) (string, error) {
	stmt := &gorm.Statement{DB: v.DB}
	if err := stmt.Parse(model); err != nil {
		return "", err
	}
	return stmt.Schema.Table, nil
}

func wrapNotFound(err error, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %d", ErrMessageNotFound, id)
	}
	return err
}
