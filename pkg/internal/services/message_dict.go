package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"git.solsynth.dev/hypernet/msgdict/pkg/internal/avatar"
	"git.solsynth.dev/hypernet/msgdict/pkg/internal/markdown"
	"git.solsynth.dev/hypernet/msgdict/pkg/internal/models"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
)

const (
	MessageTypeStream  = "stream"
	MessageTypePrivate = "private"

	ContentTypeHTML     = "text/html"
	ContentTypeMarkdown = "text/x-markdown"
)

// UnparseableNotice replaces the content of messages the renderer gave up on.
const UnparseableNotice = "<p>[Sorry, we could not understand the formatting of your message]</p>"

type DisplayParticipant struct {
	Email         string `json:"email"`
	Domain        string `json:"domain"`
	FullName      string `json:"full_name"`
	ShortName     string `json:"short_name"`
	ID            uint   `json:"id"`
	IsMirrorDummy bool   `json:"is_mirror_dummy"`
}

// DisplayRecipient is the stream name of a stream message,
// or the participants of a private message.
// It encodes to a JSON string in the first case and to a list in the second.
type DisplayRecipient struct {
	StreamName   string
	Participants []DisplayParticipant
}

func (v DisplayRecipient) IsStream() bool {
	return v.Participants == nil
}

func (v DisplayRecipient) MarshalJSON() ([]byte, error) {
	if v.IsStream() {
		return jsoniter.Marshal(v.StreamName)
	}
	return jsoniter.Marshal(v.Participants)
}

func (v *DisplayRecipient) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, `"`) {
		v.Participants = nil
		return jsoniter.Unmarshal(data, &v.StreamName)
	}

	v.StreamName = ""
	v.Participants = make([]DisplayParticipant, 0)
	return jsoniter.Unmarshal(data, &v.Participants)
}

// MessageDict is the client facing representation of a message.
// LastEditTimestamp and EditHistory are set together, only for edited messages.
// EditHistory is the stored edit log as parsed JSON, whatever its shape.
type MessageDict struct {
	ID                uint             `json:"id"`
	SenderEmail       string           `json:"sender_email"`
	SenderFullName    string           `json:"sender_full_name"`
	SenderShortName   string           `json:"sender_short_name"`
	SenderDomain      string           `json:"sender_domain"`
	SenderID          uint             `json:"sender_id"`
	Type              string           `json:"type"`
	DisplayRecipient  DisplayRecipient `json:"display_recipient"`
	RecipientID       uint             `json:"recipient_id"`
	Subject           string           `json:"subject"`
	Timestamp         int64            `json:"timestamp"`
	GravatarHash      string           `json:"gravatar_hash"`
	AvatarURL         string           `json:"avatar_url"`
	Client            string           `json:"client"`
	SubjectLinks      []string         `json:"subject_links"`
	Content           string           `json:"content"`
	ContentType       string           `json:"content_type"`
	LastEditTimestamp *int64           `json:"last_edit_timestamp,omitempty"`
	EditHistory       any              `json:"edit_history,omitempty"`
}

// MessageFields is every value the dict builder reads.
// Message is optional, without it a record is fetched only when the content must be rendered again.
type MessageFields struct {
	Message *models.Message

	ID                     uint
	LastEditTime           *time.Time
	EditHistory            datatypes.JSON
	Content                string
	Subject                string
	PubDate                time.Time
	RenderedContent        *string
	RenderedContentVersion *int
	SenderID               uint
	SenderEmail            string
	SenderRealmDomain      string
	SenderFullName         string
	SenderShortName        string
	SenderAvatarSource     string
	SenderIsMirrorDummy    bool
	SendingClientName      string
	RecipientID            uint
	RecipientType          models.RecipientType
	RecipientTypeID        uint
}

// FieldsFromMessage expects the sender, its realm, the recipient and the client to be preloaded.
func FieldsFromMessage(message *models.Message) MessageFields {
	return MessageFields{
		Message:                message,
		ID:                     message.ID,
		LastEditTime:           message.LastEditTime,
		EditHistory:            message.EditHistory,
		Content:                message.Content,
		Subject:                message.Subject,
		PubDate:                message.PubDate,
		RenderedContent:        message.RenderedContent,
		RenderedContentVersion: message.RenderedContentVersion,
		SenderID:               message.Sender.ID,
		SenderEmail:            message.Sender.Email,
		SenderRealmDomain:      message.Sender.Realm.Domain,
		SenderFullName:         message.Sender.FullName,
		SenderShortName:        message.Sender.ShortName,
		SenderAvatarSource:     message.Sender.AvatarSource,
		SenderIsMirrorDummy:    message.Sender.IsMirrorDummy,
		SendingClientName:      message.SendingClient.Name,
		RecipientID:            message.Recipient.ID,
		RecipientType:          message.Recipient.Type,
		RecipientTypeID:        message.Recipient.TypeID,
	}
}

func FieldsFromRow(row models.MessageRow) MessageFields {
	return MessageFields{
		ID:                     row.ID,
		LastEditTime:           row.LastEditTime,
		EditHistory:            row.EditHistory,
		Content:                row.Content,
		Subject:                row.Subject,
		PubDate:                row.PubDate,
		RenderedContent:        row.RenderedContent,
		RenderedContentVersion: row.RenderedContentVersion,
		SenderID:               row.SenderID,
		SenderEmail:            row.SenderEmail,
		SenderRealmDomain:      row.SenderRealmDomain,
		SenderFullName:         row.SenderFullName,
		SenderShortName:        row.SenderShortName,
		SenderAvatarSource:     row.SenderAvatarSource,
		SenderIsMirrorDummy:    row.SenderIsMirrorDummy,
		SendingClientName:      row.SendingClientName,
		RecipientID:            row.RecipientID,
		RecipientType:          row.RecipientType,
		RecipientTypeID:        row.RecipientTypeID,
	}
}

type RecipientResolver interface {
	DisplayRecipient(ctx context.Context, recipientID uint, recipientType models.RecipientType, typeID uint) (DisplayRecipient, error)
}

type RealmFilterSource interface {
	RealmFilters(ctx context.Context, domain string) ([]markdown.Filter, error)
}

type MessageDictBuilder struct {
	Recipients RecipientResolver
	Filters    RealmFilterSource
	Gate       *RenderGate
	Avatars    avatar.Resolver
}

// Build assembles the dict of one message.
// With applyMarkdown the stored render is used, and refreshed through the gate when it is stale.
func (v *MessageDictBuilder) Build(ctx context.Context, applyMarkdown bool, fields MessageFields) (MessageDict, error) {
	var dict MessageDict

	var displayType string
	switch fields.RecipientType {
	case models.RecipientTypeStream:
		displayType = MessageTypeStream
	case models.RecipientTypePersonal, models.RecipientTypeHuddle:
		displayType = MessageTypePrivate
	default:
		log.Panic().
			Uint("message", fields.ID).
			Uint8("type", uint8(fields.RecipientType)).
			Msg("Unexpected recipient type, unable to build message dict.")
	}

	recipient, err := v.Recipients.DisplayRecipient(ctx, fields.RecipientID, fields.RecipientType, fields.RecipientTypeID)
	if err != nil {
		return dict, fmt.Errorf("unable to resolve recipient of message %d: %w", fields.ID, err)
	}
	if recipient.IsStream() != (displayType == MessageTypeStream) {
		log.Panic().
			Uint("message", fields.ID).
			Uint("recipient", fields.RecipientID).
			Msg("Display recipient does not match the recipient type.")
	}

	if displayType == MessageTypePrivate && len(recipient.Participants) == 1 {
		recipient.Participants = withSender(recipient.Participants[0], DisplayParticipant{
			Email:         fields.SenderEmail,
			Domain:        fields.SenderRealmDomain,
			FullName:      fields.SenderFullName,
			ShortName:     fields.SenderShortName,
			ID:            fields.SenderID,
			IsMirrorDummy: fields.SenderIsMirrorDummy,
		})
	}

	filters, err := v.Filters.RealmFilters(ctx, strings.ToLower(fields.SenderRealmDomain))
	if err != nil {
		return dict, fmt.Errorf("unable to load realm filters of %s: %w", fields.SenderRealmDomain, err)
	}

	dict = MessageDict{
		ID:               fields.ID,
		SenderEmail:      fields.SenderEmail,
		SenderFullName:   fields.SenderFullName,
		SenderShortName:  fields.SenderShortName,
		SenderDomain:     fields.SenderRealmDomain,
		SenderID:         fields.SenderID,
		Type:             displayType,
		DisplayRecipient: recipient,
		RecipientID:      fields.RecipientID,
		Subject:          fields.Subject,
		Timestamp:        fields.PubDate.Unix(),
		GravatarHash:     avatar.GravatarHash(fields.SenderEmail),
		AvatarURL:        v.Avatars.URL(fields.SenderAvatarSource, fields.SenderEmail),
		Client:           fields.SendingClientName,
		SubjectLinks:     markdown.SubjectLinks(fields.Subject, filters),
	}

	if fields.LastEditTime != nil {
		var history any
		if len(fields.EditHistory) > 0 {
			if err := payloadJSON.Unmarshal(fields.EditHistory, &history); err != nil {
				return MessageDict{}, fmt.Errorf("unable to parse edit history of message %d: %w", fields.ID, err)
			}
		}
		if history == nil {
			history = make([]any, 0)
		}
		timestamp := fields.LastEditTime.Unix()
		dict.LastEditTimestamp = &timestamp
		dict.EditHistory = history
	}

	if !applyMarkdown {
		dict.Content = fields.Content
		dict.ContentType = ContentTypeMarkdown
		return dict, nil
	}

	rendered := fields.RenderedContent
	if v.Gate.NeedsRender(fields.RenderedContent, fields.RenderedContentVersion) {
		rendered, err = v.Gate.RenderMessage(ctx, fields.Message, fields.ID, fields.Content, fields.SenderRealmDomain)
		if err != nil {
			return MessageDict{}, err
		}
	}

	if rendered != nil {
		dict.Content = *rendered
	} else {
		dict.Content = UnparseableNotice
	}
	dict.ContentType = ContentTypeHTML

	return dict, nil
}

// withSender pairs the only other participant with the sender, ordered by email.
// Emails are compared byte by byte. A sender writing to themselves is not listed twice.
func withSender(other DisplayParticipant, sender DisplayParticipant) []DisplayParticipant {
	switch {
	case sender.Email < other.Email:
		return []DisplayParticipant{sender, other}
	case sender.Email > other.Email:
		return []DisplayParticipant{other, sender}
	default:
		return []DisplayParticipant{other}
	}
}
