package models

import (
	"time"

	"gorm.io/datatypes"
)

type Message struct {
	BaseModel

	Subject                string         `json:"subject"`
	Content                string         `json:"content"`
	RenderedContent        *string        `json:"rendered_content"`
	RenderedContentVersion *int           `json:"rendered_content_version" gorm:"index"`
	PubDate                time.Time      `json:"pub_date" gorm:"index"`
	LastEditTime           *time.Time     `json:"last_edit_time"`
	EditHistory            datatypes.JSON `json:"edit_history"`
	Sender                 Account        `json:"sender"`
	SenderID               uint           `json:"sender_id"`
	Recipient              Recipient      `json:"recipient"`
	RecipientID            uint           `json:"recipient_id"`
	SendingClient          Client         `json:"sending_client"`
	SendingClientID        uint           `json:"sending_client_id"`
}

// MessageRow is a flat projection of a message joined with its sender,
// the sender's realm, the recipient and the sending client.
type MessageRow struct {
	ID                     uint
	Subject                string
	Content                string
	RenderedContent        *string
	RenderedContentVersion *int
	PubDate                time.Time
	LastEditTime           *time.Time
	EditHistory            datatypes.JSON
	SenderID               uint
	SenderEmail            string
	SenderFullName         string
	SenderShortName        string
	SenderAvatarSource     string
	SenderIsMirrorDummy    bool
	SenderRealmDomain      string
	SendingClientName      string
	RecipientID            uint
	RecipientType          RecipientType
	RecipientTypeID        uint
}
