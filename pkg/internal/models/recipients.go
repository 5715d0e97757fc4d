package models

type RecipientType = uint8

const (
	RecipientTypePersonal = RecipientType(iota + 1)
	RecipientTypeStream
	RecipientTypeHuddle
)

// Recipient is the audience of a message.
// TypeID points to an account for personal recipients, a stream for stream
// recipients and a huddle for group recipients.
type Recipient struct {
	BaseModel

	Type          RecipientType  `json:"type" gorm:"uniqueIndex:idx_recipient_type"`
	TypeID        uint           `json:"type_id" gorm:"uniqueIndex:idx_recipient_type"`
	Subscriptions []Subscription `json:"subscriptions"`
}

type Stream struct {
	BaseModel

	Name    string `json:"name"`
	RealmID uint   `json:"realm_id" gorm:"index"`
}

type Subscription struct {
	BaseModel

	Account     Account   `json:"account"`
	AccountID   uint      `json:"account_id" gorm:"index"`
	Recipient   Recipient `json:"recipient"`
	RecipientID uint      `json:"recipient_id" gorm:"index"`
	Active      bool      `json:"active" gorm:"default:true"`
}

type Huddle struct {
	BaseModel

	Hash string `json:"hash" gorm:"uniqueIndex"`
}
