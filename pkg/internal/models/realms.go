package models

// Realm is the organization a sender belongs to.
// The domain is used as the rendering context of everything the members send.
type Realm struct {
	BaseModel

	Domain  string        `json:"domain" gorm:"uniqueIndex"`
	Name    string        `json:"name"`
	Filters []RealmFilter `json:"filters"`
}

// RealmFilter links every match of Pattern to URLFormat.
// Pattern uses named groups, URLFormat refers to them as %(name)s.
type RealmFilter struct {
	BaseModel

	Pattern   string `json:"pattern"`
	URLFormat string `json:"url_format"`
	RealmID   uint   `json:"realm_id" gorm:"index"`
}
