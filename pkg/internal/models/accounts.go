package models

const (
	AvatarSourceGravatar = "G"
	AvatarSourceUser     = "U"
)

type Account struct {
	BaseModel

	Email         string `json:"email" gorm:"uniqueIndex"`
	FullName      string `json:"full_name"`
	ShortName     string `json:"short_name"`
	AvatarSource  string `json:"avatar_source" gorm:"default:G"`
	IsMirrorDummy bool   `json:"is_mirror_dummy"`
	Realm         Realm  `json:"realm"`
	RealmID       uint   `json:"realm_id"`

	Subscriptions []Subscription `json:"subscriptions"`
}

type Client struct {
	BaseModel

	Name string `json:"name" gorm:"uniqueIndex"`
}
