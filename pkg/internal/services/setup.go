package services

import (
	"git.solsynth.dev/hypernet/msgdict/pkg/internal/avatar"
	"git.solsynth.dev/hypernet/msgdict/pkg/internal/cache"
	"git.solsynth.dev/hypernet/msgdict/pkg/internal/database"
	"git.solsynth.dev/hypernet/msgdict/pkg/internal/markdown"
	gocache "github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/marshaler"
	"github.com/spf13/viper"
)

var (
	Recipients *DisplayRecipientService
	Filters    *RealmFilterService
	Gate       *RenderGate
	Dicts      *MessageDictService
)

// SetupMessageDict wires the services on top of database.C and cache.S.
func SetupMessageDict() {
	marshal := marshaler.New(gocache.New[any](cache.S))
	messages := NewMessageStore(database.C)

	Recipients = &DisplayRecipientService{DB: database.C, Cache: marshal}
	Filters = &RealmFilterService{DB: database.C, Cache: marshal}
	Gate = &RenderGate{
		Renderer: markdown.NewRenderer(viper.GetInt("markdown.max_content_bytes")),
		Filters:  Filters,
		Store:    messages,
	}
	Dicts = &MessageDictService{
		Store: messages,
		Cache: cache.NewPayloadCache(cache.S),
		Builder: &MessageDictBuilder{
			Recipients: Recipients,
			Filters:    Filters,
			Gate:       Gate,
			Avatars: avatar.Resolver{
				Salt:         viper.GetString("avatar.salt"),
				UploadBase:   viper.GetString("avatar.upload_base"),
				GravatarBase: viper.GetString("avatar.gravatar_base"),
			},
		},
	}
}
