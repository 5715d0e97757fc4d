package database

import (
	"git.solsynth.dev/hypernet/msgdict/pkg/internal/models"
	"gorm.io/gorm"
)

var AutoMaintainRange = []any{
	&models.Realm{},
	&models.RealmFilter{},
	&models.Account{},
	&models.Client{},
	&models.Stream{},
	&models.Huddle{},
	&models.Recipient{},
	&models.Subscription{},
	&models.Message{},
}

func RunMigration(source *gorm.DB) error {
	if err := source.AutoMigrate(AutoMaintainRange...); err != nil {
		return err
	}

	return nil
}
