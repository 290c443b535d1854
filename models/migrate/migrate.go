package migrate

import (
	"github.com/operis/vigil/models"

	"github.com/toolkits/pkg/logger"
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) {
	err := db.AutoMigrate(
		&models.Configs{},
		&models.User{},
		&models.UserKPI{},
		&models.VigilanceAlert{},
	)
	if err != nil {
		logger.Errorf("failed to migrate tables: %v", err)
	}
}
