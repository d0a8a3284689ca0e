package migrations

import (
	"gorm.io/gorm"

	consistencypostgres "github.com/Apurer/go-gin-procurement-api/internal/domains/consistency/adapters/persistence/postgres"
	deliverypostgres "github.com/Apurer/go-gin-procurement-api/internal/domains/delivery/adapters/persistence/postgres"
	requisitionpostgres "github.com/Apurer/go-gin-procurement-api/internal/domains/requisitions/adapters/persistence/postgres"
	platformpostgres "github.com/Apurer/go-gin-procurement-api/internal/platform/postgres"
)

// Models lists every table owned by the service, platform tables first.
func Models() []any {
	models := platformpostgres.Models()
	models = append(models, requisitionpostgres.Models()...)
	models = append(models, deliverypostgres.Models()...)
	models = append(models, consistencypostgres.Models()...)
	return models
}

// Run applies the schema for all bounded contexts.
func Run(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	return db.AutoMigrate(Models()...)
}
