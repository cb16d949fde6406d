package db

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/meinhoongagan/home-services/logger"
	"github.com/meinhoongagan/home-services/models"
)

// Migrate creates or updates every table the API uses.
func Migrate(db *gorm.DB) error {
	logger.SLog.Info("running migrations")

	err := db.AutoMigrate(
		&models.User{},
		&models.ServiceCategory{},
		&models.Service{},
		&models.ServiceProvider{},
		&models.ServiceProviderService{},
		&models.Booking{},
		&models.ContactMessage{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	// Superseded by the partial index, which ignores cancelled and completed rows.
	if db.Migrator().HasIndex(&models.Booking{}, "idx_booking_taker_service_date") {
		if err := db.Migrator().DropIndex(&models.Booking{}, "idx_booking_taker_service_date"); err != nil {
			return fmt.Errorf("drop booking index: %w", err)
		}
	}

	logger.SLog.Info("migrations applied")
	return nil
}

// SeedCategories inserts the default service categories. Existing names are
// left alone so the seed can be rerun.
func SeedCategories(db *gorm.DB) error {
	categories := make([]models.ServiceCategory, 0, len(models.DefaultCategories))
	for _, name := range models.DefaultCategories {
		categories = append(categories, models.ServiceCategory{CategoryName: name})
	}

	res := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "category_name"}},
		DoNothing: true,
	}).Create(&categories)
	if res.Error != nil {
		return fmt.Errorf("seed categories: %w", res.Error)
	}

	logger.SLog.Infof("seeded %d service categories", res.RowsAffected)
	return nil
}
