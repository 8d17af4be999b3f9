package config

import (
	"log"

	"github.com/mckienzie7/MicroFinance-Solution-sub000/internal/adapters/persistence/models"
	"github.com/mckienzie7/MicroFinance-Solution-sub000/internal/pkg/password"

	"gorm.io/gorm"
)

// SeedAdminUser seeds the default admin account when no admin exists.
// Development convenience; production admins are created out of band.
func SeedAdminUser(db *gorm.DB) error {
	var count int64
	db.Model(&models.User{}).Where("admin = ?", true).Count(&count)
	if count > 0 {
		return nil
	}

	log.Println("🌱 Seeding default admin user...")

	hashedPassword, err := password.Hash("admin123456")
	if err != nil {
		return err
	}

	admin := &models.User{
		Username:   "admin",
		Email:      "admin@microfinance-solution.com",
		Password:   hashedPassword,
		Fullname:   "Platform Administrator",
		Admin:      true,
		IsVerified: true,
	}

	if err := db.Create(admin).Error; err != nil {
		return err
	}

	log.Println("✅ Default admin user seeded (change the password immediately)")
	return nil
}
