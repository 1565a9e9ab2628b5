package model

import "gorm.io/gorm"

// AutoMigrate migrates every entity of the booking core. Order matters:
// referenced tables first.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Service{},
		&Availability{},
		&Booking{},
		&Event{},
	)
}
