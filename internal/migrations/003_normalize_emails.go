package migrations

import (
	"gorm.io/gorm"
)

// Migration003NormalizeEmails lowercases stored emails so login lookups,
// which normalize their input, find accounts created before normalization.
func Migration003NormalizeEmails() Migration {
	return Migration{
		ID:   "003_normalize_emails",
		Name: "Lowercase and trim user emails",
		Up: func(db *gorm.DB) error {
			return db.Exec(`
				UPDATE users
				SET email = LOWER(TRIM(email))
				WHERE email <> LOWER(TRIM(email))
			`).Error
		},
	}
}
