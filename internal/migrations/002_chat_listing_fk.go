package migrations

import (
	"gorm.io/gorm"
)

// Migration002ChatListingFK ties chat messages to their listing. Listings
// are soft-deleted, so the constraint only guards against stray ids.
func Migration002ChatListingFK() Migration {
	return Migration{
		ID:        "002_chat_listing_fk",
		Name:      "Add foreign key from chat messages to listings",
		DependsOn: []string{"001_chat_participant_indexes"},
		Dialects:  []string{"postgres"},
		Up: func(db *gorm.DB) error {
			var count int64
			checkSQL := `
				SELECT COUNT(*)
				FROM information_schema.table_constraints
				WHERE constraint_name = 'fk_chat_messages_product'
				AND table_name = 'chat_messages'
			`
			if err := db.Raw(checkSQL).Scan(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return nil
			}

			return db.Exec(`
				ALTER TABLE chat_messages
				ADD CONSTRAINT fk_chat_messages_product
				FOREIGN KEY (product_id)
				REFERENCES products(id)
				ON UPDATE CASCADE
				NOT VALID
			`).Error
		},
		Down: func(db *gorm.DB) error {
			return db.Exec(`
				ALTER TABLE chat_messages
				DROP CONSTRAINT IF EXISTS fk_chat_messages_product
			`).Error
		},
	}
}
