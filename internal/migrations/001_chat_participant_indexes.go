package migrations

import (
	"gorm.io/gorm"
)

// Migration001ChatParticipantIndexes adds the indexes behind the inbox and
// thread queries:
// 1. Pair lookup inside a listing (product_id, sender_id, receiver_id)
// 2. Active listings per seller
//
// All indexes are idempotent (IF NOT EXISTS) for safe re-runs.
func Migration001ChatParticipantIndexes() Migration {
	return Migration{
		ID:   "001_chat_participant_indexes",
		Name: "Add chat participant and seller listing indexes",
		Up: func(db *gorm.DB) error {
			// Optimizes: WHERE product_id = ? AND sender_id IN (?, ?) AND receiver_id IN (?, ?)
			idx1 := `
				CREATE INDEX IF NOT EXISTS idx_chat_pair
				ON chat_messages (product_id, sender_id, receiver_id)
			`
			if err := db.Exec(idx1).Error; err != nil {
				return err
			}

			// Optimizes: WHERE seller_id = ? AND deleted_at IS NULL
			idx2 := `
				CREATE INDEX IF NOT EXISTS idx_products_seller_live
				ON products (seller_id, available)
				WHERE deleted_at IS NULL
			`
			return db.Exec(idx2).Error
		},
		Down: func(db *gorm.DB) error {
			if err := db.Exec(`DROP INDEX IF EXISTS idx_products_seller_live`).Error; err != nil {
				return err
			}
			return db.Exec(`DROP INDEX IF EXISTS idx_chat_pair`).Error
		},
	}
}
