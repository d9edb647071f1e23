package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Category string

const (
	CategoryBridalAttire      Category = "bridal-attire"
	CategoryBridalAccessories Category = "bridal-accessories"
	CategoryGroomAttire       Category = "groom-attire"
	CategoryGroomAccessories  Category = "groom-accessories"
)

var Categories = []Category{
	CategoryBridalAttire,
	CategoryBridalAccessories,
	CategoryGroomAttire,
	CategoryGroomAccessories,
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Product is a rentable listing owned by a seller.
type Product struct {
	ID          uint                        `gorm:"primaryKey" json:"id"`
	Name        string                      `gorm:"type:text;not null" json:"name"`
	Description string                      `gorm:"type:text" json:"description"`
	Category    Category                    `gorm:"type:text;index" json:"category"`
	PricePerDay float64                     `gorm:"not null" json:"price"`
	Available   bool                        `gorm:"not null" json:"availability"`
	Location    string                      `gorm:"type:text" json:"location"`
	Images      datatypes.JSONSlice[string] `json:"images"`

	SellerID string `gorm:"type:text;not null;index" json:"sellerId"`
	Seller   *User  `gorm:"foreignKey:SellerID" json:"seller,omitempty"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// OwnedBy reports whether userID is the listing's seller.
func (p *Product) OwnedBy(userID string) bool {
	return userID != "" && p.SellerID == userID
}
