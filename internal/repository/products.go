package repository

import (
	"context"
	"errors"

	"github.com/rentitout/backend/internal/models"
	"gorm.io/gorm"
)

// Products resolves listing references for the messaging core. Soft-deleted
// listings do not resolve.
type Products struct {
	db *gorm.DB
}

func NewProducts(db *gorm.DB) *Products {
	return &Products{db: db}
}

func (r *Products) FindByIDs(ctx context.Context, ids []uint) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}
	var products []models.Product
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id asc").Find(&products).Error
	return products, err
}

func (r *Products) FindByID(ctx context.Context, id uint) (*models.Product, error) {
	var p models.Product
	err := r.db.WithContext(ctx).First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
