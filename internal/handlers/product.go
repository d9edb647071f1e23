package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rentitout/backend/internal/database"
	"github.com/rentitout/backend/internal/middleware"
	"github.com/rentitout/backend/internal/models"
	apperrors "github.com/rentitout/backend/pkg/errors"
	"github.com/rentitout/backend/pkg/logger"
	"github.com/rentitout/backend/pkg/utils"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const maxImagesPerListing = 8

type ProductInput struct {
	Name         *string   `json:"name"`
	Description  *string   `json:"description"`
	Category     *string   `json:"category"`
	Price        *float64  `json:"price"`
	Availability *bool     `json:"availability"`
	Location     *string   `json:"location"`
	Images       *[]string `json:"images"`
}

// apply copies the set fields onto p and validates the result.
func (in *ProductInput) apply(p *models.Product) error {
	if in.Name != nil {
		p.Name = utils.CleanText(*in.Name, 120)
	}
	if in.Description != nil {
		p.Description = utils.CleanText(*in.Description, 2000)
	}
	if in.Category != nil {
		p.Category = models.Category(*in.Category)
	}
	if in.Price != nil {
		p.PricePerDay = *in.Price
	}
	if in.Availability != nil {
		p.Available = *in.Availability
	}
	if in.Location != nil {
		p.Location = utils.CleanText(*in.Location, 120)
	}
	if in.Images != nil {
		p.Images = datatypes.JSONSlice[string](*in.Images)
	}

	switch {
	case p.Name == "":
		return errors.New("name is required")
	case !p.Category.Valid():
		return errors.New("category must be one of bridal-attire, bridal-accessories, groom-attire, groom-accessories")
	case p.PricePerDay < 0:
		return errors.New("price must not be negative")
	case len(p.Images) > maxImagesPerListing:
		return errors.New("too many images")
	}
	for _, img := range p.Images {
		if err := ValidateImageURL(img); err != nil {
			return err
		}
	}
	return nil
}

func productParam(c *gin.Context) (*models.Product, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		_ = c.Error(apperrors.BadRequest("Invalid product id"))
		return nil, false
	}
	var p models.Product
	if err := database.DB.First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			_ = c.Error(apperrors.NotFound("Product not found"))
		} else {
			_ = c.Error(apperrors.Internal("Failed to fetch product"))
		}
		return nil, false
	}
	return &p, true
}

func canManage(c *gin.Context, p *models.Product) bool {
	return p.OwnedBy(middleware.CurrentUserID(c)) || middleware.CurrentRole(c) == models.RoleAdmin
}

// ListProducts supports ?category=, ?available=, ?seller=, ?q= and paging.
func ListProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "24"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 24
	}

	query := database.DB.Model(&models.Product{})
	if category := c.Query("category"); category != "" {
		if !models.Category(category).Valid() {
			_ = c.Error(apperrors.BadRequest("Unknown category"))
			return
		}
		query = query.Where("category = ?", category)
	}
	if available := c.Query("available"); available != "" {
		b, err := strconv.ParseBool(available)
		if err != nil {
			_ = c.Error(apperrors.BadRequest("available must be true or false"))
			return
		}
		query = query.Where("available = ?", b)
	}
	if seller := c.Query("seller"); seller != "" {
		query = query.Where("seller_id = ?", seller)
	}
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		pattern := "%" + strings.ToLower(q) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(location) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		_ = c.Error(apperrors.Internal("Failed to fetch products"))
		return
	}

	products := []models.Product{}
	if err := query.Order("created_at desc, id desc").Offset((page - 1) * limit).Limit(limit).Find(&products).Error; err != nil {
		_ = c.Error(apperrors.Internal("Failed to fetch products"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"products": products,
		"pagination": gin.H{
			"page":       page,
			"limit":      limit,
			"total":      total,
			"totalPages": (total + int64(limit) - 1) / int64(limit),
		},
	})
}

// ListingStats is shown to a listing's owner only.
type ListingStats struct {
	Messages int64 `json:"messages"`
	Renters  int64 `json:"renters"`
}

// GetProduct is public. When the caller owns the listing the response also
// carries its chat stats.
func GetProduct(c *gin.Context) {
	p, ok := productParam(c)
	if !ok {
		return
	}
	if !p.OwnedBy(middleware.CurrentUserID(c)) {
		c.JSON(http.StatusOK, gin.H{"product": p})
		return
	}

	var stats ListingStats
	err := database.DB.Model(&models.ChatMessage{}).Where("product_id = ?", p.ID).Count(&stats.Messages).Error
	if err == nil {
		err = database.DB.Model(&models.ChatMessage{}).
			Where("product_id = ? AND sender_id <> ?", p.ID, p.SellerID).
			Distinct("sender_id").
			Count(&stats.Renters).Error
	}
	if err != nil {
		logger.Warn().Err(err).Uint("product_id", p.ID).Msg("Failed to load listing stats")
		c.JSON(http.StatusOK, gin.H{"product": p})
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": p, "stats": stats})
}

func CreateProduct(c *gin.Context) {
	var input ProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		_ = c.Error(apperrors.ErrInvalidRequest)
		return
	}

	p := models.Product{SellerID: middleware.CurrentUserID(c), Available: true}
	if err := input.apply(&p); err != nil {
		_ = c.Error(apperrors.BadRequest(err.Error()))
		return
	}

	if err := database.DB.Create(&p).Error; err != nil {
		logger.Error().Err(err).Str("seller_id", p.SellerID).Msg("Failed to create product")
		_ = c.Error(apperrors.Internal("Failed to create product"))
		return
	}

	logger.Info().Uint("product_id", p.ID).Str("seller_id", p.SellerID).Msg("Listing created")
	c.JSON(http.StatusCreated, gin.H{"product": p})
}

func UpdateProduct(c *gin.Context) {
	p, ok := productParam(c)
	if !ok {
		return
	}
	if !canManage(c, p) {
		_ = c.Error(apperrors.Forbidden("You can only edit your own listings"))
		return
	}

	var input ProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		_ = c.Error(apperrors.ErrInvalidRequest)
		return
	}
	if err := input.apply(p); err != nil {
		_ = c.Error(apperrors.BadRequest(err.Error()))
		return
	}

	if err := database.DB.Save(p).Error; err != nil {
		logger.Error().Err(err).Uint("product_id", p.ID).Msg("Failed to update product")
		_ = c.Error(apperrors.Internal("Failed to update product"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": p})
}

// DeleteProduct soft-deletes a listing. Its chat history stays but no longer
// resolves, so the conversation disappears from both parties' lists.
func DeleteProduct(c *gin.Context) {
	p, ok := productParam(c)
	if !ok {
		return
	}
	if !canManage(c, p) {
		_ = c.Error(apperrors.Forbidden("You can only delete your own listings"))
		return
	}

	actor := middleware.CurrentUserID(c)
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(p).Error; err != nil {
			return err
		}
		if p.OwnedBy(actor) {
			return nil
		}
		return database.LogAdminAction(tx, actor, models.ActionRemoveListing, strconv.FormatUint(uint64(p.ID), 10), "product", c.Query("reason"))
	})
	if err != nil {
		logger.Error().Err(err).Uint("product_id", p.ID).Msg("Failed to delete product")
		_ = c.Error(apperrors.Internal("Failed to delete product"))
		return
	}
	c.Status(http.StatusNoContent)
}
