package seeds

import (
	_ "embed"
	"fmt"
	"time"

	"github.com/rentitout/backend/internal/models"
	"github.com/rentitout/backend/pkg/logger"
	"github.com/rentitout/backend/pkg/utils"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

//go:embed fixtures.yaml
var defaultFixtures []byte

type UserFixture struct {
	Key      string `yaml:"key"`
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Role     string `yaml:"role"`
	Type     string `yaml:"type"`
}

type ProductFixture struct {
	Key         string   `yaml:"key"`
	Seller      string   `yaml:"seller"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Category    string   `yaml:"category"`
	Price       float64  `yaml:"price"`
	Available   bool     `yaml:"available"`
	Location    string   `yaml:"location"`
	Images      []string `yaml:"images"`
}

type MessageFixture struct {
	Listing    string `yaml:"listing"`
	From       string `yaml:"from"`
	To         string `yaml:"to"`
	Content    string `yaml:"content"`
	MinutesAgo int    `yaml:"minutesAgo"`
}

type Fixtures struct {
	Users    []UserFixture    `yaml:"users"`
	Products []ProductFixture `yaml:"products"`
	Messages []MessageFixture `yaml:"messages"`
}

// Default returns the embedded demo fixtures.
func Default() (*Fixtures, error) {
	return Parse(defaultFixtures)
}

// Parse decodes fixtures and checks that every reference resolves.
func Parse(data []byte) (*Fixtures, error) {
	var f Fixtures
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode fixtures: %w", err)
	}

	users := make(map[string]models.Role, len(f.Users))
	for _, u := range f.Users {
		role := models.Role(u.Role)
		if u.Key == "" || u.Email == "" {
			return nil, fmt.Errorf("user fixture needs key and email")
		}
		if !utils.ValidateEmail(utils.NormalizeEmail(u.Email)) {
			return nil, fmt.Errorf("user %s: invalid email %q", u.Key, u.Email)
		}
		if !role.Valid() {
			return nil, fmt.Errorf("user %s: invalid role %q", u.Key, u.Role)
		}
		users[u.Key] = role
	}

	products := make(map[string]string, len(f.Products))
	for _, p := range f.Products {
		role, ok := users[p.Seller]
		if !ok {
			return nil, fmt.Errorf("product %s: unknown seller %q", p.Key, p.Seller)
		}
		if role == models.RoleBuyer {
			return nil, fmt.Errorf("product %s: %s cannot list", p.Key, p.Seller)
		}
		if !models.Category(p.Category).Valid() {
			return nil, fmt.Errorf("product %s: invalid category %q", p.Key, p.Category)
		}
		products[p.Key] = p.Seller
	}

	for i, m := range f.Messages {
		if _, ok := products[m.Listing]; !ok {
			return nil, fmt.Errorf("message %d: unknown listing %q", i, m.Listing)
		}
		if _, ok := users[m.From]; !ok {
			return nil, fmt.Errorf("message %d: unknown sender %q", i, m.From)
		}
		if _, ok := users[m.To]; !ok {
			return nil, fmt.Errorf("message %d: unknown receiver %q", i, m.To)
		}
		if m.From == m.To {
			return nil, fmt.Errorf("message %d: sender and receiver are the same", i)
		}
	}

	return &f, nil
}

// Result counts the rows created by Apply.
type Result struct {
	Users    int
	Products int
	Messages int
}

// Apply inserts the fixtures. Rows that already exist are left alone, so
// running it twice is harmless.
func Apply(db *gorm.DB, f *Fixtures, now time.Time) (Result, error) {
	var res Result
	err := db.Transaction(func(tx *gorm.DB) error {
		users := make(map[string]models.User, len(f.Users))
		for _, u := range f.Users {
			user, created, err := seedUser(tx, u)
			if err != nil {
				return err
			}
			if created {
				res.Users++
			}
			users[u.Key] = user
		}

		products := make(map[string]models.Product, len(f.Products))
		for _, p := range f.Products {
			seller := users[p.Seller]
			var product models.Product
			q := tx.Where("seller_id = ? AND name = ?", seller.ID, p.Name).Limit(1).Find(&product)
			if q.Error != nil {
				return q.Error
			}
			if q.RowsAffected == 0 {
				product = models.Product{
					Name:        p.Name,
					Description: p.Description,
					Category:    models.Category(p.Category),
					PricePerDay: p.Price,
					Available:   p.Available,
					Location:    p.Location,
					Images:      datatypes.JSONSlice[string](p.Images),
					SellerID:    seller.ID,
				}
				if err := tx.Create(&product).Error; err != nil {
					return fmt.Errorf("create product %s: %w", p.Key, err)
				}
				res.Products++
			}
			products[p.Key] = product
		}

		for i, m := range f.Messages {
			sender := users[m.From]
			clientID := fmt.Sprintf("seed-%s-%d", m.Listing, i)
			var existing int64
			if err := tx.Model(&models.ChatMessage{}).
				Where("sender_id = ? AND client_message_id = ?", sender.ID, clientID).
				Count(&existing).Error; err != nil {
				return err
			}
			if existing > 0 {
				continue
			}
			msg := models.ChatMessage{
				ProductID:       products[m.Listing].ID,
				SenderID:        sender.ID,
				ReceiverID:      users[m.To].ID,
				Content:         m.Content,
				ClientMessageID: &clientID,
				CreatedAt:       now.Add(-time.Duration(m.MinutesAgo) * time.Minute),
			}
			if err := tx.Create(&msg).Error; err != nil {
				return fmt.Errorf("create message %d: %w", i, err)
			}
			res.Messages++
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	logger.Info().
		Int("users", res.Users).
		Int("products", res.Products).
		Int("messages", res.Messages).
		Msg("🌱 Seed data applied")
	return res, nil
}

func seedUser(tx *gorm.DB, u UserFixture) (models.User, bool, error) {
	email := utils.NormalizeEmail(u.Email)

	var user models.User
	q := tx.Where("email = ?", email).Limit(1).Find(&user)
	if q.Error != nil {
		return user, false, q.Error
	}
	if q.RowsAffected > 0 {
		return user, false, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
	if err != nil {
		return user, false, err
	}
	user = models.User{
		Name:     u.Name,
		Email:    email,
		Password: string(hash),
		Role:     models.Role(u.Role),
		Type:     models.AttireType(u.Type),
	}
	if err := tx.Create(&user).Error; err != nil {
		return user, false, fmt.Errorf("create user %s: %w", u.Key, err)
	}
	return user, true, nil
}
