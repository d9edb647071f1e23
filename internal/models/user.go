package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
	RoleAdmin  Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleBuyer, RoleSeller, RoleAdmin:
		return true
	}
	return false
}

// AttireType is the side of the wedding a user shops for.
type AttireType string

const (
	AttireBride AttireType = "bride"
	AttireGroom AttireType = "groom"
)

type User struct {
	ID        string         `gorm:"primaryKey;type:text" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Name     string     `json:"name"`
	Email    string     `gorm:"uniqueIndex;not null" json:"email"`
	Password string     `json:"-"`
	Role     Role       `gorm:"type:text;default:'buyer';not null" json:"role"`
	Type     AttireType `gorm:"type:text" json:"type"`
}

func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return
}

// CanList reports whether the user may publish rental listings.
func (u *User) CanList() bool {
	return u.Role == RoleSeller || u.Role == RoleAdmin
}
