package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleEmployee = "Employee"
	RoleManager  = "Manager"
	RoleAdmin    = "Admin"
)

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"             json:"id"`
	Username     string    `gorm:"uniqueIndex;not null"             json:"username"`
	PasswordHash string    `gorm:"not null"                         json:"-"`
	Roles        []string  `gorm:"type:text;serializer:json;not null" json:"roles"`
	Active       bool      `gorm:"not null;default:true"            json:"active"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// Note.UserID references a User by id; there is no foreign key, deletion of a
// referenced user is refused by the users service instead.
type Note struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"  json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null" json:"user"`
	Title     string    `gorm:"uniqueIndex;not null"  json:"title"`
	Text      string    `gorm:"not null"              json:"text"`
	Completed bool      `gorm:"not null;default:false" json:"completed"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (n *Note) BeforeCreate(*gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
