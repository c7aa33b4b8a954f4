package model

import (
	"time"

	"github.com/google/uuid"
)

// Client is a registered customer of the restaurant. Phone is the natural
// lookup key used by the POS screens.
type Client struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name      string    `gorm:"index;not null"`
	Phone     string    `gorm:"uniqueIndex;not null"`
	Email     *string
	Address   *string
	Notes     *string
	Active    bool `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
