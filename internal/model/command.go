package model

import "time"

// MaxCommandSize is the member count at which a team is marked filled
const MaxCommandSize = 5

const (
	CommandActive   = "active"
	CommandInactive = "inactive"
)

// Command is a team players register under for tournaments
type Command struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string    `gorm:"size:50;uniqueIndex;not null" json:"name"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Status       string    `gorm:"size:20;not null;default:active;index" json:"status"`
	IsFilled     bool      `gorm:"not null;default:false" json:"is_filled"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Users []User `gorm:"foreignKey:CommandID" json:"users"`
}
