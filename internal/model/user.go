// Package model defines database models
package model

import "time"

const (
	RoleViewer = "viewer"
	RolePlayer = "player"
	RoleAdmin  = "admin"
)

type User struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Username      string    `gorm:"size:20;uniqueIndex;not null" json:"username"`
	Email         string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Role          string    `gorm:"size:20;not null;default:viewer" json:"role"`
	PasswordHash  string    `gorm:"size:255;not null" json:"-"`
	IsActive      bool      `gorm:"not null;default:false" json:"is_active"`
	CommandID     *int64    `gorm:"index" json:"command_id"`
	IsTeamCreator bool      `gorm:"not null;default:false" json:"is_team_creator"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// CanPlay reports whether the user may create or join teams
func (u *User) CanPlay() bool {
	return u.Role == RolePlayer || u.Role == RoleAdmin
}
