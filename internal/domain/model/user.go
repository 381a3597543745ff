package model

import "time"

// 認証ユーザー。
type User struct {
	ID               string     `gorm:"type:uuid;primaryKey" json:"id"`
	Email            string     `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash     string     `gorm:"column:password_hash;not null" json:"-"`
	Name             string     `gorm:"type:varchar(255)" json:"name"`
	EmailConfirmedAt *time.Time `json:"email_confirmed_at"`
	CreatedAt        time.Time  `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
