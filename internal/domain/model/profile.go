package model

import "time"

// 会員登録時に作成されるプロフィール行。
// 作成に失敗しても登録自体は成功扱い。
type Profile struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    string    `gorm:"type:uuid;not null;index" json:"user_id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Email     string    `gorm:"type:varchar(255);not null" json:"email"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}
