package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 外部ストアのproductsテーブル。クライアントからは読み取り専用。
type Product struct {
	ID          string          `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string          `gorm:"type:varchar(255);not null" json:"name"`
	Description *string         `gorm:"type:text" json:"description"`
	Price       decimal.Decimal `gorm:"type:numeric(12,0);not null" json:"price"`
	ImageURL    *string         `gorm:"type:text" json:"image_url"`
	CategoryID  *int64          `gorm:"index" json:"category_id"`
	Stock       int64           `gorm:"not null" json:"stock"`
	CreatedAt   time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
}

type Category struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"type:varchar(100);not null" json:"name"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}
