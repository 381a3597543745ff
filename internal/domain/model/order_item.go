package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 注文明細。Orderと同一トランザクションで一括作成し、以後は不変。
// Priceは注文時点のスナップショット価格。
type OrderItem struct {
	ID        int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID   string          `gorm:"type:uuid;not null;index" json:"order_id"`
	ProductID string          `gorm:"type:uuid;not null;index" json:"product_id"`
	Quantity  int64           `gorm:"not null" json:"quantity"`
	Price     decimal.Decimal `gorm:"type:numeric(12,0);not null" json:"price"`
	CreatedAt time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
}
