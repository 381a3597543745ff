package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	// 決済ウィジェット呼び出し前に作成される初期状態
	OrderStatusPending OrderStatus = "pending"
	// 外部決済の成功コールバックでのみ遷移。以後は不変
	OrderStatusPaid OrderStatus = "paid"
	// 失敗コールバックで遷移。paidからは遷移しない
	OrderStatusFailed OrderStatus = "failed"
)

// 注文。IDはクライアント生成のUUID（外部ストアのID形式に合わせる）。
// user_idはNULL可（ゲスト購入）。
type Order struct {
	ID          string          `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      *string         `gorm:"type:uuid;index" json:"user_id"`
	TotalAmount decimal.Decimal `gorm:"type:numeric(12,0);not null" json:"total_amount"`
	Status      OrderStatus     `gorm:"type:varchar(20);not null;index" json:"status"`
	PaymentKey  *string         `gorm:"type:varchar(255)" json:"payment_key"`
	CreatedAt   time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
