package model

import "time"

// 認証プロバイダが払い出す現在セッション。
// 真実のソースはプロバイダ側で、ここは読み取り用のスナップショット。
type Session struct {
	UserID      string    `json:"user_id"`
	Email       string    `json:"email"`
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}
