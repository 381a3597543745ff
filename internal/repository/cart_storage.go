package repository

import "context"

// カートスナップショットのローカル永続化。
// localStorage相当のget/setだけを約束する（端末間同期はしない）。
type CartStorage interface {
	// 未保存ならfound=false（エラーではない）
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key string, value string) error
}
