package model

// カートの明細。
// 追加時点の商品スナップショットを必ず持ち、ロード時に再取得して鮮度を保つ。
type CartLine struct {
	ProductID string  `json:"productId"`
	Quantity  int64   `json:"quantity"`
	Product   Product `json:"product"`
}
