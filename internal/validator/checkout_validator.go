package validator

import (
	"fmt"
	"strings"
)

// チェックアウトの注文フォーム。postcodeのみ任意
type OrderForm struct {
	CustomerName          string `json:"customer_name"`
	CustomerEmail         string `json:"customer_email"`
	CustomerPhone         string `json:"customer_phone"`
	ShippingName          string `json:"shipping_name"`
	ShippingPhone         string `json:"shipping_phone"`
	ShippingAddress       string `json:"shipping_address"`
	ShippingDetailAddress string `json:"shipping_detail_address"`
	ShippingPostcode      string `json:"shipping_postcode"`
}

// 最初に失敗したフィールドだけを報告する
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

type requiredField struct {
	field   string
	value   func(f OrderForm) string
	message string
}

// 検証順はフォームの並びそのまま。集約せず最初の1件で止める
var requiredFields = []requiredField{
	{"customer_name", func(f OrderForm) string { return f.CustomerName }, "주문자 이름을 입력해주세요."},
	{"customer_email", func(f OrderForm) string { return f.CustomerEmail }, "주문자 이메일을 입력해주세요."},
	{"customer_phone", func(f OrderForm) string { return f.CustomerPhone }, "주문자 전화번호를 입력해주세요."},
	{"shipping_name", func(f OrderForm) string { return f.ShippingName }, "배송지 수령인을 입력해주세요."},
	{"shipping_phone", func(f OrderForm) string { return f.ShippingPhone }, "배송지 전화번호를 입력해주세요."},
	{"shipping_address", func(f OrderForm) string { return f.ShippingAddress }, "배송지 주소를 입력해주세요."},
	{"shipping_detail_address", func(f OrderForm) string { return f.ShippingDetailAddress }, "배송지 상세주소를 입력해주세요."},
}

// ValidateOrderForm は必須フィールドを順に検証し、
// 最初に失敗したフィールドのエラーだけを返す。
func ValidateOrderForm(f OrderForm) error {
	for _, rf := range requiredFields {
		if strings.TrimSpace(rf.value(f)) == "" {
			return &ValidationError{Field: rf.field, Message: rf.message}
		}
	}
	return nil
}
