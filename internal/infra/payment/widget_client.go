package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	corepayment "shoppingmall/internal/payment"
)

// WidgetClient はホスト型決済ウィジェットAPIのHTTPクライアント。
// corepayment.Provider を実装する。
type WidgetClient struct {
	httpClient *http.Client
	baseURL    string
}

func NewWidgetClient(httpClient *http.Client, baseURL string) *WidgetClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &WidgetClient{httpClient: httpClient, baseURL: baseURL}
}

// Init はウィジェットセッションを作成してHandleを返す
func (c *WidgetClient) Init(ctx context.Context, clientKey string) (corepayment.Handle, error) {
	if clientKey == "" {
		return nil, corepayment.ErrMissingClientKey
	}

	var out struct {
		SessionID string `json:"sessionId"`
	}
	if err := c.post(ctx, clientKey, "/v2/widget/sessions", map[string]interface{}{}, &out); err != nil {
		return nil, err
	}

	return &widgetHandle{
		client:    c,
		clientKey: clientKey,
		sessionID: out.SessionID,
	}, nil
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (c *WidgetClient) post(ctx context.Context, clientKey string, path string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+clientKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		return c.toError(resp.StatusCode, raw)
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("unexpected widget api response: %w", err)
		}
	}
	return nil
}

func (c *WidgetClient) delete(ctx context.Context, clientKey string, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+clientKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(resp.Body)
		return c.toError(resp.StatusCode, raw)
	}
	return nil
}

// プロバイダのエラー応答を分類する。
// 連携キー不正と重複ウィジェットは呼び出し側で特別扱いされる
func (c *WidgetClient) toError(status int, raw []byte) error {
	var ae apiError
	_ = json.Unmarshal(raw, &ae)

	switch {
	case status == http.StatusUnauthorized || ae.Code == "INVALID_CLIENT_KEY":
		return corepayment.ErrInvalidClientKey
	case ae.Code == "DUPLICATE_WIDGET":
		return corepayment.ErrDuplicateWidget
	case ae.Message != "":
		// その他のウィジェットエラーはそのまま表に出す
		return fmt.Errorf("widget api error: %s", ae.Message)
	default:
		return fmt.Errorf("widget api error: status %d", status)
	}
}

type widgetHandle struct {
	client    *WidgetClient
	clientKey string
	sessionID string
}

func (h *widgetHandle) SetAmount(ctx context.Context, amount corepayment.Amount) error {
	body := map[string]interface{}{
		"currency": amount.Currency,
		"value":    amount.Value.IntPart(),
	}
	return h.client.post(ctx, h.clientKey, "/v2/widget/sessions/"+h.sessionID+"/amount", body, nil)
}

func (h *widgetHandle) RenderPaymentMethods(ctx context.Context, target string) error {
	body := map[string]interface{}{"selector": "#" + target, "variantKey": "DEFAULT"}
	return h.client.post(ctx, h.clientKey, "/v2/widget/sessions/"+h.sessionID+"/payment-methods", body, nil)
}

func (h *widgetHandle) RenderAgreement(ctx context.Context, target string) error {
	body := map[string]interface{}{"selector": "#" + target, "variantKey": "AGREEMENT"}
	return h.client.post(ctx, h.clientKey, "/v2/widget/sessions/"+h.sessionID+"/agreement", body, nil)
}

func (h *widgetHandle) RequestPayment(ctx context.Context, req corepayment.Request) (string, error) {
	body := map[string]interface{}{
		"orderId":             req.OrderID,
		"orderName":           req.OrderName,
		"successUrl":          req.SuccessURL,
		"failUrl":             req.FailURL,
		"customerName":        req.CustomerName,
		"customerEmail":       req.CustomerEmail,
		"customerMobilePhone": req.CustomerMobilePhone,
	}

	var out struct {
		CheckoutURL string `json:"checkoutUrl"`
	}
	if err := h.client.post(ctx, h.clientKey, "/v2/widget/sessions/"+h.sessionID+"/payments", body, &out); err != nil {
		return "", err
	}
	return out.CheckoutURL, nil
}

func (h *widgetHandle) Destroy(ctx context.Context) error {
	return h.client.delete(ctx, h.clientKey, "/v2/widget/sessions/"+h.sessionID)
}
