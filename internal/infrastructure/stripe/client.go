// Package stripe はStripeのPaymentIntent APIの薄いラッパーを提供する
// 公式SDKではなくフォームエンコードのREST呼び出しを直接行う
package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kevinseya/app-ticketera-backend/internal/config"
	"github.com/kevinseya/app-ticketera-backend/internal/domain/payment"
)

// Client はStripe APIクライアント
type Client struct {
	secretKey string
	baseURL   string
	hc        *http.Client
}

// NewClient はStripeクライアントを作成する
func NewClient(cfg *config.StripeConfig) *Client {
	return &Client{
		secretKey: cfg.SecretKey,
		baseURL:   strings.TrimSuffix(cfg.BaseURL, "/"),
		hc:        &http.Client{Timeout: 30 * time.Second},
	}
}

// intentResponse はStripeのPaymentIntentレスポンス
type intentResponse struct {
	ID           string            `json:"id"`
	ClientSecret string            `json:"client_secret"`
	Status       string            `json:"status"`
	Amount       int64             `json:"amount"`
	Currency     string            `json:"currency"`
	Metadata     map[string]string `json:"metadata"`
}

func (r *intentResponse) toIntent() *payment.Intent {
	return &payment.Intent{
		ID:           r.ID,
		ClientSecret: r.ClientSecret,
		Status:       payment.IntentStatus(r.Status),
		Amount:       r.Amount,
		Currency:     r.Currency,
		Metadata:     r.Metadata,
	}
}

// errorResponse はStripeのエラーレスポンス
type errorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// CreateIntent は決済インテントを作成する
// 金額は最小通貨単位（セント）で渡す
func (c *Client) CreateIntent(ctx context.Context, amountMinorUnits int64, currency string, metadata map[string]string) (*payment.Intent, error) {
	if amountMinorUnits <= 0 {
		return nil, payment.ErrInvalidAmount
	}

	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amountMinorUnits, 10))
	form.Set("currency", currency)
	form.Set("automatic_payment_methods[enabled]", "true")
	for k, v := range metadata {
		form.Set(fmt.Sprintf("metadata[%s]", k), v)
	}

	var resp intentResponse
	if err := c.do(ctx, http.MethodPost, "/v1/payment_intents", form, &resp); err != nil {
		return nil, err
	}
	return resp.toIntent(), nil
}

// RetrieveIntent はIDから決済インテントを取得する
func (c *Client) RetrieveIntent(ctx context.Context, id string) (*payment.Intent, error) {
	var resp intentResponse
	if err := c.do(ctx, http.MethodGet, "/v1/payment_intents/"+url.PathEscape(id), nil, &resp); err != nil {
		return nil, err
	}
	return resp.toIntent(), nil
}

// do はフォームエンコードのリクエストを実行してJSONレスポンスを復元する
func (c *Client) do(ctx context.Context, method, path string, form url.Values, out interface{}) error {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("stripe: リクエスト作成に失敗しました: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("stripe: リクエスト送信に失敗しました: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return payment.ErrIntentNotFound
	}
	if resp.StatusCode != http.StatusOK {
		var errResp errorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Error.Message != "" {
			return fmt.Errorf("stripe: APIエラー（%d %s）: %s", resp.StatusCode, errResp.Error.Type, errResp.Error.Message)
		}
		rbody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("stripe: APIエラー（%d）: %s", resp.StatusCode, rbody)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("stripe: レスポンスの復元に失敗しました: %w", err)
	}
	return nil
}

var _ payment.Gateway = (*Client)(nil)
