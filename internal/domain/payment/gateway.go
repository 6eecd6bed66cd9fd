package payment

import "context"

// IntentStatus は決済インテントの状態を表す（プロバイダ側の値）
type IntentStatus string

const (
	IntentStatusSucceeded             IntentStatus = "succeeded"
	IntentStatusRequiresPaymentMethod IntentStatus = "requires_payment_method"
	IntentStatusProcessing            IntentStatus = "processing"
	IntentStatusCanceled              IntentStatus = "canceled"
)

// Intent は外部決済プロバイダが保持する決済インテント
// ローカルにはIDしか永続化しない。メタデータが購入意図を運ぶ唯一の経路
type Intent struct {
	ID           string
	ClientSecret string
	Status       IntentStatus
	Amount       int64 // 最小通貨単位（セント）
	Currency     string
	Metadata     map[string]string
}

// Succeeded は決済が完了しているかを返す
func (i *Intent) Succeeded() bool {
	return i.Status == IntentStatusSucceeded
}

// Gateway は外部決済プロバイダのインターフェース
// プロバイダは信頼しない外部システムとして扱い、
// 確定時には業務不変条件を必ず再検証する
type Gateway interface {
	// CreateIntent は決済インテントを作成する
	// amountMinorUnits は最小通貨単位（例: セント）での金額
	CreateIntent(ctx context.Context, amountMinorUnits int64, currency string, metadata map[string]string) (*Intent, error)

	// RetrieveIntent はIDから決済インテントを取得する
	// 取得はIDに対して冪等で、何度でも安全に繰り返せる
	RetrieveIntent(ctx context.Context, id string) (*Intent, error)
}
