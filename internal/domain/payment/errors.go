package payment

import "errors"

// Payment ドメインのエラー定義
var (
	ErrIntentNotFound      = errors.New("決済インテントが見つかりません")
	ErrPaymentNotSucceeded = errors.New("決済が完了していません")
	ErrInvalidMetadata     = errors.New("決済メタデータが欠損または不正です")
	ErrInvalidAmount       = errors.New("金額は1以上である必要があります")
)
