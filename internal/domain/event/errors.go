package event

import "errors"

// Event ドメインのエラー定義
var (
	ErrEventNotFound      = errors.New("イベントが見つかりません")
	ErrEventNameRequired  = errors.New("イベント名は必須です")
	ErrInvalidTotalSeats  = errors.New("座席数は1以上である必要があります")
	ErrInvalidTicketPrice = errors.New("チケット価格は0以上である必要があります")
)
