package seat

import "errors"

// Seat ドメインのエラー定義
var (
	ErrSeatNotFound    = errors.New("座席が見つかりません")
	ErrSeatOccupied    = errors.New("座席は既に占有されています")
	ErrSeatWrongEvent  = errors.New("座席がこのイベントに属していません")
	ErrEventIDRequired = errors.New("イベントIDは必須です")
	ErrInvalidPosition = errors.New("座席の行・列は1以上である必要があります")
)
