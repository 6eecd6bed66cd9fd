package ticket

import "errors"

// Ticket ドメインのエラー定義
var (
	ErrTicketNotFound    = errors.New("チケットが見つかりません")
	ErrNotTicketOwner    = errors.New("このチケットを参照する権限がありません")
	ErrUserIDRequired    = errors.New("ユーザーIDは必須です")
	ErrEventIDRequired   = errors.New("イベントIDは必須です")
	ErrSeatIDRequired    = errors.New("座席IDは必須です")
	ErrSeatIDsRequired   = errors.New("座席IDを1つ以上指定してください")
	ErrDuplicateSeatIDs  = errors.New("座席IDが重複しています")
	ErrCodeRequired      = errors.New("スキャン用コードは必須です")
	ErrInvalidStatus     = errors.New("不明なチケット状態です")
	ErrInvalidTransition = errors.New("許可されていない状態遷移です")
	ErrAlreadyUsed       = errors.New("チケットは既に使用されています")
)
