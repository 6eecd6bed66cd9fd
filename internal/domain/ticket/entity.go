package ticket

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status はチケットの状態を表す
type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusCancelled Status = "cancelled"
	StatusUsed      Status = "used"
)

// CodePrefix はスキャン用コードの接頭辞
const CodePrefix = "TCK-"

// 許可される状態遷移の一覧
// paid -> used（入場時の消込）と paid -> cancelled のみ許可し、
// used / cancelled は終端状態とする
var allowedTransitions = map[Status][]Status{
	StatusPaid: {StatusUsed, StatusCancelled},
}

// CanTransition は from から to への遷移が許可されているかを返す
func CanTransition(from, to Status) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsValidStatus は既知の状態かを返す
func IsValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusPaid, StatusCancelled, StatusUsed:
		return true
	}
	return false
}

// Ticket はチケットエンティティを表す
// 座席1席につき有効なチケットは高々1枚
type Ticket struct {
	ID          string
	UserID      string
	EventID     string
	SeatID      string
	Status      Status
	Code        string // QRに埋め込むスキャン用コード（グローバル一意）
	PaymentRef  string // 外部決済プロバイダのインテントID
	PurchasedAt time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewTicket は確定トランザクション内で発行されるチケットを作成する
func NewTicket(userID, eventID, seatID, paymentRef string) *Ticket {
	now := time.Now()
	return &Ticket{
		UserID:      userID,
		EventID:     eventID,
		SeatID:      seatID,
		Status:      StatusPaid,
		Code:        NewCode(),
		PaymentRef:  paymentRef,
		PurchasedAt: now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// NewCode はスキャン用コードを生成する
// 形式: TCK-<ランダムUUID>。QRペイロードとしてそのまま使える
func NewCode() string {
	return CodePrefix + uuid.New().String()
}

// IsCode は文字列がスキャン用コードの形式かを返す
func IsCode(code string) bool {
	return strings.HasPrefix(code, CodePrefix) && len(code) > len(CodePrefix)
}

// Validate はチケットの検証を行う
func (t *Ticket) Validate() error {
	if t.UserID == "" {
		return ErrUserIDRequired
	}
	if t.EventID == "" {
		return ErrEventIDRequired
	}
	if t.SeatID == "" {
		return ErrSeatIDRequired
	}
	if t.Code == "" {
		return ErrCodeRequired
	}
	if !IsValidStatus(t.Status) {
		return ErrInvalidStatus
	}
	return nil
}

// MarkUsed はチケットを使用済みに遷移させる
func (t *Ticket) MarkUsed() error {
	if !CanTransition(t.Status, StatusUsed) {
		return ErrInvalidTransition
	}
	t.Status = StatusUsed
	t.UpdatedAt = time.Now()
	return nil
}

// Cancel はチケットをキャンセル状態に遷移させる
func (t *Ticket) Cancel() error {
	if !CanTransition(t.Status, StatusCancelled) {
		return ErrInvalidTransition
	}
	t.Status = StatusCancelled
	t.UpdatedAt = time.Now()
	return nil
}
