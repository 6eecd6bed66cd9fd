package event

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event はイベントエンティティを表す
type Event struct {
	ID          string
	Name        string
	Description string
	Venue       string
	ImageURL    string
	Date        time.Time
	TicketPrice decimal.Decimal
	TotalSeats  int // 販売可能な座席数（グリッドのセル数ではない）
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Version     int // 楽観的ロック用
}

// NewEvent は新しいイベントを作成する
func NewEvent(name, description, venue, imageURL string, date time.Time, ticketPrice decimal.Decimal, totalSeats int) *Event {
	now := time.Now()
	return &Event{
		Name:        name,
		Description: description,
		Venue:       venue,
		ImageURL:    imageURL,
		Date:        date,
		TicketPrice: ticketPrice,
		TotalSeats:  totalSeats,
		CreatedAt:   now,
		UpdatedAt:   now,
		Version:     0,
	}
}

// Validate はイベントの検証を行う
func (e *Event) Validate() error {
	if e.Name == "" {
		return ErrEventNameRequired
	}
	if e.TotalSeats <= 0 {
		return ErrInvalidTotalSeats
	}
	if e.TicketPrice.IsNegative() {
		return ErrInvalidTicketPrice
	}
	return nil
}

// TotalAmountFor は指定座席数分の合計金額を返す
func (e *Event) TotalAmountFor(seatCount int) decimal.Decimal {
	return e.TicketPrice.Mul(decimal.NewFromInt(int64(seatCount)))
}
