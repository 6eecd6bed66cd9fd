package seat

import (
	"math"
	"time"
)

// Seat は座席エンティティを表す
// 行・列の組はイベント内で一意
type Seat struct {
	ID        string
	EventID   string
	Row       int
	Column    int
	Occupied  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewSeat は新しい座席を作成する
func NewSeat(eventID string, row, column int, occupied bool) *Seat {
	now := time.Now()
	return &Seat{
		EventID:   eventID,
		Row:       row,
		Column:    column,
		Occupied:  occupied,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsAvailable は座席が購入可能かを返す
func (s *Seat) IsAvailable() bool {
	return !s.Occupied
}

// Validate は座席の検証を行う
func (s *Seat) Validate() error {
	if s.EventID == "" {
		return ErrEventIDRequired
	}
	if s.Row < 1 || s.Column < 1 {
		return ErrInvalidPosition
	}
	return nil
}

// GridSide は要求座席数を収める正方形グリッドの一辺を返す
func GridSide(requestedSeats int) int {
	return int(math.Ceil(math.Sqrt(float64(requestedSeats))))
}

// GenerateGrid はイベント作成時の座席グリッドを生成する
// ceil(sqrt(requestedSeats))^2 セルのグリッドを行優先で並べ、
// 要求数を超えるセルは販売不可の塞ぎ席（occupied = true）として作る
func GenerateGrid(eventID string, requestedSeats int) []*Seat {
	if requestedSeats <= 0 {
		return nil
	}

	side := GridSide(requestedSeats)
	seats := make([]*Seat, 0, side*side)
	sellable := 0
	for row := 1; row <= side; row++ {
		for column := 1; column <= side; column++ {
			blocked := sellable >= requestedSeats
			seats = append(seats, NewSeat(eventID, row, column, blocked))
			if !blocked {
				sellable++
			}
		}
	}
	return seats
}
