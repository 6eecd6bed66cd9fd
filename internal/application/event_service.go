package application

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kevinseya/app-ticketera-backend/internal/domain/event"
	"github.com/kevinseya/app-ticketera-backend/internal/domain/seat"
	"github.com/kevinseya/app-ticketera-backend/internal/domain/transaction"
)

type EventService struct {
	txManager transaction.Manager
	eventRepo event.Repository
	seatRepo  seat.Repository
}

func NewEventService(tm transaction.Manager, er event.Repository, sr seat.Repository) *EventService {
	return &EventService{txManager: tm, eventRepo: er, seatRepo: sr}
}

type CreateEventInput struct {
	Name        string
	Description string
	Venue       string
	ImageURL    string
	Date        time.Time
	TicketPrice decimal.Decimal
	TotalSeats  int
}

// CreateEvent はイベントと座席グリッドを単一トランザクションで作成する
// 要求座席数を収める ceil(sqrt(n))^2 セルのグリッドを生成し、
// 要求数を超えるセルは塞ぎ席として作る。座席生成に失敗した場合は
// イベント行ごとロールバックされ、座席ゼロのイベントは残らない
func (s *EventService) CreateEvent(ctx context.Context, input CreateEventInput) (*event.Event, error) {
	e := event.NewEvent(input.Name, input.Description, input.Venue, input.ImageURL,
		input.Date, input.TicketPrice, input.TotalSeats)
	if err := e.Validate(); err != nil {
		return nil, fmt.Errorf("バリデーションエラー: %w", err)
	}

	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("トランザクション開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	if err := s.eventRepo.Create(ctx, tx, e); err != nil {
		return nil, fmt.Errorf("イベント作成に失敗しました: %w", err)
	}

	seats := seat.GenerateGrid(e.ID, e.TotalSeats)
	if err := s.seatRepo.CreateBulk(ctx, tx, seats); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("コミットに失敗しました: %w", err)
	}
	return e, nil
}

func (s *EventService) GetEvent(ctx context.Context, id string) (*event.Event, error) {
	return s.eventRepo.GetByID(ctx, id)
}

func (s *EventService) ListEvents(ctx context.Context, limit, offset int) ([]*event.Event, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.eventRepo.List(ctx, limit, offset)
}

type UpdateEventInput struct {
	ID          string
	Name        string
	Description string
	Venue       string
	ImageURL    string
	Date        time.Time
	TicketPrice decimal.Decimal
}

// UpdateEvent はイベントの管理者編集を行う
// 座席グリッドは再生成しないため総座席数は変更できない
func (s *EventService) UpdateEvent(ctx context.Context, input UpdateEventInput) (*event.Event, error) {
	e, err := s.eventRepo.GetByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	e.Name = input.Name
	e.Description = input.Description
	e.Venue = input.Venue
	e.ImageURL = input.ImageURL
	e.Date = input.Date
	e.TicketPrice = input.TicketPrice
	if err := e.Validate(); err != nil {
		return nil, fmt.Errorf("バリデーションエラー: %w", err)
	}
	if err := s.eventRepo.Update(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *EventService) DeleteEvent(ctx context.Context, id string) error {
	return s.eventRepo.Delete(ctx, id)
}
