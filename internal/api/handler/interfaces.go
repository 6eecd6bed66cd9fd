package handler

import (
	"context"

	"github.com/kevinseya/app-ticketera-backend/internal/application"
	"github.com/kevinseya/app-ticketera-backend/internal/domain/event"
	"github.com/kevinseya/app-ticketera-backend/internal/domain/seat"
	"github.com/kevinseya/app-ticketera-backend/internal/domain/ticket"
)

// EventServiceInterface はイベントサービスのインターフェース
type EventServiceInterface interface {
	CreateEvent(ctx context.Context, input application.CreateEventInput) (*event.Event, error)
	GetEvent(ctx context.Context, id string) (*event.Event, error)
	ListEvents(ctx context.Context, limit, offset int) ([]*event.Event, error)
	UpdateEvent(ctx context.Context, input application.UpdateEventInput) (*event.Event, error)
	DeleteEvent(ctx context.Context, id string) error
}

// SeatServiceInterface は座席サービスのインターフェース
type SeatServiceInterface interface {
	GetSeatsByEvent(ctx context.Context, eventID string) ([]*seat.Seat, error)
	GetAvailableSeatsByEvent(ctx context.Context, eventID string) ([]*seat.Seat, error)
	CountAvailableSeats(ctx context.Context, eventID string) (int, error)
}

// TicketServiceInterface はチケットサービスのインターフェース
type TicketServiceInterface interface {
	CreatePaymentIntent(ctx context.Context, input application.CreatePaymentIntentInput) (*application.CreatePaymentIntentOutput, error)
	ConfirmPayment(ctx context.Context, userID, paymentIntentID string) ([]*ticket.Detail, error)
	VerifyTicket(ctx context.Context, code string) (*application.VerifyResult, error)
	GetUserTickets(ctx context.Context, userID string) ([]*ticket.Detail, error)
	GetTicket(ctx context.Context, id, userID string) (*ticket.Detail, error)
	ListTickets(ctx context.Context) ([]*ticket.Detail, error)
}
