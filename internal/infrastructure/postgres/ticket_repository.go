package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/kevinseya/app-ticketera-backend/internal/domain/event"
	"github.com/kevinseya/app-ticketera-backend/internal/domain/seat"
	"github.com/kevinseya/app-ticketera-backend/internal/domain/ticket"
	"github.com/kevinseya/app-ticketera-backend/internal/domain/transaction"
)

// ticketDetailRow はイベント・座席をJOINした行を表す構造体
type ticketDetailRow struct {
	ID          string    `db:"id"`
	UserID      string    `db:"user_id"`
	EventID     string    `db:"event_id"`
	SeatID      string    `db:"seat_id"`
	Status      string    `db:"status"`
	Code        string    `db:"code"`
	PaymentRef  string    `db:"payment_ref"`
	PurchasedAt time.Time `db:"purchased_at"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`

	EventName        string          `db:"event_name"`
	EventDescription *string         `db:"event_description"`
	EventVenue       *string         `db:"event_venue"`
	EventImageURL    *string         `db:"event_image_url"`
	EventDate        time.Time       `db:"event_date"`
	EventTicketPrice decimal.Decimal `db:"event_ticket_price"`
	EventTotalSeats  int             `db:"event_total_seats"`

	SeatRow      int  `db:"seat_row"`
	SeatColumn   int  `db:"seat_col"`
	SeatOccupied bool `db:"seat_occupied"`
}

func (r *ticketDetailRow) toDetail() *ticket.Detail {
	var desc, venue, imageURL string
	if r.EventDescription != nil {
		desc = *r.EventDescription
	}
	if r.EventVenue != nil {
		venue = *r.EventVenue
	}
	if r.EventImageURL != nil {
		imageURL = *r.EventImageURL
	}
	return &ticket.Detail{
		Ticket: &ticket.Ticket{
			ID: r.ID, UserID: r.UserID, EventID: r.EventID, SeatID: r.SeatID,
			Status: ticket.Status(r.Status), Code: r.Code, PaymentRef: r.PaymentRef,
			PurchasedAt: r.PurchasedAt, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
		},
		Event: &event.Event{
			ID: r.EventID, Name: r.EventName, Description: desc, Venue: venue,
			ImageURL: imageURL, Date: r.EventDate, TicketPrice: r.EventTicketPrice,
			TotalSeats: r.EventTotalSeats,
		},
		Seat: &seat.Seat{
			ID: r.SeatID, EventID: r.EventID, Row: r.SeatRow, Column: r.SeatColumn,
			Occupied: r.SeatOccupied,
		},
	}
}

// TicketRepository はチケットリポジトリのPostgreSQL実装
type TicketRepository struct{ db *sqlx.DB }

func NewTicketRepository(db *sqlx.DB) *TicketRepository { return &TicketRepository{db: db} }

const ticketDetailQuery = `
	SELECT t.id, t.user_id, t.event_id, t.seat_id, t.status, t.code, t.payment_ref,
	       t.purchased_at, t.created_at, t.updated_at,
	       e.name AS event_name, e.description AS event_description, e.venue AS event_venue,
	       e.image_url AS event_image_url, e.date AS event_date,
	       e.ticket_price AS event_ticket_price, e.total_seats AS event_total_seats,
	       s."row" AS seat_row, s.col AS seat_col, s.occupied AS seat_occupied
	FROM tickets t
	JOIN events e ON e.id = t.event_id
	JOIN seats s ON s.id = t.seat_id
`

// CreateBulk は複数のチケットを一括作成する
// 座席占有のフリップと同一トランザクションで呼ばれる前提。
// seat_id には有効チケットの一意制約があり、占有CASをすり抜けた
// 競合挿入もここで失敗してロールバックされる
func (r *TicketRepository) CreateBulk(ctx context.Context, tx transaction.Tx, tickets []*ticket.Ticket) error {
	if len(tickets) == 0 {
		return nil
	}
	query := `
		INSERT INTO tickets (user_id, event_id, seat_id, status, code, payment_ref, purchased_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	sqlxTx := UnwrapTx(tx)
	for _, t := range tickets {
		err := sqlxTx.QueryRowContext(ctx, query,
			t.UserID, t.EventID, t.SeatID, string(t.Status), t.Code, t.PaymentRef,
			t.PurchasedAt, t.CreatedAt, t.UpdatedAt,
		).Scan(&t.ID)
		if err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
				return seat.ErrSeatOccupied
			}
			return fmt.Errorf("チケット作成に失敗しました: %w", err)
		}
	}
	return nil
}

// GetByID はIDからチケットを取得する
func (r *TicketRepository) GetByID(ctx context.Context, id string) (*ticket.Detail, error) {
	query := ticketDetailQuery + ` WHERE t.id = $1`
	var row ticketDetailRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ticket.ErrTicketNotFound
		}
		return nil, fmt.Errorf("チケット取得に失敗しました: %w", err)
	}
	return row.toDetail(), nil
}

// GetByCode はスキャン用コードからチケットを取得する
func (r *TicketRepository) GetByCode(ctx context.Context, code string) (*ticket.Detail, error) {
	query := ticketDetailQuery + ` WHERE t.code = $1`
	var row ticketDetailRow
	if err := r.db.GetContext(ctx, &row, query, code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ticket.ErrTicketNotFound
		}
		return nil, fmt.Errorf("チケット取得に失敗しました: %w", err)
	}
	return row.toDetail(), nil
}

// GetByUserID はユーザーのチケット一覧を購入日時の降順で取得する
func (r *TicketRepository) GetByUserID(ctx context.Context, userID string) ([]*ticket.Detail, error) {
	query := ticketDetailQuery + ` WHERE t.user_id = $1 ORDER BY t.purchased_at DESC`
	var rows []ticketDetailRow
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("チケット一覧取得に失敗しました: %w", err)
	}
	details := make([]*ticket.Detail, len(rows))
	for i, row := range rows {
		details[i] = row.toDetail()
	}
	return details, nil
}

// List は全チケットを購入日時の降順で取得する
func (r *TicketRepository) List(ctx context.Context) ([]*ticket.Detail, error) {
	query := ticketDetailQuery + ` ORDER BY t.purchased_at DESC`
	var rows []ticketDetailRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("チケット一覧取得に失敗しました: %w", err)
	}
	details := make([]*ticket.Detail, len(rows))
	for i, row := range rows {
		details[i] = row.toDetail()
	}
	return details, nil
}

// MarkUsed はチケットを paid から used に条件付き更新する
// 条件付きUPDATEにより消込が1回だけ成功することを保証する。
// 競合した2回目以降の消込は更新件数0となり ErrAlreadyUsed を返す
func (r *TicketRepository) MarkUsed(ctx context.Context, id string) error {
	query := `UPDATE tickets SET status = 'used', updated_at = NOW() WHERE id = $1 AND status = 'paid'`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("チケット消込に失敗しました: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新結果の確認に失敗しました: %w", err)
	}
	if rows == 0 {
		return ticket.ErrAlreadyUsed
	}
	return nil
}

var _ ticket.Repository = (*TicketRepository)(nil)
