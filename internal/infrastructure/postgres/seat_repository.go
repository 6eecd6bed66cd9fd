package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/kevinseya/app-ticketera-backend/internal/domain/seat"
	"github.com/kevinseya/app-ticketera-backend/internal/domain/transaction"
)

type seatRow struct {
	ID        string    `db:"id"`
	EventID   string    `db:"event_id"`
	Row       int       `db:"row"`
	Column    int       `db:"col"`
	Occupied  bool      `db:"occupied"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r *seatRow) toEntity() *seat.Seat {
	return &seat.Seat{
		ID: r.ID, EventID: r.EventID, Row: r.Row, Column: r.Column,
		Occupied: r.Occupied, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

// SeatRepository は座席リポジトリのPostgreSQL実装
type SeatRepository struct{ db *sqlx.DB }

func NewSeatRepository(db *sqlx.DB) *SeatRepository { return &SeatRepository{db: db} }

const seatColumns = `id, event_id, "row", col, occupied, created_at, updated_at`

// CreateBulk は複数の座席を一括作成する
func (r *SeatRepository) CreateBulk(ctx context.Context, tx transaction.Tx, seats []*seat.Seat) error {
	if len(seats) == 0 {
		return nil
	}

	// バッチサイズごとに分割してマルチバリューINSERTを実行
	const batchSize = 1000
	for i := 0; i < len(seats); i += batchSize {
		end := i + batchSize
		if end > len(seats) {
			end = len(seats)
		}
		if err := r.createBulkBatch(ctx, tx, seats[i:end]); err != nil {
			return err
		}
	}
	return nil
}

// createBulkBatch はバッチ単位でマルチバリューINSERTを実行
func (r *SeatRepository) createBulkBatch(ctx context.Context, tx transaction.Tx, seats []*seat.Seat) error {
	query := `INSERT INTO seats (event_id, "row", col, occupied, created_at, updated_at) VALUES `
	args := make([]interface{}, 0, len(seats)*6)
	placeholders := make([]string, 0, len(seats))

	for i, s := range seats {
		base := i * 6
		placeholders = append(placeholders, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6))
		args = append(args, s.EventID, s.Row, s.Column, s.Occupied, s.CreatedAt, s.UpdatedAt)
	}

	query += strings.Join(placeholders, ", ")
	if _, err := UnwrapTx(tx).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("座席一括作成に失敗しました: %w", err)
	}
	return nil
}

// GetByID はIDから座席を取得する
func (r *SeatRepository) GetByID(ctx context.Context, id string) (*seat.Seat, error) {
	query := `SELECT ` + seatColumns + ` FROM seats WHERE id = $1`
	var row seatRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, seat.ErrSeatNotFound
		}
		return nil, fmt.Errorf("座席取得に失敗しました: %w", err)
	}
	return row.toEntity(), nil
}

// GetByIDs はIDの集合から座席を取得する
func (r *SeatRepository) GetByIDs(ctx context.Context, ids []string) ([]*seat.Seat, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT ` + seatColumns + ` FROM seats WHERE id = ANY($1) ORDER BY "row", col`
	var rows []seatRow
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("座席取得に失敗しました: %w", err)
	}
	seats := make([]*seat.Seat, len(rows))
	for i, row := range rows {
		seats[i] = row.toEntity()
	}
	return seats, nil
}

// GetByEventID はイベントIDから座席一覧を取得する
func (r *SeatRepository) GetByEventID(ctx context.Context, eventID string) ([]*seat.Seat, error) {
	query := `SELECT ` + seatColumns + ` FROM seats WHERE event_id = $1 ORDER BY "row", col`
	var rows []seatRow
	if err := r.db.SelectContext(ctx, &rows, query, eventID); err != nil {
		return nil, fmt.Errorf("座席一覧取得に失敗しました: %w", err)
	}
	seats := make([]*seat.Seat, len(rows))
	for i, row := range rows {
		seats[i] = row.toEntity()
	}
	return seats, nil
}

// GetAvailableByEventID はイベントIDから購入可能な座席一覧を取得する
func (r *SeatRepository) GetAvailableByEventID(ctx context.Context, eventID string) ([]*seat.Seat, error) {
	query := `SELECT ` + seatColumns + ` FROM seats WHERE event_id = $1 AND occupied = FALSE ORDER BY "row", col`
	var rows []seatRow
	if err := r.db.SelectContext(ctx, &rows, query, eventID); err != nil {
		return nil, fmt.Errorf("空席一覧取得に失敗しました: %w", err)
	}
	seats := make([]*seat.Seat, len(rows))
	for i, row := range rows {
		seats[i] = row.toEntity()
	}
	return seats, nil
}

// OccupySeats は座席を占有状態に条件付き更新する
// occupied = FALSE の行だけを更新し、更新件数が要求件数に満たなければ
// 他の購入が先にコミットしたとみなして ErrSeatOccupied を返す。
// この更新がチケット発行トランザクションの唯一の直列化ポイント
func (r *SeatRepository) OccupySeats(ctx context.Context, tx transaction.Tx, seatIDs []string) error {
	if len(seatIDs) == 0 {
		return nil
	}
	query := `UPDATE seats SET occupied = TRUE, updated_at = NOW() WHERE id = ANY($1) AND occupied = FALSE`
	result, err := UnwrapTx(tx).ExecContext(ctx, query, pq.Array(seatIDs))
	if err != nil {
		return fmt.Errorf("座席占有に失敗しました: %w", err)
	}
	rows, _ := result.RowsAffected()
	if int(rows) != len(seatIDs) {
		return seat.ErrSeatOccupied
	}
	return nil
}

// CountAvailableByEventID はイベントの購入可能座席数を取得する
func (r *SeatRepository) CountAvailableByEventID(ctx context.Context, eventID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM seats WHERE event_id = $1 AND occupied = FALSE`, eventID)
	return count, err
}

var _ seat.Repository = (*SeatRepository)(nil)
