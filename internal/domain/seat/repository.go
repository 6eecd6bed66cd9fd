package seat

import (
	"context"

	"github.com/kevinseya/app-ticketera-backend/internal/domain/transaction"
)

// Repository は座席リポジトリのインターフェース
type Repository interface {
	// CreateBulk は複数の座席を一括作成する
	CreateBulk(ctx context.Context, tx transaction.Tx, seats []*Seat) error

	// GetByID はIDから座席を取得する
	GetByID(ctx context.Context, id string) (*Seat, error)

	// GetByIDs はIDの集合から座席を取得する
	// 存在しないIDは結果に含まれない（件数の検証は呼び出し側が行う）
	GetByIDs(ctx context.Context, ids []string) ([]*Seat, error)

	// GetByEventID はイベントIDから座席一覧を取得する（行・列順）
	GetByEventID(ctx context.Context, eventID string) ([]*Seat, error)

	// GetAvailableByEventID はイベントIDから購入可能な座席一覧を取得する
	GetAvailableByEventID(ctx context.Context, eventID string) ([]*Seat, error)

	// OccupySeats は座席を占有状態に更新する（トランザクション必須）
	// occupied = false の座席だけを条件付き更新し、
	// 1席でも更新できなければ ErrSeatOccupied を返す
	OccupySeats(ctx context.Context, tx transaction.Tx, seatIDs []string) error

	// CountAvailableByEventID はイベントの購入可能座席数を取得する
	CountAvailableByEventID(ctx context.Context, eventID string) (int, error)
}
