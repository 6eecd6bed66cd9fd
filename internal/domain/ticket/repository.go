package ticket

import (
	"context"

	"github.com/kevinseya/app-ticketera-backend/internal/domain/event"
	"github.com/kevinseya/app-ticketera-backend/internal/domain/seat"
	"github.com/kevinseya/app-ticketera-backend/internal/domain/transaction"
)

// Detail はクライアント表示用にイベント・座席を埋め込んだチケット
type Detail struct {
	Ticket *Ticket
	Event  *event.Event
	Seat   *seat.Seat
}

// Repository はチケットリポジトリのインターフェース
type Repository interface {
	// CreateBulk は複数のチケットを一括作成する（トランザクション必須）
	// 座席の占有フリップと同一トランザクションで呼ばれる
	CreateBulk(ctx context.Context, tx transaction.Tx, tickets []*Ticket) error

	// GetByID はIDからチケットを取得する（イベント・座席込み）
	GetByID(ctx context.Context, id string) (*Detail, error)

	// GetByCode はスキャン用コードからチケットを取得する（イベント・座席込み）
	GetByCode(ctx context.Context, code string) (*Detail, error)

	// GetByUserID はユーザーのチケット一覧を購入日時の降順で取得する
	GetByUserID(ctx context.Context, userID string) ([]*Detail, error)

	// List は全チケットを購入日時の降順で取得する（管理者用）
	List(ctx context.Context) ([]*Detail, error)

	// MarkUsed はチケットを paid から used に条件付き更新する
	// 既に used / cancelled の場合は ErrAlreadyUsed を返す（消込は1回だけ）
	MarkUsed(ctx context.Context, id string) error
}
