package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/kevinseya/app-ticketera-backend/internal/domain/event"
	"github.com/kevinseya/app-ticketera-backend/internal/domain/payment"
	"github.com/kevinseya/app-ticketera-backend/internal/domain/seat"
	"github.com/kevinseya/app-ticketera-backend/internal/domain/ticket"
	"github.com/kevinseya/app-ticketera-backend/internal/domain/transaction"
	redisinfra "github.com/kevinseya/app-ticketera-backend/internal/infrastructure/redis"
	"github.com/kevinseya/app-ticketera-backend/internal/pkg/logger"
	"github.com/kevinseya/app-ticketera-backend/internal/pkg/metrics"
)

// TicketService はチケット発行のコアワークフローを実装する
// 座席の占有フリップとチケット挿入を単一トランザクションで行い、
// そのトランザクションが同時購入に対する唯一の直列化ポイントになる。
// インテント作成から確定までの間、座席はロックしない（保留なし設計）
type TicketService struct {
	txManager  transaction.Manager
	ticketRepo ticket.Repository
	seatRepo   seat.Repository
	eventRepo  event.Repository
	gateway    payment.Gateway
	cache      redisinfra.SeatCacheInterface
	currency   string
}

func NewTicketService(
	tm transaction.Manager,
	tr ticket.Repository,
	sr seat.Repository,
	er event.Repository,
	gw payment.Gateway,
	cache redisinfra.SeatCacheInterface,
	currency string,
) *TicketService {
	return &TicketService{
		txManager: tm, ticketRepo: tr, seatRepo: sr, eventRepo: er,
		gateway: gw, cache: cache, currency: currency,
	}
}

type CreatePaymentIntentInput struct {
	UserID  string
	EventID string
	SeatIDs []string
}

type CreatePaymentIntentOutput struct {
	ClientSecret    string
	PaymentIntentID string
	Amount          decimal.Decimal
}

// CreatePaymentIntent は座席選択を検証して決済インテントを作成する
// ローカルへの副作用はない。座席はこの時点では予約されず、
// 確定時の再検証が唯一の入場ゲートになる。
// プロバイダ呼び出しはローカル検証がすべて通った後にだけ行う
func (s *TicketService) CreatePaymentIntent(ctx context.Context, input CreatePaymentIntentInput) (*CreatePaymentIntentOutput, error) {
	if err := validateSeatSelection(input.SeatIDs); err != nil {
		metrics.Get().PaymentIntentsTotal.WithLabelValues("bad_request").Inc()
		return nil, err
	}

	ev, err := s.eventRepo.GetByID(ctx, input.EventID)
	if err != nil {
		metrics.Get().PaymentIntentsTotal.WithLabelValues(intentFailureLabel(err)).Inc()
		return nil, err
	}

	if _, err := s.fetchAvailableSeats(ctx, input.EventID, input.SeatIDs); err != nil {
		metrics.Get().PaymentIntentsTotal.WithLabelValues(intentFailureLabel(err)).Inc()
		return nil, err
	}

	amount := ev.TotalAmountFor(len(input.SeatIDs))
	// プロバイダには最小通貨単位（セント）で渡す
	amountMinorUnits := amount.Shift(2).Round(0).IntPart()

	md := payment.PurchaseMetadata{
		UserID:  input.UserID,
		EventID: input.EventID,
		SeatIDs: input.SeatIDs,
	}
	intent, err := s.gateway.CreateIntent(ctx, amountMinorUnits, s.currency, md.Encode())
	if err != nil {
		metrics.Get().PaymentIntentsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("決済インテント作成に失敗しました: %w", err)
	}

	logger.Info("決済インテント作成",
		zap.String("payment_intent_id", intent.ID),
		zap.String("event_id", input.EventID),
		zap.Int("seat_count", len(input.SeatIDs)),
		zap.Int64("amount_minor_units", amountMinorUnits),
	)
	metrics.Get().PaymentIntentsTotal.WithLabelValues("created").Inc()

	return &CreatePaymentIntentOutput{
		ClientSecret:    intent.ClientSecret,
		PaymentIntentID: intent.ID,
		Amount:          amount,
	}, nil
}

// ConfirmPayment は決済完了を確認してチケットを発行する
// プロバイダは信頼しないため、メタデータから購入意図を復元した上で
// 座席の空き・イベント整合を再検証する。占有フリップとチケット挿入は
// 単一トランザクションで all-or-nothing。先にコミットした購入が勝ち、
// 負けた側は ErrSeatOccupied で全ロールバックされる
func (s *TicketService) ConfirmPayment(ctx context.Context, userID, paymentIntentID string) ([]*ticket.Detail, error) {
	intent, err := s.gateway.RetrieveIntent(ctx, paymentIntentID)
	if err != nil {
		metrics.Get().TicketsIssuedTotal.WithLabelValues(issueFailureLabel(err)).Inc()
		return nil, err
	}
	if !intent.Succeeded() {
		metrics.Get().TicketsIssuedTotal.WithLabelValues("bad_request").Inc()
		return nil, payment.ErrPaymentNotSucceeded
	}

	md, err := payment.DecodeMetadata(intent.Metadata)
	if err != nil {
		metrics.Get().TicketsIssuedTotal.WithLabelValues("bad_request").Inc()
		return nil, err
	}

	ev, err := s.eventRepo.GetByID(ctx, md.EventID)
	if err != nil {
		metrics.Get().TicketsIssuedTotal.WithLabelValues(issueFailureLabel(err)).Inc()
		return nil, err
	}

	// 2つ目のチェックポイント。インテント作成からの未ロック期間を閉じる
	seats, err := s.fetchAvailableSeats(ctx, md.EventID, md.SeatIDs)
	if err != nil {
		metrics.Get().TicketsIssuedTotal.WithLabelValues(issueFailureLabel(err)).Inc()
		return nil, err
	}

	tickets := make([]*ticket.Ticket, 0, len(md.SeatIDs))
	for _, seatID := range md.SeatIDs {
		t := ticket.NewTicket(userID, md.EventID, seatID, intent.ID)
		if err := t.Validate(); err != nil {
			metrics.Get().TicketsIssuedTotal.WithLabelValues("bad_request").Inc()
			return nil, err
		}
		tickets = append(tickets, t)
	}

	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		metrics.Get().TicketsIssuedTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("トランザクション開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	if err := s.seatRepo.OccupySeats(ctx, tx, md.SeatIDs); err != nil {
		metrics.Get().TicketsIssuedTotal.WithLabelValues(issueFailureLabel(err)).Inc()
		return nil, err
	}
	if err := s.ticketRepo.CreateBulk(ctx, tx, tickets); err != nil {
		metrics.Get().TicketsIssuedTotal.WithLabelValues(issueFailureLabel(err)).Inc()
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		metrics.Get().TicketsIssuedTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("コミットに失敗しました: %w", err)
	}

	// コミット後にのみキャッシュを触る
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, md.EventID); err != nil {
			logger.Warn("キャッシュ無効化エラー", zap.Error(err))
		}
	}

	logger.Info("チケット発行",
		zap.String("payment_intent_id", intent.ID),
		zap.String("user_id", userID),
		zap.String("event_id", md.EventID),
		zap.Int("ticket_count", len(tickets)),
	)
	metrics.Get().TicketsIssuedTotal.WithLabelValues("issued").Inc()

	seatByID := make(map[string]*seat.Seat, len(seats))
	for _, se := range seats {
		se.Occupied = true
		seatByID[se.ID] = se
	}
	details := make([]*ticket.Detail, len(tickets))
	for i, t := range tickets {
		details[i] = &ticket.Detail{Ticket: t, Event: ev, Seat: seatByID[t.SeatID]}
	}
	return details, nil
}

// VerifyResult はチケット検証の結果
// 使用済み・キャンセル済みはエラーではなく valid=false の構造化結果で返す
type VerifyResult struct {
	Valid   bool
	Message string
	Ticket  *ticket.Detail
}

// VerifyTicket はスキャン用コードを検証し、有効なら使用済みに消し込む
// 消込は条件付きUPDATEで高々1回。2回目以降のスキャンは常に valid=false
func (s *TicketService) VerifyTicket(ctx context.Context, code string) (*VerifyResult, error) {
	detail, err := s.ticketRepo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ticket.ErrTicketNotFound) {
			metrics.Get().TicketVerificationsTotal.WithLabelValues("not_found").Inc()
		}
		return nil, err
	}

	switch detail.Ticket.Status {
	case ticket.StatusUsed:
		metrics.Get().TicketVerificationsTotal.WithLabelValues("already_used").Inc()
		return &VerifyResult{Valid: false, Message: "このチケットは既に使用されています", Ticket: detail}, nil
	case ticket.StatusCancelled:
		metrics.Get().TicketVerificationsTotal.WithLabelValues("cancelled").Inc()
		return &VerifyResult{Valid: false, Message: "このチケットはキャンセルされています", Ticket: detail}, nil
	case ticket.StatusPending:
		metrics.Get().TicketVerificationsTotal.WithLabelValues("not_paid").Inc()
		return &VerifyResult{Valid: false, Message: "このチケットは未決済です", Ticket: detail}, nil
	}

	if err := s.ticketRepo.MarkUsed(ctx, detail.Ticket.ID); err != nil {
		if errors.Is(err, ticket.ErrAlreadyUsed) {
			// 同時スキャンで先を越された場合
			metrics.Get().TicketVerificationsTotal.WithLabelValues("already_used").Inc()
			return &VerifyResult{Valid: false, Message: "このチケットは既に使用されています", Ticket: detail}, nil
		}
		return nil, err
	}

	detail.Ticket.Status = ticket.StatusUsed
	logger.Info("チケット消込", zap.String("ticket_id", detail.Ticket.ID))
	metrics.Get().TicketVerificationsTotal.WithLabelValues("valid").Inc()
	return &VerifyResult{Valid: true, Message: "チケットは有効です", Ticket: detail}, nil
}

// GetUserTickets はユーザーのチケット一覧を購入日時の降順で返す
func (s *TicketService) GetUserTickets(ctx context.Context, userID string) ([]*ticket.Detail, error) {
	return s.ticketRepo.GetByUserID(ctx, userID)
}

// GetTicket はチケットを取得する。所有者以外の参照は拒否する
func (s *TicketService) GetTicket(ctx context.Context, id, userID string) (*ticket.Detail, error) {
	detail, err := s.ticketRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if detail.Ticket.UserID != userID {
		return nil, ticket.ErrNotTicketOwner
	}
	return detail, nil
}

// ListTickets は全チケットを返す（管理者用）
func (s *TicketService) ListTickets(ctx context.Context) ([]*ticket.Detail, error) {
	return s.ticketRepo.List(ctx)
}

// validateSeatSelection は座席選択の前提条件（非空・重複なし）を検証する
func validateSeatSelection(seatIDs []string) error {
	if len(seatIDs) == 0 {
		return ticket.ErrSeatIDsRequired
	}
	seen := make(map[string]bool, len(seatIDs))
	for _, id := range seatIDs {
		if id == "" {
			return ticket.ErrSeatIDsRequired
		}
		if seen[id] {
			return ticket.ErrDuplicateSeatIDs
		}
		seen[id] = true
	}
	return nil
}

// fetchAvailableSeats は座席集合を取得して存在・空き・イベント整合を検証する
// インテント作成時と確定時の両チェックポイントで共通
func (s *TicketService) fetchAvailableSeats(ctx context.Context, eventID string, seatIDs []string) ([]*seat.Seat, error) {
	seats, err := s.seatRepo.GetByIDs(ctx, seatIDs)
	if err != nil {
		return nil, fmt.Errorf("座席取得に失敗しました: %w", err)
	}
	if len(seats) != len(seatIDs) {
		return nil, seat.ErrSeatNotFound
	}
	for _, se := range seats {
		if se.Occupied {
			return nil, seat.ErrSeatOccupied
		}
	}
	for _, se := range seats {
		if se.EventID != eventID {
			return nil, seat.ErrSeatWrongEvent
		}
	}
	return seats, nil
}

func intentFailureLabel(err error) string {
	switch {
	case errors.Is(err, seat.ErrSeatOccupied):
		return "conflict"
	case errors.Is(err, event.ErrEventNotFound), errors.Is(err, seat.ErrSeatNotFound):
		return "not_found"
	case errors.Is(err, seat.ErrSeatWrongEvent):
		return "bad_request"
	default:
		return "error"
	}
}

func issueFailureLabel(err error) string {
	switch {
	case errors.Is(err, seat.ErrSeatOccupied):
		return "conflict"
	case errors.Is(err, event.ErrEventNotFound), errors.Is(err, seat.ErrSeatNotFound),
		errors.Is(err, payment.ErrIntentNotFound):
		return "not_found"
	case errors.Is(err, payment.ErrPaymentNotSucceeded), errors.Is(err, payment.ErrInvalidMetadata):
		return "bad_request"
	default:
		return "error"
	}
}
