package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/kevinseya/app-ticketera-backend/internal/application"
	"github.com/kevinseya/app-ticketera-backend/internal/domain/event"
	"github.com/kevinseya/app-ticketera-backend/internal/domain/payment"
	"github.com/kevinseya/app-ticketera-backend/internal/domain/seat"
	"github.com/kevinseya/app-ticketera-backend/internal/domain/ticket"
)

type TicketHandler struct {
	service TicketServiceInterface
}

func NewTicketHandler(s TicketServiceInterface) *TicketHandler {
	return &TicketHandler{service: s}
}

type CreatePaymentIntentRequest struct {
	EventID string   `json:"event_id" validate:"required" example:"550e8400-e29b-41d4-a716-446655440000"`
	SeatIDs []string `json:"seat_ids" validate:"required,min=1" example:"seat-1,seat-2"`
}

type CreatePaymentIntentResponse struct {
	ClientSecret    string          `json:"client_secret" example:"pi_123_secret_456"`
	PaymentIntentID string          `json:"payment_intent_id" example:"pi_123"`
	Amount          decimal.Decimal `json:"amount" example:"45.00"`
}

type ConfirmPaymentRequest struct {
	PaymentIntentID string `json:"payment_intent_id" validate:"required" example:"pi_123"`
}

type VerifyTicketRequest struct {
	QRCode string `json:"qr_code" validate:"required" example:"TCK-550e8400-e29b-41d4-a716-446655440000"`
}

type TicketEventResponse struct {
	ID    string    `json:"id"`
	Name  string    `json:"name"`
	Venue string    `json:"venue"`
	Date  time.Time `json:"date"`
}

type TicketSeatResponse struct {
	ID     string `json:"id"`
	Row    int    `json:"row"`
	Column int    `json:"column"`
}

type TicketResponse struct {
	ID          string              `json:"id"`
	Code        string              `json:"code"`
	Status      string              `json:"status" example:"paid"`
	UserID      string              `json:"user_id"`
	PaymentRef  string              `json:"payment_ref,omitempty"`
	PurchasedAt time.Time           `json:"purchased_at"`
	Event       TicketEventResponse `json:"event"`
	Seat        TicketSeatResponse  `json:"seat"`
}

type VerifyTicketResponse struct {
	Valid   bool            `json:"valid"`
	Message string          `json:"message"`
	Ticket  *TicketResponse `json:"ticket,omitempty"`
}

func toTicketResponse(d *ticket.Detail) TicketResponse {
	resp := TicketResponse{
		ID:          d.Ticket.ID,
		Code:        d.Ticket.Code,
		Status:      string(d.Ticket.Status),
		UserID:      d.Ticket.UserID,
		PaymentRef:  d.Ticket.PaymentRef,
		PurchasedAt: d.Ticket.PurchasedAt,
	}
	if d.Event != nil {
		resp.Event = TicketEventResponse{
			ID: d.Event.ID, Name: d.Event.Name, Venue: d.Event.Venue, Date: d.Event.Date,
		}
	}
	if d.Seat != nil {
		resp.Seat = TicketSeatResponse{ID: d.Seat.ID, Row: d.Seat.Row, Column: d.Seat.Column}
	}
	return resp
}

// ドメインエラーをHTTPステータスに対応付ける
func ticketHTTPError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, event.ErrEventNotFound),
		errors.Is(err, seat.ErrSeatNotFound),
		errors.Is(err, ticket.ErrTicketNotFound),
		errors.Is(err, payment.ErrIntentNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, seat.ErrSeatOccupied):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, seat.ErrSeatWrongEvent),
		errors.Is(err, ticket.ErrNotTicketOwner),
		errors.Is(err, ticket.ErrSeatIDsRequired),
		errors.Is(err, ticket.ErrDuplicateSeatIDs),
		errors.Is(err, payment.ErrPaymentNotSucceeded),
		errors.Is(err, payment.ErrInvalidMetadata):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

// CreatePaymentIntent godoc
// @Summary 決済インテントを作成
// @Description 座席選択を検証して決済インテントを作成します。座席はまだ予約されません
// @Tags tickets
// @Accept json
// @Produce json
// @Param X-User-ID header string true "ユーザーID"
// @Param request body CreatePaymentIntentRequest true "購入情報"
// @Success 201 {object} CreatePaymentIntentResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string "座席が既に購入済み"
// @Router /tickets/payment-intent [post]
func (h *TicketHandler) CreatePaymentIntent(c echo.Context) error {
	userID := c.Request().Header.Get("X-User-ID")
	if userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "ユーザーIDが必要です")
	}
	var req CreatePaymentIntentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	out, err := h.service.CreatePaymentIntent(c.Request().Context(), application.CreatePaymentIntentInput{
		UserID: userID, EventID: req.EventID, SeatIDs: req.SeatIDs,
	})
	if err != nil {
		return ticketHTTPError(err)
	}
	return c.JSON(http.StatusCreated, CreatePaymentIntentResponse{
		ClientSecret:    out.ClientSecret,
		PaymentIntentID: out.PaymentIntentID,
		Amount:          out.Amount,
	})
}

// ConfirmPayment godoc
// @Summary 決済を確定してチケットを発行
// @Description 決済完了を確認し、座席の占有とチケット発行を原子的に行います
// @Tags tickets
// @Accept json
// @Produce json
// @Param X-User-ID header string true "ユーザーID"
// @Param request body ConfirmPaymentRequest true "決済インテントID"
// @Success 201 {array} TicketResponse
// @Failure 400 {object} map[string]string "決済が未完了"
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string "座席が先に購入された"
// @Router /tickets/confirm [post]
func (h *TicketHandler) ConfirmPayment(c echo.Context) error {
	userID := c.Request().Header.Get("X-User-ID")
	if userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "ユーザーIDが必要です")
	}
	var req ConfirmPaymentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	details, err := h.service.ConfirmPayment(c.Request().Context(), userID, req.PaymentIntentID)
	if err != nil {
		return ticketHTTPError(err)
	}
	resp := make([]TicketResponse, len(details))
	for i, d := range details {
		resp[i] = toTicketResponse(d)
	}
	return c.JSON(http.StatusCreated, resp)
}

// Verify godoc
// @Summary チケットを検証
// @Description スキャン用コードを検証し、有効なチケットを使用済みに消し込みます（管理者用）
// @Tags tickets
// @Accept json
// @Produce json
// @Param X-User-Role header string true "ユーザーロール"
// @Param request body VerifyTicketRequest true "スキャン用コード"
// @Success 200 {object} VerifyTicketResponse
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /tickets/verify [post]
func (h *TicketHandler) Verify(c echo.Context) error {
	var req VerifyTicketRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	result, err := h.service.VerifyTicket(c.Request().Context(), req.QRCode)
	if err != nil {
		return ticketHTTPError(err)
	}
	resp := VerifyTicketResponse{Valid: result.Valid, Message: result.Message}
	if result.Ticket != nil {
		tr := toTicketResponse(result.Ticket)
		resp.Ticket = &tr
	}
	return c.JSON(http.StatusOK, resp)
}

// GetMyTickets godoc
// @Summary 自分のチケット一覧を取得
// @Description ログインユーザーのチケットを購入日時の降順で取得します
// @Tags tickets
// @Produce json
// @Param X-User-ID header string true "ユーザーID"
// @Success 200 {array} TicketResponse
// @Failure 401 {object} map[string]string
// @Router /tickets/my [get]
func (h *TicketHandler) GetMyTickets(c echo.Context) error {
	userID := c.Request().Header.Get("X-User-ID")
	if userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "ユーザーIDが必要です")
	}
	details, err := h.service.GetUserTickets(c.Request().Context(), userID)
	if err != nil {
		return ticketHTTPError(err)
	}
	resp := make([]TicketResponse, len(details))
	for i, d := range details {
		resp[i] = toTicketResponse(d)
	}
	return c.JSON(http.StatusOK, resp)
}

// GetByID godoc
// @Summary チケットを取得
// @Description 指定IDのチケットを取得します（所有者のみ）
// @Tags tickets
// @Produce json
// @Param X-User-ID header string true "ユーザーID"
// @Param id path string true "チケットID"
// @Success 200 {object} TicketResponse
// @Failure 400 {object} map[string]string "所有者以外のアクセス"
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /tickets/{id} [get]
func (h *TicketHandler) GetByID(c echo.Context) error {
	userID := c.Request().Header.Get("X-User-ID")
	if userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "ユーザーIDが必要です")
	}
	detail, err := h.service.GetTicket(c.Request().Context(), c.Param("id"), userID)
	if err != nil {
		return ticketHTTPError(err)
	}
	return c.JSON(http.StatusOK, toTicketResponse(detail))
}

// List godoc
// @Summary 全チケット一覧を取得
// @Description 全チケットを取得します（管理者用）
// @Tags tickets
// @Produce json
// @Param X-User-Role header string true "ユーザーロール"
// @Success 200 {array} TicketResponse
// @Failure 403 {object} map[string]string
// @Router /tickets [get]
func (h *TicketHandler) List(c echo.Context) error {
	details, err := h.service.ListTickets(c.Request().Context())
	if err != nil {
		return ticketHTTPError(err)
	}
	resp := make([]TicketResponse, len(details))
	for i, d := range details {
		resp[i] = toTicketResponse(d)
	}
	return c.JSON(http.StatusOK, resp)
}
