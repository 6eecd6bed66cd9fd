package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/kevinseya/app-ticketera-backend/internal/application"
	"github.com/kevinseya/app-ticketera-backend/internal/domain/event"
)

type EventHandler struct {
	service EventServiceInterface
}

func NewEventHandler(s EventServiceInterface) *EventHandler {
	return &EventHandler{service: s}
}

type CreateEventRequest struct {
	Name        string          `json:"name" validate:"required" example:"Summer Festival"`
	Description string          `json:"description" example:"野外フェス"`
	Venue       string          `json:"venue" validate:"required" example:"Riverside Park"`
	ImageURL    string          `json:"image_url" example:"https://example.com/banner.png"`
	Date        time.Time       `json:"date" validate:"required"`
	TicketPrice decimal.Decimal `json:"ticket_price" example:"25.50"`
	TotalSeats  int             `json:"total_seats" validate:"required,min=1" example:"100"`
}

type UpdateEventRequest struct {
	Name        string          `json:"name" validate:"required"`
	Description string          `json:"description"`
	Venue       string          `json:"venue" validate:"required"`
	ImageURL    string          `json:"image_url"`
	Date        time.Time       `json:"date" validate:"required"`
	TicketPrice decimal.Decimal `json:"ticket_price"`
}

type EventResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Venue       string          `json:"venue"`
	ImageURL    string          `json:"image_url,omitempty"`
	Date        time.Time       `json:"date"`
	TicketPrice decimal.Decimal `json:"ticket_price"`
	TotalSeats  int             `json:"total_seats"`
	CreatedAt   time.Time       `json:"created_at"`
}

func toEventResponse(e *event.Event) EventResponse {
	return EventResponse{
		ID: e.ID, Name: e.Name, Description: e.Description,
		Venue: e.Venue, ImageURL: e.ImageURL, Date: e.Date,
		TicketPrice: e.TicketPrice, TotalSeats: e.TotalSeats,
		CreatedAt: e.CreatedAt,
	}
}

// Create godoc
// @Summary イベントを作成
// @Description イベントと座席グリッドを作成します（管理者用）
// @Tags events
// @Accept json
// @Produce json
// @Param X-User-Role header string true "ユーザーロール"
// @Param request body CreateEventRequest true "イベント情報"
// @Success 201 {object} EventResponse
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /events [post]
func (h *EventHandler) Create(c echo.Context) error {
	var req CreateEventRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	e, err := h.service.CreateEvent(c.Request().Context(), application.CreateEventInput{
		Name:        req.Name,
		Description: req.Description,
		Venue:       req.Venue,
		ImageURL:    req.ImageURL,
		Date:        req.Date,
		TicketPrice: req.TicketPrice,
		TotalSeats:  req.TotalSeats,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, toEventResponse(e))
}

// GetByID godoc
// @Summary イベントを取得
// @Description 指定IDのイベントを取得します
// @Tags events
// @Produce json
// @Param id path string true "イベントID"
// @Success 200 {object} EventResponse
// @Failure 404 {object} map[string]string
// @Router /events/{id} [get]
func (h *EventHandler) GetByID(c echo.Context) error {
	e, err := h.service.GetEvent(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, event.ErrEventNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, toEventResponse(e))
}

// List godoc
// @Summary イベント一覧を取得
// @Description イベント一覧をページネーション付きで取得します
// @Tags events
// @Produce json
// @Param limit query int false "取得件数" default(20)
// @Param offset query int false "オフセット" default(0)
// @Success 200 {array} EventResponse
// @Router /events [get]
func (h *EventHandler) List(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	events, err := h.service.ListEvents(c.Request().Context(), limit, offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	resp := make([]EventResponse, len(events))
	for i, e := range events {
		resp[i] = toEventResponse(e)
	}
	return c.JSON(http.StatusOK, resp)
}

// Update godoc
// @Summary イベントを更新
// @Description イベント情報を更新します。座席数は変更できません（管理者用）
// @Tags events
// @Accept json
// @Produce json
// @Param X-User-Role header string true "ユーザーロール"
// @Param id path string true "イベントID"
// @Param request body UpdateEventRequest true "イベント情報"
// @Success 200 {object} EventResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /events/{id} [put]
func (h *EventHandler) Update(c echo.Context) error {
	var req UpdateEventRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	e, err := h.service.UpdateEvent(c.Request().Context(), application.UpdateEventInput{
		ID:          c.Param("id"),
		Name:        req.Name,
		Description: req.Description,
		Venue:       req.Venue,
		ImageURL:    req.ImageURL,
		Date:        req.Date,
		TicketPrice: req.TicketPrice,
	})
	if err != nil {
		if errors.Is(err, event.ErrEventNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, toEventResponse(e))
}

// Delete godoc
// @Summary イベントを削除
// @Description イベントと座席を削除します（管理者用）
// @Tags events
// @Produce json
// @Param X-User-Role header string true "ユーザーロール"
// @Param id path string true "イベントID"
// @Success 204
// @Failure 404 {object} map[string]string
// @Router /events/{id} [delete]
func (h *EventHandler) Delete(c echo.Context) error {
	if err := h.service.DeleteEvent(c.Request().Context(), c.Param("id")); err != nil {
		if errors.Is(err, event.ErrEventNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
