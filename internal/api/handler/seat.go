package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kevinseya/app-ticketera-backend/internal/domain/seat"
)

type SeatHandler struct {
	service SeatServiceInterface
}

func NewSeatHandler(s SeatServiceInterface) *SeatHandler {
	return &SeatHandler{service: s}
}

type SeatResponse struct {
	ID       string `json:"id"`
	EventID  string `json:"event_id"`
	Row      int    `json:"row"`
	Column   int    `json:"column"`
	Occupied bool   `json:"occupied"`
}

type SeatCountResponse struct {
	EventID        string `json:"event_id"`
	AvailableSeats int    `json:"available_seats"`
}

func toSeatResponse(s *seat.Seat) SeatResponse {
	return SeatResponse{
		ID: s.ID, EventID: s.EventID,
		Row: s.Row, Column: s.Column, Occupied: s.Occupied,
	}
}

// GetByEvent godoc
// @Summary イベントの座席一覧を取得
// @Description 塞ぎ席を含むグリッド全体を行・列順で取得します
// @Tags seats
// @Produce json
// @Param id path string true "イベントID"
// @Success 200 {array} SeatResponse
// @Router /events/{id}/seats [get]
func (h *SeatHandler) GetByEvent(c echo.Context) error {
	seats, err := h.service.GetSeatsByEvent(c.Request().Context(), c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	resp := make([]SeatResponse, len(seats))
	for i, s := range seats {
		resp[i] = toSeatResponse(s)
	}
	return c.JSON(http.StatusOK, resp)
}

// GetAvailableByEvent godoc
// @Summary イベントの購入可能座席を取得
// @Description 未占有の座席だけを取得します
// @Tags seats
// @Produce json
// @Param id path string true "イベントID"
// @Success 200 {array} SeatResponse
// @Router /events/{id}/seats/available [get]
func (h *SeatHandler) GetAvailableByEvent(c echo.Context) error {
	seats, err := h.service.GetAvailableSeatsByEvent(c.Request().Context(), c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	resp := make([]SeatResponse, len(seats))
	for i, s := range seats {
		resp[i] = toSeatResponse(s)
	}
	return c.JSON(http.StatusOK, resp)
}

// CountAvailable godoc
// @Summary イベントの空席数を取得
// @Description キャッシュ付きで空席数を取得します
// @Tags seats
// @Produce json
// @Param id path string true "イベントID"
// @Success 200 {object} SeatCountResponse
// @Router /events/{id}/seats/count [get]
func (h *SeatHandler) CountAvailable(c echo.Context) error {
	eventID := c.Param("id")
	count, err := h.service.CountAvailableSeats(c.Request().Context(), eventID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, SeatCountResponse{
		EventID:        eventID,
		AvailableSeats: count,
	})
}
