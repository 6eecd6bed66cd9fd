package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kevinseya/app-ticketera-backend/internal/application"
	"github.com/kevinseya/app-ticketera-backend/internal/domain/event"
)

// MockEventService はEventServiceInterfaceのモック
type MockEventService struct {
	mock.Mock
}

func (m *MockEventService) CreateEvent(ctx context.Context, input application.CreateEventInput) (*event.Event, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*event.Event), args.Error(1)
}

func (m *MockEventService) GetEvent(ctx context.Context, id string) (*event.Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*event.Event), args.Error(1)
}

func (m *MockEventService) ListEvents(ctx context.Context, limit, offset int) ([]*event.Event, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*event.Event), args.Error(1)
}

func (m *MockEventService) UpdateEvent(ctx context.Context, input application.UpdateEventInput) (*event.Event, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*event.Event), args.Error(1)
}

func (m *MockEventService) DeleteEvent(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func sampleEvent() *event.Event {
	return &event.Event{
		ID:          "event-1",
		Name:        "Concert",
		Venue:       "Hall",
		Date:        time.Now().Add(24 * time.Hour),
		TicketPrice: decimal.NewFromFloat(15.00),
		TotalSeats:  100,
	}
}

func TestEventHandler_Create(t *testing.T) {
	e := NewTestEcho()

	t.Run("正常にイベントを作成できる", func(t *testing.T) {
		mockService := new(MockEventService)
		mockService.On("CreateEvent", mock.Anything, mock.AnythingOfType("application.CreateEventInput")).
			Return(sampleEvent(), nil)
		handler := NewEventHandler(mockService)

		reqBody := `{
			"name": "Concert",
			"venue": "Hall",
			"date": "2026-12-01T19:00:00Z",
			"ticket_price": "15.00",
			"total_seats": 100
		}`
		req := httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(reqBody))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := handler.Create(c)

		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, rec.Code)

		var resp EventResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "event-1", resp.ID)
		assert.Equal(t, 100, resp.TotalSeats)
		mockService.AssertExpectations(t)
	})

	t.Run("座席数ゼロは400", func(t *testing.T) {
		mockService := new(MockEventService)
		handler := NewEventHandler(mockService)

		reqBody := `{"name": "Concert", "venue": "Hall", "date": "2026-12-01T19:00:00Z", "total_seats": 0}`
		req := httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(reqBody))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := handler.Create(c)

		var he *echo.HTTPError
		require.ErrorAs(t, err, &he)
		assert.Equal(t, http.StatusBadRequest, he.Code)
		mockService.AssertNotCalled(t, "CreateEvent")
	})
}

func TestEventHandler_GetByID(t *testing.T) {
	e := NewTestEcho()

	t.Run("イベントを取得できる", func(t *testing.T) {
		mockService := new(MockEventService)
		mockService.On("GetEvent", mock.Anything, "event-1").Return(sampleEvent(), nil)
		handler := NewEventHandler(mockService)

		req := httptest.NewRequest(http.MethodGet, "/events/event-1", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues("event-1")

		err := handler.GetByID(c)

		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("存在しないイベントは404", func(t *testing.T) {
		mockService := new(MockEventService)
		mockService.On("GetEvent", mock.Anything, "nonexistent").Return(nil, event.ErrEventNotFound)
		handler := NewEventHandler(mockService)

		req := httptest.NewRequest(http.MethodGet, "/events/nonexistent", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues("nonexistent")

		err := handler.GetByID(c)

		var he *echo.HTTPError
		require.ErrorAs(t, err, &he)
		assert.Equal(t, http.StatusNotFound, he.Code)
	})
}

func TestEventHandler_List(t *testing.T) {
	e := NewTestEcho()

	mockService := new(MockEventService)
	mockService.On("ListEvents", mock.Anything, 10, 5).
		Return([]*event.Event{sampleEvent()}, nil)
	handler := NewEventHandler(mockService)

	req := httptest.NewRequest(http.MethodGet, "/events?limit=10&offset=5", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := handler.List(c)

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp []EventResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp, 1)
	mockService.AssertExpectations(t)
}

func TestEventHandler_Update(t *testing.T) {
	e := NewTestEcho()

	mockService := new(MockEventService)
	updated := sampleEvent()
	updated.Name = "Renamed"
	mockService.On("UpdateEvent", mock.Anything, mock.AnythingOfType("application.UpdateEventInput")).
		Return(updated, nil)
	handler := NewEventHandler(mockService)

	reqBody := `{"name": "Renamed", "venue": "Hall", "date": "2026-12-01T19:00:00Z", "ticket_price": "20.00"}`
	req := httptest.NewRequest(http.MethodPut, "/events/event-1", strings.NewReader(reqBody))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("event-1")

	err := handler.Update(c)

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp EventResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Renamed", resp.Name)
}

func TestEventHandler_Delete(t *testing.T) {
	e := NewTestEcho()

	t.Run("イベントを削除できる", func(t *testing.T) {
		mockService := new(MockEventService)
		mockService.On("DeleteEvent", mock.Anything, "event-1").Return(nil)
		handler := NewEventHandler(mockService)

		req := httptest.NewRequest(http.MethodDelete, "/events/event-1", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues("event-1")

		err := handler.Delete(c)

		require.NoError(t, err)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("存在しないイベントは404", func(t *testing.T) {
		mockService := new(MockEventService)
		mockService.On("DeleteEvent", mock.Anything, "nonexistent").Return(event.ErrEventNotFound)
		handler := NewEventHandler(mockService)

		req := httptest.NewRequest(http.MethodDelete, "/events/nonexistent", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues("nonexistent")

		err := handler.Delete(c)

		var he *echo.HTTPError
		require.ErrorAs(t, err, &he)
		assert.Equal(t, http.StatusNotFound, he.Code)
	})
}
