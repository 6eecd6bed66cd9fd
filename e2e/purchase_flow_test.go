package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kevinseya/app-ticketera-backend/internal/api"
	"github.com/kevinseya/app-ticketera-backend/internal/api/handler"
	custommiddleware "github.com/kevinseya/app-ticketera-backend/internal/api/middleware"
	"github.com/kevinseya/app-ticketera-backend/internal/application"
	"github.com/kevinseya/app-ticketera-backend/internal/config"
	"github.com/kevinseya/app-ticketera-backend/internal/infrastructure/postgres"
	redisinfra "github.com/kevinseya/app-ticketera-backend/internal/infrastructure/redis"
	"github.com/kevinseya/app-ticketera-backend/internal/infrastructure/stripe"
)

// fakeStripe は決済プロバイダのインメモリ版
// インテントの作成・取得を受け、テストから succeed() で決済完了にできる
type fakeStripe struct {
	mu      sync.Mutex
	seq     int
	intents map[string]map[string]interface{}
	server  *httptest.Server
}

func newFakeStripe() *fakeStripe {
	f := &fakeStripe{intents: make(map[string]map[string]interface{})}
	f.server = httptest.NewServer(http.HandlerFunc(f.handle))
	return f
}

func (f *fakeStripe) handle(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/v1/payment_intents":
		r.ParseForm()
		metadata := make(map[string]string)
		for k, v := range r.PostForm {
			if strings.HasPrefix(k, "metadata[") && strings.HasSuffix(k, "]") {
				metadata[k[len("metadata["):len(k)-1]] = v[0]
			}
		}
		f.seq++
		id := fmt.Sprintf("pi_test_%d", f.seq)
		intent := map[string]interface{}{
			"id":            id,
			"client_secret": id + "_secret",
			"status":        "requires_payment_method",
			"amount":        r.PostForm.Get("amount"),
			"currency":      r.PostForm.Get("currency"),
			"metadata":      metadata,
		}
		f.intents[id] = intent
		writeIntent(w, intent)

	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/v1/payment_intents/"):
		id := strings.TrimPrefix(r.URL.Path, "/v1/payment_intents/")
		intent, ok := f.intents[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"error": map[string]string{"type": "invalid_request_error", "message": "No such payment_intent"},
			})
			return
		}
		writeIntent(w, intent)

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func writeIntent(w http.ResponseWriter, intent map[string]interface{}) {
	out := make(map[string]interface{}, len(intent))
	for k, v := range intent {
		out[k] = v
	}
	// amountはフォーム文字列で保持しているのでJSONでは数値に直す
	if s, ok := out["amount"].(string); ok {
		var n int64
		fmt.Sscanf(s, "%d", &n)
		out["amount"] = n
	}
	json.NewEncoder(w).Encode(out)
}

// succeed は指定インテントを決済完了状態にする
func (f *fakeStripe) succeed(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if intent, ok := f.intents[id]; ok {
		intent["status"] = "succeeded"
	}
}

// TestServer はE2Eテスト用のサーバー
type TestServer struct {
	Echo    *echo.Echo
	Stripe  *fakeStripe
	Cleanup func()
}

// NewTestServer はテスト用サーバーを作成
// DBが起動していない環境ではテストをスキップする
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()
	cfg := config.Load()

	db, err := postgres.NewConnection(&cfg.Database)
	if err != nil {
		t.Skipf("DB接続エラー: %v", err)
	}
	if err := postgres.RunMigrations(db.DB, "../migrations"); err != nil {
		db.Close()
		t.Skipf("マイグレーションエラー: %v", err)
	}

	// Redisは任意。落ちていればキャッシュなしで動かす
	var seatCache redisinfra.SeatCacheInterface
	redisClient := redisinfra.NewClient(&cfg.Redis)
	if err := redisinfra.Ping(context.Background(), redisClient); err == nil {
		seatCache = redisinfra.NewSeatCache(redisClient)
	}

	fake := newFakeStripe()
	gateway := stripe.NewClient(&config.StripeConfig{
		SecretKey: "sk_test_e2e",
		Currency:  "usd",
		BaseURL:   fake.server.URL,
	})

	txManager := postgres.NewTxManager(db)
	eventRepo := postgres.NewEventRepository(db)
	seatRepo := postgres.NewSeatRepository(db)
	ticketRepo := postgres.NewTicketRepository(db)

	eventService := application.NewEventService(txManager, eventRepo, seatRepo)
	seatService := application.NewSeatService(seatRepo, seatCache)
	ticketService := application.NewTicketService(
		txManager, ticketRepo, seatRepo, eventRepo, gateway, seatCache, "usd")

	eventHandler := handler.NewEventHandler(eventService)
	seatHandler := handler.NewSeatHandler(seatService)
	ticketHandler := handler.NewTicketHandler(ticketService)
	healthHandler := handler.NewHealthHandler()

	e := echo.New()
	e.Validator = api.NewValidator()
	e.HTTPErrorHandler = api.CustomHTTPErrorHandler
	custommiddleware.SetupMiddleware(e)

	e.GET("/health", healthHandler.Check)

	v1 := e.Group("/api/v1")
	v1.POST("/events", eventHandler.Create, custommiddleware.AdminOnly())
	v1.GET("/events", eventHandler.List)
	v1.GET("/events/:id", eventHandler.GetByID)
	v1.GET("/events/:id/seats", seatHandler.GetByEvent)
	v1.GET("/events/:id/seats/available", seatHandler.GetAvailableByEvent)
	v1.GET("/events/:id/seats/count", seatHandler.CountAvailable)

	v1.POST("/tickets/payment-intent", ticketHandler.CreatePaymentIntent)
	v1.POST("/tickets/confirm", ticketHandler.ConfirmPayment)
	v1.POST("/tickets/verify", ticketHandler.Verify, custommiddleware.AdminOnly())
	v1.GET("/tickets/my", ticketHandler.GetMyTickets)
	v1.GET("/tickets/:id", ticketHandler.GetByID)

	cleanup := func() {
		db.Exec("DELETE FROM tickets")
		db.Exec("DELETE FROM seats")
		db.Exec("DELETE FROM events")
		fake.server.Close()
		redisClient.Close()
		db.Close()
	}

	return &TestServer{Echo: e, Stripe: fake, Cleanup: cleanup}
}

// Request はHTTPリクエストを実行
func (s *TestServer) Request(method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var reqBody []byte
	if body != nil {
		reqBody, _ = json.Marshal(body)
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	s.Echo.ServeHTTP(rec, req)
	return rec
}

var adminHeaders = map[string]string{"X-User-Role": "admin"}

func userHeaders(userID string) map[string]string {
	return map[string]string{"X-User-ID": userID}
}

// createTestEvent はイベントを作成してIDと空席ID一覧を返す
func createTestEvent(t *testing.T, server *TestServer, totalSeats int) (string, []string) {
	t.Helper()

	rec := server.Request("POST", "/api/v1/events", map[string]interface{}{
		"name":         "E2E Concert",
		"venue":        "E2E Hall",
		"date":         "2027-01-15T19:00:00Z",
		"ticket_price": "15.00",
		"total_seats":  totalSeats,
	}, adminHeaders)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var event map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &event))
	eventID := event["id"].(string)

	rec = server.Request("GET", "/api/v1/events/"+eventID+"/seats/available", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var seats []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &seats))
	seatIDs := make([]string, len(seats))
	for i, s := range seats {
		seatIDs[i] = s["id"].(string)
	}
	return eventID, seatIDs
}

func TestE2E_HealthCheck(t *testing.T) {
	server := NewTestServer(t)
	defer server.Cleanup()

	rec := server.Request("GET", "/health", nil, nil)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
}

// 購入から入場までの完全なジャーニー
func TestE2E_CompletePurchaseJourney(t *testing.T) {
	server := NewTestServer(t)
	defer server.Cleanup()

	// 7席 → 3×3グリッド、空席は7
	eventID, seatIDs := createTestEvent(t, server, 7)
	require.Len(t, seatIDs, 7)

	// グリッド全体は9セル（2セルは塞ぎ席）
	rec := server.Request("GET", "/api/v1/events/"+eventID+"/seats", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var allSeats []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &allSeats))
	assert.Len(t, allSeats, 9)

	// インテント作成
	rec = server.Request("POST", "/api/v1/tickets/payment-intent", map[string]interface{}{
		"event_id": eventID,
		"seat_ids": seatIDs[:2],
	}, userHeaders("user-e2e"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var intentResp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &intentResp))
	intentID := intentResp["payment_intent_id"].(string)
	assert.NotEmpty(t, intentResp["client_secret"])

	// この時点では座席は占有されていない
	rec = server.Request("GET", "/api/v1/events/"+eventID+"/seats/count", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var countResp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &countResp))
	assert.Equal(t, float64(7), countResp["available_seats"])

	// 決済完了 → 確定
	server.Stripe.succeed(intentID)
	rec = server.Request("POST", "/api/v1/tickets/confirm", map[string]interface{}{
		"payment_intent_id": intentID,
	}, userHeaders("user-e2e"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var tickets []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tickets))
	require.Len(t, tickets, 2)
	assert.Equal(t, "paid", tickets[0]["status"])
	code := tickets[0]["code"].(string)
	assert.True(t, strings.HasPrefix(code, "TCK-"))

	// マイチケット
	rec = server.Request("GET", "/api/v1/tickets/my", nil, userHeaders("user-e2e"))
	require.Equal(t, http.StatusOK, rec.Code)
	var mine []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &mine))
	assert.Len(t, mine, 2)

	// 入場検証: 1回目は有効
	rec = server.Request("POST", "/api/v1/tickets/verify", map[string]interface{}{"qr_code": code}, adminHeaders)
	require.Equal(t, http.StatusOK, rec.Code)
	var verify map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &verify))
	assert.Equal(t, true, verify["valid"])

	// 2回目は無効
	rec = server.Request("POST", "/api/v1/tickets/verify", map[string]interface{}{"qr_code": code}, adminHeaders)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &verify))
	assert.Equal(t, false, verify["valid"])
}

// 保留なし設計: 同じ座席に2つのインテントを作成でき、先に確定した方が勝つ
func TestE2E_PurchaseConflict(t *testing.T) {
	server := NewTestServer(t)
	defer server.Cleanup()

	eventID, seatIDs := createTestEvent(t, server, 4)
	target := seatIDs[0]

	createIntent := func(userID string) string {
		rec := server.Request("POST", "/api/v1/tickets/payment-intent", map[string]interface{}{
			"event_id": eventID,
			"seat_ids": []string{target},
		}, userHeaders(userID))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var resp map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		return resp["payment_intent_id"].(string)
	}

	// 両ユーザーとも同じ座席でインテント作成に成功する
	intentA := createIntent("user-a")
	intentB := createIntent("user-b")
	server.Stripe.succeed(intentA)
	server.Stripe.succeed(intentB)

	// 先に確定した方が勝つ
	rec := server.Request("POST", "/api/v1/tickets/confirm", map[string]interface{}{
		"payment_intent_id": intentA,
	}, userHeaders("user-a"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// 負けた方は409で、チケットは発行されない
	rec = server.Request("POST", "/api/v1/tickets/confirm", map[string]interface{}{
		"payment_intent_id": intentB,
	}, userHeaders("user-b"))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = server.Request("GET", "/api/v1/tickets/my", nil, userHeaders("user-b"))
	require.Equal(t, http.StatusOK, rec.Code)
	var tickets []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tickets))
	assert.Empty(t, tickets)
}

// 決済が完了していないインテントでは確定できない
func TestE2E_ConfirmWithoutPayment(t *testing.T) {
	server := NewTestServer(t)
	defer server.Cleanup()

	eventID, seatIDs := createTestEvent(t, server, 4)

	rec := server.Request("POST", "/api/v1/tickets/payment-intent", map[string]interface{}{
		"event_id": eventID,
		"seat_ids": []string{seatIDs[0]},
	}, userHeaders("user-x"))
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	// succeedしないまま確定を試みる
	rec = server.Request("POST", "/api/v1/tickets/confirm", map[string]interface{}{
		"payment_intent_id": resp["payment_intent_id"],
	}, userHeaders("user-x"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// 座席は占有されていない
	rec = server.Request("GET", "/api/v1/events/"+eventID+"/seats/count", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var countResp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &countResp))
	assert.Equal(t, float64(4), countResp["available_seats"])
}
