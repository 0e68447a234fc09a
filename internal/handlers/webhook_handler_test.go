package handlers

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha512"
	"database/sql"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elitetransport/booking-backend/internal/config"
	"github.com/elitetransport/booking-backend/internal/database"
	"github.com/elitetransport/booking-backend/internal/services"
)

const webhookSecret = "sk_test_abc"

// fakeGateway records sent messages instead of calling Arkesel
type fakeGateway struct {
	mu       sync.Mutex
	messages []string
}

func (g *fakeGateway) Send(phone, message string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.messages = append(g.messages, message)
	return nil
}

func (g *fakeGateway) GetName() string { return "fake" }

func (g *fakeGateway) sent() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.messages)
}

// webhookFixture wires the webhook handler over sqlmock
type webhookFixture struct {
	router  *gin.Engine
	mock    sqlmock.Sqlmock
	gateway *fakeGateway
}

func newWebhookFixture(t *testing.T) *webhookFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mockDB := &mockDatabase{db: sqlx.NewDb(db, "sqlmock")}
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	gateway := &fakeGateway{}

	busRepo := database.NewBusRepository(mockDB)
	routeRepo := database.NewRouteRepository(mockDB)
	passengerRepo := database.NewPassengerRepository(mockDB)
	bookingRepo := database.NewBookingRepository(mockDB)
	lockRepo := database.NewSeatLockRepository(mockDB)
	tripRepo := database.NewTripRepository(mockDB)
	receiptRepo := database.NewReceiptRepository(mockDB)

	trips := services.NewTripService(tripRepo, routeRepo, busRepo, bookingRepo, lockRepo, logger)
	paystack := services.NewPaystackService(&config.PaystackConfig{SecretKey: webhookSecret}, logger)
	notify := services.NewNotifyService(&config.ReceiptConfig{}, receiptRepo, gateway, logger)
	bookings := services.NewBookingService(
		busRepo, routeRepo, passengerRepo, bookingRepo, lockRepo,
		trips, paystack, notify, logger,
	)

	handler := NewWebhookHandler(paystack, bookings, logger)

	router := gin.New()
	router.POST("/api/paystack/webhook", handler.Receive)
	router.POST("/", handler.ReceiveFallback)

	return &webhookFixture{router: router, mock: mock, gateway: gateway}
}

func sign(body []byte) string {
	mac := hmac.New(sha512.New, []byte(webhookSecret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func (f *webhookFixture) post(path string, body []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	if signature != "" {
		req.Header.Set("X-Paystack-Signature", signature)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	f := newWebhookFixture(t)

	body := []byte(`{"event":"charge.success","data":{"reference":"R9"}}`)

	t.Run("Missing Signature", func(t *testing.T) {
		w := f.post("/api/paystack/webhook", body, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Wrong Signature", func(t *testing.T) {
		w := f.post("/api/paystack/webhook", body, "deadbeef")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Tampered Body", func(t *testing.T) {
		w := f.post("/api/paystack/webhook", append(body, ' '), sign(body))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	assert.Equal(t, 0, f.gateway.sent())
}

func TestWebhookUnknownReference(t *testing.T) {
	f := newWebhookFixture(t)

	body := []byte(`{"event":"charge.success","data":{"reference":"R404"}}`)

	f.mock.ExpectExec(`UPDATE bookings`).
		WithArgs("R404").
		WillReturnResult(sqlmock.NewResult(0, 0))
	f.mock.ExpectQuery(`SELECT (.+) FROM bookings`).
		WithArgs("R404").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "passenger_id", "bus_id", "trip_id", "seat_number",
			"price_paid", "status", "external_ref", "created_at",
		}))

	w := f.post("/api/paystack/webhook", body, sign(body))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"received":true`)
	assert.Equal(t, 0, f.gateway.sent())

	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestWebhookFallbackSendsEffectsOnce(t *testing.T) {
	f := newWebhookFixture(t)

	body := []byte(`{"event":"charge.success","data":{"reference":"R9","amount":5000,"status":"success"}}`)

	bookingRows := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{
			"id", "passenger_id", "bus_id", "trip_id", "seat_number",
			"price_paid", "status", "external_ref", "created_at",
		}).AddRow(21, 7, 1, nil, "5", 50.0, "confirmed", "R9", time.Now())
	}

	// First delivery: pending booking promoted, no receipt yet, SMS goes out
	f.mock.ExpectExec(`UPDATE bookings`).
		WithArgs("R9").
		WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectQuery(`SELECT (.+) FROM bookings`).
		WithArgs("R9").
		WillReturnRows(bookingRows())
	f.mock.ExpectQuery(`SELECT (.+) FROM booking_receipts`).
		WithArgs(int64(21)).
		WillReturnError(sql.ErrNoRows)
	f.mock.ExpectQuery(`SELECT (.+) FROM passengers`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "first_name", "last_name", "email", "phone",
			"nok_name", "nok_phone", "created_at",
		}).AddRow(7, "Kofi", "Mensah", "kofi@example.com", "0241234567", "", "", time.Now()))
	f.mock.ExpectQuery(`SELECT (.+) FROM buses`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "route_id", "name", "plate_number", "capacity",
			"available_seats", "price", "route_text",
		}).AddRow(1, nil, "Elite 1", "GX-1023-24", 50, 50, 50.0, "Accra - Tamale"))
	f.mock.ExpectQuery(`SELECT COALESCE`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow("Accra - Tamale"))

	w := f.post("/api/paystack/webhook", body, sign(body))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, f.gateway.sent())

	// Second delivery: the receipt row now exists, so no second SMS
	f.mock.ExpectExec(`UPDATE bookings`).
		WithArgs("R9").
		WillReturnResult(sqlmock.NewResult(0, 0))
	f.mock.ExpectQuery(`SELECT (.+) FROM bookings`).
		WithArgs("R9").
		WillReturnRows(bookingRows())
	f.mock.ExpectQuery(`SELECT (.+) FROM booking_receipts`).
		WithArgs(int64(21)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "booking_id", "receipt_url", "drive_file_id", "created_at",
		}).AddRow(1, 21, "https://docs.example.com/r/21", nil, time.Now()))

	w = f.post("/api/paystack/webhook", body, sign(body))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, f.gateway.sent())

	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestRootFallbackRouting(t *testing.T) {
	f := newWebhookFixture(t)

	t.Run("No Signature Header Is Not A Webhook", func(t *testing.T) {
		w := f.post("/", []byte(`{}`), "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Signed Payload Is Processed", func(t *testing.T) {
		body := []byte(`{"event":"charge.dispute","data":{}}`)
		w := f.post("/", body, sign(body))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"received":true`)
	})
}

// mockDatabase adapts sqlmock to the DB interface through sqlx so Get and
// Select work against mocked rows
type mockDatabase struct {
	db *sqlx.DB
}

func (m *mockDatabase) Get(dest interface{}, query string, args ...interface{}) error {
	return m.db.Get(dest, query, args...)
}

func (m *mockDatabase) Select(dest interface{}, query string, args ...interface{}) error {
	return m.db.Select(dest, query, args...)
}

func (m *mockDatabase) Exec(query string, args ...interface{}) (sql.Result, error) {
	return m.db.Exec(query, args...)
}

func (m *mockDatabase) QueryRow(query string, args ...interface{}) *sql.Row {
	return m.db.QueryRow(query, args...)
}

func (m *mockDatabase) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return m.db.Query(query, args...)
}

func (m *mockDatabase) Close() error {
	return m.db.Close()
}

func (m *mockDatabase) Ping() error {
	return m.db.Ping()
}
