package services

import (
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elitetransport/booking-backend/internal/config"
	"github.com/elitetransport/booking-backend/internal/database"
	"github.com/elitetransport/booking-backend/internal/models"
)

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

// bookingFixture wires a BookingService over sqlmock and a stub processor
type bookingFixture struct {
	svc      *BookingService
	mock     sqlmock.Sqlmock
	gateway  *fakeGateway
	paystack *httptest.Server
}

// newBookingFixture returns a fixture whose processor verify endpoint
// reports a successful charge of amountMinor
func newBookingFixture(t *testing.T, amountMinor int64) *bookingFixture {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mockDB := &mockDatabase{db: sqlx.NewDb(db, "sqlmock")}
	logger := newTestLogger()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":true,"data":{"status":"success","reference":"R1","amount":` +
			strconv.FormatInt(amountMinor, 10) + `}}`))
	}))
	t.Cleanup(server.Close)

	gateway := &fakeGateway{}

	busRepo := database.NewBusRepository(mockDB)
	routeRepo := database.NewRouteRepository(mockDB)
	passengerRepo := database.NewPassengerRepository(mockDB)
	bookingRepo := database.NewBookingRepository(mockDB)
	lockRepo := database.NewSeatLockRepository(mockDB)
	tripRepo := database.NewTripRepository(mockDB)
	receiptRepo := database.NewReceiptRepository(mockDB)

	trips := NewTripService(tripRepo, routeRepo, busRepo, bookingRepo, lockRepo, logger)
	paystack := NewPaystackService(&config.PaystackConfig{
		SecretKey: "sk_test_abc",
		BaseURL:   server.URL,
	}, logger)
	notify := NewNotifyService(&config.ReceiptConfig{}, receiptRepo, gateway, logger)

	svc := NewBookingService(
		busRepo, routeRepo, passengerRepo, bookingRepo, lockRepo,
		trips, paystack, notify, logger,
	)

	return &bookingFixture{svc: svc, mock: mock, gateway: gateway, paystack: server}
}

var busColumns = []string{
	"id", "route_id", "name", "plate_number", "capacity",
	"available_seats", "price", "route_text",
}

var bookingColumns = []string{
	"id", "passenger_id", "bus_id", "trip_id", "seat_number",
	"price_paid", "status", "external_ref", "created_at",
}

func (f *bookingFixture) expectBus() {
	f.mock.ExpectQuery(`SELECT (.+) FROM buses`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(busColumns).
			AddRow(1, nil, "Elite 1", "GX-1023-24", 50, 50, 50.0, "Accra - Tamale"))
}

func (f *bookingFixture) expectNoActiveTrip() {
	f.mock.ExpectQuery(`SELECT (.+) FROM trip_schedules`).
		WithArgs(int64(1)).
		WillReturnError(sql.ErrNoRows)
}

func confirmRequest() *models.ConfirmBookingRequest {
	return &models.ConfirmBookingRequest{
		FirstName:   "Kofi",
		LastName:    "Mensah",
		Email:       "kofi@example.com",
		Phone:       "0241234567",
		BusID:       1,
		Seats:       []string{"5"},
		Price:       50,
		UnitPrice:   50,
		LockID:      "session-a",
		PaystackRef: "R1",
	}
}

func TestConfirmHappyPath(t *testing.T) {
	f := newBookingFixture(t, 5000)

	f.expectBus()

	// No prior bookings for the reference
	f.mock.ExpectQuery(`SELECT (.+) FROM bookings`).
		WithArgs("R1").
		WillReturnRows(sqlmock.NewRows(bookingColumns))

	f.expectNoActiveTrip()

	// Lock ownership proof
	f.mock.ExpectQuery(`SELECT (.+) FROM seat_locks`).
		WithArgs(int64(1), nil, sqlmock.AnyArg(), "session-a", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "bus_id", "trip_id", "seat_number", "locked_by", "expires_at",
		}).AddRow(11, 1, nil, "5", "session-a", time.Now().Add(time.Minute)))

	f.mock.ExpectQuery(`INSERT INTO passengers`).
		WithArgs("Kofi", "Mensah", "kofi@example.com", "0241234567", nil, nil, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	f.mock.ExpectQuery(`INSERT INTO bookings`).
		WithArgs(int64(7), int64(1), nil, "5", 50.0, "R1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(21))

	// Consumed lock is deleted
	f.mock.ExpectExec(`DELETE FROM seat_locks`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	f.mock.ExpectQuery(`SELECT COALESCE`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow("Accra - Tamale"))

	conf, err := f.svc.Confirm(confirmRequest())
	require.NoError(t, err)

	assert.Equal(t, "ELITE-21", conf.BookingID)
	assert.Equal(t, []string{"ELITE-21"}, conf.BookingIDs)
	assert.Equal(t, []string{"5"}, conf.Seats)
	assert.Equal(t, 50.0, conf.Price)
	assert.Equal(t, "confirmed", conf.Status)
	assert.False(t, conf.Duplicate)
	assert.Equal(t, 1, f.gateway.sent())

	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestCanonicalSeats(t *testing.T) {
	// Repeats collapse onto their first occurrence, legacy spellings
	// included, and the caller's order is preserved
	seats, err := canonicalSeats([]string{"7", "3", "A7"}, 50)
	require.NoError(t, err)
	assert.Equal(t, []string{"7", "3"}, seats)

	_, err = canonicalSeats([]string{"99"}, 50)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInputInvalid))
}

func TestConfirmRepeatedSeatCollapses(t *testing.T) {
	f := newBookingFixture(t, 5000)

	f.expectBus()

	f.mock.ExpectQuery(`SELECT (.+) FROM bookings`).
		WithArgs("R1").
		WillReturnRows(sqlmock.NewRows(bookingColumns))

	f.expectNoActiveTrip()

	// The repeated seat behaves exactly like a single one: one lock
	// proof, one booking row
	f.mock.ExpectQuery(`SELECT (.+) FROM seat_locks`).
		WithArgs(int64(1), nil, sqlmock.AnyArg(), "session-a", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "bus_id", "trip_id", "seat_number", "locked_by", "expires_at",
		}).AddRow(11, 1, nil, "5", "session-a", time.Now().Add(time.Minute)))

	f.mock.ExpectQuery(`INSERT INTO passengers`).
		WithArgs("Kofi", "Mensah", "kofi@example.com", "0241234567", nil, nil, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	f.mock.ExpectQuery(`INSERT INTO bookings`).
		WithArgs(int64(7), int64(1), nil, "5", 50.0, "R1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(21))

	f.mock.ExpectExec(`DELETE FROM seat_locks`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	f.mock.ExpectQuery(`SELECT COALESCE`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow("Accra - Tamale"))

	req := confirmRequest()
	req.Seats = []string{"5", "5"}

	conf, err := f.svc.Confirm(req)
	require.NoError(t, err)

	assert.Equal(t, []string{"5"}, conf.Seats)
	assert.Equal(t, []string{"ELITE-21"}, conf.BookingIDs)
	assert.Equal(t, 1, conf.SeatCount)

	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestConfirmSynthesizedPriceSkipsAmountCheck(t *testing.T) {
	// Processor charged 12345 minor units; the caller sent no price, so
	// the bus-derived total is not held against the charge
	f := newBookingFixture(t, 12345)

	f.expectBus()

	f.mock.ExpectQuery(`SELECT (.+) FROM bookings`).
		WithArgs("R1").
		WillReturnRows(sqlmock.NewRows(bookingColumns))

	f.expectNoActiveTrip()

	f.mock.ExpectQuery(`SELECT (.+) FROM seat_locks`).
		WithArgs(int64(1), nil, sqlmock.AnyArg(), "session-a", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "bus_id", "trip_id", "seat_number", "locked_by", "expires_at",
		}).AddRow(11, 1, nil, "5", "session-a", time.Now().Add(time.Minute)))

	f.mock.ExpectQuery(`INSERT INTO passengers`).
		WithArgs("Kofi", "Mensah", "kofi@example.com", "0241234567", nil, nil, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	f.mock.ExpectQuery(`INSERT INTO bookings`).
		WithArgs(int64(7), int64(1), nil, "5", 50.0, "R1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(21))

	f.mock.ExpectExec(`DELETE FROM seat_locks`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	f.mock.ExpectQuery(`SELECT COALESCE`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow("Accra - Tamale"))

	req := confirmRequest()
	req.Price = 0
	req.UnitPrice = 0

	conf, err := f.svc.Confirm(req)
	require.NoError(t, err)
	assert.Equal(t, 50.0, conf.Price)

	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestConfirmIdempotentRetry(t *testing.T) {
	f := newBookingFixture(t, 5000)

	f.expectBus()

	// Reference already has a booking: replay, no writes, no SMS
	f.mock.ExpectQuery(`SELECT (.+) FROM bookings`).
		WithArgs("R1").
		WillReturnRows(sqlmock.NewRows(bookingColumns).
			AddRow(21, 7, 1, nil, "5", 50.0, "confirmed", "R1", time.Now()))

	f.mock.ExpectQuery(`SELECT (.+) FROM passengers`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "first_name", "last_name", "email", "phone",
			"nok_name", "nok_phone", "created_at",
		}).AddRow(7, "Kofi", "Mensah", "kofi@example.com", "0241234567", "", "", time.Now()))

	f.mock.ExpectQuery(`SELECT COALESCE`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow("Accra - Tamale"))

	conf, err := f.svc.Confirm(confirmRequest())
	require.NoError(t, err)

	assert.True(t, conf.Duplicate)
	assert.Equal(t, []string{"ELITE-21"}, conf.BookingIDs)
	assert.Equal(t, "Kofi Mensah", conf.PassengerName)
	assert.Equal(t, 0, f.gateway.sent())

	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestConfirmAmountMismatch(t *testing.T) {
	// Processor charged 4000 against an expected 5000
	f := newBookingFixture(t, 4000)

	f.expectBus()
	f.mock.ExpectQuery(`SELECT (.+) FROM bookings`).
		WithArgs("R1").
		WillReturnRows(sqlmock.NewRows(bookingColumns))
	f.expectNoActiveTrip()

	_, err := f.svc.Confirm(confirmRequest())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPaymentAmountMismatch))

	// No passenger or booking rows were written
	assert.NoError(t, f.mock.ExpectationsWereMet())
	assert.Equal(t, 0, f.gateway.sent())
}

func TestConfirmLockExpired(t *testing.T) {
	f := newBookingFixture(t, 5000)

	f.expectBus()
	f.mock.ExpectQuery(`SELECT (.+) FROM bookings`).
		WithArgs("R1").
		WillReturnRows(sqlmock.NewRows(bookingColumns))
	f.expectNoActiveTrip()

	// No owned lock survives for the seat
	f.mock.ExpectQuery(`SELECT (.+) FROM seat_locks`).
		WithArgs(int64(1), nil, sqlmock.AnyArg(), "session-a", sqlmock.AnyArg()).
		WillReturnError(sql.ErrNoRows)

	_, err := f.svc.Confirm(confirmRequest())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLockExpired))

	assert.NoError(t, f.mock.ExpectationsWereMet())
	assert.Equal(t, 0, f.gateway.sent())
}

func TestConfirmSeatConflictRollsBack(t *testing.T) {
	f := newBookingFixture(t, 5000)

	f.expectBus()
	f.mock.ExpectQuery(`SELECT (.+) FROM bookings`).
		WithArgs("R1").
		WillReturnRows(sqlmock.NewRows(bookingColumns))
	f.expectNoActiveTrip()

	f.mock.ExpectQuery(`SELECT (.+) FROM seat_locks`).
		WithArgs(int64(1), nil, sqlmock.AnyArg(), "session-a", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "bus_id", "trip_id", "seat_number", "locked_by", "expires_at",
		}).AddRow(11, 1, nil, "5", "session-a", time.Now().Add(time.Minute)))

	f.mock.ExpectQuery(`INSERT INTO passengers`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	// Conditional insert loses: a confirmed booking already covers seat 5
	f.mock.ExpectQuery(`INSERT INTO bookings`).
		WillReturnError(sql.ErrNoRows)

	// Rollback deletes the orphaned passenger row
	f.mock.ExpectExec(`DELETE FROM passengers`).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	_, err := f.svc.Confirm(confirmRequest())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSeatAlreadyBooked))

	assert.NoError(t, f.mock.ExpectationsWereMet())
	assert.Equal(t, 0, f.gateway.sent())
}

func TestConfirmInvalidSeat(t *testing.T) {
	f := newBookingFixture(t, 5000)

	f.expectBus()
	f.mock.ExpectQuery(`SELECT (.+) FROM bookings`).
		WithArgs("R1").
		WillReturnRows(sqlmock.NewRows(bookingColumns))
	f.expectNoActiveTrip()

	req := confirmRequest()
	req.Seats = []string{"99"}

	_, err := f.svc.Confirm(req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInputInvalid))
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
