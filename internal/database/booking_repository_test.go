package database

import (
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elitetransport/booking-backend/internal/models"
)

func TestInsertConfirmedSeat(t *testing.T) {
	mockDB, mock := newMockDB(t)
	repo := NewBookingRepository(mockDB)

	booking := &models.Booking{
		PassengerID: 7,
		BusID:       1,
		SeatNumber:  "5",
		PricePaid:   50,
		ExternalRef: "R1",
	}

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO bookings`).
			WithArgs(booking.PassengerID, booking.BusID, booking.TripID,
				booking.SeatNumber, booking.PricePaid, booking.ExternalRef,
				sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(21))

		ok, err := repo.InsertConfirmedSeat(booking, []string{"5", "A5"})
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, int64(21), booking.ID)
		assert.Equal(t, models.BookingStatusConfirmed, booking.Status)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Seat Already Sold", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO bookings`).
			WillReturnError(sql.ErrNoRows)

		ok, err := repo.InsertConfirmedSeat(booking, []string{"5", "A5"})
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Database Error", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO bookings`).
			WillReturnError(fmt.Errorf("connection reset"))

		ok, err := repo.InsertConfirmedSeat(booking, []string{"5", "A5"})
		assert.Error(t, err)
		assert.False(t, ok)
		assert.Contains(t, err.Error(), "failed to insert booking")
	})
}

func TestFindByRefPrefix(t *testing.T) {
	mockDB, mock := newMockDB(t)
	repo := NewBookingRepository(mockDB)

	now := time.Now()

	t.Run("Multi Seat Reference", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM bookings`).
			WithArgs("R1").
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "passenger_id", "bus_id", "trip_id", "seat_number",
				"price_paid", "status", "external_ref", "created_at",
			}).
				AddRow(21, 7, 1, nil, "5", 50.0, "confirmed", "R1:5", now).
				AddRow(22, 7, 1, nil, "6", 50.0, "confirmed", "R1:6", now))

		bookings, err := repo.FindByRefPrefix("R1")
		require.NoError(t, err)
		require.Len(t, bookings, 2)
		assert.Equal(t, "R1:5", bookings[0].ExternalRef)
		assert.Equal(t, "R1:6", bookings[1].ExternalRef)
	})

	t.Run("Unknown Reference", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM bookings`).
			WithArgs("R404").
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "passenger_id", "bus_id", "trip_id", "seat_number",
				"price_paid", "status", "external_ref", "created_at",
			}))

		bookings, err := repo.FindByRefPrefix("R404")
		require.NoError(t, err)
		assert.Empty(t, bookings)
	})
}

func TestHasConfirmedSeat(t *testing.T) {
	mockDB, mock := newMockDB(t)
	repo := NewBookingRepository(mockDB)

	t.Run("Seat Sold", func(t *testing.T) {
		mock.ExpectQuery(`SELECT COUNT(.+) FROM bookings`).
			WithArgs(int64(1), nil, sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		sold, err := repo.HasConfirmedSeat(1, nil, []string{"5", "A5"})
		require.NoError(t, err)
		assert.True(t, sold)
	})

	t.Run("Seat Free", func(t *testing.T) {
		mock.ExpectQuery(`SELECT COUNT(.+) FROM bookings`).
			WithArgs(int64(1), nil, sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		sold, err := repo.HasConfirmedSeat(1, nil, []string{"5", "A5"})
		require.NoError(t, err)
		assert.False(t, sold)
	})
}

func TestMarkConfirmedByRef(t *testing.T) {
	mockDB, mock := newMockDB(t)
	repo := NewBookingRepository(mockDB)

	t.Run("Promotes Pending", func(t *testing.T) {
		mock.ExpectExec(`UPDATE bookings`).
			WithArgs("R9").
			WillReturnResult(sqlmock.NewResult(0, 2))

		rows, err := repo.MarkConfirmedByRef("R9")
		require.NoError(t, err)
		assert.Equal(t, int64(2), rows)
	})

	t.Run("Nothing Pending", func(t *testing.T) {
		mock.ExpectExec(`UPDATE bookings`).
			WithArgs("R9").
			WillReturnResult(sqlmock.NewResult(0, 0))

		rows, err := repo.MarkConfirmedByRef("R9")
		require.NoError(t, err)
		assert.Equal(t, int64(0), rows)
	})
}
